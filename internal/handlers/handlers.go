package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"route-planner/internal/database"
	"route-planner/internal/models"
	"route-planner/internal/routing"
)

// PlanCache memoizes planning results. A miss returns nil with no error.
type PlanCache interface {
	Get(ctx context.Context, key string) (*models.RouteArtifact, error)
	Put(ctx context.Context, key string, artifact *models.RouteArtifact) error
}

// Handler provides common handler utilities and dependencies
type Handler struct {
	DB      database.DataStore
	Places  database.PlaceFinder
	Planner routing.RoutePlanner
	// Cache is optional
	Cache PlanCache
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON/query names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// formatValidationError turns a field error into a user-facing message
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "latitude":
		return err.Field() + " must be a latitude between -90 and 90"
	case "longitude":
		return err.Field() + " must be a longitude between -180 and 180"
	default:
		return err.Field() + " failed " + err.Tag() + " validation"
	}
}

// validateRequest runs struct validation and writes a 400 on failure
func (h *Handler) validateRequest(w http.ResponseWriter, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		h.handleValidationError(w, err.Error(), nil)
		return false
	}

	messages := make([]string, len(validationErrors))
	for i, fe := range validationErrors {
		messages[i] = formatValidationError(fe)
	}
	h.handleValidationError(w, "Validation failed", messages)
	return false
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleValidationError handles 400 errors
func (h *Handler) handleValidationError(w http.ResponseWriter, message string, details interface{}) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

// handleConfigurationError handles 503 errors for missing service credentials
func (h *Handler) handleConfigurationError(w http.ResponseWriter, err error) {
	log.Printf("[ERROR] Configuration error: %v", err)
	h.writeError(w, http.StatusServiceUnavailable, "CONFIGURATION_ERROR", "Route planning is not configured on this server.", nil)
}

// handleLookupError handles 502 errors for failed place lookups
func (h *Handler) handleLookupError(w http.ResponseWriter, err error) {
	var lookupErr *database.ErrLookupFailed
	if errors.As(err, &lookupErr) {
		h.writeError(w, http.StatusBadGateway, "LOOKUP_FAILED", lookupErr.Reason, nil)
		return
	}
	h.handleInternalError(w, err)
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(w http.ResponseWriter, err error) {
	log.Printf("[ERROR] Internal error: %v", err)
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "connected"

	if h.DB == nil {
		dbStatus = "none"
	} else if err := h.DB.HealthCheck(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "error"
	}

	cacheStatus := "disabled"
	if h.Cache != nil {
		cacheStatus = "enabled"
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"version":  "1.0.0",
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}
