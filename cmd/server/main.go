package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"route-planner/internal/cache"
	"route-planner/internal/config"
	"route-planner/internal/database"
	"route-planner/internal/directions"
	"route-planner/internal/handlers"
	"route-planner/internal/optimization"
	"route-planner/internal/routing"
	"route-planner/internal/server"
	"route-planner/internal/sqlite"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", getEnv("ROUTEPLANNER_CONFIG", ""), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	dbPath := cfg.Places.DBPath
	if dbPath == "" {
		if dbPath, err = database.GetDBPath(); err != nil {
			return err
		}
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open places store: %w", err)
	}
	closers := []func() error{store.Close}

	if cfg.Places.SeedFile != "" {
		n, err := store.Seed(context.Background(), cfg.Places.SeedFile)
		if err != nil {
			store.Close()
			return fmt.Errorf("failed to seed places: %w", err)
		}
		log.Printf("[PLACES] Seeded %d places from %s", n, cfg.Places.SeedFile)
	}

	optimizer := optimization.NewClient(optimization.Config{
		BaseURL:   cfg.ORS.BaseURL,
		APIKey:    cfg.ORS.APIKey,
		Profile:   cfg.ORS.Profile,
		Timeout:   cfg.Optimization.Timeout,
		Precision: cfg.Geometry.Precision,
	})

	planner := routing.NewPlanner(optimizer, newPathFinder(cfg))

	handler := &handlers.Handler{
		DB:      store,
		Places:  store.Places(),
		Planner: planner,
	}

	if cfg.CacheEnabled() {
		planCache, err := cache.New(cfg.Cache.ValkeyAddr, cfg.Cache.TTL)
		if err != nil {
			log.Printf("[CACHE] Valkey unavailable, plan cache disabled: addr=%s err=%v", cfg.Cache.ValkeyAddr, err)
		} else {
			handler.Cache = planCache
			closers = append(closers, func() error {
				planCache.Close()
				return nil
			})
			log.Printf("[CACHE] Plan cache enabled: addr=%s ttl=%s", cfg.Cache.ValkeyAddr, cfg.Cache.TTL)
		}
	}

	srv := server.New(server.Config{Addr: cfg.Server.Addr}, handler, closers...)

	if _, err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdown
	log.Printf("Received signal %v, starting graceful shutdown", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("could not gracefully shutdown the server: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

func newPathFinder(cfg *config.Config) routing.PathFinder {
	if cfg.Path.Provider == config.PathProviderOSRM {
		log.Printf("[PLANNER] Using OSRM path provider: base_url=%s", cfg.OSRM.BaseURL)
		return directions.NewOSRMClient(directions.OSRMConfig{
			BaseURL:   cfg.OSRM.BaseURL,
			Timeout:   cfg.Path.Timeout,
			Precision: cfg.Geometry.Precision,
		})
	}

	log.Printf("[PLANNER] Using OpenRouteService path provider: profile=%s", cfg.ORS.Profile)
	return directions.NewORSClient(directions.ORSConfig{
		BaseURL: cfg.ORS.BaseURL,
		APIKey:  cfg.ORS.APIKey,
		Profile: cfg.ORS.Profile,
		Timeout: cfg.Path.Timeout,
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
