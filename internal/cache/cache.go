package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/valkey-io/valkey-go"

	"route-planner/internal/metrics"
	"route-planner/internal/models"
)

const (
	DefaultTTL = 10 * time.Minute

	keyPrefix = "plan"
	// 9 characters is roughly a 5m cell
	geohashChars = 9
)

// PlanCache memoizes complete route artifacts in Valkey
type PlanCache struct {
	client valkey.Client
	ttl    time.Duration
}

// New connects to Valkey at addr
func New(addr string, ttl time.Duration) (*PlanCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PlanCache{client: client, ttl: ttl}, nil
}

// Key fingerprints a planning request by start cell, radius and the candidate
// set. Candidate order does not affect the key.
func Key(start models.GeoPoint, radiusMiles int, candidateIDs []string) string {
	ids := make([]string, len(candidateIDs))
	copy(ids, candidateIDs)
	sort.Strings(ids)

	sum := sha256.Sum256([]byte(strings.Join(ids, "\n")))
	cell := geohash.EncodeWithPrecision(start.Lat, start.Lng, geohashChars)

	return fmt.Sprintf("%s:%s:%d:%s", keyPrefix, cell, radiusMiles, hex.EncodeToString(sum[:]))
}

// Get returns the cached artifact for key. A miss returns nil with no error.
func (c *PlanCache) Get(ctx context.Context, key string) (*models.RouteArtifact, error) {
	cmd := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			metrics.CacheMisses.Inc()
			return nil, nil
		}
		return nil, err
	}

	b, err := cmd.AsBytes()
	if err != nil {
		return nil, err
	}

	artifact, err := decode(b)
	if err != nil {
		log.Printf("[CACHE] Dropping unreadable entry: key=%s err=%v", key, err)
		metrics.CacheMisses.Inc()
		return nil, nil
	}

	metrics.CacheHits.Inc()
	return artifact, nil
}

// Put stores the artifact unless planning degraded
func (c *PlanCache) Put(ctx context.Context, key string, artifact *models.RouteArtifact) error {
	b, ok, err := encode(artifact)
	if err != nil || !ok {
		return err
	}

	cmd := c.client.Do(ctx, c.client.B().Set().Key(key).Value(string(b)).Ex(c.ttl).Build())
	if err := cmd.Error(); err != nil {
		return err
	}

	log.Printf("[CACHE] Stored plan: key=%s stops=%d ttl=%s", key, len(artifact.Order), c.ttl)
	return nil
}

// Close releases the client
func (c *PlanCache) Close() {
	c.client.Close()
}

// encode reports false for artifacts that must not be memoized
func encode(artifact *models.RouteArtifact) ([]byte, bool, error) {
	if artifact == nil || artifact.Degraded() {
		return nil, false, nil
	}
	b, err := json.Marshal(artifact)
	if err != nil {
		return nil, false, fmt.Errorf("encode artifact: %w", err)
	}
	return b, true, nil
}

func decode(b []byte) (*models.RouteArtifact, error) {
	var artifact models.RouteArtifact
	if err := json.Unmarshal(b, &artifact); err != nil {
		return nil, err
	}
	if artifact.ID == "" {
		return nil, fmt.Errorf("artifact has no id")
	}
	return &artifact, nil
}
