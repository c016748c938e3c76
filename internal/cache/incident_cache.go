// Package cache memoizes incident reports in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"sahm/internal/models"
)

const keyPrefix = "sahm:incident:"

// IncidentCache stores reports keyed by the request that produced them
type IncidentCache interface {
	Get(ctx context.Context, req models.IncidentRequest) (*models.IncidentReport, error)
	Set(ctx context.Context, req models.IncidentRequest, report *models.IncidentReport) error
}

type incidentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIncidentCache returns a redis backed cache. A non-positive ttl defaults to ten minutes.
func NewIncidentCache(client *redis.Client, ttl time.Duration) IncidentCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &incidentCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns (nil, nil) on a miss
func (c *incidentCache) Get(ctx context.Context, req models.IncidentRequest) (*models.IncidentReport, error) {
	key, err := Key(req)
	if err != nil {
		return nil, err
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var report models.IncidentReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode cached report %s: %w", key, err)
	}
	return &report, nil
}

func (c *incidentCache) Set(ctx context.Context, req models.IncidentRequest, report *models.IncidentReport) error {
	key, err := Key(req)
	if err != nil {
		return err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Key derives the redis key from the request's canonical JSON encoding
func Key(req models.IncidentRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%016x", keyPrefix, xxhash.Sum64(data)), nil
}
