package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acstore/replenishment/internal/config"
	"github.com/acstore/replenishment/internal/domain"
)

const (
	suggestionKeyPrefix     = "replan:suggestion"
	suggestionScanBatchSize = 100
)

// SuggestionCache memoizes suggestion evaluations between planning runs. The
// key covers every input knob so two different evaluations never collide.
type SuggestionCache interface {
	Get(ctx context.Context, productID string, coverageDays int, quotationID string) (*domain.SuggestionRecord, bool, error)
	Set(ctx context.Context, productID string, coverageDays int, quotationID string, rec domain.SuggestionRecord) error
	InvalidateAll(ctx context.Context) error
}

type redisSuggestionCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSuggestionCache struct{}

func NewSuggestionCache(cfg config.CacheConfig) (SuggestionCache, error) {
	if !cfg.Enabled {
		return &noopSuggestionCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisSuggestionCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopSuggestionCache() SuggestionCache {
	return &noopSuggestionCache{}
}

func (c *redisSuggestionCache) Get(ctx context.Context, productID string, coverageDays int, quotationID string) (*domain.SuggestionRecord, bool, error) {
	key := buildSuggestionKey(productID, coverageDays, quotationID)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rec domain.SuggestionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, false, fmt.Errorf("decode suggestion cache: %w", err)
	}

	return &rec, true, nil
}

func (c *redisSuggestionCache) Set(ctx context.Context, productID string, coverageDays int, quotationID string, rec domain.SuggestionRecord) error {
	key := buildSuggestionKey(productID, coverageDays, quotationID)
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode suggestion cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisSuggestionCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, suggestionKeyPrefix, suggestionScanBatchSize)
}

func (n *noopSuggestionCache) Get(ctx context.Context, productID string, coverageDays int, quotationID string) (*domain.SuggestionRecord, bool, error) {
	return nil, false, nil
}

func (n *noopSuggestionCache) Set(ctx context.Context, productID string, coverageDays int, quotationID string, rec domain.SuggestionRecord) error {
	return nil
}

func (n *noopSuggestionCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildSuggestionKey(productID string, coverageDays int, quotationID string) string {
	raw := strings.Join([]string{
		"product=" + strings.TrimSpace(productID),
		fmt.Sprintf("coverage=%d", coverageDays),
		"quotation=" + strings.TrimSpace(quotationID),
	}, "|")
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", suggestionKeyPrefix, hex.EncodeToString(sum[:]))
}
