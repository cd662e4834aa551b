package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/material-tracker/internal/config"
	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	reportKeyPrefix   = "reports:"
	stockReportKey    = reportKeyPrefix + "stock"
	topOutboundPrefix = reportKeyPrefix + "top_outbound"
	ageReportPrefix   = reportKeyPrefix + "age"
	scanBatchSize     = 100
	defaultReportTTL  = time.Minute
)

// ReportCache holds derived reports between writes. Every write to the
// transaction log or the target table must call InvalidateAll.
type ReportCache interface {
	GetStock(ctx context.Context) (*domain.StockReport, bool, error)
	SetStock(ctx context.Context, report *domain.StockReport) error
	GetTopOutbound(ctx context.Context, limit int) (*domain.TopOutboundReport, bool, error)
	SetTopOutbound(ctx context.Context, limit int, report *domain.TopOutboundReport) error
	GetAge(ctx context.Context, filter domain.AgeFilter, day time.Time) (*domain.AgeReport, bool, error)
	SetAge(ctx context.Context, filter domain.AgeFilter, day time.Time, report *domain.AgeReport) error
	InvalidateAll(ctx context.Context) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

// NewReportCache returns a Redis-backed cache when caching is enabled, a no-op cache otherwise.
func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisReportCache(client, time.Duration(cfg.ReportTTLSeconds)*time.Second), nil
}

// NewRedisReportCache wraps an existing client.
func NewRedisReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	return &redisReportCache{client: client, ttl: ttl}
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) GetStock(ctx context.Context) (*domain.StockReport, bool, error) {
	var report domain.StockReport
	ok, err := c.get(ctx, stockReportKey, &report)
	if !ok || err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

func (c *redisReportCache) SetStock(ctx context.Context, report *domain.StockReport) error {
	return c.set(ctx, stockReportKey, report)
}

func (c *redisReportCache) GetTopOutbound(ctx context.Context, limit int) (*domain.TopOutboundReport, bool, error) {
	var report domain.TopOutboundReport
	ok, err := c.get(ctx, topOutboundKey(limit), &report)
	if !ok || err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

func (c *redisReportCache) SetTopOutbound(ctx context.Context, limit int, report *domain.TopOutboundReport) error {
	return c.set(ctx, topOutboundKey(limit), report)
}

func (c *redisReportCache) GetAge(ctx context.Context, filter domain.AgeFilter, day time.Time) (*domain.AgeReport, bool, error) {
	var report domain.AgeReport
	ok, err := c.get(ctx, ageReportKey(filter, day), &report)
	if !ok || err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

func (c *redisReportCache) SetAge(ctx context.Context, filter domain.AgeFilter, day time.Time, report *domain.AgeReport) error {
	return c.set(ctx, ageReportKey(filter, day), report)
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, reportKeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *redisReportCache) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode report cache %s: %w", key, err)
	}
	return true, nil
}

func (c *redisReportCache) set(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode report cache %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopReportCache) GetStock(ctx context.Context) (*domain.StockReport, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetStock(ctx context.Context, report *domain.StockReport) error {
	return nil
}

func (n *noopReportCache) GetTopOutbound(ctx context.Context, limit int) (*domain.TopOutboundReport, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetTopOutbound(ctx context.Context, limit int, report *domain.TopOutboundReport) error {
	return nil
}

func (n *noopReportCache) GetAge(ctx context.Context, filter domain.AgeFilter, day time.Time) (*domain.AgeReport, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetAge(ctx context.Context, filter domain.AgeFilter, day time.Time, report *domain.AgeReport) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}

	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func topOutboundKey(limit int) string {
	return topOutboundPrefix + ":" + strconv.Itoa(limit)
}

func ageReportKey(filter domain.AgeFilter, day time.Time) string {
	return fmt.Sprintf("%s:%s:%s", ageReportPrefix, day.UTC().Format("2006-01-02"), ageFilterHash(filter))
}

func ageFilterHash(filter domain.AgeFilter) string {
	parts := []string{}

	if v := strings.ToLower(strings.TrimSpace(filter.Location)); v != "" {
		parts = append(parts, "location="+v)
	}
	if v := strings.ToLower(strings.TrimSpace(filter.MaterialName)); v != "" {
		parts = append(parts, "material="+v)
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
