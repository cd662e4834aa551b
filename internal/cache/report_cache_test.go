package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/material-tracker/internal/config"
	"github.com/andresuchdata/material-tracker/internal/domain"
)

func TestAgeFilterHash(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.AgeFilter
		same bool
	}{
		{"empty filters share default", domain.AgeFilter{}, domain.AgeFilter{Location: "  "}, true},
		{"case and whitespace ignored", domain.AgeFilter{Location: "PLTD Sanggau"}, domain.AgeFilter{Location: " pltd sanggau "}, true},
		{"different location", domain.AgeFilter{Location: "A"}, domain.AgeFilter{Location: "B"}, false},
		{"location vs material", domain.AgeFilter{Location: "x"}, domain.AgeFilter{MaterialName: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ageFilterHash(tt.a) == ageFilterHash(tt.b)
			if got != tt.same {
				t.Errorf("Expected same=%v for %+v and %+v", tt.same, tt.a, tt.b)
			}
		})
	}

	if ageFilterHash(domain.AgeFilter{}) != "default" {
		t.Errorf("Expected default hash for empty filter")
	}
}

func TestAgeReportKeyIncludesDay(t *testing.T) {
	day := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	key := ageReportKey(domain.AgeFilter{}, day)

	if !strings.HasPrefix(key, reportKeyPrefix) {
		t.Errorf("Expected key under %s, got %s", reportKeyPrefix, key)
	}
	if !strings.Contains(key, "2024-03-01") {
		t.Errorf("Expected key to carry the day, got %s", key)
	}
	if key == ageReportKey(domain.AgeFilter{}, day.AddDate(0, 0, 1)) {
		t.Error("Expected different days to use different keys")
	}
}

func TestNewReportCacheDisabledIsNoop(t *testing.T) {
	c, err := NewReportCache(config.CacheConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewReportCache failed: %v", err)
	}

	ctx := context.Background()
	if err := c.SetStock(ctx, &domain.StockReport{}); err != nil {
		t.Errorf("Expected noop set, got %v", err)
	}
	if _, ok, err := c.GetStock(ctx); ok || err != nil {
		t.Errorf("Expected miss from noop cache, got ok=%v err=%v", ok, err)
	}
	if err := c.InvalidateAll(ctx); err != nil {
		t.Errorf("Expected noop invalidate, got %v", err)
	}
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	if err != nil {
		t.Fatalf("buildRedisOptions failed: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 2 {
		t.Errorf("Unexpected options %+v", opts)
	}

	if _, err := buildRedisOptions(config.CacheConfig{RedisURL: "::not a url"}); err == nil {
		t.Error("Expected error for invalid redis url")
	}

	opts, err = buildRedisOptions(config.CacheConfig{})
	if err != nil || opts.Addr != "127.0.0.1:6379" {
		t.Errorf("Expected default address, got %+v (%v)", opts, err)
	}
}
