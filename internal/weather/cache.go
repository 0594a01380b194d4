package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/awaistahir/smart-boiler/internal/boiler"
	"go.uber.org/zap"
)

const (
	// forecastDaysToFetch amortizes one network round trip across many
	// per-date lookups.
	forecastDaysToFetch = 10

	cacheTTL = 30 * time.Minute
)

// ErrForecastUnavailable is returned only when the fetch failed and no cached
// entry — fresh or stale — exists for the requested key.
var ErrForecastUnavailable = errors.New("weather forecast unavailable")

// cacheKey rounds coordinates to 4 decimals so GPS jitter cannot fragment
// the cache.
type cacheKey struct {
	lat  string
	lon  string
	date string
}

type cacheEntry struct {
	forecast boiler.Forecast
	savedAt  time.Time
}

// Cache serves per-location, per-day forecasts with a 30-minute TTL and a
// stale-entry fallback when the source is unreachable. Safe for concurrent
// use; no lock is held across a fetch, so concurrent misses may fetch
// redundantly (last write wins).
type Cache struct {
	source Source
	log    *zap.SugaredLogger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
}

// NewCache creates a forecast cache over source. logger may be nil.
func NewCache(source Source, logger *zap.SugaredLogger) *Cache {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Cache{
		source:  source,
		log:     logger,
		now:     time.Now,
		entries: make(map[cacheKey]cacheEntry),
	}
}

func keyFor(lat, lon float64, date string) cacheKey {
	return cacheKey{
		lat:  fmt.Sprintf("%.4f", lat),
		lon:  fmt.Sprintf("%.4f", lon),
		date: date,
	}
}

// GetForecast returns the forecast for targetDate at (lat, lon). A fresh
// cache hit never touches the network. On a miss or stale hit it fetches a
// multi-day forecast and populates the cache for every returned date; if the
// fetch fails a stale entry is preferred over an error.
func (c *Cache) GetForecast(ctx context.Context, lat, lon float64, targetDate time.Time) (boiler.Forecast, error) {
	now := c.now()
	key := keyFor(lat, lon, targetDate.Format(boiler.DateLayout))

	c.mu.RLock()
	cached, haveCached := c.entries[key]
	c.mu.RUnlock()

	if haveCached && now.Sub(cached.savedAt) <= cacheTTL {
		return cached.forecast, nil
	}

	data, err := c.source.Fetch(ctx, lat, lon, forecastDaysToFetch)
	if err != nil {
		if haveCached {
			c.log.Warnw("forecast fetch failed, serving stale entry",
				"date", key.date, "age", now.Sub(cached.savedAt), "error", err)
			return cached.forecast, nil
		}
		return boiler.Forecast{}, fmt.Errorf("%w: %v", ErrForecastUnavailable, err)
	}

	derived := deriveForecasts(data, now.Format(boiler.DateLayout), now.Hour())

	c.mu.Lock()
	for date, fc := range derived {
		c.entries[keyFor(lat, lon, date)] = cacheEntry{forecast: fc, savedAt: now}
	}
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if !ok {
		if haveCached {
			return cached.forecast, nil
		}
		return boiler.Forecast{}, fmt.Errorf("%w: no data for %s", ErrForecastUnavailable, key.date)
	}
	return entry.forecast, nil
}
