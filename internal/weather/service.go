package weather

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/weatherwise/weatherwise/internal/telemetry"
)

// Provider defines the interface for weather data providers.
type Provider interface {
	// GetCurrentWeather fetches current weather for a location.
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*Observation, error)

	// GetAirQuality fetches the current air quality index for a location.
	GetAirQuality(ctx context.Context, lat, lon float64) (*AirQuality, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records provider call durations and cache hits (optional).
	Metrics *telemetry.ProviderMetrics

	// CacheTTL is how long to cache provider data (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.01).
	// Points within the same grid cell share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 30 minutes).
	StaleIfErrorTTL time.Duration
}

// Service provides weather and air quality data with caching.
// It implements Provider so it can stand in for the raw provider.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	metrics         *telemetry.ProviderMetrics
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration

	inflight singleflight.Group

	mu              sync.RWMutex
	weatherCache    map[string]*cacheEntry[*Observation]
	airQualityCache map[string]*cacheEntry[*AirQuality]
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type cacheEntry[T any] struct {
	value     T
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01 // ~1km at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 30 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		weatherCache:    make(map[string]*cacheEntry[*Observation]),
		airQualityCache: make(map[string]*cacheEntry[*AirQuality]),
		cleanupInterval: 5 * time.Minute,
	}
}

// Name returns the name of the underlying provider.
func (s *Service) Name() string {
	return s.provider.Name()
}

// GetCurrentWeather returns current weather for a location.
// Uses cached data if available and not expired.
func (s *Service) GetCurrentWeather(ctx context.Context, lat, lon float64) (*Observation, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	key := s.cacheKey(lat, lon)
	if obs, ok := lookup(&s.mu, s.weatherCache, key); ok {
		s.recordCacheHit("current_weather")
		return obs, nil
	}
	s.recordCacheMiss("current_weather")

	return fetch(ctx, s, s.weatherCache, key, "current_weather", func(ctx context.Context) (*Observation, error) {
		return s.provider.GetCurrentWeather(ctx, lat, lon)
	})
}

// GetAirQuality returns the current air quality for a location.
// Uses cached data if available and not expired.
func (s *Service) GetAirQuality(ctx context.Context, lat, lon float64) (*AirQuality, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	key := s.cacheKey(lat, lon)
	if aq, ok := lookup(&s.mu, s.airQualityCache, key); ok {
		s.recordCacheHit("air_quality")
		return aq, nil
	}
	s.recordCacheMiss("air_quality")

	return fetch(ctx, s, s.airQualityCache, key, "air_quality", func(ctx context.Context) (*AirQuality, error) {
		return s.provider.GetAirQuality(ctx, lat, lon)
	})
}

func lookup[T any](mu *sync.RWMutex, cache map[string]*cacheEntry[T], key string) (T, bool) {
	mu.RLock()
	defer mu.RUnlock()

	if cached, ok := cache[key]; ok && time.Now().Before(cached.expiresAt) {
		return cached.value, true
	}
	var zero T
	return zero, false
}

// fetch calls the provider and updates the cache. On provider errors it
// serves stale data while it is younger than the stale-if-error TTL.
// Concurrent misses for the same operation and cell share one provider call;
// s.mu is never held while the provider is called.
func fetch[T any](
	ctx context.Context,
	s *Service,
	cache map[string]*cacheEntry[T],
	key, operation string,
	call func(context.Context) (T, error),
) (T, error) {
	var zero T

	ch := s.inflight.DoChan(operation+":"+key, func() (any, error) {
		if cached, ok := lookup(&s.mu, cache, key); ok {
			return cached, nil
		}

		s.logger.Debug().
			Str("key", key).
			Str("operation", operation).
			Str("provider", s.provider.Name()).
			Msg("fetching from provider")

		start := time.Now()
		value, err := call(ctx)
		if s.metrics != nil {
			s.metrics.RecordRequest(ctx, s.provider.Name(), operation, time.Since(start), err)
		}

		if err != nil {
			s.logger.Error().Err(err).
				Str("key", key).
				Str("operation", operation).
				Msg("provider request failed")

			s.mu.RLock()
			cached, ok := cache[key]
			s.mu.RUnlock()
			if ok && time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Str("operation", operation).
					Msg("serving stale data due to provider error")
				return cached.value, nil
			}

			return zero, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}

		now := time.Now()
		s.mu.Lock()
		cache[key] = &cacheEntry[T]{
			value:     value,
			fetchedAt: now,
			expiresAt: now.Add(s.cacheTTL),
		}
		s.cleanupIfNeeded(now)
		s.mu.Unlock()

		return value, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil //nolint:forcetypeassert // keyed by operation
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// cacheKey groups nearby points into grid cells to reduce API calls.
func (s *Service) cacheKey(lat, lon float64) string {
	gridLat := math.Floor(lat/s.cacheGridSize) * s.cacheGridSize
	gridLon := math.Floor(lon/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%.3f:%.3f", gridLat, gridLon)
}

// cleanupIfNeeded removes entries past the stale window. Caller holds s.mu.
func (s *Service) cleanupIfNeeded(now time.Time) {
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	expired := evict(s.weatherCache, now, s.staleIfErrorTTL) +
		evict(s.airQualityCache, now, s.staleIfErrorTTL)

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired weather cache entries")
	}
}

func evict[T any](cache map[string]*cacheEntry[T], now time.Time, staleTTL time.Duration) int {
	expired := 0
	for key, cached := range cache {
		if now.After(cached.fetchedAt.Add(staleTTL)) {
			delete(cache, key)
			expired++
		}
	}
	return expired
}

func (s *Service) recordCacheHit(operation string) {
	if s.metrics != nil {
		s.metrics.RecordCacheHit(s.provider.Name(), operation)
	}
}

func (s *Service) recordCacheMiss(operation string) {
	if s.metrics != nil {
		s.metrics.RecordCacheMiss(s.provider.Name(), operation)
	}
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.weatherCache)
	clear(s.airQualityCache)
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	stats := CacheStats{
		WeatherEntries:    len(s.weatherCache),
		AirQualityEntries: len(s.airQualityCache),
		Provider:          s.provider.Name(),
	}
	for _, c := range s.weatherCache {
		if now.Before(c.expiresAt) {
			stats.WeatherFreshEntries++
		}
	}
	for _, c := range s.airQualityCache {
		if now.Before(c.expiresAt) {
			stats.AirQualityFreshEntries++
		}
	}
	return stats
}

// CacheStats contains cache statistics.
type CacheStats struct {
	WeatherEntries         int
	WeatherFreshEntries    int
	AirQualityEntries      int
	AirQualityFreshEntries int
	Provider               string
}

// ValidateCoordinates checks if coordinates are within range.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

var _ Provider = (*Service)(nil)
