// Package weather reports current conditions for a location as a short
// human readable summary.
package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/wayfind/internal/cache"
	"github.com/ppiankov/wayfind/internal/metrics"
	"github.com/ppiankov/wayfind/internal/retry"
)

// UnavailablePrefix starts every placeholder summary.
const UnavailablePrefix = "Weather data unavailable - "

// Provider fetches a formatted summary from a weather API.
type Provider interface {
	Current(ctx context.Context, location string) (string, error)
}

// Options configures a Service.
type Options struct {
	TTL     time.Duration
	Clock   cache.Clock
	Retry   retry.Policy
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Service caches provider lookups per location. It never fails: callers
// get a placeholder when conditions cannot be read.
type Service struct {
	provider Provider
	store    *cache.TTLStore
	group    singleflight.Group
	retry    retry.Policy
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewService wraps provider. A nil provider means no API key is configured.
func NewService(provider Provider, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.Retry.Retryable == nil {
		opts.Retry.Retryable = retry.RetryableStatus
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		provider: provider,
		store:    cache.NewTTLStore(opts.TTL, opts.Clock),
		retry:    opts.Retry,
		log:      log,
		metrics:  opts.Metrics,
	}
}

// Current returns the weather summary for location. Only successful
// lookups are cached.
func (s *Service) Current(ctx context.Context, location string) string {
	location = strings.TrimSpace(location)
	switch {
	case location == "":
		return Unavailable("no location given")
	case s.provider == nil:
		return Unavailable("no API key configured")
	}

	key := cache.NormalizeKey(location)
	if v, ok := s.store.Get(key); ok {
		s.metrics.WeatherCache(true)
		return v
	}
	s.metrics.WeatherCache(false)

	v, err, _ := s.group.Do(key, func() (any, error) {
		summary, err := retry.Value(ctx, s.retry, func(ctx context.Context) (string, error) {
			return s.provider.Current(ctx, location)
		})
		if err != nil {
			return "", err
		}
		s.store.Set(key, summary)
		return summary, nil
	})
	if err != nil {
		s.log.Warn("weather lookup failed", zap.String("location", location), zap.Error(err))
		return Unavailable(reason(err))
	}
	return v.(string)
}

// Unavailable builds the placeholder summary for reason.
func Unavailable(reason string) string {
	return UnavailablePrefix + reason
}

// IsUnavailable reports whether summary is a placeholder.
func IsUnavailable(summary string) bool {
	return strings.HasPrefix(summary, UnavailablePrefix)
}

func reason(err error) string {
	var se *retry.StatusError
	switch {
	case errors.Is(err, ErrInvalidKey):
		return ErrInvalidKey.Error()
	case errors.As(err, &se):
		return fmt.Sprintf("API error %d", se.Code)
	}
	return err.Error()
}
