package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

var (
	// ErrNoLocation means the provider knows no location for the city.
	ErrNoLocation = errors.New("weather: no location found")

	// ErrNoConditions means the provider returned no current conditions.
	ErrNoConditions = errors.New("weather: no conditions available")

	// ErrMissingAPIKey is returned when a remote provider is configured without a key.
	ErrMissingAPIKey = errors.New("weather: api key is required")

	errDecode = errors.New("weather: malformed response")
)

// HTTPStatusError is a non-2xx reply from the provider.
type HTTPStatusError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("weather: GET %s: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("weather: GET %s: status %d: %s", e.Path, e.StatusCode, e.Body)
}

// Client resolves a city to its current conditions in two lookups.
type Client interface {
	// SearchLocation resolves a city name to a provider location.
	SearchLocation(ctx context.Context, city string) (Location, error)

	// CurrentConditions returns the conditions at a resolved location.
	CurrentConditions(ctx context.Context, locationKey string) (Conditions, error)
}

// Config defines how a Client is built.
type Config struct {
	Type           string // "accuweather" or "static"
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	Retry          RetryConfig
	Fixtures       map[string]Conditions // Static provider data, keyed by city
	Breakers       *BreakerRegistry      // Shared breakers; nil creates a private registry
	Logger         *log.Logger
}

// New creates a client based on the provided configuration.
func New(cfg Config) (Client, error) {
	switch cfg.Type {
	case "accuweather", "":
		return NewAccuWeather(cfg)
	case "static":
		return NewStatic(cfg.Fixtures), nil
	default:
		return nil, fmt.Errorf("unknown weather provider: %s", cfg.Type)
	}
}
