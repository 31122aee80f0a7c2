package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/asyncweather/internal/weather"
)

// Duration is a time.Duration that reads and writes JSON as a Go duration string ("1.5s").
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"1s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// WeatherConfig selects the weather provider and the cities to report on.
type WeatherConfig struct {
	Provider       string                        `json:"provider"`           // "accuweather" or "static"
	BaseURL        string                        `json:"base_url,omitempty"` // Provider endpoint override
	APIKey         string                        `json:"api_key,omitempty"`  // Overridden by ACCUWEATHER_API_KEY
	Cities         []string                      `json:"cities"`             // Default city list
	Concurrency    int                           `json:"concurrency"`        // Simultaneous city lookups
	RequestTimeout Duration                      `json:"request_timeout"`    // Per HTTP request
	Static         map[string]weather.Conditions `json:"static,omitempty"`   // Fixture data for the static provider
}

// GroupConfig holds the defaults for the task group demo.
type GroupConfig struct {
	Durations  []float64 `json:"durations"`
	Forbidden  float64   `json:"forbidden"`
	Unit       Duration  `json:"unit"`
	GraceDelay float64   `json:"grace_delay"`
}

// RetryConfig mirrors weather.RetryConfig with JSON-friendly durations.
type RetryConfig struct {
	InitialInterval     Duration `json:"initial_interval"`
	MaxInterval         Duration `json:"max_interval"`
	MaxElapsedTime      Duration `json:"max_elapsed_time"`
	Multiplier          float64  `json:"multiplier"`
	RandomizationFactor float64  `json:"randomization_factor"`
}

// StoreConfig locates the history database.
type StoreConfig struct {
	Path string `json:"path"` // A leading ~/ expands to the home directory
}

// Config is the top-level configuration.
type Config struct {
	Weather WeatherConfig `json:"weather"`
	Group   GroupConfig   `json:"group"`
	Retry   RetryConfig   `json:"retry"`
	Store   StoreConfig   `json:"store"`
}

// Backoff converts the retry section for the weather client.
func (r RetryConfig) Backoff() weather.RetryConfig {
	return weather.RetryConfig{
		InitialInterval:     time.Duration(r.InitialInterval),
		MaxInterval:         time.Duration(r.MaxInterval),
		MaxElapsedTime:      time.Duration(r.MaxElapsedTime),
		Multiplier:          r.Multiplier,
		RandomizationFactor: r.RandomizationFactor,
	}
}

// ClientConfig builds the weather client configuration from the weather and retry sections.
func (c *Config) ClientConfig() weather.Config {
	return weather.Config{
		Type:           c.Weather.Provider,
		BaseURL:        c.Weather.BaseURL,
		APIKey:         c.Weather.APIKey,
		RequestTimeout: time.Duration(c.Weather.RequestTimeout),
		Retry:          c.Retry.Backoff(),
		Fixtures:       c.Weather.Static,
	}
}
