package config

import (
	"time"

	"github.com/aristath/asyncweather/internal/weather"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	retry := weather.DefaultRetryConfig()

	return &Config{
		Weather: WeatherConfig{
			Provider:       "accuweather",
			BaseURL:        weather.DefaultAccuWeatherURL,
			Cities:         []string{"Almere", "Kharkiv", "London"},
			Concurrency:    weather.DefaultConcurrency,
			RequestTimeout: Duration(10 * time.Second),
		},
		Group: GroupConfig{
			Durations:  []float64{2, 5, 7},
			Forbidden:  5,
			Unit:       Duration(time.Second),
			GraceDelay: 5,
		},
		Retry: RetryConfig{
			InitialInterval:     Duration(retry.InitialInterval),
			MaxInterval:         Duration(retry.MaxInterval),
			MaxElapsedTime:      Duration(retry.MaxElapsedTime),
			Multiplier:          retry.Multiplier,
			RandomizationFactor: retry.RandomizationFactor,
		},
		Store: StoreConfig{
			Path: "~/.asyncweather/history.db",
		},
	}
}
