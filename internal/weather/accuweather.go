package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// DefaultAccuWeatherURL is the public AccuWeather data service.
const DefaultAccuWeatherURL = "http://dataservice.accuweather.com"

// maxErrorBody caps how much of an error reply ends up in an HTTPStatusError.
const maxErrorBody = 512

// AccuWeather talks to the AccuWeather HTTP API.
type AccuWeather struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	retry   RetryConfig
}

// NewAccuWeather creates an AccuWeather client.
func NewAccuWeather(cfg Config) (*AccuWeather, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultAccuWeatherURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url %q: %w", raw, err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	retry := cfg.Retry
	if retry == (RetryConfig{}) {
		retry = DefaultRetryConfig()
	}

	breakers := cfg.Breakers
	if breakers == nil {
		breakers = NewBreakerRegistry(cfg.Logger)
	}

	return &AccuWeather{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		breaker: breakers.Get(base.Host),
		retry:   retry,
	}, nil
}

type locationPayload struct {
	Key           string `json:"Key"`
	LocalizedName string `json:"LocalizedName"`
	Country       struct {
		ID string `json:"ID"`
	} `json:"Country"`
}

type conditionsPayload struct {
	LocalObservationDateTime time.Time `json:"LocalObservationDateTime"`
	WeatherText              string    `json:"WeatherText"`
	RelativeHumidity         *int      `json:"RelativeHumidity"`
	Temperature              struct {
		Metric struct {
			Value float64 `json:"Value"`
			Unit  string  `json:"Unit"`
		} `json:"Metric"`
	} `json:"Temperature"`
}

// SearchLocation resolves city through the city search endpoint and takes the first match.
func (a *AccuWeather) SearchLocation(ctx context.Context, city string) (Location, error) {
	q := url.Values{}
	q.Set("q", city)

	var found []locationPayload
	if err := a.getJSON(ctx, "/locations/v1/cities/search", q, &found); err != nil {
		return Location{}, err
	}
	if len(found) == 0 || found[0].Key == "" {
		return Location{}, fmt.Errorf("%w: %s", ErrNoLocation, city)
	}

	return Location{
		Key:     found[0].Key,
		Name:    found[0].LocalizedName,
		Country: found[0].Country.ID,
	}, nil
}

// CurrentConditions fetches detailed current conditions for a location key.
func (a *AccuWeather) CurrentConditions(ctx context.Context, locationKey string) (Conditions, error) {
	q := url.Values{}
	q.Set("details", "true")

	var found []conditionsPayload
	if err := a.getJSON(ctx, "/currentconditions/v1/"+url.PathEscape(locationKey), q, &found); err != nil {
		return Conditions{}, err
	}
	if len(found) == 0 {
		return Conditions{}, fmt.Errorf("%w: location %s", ErrNoConditions, locationKey)
	}

	c := found[0]
	out := Conditions{
		TemperatureC: c.Temperature.Metric.Value,
		Description:  c.WeatherText,
		ObservedAt:   c.LocalObservationDateTime,
	}
	if c.RelativeHumidity != nil {
		out.HumidityPct = *c.RelativeHumidity
	}
	return out, nil
}

// getJSON performs a GET with retry and circuit breaking and decodes the body into out.
func (a *AccuWeather) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := callWithRetry(ctx, a.breaker, a.retry, func(ctx context.Context) ([]byte, error) {
		return a.get(ctx, path, query)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: GET %s: %v", errDecode, path, err)
	}
	return nil
}

func (a *AccuWeather) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := *a.baseURL
	u.Path = a.baseURL.Path + path

	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("apikey", a.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		// url.Error embeds the full URL, api key included; keep only the cause.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("weather: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Path:       path,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("weather: reading %s: %w", path, err)
	}
	return body, nil
}
