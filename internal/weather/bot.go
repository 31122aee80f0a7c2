package weather

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/asyncweather/internal/events"
)

// DefaultConcurrency bounds simultaneous city lookups.
const DefaultConcurrency = 4

// BotOption configures a Bot.
type BotOption func(*Bot)

// WithConcurrency limits how many cities are fetched at once. Values below 1 mean 1.
func WithConcurrency(limit int) BotOption {
	return func(b *Bot) {
		if limit < 1 {
			limit = 1
		}
		b.concurrency = limit
	}
}

// WithEventBus publishes a WeatherReportEvent per fetched city.
func WithEventBus(bus *events.EventBus) BotOption {
	return func(b *Bot) {
		b.bus = bus
	}
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(logger *log.Logger) BotOption {
	return func(b *Bot) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Bot keeps a list of cities and reports their current weather.
type Bot struct {
	client      Client
	mu          sync.Mutex
	cities      []string
	concurrency int
	bus         *events.EventBus
	logger      *log.Logger
	now         func() time.Time
}

// NewBot creates a bot backed by client.
func NewBot(client Client, opts ...BotOption) *Bot {
	b := &Bot{
		client:      client,
		concurrency: DefaultConcurrency,
		logger:      log.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// AddCity appends city unless it is blank or already listed.
// Returns true if the city was added.
func (b *Bot) AddCity(city string) bool {
	city = strings.TrimSpace(city)
	if city == "" {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.cities {
		if existing == city {
			return false
		}
	}
	b.cities = append(b.cities, city)
	return true
}

// Cities returns a copy of the city list in insertion order.
func (b *Bot) Cities() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.cities))
	copy(out, b.cities)
	return out
}

// Fetch resolves one city: location lookup first, then current conditions.
// Failures become sentinel reports rather than errors.
func (b *Bot) Fetch(ctx context.Context, city string) Report {
	report := Report{City: city}

	loc, err := b.client.SearchLocation(ctx, city)
	if err == nil {
		report.Conditions, err = b.client.CurrentConditions(ctx, loc.Key)
	}

	switch {
	case err == nil:
		report.Status = StatusOK
	case errors.Is(err, ErrNoLocation), errors.Is(err, ErrNoConditions):
		b.logger.Printf("no weather data for %s: %v", city, err)
		report.Status = StatusNoData
		report.Err = err
	default:
		b.logger.Printf("ERROR: fetching weather for %s: %v", city, err)
		report.Status = StatusError
		report.Err = err
	}
	report.FetchedAt = b.now()

	if b.bus != nil {
		b.bus.Publish(events.TopicWeather, events.WeatherReportEvent{
			City:        report.City,
			Status:      report.Status.String(),
			Temperature: report.Conditions.TemperatureC,
			Humidity:    report.Conditions.HumidityPct,
			Description: report.Conditions.Description,
			Timestamp:   report.FetchedAt,
		})
	}
	return report
}

// Reports fetches every listed city concurrently, bounded by the bot's concurrency.
// The result follows the city list order.
func (b *Bot) Reports(ctx context.Context) []Report {
	cities := b.Cities()
	reports := make([]Report, len(cities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, city := range cities {
		g.Go(func() error {
			reports[i] = b.Fetch(gctx, city)
			return nil
		})
	}

	// Per-city failures live in the reports; Wait has nothing to return.
	_ = g.Wait()
	return reports
}
