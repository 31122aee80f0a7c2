package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/aristath/asyncweather/internal/config"
)

// PromptCities asks for a comma or newline separated city list, prefilled with defaults.
// The result is trimmed and free of blanks; duplicates are left for the bot to drop.
func PromptCities(defaults []string) ([]string, error) {
	raw := strings.Join(defaults, ", ")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Key("cities").
				Title("Cities").
				Description("Comma or newline separated").
				Value(&raw).
				Validate(func(s string) error {
					if len(SplitCities(s)) == 0 {
						return errors.New("enter at least one city")
					}
					return nil
				}),
		).Title("Weather Report"),
	)

	if err := form.Run(); err != nil {
		return nil, err
	}
	return SplitCities(raw), nil
}

// SplitCities splits s on commas, semicolons and newlines, dropping blank entries.
func SplitCities(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// PromptGroup edits the group section in place: durations, forbidden value, unit and grace delay.
func PromptGroup(cfg *config.GroupConfig) error {
	durations := formatDurations(cfg.Durations)
	forbidden := strconv.FormatFloat(cfg.Forbidden, 'g', -1, 64)
	unit := time.Duration(cfg.Unit).String()
	grace := strconv.FormatFloat(cfg.GraceDelay, 'g', -1, 64)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("durations").
				Title("Durations").
				Description("Comma separated, in units").
				Value(&durations).
				Validate(func(s string) error {
					values, err := ParseDurations(s)
					if err != nil {
						return err
					}
					for _, v := range values {
						if v < 0 {
							return fmt.Errorf("%g: durations must not be negative", v)
						}
					}
					return nil
				}),

			huh.NewInput().
				Key("forbidden").
				Title("Forbidden duration").
				Value(&forbidden).
				Validate(validateNumber),
		).Title("Operations"),

		huh.NewGroup(
			huh.NewInput().
				Key("unit").
				Title("Unit").
				Value(&unit).
				Placeholder("1s").
				Validate(func(s string) error {
					d, err := time.ParseDuration(s)
					if err == nil && d <= 0 {
						err = errors.New("unit must be positive")
					}
					return err
				}),

			huh.NewInput().
				Key("grace").
				Title("Grace delay (units)").
				Value(&grace).
				Validate(validateNumber),
		).Title("Timing"),
	)

	if err := form.Run(); err != nil {
		return err
	}

	// Inputs were validated by the form.
	cfg.Durations, _ = ParseDurations(durations)
	cfg.Forbidden, _ = strconv.ParseFloat(strings.TrimSpace(forbidden), 64)
	d, _ := time.ParseDuration(unit)
	cfg.Unit = config.Duration(d)
	cfg.GraceDelay, _ = strconv.ParseFloat(strings.TrimSpace(grace), 64)
	return nil
}

// ParseDurations parses a comma separated list of numbers. The empty string is an empty list.
// Range checks are left to the group.
func ParseDurations(s string) ([]float64, error) {
	out := []float64{}
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", field, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func formatDurations(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}

func validateNumber(s string) error {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err
}
