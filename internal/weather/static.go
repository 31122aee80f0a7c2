package weather

import (
	"context"
	"fmt"
	"strings"
)

// Static serves fixed conditions from memory. Useful offline and in tests.
type Static struct {
	conditions map[string]Conditions // location key -> conditions
	locations  map[string]Location   // normalized city -> location
}

// NewStatic creates a provider that knows exactly the cities in fixtures.
func NewStatic(fixtures map[string]Conditions) *Static {
	s := &Static{
		conditions: make(map[string]Conditions, len(fixtures)),
		locations:  make(map[string]Location, len(fixtures)),
	}
	for city, c := range fixtures {
		key := "static-" + normalizeCity(city)
		s.locations[normalizeCity(city)] = Location{Key: key, Name: city}
		s.conditions[key] = c
	}
	return s
}

// SearchLocation matches city case-insensitively.
func (s *Static) SearchLocation(ctx context.Context, city string) (Location, error) {
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}
	loc, ok := s.locations[normalizeCity(city)]
	if !ok {
		return Location{}, fmt.Errorf("%w: %s", ErrNoLocation, city)
	}
	return loc, nil
}

// CurrentConditions returns the fixture stored for locationKey.
func (s *Static) CurrentConditions(ctx context.Context, locationKey string) (Conditions, error) {
	if err := ctx.Err(); err != nil {
		return Conditions{}, err
	}
	c, ok := s.conditions[locationKey]
	if !ok {
		return Conditions{}, fmt.Errorf("%w: location %s", ErrNoConditions, locationKey)
	}
	return c, nil
}

func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
