package location

import (
	"context"
	"errors"
)

var (
	ErrPermissionDenied = errors.New("permission to access location was denied")
	ErrUnavailable      = errors.New("error getting location")
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Provider abstracts the platform location service. Sampling is bounded by
// the provider's own timeout(via ctx), not by the callers.
type Provider interface {
	RequestPermission(ctx context.Context) error
	Current(ctx context.Context) (Coordinates, error)
}

// StaticProvider serves a fixed coordinate pair, e.g. from CLI flags or the
// app config. A zero-valued pair reads as 'location unavailable'.
type StaticProvider struct {
	Coords Coordinates
}

func (p *StaticProvider) RequestPermission(ctx context.Context) error {
	return nil
}

func (p *StaticProvider) Current(ctx context.Context) (Coordinates, error) {
	if p.Coords.Latitude == 0 && p.Coords.Longitude == 0 {
		return Coordinates{}, ErrUnavailable
	}

	return p.Coords, nil
}
