package weather

import (
	"context"
)

// Provider abstracts a weather data source (e.g. OpenWeatherMap current or forecast).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) (Report, error)
}

// PlaceNamer resolves a human readable place name for coordinates. It is used
// when a provider answers without a location name.
type PlaceNamer interface {
	PlaceName(ctx context.Context, c Coordinates) (string, error)
}
