package geo

import (
	"context"
	"errors"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/watch-weather-bridge/internal/weather"
)

var errNoAddress = errors.New("no address found for coordinates")

type reverseFunc func(geocoder.Location) ([]geocoder.Address, error)

// GoogleNamer resolves place names through the Google reverse geocoding API.
type GoogleNamer struct {
	reverse reverseFunc
}

// NewGoogleNamer configures the geocoder with apiKey. The geocoder package
// keeps its key globally, so only one namer should exist per process.
func NewGoogleNamer(apiKey string) *GoogleNamer {
	geocoder.ApiKey = apiKey
	return &GoogleNamer{reverse: geocoder.GeocodingReverse}
}

// PlaceName returns the city (or the closest coarser area) for c.
func (n *GoogleNamer) PlaceName(ctx context.Context, c weather.Coordinates) (string, error) {
	type answer struct {
		name string
		err  error
	}
	done := make(chan answer, 1)

	go func() {
		addresses, err := n.reverse(geocoder.Location{Latitude: c.Latitude, Longitude: c.Longitude})
		if err != nil {
			done <- answer{err: err}
			return
		}
		done <- answer{name: pickName(addresses)}
	}()

	select {
	case a := <-done:
		if a.err == nil && a.name == "" {
			a.err = errNoAddress
		}
		return a.name, a.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func pickName(addresses []geocoder.Address) string {
	for _, a := range addresses {
		for _, candidate := range []string{a.City, a.District, a.County, a.State} {
			if candidate != "" {
				return candidate
			}
		}
	}
	return ""
}
