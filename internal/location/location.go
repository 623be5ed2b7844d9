package location

import (
	"context"
	"fmt"
	"time"

	"github.com/i474232898/watch-weather-bridge/internal/weather"
)

// Code classifies a location failure. Values follow the geolocation API the
// phone host exposes.
type Code int

const (
	CodePermissionDenied    Code = 1
	CodePositionUnavailable Code = 2
	CodeTimeout             Code = 3
)

func (c Code) String() string {
	switch c {
	case CodePermissionDenied:
		return "permission denied"
	case CodePositionUnavailable:
		return "position unavailable"
	case CodeTimeout:
		return "timeout"
	}
	return fmt.Sprintf("code %d", int(c))
}

// Error is returned when no usable fix could be obtained.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("location error (%d): %s", int(e.Code), e.Message)
}

// Options mirror the host geolocation options.
type Options struct {
	// Timeout bounds how long Locate waits for a fresh fix.
	Timeout time.Duration
	// MaxAge is how old a cached fix may be and still be returned.
	MaxAge time.Duration
}

// DefaultOptions wait 15s for a fix and accept cached fixes up to a minute old.
var DefaultOptions = Options{
	Timeout: 15 * time.Second,
	MaxAge:  60 * time.Second,
}

// Provider produces the device's coordinates. Locate resolves exactly once,
// with either coordinates or an error.
type Provider interface {
	Locate(ctx context.Context) (weather.Coordinates, error)
}

// Fix is a timestamped coordinate pair reported by the host.
type Fix struct {
	Coordinates weather.Coordinates `json:"coordinates"`
	Accuracy    float64             `json:"accuracy,omitempty"`
	At          time.Time           `json:"at"`
}
