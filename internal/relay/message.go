package relay

import (
	"math"

	"github.com/i474232898/watch-weather-bridge/internal/weather"
)

// Key is a numeric message key shared with the device-side renderer.
type Key uint32

const (
	KeyTemperature Key = 0
	KeyLocation    Key = 1
	KeyDescription Key = 2
	// KeyForecastOffset carries seconds until the selected forecast slot.
	KeyForecastOffset Key = 3
	// KeyWindSpeed reuses key 3 for current-conditions samples.
	KeyWindSpeed   Key = 3
	KeyWindBearing Key = 4
)

// Message is a flat record of scalar values keyed for the device.
type Message map[Key]any

const (
	unavailableCity        = "Loc Unavailable"
	unavailableTemperature = "N/A"
)

// Unavailable is sent when no location fix could be obtained, so the device
// still gets an answer to every refresh.
func Unavailable() Message {
	return Message{
		KeyLocation:    unavailableCity,
		KeyTemperature: unavailableTemperature,
	}
}

// FromSample lays out a weather sample according to its variant.
func FromSample(s weather.Sample) Message {
	m := Message{
		KeyTemperature: s.TemperatureC,
		KeyLocation:    s.LocationName,
		KeyDescription: s.Description,
	}

	switch s.Variant {
	case weather.VariantCurrent:
		m[KeyWindSpeed] = int(math.Round(s.WindSpeedMS))
		m[KeyWindBearing] = int(math.Round(s.WindBearing))
	default:
		m[KeyForecastOffset] = s.ForecastOffsetSeconds
	}

	return m
}
