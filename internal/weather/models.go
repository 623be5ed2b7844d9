package weather

import (
	"fmt"
	"time"
)

// Coordinates is a single geolocation fix.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Variant tells which shape of provider response a sample was derived from.
// The device renderer interprets message keys 3 and 4 differently per variant.
type Variant string

const (
	VariantCurrent  Variant = "current"
	VariantForecast Variant = "forecast"
)

// Slot is one timestamped data point as returned by a provider.
// Temperatures are kept in Kelvin until extraction.
type Slot struct {
	Time        time.Time
	TempKelvin  float64
	Description string
	WindSpeedMS float64
	WindBearing float64
}

// Report is the raw provider answer before field extraction.
// Forecast reports are expected to be ordered by Time ascending.
type Report struct {
	ProviderName string
	Variant      Variant
	LocationName string
	Slots        []Slot
}

// Sample holds the handful of scalar fields relayed to the device.
type Sample struct {
	Variant      Variant
	TemperatureC int
	LocationName string
	Description  string

	// Forecast variant only.
	ForecastOffsetSeconds int64
	ForecastEpoch         int64

	// Current variant only.
	WindSpeedMS float64
	WindBearing float64
}

// Query is what a provider needs to answer one request.
type Query struct {
	Coordinates Coordinates
	APIKey      string
}
