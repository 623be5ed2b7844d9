package providers

import (
	"fmt"

	"github.com/i474232898/watch-weather-bridge/internal/weather"
)

const (
	OpenWeatherCurrent  = "openweather-current"
	OpenWeatherForecast = "openweather-forecast"
)

// Settings selects and configures the active provider.
type Settings struct {
	Name          string
	BaseURL       string
	ForecastSlots int
	HTTP          HTTPClientConfig
}

// New builds the provider named in s.
func New(s Settings) (weather.Provider, error) {
	switch s.Name {
	case OpenWeatherCurrent:
		return NewOpenWeatherProvider(s.HTTP, s.BaseURL), nil
	case OpenWeatherForecast, "":
		return NewOpenWeatherForecastProvider(s.HTTP, s.BaseURL, s.ForecastSlots), nil
	}
	return nil, fmt.Errorf("unknown weather provider %q", s.Name)
}
