package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/watch-weather-bridge/internal/weather"
)

// DefaultForecastSlots is how many three-hour slots are requested.
const DefaultForecastSlots = 10

// OpenWeatherForecastProvider implements the weather.Provider interface for
// the OpenWeatherMap forecast list. Only coordinates are required; a key from
// the device is forwarded when one is present.
type OpenWeatherForecastProvider struct {
	name    string
	baseURL string
	slots   int
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherForecastProvider(httpCfg HTTPClientConfig, baseURL string, slots int) *OpenWeatherForecastProvider {
	if baseURL == "" {
		baseURL = openWeatherBaseURL
	}
	if slots <= 0 {
		slots = DefaultForecastSlots
	}

	return &OpenWeatherForecastProvider{
		name:    "openweather-forecast",
		baseURL: baseURL,
		slots:   slots,
		httpCfg: withComponent(httpCfg, "openweather-forecast"),
		circuit: newCircuitBreaker("openweather-forecast"),
	}
}

func (p *OpenWeatherForecastProvider) Name() string {
	return p.name
}

func (p *OpenWeatherForecastProvider) Fetch(ctx context.Context, q weather.Query) (weather.Report, error) {
	values := coordinateValues(q.Coordinates)
	values.Set("cnt", strconv.Itoa(p.slots))
	values.Set("mode", "json")
	if q.APIKey != "" {
		values.Set("appid", q.APIKey)
	}

	body, err := fetch(ctx, p.httpCfg, p.circuit, fmt.Sprintf("%s/forecast?%s", p.baseURL, values.Encode()))
	if err != nil {
		return weather.Report{}, err
	}

	var payload struct {
		City *struct {
			Name string `json:"name"`
		} `json:"city"`
		List []struct {
			Dt   int64 `json:"dt"`
			Main *struct {
				Temp *float64 `json:"temp"`
			} `json:"main"`
			Weather []struct {
				Description string `json:"description"`
			} `json:"weather"`
			Wind struct {
				Speed float64 `json:"speed"`
				Deg   float64 `json:"deg"`
			} `json:"wind"`
		} `json:"list"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Report{}, fmt.Errorf("%w: %s: %v", weather.ErrParse, p.name, err)
	}

	if payload.List == nil {
		return weather.Report{}, fmt.Errorf("%w: %s response has no list", weather.ErrProvider, p.name)
	}

	slots := make([]weather.Slot, 0, len(payload.List))
	for i, item := range payload.List {
		if item.Main == nil || item.Main.Temp == nil {
			return weather.Report{}, fmt.Errorf("%w: %s slot %d has no main.temp", weather.ErrProvider, p.name, i)
		}
		if len(item.Weather) == 0 {
			return weather.Report{}, fmt.Errorf("%w: %s slot %d has no weather description", weather.ErrProvider, p.name, i)
		}
		slots = append(slots, weather.Slot{
			Time:        time.Unix(item.Dt, 0).UTC(),
			TempKelvin:  *item.Main.Temp,
			Description: item.Weather[0].Description,
			WindSpeedMS: item.Wind.Speed,
			WindBearing: item.Wind.Deg,
		})
	}

	var city string
	if payload.City != nil {
		city = payload.City.Name
	}

	return weather.Report{
		ProviderName: p.name,
		Variant:      weather.VariantForecast,
		LocationName: city,
		Slots:        slots,
	}, nil
}
