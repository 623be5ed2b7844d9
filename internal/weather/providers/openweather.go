package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/watch-weather-bridge/internal/weather"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherProvider implements the weather.Provider interface for the
// OpenWeatherMap current conditions endpoint. It needs the device-supplied key.
type OpenWeatherProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(httpCfg HTTPClientConfig, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = openWeatherBaseURL
	}

	return &OpenWeatherProvider{
		name:    "openweather-current",
		baseURL: baseURL,
		httpCfg: withComponent(httpCfg, "openweather-current"),
		circuit: newCircuitBreaker("openweather-current"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, q weather.Query) (weather.Report, error) {
	if q.APIKey == "" {
		return weather.Report{}, fmt.Errorf("%w: %w: %s needs a key from the device", weather.ErrProvider, weather.ErrCredentialMissing, p.name)
	}

	values := coordinateValues(q.Coordinates)
	values.Set("appid", q.APIKey)

	body, err := fetch(ctx, p.httpCfg, p.circuit, fmt.Sprintf("%s/weather?%s", p.baseURL, values.Encode()))
	if err != nil {
		return weather.Report{}, err
	}

	var payload struct {
		Dt   int64  `json:"dt"`
		Name string `json:"name"`
		Main *struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Report{}, fmt.Errorf("%w: %s: %v", weather.ErrParse, p.name, err)
	}

	if payload.Main == nil || payload.Main.Temp == nil {
		return weather.Report{}, fmt.Errorf("%w: %s response has no main.temp", weather.ErrProvider, p.name)
	}
	if len(payload.Weather) == 0 {
		return weather.Report{}, fmt.Errorf("%w: %s response has no weather description", weather.ErrProvider, p.name)
	}

	ts := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		ts = time.Now().UTC()
	}

	return weather.Report{
		ProviderName: p.name,
		Variant:      weather.VariantCurrent,
		LocationName: payload.Name,
		Slots: []weather.Slot{{
			Time:        ts,
			TempKelvin:  *payload.Main.Temp,
			Description: payload.Weather[0].Description,
			WindSpeedMS: payload.Wind.Speed,
			WindBearing: payload.Wind.Deg,
		}},
	}, nil
}

func coordinateValues(c weather.Coordinates) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	return values
}

func withComponent(cfg HTTPClientConfig, name string) HTTPClientConfig {
	cfg.Log = cfg.Log.With().Str("provider", name).Logger()
	return cfg
}
