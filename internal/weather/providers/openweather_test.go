package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/i474232898/watch-weather-bridge/internal/weather"
)

var london = weather.Coordinates{Latitude: 51.5, Longitude: -0.12}

func testHTTPConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Client:       &http.Client{Timeout: 2 * time.Second},
		Backoff:      DefaultBackoff,
		StrictStatus: true,
		Log:          zerolog.Nop(),
	}
}

func serve(t *testing.T, status int, body string, inspect func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			inspect(r)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestForecastProviderBuildsCoordinateQuery(t *testing.T) {
	is := is.New(t)

	var got *http.Request
	srv := serve(t, http.StatusOK, forecastBody, func(r *http.Request) { got = r })

	p := NewOpenWeatherForecastProvider(testHTTPConfig(), srv.URL, 0)
	report, err := p.Fetch(context.Background(), weather.Query{Coordinates: london})
	is.NoErr(err)

	is.Equal(got.URL.Path, "/forecast")
	is.Equal(got.URL.Query().Get("lat"), "51.5")
	is.Equal(got.URL.Query().Get("lon"), "-0.12")
	is.Equal(got.URL.Query().Get("cnt"), "10")
	is.Equal(got.URL.Query().Get("mode"), "json")
	is.Equal(got.URL.Query().Get("appid"), "") // no key was supplied

	is.Equal(report.Variant, weather.VariantForecast)
	is.Equal(report.LocationName, "London")
	is.Equal(len(report.Slots), 2)
	is.Equal(report.Slots[0].Time.Unix(), int64(1700000000))
	is.Equal(report.Slots[1].TempKelvin, 284.15)
	is.Equal(report.Slots[1].Description, "clear sky")
}

func TestForecastProviderForwardsDeviceKey(t *testing.T) {
	is := is.New(t)

	var key string
	srv := serve(t, http.StatusOK, forecastBody, func(r *http.Request) { key = r.URL.Query().Get("appid") })

	p := NewOpenWeatherForecastProvider(testHTTPConfig(), srv.URL, 3)
	_, err := p.Fetch(context.Background(), weather.Query{Coordinates: london, APIKey: "device-key"})
	is.NoErr(err)
	is.Equal(key, "device-key")
}

func TestForecastProviderRejectsMissingFields(t *testing.T) {
	is := is.New(t)

	srv := serve(t, http.StatusOK, `{"city":{"name":"London"},"list":[{"dt":1,"weather":[{"description":"x"}]}]}`, nil)

	p := NewOpenWeatherForecastProvider(testHTTPConfig(), srv.URL, 0)
	_, err := p.Fetch(context.Background(), weather.Query{Coordinates: london})
	is.True(errors.Is(err, weather.ErrProvider))
}

func TestForecastProviderRejectsMalformedJSON(t *testing.T) {
	is := is.New(t)

	srv := serve(t, http.StatusOK, `<html>oops</html>`, nil)

	p := NewOpenWeatherForecastProvider(testHTTPConfig(), srv.URL, 0)
	_, err := p.Fetch(context.Background(), weather.Query{Coordinates: london})
	is.True(errors.Is(err, weather.ErrParse))
}

func TestStrictStatusTurnsErrorBodiesIntoNetworkErrors(t *testing.T) {
	is := is.New(t)

	srv := serve(t, http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key"}`, nil)

	p := NewOpenWeatherForecastProvider(testHTTPConfig(), srv.URL, 0)
	_, err := p.Fetch(context.Background(), weather.Query{Coordinates: london})
	is.True(errors.Is(err, weather.ErrNetwork))
}

// Without status validation an error body reaches the decoder. The OpenWeather
// error shape has no list, so it is caught as a provider error instead.
func TestLenientStatusParsesErrorBodies(t *testing.T) {
	is := is.New(t)

	srv := serve(t, http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key"}`, nil)

	cfg := testHTTPConfig()
	cfg.StrictStatus = false

	p := NewOpenWeatherForecastProvider(cfg, srv.URL, 0)
	_, err := p.Fetch(context.Background(), weather.Query{Coordinates: london})
	is.True(!errors.Is(err, weather.ErrNetwork))
	is.True(errors.Is(err, weather.ErrProvider))
}

func TestLenientStatusAcceptsWeatherShapedErrorBodies(t *testing.T) {
	is := is.New(t)

	srv := serve(t, http.StatusBadGateway, forecastBody, nil)

	cfg := testHTTPConfig()
	cfg.StrictStatus = false

	p := NewOpenWeatherForecastProvider(cfg, srv.URL, 0)
	report, err := p.Fetch(context.Background(), weather.Query{Coordinates: london})
	is.NoErr(err) // known gap: a 502 with a forecast-shaped body is treated as data
	is.Equal(report.LocationName, "London")
}

func TestNoRetriesByDefault(t *testing.T) {
	is := is.New(t)

	var calls int32
	srv := serve(t, http.StatusInternalServerError, `{}`, func(*http.Request) { atomic.AddInt32(&calls, 1) })

	p := NewOpenWeatherForecastProvider(testHTTPConfig(), srv.URL, 0)
	_, err := p.Fetch(context.Background(), weather.Query{Coordinates: london})
	is.True(errors.Is(err, weather.ErrNetwork))
	is.Equal(atomic.LoadInt32(&calls), int32(1))
}

func TestConfiguredRetriesBackOff(t *testing.T) {
	is := is.New(t)

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	cfg := testHTTPConfig()
	cfg.Backoff = BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

	p := NewOpenWeatherForecastProvider(cfg, srv.URL, 0)
	_, err := p.Fetch(context.Background(), weather.Query{Coordinates: london})
	is.NoErr(err)
	is.Equal(atomic.LoadInt32(&calls), int32(2))
}

func TestCurrentProviderNeedsKey(t *testing.T) {
	is := is.New(t)

	p := NewOpenWeatherProvider(testHTTPConfig(), "http://127.0.0.1:1")
	_, err := p.Fetch(context.Background(), weather.Query{Coordinates: london})
	is.True(errors.Is(err, weather.ErrCredentialMissing))
	is.True(errors.Is(err, weather.ErrProvider))
}

func TestCurrentProviderExtractsWind(t *testing.T) {
	is := is.New(t)

	var got *http.Request
	srv := serve(t, http.StatusOK, currentBody, func(r *http.Request) { got = r })

	p := NewOpenWeatherProvider(testHTTPConfig(), srv.URL)
	report, err := p.Fetch(context.Background(), weather.Query{Coordinates: london, APIKey: "k"})
	is.NoErr(err)

	is.Equal(got.URL.Path, "/weather")
	is.Equal(got.URL.Query().Get("appid"), "k")
	is.Equal(report.Variant, weather.VariantCurrent)
	is.Equal(report.LocationName, "London")
	is.Equal(len(report.Slots), 1)
	is.Equal(report.Slots[0].WindSpeedMS, 4.1)
	is.Equal(report.Slots[0].WindBearing, 240.0)
	is.Equal(report.Slots[0].Description, "light rain")
}

func TestRegistrySelectsProvider(t *testing.T) {
	is := is.New(t)

	p, err := New(Settings{Name: OpenWeatherCurrent, HTTP: testHTTPConfig()})
	is.NoErr(err)
	is.Equal(p.Name(), OpenWeatherCurrent)

	p, err = New(Settings{HTTP: testHTTPConfig()})
	is.NoErr(err)
	is.Equal(p.Name(), OpenWeatherForecast)

	_, err = New(Settings{Name: "darksky"})
	is.True(err != nil)
}

const forecastBody = `{
  "cod": "200",
  "city": {"name": "London", "country": "GB"},
  "list": [
    {"dt": 1700000000, "main": {"temp": 283.15}, "weather": [{"main": "Clouds", "description": "broken clouds"}], "wind": {"speed": 3.2, "deg": 200}},
    {"dt": 1700010800, "main": {"temp": 284.15}, "weather": [{"main": "Clear", "description": "clear sky"}], "wind": {"speed": 2.0, "deg": 180}}
  ]
}`

const currentBody = `{
  "dt": 1700000000,
  "name": "London",
  "main": {"temp": 285.32},
  "wind": {"speed": 4.1, "deg": 240},
  "weather": [{"main": "Rain", "description": "light rain"}]
}`
