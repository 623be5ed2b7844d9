package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port     string `validate:"required,numeric"`
	LogLevel string `validate:"oneof=trace debug info warn error"`

	// Weather provider selection. The provider key is never configured here;
	// it only arrives with device refresh requests.
	WeatherProvider string `validate:"oneof=openweather-current openweather-forecast"`
	WeatherBaseURL  string `validate:"omitempty,url"`
	ForecastSlots   int    `validate:"min=1,max=40"`
	Rounding        string `validate:"oneof=half-even half-up"`

	// Outbound HTTP behaviour.
	HTTPTimeout     time.Duration `validate:"gt=0"`
	FetchMaxRetries int           `validate:"min=0,max=10"`
	StrictStatus    bool

	// CredentialBinding is snapshot or shared.
	CredentialBinding string `validate:"oneof=snapshot shared"`

	// Location source: host pushes fixes over the API, static uses fixed coordinates.
	LocationSource  string        `validate:"oneof=host static"`
	LocationTimeout time.Duration `validate:"gt=0"`
	LocationMaxAge  time.Duration `validate:"gte=0"`
	StaticLatitude  float64       `validate:"latitude"`
	StaticLongitude float64       `validate:"longitude"`

	// Device channel: mqtt or webhook.
	DeviceChannel    string `validate:"oneof=mqtt webhook"`
	MQTTBroker       string `validate:"required_if=DeviceChannel mqtt"`
	MQTTClientID     string `validate:"required_if=DeviceChannel mqtt"`
	MQTTOutboxTopic  string `validate:"required_if=DeviceChannel mqtt"`
	MQTTInboxTopic   string
	DeviceWebhookURL string `validate:"required_if=DeviceChannel webhook"`

	// RefreshInterval controls periodic refreshes (0 = disabled).
	RefreshInterval time.Duration `validate:"gte=0"`

	// GeocoderAPIKey enables reverse geocoding when a provider omits the place name.
	GeocoderAPIKey string
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:     getenvDefault("PORT", "8080"),
		LogLevel: getenvDefault("LOG_LEVEL", "info"),

		WeatherProvider: getenvDefault("WEATHER_PROVIDER", "openweather-forecast"),
		WeatherBaseURL:  os.Getenv("WEATHER_BASE_URL"),
		ForecastSlots:   getenvInt("FORECAST_SLOTS", 10),
		Rounding:        getenvDefault("TEMPERATURE_ROUNDING", "half-even"),

		FetchMaxRetries: getenvInt("FETCH_MAX_RETRIES", 0),
		StrictStatus:    getenvBool("FETCH_STRICT_STATUS", true),

		CredentialBinding: getenvDefault("CREDENTIAL_BINDING", "snapshot"),

		LocationSource: getenvDefault("LOCATION_SOURCE", "host"),

		DeviceChannel:    getenvDefault("DEVICE_CHANNEL", "mqtt"),
		MQTTBroker:       getenvDefault("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:     getenvDefault("MQTT_CLIENT_ID", "watch-weather-bridge"),
		MQTTOutboxTopic:  getenvDefault("MQTT_OUTBOX_TOPIC", "watch/weather"),
		MQTTInboxTopic:   getenvDefault("MQTT_INBOX_TOPIC", "watch/refresh"),
		DeviceWebhookURL: os.Getenv("DEVICE_WEBHOOK_URL"),

		GeocoderAPIKey: os.Getenv("GEOCODER_API_KEY"),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.LocationTimeout, err = getenvDuration("LOCATION_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.LocationMaxAge, err = getenvDuration("LOCATION_MAX_AGE", "60s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "30m"); err != nil {
		return nil, err
	}

	if cfg.LocationSource == "static" {
		if cfg.StaticLatitude, err = getenvFloat("STATIC_LATITUDE"); err != nil {
			return nil, err
		}
		if cfg.StaticLongitude, err = getenvFloat("STATIC_LONGITUDE"); err != nil {
			return nil, err
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvFloat(key string) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
