package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	httpapi "github.com/i474232898/watch-weather-bridge/internal/api/http"
	"github.com/i474232898/watch-weather-bridge/internal/bridge"
	"github.com/i474232898/watch-weather-bridge/internal/config"
	"github.com/i474232898/watch-weather-bridge/internal/device"
	"github.com/i474232898/watch-weather-bridge/internal/geo"
	"github.com/i474232898/watch-weather-bridge/internal/location"
	"github.com/i474232898/watch-weather-bridge/internal/relay"
	"github.com/i474232898/watch-weather-bridge/internal/scheduler"
	"github.com/i474232898/watch-weather-bridge/internal/weather"
	"github.com/i474232898/watch-weather-bridge/internal/weather/providers"
)

const serviceName = "watch-weather-bridge"

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", serviceName).Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	backoff := providers.DefaultBackoff
	backoff.MaxRetries = cfg.FetchMaxRetries

	provider, err := providers.New(providers.Settings{
		Name:          cfg.WeatherProvider,
		BaseURL:       cfg.WeatherBaseURL,
		ForecastSlots: cfg.ForecastSlots,
		HTTP: providers.HTTPClientConfig{
			Client:       httpClient,
			Backoff:      backoff,
			StrictStatus: cfg.StrictStatus,
			Log:          log,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create weather provider")
	}

	rounding, err := weather.ParseRounding(cfg.Rounding)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid rounding policy")
	}

	opts := []weather.Option{weather.WithRounding(rounding)}
	if cfg.GeocoderAPIKey != "" {
		opts = append(opts, weather.WithPlaceNamer(geo.NewGoogleNamer(cfg.GeocoderAPIKey)))
	}
	service := weather.NewService(provider, log, opts...)

	// Location source.
	var (
		locator location.Provider
		host    httpapi.LocationHost
	)
	switch cfg.LocationSource {
	case "static":
		locator = location.StaticProvider{Coordinates: weather.Coordinates{
			Latitude:  cfg.StaticLatitude,
			Longitude: cfg.StaticLongitude,
		}}
	default:
		hp := location.NewHostProvider(location.NewFixStore(20), location.Options{
			Timeout: cfg.LocationTimeout,
			MaxAge:  cfg.LocationMaxAge,
		}, log)
		locator, host = hp, hp
	}

	// Device channel.
	var (
		channel relay.Channel
		inbox   device.Subscriber
		mqttCfg device.MQTTConfig
	)
	switch cfg.DeviceChannel {
	case "webhook":
		channel = device.NewWebhookChannel(httpClient, cfg.DeviceWebhookURL)
	default:
		mqttCfg = device.MQTTConfig{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			OutboxTopic: cfg.MQTTOutboxTopic,
			InboxTopic:  cfg.MQTTInboxTopic,
			QoS:         1,
			Timeout:     cfg.HTTPTimeout,
		}
		client, err := device.Connect(mqttCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mqtt broker")
		}
		defer client.Disconnect(250)

		channel = device.NewMQTTChannel(client, mqttCfg)
		inbox = client
	}

	binding, err := bridge.ParseBinding(cfg.CredentialBinding)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid credential binding")
	}

	pipeline := bridge.NewPipeline(locator, service, relay.New(channel, log), log)
	dispatcher := bridge.NewDispatcher(ctx, pipeline, &bridge.CredentialStore{}, binding, log)

	if inbox != nil && mqttCfg.InboxTopic != "" {
		if err := device.SubscribeRefresh(inbox, mqttCfg, dispatcher, log); err != nil {
			log.Fatal().Err(err).Msg("failed to subscribe to refresh requests")
		}
	}

	sched := scheduler.New(cfg.RefreshInterval, dispatcher, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  serviceName,
			"provider": service.ProviderName(),
		})
	})

	httpapi.RegisterRoutes(app, dispatcher, host)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("provider", service.ProviderName()).
		Str("location", cfg.LocationSource).
		Str("channel", cfg.DeviceChannel).
		Msg("bridge started")

	dispatcher.OnReady()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}

	sched.Stop()
	dispatcher.Wait()
	log.Info().Msg("bridge stopped")
}
