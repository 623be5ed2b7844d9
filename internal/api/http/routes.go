package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/watch-weather-bridge/internal/bridge"
	"github.com/i474232898/watch-weather-bridge/internal/location"
	"github.com/i474232898/watch-weather-bridge/internal/weather"
)

var validate = validator.New()

// LocationHost receives geolocation results pushed by the phone host.
type LocationHost interface {
	Report(c weather.Coordinates, accuracy float64) location.Fix
	Fail(code location.Code, message string)
	Latest() (location.Fix, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. Location routes
// are only registered when fixes come from the host.
func RegisterRoutes(app *fiber.App, listener bridge.Listener, host LocationHost) {
	v1 := app.Group("/api/v1")

	v1.Post("/events/ready", func(c *fiber.Ctx) error {
		id := listener.OnReady()
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"runId": id})
	})

	v1.Post("/events/refresh", func(c *fiber.Ctx) error {
		var req bridge.RefreshPayload
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid refresh payload")
			}
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		id := listener.OnRefreshRequested(req)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"runId": id})
	})

	if host == nil {
		return
	}

	v1.Get("/location", func(c *fiber.Ctx) error {
		fix, err := host.Latest()
		if err != nil {
			if errors.Is(err, location.ErrNoFix) {
				return fiber.NewError(fiber.StatusNotFound, "no location fix reported")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read location")
		}
		return c.JSON(fix)
	})

	v1.Post("/location", func(c *fiber.Ctx) error {
		var req fixRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid location payload")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		fix := host.Report(weather.Coordinates{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
		}, req.Accuracy)
		return c.Status(fiber.StatusCreated).JSON(fix)
	})

	v1.Post("/location/error", func(c *fiber.Ctx) error {
		var req failureRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid location error payload")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		host.Fail(location.Code(req.Code), req.Message)
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// fixRequest is a geolocation success reported by the host.
type fixRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Accuracy  float64  `json:"accuracy" validate:"gte=0"`
}

// failureRequest is a geolocation error reported by the host.
type failureRequest struct {
	Code    int    `json:"code" validate:"oneof=1 2 3"`
	Message string `json:"message" validate:"max=256"`
}
