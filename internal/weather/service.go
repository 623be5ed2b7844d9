package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Service fetches a report from the configured provider and extracts the
// fields relayed to the device.
type Service struct {
	provider Provider
	namer    PlaceNamer
	rounding Rounding
	now      func() time.Time
	log      zerolog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithPlaceNamer sets a fallback for reports that carry no location name.
func WithPlaceNamer(n PlaceNamer) Option {
	return func(s *Service) { s.namer = n }
}

// WithRounding selects the Kelvin rounding policy.
func WithRounding(r Rounding) Option {
	return func(s *Service) { s.rounding = r }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(provider Provider, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		rounding: RoundHalfEven,
		now:      time.Now,
		log:      log.With().Str("component", "weather").Logger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ProviderName returns the name of the active provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// FetchWeather queries the provider for q and extracts a Sample.
func (s *Service) FetchWeather(ctx context.Context, q Query) (Sample, error) {
	if s.provider == nil {
		return Sample{}, fmt.Errorf("%w: no weather provider configured", ErrProvider)
	}

	report, err := s.provider.Fetch(ctx, q)
	if err != nil {
		return Sample{}, err
	}

	if len(report.Slots) == 0 {
		return Sample{}, fmt.Errorf("%w: %s returned no data points", ErrProvider, report.ProviderName)
	}

	now := s.now()
	sample := Sample{
		Variant:      report.Variant,
		LocationName: report.LocationName,
	}

	var slot Slot
	switch report.Variant {
	case VariantForecast:
		i := SelectSlot(report.Slots, now)
		slot = report.Slots[i]
		sample.ForecastEpoch = slot.Time.Unix()
		sample.ForecastOffsetSeconds = slot.Time.Unix() - now.Unix()
		s.log.Debug().Int("slot", i).Int("slots", len(report.Slots)).Int64("offset", sample.ForecastOffsetSeconds).Msg("selected forecast slot")
	default:
		slot = report.Slots[0]
		sample.WindSpeedMS = slot.WindSpeedMS
		sample.WindBearing = slot.WindBearing
	}

	sample.TemperatureC = Celsius(slot.TempKelvin, s.rounding)
	sample.Description = slot.Description

	if sample.LocationName == "" && s.namer != nil {
		name, err := s.namer.PlaceName(ctx, q.Coordinates)
		if err != nil {
			s.log.Warn().Err(err).Str("coords", q.Coordinates.String()).Msg("reverse geocoding failed")
		} else {
			sample.LocationName = name
		}
	}

	s.log.Info().
		Int("temperature", sample.TemperatureC).
		Str("location", sample.LocationName).
		Str("description", sample.Description).
		Msg("extracted weather sample")

	return sample, nil
}
