package bridge

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/i474232898/watch-weather-bridge/internal/location"
	"github.com/i474232898/watch-weather-bridge/internal/relay"
	"github.com/i474232898/watch-weather-bridge/internal/weather"
)

// Fetcher turns a query into a weather sample.
type Fetcher interface {
	FetchWeather(ctx context.Context, q weather.Query) (weather.Sample, error)
}

// Sender delivers a message to the device and reports the result once.
type Sender interface {
	Send(ctx context.Context, msg relay.Message) <-chan error
}

// Trigger names what started a run.
type Trigger string

const (
	TriggerReady   Trigger = "ready"
	TriggerRefresh Trigger = "refresh"
)

// Outcome summarises how a run ended.
type Outcome string

const (
	OutcomeDelivered   Outcome = "delivered"
	OutcomeDegraded    Outcome = "degraded"
	OutcomeAborted     Outcome = "aborted"
	OutcomeRelayFailed Outcome = "relay_failed"
)

// Run is the request context of one pipeline execution.
type Run struct {
	ID      string
	Trigger Trigger

	credential func() string
}

// NewRun builds a Run whose credential is fixed to key.
func NewRun(id string, trigger Trigger, key string) Run {
	return Run{ID: id, Trigger: trigger, credential: func() string { return key }}
}

// Credential returns the provider key this run should use right now.
func (r Run) Credential() string {
	if r.credential == nil {
		return ""
	}
	return r.credential()
}

// Pipeline chains location, weather and relay for one run.
type Pipeline struct {
	locator location.Provider
	fetcher Fetcher
	sender  Sender
	log     zerolog.Logger
}

func NewPipeline(locator location.Provider, fetcher Fetcher, sender Sender, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		locator: locator,
		fetcher: fetcher,
		sender:  sender,
		log:     log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes one location→fetch→relay cycle. It never panics on a stage
// failure and never retries; the outcome is returned for logging and tests.
func (p *Pipeline) Run(ctx context.Context, run Run) Outcome {
	log := p.log.With().Str("run_id", run.ID).Str("trigger", string(run.Trigger)).Logger()

	coords, err := p.locator.Locate(ctx)
	if err != nil {
		var locErr *location.Error
		if errors.As(err, &locErr) {
			log.Warn().Int("code", int(locErr.Code)).Str("message", locErr.Message).Msg("location error, sending unavailable message")
		} else {
			log.Warn().Err(err).Msg("location error, sending unavailable message")
		}
		return p.send(ctx, log, relay.Unavailable(), OutcomeDegraded)
	}

	sample, err := p.fetcher.FetchWeather(ctx, weather.Query{
		Coordinates: coords,
		APIKey:      run.Credential(),
	})
	if err != nil {
		log.Error().Err(err).Str("kind", errorKind(err)).Str("coords", coords.String()).Msg("weather fetch failed, run aborted")
		return OutcomeAborted
	}

	log.Info().
		Int("temperature", sample.TemperatureC).
		Str("location", sample.LocationName).
		Msg("weather fetched")

	return p.send(ctx, log, relay.FromSample(sample), OutcomeDelivered)
}

func (p *Pipeline) send(ctx context.Context, log zerolog.Logger, msg relay.Message, ok Outcome) Outcome {
	if err := <-p.sender.Send(ctx, msg); err != nil {
		log.Warn().Err(err).Msg("message not delivered")
		return OutcomeRelayFailed
	}
	return ok
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, weather.ErrNetwork):
		return "network"
	case errors.Is(err, weather.ErrParse):
		return "parse"
	case errors.Is(err, weather.ErrProvider):
		return "provider"
	}
	return "unknown"
}
