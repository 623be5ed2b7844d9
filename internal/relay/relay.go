package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrRelay wraps every delivery failure.
var ErrRelay = errors.New("relay failed")

// Channel delivers one message to the device.
type Channel interface {
	Send(ctx context.Context, msg Message) error
}

// Relay sends messages over a Channel. Deliveries are fire and forget: a
// failure is logged and reported once, never retried.
type Relay struct {
	channel Channel
	log     zerolog.Logger
}

func New(channel Channel, log zerolog.Logger) *Relay {
	return &Relay{
		channel: channel,
		log:     log.With().Str("component", "relay").Logger(),
	}
}

// Send starts delivering msg and returns a channel that yields exactly one
// value: nil on success or an error wrapping ErrRelay.
func (r *Relay) Send(ctx context.Context, msg Message) <-chan error {
	done := make(chan error, 1)

	go func() {
		defer close(done)
		done <- r.deliver(ctx, msg)
	}()

	return done
}

func (r *Relay) deliver(ctx context.Context, msg Message) (err error) {
	log := r.log.With().Int("keys", len(msg)).Logger()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: channel panicked: %v", ErrRelay, p)
			log.Error().Err(err).Msg("fail")
		}
	}()

	if err = r.channel.Send(ctx, msg); err != nil {
		err = fmt.Errorf("%w: %w", ErrRelay, err)
		log.Error().Err(err).Msg("fail")
		return err
	}

	log.Info().Msg("success")
	return nil
}
