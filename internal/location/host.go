package location

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/watch-weather-bridge/internal/weather"
)

type result struct {
	coords weather.Coordinates
	err    error
}

// HostProvider serves fixes pushed by the phone host. A cached fix younger
// than MaxAge is returned straight away; otherwise callers wait up to Timeout
// for the host to report a fix or a failure.
type HostProvider struct {
	store *FixStore
	opts  Options
	now   func() time.Time
	log   zerolog.Logger

	mu      sync.Mutex
	waiters map[chan result]struct{}
}

// NewHostProvider creates a HostProvider backed by store.
func NewHostProvider(store *FixStore, opts Options, log zerolog.Logger) *HostProvider {
	return &HostProvider{
		store:   store,
		opts:    opts,
		now:     time.Now,
		log:     log.With().Str("component", "location").Logger(),
		waiters: make(map[chan result]struct{}),
	}
}

// Locate returns the device coordinates or an *Error.
func (p *HostProvider) Locate(ctx context.Context) (weather.Coordinates, error) {
	if fix, err := p.store.Latest(); err == nil {
		age := p.now().Sub(fix.At)
		if age <= p.opts.MaxAge {
			p.log.Debug().Dur("age", age).Msg("using cached fix")
			return fix.Coordinates, nil
		}
	}

	ch := make(chan result, 1)
	p.mu.Lock()
	p.waiters[ch] = struct{}{}
	p.mu.Unlock()

	timer := time.NewTimer(p.opts.Timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.coords, r.err
	case <-timer.C:
		if r, ok := p.abandon(ch); ok {
			return r.coords, r.err
		}
		return weather.Coordinates{}, &Error{Code: CodeTimeout, Message: "no fix within " + p.opts.Timeout.String()}
	case <-ctx.Done():
		if r, ok := p.abandon(ch); ok {
			return r.coords, r.err
		}
		return weather.Coordinates{}, &Error{Code: CodeTimeout, Message: ctx.Err().Error()}
	}
}

// abandon unregisters ch. If a result raced in first it is returned so that
// Locate still resolves exactly once.
func (p *HostProvider) abandon(ch chan result) (result, bool) {
	p.mu.Lock()
	delete(p.waiters, ch)
	p.mu.Unlock()

	select {
	case r := <-ch:
		return r, true
	default:
		return result{}, false
	}
}

// Report records a fix from the host and resolves every waiting caller.
func (p *HostProvider) Report(c weather.Coordinates, accuracy float64) Fix {
	fix := Fix{Coordinates: c, Accuracy: accuracy, At: p.now()}
	p.store.Save(fix)
	p.log.Info().Str("coords", c.String()).Msg("fix reported")
	p.resolve(result{coords: c})
	return fix
}

// Fail resolves every waiting caller with a location error from the host.
func (p *HostProvider) Fail(code Code, message string) {
	p.log.Warn().Int("code", int(code)).Str("message", message).Msg("host reported location failure")
	p.resolve(result{err: &Error{Code: code, Message: message}})
}

// Latest returns the most recent fix, if any.
func (p *HostProvider) Latest() (Fix, error) {
	return p.store.Latest()
}

func (p *HostProvider) resolve(r result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for ch := range p.waiters {
		ch <- r
		delete(p.waiters, ch)
	}
}

func (p *HostProvider) waiting() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.waiters)
}
