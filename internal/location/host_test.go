package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/i474232898/watch-weather-bridge/internal/weather"
)

var london = weather.Coordinates{Latitude: 51.5, Longitude: -0.12}

func newTestProvider(opts Options) *HostProvider {
	return NewHostProvider(NewFixStore(5), opts, zerolog.Nop())
}

func waitForWaiters(t *testing.T, p *HostProvider, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.waiting() < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d waiting callers, got %d", n, p.waiting())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLocateReturnsCachedFixWithinMaxAge(t *testing.T) {
	is := is.New(t)

	p := newTestProvider(Options{Timeout: 10 * time.Millisecond, MaxAge: time.Minute})
	now := time.Unix(1700000000, 0)
	p.now = func() time.Time { return now }
	p.Report(london, 12)

	now = now.Add(59 * time.Second)
	c, err := p.Locate(context.Background())
	is.NoErr(err)
	is.Equal(c, london)
}

func TestLocateIgnoresStaleFixAndTimesOut(t *testing.T) {
	is := is.New(t)

	p := newTestProvider(Options{Timeout: 20 * time.Millisecond, MaxAge: time.Minute})
	now := time.Unix(1700000000, 0)
	p.now = func() time.Time { return now }
	p.Report(london, 0)

	now = now.Add(61 * time.Second)
	_, err := p.Locate(context.Background())

	var locErr *Error
	is.True(errors.As(err, &locErr))
	is.Equal(locErr.Code, CodeTimeout)
	is.Equal(p.waiting(), 0)
}

func TestLocateWaitsForReportedFix(t *testing.T) {
	is := is.New(t)

	p := newTestProvider(Options{Timeout: 2 * time.Second, MaxAge: time.Minute})

	done := make(chan weather.Coordinates, 1)
	go func() {
		c, err := p.Locate(context.Background())
		if err == nil {
			done <- c
		}
		close(done)
	}()

	waitForWaiters(t, p, 1)
	p.Report(london, 5)

	is.Equal(<-done, london)
}

func TestFailResolvesAllWaiters(t *testing.T) {
	is := is.New(t)

	p := newTestProvider(Options{Timeout: 2 * time.Second, MaxAge: time.Minute})

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := p.Locate(context.Background())
			errs <- err
		}()
	}

	waitForWaiters(t, p, 2)
	p.Fail(CodePermissionDenied, "user denied geolocation")

	for i := 0; i < 2; i++ {
		var locErr *Error
		is.True(errors.As(<-errs, &locErr))
		is.Equal(locErr.Code, CodePermissionDenied)
	}
}

func TestLocateHonoursContext(t *testing.T) {
	is := is.New(t)

	p := newTestProvider(Options{Timeout: time.Minute, MaxAge: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Locate(ctx)
	var locErr *Error
	is.True(errors.As(err, &locErr))
	is.Equal(p.waiting(), 0)
}

func TestFixStoreRetention(t *testing.T) {
	is := is.New(t)

	s := NewFixStore(2)
	_, err := s.Latest()
	is.True(errors.Is(err, ErrNoFix))

	for i := 1; i <= 3; i++ {
		s.Save(Fix{Coordinates: weather.Coordinates{Latitude: float64(i)}})
	}

	recent := s.Recent()
	is.Equal(len(recent), 2)
	is.Equal(recent[0].Coordinates.Latitude, 2.0)

	latest, err := s.Latest()
	is.NoErr(err)
	is.Equal(latest.Coordinates.Latitude, 3.0)
}

func TestStaticProvider(t *testing.T) {
	is := is.New(t)

	c, err := StaticProvider{Coordinates: london}.Locate(context.Background())
	is.NoErr(err)
	is.Equal(c, london)
}
