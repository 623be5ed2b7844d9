package bridge

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type runner interface {
	Run(ctx context.Context, run Run) Outcome
}

// Dispatcher implements Listener. Every trigger starts an independent run;
// there is no guard against overlapping runs and no cancellation of earlier
// ones.
type Dispatcher struct {
	ctx      context.Context
	pipeline runner
	creds    *CredentialStore
	binding  Binding
	log      zerolog.Logger

	wg sync.WaitGroup

	// onDone is called with each finished run, if set.
	onDone func(Run, Outcome)
}

func NewDispatcher(ctx context.Context, pipeline runner, creds *CredentialStore, binding Binding, log zerolog.Logger) *Dispatcher {
	if creds == nil {
		creds = &CredentialStore{}
	}
	return &Dispatcher{
		ctx:      ctx,
		pipeline: pipeline,
		creds:    creds,
		binding:  binding,
		log:      log.With().Str("component", "dispatcher").Logger(),
	}
}

// OnReady handles the bridge-ready trigger.
func (d *Dispatcher) OnReady() string {
	return d.start(TriggerReady)
}

// OnRefreshRequested stores the device credential, if any, and starts a run.
func (d *Dispatcher) OnRefreshRequested(p RefreshPayload) string {
	if p.APIKey != "" {
		d.creds.Set(p.APIKey)
	}
	return d.start(TriggerRefresh)
}

// Wait blocks until all started runs have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) start(trigger Trigger) string {
	run := Run{
		ID:         uuid.NewString(),
		Trigger:    trigger,
		credential: d.credential(),
	}

	d.log.Info().Str("run_id", run.ID).Str("trigger", string(trigger)).Msg("starting pipeline run")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		outcome := d.pipeline.Run(d.ctx, run)
		d.log.Info().Str("run_id", run.ID).Str("outcome", string(outcome)).Msg("pipeline run finished")

		if d.onDone != nil {
			d.onDone(run, outcome)
		}
	}()

	return run.ID
}

func (d *Dispatcher) credential() func() string {
	if d.binding == BindingShared {
		return d.creds.Get
	}
	key := d.creds.Get()
	return func() string { return key }
}
