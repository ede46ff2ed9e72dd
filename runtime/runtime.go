// Package runtime orchestrates validation as a service: it wires the ruleset
// manager, the engine, a run store and report sinks into one component the
// daemon and watchers drive.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	validus "github.com/validus/validus-go"
	"github.com/validus/validus-go/engine"
	"github.com/validus/validus-go/report"
)

// RuntimeState represents the current state of the runtime.
type RuntimeState string

const (
	StateInitializing RuntimeState = "initializing"
	StateLoading      RuntimeState = "loading"
	StateReady        RuntimeState = "ready"
	StateValidating   RuntimeState = "validating"
	StateFailed       RuntimeState = "failed"
)

// Run is one persisted validation invocation.
type Run struct {
	ID        string         `json:"id"`
	Ruleset   string         `json:"ruleset"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Failed    bool           `json:"failed"`
	FailCount int            `json:"fail_count"`
	WarnCount int            `json:"warn_count"`
	Report    *report.Report `json:"report"`
}

// ReportSink receives completed runs, e.g. a message broker publisher. Sink
// failures are logged, never propagated: the run already happened.
type ReportSink interface {
	Publish(ctx context.Context, run *Run) error
	Close() error
}

// Option configures a ValidationRuntime.
type Option func(*ValidationRuntime)

// WithWorkers sets the engine worker count.
func WithWorkers(n int) Option {
	return func(vr *ValidationRuntime) { vr.workers = n }
}

// WithSinks attaches report sinks.
func WithSinks(sinks ...ReportSink) Option {
	return func(vr *ValidationRuntime) { vr.sinks = append(vr.sinks, sinks...) }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(vr *ValidationRuntime) { vr.logger = logger }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(vr *ValidationRuntime) { vr.now = now }
}

// ValidationRuntime runs validations against managed rulesets and persists
// the outcomes.
type ValidationRuntime struct {
	manager *RulesetManager
	store   RunStore
	engine  *engine.Engine
	sinks   []ReportSink
	logger  *slog.Logger
	workers int
	now     func() time.Time

	mu    sync.RWMutex
	state RuntimeState
}

// NewValidationRuntime creates a runtime over a ruleset manager and a run
// store.
func NewValidationRuntime(manager *RulesetManager, store RunStore, opts ...Option) *ValidationRuntime {
	vr := &ValidationRuntime{
		manager: manager,
		store:   store,
		logger:  slog.Default(),
		workers: 1,
		now:     time.Now,
		state:   StateInitializing,
	}
	for _, opt := range opts {
		opt(vr)
	}
	vr.engine = engine.New(engine.WithWorkers(vr.workers))
	return vr
}

// State returns the runtime's lifecycle state.
func (vr *ValidationRuntime) State() RuntimeState {
	vr.mu.RLock()
	defer vr.mu.RUnlock()
	return vr.state
}

func (vr *ValidationRuntime) setState(s RuntimeState) {
	vr.mu.Lock()
	vr.state = s
	vr.mu.Unlock()
}

// Start loads the managed rulesets and readies the runtime.
func (vr *ValidationRuntime) Start(ctx context.Context) error {
	vr.setState(StateLoading)
	if err := vr.manager.Load(ctx); err != nil {
		vr.setState(StateFailed)
		return fmt.Errorf("loading rulesets: %w", err)
	}
	vr.setState(StateReady)
	vr.logger.Info("runtime ready", "rulesets", len(vr.manager.List()))
	return nil
}

// Validate runs the named ruleset against the dataset, persists the run and
// publishes it to the sinks. A triggered fail rule is a normal outcome; only
// broken rules or storage failures return an error.
func (vr *ValidationRuntime) Validate(ctx context.Context, rulesetName string, ds validus.Dataset) (*Run, error) {
	stored, ok := vr.manager.Get(rulesetName)
	if !ok {
		return nil, fmt.Errorf("unknown ruleset %q", rulesetName)
	}

	vr.setState(StateValidating)
	started := vr.now()
	rep, err := vr.engine.Run(ctx, stored.Ruleset, ds)
	if err != nil {
		vr.setState(StateFailed)
		return nil, err
	}
	vr.setState(StateReady)

	run := &Run{
		ID:        uuid.NewString(),
		Ruleset:   rulesetName,
		StartedAt: started.UTC(),
		Duration:  vr.now().Sub(started),
		Failed:    rep.Failed(),
		FailCount: len(rep.Fail),
		WarnCount: len(rep.Warn),
		Report:    rep,
	}

	if vr.store != nil {
		if err := vr.store.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("saving run %s: %w", run.ID, err)
		}
	}
	for _, sink := range vr.sinks {
		if err := sink.Publish(ctx, run); err != nil {
			vr.logger.Error("publishing run", "run", run.ID, "error", err)
		}
	}

	vr.logger.Info("validation complete",
		"run", run.ID,
		"ruleset", rulesetName,
		"failed", run.Failed,
		"fail_count", run.FailCount,
		"warn_count", run.WarnCount,
		"duration", run.Duration,
	)
	return run, nil
}

// Rulesets returns the manager's loaded rulesets.
func (vr *ValidationRuntime) Rulesets() []*StoredRuleset {
	return vr.manager.List()
}

// Close releases the store and sinks.
func (vr *ValidationRuntime) Close() error {
	var first error
	if vr.store != nil {
		if err := vr.store.Close(); err != nil {
			first = err
		}
	}
	for _, sink := range vr.sinks {
		if err := sink.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
