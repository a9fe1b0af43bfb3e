package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/logging"
)

type RunFunc func(ctx context.Context)

// Job runs a function on every tick of its own ticker until it is stopped. A job never
// overlaps itself, a tick that arrives while a run is in progress is skipped.
type Job struct {
	name       string
	interval   time.Duration
	run        RunFunc
	newTicker  TickerFunc
	runAtStart bool

	running sync.Mutex
	skipped atomic.Uint64
	runs    atomic.Uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

type Option func(*Job)

func WithTicker(f TickerFunc) Option {
	return func(j *Job) {
		j.newTicker = f
	}
}

func WithRunAtStart(enabled bool) Option {
	return func(j *Job) {
		j.runAtStart = enabled
	}
}

func New(name string, interval time.Duration, run RunFunc, opts ...Option) *Job {
	j := &Job{
		name:      name,
		interval:  interval,
		run:       run,
		newTicker: NewTicker,
	}

	for _, opt := range opts {
		opt(j)
	}

	return j
}

func (j *Job) Name() string { return j.name }

func (j *Job) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancel != nil {
		return
	}

	ctx, j.cancel = context.WithCancel(ctx)
	j.stopped = make(chan struct{})

	ctx, logger := logging.WithComponent(ctx, j.name)
	logger.Info().Str("interval", j.interval.String()).Msg("starting scheduled job")

	ticker := j.newTicker(j.interval)

	go func() {
		defer close(j.stopped)
		defer ticker.Stop()

		if j.runAtStart {
			j.Trigger(ctx)
		}

		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("scheduled job stopped")
				return
			case <-ticker.C():
				j.Trigger(ctx)
			}
		}
	}()
}

// Stop cancels the job and waits for an ongoing run to finish.
func (j *Job) Stop() {
	j.mu.Lock()
	cancel, stopped := j.cancel, j.stopped
	j.cancel = nil
	j.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-stopped
}

// Trigger runs the job once unless a run is already in progress, in which case it
// returns false without doing anything.
func (j *Job) Trigger(ctx context.Context) bool {
	if !j.running.TryLock() {
		j.skipped.Add(1)
		logger := logging.GetFromContext(ctx)
		logger.Debug().Str("job", j.name).Msg("previous run still in progress, skipping tick")
		return false
	}
	defer j.running.Unlock()

	j.run(ctx)
	j.runs.Add(1)

	return true
}

func (j *Job) Runs() uint64    { return j.runs.Load() }
func (j *Job) Skipped() uint64 { return j.skipped.Load() }
