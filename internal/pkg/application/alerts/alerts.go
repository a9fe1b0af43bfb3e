package alerts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-monitor/pkg/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("hydroponic-monitor/alerts")

const DefaultInterval = 1 * time.Second

// Evaluate compares the threshold flags of a reading with the previously committed state.
// The returned state should be committed whenever it differs from previous, even when
// the returned message is empty.
func Evaluate(reading *types.SensorReading, previous types.AlertState) (string, types.AlertState, bool) {
	if reading == nil {
		return "", previous, false
	}

	candidate := types.AlertState{
		PHAbove: reading.PHAbove,
		PHBelow: reading.PHBelow,
		ECAbove: reading.ECAbove,
		ECBelow: reading.ECBelow,
	}

	if candidate == previous {
		return "", previous, false
	}

	return compose(*reading, candidate), candidate, true
}

//go:generate moq -rm -out readingsource_mock.go . ReadingSource

type ReadingSource interface {
	LatestReading(ctx context.Context) (types.SensorReading, error)
}

//go:generate moq -rm -out notifier_mock.go . Notifier

type Notifier interface {
	Notify(ctx context.Context, alert types.AlertNotified) error
}

type Watcher struct {
	source   ReadingSource
	notifier Notifier

	busy sync.Mutex

	mu    sync.RWMutex
	state types.AlertState
}

func NewWatcher(source ReadingSource, notifier Notifier) *Watcher {
	return &Watcher{
		source:   source,
		notifier: notifier,
	}
}

func (w *Watcher) State() types.AlertState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Check runs one fetch, evaluate and commit cycle. A call made while another check is in
// progress returns immediately.
func (w *Watcher) Check(ctx context.Context) (err error) {
	if !w.busy.TryLock() {
		logger := logging.GetFromContext(ctx)
		logger.Debug().Msg("alert check already in progress")
		return nil
	}
	defer w.busy.Unlock()

	ctx, span := tracer.Start(ctx, "check-alerts")
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	logger := logging.GetFromContext(ctx)

	reading, err := w.source.LatestReading(ctx)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		logger.Error().Err(err).Msg("failed to fetch latest reading")
		return err
	}

	message, next, changed := Evaluate(&reading, w.State())
	if !changed {
		return nil
	}

	w.mu.Lock()
	w.state = next
	w.mu.Unlock()

	span.SetAttributes(attribute.StringSlice("alerts.active", activeRules(next)))
	logger.Info().
		Str("plant", reading.PlantProfileName).
		Strs("active", activeRules(next)).
		Msg("alert state changed")

	if message == "" || w.notifier == nil {
		return nil
	}

	alert := types.AlertNotified{
		PlantProfileName: reading.PlantProfileName,
		State:            next,
		Message:          message,
		Timestamp:        time.Now().UTC(),
	}

	if err := w.notifier.Notify(ctx, alert); err != nil {
		logger.Error().Err(err).Msg("failed to deliver alert notification")
	}

	return nil
}
