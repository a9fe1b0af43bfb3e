package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-monitor/pkg/types"
	"github.com/matryer/is"
)

func TestThatMissingReadingLeavesStateUnchanged(t *testing.T) {
	is := is.New(t)
	previous := types.AlertState{PHAbove: true}

	msg, next, changed := Evaluate(nil, previous)

	is.Equal(msg, "")
	is.Equal(next, previous)
	is.True(!changed)
}

func TestThatUnchangedFlagsProduceNoMessage(t *testing.T) {
	is := is.New(t)
	r := &types.SensorReading{PlantProfileName: "Basil", PH: 8.1, PHAbove: true}

	msg, next, changed := Evaluate(r, types.AlertState{PHAbove: true})

	is.Equal(msg, "")
	is.Equal(next, types.AlertState{PHAbove: true})
	is.True(!changed)
}

func TestThatRisingFlagProducesMessage(t *testing.T) {
	is := is.New(t)
	r := &types.SensorReading{PlantProfileName: "Basil", PH: 8.1, PHAbove: true}

	msg, next, changed := Evaluate(r, types.AlertState{})

	is.True(changed)
	is.Equal(next, types.AlertState{PHAbove: true})
	is.Equal(msg, "ph too high, need to add acidic solution ! activate pump 2 Basil (pH: 8.1)")
}

func TestThatMessageFollowsFixedOrder(t *testing.T) {
	is := is.New(t)
	r := &types.SensorReading{PlantProfileName: "Lettuce", PH: 4.2, EC: 3.4, PHBelow: true, ECAbove: true}

	msg, _, changed := Evaluate(r, types.AlertState{})

	is.True(changed)
	paragraphs := strings.Split(msg, "\n\n")
	is.Equal(len(paragraphs), 2)
	is.Equal(paragraphs[0], "ph too low, need to add alkali solution ! activate pump 1 Lettuce (pH: 4.2)")
	is.Equal(paragraphs[1], "ec too high, need to add water ! activate water pump Lettuce (EC: 3.4)")
}

func TestThatEveryRuleContributesOneParagraph(t *testing.T) {
	is := is.New(t)
	r := &types.SensorReading{PlantProfileName: "Mint", PH: 7, EC: 0.5, PHAbove: true, PHBelow: true, ECAbove: true, ECBelow: true}

	msg, _, _ := Evaluate(r, types.AlertState{})

	paragraphs := strings.Split(msg, "\n\n")
	is.Equal(len(paragraphs), 4)
	is.True(strings.HasPrefix(paragraphs[0], "ph too high"))
	is.True(strings.HasPrefix(paragraphs[1], "ph too low"))
	is.True(strings.HasPrefix(paragraphs[2], "ec too high"))
	is.Equal(paragraphs[3], "ec too low, need to add solution A+B ! activate pump 3 Mint (EC: 0.5)")
}

func TestThatClearingAllFlagsChangesStateWithoutMessage(t *testing.T) {
	is := is.New(t)
	r := &types.SensorReading{PlantProfileName: "Basil", PH: 6.5}

	msg, next, changed := Evaluate(r, types.AlertState{PHAbove: true})

	is.True(changed)
	is.Equal(msg, "")
	is.Equal(next, types.AlertState{})
}

func TestWatcherSendsOnceForPersistentCondition(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	readings := []types.SensorReading{
		{PlantProfileName: "Basil", PH: 8.1, PHAbove: true},
		{PlantProfileName: "Basil", PH: 8.2, PHAbove: true},
		{PlantProfileName: "Basil", PH: 6.4},
		{PlantProfileName: "Basil", PH: 8.3, PHAbove: true},
	}
	current := 0

	source := &ReadingSourceMock{
		LatestReadingFunc: func(ctx context.Context) (types.SensorReading, error) {
			return readings[current], nil
		},
	}
	notifier := &NotifierMock{
		NotifyFunc: func(ctx context.Context, alert types.AlertNotified) error {
			return nil
		},
	}

	w := NewWatcher(source, notifier)

	for current = range readings {
		is.NoErr(w.Check(ctx))
	}

	calls := notifier.NotifyCalls()
	is.Equal(len(calls), 2)
	is.Equal(calls[0].Alert.Message, "ph too high, need to add acidic solution ! activate pump 2 Basil (pH: 8.1)")
	is.Equal(calls[1].Alert.Message, "ph too high, need to add acidic solution ! activate pump 2 Basil (pH: 8.3)")
	is.Equal(calls[1].Alert.PlantProfileName, "Basil")
	is.Equal(w.State(), types.AlertState{PHAbove: true})
}

func TestThatFetchErrorLeavesStateUntouched(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	fail := false
	source := &ReadingSourceMock{
		LatestReadingFunc: func(ctx context.Context) (types.SensorReading, error) {
			if fail {
				return types.SensorReading{}, errors.New("connection refused")
			}
			return types.SensorReading{PlantProfileName: "Basil", EC: 0.4, ECBelow: true}, nil
		},
	}
	notifier := &NotifierMock{
		NotifyFunc: func(ctx context.Context, alert types.AlertNotified) error { return nil },
	}

	w := NewWatcher(source, notifier)
	is.NoErr(w.Check(ctx))

	fail = true
	err := w.Check(ctx)

	is.True(err != nil)
	is.Equal(w.State(), types.AlertState{ECBelow: true})
	is.Equal(len(notifier.NotifyCalls()), 1)
}

func TestThatEmptyStoreIsNotAnError(t *testing.T) {
	is := is.New(t)

	source := &ReadingSourceMock{
		LatestReadingFunc: func(ctx context.Context) (types.SensorReading, error) {
			return types.SensorReading{}, database.ErrNotFound
		},
	}

	w := NewWatcher(source, &NotifierMock{})
	is.NoErr(w.Check(context.Background()))
	is.Equal(w.State(), types.AlertState{})
}

func TestThatDeliveryFailureStillCommitsState(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	source := &ReadingSourceMock{
		LatestReadingFunc: func(ctx context.Context) (types.SensorReading, error) {
			return types.SensorReading{PlantProfileName: "Basil", PH: 8.1, PHAbove: true}, nil
		},
	}
	notifier := &NotifierMock{
		NotifyFunc: func(ctx context.Context, alert types.AlertNotified) error {
			return errors.New("chat unreachable")
		},
	}

	w := NewWatcher(source, notifier)
	is.NoErr(w.Check(ctx))
	is.NoErr(w.Check(ctx))

	is.Equal(w.State(), types.AlertState{PHAbove: true})
	is.Equal(len(notifier.NotifyCalls()), 1)
}

func TestThatConcurrentCheckIsSkipped(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})

	source := &ReadingSourceMock{
		LatestReadingFunc: func(ctx context.Context) (types.SensorReading, error) {
			entered <- struct{}{}
			<-release
			return types.SensorReading{PlantProfileName: "Basil", PH: 8.1, PHAbove: true}, nil
		},
	}
	notifier := &NotifierMock{
		NotifyFunc: func(ctx context.Context, alert types.AlertNotified) error { return nil },
	}

	w := NewWatcher(source, notifier)

	done := make(chan error)
	go func() { done <- w.Check(ctx) }()

	<-entered
	is.NoErr(w.Check(ctx))
	close(release)
	is.NoErr(<-done)

	is.Equal(len(source.LatestReadingCalls()), 1)
	is.Equal(len(notifier.NotifyCalls()), 1)
}
