package notify

import (
	"context"
	"errors"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/hydroponic-monitor/pkg/types"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

const AlertEventType string = "hydroponics.alert"

type eventSender struct {
	subscribers map[string][]SubscriberConfig
}

// NewEventSender returns a sink posting alerts as cloud events to the subscribers of
// the hydroponics.alert notification type.
func NewEventSender(cfg *Config) Notifier {
	e := &eventSender{
		subscribers: make(map[string][]SubscriberConfig),
	}

	if cfg != nil {
		for _, n := range cfg.Notifications {
			e.subscribers[n.Type] = append(e.subscribers[n.Type], n.Subscribers...)
		}
	}

	return e
}

func (e *eventSender) Notify(ctx context.Context, alert types.AlertNotified) error {
	subscribers, ok := e.subscribers[AlertEventType]
	if !ok || len(subscribers) == 0 {
		return nil
	}

	c, err := cloudevents.NewClientHTTP()
	if err != nil {
		return err
	}

	event := cloudevents.NewEvent()
	event.SetID(uuid.New().String())
	event.SetTime(alert.Timestamp)
	event.SetSource("github.com/diwise/hydroponic-monitor")
	event.SetType(AlertEventType)

	err = event.SetData(cloudevents.ApplicationJSON, alert)
	if err != nil {
		return err
	}

	logger := logging.GetFromContext(ctx)

	var sendErr error

	for _, s := range subscribers {
		ctxWithTarget := cloudevents.ContextWithTarget(ctx, s.Endpoint)

		result := c.Send(ctxWithTarget, event)
		if cloudevents.IsUndelivered(result) || errors.Is(result, unix.ECONNREFUSED) {
			logger.Error().Err(result).Msgf("failed to send event to %s", s.Endpoint)
			sendErr = fmt.Errorf("%w", result)
		}
	}

	return sendErr
}
