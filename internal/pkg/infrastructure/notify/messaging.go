package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/diwise/hydroponic-monitor/pkg/types"
	"github.com/diwise/messaging-golang/pkg/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const SensorDataTopic string = "sensor-data"

type Publisher interface {
	PublishOnTopic(ctx context.Context, message messaging.TopicMessage) error
}

type topicPublisher struct {
	publisher Publisher
}

// NewTopicPublisher returns a sink publishing alerts on the alerts.alertNotified topic.
func NewTopicPublisher(p Publisher) Notifier {
	return &topicPublisher{publisher: p}
}

func (t *topicPublisher) Notify(ctx context.Context, alert types.AlertNotified) error {
	return t.publisher.PublishOnTopic(ctx, &alert)
}

type ReadingWriter interface {
	AddReading(ctx context.Context, reading types.SensorReading) error
}

// NewSensorDataHandler stores readings received on the sensor-data topic.
func NewSensorDataHandler(store ReadingWriter) messaging.TopicMessageHandler {
	return func(ctx context.Context, msg amqp.Delivery, logger zerolog.Logger) {
		reading := types.SensorReading{}

		err := json.Unmarshal(msg.Body, &reading)
		if err != nil {
			logger.Error().Err(err).Msgf("failed to unmarshal message from %s", msg.RoutingKey)
			return
		}

		if reading.PlantProfileName == "" {
			logger.Warn().Msg("ignoring sensor data without plant profile name")
			return
		}

		if reading.CreatedAt.IsZero() {
			reading.CreatedAt = time.Now().UTC()
		}

		logger = logger.With().Str("plant", reading.PlantProfileName).Logger()

		err = store.AddReading(ctx, reading)
		if err != nil {
			logger.Error().Err(err).Msg("could not store sensor data")
		}
	}
}
