package notify

import (
	"context"
	"errors"
	"io"

	"github.com/diwise/hydroponic-monitor/pkg/types"
	yaml "gopkg.in/yaml.v2"
)

type Notifier interface {
	Notify(ctx context.Context, alert types.AlertNotified) error
}

// Multi delivers to every sink and reports the combined errors of those that failed.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, alert types.AlertNotified) error {
	errs := []error{}

	for _, n := range m {
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

type SubscriberConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type Notification struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Type        string             `yaml:"type"`
	Subscribers []SubscriberConfig `yaml:"subscribers"`
}

type TelegramConfig struct {
	ChatID int64 `yaml:"chatID"`
}

type Config struct {
	Telegram      TelegramConfig `yaml:"telegram"`
	Notifications []Notification `yaml:"notifications"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := Config{}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
