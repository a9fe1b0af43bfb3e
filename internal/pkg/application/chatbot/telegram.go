package chatbot

import (
	"context"
	"fmt"

	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/hydroponic-monitor/pkg/types"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the part of the telegram client used by the bot.
type BotAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	StopReceivingUpdates()
}

type Bot struct {
	api       BotAPI
	responder *Responder
	chatID    int64
}

func NewTelegramAPI(token string) (BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return api, nil
}

// NewBot creates a bot that answers commands in any chat and pushes alerts to chatID.
func NewBot(api BotAPI, responder *Responder, chatID int64) *Bot {
	return &Bot{
		api:       api,
		responder: responder,
		chatID:    chatID,
	}
}

// Run long polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	ctx, logger := logging.WithComponent(ctx, "telegram")

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60

	updates := b.api.GetUpdatesChan(cfg)
	defer b.api.StopReceivingUpdates()

	logger.Info().Msg("listening for chat commands")

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handle(ctx, update)
		}
	}
}

func (b *Bot) handle(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	reply, ok := b.responder.Respond(ctx, msg.Command())
	if !ok {
		return
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		logger := logging.GetFromContext(ctx)
		logger.Error().Err(err).Str("command", msg.Command()).Msg("failed to send reply")
	}
}

func (b *Bot) Notify(ctx context.Context, alert types.AlertNotified) error {
	_, err := b.api.Send(tgbotapi.NewMessage(b.chatID, alert.Message))
	if err != nil {
		return fmt.Errorf("failed to send alert to chat %d: %w", b.chatID, err)
	}
	return nil
}
