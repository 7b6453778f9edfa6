package telegram

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/do"
	"github.com/samber/oops"
	"maxbot/app/config"
	"maxbot/app/service/leadgate"
	"maxbot/app/service/orchestrator"
)

const unknownCommandText = "Неизвестная команда. Напишите /start, чтобы начать заново."

// Bot is the long-polling Telegram transport. All conversation logic lives
// in the orchestrator; the bot only moves text in and out.
type Bot struct {
	api  *tgbotapi.BotAPI
	orch *orchestrator.Service
}

func New(di *do.Injector) (*Bot, error) {
	cfg := do.MustInvoke[*config.Config](di)
	orch := do.MustInvoke[*orchestrator.Service](di)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, oops.Wrapf(err, "failed to connect to telegram")
	}

	return &Bot{
		api:  api,
		orch: orch,
	}, nil
}

// Run polls for updates until ctx is cancelled. Messages are handled on
// separate goroutines so a slow reply for one user does not stall the
// others; per-user ordering is enforced downstream.
func (b *Bot) Run(ctx context.Context) error {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30

	updates := b.api.GetUpdatesChan(updateCfg)

	slog.Info("Telegram bot started",
		slog.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
				continue
			}

			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	hint := leadgate.ProfileHint{
		Username:    msg.From.UserName,
		DisplayName: strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName),
	}

	var text string
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "reset":
			greeting, err := b.orch.ResetUser(ctx, msg.From.ID, hint)
			if err != nil {
				slog.Error("Failed to reset conversation",
					slog.Int64("user_id", msg.From.ID),
					slog.Any("error", err))
				return
			}
			text = greeting

		default:
			text = unknownCommandText
		}
	} else {
		text = b.orch.HandleMessage(ctx, msg.From.ID, msg.Text, hint)
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, text)); err != nil {
		slog.Error("Failed to send telegram message",
			slog.Int64("chat_id", msg.Chat.ID),
			slog.Any("error", err))
	}
}
