package telegram

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/do"
	"github.com/samber/oops"
	"maxbot/app/client/bitrix"
	"maxbot/app/config"
)

// Notifier pushes new-lead notices to the manager chats. It keeps its own
// bot connection so it can be wired independently of the polling transport.
type Notifier struct {
	api     *tgbotapi.BotAPI
	chatIDs []int64
}

func NewNotifier(di *do.Injector) (*Notifier, error) {
	cfg := do.MustInvoke[*config.Config](di)

	if len(cfg.Telegram.ManagerChatIDs) == 0 {
		return &Notifier{}, nil
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, oops.Wrapf(err, "failed to connect to telegram")
	}

	return &Notifier{
		api:     api,
		chatIDs: cfg.Telegram.ManagerChatIDs,
	}, nil
}

func (n *Notifier) NotifyLead(_ context.Context, lead bitrix.Lead, leadID string) {
	if n.api == nil {
		return
	}

	text := formatLeadNotice(lead, leadID)
	for _, chatID := range n.chatIDs {
		if _, err := n.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			slog.Warn("Failed to notify manager chat",
				slog.Int64("chat_id", chatID),
				slog.Any("error", err))
		}
	}
}

func formatLeadNotice(lead bitrix.Lead, leadID string) string {
	var sb strings.Builder
	sb.WriteString("🔔 Новый лид #")
	sb.WriteString(leadID)

	name := strings.TrimSpace(lead.LastName + " " + lead.FirstName)
	if name != "" {
		sb.WriteString("\n\n👤 ")
		sb.WriteString(name)
	}
	if lead.Phone != "" {
		sb.WriteString("\n📞 ")
		sb.WriteString(lead.Phone)
	}
	if lead.Intent != "" {
		sb.WriteString("\n🎯 ")
		sb.WriteString(string(lead.Intent))
	}
	if len(lead.Services) > 0 {
		sb.WriteString("\n💼 ")
		sb.WriteString(bitrix.ServiceNames(lead.Services))
	}

	return sb.String()
}
