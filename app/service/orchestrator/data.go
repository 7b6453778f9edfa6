package orchestrator

import (
	"context"
	"sync"

	"maxbot/app/client/bitrix"
	"maxbot/app/service/reply"
	"maxbot/app/service/sessions"
	"maxbot/app/service/store"
)

// ReplyGenerator produces the assistant's reply. Failures never reach the
// transport; they turn into the deterministic fallback.
type ReplyGenerator interface {
	Generate(ctx context.Context, message string, history []store.HistoryEntry, rc reply.Context) (string, error)
}

// ConfirmationOracle is the secondary confirmation signal, consulted only
// when the keyword allow-list did not already confirm.
type ConfirmationOracle interface {
	Confirm(ctx context.Context, message string, history []store.HistoryEntry) (bool, error)
}

// CRMClient creates the downstream sales record. Unconfigured or failing
// clients are non-fatal to the conversation.
type CRMClient interface {
	Enabled() bool
	CreateLead(ctx context.Context, lead bitrix.Lead) (string, error)
}

// SessionTracker records qualification sessions and backs the lead gate's
// durable existence check.
type SessionTracker interface {
	Ensure(ctx context.Context, userID int64, username, firstName string) (*sessions.Session, error)
	StartNew(ctx context.Context, userID int64, username, firstName string) (*sessions.Session, error)
	AddMessage(ctx context.Context, key string, intent string) error
	ConvertToLead(ctx context.Context, key string, leadID string) error
	FindLead(ctx context.Context, key string) (string, error)
}

// LeadNotifier pushes a created-lead notice to the managers' chat.
type LeadNotifier interface {
	NotifyLead(ctx context.Context, lead bitrix.Lead, leadID string)
}

// EventPublisher mirrors notable pipeline events onto the event stream.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data any)
}

// Affirmative phrases that confirm the user's intention directly, without
// consulting the oracle.
var confirmationKeywords = []string{
	"да", "да, хочу", "согласен", "подтверждаю", "готов", "хочу",
	"давайте", "начнем", "продолжить", "да, готов",
	"интересует", "интересно", "хочу инвестировать", "хочу получить",
	"нужна консультация", "нужны документы", "хочу посмотреть",
}

const greetingText = "Здравствуйте! 👋\n\n" +
	"Я консультант MAXCAPITAL. Помогу вам с:\n" +
	"• Инвестиционными продуктами\n" +
	"• Документами и презентациями\n" +
	"• Консультациями\n" +
	"• Поддержкой\n\n" +
	"Расскажите, пожалуйста, чем могу помочь?"

const (
	leadCreatedNotice = "\n\n✅ Отлично! Я создал заявку для вас. Наш менеджер свяжется с вами в ближайшее время."
	leadNumberNotice  = "\n\n📋 Номер заявки: "
	leadFailedNotice  = "\n\n⚠️ Произошла ошибка при создании заявки. Попробуйте позже."
)

// userLocks serializes message processing per user: the store's
// get/update pair is not a transaction, so each user must be effectively
// single-writer. Different users proceed in parallel.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{
		locks: map[int64]*sync.Mutex{},
	}
}

func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
