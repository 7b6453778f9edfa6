package orchestrator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/do"
	"github.com/samber/oops"
	"maxbot/app/client/bitrix"
	"maxbot/app/client/events"
	"maxbot/app/service/classify"
	"maxbot/app/service/extract"
	"maxbot/app/service/leadgate"
	"maxbot/app/service/reply"
	"maxbot/app/service/sessions"
	"maxbot/app/service/store"
)

// Service drives a user's conversation from greeting to a created lead.
type Service struct {
	store    store.Store
	sessions SessionTracker
	gate     *leadgate.Gate
	replyGen ReplyGenerator
	oracle   ConfirmationOracle
	crm      CRMClient
	notifier LeadNotifier
	events   EventPublisher
	locks    *userLocks
}

func New(di *do.Injector) (*Service, error) {
	st := do.MustInvoke[store.Store](di)
	sessionSvc := do.MustInvoke[*sessions.Service](di)
	replySvc := do.MustInvoke[*reply.Service](di)
	crm := do.MustInvoke[*bitrix.Client](di)
	publisher := do.MustInvoke[*events.Publisher](di)

	// the notifier is optional wiring, the conversation works without it
	notifier, err := do.Invoke[LeadNotifier](di)
	if err != nil {
		notifier = nil
	}

	return newService(st, sessionSvc, replySvc, replySvc, crm, notifier, publisher), nil
}

func newService(
	st store.Store,
	tracker SessionTracker,
	gen ReplyGenerator,
	oracle ConfirmationOracle,
	crm CRMClient,
	notifier LeadNotifier,
	publisher EventPublisher,
) *Service {
	return &Service{
		store:    st,
		sessions: tracker,
		gate:     leadgate.New(tracker),
		replyGen: gen,
		oracle:   oracle,
		crm:      crm,
		notifier: notifier,
		events:   publisher,
		locks:    newUserLocks(),
	}
}

// HandleMessage runs one user message through the full pipeline and returns
// the text to send back. It never fails: every internal error degrades to a
// fallback reply.
func (s *Service) HandleMessage(ctx context.Context, userID int64, text string, hint leadgate.ProfileHint) string {
	unlock := s.locks.lock(userID)
	defer unlock()

	session, err := s.sessions.Ensure(ctx, userID, hint.Username, hint.DisplayName)
	if err != nil {
		slog.Warn("Failed to ensure session",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		session = nil
	}

	state, err := s.store.Get(ctx, userID)
	if err != nil {
		slog.Error("Failed to load conversation state",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return reply.Fallback("")
	}

	detection := classify.Detect(text)
	phone := extract.Phone(text)

	// the name heuristic fires on any capitalized word, so it only runs
	// when the user is actually sharing contact data: alongside a phone
	// number or while being asked for it
	var name extract.NameParts
	if phone != "" || state.Phase == store.PhaseCollectingData {
		name = extract.Name(text)
	}

	state, err = s.store.Update(ctx, userID, store.Changes{
		UserMessage:      text,
		Intent:           detection.Intent,
		DetectedServices: detection.Services,
		Info: store.CollectedInfo{
			FirstName: name.First,
			LastName:  name.Last,
			Phone:     phone,
		},
	})
	if err != nil {
		slog.Error("Failed to record user message",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return reply.Fallback(detection.Intent)
	}

	if session != nil {
		if err := s.sessions.AddMessage(ctx, session.Key, string(detection.Intent)); err != nil {
			slog.Warn("Failed to record session message",
				slog.Int64("user_id", userID),
				slog.Any("error", err))
		}
	}
	if detection.Intent != "" && s.events != nil {
		s.events.Publish(ctx, "intent.detected.v1", map[string]any{
			"user_id":  userID,
			"intent":   string(detection.Intent),
			"services": serviceCodes(detection.Services),
		})
	}

	state = s.advanceConversation(ctx, userID, state, text)

	replyText, err := s.replyGen.Generate(ctx, text, historyBefore(state.History, text), reply.Context{
		Intent:           state.DetectedIntent,
		DetectedServices: state.DetectedServices,
		SelectedServices: state.SelectedServices,
		Phase:            state.Phase,
		Confirmed:        state.ConfirmedIntent,
		CollectingData:   state.Phase == store.PhaseCollectingData,
	})
	if err != nil {
		slog.Warn("Reply generation failed, using fallback",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		replyText = reply.Fallback(state.DetectedIntent)
	}

	sessionKey := ""
	if session != nil {
		sessionKey = session.Key
	}
	if decision, snapshot := s.gate.Decide(ctx, state, sessionKey, hint); decision == leadgate.DecisionCreate {
		replyText += s.createLead(ctx, userID, sessionKey, state, snapshot, text)
	}

	if _, err := s.store.Update(ctx, userID, store.Changes{AssistantMessage: replyText}); err != nil {
		slog.Error("Failed to record assistant message",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
	}

	return replyText
}

// advanceConversation applies confirmation detection and phase transitions
// for the current message and persists them in one update.
func (s *Service) advanceConversation(ctx context.Context, userID int64, state *store.State, text string) *store.State {
	// a confirmation only makes sense while a proposal is on the table,
	// so the check runs in the consulting phase only; this also keeps
	// affirmative first messages from skipping the consulting stop
	confirmed := false
	if state.Phase == store.PhaseConsulting && !state.ConfirmedIntent {
		confirmed = s.checkConfirmation(ctx, state, text)
	}

	var changes store.Changes
	if confirmed {
		yes := true
		changes.Confirmed = &yes
		changes.SelectedServices = state.DetectedServices
	}

	phase := state.Phase
	switch {
	case phase == store.PhaseGreeting &&
		(state.DetectedIntent != "" || len(state.DetectedServices) > 0):
		phase = store.PhaseConsulting

	case phase == store.PhaseConsulting && (confirmed || state.ConfirmedIntent) && !hasFullContact(state):
		phase = store.PhaseCollectingData
	}
	if phase != state.Phase {
		changes.Phase = phase
	}

	if changes.Phase == "" && changes.Confirmed == nil && len(changes.SelectedServices) == 0 {
		return state
	}

	updated, err := s.store.Update(ctx, userID, changes)
	if err != nil {
		slog.Error("Failed to advance conversation phase",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return state
	}
	return updated
}

func (s *Service) checkConfirmation(ctx context.Context, state *store.State, text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, keyword := range confirmationKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	// nothing was proposed yet, so there is nothing the oracle could confirm
	if state.DetectedIntent == "" && len(state.DetectedServices) == 0 {
		return false
	}

	ok, err := s.oracle.Confirm(ctx, text, state.History)
	if err != nil {
		slog.Debug("Confirmation check failed",
			slog.Int64("user_id", state.UserID),
			slog.Any("error", err))
		return false
	}
	return ok
}

// createLead pushes the qualified contact to the CRM and, on success, marks
// the conversation completed. The returned string is appended to the reply.
func (s *Service) createLead(
	ctx context.Context,
	userID int64,
	sessionKey string,
	state *store.State,
	snapshot leadgate.Snapshot,
	lastMessage string,
) string {
	if !s.crm.Enabled() {
		slog.Debug("CRM is not configured, skipping lead creation",
			slog.Int64("user_id", userID))
		return ""
	}

	lead := bitrix.Lead{
		FirstName: state.CollectedInfo.FirstName,
		LastName:  state.CollectedInfo.LastName,
		Phone:     snapshot.Phone,
		Intent:    snapshot.Intent,
		Services:  snapshot.Services,
		Comment:   leadComment(snapshot, lastMessage),
	}
	if lead.FirstName == "" && lead.LastName == "" {
		lead.FirstName = snapshot.Name
	}

	leadID, err := s.crm.CreateLead(ctx, lead)
	if err != nil {
		slog.Error("Failed to create lead",
			slog.Int64("user_id", userID),
			slog.Any("error", oops.Wrap(err)),
			slog.Bool("telegram", true))
		return leadFailedNotice
	}

	if _, err := s.store.Update(ctx, userID, store.Changes{
		LeadRecordID: leadID,
		Phase:        store.PhaseCompleted,
	}); err != nil {
		slog.Error("Failed to mark conversation completed",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
	}
	if sessionKey != "" {
		if err := s.sessions.ConvertToLead(ctx, sessionKey, leadID); err != nil {
			slog.Warn("Failed to mark session converted",
				slog.Int64("user_id", userID),
				slog.Any("error", err))
		}
	}
	if s.events != nil {
		s.events.Publish(ctx, "lead.created.v1", map[string]any{
			"user_id":  userID,
			"lead_id":  leadID,
			"intent":   string(snapshot.Intent),
			"services": serviceCodes(snapshot.Services),
		})
	}
	if s.notifier != nil {
		s.notifier.NotifyLead(ctx, lead, leadID)
	}

	slog.Info("Lead created",
		slog.Int64("user_id", userID),
		slog.String("lead_id", leadID),
		slog.Bool("telegram", true))

	return leadCreatedNotice + leadNumberNotice + leadID
}

// ResetUser wipes the conversation, opens a fresh session and returns the
// greeting the transport should send.
func (s *Service) ResetUser(ctx context.Context, userID int64, hint leadgate.ProfileHint) (string, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	if err := s.store.Reset(ctx, userID); err != nil {
		return "", oops.Wrapf(err, "failed to reset conversation")
	}
	if _, err := s.sessions.StartNew(ctx, userID, hint.Username, hint.DisplayName); err != nil {
		slog.Warn("Failed to start session",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
	}
	if _, err := s.store.Update(ctx, userID, store.Changes{AssistantMessage: greetingText}); err != nil {
		slog.Warn("Failed to record greeting",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
	}

	return greetingText, nil
}

func hasFullContact(state *store.State) bool {
	info := state.CollectedInfo
	return info.Phone != "" && info.FirstName != "" && info.LastName != ""
}

func serviceCodes(services []classify.Service) []string {
	codes := make([]string, 0, len(services))
	for _, svc := range services {
		codes = append(codes, svc.Code)
	}
	return codes
}

// historyBefore drops the just-recorded user entry so the generator does
// not see the current message twice.
func historyBefore(history []store.HistoryEntry, text string) []store.HistoryEntry {
	if n := len(history); n > 0 && history[n-1].Role == "user" && history[n-1].Text == text {
		return history[:n-1]
	}
	return history
}

func leadComment(snapshot leadgate.Snapshot, lastMessage string) string {
	var sb strings.Builder
	sb.WriteString("Консультация через Telegram бота.")
	if snapshot.Intent != "" {
		sb.WriteString("\nНаправление: ")
		sb.WriteString(string(snapshot.Intent))
	}
	if len(snapshot.Services) > 0 {
		sb.WriteString("\nУслуги: ")
		sb.WriteString(bitrix.ServiceNames(snapshot.Services))
	}
	if lastMessage != "" {
		sb.WriteString("\n\nПоследнее сообщение:\n")
		sb.WriteString(truncateRunes(lastMessage, 500))
	}
	return sb.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
