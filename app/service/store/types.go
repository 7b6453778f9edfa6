package store

import (
	"context"
	"time"

	"maxbot/app/service/classify"
)

type Phase string

const (
	PhaseGreeting       Phase = "greeting"
	PhaseConsulting     Phase = "consulting"
	PhaseCollectingData Phase = "collecting_data"
	PhaseCompleted      Phase = "completed"
)

const historyLimit = 20

type HistoryEntry struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type CollectedInfo struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type State struct {
	UserID           int64              `json:"user_id"`
	Phase            Phase              `json:"phase"`
	History          []HistoryEntry     `json:"history"`
	DetectedIntent   classify.Intent    `json:"detected_intent,omitempty"`
	DetectedServices []classify.Service `json:"detected_services,omitempty"`
	SelectedServices []classify.Service `json:"selected_services,omitempty"`
	ConfirmedIntent  bool               `json:"confirmed_intent"`
	CollectedInfo    CollectedInfo      `json:"collected_info"`
	LeadRecordID     string             `json:"lead_record_id,omitempty"`
	LastUpdated      time.Time          `json:"last_updated"`
}

// Changes is a partial update; zero-valued fields are left untouched.
type Changes struct {
	Phase            Phase
	Intent           classify.Intent
	Confirmed        *bool
	UserMessage      string
	AssistantMessage string
	Info             CollectedInfo
	DetectedServices []classify.Service
	SelectedServices []classify.Service
	LeadRecordID     string
}

// Store is the single persistence seam the orchestrator talks to. Which
// backend sits behind it is a construction-time decision.
type Store interface {
	// Get returns the state for a user, creating and persisting the initial
	// one when absent.
	Get(ctx context.Context, userID int64) (*State, error)
	// Update applies the field-level merge of Changes and flushes before
	// returning, so the next Get on this process observes it.
	Update(ctx context.Context, userID int64, ch Changes) (*State, error)
	// Reset discards the state entirely; the next Get starts a fresh
	// conversation. Administrative, not part of the qualification flow.
	Reset(ctx context.Context, userID int64) error
}

func newState(userID int64) *State {
	return &State{
		UserID:      userID,
		Phase:       PhaseGreeting,
		LastUpdated: time.Now(),
	}
}

// apply merges ch into the state. Semantics per field: last-write-wins for
// phase and intent, sticky true for confirmation, first-non-empty-wins for
// collected info, set-once for the lead record id, append-only union for
// service sets, append-with-cap for history.
func (s *State) apply(ch Changes, now time.Time) {
	if ch.Phase != "" {
		s.Phase = ch.Phase
	}

	if ch.Intent != "" {
		s.DetectedIntent = ch.Intent
	}

	if ch.Confirmed != nil && *ch.Confirmed {
		s.ConfirmedIntent = true
	}

	if ch.UserMessage != "" {
		s.appendHistory(HistoryEntry{Role: "user", Text: ch.UserMessage, Timestamp: now})
	}

	if ch.AssistantMessage != "" {
		s.appendHistory(HistoryEntry{Role: "assistant", Text: ch.AssistantMessage, Timestamp: now})
	}

	if s.CollectedInfo.FirstName == "" {
		s.CollectedInfo.FirstName = ch.Info.FirstName
	}
	if s.CollectedInfo.LastName == "" {
		s.CollectedInfo.LastName = ch.Info.LastName
	}
	if s.CollectedInfo.Phone == "" {
		s.CollectedInfo.Phone = ch.Info.Phone
	}

	if s.LeadRecordID == "" {
		s.LeadRecordID = ch.LeadRecordID
	}

	s.DetectedServices = mergeServices(s.DetectedServices, ch.DetectedServices)
	s.SelectedServices = mergeServices(s.SelectedServices, ch.SelectedServices)

	s.LastUpdated = now
}

func (s *State) appendHistory(entry HistoryEntry) {
	if len(s.History) >= historyLimit {
		s.History = append(s.History[len(s.History)-historyLimit+1:], entry)
	} else {
		s.History = append(s.History, entry)
	}
}

func mergeServices(existing, incoming []classify.Service) []classify.Service {
	for _, svc := range incoming {
		known := false
		for _, have := range existing {
			if have.Code == svc.Code {
				known = true
				break
			}
		}

		if !known {
			existing = append(existing, svc)
		}
	}

	return existing
}

func (s *State) clone() *State {
	result := *s
	result.History = append([]HistoryEntry(nil), s.History...)
	result.DetectedServices = append([]classify.Service(nil), s.DetectedServices...)
	result.SelectedServices = append([]classify.Service(nil), s.SelectedServices...)

	return &result
}
