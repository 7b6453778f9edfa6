package leadgate

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"maxbot/app/service/classify"
	"maxbot/app/service/store"
)

type Decision int

const (
	// DecisionNotReady means the conversation has not produced enough
	// signals yet; keep collecting.
	DecisionNotReady Decision = iota
	// DecisionCreate means a CRM record should be created now.
	DecisionCreate
	// DecisionExists means a record was already created for this
	// conversation; never create a second one.
	DecisionExists
)

// ProfileHint is read-only chat-platform profile data. It can satisfy the
// name leg of readiness but is never written into the collected info.
type ProfileHint struct {
	Username    string
	DisplayName string
}

// Snapshot is the data that justified a readiness verdict, handed to the
// CRM client as-is.
type Snapshot struct {
	Phone    string
	Name     string
	Intent   classify.Intent
	Services []classify.Service
}

// LeadLookup answers whether a lead is already recorded for a session key.
// Backed by the durable session store when one is configured.
type LeadLookup interface {
	FindLead(ctx context.Context, key string) (string, error)
}

type Gate struct {
	lookup LeadLookup
}

func New(lookup LeadLookup) *Gate {
	return &Gate{lookup: lookup}
}

// Decide runs the idempotency double check and then the readiness rule.
// The in-memory record id and the durable lookup can disagree after a
// partial failure; both are consulted and either one blocks creation.
// This is advisory deduplication, not a lock.
func (g *Gate) Decide(ctx context.Context, state *store.State, sessionKey string, hint ProfileHint) (Decision, Snapshot) {
	ready, snapshot := Ready(state, hint)
	if !ready {
		return DecisionNotReady, snapshot
	}

	if state.LeadRecordID != "" {
		return DecisionExists, snapshot
	}

	if g.lookup != nil && sessionKey != "" {
		leadID, err := g.lookup.FindLead(ctx, sessionKey)
		if err != nil {
			slog.Warn("Lead lookup failed, relying on in-memory state only",
				"session_key", sessionKey,
				"error", err,
			)
		} else if leadID != "" {
			return DecisionExists, snapshot
		}
	}

	return DecisionCreate, snapshot
}

// Ready is the readiness rule itself. A phone number is a hard
// precondition; with one present, any corroborating signal is enough: a
// collected name, a profile display name, a service mention, or a
// detected intent. Deliberately permissive, a sparse record beats a lost
// lead.
func Ready(state *store.State, hint ProfileHint) (bool, Snapshot) {
	snapshot := Snapshot{
		Phone:    state.CollectedInfo.Phone,
		Name:     leadName(state, hint),
		Intent:   state.DetectedIntent,
		Services: allServices(state),
	}

	if snapshot.Phone == "" {
		return false, snapshot
	}

	hasName := state.CollectedInfo.FirstName != "" || state.CollectedInfo.LastName != ""
	hasHint := hint.DisplayName != "" || hint.Username != ""
	hasSignal := len(snapshot.Services) > 0 || snapshot.Intent != ""

	return hasName || hasHint || hasSignal, snapshot
}

func leadName(state *store.State, hint ProfileHint) string {
	name := strings.TrimSpace(state.CollectedInfo.LastName + " " + state.CollectedInfo.FirstName)
	if name != "" {
		return name
	}

	if hint.DisplayName != "" {
		return hint.DisplayName
	}

	if hint.Username != "" {
		return hint.Username
	}

	return "User_" + strconv.FormatInt(state.UserID, 10)
}

func allServices(state *store.State) []classify.Service {
	result := append([]classify.Service(nil), state.SelectedServices...)

	for _, svc := range state.DetectedServices {
		known := false
		for _, have := range result {
			if have.Code == svc.Code {
				known = true
				break
			}
		}

		if !known {
			result = append(result, svc)
		}
	}

	return result
}
