package leadgate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"maxbot/app/service/classify"
	"maxbot/app/service/store"
)

type stubLookup struct {
	leadID string
	err    error
	calls  int
}

func (l *stubLookup) FindLead(_ context.Context, _ string) (string, error) {
	l.calls++
	return l.leadID, l.err
}

func stateWith(info store.CollectedInfo) *store.State {
	return &store.State{
		UserID:        42,
		Phase:         store.PhaseCollectingData,
		CollectedInfo: info,
	}
}

func TestReady_PhoneIsHardPrecondition(t *testing.T) {
	state := stateWith(store.CollectedInfo{FirstName: "Иван", LastName: "Иванов"})
	state.DetectedIntent = classify.IntentInvest
	state.DetectedServices = []classify.Service{{Code: "crypto", Name: "Crypto"}}

	ready, _ := Ready(state, ProfileHint{Username: "ivan", DisplayName: "Иван Иванов"})
	require.False(t, ready)
}

func TestReady_PhoneAloneIsNotEnough(t *testing.T) {
	ready, _ := Ready(stateWith(store.CollectedInfo{Phone: "+79161234567"}), ProfileHint{})
	require.False(t, ready)
}

func TestReady_AnyCorroboratingSignalQualifies(t *testing.T) {
	base := store.CollectedInfo{Phone: "+79161234567"}

	withName := stateWith(base)
	withName.CollectedInfo.LastName = "Иванов"
	ready, _ := Ready(withName, ProfileHint{})
	require.True(t, ready)

	withIntent := stateWith(base)
	withIntent.DetectedIntent = classify.IntentInvest
	ready, _ = Ready(withIntent, ProfileHint{})
	require.True(t, ready)

	withService := stateWith(base)
	withService.DetectedServices = []classify.Service{{Code: "crypto", Name: "Crypto"}}
	ready, _ = Ready(withService, ProfileHint{})
	require.True(t, ready)

	ready, _ = Ready(stateWith(base), ProfileHint{Username: "ivan"})
	require.True(t, ready)
}

func TestReady_SnapshotNameFallbackOrder(t *testing.T) {
	state := stateWith(store.CollectedInfo{Phone: "+79161234567", FirstName: "Иван", LastName: "Иванов"})
	_, snapshot := Ready(state, ProfileHint{Username: "ivan", DisplayName: "Ivan I."})
	require.Equal(t, "Иванов Иван", snapshot.Name)

	state = stateWith(store.CollectedInfo{Phone: "+79161234567"})
	_, snapshot = Ready(state, ProfileHint{Username: "ivan", DisplayName: "Ivan I."})
	require.Equal(t, "Ivan I.", snapshot.Name)

	_, snapshot = Ready(state, ProfileHint{Username: "ivan"})
	require.Equal(t, "ivan", snapshot.Name)

	_, snapshot = Ready(state, ProfileHint{})
	require.Equal(t, "User_42", snapshot.Name)
}

func TestReady_SnapshotMergesServiceSets(t *testing.T) {
	state := stateWith(store.CollectedInfo{Phone: "+79161234567"})
	crypto := classify.Service{Code: "crypto", Name: "Crypto"}
	realEstate := classify.Service{Code: "real_estate", Name: "Real Estate"}
	state.SelectedServices = []classify.Service{crypto}
	state.DetectedServices = []classify.Service{crypto, realEstate}

	_, snapshot := Ready(state, ProfileHint{})
	require.Len(t, snapshot.Services, 2)
}

func TestDecide_NotReadyWithoutPhone(t *testing.T) {
	gate := New(&stubLookup{})
	decision, _ := gate.Decide(context.Background(), stateWith(store.CollectedInfo{}), "key", ProfileHint{Username: "ivan"})
	require.Equal(t, DecisionNotReady, decision)
}

func TestDecide_ExistingRecordIDBlocksCreation(t *testing.T) {
	lookup := &stubLookup{}
	gate := New(lookup)

	state := stateWith(store.CollectedInfo{Phone: "+79161234567", LastName: "Иванов"})
	state.LeadRecordID = "101"

	decision, _ := gate.Decide(context.Background(), state, "key", ProfileHint{})
	require.Equal(t, DecisionExists, decision)
	require.Zero(t, lookup.calls)
}

func TestDecide_DurableLookupBlocksCreation(t *testing.T) {
	gate := New(&stubLookup{leadID: "101"})

	state := stateWith(store.CollectedInfo{Phone: "+79161234567", LastName: "Иванов"})

	decision, _ := gate.Decide(context.Background(), state, "key", ProfileHint{})
	require.Equal(t, DecisionExists, decision)
}

func TestDecide_LookupFailureDoesNotBlock(t *testing.T) {
	gate := New(&stubLookup{err: errors.New("db down")})

	state := stateWith(store.CollectedInfo{Phone: "+79161234567", LastName: "Иванов"})

	decision, snapshot := gate.Decide(context.Background(), state, "key", ProfileHint{})
	require.Equal(t, DecisionCreate, decision)
	require.Equal(t, "+79161234567", snapshot.Phone)
}

func TestDecide_CreateWhenClean(t *testing.T) {
	lookup := &stubLookup{}
	gate := New(lookup)

	state := stateWith(store.CollectedInfo{Phone: "+79161234567"})
	state.DetectedIntent = classify.IntentInvest

	decision, snapshot := gate.Decide(context.Background(), state, "key", ProfileHint{})
	require.Equal(t, DecisionCreate, decision)
	require.Equal(t, classify.IntentInvest, snapshot.Intent)
	require.Equal(t, 1, lookup.calls)
}
