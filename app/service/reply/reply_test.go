package reply

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"maxbot/app/service/classify"
	"maxbot/app/service/store"
)

func TestFallback_KeyedByIntent(t *testing.T) {
	require.Contains(t, Fallback(classify.IntentInvest), "инвестиционным продуктам")
	require.Contains(t, Fallback(classify.IntentDocuments), "документы")
	require.Contains(t, Fallback(classify.IntentConsult), "консультацией")
	require.Contains(t, Fallback(classify.IntentSupport), "проблему")
	require.Contains(t, Fallback(""), "MAXCAPITAL")
}

func TestFormatContext(t *testing.T) {
	require.Empty(t, formatContext(Context{}))

	block := formatContext(Context{
		Intent:           classify.IntentInvest,
		DetectedServices: []classify.Service{{Code: "crypto", Name: "Crypto"}},
		CollectingData:   true,
	})
	require.Contains(t, block, "инвестиции")
	require.Contains(t, block, "Crypto")
	require.Contains(t, block, "собрать ФИО и номер телефона")

	block = formatContext(Context{
		SelectedServices: []classify.Service{{Code: "ma", Name: "M&A"}},
	})
	require.Contains(t, block, "уже консультируется")
	require.Contains(t, block, "M&A")
}

func TestUnconfiguredServiceErrors(t *testing.T) {
	s := &Service{}

	_, err := s.Generate(context.Background(), "привет", nil, Context{})
	require.Error(t, err)

	_, err = s.Confirm(context.Background(), "да", []store.HistoryEntry{})
	require.Error(t, err)
}
