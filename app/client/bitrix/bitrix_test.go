package bitrix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"maxbot/app/service/classify"
)

func newTestClient(webhook string, managers map[string]int, defaultManager int) *Client {
	return &Client{
		webhook:        webhook,
		managers:       managers,
		defaultManager: defaultManager,
		http:           &http.Client{Timeout: time.Second},
	}
}

func decodeFields(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	var payload struct {
		Fields map[string]any `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	return payload.Fields
}

func TestCreateLead_FieldMapping(t *testing.T) {
	var gotPath string
	var gotFields map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFields = decodeFields(t, r)
		_, _ = w.Write([]byte(`{"result": 101}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, map[string]int{"invest": 7}, 1)

	leadID, err := client.CreateLead(context.Background(), Lead{
		FirstName: "Иван",
		LastName:  "Иванов",
		Phone:     "+79161234567",
		Intent:    classify.IntentInvest,
		Services:  []classify.Service{{Code: "crypto", Name: "Crypto"}},
		Comment:   "Консультация через Telegram бота.",
	})
	require.NoError(t, err)
	require.Equal(t, "101", leadID)

	require.Equal(t, "/crm.lead.add.json", gotPath)
	require.Equal(t, "Лид из Telegram бота - Crypto", gotFields["TITLE"])
	require.Equal(t, "Иван", gotFields["NAME"])
	require.Equal(t, "Иванов", gotFields["LAST_NAME"])
	require.Equal(t, "TELEGRAM", gotFields["SOURCE_ID"])
	require.Equal(t, float64(7), gotFields["ASSIGNED_BY_ID"])

	phones, ok := gotFields["PHONE"].([]any)
	require.True(t, ok)
	require.Len(t, phones, 1)
	phone := phones[0].(map[string]any)
	require.Equal(t, "+79161234567", phone["VALUE"])
}

func TestCreateLead_DefaultManagerAndPlaceholderName(t *testing.T) {
	var gotFields map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFields = decodeFields(t, r)
		_, _ = w.Write([]byte(`{"result": 5}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, map[string]int{"invest": 7}, 3)

	_, err := client.CreateLead(context.Background(), Lead{
		Phone:  "+79161234567",
		Intent: classify.IntentSupport,
	})
	require.NoError(t, err)
	require.Equal(t, float64(3), gotFields["ASSIGNED_BY_ID"])
	require.Equal(t, "—", gotFields["NAME"])
}

func TestCreateLead_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": "INVALID_REQUEST", "error_description": "bad fields"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, nil, 0)

	_, err := client.CreateLead(context.Background(), Lead{Phone: "+79161234567"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "INVALID_REQUEST")
}

func TestCreateLead_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, nil, 0)

	_, err := client.CreateLead(context.Background(), Lead{Phone: "+79161234567"})
	require.Error(t, err)
}

func TestEnabled(t *testing.T) {
	require.False(t, newTestClient("", nil, 0).Enabled())
	require.True(t, newTestClient("https://example.bitrix24.ru/rest/1/abc", nil, 0).Enabled())
}

func TestServiceNames(t *testing.T) {
	names := ServiceNames([]classify.Service{
		{Code: "crypto", Name: "Crypto"},
		{Code: "ma", Name: "M&A"},
	})
	require.Equal(t, "Crypto, M&A", names)
}
