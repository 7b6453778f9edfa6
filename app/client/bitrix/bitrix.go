package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"maxbot/app/config"
	"maxbot/app/service/classify"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

// Lead is the CRM record request the orchestrator assembles once a
// conversation qualifies.
type Lead struct {
	FirstName string
	LastName  string
	Phone     string
	Intent    classify.Intent
	Services  []classify.Service
	Comment   string
}

type Client struct {
	webhook        string
	managers       map[string]int
	defaultManager int
	http           *http.Client
}

func New(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Client{
		webhook:        strings.TrimRight(cfg.Bitrix.Webhook, "/"),
		managers:       cfg.Bitrix.Managers,
		defaultManager: cfg.Bitrix.DefaultManager,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Enabled reports whether the inbound webhook is configured. An
// unconfigured client is a valid deployment; lead creation is simply
// skipped and the conversation continues.
func (c *Client) Enabled() bool {
	return c.webhook != ""
}

// CreateLead calls crm.lead.add and returns the new record id.
func (c *Client) CreateLead(ctx context.Context, lead Lead) (string, error) {
	title := "Лид из Telegram бота"
	if len(lead.Services) > 0 {
		title += " - " + lead.Services[0].Name
	}

	name := strings.TrimSpace(lead.LastName + " " + lead.FirstName)
	if name == "" {
		name = "—"
	}

	fields := map[string]any{
		"TITLE":              title,
		"NAME":               lead.FirstName,
		"LAST_NAME":          lead.LastName,
		"SOURCE_ID":          "TELEGRAM",
		"STATUS_ID":          "NEW",
		"OPENED":             "Y",
		"SOURCE_DESCRIPTION": "MAXCAPITAL Telegram Bot",
		"COMMENTS":           truncate(lead.Comment, 2000),
	}

	if fields["NAME"] == "" {
		fields["NAME"] = name
	}

	if lead.Phone != "" {
		fields["PHONE"] = []map[string]string{
			{"VALUE": lead.Phone, "VALUE_TYPE": "WORK"},
		}
	}

	if manager := c.assignedManager(lead.Intent); manager != 0 {
		fields["ASSIGNED_BY_ID"] = manager
	}

	result, err := c.call(ctx, "crm.lead.add", map[string]any{
		"fields": fields,
		"params": map[string]string{"REGISTER_SONET_EVENT": "Y"},
	})
	if err != nil {
		return "", err
	}

	return result, nil
}

// assignedManager picks the responsible manager for a detected intent,
// falling back to the default one.
func (c *Client) assignedManager(intent classify.Intent) int {
	if intent != "" {
		if id, ok := c.managers[string(intent)]; ok {
			return id
		}
	}

	return c.defaultManager
}

func (c *Client) call(ctx context.Context, method string, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s.json", c.webhook, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call bitrix method %q: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("bitrix method %q returned status %d", method, resp.StatusCode)
	}

	var parsed struct {
		Result           json.Number `json:"result"`
		Error            string      `json:"error"`
		ErrorDescription string      `json:"error_description"`
	}

	if err = json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse bitrix response: %w", err)
	}

	if parsed.Error != "" {
		return "", fmt.Errorf("bitrix error %s: %s", parsed.Error, parsed.ErrorDescription)
	}

	return parsed.Result.String(), nil
}

// ServiceNames formats a service list for CRM comments and notifications.
func ServiceNames(services []classify.Service) string {
	return strings.Join(pie.Map(services, func(s classify.Service) string {
		return s.Name
	}), ", ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}
