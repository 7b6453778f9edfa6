package sessions

import (
	"context"
	"time"
)

// Session is one qualification attempt for a user. Key is the stable
// identifier leads are deduplicated against, independent of the
// conversation state's own record-id flag.
type Session struct {
	Key         string     `json:"key"`
	UserID      int64      `json:"user_id"`
	Username    string     `json:"username,omitempty"`
	FirstName   string     `json:"first_name,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	Messages    int        `json:"messages"`
	Intents     []string   `json:"intents,omitempty"`
	LeadID      string     `json:"lead_id,omitempty"`
	ConvertedAt *time.Time `json:"converted_at,omitempty"`
}

type Totals struct {
	Sessions int `json:"sessions"`
	Messages int `json:"messages"`
	Leads    int `json:"leads"`
}

type Repo interface {
	Active(ctx context.Context, userID int64) (*Session, error)
	Start(ctx context.Context, userID int64, username, firstName string) (*Session, error)
	AddMessage(ctx context.Context, key string, intent string) error
	ConvertToLead(ctx context.Context, key string, leadID string) error
	FindLead(ctx context.Context, key string) (string, error)
	Totals(ctx context.Context) (Totals, error)
}
