package reply

import (
	"maxbot/app/service/classify"
	"maxbot/app/service/store"
)

// Context is what the orchestrator knows about the conversation at the
// moment a reply is requested.
type Context struct {
	Intent           classify.Intent
	DetectedServices []classify.Service
	SelectedServices []classify.Service
	Phase            store.Phase
	Confirmed        bool
	CollectingData   bool
}
