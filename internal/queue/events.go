package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/genesys-campaign-sync/internal/model"
)

// TopicAttemptFacts carries one event per attempt row inserted by the sync
// stage.
const TopicAttemptFacts = "attempt_facts"

// AttemptIngested is the fact event published for downstream consumers.
type AttemptIngested struct {
	EventID           string     `json:"event_id"`
	ConversationID    string     `json:"conversation_id"`
	CustomerSessionID string     `json:"customer_session_id"`
	OutboundContactID string     `json:"outbound_contact_id"`
	Outcome           string     `json:"outcome"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	IngestedAt        time.Time  `json:"ingested_at"`
}

// NewAttemptIngested stamps a fresh event for a stored attempt.
func NewAttemptIngested(a *model.Attempt) AttemptIngested {
	return AttemptIngested{
		EventID:           uuid.NewString(),
		ConversationID:    a.ConversationID,
		CustomerSessionID: a.CustomerSessionID,
		OutboundContactID: a.OutboundContactID,
		Outcome:           a.Outcome,
		StartTime:         a.StartTime,
		IngestedAt:        time.Now(),
	}
}
