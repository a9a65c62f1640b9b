// internal/model/callback.go
package model

import "time"

// Callback is a scheduled-callback request captured from an ACD leg.
// (ConversationID, OutboundContactID) is the composite natural key.
type Callback struct {
	ConversationID        string     `db:"conversation_id" json:"conversation_id"`
	OutboundContactID     string     `db:"outbound_contact_id" json:"outbound_contact_id"`
	CallbackScheduledTime *time.Time `db:"callback_scheduled_time" json:"callback_scheduled_time,omitempty"`
	CallbackNumbers       string     `db:"callback_numbers" json:"callback_numbers"` // comma-separated
	Sent                  bool       `db:"sent" json:"sent"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
}

// Key is the dedup key used by the persistence gateway.
func (c *Callback) Key() string {
	return c.ConversationID + ":" + c.OutboundContactID
}
