// internal/model/attempt.go
package model

import "time"

// Attempt is one customer-leg voice call outcome inside a conversation.
// CustomerSessionID is the natural key; a row is written once by the sync
// stage and only the Sent flag changes afterwards (reconciler).
type Attempt struct {
	CustomerSessionID string     `db:"customer_session_id" json:"customer_session_id"`
	ConversationID    string     `db:"conversation_id" json:"conversation_id"`
	CampaignID        string     `db:"campaign_id" json:"campaign_id"`
	OutboundContactID string     `db:"outbound_contact_id" json:"outbound_contact_id"`
	OrderID           string     `db:"order_id" json:"order_id"`
	Phone             string     `db:"phone" json:"phone"`
	StartTime         *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime           *time.Time `db:"end_time" json:"end_time,omitempty"`
	DialSeconds       int        `db:"dial_seconds" json:"dial_seconds"`
	TalkSeconds       *float64   `db:"talk_seconds" json:"talk_seconds,omitempty"`
	Outcome           string     `db:"outcome" json:"outcome"` // Connected, Not connected
	DisconnectType    string     `db:"disconnect_type" json:"disconnect_type"`
	SIPCodes          string     `db:"sip_codes" json:"sip_codes"`

	PeerSessionID      string `db:"peer_session_id" json:"peer_session_id"`
	PeerPurpose        string `db:"peer_purpose" json:"peer_purpose"`
	PeerDisposition    string `db:"peer_disposition" json:"peer_disposition"`
	PeerAnalyzer       string `db:"peer_analyzer" json:"peer_analyzer"`
	PeerWrapUpCode     string `db:"peer_wrap_up_code" json:"peer_wrap_up_code"`
	PeerSIPCodes       string `db:"peer_sip_codes" json:"peer_sip_codes"`
	PeerProtocolCallID string `db:"peer_protocol_call_id" json:"peer_protocol_call_id"`
	PeerSessionDNIS    string `db:"peer_session_dnis" json:"peer_session_dnis"`
	PeerProvider       string `db:"peer_provider" json:"peer_provider"`

	AgentSessionID      string   `db:"agent_session_id" json:"agent_session_id"`
	AgentUserID         string   `db:"agent_user_id" json:"agent_user_id"`
	AgentEmail          string   `db:"agent_email" json:"agent_email"`
	AgentAlertSeconds   *float64 `db:"agent_alert_seconds" json:"agent_alert_seconds,omitempty"`
	AgentAnsweredSeconds *float64 `db:"agent_answered_seconds" json:"agent_answered_seconds,omitempty"`
	AgentTalkSeconds    *float64 `db:"agent_talk_seconds" json:"agent_talk_seconds,omitempty"`
	AgentHoldSeconds    *float64 `db:"agent_hold_seconds" json:"agent_hold_seconds,omitempty"`
	AgentAcwSeconds     *float64 `db:"agent_acw_seconds" json:"agent_acw_seconds,omitempty"`
	AgentHandleSeconds  *float64 `db:"agent_handle_seconds" json:"agent_handle_seconds,omitempty"`
	AgentWrapUpCode     string   `db:"agent_wrap_up_code" json:"agent_wrap_up_code"`
	AgentWrapUpName     string   `db:"agent_wrap_up_name" json:"agent_wrap_up_name"`

	Duration  *float64  `db:"duration" json:"duration,omitempty"`
	Callable  bool      `db:"callable" json:"callable"`
	Sent      bool      `db:"sent" json:"sent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
