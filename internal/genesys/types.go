// internal/genesys/types.go
package genesys

// Typed view of the analytics conversation-details payload. The raw API
// response is a loosely-shaped tree; it is decoded once per conversation
// into these structs and all extraction logic works against them.

type Conversation struct {
	ConversationID    string        `json:"conversationId"`
	ConversationStart *string       `json:"conversationStart,omitempty"`
	ConversationEnd   *string       `json:"conversationEnd,omitempty"`
	Participants      []Participant `json:"participants"`
}

type Participant struct {
	ParticipantID string    `json:"participantId"`
	Purpose       string    `json:"purpose"` // customer, agent, acd, outbound, ...
	UserID        string    `json:"userId,omitempty"`
	Sessions      []Session `json:"sessions"`
}

type Session struct {
	SessionID          string `json:"sessionId"`
	MediaType          string `json:"mediaType"`
	PeerID             string `json:"peerId,omitempty"`
	DNIS               string `json:"dnis,omitempty"`
	SessionDNIS        string `json:"sessionDnis,omitempty"`
	OutboundCampaignID string `json:"outboundCampaignId,omitempty"`
	OutboundContactID  string `json:"outboundContactId,omitempty"`
	FlowInType         string `json:"flowInType,omitempty"`
	SelectedAgentID    string `json:"selectedAgentId,omitempty"`
	DispositionName    string `json:"dispositionName,omitempty"`
	DispositionAnalyzer string `json:"dispositionAnalyzer,omitempty"`
	ProtocolCallID     string `json:"protocolCallId,omitempty"`
	Provider           string `json:"provider,omitempty"`

	CallbackScheduledTime string   `json:"callbackScheduledTime,omitempty"`
	CallbackNumbers       []string `json:"callbackNumbers,omitempty"`

	Segments []Segment `json:"segments"`
	Metrics  []Metric  `json:"metrics"`
}

// Segment is a time-bounded sub-state of a session. A segment with a start
// but no end is still open (the call is in progress).
type Segment struct {
	SegmentType      string  `json:"segmentType"` // dialing, alert, interact, wrapup, ...
	SegmentStart     *string `json:"segmentStart,omitempty"`
	SegmentEnd       *string `json:"segmentEnd,omitempty"`
	DisconnectType   string  `json:"disconnectType,omitempty"`
	WrapUpCode       string  `json:"wrapUpCode,omitempty"`
	SIPResponseCodes []int   `json:"sipResponseCodes,omitempty"`
}

// Metric is a named duration value in milliseconds (tConnected, tTalk, ...).
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// WrapupEntity is one entry of the wrap-up code catalog endpoint.
type WrapupEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserResult is one entry of the user search endpoint.
type UserResult struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
