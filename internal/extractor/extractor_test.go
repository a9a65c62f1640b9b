// internal/extractor/extractor_test.go
package extractor_test

import (
	"testing"
	"time"

	"github.com/unclebandit/genesys-campaign-sync/internal/extractor"
	"github.com/unclebandit/genesys-campaign-sync/internal/genesys"
)

type stubCatalogs struct {
	wrapups map[string]string
	emails  map[string]string
}

func (s stubCatalogs) WrapupName(id string) (string, bool) {
	name, ok := s.wrapups[id]
	return name, ok
}

func (s stubCatalogs) AgentEmail(userID string) (string, bool) {
	email, ok := s.emails[userID]
	return email, ok
}

func sp(s string) *string { return &s }

func newExtractor(t *testing.T) *extractor.Extractor {
	t.Helper()
	return extractor.New("camp-1", time.UTC, stubCatalogs{
		wrapups: map[string]string{"DISP1": "Interested"},
		emails:  map[string]string{"user-7": "agent7@example.com"},
	})
}

func TestExtractSkipsOtherCampaigns(t *testing.T) {
	ext := newExtractor(t)

	conv := genesys.Conversation{
		ConversationID: "conv-x",
		Participants: []genesys.Participant{{
			Purpose: "customer",
			Sessions: []genesys.Session{{
				SessionID:          "cust-x",
				MediaType:          "voice",
				OutboundCampaignID: "some-other-campaign",
			}},
		}},
	}

	attempts, callbacks := ext.Extract(conv)
	if len(attempts) != 0 || len(callbacks) != 0 {
		t.Fatalf("expected no facts for a foreign campaign, got %d attempts and %d callbacks", len(attempts), len(callbacks))
	}
}

func TestExtractBuildsAttemptWithAgentDetail(t *testing.T) {
	ext := newExtractor(t)

	conv := genesys.Conversation{
		ConversationID:  "conv-1",
		ConversationEnd: sp("2024-05-01T10:02:00Z"),
		Participants: []genesys.Participant{
			{
				Purpose: "customer",
				Sessions: []genesys.Session{{
					SessionID:          "cust-1",
					MediaType:          "voice",
					DNIS:               "tel:+971500000001",
					OutboundCampaignID: "camp-1",
					OutboundContactID:  "contact-9",
					Segments: []genesys.Segment{
						{SegmentType: "dialing", SegmentStart: sp("2024-05-01T10:00:00Z"), SegmentEnd: sp("2024-05-01T10:00:05Z")},
						{SegmentType: "interact", SegmentStart: sp("2024-05-01T10:00:05Z"), SegmentEnd: sp("2024-05-01T10:01:05Z")},
						{SegmentType: "wrapup", SegmentStart: sp("2024-05-01T10:01:05Z"), SegmentEnd: sp("2024-05-01T10:01:20Z"), DisconnectType: "peer", WrapUpCode: "CUSTWRAP"},
					},
				}},
			},
			{
				Purpose: "agent",
				UserID:  "user-7",
				Sessions: []genesys.Session{{
					SessionID: "agent-1",
					MediaType: "voice",
					PeerID:    "cust-1",
					Segments: []genesys.Segment{
						{SegmentType: "interact", SegmentStart: sp("2024-05-01T10:00:05Z"), SegmentEnd: sp("2024-05-01T10:01:05Z")},
						{SegmentType: "wrapup", SegmentStart: sp("2024-05-01T10:01:05Z"), SegmentEnd: sp("2024-05-01T10:01:20Z"), WrapUpCode: "DISP1"},
					},
					Metrics: []genesys.Metric{
						{Name: "tTalk", Value: 60000},
						{Name: "tHeld", Value: 5000},
					},
				}},
			},
		},
	}

	attempts, _ := ext.Extract(conv)
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	a := attempts[0]

	if a.CustomerSessionID != "cust-1" || a.ConversationID != "conv-1" {
		t.Errorf("wrong identity fields: %+v", a)
	}
	if a.OrderID != "contact-9" {
		t.Errorf("order id should mirror outboundContactId, got %q", a.OrderID)
	}
	if a.Phone != "+971500000001" {
		t.Errorf("tel: prefix not stripped, got %q", a.Phone)
	}
	if a.Callable {
		t.Error("an ended conversation must not be callable")
	}
	if a.DialSeconds != 5 {
		t.Errorf("expected dialSeconds=5, got %d", a.DialSeconds)
	}
	if a.TalkSeconds == nil || *a.TalkSeconds != 60.0 {
		t.Errorf("expected talkSeconds=60.0 from summed interact segments, got %v", a.TalkSeconds)
	}
	if a.Outcome != "Connected" {
		t.Errorf("expected Connected, got %q", a.Outcome)
	}
	if a.DisconnectType != "peer" {
		t.Errorf("expected disconnectType from latest-ending segment, got %q", a.DisconnectType)
	}

	if a.PeerSessionID != "agent-1" || a.PeerPurpose != "agent" {
		t.Errorf("wrong peer resolution: session=%q purpose=%q", a.PeerSessionID, a.PeerPurpose)
	}
	if a.PeerWrapUpCode != "DISP1" {
		t.Errorf("expected peer wrap-up DISP1, got %q", a.PeerWrapUpCode)
	}

	if a.AgentSessionID != "agent-1" || a.AgentUserID != "user-7" {
		t.Errorf("wrong agent match: session=%q user=%q", a.AgentSessionID, a.AgentUserID)
	}
	if a.AgentEmail != "agent7@example.com" {
		t.Errorf("expected catalog email, got %q", a.AgentEmail)
	}
	if a.AgentTalkSeconds == nil || *a.AgentTalkSeconds != 60.0 {
		t.Errorf("expected agent talk 60.0 from tTalk, got %v", a.AgentTalkSeconds)
	}
	if a.AgentHoldSeconds == nil || *a.AgentHoldSeconds != 5.0 {
		t.Errorf("expected agent hold 5.0 from tHeld, got %v", a.AgentHoldSeconds)
	}
	// tAcw absent: duration falls back to talk + hold.
	if a.Duration == nil || *a.Duration != 65.0 {
		t.Errorf("expected duration 65.0, got %v", a.Duration)
	}
	if a.AgentWrapUpCode != "DISP1" || a.AgentWrapUpName != "Interested" {
		t.Errorf("wrong agent wrap-up: code=%q name=%q", a.AgentWrapUpCode, a.AgentWrapUpName)
	}
	if a.Sent {
		t.Error("fresh attempts must start unsent")
	}
}

func TestExtractSuppressesOpenSegments(t *testing.T) {
	ext := newExtractor(t)

	conv := genesys.Conversation{
		ConversationID: "conv-2",
		Participants: []genesys.Participant{{
			Purpose: "customer",
			Sessions: []genesys.Session{{
				SessionID:          "cust-2",
				MediaType:          "voice",
				OutboundCampaignID: "camp-1",
				Segments: []genesys.Segment{
					{SegmentType: "dialing", SegmentStart: sp("2024-05-01T10:00:00Z"), SegmentEnd: sp("2024-05-01T10:00:05Z")},
					{SegmentType: "interact", SegmentStart: sp("2024-05-01T10:00:05Z")}, // still open
				},
			}},
		}},
	}

	attempts, _ := ext.Extract(conv)
	if len(attempts) != 0 {
		t.Fatalf("in-progress sessions must be skipped, got %d attempts", len(attempts))
	}
}

func TestExtractCallablePolarity(t *testing.T) {
	ext := newExtractor(t)

	conv := genesys.Conversation{
		ConversationID: "conv-3",
		Participants: []genesys.Participant{{
			Purpose: "customer",
			Sessions: []genesys.Session{{
				SessionID:          "cust-3",
				MediaType:          "voice",
				OutboundCampaignID: "camp-1",
				Segments: []genesys.Segment{
					{SegmentType: "dialing", SegmentStart: sp("2024-05-01T10:00:00Z"), SegmentEnd: sp("2024-05-01T10:00:03Z")},
				},
			}},
		}},
	}

	attempts, _ := ext.Extract(conv)
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	if !attempts[0].Callable {
		t.Error("a conversation without an end must stay callable")
	}
	if attempts[0].Outcome != "Not connected" {
		t.Errorf("no interact segment should mean Not connected, got %q", attempts[0].Outcome)
	}
}

func TestExtractTalkSecondsPrefersConnectedMetric(t *testing.T) {
	ext := newExtractor(t)

	conv := genesys.Conversation{
		ConversationID: "conv-4",
		Participants: []genesys.Participant{{
			Purpose: "customer",
			Sessions: []genesys.Session{{
				SessionID:          "cust-4",
				MediaType:          "voice",
				OutboundCampaignID: "camp-1",
				Segments: []genesys.Segment{
					{SegmentType: "interact", SegmentStart: sp("2024-05-01T10:00:00Z"), SegmentEnd: sp("2024-05-01T10:01:00Z")},
				},
				Metrics: []genesys.Metric{{Name: "tConnected", Value: 12345}},
			}},
		}},
	}

	attempts, _ := ext.Extract(conv)
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	if attempts[0].TalkSeconds == nil || *attempts[0].TalkSeconds != 12.3 {
		t.Errorf("expected 12345ms -> 12.3s, got %v", attempts[0].TalkSeconds)
	}
}

func TestExtractSIPCodesSortedAndDeduped(t *testing.T) {
	ext := newExtractor(t)

	conv := genesys.Conversation{
		ConversationID: "conv-5",
		Participants: []genesys.Participant{{
			Purpose: "customer",
			Sessions: []genesys.Session{{
				SessionID:          "cust-5",
				MediaType:          "voice",
				OutboundCampaignID: "camp-1",
				Segments: []genesys.Segment{
					{SegmentType: "dialing", SegmentStart: sp("2024-05-01T10:00:00Z"), SegmentEnd: sp("2024-05-01T10:00:02Z"), SIPResponseCodes: []int{487, 200}},
					{SegmentType: "interact", SegmentStart: sp("2024-05-01T10:00:02Z"), SegmentEnd: sp("2024-05-01T10:00:30Z"), SIPResponseCodes: []int{200, 183}},
				},
			}},
		}},
	}

	attempts, _ := ext.Extract(conv)
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	if attempts[0].SIPCodes != "183,200,487" {
		t.Errorf("expected numerically sorted deduped codes, got %q", attempts[0].SIPCodes)
	}
}

func TestExtractPeerPrefersOutboundLeg(t *testing.T) {
	ext := newExtractor(t)

	conv := genesys.Conversation{
		ConversationID: "conv-6",
		Participants: []genesys.Participant{
			{
				Purpose: "customer",
				Sessions: []genesys.Session{{
					SessionID:          "cust-6",
					MediaType:          "voice",
					OutboundCampaignID: "camp-1",
					Segments: []genesys.Segment{
						{SegmentType: "dialing", SegmentStart: sp("2024-05-01T10:00:00Z"), SegmentEnd: sp("2024-05-01T10:00:02Z")},
					},
				}},
			},
			{
				Purpose:  "agent",
				Sessions: []genesys.Session{{SessionID: "agent-6", MediaType: "voice", PeerID: "cust-6"}},
			},
			{
				Purpose:  "outbound",
				Sessions: []genesys.Session{{SessionID: "outbound-6", MediaType: "voice", PeerID: "cust-6", Provider: "Outbound"}},
			},
		},
	}

	attempts, _ := ext.Extract(conv)
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	a := attempts[0]
	if a.PeerSessionID != "outbound-6" || a.PeerPurpose != "outbound" {
		t.Errorf("outbound peer must win over agent, got session=%q purpose=%q", a.PeerSessionID, a.PeerPurpose)
	}
}

func TestExtractAgentPeerMatchBeatsOverlap(t *testing.T) {
	ext := newExtractor(t)

	conv := genesys.Conversation{
		ConversationID: "conv-7",
		Participants: []genesys.Participant{
			{
				Purpose: "customer",
				Sessions: []genesys.Session{{
					SessionID:          "cust-7",
					MediaType:          "voice",
					OutboundCampaignID: "camp-1",
					Segments: []genesys.Segment{
						{SegmentType: "interact", SegmentStart: sp("2024-05-01T10:00:00Z"), SegmentEnd: sp("2024-05-01T10:01:40Z")},
					},
				}},
			},
			{
				Purpose: "agent",
				UserID:  "user-x",
				Sessions: []genesys.Session{{
					SessionID: "agent-x",
					MediaType: "voice",
					PeerID:    "cust-7", // direct match, no interact overlap
				}},
			},
			{
				Purpose: "agent",
				UserID:  "user-y",
				Sessions: []genesys.Session{{
					SessionID: "agent-y",
					MediaType: "voice",
					Segments: []genesys.Segment{
						{SegmentType: "interact", SegmentStart: sp("2024-05-01T10:00:00Z"), SegmentEnd: sp("2024-05-01T10:00:50Z")},
					},
				}},
			},
		},
	}

	attempts, _ := ext.Extract(conv)
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	if attempts[0].AgentSessionID != "agent-x" {
		t.Errorf("peer match must beat overlap, got agent session %q", attempts[0].AgentSessionID)
	}
}

func TestExtractAgentWithoutEvidenceIsRejected(t *testing.T) {
	ext := newExtractor(t)

	conv := genesys.Conversation{
		ConversationID: "conv-8",
		Participants: []genesys.Participant{
			{
				Purpose: "customer",
				Sessions: []genesys.Session{{
					SessionID:          "cust-8",
					MediaType:          "voice",
					OutboundCampaignID: "camp-1",
					Segments: []genesys.Segment{
						{SegmentType: "dialing", SegmentStart: sp("2024-05-01T10:00:00Z"), SegmentEnd: sp("2024-05-01T10:00:02Z")},
					},
				}},
			},
			{
				Purpose:  "agent",
				UserID:   "user-z",
				Sessions: []genesys.Session{{SessionID: "agent-z", MediaType: "voice"}},
			},
		},
	}

	attempts, _ := ext.Extract(conv)
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	if attempts[0].AgentSessionID != "" || attempts[0].AgentUserID != "" {
		t.Errorf("agent with no peer match and no overlap must not be attached: %+v", attempts[0])
	}
}

func TestExtractBuildsCallbacks(t *testing.T) {
	ext := newExtractor(t)

	conv := genesys.Conversation{
		ConversationID: "conv-9",
		Participants: []genesys.Participant{
			{
				Purpose: "customer",
				Sessions: []genesys.Session{{
					SessionID:          "cust-9",
					MediaType:          "voice",
					OutboundCampaignID: "camp-1",
				}},
			},
			{
				Purpose: "acd",
				Sessions: []genesys.Session{
					{
						SessionID:             "acd-9",
						MediaType:             "callback",
						FlowInType:            "agent",
						OutboundContactID:     "contact-9",
						CallbackScheduledTime: "2024-05-02T09:00:00Z",
						CallbackNumbers:       []string{"+971500000001", "+971500000002"},
					},
					{
						SessionID:  "acd-9b",
						MediaType:  "callback",
						FlowInType: "outbound", // not an agent-flow leg
					},
				},
			},
		},
	}

	_, callbacks := ext.Extract(conv)
	if len(callbacks) != 1 {
		t.Fatalf("expected 1 callback, got %d", len(callbacks))
	}
	cb := callbacks[0]
	if cb.ConversationID != "conv-9" || cb.OutboundContactID != "contact-9" {
		t.Errorf("wrong callback identity: %+v", cb)
	}
	if cb.CallbackNumbers != "+971500000001, +971500000002" {
		t.Errorf("expected comma-space joined numbers, got %q", cb.CallbackNumbers)
	}
	want := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	if cb.CallbackScheduledTime == nil || !cb.CallbackScheduledTime.Equal(want) {
		t.Errorf("expected scheduled time %s, got %v", want, cb.CallbackScheduledTime)
	}
}

func TestExtractAcceptsZonelessTimestamps(t *testing.T) {
	ext := newExtractor(t)

	conv := genesys.Conversation{
		ConversationID: "conv-10",
		Participants: []genesys.Participant{
			{
				Purpose: "customer",
				Sessions: []genesys.Session{{
					SessionID:          "cust-10",
					MediaType:          "voice",
					OutboundCampaignID: "camp-1",
				}},
			},
			{
				Purpose: "acd",
				Sessions: []genesys.Session{{
					SessionID:             "acd-10",
					FlowInType:            "agent",
					OutboundContactID:     "contact-10",
					CallbackScheduledTime: "2024-05-02T09:30:00", // no offset, treated as UTC
				}},
			},
		},
	}

	_, callbacks := ext.Extract(conv)
	if len(callbacks) != 1 {
		t.Fatalf("expected 1 callback, got %d", len(callbacks))
	}
	want := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	if callbacks[0].CallbackScheduledTime == nil || !callbacks[0].CallbackScheduledTime.Equal(want) {
		t.Errorf("expected zone-less time parsed as UTC %s, got %v", want, callbacks[0].CallbackScheduledTime)
	}
}

func TestExtractWrapupLatestEndWins(t *testing.T) {
	ext := newExtractor(t)

	conv := genesys.Conversation{
		ConversationID: "conv-11",
		Participants: []genesys.Participant{
			{
				Purpose: "customer",
				Sessions: []genesys.Session{{
					SessionID:          "cust-11",
					MediaType:          "voice",
					OutboundCampaignID: "camp-1",
					Segments: []genesys.Segment{
						{SegmentType: "interact", SegmentStart: sp("2024-05-01T10:00:00Z"), SegmentEnd: sp("2024-05-01T10:01:00Z")},
					},
				}},
			},
			{
				Purpose: "agent",
				UserID:  "user-7",
				Sessions: []genesys.Session{{
					SessionID: "agent-11",
					MediaType: "voice",
					PeerID:    "cust-11",
					// Later wrap-up listed first: end-time order must win,
					// not array order.
					Segments: []genesys.Segment{
						{SegmentType: "wrapup", SegmentStart: sp("2024-05-01T10:02:00Z"), SegmentEnd: sp("2024-05-01T10:02:30Z"), WrapUpCode: "FINAL"},
						{SegmentType: "wrapup", SegmentStart: sp("2024-05-01T10:01:00Z"), SegmentEnd: sp("2024-05-01T10:01:30Z"), WrapUpCode: "EARLY"},
					},
				}},
			},
		},
	}

	attempts, _ := ext.Extract(conv)
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	if attempts[0].AgentWrapUpCode != "FINAL" {
		t.Errorf("expected the latest-ending wrap-up to win, got %q", attempts[0].AgentWrapUpCode)
	}
}
