// internal/extractor/extractor.go
package extractor

import (
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/unclebandit/genesys-campaign-sync/internal/genesys"
	"github.com/unclebandit/genesys-campaign-sync/internal/model"
)

// Catalogs resolves reference data needed while mapping a session: wrap-up
// display names and agent emails.
type Catalogs interface {
	WrapupName(id string) (string, bool)
	AgentEmail(userID string) (string, bool)
}

// Extractor turns one raw conversation into zero or more Attempt and
// Callback facts. One Attempt per closed customer voice session, one
// Callback per agent-flow ACD session. Conversations whose sessions never
// reference the configured campaign are skipped entirely.
type Extractor struct {
	CampaignID string
	Location   *time.Location
	Catalogs   Catalogs
}

func New(campaignID string, loc *time.Location, catalogs Catalogs) *Extractor {
	return &Extractor{CampaignID: campaignID, Location: loc, Catalogs: catalogs}
}

func (e *Extractor) Extract(conv genesys.Conversation) ([]*model.Attempt, []*model.Callback) {
	if !e.matchesCampaign(conv) {
		for _, p := range conv.Participants {
			for _, s := range p.Sessions {
				log.Printf("Conversation %s skipped because outboundCampaignId IS %q != configured campaignId %s",
					conv.ConversationID, s.OutboundCampaignID, e.CampaignID)
			}
		}
		return nil, nil
	}

	var attempts []*model.Attempt
	var callbacks []*model.Callback

	for pi := range conv.Participants {
		p := &conv.Participants[pi]
		switch {
		case strings.EqualFold(p.Purpose, "customer"):
			for si := range p.Sessions {
				s := &p.Sessions[si]
				if !strings.EqualFold(s.MediaType, "voice") {
					continue
				}
				if a := e.buildAttempt(conv, s, p); a != nil {
					attempts = append(attempts, a)
				}
			}
		case strings.EqualFold(p.Purpose, "acd"):
			for si := range p.Sessions {
				s := &p.Sessions[si]
				if !strings.EqualFold(s.FlowInType, "agent") {
					continue
				}
				callbacks = append(callbacks, e.buildCallback(conv, s))
			}
		}
	}

	return attempts, callbacks
}

func (e *Extractor) matchesCampaign(conv genesys.Conversation) bool {
	for _, p := range conv.Participants {
		for _, s := range p.Sessions {
			if s.OutboundCampaignID == e.CampaignID {
				return true
			}
		}
	}
	return false
}

func (e *Extractor) buildAttempt(conv genesys.Conversation, session *genesys.Session, participant *genesys.Participant) *model.Attempt {
	// A session with an open in-progress segment is re-evaluated on a
	// later scan once the call has settled.
	if hasOpenSegment(session, "interact", "dialing", "alert") {
		return nil
	}

	a := &model.Attempt{
		CustomerSessionID: session.SessionID,
		ConversationID:    conv.ConversationID,
		CampaignID:        session.OutboundCampaignID,
		OutboundContactID: session.OutboundContactID,
		OrderID:           session.OutboundContactID,
		Sent:              false,
	}

	// An ended conversation is no longer callable-eligible.
	a.Callable = conv.ConversationEnd == nil

	phone := session.DNIS
	phone = strings.TrimPrefix(phone, "tel:")
	a.Phone = phone

	first, last := firstLastTimes(session)
	a.StartTime = e.toLocal(first)
	a.EndTime = e.toLocal(last)

	a.DialSeconds = int(sumSegmentDurations(session, "dialing") + 0.5)

	metrics := collectMetrics(session)
	talk := msToSeconds(metrics["tConnected"])
	if talk == nil || *talk == 0.0 {
		v := round1(sumSegmentDurations(session, "interact"))
		talk = &v
	}
	a.TalkSeconds = talk

	if hasInteract(session) {
		a.Outcome = "Connected"
	} else {
		a.Outcome = "Not connected"
	}

	a.DisconnectType = latestSegmentValue(session, "", func(seg *genesys.Segment) string { return seg.DisconnectType })
	a.SIPCodes = sipCodes(session)

	peer := findPeer(conv, session.SessionID)
	if peer.Session != nil {
		a.PeerSessionID = peer.Session.SessionID
		if peer.Participant != nil {
			a.PeerPurpose = peer.Participant.Purpose
		}
		a.PeerDisposition = peer.Session.DispositionName
		a.PeerAnalyzer = peer.Session.DispositionAnalyzer
		a.PeerWrapUpCode = wrapupCode(peer.Session)
		a.PeerSIPCodes = sipCodes(peer.Session)
		a.PeerProtocolCallID = peer.Session.ProtocolCallID
		a.PeerSessionDNIS = peer.Session.SessionDNIS
		a.PeerProvider = peer.Session.Provider
	}

	custWinStart, custWinEnd := interactWindow(session)
	agent := findAgent(conv, session.SelectedAgentID, session.SessionID, custWinStart, custWinEnd)
	if agent.Session != nil {
		agentMetrics := collectMetrics(agent.Session)
		a.AgentSessionID = agent.Session.SessionID
		if agent.Participant != nil {
			a.AgentUserID = agent.Participant.UserID
		}
		a.AgentAlertSeconds = msToSeconds(agentMetrics["tAlert"])
		a.AgentAnsweredSeconds = msToSeconds(agentMetrics["tAnswered"])

		agentTalk := msToSeconds(agentMetrics["tTalk"])
		if agentTalk == nil || *agentTalk == 0.0 {
			v := round1(sumSegmentDurations(agent.Session, "interact"))
			agentTalk = &v
		}
		a.AgentTalkSeconds = agentTalk

		agentHold := msToSeconds(agentMetrics["tHeld"])
		if agentHold == nil {
			v := 0.0
			agentHold = &v
		}
		a.AgentHoldSeconds = agentHold

		a.AgentAcwSeconds = msToSeconds(agentMetrics["tAcw"])
		a.AgentHandleSeconds = msToSeconds(agentMetrics["tHandle"])

		acw := 0.0
		if a.AgentAcwSeconds != nil {
			acw = *a.AgentAcwSeconds
		}
		duration := *agentTalk + *agentHold + acw
		a.Duration = &duration

		a.AgentWrapUpCode = wrapupCode(agent.Session)
		if name, ok := e.Catalogs.WrapupName(a.AgentWrapUpCode); ok {
			a.AgentWrapUpName = name
		}
	}

	if a.AgentUserID != "" {
		if email, ok := e.Catalogs.AgentEmail(a.AgentUserID); ok {
			a.AgentEmail = email
		}
	}

	return a
}

func (e *Extractor) buildCallback(conv genesys.Conversation, session *genesys.Session) *model.Callback {
	cb := &model.Callback{
		ConversationID:    conv.ConversationID,
		OutboundContactID: session.OutboundContactID,
		CallbackNumbers:   strings.Join(session.CallbackNumbers, ", "),
		Sent:              false,
	}
	if t := parseISO(session.CallbackScheduledTime); t != nil {
		cb.CallbackScheduledTime = e.toLocal(t)
	}
	return cb
}

// --- helpers ---

// parseISO accepts RFC 3339 with offset and a zone-less fallback treated as
// UTC. A parse failure is logged and yields nil, never an error.
func parseISO(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC); err == nil {
		return &t
	}
	log.Printf("⚠️ Failed to parse ISO 8601 date string: %q", s)
	return nil
}

func (e *Extractor) toLocal(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	local := t.In(e.Location)
	return &local
}

func parseSegBound(s *string) *time.Time {
	if s == nil {
		return nil
	}
	return parseISO(*s)
}

func durationSeconds(start, end *string) float64 {
	s := parseSegBound(start)
	e := parseSegBound(end)
	if s == nil || e == nil {
		return 0.0
	}
	d := e.Sub(*s).Seconds()
	if d < 0 {
		return 0.0
	}
	return d
}

func collectMetrics(session *genesys.Session) map[string]float64 {
	m := make(map[string]float64, len(session.Metrics))
	for _, metric := range session.Metrics {
		if metric.Name != "" {
			m[metric.Name] = metric.Value
		}
	}
	return m
}

func sumSegmentDurations(session *genesys.Session, segType string) float64 {
	total := 0.0
	for i := range session.Segments {
		seg := &session.Segments[i]
		if strings.EqualFold(seg.SegmentType, segType) {
			total += durationSeconds(seg.SegmentStart, seg.SegmentEnd)
		}
	}
	return total
}

func firstLastTimes(session *genesys.Session) (first, last *time.Time) {
	for i := range session.Segments {
		seg := &session.Segments[i]
		if s := parseSegBound(seg.SegmentStart); s != nil {
			if first == nil || s.Before(*first) {
				first = s
			}
		}
		if e := parseSegBound(seg.SegmentEnd); e != nil {
			if last == nil || e.After(*last) {
				last = e
			}
		}
	}
	return first, last
}

// latestSegmentValue folds over the session's segments and returns the
// picked field of the segment with the latest end timestamp. An empty
// segType matches every segment. Used for both disconnect-type and wrap-up
// resolution (last writer by end time wins, not array order).
func latestSegmentValue(session *genesys.Session, segType string, pick func(*genesys.Segment) string) string {
	var lastEnd *time.Time
	value := ""
	for i := range session.Segments {
		seg := &session.Segments[i]
		if segType != "" && !strings.EqualFold(seg.SegmentType, segType) {
			continue
		}
		end := parseSegBound(seg.SegmentEnd)
		if end == nil {
			continue
		}
		if lastEnd == nil || end.After(*lastEnd) {
			lastEnd = end
			value = pick(seg)
		}
	}
	return value
}

func wrapupCode(session *genesys.Session) string {
	if session == nil {
		return ""
	}
	return latestSegmentValue(session, "wrapup", func(seg *genesys.Segment) string { return seg.WrapUpCode })
}

// sipCodes collects the union of SIP response codes across all segments,
// numerically sorted ascending, comma-joined.
func sipCodes(session *genesys.Session) string {
	seen := make(map[int]bool)
	for i := range session.Segments {
		for _, code := range session.Segments[i].SIPResponseCodes {
			seen[code] = true
		}
	}
	codes := make([]int, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	parts := make([]string, len(codes))
	for i, code := range codes {
		parts[i] = strconv.Itoa(code)
	}
	return strings.Join(parts, ",")
}

func hasInteract(session *genesys.Session) bool {
	for i := range session.Segments {
		seg := &session.Segments[i]
		if strings.EqualFold(seg.SegmentType, "interact") && durationSeconds(seg.SegmentStart, seg.SegmentEnd) > 0 {
			return true
		}
	}
	return false
}

// interactWindow returns the bounds of the session's first closed interact
// segment, or nils when none exists.
func interactWindow(session *genesys.Session) (start, end *time.Time) {
	for i := range session.Segments {
		seg := &session.Segments[i]
		if !strings.EqualFold(seg.SegmentType, "interact") {
			continue
		}
		s := parseSegBound(seg.SegmentStart)
		e := parseSegBound(seg.SegmentEnd)
		if s != nil && e != nil && e.After(*s) {
			return s, e
		}
	}
	return nil, nil
}

func overlapSeconds(aStart, aEnd, bStart, bEnd *time.Time) float64 {
	if aStart == nil || aEnd == nil || bStart == nil || bEnd == nil {
		return 0.0
	}
	start := *aStart
	if bStart.After(start) {
		start = *bStart
	}
	end := *aEnd
	if bEnd.Before(end) {
		end = *bEnd
	}
	d := end.Sub(start).Seconds()
	if d < 0 {
		return 0.0
	}
	return d
}

// PeerMatch is the resolved peer leg of a customer session.
type PeerMatch struct {
	Session     *genesys.Session
	Participant *genesys.Participant
}

func peerPriority(purpose string) int {
	switch strings.ToLower(purpose) {
	case "outbound":
		return 0
	case "acd":
		return 1
	case "agent":
		return 2
	default:
		return 99
	}
}

// findPeer collects every session whose peerId equals the customer session
// id and prefers the direct outbound leg over ACD over agent peers. Ties
// keep the first candidate encountered.
func findPeer(conv genesys.Conversation, customerSessionID string) PeerMatch {
	best := PeerMatch{}
	bestPriority := 0
	for pi := range conv.Participants {
		p := &conv.Participants[pi]
		for si := range p.Sessions {
			s := &p.Sessions[si]
			if s.PeerID != customerSessionID {
				continue
			}
			priority := peerPriority(p.Purpose)
			if best.Session == nil || priority < bestPriority {
				best = PeerMatch{Session: s, Participant: p}
				bestPriority = priority
			}
		}
	}
	return best
}

// AgentScore is one scored agent-session candidate. Candidates compare
// lexicographically: a direct peer match beats any amount of overlap.
type AgentScore struct {
	Session     *genesys.Session
	Participant *genesys.Participant
	PeerMatch   int
	Overlap     float64
}

func (s AgentScore) beats(other AgentScore) bool {
	if s.PeerMatch != other.PeerMatch {
		return s.PeerMatch > other.PeerMatch
	}
	return s.Overlap > other.Overlap
}

// findAgent scores every voice session of every agent participant
// (optionally restricted to the customer's selectedAgentId) and returns the
// best candidate, provided it either peer-matches or overlaps the
// customer's interact window.
func findAgent(conv genesys.Conversation, selectedAgentID, customerSessionID string, custWinStart, custWinEnd *time.Time) AgentScore {
	best := AgentScore{PeerMatch: -1}

	for pi := range conv.Participants {
		p := &conv.Participants[pi]
		if !strings.EqualFold(p.Purpose, "agent") {
			continue
		}
		if selectedAgentID != "" && selectedAgentID != p.UserID {
			continue
		}
		for si := range p.Sessions {
			s := &p.Sessions[si]
			if !strings.EqualFold(s.MediaType, "voice") {
				continue
			}

			candidate := AgentScore{Session: s, Participant: p}
			if s.PeerID == customerSessionID {
				candidate.PeerMatch = 1
			}
			if custWinStart != nil && custWinEnd != nil {
				agentStart, agentEnd := interactWindow(s)
				candidate.Overlap = overlapSeconds(custWinStart, custWinEnd, agentStart, agentEnd)
			}

			if candidate.beats(best) {
				best = candidate
			}
		}
	}

	if best.Session != nil && (best.PeerMatch == 1 || best.Overlap > 0.0) {
		return best
	}
	return AgentScore{}
}

func hasOpenSegment(session *genesys.Session, segTypes ...string) bool {
	for i := range session.Segments {
		seg := &session.Segments[i]
		for _, t := range segTypes {
			if seg.SegmentType == t && seg.SegmentStart != nil && seg.SegmentEnd == nil {
				return true
			}
		}
	}
	return false
}

// msToSeconds converts a millisecond metric to seconds rounded to one
// decimal. A value of exactly zero means the metric is absent.
func msToSeconds(ms float64) *float64 {
	if ms == 0.0 {
		return nil
	}
	v := round1(ms / 1000.0)
	return &v
}

func round1(v float64) float64 {
	if v < 0 {
		return -float64(int64(-v*10.0+0.5)) / 10.0
	}
	return float64(int64(v*10.0+0.5)) / 10.0
}
