// internal/service/reconcile_service.go
package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/unclebandit/genesys-campaign-sync/internal/model"
	"github.com/unclebandit/genesys-campaign-sync/internal/partner"
	"github.com/unclebandit/genesys-campaign-sync/internal/repository"
)

const (
	// CallbackMarkerName is the agent wrap-up display name flagging an
	// attempt as a callback request.
	CallbackMarkerName = "Call Back"

	wrapupVendorPrefix  = "ININ"
	wrapupQueueTransfer = "ININ-OUTBOUND-TRANSFERRED-TO-QUEUE"
	wrapupTimeout       = "ININ-WRAP-UP-TIMEOUT"
)

// PartnerSender is the slice of the partner client the reconciler needs.
type PartnerSender interface {
	AccessToken(ctx context.Context) (string, error)
	SendAttempts(ctx context.Context, token string, payload partner.Payload) error
}

// ReconcileService forwards unsent facts to the partner and marks them
// sent. The batch is atomic from its point of view: on exhausted retries
// nothing is marked and the next tick resends everything.
type ReconcileService struct {
	AttemptRepo  repository.AttemptRepositoryInterface
	CallbackRepo repository.CallbackRepositoryInterface
	Partner      PartnerSender
	Verbose      bool
}

func (s *ReconcileService) Reconcile(ctx context.Context) error {
	callbacks, err := s.CallbackRepo.FindUnsent()
	if err != nil {
		return err
	}
	callbackIndex := map[string]*model.Callback{}
	for _, cb := range callbacks {
		callbackIndex[cb.OutboundContactID] = cb
	}

	attempts, err := s.AttemptRepo.FindUnsent()
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		log.Println("No attempts found in database to send.")
		return nil
	}

	token, err := s.Partner.AccessToken(ctx)
	if err != nil {
		return err
	}

	payload := BuildPayload(attempts, callbackIndex)
	if s.Verbose {
		if pretty, err := json.MarshalIndent(payload, "", "  "); err == nil {
			log.Printf("📦 Final payload sent to partner:\n%s", pretty)
		}
	}

	if err := s.Partner.SendAttempts(ctx, token, payload); err != nil {
		return err
	}

	ids := make([]string, len(attempts))
	for i, a := range attempts {
		ids[i] = a.CustomerSessionID
	}
	if err := s.AttemptRepo.MarkSent(ids); err != nil {
		return err
	}

	indexed := make([]*model.Callback, 0, len(callbackIndex))
	for _, cb := range callbackIndex {
		indexed = append(indexed, cb)
	}
	return s.CallbackRepo.MarkSent(indexed)
}

// BuildPayload assembles one outbound record per attempt. Only the latest
// callback-marked attempt per outbound contact may carry callback detail,
// and only when a callback row with a scheduled time exists.
func BuildPayload(attempts []*model.Attempt, callbackIndex map[string]*model.Callback) partner.Payload {
	latest := latestCallbackAttempts(attempts)

	calls := make([]partner.CallAttempt, 0, len(attempts))
	for _, a := range attempts {
		call := partner.CallAttempt{
			CallDuration: 0,
			CallDatetime: "N/A",
			OrderID:      "UNKNOWN",
			AgentID:      "NO_AGENT",
			Callable:     a.Callable,
			PhoneNumber:  a.Phone,
			WrapUpReason: wrapUpReason(a),
		}
		if a.Duration != nil {
			call.CallDuration = *a.Duration
		}
		if a.StartTime != nil {
			call.CallDatetime = a.StartTime.UTC().Format(time.RFC3339)
		}
		if a.OrderID != "" {
			call.OrderID = a.OrderID
		}
		if a.AgentEmail != "" {
			call.AgentID = a.AgentEmail
		}

		if a.AgentWrapUpName == CallbackMarkerName {
			if winner := latest[a.OutboundContactID]; winner != nil && winner.CustomerSessionID == a.CustomerSessionID {
				if cb := callbackIndex[a.OutboundContactID]; cb != nil && cb.CallbackScheduledTime != nil {
					call.CallbackRequested = true
					call.CallbackDetails = &partner.CallbackDetails{
						CallbackTime:    cb.CallbackScheduledTime.UTC().Format(time.RFC3339),
						CallbackAgentID: call.AgentID,
					}
				}
			}
		}

		calls = append(calls, call)
	}

	return partner.Payload{CallAttempts: calls}
}

// wrapUpReason applies the precedence rule: a vendor-prefixed peer code
// (other than the queue-transfer code) wins; then the agent timeout code;
// then the agent's human-readable wrap-up name.
func wrapUpReason(a *model.Attempt) string {
	peerWrapUp := orNone(a.PeerWrapUpCode)
	agentWrapUp := orNone(a.AgentWrapUpCode)
	agentWrapUpName := orNone(a.AgentWrapUpName)

	if peerWrapUp != wrapupQueueTransfer && strings.HasPrefix(peerWrapUp, wrapupVendorPrefix) {
		return peerWrapUp
	}
	if agentWrapUp == wrapupTimeout {
		return agentWrapUp
	}
	return agentWrapUpName
}

func orNone(s string) string {
	if s == "" {
		return "NONE"
	}
	return s
}

// latestCallbackAttempts picks, per outbound contact, the callback-marked
// attempt with the latest start time.
func latestCallbackAttempts(attempts []*model.Attempt) map[string]*model.Attempt {
	latest := map[string]*model.Attempt{}
	for _, a := range attempts {
		if a.AgentWrapUpName != CallbackMarkerName {
			continue
		}
		current, ok := latest[a.OutboundContactID]
		if !ok || startsAfter(a, current) {
			latest[a.OutboundContactID] = a
		}
	}
	return latest
}

func startsAfter(a, b *model.Attempt) bool {
	if a.StartTime == nil {
		return false
	}
	if b.StartTime == nil {
		return true
	}
	return a.StartTime.After(*b.StartTime)
}
