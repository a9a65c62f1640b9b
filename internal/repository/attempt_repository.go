// internal/repository/attempt_repository.go
package repository

import (
    "database/sql"
    "log"
    "time"

    "github.com/lib/pq"

    "github.com/unclebandit/genesys-campaign-sync/internal/model"
)

type AttemptRepositoryInterface interface {
    FindExistingSessionIDs(sessionIDs []string) (map[string]bool, error)
    InsertBatch(attempts []*model.Attempt) (int, error)
    FindUnsent() ([]*model.Attempt, error)
    MarkSent(sessionIDs []string) error
    DeleteOlderThan(cutoff time.Time) (int64, error)
    Stats() (map[string]int, error)
}

type AttemptRepository struct {
    DB *sql.DB
}

const attemptColumns = `
    customer_session_id, conversation_id, campaign_id, outbound_contact_id, order_id, phone,
    start_time, end_time, dial_seconds, talk_seconds, outcome, disconnect_type, sip_codes,
    peer_session_id, peer_purpose, peer_disposition, peer_analyzer, peer_wrap_up_code,
    peer_sip_codes, peer_protocol_call_id, peer_session_dnis, peer_provider,
    agent_session_id, agent_user_id, agent_email, agent_alert_seconds, agent_answered_seconds,
    agent_talk_seconds, agent_hold_seconds, agent_acw_seconds, agent_handle_seconds,
    agent_wrap_up_code, agent_wrap_up_name, duration, callable, sent, created_at`

// FindExistingSessionIDs returns which of the given natural keys are
// already stored. This is the bulk dedup check run before every insert.
func (r *AttemptRepository) FindExistingSessionIDs(sessionIDs []string) (map[string]bool, error) {
    existing := map[string]bool{}
    if len(sessionIDs) == 0 {
        return existing, nil
    }

    rows, err := r.DB.Query(
        `SELECT customer_session_id FROM attempts WHERE customer_session_id = ANY($1)`,
        pq.Array(sessionIDs),
    )
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    for rows.Next() {
        var id string
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        existing[id] = true
    }
    return existing, rows.Err()
}

// InsertBatch persists new attempts one by one and returns how many rows
// landed. A unique violation is the dedup backstop against overlapping
// polls and is logged at info level, never treated as a failure.
func (r *AttemptRepository) InsertBatch(attempts []*model.Attempt) (int, error) {
    query := `
        INSERT INTO attempts (` + attemptColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
                $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34,
                $35, $36, $37)
    `
    inserted := 0
    for _, a := range attempts {
        if a.CreatedAt.IsZero() {
            a.CreatedAt = time.Now()
        }
        _, err := r.DB.Exec(query,
            a.CustomerSessionID, a.ConversationID, a.CampaignID, a.OutboundContactID, a.OrderID, a.Phone,
            a.StartTime, a.EndTime, a.DialSeconds, a.TalkSeconds, a.Outcome, a.DisconnectType, a.SIPCodes,
            a.PeerSessionID, a.PeerPurpose, a.PeerDisposition, a.PeerAnalyzer, a.PeerWrapUpCode,
            a.PeerSIPCodes, a.PeerProtocolCallID, a.PeerSessionDNIS, a.PeerProvider,
            a.AgentSessionID, a.AgentUserID, a.AgentEmail, a.AgentAlertSeconds, a.AgentAnsweredSeconds,
            a.AgentTalkSeconds, a.AgentHoldSeconds, a.AgentAcwSeconds, a.AgentHandleSeconds,
            a.AgentWrapUpCode, a.AgentWrapUpName, a.Duration, a.Callable, a.Sent, a.CreatedAt,
        )
        if err != nil {
            if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
                log.Printf("Attempt with customerSessionId: %s already exists (unique constraint). Action: SKIPPED", a.CustomerSessionID)
                continue
            }
            return inserted, err
        }
        inserted++
    }
    return inserted, nil
}

func (r *AttemptRepository) FindUnsent() ([]*model.Attempt, error) {
    rows, err := r.DB.Query(`SELECT ` + attemptColumns + ` FROM attempts WHERE sent = FALSE`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    attempts := []*model.Attempt{}
    for rows.Next() {
        a := &model.Attempt{}
        if err := rows.Scan(
            &a.CustomerSessionID, &a.ConversationID, &a.CampaignID, &a.OutboundContactID, &a.OrderID, &a.Phone,
            &a.StartTime, &a.EndTime, &a.DialSeconds, &a.TalkSeconds, &a.Outcome, &a.DisconnectType, &a.SIPCodes,
            &a.PeerSessionID, &a.PeerPurpose, &a.PeerDisposition, &a.PeerAnalyzer, &a.PeerWrapUpCode,
            &a.PeerSIPCodes, &a.PeerProtocolCallID, &a.PeerSessionDNIS, &a.PeerProvider,
            &a.AgentSessionID, &a.AgentUserID, &a.AgentEmail, &a.AgentAlertSeconds, &a.AgentAnsweredSeconds,
            &a.AgentTalkSeconds, &a.AgentHoldSeconds, &a.AgentAcwSeconds, &a.AgentHandleSeconds,
            &a.AgentWrapUpCode, &a.AgentWrapUpName, &a.Duration, &a.Callable, &a.Sent, &a.CreatedAt,
        ); err != nil {
            return nil, err
        }
        attempts = append(attempts, a)
    }
    return attempts, rows.Err()
}

// MarkSent flips the sent flag; the only mutation attempts ever see.
func (r *AttemptRepository) MarkSent(sessionIDs []string) error {
    if len(sessionIDs) == 0 {
        return nil
    }
    _, err := r.DB.Exec(
        `UPDATE attempts SET sent = TRUE WHERE customer_session_id = ANY($1)`,
        pq.Array(sessionIDs),
    )
    return err
}

// DeleteOlderThan purges attempts past the retention threshold.
func (r *AttemptRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
    res, err := r.DB.Exec(`DELETE FROM attempts WHERE created_at < $1`, cutoff)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// Stats counts attempts by sent state for the ops endpoint.
func (r *AttemptRepository) Stats() (map[string]int, error) {
    rows, err := r.DB.Query(`SELECT sent, COUNT(*) FROM attempts GROUP BY sent`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    stats := map[string]int{"total": 0, "sent": 0, "unsent": 0}
    for rows.Next() {
        var sent bool
        var count int
        if err := rows.Scan(&sent, &count); err != nil {
            return nil, err
        }
        if sent {
            stats["sent"] = count
        } else {
            stats["unsent"] = count
        }
        stats["total"] += count
    }
    return stats, rows.Err()
}

var _ AttemptRepositoryInterface = (*AttemptRepository)(nil)
