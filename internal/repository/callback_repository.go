// internal/repository/callback_repository.go
package repository

import (
    "database/sql"
    "log"
    "time"

    "github.com/lib/pq"

    "github.com/unclebandit/genesys-campaign-sync/internal/model"
)

type CallbackRepositoryInterface interface {
    FindExistingKeys(callbacks []*model.Callback) (map[string]bool, error)
    InsertBatch(callbacks []*model.Callback) (int, error)
    FindUnsent() ([]*model.Callback, error)
    MarkSent(callbacks []*model.Callback) error
}

type CallbackRepository struct {
    DB *sql.DB
}

// FindExistingKeys returns which composite (conversationId, outboundContactId)
// keys already exist for the given batch.
func (r *CallbackRepository) FindExistingKeys(callbacks []*model.Callback) (map[string]bool, error) {
    existing := map[string]bool{}
    if len(callbacks) == 0 {
        return existing, nil
    }

    conversationIDs := make([]string, len(callbacks))
    contactIDs := make([]string, len(callbacks))
    for i, cb := range callbacks {
        conversationIDs[i] = cb.ConversationID
        contactIDs[i] = cb.OutboundContactID
    }

    rows, err := r.DB.Query(
        `SELECT conversation_id, outbound_contact_id FROM callbacks
         WHERE conversation_id = ANY($1) AND outbound_contact_id = ANY($2)`,
        pq.Array(conversationIDs), pq.Array(contactIDs),
    )
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    for rows.Next() {
        cb := model.Callback{}
        if err := rows.Scan(&cb.ConversationID, &cb.OutboundContactID); err != nil {
            return nil, err
        }
        existing[cb.Key()] = true
    }
    return existing, rows.Err()
}

func (r *CallbackRepository) InsertBatch(callbacks []*model.Callback) (int, error) {
    query := `
        INSERT INTO callbacks (conversation_id, outbound_contact_id, callback_scheduled_time, callback_numbers, sent, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
    inserted := 0
    for _, cb := range callbacks {
        if cb.CreatedAt.IsZero() {
            cb.CreatedAt = time.Now()
        }
        _, err := r.DB.Exec(query,
            cb.ConversationID, cb.OutboundContactID, cb.CallbackScheduledTime, cb.CallbackNumbers, cb.Sent, cb.CreatedAt,
        )
        if err != nil {
            if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
                log.Printf("Callback with key: %s already exists (unique constraint). Action: SKIPPED", cb.Key())
                continue
            }
            return inserted, err
        }
        inserted++
    }
    return inserted, nil
}

func (r *CallbackRepository) FindUnsent() ([]*model.Callback, error) {
    rows, err := r.DB.Query(
        `SELECT conversation_id, outbound_contact_id, callback_scheduled_time, callback_numbers, sent, created_at
         FROM callbacks WHERE sent = FALSE`,
    )
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    callbacks := []*model.Callback{}
    for rows.Next() {
        cb := &model.Callback{}
        if err := rows.Scan(&cb.ConversationID, &cb.OutboundContactID, &cb.CallbackScheduledTime, &cb.CallbackNumbers, &cb.Sent, &cb.CreatedAt); err != nil {
            return nil, err
        }
        callbacks = append(callbacks, cb)
    }
    return callbacks, rows.Err()
}

func (r *CallbackRepository) MarkSent(callbacks []*model.Callback) error {
    for _, cb := range callbacks {
        _, err := r.DB.Exec(
            `UPDATE callbacks SET sent = TRUE WHERE conversation_id = $1 AND outbound_contact_id = $2`,
            cb.ConversationID, cb.OutboundContactID,
        )
        if err != nil {
            return err
        }
    }
    return nil
}

var _ CallbackRepositoryInterface = (*CallbackRepository)(nil)
