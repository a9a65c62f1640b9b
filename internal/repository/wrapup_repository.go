// internal/repository/wrapup_repository.go
package repository

import (
	"database/sql"
	"log"

	"github.com/lib/pq"

	"github.com/unclebandit/genesys-campaign-sync/internal/model"
)

// WrapupRepositoryInterface is the local wrap-up code catalog: append-only,
// rows mirror the vendor catalog.
type WrapupRepositoryInterface interface {
	FindExistingIDs(ids []string) (map[string]bool, error)
	InsertBatch(codes []*model.WrapupCode) (int, error)
	FindName(id string) (string, bool, error)
}

type WrapupRepository struct {
	DB *sql.DB
}

func (r *WrapupRepository) FindExistingIDs(ids []string) (map[string]bool, error) {
	existing := map[string]bool{}
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := r.DB.Query(`SELECT id FROM wrapup_codes WHERE id = ANY($1)`, pq.Array(ids))
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

func (r *WrapupRepository) InsertBatch(codes []*model.WrapupCode) (int, error) {
	inserted := 0
	for _, code := range codes {
		_, err := r.DB.Exec(`INSERT INTO wrapup_codes (id, name) VALUES ($1, $2)`, code.ID, code.Name)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				log.Printf("Wrap-up code %s already exists. Action: SKIPPED", code.ID)
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (r *WrapupRepository) FindName(id string) (string, bool, error) {
	var name string
	err := r.DB.QueryRow(`SELECT name FROM wrapup_codes WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return name, true, nil
}

var _ WrapupRepositoryInterface = (*WrapupRepository)(nil)
