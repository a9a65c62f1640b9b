// internal/repository/user_repository.go
package repository

import (
	"database/sql"
	"log"

	"github.com/lib/pq"

	"github.com/unclebandit/genesys-campaign-sync/internal/model"
)

// UserRepositoryInterface is the local user catalog used to resolve agent
// emails; append-only like the wrap-up catalog.
type UserRepositoryInterface interface {
	FindExistingIDs(ids []string) (map[string]bool, error)
	InsertBatch(users []*model.User) (int, error)
	FindEmail(id string) (string, bool, error)
}

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) FindExistingIDs(ids []string) (map[string]bool, error) {
	existing := map[string]bool{}
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := r.DB.Query(`SELECT id FROM users WHERE id = ANY($1)`, pq.Array(ids))
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

func (r *UserRepository) InsertBatch(users []*model.User) (int, error) {
	inserted := 0
	for _, u := range users {
		_, err := r.DB.Exec(`INSERT INTO users (id, name, email) VALUES ($1, $2, $3)`, u.ID, u.Name, u.Email)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				log.Printf("User %s already exists. Action: SKIPPED", u.ID)
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (r *UserRepository) FindEmail(id string) (string, bool, error) {
	var email string
	err := r.DB.QueryRow(`SELECT email FROM users WHERE id = $1`, id).Scan(&email)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return email, true, nil
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
