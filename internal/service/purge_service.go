// internal/service/purge_service.go
package service

import (
	"context"
	"log"
	"time"

	"github.com/unclebandit/genesys-campaign-sync/internal/repository"
)

// PurgeService removes attempts past the retention threshold. Runs once a
// day as Stage C.
type PurgeService struct {
	AttemptRepo   repository.AttemptRepositoryInterface
	RetentionDays int
}

func (s *PurgeService) PurgeOldAttempts(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -s.RetentionDays)
	deleted, err := s.AttemptRepo.DeleteOlderThan(cutoff)
	if err != nil {
		return err
	}
	log.Printf("✅ Purged %d attempts older than %s.", deleted, cutoff.Format("2006-01-02"))
	return nil
}
