// internal/service/sync_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/unclebandit/genesys-campaign-sync/internal/extractor"
	"github.com/unclebandit/genesys-campaign-sync/internal/genesys"
	"github.com/unclebandit/genesys-campaign-sync/internal/model"
	"github.com/unclebandit/genesys-campaign-sync/internal/queue"
	"github.com/unclebandit/genesys-campaign-sync/internal/repository"
)

// ConversationSource is the slice of the Genesys client the sync stage
// needs.
type ConversationSource interface {
	AccessToken(ctx context.Context) (string, error)
	ConversationPages(ctx context.Context, token, interval string, pageSize int, fn func(page []genesys.Conversation) error) error
	LookupUserEmail(ctx context.Context, token, userID string) (string, error)
}

// SyncService runs the fetch → extract → dedup-store leg of Stage B. A
// transport failure aborts the whole interval scan; the next scheduled tick
// retries from page 1, which the dedup gateway makes safe.
type SyncService struct {
	Genesys      ConversationSource
	AttemptRepo  repository.AttemptRepositoryInterface
	CallbackRepo repository.CallbackRepositoryInterface
	WrapupRepo   repository.WrapupRepositoryInterface
	UserRepo     repository.UserRepositoryInterface
	Bus          queue.Publisher

	CampaignID string
	Location   *time.Location
	PageSize   int
	Lookback   time.Duration
	Verbose    bool
}

func (s *SyncService) SyncConversations(ctx context.Context) error {
	token, err := s.Genesys.AccessToken(ctx)
	if err != nil {
		return err
	}

	end := time.Now().UTC()
	start := end.Add(-s.Lookback)
	interval := fmt.Sprintf("%s/%s",
		start.Format("2006-01-02T15:04:05.000Z"),
		end.Format("2006-01-02T15:04:05.000Z"),
	)

	ext := extractor.New(s.CampaignID, s.Location, &runCatalogs{
		ctx:       ctx,
		token:     token,
		wrapups:   s.WrapupRepo,
		users:     s.UserRepo,
		directory: s.Genesys,
		verbose:   s.Verbose,
	})

	return s.Genesys.ConversationPages(ctx, token, interval, s.PageSize, func(page []genesys.Conversation) error {
		for _, conv := range page {
			attempts, callbacks := ext.Extract(conv)
			if err := s.storeAttempts(attempts); err != nil {
				return err
			}
			if err := s.storeCallbacks(callbacks); err != nil {
				return err
			}
		}
		return nil
	})
}

// storeAttempts partitions a conversation's attempts into new vs existing
// by natural key and persists only the new ones.
func (s *SyncService) storeAttempts(attempts []*model.Attempt) error {
	if len(attempts) == 0 {
		return nil
	}

	ids := make([]string, len(attempts))
	for i, a := range attempts {
		ids[i] = a.CustomerSessionID
	}
	existing, err := s.AttemptRepo.FindExistingSessionIDs(ids)
	if err != nil {
		return err
	}

	var fresh []*model.Attempt
	for _, a := range attempts {
		if existing[a.CustomerSessionID] {
			log.Printf("Attempt with customerSessionId: %s already exists. Action: SKIPPED", a.CustomerSessionID)
			continue
		}
		log.Printf("Attempt with customerSessionId: %s does not exist. Action: INSERTED", a.CustomerSessionID)
		fresh = append(fresh, a)
	}
	if len(fresh) == 0 {
		log.Println("No new voice attempts to save.")
		return nil
	}

	inserted, err := s.AttemptRepo.InsertBatch(fresh)
	if err != nil {
		return err
	}
	log.Printf("✅ Saved %d new voice attempts to the database.", inserted)

	if s.Bus != nil {
		for _, a := range fresh {
			if err := s.Bus.Publish(queue.TopicAttemptFacts, queue.NewAttemptIngested(a)); err != nil {
				log.Println("⚠️ Failed to publish attempt fact:", err)
			}
		}
	}
	return nil
}

func (s *SyncService) storeCallbacks(callbacks []*model.Callback) error {
	if len(callbacks) == 0 {
		return nil
	}

	existing, err := s.CallbackRepo.FindExistingKeys(callbacks)
	if err != nil {
		return err
	}

	var fresh []*model.Callback
	for _, cb := range callbacks {
		if existing[cb.Key()] {
			log.Printf("Callback with key: %s already exists. Action: SKIPPED", cb.Key())
			continue
		}
		log.Printf("Callback with key: %s does not exist. Action: INSERTED", cb.Key())
		fresh = append(fresh, cb)
	}
	if len(fresh) == 0 {
		log.Println("No new ACD agent callbacks to save.")
		return nil
	}

	inserted, err := s.CallbackRepo.InsertBatch(fresh)
	if err != nil {
		return err
	}
	log.Printf("✅ Saved %d new ACD agent callbacks to the database.", inserted)
	return nil
}
