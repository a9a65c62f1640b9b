// internal/service/catalog_service.go
package service

import (
	"context"
	"log"

	"github.com/unclebandit/genesys-campaign-sync/internal/genesys"
	"github.com/unclebandit/genesys-campaign-sync/internal/model"
	"github.com/unclebandit/genesys-campaign-sync/internal/repository"
)

// CatalogSource is the slice of the Genesys client the catalog stage needs.
type CatalogSource interface {
	AccessToken(ctx context.Context) (string, error)
	WrapupCodes(ctx context.Context, token string) ([]genesys.WrapupEntity, error)
	SearchUsers(ctx context.Context, token string) ([]genesys.UserResult, error)
}

// CatalogService keeps the local wrap-up code and user catalogs in step
// with the vendor. Rows are only ever appended.
type CatalogService struct {
	Genesys    CatalogSource
	WrapupRepo repository.WrapupRepositoryInterface
	UserRepo   repository.UserRepositoryInterface
}

func (s *CatalogService) RefreshWrapupCodes(ctx context.Context) error {
	token, err := s.Genesys.AccessToken(ctx)
	if err != nil {
		return err
	}

	entities, err := s.Genesys.WrapupCodes(ctx, token)
	if err != nil {
		return err
	}

	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	existing, err := s.WrapupRepo.FindExistingIDs(ids)
	if err != nil {
		return err
	}

	var fresh []*model.WrapupCode
	for _, e := range entities {
		if !existing[e.ID] {
			fresh = append(fresh, &model.WrapupCode{ID: e.ID, Name: e.Name})
		}
	}
	if len(fresh) == 0 {
		log.Println("No new wrap-up codes to save. All records already exist.")
		return nil
	}

	inserted, err := s.WrapupRepo.InsertBatch(fresh)
	if err != nil {
		return err
	}
	log.Printf("✅ Saved %d new wrap-up codes to the database.", inserted)
	return nil
}

func (s *CatalogService) RefreshUsers(ctx context.Context) error {
	token, err := s.Genesys.AccessToken(ctx)
	if err != nil {
		return err
	}

	results, err := s.Genesys.SearchUsers(ctx, token)
	if err != nil {
		return err
	}

	ids := make([]string, len(results))
	for i, u := range results {
		ids[i] = u.ID
	}
	existing, err := s.UserRepo.FindExistingIDs(ids)
	if err != nil {
		return err
	}

	var fresh []*model.User
	for _, u := range results {
		if !existing[u.ID] {
			fresh = append(fresh, &model.User{ID: u.ID, Name: u.Name, Email: u.Email})
		}
	}
	if len(fresh) == 0 {
		log.Println("No new users to save. All records already exist.")
		return nil
	}

	inserted, err := s.UserRepo.InsertBatch(fresh)
	if err != nil {
		return err
	}
	log.Printf("✅ Saved %d new users to the database.", inserted)
	return nil
}
