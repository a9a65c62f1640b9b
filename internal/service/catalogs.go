// internal/service/catalogs.go
package service

import (
	"context"
	"log"

	"github.com/unclebandit/genesys-campaign-sync/internal/repository"
)

// EmailDirectory is the live directory lookup used when the local user
// catalog has no row for an agent.
type EmailDirectory interface {
	LookupUserEmail(ctx context.Context, token, userID string) (string, error)
}

// runCatalogs adapts the persisted reference catalogs (plus the live
// directory fallback) to the extractor's Catalogs interface. It is bound to
// one sync run: same context, same source token.
type runCatalogs struct {
	ctx       context.Context
	token     string
	wrapups   repository.WrapupRepositoryInterface
	users     repository.UserRepositoryInterface
	directory EmailDirectory
	verbose   bool
}

func (rc *runCatalogs) WrapupName(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	name, ok, err := rc.wrapups.FindName(id)
	if err != nil {
		log.Printf("⚠️ Wrap-up name lookup failed for %s: %v", id, err)
		return "", false
	}
	if !ok && rc.verbose {
		log.Printf("❌ WrapUp ID %q not found in database.", id)
	}
	return name, ok
}

func (rc *runCatalogs) AgentEmail(userID string) (string, bool) {
	if userID == "" {
		return "", false
	}
	email, ok, err := rc.users.FindEmail(userID)
	if err != nil {
		log.Printf("⚠️ Agent email lookup failed for %s: %v", userID, err)
		return "", false
	}
	if ok && email != "" {
		return email, true
	}

	// Catalog miss: fall back to the live directory.
	if rc.directory == nil {
		return "", false
	}
	email, err = rc.directory.LookupUserEmail(rc.ctx, rc.token, userID)
	if err != nil {
		log.Printf("⚠️ Live email lookup failed for user %s: %v", userID, err)
		return "", false
	}
	if email == "" {
		if rc.verbose {
			log.Printf("❌ No email found for User ID: %s", userID)
		}
		return "", false
	}
	return email, true
}
