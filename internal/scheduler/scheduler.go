// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

type catalogRefresher interface {
	RefreshWrapupCodes(ctx context.Context) error
	RefreshUsers(ctx context.Context) error
}

type conversationSyncer interface {
	SyncConversations(ctx context.Context) error
}

type reconciler interface {
	Reconcile(ctx context.Context) error
}

type purger interface {
	PurgeOldAttempts(ctx context.Context) error
}

// Scheduler runs three independently timed, single-flight stages:
//
//	Stage A: reference catalog refresh (coarse interval)
//	Stage B: conversation sync, settle delay, then reconciliation
//	Stage C: daily retention purge at a fixed local time
//
// Each stage is guarded by a non-blocking try-lock: a tick that fires while
// the previous run is still in flight is skipped entirely, not queued.
// Inside a stage every step is individually best-effort; a failed step is
// logged and does not abort its siblings; the next tick retries naturally.
type Scheduler struct {
	Catalogs  catalogRefresher
	Sync      conversationSyncer
	Reconcile reconciler
	Purge     purger

	CatalogInterval time.Duration
	SyncInterval    time.Duration
	SettleDelay     time.Duration
	PurgeAt         string // "15:04"
	Location        *time.Location
	Verbose         bool

	catalogGate sync.Mutex
	syncGate    sync.Mutex
	purgeGate   sync.Mutex
}

// Start launches the three stage loops. They stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx, "catalog refresh", s.CatalogInterval, s.RunCatalogStage)
	go s.loop(ctx, "conversation sync", s.SyncInterval, s.RunSyncStage)
	go s.dailyLoop(ctx)
	log.Println("🚀 Scheduler started: catalog refresh, conversation sync, retention purge")
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, run func(ctx context.Context) bool) {
	log.Printf("Stage %q scheduled every %s", name, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run(ctx)
		}
	}
}

func (s *Scheduler) dailyLoop(ctx context.Context) {
	for {
		wait := untilNext(time.Now().In(s.Location), s.PurgeAt)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunPurgeStage(ctx)
		}
	}
}

// untilNext returns the duration until the next local occurrence of the
// "15:04" time of day.
func untilNext(now time.Time, at string) time.Duration {
	t, err := time.Parse("15:04", at)
	if err != nil {
		// Validated at config load; fall back to a day just in case.
		return 24 * time.Hour
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// RunCatalogStage executes Stage A. Returns false when the previous run is
// still in flight and the trigger was skipped.
func (s *Scheduler) RunCatalogStage(ctx context.Context) bool {
	if !s.catalogGate.TryLock() {
		log.Println("Catalog refresh still in flight, skipping this trigger.")
		return false
	}
	defer s.catalogGate.Unlock()

	log.Println("🚀 Stage: refreshing reference catalogs...")
	s.runStep(ctx, "refresh wrap-up codes", s.Catalogs.RefreshWrapupCodes)
	s.runStep(ctx, "refresh users", s.Catalogs.RefreshUsers)
	return true
}

// RunSyncStage executes Stage B: sync, settle, reconcile.
func (s *Scheduler) RunSyncStage(ctx context.Context) bool {
	if !s.syncGate.TryLock() {
		log.Println("Conversation sync still in flight, skipping this trigger.")
		return false
	}
	defer s.syncGate.Unlock()

	log.Println("🚀 Stage: syncing conversations and reconciling...")
	s.runStep(ctx, "sync conversations", s.Sync.SyncConversations)

	// Let catalog refreshes and in-flight writes settle before batching
	// the outbound payload.
	select {
	case <-ctx.Done():
		return true
	case <-time.After(s.SettleDelay):
	}

	s.runStep(ctx, "reconcile attempts", s.Reconcile.Reconcile)
	return true
}

// RunReconcileOnly executes just the reconciliation leg of Stage B, under
// the same gate. Used by the manual ops trigger.
func (s *Scheduler) RunReconcileOnly(ctx context.Context) bool {
	if !s.syncGate.TryLock() {
		log.Println("Conversation sync still in flight, skipping reconcile trigger.")
		return false
	}
	defer s.syncGate.Unlock()

	s.runStep(ctx, "reconcile attempts", s.Reconcile.Reconcile)
	return true
}

// RunPurgeStage executes Stage C.
func (s *Scheduler) RunPurgeStage(ctx context.Context) bool {
	if !s.purgeGate.TryLock() {
		log.Println("Retention purge still in flight, skipping this trigger.")
		return false
	}
	defer s.purgeGate.Unlock()

	log.Println("🚀 Stage: purging old attempts...")
	s.runStep(ctx, "purge old attempts", s.Purge.PurgeOldAttempts)
	return true
}

// runStep isolates one logical step: its failure is logged (full detail
// only in verbose mode) and never propagates to sibling steps.
func (s *Scheduler) runStep(ctx context.Context, name string, step func(ctx context.Context) error) {
	if err := step(ctx); err != nil {
		if s.Verbose {
			log.Printf("❌ Step %q failed: %+v", name, err)
		} else {
			log.Printf("❌ Step %q failed: %v", name, firstLine(err))
		}
	}
}

func firstLine(err error) string {
	msg := err.Error()
	for i, r := range msg {
		if r == '\n' {
			return msg[:i]
		}
	}
	return msg
}
