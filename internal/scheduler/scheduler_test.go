// internal/scheduler/scheduler_test.go
package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/unclebandit/genesys-campaign-sync/internal/scheduler"
)

type stubCatalogs struct{ calls int }

func (s *stubCatalogs) RefreshWrapupCodes(ctx context.Context) error { s.calls++; return nil }
func (s *stubCatalogs) RefreshUsers(ctx context.Context) error       { s.calls++; return nil }

type stubSyncer struct {
	started chan struct{}
	release chan struct{}
}

func (s *stubSyncer) SyncConversations(ctx context.Context) error {
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	return nil
}

type stubReconciler struct{ calls int }

func (s *stubReconciler) Reconcile(ctx context.Context) error { s.calls++; return nil }

type stubPurger struct{ calls int }

func (s *stubPurger) PurgeOldAttempts(ctx context.Context) error { s.calls++; return nil }

func TestRunSyncStageRunsSyncThenReconcile(t *testing.T) {
	rec := &stubReconciler{}
	s := &scheduler.Scheduler{
		Sync:      &stubSyncer{},
		Reconcile: rec,
	}

	if !s.RunSyncStage(context.Background()) {
		t.Fatal("an idle stage must accept the trigger")
	}
	if rec.calls != 1 {
		t.Errorf("expected reconcile after sync, got %d calls", rec.calls)
	}
}

func TestRunSyncStageSkipsWhileInFlight(t *testing.T) {
	syncer := &stubSyncer{started: make(chan struct{}), release: make(chan struct{})}
	s := &scheduler.Scheduler{
		Sync:      syncer,
		Reconcile: &stubReconciler{},
	}

	first := make(chan bool)
	go func() { first <- s.RunSyncStage(context.Background()) }()

	<-syncer.started
	if s.RunSyncStage(context.Background()) {
		t.Error("a trigger during an in-flight run must be skipped")
	}
	if s.RunReconcileOnly(context.Background()) {
		t.Error("the reconcile trigger shares the sync gate and must be skipped too")
	}

	close(syncer.release)
	select {
	case ok := <-first:
		if !ok {
			t.Error("the original run must report as executed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first run never finished")
	}
}

func TestRunCatalogStageRefreshesBothCatalogs(t *testing.T) {
	catalogs := &stubCatalogs{}
	s := &scheduler.Scheduler{Catalogs: catalogs}

	if !s.RunCatalogStage(context.Background()) {
		t.Fatal("an idle stage must accept the trigger")
	}
	if catalogs.calls != 2 {
		t.Errorf("expected wrap-up and user refresh, got %d calls", catalogs.calls)
	}
}

func TestRunPurgeStage(t *testing.T) {
	purger := &stubPurger{}
	s := &scheduler.Scheduler{Purge: purger}

	if !s.RunPurgeStage(context.Background()) {
		t.Fatal("an idle stage must accept the trigger")
	}
	if purger.calls != 1 {
		t.Errorf("expected one purge, got %d", purger.calls)
	}
}

func TestStagesAreIndependentlyGated(t *testing.T) {
	syncer := &stubSyncer{started: make(chan struct{}), release: make(chan struct{})}
	purger := &stubPurger{}
	s := &scheduler.Scheduler{
		Sync:      syncer,
		Reconcile: &stubReconciler{},
		Purge:     purger,
	}

	done := make(chan bool)
	go func() { done <- s.RunSyncStage(context.Background()) }()
	<-syncer.started

	// A busy sync gate must not block the purge gate.
	if !s.RunPurgeStage(context.Background()) {
		t.Error("purge must run while sync is in flight")
	}

	close(syncer.release)
	<-done
}
