// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/unclebandit/genesys-campaign-sync/internal/config"
	"github.com/unclebandit/genesys-campaign-sync/internal/controller"
	"github.com/unclebandit/genesys-campaign-sync/internal/db"
	"github.com/unclebandit/genesys-campaign-sync/internal/genesys"
	"github.com/unclebandit/genesys-campaign-sync/internal/partner"
	"github.com/unclebandit/genesys-campaign-sync/internal/queue"
	"github.com/unclebandit/genesys-campaign-sync/internal/repository"
	"github.com/unclebandit/genesys-campaign-sync/internal/scheduler"
	"github.com/unclebandit/genesys-campaign-sync/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid TIMEZONE %q: %v", cfg.Timezone, err)
	}

	// Init DB
	db.Init(cfg.DB)

	attemptRepo := &repository.AttemptRepository{DB: db.DB}
	callbackRepo := &repository.CallbackRepository{DB: db.DB}
	wrapupRepo := &repository.WrapupRepository{DB: db.DB}
	userRepo := &repository.UserRepository{DB: db.DB}

	// Fact event bus: RabbitMQ when configured, in-memory otherwise.
	var bus queue.Publisher
	if cfg.AMQPURL != "" {
		amqpBus, err := queue.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: ", err)
		}
		defer amqpBus.Close()
		bus = amqpBus
	} else {
		memBus := queue.NewInMemoryQueue()
		queue.StartAuditSubscriber(memBus)
		bus = memBus
	}

	genesysClient := genesys.NewClient(
		cfg.Genesys.ClientID, cfg.Genesys.ClientSecret, cfg.Genesys.Region,
		cfg.Pipeline.RetryAttempts, cfg.Pipeline.RetryDelay,
	)
	partnerClient := partner.NewClient(
		cfg.Partner.TokenURL, cfg.Partner.ClientID, cfg.Partner.Username,
		cfg.Partner.Password, cfg.Partner.GrantType, cfg.Partner.APIURL,
		cfg.Pipeline.RetryAttempts, cfg.Pipeline.RetryDelay,
	)

	syncService := &service.SyncService{
		Genesys:      genesysClient,
		AttemptRepo:  attemptRepo,
		CallbackRepo: callbackRepo,
		WrapupRepo:   wrapupRepo,
		UserRepo:     userRepo,
		Bus:          bus,
		CampaignID:   cfg.Genesys.CampaignID,
		Location:     location,
		PageSize:     cfg.Pipeline.PageSize,
		Lookback:     cfg.Pipeline.Lookback,
		Verbose:      cfg.Verbose,
	}
	catalogService := &service.CatalogService{
		Genesys:    genesysClient,
		WrapupRepo: wrapupRepo,
		UserRepo:   userRepo,
	}
	reconcileService := &service.ReconcileService{
		AttemptRepo:  attemptRepo,
		CallbackRepo: callbackRepo,
		Partner:      partnerClient,
		Verbose:      cfg.Verbose,
	}
	purgeService := &service.PurgeService{
		AttemptRepo:   attemptRepo,
		RetentionDays: cfg.Pipeline.RetentionDays,
	}

	sched := &scheduler.Scheduler{
		Catalogs:        catalogService,
		Sync:            syncService,
		Reconcile:       reconcileService,
		Purge:           purgeService,
		CatalogInterval: cfg.Pipeline.CatalogInterval,
		SyncInterval:    cfg.Pipeline.SyncInterval,
		SettleDelay:     cfg.Pipeline.SettleDelay,
		PurgeAt:         cfg.Pipeline.PurgeAt,
		Location:        location,
		Verbose:         cfg.Verbose,
	}
	sched.Start(context.Background())

	pipelineController := &controller.PipelineController{
		Runner:      sched,
		AttemptRepo: attemptRepo,
	}

	r := chi.NewRouter()

	r.Get("/healthz", pipelineController.Healthz)
	r.Get("/stats", pipelineController.Stats)
	r.Post("/run/catalogs", pipelineController.RunCatalogs)
	r.Post("/run/sync", pipelineController.RunSync)
	r.Post("/run/reconcile", pipelineController.RunReconcile)
	r.Post("/run/purge", pipelineController.RunPurge)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	log.Println("🚀 Server running on", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
