package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/asah-capstone-a25/leadscore-backend/internal/auth"
	"github.com/asah-capstone-a25/leadscore-backend/internal/batch"
	"github.com/asah-capstone-a25/leadscore-backend/internal/config"
	"github.com/asah-capstone-a25/leadscore-backend/internal/controller"
	"github.com/asah-capstone-a25/leadscore-backend/internal/db"
	"github.com/asah-capstone-a25/leadscore-backend/internal/handler"
	"github.com/asah-capstone-a25/leadscore-backend/internal/queue"
	"github.com/asah-capstone-a25/leadscore-backend/internal/repository"
	"github.com/asah-capstone-a25/leadscore-backend/internal/scoring"
	"github.com/asah-capstone-a25/leadscore-backend/internal/service"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	conn, err := db.Open(cfg.DSN())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()
	if err := db.Migrate(conn); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	// Lifecycle events are best-effort: without a broker the server
	// still runs, it just doesn't notify.
	var events queue.Publisher
	publisher, err := queue.NewAMQPPublisher(cfg.AMQPURL)
	if err != nil {
		log.Warn("RabbitMQ unavailable, campaign events disabled", zap.Error(err))
	} else {
		defer publisher.Close()
		events = publisher
	}

	campaignRepo := &repository.CampaignRepository{DB: conn}
	leadRepo := &repository.LeadRepository{DB: conn}
	userRepo := &repository.UserRepository{DB: conn}

	authenticator := &auth.Authenticator{Users: userRepo}
	thresholds := service.RiskThresholds{MediumMin: cfg.RiskMediumMin, HighMin: cfg.RiskHighMin}

	ingestion := &service.IngestionService{
		Campaigns:  campaignRepo,
		Validator:  batch.NewValidator(cfg.MaxFileBytes, cfg.MaxRows),
		Scorer:     scoring.NewClient(cfg.ScoringURL, cfg.ScoringTimeout, log),
		Reconciler: &service.Reconciler{Thresholds: thresholds},
		Writer:     &service.BatchWriter{Leads: leadRepo, ChunkSize: cfg.ChunkSize, Log: log},
		Events:     events,
		Log:        log,
	}

	campaignService := &service.CampaignService{
		Campaigns:  campaignRepo,
		Leads:      leadRepo,
		Aggregator: &service.Aggregator{Leads: leadRepo},
	}

	campaignController := &controller.CampaignController{
		Auth:      authenticator,
		Ingestion: ingestion,
		Campaigns: campaignService,
	}
	leadHandler := &handler.LeadHandler{
		Auth:    authenticator,
		Service: campaignService,
		DB:      conn,
	}

	r := chi.NewRouter()

	r.Get("/health", leadHandler.Health)

	r.Post("/campaigns/ingest", campaignController.Ingest)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Delete("/campaigns/{id}", campaignController.DeleteCampaign)
	r.Get("/campaigns/{id}/stats", leadHandler.CampaignStats)
	r.Get("/campaigns/{id}/leads", leadHandler.ListLeads)
	r.Get("/leads/{id}", leadHandler.GetLead)

	log.Info("server running", zap.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
