package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/trialbridge-health/platform/pkg/catalog"
	"github.com/trialbridge-health/platform/pkg/common/config"
	"github.com/trialbridge-health/platform/pkg/common/database"
	"github.com/trialbridge-health/platform/pkg/common/httpclient"
	"github.com/trialbridge-health/platform/pkg/common/kafka"
	"github.com/trialbridge-health/platform/pkg/common/logger"
	"github.com/trialbridge-health/platform/pkg/importer"
	"github.com/trialbridge-health/platform/pkg/matching"
	"github.com/trialbridge-health/platform/pkg/normalizer"
	"github.com/trialbridge-health/platform/pkg/observability/metrics"
	"github.com/trialbridge-health/platform/pkg/summary"
	"github.com/trialbridge-health/platform/pkg/vocabulary"
)

func main() {
	logger.Init("matching-service")
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	repo := catalog.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate catalog tables")
	}

	vocab, err := vocabulary.Load(cfg.VocabularyPath)
	if err != nil {
		logger.Log.WithError(err).WithField("path", cfg.VocabularyPath).Warn("falling back to built-in vocabulary")
		vocab = vocabulary.Default()
	}
	norm := normalizer.New(vocab)

	client := httpclient.New(cfg.ImportTimeout)
	generator := summary.NewGenerator(cfg.SummaryAPIKey, cfg.SummaryBaseURL, cfg.SummaryModelName, cfg.SummaryMaxChars, client)
	producer := kafka.NewProducer(cfg.KafkaCatalogTopic)
	defer producer.Close()

	connectors := []importer.Connector{
		importer.NewEuropePMCConnector(cfg.EuropePMCBaseURL, client),
		importer.NewORCIDConnector(cfg.ORCIDBaseURL, cfg.ORCIDTokenURL, cfg.ORCIDClientID, cfg.ORCIDClientSecret, cfg.ORCIDResearcherIDs, client),
		importer.NewClinicalTrialsConnector(cfg.ClinicalTrialsBaseURL, client),
	}
	cache := importer.NewCache(database.GetRedis(), cfg.ImportCacheTTL)
	pipeline := importer.NewPipeline(repo, generator, producer, connectors, cfg.ImportTimeout, cfg.ImportMaxPerConnector, cache)

	service := matching.NewService(repo, pipeline, cfg.PersonalizedPageSize, cfg.BrowsePageSize)
	handler := matching.NewHandler(service, norm)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.MatchingServicePort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Matching service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start matching service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down matching service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Matching service forced to shutdown")
	}
	logger.Log.Info("Matching service stopped")
}
