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
	"github.com/trialbridge-health/platform/pkg/observability/metrics"
	"github.com/trialbridge-health/platform/pkg/summary"
)

func main() {
	logger.Init("import-service")
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	repo := catalog.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate catalog tables")
	}

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
	handler := importer.NewHandler(pipeline)

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

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ImportServicePort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Import service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start import service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down import service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Import service forced to shutdown")
	}
	logger.Log.Info("Import service stopped")
}
