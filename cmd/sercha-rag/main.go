// Command sercha-rag is the retrieval core's command line entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/backends"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/env"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/metrics"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		// Cobra has already printed command errors.
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := env.LoadDotEnv(""); err != nil {
		logger.Warn("%v", err)
	}

	dataDir := os.Getenv(env.Prefix + "HOME")
	store, err := file.NewConfigStore(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	if dataDir == "" {
		if dataDir, err = file.DefaultDir(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}
	}

	settingsService := services.NewSettingsService(env.New(store))
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("Invalid settings, using defaults: %v", err)
		defaults := domain.DefaultSettings()
		settings = &defaults
	}

	built := backends.Build(ctx, *settings, dataDir)
	recorder := metrics.New()

	broker, err := services.NewBroker(services.Backends{
		Chunker:             built.Chunker,
		Normalisers:         built.Normalisers,
		SimulatedEmbeddings: built.SimulatedEmbeddings,
		RealEmbeddings:      built.RealEmbeddings,
		SimulatedStore:      built.SimulatedStore,
		RealStore:           built.RealStore,
		Metrics:             recorder,
	}, services.WithMode(settings.Mode))
	if err != nil {
		_ = built.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	defer func() {
		if cerr := broker.Close(); cerr != nil {
			logger.Warn("close backends: %v", cerr)
		}
	}()

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		RAG:      broker,
		Settings: settingsService,
		Sync:     syncFactory(broker),
		Metrics:  recorder.Handler(),
	})

	err = cli.ExecuteContext(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// syncFactory builds a filesystem orchestrator for each directory a command syncs.
func syncFactory(rag driving.RAGService) driving.SyncFactory {
	return func(root string, template domain.IngestRequest) (driving.SyncOrchestrator, error) {
		return services.NewSyncOrchestrator(rag, filesystem.New(root), template)
	}
}
