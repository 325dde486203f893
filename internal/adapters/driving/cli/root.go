// Package cli provides the sercha-rag command line interface.
// It is a driving adapter: commands call the core through driving ports.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services wired by main.
var (
	ragService      driving.RAGService
	settingsService driving.SettingsService
	syncFactory     driving.SyncFactory
	metricsHandler  http.Handler
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Retrieval core for semantic document search",
	Long: `sercha-rag chunks documents, embeds the chunks and serves similarity search.

Each call runs against real or simulated backends depending on the mode.
When a real backend fails, the call is retried against simulation and a
warning is printed.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Services holds the core services used by commands.
type Services struct {
	RAG      driving.RAGService
	Settings driving.SettingsService
	Sync     driving.SyncFactory
	Metrics  http.Handler
}

// SetServices wires the core services into the commands.
func SetServices(s Services) {
	ragService = s.RAG
	settingsService = s.Settings
	syncFactory = s.Sync
	metricsHandler = s.Metrics
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to every command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// errRAGNotConfigured is returned by commands run without a RAG service.
var errRAGNotConfigured = errors.New("rag service not configured")

// commandError wraps a core error for display. Backend failures are
// logged in full and shown without internals.
func commandError(op string, err error) error {
	if errors.Is(err, domain.ErrCoreUnavailable) {
		logger.Error("%s: %v", op, err)
		return fmt.Errorf("%s failed: %w (run with --verbose for details)", op, domain.ErrCoreUnavailable)
	}
	return fmt.Errorf("%s failed: %w", op, err)
}

// printFallback reports a degraded call on stderr.
func printFallback(cmd *cobra.Command, usedFallback bool, warning string) {
	if !usedFallback {
		return
	}
	if warning == "" {
		warning = "real backend unavailable"
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Warning: served by simulation (%s)\n", warning)
}
