package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var statusJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics and backend health",
	RunE:  runStats,
}

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Ping every backend and recommend a mode",
	RunE:  runConnections,
}

var modeSave bool

var modeCmd = &cobra.Command{
	Use:   "mode [mode]",
	Short: "Show or switch the backend mode",
	Long: `Without an argument, prints the current mode and the available modes.

Available modes:
  simulation         - Simulated embeddings + in-memory store
  hybrid_embeddings  - Real embeddings + in-memory store
  hybrid_storage     - Simulated embeddings + persistent store
  production         - Real embeddings + persistent store

The switch applies to this process. Use --save to make it the start-up mode.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMode,
}

var (
	costReads     int64
	costWrites    int64
	costStorageGB float64
	costChunks    int
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate monthly storage cost",
	Long: `Prices a read/write/storage volume. With --chunks the volume is projected
from an index of that many chunks.`,
	RunE: runCost,
}

func init() {
	statsCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	connectionsCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	costCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	modeCmd.Flags().BoolVar(&modeSave, "save", false, "persist the mode to settings")
	costCmd.Flags().Int64Var(&costReads, "reads", 0, "reads per month")
	costCmd.Flags().Int64Var(&costWrites, "writes", 0, "writes per month")
	costCmd.Flags().Float64Var(&costStorageGB, "storage-gb", 0, "stored gigabytes")
	costCmd.Flags().IntVar(&costChunks, "chunks", 0, "project usage for this many chunks")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(connectionsCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(costCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errRAGNotConfigured
	}

	res, err := ragService.Stats(cmd.Context())
	if err != nil {
		return commandError("stats", err)
	}
	printFallback(cmd, res.UsedFallback, res.Warning)

	if statusJSON {
		return printJSON(cmd, res)
	}

	s := res.Value
	cmd.Println("[Status]")
	cmd.Printf("  Mode: %s\n", s.Mode)
	cmd.Printf("  Health: %s\n", s.Health)
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Documents: %d\n", s.Index.TotalDocuments)
	cmd.Printf("  Chunks: %d\n", s.Index.TotalChunks)
	cmd.Printf("  Dimensions: %d\n", s.Index.AverageEmbeddingDimension)
	if len(s.Index.Languages) > 0 {
		langs := make([]string, len(s.Index.Languages))
		for i, l := range s.Index.Languages {
			langs[i] = string(l)
		}
		cmd.Printf("  Languages: %s\n", strings.Join(langs, ", "))
	}
	if s.Index.TotalChunks > 0 {
		cmd.Printf("  Oldest: %s\n", s.Index.OldestRecord.Format("2006-01-02 15:04"))
		cmd.Printf("  Newest: %s\n", s.Index.NewestRecord.Format("2006-01-02 15:04"))
	}
	cmd.Println()

	printConnections(cmd, s.Connections)
	printCost(cmd, s.Cost)
	return nil
}

func runConnections(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errRAGNotConfigured
	}

	report := ragService.TestConnections(cmd.Context())
	if statusJSON {
		return printJSON(cmd, report)
	}

	cmd.Printf("Current mode: %s\n\n", report.CurrentMode)
	printConnections(cmd, report)
	return nil
}

func printConnections(cmd *cobra.Command, r domain.ConnectionReport) {
	cmd.Println("[Connections]")
	printHealth(cmd, "Embeddings", r.Embeddings)
	printHealth(cmd, "Store", r.Store)
	cmd.Println()

	if len(r.Recommendations) > 0 {
		cmd.Println("[Recommendations]")
		for _, rec := range r.Recommendations {
			cmd.Printf("  - %s\n", rec)
		}
		cmd.Println()
	}
}

func printHealth(cmd *cobra.Command, name string, h domain.BackendHealth) {
	cmd.Printf("  %s: real %s, simulated %s\n", name, okOrFailed(h.Real), okOrFailed(h.Simulated))
	if h.Error != "" {
		cmd.Printf("    %s\n", h.Error)
	}
}

func okOrFailed(ok bool) string {
	if ok {
		return "OK"
	}
	return "unavailable"
}

func runMode(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errRAGNotConfigured
	}

	if len(args) == 0 {
		current := ragService.Mode()
		cmd.Printf("Current mode: %s (%s)\n\n", current, current.Label())
		cmd.Println("Available modes:")
		for _, m := range domain.AllModes() {
			marker := " "
			if m == current {
				marker = "*"
			}
			cmd.Printf("  %s %-18s %s\n", marker, m, m.Description())
		}
		return nil
	}

	change, err := ragService.ToggleMode(args[0])
	if err != nil {
		return fmt.Errorf("switch mode: %w", err)
	}
	cmd.Println(change.Message)

	if modeSave {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		if err := settingsService.SetMode(change.Current); err != nil {
			return fmt.Errorf("failed to save mode: %w", err)
		}
		cmd.Printf("Saved %s as the start-up mode.\n", change.Current)
	}
	return nil
}

func runCost(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errRAGNotConfigured
	}
	if costReads < 0 || costWrites < 0 || costStorageGB < 0 || costChunks < 0 {
		return errors.New("usage values must not be negative")
	}

	usage := domain.Usage{Reads: costReads, Writes: costWrites, StorageGB: costStorageGB}
	if costChunks > 0 {
		usage = domain.UsageForChunks(costChunks)
	}

	estimate := ragService.EstimateCost(usage)
	if statusJSON {
		return printJSON(cmd, estimate)
	}

	cmd.Printf("Usage: %d reads, %d writes, %.3f GB\n\n", usage.Reads, usage.Writes, usage.StorageGB)
	printCost(cmd, estimate)
	return nil
}

func printCost(cmd *cobra.Command, c domain.CostEstimate) {
	cmd.Println("[Monthly Cost]")
	cmd.Printf("  Reads: $%.2f\n", c.Reads)
	cmd.Printf("  Writes: $%.2f\n", c.Writes)
	cmd.Printf("  Storage: $%.2f\n", c.Storage)
	cmd.Printf("  Total: $%.2f\n", c.Total)
	cmd.Println()
}
