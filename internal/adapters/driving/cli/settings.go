package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// secretKeys are masked when displayed.
var secretKeys = []string{"embedding.api_key", "store.redis_password"}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure chunking, search defaults, the embedding provider and
the persistent vector store.

Settings are stored in ~/.sercha-rag/config.toml. Environment variables
(SERCHA_RAG_EMBEDDING_API_KEY, ...) and a .env file override saved values.
Backend changes take effect on the next start.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	RunE:  runSettingsKeys,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one setting",
	Long: `Set one setting by dotted key, e.g.

  sercha-rag settings set chunking.max_tokens 300
  sercha-rag settings set embedding.batch_pause 250ms`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store the embedding API key",
	Long:  `Prompts for the embedding provider API key without echoing it.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsSetKey,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding [provider] [model]",
	Short: "Configure the embedding provider",
	Long: `Configure the real embedding provider. Without arguments, prompts for a
provider and model.

Providers: vertex, openai, ollama, none.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runSettingsEmbedding,
}

var settingsStoreCmd = &cobra.Command{
	Use:   "store [backend] [target]",
	Short: "Configure the persistent vector store",
	Long: `Configure the persistent vector store. Target is the SQLite database file
or the Redis address.

  sercha-rag settings store sqlite
  sercha-rag settings store redis localhost:6379`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsStore,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsStoreCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Mode]")
	cmd.Printf("  Start-up mode: %s\n", settings.Mode.Description())
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Max tokens: %d\n", settings.Chunking.MaxTokens)
	cmd.Printf("  Overlap tokens: %d\n", settings.Chunking.OverlapTokens)
	cmd.Printf("  Min chunk size: %d\n", settings.Chunking.MinChunkSize)
	cmd.Printf("  Preserve paragraphs: %t\n", settings.Chunking.PreserveParagraphs)
	cmd.Printf("  Preserve sentences: %t\n", settings.Chunking.PreserveSentences)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Limit: %d\n", settings.Search.Limit)
	cmd.Printf("  Threshold: %.2f\n", settings.Search.Threshold)
	cmd.Println()

	e := settings.Embedding
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", e.Provider.Description())
	if e.Provider != domain.ProviderNone {
		cmd.Printf("  Model: %s\n", e.Model)
	}
	if e.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", e.BaseURL)
	}
	if e.Provider.RequiresAPIKey() {
		if e.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(e.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if e.Provider == domain.ProviderVertex {
		cmd.Printf("  Project: %s\n", e.Project)
		cmd.Printf("  Location: %s\n", e.Location)
	}
	cmd.Printf("  Batch: %d every %s\n", e.BatchSize, e.BatchPause)
	cmd.Printf("  Status: %s\n", configuredStatus(e.IsConfigured()))
	cmd.Println()

	st := settings.Store
	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", st.Backend)
	switch st.Backend {
	case domain.StoreSQLite:
		cmd.Printf("  Path: %s\n", st.Path)
	case domain.StoreRedis:
		cmd.Printf("  Address: %s (db %d, prefix %q)\n", st.RedisAddr, st.RedisDB, st.RedisPrefix)
		if st.RedisPassword != "" {
			cmd.Printf("  Password: %s\n", maskAPIKey(st.RedisPassword))
		}
	}
	cmd.Printf("  Status: %s\n", configuredStatus(st.IsConfigured()))
	cmd.Println()

	if settings.Mode.RealEmbeddings() && !e.IsConfigured() {
		cmd.Println("Note: the start-up mode uses real embeddings but no provider is configured.")
		cmd.Println("Run 'sercha-rag settings embedding' to configure one.")
	}
	if settings.Mode.RealStore() && !st.IsConfigured() {
		cmd.Println("Note: the start-up mode uses a persistent store but none is configured.")
		cmd.Println("Run 'sercha-rag settings store' to configure one.")
	}
	return nil
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if slices.Contains(secretKeys, key) {
		value = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Enter API key: ")
	apiKey := readPassword(cmd.InOrStdin(), bufio.NewReader(cmd.InOrStdin()))
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required")
	}

	if err := settingsService.Set("embedding.api_key", apiKey); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	cmd.Printf("API key saved: %s\n", maskAPIKey(apiKey))
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	var provider domain.EmbeddingProviderType
	if len(args) > 0 {
		provider = domain.EmbeddingProviderType(strings.ToLower(args[0]))
	} else {
		cmd.Println("Select Embedding Provider")
		providers := domain.AllEmbeddingProviders()
		for i, p := range providers {
			cmd.Printf("  %d. %s\n", i+1, p.Description())
		}
		cmd.Print("\nEnter choice [1]: ")
		idx := parseChoice(readLine(reader), len(providers), 1)
		provider = providers[idx-1]
	}
	if !provider.IsValid() {
		return fmt.Errorf("unknown provider %q", provider)
	}

	defaultModel := domain.DefaultEmbeddingModels()[provider]
	var model string
	switch {
	case len(args) > 1:
		model = args[1]
	case len(args) == 0 && provider != domain.ProviderNone:
		cmd.Printf("Enter model name [%s]: ", defaultModel)
		model = readLine(reader)
	}
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		if settings, err := settingsService.Get(); err == nil {
			apiKey = settings.Embedding.APIKey
		}
		if apiKey == "" {
			cmd.Print("Enter API key: ")
			apiKey = readPassword(cmd.InOrStdin(), reader)
			cmd.Println()
			if apiKey == "" {
				return errors.New("API key is required for this provider")
			}
		}
	}

	if err := settingsService.SetEmbeddingProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	if provider == domain.ProviderNone {
		cmd.Println("Real embeddings disabled.")
		return nil
	}
	cmd.Printf("Embedding provider configured: %s (%s)\n", provider.Description(), model)
	if provider == domain.ProviderVertex {
		cmd.Println("Set embedding.project (and optionally embedding.location) to finish.")
	}
	cmd.Println("Run 'sercha-rag connections' after restarting to test it.")
	return nil
}

func runSettingsStore(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	backend := domain.StoreBackend(strings.ToLower(args[0]))
	var target string
	if len(args) > 1 {
		target = args[1]
	}

	if err := settingsService.SetStoreBackend(backend, target); err != nil {
		return fmt.Errorf("failed to configure store: %w", err)
	}

	if target == "" {
		cmd.Printf("Vector store set to %s\n", backend)
	} else {
		cmd.Printf("Vector store set to %s (%s)\n", backend, target)
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a line without echo when in is a terminal,
// otherwise from reader.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
