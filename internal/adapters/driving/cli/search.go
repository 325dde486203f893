package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// snippetLength caps the chunk text shown per result.
const snippetLength = 160

var (
	searchLimit     int
	searchThreshold float64
	searchUser      string
	searchDocs      []string
	searchLanguage  string
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed chunks",
	Long: `Embeds the query and ranks stored chunks by cosine similarity.
Results below the threshold are dropped. A threshold of 0 keeps every
chunk with non-negative similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", domain.DefaultQueryThreshold, "minimum similarity")
	searchCmd.Flags().StringVar(&searchUser, "user", "", "only return chunks owned by this user")
	searchCmd.Flags().StringSliceVar(&searchDocs, "doc", nil, "only search these document IDs")
	searchCmd.Flags().StringVar(&searchLanguage, "lang", "", "only return chunks in this language (en, fr)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errRAGNotConfigured
	}

	opts := searchOptions(cmd)
	res, err := ragService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return commandError("search", err)
	}
	printFallback(cmd, res.UsedFallback, res.Warning)

	if searchJSON {
		return outputSearchJSON(cmd, res.Value)
	}
	return outputSearchTable(cmd, res.Value)
}

// searchOptions builds options from flags. Flags left unset take the
// saved search defaults.
func searchOptions(cmd *cobra.Command) domain.SearchOptions {
	opts := domain.SearchOptions{
		Limit:       searchLimit,
		Threshold:   searchThreshold,
		UserID:      searchUser,
		DocumentIDs: searchDocs,
		Language:    domain.Language(searchLanguage),
	}

	if settingsService == nil {
		return opts
	}
	settings, err := settingsService.Get()
	if err != nil {
		return opts
	}
	if !cmd.Flags().Changed("limit") && settings.Search.Limit > 0 {
		opts.Limit = settings.Search.Limit
	}
	if !cmd.Flags().Changed("threshold") {
		opts.Threshold = settings.Search.Threshold
	}
	return opts
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	if results == nil {
		results = []domain.SearchResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] Title (Similarity)
		chunk := results[i].Record.Chunk
		title := chunk.DocumentTitle
		if title == "" {
			title = chunk.DocumentID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", results[i].Rank, title, results[i].Similarity)
		cmd.Printf("      Chunk: %s\n", chunk.ID)
		if snippet := truncate(chunk.Content, snippetLength); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}

	return nil
}

// truncate shortens s to at most n runes on a single line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
