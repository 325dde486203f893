package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var chunksJSON bool

var chunksCmd = &cobra.Command{
	Use:   "chunks [document-id]",
	Short: "List the chunks of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunks,
}

var chunkCmd = &cobra.Command{
	Use:   "chunk [chunk-id]",
	Short: "Print one chunk",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunk,
}

var (
	deleteChunk bool
	deleteForce bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a document or a chunk",
	Long: `Deletes every chunk of a document. With --chunk the argument is a chunk ID
and only that chunk is removed.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	chunksCmd.Flags().BoolVar(&chunksJSON, "json", false, "output chunks as JSON")
	chunkCmd.Flags().BoolVar(&chunksJSON, "json", false, "output chunk as JSON")
	deleteCmd.Flags().BoolVar(&deleteChunk, "chunk", false, "treat the argument as a chunk ID")
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "succeed even if nothing was stored under the ID")
	rootCmd.AddCommand(chunksCmd)
	rootCmd.AddCommand(chunkCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runChunks(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errRAGNotConfigured
	}

	documentID := args[0]
	res, err := ragService.DocumentChunks(cmd.Context(), documentID)
	if err != nil {
		return commandError("list chunks", err)
	}
	printFallback(cmd, res.UsedFallback, res.Warning)

	if chunksJSON {
		return printJSON(cmd, res.Value)
	}

	if len(res.Value) == 0 {
		cmd.Printf("No chunks stored for document %s.\n", documentID)
		return nil
	}

	cmd.Printf("Chunks for document %s:\n\n", documentID)
	for i := range res.Value {
		c := res.Value[i].Chunk
		cmd.Printf("  [%d] %s\n", c.ChunkIndex, c.ID)
		cmd.Printf("      %d tokens, %d words, %s, chars %d-%d\n",
			c.TokenCount, c.WordCount, c.Language, c.StartPosition, c.EndPosition)
		cmd.Printf("      %s\n\n", truncate(c.Content, snippetLength))
	}
	return nil
}

func runChunk(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errRAGNotConfigured
	}

	res, err := ragService.GetChunk(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("chunk %s not found", args[0])
	}
	if err != nil {
		return commandError("get chunk", err)
	}
	printFallback(cmd, res.UsedFallback, res.Warning)

	if chunksJSON {
		return printJSON(cmd, res.Value)
	}

	c := res.Value.Chunk
	cmd.Printf("Chunk: %s\n", c.ID)
	cmd.Printf("Document: %s\n", c.DocumentID)
	if c.DocumentTitle != "" {
		cmd.Printf("Title: %s\n", c.DocumentTitle)
	}
	cmd.Printf("Index: %d\n", c.ChunkIndex)
	cmd.Printf("Language: %s\n", c.Language)
	cmd.Printf("Embedding: %d dimensions\n", res.Value.Embedding.Dimensions())
	cmd.Println()
	cmd.Println(c.Content)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errRAGNotConfigured
	}

	id := args[0]
	if deleteChunk {
		res, err := ragService.DeleteChunk(cmd.Context(), id)
		if err != nil {
			return commandError("delete chunk", err)
		}
		printFallback(cmd, res.UsedFallback, res.Warning)
		cmd.Printf("Deleted chunk %s\n", id)
		return nil
	}

	if !deleteForce {
		chunks, err := ragService.DocumentChunks(cmd.Context(), id)
		if err != nil {
			return commandError("delete document", err)
		}
		if len(chunks.Value) == 0 {
			return fmt.Errorf("document %s not found (use --force to ignore)", id)
		}
	}

	res, err := ragService.DeleteDocument(cmd.Context(), id)
	if err != nil {
		return commandError("delete document", err)
	}
	printFallback(cmd, res.UsedFallback, res.Warning)
	cmd.Printf("Deleted document %s\n", id)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
