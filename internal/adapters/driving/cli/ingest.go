package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
)

var (
	ingestID       string
	ingestTitle    string
	ingestTags     []string
	ingestLanguage string
	ingestUser     string
	ingestMIMEType string
	ingestWatch    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Chunk, embed and store documents",
	Long: `Ingests files and directories. Each file is converted to text by MIME type
(plain text, markdown, HTML, PDF), split into chunks, embedded and stored.

Directories are scanned recursively; hidden files are skipped and each file
is stored under its path relative to the directory. With --watch the
command keeps running and re-indexes files as they change.

Use "-" to read plain text from stdin.

Re-ingesting a document ID replaces its previous chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document ID (single file only, generated when empty)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (single file only)")
	ingestCmd.Flags().StringSliceVar(&ingestTags, "tags", nil, "tags copied onto every chunk")
	ingestCmd.Flags().StringVar(&ingestLanguage, "lang", "", "override language detection (en, fr)")
	ingestCmd.Flags().StringVar(&ingestUser, "user", "", "owner recorded on every chunk")
	ingestCmd.Flags().StringVar(&ingestMIMEType, "mime", "", "content type (detected from the extension when empty)")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching directories for changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errRAGNotConfigured
	}
	if len(args) > 1 && (ingestID != "" || ingestTitle != "") {
		return errors.New("--id and --title apply to a single file")
	}

	template := domain.IngestRequest{
		Tags:     ingestTags,
		Language: domain.Language(ingestLanguage),
		UserID:   ingestUser,
	}

	var dirs []string
	for _, arg := range args {
		if arg == "-" {
			if err := ingestStdin(cmd, template); err != nil {
				return err
			}
			continue
		}

		path := filesystem.ResolvePath(arg)
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", arg, err)
		}
		if info.IsDir() {
			if ingestID != "" || ingestTitle != "" {
				return errors.New("--id and --title apply to a single file")
			}
			if err := syncDirectory(cmd, path, template); err != nil {
				return err
			}
			dirs = append(dirs, path)
			continue
		}
		if err := ingestFile(cmd, path, template); err != nil {
			return err
		}
	}

	if ingestWatch {
		if len(dirs) == 0 {
			return errors.New("--watch needs at least one directory")
		}
		return watchDirectories(cmd, dirs, template)
	}
	return nil
}

func ingestFile(cmd *cobra.Command, path string, template domain.IngestRequest) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	mimeType := ingestMIMEType
	if mimeType == "" {
		mimeType = normalisers.DetectMIMEType(path)
	}

	req := template
	req.DocumentID = ingestID
	req.Title = ingestTitle
	raw := domain.RawDocument{FileName: filepath.Base(path), MIMEType: mimeType, Content: content}

	res, err := ragService.IngestFile(cmd.Context(), raw, req)
	if err != nil {
		return commandError("ingest "+path, err)
	}
	printFallback(cmd, res.UsedFallback, res.Warning)
	printIngestResult(cmd, path, res.Value)
	return nil
}

func ingestStdin(cmd *cobra.Command, template domain.IngestRequest) error {
	content, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	req := template
	req.DocumentID = ingestID
	req.Title = ingestTitle
	req.Content = string(content)

	res, err := ragService.Ingest(cmd.Context(), req)
	if err != nil {
		return commandError("ingest stdin", err)
	}
	printFallback(cmd, res.UsedFallback, res.Warning)
	printIngestResult(cmd, "stdin", res.Value)
	return nil
}

func printIngestResult(cmd *cobra.Command, source string, r domain.IngestResult) {
	cmd.Printf("Ingested %s as %s: %d chunks, %d embeddings in %s\n",
		source, r.DocumentID, r.ChunksCount, r.EmbeddingsGenerated, r.ProcessingTime.Round(time.Millisecond))
}

func syncDirectory(cmd *cobra.Command, dir string, template domain.IngestRequest) error {
	if syncFactory == nil {
		return errors.New("directory sync not configured")
	}

	orch, err := syncFactory(dir, template)
	if err != nil {
		return fmt.Errorf("sync %s: %w", dir, err)
	}

	cmd.Printf("Scanning %s...\n", dir)
	report, err := orch.Sync(cmd.Context())
	if err != nil {
		return commandError("sync "+dir, err)
	}

	cmd.Printf("Ingested %d files (%d chunks), skipped %d, failed %d in %s\n",
		report.Ingested, report.Chunks, report.Skipped, report.Failed, report.Duration.Round(time.Millisecond))
	if report.Fallbacks > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %d files were served by simulation\n", report.Fallbacks)
	}
	return nil
}

func watchDirectories(cmd *cobra.Command, dirs []string, template domain.IngestRequest) error {
	orchs := make([]driving.SyncOrchestrator, 0, len(dirs))
	for _, dir := range dirs {
		orch, err := syncFactory(dir, template)
		if err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		orchs = append(orchs, orch)
		cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	}

	// Events from several directories share the command output.
	var mu sync.Mutex
	onEvent := func(ev domain.SyncEvent) {
		mu.Lock()
		defer mu.Unlock()
		printSyncEvent(cmd, ev)
	}

	errCh := make(chan error, len(orchs))
	for _, orch := range orchs {
		go func() {
			errCh <- orch.Watch(cmd.Context(), onEvent)
		}()
	}

	var errs []error
	for range orchs {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func printSyncEvent(cmd *cobra.Command, ev domain.SyncEvent) {
	switch {
	case ev.Err != nil:
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", ev.Err)
	case ev.Skipped:
		cmd.Printf("Skipped %s\n", ev.Change.DocumentID)
	case ev.Change.Type == domain.ChangeDeleted:
		cmd.Printf("Removed %s\n", ev.Change.DocumentID)
	default:
		cmd.Printf("Indexed %s (%s, %d chunks)\n", ev.Change.DocumentID, ev.Change.Type, ev.Chunks)
	}
	printFallback(cmd, ev.UsedFallback, ev.Warning)
}
