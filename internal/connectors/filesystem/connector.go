// Package filesystem reads documents from a local directory and watches it
// for changes.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
)

// DefaultMaxFileSize skips files larger than 10 MiB.
const DefaultMaxFileSize = 10 << 20

// Connector scans and watches a directory tree.
// Hidden files and directories are skipped.
type Connector struct {
	rootPath    string
	maxFileSize int64
	include     func(path string) bool

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// Option configures a Connector.
type Option func(*Connector)

// WithFilter restricts the connector to paths for which include returns true.
func WithFilter(include func(path string) bool) Option {
	return func(c *Connector) {
		if include != nil {
			c.include = include
		}
	}
}

// WithMaxFileSize sets the largest file read, in bytes.
func WithMaxFileSize(n int64) Option {
	return func(c *Connector) {
		if n > 0 {
			c.maxFileSize = n
		}
	}
}

// New creates a connector rooted at rootPath.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{
		rootPath:    filepath.Clean(rootPath),
		maxFileSize: DefaultMaxFileSize,
		include:     func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RootPath returns the watched directory.
func (c *Connector) RootPath() string {
	return c.rootPath
}

// Validate checks that the root exists and is a directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(c.rootPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("path does not exist: %s", c.rootPath)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", c.rootPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", c.rootPath)
	}
	return nil
}

// DocumentID returns the ID a file is ingested under: its slash-separated
// path relative to the root.
func (c *Connector) DocumentID(path string) string {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// FullSync walks the tree and emits a ChangeCreated for every included file.
// Both channels are closed when the walk ends.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.FileChange, <-chan error) {
	changes := make(chan domain.FileChange)
	errs := make(chan error, 1)

	go func() {
		defer close(changes)
		defer close(errs)

		if err := c.Validate(ctx); err != nil {
			errs <- err
			return
		}

		err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("skipping %s: %v", path, err)
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if path != c.rootPath && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			change, ok := c.read(path, domain.ChangeCreated)
			if !ok {
				return nil
			}

			select {
			case changes <- change:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return changes, errs
}

// Watch emits changes under the root until ctx is cancelled or Close is called.
// New subdirectories are watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	if err := c.addTree(w, c.rootPath); err != nil {
		w.Close()
		return nil, err
	}

	c.mu.Lock()
	if c.watcher != nil {
		c.watcher.Close()
	}
	c.watcher = w
	c.mu.Unlock()

	changes := make(chan domain.FileChange)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					c.watchIfDir(w, event.Name)
				}
				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("watch %s: %v", c.rootPath, err)
			}
		}
	}()

	return changes, nil
}

// Close stops any running watch.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

// handleFsEvent converts a watcher event into a change.
// Returns nil for events that do not affect an included file.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.FileChange {
	if c.hiddenPath(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !c.include(event.Name) {
			return nil
		}
		return &domain.FileChange{
			Type:       domain.ChangeDeleted,
			Path:       event.Name,
			DocumentID: c.DocumentID(event.Name),
			Document:   domain.RawDocument{FileName: event.Name},
		}

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		changeType := domain.ChangeUpdated
		if event.Has(fsnotify.Create) {
			changeType = domain.ChangeCreated
		}
		change, ok := c.read(event.Name, changeType)
		if !ok {
			return nil
		}
		return &change

	default:
		return nil
	}
}

// read loads an included regular file. Directories, oversized and
// unreadable files are skipped.
func (c *Connector) read(path string, changeType domain.ChangeType) (domain.FileChange, bool) {
	if !c.include(path) {
		return domain.FileChange{}, false
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return domain.FileChange{}, false
	}
	if info.Size() > c.maxFileSize {
		logger.Warn("skipping %s: %d bytes exceeds limit of %d", path, info.Size(), c.maxFileSize)
		return domain.FileChange{}, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("skipping %s: %v", path, err)
		return domain.FileChange{}, false
	}

	return domain.FileChange{
		Type:       changeType,
		Path:       path,
		DocumentID: c.DocumentID(path),
		Document: domain.RawDocument{
			FileName: path,
			MIMEType: normalisers.DetectMIMEType(path),
			Content:  content,
		},
	}, true
}

func (c *Connector) addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable subtrees are skipped
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.rootPath && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (c *Connector) watchIfDir(w *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || c.hiddenPath(path) {
		return
	}
	if err := c.addTree(w, path); err != nil {
		logger.Warn("%v", err)
	}
}

// hiddenPath reports whether any element of path below the root is hidden.
func (c *Connector) hiddenPath(path string) bool {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return isHidden(path)
	}
	return isHidden(rel)
}

// isHidden reports whether any element of path starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}
