package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collect(t *testing.T, changes <-chan domain.FileChange, errs <-chan error) ([]domain.FileChange, error) {
	t.Helper()
	var out []domain.FileChange
	for c := range changes {
		out = append(out, c)
	}
	return out, <-errs
}

func TestNew(t *testing.T) {
	c := New("/tmp/docs/")
	assert.Equal(t, "/tmp/docs", c.RootPath())
	assert.Equal(t, int64(DefaultMaxFileSize), c.maxFileSize)
	assert.True(t, c.include("anything"))

	c = New("/tmp/docs", WithMaxFileSize(10), WithFilter(func(p string) bool { return strings.HasSuffix(p, ".md") }))
	assert.Equal(t, int64(10), c.maxFileSize)
	assert.True(t, c.include("a.md"))
	assert.False(t, c.include("a.txt"))

	c = New("/tmp/docs", WithMaxFileSize(0), WithFilter(nil))
	assert.Equal(t, int64(DefaultMaxFileSize), c.maxFileSize)
	assert.NotNil(t, c.include)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid directory", func(t *testing.T) {
		assert.NoError(t, New(dir).Validate(context.Background()))
	})

	t.Run("missing path", func(t *testing.T) {
		err := New(filepath.Join(dir, "missing")).Validate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("file instead of directory", func(t *testing.T) {
		file := filepath.Join(dir, "file.txt")
		writeFile(t, file, "x")
		err := New(file).Validate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, New(dir).Validate(ctx), context.Canceled)
	})
}

func TestDocumentID(t *testing.T) {
	c := New("/data/docs")
	assert.Equal(t, "a.txt", c.DocumentID("/data/docs/a.txt"))
	assert.Equal(t, "sub/b.md", c.DocumentID("/data/docs/sub/b.md"))
}

func TestFullSync(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "sub", "b.md"), "# Beta")
	writeFile(t, filepath.Join(dir, ".hidden"), "secret")
	writeFile(t, filepath.Join(dir, ".git", "config"), "[core]")
	writeFile(t, filepath.Join(dir, "big.txt"), strings.Repeat("x", 100))

	c := New(dir, WithMaxFileSize(50))
	changesCh, errsCh := c.FullSync(context.Background())
	changes, err := collect(t, changesCh, errsCh)
	require.NoError(t, err)

	byID := make(map[string]domain.FileChange)
	for _, ch := range changes {
		byID[ch.DocumentID] = ch
	}
	require.Len(t, byID, 2)

	a := byID["a.txt"]
	assert.Equal(t, domain.ChangeCreated, a.Type)
	assert.Equal(t, filepath.Join(dir, "a.txt"), a.Path)
	assert.Equal(t, "alpha", string(a.Document.Content))
	assert.Equal(t, "text/plain", a.Document.MIMEType)

	b := byID["sub/b.md"]
	assert.Equal(t, "text/markdown", b.Document.MIMEType)
}

func TestFullSync_Filter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "b.md"), "beta")

	c := New(dir, WithFilter(func(p string) bool { return filepath.Ext(p) == ".md" }))
	changesCh, errsCh := c.FullSync(context.Background())
	changes, err := collect(t, changesCh, errsCh)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "b.md", changes[0].DocumentID)
}

func TestFullSync_InvalidRoot(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "missing"))
	changesCh, errsCh := c.FullSync(context.Background())
	changes, err := collect(t, changesCh, errsCh)
	assert.Empty(t, changes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestFullSync_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	changesCh, errsCh := New(dir).FullSync(ctx)
	changes, err := collect(t, changesCh, errsCh)
	assert.Empty(t, changes)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "note.txt")
	writeFile(t, file, "hello")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "subdir"), 0o755))
	writeFile(t, filepath.Join(dir, ".secret"), "hidden")

	c := New(dir)

	tests := []struct {
		name     string
		event    fsnotify.Event
		expected domain.ChangeType
		isNil    bool
	}{
		{"create", fsnotify.Event{Name: file, Op: fsnotify.Create}, domain.ChangeCreated, false},
		{"write", fsnotify.Event{Name: file, Op: fsnotify.Write}, domain.ChangeUpdated, false},
		{"write and chmod", fsnotify.Event{Name: file, Op: fsnotify.Write | fsnotify.Chmod}, domain.ChangeUpdated, false},
		{"remove", fsnotify.Event{Name: file, Op: fsnotify.Remove}, domain.ChangeDeleted, false},
		{"rename", fsnotify.Event{Name: file, Op: fsnotify.Rename}, domain.ChangeDeleted, false},
		{"chmod only", fsnotify.Event{Name: file, Op: fsnotify.Chmod}, "", true},
		{"hidden file", fsnotify.Event{Name: filepath.Join(dir, ".secret"), Op: fsnotify.Write}, "", true},
		{"directory", fsnotify.Event{Name: filepath.Join(dir, "subdir"), Op: fsnotify.Create}, "", true},
		{"missing file write", fsnotify.Event{Name: filepath.Join(dir, "gone.txt"), Op: fsnotify.Write}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change := c.handleFsEvent(tt.event)
			if tt.isNil {
				assert.Nil(t, change)
				return
			}
			require.NotNil(t, change)
			assert.Equal(t, tt.expected, change.Type)
			assert.Equal(t, "note.txt", change.DocumentID)
		})
	}
}

func TestHandleFsEvent_DeleteHasNoContent(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	change := c.handleFsEvent(fsnotify.Event{Name: filepath.Join(dir, "gone.txt"), Op: fsnotify.Remove})
	require.NotNil(t, change)
	assert.Equal(t, domain.ChangeDeleted, change.Type)
	assert.Empty(t, change.Document.Content)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changes, err := c.Watch(ctx)
	require.NoError(t, err)

	file := filepath.Join(dir, "new.txt")
	writeFile(t, file, "fresh content")

	for {
		select {
		case change, ok := <-changes:
			require.True(t, ok, "watch channel closed early")
			if change.DocumentID != "new.txt" {
				continue
			}
			assert.Contains(t, []domain.ChangeType{domain.ChangeCreated, domain.ChangeUpdated}, change.Type)
			return
		case <-ctx.Done():
			t.Fatal("timed out waiting for change")
		}
	}
}

func TestWatch_InvalidRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing")).Watch(context.Background())
	require.Error(t, err)
}

func TestClose_WithoutWatch(t *testing.T) {
	assert.NoError(t, New(t.TempDir()).Close())
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"/root/.config/file.txt", true},
		{"dir/.git/config", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"..", false},
		{"path/./file", false},
		{"path/../file", false},
		{"", false},
		{"/", false},
		{"file.hidden", false},
		{"directory.name/file", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}
