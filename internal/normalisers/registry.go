package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// extensionTypes covers extensions the system MIME table often lacks.
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".htm":      "text/html",
	".html":     "text/html",
	".pdf":      "application/pdf",
}

// Registry dispatches raw documents to normalisers by MIME type.
type Registry struct {
	mu     sync.RWMutex
	byType map[string][]driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byType: make(map[string][]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser for each MIME type it supports.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range n.SupportedMIMETypes() {
		t = strings.ToLower(t)
		list := append(r.byType[t], n)
		slices.SortStableFunc(list, func(a, b driven.Normaliser) int {
			return b.Priority() - a.Priority()
		})
		r.byType[t] = list
	}
}

// Get returns the highest-priority normaliser for mimeType.
// Parameters such as charset are ignored.
func (r *Registry) Get(mimeType string) (driven.Normaliser, error) {
	base := BaseType(mimeType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if list := r.byType[base]; len(list) > 0 {
		return list[0], nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mimeType)
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byType))
	for t := range r.byType {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Normalise routes raw to its normaliser. An empty MIME type is detected
// from the file name and written back to raw.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if raw.MIMEType == "" {
		raw.MIMEType = DetectMIMEType(raw.FileName)
	}

	n, err := r.Get(raw.MIMEType)
	if err != nil {
		return nil, err
	}
	return n.Normalise(ctx, raw)
}

// DetectMIMEType guesses a MIME type from a file extension.
// Unknown extensions yield "application/octet-stream".
func DetectMIMEType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return BaseType(t)
	}
	return "application/octet-stream"
}

// BaseType strips parameters and lower-cases a MIME type.
func BaseType(mimeType string) string {
	if t, _, err := mime.ParseMediaType(mimeType); err == nil {
		return t
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// TitleFromFileName derives a readable title from a file name.
// E.g., "quarterly_report-2024.pdf" becomes "quarterly report 2024".
func TitleFromFileName(fileName string) string {
	name := filepath.Base(fileName)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.TrimSpace(name)
}
