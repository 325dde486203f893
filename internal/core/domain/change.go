package domain

import "time"

// ChangeType classifies a file change seen by a directory watch.
type ChangeType string

// Change types.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// FileChange is a document to ingest or remove.
type FileChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Path is the absolute file path.
	Path string

	// DocumentID is the stable ID derived from the path relative to the watched root.
	DocumentID string

	// Document holds the file content. Empty for deletions.
	Document RawDocument
}

// SyncEvent reports how one change was applied to the index.
type SyncEvent struct {
	Change FileChange

	// Chunks is the number of chunks stored for an ingested file.
	Chunks int

	// Skipped is true when the file could not be indexed, e.g. an
	// unsupported type or a file with no text.
	Skipped bool

	UsedFallback bool
	Warning      string

	// Err is the failure, if the change could not be applied.
	Err error
}

// SyncReport summarises a directory sync.
type SyncReport struct {
	Ingested  int           `json:"ingested"`
	Deleted   int           `json:"deleted"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Chunks    int           `json:"chunks"`
	Fallbacks int           `json:"fallbacks"`
	Duration  time.Duration `json:"duration"`
}

// Add counts one applied change.
func (r *SyncReport) Add(ev SyncEvent) {
	switch {
	case ev.Err != nil:
		r.Failed++
	case ev.Skipped:
		r.Skipped++
	case ev.Change.Type == ChangeDeleted:
		r.Deleted++
	default:
		r.Ingested++
		r.Chunks += ev.Chunks
	}
	if ev.UsedFallback {
		r.Fallbacks++
	}
}
