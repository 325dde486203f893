package driven

import (
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// MetricsRecorder receives broker operation outcomes.
// Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	// ObserveOperation records one broker call, the mode it ran under,
	// whether it fell back to simulation, and whether it ultimately failed.
	ObserveOperation(op string, mode domain.Mode, fellBack bool, failed bool, elapsed time.Duration)

	// ObserveFallback records a real backend failure that triggered fallback.
	// Component is "embeddings" or "store".
	ObserveFallback(op, component string)
}
