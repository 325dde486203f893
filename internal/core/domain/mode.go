package domain

import (
	"fmt"
	"strings"
)

const unknownDescription = "Unknown"

// Mode selects which embedding provider and vector store the broker uses.
type Mode string

// Available modes.
const (
	// ModeSimulation uses the simulated provider and the in-memory store.
	ModeSimulation Mode = "simulation"

	// ModeHybridEmbeddings uses the real provider and the in-memory store.
	ModeHybridEmbeddings Mode = "hybrid_embeddings"

	// ModeHybridStorage uses the simulated provider and the persistent store.
	ModeHybridStorage Mode = "hybrid_storage"

	// ModeProduction uses the real provider and the persistent store.
	ModeProduction Mode = "production"
)

// FallbackSimulationLabel is reported by stats served from the simulated
// store after the real store failed.
const FallbackSimulationLabel = "FALLBACK_SIMULATION"

// ModeFor returns the mode selecting the given backends.
func ModeFor(embeddingsReal, storeReal bool) Mode {
	switch {
	case embeddingsReal && storeReal:
		return ModeProduction
	case embeddingsReal:
		return ModeHybridEmbeddings
	case storeReal:
		return ModeHybridStorage
	default:
		return ModeSimulation
	}
}

// ParseMode accepts a mode value ("hybrid_storage") or label ("HYBRID_REAL_STORAGE").
func ParseMode(s string) (Mode, error) {
	needle := strings.TrimSpace(s)
	for _, m := range AllModes() {
		if strings.EqualFold(needle, string(m)) || strings.EqualFold(needle, m.Label()) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// IsValid returns true if the mode is recognised.
func (m Mode) IsValid() bool {
	switch m {
	case ModeSimulation, ModeHybridEmbeddings, ModeHybridStorage, ModeProduction:
		return true
	default:
		return false
	}
}

// RealEmbeddings returns true if this mode uses the real embedding provider.
func (m Mode) RealEmbeddings() bool {
	return m == ModeHybridEmbeddings || m == ModeProduction
}

// RealStore returns true if this mode uses the persistent vector store.
func (m Mode) RealStore() bool {
	return m == ModeHybridStorage || m == ModeProduction
}

// String returns the string representation.
func (m Mode) String() string {
	return string(m)
}

// Label returns the upper-case status label reported by stats.
func (m Mode) Label() string {
	switch m {
	case ModeSimulation:
		return "DEVELOPMENT_SIMULATION"
	case ModeHybridEmbeddings:
		return "HYBRID_REAL_EMBEDDINGS"
	case ModeHybridStorage:
		return "HYBRID_REAL_STORAGE"
	case ModeProduction:
		return "PRODUCTION_READY"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human-readable description of the mode.
func (m Mode) Description() string {
	switch m {
	case ModeSimulation:
		return "Simulation (simulated embeddings + in-memory store)"
	case ModeHybridEmbeddings:
		return "Hybrid embeddings (real embeddings + in-memory store)"
	case ModeHybridStorage:
		return "Hybrid storage (simulated embeddings + persistent store)"
	case ModeProduction:
		return "Production (real embeddings + persistent store)"
	default:
		return unknownDescription
	}
}

// AllModes returns all modes in order of increasing realism.
func AllModes() []Mode {
	return []Mode{ModeSimulation, ModeHybridEmbeddings, ModeHybridStorage, ModeProduction}
}

// ModeChange reports the outcome of a mode switch.
type ModeChange struct {
	Previous Mode   `json:"previous"`
	Current  Mode   `json:"current"`
	Message  string `json:"message"`
}
