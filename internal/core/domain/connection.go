package domain

// BackendHealth reports reachability of one backend pair.
type BackendHealth struct {
	// Real is true if the real backend answered a ping.
	Real bool `json:"real"`

	// Simulated is true if the simulated backend answered a ping.
	Simulated bool `json:"simulated"`

	// Error is the real backend's failure, if any.
	Error string `json:"error,omitempty"`
}

// ConnectionReport is the result of a connectivity check.
type ConnectionReport struct {
	Embeddings      BackendHealth `json:"embeddings"`
	Store           BackendHealth `json:"store"`
	CurrentMode     Mode          `json:"current_mode"`
	Recommendations []string      `json:"recommendations"`
}

// Recommendations returns operator guidance for the reachable real backends.
func Recommendations(embeddingsReal, storeReal bool) []string {
	switch {
	case embeddingsReal && storeReal:
		return []string{
			"Ready for FULL PRODUCTION mode",
			"Estimated cost: $3.50/month for MVP",
		}
	case embeddingsReal:
		return []string{
			"Embeddings ready - HYBRID mode available",
			"Configure persistent storage for full production",
			"Estimated cost: $0.10/month",
		}
	case storeReal:
		return []string{
			"Storage ready - configure embeddings for full production",
		}
	default:
		return []string{
			"Development mode - simulation working",
			"Configure embedding credentials and a persistent store for production",
		}
	}
}
