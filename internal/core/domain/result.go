package domain

// Result wraps a broker return value with its degradation status.
// UsedFallback is true when the real backend failed and the value was
// produced by the simulated backend instead; Warning then carries the cause.
type Result[T any] struct {
	Value        T      `json:"value"`
	UsedFallback bool   `json:"used_fallback"`
	Warning      string `json:"warning,omitempty"`
}
