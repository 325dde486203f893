package domain

import "math"

// Storage pricing used by cost estimates, in USD.
const (
	CostPer100KReads   = 0.36
	CostPer100KWrites  = 1.08
	CostPerGBMonth     = 0.18
	StorageGBPerChunk  = 0.001
	ReadsPerChunkMonth = 2
)

// Usage is a read/write/storage volume to price.
type Usage struct {
	Reads     int64   `json:"reads"`
	Writes    int64   `json:"writes"`
	StorageGB float64 `json:"storage_gb"`
}

// UsageForChunks projects monthly usage for an index holding chunks records.
func UsageForChunks(chunks int) Usage {
	return Usage{
		Reads:     int64(chunks) * ReadsPerChunkMonth,
		Writes:    int64(chunks),
		StorageGB: float64(chunks) * StorageGBPerChunk,
	}
}

// CostEstimate is a priced Usage, each component rounded to cents.
type CostEstimate struct {
	Reads   float64 `json:"reads"`
	Writes  float64 `json:"writes"`
	Storage float64 `json:"storage"`
	Total   float64 `json:"total"`
}

// EstimateCost prices u linearly.
func EstimateCost(u Usage) CostEstimate {
	reads := float64(u.Reads) / 100000 * CostPer100KReads
	writes := float64(u.Writes) / 100000 * CostPer100KWrites
	storage := u.StorageGB * CostPerGBMonth

	return CostEstimate{
		Reads:   roundCents(reads),
		Writes:  roundCents(writes),
		Storage: roundCents(storage),
		Total:   roundCents(reads + writes + storage),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
