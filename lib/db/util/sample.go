package util

import (
	"math"
	"sort"
)

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

// sizeBoundaries are the upper bounds of the histogram buckets, from 16 bytes to 64 MiB.
var sizeBoundaries = []int{16, 64, 256, 1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20, 4 << 20, 16 << 20, 64 << 20}

// SizeHistogram tracks the distribution of entry sizes in exponential buckets.
// It is not safe for concurrent use.
type SizeHistogram struct {
	buckets []int64 // len(sizeBoundaries)+1, the last one collects larger values
	count   int64
	sum     int64
}

// NewSizeHistogram creates an empty histogram
func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{buckets: make([]int64, len(sizeBoundaries)+1)}
}

// AddSample adds a size sample to the histogram
func (h *SizeHistogram) AddSample(size int) {
	idx := sort.SearchInts(sizeBoundaries, size)
	h.buckets[idx]++
	h.count++
	h.sum += int64(size)
}

// Count returns the number of samples
func (h *SizeHistogram) Count() int64 { return h.count }

// Sum returns the sum of all samples
func (h *SizeHistogram) Sum() int64 { return h.sum }

// AverageSize returns the average size across all samples
func (h *SizeHistogram) AverageSize() int {
	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// PercentileEstimate estimates the given percentile (0-100) from the bucket
// bounds. Values in the first bucket are estimated as half its bound and values
// above the last bound as twice the last bound.
func (h *SizeHistogram) PercentileEstimate(percentile int) int {
	if h.count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	target := int64(math.Ceil(float64(h.count) * float64(percentile) / 100.0))
	if target == 0 {
		target = 1
	}

	var cumulative int64
	for i, n := range h.buckets {
		cumulative += n
		if cumulative < target {
			continue
		}
		switch {
		case i == 0:
			return sizeBoundaries[0] / 2
		case i < len(sizeBoundaries):
			return (sizeBoundaries[i-1] + sizeBoundaries[i]) / 2
		default:
			return sizeBoundaries[len(sizeBoundaries)-1] * 2
		}
	}
	return h.AverageSize()
}

// ----------------------------------------------------------------------------
// Engine sampling
// ----------------------------------------------------------------------------

// Scanner is the part of db.KVDB needed to sample an engine.
type Scanner interface {
	ScanPrefix(prefix string, fn func(key string, value []byte) bool) error
}

// Sample summarizes the first entries of an engine.
type Sample struct {
	Entries      int64 `json:"entries"`
	Complete     bool  `json:"complete"` // all entries were visited
	KeyBytes     int64 `json:"key_bytes"`
	ValueBytes   int64 `json:"value_bytes"`
	MedianValue  int   `json:"median_value_size"`
	P99Value     int   `json:"p99_value_size"`
	AverageValue int   `json:"average_value_size"`
}

// SampleEntries visits at most limit entries (limit <= 0 visits all) and
// returns their size statistics.
func SampleEntries(s Scanner, limit int) (Sample, error) {
	hist := NewSizeHistogram()
	var sample Sample
	sample.Complete = true

	err := s.ScanPrefix("", func(key string, value []byte) bool {
		if limit > 0 && sample.Entries >= int64(limit) {
			sample.Complete = false
			return false
		}
		sample.Entries++
		sample.KeyBytes += int64(len(key))
		hist.AddSample(len(value))
		return true
	})
	if err != nil {
		return Sample{}, err
	}

	sample.ValueBytes = hist.Sum()
	sample.MedianValue = hist.PercentileEstimate(50)
	sample.P99Value = hist.PercentileEstimate(99)
	sample.AverageValue = hist.AverageSize()
	return sample, nil
}
