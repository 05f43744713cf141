package util

import (
	"sort"
	"testing"
)

type sliceScanner map[string][]byte

func (s sliceScanner) ScanPrefix(prefix string, fn func(key string, value []byte) bool) error {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn(k, s[k]) {
			return nil
		}
	}
	return nil
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	if h.PercentileEstimate(50) != 0 {
		t.Errorf("Expected 0 for an empty histogram")
	}

	for i := 0; i < 99; i++ {
		h.AddSample(10)
	}
	h.AddSample(100 << 20)

	if h.Count() != 100 {
		t.Errorf("Expected 100 samples, got %d", h.Count())
	}
	if got := h.PercentileEstimate(50); got != 8 {
		t.Errorf("Expected median estimate 8, got %d", got)
	}
	if got := h.PercentileEstimate(100); got != 128<<20 {
		t.Errorf("Expected max estimate %d, got %d", 128<<20, got)
	}
	if got := h.PercentileEstimate(101); got != 0 {
		t.Errorf("Expected 0 for an invalid percentile, got %d", got)
	}
}

func TestSampleEntries(t *testing.T) {
	s := sliceScanner{
		"a": []byte("1"),
		"b": []byte("22"),
		"c": []byte("333"),
	}

	full, err := SampleEntries(s, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if full.Entries != 3 || !full.Complete {
		t.Errorf("Expected 3 entries and a complete sample, got %+v", full)
	}
	if full.ValueBytes != 6 || full.KeyBytes != 3 {
		t.Errorf("Unexpected byte counts: %+v", full)
	}

	partial, err := SampleEntries(s, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if partial.Entries != 2 || partial.Complete {
		t.Errorf("Expected 2 entries and an incomplete sample, got %+v", partial)
	}
}
