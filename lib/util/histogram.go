package util

import (
	"math"
	"sync"
)

// sizeBoundaries are the upper bounds (inclusive) of the histogram buckets,
// growing by factor 4 from 64 bytes to 64 MiB. A last bucket takes everything larger.
var sizeBoundaries = []int{
	64, 256, 1024, 4096,
	16384, 65536, 262144, 1048576,
	4194304, 16777216, 67108864,
}

// SizeHistogram tracks the distribution of byte sizes (the store feeds it with
// the size of every written snapshot). Memory use is constant regardless of the
// number of samples, percentiles are estimates based on the bucket bounds.
//
// Thread-safe: all methods are safe for concurrent use
type SizeHistogram struct {
	mutex   sync.RWMutex
	buckets []int64
	count   int64
	sum     int64
	max     int
}

// SizeSummary is a point-in-time view of a SizeHistogram.
type SizeSummary struct {
	Count   int64 `json:"count"`
	Average int   `json:"average"`
	P50     int   `json:"p50"`
	P99     int   `json:"p99"`
	Max     int   `json:"max"`
}

// NewSizeHistogram creates an empty histogram.
func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{buckets: make([]int64, len(sizeBoundaries)+1)}
}

// AddSample adds a size sample to the histogram
func (h *SizeHistogram) AddSample(size int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	idx := len(sizeBoundaries)
	for i, boundary := range sizeBoundaries {
		if size <= boundary {
			idx = i
			break
		}
	}
	h.buckets[idx]++
	h.count++
	h.sum += int64(size)
	if size > h.max {
		h.max = size
	}
}

// Count returns the total number of samples
func (h *SizeHistogram) Count() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.count
}

// Percentile returns an estimate for the given percentile (0-100).
// The estimate is the middle of the bucket the percentile falls into, capped by the largest sample.
func (h *SizeHistogram) Percentile(p int) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.percentile(p)
}

func (h *SizeHistogram) percentile(p int) int {
	if h.count == 0 || p < 0 || p > 100 {
		return 0
	}

	target := int64(math.Ceil(float64(h.count) * float64(p) / 100.0))
	if target == 0 {
		target = 1
	}
	var cumulative int64
	for i, c := range h.buckets {
		cumulative += c
		if cumulative < target {
			continue
		}
		var estimate int
		switch {
		case i == 0:
			estimate = sizeBoundaries[0] / 2
		case i < len(sizeBoundaries):
			estimate = (sizeBoundaries[i-1] + sizeBoundaries[i]) / 2
		default:
			estimate = sizeBoundaries[len(sizeBoundaries)-1] * 2
		}
		return min(estimate, h.max)
	}
	return h.max
}

// Summary returns count, average, p50, p99 and maximum in one consistent view.
func (h *SizeHistogram) Summary() SizeSummary {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	s := SizeSummary{Count: h.count, Max: h.max}
	if h.count > 0 {
		s.Average = int(h.sum / h.count)
		s.P50 = h.percentile(50)
		s.P99 = h.percentile(99)
	}
	return s
}
