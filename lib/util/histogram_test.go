package util

import "testing"

// TestSizeHistogram tests sample accounting and percentile estimates
func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()

	if s := h.Summary(); s != (SizeSummary{}) {
		t.Errorf("empty histogram should have a zero summary, got %+v", s)
	}

	for i := 0; i < 99; i++ {
		h.AddSample(100) // bucket (64, 256]
	}
	h.AddSample(5000) // bucket (4096, 16384]

	if h.Count() != 100 {
		t.Errorf("expected 100 samples, got %d", h.Count())
	}

	s := h.Summary()
	if s.Max != 5000 {
		t.Errorf("expected max 5000, got %d", s.Max)
	}
	if s.Average != (99*100+5000)/100 {
		t.Errorf("unexpected average %d", s.Average)
	}
	if s.P50 != (64+256)/2 {
		t.Errorf("expected p50 %d, got %d", (64+256)/2, s.P50)
	}
	if p := h.Percentile(100); p != 5000 {
		t.Errorf("expected p100 capped at max 5000, got %d", p)
	}
	if p := h.Percentile(101); p != 0 {
		t.Errorf("invalid percentile should yield 0, got %d", p)
	}
}
