package list

import (
	"encoding/json"
	"strings"
	"testing"
)

// TestParseDate tests parsing and formatting of calendar dates
func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if d.Year != 2024 || d.Month != 3 || d.Day != 1 {
		t.Errorf("unexpected date %+v", d)
	}
	if d.String() != "2024-03-01" {
		t.Errorf("expected 2024-03-01, got %s", d.String())
	}

	for _, invalid := range []string{"", "2024-13-01", "01.03.2024", "2024-02-30", "2024-03-01T10:00:00Z"} {
		if _, err := ParseDate(invalid); err == nil {
			t.Errorf("ParseDate(%q) should fail", invalid)
		}
	}
}

// TestAddAssignsIncreasingIds tests that ids are assigned from the counter and never reused
func TestAddAssignsIncreasingIds(t *testing.T) {
	l := New()
	day := MustParseDate("2024-03-01")

	for i := uint64(0); i < 5; i++ {
		id := l.Add(Entry{Date: day, Title: "task"})
		if id != i {
			t.Errorf("expected id %d, got %d", i, id)
		}
	}
	if l.AutoID != 5 {
		t.Errorf("expected counter 5, got %d", l.AutoID)
	}
	if l.Len() != 5 {
		t.Errorf("expected 5 entries, got %d", l.Len())
	}

	// a zero List is usable as well
	var zero List
	if id := zero.Add(Entry{Date: day, Title: "x"}); id != 0 {
		t.Errorf("expected id 0 on zero list, got %d", id)
	}
}

// TestOnFiltersByExactDate tests that only entries with the exact date are returned
func TestOnFiltersByExactDate(t *testing.T) {
	l := New()
	d1 := MustParseDate("2024-01-01")
	d2 := MustParseDate("2024-01-02")

	l.Add(Entry{Date: d1, Title: "A"})
	l.Add(Entry{Date: d2, Title: "B"})
	l.Add(Entry{Date: d1, Title: "C"})

	got := l.On(d1)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	titles := map[string]bool{}
	for _, e := range got {
		if e.Date != d1 {
			t.Errorf("entry %+v has wrong date", e)
		}
		titles[e.Title] = true
	}
	if !titles["A"] || !titles["C"] {
		t.Errorf("expected titles A and C, got %v", titles)
	}

	if got := l.On(MustParseDate("2030-01-01")); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}
}

// TestCloneIsIndependent tests that a clone does not share entries with the original
func TestCloneIsIndependent(t *testing.T) {
	l := New()
	day := MustParseDate("2024-01-01")
	l.Add(Entry{Date: day, Title: "A"})

	c := l.Clone()
	c.Add(Entry{Date: day, Title: "B"})

	if l.Len() != 1 || l.AutoID != 1 {
		t.Errorf("original changed after modifying clone: %+v", l)
	}
	if !c.Equal(c.Clone()) {
		t.Error("clone of clone should be equal")
	}
	if l.Equal(c) {
		t.Error("lists with different entries should not be equal")
	}
}

// TestSnapshotFormat tests the exact persisted document layout
func TestSnapshotFormat(t *testing.T) {
	l := New()
	l.Add(Entry{Date: MustParseDate("2024-03-01"), Title: "buy milk"})

	data, err := l.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("snapshot is not a json object: %v", err)
	}
	if string(doc["auto_id"]) != "1" {
		t.Errorf("expected auto_id 1, got %s", doc["auto_id"])
	}
	expected := `{"0":{"date":"2024-03-01","title":"buy milk"}}`
	if string(doc["entries"]) != expected {
		t.Errorf("expected entries %s, got %s", expected, doc["entries"])
	}

	empty := New()
	data, err = empty.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"auto_id":0,"entries":{}}` {
		t.Errorf("unexpected empty snapshot %s", data)
	}
}

// TestUnmarshal tests decoding of valid and invalid snapshots
func TestUnmarshal(t *testing.T) {
	l, err := Unmarshal([]byte(`{"auto_id":3,"entries":{"0":{"date":"2024-01-01","title":"A"},"2":{"date":"2024-01-02","title":"B"}}}`))
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if l.AutoID != 3 || l.Len() != 2 {
		t.Errorf("unexpected list %+v", l)
	}
	if l.Entries[2].Title != "B" {
		t.Errorf("expected entry 2 to be B, got %+v", l.Entries[2])
	}

	// the counter keeps going after a reload
	if id := l.Add(Entry{Date: MustParseDate("2024-01-03"), Title: "C"}); id != 3 {
		t.Errorf("expected id 3 after reload, got %d", id)
	}

	invalid := map[string]string{
		"not json":         `{"auto_id":`,
		"wrong type":       `{"auto_id":"one","entries":{}}`,
		"bad date":         `{"auto_id":1,"entries":{"0":{"date":"yesterday","title":"A"}}}`,
		"missing date":     `{"auto_id":1,"entries":{"0":{"title":"A"}}}`,
		"id above counter": `{"auto_id":1,"entries":{"1":{"date":"2024-01-01","title":"A"}}}`,
	}
	for name, doc := range invalid {
		t.Run(name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(doc)); err == nil || !strings.Contains(err.Error(), "decode snapshot") {
				t.Errorf("expected decode error, got %v", err)
			}
		})
	}
}
