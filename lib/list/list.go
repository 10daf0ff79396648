package list

import (
	"encoding/json"
	"fmt"
)

// Entry is a single todo item. Entries are immutable once added to a List.
type Entry struct {
	Date  Date   `json:"date"`
	Title string `json:"title"`
}

// List is the complete state of one key: the id counter and all entries by id.
type List struct {
	// AutoID is the id the next added entry receives.
	AutoID uint64 `json:"auto_id"`
	// Entries maps entry ids to entries. Ids are never reused.
	Entries map[uint64]Entry `json:"entries"`
}

// New returns an empty List.
func New() List {
	return List{Entries: make(map[uint64]Entry)}
}

// Add stores e under the current counter value, increments the counter and
// returns the assigned id.
func (l *List) Add(e Entry) uint64 {
	if l.Entries == nil {
		l.Entries = make(map[uint64]Entry)
	}
	id := l.AutoID
	l.Entries[id] = e
	l.AutoID++
	return id
}

// On returns all entries whose date equals date exactly. The order of the
// result is unspecified.
func (l *List) On(date Date) []Entry {
	result := make([]Entry, 0)
	for _, e := range l.Entries {
		if e.Date == date {
			result = append(result, e)
		}
	}
	return result
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.Entries)
}

// Clone returns a deep copy of l.
func (l *List) Clone() List {
	c := List{AutoID: l.AutoID, Entries: make(map[uint64]Entry, len(l.Entries))}
	for id, e := range l.Entries {
		c.Entries[id] = e
	}
	return c
}

// Equal reports whether both lists have the same counter and the same entries.
func (l *List) Equal(other List) bool {
	if l.AutoID != other.AutoID || len(l.Entries) != len(other.Entries) {
		return false
	}
	for id, e := range l.Entries {
		if o, ok := other.Entries[id]; !ok || o != e {
			return false
		}
	}
	return true
}

// ---- Snapshot codec ----

// Marshal encodes l as a snapshot document.
func (l *List) Marshal() ([]byte, error) {
	entries := l.Entries
	if entries == nil {
		entries = map[uint64]Entry{}
	}
	return json.Marshal(List{AutoID: l.AutoID, Entries: entries})
}

// Unmarshal decodes a snapshot document. Snapshots that would let the counter
// hand out an existing id again are rejected.
func Unmarshal(data []byte) (List, error) {
	var l List
	if err := json.Unmarshal(data, &l); err != nil {
		return List{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if l.Entries == nil {
		l.Entries = make(map[uint64]Entry)
	}
	for id, e := range l.Entries {
		if id >= l.AutoID {
			return List{}, fmt.Errorf("decode snapshot: entry id %d not below auto_id %d", id, l.AutoID)
		}
		if e.Date.IsZero() {
			return List{}, fmt.Errorf("decode snapshot: entry %d has no date", id)
		}
	}
	return l, nil
}
