// Package session keeps the short rolling history of recent analyses that a
// caller sees alongside each new result.
package session

import (
	"encoding/json"
	"time"

	"mission-backend/internal/scoring"
)

// MaxEntries is the number of analyses a history retains.
const MaxEntries = 5

// Entry is one remembered analysis.
type Entry struct {
	AnalysisID string         `json:"analysisId,omitempty"`
	Text       string         `json:"text"`
	Industry   string         `json:"industry"`
	Scores     scoring.Scores `json:"scores"`
	Overall    int            `json:"overall"`
	Advisory   bool           `json:"advisory"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Stats summarizes a history.
type Stats struct {
	Count   int `json:"count"`
	Average int `json:"average"`
	Best    int `json:"best"`
}

// History is an immutable list of entries, newest first. The zero value is
// an empty history.
type History struct {
	entries []Entry
}

// NewHistory builds a history from entries given newest first. Extra entries
// beyond MaxEntries are dropped.
func NewHistory(entries ...Entry) History {
	n := len(entries)
	if n > MaxEntries {
		n = MaxEntries
	}
	out := make([]Entry, n)
	copy(out, entries[:n])
	return History{entries: out}
}

// Append returns a new history with e at the front.
func (h History) Append(e Entry) History {
	next := make([]Entry, 0, MaxEntries)
	next = append(next, e)
	next = append(next, h.entries...)
	if len(next) > MaxEntries {
		next = next[:MaxEntries]
	}
	return History{entries: next}
}

// Entries returns a copy of the entries, newest first.
func (h History) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h History) Len() int { return len(h.entries) }

// Stats computes count, rounded average and best overall score.
func (h History) Stats() Stats {
	if len(h.entries) == 0 {
		return Stats{}
	}
	total, best := 0, 0
	for _, e := range h.entries {
		total += e.Overall
		if e.Overall > best {
			best = e.Overall
		}
	}
	n := len(h.entries)
	return Stats{Count: n, Average: (total + n/2) / n, Best: best}
}

// MarshalJSON encodes the history as {items, stats}.
func (h History) MarshalJSON() ([]byte, error) {
	items := h.entries
	if items == nil {
		items = []Entry{}
	}
	return json.Marshal(struct {
		Items []Entry `json:"items"`
		Stats Stats   `json:"stats"`
	}{Items: items, Stats: h.Stats()})
}

// UnmarshalJSON decodes the {items, stats} form. Stats are recomputed.
func (h *History) UnmarshalJSON(data []byte) error {
	var wire struct {
		Items []Entry `json:"items"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*h = NewHistory(wire.Items...)
	return nil
}
