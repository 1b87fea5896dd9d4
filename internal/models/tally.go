package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Tally counts labels and remembers the order in which each label was first
// added. The order is what breaks plurality ties, and it survives a JSON
// round trip. Copies share storage; use Clone for an independent tally.
type Tally struct {
	order  []string
	counts map[string]int
}

// LabelCount is one entry of a Tally.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// NewTally builds a tally from entries, in order.
func NewTally(entries ...LabelCount) Tally {
	var t Tally
	for _, e := range entries {
		t.Add(e.Label, e.Count)
	}
	return t
}

// Add adds n to label, registering the label on first sight.
func (t *Tally) Add(label string, n int) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, ok := t.counts[label]; !ok {
		t.order = append(t.order, label)
	}
	t.counts[label] += n
}

func (t *Tally) Inc(label string) { t.Add(label, 1) }

func (t Tally) Get(label string) int { return t.counts[label] }

func (t Tally) Has(label string) bool {
	_, ok := t.counts[label]
	return ok
}

func (t Tally) Len() int { return len(t.order) }

// Labels returns labels in first-seen order.
func (t Tally) Labels() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

func (t Tally) Total() int {
	total := 0
	for _, l := range t.order {
		total += t.counts[l]
	}
	return total
}

// Entries returns the entries in first-seen order.
func (t Tally) Entries() []LabelCount {
	out := make([]LabelCount, 0, len(t.order))
	for _, l := range t.order {
		out = append(out, LabelCount{Label: l, Count: t.counts[l]})
	}
	return out
}

// Sorted returns the entries by count descending. Equal counts keep
// first-seen order.
func (t Tally) Sorted() []LabelCount {
	out := t.Entries()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Top returns the plurality label. The earliest label wins a tie. An empty
// tally returns ("", 0).
func (t Tally) Top() (string, int) {
	best, bestCount := "", 0
	for i, l := range t.order {
		if c := t.counts[l]; i == 0 || c > bestCount {
			best, bestCount = l, c
		}
	}
	return best, bestCount
}

// Merge adds every entry of o, in o's order.
func (t *Tally) Merge(o Tally) {
	for _, l := range o.order {
		t.Add(l, o.counts[l])
	}
}

func (t Tally) Clone() Tally {
	var c Tally
	c.Merge(t)
	return c
}

// Map returns a plain copy of the counts.
func (t Tally) Map() map[string]int {
	out := make(map[string]int, len(t.order))
	for _, l := range t.order {
		out[l] = t.counts[l]
	}
	return out
}

// MarshalJSON writes an object whose keys follow first-seen order.
func (t Tally) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range t.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(l)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", t.counts[l])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping the document's key order. Fractional
// values are truncated.
func (t *Tally) UnmarshalJSON(data []byte) error {
	*t = Tally{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding tally: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decoding tally: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding tally: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decoding tally: unexpected key %v", tok)
		}
		var n float64
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("decoding tally value for %q: %w", key, err)
		}
		t.Add(key, int(n))
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding tally: %w", err)
	}
	return nil
}
