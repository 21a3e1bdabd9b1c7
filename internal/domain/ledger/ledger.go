// Package ledger holds the in-memory form of one ranking post: a header and
// the graded entries kept in descending order.
package ledger

import (
	"slices"
	"sort"
)

// DefaultScale is the grading ceiling used when none is given.
const DefaultScale = 20

// Entry is one graded line of a ranking. Position is derived from the
// entry's index and rewritten after every mutation.
type Entry struct {
	Position int
	Grade    Grade
}

// Header is the fixed part of a ranking post.
type Header struct {
	Sequence uint64
	Title    string
	Scale    float64
	Count    int
}

// Ledger is a ranking post decoded from its message body.
type Ledger struct {
	Sequence uint64
	Title    string
	Scale    float64
	Entries  []Entry
}

// New returns an empty ledger for the ranking with the given sequence.
func New(sequence uint64, title string, scale float64) *Ledger {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Ledger{
		Sequence: sequence,
		Title:    title,
		Scale:    scale,
		Entries:  []Entry{},
	}
}

// Len returns the number of entries.
func (l *Ledger) Len() int { return len(l.Entries) }

// Header returns the header as rendered on top of the entry list.
func (l *Ledger) Header() Header {
	return Header{
		Sequence: l.Sequence,
		Title:    l.Title,
		Scale:    l.Scale,
		Count:    len(l.Entries),
	}
}

// Insert places g before the first entry with a strictly smaller value, so
// equal grades keep their arrival order. It returns the 1-based position.
func (l *Ledger) Insert(g Grade) int {
	i := 0
	for i < len(l.Entries) && l.Entries[i].Grade.Value >= g.Value {
		i++
	}
	l.Entries = slices.Insert(l.Entries, i, Entry{Grade: g})
	l.renumber(i)
	return i + 1
}

// RemoveByGrade deletes the first entry, scanning from the top, whose
// rendered grade equals text exactly. It reports whether one was removed.
func (l *Ledger) RemoveByGrade(text string) bool {
	i := slices.IndexFunc(l.Entries, func(e Entry) bool { return e.Grade.Text == text })
	if i < 0 {
		return false
	}
	l.Entries = slices.Delete(l.Entries, i, i+1)
	l.renumber(i)
	return true
}

func (l *Ledger) renumber(from int) {
	for j := from; j < len(l.Entries); j++ {
		l.Entries[j].Position = j + 1
	}
}

// Summary describes the distribution of grades in a ledger.
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
}

// Summary computes count, extremes, mean and median of the entries.
func (l *Ledger) Summary() Summary {
	n := len(l.Entries)
	if n == 0 {
		return Summary{}
	}
	values := make([]float64, n)
	var sum float64
	for i, e := range l.Entries {
		values[i] = e.Grade.Value
		sum += e.Grade.Value
	}
	sort.Float64s(values)

	median := values[n/2]
	if n%2 == 0 {
		median = (values[n/2-1] + values[n/2]) / 2
	}
	return Summary{
		Count:  n,
		Min:    values[0],
		Max:    values[n-1],
		Mean:   sum / float64(n),
		Median: median,
	}
}
