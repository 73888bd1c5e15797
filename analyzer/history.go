package analyzer

import (
	"time"

	"github.com/arloliu/go-plantnet/internal/ring"
	"github.com/arloliu/go-plantnet/internal/util"
	"github.com/arloliu/go-plantnet/process"
)

// HistoryEntry is one complete sample: the time since connect and the six process values.
type HistoryEntry struct {
	Elapsed time.Duration
	Values  process.Values
}

// History is a bounded FIFO of complete samples.
//
// An entry carries the time and every series value, so all series always share one length.
// History is not goroutine-safe. The Client's monitor loop is its only writer.
type History struct {
	entries *ring.Ring[HistoryEntry]
}

// NewHistory creates a history keeping the last capacity entries.
func NewHistory(capacity int) *History {
	return &History{entries: ring.New[HistoryEntry](capacity)}
}

// Append adds one entry, evicting the oldest one when full. It reports whether an entry was evicted.
func (h *History) Append(elapsed time.Duration, values process.Values) bool {
	return h.entries.Push(HistoryEntry{Elapsed: elapsed, Values: values})
}

// Len returns the number of entries.
func (h *History) Len() int { return h.entries.Len() }

// Cap returns the capacity.
func (h *History) Cap() int { return h.entries.Cap() }

// Entries returns a copy of the entries, oldest first.
func (h *History) Entries() []HistoryEntry { return h.entries.Items() }

// Snapshot returns the history in columnar form.
func (h *History) Snapshot() HistorySnapshot {
	n := h.entries.Len()
	s := HistorySnapshot{
		Time:   make([]float64, 0, n),
		Series: make(map[process.Variable][]float64, process.NumVariables),
	}
	for _, v := range process.Variables() {
		s.Series[v] = make([]float64, 0, n)
	}

	h.entries.Each(func(e HistoryEntry) {
		s.Time = append(s.Time, e.Elapsed.Seconds())
		for _, v := range process.Variables() {
			s.Series[v] = append(s.Series[v], e.Values[v])
		}
	})

	return s
}

// HistorySnapshot is the columnar copy of a History: a time axis in seconds since connect and one
// series per variable, all of equal length.
type HistorySnapshot struct {
	Time   []float64                      `json:"time"`
	Series map[process.Variable][]float64 `json:"series"`
}

// Len returns the number of entries.
func (s HistorySnapshot) Len() int { return len(s.Time) }

// Column returns a copy of the series of v.
func (s HistorySnapshot) Column(v process.Variable) []float64 {
	return util.CloneSlice(s.Series[v], 0)
}
