package analyzer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-plantnet/process"
)

func valuesOf(x float64) process.Values {
	var v process.Values
	for i := range v {
		v[i] = x + float64(i)
	}
	return v
}

func requireSynchronized(t *testing.T, s HistorySnapshot) {
	t.Helper()
	require.Len(t, s.Series, process.NumVariables)
	for v, series := range s.Series {
		require.Len(t, series, s.Len(), "series %s", v)
	}
}

func TestHistory_AppendKeepsSeriesSynchronized(t *testing.T) {
	require := require.New(t)

	h := NewHistory(DefaultHistorySize)
	s := h.Snapshot()
	require.Zero(s.Len())
	requireSynchronized(t, s)

	for i := 0; i < 10; i++ {
		require.False(h.Append(time.Duration(i)*100*time.Millisecond, valuesOf(float64(i))))
		requireSynchronized(t, h.Snapshot())
	}

	s = h.Snapshot()
	require.Equal(10, s.Len())
	require.InDelta(0.9, s.Time[9], 1e-9)
	require.Equal(9.0, s.Series[process.TempReactor][9])
	require.Equal(14.0, s.Series[process.Conductivity][9])
}

func TestHistory_CappedFIFO(t *testing.T) {
	require := require.New(t)

	h := NewHistory(DefaultHistorySize)
	for i := 0; i < 150; i++ {
		h.Append(time.Duration(i)*time.Second, valuesOf(float64(i)))
	}

	require.Equal(100, h.Len())
	require.Equal(100, h.Cap())

	s := h.Snapshot()
	requireSynchronized(t, s)
	require.Equal(100, s.Len())
	require.Equal(50.0, s.Time[0])
	require.Equal(149.0, s.Time[99])
	require.Equal(50.0, s.Series[process.TempReactor][0])

	entries := h.Entries()
	require.Len(entries, 100)
	require.Equal(50*time.Second, entries[0].Elapsed)
}

func TestHistorySnapshot_ColumnIsACopy(t *testing.T) {
	require := require.New(t)

	h := NewHistory(5)
	h.Append(time.Second, valuesOf(1))
	s := h.Snapshot()

	col := s.Column(process.TankLevel)
	col[0] = -1
	require.Equal(3.0, s.Series[process.TankLevel][0])
}

func TestHistorySnapshot_JSONUsesWireNames(t *testing.T) {
	require := require.New(t)

	h := NewHistory(5)
	h.Append(1500*time.Millisecond, valuesOf(1))

	data, err := json.Marshal(h.Snapshot())
	require.NoError(err)

	var got struct {
		Time   []float64            `json:"time"`
		Series map[string][]float64 `json:"series"`
	}
	require.NoError(json.Unmarshal(data, &got))
	require.Equal([]float64{1.5}, got.Time)
	require.Equal([]float64{1}, got.Series["temp_reactor"])
	require.Equal([]float64{6}, got.Series["conductividad"])
}
