package celltrack

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

// chainSequence builds sequence where cells of each frame are connected as a chain in given order
func chainSequence(t *testing.T, frames ...[]orb.Polygon) *Sequence {
	t.Helper()
	seq := NewSequence(nil)
	for _, polygons := range frames {
		frame := seq.AddFrame()
		for _, polygon := range polygons {
			frame.AddCell(polygon, false)
		}
		for i := 1; i < len(polygons); i++ {
			require.NoError(t, frame.Connect(i-1, i))
		}
	}
	return seq
}

func newTestTracker(t *testing.T, mutate func(cfg *Config), options ...Option) *Tracker {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	tracker, err := NewTracker(cfg, options...)
	require.NoError(t, err)
	return tracker
}

func runSequence(t *testing.T, tracker *Tracker, seq *Sequence) *Report {
	t.Helper()
	report, err := tracker.Run(context.Background(), seq)
	require.NoError(t, err)
	return report
}

func cellAt(seq *Sequence, frame, slot int) *Cell {
	return seq.Cell(CellRef{Frame: frame, Slot: slot})
}

// driftingRow is four 10x10 cells in a row moving right by one unit per frame.
// The second cell divides in frame 2, the fourth one disappears in frame 3.
func driftingRow() [][]orb.Polygon {
	frames := make([][]orb.Polygon, 0, 5)
	for f := 0; f < 5; f++ {
		shift := float64(f)
		cells := make([]orb.Polygon, 0, 5)
		cells = append(cells, NewRectPolygon(shift, 0, 10, 10))
		if f < 2 {
			cells = append(cells, NewRectPolygon(10+shift, 0, 10, 10))
		} else {
			cells = append(cells, NewRectPolygon(10+shift, 0, 5, 10), NewRectPolygon(15+shift, 0, 5, 10))
		}
		cells = append(cells, NewRectPolygon(20+shift, 0, 10, 10))
		if f < 3 {
			cells = append(cells, NewRectPolygon(30+shift, 0, 10, 10))
		}
		frames = append(frames, cells)
	}
	return frames
}
