package celltrack

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportKinematics(t *testing.T) {
	frames := make([][]orb.Polygon, 0, 4)
	for f := 0; f < 4; f++ {
		frames = append(frames, []orb.Polygon{NewRectPolygon(2*float64(f), 0, 10, 10)})
	}
	seq := chainSequence(t, frames...)
	report := runSequence(t, newTestTracker(t, nil), seq)

	require.Len(t, report.Summary, 1)
	summary := report.Summary[0]
	assert.Equal(t, 0, summary.TrackID)
	assert.Equal(t, 4, summary.Length)
	assert.Equal(t, CellRef{Frame: 0, Slot: 0}, summary.First)
	assert.Equal(t, CellRef{Frame: 3, Slot: 0}, summary.Last)
	assert.Equal(t, NoTrack, summary.Parent)
	assert.False(t, summary.Divided)
	assert.False(t, summary.Eliminated)
	assert.InDelta(t, 11.0, summary.End[0], 0.5)
	assert.InDelta(t, 5.0, summary.End[1], 0.5)
	assert.InDelta(t, 2.0, summary.Speed, 0.5)

	assert.Equal(t, 4, report.Frames)
	assert.Equal(t, 4, report.Cells)
	assert.Equal(t, 1, report.Tracks)
	assert.Equal(t, 4, report.Tags[TagDefault.String()])
	assert.InDelta(t, 4.0, report.TrackLengthMean, eps)
	assert.InDelta(t, 0.0, report.TrackLengthStd, eps)
}

func TestReportStatistics(t *testing.T) {
	seq := chainSequence(t, driftingRow()...)
	tracker := newTestTracker(t, nil)
	report := runSequence(t, tracker, seq)

	// Tracks: 0 and 2 span all frames, 1 ends with division, 3 is eliminated, 4 and 5 are daughters
	assert.Equal(t, 6, report.Tracks)
	assert.Equal(t, 1, report.Divisions)
	assert.Equal(t, 1, report.Eliminations)
	assert.Equal(t, 0, report.Lost)
	assert.Equal(t, 1, report.Tags[TagDividingInNextFrame.String()])
	assert.Equal(t, 1, report.Tags[TagEliminatedInNextFrame.String()])
	assert.Equal(t, map[int]int{4: 1, 5: 1}, report.Parents)

	lengths := map[int]int{}
	for _, summary := range report.Summary {
		lengths[summary.TrackID] = summary.Length
		if summary.TrackID == 1 {
			assert.True(t, summary.Divided)
		}
		if summary.TrackID == 3 {
			assert.True(t, summary.Eliminated)
		}
	}
	assert.Equal(t, map[int]int{0: 5, 1: 2, 2: 5, 3: 3, 4: 3, 5: 3}, lengths)

	values := []float64{5, 2, 5, 3, 3, 3}
	mean := 21.0 / 6.0
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / float64(len(values)-1))
	assert.InDelta(t, mean, report.TrackLengthMean, eps)
	assert.InDelta(t, std, report.TrackLengthStd, eps)
}

func TestFinishWithoutSequence(t *testing.T) {
	report := newTestTracker(t, nil).Finish()
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Tracks)
}
