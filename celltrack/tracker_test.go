package celltrack

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrackerRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Linkrange = 0
	_, err := NewTracker(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestNewTrackerDefault(t *testing.T) {
	tracker := NewTrackerDefault()
	assert.Equal(t, DefaultConfig(), tracker.Config())
	assert.Equal(t, -1, tracker.Finalized())
}

func TestPersistence(t *testing.T) {
	for _, algorithm := range []string{"stable", "optimal"} {
		t.Run(algorithm, func(t *testing.T) {
			seq := chainSequence(t,
				[]orb.Polygon{NewRectPolygon(0, 0, 10, 10)},
				[]orb.Polygon{NewRectPolygon(0, 0, 10, 10)},
			)
			tracker := newTestTracker(t, func(cfg *Config) { cfg.Algorithm = algorithm })
			report := runSequence(t, tracker, seq)

			first, second := cellAt(seq, 0, 0), cellAt(seq, 1, 0)
			assert.Equal(t, 0, first.GetTrackID())
			assert.Equal(t, first.GetTrackID(), second.GetTrackID())
			assert.Equal(t, second.GetRef(), first.GetNext())
			assert.Equal(t, first.GetRef(), second.GetPrevious())
			assert.Equal(t, first.GetRef(), second.GetFirst())
			assert.Equal(t, TagDefault, first.GetErrorTag())
			assert.Equal(t, TagDefault, second.GetErrorTag())
			assert.Empty(t, tracker.Divisions())
			assert.Empty(t, tracker.Eliminations())
			assert.Equal(t, 1, report.Tracks)

			require.Len(t, second.GetCandidates(), 1)
			assert.InDelta(t, 1.0, second.GetCandidates()[0].Score, eps)
		})
	}
}

func TestElimination(t *testing.T) {
	square := NewRectPolygon(0, 0, 10, 10)
	seq := chainSequence(t,
		[]orb.Polygon{square},
		[]orb.Polygon{square},
		[]orb.Polygon{square},
		[]orb.Polygon{},
	)
	tracker := newTestTracker(t, nil)
	require.NoError(t, tracker.Attach(seq))
	ctx := context.Background()
	for frame := 0; frame < seq.Size(); frame++ {
		require.NoError(t, tracker.Step(ctx, frame))
	}
	last := cellAt(seq, 2, 0)
	assert.Equal(t, TagLostInNextFrame, last.GetErrorTag())
	assert.Nil(t, last.GetElimination())

	report := tracker.Finish()
	require.Len(t, tracker.Eliminations(), 1)
	elimination := tracker.Eliminations()[0]
	assert.Equal(t, last.GetRef(), elimination.Cell)
	assert.Equal(t, 2, elimination.Frame)
	assert.Equal(t, elimination, last.GetElimination())
	assert.Equal(t, TagEliminatedInNextFrame, last.GetErrorTag())
	assert.Equal(t, 1, report.Eliminations)

	// Second call must not record the elimination twice
	tracker.Finish()
	assert.Len(t, tracker.Eliminations(), 1)
}

func TestBoundaryCellIsNotEliminated(t *testing.T) {
	seq := NewSequence(nil)
	for frame := 0; frame < 2; frame++ {
		seq.AddFrame().AddCell(NewRectPolygon(0, 0, 10, 10), true)
	}
	seq.AddFrame()
	tracker := newTestTracker(t, nil)
	runSequence(t, tracker, seq)
	assert.Equal(t, TagLostInNextFrame, cellAt(seq, 1, 0).GetErrorTag())
	assert.Empty(t, tracker.Eliminations())
}

func TestGapClosing(t *testing.T) {
	square := NewRectPolygon(0, 0, 10, 10)
	frames := [][]orb.Polygon{{square}, {}, {square}, {square}}

	t.Run("within link range", func(t *testing.T) {
		seq := chainSequence(t, frames...)
		tracker := newTestTracker(t, nil)
		report := runSequence(t, tracker, seq)
		start, back := cellAt(seq, 0, 0), cellAt(seq, 2, 0)
		assert.Equal(t, start.GetTrackID(), back.GetTrackID())
		assert.Equal(t, start.GetRef(), back.GetPrevious())
		// Gap closed: not lost anymore
		assert.Equal(t, TagDefault, start.GetErrorTag())
		assert.Empty(t, tracker.Eliminations())
		require.Len(t, report.Summary, 1)
		assert.Equal(t, 3, report.Summary[0].Length)
	})

	t.Run("beyond link range", func(t *testing.T) {
		seq := chainSequence(t, frames...)
		tracker := newTestTracker(t, func(cfg *Config) { cfg.Linkrange = 1 })
		runSequence(t, tracker, seq)
		start, back := cellAt(seq, 0, 0), cellAt(seq, 2, 0)
		assert.Equal(t, NoTrack, back.GetTrackID())
		assert.Equal(t, TagLostInBothFrames, back.GetErrorTag())
		assert.Equal(t, TagEliminatedInNextFrame, start.GetErrorTag())
		require.Len(t, tracker.Eliminations(), 1)
	})
}

// enteringSequence: one persistent cell plus, in frame 1, a border cell and a cell far outside of frame 0.
// Neither of the newcomers overlaps anything.
func enteringSequence() *Sequence {
	seq := NewSequence(nil)
	first := seq.AddFrame()
	first.AddCell(NewRectPolygon(0, 0, 10, 10), false)
	first.AddCell(NewRectPolygon(30, 0, 10, 10), false)
	second := seq.AddFrame()
	second.AddCell(NewRectPolygon(0, 0, 10, 10), false)
	second.AddCell(NewRectPolygon(15, 2, 5, 5), true)
	second.AddCell(NewRectPolygon(100, 100, 10, 10), false)
	second.AddCell(NewRectPolygon(30, 0, 10, 10), false)
	return seq
}

func TestEnteringCellsAreExcluded(t *testing.T) {
	seq := enteringSequence()
	tracker := newTestTracker(t, nil)
	report := runSequence(t, tracker, seq)
	for _, slot := range []int{1, 2} {
		entering := cellAt(seq, 1, slot)
		assert.Equal(t, NoTrack, entering.GetTrackID(), "slot %d", slot)
		assert.False(t, entering.GetFirst().Valid())
		assert.False(t, entering.GetPrevious().Valid())
		assert.Equal(t, TagDefault, entering.GetErrorTag())
	}
	assert.Equal(t, 2, report.Tracks)
	assert.Equal(t, 0, report.Lost)
}

func TestAdmitEnteringStartsTracks(t *testing.T) {
	seq := enteringSequence()
	tracker := newTestTracker(t, func(cfg *Config) { cfg.AdmitEntering = true })
	report := runSequence(t, tracker, seq)
	ids := make([]int, 0, 2)
	for _, slot := range []int{1, 2} {
		entering := cellAt(seq, 1, slot)
		assert.Equal(t, entering.GetRef(), entering.GetFirst())
		assert.False(t, entering.GetPrevious().Valid())
		assert.Equal(t, TagDefault, entering.GetErrorTag())
		ids = append(ids, entering.GetTrackID())
	}
	assert.Equal(t, []int{2, 3}, ids)
	assert.Equal(t, 4, report.Tracks)
}

func TestPropagateStaysInsideWindow(t *testing.T) {
	square := NewRectPolygon(0, 0, 10, 10)
	seq := chainSequence(t, []orb.Polygon{square}, []orb.Polygon{square}, []orb.Polygon{square}, []orb.Polygon{square})
	tracker := newTestTracker(t, func(cfg *Config) { cfg.Linkrange = 2 })
	require.NoError(t, tracker.Attach(seq))
	require.NoError(t, tracker.Step(context.Background(), 0))

	assert.Equal(t, 0, tracker.propagate(0, 3))
	assert.Empty(t, cellAt(seq, 3, 0).parents)
	assert.Equal(t, 0, tracker.propagate(0, 0))

	require.Equal(t, 1, tracker.propagate(0, 2))
	target := cellAt(seq, 2, 0)
	require.Len(t, target.parents, 1)
	for _, link := range target.parents {
		assert.Equal(t, CellRef{Frame: 0, Slot: 0}, link.ref)
		assert.LessOrEqual(t, target.GetFrame()-link.ref.Frame, tracker.Config().Linkrange)
		assert.InDelta(t, 100.0, link.interArea, eps)
	}
}

func TestUnexplainedCellIsLostInPrevious(t *testing.T) {
	seq := chainSequence(t,
		[]orb.Polygon{NewRectPolygon(0, 0, 10, 10), NewRectPolygon(30, 0, 10, 10)},
		[]orb.Polygon{NewRectPolygon(0, 0, 10, 10), NewRectPolygon(30, 0, 10, 10), NewRectPolygon(15, 2, 5, 5)},
	)
	tracker := newTestTracker(t, nil)
	report := runSequence(t, tracker, seq)
	lost := cellAt(seq, 1, 2)
	assert.Equal(t, NoTrack, lost.GetTrackID())
	// Last frame: no chance to find out whether it has a successor
	assert.Equal(t, TagLostInPreviousFrame, lost.GetErrorTag())
	assert.Equal(t, 1, report.Lost)
}

func TestStepOrder(t *testing.T) {
	seq := chainSequence(t,
		[]orb.Polygon{NewRectPolygon(0, 0, 10, 10)},
		[]orb.Polygon{NewRectPolygon(0, 0, 10, 10)},
	)
	tracker := newTestTracker(t, nil)
	ctx := context.Background()
	assert.True(t, errors.Is(tracker.Step(ctx, 0), ErrEmptySequence))
	require.NoError(t, tracker.Attach(seq))
	assert.True(t, errors.Is(tracker.Step(ctx, 1), ErrFrameOrder))
	require.NoError(t, tracker.Step(ctx, 0))
	assert.True(t, errors.Is(tracker.Step(ctx, 0), ErrFrameOrder))
	require.NoError(t, tracker.Step(ctx, 1))
	assert.True(t, errors.Is(tracker.Step(ctx, 2), ErrFrameOrder))
	assert.Equal(t, 1, tracker.Finalized())
}

func TestAttachEmptySequence(t *testing.T) {
	tracker := newTestTracker(t, nil)
	assert.True(t, errors.Is(tracker.Attach(NewSequence(nil)), ErrEmptySequence))
	_, err := tracker.Run(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrEmptySequence))
}

func TestRunCancelled(t *testing.T) {
	seq := chainSequence(t, driftingRow()...)
	tracker := newTestTracker(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := tracker.Run(ctx, seq)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRerunIsIdempotent(t *testing.T) {
	seq := chainSequence(t, driftingRow()...)
	tracker := newTestTracker(t, nil)
	first := runSequence(t, tracker, seq)
	second := runSequence(t, tracker, seq)
	assert.Equal(t, first.Tracks, second.Tracks)
	assert.Equal(t, first.Tags, second.Tags)
	assert.Equal(t, first.Parents, second.Parents)
	assert.Len(t, tracker.Divisions(), 1)
	assert.Len(t, tracker.Eliminations(), 1)
}

func TestLineageInvariants(t *testing.T) {
	for _, algorithm := range []string{"stable", "optimal"} {
		t.Run(algorithm, func(t *testing.T) {
			seq := chainSequence(t, driftingRow()...)
			// Border cell without candidates
			entering := seq.Frame(2).AddCell(NewRectPolygon(100, 0, 10, 10), true)
			tracker := newTestTracker(t, func(cfg *Config) { cfg.Algorithm = algorithm })
			report := runSequence(t, tracker, seq)
			require.Equal(t, 1, report.Divisions)
			require.Equal(t, 1, report.Eliminations)
			cfg := tracker.Config()

			for _, frame := range seq.Frames() {
				seen := make(map[int]CellRef)
				for _, cell := range frame.Cells() {
					if cell.GetRef() == entering {
						assert.False(t, cell.Resolved())
						assert.Equal(t, TagDefault, cell.GetErrorTag())
						continue
					}
					require.True(t, cell.Resolved(), "cell %s", cell.GetRef())
					// Track-ID uniqueness within frame
					if other, ok := seen[cell.GetTrackID()]; ok {
						t.Errorf("track %d is carried by %s and %s", cell.GetTrackID(), other, cell.GetRef())
					}
					seen[cell.GetTrackID()] = cell.GetRef()

					// First-ancestor idempotence
					root := cell
					for steps := 0; root.GetPrevious().Valid(); steps++ {
						require.Less(t, steps, seq.Size(), "previous chain of %s does not terminate", cell.GetRef())
						root = seq.Cell(root.GetPrevious())
					}
					assert.Equal(t, 0, root.GetFrame())
					assert.Equal(t, root.GetRef(), root.GetFirst())
					first := seq.Cell(cell.GetFirst())
					require.NotNil(t, first)
					assert.Equal(t, first.GetRef(), first.GetFirst())
					assert.Equal(t, cell.GetTrackID(), first.GetTrackID())

					// Window boundedness
					if cell.GetPrevious().Valid() {
						assert.LessOrEqual(t, cell.GetFrame()-cell.GetPrevious().Frame, cfg.Linkrange)
					}
					// Candidates are represented by track heads, which are eligible only inside the window
					for _, candidate := range cell.GetCandidates() {
						assert.LessOrEqual(t, cell.GetFrame()-candidate.Predecessor.Frame, cfg.Linkrange)
					}
					assert.Empty(t, cell.parents)
				}
			}

			// Division coverage
			geometry := seq.Geometry()
			for _, division := range tracker.Divisions() {
				mother := seq.Cell(division.Mother)
				assert.False(t, mother.GetNext().Valid())
				assert.Equal(t, TagDividingInNextFrame, mother.GetErrorTag())
				for _, ref := range division.Daughters {
					daughter := seq.Cell(ref)
					inter := geometry.IntersectionArea(daughter.GetPolygon(), mother.GetPolygon())
					assert.GreaterOrEqual(t, inter/daughter.GetArea(), cfg.CoverageFactor)
				}
			}
		})
	}
}
