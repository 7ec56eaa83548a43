package celltrack

import (
	"log/slog"

	"github.com/google/uuid"
)

// reviewEliminations is the one-time post-pass over finalized frames:
// permanently lost inner cells become eliminations, brides never explained become lost in both frames,
// and brother tags are refreshed since siblings may have been eliminated just now.
func (tracker *Tracker) reviewEliminations() {
	last := tracker.finalized
	for t := 0; t <= last; t++ {
		frame := tracker.seq.Frame(t)
		for _, cell := range frame.cells {
			switch cell.errorTag {
			case TagLostInNextFrame:
				if cell.next.Valid() || cell.division != nil || cell.boundary || cell.elimination != nil {
					continue
				}
				tracker.eliminate(cell)
			case TagLostInPreviousFrame:
				if t < last {
					cell.setTag(TagLostInBothFrames)
				}
			}
		}
	}
	for t := 0; t <= last; t++ {
		for _, cell := range tracker.seq.Frame(t).cells {
			if cell.errorTag != TagBrotherCellNotFound {
				continue
			}
			if _, eliminated := tracker.siblingEnded(cell, t); eliminated {
				cell.setTag(TagBrotherCellEliminated)
			}
		}
	}
}

func (tracker *Tracker) eliminate(cell *Cell) {
	elimination := &Elimination{
		ID:    uuid.New(),
		Cell:  cell.ref,
		Frame: cell.ref.Frame,
	}
	cell.elimination = elimination
	cell.setTag(TagEliminatedInNextFrame)
	tracker.eliminations = append(tracker.eliminations, elimination)
	tracker.metrics.incElimination()
	tracker.logger.Debug("cell eliminated",
		slog.String("cell", cell.ref.String()),
		slog.Int("track", cell.trackID),
	)
}
