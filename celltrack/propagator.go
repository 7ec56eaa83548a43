package celltrack

// parentLink is a propagated parent candidate with precomputed intersection area
type parentLink struct {
	ref       CellRef
	interArea float64
}

// propagate adds every resolved cell of frame `from` as parent candidate to each cell of frame `to`
// overlapping it by more than MinIntersectionArea. Mothers of recorded divisions are skipped:
// the target frame is always past their division frame.
func (tracker *Tracker) propagate(from, to int) int {
	if to <= from || to-from > tracker.cfg.Linkrange {
		return 0
	}
	source := tracker.seq.Frame(from)
	target := tracker.seq.Frame(to)
	if source == nil || target == nil {
		return 0
	}
	geometry := tracker.seq.geometry
	added := 0
	for _, parent := range source.cells {
		if !parent.Resolved() || parent.division != nil {
			continue
		}
		for _, child := range target.cells {
			if !parent.bound.Intersects(child.bound) {
				continue
			}
			interArea := geometry.IntersectionArea(parent.polygon, child.polygon)
			if interArea <= tracker.cfg.MinIntersectionArea {
				continue
			}
			child.parents = append(child.parents, parentLink{ref: parent.ref, interArea: interArea})
			added++
		}
	}
	return added
}

// checkBrothers tags cells of finalized frame t sitting on a daughter track whose sibling track ended at t-1
func (tracker *Tracker) checkBrothers(t int) {
	frame := tracker.seq.Frame(t)
	for _, cell := range frame.cells {
		if !cell.Resolved() || cell.errorTag != TagDefault {
			continue
		}
		ended, eliminated := tracker.siblingEnded(cell, t)
		if !ended {
			continue
		}
		if eliminated {
			cell.setTag(TagBrotherCellEliminated)
		} else {
			cell.setTag(TagBrotherCellNotFound)
		}
	}
}

// siblingEnded reports whether the sibling track of the cell has its last cell at frame t-1 without successor
func (tracker *Tracker) siblingEnded(cell *Cell, t int) (ended bool, eliminated bool) {
	origin := tracker.trackOrigin(cell)
	if origin == nil {
		return false, false
	}
	sibling := tracker.seq.Cell(origin.Sibling(cell.first))
	if sibling == nil {
		return false, false
	}
	headRef, ok := tracker.lineage.head(sibling.trackID)
	if !ok || headRef.Frame != t-1 {
		return false, false
	}
	head := tracker.seq.Cell(headRef)
	if head.next.Valid() || head.division != nil {
		return false, false
	}
	return true, head.elimination != nil || head.errorTag == TagEliminatedInNextFrame
}
