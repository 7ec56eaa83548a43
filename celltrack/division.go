package celltrack

import (
	"log/slog"

	"github.com/google/uuid"
)

// detectDivisions explains leftover brides of frame t as daughters of a neighboring, already matched mother.
// Remaining brides are tagged LostInPreviousFrame.
func (tracker *Tracker) detectDivisions(t int, result *MatchResult) {
	pending := make([]CellRef, len(result.Brides))
	copy(pending, result.Brides)
	for _, brideRef := range pending {
		bride := tracker.seq.Cell(brideRef)
		if bride == nil || bride.Resolved() {
			continue
		}
		sibling, mother := tracker.findSibling(bride, t)
		if sibling == nil {
			continue
		}
		tracker.divide(mother, bride, sibling, t)
		result.takeBride(bride.ref)
		result.dropPair(mother.ref, sibling.ref)
	}
	for _, brideRef := range result.Brides {
		bride := tracker.seq.Cell(brideRef)
		bride.setTag(TagLostInPreviousFrame)
		tracker.metrics.incLost("previous")
	}
}

// findSibling looks through the bride's neighbors for a cell whose predecessor (the mother) is in frame t-1,
// has not divided yet and covers the bride best. Both bride and sibling must be covered by the mother
// by at least CoverageFactor of their own area.
func (tracker *Tracker) findSibling(bride *Cell, t int) (*Cell, *Cell) {
	geometry := tracker.seq.geometry
	frame := tracker.seq.Frame(t)
	var bestSibling, bestMother *Cell
	bestInter := 0.0
	for _, candidate := range frame.Neighbors(bride.ref.Slot) {
		if !candidate.previous.Valid() || candidate.origin != nil {
			continue
		}
		mother := tracker.seq.Cell(candidate.previous)
		if mother == nil || mother.ref.Frame != t-1 || mother.division != nil || mother.next != candidate.ref {
			continue
		}
		interArea := geometry.IntersectionArea(bride.polygon, mother.polygon)
		if interArea > bestInter {
			bestInter = interArea
			bestSibling = candidate
			bestMother = mother
		}
	}
	if bestSibling == nil {
		return nil, nil
	}
	if coverage(bestInter, bride.area) < tracker.cfg.CoverageFactor {
		return nil, nil
	}
	siblingInter := geometry.IntersectionArea(bestSibling.polygon, bestMother.polygon)
	if coverage(siblingInter, bestSibling.area) < tracker.cfg.CoverageFactor {
		return nil, nil
	}
	return bestSibling, bestMother
}

// divide records Division(mother, bride, sibling): the sibling leaves mother's track and both daughters start
// fresh tracks with consecutive IDs. The mother keeps no successor.
func (tracker *Tracker) divide(mother, bride, sibling *Cell, t int) {
	tracker.unlink(mother, sibling)
	division := &Division{
		ID:        uuid.New(),
		Frame:     t,
		Mother:    mother.ref,
		Daughters: [2]CellRef{bride.ref, sibling.ref},
	}
	mother.division = division
	mother.setTag(TagDividingInNextFrame)
	firstID, secondID := tracker.lineage.allocatePair()
	for i, daughter := range []*Cell{bride, sibling} {
		trackID := firstID
		if i == 1 {
			trackID = secondID
		}
		tracker.startTrack(daughter, trackID)
		daughter.previous = mother.ref
		daughter.origin = division
	}
	tracker.divisions = append(tracker.divisions, division)
	tracker.metrics.incDivision()
	tracker.logger.Info("division detected",
		slog.Int("frame", t),
		slog.String("mother", mother.ref.String()),
		slog.Int("mother_track", mother.trackID),
		slog.Int("daughter_track_a", firstID),
		slog.Int("daughter_track_b", secondID),
	)
}
