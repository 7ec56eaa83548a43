package celltrack

import (
	"log/slog"
)

// RescueKind tells how a leftover predecessor got its successor back
type RescueKind string

const (
	// RescueSwap exchanges successors of two adjacent predecessors
	RescueSwap RescueKind = "swap"
	// RescueNeighborhood assigns an unmatched successor sharing most neighbor tracks
	RescueNeighborhood RescueKind = "neighborhood"
)

// swapOption is a possible reassignment: sn moves from n to g, u goes to n
type swapOption struct {
	n, sn, u *Cell
	score    float64
	forced   bool
}

// better returns true if option beats other. Forced swaps always win over scored ones
func (option *swapOption) better(other *swapOption) bool {
	if other == nil {
		return true
	}
	if option.forced != other.forced {
		return option.forced
	}
	return option.score > other.score
}

// rescue repairs swapped or locally lost correspondences of leftover grooms of frame t-1.
// Grooms which could not be rescued are tagged LostInNextFrame.
func (tracker *Tracker) rescue(t int, result *MatchResult) {
	pending := make([]CellRef, len(result.Grooms))
	copy(pending, result.Grooms)
	for _, groomRef := range pending {
		if groomRef.Frame != t-1 {
			// Older heads stay open for gap closing within the link range
			continue
		}
		groom := tracker.seq.Cell(groomRef)
		if groom == nil || groom.next.Valid() {
			continue
		}
		if groom.boundary {
			tracker.markLostInNext(groom)
			continue
		}
		if option := tracker.findSwap(groom, t, result); option != nil {
			tracker.applySwap(groom, option, result)
			continue
		}
		if bride := tracker.findNeighborhoodBride(groom, t, result); bride != nil {
			tracker.applyNeighborhood(groom, bride, result)
			continue
		}
		tracker.markLostInNext(groom)
	}
}

func (tracker *Tracker) markLostInNext(groom *Cell) {
	groom.setTag(TagLostInNextFrame)
	tracker.metrics.incLost("next")
	tracker.logger.Debug("cell lost in next frame",
		slog.String("cell", groom.ref.String()),
		slog.Int("track", groom.trackID),
		slog.Bool("boundary", groom.boundary),
	)
}

// findSwap inspects successors of the groom's neighbors for an adjacent unmatched bride
func (tracker *Tracker) findSwap(groom *Cell, t int, result *MatchResult) *swapOption {
	geometry := tracker.seq.geometry
	prevFrame := tracker.seq.Frame(t - 1)
	curFrame := tracker.seq.Frame(t)
	var best *swapOption
	for _, n := range prevFrame.Neighbors(groom.ref.Slot) {
		if !n.next.Valid() || n.next.Frame != t {
			continue
		}
		sn := curFrame.Cell(n.next.Slot)
		for _, u := range curFrame.Neighbors(sn.ref.Slot) {
			if !result.hasBride(u.ref) {
				continue
			}
			// u must fit n better than n's current successor while sn must fit the groom better than u
			if geometry.Distance(u.centroid, n.centroid) >= geometry.Distance(sn.centroid, n.centroid) {
				continue
			}
			if geometry.Distance(groom.centroid, sn.centroid) >= geometry.Distance(groom.centroid, u.centroid) {
				continue
			}
			option := &swapOption{
				n:      n,
				sn:     sn,
				u:      u,
				score:  tracker.overlapFit(u, n) + tracker.overlapFit(groom, sn),
				forced: tracker.swapConsistent(groom, n, sn, u),
			}
			if option.better(best) {
				best = option
			}
		}
	}
	return best
}

// swapConsistent reports whether after the swap both pairs see exactly the same neighbor tracks on both sides
func (tracker *Tracker) swapConsistent(groom, n, sn, u *Cell) bool {
	overrides := map[CellRef]int{
		sn.ref: groom.trackID,
		u.ref:  n.trackID,
	}
	groomSide := tracker.neighborTracks(groom, nil)
	snSide := tracker.neighborTracks(sn, overrides)
	if !sameTrackSets(groomSide, snSide) {
		return false
	}
	nSide := tracker.neighborTracks(n, nil)
	uSide := tracker.neighborTracks(u, overrides)
	return sameTrackSets(nSide, uSide)
}

// overlapFit is normalized overlap of two cells
func (tracker *Tracker) overlapFit(a, b *Cell) float64 {
	interArea := tracker.seq.geometry.IntersectionArea(a.polygon, b.polygon)
	return normalizedOverlap(interArea, a.area, b.area)
}

func (tracker *Tracker) applySwap(groom *Cell, option *swapOption, result *MatchResult) {
	tracker.unlink(option.n, option.sn)
	tracker.link(groom, option.sn)
	tracker.link(option.n, option.u)
	result.takeBride(option.u.ref)
	result.dropGroom(groom.ref)
	result.replacePair(option.n.ref, option.sn.ref, Pair{Groom: groom.ref, Bride: option.sn.ref})
	result.Pairs = append(result.Pairs, Pair{Groom: option.n.ref, Bride: option.u.ref})
	tracker.metrics.incRescue(RescueSwap)
	tracker.logger.Debug("swap rescue",
		slog.String("groom", groom.ref.String()),
		slog.String("neighbor", option.n.ref.String()),
		slog.String("taken", option.sn.ref.String()),
		slog.String("given", option.u.ref.String()),
		slog.Bool("forced", option.forced),
		slog.Float64("score", option.score),
	)
}

// findNeighborhoodBride picks the unmatched bride sharing the largest number of neighbor tracks with the groom.
// Requires strictly more than MinSharedNeighbors.
func (tracker *Tracker) findNeighborhoodBride(groom *Cell, t int, result *MatchResult) *Cell {
	prevFrame := tracker.seq.Frame(t - 1)
	curFrame := tracker.seq.Frame(t)
	groomTracks := tracker.neighborTracks(groom, nil)
	var best *Cell
	bestShared := tracker.cfg.MinSharedNeighbors
	seen := make(map[CellRef]struct{})
	for _, n := range prevFrame.Neighbors(groom.ref.Slot) {
		if !n.next.Valid() || n.next.Frame != t {
			continue
		}
		sn := curFrame.Cell(n.next.Slot)
		for _, u := range curFrame.Neighbors(sn.ref.Slot) {
			if _, ok := seen[u.ref]; ok {
				continue
			}
			seen[u.ref] = struct{}{}
			if !result.hasBride(u.ref) {
				continue
			}
			shared := tracker.sharedNeighborTracks(u, groomTracks)
			if shared > bestShared {
				best = u
				bestShared = shared
			}
		}
	}
	return best
}

// sharedNeighborTracks counts tracks of groom's neighbors found around the bride.
// A neighbor on a daughter track shares the track of its mother.
func (tracker *Tracker) sharedNeighborTracks(bride *Cell, groomTracks map[int]struct{}) int {
	frame := tracker.seq.Frame(bride.ref.Frame)
	shared := make(map[int]struct{})
	for _, neighbor := range frame.Neighbors(bride.ref.Slot) {
		if !neighbor.Resolved() {
			continue
		}
		if _, ok := groomTracks[neighbor.trackID]; ok {
			shared[neighbor.trackID] = struct{}{}
			continue
		}
		origin := tracker.trackOrigin(neighbor)
		if origin == nil {
			continue
		}
		mother := tracker.seq.Cell(origin.Mother)
		if _, ok := groomTracks[mother.trackID]; ok {
			shared[mother.trackID] = struct{}{}
		}
	}
	return len(shared)
}

func (tracker *Tracker) applyNeighborhood(groom, bride *Cell, result *MatchResult) {
	tracker.link(groom, bride)
	result.takeBride(bride.ref)
	result.dropGroom(groom.ref)
	result.Pairs = append(result.Pairs, Pair{Groom: groom.ref, Bride: bride.ref})
	tracker.metrics.incRescue(RescueNeighborhood)
	tracker.logger.Debug("neighborhood rescue",
		slog.String("groom", groom.ref.String()),
		slog.String("bride", bride.ref.String()),
	)
}
