package celltrack

import (
	"sort"
)

// lineage keeps per-track bookkeeping: the most recent cell of every track and the ID allocator
type lineage struct {
	// Most recent cell of each track
	heads       map[int]CellRef
	nextTrackID int
}

func newLineage() *lineage {
	return &lineage{
		heads:       make(map[int]CellRef),
		nextTrackID: 0,
	}
}

func (l *lineage) allocate() int {
	id := l.nextTrackID
	l.nextTrackID++
	return id
}

// allocatePair returns two fresh consecutive track IDs
func (l *lineage) allocatePair() (int, int) {
	first := l.allocate()
	second := l.allocate()
	return first, second
}

func (l *lineage) head(trackID int) (CellRef, bool) {
	ref, ok := l.heads[trackID]
	return ref, ok
}

// startTrack gives the cell a fresh track with itself as first cell
func (tracker *Tracker) startTrack(cell *Cell, trackID int) {
	cell.trackID = trackID
	cell.first = cell.ref
	tracker.lineage.heads[trackID] = cell.ref
}

// link makes successor continue predecessor's track
func (tracker *Tracker) link(predecessor, successor *Cell) {
	predecessor.next = successor.ref
	if predecessor.errorTag == TagLostInNextFrame {
		// Closed a gap: the predecessor is no longer lost
		predecessor.setTag(TagDefault)
	}
	successor.previous = predecessor.ref
	successor.trackID = predecessor.trackID
	successor.first = predecessor.first
	tracker.lineage.heads[predecessor.trackID] = successor.ref
}

// unlink reverts link: predecessor becomes head of its track again
func (tracker *Tracker) unlink(predecessor, successor *Cell) {
	predecessor.next = NoCell
	successor.previous = NoCell
	successor.trackID = NoTrack
	successor.first = NoCell
	tracker.lineage.heads[predecessor.trackID] = predecessor.ref
}

// eligibleHeads returns heads which may still receive a successor in frame t, ordered by reference
func (tracker *Tracker) eligibleHeads(t int) []CellRef {
	heads := make([]CellRef, 0, len(tracker.lineage.heads))
	for _, ref := range tracker.lineage.heads {
		if tracker.headEligible(ref, t) {
			heads = append(heads, ref)
		}
	}
	sort.Slice(heads, func(i, j int) bool { return heads[i].less(heads[j]) })
	return heads
}

// headEligible checks window, open end and absence of division
func (tracker *Tracker) headEligible(ref CellRef, t int) bool {
	if ref.Frame >= t || t-ref.Frame > tracker.cfg.Linkrange {
		return false
	}
	head := tracker.seq.Cell(ref)
	if head == nil {
		return false
	}
	return !head.next.Valid() && head.division == nil
}

// trackOrigin returns division which started the track the cell is on, or nil
func (tracker *Tracker) trackOrigin(cell *Cell) *Division {
	first := tracker.seq.Cell(cell.first)
	if first == nil {
		return nil
	}
	return first.origin
}

// neighborTracks collects track IDs of the cell's neighbors. overrides replaces track IDs of specific cells
func (tracker *Tracker) neighborTracks(cell *Cell, overrides map[CellRef]int) map[int]struct{} {
	frame := tracker.seq.Frame(cell.ref.Frame)
	tracks := make(map[int]struct{}, len(cell.neighbors))
	for _, neighbor := range frame.Neighbors(cell.ref.Slot) {
		trackID := neighbor.trackID
		if override, ok := overrides[neighbor.ref]; ok {
			trackID = override
		}
		if trackID == NoTrack {
			continue
		}
		tracks[trackID] = struct{}{}
	}
	return tracks
}

func sameTrackSets(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
