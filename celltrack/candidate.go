package celltrack

import (
	"math"
)

// CandidateScore combines centroid distance and normalized overlap of a predecessor/successor pair
// separated by dt frames. Lower is better. Zero overlap or dt < 1 gives +Inf.
//
//	score = (lambda1*distance + lambda2/overlap) * (1 - timeMultiplier/dt)
func CandidateScore(cfg Config, distance, overlap float64, dt int) float64 {
	if overlap <= 0 || dt < 1 {
		return math.Inf(1)
	}
	timeWeight := 1.0 - cfg.TimeMultiplier/float64(dt)
	return (cfg.Lambda1*distance + cfg.Lambda2*(1.0/overlap)) * timeWeight
}

// score evaluates one propagated parent against the successor
func (tracker *Tracker) score(parent *Cell, link parentLink, successor *Cell) float64 {
	overlap := normalizedOverlap(link.interArea, parent.area, successor.area)
	distance := tracker.seq.geometry.Distance(parent.centroid, successor.centroid)
	return CandidateScore(tracker.cfg, distance, overlap, successor.ref.Frame-parent.ref.Frame)
}

// evaluate turns propagated parents of frame t into one best candidate per lineage and builds the matching problem.
// Duplicates of a lineage appear when the lookahead window spans several frames; the lowest score wins and the
// lineage is represented by its head.
func (tracker *Tracker) evaluate(t int) *MatchProblem {
	frame := tracker.seq.Frame(t)
	problem := &MatchProblem{
		Grooms: tracker.eligibleHeads(t),
		Brides: make([]CellRef, 0, len(frame.cells)),
		Edges:  make([]Edge, 0),
	}
	for _, successor := range frame.cells {
		successor.candidates = tracker.evaluateCell(successor, t)
		successor.parents = nil
		if len(successor.candidates) == 0 {
			if tracker.unexplained(successor) {
				problem.Brides = append(problem.Brides, successor.ref)
			}
			continue
		}
		problem.Brides = append(problem.Brides, successor.ref)
		for _, candidate := range successor.candidates {
			problem.Edges = append(problem.Edges, Edge{
				Groom: candidate.Predecessor,
				Bride: successor.ref,
				Score: candidate.Score,
			})
		}
	}
	return problem
}

// evaluateCell groups parents of the successor by track and keeps the best score of each group
func (tracker *Tracker) evaluateCell(successor *Cell, t int) []Candidate {
	if len(successor.parents) == 0 {
		return nil
	}
	best := make(map[int]scoredRef, len(successor.parents))
	for _, link := range successor.parents {
		parent := tracker.seq.Cell(link.ref)
		if parent == nil || !parent.Resolved() {
			continue
		}
		if t-parent.ref.Frame > tracker.cfg.Linkrange {
			continue
		}
		headRef, ok := tracker.lineage.head(parent.trackID)
		if !ok || !tracker.headEligible(headRef, t) {
			continue
		}
		score := tracker.score(parent, link, successor)
		if math.IsInf(score, 0) || math.IsNaN(score) {
			continue
		}
		if current, ok := best[parent.trackID]; ok && current.score <= score {
			continue
		}
		best[parent.trackID] = scoredRef{ref: headRef, trackID: parent.trackID, score: score}
	}
	h := make(scoreHeap, 0, len(best))
	for _, item := range best {
		h.Push(item)
	}
	sorted := h.drain()
	candidates := make([]Candidate, len(sorted))
	for i, item := range sorted {
		candidates[i] = Candidate{Predecessor: item.ref, TrackID: item.trackID, Score: item.score}
	}
	return candidates
}

// unexplained reports whether a successor without candidates counts as an unmatched bride:
// it must lie inside the region covered by frame 0 and not touch the border.
// Border cells without candidates are left alone: leaving the field of view is ambiguous.
func (tracker *Tracker) unexplained(cell *Cell) bool {
	if cell.boundary {
		return false
	}
	return tracker.fieldOfView.Contains(cell.centroid)
}
