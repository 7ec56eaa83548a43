package celltrack

import (
	"sort"
)

// StableMatching is Gale-Shapley deferred acceptance with grooms proposing.
// Each free groom proposes to its best remaining bride; a bride keeps whichever proposer has the lower score.
// Result is stable but biased toward groom preference and not guaranteed to have minimal total cost.
type StableMatching struct{}

// NewStableMatching creates new instance of StableMatching
func NewStableMatching() *StableMatching {
	return &StableMatching{}
}

// Match implements Matcher
func (m *StableMatching) Match(problem *MatchProblem) *MatchResult {
	// Preference lists of grooms, best bride first
	groomHeaps := make(map[CellRef]*scoreHeap)
	// Scores seen by brides
	brideScores := make(map[CellRef]map[CellRef]float64)
	for _, edge := range problem.Edges {
		scores, ok := brideScores[edge.Bride]
		if !ok {
			scores = make(map[CellRef]float64)
			brideScores[edge.Bride] = scores
		}
		if prev, seen := scores[edge.Groom]; seen && prev <= edge.Score {
			continue
		}
		scores[edge.Groom] = edge.Score
		h, ok := groomHeaps[edge.Groom]
		if !ok {
			h = &scoreHeap{}
			groomHeaps[edge.Groom] = h
		}
		h.Push(scoredRef{ref: edge.Bride, score: edge.Score})
	}
	groomPrefs := make(map[CellRef][]scoredRef, len(groomHeaps))
	for groom, h := range groomHeaps {
		groomPrefs[groom] = dedupePrefs(h.drain())
	}

	free := make([]CellRef, 0, len(problem.Grooms))
	for _, groom := range problem.Grooms {
		if len(groomPrefs[groom]) > 0 {
			free = append(free, groom)
		}
	}
	sort.Slice(free, func(i, j int) bool { return free[i].less(free[j]) })

	nextProposal := make(map[CellRef]int, len(free))
	engaged := make(map[CellRef]CellRef)
	for len(free) > 0 {
		groom := free[0]
		free = free[1:]
		prefs := groomPrefs[groom]
		if nextProposal[groom] >= len(prefs) {
			// Exhausted its list: stays single
			continue
		}
		bride := prefs[nextProposal[groom]].ref
		nextProposal[groom]++
		current, taken := engaged[bride]
		if !taken {
			engaged[bride] = groom
			continue
		}
		if bridePrefers(brideScores[bride], groom, current) {
			engaged[bride] = groom
			free = append(free, current)
		} else {
			free = append(free, groom)
		}
	}

	pairs := make([]Pair, 0, len(engaged))
	for bride, groom := range engaged {
		pairs = append(pairs, Pair{Groom: groom, Bride: bride, Score: brideScores[bride][groom]})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Bride.less(pairs[j].Bride) })
	return leftovers(problem, pairs)
}

// bridePrefers returns true if challenger beats current holder
func bridePrefers(scores map[CellRef]float64, challenger, current CellRef) bool {
	if scores[challenger] != scores[current] {
		return scores[challenger] < scores[current]
	}
	return challenger.less(current)
}

// dedupePrefs keeps first (best) occurrence of every bride
func dedupePrefs(sorted []scoredRef) []scoredRef {
	seen := make(map[CellRef]struct{}, len(sorted))
	out := sorted[:0]
	for _, item := range sorted {
		if _, ok := seen[item.ref]; ok {
			continue
		}
		seen[item.ref] = struct{}{}
		out = append(out, item)
	}
	return out
}
