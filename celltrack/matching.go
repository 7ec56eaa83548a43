package celltrack

import (
	"strings"

	"github.com/pkg/errors"
)

// MatchingAlgorithm is for algorithm type for matching predecessors to successors
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmStable uses Gale-Shapley deferred acceptance: cheap, not guaranteed globally optimal
	MatchingAlgorithmStable MatchingAlgorithm = iota
	// MatchingAlgorithmOptimal uses the Hungarian algorithm (Kuhn-Munkres) for minimum total cost
	MatchingAlgorithmOptimal
)

// ParseMatchingAlgorithm converts configuration name to algorithm
func ParseMatchingAlgorithm(name string) (MatchingAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "stable", "":
		return MatchingAlgorithmStable, nil
	case "optimal", "hungarian":
		return MatchingAlgorithmOptimal, nil
	default:
		return 0, errors.Wrapf(ErrUnknownAlgorithm, "%q", name)
	}
}

func (algorithm MatchingAlgorithm) String() string {
	switch algorithm {
	case MatchingAlgorithmStable:
		return "stable"
	case MatchingAlgorithmOptimal:
		return "optimal"
	default:
		return "unknown"
	}
}

// Edge is a scored (groom, bride) pair. Lower score is better.
type Edge struct {
	Groom CellRef
	Bride CellRef
	Score float64
}

// MatchProblem is one frame transition: lineage heads (grooms), unmatched successors (brides) and scored edges between them.
type MatchProblem struct {
	Grooms []CellRef
	Brides []CellRef
	Edges  []Edge
}

// Pair is an accepted (groom, bride) correspondence
type Pair struct {
	Groom CellRef
	Bride CellRef
	Score float64
}

// MatchResult holds accepted pairs and leftovers of both sides
type MatchResult struct {
	Pairs []Pair
	// Unmatched predecessors
	Grooms []CellRef
	// Unmatched successors
	Brides []CellRef
}

// Cost returns total score of accepted pairs
func (result *MatchResult) Cost() float64 {
	total := 0.0
	for _, pair := range result.Pairs {
		total += pair.Score
	}
	return total
}

// takeBride removes bride from leftovers. Returns false if it was not there
func (result *MatchResult) takeBride(ref CellRef) bool {
	for i, bride := range result.Brides {
		if bride == ref {
			result.Brides = append(result.Brides[:i], result.Brides[i+1:]...)
			return true
		}
	}
	return false
}

func (result *MatchResult) dropGroom(ref CellRef) {
	for i, groom := range result.Grooms {
		if groom == ref {
			result.Grooms = append(result.Grooms[:i], result.Grooms[i+1:]...)
			return
		}
	}
}

// replacePair swaps accepted pair (groom, bride) for another one. Missing pair means appending
func (result *MatchResult) replacePair(groom, bride CellRef, replacement Pair) {
	for i, pair := range result.Pairs {
		if pair.Groom == groom && pair.Bride == bride {
			result.Pairs[i] = replacement
			return
		}
	}
	result.Pairs = append(result.Pairs, replacement)
}

// dropPair removes accepted pair (groom, bride) if present
func (result *MatchResult) dropPair(groom, bride CellRef) {
	for i, pair := range result.Pairs {
		if pair.Groom == groom && pair.Bride == bride {
			result.Pairs = append(result.Pairs[:i], result.Pairs[i+1:]...)
			return
		}
	}
}

func (result *MatchResult) hasBride(ref CellRef) bool {
	for _, bride := range result.Brides {
		if bride == ref {
			return true
		}
	}
	return false
}

// Matcher resolves one frame transition
type Matcher interface {
	Match(problem *MatchProblem) *MatchResult
}

// NewMatcher creates matcher for the algorithm using thresholds from configuration
func NewMatcher(algorithm MatchingAlgorithm, cfg Config) Matcher {
	switch algorithm {
	case MatchingAlgorithmOptimal:
		return NewOptimalMatching(cfg.DummyPenalty, cfg.UnscoredCost)
	default:
		return NewStableMatching()
	}
}

// leftovers collects grooms and brides missing from accepted pairs, keeping problem order
func leftovers(problem *MatchProblem, pairs []Pair) *MatchResult {
	matchedGrooms := make(map[CellRef]struct{}, len(pairs))
	matchedBrides := make(map[CellRef]struct{}, len(pairs))
	for _, pair := range pairs {
		matchedGrooms[pair.Groom] = struct{}{}
		matchedBrides[pair.Bride] = struct{}{}
	}
	result := &MatchResult{
		Pairs:  pairs,
		Grooms: make([]CellRef, 0),
		Brides: make([]CellRef, 0),
	}
	for _, groom := range problem.Grooms {
		if _, ok := matchedGrooms[groom]; !ok {
			result.Grooms = append(result.Grooms, groom)
		}
	}
	for _, bride := range problem.Brides {
		if _, ok := matchedBrides[bride]; !ok {
			result.Brides = append(result.Brides, bride)
		}
	}
	return result
}
