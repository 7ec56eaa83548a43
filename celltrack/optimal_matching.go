package celltrack

import (
	"sort"
)

// nodeKind tells real cells apart from synthetic "stay unmatched" nodes of the optimal matching graph
type nodeKind uint8

const (
	nodeReal nodeKind = iota
	nodeDummy
)

// node is a vertex of the complete bipartite graph. For dummies ref is the real node the dummy stands in for.
type node struct {
	kind nodeKind
	ref  CellRef
}

// OptimalMatching solves minimum-weight perfect matching on a complete bipartite graph
// grooms ∪ {dummy groom per bride} x brides ∪ {dummy bride per groom}.
// A real node assigned to its dummy counterpart stays unmatched, hence total cost never exceeds
// the cost of leaving everyone unmatched. Cubic in number of nodes.
type OptimalMatching struct {
	// Cost of real node matched to its own dummy
	dummyPenalty float64
	// Cost of pair which has never been scored
	unscoredCost float64
}

// NewOptimalMatching creates new instance of OptimalMatching
func NewOptimalMatching(dummyPenalty, unscoredCost float64) *OptimalMatching {
	return &OptimalMatching{
		dummyPenalty: dummyPenalty,
		unscoredCost: unscoredCost,
	}
}

// Match implements Matcher
func (m *OptimalMatching) Match(problem *MatchProblem) *MatchResult {
	numGrooms := len(problem.Grooms)
	numBrides := len(problem.Brides)
	if numGrooms == 0 || numBrides == 0 || len(problem.Edges) == 0 {
		return leftovers(problem, nil)
	}

	rows, cols := m.nodes(problem)
	costMatrix := m.costMatrix(problem, rows, cols)
	assignment := solveAssignment(costMatrix)

	pairs := make([]Pair, 0, minInt(numGrooms, numBrides))
	for rowIdx, colIdx := range assignment {
		row, col := rows[rowIdx], cols[colIdx]
		if row.kind != nodeReal || col.kind != nodeReal {
			continue
		}
		cost := costMatrix[rowIdx][colIdx]
		if cost >= m.unscoredCost {
			continue
		}
		pairs = append(pairs, Pair{Groom: row.ref, Bride: col.ref, Score: cost})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Bride.less(pairs[j].Bride) })
	return leftovers(problem, pairs)
}

// nodes lays out matrix rows (grooms, then one dummy per bride) and columns (brides, then one dummy per groom)
func (m *OptimalMatching) nodes(problem *MatchProblem) ([]node, []node) {
	rows := make([]node, 0, len(problem.Grooms)+len(problem.Brides))
	cols := make([]node, 0, len(problem.Grooms)+len(problem.Brides))
	for _, groom := range problem.Grooms {
		rows = append(rows, node{kind: nodeReal, ref: groom})
	}
	for _, bride := range problem.Brides {
		rows = append(rows, node{kind: nodeDummy, ref: bride})
	}
	for _, bride := range problem.Brides {
		cols = append(cols, node{kind: nodeReal, ref: bride})
	}
	for _, groom := range problem.Grooms {
		cols = append(cols, node{kind: nodeDummy, ref: groom})
	}
	return rows, cols
}

func (m *OptimalMatching) costMatrix(problem *MatchProblem, rows, cols []node) [][]float64 {
	scores := make(map[[2]CellRef]float64, len(problem.Edges))
	for _, edge := range problem.Edges {
		key := [2]CellRef{edge.Groom, edge.Bride}
		if prev, ok := scores[key]; ok && prev <= edge.Score {
			continue
		}
		scores[key] = edge.Score
	}
	size := len(rows)
	costMatrix := make([][]float64, size)
	for i, row := range rows {
		costMatrix[i] = make([]float64, size)
		for j, col := range cols {
			costMatrix[i][j] = m.edgeCost(scores, row, col)
		}
	}
	return costMatrix
}

func (m *OptimalMatching) edgeCost(scores map[[2]CellRef]float64, row, col node) float64 {
	switch {
	case row.kind == nodeReal && col.kind == nodeReal:
		score, ok := scores[[2]CellRef{row.ref, col.ref}]
		if !ok || score >= m.unscoredCost {
			return m.unscoredCost
		}
		if score < 0 {
			return 0
		}
		return score
	case row.kind == nodeReal && col.kind == nodeDummy:
		// Groom may only stay single via its own dummy bride
		if row.ref == col.ref {
			return m.dummyPenalty
		}
		return m.unscoredCost
	case row.kind == nodeDummy && col.kind == nodeReal:
		if row.ref == col.ref {
			return m.dummyPenalty
		}
		return m.unscoredCost
	default:
		// Dummy to dummy is free
		return 0
	}
}
