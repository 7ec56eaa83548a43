package celltrack

import (
	"math"
)

// solveAssignment returns the column assigned to every row of a square cost matrix so that total cost is minimal.
// Kuhn-Munkres with row/column potentials and shortest augmenting paths, O(n^3).
// Entries must be finite.
func solveAssignment(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	// Index 0 is a virtual column used as the root of every augmenting path
	rowPotential := make([]float64, n+1)
	colPotential := make([]float64, n+1)
	// owner[j] is 1-based row matched to column j, 0 when column is free
	owner := make([]int, n+1)
	way := make([]int, n+1)
	minSlack := make([]float64, n+1)
	used := make([]bool, n+1)
	for row := 1; row <= n; row++ {
		owner[0] = row
		col := 0
		for j := 0; j <= n; j++ {
			minSlack[j] = math.Inf(1)
			used[j] = false
		}
		for {
			used[col] = true
			current := owner[col]
			delta := math.Inf(1)
			nextCol := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				slack := cost[current-1][j-1] - rowPotential[current] - colPotential[j]
				if slack < minSlack[j] {
					minSlack[j] = slack
					way[j] = col
				}
				if minSlack[j] < delta {
					delta = minSlack[j]
					nextCol = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					rowPotential[owner[j]] += delta
					colPotential[j] -= delta
				} else {
					minSlack[j] -= delta
				}
			}
			col = nextCol
			if owner[col] == 0 {
				break
			}
		}
		// Flip the augmenting path
		for col != 0 {
			prev := way[col]
			owner[col] = owner[prev]
			col = prev
		}
	}
	assignment := make([]int, n)
	for j := 1; j <= n; j++ {
		if owner[j] != 0 {
			assignment[owner[j]-1] = j - 1
		}
	}
	return assignment
}
