package celltrack

// normalizedOverlap calculates intersection area divided by the sum of both areas.
// Identical shapes give 0.5, disjoint or degenerate shapes give 0.
func normalizedOverlap(interArea, areaA, areaB float64) float64 {
	if interArea <= 0 {
		return 0.0
	}
	denominator := areaA + areaB
	if denominator <= 0 {
		return 0.0
	}
	return interArea / denominator
}

// coverage returns share of the cell area lying inside of some other region
func coverage(interArea, area float64) float64 {
	if area <= 0 || interArea <= 0 {
		return 0.0
	}
	return interArea / area
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
