package celltrack

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Geometry is the set of 2D primitives the tracker needs from cell outlines.
// Callers with their own geometry kernel pass it to NewSequence.
type Geometry interface {
	// Area returns the (non-negative) area of the polygon
	Area(polygon orb.Polygon) float64
	// Centroid returns the center of mass of the polygon
	Centroid(polygon orb.Polygon) orb.Point
	// IntersectionArea returns the area shared by two polygons
	IntersectionArea(a, b orb.Polygon) float64
	// Distance returns the distance between two points
	Distance(a, b orb.Point) float64
}

// PlanarGeometry implements Geometry on the Euclidean plane.
// Only the outer ring of each polygon is taken into account, holes are ignored.
// Intersection is exact for any pair of simple polygons: a convex operand is used
// as the clip region directly, otherwise the clip polygon is ear-clipped into triangles first.
type PlanarGeometry struct{}

// Area returns area of the outer ring
func (PlanarGeometry) Area(polygon orb.Polygon) float64 {
	return math.Abs(signedArea(outerRing(polygon)))
}

// Centroid returns centroid of the outer ring. Degenerate rings fall back to the center of their bounds.
func (PlanarGeometry) Centroid(polygon orb.Polygon) orb.Point {
	if len(polygon) == 0 {
		return orb.Point{}
	}
	ring := polygon[0]
	if signedArea(outerRing(polygon)) == 0 {
		return ring.Bound().Center()
	}
	centroid, _ := planar.CentroidArea(orb.Polygon{ring})
	return centroid
}

// Distance returns euclidean distance between two points
func (PlanarGeometry) Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// IntersectionArea returns area of a ∩ b. Degenerate input yields zero.
func (PlanarGeometry) IntersectionArea(a, b orb.Polygon) float64 {
	ra, rb := outerRing(a), outerRing(b)
	if len(ra) < 3 || len(rb) < 3 {
		return 0
	}
	if !a[0].Bound().Intersects(b[0].Bound()) {
		return 0
	}
	if isConvex(rb) {
		return math.Abs(signedArea(clipConvex(ra, rb)))
	}
	if isConvex(ra) {
		return math.Abs(signedArea(clipConvex(rb, ra)))
	}
	total := 0.0
	for _, triangle := range triangulate(rb) {
		total += math.Abs(signedArea(clipConvex(ra, triangle)))
	}
	return total
}

// NewRectPolygon creates axis-aligned rectangle polygon with top-left corner (x, y)
func NewRectPolygon(x, y, width, height float64) orb.Polygon {
	return NewPolygon(
		orb.Point{x, y},
		orb.Point{x + width, y},
		orb.Point{x + width, y + height},
		orb.Point{x, y + height},
	)
}

// NewPolygon creates single-ring polygon from given vertices. The ring is closed automatically.
func NewPolygon(points ...orb.Point) orb.Polygon {
	ring := make(orb.Ring, 0, len(points)+1)
	ring = append(ring, points...)
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}

// outerRing returns vertices of the first ring without the closing duplicate
func outerRing(polygon orb.Polygon) []orb.Point {
	if len(polygon) == 0 {
		return nil
	}
	ring := polygon[0]
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}
	points := make([]orb.Point, n)
	copy(points, ring[:n])
	return points
}

// signedArea is the shoelace formula. Positive for counter-clockwise rings (y axis up)
func signedArea(points []orb.Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		p, q := points[i], points[(i+1)%n]
		sum += p[0]*q[1] - q[0]*p[1]
	}
	return sum / 2.0
}

// cross returns z-component of (b-a)x(p-a): positive when p is to the left of a->b
func cross(a, b, p orb.Point) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

func reversed(points []orb.Point) []orb.Point {
	out := make([]orb.Point, len(points))
	for i := range points {
		out[len(points)-1-i] = points[i]
	}
	return out
}

func isConvex(points []orb.Point) bool {
	n := len(points)
	if n < 3 {
		return false
	}
	sign := 0.0
	for i := 0; i < n; i++ {
		c := cross(points[i], points[(i+1)%n], points[(i+2)%n])
		if c == 0 {
			continue
		}
		if sign == 0 {
			sign = c
			continue
		}
		if (c > 0) != (sign > 0) {
			return false
		}
	}
	return sign != 0
}

// clipConvex is Sutherland-Hodgman clipping of an arbitrary simple subject by a convex clip polygon.
// A concave subject may produce zero-width bridges in the output; they do not contribute to area.
func clipConvex(subject, clip []orb.Point) []orb.Point {
	if signedArea(clip) < 0 {
		clip = reversed(clip)
	}
	output := subject
	for i := range clip {
		if len(output) == 0 {
			break
		}
		a, b := clip[i], clip[(i+1)%len(clip)]
		input := output
		output = make([]orb.Point, 0, len(input)+2)
		for j := range input {
			cur := input[j]
			prev := input[(j+len(input)-1)%len(input)]
			curIn := cross(a, b, cur) >= 0
			prevIn := cross(a, b, prev) >= 0
			if curIn {
				if !prevIn {
					output = append(output, edgeCrossing(prev, cur, a, b))
				}
				output = append(output, cur)
			} else if prevIn {
				output = append(output, edgeCrossing(prev, cur, a, b))
			}
		}
	}
	return output
}

// edgeCrossing returns the point where segment p->q crosses the infinite line a->b.
// Caller guarantees p and q lie on different sides of the line.
func edgeCrossing(p, q, a, b orb.Point) orb.Point {
	d1 := cross(a, b, p)
	d2 := cross(a, b, q)
	t := d1 / (d1 - d2)
	return orb.Point{p[0] + t*(q[0]-p[0]), p[1] + t*(q[1]-p[1])}
}

// triangulate splits a simple polygon into triangles via ear clipping
func triangulate(points []orb.Point) [][]orb.Point {
	if signedArea(points) < 0 {
		points = reversed(points)
	}
	idx := make([]int, len(points))
	for i := range idx {
		idx[i] = i
	}
	triangles := make([][]orb.Point, 0, len(points)-2)
	for guard := 0; len(idx) > 3 && guard < len(points)*len(points); guard++ {
		earFound := false
		for i := range idx {
			prev := points[idx[(i+len(idx)-1)%len(idx)]]
			cur := points[idx[i]]
			next := points[idx[(i+1)%len(idx)]]
			if cross(prev, cur, next) <= 0 {
				continue
			}
			if anyInsideTriangle(points, idx, prev, cur, next) {
				continue
			}
			triangles = append(triangles, []orb.Point{prev, cur, next})
			idx = append(idx[:i], idx[i+1:]...)
			earFound = true
			break
		}
		if !earFound {
			break
		}
	}
	// Remainder (a triangle, or a degenerate leftover) is fanned
	for i := 1; i+1 < len(idx); i++ {
		triangles = append(triangles, []orb.Point{points[idx[0]], points[idx[i]], points[idx[i+1]]})
	}
	return triangles
}

func anyInsideTriangle(points []orb.Point, idx []int, a, b, c orb.Point) bool {
	for _, k := range idx {
		p := points[k]
		if p == a || p == b || p == c {
			continue
		}
		if cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0 {
			return true
		}
	}
	return false
}
