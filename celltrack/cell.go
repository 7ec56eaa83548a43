package celltrack

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// NoTrack is the track ID of a cell which has not been resolved (yet)
const NoTrack = -1

// CellRef addresses a cell inside a Sequence by frame index and slot within the frame.
// Lineage pointers are stored as CellRef, never as pointers, so frames never own each other.
type CellRef struct {
	Frame int
	Slot  int
}

// NoCell is the empty lineage pointer
var NoCell = CellRef{Frame: -1, Slot: -1}

// Valid returns true if reference points somewhere
func (ref CellRef) Valid() bool {
	return ref.Frame >= 0 && ref.Slot >= 0
}

func (ref CellRef) String() string {
	if !ref.Valid() {
		return "none"
	}
	return fmt.Sprintf("%d:%d", ref.Frame, ref.Slot)
}

// less orders references by frame, then by slot
func (ref CellRef) less(other CellRef) bool {
	if ref.Frame != other.Frame {
		return ref.Frame < other.Frame
	}
	return ref.Slot < other.Slot
}

// Candidate is an evaluated (predecessor lineage, score) pair attached to a successor cell.
// Predecessor is the head of the lineage, i.e. its most recent cell.
type Candidate struct {
	Predecessor CellRef
	TrackID     int
	Score       float64
}

// Division is a mother cell splitting into two daughters. Frame is the frame of the daughters.
type Division struct {
	ID        uuid.UUID
	Frame     int
	Mother    CellRef
	Daughters [2]CellRef
}

// Sibling returns the other daughter of the division
func (division *Division) Sibling(daughter CellRef) CellRef {
	if division.Daughters[0] == daughter {
		return division.Daughters[1]
	}
	return division.Daughters[0]
}

// Elimination is a cell which disappeared for good. Frame is the last frame it was observed at.
type Elimination struct {
	ID    uuid.UUID
	Cell  CellRef
	Frame int
}

// Cell is one segmented region in one frame together with its lineage state.
type Cell struct {
	id       uuid.UUID
	label    string
	ref      CellRef
	polygon  orb.Polygon
	area     float64
	centroid orb.Point
	bound    orb.Bound
	boundary bool
	// Slots of adjacent cells within the same frame
	neighbors []int

	trackID  int
	previous CellRef
	next     CellRef
	first    CellRef
	errorTag ErrorTag
	// Curation hint put by Sequence.Annotate, TagDefault when absent
	curation ErrorTag
	// Division where this cell is the mother
	division *Division
	// Division which started this cell's track (daughters only)
	origin      *Division
	elimination *Elimination

	// Transient: raw parents propagated onto this cell, then evaluated candidates
	parents    []parentLink
	candidates []Candidate
}

func newCell(ref CellRef, label string, polygon orb.Polygon, boundary bool, geometry Geometry) *Cell {
	return &Cell{
		id:       uuid.New(),
		label:    label,
		ref:      ref,
		polygon:  polygon,
		area:     geometry.Area(polygon),
		centroid: geometry.Centroid(polygon),
		bound:    polygon.Bound(),
		boundary: boundary,
		trackID:  NoTrack,
		previous: NoCell,
		next:     NoCell,
		first:    NoCell,
		errorTag: TagDefault,
	}
}

// GetID returns cell's stable identifier
func (cell *Cell) GetID() uuid.UUID {
	return cell.id
}

// GetLabel returns label given by whoever built the frame (may be empty)
func (cell *Cell) GetLabel() string {
	return cell.label
}

// GetRef returns cell's position in the sequence
func (cell *Cell) GetRef() CellRef {
	return cell.ref
}

// GetFrame returns index of the frame cell belongs to
func (cell *Cell) GetFrame() int {
	return cell.ref.Frame
}

// GetPolygon returns cell's outline
func (cell *Cell) GetPolygon() orb.Polygon {
	return cell.polygon
}

// GetArea returns cell's area
func (cell *Cell) GetArea() float64 {
	return cell.area
}

// GetCentroid returns cell's centroid
func (cell *Cell) GetCentroid() orb.Point {
	return cell.centroid
}

// IsBoundary returns true if cell touches the border of the field of view
func (cell *Cell) IsBoundary() bool {
	return cell.boundary
}

// GetNeighbors returns slots of adjacent cells. Be careful: this is not copy, but reference
func (cell *Cell) GetNeighbors() []int {
	return cell.neighbors
}

// GetTrackID returns cell's track identifier or NoTrack
func (cell *Cell) GetTrackID() int {
	return cell.trackID
}

// GetPrevious returns predecessor (mother for division daughters)
func (cell *Cell) GetPrevious() CellRef {
	return cell.previous
}

// GetNext returns successor
func (cell *Cell) GetNext() CellRef {
	return cell.next
}

// GetFirst returns first cell of the track this cell is on
func (cell *Cell) GetFirst() CellRef {
	return cell.first
}

// GetErrorTag returns resolution state of the cell. Curation hint takes precedence over what tracker found
func (cell *Cell) GetErrorTag() ErrorTag {
	if cell.curation != TagDefault {
		return cell.curation
	}
	return cell.errorTag
}

// GetTrackingTag returns resolution state found by tracker, ignoring curation hints
func (cell *Cell) GetTrackingTag() ErrorTag {
	return cell.errorTag
}

// GetCuration returns curation hint or TagDefault
func (cell *Cell) GetCuration() ErrorTag {
	return cell.curation
}

// GetDivision returns division where the cell is the mother, or nil
func (cell *Cell) GetDivision() *Division {
	return cell.division
}

// GetOrigin returns division which gave birth to the cell, or nil. Set on daughters only
func (cell *Cell) GetOrigin() *Division {
	return cell.origin
}

// GetElimination returns elimination record, or nil
func (cell *Cell) GetElimination() *Elimination {
	return cell.elimination
}

// GetCandidates returns evaluated candidates of the last transition, best first
func (cell *Cell) GetCandidates() []Candidate {
	return cell.candidates
}

// Resolved returns true if the cell carries a track
func (cell *Cell) Resolved() bool {
	return cell.trackID != NoTrack
}

func (cell *Cell) setTag(tag ErrorTag) {
	cell.errorTag = tag
}

// resetLineage forgets everything the tracker has written. Curation hints survive
func (cell *Cell) resetLineage() {
	cell.trackID = NoTrack
	cell.previous = NoCell
	cell.next = NoCell
	cell.first = NoCell
	cell.errorTag = TagDefault
	cell.division = nil
	cell.origin = nil
	cell.elimination = nil
	cell.parents = nil
	cell.candidates = nil
}
