package celltrack

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Sequence is an ordered list of frames of a time-lapse.
type Sequence struct {
	frames   []*Frame
	geometry Geometry
}

// NewSequence creates empty sequence. Nil geometry means PlanarGeometry.
func NewSequence(geometry Geometry) *Sequence {
	if geometry == nil {
		geometry = PlanarGeometry{}
	}
	return &Sequence{
		frames:   make([]*Frame, 0),
		geometry: geometry,
	}
}

// AddFrame appends new empty frame and returns it
func (seq *Sequence) AddFrame() *Frame {
	frame := &Frame{
		index:    len(seq.frames),
		cells:    make([]*Cell, 0),
		geometry: seq.geometry,
	}
	seq.frames = append(seq.frames, frame)
	return frame
}

// Size returns number of frames
func (seq *Sequence) Size() int {
	return len(seq.frames)
}

// Frames returns all frames. Be careful: this is not copy, but reference
func (seq *Sequence) Frames() []*Frame {
	return seq.frames
}

// Frame returns frame with given index or nil
func (seq *Sequence) Frame(t int) *Frame {
	if t < 0 || t >= len(seq.frames) {
		return nil
	}
	return seq.frames[t]
}

// Cell resolves reference. Returns nil for NoCell and dangling references
func (seq *Sequence) Cell(ref CellRef) *Cell {
	frame := seq.Frame(ref.Frame)
	if frame == nil {
		return nil
	}
	return frame.Cell(ref.Slot)
}

// Geometry returns geometry kernel used by the sequence
func (seq *Sequence) Geometry() Geometry {
	return seq.geometry
}

// Annotate puts a curation hint (false positive / false negative) on a cell.
// Tracker never overrides such hints and does not let them change tracking outcome.
func (seq *Sequence) Annotate(ref CellRef, tag ErrorTag) error {
	if !tag.isCuration() {
		return errors.Wrapf(ErrNotCurationTag, "tag %s", tag)
	}
	cell := seq.Cell(ref)
	if cell == nil {
		return errors.Wrapf(ErrCellOutOfRange, "annotate %s", ref)
	}
	cell.curation = tag
	return nil
}

// Frame is one time point: its cells and their adjacency.
type Frame struct {
	index    int
	cells    []*Cell
	geometry Geometry
}

// Index returns time index of the frame
func (frame *Frame) Index() int {
	return frame.index
}

// Len returns number of cells
func (frame *Frame) Len() int {
	return len(frame.cells)
}

// AddCell appends cell with given outline and returns its reference
func (frame *Frame) AddCell(polygon orb.Polygon, boundary bool) CellRef {
	return frame.AddLabeledCell("", polygon, boundary)
}

// AddLabeledCell is AddCell with a caller defined label
func (frame *Frame) AddLabeledCell(label string, polygon orb.Polygon, boundary bool) CellRef {
	ref := CellRef{Frame: frame.index, Slot: len(frame.cells)}
	frame.cells = append(frame.cells, newCell(ref, label, polygon, boundary, frame.geometry))
	return ref
}

// Connect marks two cells of the frame as neighbors. Connecting twice is a no-op
func (frame *Frame) Connect(a, b int) error {
	if a == b {
		return errors.Wrapf(ErrSelfNeighbor, "slot %d in frame %d", a, frame.index)
	}
	if frame.Cell(a) == nil || frame.Cell(b) == nil {
		return errors.Wrapf(ErrCellOutOfRange, "connect %d-%d in frame %d", a, b, frame.index)
	}
	if frame.adjacent(a, b) {
		return nil
	}
	frame.cells[a].neighbors = append(frame.cells[a].neighbors, b)
	frame.cells[b].neighbors = append(frame.cells[b].neighbors, a)
	return nil
}

func (frame *Frame) adjacent(a, b int) bool {
	for _, n := range frame.cells[a].neighbors {
		if n == b {
			return true
		}
	}
	return false
}

// Cells returns all cells. Be careful: this is not copy, but reference
func (frame *Frame) Cells() []*Cell {
	return frame.cells
}

// Cell returns cell at slot or nil
func (frame *Frame) Cell(slot int) *Cell {
	if slot < 0 || slot >= len(frame.cells) {
		return nil
	}
	return frame.cells[slot]
}

// Neighbors returns adjacent cells of the given slot
func (frame *Frame) Neighbors(slot int) []*Cell {
	cell := frame.Cell(slot)
	if cell == nil {
		return nil
	}
	neighbors := make([]*Cell, 0, len(cell.neighbors))
	for _, n := range cell.neighbors {
		neighbors = append(neighbors, frame.cells[n])
	}
	return neighbors
}

// Degree returns number of neighbors of the given slot
func (frame *Frame) Degree(slot int) int {
	cell := frame.Cell(slot)
	if cell == nil {
		return 0
	}
	return len(cell.neighbors)
}

// CellByTrackID returns cell carrying given track ID or nil
func (frame *Frame) CellByTrackID(trackID int) *Cell {
	if trackID == NoTrack {
		return nil
	}
	for _, cell := range frame.cells {
		if cell.trackID == trackID {
			return cell
		}
	}
	return nil
}

// Bound returns bounding box of all cells of the frame
func (frame *Frame) Bound() orb.Bound {
	if len(frame.cells) == 0 {
		return orb.Bound{}
	}
	bound := frame.cells[0].bound
	for _, cell := range frame.cells[1:] {
		bound = bound.Union(cell.bound)
	}
	return bound
}
