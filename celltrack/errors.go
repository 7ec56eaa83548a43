package celltrack

import "github.com/pkg/errors"

var (
	// ErrEmptySequence is returned when tracking is requested for a sequence without frames
	ErrEmptySequence = errors.New("sequence has no frames")
	// ErrCellOutOfRange is returned when a slot or reference does not address an existing cell
	ErrCellOutOfRange = errors.New("cell out of range")
	// ErrSelfNeighbor is returned when a cell is connected to itself
	ErrSelfNeighbor = errors.New("cell can't be its own neighbor")
	// ErrUnknownAlgorithm is returned for unsupported matching algorithm names
	ErrUnknownAlgorithm = errors.New("unknown matching algorithm")
	// ErrInvalidConfig is returned when configuration does not pass validation
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNotCurationTag is returned when Annotate is called with a tag owned by the tracker
	ErrNotCurationTag = errors.New("only false-positive and false-negative tags can be annotated")
	// ErrFrameOrder is returned when a transition is requested before its predecessor frame is finalized
	ErrFrameOrder = errors.New("frames must be processed in increasing order")
)
