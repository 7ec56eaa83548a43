package celltrack

// ErrorTag is the resolution state of a cell. States are mutually exclusive: a cell carries exactly one.
type ErrorTag uint16

const (
	// TagDefault means nothing unusual was observed for the cell
	TagDefault ErrorTag = iota
	// TagLostInPreviousFrame is set on a successor which could not be linked to any predecessor nor explained as a daughter
	TagLostInPreviousFrame
	// TagLostInNextFrame is set on a predecessor which found no successor, even after rescue
	TagLostInNextFrame
	// TagLostInBothFrames is set on a cell having neither predecessor nor successor
	TagLostInBothFrames
	// TagDividingInNextFrame is set on a mother cell once its division has been recorded
	TagDividingInNextFrame
	// TagBrotherCellNotFound is set on a daughter-track cell whose sibling track ended without successor
	TagBrotherCellNotFound
	// TagEliminatedInNextFrame is set on a cell which received an Elimination record
	TagEliminatedInNextFrame
	// TagBrotherCellEliminated is set on a daughter-track cell whose sibling track was eliminated
	TagBrotherCellEliminated
	// TagFalsePositive is a curation hint: the region is not a real cell. Never set by the tracker itself
	TagFalsePositive
	// TagFalseNegative is a curation hint: a real cell is missing from segmentation. Never set by the tracker itself
	TagFalseNegative
)

var errorTagNames = [...]string{
	TagDefault:               "default",
	TagLostInPreviousFrame:   "lost-in-previous",
	TagLostInNextFrame:       "lost-in-next",
	TagLostInBothFrames:      "lost-in-both",
	TagDividingInNextFrame:   "dividing-in-next",
	TagBrotherCellNotFound:   "brother-not-found",
	TagEliminatedInNextFrame: "eliminated-in-next",
	TagBrotherCellEliminated: "brother-eliminated",
	TagFalsePositive:         "false-positive",
	TagFalseNegative:         "false-negative",
}

// String returns human readable name of the tag
func (tag ErrorTag) String() string {
	if int(tag) < len(errorTagNames) {
		return errorTagNames[tag]
	}
	return "unknown"
}

// AllErrorTags lists every tag in declaration order
func AllErrorTags() []ErrorTag {
	tags := make([]ErrorTag, len(errorTagNames))
	for i := range tags {
		tags[i] = ErrorTag(i)
	}
	return tags
}

// isCuration reports whether the tag can only be put by Sequence.Annotate
func (tag ErrorTag) isCuration() bool {
	return tag == TagFalsePositive || tag == TagFalseNegative
}
