package celltrack

import (
	"math"
	"sort"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/stat"
)

// TrackSummary describes one track of a finished run
type TrackSummary struct {
	TrackID int     `json:"track_id"`
	First   CellRef `json:"first"`
	Last    CellRef `json:"last"`
	// Number of observed cells (gaps are not counted)
	Length int `json:"length"`
	// Track of the mother for daughter tracks, NoTrack otherwise
	Parent     int  `json:"parent"`
	Divided    bool `json:"divided"`
	Eliminated bool `json:"eliminated"`
	// Filtered centroid at the last observation
	End orb.Point `json:"end"`
	// Mean speed along the filtered path, distance units per time unit
	Speed float64 `json:"speed"`
}

// Report is the summary of a finished run
type Report struct {
	Frames       int `json:"frames"`
	Cells        int `json:"cells"`
	Tracks       int `json:"tracks"`
	Divisions    int `json:"divisions"`
	Eliminations int `json:"eliminations"`
	// Cells lost in previous, next or both frames. Curation hints do not hide them
	Lost int `json:"lost"`
	// Number of cells per error tag name as returned by Cell.GetErrorTag
	Tags            map[string]int `json:"tags"`
	TrackLengthMean float64        `json:"track_length_mean"`
	TrackLengthStd  float64        `json:"track_length_std"`
	// Daughter track -> mother track
	Parents map[int]int    `json:"parents"`
	Summary []TrackSummary `json:"summary"`
}

/* Kalman filter props for centroid smoothing */
const (
	kinematicsStdDevA  = 2.0
	kinematicsStdDevMx = 0.1
	kinematicsStdDevMy = 0.1
)

func (tracker *Tracker) buildReport() *Report {
	report := &Report{
		Frames:       tracker.finalized + 1,
		Divisions:    len(tracker.divisions),
		Eliminations: len(tracker.eliminations),
		Tags:         make(map[string]int),
		Parents:      make(map[int]int),
		Summary:      make([]TrackSummary, 0, len(tracker.lineage.heads)),
	}
	for t := 0; t <= tracker.finalized; t++ {
		for _, cell := range tracker.seq.Frame(t).cells {
			report.Cells++
			report.Tags[cell.GetErrorTag().String()]++
			switch cell.errorTag {
			case TagLostInPreviousFrame, TagLostInNextFrame, TagLostInBothFrames:
				report.Lost++
			}
		}
	}

	trackIDs := make([]int, 0, len(tracker.lineage.heads))
	for trackID := range tracker.lineage.heads {
		trackIDs = append(trackIDs, trackID)
	}
	sort.Ints(trackIDs)
	lengths := make([]float64, 0, len(trackIDs))
	for _, trackID := range trackIDs {
		summary := tracker.summarizeTrack(trackID)
		if summary.Parent != NoTrack {
			report.Parents[trackID] = summary.Parent
		}
		lengths = append(lengths, float64(summary.Length))
		report.Summary = append(report.Summary, summary)
	}
	report.Tracks = len(report.Summary)
	switch len(lengths) {
	case 0:
	case 1:
		report.TrackLengthMean = lengths[0]
	default:
		report.TrackLengthMean, report.TrackLengthStd = stat.MeanStdDev(lengths, nil)
	}
	return report
}

// trackCells returns cells of the track from first to head
func (tracker *Tracker) trackCells(trackID int) []*Cell {
	headRef, ok := tracker.lineage.head(trackID)
	if !ok {
		return nil
	}
	cells := make([]*Cell, 0)
	for cell := tracker.seq.Cell(headRef); cell != nil && cell.trackID == trackID; cell = tracker.seq.Cell(cell.previous) {
		cells = append(cells, cell)
		if cell.ref == cell.first {
			break
		}
	}
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	return cells
}

func (tracker *Tracker) summarizeTrack(trackID int) TrackSummary {
	cells := tracker.trackCells(trackID)
	summary := TrackSummary{
		TrackID: trackID,
		First:   NoCell,
		Last:    NoCell,
		Parent:  NoTrack,
		Length:  len(cells),
	}
	if len(cells) == 0 {
		return summary
	}
	first, last := cells[0], cells[len(cells)-1]
	summary.First = first.ref
	summary.Last = last.ref
	summary.Divided = last.division != nil
	summary.Eliminated = last.elimination != nil
	if first.origin != nil {
		if mother := tracker.seq.Cell(first.origin.Mother); mother != nil {
			summary.Parent = mother.trackID
		}
	}
	summary.End, summary.Speed = tracker.kinematics(cells)
	return summary
}

// kinematics runs 2D Kalman filter over centroids of the track. Gaps are bridged by repeated predictions
func (tracker *Tracker) kinematics(cells []*Cell) (orb.Point, float64) {
	dt := tracker.cfg.KinematicsDt
	start := cells[0].centroid
	kf := kalman_filter.NewKalman2D(dt, 0.0, 0.0, kinematicsStdDevA, kinematicsStdDevMx, kinematicsStdDevMy, kalman_filter.WithState2D(start[0], start[1]))
	prev := start
	pathLength := 0.0
	for i := 1; i < len(cells); i++ {
		gap := cells[i].ref.Frame - cells[i-1].ref.Frame
		for step := 0; step < gap; step++ {
			kf.Predict()
		}
		current := cells[i].centroid
		if err := kf.Update(current[0], current[1]); err == nil {
			x, y := kf.GetState()
			current = orb.Point{x, y}
		}
		// On update failure (singular innovation) the raw measurement is used
		pathLength += math.Hypot(current[0]-prev[0], current[1]-prev[1])
		prev = current
	}
	duration := float64(cells[len(cells)-1].ref.Frame-cells[0].ref.Frame) * dt
	if duration <= 0 {
		return prev, 0
	}
	return prev, pathLength / duration
}
