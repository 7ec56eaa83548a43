package celltrack

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Tracker assigns persistent track IDs to cells of a Sequence frame by frame.
// It is not safe for concurrent use: frames are strictly sequential.
type Tracker struct {
	cfg       Config
	algorithm MatchingAlgorithm
	matcher   Matcher
	logger    *slog.Logger
	metrics   *Metrics

	seq     *Sequence
	lineage *lineage
	// Region covered by frame 0. Successors without candidates outside of it are never brides
	fieldOfView orb.Bound
	// Index of the last finalized frame, -1 before the first Step
	finalized    int
	reviewed     bool
	divisions    []*Division
	eliminations []*Elimination
}

// Option configures Tracker
type Option func(*Tracker)

// WithLogger sets structured logger. Default discards everything
func WithLogger(logger *slog.Logger) Option {
	return func(tracker *Tracker) {
		if logger != nil {
			tracker.logger = logger
		}
	}
}

// WithMetrics sets prometheus metrics
func WithMetrics(metrics *Metrics) Option {
	return func(tracker *Tracker) {
		tracker.metrics = metrics
	}
}

// WithMatcher overrides matcher chosen by Config.Algorithm
func WithMatcher(matcher Matcher) Option {
	return func(tracker *Tracker) {
		if matcher != nil {
			tracker.matcher = matcher
		}
	}
}

// NewTracker creates new instance of Tracker. Configuration is validated first
func NewTracker(cfg Config, options ...Option) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Can't create tracker")
	}
	algorithm, err := ParseMatchingAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, errors.Wrap(err, "Can't create tracker")
	}
	tracker := &Tracker{
		cfg:       cfg,
		algorithm: algorithm,
		matcher:   NewMatcher(algorithm, cfg),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		lineage:   newLineage(),
		finalized: -1,
	}
	for _, option := range options {
		option(tracker)
	}
	return tracker, nil
}

// NewTrackerDefault creates default instance of Tracker
func NewTrackerDefault() *Tracker {
	tracker, err := NewTracker(DefaultConfig())
	if err != nil {
		// Defaults always validate
		panic(err)
	}
	return tracker
}

// Config returns configuration tracker has been created with
func (tracker *Tracker) Config() Config {
	return tracker.cfg
}

// Attach binds tracker to the sequence and forgets any previous state.
// Lineage fields of the sequence cells are reset as well.
func (tracker *Tracker) Attach(seq *Sequence) error {
	if seq == nil || seq.Size() == 0 {
		return ErrEmptySequence
	}
	tracker.seq = seq
	tracker.lineage = newLineage()
	tracker.fieldOfView = orb.Bound{}
	tracker.finalized = -1
	tracker.reviewed = false
	tracker.divisions = make([]*Division, 0)
	tracker.eliminations = make([]*Elimination, 0)
	for _, frame := range seq.frames {
		for _, cell := range frame.cells {
			cell.resetLineage()
		}
	}
	return nil
}

// Step finalizes frame t. Frames must be stepped in order starting from 0.
// Cancellation is observed before the transition only: a frame is never left half processed.
func (tracker *Tracker) Step(ctx context.Context, t int) error {
	if tracker.seq == nil {
		return ErrEmptySequence
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "Stopped before frame %d", t)
	}
	if t != tracker.finalized+1 || t >= tracker.seq.Size() {
		return errors.Wrapf(ErrFrameOrder, "requested frame %d, last finalized %d of %d", t, tracker.finalized, tracker.seq.Size())
	}
	started := time.Now()
	if t == 0 {
		tracker.initialize()
	} else {
		tracker.transition(t)
	}
	tracker.checkBrothers(t)
	tracker.finalized = t
	tracker.metrics.incFrames()
	tracker.metrics.observeStep(time.Since(started))
	return nil
}

// initialize gives every cell of frame 0 its own track
func (tracker *Tracker) initialize() {
	frame := tracker.seq.Frame(0)
	tracker.fieldOfView = frame.Bound()
	for _, cell := range frame.cells {
		tracker.startTrack(cell, tracker.lineage.allocate())
	}
	tracker.logger.Debug("frame initialized",
		slog.Int("frame", 0),
		slog.Int("tracks", frame.Len()),
	)
}

// transition runs Propagator, Candidate Evaluator, Matcher, Rescue Resolver and Division Detector for t-1 -> t
func (tracker *Tracker) transition(t int) {
	propagated := 0
	for from := maxInt(0, t-tracker.cfg.Linkrange); from < t; from++ {
		propagated += tracker.propagate(from, t)
	}
	problem := tracker.evaluate(t)
	result := tracker.matcher.Match(problem)
	for _, pair := range result.Pairs {
		groom := tracker.seq.Cell(pair.Groom)
		bride := tracker.seq.Cell(pair.Bride)
		tracker.link(groom, bride)
	}
	tracker.metrics.addMatches(tracker.algorithm, len(result.Pairs))
	tracker.rescue(t, result)
	tracker.detectDivisions(t, result)
	entered := 0
	if tracker.cfg.AdmitEntering {
		entered = tracker.admitEntering(t)
	}
	tracker.logger.Debug("frame finalized",
		slog.Int("frame", t),
		slog.Int("propagated", propagated),
		slog.Int("grooms", len(problem.Grooms)),
		slog.Int("brides", len(problem.Brides)),
		slog.Int("matched", len(result.Pairs)),
		slog.Int("grooms_left", len(result.Grooms)),
		slog.Int("brides_left", len(result.Brides)),
		slog.Int("entered", entered),
	)
}

// admitEntering starts tracks for cells of frame t which never took part in matching:
// cells without candidates on the border or outside of the initial field of view.
// Such tracks have no root in frame 0.
func (tracker *Tracker) admitEntering(t int) int {
	entered := 0
	for _, cell := range tracker.seq.Frame(t).cells {
		if cell.Resolved() || cell.errorTag == TagLostInPreviousFrame {
			continue
		}
		tracker.startTrack(cell, tracker.lineage.allocate())
		entered++
	}
	return entered
}

// Finish runs elimination review once and builds the report. Calling it again only rebuilds the report
func (tracker *Tracker) Finish() *Report {
	if tracker.seq == nil {
		return &Report{}
	}
	if !tracker.reviewed {
		tracker.reviewEliminations()
		tracker.reviewed = true
	}
	report := tracker.buildReport()
	tracker.logger.Info("tracking finished",
		slog.Int("frames", report.Frames),
		slog.Int("tracks", report.Tracks),
		slog.Int("divisions", report.Divisions),
		slog.Int("eliminations", report.Eliminations),
		slog.Int("lost", report.Lost),
	)
	return report
}

// Run tracks the whole sequence. On cancellation the partial lineage stays in the sequence
// and the error wraps context error.
func (tracker *Tracker) Run(ctx context.Context, seq *Sequence) (*Report, error) {
	if err := tracker.Attach(seq); err != nil {
		return nil, errors.Wrap(err, "Can't track sequence")
	}
	for t := 0; t < seq.Size(); t++ {
		if err := tracker.Step(ctx, t); err != nil {
			return nil, errors.Wrap(err, "Can't track sequence")
		}
	}
	return tracker.Finish(), nil
}

// Divisions returns recorded divisions in detection order
func (tracker *Tracker) Divisions() []*Division {
	return tracker.divisions
}

// Eliminations returns recorded eliminations. Empty until Finish
func (tracker *Tracker) Eliminations() []*Elimination {
	return tracker.eliminations
}

// Finalized returns index of the last finalized frame or -1
func (tracker *Tracker) Finalized() int {
	return tracker.finalized
}
