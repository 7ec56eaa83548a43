package celltrack

import (
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	defaultLinkrange           = 2
	defaultLambda1             = 1.0
	defaultLambda2             = 1.0
	defaultTimeMultiplier      = 0.5
	defaultMinIntersectionArea = 1.0
	defaultMinSharedNeighbors  = 3
	defaultCoverageFactor      = 0.5
	defaultDummyPenalty        = 30.0
	defaultUnscoredCost        = 1e6
	defaultAlgorithm           = "stable"
	defaultKinematicsDt        = 1.0
)

// Config holds tunable parameters of the tracker.
// Thresholds are hand-tuned defaults; nothing in the algorithm depends on their exact values.
type Config struct {
	// Number of frames a resolved cell is propagated forward as a candidate
	Linkrange int `toml:"linkrange" validate:"gte=1"`
	// Weight of centroid distance in candidate score
	Lambda1 float64 `toml:"lambda1" validate:"gte=0"`
	// Weight of inverse normalized overlap in candidate score
	Lambda2 float64 `toml:"lambda2" validate:"gte=0"`
	// Time penalty: score is multiplied by 1 - TimeMultiplier/dt
	TimeMultiplier float64 `toml:"time_multiplier" validate:"gte=0,lt=1"`
	// Intersections with area not above this value are ignored
	MinIntersectionArea float64 `toml:"min_intersection_area" validate:"gte=0"`
	// Neighborhood rescue requires strictly more shared neighbor tracks than this
	MinSharedNeighbors int `toml:"min_shared_neighbors" validate:"gte=0"`
	// Minimal share of a daughter's area lying inside of its mother
	CoverageFactor float64 `toml:"coverage_factor" validate:"gt=0,lte=1"`
	// Cost of leaving a node unmatched in optimal matching
	DummyPenalty float64 `toml:"dummy_penalty" validate:"gt=0"`
	// Cost of a pair which has never been scored in optimal matching
	UnscoredCost float64 `toml:"unscored_cost" validate:"gt=0"`
	// Matching strategy: "stable" or "optimal"
	Algorithm string `toml:"algorithm" validate:"oneof=stable optimal"`
	// Time step between frames used by kinematics estimation in reports
	KinematicsDt float64 `toml:"kinematics_dt" validate:"gt=0"`
	// Start fresh tracks for successors without candidates on the border or outside of frame 0.
	// Off by default: such cells stay unresolved and every previous chain ends in frame 0
	AdmitEntering bool `toml:"admit_entering"`
}

// configValidate is shared validator instance (it caches struct metadata)
var configValidate = validator.New()

// DefaultConfig returns Config populated with default thresholds
func DefaultConfig() Config {
	return Config{
		Linkrange:           defaultLinkrange,
		Lambda1:             defaultLambda1,
		Lambda2:             defaultLambda2,
		TimeMultiplier:      defaultTimeMultiplier,
		MinIntersectionArea: defaultMinIntersectionArea,
		MinSharedNeighbors:  defaultMinSharedNeighbors,
		CoverageFactor:      defaultCoverageFactor,
		DummyPenalty:        defaultDummyPenalty,
		UnscoredCost:        defaultUnscoredCost,
		Algorithm:           defaultAlgorithm,
		KinematicsDt:        defaultKinematicsDt,
	}
}

// LoadConfig decodes TOML document on top of defaults and validates the result
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	decoder := toml.NewDecoder(r).DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "Can't parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EncodeTOML encodes configuration as TOML document
func (cfg Config) EncodeTOML() ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "Can't encode config")
	}
	return data, nil
}

// Validate ensures the configuration is usable
func (cfg Config) Validate() error {
	if err := configValidate.Struct(cfg); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%s", err.Error())
	}
	if cfg.Lambda1 == 0 && cfg.Lambda2 == 0 {
		return errors.Wrap(ErrInvalidConfig, "lambda1 and lambda2 can't both be zero")
	}
	if cfg.UnscoredCost <= 2*cfg.DummyPenalty {
		return errors.Wrapf(ErrInvalidConfig, "unscored_cost (%f) must exceed twice dummy_penalty (%f)", cfg.UnscoredCost, cfg.DummyPenalty)
	}
	if _, err := ParseMatchingAlgorithm(cfg.Algorithm); err != nil {
		return err
	}
	return nil
}
