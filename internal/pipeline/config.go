package pipeline

import (
	"time"

	"github.com/rs/zerolog"

	"fluxpipe/internal/checkpoint"
	"fluxpipe/internal/diet"
	"fluxpipe/internal/lp"
	"fluxpipe/internal/output"
	"fluxpipe/pkg/types"
)

// Defaults applied when corresponding DriverConfig fields are unset.
const (
	defaultFVAFraction           = 1.0
	defaultWorkers               = 1
	defaultRichUptake            = 1000.0
	defaultCommunityBiomassLower = 0.4
	defaultCommunityBiomassUpper = 1.0
	defaultSinkLower             = -1000.0
	defaultDemandUpper           = 1000.0
	recentSamples                = 20
)

// BoundConfig holds the constants PrepareModel writes into every model.
// Every field is used as given, zero included.
type BoundConfig struct {
	CommunityBiomassLower float64
	CommunityBiomassUpper float64
	SinkLower             float64
	DemandUpper           float64
}

// DefaultBounds returns the bounds used when DriverConfig.Bounds is nil.
func DefaultBounds() BoundConfig {
	return BoundConfig{
		CommunityBiomassLower: defaultCommunityBiomassLower,
		CommunityBiomassUpper: defaultCommunityBiomassUpper,
		SinkLower:             defaultSinkLower,
		DemandUpper:           defaultDemandUpper,
	}
}

// DriverConfig encapsulates all tunables for Driver construction.
type DriverConfig struct {
	Samples []types.Sample
	// Diet is the standard diet. Empty skips the standard stage.
	Diet []diet.Entry
	// PersonalizedDietDir holds optional <sample>.tsv|.txt|.csv diets.
	PersonalizedDietDir string

	Session lp.Session
	// Store persists progress after every sample. Nil disables resume.
	Store checkpoint.Store
	// Sink receives the result bundle when the run completes. Nil skips it.
	Sink      output.Sink
	Publisher EventPublisher
	Logger    zerolog.Logger

	FVAFraction float64
	Workers     int
	RichUptake  float64

	// Bounds nil means DefaultBounds.
	Bounds *BoundConfig

	// Progress, when set, is called after every persisted sample.
	Progress func(done, total int)
}

// NewWithConfig constructs a Driver from DriverConfig.
func NewWithConfig(cfg DriverConfig) *Driver {
	d := &Driver{
		samples:         append([]types.Sample(nil), cfg.Samples...),
		diet:            cfg.Diet,
		personalizedDir: cfg.PersonalizedDietDir,
		sess:            cfg.Session,
		store:           cfg.Store,
		sink:            cfg.Sink,
		pub:             cfg.Publisher,
		fraction:        cfg.FVAFraction,
		workers:         cfg.Workers,
		richUptake:      cfg.RichUptake,
		bounds:          DefaultBounds(),
		progress:        cfg.Progress,
		log:             cfg.Logger,
		state:           RunIdle,
		startTime:       time.Now(),
	}
	if cfg.Bounds != nil {
		d.bounds = *cfg.Bounds
	}
	// Apply defaults if unset
	if d.sess == nil {
		d.sess = lp.NewSimplexSession(lp.Options{})
	}
	if d.pub == nil {
		d.pub = noopPublisher{}
	}
	if d.fraction <= 0 || d.fraction > 1 {
		d.fraction = defaultFVAFraction
	}
	if d.workers <= 0 {
		d.workers = defaultWorkers
	}
	if d.richUptake <= 0 {
		d.richUptake = defaultRichUptake
	}
	return d
}
