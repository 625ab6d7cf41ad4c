package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
)

// A Config packages together the parameters of one simulation run. Several
// fields do *not* have reasonable defaults; leaving them to zero-initialize
// will result in Run returning an error. The config is owned by the run and
// never mutated.
type Config struct {
	// SignalPower and DecoyPower are the mean photon numbers of the two
	// pulse preparations. Both must be non-negative.
	SignalPower float64
	DecoyPower  float64

	// SignalProb is the probability that a given slot carries a signal
	// pulse rather than a decoy. Must lie in [0,1].
	SignalProb float64

	// BlockSize is the number of pulses transmitted per run. Must be
	// positive.
	BlockSize int

	// LossProb is the probability that a signal pulse is lost in the
	// channel. Must lie in [0,1]; 1 is valid and yields an empty but
	// legitimate run.
	LossProb float64

	// DarkRate is the mean number of dark counts per time bin. Must be
	// non-negative.
	DarkRate float64

	// BinWidth is the width of one time bin, in seconds. Must be
	// positive.
	BinWidth float64

	// TrueOffset is the clock offset, in bins, that the channel imposes
	// and the correlator is expected to recover.
	TrueOffset int

	// JitterStd is the standard deviation of the Gaussian timing jitter,
	// in bins. Must be non-negative.
	JitterStd float64

	// MaxOffset bounds the correlation search to candidate offsets in
	// [-MaxOffset, MaxOffset]. Must be positive.
	MaxOffset int

	// SyncThreshold is the number of standard deviations above the mean
	// correlation floor the peak must clear. Defaults to
	// DefaultSyncThreshold.
	SyncThreshold float64

	// Seed seeds the run's private random number generator. Two runs
	// with identical configs produce identical results.
	Seed uint64
}

// A Result bundles everything a run hands to its consumers: the offset
// search outcome, the derived statistics, and the raw series a plotting
// layer would render.
type Result struct {
	// RunID and StartedAt identify the run in exported records.
	RunID     string
	StartedAt time.Time

	Correlation CorrelationResult
	Stats       SimulationStatistics

	// Reference is the transmitted signal/decoy pattern; Counts is the
	// receiver's per-bin detection histogram.
	Reference Histogram
	Counts    Histogram
}

// Run executes the full pipeline for one parameterization: state
// generation, channel effects, detection recording, preprocessing,
// correlation, statistics. Preconditions are rechecked at each stage
// independent of any upstream validation; the first violation aborts the
// run with no partial result.
//
// A run whose detector never clicks is not an error: it comes back with
// zero counts and Stats.Degenerate set.
func Run(cfg Config) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	threshold := cfg.SyncThreshold
	if threshold == 0 {
		threshold = DefaultSyncThreshold
	}
	if cfg.MaxOffset <= 0 {
		return nil, fmt.Errorf("run: %w: max offset %d must be positive", ErrInvalidParameter, cfg.MaxOffset)
	}
	if cfg.BinWidth <= 0 {
		return nil, fmt.Errorf("run: %w: bin width %v must be positive", ErrInvalidParameter, cfg.BinWidth)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	pulses, err := GenerateStates(rng, cfg.SignalPower, cfg.DecoyPower, cfg.SignalProb, cfg.BlockSize)
	if err != nil {
		return nil, err
	}
	survivors, err := ApplyChannel(rng, pulses, cfg.LossProb, cfg.TrueOffset, cfg.JitterStd)
	if err != nil {
		return nil, err
	}
	windowBins := cfg.BlockSize + cfg.MaxOffset
	events, err := RecordDetections(rng, survivors, cfg.DarkRate, windowBins)
	if err != nil {
		return nil, err
	}

	reference, detected, err := BuildHistograms(pulses, events)
	if errors.Is(err, ErrEmptyInput) {
		// Empty-but-valid run: nothing to correlate, so report zeroed,
		// degenerate statistics instead of aborting.
		res.Stats = SimulationStatistics{Degenerate: true}
		res.Reference = referencePattern(pulses)
		res.Counts = make(Histogram, windowBins)
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	corr, err := Correlate(reference, detected, cfg.MaxOffset, threshold)
	if err != nil {
		return nil, err
	}
	stats, err := ComputeStatistics(events, corr, pulses, cfg.BinWidth, len(detected))
	if err != nil {
		return nil, err
	}

	res.Correlation = *corr
	res.Stats = stats
	res.Reference = reference
	res.Counts = detected
	return res, nil
}

func referencePattern(pulses []PulseRecord) Histogram {
	ref := make(Histogram, len(pulses))
	for i, p := range pulses {
		if p.IsSignal {
			ref[i] = 1
		}
	}
	return ref
}
