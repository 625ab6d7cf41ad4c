// Package sim models the physical layer of a decoy-state QKD link: a block
// of signal/decoy pulses is pushed through a lossy, noisy channel, the
// receiver's detection record is binned into histograms, and the sender's
// clock offset is recovered by cross-correlation before any key-rate
// statistics are computed.
//
// The pipeline runs strictly forward: state generation, channel effects,
// detection recording, preprocessing, correlation, statistics. Every stage
// that samples randomness takes an explicitly seeded *rand.Rand so that runs
// are reproducible and may execute in parallel, one generator per run.
package sim

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// A PulseRecord describes one transmitted pulse: its slot index in the
// block, the mean photon number it was prepared with, and whether that
// preparation was the signal intensity rather than the decoy.
type PulseRecord struct {
	Index     int
	Intensity float64
	IsSignal  bool
}

// GenerateStates draws blockSize i.i.d. pulse intensities, each equal to
// signalPower with probability signalProb and decoyPower otherwise. The
// returned records are ordered by slot index; no temporal correlation is
// introduced at this stage.
func GenerateStates(rng *rand.Rand, signalPower, decoyPower, signalProb float64, blockSize int) ([]PulseRecord, error) {
	if signalPower < 0 {
		return nil, fmt.Errorf("state generator: %w: signal power %v must be non-negative", ErrInvalidParameter, signalPower)
	}
	if decoyPower < 0 {
		return nil, fmt.Errorf("state generator: %w: decoy power %v must be non-negative", ErrInvalidParameter, decoyPower)
	}
	if signalProb < 0 || signalProb > 1 {
		return nil, fmt.Errorf("state generator: %w: signal probability %v outside [0,1]", ErrInvalidParameter, signalProb)
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("state generator: %w: block size %d must be positive", ErrInvalidParameter, blockSize)
	}

	pulses := make([]PulseRecord, blockSize)
	for i := range pulses {
		sig := rng.Float64() < signalProb
		mu := decoyPower
		if sig {
			mu = signalPower
		}
		pulses[i] = PulseRecord{Index: i, Intensity: mu, IsSignal: sig}
	}
	return pulses, nil
}
