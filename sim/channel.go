package sim

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Origin records what produced a detection event.
type Origin int

const (
	OriginSignal Origin = iota
	OriginDecoy
	OriginDark
)

func (o Origin) String() string {
	switch o {
	case OriginSignal:
		return "signal"
	case OriginDecoy:
		return "decoy"
	case OriginDark:
		return "dark"
	}
	return fmt.Sprintf("Origin(%d)", int(o))
}

// A DetectionEvent is one click of the receiver's detector, placed in a
// discrete time bin. Dark events carry no relation to any PulseRecord.
type DetectionEvent struct {
	Bin    int
	Origin Origin
}

// ApplyChannel pushes a block of pulses through the lossy channel. Each
// pulse survives an independent Bernoulli trial; survival probability for a
// pulse of intensity mu is
//
//	(1 - lossProb)^(muSignal/mu)
//
// so a signal pulse survives with exactly 1-lossProb while weaker decoy
// pulses see proportionally more attenuation in the exponent. At lossProb 0
// every pulse survives and at lossProb 1 none do, regardless of intensity.
//
// A survivor's nominal arrival bin is its slot index plus trueOffset;
// Gaussian timing jitter with standard deviation jitterStd is added and the
// result rounded to the nearest bin. Events that would land in a negative
// bin arrive before the detection window opens and are dropped.
//
// The returned events are in slot order, not yet merged with dark counts.
func ApplyChannel(rng *rand.Rand, pulses []PulseRecord, lossProb float64, trueOffset int, jitterStd float64) ([]DetectionEvent, error) {
	if lossProb < 0 || lossProb > 1 {
		return nil, fmt.Errorf("channel: %w: loss probability %v outside [0,1]", ErrInvalidParameter, lossProb)
	}
	if jitterStd < 0 {
		return nil, fmt.Errorf("channel: %w: jitter std %v must be non-negative", ErrInvalidParameter, jitterStd)
	}

	var jitter distuv.Normal
	if jitterStd > 0 {
		jitter = distuv.Normal{Mu: 0, Sigma: jitterStd, Src: rng}
	}
	muSignal := signalIntensity(pulses)
	var events []DetectionEvent
	for _, p := range pulses {
		if rng.Float64() >= survivalProb(p.Intensity, muSignal, lossProb) {
			continue
		}
		bin := p.Index + trueOffset
		if jitterStd > 0 {
			bin += int(math.Round(jitter.Rand()))
		}
		if bin < 0 {
			continue
		}
		origin := OriginDecoy
		if p.IsSignal {
			origin = OriginSignal
		}
		events = append(events, DetectionEvent{Bin: bin, Origin: origin})
	}
	return events, nil
}

// survivalProb is the per-pulse Bernoulli success probability. The exponent
// muSignal/mu keeps the signal class at exactly 1-lossProb and pushes dimmer
// pulses toward zero, which is what gives the downstream correlation its
// contrast between signal and decoy slots.
func survivalProb(mu, muSignal, lossProb float64) float64 {
	base := 1 - lossProb
	if base == 0 {
		return 0
	}
	if base == 1 {
		return 1
	}
	if mu <= 0 {
		return 0
	}
	if muSignal <= 0 {
		return base
	}
	return math.Pow(base, muSignal/mu)
}

func signalIntensity(pulses []PulseRecord) float64 {
	for _, p := range pulses {
		if p.IsSignal {
			return p.Intensity
		}
	}
	return 0
}

// LossFromDB converts the fiber parameterization of loss, dB per km over a
// given length, into the survival-complement probability the channel model
// consumes. 2 dB total loss yields a loss probability of about 0.369.
func LossFromDB(dbPerKm, lengthKm float64) (float64, error) {
	if dbPerKm < 0 {
		return 0, fmt.Errorf("channel: %w: loss %v dB/km must be non-negative", ErrInvalidParameter, dbPerKm)
	}
	if lengthKm < 0 {
		return 0, fmt.Errorf("channel: %w: length %v km must be non-negative", ErrInvalidParameter, lengthKm)
	}
	transmittance := math.Pow(10, -dbPerKm*lengthKm/10)
	return 1 - transmittance, nil
}
