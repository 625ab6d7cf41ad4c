package sim

import "fmt"

// A Histogram is an ordered sequence of per-bin counts; index i covers the
// half-open time interval [i, i+1) in bin units. Histograms are built once
// per run and read-only thereafter.
type Histogram []int

// Total returns the sum of all bin counts.
func (h Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// BuildHistograms bins the detection record into the two aligned count
// sequences the correlator consumes: the sender's known transmitted pattern
// (1 in each signal slot, 0 in each decoy slot) and the receiver's observed
// per-bin counts. Pure aggregation, no randomness.
//
// The detected histogram spans at least as many bins as there were pulses,
// extended to cover the latest observed event, so positive candidate
// offsets stay in range during the correlation search.
func BuildHistograms(pulses []PulseRecord, events []DetectionEvent) (reference, detected Histogram, err error) {
	if len(pulses) == 0 {
		return nil, nil, fmt.Errorf("preprocessor: %w: no transmitted pulses", ErrInvalidParameter)
	}
	if len(events) == 0 {
		return nil, nil, fmt.Errorf("preprocessor: %w", ErrEmptyInput)
	}

	reference = make(Histogram, len(pulses))
	for i, p := range pulses {
		if p.IsSignal {
			reference[i] = 1
		}
	}

	span := len(pulses)
	for _, ev := range events {
		if ev.Bin < 0 {
			return nil, nil, fmt.Errorf("preprocessor: %w: event in negative bin %d", ErrInvalidParameter, ev.Bin)
		}
		if ev.Bin+1 > span {
			span = ev.Bin + 1
		}
	}
	detected = make(Histogram, span)
	for _, ev := range events {
		detected[ev.Bin]++
	}
	return reference, detected, nil
}
