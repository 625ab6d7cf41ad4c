package sim

import "fmt"

// SimulationStatistics summarizes one run's detection record after the
// clock offset has been recovered. It is recomputed from scratch every run
// and never mutated in place.
//
// QBER counts an aligned event as an error when it is a dark count, when it
// falls outside the transmitted block entirely, or when its origin class
// disagrees with the intensity class sent in its aligned slot. Dark counts
// carry no valid signal, so they always count as errors.
type SimulationStatistics struct {
	TotalCounts  int
	SignalCounts int
	DecoyCounts  int
	DarkCounts   int

	// Rates are in counts per unit time, the observation duration being
	// the detected histogram length times the bin width.
	MeanCountRate float64
	SignalRate    float64
	DecoyRate     float64

	QBER   float64
	SyncOK bool
	// Degenerate marks a zero-count run: rates and QBER are reported as 0
	// rather than NaN, and the run is still a legitimate outcome to
	// display, not an error.
	Degenerate bool
}

// ComputeStatistics derives the run summary from the merged detection
// record, the correlation search outcome, and the transmitted block. The
// observation window is windowBins bins of binWidth each.
func ComputeStatistics(events []DetectionEvent, corr *CorrelationResult, pulses []PulseRecord, binWidth float64, windowBins int) (SimulationStatistics, error) {
	if binWidth <= 0 {
		return SimulationStatistics{}, fmt.Errorf("statistics: %w: bin width %v must be positive", ErrInvalidParameter, binWidth)
	}
	if windowBins <= 0 {
		return SimulationStatistics{}, fmt.Errorf("statistics: %w: window of %d bins must be positive", ErrInvalidParameter, windowBins)
	}
	if corr == nil {
		return SimulationStatistics{}, fmt.Errorf("statistics: %w: missing correlation result", ErrInvalidParameter)
	}

	s := SimulationStatistics{SyncOK: corr.SyncOK}
	if len(events) == 0 {
		s.Degenerate = true
		return s, nil
	}

	duration := float64(windowBins) * binWidth
	errs := 0
	for _, ev := range events {
		s.TotalCounts++
		switch ev.Origin {
		case OriginSignal:
			s.SignalCounts++
		case OriginDecoy:
			s.DecoyCounts++
		case OriginDark:
			s.DarkCounts++
		}
		if isError(ev, corr.PeakOffset, pulses) {
			errs++
		}
	}
	s.MeanCountRate = float64(s.TotalCounts) / duration
	s.SignalRate = float64(s.SignalCounts) / duration
	s.DecoyRate = float64(s.DecoyCounts) / duration
	s.QBER = float64(errs) / float64(s.TotalCounts)
	return s, nil
}

func isError(ev DetectionEvent, peakOffset int, pulses []PulseRecord) bool {
	if ev.Origin == OriginDark {
		return true
	}
	slot := ev.Bin - peakOffset
	if slot < 0 || slot >= len(pulses) {
		return true
	}
	return (ev.Origin == OriginSignal) != pulses[slot].IsSignal
}
