package sim

import (
	"errors"
	"math"
	"testing"
)

func TestComputeStatistics(t *testing.T) {
	pulses := fourPulseBlock()
	corr := &CorrelationResult{PeakOffset: 2, SyncOK: true}
	events := []DetectionEvent{
		{Bin: 1, Origin: OriginDark},   // dark counts are always errors
		{Bin: 2, Origin: OriginSignal}, // slot 0, signal sent: correct
		{Bin: 3, Origin: OriginDecoy},  // slot 1, decoy sent: correct
		{Bin: 4, Origin: OriginDecoy},  // slot 2, signal sent: error
		{Bin: 9, Origin: OriginSignal}, // slot 7, outside the block: error
	}
	s, err := ComputeStatistics(events, corr, pulses, 0.5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TotalCounts != 5 || s.SignalCounts != 2 || s.DecoyCounts != 2 || s.DarkCounts != 1 {
		t.Errorf("counts total/signal/decoy/dark = %d/%d/%d/%d, want 5/2/2/1",
			s.TotalCounts, s.SignalCounts, s.DecoyCounts, s.DarkCounts)
	}
	// 10 bins of 0.5s each: 5s of observation.
	if math.Abs(s.MeanCountRate-1.0) > 1e-12 {
		t.Errorf("mean rate %v, want 1.0", s.MeanCountRate)
	}
	if math.Abs(s.SignalRate-0.4) > 1e-12 || math.Abs(s.DecoyRate-0.4) > 1e-12 {
		t.Errorf("signal/decoy rates %v/%v, want 0.4/0.4", s.SignalRate, s.DecoyRate)
	}
	if math.Abs(s.QBER-0.6) > 1e-12 {
		t.Errorf("qber %v, want 0.6 (3 errors of 5 events)", s.QBER)
	}
	if !s.SyncOK {
		t.Error("SyncOK not propagated from correlation result")
	}
	if s.Degenerate {
		t.Error("run with counts marked degenerate")
	}
}

func TestComputeStatisticsDegenerate(t *testing.T) {
	corr := &CorrelationResult{SyncOK: false}
	s, err := ComputeStatistics(nil, corr, fourPulseBlock(), 0.5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Degenerate {
		t.Error("zero-count run not marked degenerate")
	}
	if s.TotalCounts != 0 || s.MeanCountRate != 0 || s.QBER != 0 {
		t.Errorf("degenerate statistics not zeroed: %+v", s)
	}
}

func TestComputeStatisticsValidation(t *testing.T) {
	pulses := fourPulseBlock()
	corr := &CorrelationResult{}
	events := []DetectionEvent{{Bin: 0, Origin: OriginDark}}
	if _, err := ComputeStatistics(events, corr, pulses, 0, 10); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero bin width: got %v, want ErrInvalidParameter", err)
	}
	if _, err := ComputeStatistics(events, corr, pulses, 0.5, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero window: got %v, want ErrInvalidParameter", err)
	}
	if _, err := ComputeStatistics(events, nil, pulses, 0.5, 10); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("nil correlation: got %v, want ErrInvalidParameter", err)
	}
}
