package sim

import (
	"errors"
	"reflect"
	"testing"
)

func fourPulseBlock() []PulseRecord {
	return []PulseRecord{
		{Index: 0, Intensity: 0.5, IsSignal: true},
		{Index: 1, Intensity: 0.1, IsSignal: false},
		{Index: 2, Intensity: 0.5, IsSignal: true},
		{Index: 3, Intensity: 0.1, IsSignal: false},
	}
}

func TestBuildHistograms(t *testing.T) {
	events := []DetectionEvent{
		{Bin: 0, Origin: OriginSignal},
		{Bin: 0, Origin: OriginDark},
		{Bin: 2, Origin: OriginSignal},
		{Bin: 5, Origin: OriginDark},
	}
	ref, det, err := BuildHistograms(fourPulseBlock(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (Histogram{1, 0, 1, 0}); !reflect.DeepEqual(ref, want) {
		t.Errorf("reference = %v, want %v", ref, want)
	}
	// The window extends past the block to cover the latest event.
	if want := (Histogram{2, 0, 1, 0, 0, 1}); !reflect.DeepEqual(det, want) {
		t.Errorf("detected = %v, want %v", det, want)
	}
	if det.Total() != len(events) {
		t.Errorf("detected total %d, want %d", det.Total(), len(events))
	}
}

func TestBuildHistogramsDeterministic(t *testing.T) {
	events := []DetectionEvent{
		{Bin: 1, Origin: OriginDecoy},
		{Bin: 3, Origin: OriginSignal},
	}
	ref1, det1, err := BuildHistograms(fourPulseBlock(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ref2, det2, err := BuildHistograms(fourPulseBlock(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ref1, ref2) || !reflect.DeepEqual(det1, det2) {
		t.Errorf("identical inputs produced different histograms: %v/%v vs %v/%v", ref1, det1, ref2, det2)
	}
}

func TestBuildHistogramsErrors(t *testing.T) {
	if _, _, err := BuildHistograms(fourPulseBlock(), nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("no events: got %v, want ErrEmptyInput", err)
	}
	events := []DetectionEvent{{Bin: 1, Origin: OriginSignal}}
	if _, _, err := BuildHistograms(nil, events); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("no pulses: got %v, want ErrInvalidParameter", err)
	}
	bad := []DetectionEvent{{Bin: -1, Origin: OriginDark}}
	if _, _, err := BuildHistograms(fourPulseBlock(), bad); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("negative bin: got %v, want ErrInvalidParameter", err)
	}
}
