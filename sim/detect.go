package sim

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// RecordDetections merges channel survivors with detector dark counts into
// the single time-ordered record handed to the preprocessor.
//
// Dark counts form a homogeneous background process: the number of dark
// events in each of windowBins bins is drawn independently from a Poisson
// distribution with mean darkRate. Multiple events may share a bin; all are
// kept, and the order among same-bin events is insignificant.
func RecordDetections(rng *rand.Rand, survivors []DetectionEvent, darkRate float64, windowBins int) ([]DetectionEvent, error) {
	if darkRate < 0 {
		return nil, fmt.Errorf("detection: %w: dark count rate %v must be non-negative", ErrInvalidParameter, darkRate)
	}
	if windowBins <= 0 {
		return nil, fmt.Errorf("detection: %w: detection window %d bins must be positive", ErrInvalidParameter, windowBins)
	}

	merged := make([]DetectionEvent, len(survivors), len(survivors)+int(darkRate*float64(windowBins)))
	copy(merged, survivors)
	if darkRate > 0 {
		dark := distuv.Poisson{Lambda: darkRate, Src: rng}
		for bin := 0; bin < windowBins; bin++ {
			for n := int(dark.Rand()); n > 0; n-- {
				merged = append(merged, DetectionEvent{Bin: bin, Origin: OriginDark})
			}
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Bin < merged[j].Bin })
	return merged, nil
}
