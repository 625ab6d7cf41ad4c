package sim

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// DefaultSyncThreshold is the number of standard deviations above the mean
// correlation floor that the peak must clear before synchronization is
// declared.
var DefaultSyncThreshold = 2.5

// fftCutoff is the number of multiply-adds above which Correlate switches
// from the direct sum to the FFT path.
const fftCutoff = 1 << 22

// A CorrelationResult reports the cross-correlation search over candidate
// clock offsets. Offsets and Values are index-aligned; PeakOffset is the
// entry of Offsets whose Value is maximal, ties broken by smallest
// magnitude and then by smallest signed offset.
type CorrelationResult struct {
	Offsets    []int
	Values     []float64
	PeakOffset int
	PeakValue  float64
	SyncOK     bool
}

// Correlate computes the discrete cross-correlation
//
//	C(k) = sum_i reference[i] * detected[i+k]
//
// for every candidate offset k in [-maxOffset, maxOffset], taking the sum
// over the i for which both indices are in range. Synchronization succeeds
// when the peak exceeds the mean of all evaluated values by more than
// threshold standard deviations, which guards against declaring a lock on a
// pure-noise correlation floor.
//
// Small searches use the direct O(len(reference) * maxOffset) sum; large
// ones compute the full linear correlation with an FFT and read the
// candidate range out of it. Both paths return bit-identical results, the
// FFT output being rounded back to the exact integer sums.
func Correlate(reference, detected Histogram, maxOffset int, threshold float64) (*CorrelationResult, error) {
	if len(reference) == 0 || len(detected) == 0 {
		return nil, fmt.Errorf("correlator: %w: empty histogram", ErrInvalidParameter)
	}
	if maxOffset <= 0 {
		return nil, fmt.Errorf("correlator: %w: max offset %d must be positive", ErrInvalidParameter, maxOffset)
	}
	if maxOffset >= len(detected) {
		return nil, fmt.Errorf("correlator: %w: max offset %d exceeds detected histogram length %d", ErrInvalidParameter, maxOffset, len(detected))
	}
	if threshold <= 0 {
		return nil, fmt.Errorf("correlator: %w: sync threshold %v must be positive", ErrInvalidParameter, threshold)
	}

	var values []float64
	if (2*maxOffset+1)*len(reference) > fftCutoff {
		values = correlateFFT(reference, detected, maxOffset)
	} else {
		values = correlateDirect(reference, detected, maxOffset)
	}

	offsets := make([]int, 0, 2*maxOffset+1)
	for k := -maxOffset; k <= maxOffset; k++ {
		offsets = append(offsets, k)
	}

	peakIdx := 0
	for i := 1; i < len(values); i++ {
		if better(offsets[i], values[i], offsets[peakIdx], values[peakIdx]) {
			peakIdx = i
		}
	}
	peak := values[peakIdx]
	mean, std := stat.MeanStdDev(values, nil)

	return &CorrelationResult{
		Offsets:    offsets,
		Values:     values,
		PeakOffset: offsets[peakIdx],
		PeakValue:  peak,
		SyncOK:     peak > mean+threshold*std,
	}, nil
}

// better reports whether candidate (k, v) beats the incumbent (bk, bv)
// under the peak rule: larger value, then smaller magnitude, then smaller
// signed offset.
func better(k int, v float64, bk int, bv float64) bool {
	if v != bv {
		return v > bv
	}
	ka, bka := abs(k), abs(bk)
	if ka != bka {
		return ka < bka
	}
	return k < bk
}

func correlateDirect(reference, detected Histogram, maxOffset int) []float64 {
	values := make([]float64, 0, 2*maxOffset+1)
	for k := -maxOffset; k <= maxOffset; k++ {
		lo, hi := 0, len(reference)
		if k < 0 && -k > lo {
			lo = -k
		}
		if len(detected)-k < hi {
			hi = len(detected) - k
		}
		sum := 0
		for i := lo; i < hi; i++ {
			sum += reference[i] * detected[i+k]
		}
		values = append(values, float64(sum))
	}
	return values
}

// correlateFFT computes the same lag sums via the circular correlation
// theorem: pad both histograms to a common length n covering every linear
// lag, then C = IFFT(conj(FFT(ref)) * FFT(det)). Negative lags wrap to the
// top of the output. Inputs are integer counts, so the float results are
// rounded back to the exact sums the direct path produces.
func correlateFFT(reference, detected Histogram, maxOffset int) []float64 {
	n := len(reference) + len(detected) - 1
	fft := fourier.NewFFT(n)

	ref := make([]float64, n)
	for i, c := range reference {
		ref[i] = float64(c)
	}
	det := make([]float64, n)
	for i, c := range detected {
		det[i] = float64(c)
	}

	refC := fft.Coefficients(nil, ref)
	detC := fft.Coefficients(nil, det)
	for i := range refC {
		refC[i] = cmplx.Conj(refC[i]) * detC[i]
	}
	// Sequence is unnormalized: it returns n times the inverse transform.
	corr := fft.Sequence(nil, refC)

	values := make([]float64, 0, 2*maxOffset+1)
	for k := -maxOffset; k <= maxOffset; k++ {
		// Lags outside the linear overlap have empty sums.
		if k < -(len(reference)-1) || k > len(detected)-1 {
			values = append(values, 0)
			continue
		}
		idx := k
		if idx < 0 {
			idx += n
		}
		values = append(values, math.Round(corr[idx]/float64(n)))
	}
	return values
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
