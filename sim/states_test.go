package sim

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

func TestGenerateStatesValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tcs := []struct {
		name                     string
		sigPower, decPower, prob float64
		blockSize                int
	}{
		{name: "negative signal power", sigPower: -0.1, decPower: 0.1, prob: 0.5, blockSize: 10},
		{name: "negative decoy power", sigPower: 0.5, decPower: -0.1, prob: 0.5, blockSize: 10},
		{name: "probability below zero", sigPower: 0.5, decPower: 0.1, prob: -0.01, blockSize: 10},
		{name: "probability above one", sigPower: 0.5, decPower: 0.1, prob: 1.01, blockSize: 10},
		{name: "zero block size", sigPower: 0.5, decPower: 0.1, prob: 0.5, blockSize: 0},
		{name: "negative block size", sigPower: 0.5, decPower: 0.1, prob: 0.5, blockSize: -3},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GenerateStates(rng, tc.sigPower, tc.decPower, tc.prob, tc.blockSize)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("got %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestGenerateStatesShape(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pulses, err := GenerateStates(rng, 0.5, 0.1, 0.3, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pulses) != 500 {
		t.Fatalf("got %d pulses, want 500", len(pulses))
	}
	for i, p := range pulses {
		if p.Index != i {
			t.Fatalf("pulse %d carries index %d", i, p.Index)
		}
		want := 0.1
		if p.IsSignal {
			want = 0.5
		}
		if p.Intensity != want {
			t.Fatalf("pulse %d: intensity %v inconsistent with IsSignal=%v", i, p.Intensity, p.IsSignal)
		}
	}
}

func TestGenerateStatesSignalFraction(t *testing.T) {
	const n = 20000
	const p = 0.7
	rng := rand.New(rand.NewSource(11))
	pulses, err := GenerateStates(rng, 0.5, 0.1, p, n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	signals := 0
	for _, pl := range pulses {
		if pl.IsSignal {
			signals++
		}
	}
	frac := float64(signals) / n
	if math.Abs(frac-p) > 0.02 {
		t.Errorf("signal fraction %v, want %v +/- 0.02", frac, p)
	}
}
