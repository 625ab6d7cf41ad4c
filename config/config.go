// Package config loads, validates, and saves simulation parameter sets.
// Parameters layer three sources, lowest precedence first: built-in
// defaults, an optional YAML file, and QKD_-prefixed environment variables.
// The sim core re-checks its own preconditions; validation here exists so a
// bad parameter file is reported with the offending key and its allowed
// range before any run starts.
package config

import (
	"errors"
	"fmt"

	"github.com/alan-christopher/decoysim/sim"
)

// Sentinel error kinds for this package, for errors.Is from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Parameters holds one simulation parameterization in file form. Channel
// loss may be given either directly as a probability (loss_prob) or in
// fiber terms (loss_db_per_km plus length_km); the fiber form wins when
// both are present.
type Parameters struct {
	SignalPower float64 `koanf:"signal_power"`
	DecoyPower  float64 `koanf:"decoy_power"`
	SignalProb  float64 `koanf:"signal_prob"`
	BlockSize   int     `koanf:"block_size"`

	LossProb    float64 `koanf:"loss_prob"`
	LossDBPerKm float64 `koanf:"loss_db_per_km"`
	LengthKm    float64 `koanf:"length_km"`

	DarkRate   float64 `koanf:"dark_rate"`
	BinWidth   float64 `koanf:"bin_width"`
	TrueOffset int     `koanf:"true_offset"`
	JitterStd  float64 `koanf:"jitter_std"`

	MaxOffset     int     `koanf:"max_offset"`
	SyncThreshold float64 `koanf:"sync_threshold"`
	Seed          uint64  `koanf:"seed"`
}

// Default returns the built-in parameter set: a 1000-pulse block over a
// 2 dB fiber link with a 5-bin clock offset to recover.
func Default() *Parameters {
	return &Parameters{
		SignalPower:   0.5,
		DecoyPower:    0.1,
		SignalProb:    0.7,
		BlockSize:     1000,
		LossDBPerKm:   0.2,
		LengthKm:      10,
		DarkRate:      0.01,
		BinWidth:      100e-12,
		TrueOffset:    5,
		JitterStd:     0,
		MaxOffset:     50,
		SyncThreshold: sim.DefaultSyncThreshold,
		Seed:          1,
	}
}

type bound struct {
	name     string
	value    float64
	min, max float64
}

// Validate reports the first parameter outside its documented range.
func (p *Parameters) Validate() error {
	bounds := []bound{
		{"signal_power", p.SignalPower, 0, 100},
		{"decoy_power", p.DecoyPower, 0, 100},
		{"signal_prob", p.SignalProb, 0, 1},
		{"block_size", float64(p.BlockSize), 1, 1e8},
		{"loss_prob", p.LossProb, 0, 1},
		{"loss_db_per_km", p.LossDBPerKm, 0, 100},
		{"length_km", p.LengthKm, 0, 1e4},
		{"dark_rate", p.DarkRate, 0, 1e6},
		{"bin_width", p.BinWidth, 0, 1},
		{"jitter_std", p.JitterStd, 0, 1e6},
		{"max_offset", float64(p.MaxOffset), 1, 1e6},
		{"sync_threshold", p.SyncThreshold, 0, 100},
	}
	for _, b := range bounds {
		if b.value < b.min || b.value > b.max {
			return fmt.Errorf("%w: %s = %v outside [%v, %v]", ErrInvalidConfig, b.name, b.value, b.min, b.max)
		}
	}
	if p.BinWidth == 0 {
		return fmt.Errorf("%w: bin_width must be positive", ErrInvalidConfig)
	}
	return nil
}

// ToSim converts the file form into the core's run config, resolving the
// fiber loss parameterization if one was given.
func (p *Parameters) ToSim() (sim.Config, error) {
	if err := p.Validate(); err != nil {
		return sim.Config{}, err
	}
	loss := p.LossProb
	if p.LossDBPerKm > 0 && p.LengthKm > 0 {
		var err error
		loss, err = sim.LossFromDB(p.LossDBPerKm, p.LengthKm)
		if err != nil {
			return sim.Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return sim.Config{
		SignalPower:   p.SignalPower,
		DecoyPower:    p.DecoyPower,
		SignalProb:    p.SignalProb,
		BlockSize:     p.BlockSize,
		LossProb:      loss,
		DarkRate:      p.DarkRate,
		BinWidth:      p.BinWidth,
		TrueOffset:    p.TrueOffset,
		JitterStd:     p.JitterStd,
		MaxOffset:     p.MaxOffset,
		SyncThreshold: p.SyncThreshold,
		Seed:          p.Seed,
	}, nil
}
