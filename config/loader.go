package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a validated parameter set by layering, lowest precedence
// first: Default(), the YAML file at path (skipped when path is empty), and
// QKD_-prefixed environment variables (e.g. QKD_BLOCK_SIZE -> block_size).
func Load(path string) (*Parameters, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	envProvider := env.Provider("QKD_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "QKD_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	p := Default()
	if err := k.UnmarshalWithConf("", p, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes the parameter set to a YAML file that Load accepts back.
func Save(p *Parameters, path string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	out, err := yaml.Parser().Marshal(map[string]interface{}{
		"signal_power":   p.SignalPower,
		"decoy_power":    p.DecoyPower,
		"signal_prob":    p.SignalProb,
		"block_size":     p.BlockSize,
		"loss_prob":      p.LossProb,
		"loss_db_per_km": p.LossDBPerKm,
		"length_km":      p.LengthKm,
		"dark_rate":      p.DarkRate,
		"bin_width":      p.BinWidth,
		"true_offset":    p.TrueOffset,
		"jitter_std":     p.JitterStd,
		"max_offset":     p.MaxOffset,
		"sync_threshold": p.SyncThreshold,
		"seed":           p.Seed,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return os.WriteFile(path, out, 0o644)
}
