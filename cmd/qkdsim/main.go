// qkdsim runs the decoy-state channel simulation for each entry in the
// cartesian product of a collection of tuning parameters, e.g. channel loss
// and timing offset, and outputs a CSV of synchronization and count
// statistics for each combination. Repeated values for a flag sweep that
// dimension; flags left unset take their values from the base parameter
// set (built-in defaults, optionally overridden by --config and QKD_ env
// vars).
package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"text/template"

	"github.com/alan-christopher/decoysim/config"
	"github.com/alan-christopher/decoysim/sim"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	configPath = flag.String("config", "", "Path to a YAML parameter file layered over the built-in defaults.")
	saveConfig = flag.String("save-config", "", "Write the effective base parameters to this YAML file and exit.")
	seed       = flag.Uint64("seed", 0, "Base RNG seed; sweep entry i runs with seed base+i. 0 keeps the configured seed.")
	workers    = flag.Int("workers", runtime.NumCPU(), "Concurrent simulation runs.")

	signalPower = flag.Float64Slice("signalPower", nil, "Mean photon number of the signal preparation.")
	decoyPower  = flag.Float64Slice("decoyPower", nil, "Mean photon number of the decoy preparation.")
	signalProb  = flag.Float64Slice("signalProb", nil, "Probability of preparing a signal pulse.")
	blockSize   = flag.IntSlice("blockSize", nil, "Pulses per transmitted block.")
	lossProb    = flag.Float64Slice("lossProb", nil, "Per-signal-pulse loss probability (overrides the fiber dB form).")
	darkRate    = flag.Float64Slice("darkRate", nil, "Mean dark counts per time bin.")
	jitterStd   = flag.Float64Slice("jitterStd", nil, "Std dev of Gaussian timing jitter, in bins.")
	trueOffset  = flag.IntSlice("trueOffset", nil, "Clock offset imposed by the channel, in bins.")
	maxOffset   = flag.IntSlice("maxOffset", nil, "Bound of the correlation offset search.")
)

var columns = []string{
	"SignalPower", "DecoyPower", "SignalProb", "BlockSize", "LossProb",
	"DarkRate", "JitterStd", "TrueOffset", "MaxOffset", "Seed",
	"PeakOffset", "PeakValue", "SyncOK", "TotalCounts", "SignalCounts",
	"DecoyCounts", "DarkCounts", "MeanRate", "QBER", "Degenerate",
}

// An Experiment packages together one parameterization and its results for
// easy formatting.
type Experiment struct {
	SignalPower float64
	DecoyPower  float64
	SignalProb  float64
	BlockSize   int
	LossProb    float64
	DarkRate    float64
	JitterStd   float64
	TrueOffset  int
	MaxOffset   int
	Seed        uint64

	PeakOffset   int
	PeakValue    float64
	SyncOK       bool
	TotalCounts  int
	SignalCounts int
	DecoyCounts  int
	DarkCounts   int
	MeanRate     float64
	QBER         float64
	Degenerate   bool
}

func main() {
	flag.Parse()
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	params, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("loading parameters", zap.Error(err))
	}
	if *saveConfig != "" {
		if err := config.Save(params, *saveConfig); err != nil {
			logger.Fatal("saving parameters", zap.Error(err))
		}
		logger.Info("wrote parameter file", zap.String("path", *saveConfig))
		return
	}
	base, err := params.ToSim()
	if err != nil {
		logger.Fatal("resolving parameters", zap.Error(err))
	}
	if *seed != 0 {
		base.Seed = *seed
	}

	exps := buildSweep(base)
	logger.Info("starting sweep",
		zap.Int("combinations", len(exps)),
		zap.Int("workers", *workers))

	var g errgroup.Group
	g.SetLimit(*workers)
	for i := range exps {
		exp := &exps[i]
		g.Go(func() error {
			res, err := sim.Run(simConfig(exp, base))
			if err != nil {
				return fmt.Errorf("running %+v: %w", *exp, err)
			}
			exp.PeakOffset = res.Correlation.PeakOffset
			exp.PeakValue = res.Correlation.PeakValue
			exp.SyncOK = res.Stats.SyncOK
			exp.TotalCounts = res.Stats.TotalCounts
			exp.SignalCounts = res.Stats.SignalCounts
			exp.DecoyCounts = res.Stats.DecoyCounts
			exp.DarkCounts = res.Stats.DarkCounts
			exp.MeanRate = res.Stats.MeanCountRate
			exp.QBER = res.Stats.QBER
			exp.Degenerate = res.Stats.Degenerate
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Fatal("sweep failed", zap.Error(err))
	}

	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	fmt.Println(strings.Join(columns, ", "))
	for i := range exps {
		if err := tmpl.Execute(os.Stdout, &exps[i]); err != nil {
			logger.Fatal("BUG: could not fill in line template", zap.Error(err))
		}
	}
}

// simConfig maps one sweep entry onto a run config. Bin width and sync
// threshold are not sweep dimensions; they come straight from the base
// parameters.
func simConfig(exp *Experiment, base sim.Config) sim.Config {
	return sim.Config{
		SignalPower:   exp.SignalPower,
		DecoyPower:    exp.DecoyPower,
		SignalProb:    exp.SignalProb,
		BlockSize:     exp.BlockSize,
		LossProb:      exp.LossProb,
		DarkRate:      exp.DarkRate,
		BinWidth:      base.BinWidth,
		TrueOffset:    exp.TrueOffset,
		JitterStd:     exp.JitterStd,
		MaxOffset:     exp.MaxOffset,
		SyncThreshold: base.SyncThreshold,
		Seed:          exp.Seed,
	}
}

// buildSweep expands the cartesian product of every swept flag, falling
// back to the base config for dimensions that were not swept. Each entry
// gets its own derived seed so concurrent runs never share a random stream.
func buildSweep(base sim.Config) []Experiment {
	sigs := floatDim(signalPower, "signalPower", base.SignalPower)
	decs := floatDim(decoyPower, "decoyPower", base.DecoyPower)
	probs := floatDim(signalProb, "signalProb", base.SignalProb)
	blocks := intDim(blockSize, "blockSize", base.BlockSize)
	losses := floatDim(lossProb, "lossProb", base.LossProb)
	darks := floatDim(darkRate, "darkRate", base.DarkRate)
	jits := floatDim(jitterStd, "jitterStd", base.JitterStd)
	offs := intDim(trueOffset, "trueOffset", base.TrueOffset)
	maxes := intDim(maxOffset, "maxOffset", base.MaxOffset)

	var exps []Experiment
	for _, sp := range sigs {
		for _, dp := range decs {
			for _, pr := range probs {
				for _, bs := range blocks {
					for _, lp := range losses {
						for _, dr := range darks {
							for _, js := range jits {
								for _, to := range offs {
									for _, mo := range maxes {
										exps = append(exps, Experiment{
											SignalPower: sp,
											DecoyPower:  dp,
											SignalProb:  pr,
											BlockSize:   bs,
											LossProb:    lp,
											DarkRate:    dr,
											JitterStd:   js,
											TrueOffset:  to,
											MaxOffset:   mo,
											Seed:        base.Seed + uint64(len(exps)),
										})
									}
								}
							}
						}
					}
				}
			}
		}
	}
	return exps
}

func floatDim(vals *[]float64, name string, fallback float64) []float64 {
	if flag.CommandLine.Changed(name) && len(*vals) > 0 {
		return *vals
	}
	return []float64{fallback}
}

func intDim(vals *[]int, name string, fallback int) []int {
	if flag.CommandLine.Changed(name) && len(*vals) > 0 {
		return *vals
	}
	return []int{fallback}
}

func lineTmpl() string {
	var els []string
	for _, c := range columns {
		els = append(els, "{{."+c+"}}")
	}
	return strings.Join(els, ", ") + "\n"
}
