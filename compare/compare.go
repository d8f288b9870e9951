// Package compare runs the HSE, QTN and classical solvers on the same initial condition,
// timing each and measuring the error of the quantum inspired methods against the classical one.
package compare

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/fumin/qburgers"
	"github.com/fumin/qburgers/config"
	"github.com/fumin/qburgers/hse"
	"github.com/fumin/qburgers/mps"
	"github.com/fumin/qburgers/util"
)

// Config is a single comparison.
type Config struct {
	N        int               `msgpack:"n"`
	Steps    int               `msgpack:"steps"`
	Dt       float64           `msgpack:"dt"`
	Nu       float64           `msgpack:"nu"`
	Shock    float64           `msgpack:"shock"`
	Boundary qburgers.Boundary `msgpack:"boundary"`
	Split    mps.Split         `msgpack:"split"`
	Mix      float64           `msgpack:"mix"`
}

// DefaultConfig returns the reference comparison on a grid of n points.
func DefaultConfig(n int) Config {
	return Config{
		N:        n,
		Steps:    3,
		Dt:       0.01,
		Nu:       qburgers.DefaultNu,
		Shock:    qburgers.DefaultShock,
		Boundary: qburgers.BoundaryZeroRows,
		Split:    mps.SplitColumn,
		Mix:      mps.DefaultMix,
	}
}

// Configs returns one Config per size in ip.
func Configs(ip config.Parameters) ([]Config, error) {
	if err := ip.Validate(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	boundary, err := qburgers.ParseBoundary(ip.Boundary)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	split, err := mps.ParseSplit(ip.Split)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	cfgs := make([]Config, 0, len(ip.Sizes))
	for _, n := range ip.Sizes {
		cfgs = append(cfgs, Config{
			N:        n,
			Steps:    ip.Steps,
			Dt:       ip.Dt,
			Nu:       ip.Nu,
			Shock:    ip.Shock,
			Boundary: boundary,
			Split:    split,
			Mix:      ip.Mix,
		})
	}
	return cfgs, nil
}

// Result holds the fields computed by each method, their wall clock time and errors.
type Result struct {
	// Config is the comparison that produced the result.
	Config Config `msgpack:"config"`

	N     int     `msgpack:"n"`
	Steps int     `msgpack:"steps"`
	Dt    float64 `msgpack:"dt"`
	Nu    float64 `msgpack:"nu"`

	X         []float64 `msgpack:"x"`
	Initial   []float64 `msgpack:"initial"`
	Classical []float64 `msgpack:"classical"`
	HSE       []float64 `msgpack:"hse"`
	QTN       []float64 `msgpack:"qtn"`

	TimeClassical time.Duration `msgpack:"time_classical"`
	TimeHSE       time.Duration `msgpack:"time_hse"`
	TimeQTN       time.Duration `msgpack:"time_qtn"`

	// ErrHSE and ErrQTN are RMS errors against the classical field.
	ErrHSE float64 `msgpack:"l2_error_hse"`
	ErrQTN float64 `msgpack:"l2_error_qtn"`
}

// Row returns the CSV row of r.
func (r Result) Row() Row {
	return Row{
		N:             r.N,
		T:             r.Steps,
		Dt:            r.Dt,
		TimeClassical: r.TimeClassical.Seconds(),
		TimeHSE:       r.TimeHSE.Seconds(),
		TimeQTN:       r.TimeQTN.Seconds(),
		ErrHSE:        r.ErrHSE,
		ErrQTN:        r.ErrQTN,
	}
}

// Run solves cfg with every method.
func Run(cfg Config) (Result, error) {
	r := Result{Config: cfg, N: cfg.N, Steps: cfg.Steps, Dt: cfg.Dt, Nu: cfg.Nu}
	r.X = qburgers.Positions(cfg.N)
	r.Initial = qburgers.StepField(cfg.N, cfg.Shock)

	var err error
	start := time.Now()
	r.Classical, err = qburgers.Upwind(r.Initial, cfg.Steps, cfg.Dt, cfg.Nu)
	if err != nil {
		return Result{}, errors.Wrap(err, "classical")
	}
	r.TimeClassical = time.Since(start)

	start = time.Now()
	r.HSE, err = hse.Run(r.Initial, cfg.Steps, cfg.Dt, cfg.Nu, cfg.Boundary)
	if err != nil {
		return Result{}, errors.Wrap(err, "hse")
	}
	r.TimeHSE = time.Since(start)

	start = time.Now()
	gate := mps.NearIdentityGate(float32(cfg.Mix))
	r.QTN, err = mps.Run(r.Initial, cfg.Steps, gate, mps.NewUpdaterOptions().Split(cfg.Split))
	if err != nil {
		return Result{}, errors.Wrap(err, "qtn")
	}
	r.TimeQTN = time.Since(start)

	r.ErrHSE, err = qburgers.RMSError(r.HSE, r.Classical)
	if err != nil {
		return Result{}, errors.Wrap(err, "hse")
	}
	r.ErrQTN, err = qburgers.RMSError(r.QTN, r.Classical)
	if err != nil {
		return Result{}, errors.Wrap(err, "qtn")
	}
	return r, nil
}

// Sweep runs cfgs in order, stopping between configurations when ctx is done.
func Sweep(ctx context.Context, cfgs []Config, log zerolog.Logger) ([]Result, error) {
	return SweepDir(ctx, "", cfgs, log)
}

// SweepDir is Sweep with a snapshot of each result kept in dir.
// A configuration whose snapshot already exists is read back instead of solved again,
// provided the snapshot was computed from exactly the same Config.
// An empty dir disables snapshots.
func SweepDir(ctx context.Context, dir string, cfgs []Config, log zerolog.Logger) ([]Result, error) {
	log = log.With().Str("run", uuid.New().String()).Logger()
	logHost(log)

	throttler := util.NewSkipThrottler(10 * time.Second)
	results := make([]Result, 0, len(cfgs))
	for i, cfg := range cfgs {
		if err := ctx.Err(); err != nil {
			return results, errors.Wrap(err, "")
		}

		r, resumed, err := solve(dir, cfg)
		if err != nil {
			return results, errors.Wrap(err, fmt.Sprintf("%#v", cfg))
		}
		results = append(results, r)

		event := log.Debug()
		if throttler.Ok() || i == len(cfgs)-1 {
			event = log.Info()
		}
		event.Int("n", r.N).Int("steps", r.Steps).Bool("resumed", resumed).
			Dur("classical", r.TimeClassical).Dur("hse", r.TimeHSE).Dur("qtn", r.TimeQTN).
			Float64("l2_error_hse", r.ErrHSE).Float64("l2_error_qtn", r.ErrQTN).
			Msgf("%d/%d", i+1, len(cfgs))
	}
	return results, nil
}

func solve(dir string, cfg Config) (Result, bool, error) {
	if dir == "" {
		r, err := Run(cfg)
		return r, false, err
	}

	fpath := SnapshotPath(dir, cfg.N)
	if _, err := os.Stat(fpath); err == nil {
		r, err := ReadSnapshot(fpath)
		if err != nil {
			return Result{}, false, errors.Wrap(err, "")
		}
		if r.Config == cfg {
			return r, true, nil
		}
	}

	r, err := Run(cfg)
	if err != nil {
		return Result{}, false, errors.Wrap(err, "")
	}
	if err := WriteSnapshot(dir, r); err != nil {
		return Result{}, false, errors.Wrap(err, "")
	}
	return r, false, nil
}

func logHost(log zerolog.Logger) {
	event := log.Info()
	if info, err := host.Info(); err == nil {
		event = event.Str("os", info.OS).Str("platform", info.Platform).Str("kernel", info.KernelVersion)
	} else {
		log.Warn().Err(err).Msg("host info")
	}
	if n, err := cpu.Counts(true); err == nil {
		event = event.Int("cpus", n)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		event = event.Uint64("mem_total", vm.Total).Float64("mem_used_percent", vm.UsedPercent)
	}
	event.Msg("sweep")
}
