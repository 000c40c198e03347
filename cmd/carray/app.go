package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/carray/internal/backend/cpu"
	"github.com/born-ml/carray/internal/backend/webgpu"
	"github.com/born-ml/carray/internal/carray"
	"github.com/born-ml/carray/internal/config"
	"github.com/born-ml/carray/internal/nn"
	"github.com/born-ml/carray/internal/pinn"
	"github.com/born-ml/carray/internal/tensor"
)

// runner is the dtype-independent view of an app.
type runner interface {
	eval(args []string) error
	shell() error
}

// app is one network built from a configuration.
type app[T tensor.Real] struct {
	cfg     *config.Config
	opts    Options
	net     *pinn.PhysicsInformedNN[T]
	release func()
	logger  *slog.Logger
	out     io.Writer
}

func withApp(opts Options, logger *slog.Logger, out io.Writer, fn func(runner) error) error {
	cfg, err := loadConfig(opts.ConfigFile)
	if err != nil {
		return err
	}
	if cfg.DataType() == tensor.Float32 {
		a, err := newApp[float32](cfg, opts, logger, out)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(a)
	}
	a, err := newApp[float64](cfg, opts, logger, out)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Defaults(), nil
	}
	return config.Load(path)
}

func newApp[T tensor.Real](cfg *config.Config, opts Options, logger *slog.Logger, out io.Writer) (*app[T], error) {
	backend, release := selectBackend(cfg, logger)

	chains := make(map[string]*nn.Chain[T], len(cfg.System.DependentVars))
	for _, v := range cfg.System.DependentVars {
		chains[v] = nn.MLP[T](cfg.Widths(), cfg.Activation(), cfg.Network.Dropout)
	}
	net, err := pinn.New(cfg.System, chains, pinn.Options{
		Rand:     nn.NewRand(cfg.Seed),
		Backend:  backend,
		Training: cfg.Training,
		Logger:   logger,
	})
	if err != nil {
		release()
		return nil, err
	}

	a := &app[T]{cfg: cfg, opts: opts, net: net, release: release, logger: logger, out: out}
	if opts.Restore != "" {
		if err := a.restore(opts.Restore); err != nil {
			a.close()
			return nil, err
		}
	}
	logger.Info("network ready",
		"id", net.ID().String(),
		"system", cfg.System.Name,
		"params", net.Params().Len(),
		"backend", net.Backend().Name())
	return a, nil
}

func (a *app[T]) close() {
	a.net.Release()
	a.release()
}

// selectBackend returns the configured backend, falling back to the CPU
// when no WebGPU adapter is available.
func selectBackend(cfg *config.Config, logger *slog.Logger) (tensor.Backend, func()) {
	if cfg.Backend == config.BackendWebGPU {
		gpu, err := webgpu.New()
		if err == nil {
			return gpu, gpu.Release
		}
		logger.Warn("WebGPU unavailable, using CPU", "error", err)
	}
	b := cpu.New()
	b.SetParallel(cfg.Parallel())
	logger.Debug("CPU backend", "features", b.Features().String())
	return b, func() {}
}

// parsePoints reads one comma-separated coordinate tuple per argument into
// a d×n feature-major matrix.
func parsePoints[T tensor.Real](args []string, d int) ([]T, int, error) {
	if len(args) == 0 {
		return nil, 0, errors.New("no points given")
	}
	n := len(args)
	vals := make([]T, d*n)
	for j, arg := range args {
		coords := strings.Split(arg, ",")
		if len(coords) != d {
			return nil, 0, fmt.Errorf("point %q: want %d coordinates, got %d", arg, d, len(coords))
		}
		for i, c := range coords {
			v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
			if err != nil {
				return nil, 0, fmt.Errorf("point %q: %w", arg, err)
			}
			vals[i*n+j] = T(v)
		}
	}
	return vals, n, nil
}

func (a *app[T]) eval(args []string) error {
	if err := a.evaluate(args); err != nil {
		return err
	}
	if a.opts.Snapshot != "" {
		return a.writeSnapshot(a.opts.Snapshot)
	}
	return nil
}

func (a *app[T]) evaluate(args []string) error {
	vars := a.cfg.System.IndependentVars
	vals, n, err := parsePoints[T](args, len(vars))
	if err != nil {
		return err
	}
	for i, v := range vars {
		dom, _ := a.cfg.System.Domain(v)
		for j := 0; j < n; j++ {
			if x := float64(vals[i*n+j]); !dom.Contains(x) {
				a.logger.Warn("point outside domain", "variable", v, "value", x, "lower", dom.Lower, "upper", dom.Upper)
			}
		}
	}

	points, err := carray.FromSlice(a.net.Backend(), vals, len(vars), n)
	if err != nil {
		return err
	}
	defer points.Release()

	results, err := a.net.Evaluate(points)
	if err != nil {
		return err
	}
	defer func() {
		for _, y := range results {
			y.Release()
		}
	}()

	for _, v := range a.cfg.System.DependentVars {
		host, err := results[v].Host()
		if err != nil {
			return err
		}
		writeValues(a.out, v, args, host)
	}
	return nil
}

// writeValues prints one line per point. host is feature-major with one
// column per point; outputs wider than one feature print as a list.
func writeValues[T tensor.Real](out io.Writer, name string, args []string, host []T) {
	n := len(args)
	if n == 0 {
		return
	}
	rows := len(host) / n
	for j, arg := range args {
		if rows == 1 {
			fmt.Fprintf(out, "%s(%s) = %g\n", name, arg, float64(host[j]))
			continue
		}
		vals := make([]string, rows)
		for r := range vals {
			vals[r] = strconv.FormatFloat(float64(host[r*n+j]), 'g', -1, 64)
		}
		fmt.Fprintf(out, "%s(%s) = [%s]\n", name, arg, strings.Join(vals, " "))
	}
}

func (a *app[T]) writeSnapshot(path string) error {
	data, err := a.net.Snapshot(map[string]string{"system": a.cfg.System.Name})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	a.logger.Info("snapshot written", "path", path, "bytes", len(data))
	return nil
}

func (a *app[T]) restore(path string) error {
	//nolint:gosec // G304: snapshot path comes from the user
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	return a.net.Restore(data)
}
