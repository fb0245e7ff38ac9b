package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/star/vissim/internal/cal"
	"github.com/star/vissim/internal/config"
	"github.com/star/vissim/internal/gsm"
	"github.com/star/vissim/internal/metrics"
	"github.com/star/vissim/internal/miriad"
	"github.com/star/vissim/internal/plot"
	"github.com/star/vissim/internal/report"
	"github.com/star/vissim/internal/sim"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger.Info("vissim config", cfg.LogAttrs()...)

	// Graceful stop between time steps on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	runErr := run(ctx, cfg, logger)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("writing metrics file failed", "path", cfg.MetricsFile, "error", err)
		}
	}

	if runErr != nil {
		logger.Error("run failed", "error", runErr, "duration_ms", time.Since(start).Milliseconds())
		stop()
		os.Exit(1)
	}
	logger.Info("done", "filename", cfg.Filename, "duration_ms", time.Since(start).Milliseconds())
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) (err error) {
	scanMaps(cfg.MapDir, logger)

	prof, err := cal.Lookup(cfg.Cal, cfg.CalPaths)
	if err != nil {
		return err
	}
	aa, err := prof.Array(cfg.Sfreq, cfg.Sdf, cfg.Nchan)
	if err != nil {
		return err
	}
	logger.Info("antenna array loaded", "cal", aa.Name(), "antennas", aa.Len(), "channels", cfg.Nchan)

	logger.Info("setting up miriad UV file", "filename", cfg.Filename)
	w, err := miriad.Create(cfg.Filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing dataset: %w", cerr)
		}
	}()

	cmdline := strings.Join(os.Args, " ")
	if err := sim.InitDataset(w, aa, sim.Schema{
		Nchan:       cfg.Nchan,
		Sfreq:       cfg.Sfreq,
		Sdf:         cfg.Sdf,
		Inttime:     cfg.Inttime,
		CommandLine: cmdline,
	}); err != nil {
		return err
	}

	times := sim.SampleTimes(cfg.TimeRange, cfg.StartJD, cfg.EndJD, cfg.Inttime)
	logger.Info("time range", "mode", cfg.TimeRange.String(), "samples", len(times))

	s, err := sim.NewSimulator(sim.Params{
		Array:   aa,
		AntI:    cfg.AntI,
		AntJ:    cfg.AntJ,
		Case:    cfg.Case,
		StartJD: cfg.StartJD,
		Times:   times,
		Nside:   cfg.Nside,
		Workers: cfg.Workers,
	}, w, logger)
	if err != nil {
		return err
	}

	res, err := s.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("records written", "dataset", w.Path(), "count", w.Records())

	if cfg.Plot != "" {
		if err := writeOutput(cfg.Plot, res, plot.Render); err != nil {
			return err
		}
		logger.Info("plot written", "path", cfg.Plot)
	}
	if cfg.Chart != "" {
		if err := writeOutput(cfg.Chart, res, plot.RenderHTML); err != nil {
			return err
		}
		logger.Info("chart written", "path", cfg.Chart)
	}
	if cfg.Report != "" {
		meta := report.Meta{
			Dataset: cfg.Filename,
			Cal:     cfg.Cal,
			AntI:    cfg.AntI,
			AntJ:    cfg.AntJ,
			Nside:   cfg.Nside,
			Inttime: cfg.Inttime,
			Command: cmdline,
		}
		if err := report.Write(cfg.Report, meta, res); err != nil {
			return err
		}
		logger.Info("report written", "path", cfg.Report)
	}
	return nil
}

func scanMaps(dir string, logger *slog.Logger) {
	cat, err := gsm.Scan(dir)
	if err != nil {
		logger.Warn("scanning map directory failed", "dir", dir, "error", err)
		return
	}
	lo, hi, ok := cat.Range()
	if !ok {
		logger.Info("no GSM maps found", "dir", dir)
		return
	}
	first, _ := cat.Path(lo)
	logger.Info("GSM maps found",
		"dir", dir,
		"count", cat.Len(),
		"first", lo,
		"last", hi,
		"first_path", first,
		"missing", len(cat.Missing()),
	)
}

func writeOutput(path string, res *sim.Result, render func(io.Writer, *sim.Result) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := render(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
