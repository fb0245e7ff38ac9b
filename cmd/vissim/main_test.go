package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/star/vissim/internal/config"
	"github.com/star/vissim/internal/miriad"
	"github.com/star/vissim/internal/sim"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testConfig(t *testing.T, dir string, extra ...string) config.Config {
	t.Helper()
	args := append([]string{
		"--map", filepath.Join(dir, "gsm"),
		"--filename", filepath.Join(dir, "test.uv"),
		"--cal-path", dir,
		"--nchan", "4",
		"--nside", "8",
		"--case", "zenith",
		"--time-range", "config",
		"--startjd", "2454500.24",
		"--endjd", "2454500.2405",
	}, extra...)
	cfg, err := config.Load(args)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func countRecords(t *testing.T, path string) int {
	t.Helper()
	r, err := miriad.Open(path)
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}
	defer r.Close()
	n := 0
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			return n
		}
		if err != nil {
			t.Fatalf("record %d: %v", n, err)
		}
		n++
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		outputs map[string]string // output flag -> file name
		cancel  bool
		rerun   bool
		wantErr error
	}{
		{name: "dataset only"},
		{name: "with outputs", outputs: map[string]string{"plot": "run.png", "chart": "run.html", "report": "run.xlsx"}},
		{name: "existing dataset", rerun: true, wantErr: miriad.ErrExists},
		{name: "cancelled", cancel: true, wantErr: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			var extra, outputs []string
			for flag, name := range tt.outputs {
				path := filepath.Join(dir, name)
				extra = append(extra, "--"+flag, path)
				outputs = append(outputs, path)
			}
			cfg := testConfig(t, dir, extra...)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.rerun {
				if err := run(ctx, cfg, testLogger()); err != nil {
					t.Fatalf("first run: %v", err)
				}
			}
			if tt.cancel {
				cancel()
			}

			err := run(ctx, cfg, testLogger())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("run error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("run: %v", err)
			}

			// The dataset is closed on every path, so it always reads back.
			want := len(sim.SampleTimes(cfg.TimeRange, cfg.StartJD, cfg.EndJD, cfg.Inttime))
			if tt.cancel {
				want = 0
			}
			if got := countRecords(t, cfg.Filename); got != want {
				t.Errorf("records = %d, want %d", got, want)
			}

			for _, path := range outputs {
				st, err := os.Stat(path)
				if err != nil {
					t.Errorf("output %s: %v", path, err)
					continue
				}
				if st.Size() == 0 {
					t.Errorf("output %s is empty", path)
				}
			}
		})
	}
}
