// Package config loads the vissim run configuration from command-line
// flags, VISSIM_* environment variables and an optional config file, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/star/vissim/internal/sim"
)

// ErrInvalidConfig wraps every parse and validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix is the prefix of environment overrides, e.g. VISSIM_NCHAN.
const EnvPrefix = "VISSIM"

// Config is the immutable run configuration.
type Config struct {
	MapDir   string
	Filename string
	Nchan    int
	Case     sim.Case
	Inttime  float64 // s
	Sfreq    float64 // GHz
	Sdf      float64 // GHz
	StartJD  float64
	EndJD    float64

	Cal       string
	CalPaths  []string
	AntI      int
	AntJ      int
	Nside     int
	Workers   int
	TimeRange sim.TimeRange

	Plot        string
	Chart       string
	Report      string
	MetricsFile string
	LogLevel    slog.Level
}

// NewFlagSet returns the vissim flags with their defaults.
func NewFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("vissim", pflag.ContinueOnError)
	fs.String("map", "./gsm/", "directory of GSM sky maps")
	fs.String("filename", "test.uv", "output Miriad UV dataset")
	fs.Int("nchan", 203, "number of frequency channels")
	fs.String("case", "pole", "source position: pole, east or zenith")
	fs.Float64("inttime", 10, "integration time in seconds")
	fs.Float64("sfreq", 0.1, "start frequency in GHz")
	fs.Float64("sdf", 0.1/203, "channel spacing in GHz")
	fs.Float64("startjd", 2454500, "start Julian date")
	fs.Float64("endjd", 2454501, "end Julian date")

	fs.String("cal", "psa898_v003", "calibration profile")
	fs.StringSlice("cal-path", []string{".", "./cal"}, "directories searched for calibration profile files")
	fs.Int("ant-i", 0, "first antenna of the baseline")
	fs.Int("ant-j", 16, "second antenna of the baseline")
	fs.Int("nside", 512, "HEALPix resolution of the sky map")
	fs.Int("workers", 1, "goroutines computing fringe channels")
	fs.String("time-range", "fixed", "sample times: fixed window or config (startjd to endjd)")

	fs.String("plot", "", "write a diagnostic PNG to this path")
	fs.String("chart", "", "write an interactive HTML diagnostic to this path")
	fs.String("report", "", "write an xlsx report to this path")
	fs.String("metrics-file", "", "write Prometheus metrics to this textfile at exit")
	fs.String("config", "", "config file (yaml, toml or json)")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	return fs
}

// Load parses args (without the program name) and returns the validated
// configuration. A help request returns pflag.ErrHelp unwrapped.
func Load(args []string) (Config, error) {
	fs := NewFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: reading %s: %v", ErrInvalidConfig, path, err)
		}
	}

	return fromViper(v)
}

// getter converts viper values strictly and remembers the first failure,
// so that a malformed env or file value is reported instead of read as zero.
type getter struct {
	v   *viper.Viper
	err error
}

func (g *getter) fail(key string, err error) {
	if g.err == nil {
		g.err = fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
}

func (g *getter) int(key string) int {
	n, err := cast.ToIntE(g.v.Get(key))
	if err != nil {
		g.fail(key, err)
	}
	return n
}

func (g *getter) float(key string) float64 {
	f, err := cast.ToFloat64E(g.v.Get(key))
	if err != nil {
		g.fail(key, err)
	}
	return f
}

func (g *getter) str(key string) string {
	return g.v.GetString(key)
}

func fromViper(v *viper.Viper) (Config, error) {
	g := &getter{v: v}
	cfg := Config{
		MapDir:   g.str("map"),
		Filename: g.str("filename"),
		Nchan:    g.int("nchan"),
		Inttime:  g.float("inttime"),
		Sfreq:    g.float("sfreq"),
		Sdf:      g.float("sdf"),
		StartJD:  g.float("startjd"),
		EndJD:    g.float("endjd"),

		Cal:      g.str("cal"),
		CalPaths: v.GetStringSlice("cal-path"),
		AntI:     g.int("ant-i"),
		AntJ:     g.int("ant-j"),
		Nside:    g.int("nside"),
		Workers:  g.int("workers"),

		Plot:        g.str("plot"),
		Chart:       g.str("chart"),
		Report:      g.str("report"),
		MetricsFile: g.str("metrics-file"),
	}
	if g.err != nil {
		return Config{}, g.err
	}

	var err error
	if cfg.Case, err = sim.ParseCase(g.str("case")); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.TimeRange, err = sim.ParseTimeRange(g.str("time-range")); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(g.str("log-level"))); err != nil {
		return Config{}, fmt.Errorf("%w: log-level: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the numeric ranges of cfg.
func (c Config) Validate() error {
	var problems []string
	if c.Nchan < 1 {
		problems = append(problems, fmt.Sprintf("nchan must be at least 1, got %d", c.Nchan))
	}
	if c.Inttime <= 0 {
		problems = append(problems, fmt.Sprintf("inttime must be positive, got %v", c.Inttime))
	}
	if c.Nside < 1 || c.Nside&(c.Nside-1) != 0 {
		problems = append(problems, fmt.Sprintf("nside must be a power of two, got %d", c.Nside))
	}
	if c.EndJD < c.StartJD {
		problems = append(problems, fmt.Sprintf("endjd %v is before startjd %v", c.EndJD, c.StartJD))
	}
	if c.AntI < 0 || c.AntJ < 0 {
		problems = append(problems, fmt.Sprintf("antenna indices must be non-negative, got (%d, %d)", c.AntI, c.AntJ))
	}
	if c.AntI == c.AntJ {
		problems = append(problems, fmt.Sprintf("ant-i and ant-j must differ, both are %d", c.AntI))
	}
	if c.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Filename == "" {
		problems = append(problems, "filename must not be empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// LogAttrs returns the effective configuration as log attributes.
func (c Config) LogAttrs() []any {
	return []any{
		"map", c.MapDir,
		"filename", c.Filename,
		"nchan", c.Nchan,
		"case", c.Case.String(),
		"inttime_s", c.Inttime,
		"sfreq_ghz", c.Sfreq,
		"sdf_ghz", c.Sdf,
		"startjd", c.StartJD,
		"endjd", c.EndJD,
		"cal", c.Cal,
		"ant_i", c.AntI,
		"ant_j", c.AntJ,
		"nside", c.Nside,
		"workers", c.Workers,
		"time_range", c.TimeRange.String(),
	}
}
