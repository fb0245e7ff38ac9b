package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/star/vissim/internal/export"
	"github.com/star/vissim/internal/miriad"
)

func main() {
	fs := pflag.NewFlagSet("uvdump", pflag.ContinueOnError)
	limit := fs.Int("records", 5, "number of records to print (-1 for all)")
	vars := fs.StringSlice("vars", []string{"lst"}, "variables printed with each record")
	exportPath := fs.String("export", "", "also write all records as CSV (.gz, .zst or .xz to compress)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if fs.NArg() != 1 {
		logger.Error("usage: uvdump [flags] <dataset>")
		os.Exit(2)
	}

	if err := dump(os.Stdout, fs.Arg(0), *limit, *vars); err != nil {
		logger.Error("dump failed", "path", fs.Arg(0), "error", err)
		os.Exit(1)
	}

	if *exportPath != "" {
		n, err := exportRecords(fs.Arg(0), *exportPath)
		if err != nil {
			logger.Error("export failed", "path", *exportPath, "error", err)
			os.Exit(1)
		}
		logger.Info("records exported", "path", *exportPath, "records", n)
	}
}

func exportRecords(dataset, path string) (int, error) {
	r, err := miriad.Open(dataset)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	return export.Records(path, r)
}

func dump(out io.Writer, path string, limit int, vars []string) error {
	r, err := miriad.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Fprintln(out, "Header items:")
	if err := r.Dump(out); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nHistory:")
	fmt.Fprint(out, r.History())

	fmt.Fprintln(out, "\nVariables:")
	for _, name := range r.VarNames() {
		t, _ := r.VarType(name)
		fmt.Fprintf(out, "  %s %s\n", t, name)
	}

	fmt.Fprintln(out, "\nRecords:")
	var n int
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}
		if limit < 0 || n < limit {
			var extra []string
			for _, v := range vars {
				if val, err := r.Var(v); err == nil {
					extra = append(extra, fmt.Sprintf("%s=%v", v, val))
				}
			}
			var flagged int
			for _, f := range rec.Flags {
				if f {
					flagged++
				}
			}
			fmt.Fprintf(out, "  %4d t=%.6f bl=(%d,%d) pol=%s nchan=%d flagged=%d %s\n",
				n, rec.Preamble.Time, rec.Preamble.I, rec.Preamble.J,
				miriad.Pol2Str(rec.Pol), len(rec.Data), flagged, strings.Join(extra, " "))
		}
		n++
	}
	fmt.Fprintf(out, "\n%d records\n", n)
	return nil
}
