// Package export writes the records of a Miriad dataset as CSV, one row per
// record and channel, optionally compressed according to the file
// extension (.gz, .zst or .xz).
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/star/vissim/internal/miriad"
)

// Compression is the codec applied to an export file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGZ
	CompressionZSTD
	CompressionXZ
)

// DetectCompression picks the codec from the extension of path.
func DetectCompression(path string) Compression {
	path = strings.ToLower(path)
	switch {
	case strings.HasSuffix(path, ".gz"):
		return CompressionGZ
	case strings.HasSuffix(path, ".zst"):
		return CompressionZSTD
	case strings.HasSuffix(path, ".xz"):
		return CompressionXZ
	}
	return CompressionNone
}

// newWriter wraps w with the compressor for c. The returned close function
// flushes the compressor but does not close w.
func newWriter(w io.Writer, c Compression) (io.Writer, func() error, error) {
	switch c {
	case CompressionNone:
		return w, func() error { return nil }, nil
	case CompressionGZ:
		gz := gzip.NewWriter(w)
		return gz, gz.Close, nil
	case CompressionZSTD:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd writer: %w", err)
		}
		return zw, zw.Close, nil
	case CompressionXZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("xz writer: %w", err)
		}
		return xw, xw.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported compression %d", c)
}

// Header is the column layout of an export.
var Header = []string{"record", "time", "ant_i", "ant_j", "pol", "channel", "re", "im", "flagged"}

// Records streams every remaining record of r into a CSV file at path and
// returns the number of records written.
func Records(path string, r *miriad.Reader) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: %w", cerr)
		}
	}()

	zw, closeZ, err := newWriter(f, DetectCompression(path))
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	cw := csv.NewWriter(zw)
	defer func() {
		cw.Flush()
		if ferr := cw.Error(); ferr != nil && err == nil {
			err = fmt.Errorf("export: %w", ferr)
		}
		if cerr := closeZ(); cerr != nil && err == nil {
			err = fmt.Errorf("export: %w", cerr)
		}
	}()

	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	row := make([]string, len(Header))
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("export record %d: %w", n, err)
		}
		row[0] = strconv.Itoa(n)
		row[1] = strconv.FormatFloat(rec.Preamble.Time, 'f', 8, 64)
		row[2] = strconv.Itoa(rec.Preamble.I)
		row[3] = strconv.Itoa(rec.Preamble.J)
		row[4] = miriad.Pol2Str(rec.Pol)
		for ch, v := range rec.Data {
			row[5] = strconv.Itoa(ch)
			row[6] = strconv.FormatFloat(float64(real(v)), 'g', -1, 32)
			row[7] = strconv.FormatFloat(float64(imag(v)), 'g', -1, 32)
			row[8] = strconv.FormatBool(rec.Flags[ch])
			if err := cw.Write(row); err != nil {
				return n, fmt.Errorf("export: %w", err)
			}
		}
		n++
	}
	return n, nil
}
