package miriad

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Record is one decoded visibility record.
type Record struct {
	Preamble Preamble
	Pol      int
	Data     []complex64
	Flags    []bool // true = bad
	Updated  []string
}

// Reader iterates the records of an existing dataset.
type Reader struct {
	dir     string
	vars    []*uvVar
	byName  map[string]*uvVar
	items   map[string]any
	history string

	visFile *os.File
	vis     *bufio.Reader
	offset  int64
	mask    *mask
	flagOff int64
}

// Open opens the dataset at path for reading.
func Open(path string) (*Reader, error) {
	items, err := readHeader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	vt, err := os.ReadFile(filepath.Join(path, "vartable"))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r := &Reader{
		dir:    path,
		byName: make(map[string]*uvVar),
		items:  items,
	}
	for n, line := range strings.Split(string(vt), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 || len(fields[0]) != 1 || !VarType(fields[0][0]).Valid() {
			return nil, fmt.Errorf("%w: vartable line %d: %q", ErrCorrupt, n+1, line)
		}
		v := &uvVar{name: fields[1], typ: VarType(fields[0][0]), index: len(r.vars), written: -1}
		r.vars = append(r.vars, v)
		r.byName[v.name] = v
	}

	if h, err := os.ReadFile(filepath.Join(path, "history")); err == nil {
		r.history = string(h)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if r.mask, err = readMask(filepath.Join(path, "flags")); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if r.visFile, err = os.Open(filepath.Join(path, "visdata")); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r.vis = bufio.NewReaderSize(r.visFile, 1<<16)
	return r, nil
}

// Close releases the record stream.
func (r *Reader) Close() error { return r.visFile.Close() }

// Item returns a header item.
func (r *Reader) Item(name string) (any, bool) {
	v, ok := r.items[name]
	return v, ok
}

// History returns the history text.
func (r *Reader) History() string { return r.history }

// VarNames returns the declared variables in table order.
func (r *Reader) VarNames() []string {
	out := make([]string, len(r.vars))
	for i, v := range r.vars {
		out[i] = v.name
	}
	return out
}

// VarType returns the type of a declared variable.
func (r *Reader) VarType(name string) (VarType, bool) {
	v, ok := r.byName[name]
	if !ok {
		return 0, false
	}
	return v.typ, true
}

// Var returns the current value of a variable as string, []int32, []int16,
// []float32, []float64 or []complex64.
func (r *Reader) Var(name string) (any, error) {
	v, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", name, ErrUnknownVar)
	}
	if v.value == nil {
		return nil, fmt.Errorf("get %q: not yet read", name)
	}
	return decodeValue(v.typ, v.value)
}

// String returns a character variable.
func (r *Reader) String(name string) (string, error) {
	val, err := r.Var(name)
	if err != nil {
		return "", err
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("get %q: %w", name, ErrTypeMismatch)
	}
	return s, nil
}

// Float64s returns a numeric variable converted to float64.
func (r *Reader) Float64s(name string) ([]float64, error) {
	val, err := r.Var(name)
	if err != nil {
		return nil, err
	}
	switch x := val.(type) {
	case []float64:
		return x, nil
	case []float32:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
		return out, nil
	}
	return nil, fmt.Errorf("get %q: %w", name, ErrTypeMismatch)
}

// Float64 returns the first element of a numeric variable.
func (r *Reader) Float64(name string) (float64, error) {
	vals, err := r.Float64s(name)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("get %q: empty", name)
	}
	return vals[0], nil
}

// Int returns the first element of a numeric variable as an int.
func (r *Reader) Int(name string) (int, error) {
	f, err := r.Float64(name)
	return int(f), err
}

func (r *Reader) read(b []byte) error {
	n, err := io.ReadFull(r.vis, b)
	r.offset += int64(n)
	return err
}

func (r *Reader) skipTo(align int64) error {
	if pad := roundUp(r.offset, align) - r.offset; pad > 0 {
		return r.read(make([]byte, pad))
	}
	return nil
}

// Next reads the next record. It returns io.EOF after the last record.
func (r *Reader) Next() (*Record, error) {
	var updated []string
	first := true
	for {
		var hdr [4]byte
		err := r.read(hdr[:])
		if err == io.EOF && first {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("read visdata at %d: %w", r.offset, unexpected(err))
		}
		first = false

		kind := hdr[2]
		if kind == entryEOR {
			if err := r.read(hdr[:]); err != nil {
				return nil, fmt.Errorf("read visdata at %d: %w", r.offset, unexpected(err))
			}
			return r.record(updated)
		}

		idx := int(hdr[0])
		if idx >= len(r.vars) {
			return nil, fmt.Errorf("%w: variable index %d at offset %d", ErrCorrupt, idx, r.offset-4)
		}
		v := r.vars[idx]

		switch kind {
		case entrySize:
			var n [4]byte
			if err := r.read(n[:]); err != nil {
				return nil, fmt.Errorf("read size of %q: %w", v.name, unexpected(err))
			}
			v.written = int(binary.BigEndian.Uint32(n[:]))
			if v.written%v.typ.Size() != 0 {
				return nil, fmt.Errorf("%w: size %d for %q", ErrCorrupt, v.written, v.name)
			}
		case entryData:
			if v.written < 0 {
				return nil, fmt.Errorf("%w: data for %q before its size", ErrCorrupt, v.name)
			}
			if err := r.skipTo(int64(v.typ.Size())); err != nil {
				return nil, fmt.Errorf("read %q: %w", v.name, unexpected(err))
			}
			buf := make([]byte, v.written)
			if err := r.read(buf); err != nil {
				return nil, fmt.Errorf("read %q: %w", v.name, unexpected(err))
			}
			if err := r.skipTo(recordAlign); err != nil {
				return nil, fmt.Errorf("read %q: %w", v.name, unexpected(err))
			}
			v.value = buf
			updated = append(updated, v.name)
		default:
			return nil, fmt.Errorf("%w: entry kind %d at offset %d", ErrCorrupt, kind, r.offset-4)
		}
	}
}

func (r *Reader) record(updated []string) (*Record, error) {
	rec := &Record{Updated: updated}

	coord, err := r.Float64s("coord")
	if err != nil || len(coord) != 3 {
		return nil, fmt.Errorf("%w: record without coord", ErrCorrupt)
	}
	copy(rec.Preamble.UVW[:], coord)
	if rec.Preamble.Time, err = r.Float64("time"); err != nil {
		return nil, fmt.Errorf("record time: %w", err)
	}
	bl, err := r.Float64("baseline")
	if err != nil {
		return nil, fmt.Errorf("record baseline: %w", err)
	}
	rec.Preamble.I, rec.Preamble.J = DecodeBaseline(bl)
	if _, ok := r.byName["pol"]; ok {
		if rec.Pol, err = r.Int("pol"); err != nil {
			return nil, fmt.Errorf("record pol: %w", err)
		}
	}

	corr, err := r.Float64s("corr")
	if err != nil {
		return nil, fmt.Errorf("record corr: %w", err)
	}
	rec.Data = make([]complex64, len(corr)/2)
	for k := range rec.Data {
		rec.Data[k] = complex(float32(corr[2*k]), float32(corr[2*k+1]))
	}

	good, err := r.mask.good(r.flagOff, len(rec.Data))
	if err != nil {
		return nil, err
	}
	r.flagOff += int64(len(rec.Data))
	rec.Flags = make([]bool, len(good))
	for k, g := range good {
		rec.Flags[k] = !g
	}
	return rec, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Dump writes a one-line summary per header item, useful for diagnostics.
func (r *Reader) Dump(w io.Writer) error {
	var buf bytes.Buffer
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&buf, "%-15s %v\n", name, r.items[name])
	}
	_, err := w.Write(buf.Bytes())
	return err
}
