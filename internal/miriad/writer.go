package miriad

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Entry kinds in the visdata stream.
const (
	entrySize = 0
	entryData = 1
	entryEOR  = 2
)

const (
	maxVars       = 256
	maxVarNameLen = 8
	recordAlign   = 8
)

// Preamble is the per-record coordinate block.
type Preamble struct {
	UVW  [3]float64 // baseline coordinates, ns
	Time float64    // Julian date
	I, J int        // 0-based antenna pair
}

type uvVar struct {
	name    string
	typ     VarType
	index   int
	value   []byte
	written int // length last written to the stream, -1 if never
	updated bool
}

// Writer creates a new dataset. Variables are declared with AddVar, given
// values with SetVar, and emitted into the next record written by Write.
// Only variables updated since the previous record are stored again.
type Writer struct {
	dir     string
	vars    []*uvVar
	byName  map[string]*uvVar
	items   map[string]any
	history strings.Builder

	visFile *os.File
	vis     *bufio.Writer
	offset  int64
	flags   *maskWriter

	ncorr   int64
	records int
	closed  bool
}

// Create makes a new dataset directory at path. It fails with ErrExists if
// anything is already there.
func Create(path string) (*Writer, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("create %s: %w", path, ErrExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("create %s: %w", path, ErrExists)
		}
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	visFile, err := os.Create(filepath.Join(path, "visdata"))
	if err != nil {
		return nil, fmt.Errorf("create visdata: %w", err)
	}
	flags, err := newMaskWriter(filepath.Join(path, "flags"))
	if err != nil {
		visFile.Close()
		return nil, fmt.Errorf("create flags: %w", err)
	}

	return &Writer{
		dir:     path,
		byName:  make(map[string]*uvVar),
		items:   make(map[string]any),
		visFile: visFile,
		vis:     bufio.NewWriterSize(visFile, 1<<16),
		flags:   flags,
	}, nil
}

// Path returns the dataset directory.
func (w *Writer) Path() string { return w.dir }

// Records returns the number of records written so far.
func (w *Writer) Records() int { return w.records }

// SetItem stores a header item. Supported values are string, int, int16,
// int32, int64, float32, float64 and complex64.
func (w *Writer) SetItem(name string, v any) error {
	if w.closed {
		return ErrClosed
	}
	if len(name) == 0 || len(name) > itemNameLen {
		return fmt.Errorf("header item name %q: must be 1-%d bytes", name, itemNameLen)
	}
	if _, err := encodeItem(v); err != nil {
		return fmt.Errorf("header item %q: %w", name, err)
	}
	w.items[name] = v
	return nil
}

// AppendHistory adds text to the history item.
func (w *Writer) AppendHistory(text string) {
	w.history.WriteString(text)
}

// AddVar declares a uv variable. Redeclaring with the same type is a no-op.
func (w *Writer) AddVar(name string, t VarType) error {
	if w.closed {
		return ErrClosed
	}
	if !t.Valid() {
		return fmt.Errorf("variable %q: unknown type %q", name, byte(t))
	}
	if len(name) == 0 || len(name) > maxVarNameLen || strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("variable name %q: must be 1-%d bytes without spaces", name, maxVarNameLen)
	}
	if v, ok := w.byName[name]; ok {
		if v.typ != t {
			return fmt.Errorf("variable %q: declared as %s, redeclared as %s: %w", name, v.typ, t, ErrTypeMismatch)
		}
		return nil
	}
	if len(w.vars) == maxVars {
		return fmt.Errorf("variable %q: table full (%d variables)", name, maxVars)
	}
	v := &uvVar{name: name, typ: t, index: len(w.vars), written: -1}
	w.vars = append(w.vars, v)
	w.byName[name] = v
	return nil
}

// SetVar assigns a value to a declared variable. The value is stored in the
// next record.
func (w *Writer) SetVar(name string, value any) error {
	if w.closed {
		return ErrClosed
	}
	v, ok := w.byName[name]
	if !ok {
		return fmt.Errorf("set %q: %w", name, ErrUnknownVar)
	}
	b, err := encodeValue(v.typ, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", name, err)
	}
	if len(b) == 0 {
		return fmt.Errorf("set %q: empty value", name)
	}
	v.value = b
	v.updated = true
	return nil
}

// Var returns the current value of a variable, decoded as by Reader.Var.
func (w *Writer) Var(name string) (any, error) {
	v, ok := w.byName[name]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", name, ErrUnknownVar)
	}
	if v.value == nil {
		return nil, fmt.Errorf("get %q: no value set", name)
	}
	return decodeValue(v.typ, v.value)
}

// Write emits one record: the preamble, any updated variables and the
// correlation data. flags[k] true marks channel k as bad.
func (w *Writer) Write(p Preamble, data []complex64, flags []bool) error {
	if w.closed {
		return ErrClosed
	}
	if len(data) == 0 {
		return errors.New("write: empty correlation data")
	}
	if len(flags) != len(data) {
		return fmt.Errorf("write: %d flags for %d channels", len(flags), len(data))
	}

	for _, rv := range []struct {
		name string
		t    VarType
	}{
		{"coord", TypeDouble},
		{"time", TypeDouble},
		{"baseline", TypeReal},
		{"nchan", TypeInt},
		{"corr", TypeReal},
	} {
		if err := w.AddVar(rv.name, rv.t); err != nil {
			return err
		}
	}

	if err := w.SetVar("coord", p.UVW); err != nil {
		return err
	}
	if err := w.SetVar("time", p.Time); err != nil {
		return err
	}
	if err := w.SetVar("baseline", BaselineCode(p.I, p.J)); err != nil {
		return err
	}
	if cur, err := w.Var("nchan"); err != nil || cur.([]int32)[0] != int32(len(data)) {
		if err := w.SetVar("nchan", len(data)); err != nil {
			return err
		}
	}
	pairs := make([]float32, 2*len(data))
	for k, c := range data {
		pairs[2*k] = real(c)
		pairs[2*k+1] = imag(c)
	}
	if err := w.SetVar("corr", pairs); err != nil {
		return err
	}

	for _, v := range w.vars {
		if !v.updated {
			continue
		}
		if len(v.value) != v.written {
			if err := w.putSize(v); err != nil {
				return err
			}
		}
		if err := w.putData(v); err != nil {
			return err
		}
		v.updated = false
	}
	if err := w.putEOR(); err != nil {
		return err
	}

	good := make([]bool, len(flags))
	for k, f := range flags {
		good[k] = !f
	}
	if err := w.flags.append(good); err != nil {
		return fmt.Errorf("write flags: %w", err)
	}
	w.ncorr += int64(len(data))
	w.records++
	return nil
}

func (w *Writer) put(b []byte) error {
	n, err := w.vis.Write(b)
	w.offset += int64(n)
	if err != nil {
		return fmt.Errorf("write visdata: %w", err)
	}
	return nil
}

func (w *Writer) padTo(align int64) error {
	if pad := roundUp(w.offset, align) - w.offset; pad > 0 {
		return w.put(make([]byte, pad))
	}
	return nil
}

func (w *Writer) putSize(v *uvVar) error {
	n := uint32(len(v.value))
	b := []byte{byte(v.index), 0, entrySize, 0, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	if err := w.put(b); err != nil {
		return err
	}
	v.written = len(v.value)
	return nil
}

func (w *Writer) putData(v *uvVar) error {
	if err := w.put([]byte{byte(v.index), 0, entryData, 0}); err != nil {
		return err
	}
	if err := w.padTo(int64(v.typ.Size())); err != nil {
		return err
	}
	if err := w.put(v.value); err != nil {
		return err
	}
	return w.padTo(recordAlign)
}

func (w *Writer) putEOR() error {
	return w.put([]byte{0, 0, entryEOR, 0, 0, 0, 0, 0})
}

// Close finishes the dataset: it flushes the record stream and flag mask and
// writes the variable table, header and history. Close is idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if err := w.vis.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush visdata: %w", err))
	}
	if err := w.visFile.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close visdata: %w", err))
	}
	if err := w.flags.close(); err != nil {
		errs = append(errs, fmt.Errorf("close flags: %w", err))
	}

	var vt strings.Builder
	for _, v := range w.vars {
		fmt.Fprintf(&vt, "%s %s\n", v.typ, v.name)
	}
	if err := os.WriteFile(filepath.Join(w.dir, "vartable"), []byte(vt.String()), 0o644); err != nil {
		errs = append(errs, fmt.Errorf("write vartable: %w", err))
	}

	w.items["vislen"] = w.offset
	w.items["ncorr"] = w.ncorr
	w.items["nwcorr"] = int64(0)
	if err := writeHeader(w.dir, w.items); err != nil {
		errs = append(errs, fmt.Errorf("write header: %w", err))
	}

	if err := os.WriteFile(filepath.Join(w.dir, "history"), []byte(w.history.String()), 0o644); err != nil {
		errs = append(errs, fmt.Errorf("write history: %w", err))
	}
	return errors.Join(errs...)
}
