// Package miriad reads and writes Miriad UV visibility datasets.
//
// A dataset is a directory of items:
//
//	header    small scalar items (name, type tag, value), 16-byte aligned
//	vartable  one "<type> <name>" line per uv variable
//	visdata   stream of variable size/data records and end-of-record markers
//	flags     bit mask, 31 flags per 32-bit word, set bit = good
//	history   free text
//
// All binary values are big-endian.
package miriad

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrExists is returned by Create when the dataset path is already taken.
	ErrExists = errors.New("dataset already exists")
	// ErrUnknownVar is returned when setting or reading an undeclared variable.
	ErrUnknownVar = errors.New("unknown uv variable")
	// ErrTypeMismatch is returned when a value does not fit a variable's type.
	ErrTypeMismatch = errors.New("value does not match variable type")
	// ErrClosed is returned for operations on a closed writer.
	ErrClosed = errors.New("dataset is closed")
	// ErrCorrupt is returned when a dataset item cannot be decoded.
	ErrCorrupt = errors.New("corrupt dataset")
)

// VarType is the single-letter storage type of a uv variable.
type VarType byte

const (
	TypeASCII   VarType = 'a'
	TypeInt     VarType = 'i'
	TypeInt2    VarType = 'j'
	TypeReal    VarType = 'r'
	TypeDouble  VarType = 'd'
	TypeComplex VarType = 'c'
)

// Valid reports whether t is a known type letter.
func (t VarType) Valid() bool {
	switch t {
	case TypeASCII, TypeInt, TypeInt2, TypeReal, TypeDouble, TypeComplex:
		return true
	}
	return false
}

// Size returns the external size in bytes of one element.
func (t VarType) Size() int {
	switch t {
	case TypeASCII:
		return 1
	case TypeInt2:
		return 2
	case TypeInt, TypeReal:
		return 4
	case TypeDouble, TypeComplex:
		return 8
	}
	return 0
}

func (t VarType) String() string { return string(rune(t)) }

// Polarization codes.
var Str2Pol = map[string]int{
	"I": 1, "Q": 2, "U": 3, "V": 4,
	"rr": -1, "ll": -2, "rl": -3, "lr": -4,
	"xx": -5, "yy": -6, "xy": -7, "yx": -8,
}

// Pol2Str returns the name of a polarization code, or "" if unknown.
func Pol2Str(code int) string {
	for s, c := range Str2Pol {
		if c == code {
			return s
		}
	}
	return ""
}

// BaselineCode encodes an antenna pair (0-based) as a Miriad baseline number.
func BaselineCode(i, j int) float64 {
	if i+1 > 255 || j+1 > 255 {
		return float64(2048*(i+1) + (j + 1) + 65536)
	}
	return float64(256*(i+1) + (j + 1))
}

// DecodeBaseline returns the 0-based antenna pair encoded by BaselineCode.
func DecodeBaseline(code float64) (i, j int) {
	bl := int(math.Round(code))
	if bl > 65536 {
		bl -= 65536
		return bl/2048 - 1, bl%2048 - 1
	}
	return bl/256 - 1, bl%256 - 1
}

// encodeValue converts v to the external representation of type t.
func encodeValue(t VarType, v any) ([]byte, error) {
	be := binary.BigEndian
	mismatch := func() ([]byte, error) {
		return nil, fmt.Errorf("%w: %T for type %s", ErrTypeMismatch, v, t)
	}

	switch t {
	case TypeASCII:
		s, ok := v.(string)
		if !ok {
			return mismatch()
		}
		return []byte(s), nil

	case TypeInt:
		var vals []int32
		switch x := v.(type) {
		case int:
			vals = []int32{int32(x)}
		case int32:
			vals = []int32{x}
		case []int32:
			vals = x
		case []int:
			for _, e := range x {
				vals = append(vals, int32(e))
			}
		default:
			return mismatch()
		}
		b := make([]byte, 4*len(vals))
		for i, e := range vals {
			be.PutUint32(b[4*i:], uint32(e))
		}
		return b, nil

	case TypeInt2:
		var vals []int16
		switch x := v.(type) {
		case int16:
			vals = []int16{x}
		case []int16:
			vals = x
		default:
			return mismatch()
		}
		b := make([]byte, 2*len(vals))
		for i, e := range vals {
			be.PutUint16(b[2*i:], uint16(e))
		}
		return b, nil

	case TypeReal:
		var vals []float32
		switch x := v.(type) {
		case float32:
			vals = []float32{x}
		case float64:
			vals = []float32{float32(x)}
		case []float32:
			vals = x
		case []float64:
			for _, e := range x {
				vals = append(vals, float32(e))
			}
		default:
			return mismatch()
		}
		b := make([]byte, 4*len(vals))
		for i, e := range vals {
			be.PutUint32(b[4*i:], math.Float32bits(e))
		}
		return b, nil

	case TypeDouble:
		var vals []float64
		switch x := v.(type) {
		case float64:
			vals = []float64{x}
		case []float64:
			vals = x
		case [3]float64:
			vals = x[:]
		default:
			return mismatch()
		}
		b := make([]byte, 8*len(vals))
		for i, e := range vals {
			be.PutUint64(b[8*i:], math.Float64bits(e))
		}
		return b, nil

	case TypeComplex:
		var vals []complex64
		switch x := v.(type) {
		case complex64:
			vals = []complex64{x}
		case complex128:
			vals = []complex64{complex64(x)}
		case []complex64:
			vals = x
		default:
			return mismatch()
		}
		b := make([]byte, 8*len(vals))
		for i, e := range vals {
			be.PutUint32(b[8*i:], math.Float32bits(real(e)))
			be.PutUint32(b[8*i+4:], math.Float32bits(imag(e)))
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: unsupported type %q", ErrTypeMismatch, byte(t))
}

// decodeValue converts the external representation b of type t to a Go
// value: string, []int32, []int16, []float32, []float64 or []complex64.
func decodeValue(t VarType, b []byte) (any, error) {
	be := binary.BigEndian
	if sz := t.Size(); sz == 0 || len(b)%sz != 0 {
		return nil, fmt.Errorf("%w: %d bytes for type %s", ErrCorrupt, len(b), t)
	}

	switch t {
	case TypeASCII:
		return string(b), nil
	case TypeInt:
		out := make([]int32, len(b)/4)
		for i := range out {
			out[i] = int32(be.Uint32(b[4*i:]))
		}
		return out, nil
	case TypeInt2:
		out := make([]int16, len(b)/2)
		for i := range out {
			out[i] = int16(be.Uint16(b[2*i:]))
		}
		return out, nil
	case TypeReal:
		out := make([]float32, len(b)/4)
		for i := range out {
			out[i] = math.Float32frombits(be.Uint32(b[4*i:]))
		}
		return out, nil
	case TypeDouble:
		out := make([]float64, len(b)/8)
		for i := range out {
			out[i] = math.Float64frombits(be.Uint64(b[8*i:]))
		}
		return out, nil
	default: // TypeComplex
		out := make([]complex64, len(b)/8)
		for i := range out {
			re := math.Float32frombits(be.Uint32(b[8*i:]))
			im := math.Float32frombits(be.Uint32(b[8*i+4:]))
			out[i] = complex(re, im)
		}
		return out, nil
	}
}

// roundUp rounds n up to a multiple of align.
func roundUp(n, align int64) int64 {
	return (n + align - 1) / align * align
}
