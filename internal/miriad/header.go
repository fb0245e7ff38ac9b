package miriad

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// Header item type tags.
const (
	hByte  = 1
	hInt   = 2
	hInt2  = 3
	hReal  = 4
	hDble  = 5
	hTxt   = 6
	hCmplx = 7
	hInt8  = 8
)

const (
	itemNameLen  = 15
	itemAlign    = 16
	maxItemBytes = 255
)

// encodeItem returns the type tag followed by the aligned value.
func encodeItem(v any) ([]byte, error) {
	be := binary.BigEndian
	var (
		tag   byte
		align int
		val   []byte
	)
	switch x := v.(type) {
	case string:
		tag, align, val = hByte, 1, []byte(x)
	case int32:
		tag, align, val = hInt, 4, be.AppendUint32(nil, uint32(x))
	case int:
		tag, align, val = hInt, 4, be.AppendUint32(nil, uint32(int32(x)))
	case int16:
		tag, align, val = hInt2, 2, be.AppendUint16(nil, uint16(x))
	case int64:
		tag, align, val = hInt8, 8, be.AppendUint64(nil, uint64(x))
	case float32:
		tag, align, val = hReal, 4, be.AppendUint32(nil, math.Float32bits(x))
	case float64:
		tag, align, val = hDble, 8, be.AppendUint64(nil, math.Float64bits(x))
	case complex64:
		val = be.AppendUint32(nil, math.Float32bits(real(x)))
		val = be.AppendUint32(val, math.Float32bits(imag(x)))
		tag, align = hCmplx, 8
	default:
		return nil, fmt.Errorf("%w: header item of type %T", ErrTypeMismatch, v)
	}

	out := []byte{0, 0, 0, tag}
	for len(out)%align != 0 {
		out = append(out, 0)
	}
	out = append(out, val...)
	if len(out) > maxItemBytes {
		return nil, fmt.Errorf("header item too large: %d bytes", len(out))
	}
	return out, nil
}

// decodeItem is the inverse of encodeItem.
func decodeItem(b []byte) (any, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%w: header item of %d bytes", ErrCorrupt, len(b))
	}
	be := binary.BigEndian
	tag := b[3]

	payload := func(align, size int) ([]byte, error) {
		start := int(roundUp(4, int64(align)))
		if size >= 0 && len(b) < start+size {
			return nil, fmt.Errorf("%w: short header item (tag %d)", ErrCorrupt, tag)
		}
		if size < 0 {
			return b[start:], nil
		}
		return b[start : start+size], nil
	}

	switch tag {
	case hByte, hTxt:
		p, err := payload(1, -1)
		if err != nil {
			return nil, err
		}
		return string(p), nil
	case hInt:
		p, err := payload(4, 4)
		if err != nil {
			return nil, err
		}
		return int32(be.Uint32(p)), nil
	case hInt2:
		p, err := payload(2, 2)
		if err != nil {
			return nil, err
		}
		return int16(be.Uint16(p)), nil
	case hInt8:
		p, err := payload(8, 8)
		if err != nil {
			return nil, err
		}
		return int64(be.Uint64(p)), nil
	case hReal:
		p, err := payload(4, 4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(be.Uint32(p)), nil
	case hDble:
		p, err := payload(8, 8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(be.Uint64(p)), nil
	case hCmplx:
		p, err := payload(8, 8)
		if err != nil {
			return nil, err
		}
		re := math.Float32frombits(be.Uint32(p))
		im := math.Float32frombits(be.Uint32(p[4:]))
		return complex(re, im), nil
	}
	return nil, fmt.Errorf("%w: unknown header type tag %d", ErrCorrupt, tag)
}

// writeHeader writes items to dir/header in name order.
func writeHeader(dir string, items map[string]any) error {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		if len(name) == 0 || len(name) > itemNameLen {
			return fmt.Errorf("header item name %q: must be 1-%d bytes", name, itemNameLen)
		}
		data, err := encodeItem(items[name])
		if err != nil {
			return fmt.Errorf("header item %q: %w", name, err)
		}
		var field [itemAlign]byte
		copy(field[:], name)
		field[itemNameLen] = byte(len(data))
		buf.Write(field[:])
		buf.Write(data)
		for buf.Len()%itemAlign != 0 {
			buf.WriteByte(0)
		}
	}
	return os.WriteFile(filepath.Join(dir, "header"), buf.Bytes(), 0o644)
}

// readHeader parses dir/header.
func readHeader(dir string) (map[string]any, error) {
	b, err := os.ReadFile(filepath.Join(dir, "header"))
	if err != nil {
		return nil, err
	}
	items := make(map[string]any)
	for off := 0; off < len(b); {
		if off+itemAlign > len(b) {
			return nil, fmt.Errorf("%w: truncated header entry at %d", ErrCorrupt, off)
		}
		name := string(bytes.TrimRight(b[off:off+itemNameLen], "\x00"))
		n := int(b[off+itemNameLen])
		start := off + itemAlign
		if start+n > len(b) {
			return nil, fmt.Errorf("%w: header item %q overruns file", ErrCorrupt, name)
		}
		v, err := decodeItem(b[start : start+n])
		if err != nil {
			return nil, fmt.Errorf("header item %q: %w", name, err)
		}
		items[name] = v
		off = int(roundUp(int64(start+n), itemAlign))
	}
	return items, nil
}
