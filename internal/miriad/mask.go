package miriad

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const maskBits = 31

var maskTag = [4]byte{0, 0, 0, hInt}

// maskWriter packs good/bad bits into 32-bit words, 31 bits per word.
type maskWriter struct {
	f    *os.File
	w    *bufio.Writer
	word uint32
	n    int
}

func newMaskWriter(path string) (*maskWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	m := &maskWriter{f: f, w: bufio.NewWriter(f)}
	if _, err := m.w.Write(maskTag[:]); err != nil {
		f.Close()
		return nil, err
	}
	return m, nil
}

func (m *maskWriter) append(good []bool) error {
	for _, g := range good {
		if g {
			m.word |= 1 << uint(m.n)
		}
		m.n++
		if m.n == maskBits {
			if err := binary.Write(m.w, binary.BigEndian, m.word); err != nil {
				return err
			}
			m.word, m.n = 0, 0
		}
	}
	return nil
}

func (m *maskWriter) close() error {
	var err error
	if m.n > 0 {
		err = binary.Write(m.w, binary.BigEndian, m.word)
	}
	if ferr := m.w.Flush(); err == nil {
		err = ferr
	}
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// mask is a fully loaded flag mask.
type mask struct {
	words []uint32
}

func readMask(path string) (*mask, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(b) < 4 || len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: flag mask of %d bytes", ErrCorrupt, len(b))
	}
	m := &mask{words: make([]uint32, len(b)/4-1)}
	for i := range m.words {
		m.words[i] = binary.BigEndian.Uint32(b[4+4*i:])
	}
	return m, nil
}

// good returns n bits starting at bit offset off.
func (m *mask) good(off int64, n int) ([]bool, error) {
	out := make([]bool, n)
	for k := range out {
		bit := off + int64(k)
		w := bit / maskBits
		if w >= int64(len(m.words)) {
			return nil, fmt.Errorf("flag mask: %w", io.ErrUnexpectedEOF)
		}
		out[k] = m.words[w]&(1<<uint(bit%maskBits)) != 0
	}
	return out, nil
}
