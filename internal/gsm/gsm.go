// Package gsm indexes a directory of Global Sky Model maps named
// gsm<index>.fits, one map per frequency channel.
package gsm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// MapFile is one sky map on disk.
type MapFile struct {
	Name  string
	Index int
}

// Catalog lists the maps of a directory, ordered by index.
type Catalog struct {
	Dir  string
	Maps []MapFile
}

// Scan lists the gsm*.fits files in dir. A missing directory yields an
// empty catalog.
func Scan(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Catalog{Dir: dir}, nil
		}
		return nil, fmt.Errorf("listing map dir: %w", err)
	}

	c := &Catalog{Dir: dir}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "gsm") || !strings.HasSuffix(name, ".fits") {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "gsm"), ".fits"))
		if err != nil || idx < 0 {
			continue
		}
		c.Maps = append(c.Maps, MapFile{Name: name, Index: idx})
	}

	sort.Slice(c.Maps, func(i, j int) bool {
		return c.Maps[i].Index < c.Maps[j].Index
	})
	return c, nil
}

// Len returns the number of maps.
func (c *Catalog) Len() int { return len(c.Maps) }

// Range returns the lowest and highest map index. ok is false when the
// catalog is empty.
func (c *Catalog) Range() (lo, hi int, ok bool) {
	if len(c.Maps) == 0 {
		return 0, 0, false
	}
	return c.Maps[0].Index, c.Maps[len(c.Maps)-1].Index, true
}

// Path returns the file path of the map with the given index.
func (c *Catalog) Path(index int) (string, bool) {
	i := sort.Search(len(c.Maps), func(i int) bool { return c.Maps[i].Index >= index })
	if i == len(c.Maps) || c.Maps[i].Index != index {
		return "", false
	}
	return filepath.Join(c.Dir, c.Maps[i].Name), true
}

// Missing returns the indices in [lo, hi] that have no map.
func (c *Catalog) Missing() []int {
	lo, hi, ok := c.Range()
	if !ok {
		return nil
	}
	var out []int
	next := 0
	for idx := lo; idx <= hi; idx++ {
		if next < len(c.Maps) && c.Maps[next].Index == idx {
			next++
			continue
		}
		out = append(out, idx)
	}
	return out
}
