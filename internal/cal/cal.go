// Package cal resolves named calibration profiles into antenna arrays.
//
// A profile is looked up first as a config file <name>.{yaml,toml,json} on
// the search path, then among the built-in profiles.
package cal

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/viper"

	"github.com/star/vissim/internal/antenna"
	"github.com/star/vissim/internal/transform"
)

// ErrUnknownProfile is returned when no file or built-in profile matches a name.
var ErrUnknownProfile = errors.New("unknown calibration profile")

// Profile is the on-disk and built-in description of an array.
type Profile struct {
	Name     string           `mapstructure:"name"`
	Lat      string           `mapstructure:"lat"` // degrees, d:m:s or decimal
	Lon      string           `mapstructure:"lon"` // degrees east, d:m:s or decimal
	Elev     float64          `mapstructure:"elev"`
	Antennas [][]float64      `mapstructure:"antennas"` // topocentric (east, north, up) ns
	Beam     antenna.BeamSpec `mapstructure:"beam"`
}

// builtins is the hand-maintained list of profiles compiled into the binary.
var builtins = map[string]func() Profile{
	"psa898_v003": psa898v003,
}

// Available returns the names of the built-in profiles.
func Available() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a profile by name. Files on searchPaths take precedence
// over built-ins of the same name.
func Lookup(name string, searchPaths []string) (Profile, error) {
	if len(searchPaths) > 0 {
		v := viper.New()
		v.SetConfigName(name)
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}

		err := v.ReadInConfig()
		if err == nil {
			var p Profile
			if err := v.Unmarshal(&p); err != nil {
				return Profile{}, fmt.Errorf("decoding profile %s from %s: %w", name, v.ConfigFileUsed(), err)
			}
			if p.Name == "" {
				p.Name = name
			}
			return p, nil
		}

		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Profile{}, fmt.Errorf("reading profile %s: %w", name, err)
		}
	}

	if mk, ok := builtins[name]; ok {
		return mk(), nil
	}
	return Profile{}, fmt.Errorf("%w %q (built-in: %v)", ErrUnknownProfile, name, Available())
}

// Array builds the antenna array for the profile with the channel axis
// sfreq + k·sdf GHz, k in [0, nchan).
func (p Profile) Array(sfreq, sdf float64, nchan int) (*antenna.Array, error) {
	lat, err := transform.ParseSexagesimal(p.Lat)
	if err != nil {
		return nil, fmt.Errorf("profile %s latitude: %w", p.Name, err)
	}
	lon, err := transform.ParseSexagesimal(p.Lon)
	if err != nil {
		return nil, fmt.Errorf("profile %s longitude: %w", p.Name, err)
	}
	if len(p.Antennas) == 0 {
		return nil, fmt.Errorf("profile %s has no antennas", p.Name)
	}

	beam, err := p.Beam.Build()
	if err != nil {
		return nil, fmt.Errorf("profile %s beam: %w", p.Name, err)
	}

	pos := make([]transform.Vec3, len(p.Antennas))
	beams := make([]antenna.Beam, len(p.Antennas))
	for i, a := range p.Antennas {
		if len(a) != 3 {
			return nil, fmt.Errorf("profile %s antenna %d: want 3 coordinates, got %d", p.Name, i, len(a))
		}
		pos[i] = transform.Vec3{a[0], a[1], a[2]}
		beams[i] = beam
	}

	return antenna.NewArray(p.Name, transform.NewObserver(lat, lon, p.Elev), pos, beams, sfreq, sdf, nchan)
}
