package location

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/calendar-weather/internal/weather"
)

// defaultsFile is the YAML layout of a custom default-position list:
//
//	positions:
//	  - city: Lisbon
//	    country: PT
//	    lat: 38.7223
//	    lon: -9.1393
//	    timezone: Europe/Lisbon
type defaultsFile struct {
	Positions []weather.Position `yaml:"positions"`
}

// LoadDefaults reads a custom rotating default list. An empty path returns the built-in list.
func LoadDefaults(path string) ([]weather.Position, error) {
	if path == "" {
		return BuiltinDefaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f defaultsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Positions) == 0 {
		return nil, errors.New("default positions file lists no positions")
	}
	for i, p := range f.Positions {
		if !p.Valid() {
			return nil, fmt.Errorf("default position %d (%s) has invalid coordinates", i, p.City)
		}
	}
	return f.Positions, nil
}

// BuiltinDefaults returns a copy of the built-in rotating list.
func BuiltinDefaults() []weather.Position {
	out := make([]weather.Position, len(builtinDefaults))
	copy(out, builtinDefaults)
	return out
}
