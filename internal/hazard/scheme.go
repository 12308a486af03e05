// Package hazard holds the five-class hazard classification scheme and the
// reclassification rule shared by point-level and raster-level classification.
package hazard

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Hazard class constants, 1 = very low .. 5 = very high.
const (
	ClassVeryLow  = 1
	ClassLow      = 2
	ClassMedium   = 3
	ClassHigh     = 4
	ClassVeryHigh = 5
)

// NoData is the discrete nodata sentinel. Classify never returns it for a
// finite input value; it is reserved for cells with no computed result.
const NoData = 0

// Scheme maps a continuous Factor-of-Safety value to an integer hazard class
// through ascending break values. Bins are inclusive on the lower edge and
// exclusive on the upper edge; values below the first break map to Classes[0]
// and values at or above the last break map to the final class. A single
// Scheme instance is threaded through the whole run so the discrete raster
// agrees pixel-for-pixel with point-level labels.
type Scheme struct {
	Version string         `yaml:"version"`
	Breaks  []float64      `yaml:"breaks"`  // ascending, len(Breaks) = len(Classes)-1
	Classes []int          `yaml:"classes"` // class per bin, low FS first
	Names   map[int]string `yaml:"names"`
}

// Default returns the project threshold matrix: FS < 1.0 is very high hazard,
// FS >= 2.0 is very low.
func Default() Scheme {
	return Scheme{
		Version: "matriz_proyecto_v1",
		Breaks:  []float64{1.0, 1.2, 1.5, 2.0},
		Classes: []int{ClassVeryHigh, ClassHigh, ClassMedium, ClassLow, ClassVeryLow},
		Names: map[int]string{
			ClassVeryLow:  "MUY BAJA",
			ClassLow:      "BAJA",
			ClassMedium:   "MEDIA",
			ClassHigh:     "ALTA",
			ClassVeryHigh: "MUY ALTA",
		},
	}
}

// Load reads a scheme table from a YAML file and validates it.
func Load(path string) (Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scheme{}, eris.Wrapf(err, "hazard: read scheme %s", path)
	}
	var s Scheme
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scheme{}, eris.Wrapf(err, "hazard: parse scheme %s", path)
	}
	if err := s.Validate(); err != nil {
		return Scheme{}, err
	}
	return s, nil
}

// Validate checks the structural invariants of the scheme table.
func (s Scheme) Validate() error {
	if len(s.Breaks) == 0 {
		return eris.New("hazard: scheme has no break values")
	}
	if len(s.Classes) != len(s.Breaks)+1 {
		return eris.Errorf("hazard: scheme needs %d classes for %d breaks, got %d",
			len(s.Breaks)+1, len(s.Breaks), len(s.Classes))
	}
	if !sort.Float64sAreSorted(s.Breaks) {
		return eris.New("hazard: scheme breaks must be ascending")
	}
	for i := 1; i < len(s.Breaks); i++ {
		if s.Breaks[i] == s.Breaks[i-1] {
			return eris.Errorf("hazard: duplicate break value %v", s.Breaks[i])
		}
	}
	for _, c := range s.Classes {
		if c < ClassVeryLow || c > ClassVeryHigh {
			return eris.Errorf("hazard: class %d outside 1..5", c)
		}
	}
	return nil
}

// Classify returns the hazard class for a continuous value. The rule is
// identical for scalars and raster cells: the class of the half-open bin
// [low, high) containing v, with the extreme bins open-ended.
func (s Scheme) Classify(v float64) int {
	for i, b := range s.Breaks {
		if v < b {
			return s.Classes[i]
		}
	}
	return s.Classes[len(s.Classes)-1]
}

// Name returns the human-readable hazard level for a class, or "" if unknown.
func (s Scheme) Name(class int) string {
	return s.Names[class]
}

// ValidClass reports whether n is a declarable hazard class.
func ValidClass(n int) bool {
	return n >= ClassVeryLow && n <= ClassVeryHigh
}
