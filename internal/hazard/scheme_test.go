package hazard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	s := Default()

	tests := []struct {
		name     string
		fs       float64
		expected int
	}{
		{name: "well below first break", fs: 0.5, expected: ClassVeryHigh},
		{name: "just below 1.0", fs: 0.95, expected: ClassVeryHigh},
		{name: "exactly 1.0 is lower-inclusive", fs: 1.0, expected: ClassHigh},
		{name: "inside 1.0-1.2 band", fs: 1.1, expected: ClassHigh},
		{name: "exactly 1.2", fs: 1.2, expected: ClassMedium},
		{name: "inside 1.2-1.5 band", fs: 1.35, expected: ClassMedium},
		{name: "exactly 1.5", fs: 1.5, expected: ClassLow},
		{name: "inside 1.5-2.0 band", fs: 1.8, expected: ClassLow},
		{name: "exactly 2.0", fs: 2.0, expected: ClassVeryLow},
		{name: "far above last break", fs: 10.0, expected: ClassVeryLow},
		{name: "negative FS stays in extreme class", fs: -3.0, expected: ClassVeryHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Classify(tt.fs))
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	s := Default()
	for _, v := range []float64{0.1, 0.9999, 1.0, 1.19999, 1.2, 2.5} {
		assert.Equal(t, s.Classify(v), s.Classify(v))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Scheme)
		wantErr bool
	}{
		{name: "default is valid", mutate: func(s *Scheme) {}, wantErr: false},
		{name: "no breaks", mutate: func(s *Scheme) { s.Breaks = nil }, wantErr: true},
		{name: "class count mismatch", mutate: func(s *Scheme) { s.Classes = s.Classes[:3] }, wantErr: true},
		{name: "unsorted breaks", mutate: func(s *Scheme) { s.Breaks = []float64{1.2, 1.0, 1.5, 2.0} }, wantErr: true},
		{name: "duplicate breaks", mutate: func(s *Scheme) { s.Breaks = []float64{1.0, 1.0, 1.5, 2.0} }, wantErr: true},
		{name: "class out of range", mutate: func(s *Scheme) { s.Classes[0] = 9 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheme.yaml")
	content := `version: test_v1
breaks: [1.0, 1.2, 1.5, 2.0]
classes: [5, 4, 3, 2, 1]
names:
  1: MUY BAJA
  2: BAJA
  3: MEDIA
  4: ALTA
  5: MUY ALTA
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test_v1", s.Version)
	assert.Equal(t, ClassVeryHigh, s.Classify(0.8))
	assert.Equal(t, "MUY ALTA", s.Name(ClassVeryHigh))
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheme.yaml")
	require.NoError(t, os.WriteFile(path, []byte("breaks: [2.0, 1.0]\nclasses: [3, 2, 1]\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestClassFromLabel(t *testing.T) {
	tests := []struct {
		label    string
		expected int
		ok       bool
	}{
		{label: "MUY ALTA", expected: ClassVeryHigh, ok: true},
		{label: "muy alta", expected: ClassVeryHigh, ok: true},
		{label: "  Media  ", expected: ClassMedium, ok: true},
		{label: "BAJA", expected: ClassLow, ok: true},
		{label: "MUY BAJA", expected: ClassVeryLow, ok: true},
		{label: "ALTÍSIMA", ok: false},
		{label: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			c, ok := ClassFromLabel(tt.label)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, c)
			}
		})
	}
}

func TestNormalizeLabelStripsDiacritics(t *testing.T) {
	assert.Equal(t, "CRITICA", NormalizeLabel("Crítica"))
	assert.Equal(t, "MUY ALTA", NormalizeLabel("MUY ALTA"))
}
