package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoandina/hazmap/internal/stats"
)

func sampleSummary() *stats.Summary {
	return &stats.Summary{
		ValidPoints:    10,
		ExcludedPoints: 2,
		FS:             stats.FSStats{N: 10, Mean: 1.4, Median: 1.35, Min: 0.85, Max: 2.3},
		CriticalIDs:    []string{"S-7", "S-9"},
		Classes: []stats.ClassShare{
			{Class: 1, Name: "MUY BAJA", Count: 2, Percent: 20, Area: 1000, AreaPercent: 10},
			{Class: 2, Name: "BAJA", Count: 2, Percent: 20, Area: 2000, AreaPercent: 20},
			{Class: 3, Name: "MEDIA", Count: 2, Percent: 20, Area: 2000, AreaPercent: 20},
			{Class: 4, Name: "ALTA", Count: 2, Percent: 20, Area: 2000, AreaPercent: 20},
			{Class: 5, Name: "MUY ALTA", Count: 2, Percent: 20, Area: 3000, AreaPercent: 30},
		},
		PctHighOrWorse: 40,
		Predominant:    5,
		ZoneArea:       10000,
		CellCount:      10,
	}
}

func sampleMeta() Meta {
	return Meta{
		RunID:          "run-123",
		PointsPath:     "puntos.shp",
		CorridorPath:   "via.shp",
		BufferDistance: 100,
		CellSize:       5,
		SchemeVersion:  "sgc-2017",
		GeneratedAt:    time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestGenerate(t *testing.T) {
	out := Generate(sampleMeta(), sampleSummary())

	for _, want := range []string{
		"INFORME TECNICO",
		"run-123",
		"2026-03-15 10:30",
		"Buffer:             100.0 m",
		"Puntos validos:   10",
		"Mediana: 1.350",
		"MUY ALTA",
		"S-7, S-9",
		"Amenaza alta o muy alta: 40.0%",
		"Clase predominante por area: 5",
		"Intervencion inmediata",
		"priorizar obras de estabilizacion",
	} {
		assert.Contains(t, out, want)
	}
}

func TestGenerateNoCriticalPoints(t *testing.T) {
	s := sampleSummary()
	s.CriticalIDs = nil
	s.PctHighOrWorse = 10
	s.ExcludedPoints = 0

	out := Generate(sampleMeta(), s)
	assert.Contains(t, out, "Ninguno.")
	assert.NotContains(t, out, "Intervencion inmediata")
	assert.NotContains(t, out, "priorizar obras")
	assert.Contains(t, out, "Actualizar el analisis")
}

func TestGenerateNoFSValues(t *testing.T) {
	s := sampleSummary()
	s.FS = stats.FSStats{}
	out := Generate(sampleMeta(), s)
	assert.Contains(t, out, "Sin valores de FS")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "informe.txt")
	require.NoError(t, WriteFile(path, sampleMeta(), sampleSummary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFORME TECNICO")
}
