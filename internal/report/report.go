// Package report renders the plain-text technical summary of a run.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/geoandina/hazmap/internal/stats"
)

// Meta carries the run parameters echoed into the report header.
type Meta struct {
	RunID          string
	PointsPath     string
	CorridorPath   string
	BufferDistance float64
	CellSize       float64
	SchemeVersion  string
	GeneratedAt    time.Time
}

const line = "================================================================"

// Generate renders the technical report. Artifact text is in Spanish to
// match the hazard class labels delivered with the map products.
func Generate(m Meta, s *stats.Summary) string {
	var b strings.Builder
	w := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	w(line)
	w("INFORME TECNICO")
	w("CLASIFICACION DE AMENAZA POR MOVIMIENTOS EN MASA")
	w(line)
	w("Corrida:            %s", m.RunID)
	w("Fecha:              %s", m.GeneratedAt.Format("2006-01-02 15:04"))
	w("Puntos de entrada:  %s", m.PointsPath)
	w("Corredor:           %s", m.CorridorPath)
	w("Buffer:             %.1f m", m.BufferDistance)
	w("Celda raster:       %.1f m", m.CellSize)
	w("Esquema:            %s", m.SchemeVersion)
	w("")

	w("1. RESUMEN DE DATOS")
	w("   Puntos validos:   %d", s.ValidPoints)
	w("   Puntos excluidos: %d", s.ExcludedPoints)
	w("   Celdas Voronoi:   %d", s.CellCount)
	w("   Area de estudio:  %.1f m2", s.ZoneArea)
	w("")

	if s.FS.N > 0 {
		w("2. FACTOR DE SEGURIDAD (FS minimo por punto, n=%d)", s.FS.N)
		w("   Media:   %.3f", s.FS.Mean)
		w("   Mediana: %.3f", s.FS.Median)
		w("   Minimo:  %.3f", s.FS.Min)
		w("   Maximo:  %.3f", s.FS.Max)
	} else {
		w("2. FACTOR DE SEGURIDAD")
		w("   Sin valores de FS en los datos de entrada.")
	}
	w("")

	w("3. DISTRIBUCION POR CLASE DE AMENAZA")
	w("   %-5s %-10s %8s %8s %14s %8s", "Clase", "Nombre", "Puntos", "%", "Area m2", "% area")
	for _, c := range s.Classes {
		w("   %-5d %-10s %8d %7.1f%% %14.1f %7.1f%%",
			c.Class, c.Name, c.Count, c.Percent, c.Area, c.AreaPercent)
	}
	w("")
	w("   Amenaza alta o muy alta: %.1f%% de los puntos", s.PctHighOrWorse)
	if s.Predominant > 0 {
		w("   Clase predominante por area: %d", s.Predominant)
	}
	w("")

	w("4. PUNTOS CRITICOS (FS < 1.0)")
	if len(s.CriticalIDs) == 0 {
		w("   Ninguno.")
	} else {
		w("   %d punto(s) con factor de seguridad inferior a 1.0:", len(s.CriticalIDs))
		w("   %s", strings.Join(s.CriticalIDs, ", "))
	}
	w("")

	w("5. RECOMENDACIONES")
	for _, r := range recommendations(s) {
		w("   - %s", r)
	}
	w(line)
	return b.String()
}

// recommendations derives the action items from the run outcome.
func recommendations(s *stats.Summary) []string {
	var recs []string
	if len(s.CriticalIDs) > 0 {
		recs = append(recs,
			"Intervencion inmediata en los puntos criticos identificados (FS < 1.0).")
	}
	if s.PctHighOrWorse > 30 {
		recs = append(recs,
			"Mas del 30% del corredor presenta amenaza alta o muy alta; priorizar obras de estabilizacion.")
	}
	if s.Misplaced > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d punto(s) fuera de su celda asignada; revisar la geometria de entrada.", s.Misplaced))
	}
	if s.ExcludedPoints > 0 {
		recs = append(recs, fmt.Sprintf(
			"Completar los atributos de los %d punto(s) excluidos para incorporarlos al analisis.", s.ExcludedPoints))
	}
	recs = append(recs,
		"Actualizar el analisis cuando se disponga de nuevos sondeos o eventos detonantes.")
	return recs
}

// WriteFile renders the report to disk.
func WriteFile(path string, m Meta, s *stats.Summary) error {
	if err := os.WriteFile(path, []byte(Generate(m, s)), 0o644); err != nil {
		return eris.Wrapf(err, "report: writing %s", path)
	}
	return nil
}
