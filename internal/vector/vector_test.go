package vector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestWriteReadPolygons(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cells.shp")

	fields := []shp.Field{
		shp.StringField("ID", 16),
		shp.FloatField("FS_MIN", 12, 3),
		shp.NumberField("HAZ_NUM", 2),
	}
	recs := []PolygonRecord{
		{
			Geom:  geom.Polygon{{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}},
			Attrs: []interface{}{"P1", 0.9, 5},
		},
		{
			Geom:  geom.Polygon{{{X: 10, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 10}, {X: 10, Y: 10}}},
			Attrs: []interface{}{"P2", 1.8, 2},
		},
	}
	const proj4 = "+proj=utm +zone=18 +datum=WGS84 +units=m +no_defs"
	require.NoError(t, WritePolygons(path, fields, recs, proj4))

	// The .prj sidecar must carry the CRS text verbatim.
	prj, err := os.ReadFile(filepath.Join(dir, "cells.prj"))
	require.NoError(t, err)
	assert.Equal(t, proj4+"\n", string(prj))

	layer, err := ReadShapefile(path)
	require.NoError(t, err)
	require.Len(t, layer.Features, 2)
	require.NotNil(t, layer.SR)
	assert.Equal(t, proj4, layer.PRJ)
	assert.Equal(t, "P1", layer.Features[0].Fields["ID"])
	assert.Equal(t, "5", layer.Features[0].Fields["HAZ_NUM"])

	poly, ok := layer.Features[0].Geom.(geom.Polygon)
	require.True(t, ok)
	require.Len(t, poly, 1)
	assert.InDelta(t, 100.0, poly.Area(), 1e-9)
}

func TestWritePolygonsAttributeMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.shp")
	fields := []shp.Field{shp.StringField("ID", 8)}
	recs := []PolygonRecord{{
		Geom:  geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}},
		Attrs: []interface{}{"a", "extra"},
	}}
	assert.Error(t, WritePolygons(path, fields, recs, ""))
}

func TestRingIsClockwise(t *testing.T) {
	ccw := []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	cw := []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}
	assert.False(t, ringIsClockwise(ccw))
	assert.True(t, ringIsClockwise(cw))
}

func TestReadXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "puntos.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("puntos")
	require.NoError(t, err)
	for _, row := range [][]string{
		{"ID", "X", "Y", "FS_estatico", "CLASIFICACION"},
		{"PC-01", "445120.5", "487760.2", "0.95", "MUY ALTA"},
		{"PC-02", "445180.0", "487790.8", "1.80", "BAJA"},
		{"PC-03", "no-coord", "487800.0", "1.10", "ALTA"},
	} {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().Value = v
		}
	}
	require.NoError(t, f.Save(path))

	layer, err := ReadXLSX(path, XLSXOptions{XField: "X", YField: "Y"})
	require.NoError(t, err)
	require.Len(t, layer.Features, 2) // bad-coordinate row skipped

	p, ok := layer.Features[0].Geom.(geom.Point)
	require.True(t, ok)
	assert.InDelta(t, 445120.5, p.X, 1e-9)
	assert.Equal(t, "MUY ALTA", layer.Features[0].Fields["CLASIFICACION"])
}

func TestReadXLSXMissingColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "puntos.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("puntos")
	require.NoError(t, err)
	r := sheet.AddRow()
	r.AddCell().Value = "ID"
	r2 := sheet.AddRow()
	r2.AddCell().Value = "PC-01"
	require.NoError(t, f.Save(path))

	_, err = ReadXLSX(path, XLSXOptions{XField: "X", YField: "Y"})
	assert.Error(t, err)
}
