package normalize

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoandina/hazmap/internal/hazard"
	"github.com/geoandina/hazmap/internal/model"
	"github.com/geoandina/hazmap/internal/vector"
)

const utm18NProj4 = "+proj=utm +zone=18 +datum=WGS84 +units=m +no_defs"

func projectedLayer(t *testing.T, feats []vector.Feature) *vector.Layer {
	t.Helper()
	sr, err := proj.Parse(utm18NProj4)
	require.NoError(t, err)
	return &vector.Layer{Features: feats, SR: sr, PRJ: utm18NProj4}
}

func corridorLine() vector.Feature {
	return vector.Feature{Geom: geom.LineString{{X: 0, Y: 0}, {X: 100, Y: 0}}}
}

func pointFeature(x, y float64, fields map[string]string) vector.Feature {
	return vector.Feature{Geom: geom.Point{X: x, Y: y}, Fields: fields}
}

func TestNormalizeHappyPath(t *testing.T) {
	pts := projectedLayer(t, []vector.Feature{
		pointFeature(10, 5, map[string]string{"ID": "S-1", "FS_estatico": "1.8", "FS_sismico": "1.1"}),
		pointFeature(50, -5, map[string]string{"ID": "S-2", "FS_estatico": "0.9", "FS_sismico": "1.4"}),
	})
	cor := projectedLayer(t, []vector.Feature{corridorLine()})

	res, err := Normalize(pts, cor, DefaultFieldMap(), hazard.Default())
	require.NoError(t, err)
	require.Len(t, res.Points, 2)

	p1, p2 := res.Points[0], res.Points[1]
	assert.Equal(t, "S-1", p1.ID)
	assert.False(t, p1.SyntheticID)
	assert.InDelta(t, 1.1, p1.FSMin, 1e-12)
	assert.Equal(t, 4, p1.HazNum)
	assert.Equal(t, model.HazSourceScheme, p1.HazSource)
	assert.InDelta(t, 0.9, p2.FSMin, 1e-12)
	assert.Equal(t, 5, p2.HazNum)

	assert.Equal(t, 2, res.Report.TotalFeatures)
	assert.Equal(t, 2, res.Report.ValidPoints)
	assert.Empty(t, res.Report.Excluded)
	assert.False(t, res.Report.CorridorReproj)
	assert.Equal(t, utm18NProj4, res.PRJ)
}

func TestNormalizeExplicitFSMinWins(t *testing.T) {
	pts := projectedLayer(t, []vector.Feature{
		pointFeature(0, 0, map[string]string{"ID": "A", "FS_min": "1.6", "FS_a": "1.2"}),
	})
	cor := projectedLayer(t, []vector.Feature{corridorLine()})

	res, err := Normalize(pts, cor, DefaultFieldMap(), hazard.Default())
	require.NoError(t, err)
	assert.InDelta(t, 1.6, res.Points[0].FSMin, 1e-12)
	require.Len(t, res.Report.Warnings, 1)
	assert.Contains(t, res.Report.Warnings[0], "exceeds scenario minimum")
}

func TestNormalizeHazardSourceChain(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		wantClass  int
		wantSource model.HazSource
	}{
		{
			name:       "explicit haz_num wins over everything",
			fields:     map[string]string{"ID": "A", "haz_num": "3", "CLASIFICACION": "MUY ALTA", "FS_a": "2.5"},
			wantClass:  3,
			wantSource: model.HazSourceExplicit,
		},
		{
			name:       "label used when haz_num absent",
			fields:     map[string]string{"ID": "A", "CLASIFICACION": "Alta"},
			wantClass:  4,
			wantSource: model.HazSourceLabel,
		},
		{
			name:       "scheme fallback from FS_min",
			fields:     map[string]string{"ID": "A", "FS_a": "0.8"},
			wantClass:  5,
			wantSource: model.HazSourceScheme,
		},
		{
			name:       "out of range haz_num falls through to label",
			fields:     map[string]string{"ID": "A", "haz_num": "9", "CLASIFICACION": "BAJA"},
			wantClass:  2,
			wantSource: model.HazSourceLabel,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts := projectedLayer(t, []vector.Feature{pointFeature(0, 0, tt.fields)})
			cor := projectedLayer(t, []vector.Feature{corridorLine()})
			res, err := Normalize(pts, cor, DefaultFieldMap(), hazard.Default())
			require.NoError(t, err)
			require.Len(t, res.Points, 1)
			assert.Equal(t, tt.wantClass, res.Points[0].HazNum)
			assert.Equal(t, tt.wantSource, res.Points[0].HazSource)
		})
	}
}

func TestNormalizeLabelDisagreementWarns(t *testing.T) {
	// FS_min 2.5 belongs to the lowest class, but the label declares ALTA:
	// the label wins and the disagreement surfaces as a warning.
	pts := projectedLayer(t, []vector.Feature{
		pointFeature(0, 0, map[string]string{"ID": "A", "CLASIFICACION": "ALTA", "FS_a": "2.5"}),
	})
	cor := projectedLayer(t, []vector.Feature{corridorLine()})

	res, err := Normalize(pts, cor, DefaultFieldMap(), hazard.Default())
	require.NoError(t, err)
	require.Len(t, res.Points, 1)
	assert.Equal(t, 4, res.Points[0].HazNum)
	assert.Equal(t, model.HazSourceLabel, res.Points[0].HazSource)
	require.Len(t, res.Report.Warnings, 1)
	assert.Contains(t, res.Report.Warnings[0], "maps to class 4")

	// An agreeing label stays silent.
	pts = projectedLayer(t, []vector.Feature{
		pointFeature(0, 0, map[string]string{"ID": "A", "CLASIFICACION": "MUY BAJA", "FS_a": "2.5"}),
	})
	res, err = Normalize(pts, cor, DefaultFieldMap(), hazard.Default())
	require.NoError(t, err)
	assert.Empty(t, res.Report.Warnings)
}

func TestNormalizeExcludesPointsWithoutAnySource(t *testing.T) {
	pts := projectedLayer(t, []vector.Feature{
		pointFeature(0, 0, map[string]string{"ID": "good", "FS_a": "1.3"}),
		pointFeature(1, 1, map[string]string{"ID": "bad", "Comment": "no data"}),
	})
	cor := projectedLayer(t, []vector.Feature{corridorLine()})

	res, err := Normalize(pts, cor, DefaultFieldMap(), hazard.Default())
	require.NoError(t, err)
	assert.Len(t, res.Points, 1)
	require.Len(t, res.Report.Excluded, 1)
	assert.Equal(t, "bad", res.Report.Excluded[0].ID)
	assert.Contains(t, res.Report.Excluded[0].Reason, "no FS or classification")
}

func TestNormalizeSyntheticIDsOnDuplicates(t *testing.T) {
	pts := projectedLayer(t, []vector.Feature{
		pointFeature(0, 0, map[string]string{"ID": "X", "FS_a": "1.0"}),
		pointFeature(1, 1, map[string]string{"ID": "X", "FS_a": "1.1"}),
	})
	cor := projectedLayer(t, []vector.Feature{corridorLine()})

	res, err := Normalize(pts, cor, DefaultFieldMap(), hazard.Default())
	require.NoError(t, err)
	assert.True(t, res.Report.SyntheticIDs)
	assert.Equal(t, "0", res.Points[0].ID)
	assert.Equal(t, "1", res.Points[1].ID)
	assert.True(t, res.Points[0].SyntheticID)
}

func TestNormalizeIDFallsThroughToLaterCandidate(t *testing.T) {
	pts := projectedLayer(t, []vector.Feature{
		pointFeature(0, 0, map[string]string{"ID": "X", "Sondeo": "S-1", "FS_a": "1.0"}),
		pointFeature(1, 1, map[string]string{"ID": "X", "Sondeo": "S-2", "FS_a": "1.1"}),
	})
	cor := projectedLayer(t, []vector.Feature{corridorLine()})

	res, err := Normalize(pts, cor, DefaultFieldMap(), hazard.Default())
	require.NoError(t, err)
	assert.False(t, res.Report.SyntheticIDs)
	assert.Equal(t, "S-1", res.Points[0].ID)
	assert.Equal(t, "S-2", res.Points[1].ID)
}

func TestNormalizeCentroidFallback(t *testing.T) {
	square := geom.Polygon{{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}}
	pts := projectedLayer(t, []vector.Feature{
		{Geom: square, Fields: map[string]string{"ID": "Z", "FS_a": "1.0"}},
	})
	cor := projectedLayer(t, []vector.Feature{corridorLine()})

	res, err := Normalize(pts, cor, DefaultFieldMap(), hazard.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.CentroidCount)
	assert.InDelta(t, 5, res.Points[0].X, 1e-9)
	assert.InDelta(t, 5, res.Points[0].Y, 1e-9)
}

func TestNormalizeCRSHandling(t *testing.T) {
	t.Run("no CRS anywhere", func(t *testing.T) {
		pts := &vector.Layer{Features: []vector.Feature{
			pointFeature(0, 0, map[string]string{"ID": "A", "FS_a": "1.0"}),
		}}
		cor := &vector.Layer{Features: []vector.Feature{corridorLine()}}
		_, err := Normalize(pts, cor, DefaultFieldMap(), hazard.Default())
		assert.True(t, eris.Is(err, ErrNoCRS))
	})

	t.Run("missing point CRS adopts corridor CRS", func(t *testing.T) {
		pts := &vector.Layer{Features: []vector.Feature{
			pointFeature(0, 0, map[string]string{"ID": "A", "FS_a": "1.0"}),
		}}
		cor := projectedLayer(t, []vector.Feature{corridorLine()})
		res, err := Normalize(pts, cor, DefaultFieldMap(), hazard.Default())
		require.NoError(t, err)
		assert.Equal(t, utm18NProj4, res.PRJ)
		require.NotEmpty(t, res.Report.Warnings)
		assert.Contains(t, res.Report.Warnings[0], "assuming corridor CRS")
	})

	t.Run("whitespace-only PRJ difference is not a mismatch", func(t *testing.T) {
		pts := projectedLayer(t, []vector.Feature{
			pointFeature(0, 0, map[string]string{"ID": "A", "FS_a": "1.0"}),
		})
		cor := projectedLayer(t, []vector.Feature{corridorLine()})
		cor.PRJ = "  " + utm18NProj4 + "\n"
		res, err := Normalize(pts, cor, DefaultFieldMap(), hazard.Default())
		require.NoError(t, err)
		assert.False(t, res.Report.CorridorReproj)
	})
}

func TestNormalizeGeographicInputProjectedToUTM(t *testing.T) {
	const longlat = "+proj=longlat +datum=WGS84 +no_defs"
	sr, err := proj.Parse(longlat)
	require.NoError(t, err)

	// A short corridor near Bogota, zone 18 north.
	pts := &vector.Layer{
		Features: []vector.Feature{
			pointFeature(-74.10, 4.60, map[string]string{"ID": "A", "FS_a": "0.9"}),
			pointFeature(-74.09, 4.60, map[string]string{"ID": "B", "FS_a": "1.7"}),
		},
		SR: sr, PRJ: longlat,
	}
	cor := &vector.Layer{
		Features: []vector.Feature{{Geom: geom.LineString{
			{X: -74.10, Y: 4.60}, {X: -74.09, Y: 4.60},
		}}},
		SR: sr, PRJ: longlat,
	}

	res, err := Normalize(pts, cor, DefaultFieldMap(), hazard.Default())
	require.NoError(t, err)
	assert.Contains(t, res.PRJ, "+proj=utm +zone=18")
	assert.NotContains(t, res.PRJ, "+south")

	// UTM eastings sit in the hundreds of kilometers, northings near the
	// equator in the low millions.
	for _, p := range res.Points {
		assert.Greater(t, p.X, 100000.0)
		assert.Less(t, p.X, 900000.0)
		assert.Greater(t, p.Y, 100000.0)
	}
}

func TestUTMProj4(t *testing.T) {
	tests := []struct {
		lon, lat float64
		want     string
	}{
		{-74.1, 4.6, "+proj=utm +zone=18 +datum=WGS84 +units=m +no_defs"},
		{-74.1, -12.0, "+proj=utm +zone=18 +datum=WGS84 +units=m +no_defs +south"},
		{3.0, 48.0, "+proj=utm +zone=31 +datum=WGS84 +units=m +no_defs"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, utmProj4(tt.lon, tt.lat))
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.25", 1.25, true},
		{" 0,95 ", 0.95, true},
		{"", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseFloat(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-12, tt.in)
		}
	}
}
