// Package normalize reconciles heterogeneous input schemas into validated
// critical points and a corridor in a single shared projected CRS.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/geoandina/hazmap/internal/geomop"
	"github.com/geoandina/hazmap/internal/hazard"
	"github.com/geoandina/hazmap/internal/model"
	"github.com/geoandina/hazmap/internal/vector"
)

var (
	// ErrNoCRS means neither input layer declares a spatial reference.
	ErrNoCRS = eris.New("normalize: no CRS on either input layer")
	// ErrNoValidPoints means every feature of the point layer was excluded.
	ErrNoValidPoints = eris.New("normalize: no valid points after schema resolution")
	// ErrNoCorridor means the corridor layer has no usable line or polygon.
	ErrNoCorridor = eris.New("normalize: corridor layer has no line or polygon geometry")
)

// fsTolerance bounds the allowed gap between a declared FS_min and the
// row-wise scenario minimum before a consistency warning is recorded.
const fsTolerance = 1e-6

// FieldMap is the explicit ordered schema-mapping table consumed by the
// normalizer; candidate lists are static configuration, not runtime
// introspection.
type FieldMap struct {
	IDCandidates   []string `yaml:"id_candidates" mapstructure:"id_candidates"`
	Label          string   `yaml:"label" mapstructure:"label"`
	ScenarioPrefix string   `yaml:"scenario_prefix" mapstructure:"scenario_prefix"`
	FSMin          string   `yaml:"fs_min" mapstructure:"fs_min"`
	HazNum         string   `yaml:"haz_num" mapstructure:"haz_num"`
}

// DefaultFieldMap returns the domain-convention candidate table.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		IDCandidates:   []string{"ID", "Sondeo", "SONDEO", "fid", "FID"},
		Label:          "CLASIFICACION",
		ScenarioPrefix: "FS_",
		FSMin:          "FS_min",
		HazNum:         "haz_num",
	}
}

// Result is the normalizer output: everything downstream stages need, in one
// shared projected CRS.
type Result struct {
	Points   []model.CriticalPoint
	Corridor geom.Geom
	SR       *proj.SR
	PRJ      string // CRS sidecar text for exports
	Report   model.NormalizeReport
}

// Normalize resolves CRS, identity and Factor-of-Safety fields from the raw
// layers. Recoverable per-record issues are resolved via the documented
// fallback chains and surfaced as aggregate counts in the report; structural
// issues return named errors.
func Normalize(points, corridorLayer *vector.Layer, fm FieldMap, scheme hazard.Scheme) (*Result, error) {
	if points == nil || len(points.Features) == 0 {
		return nil, ErrNoValidPoints
	}

	corridorGeom, err := combineCorridor(corridorLayer)
	if err != nil {
		return nil, err
	}

	res := &Result{Corridor: corridorGeom}
	res.Report.TotalFeatures = len(points.Features)

	if err := resolveCRS(res, points, corridorLayer); err != nil {
		return nil, err
	}

	idField, synthetic := resolveIDField(points.Features, fm.IDCandidates)
	res.Report.SyntheticIDs = synthetic
	if synthetic {
		zap.L().Warn("normalize: no usable unique identifier field, synthesizing sequential IDs")
	}

	for i, f := range points.Features {
		pt, excl := normalizePoint(i, f, idField, fm, scheme, &res.Report)
		if excl != nil {
			res.Report.Excluded = append(res.Report.Excluded, *excl)
			continue
		}
		res.Points = append(res.Points, pt)
	}
	res.Report.ValidPoints = len(res.Points)

	if len(res.Points) == 0 {
		return nil, ErrNoValidPoints
	}

	zap.L().Info("normalize: schema resolution complete",
		zap.Int("total", res.Report.TotalFeatures),
		zap.Int("valid", res.Report.ValidPoints),
		zap.Int("excluded", len(res.Report.Excluded)),
		zap.Int("centroided", res.Report.CentroidCount),
		zap.Int("warnings", len(res.Report.Warnings)),
	)
	return res, nil
}

// normalizePoint applies the per-feature fallback chains. It returns either
// a valid point or the exclusion that removed it.
func normalizePoint(idx int, f vector.Feature, idField string, fm FieldMap, scheme hazard.Scheme, report *model.NormalizeReport) (model.CriticalPoint, *model.Exclusion) {
	id := strconv.Itoa(idx)
	syntheticID := true
	if idField != "" {
		id = f.Fields[idField]
		syntheticID = false
	}

	var pt model.CriticalPoint
	pt.ID = id
	pt.SyntheticID = syntheticID

	// Geometry: non-point features reduce to centroids, observable via the
	// report count.
	switch g := f.Geom.(type) {
	case geom.Point:
		pt.X, pt.Y = g.X, g.Y
	default:
		c, err := geomop.Centroid(f.Geom)
		if err != nil {
			return pt, &model.Exclusion{ID: id, Reason: "unsupported geometry"}
		}
		pt.X, pt.Y = c.X, c.Y
		report.CentroidCount++
	}

	// FS_<scenario> values.
	pt.Scenarios = map[string]float64{}
	prefix := strings.ToUpper(fm.ScenarioPrefix)
	for name, raw := range f.Fields {
		if !strings.HasPrefix(strings.ToUpper(name), prefix) || strings.EqualFold(name, fm.FSMin) {
			continue
		}
		if v, ok := parseFloat(raw); ok {
			pt.Scenarios[name] = v
		}
	}
	scenarioMin := math.NaN()
	for _, v := range pt.Scenarios {
		if math.IsNaN(scenarioMin) || v < scenarioMin {
			scenarioMin = v
		}
	}

	// FS_min: an explicit field wins; otherwise the row-wise scenario
	// minimum.
	pt.FSMin = math.NaN()
	if raw, ok := f.Fields[fm.FSMin]; ok {
		if v, okF := parseFloat(raw); okF {
			pt.FSMin = v
			if !math.IsNaN(scenarioMin) && v > scenarioMin+fsTolerance {
				report.Warnings = append(report.Warnings, fmt.Sprintf(
					"point %s: declared FS_min %.3f exceeds scenario minimum %.3f", id, v, scenarioMin))
			}
		}
	}
	if math.IsNaN(pt.FSMin) {
		pt.FSMin = scenarioMin
	}

	pt.Label = f.Fields[fm.Label]

	// Hazard class fallback chain, first success wins; the source used is
	// recorded for auditability.
	if raw, ok := f.Fields[fm.HazNum]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && hazard.ValidClass(n) {
			pt.HazNum = n
			pt.HazSource = model.HazSourceExplicit
			if !math.IsNaN(pt.FSMin) && scheme.Classify(pt.FSMin) != n {
				report.Warnings = append(report.Warnings, fmt.Sprintf(
					"point %s: declared haz_num %d disagrees with class %d derived from FS_min %.3f",
					id, n, scheme.Classify(pt.FSMin), pt.FSMin))
			}
		}
	}
	if pt.HazSource == "" && pt.Label != "" {
		if c, ok := hazard.ClassFromLabel(pt.Label); ok {
			pt.HazNum = c
			pt.HazSource = model.HazSourceLabel
			if !math.IsNaN(pt.FSMin) && scheme.Classify(pt.FSMin) != c {
				report.Warnings = append(report.Warnings, fmt.Sprintf(
					"point %s: label %q maps to class %d but FS_min %.3f gives class %d",
					id, pt.Label, c, pt.FSMin, scheme.Classify(pt.FSMin)))
			}
		}
	}
	if pt.HazSource == "" && !math.IsNaN(pt.FSMin) {
		pt.HazNum = scheme.Classify(pt.FSMin)
		pt.HazSource = model.HazSourceScheme
	}
	if pt.HazSource == "" {
		return pt, &model.Exclusion{ID: id, Reason: "no FS or classification source"}
	}

	return pt, nil
}

// parseFloat parses an attribute value, tolerating blank cells and comma
// decimal separators from spreadsheet exports.
func parseFloat(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// resolveIDField picks the first candidate field whose values are present
// and unique across all features. Returns "" with synthetic=true when no
// candidate qualifies.
func resolveIDField(features []vector.Feature, candidates []string) (string, bool) {
	for _, cand := range candidates {
		seen := make(map[string]bool, len(features))
		ok := true
		for _, f := range features {
			v := f.Fields[cand]
			if v == "" || seen[v] {
				ok = false
				break
			}
			seen[v] = true
		}
		if ok {
			return cand, false
		}
	}
	return "", true
}

// combineCorridor merges the corridor layer's line/polygon features into a
// single geometry.
func combineCorridor(layer *vector.Layer) (geom.Geom, error) {
	if layer == nil {
		return nil, ErrNoCorridor
	}
	var lines geom.MultiLineString
	var polys []geom.Polygon
	for _, f := range layer.Features {
		switch g := f.Geom.(type) {
		case geom.LineString:
			lines = append(lines, g)
		case geom.MultiLineString:
			lines = append(lines, g...)
		case geom.Polygon:
			polys = append(polys, g)
		case geom.MultiPolygon:
			polys = append(polys, g...)
		}
	}
	switch {
	case len(polys) > 0 && len(lines) == 0:
		if len(polys) == 1 {
			return polys[0], nil
		}
		mp := make(geom.MultiPolygon, len(polys))
		copy(mp, polys)
		return mp, nil
	case len(lines) == 1:
		return lines[0], nil
	case len(lines) > 1:
		return lines, nil
	}
	return nil, ErrNoCorridor
}
