package normalize

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/geoandina/hazmap/internal/geomop"
	"github.com/geoandina/hazmap/internal/vector"
)

// resolveCRS brings both layers into one projected CRS. The point layer's
// CRS is authoritative when the two disagree; a missing CRS on one side is
// adopted from the other with a warning; geographic coordinates are
// projected to the UTM zone of the corridor centroid.
func resolveCRS(res *Result, points, corridor *vector.Layer) error {
	pSR, cSR := points.SR, corridorSRof(corridor)

	switch {
	case pSR == nil && cSR == nil:
		return ErrNoCRS
	case pSR == nil:
		res.SR, res.PRJ = cSR, corridor.PRJ
		res.Report.Warnings = append(res.Report.Warnings,
			"point layer has no CRS, assuming corridor CRS")
	case cSR == nil:
		res.SR, res.PRJ = pSR, points.PRJ
		res.Report.Warnings = append(res.Report.Warnings,
			"corridor layer has no CRS, assuming point CRS")
	default:
		res.SR, res.PRJ = pSR, points.PRJ
		if !samePRJ(points.PRJ, corridor.PRJ) {
			trans, err := cSR.NewTransform(pSR)
			if err != nil {
				return eris.Wrap(err, "normalize: building corridor reprojection")
			}
			g, err := res.Corridor.Transform(trans)
			if err != nil {
				return eris.Wrap(err, "normalize: reprojecting corridor")
			}
			res.Corridor = g
			res.Report.CorridorReproj = true
			zap.L().Info("normalize: reprojected corridor to point CRS")
		}
	}

	if !isGeographic(res.SR) {
		return nil
	}
	return projectToUTM(res, points)
}

// projectToUTM moves geographic inputs onto the UTM zone covering the
// corridor centroid so all downstream distances are in meters.
func projectToUTM(res *Result, points *vector.Layer) error {
	c, err := geomop.Centroid(res.Corridor)
	if err != nil {
		return eris.Wrap(err, "normalize: corridor centroid for UTM zone")
	}
	proj4 := utmProj4(c.X, c.Y)
	utmSR, err := proj.Parse(proj4)
	if err != nil {
		return eris.Wrap(err, "normalize: parsing UTM definition")
	}
	trans, err := res.SR.NewTransform(utmSR)
	if err != nil {
		return eris.Wrap(err, "normalize: building UTM transform")
	}

	g, err := res.Corridor.Transform(trans)
	if err != nil {
		return eris.Wrap(err, "normalize: projecting corridor to UTM")
	}
	res.Corridor = g
	for i, f := range points.Features {
		pg, err := f.Geom.Transform(trans)
		if err != nil {
			return eris.Wrap(err, "normalize: projecting point to UTM")
		}
		points.Features[i].Geom = pg
	}

	res.SR = utmSR
	res.PRJ = proj4
	res.Report.Warnings = append(res.Report.Warnings,
		fmt.Sprintf("geographic input projected to %s", proj4))
	zap.L().Info("normalize: projected geographic input to UTM", zap.String("proj4", proj4))
	return nil
}

// utmProj4 returns the proj4 definition of the WGS84 UTM zone containing
// the given geographic coordinate.
func utmProj4(lon, lat float64) string {
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone < 1 {
		zone = 1
	} else if zone > 60 {
		zone = 60
	}
	s := fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", zone)
	if lat < 0 {
		s += " +south"
	}
	return s
}

// isGeographic reports whether the SR is in angular units. Projected CRSs
// in non-meter units keep their native units.
func isGeographic(sr *proj.SR) bool {
	return sr != nil && sr.Name == "longlat"
}

// samePRJ compares two CRS sidecar texts ignoring whitespace and case.
func samePRJ(a, b string) bool {
	norm := func(s string) string {
		return strings.ToUpper(strings.Join(strings.Fields(s), ""))
	}
	return norm(a) == norm(b)
}

func corridorSRof(layer *vector.Layer) *proj.SR {
	if layer == nil {
		return nil
	}
	return layer.SR
}
