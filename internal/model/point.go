// Package model defines the core data types shared across the hazard pipeline.
package model

import "fmt"

// HazSource identifies which rule of the classification fallback chain produced
// a point's hazard class. Recorded per point for auditability.
type HazSource string

const (
	// HazSourceExplicit means the input layer carried a valid haz_num field.
	HazSourceExplicit HazSource = "explicit"
	// HazSourceLabel means the class was mapped from a free-text label.
	HazSourceLabel HazSource = "label"
	// HazSourceScheme means the class was computed from FS_min via the scheme.
	HazSourceScheme HazSource = "scheme"
)

// CriticalPoint is a validated geotechnical sample point in the working CRS.
type CriticalPoint struct {
	ID          string
	X           float64
	Y           float64
	Scenarios   map[string]float64 // FS_<scenario> values present in the source
	FSMin       float64
	HazNum      int // 1 (very low) .. 5 (very high)
	Label       string
	HazSource   HazSource
	SyntheticID bool
}

// Exclusion records a point dropped during normalization and why.
type Exclusion struct {
	ID     string
	Reason string
}

func (e Exclusion) String() string {
	return fmt.Sprintf("%s: %s", e.ID, e.Reason)
}

// NormalizeReport aggregates per-record issues resolved during normalization.
// Recoverable issues surface here as counts; they never abort the run.
type NormalizeReport struct {
	TotalFeatures  int
	ValidPoints    int
	Excluded       []Exclusion
	CentroidCount  int // non-point geometries reduced to centroids
	SyntheticIDs   bool
	Warnings       []string // consistency warnings (FS_min vs FS_*, haz_num vs scheme)
	CorridorReproj bool     // corridor was reprojected to the points' CRS
}
