package model

import "time"

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded execution of the hazard pipeline.
type Run struct {
	ID        string
	Region    string
	Status    RunStatus
	Params    RunParams
	Summary   string // JSON-encoded stats.Summary, empty until completion
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RunParams captures the configuration that shaped a run's outputs.
type RunParams struct {
	PointsPath     string  `json:"points_path"`
	CorridorPath   string  `json:"corridor_path"`
	BufferDistance float64 `json:"buffer_distance"`
	CellSize       float64 `json:"cell_size"`
	Field          string  `json:"field"`
	SchemeVersion  string  `json:"scheme_version"`
}

// PointAudit is the persisted audit row for one input point.
type PointAudit struct {
	PointID   string
	FSMin     float64
	HazNum    int
	HazSource HazSource
	Excluded  bool
	Reason    string
	Geom      []byte // EWKB point geometry in the working CRS
	CellGeom  []byte // EWKB polygon of the point's Voronoi cell, when tessellated
}
