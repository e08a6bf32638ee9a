package models

import "time"

// AnalysisStatus is the server-side lifecycle state of an analysis.
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "PENDING"
	AnalysisRunning   AnalysisStatus = "RUNNING"
	AnalysisCompleted AnalysisStatus = "COMPLETED"
	AnalysisFailed    AnalysisStatus = "FAILED"
)

// Hole is one detected cavity with its measured volume.
type Hole struct {
	Number int     `json:"number"`
	Volume float64 `json:"volume"`
}

// Selection is the subset of a dataset an analysis runs on.
type Selection struct {
	Dataset Dataset        `json:"dataset"`
	Photos  []DatasetPhoto `json:"photos,omitempty"`
}

// Analysis is one photogrammetry run over a dataset selection, including
// links to the artifacts the server produced for it.
type Analysis struct {
	ID               int            `json:"pk"`
	Name             string         `json:"name"`
	Date             time.Time      `json:"date"`
	User             string         `json:"user"`
	Status           AnalysisStatus `json:"status,omitempty"`
	PointCloudBefore string         `json:"point_cloud_before,omitempty"`
	PointCloudAfter  string         `json:"point_cloud_after,omitempty"`
	Logs             string         `json:"logs,omitempty"`
	Selection        Selection      `json:"selection"`
	NotifyByEmail    bool           `json:"notify_by_email"`
	Configuration    Configuration  `json:"configuration"`
	Holes            []Hole         `json:"holes"`
}

// AnalysisUpdate holds the server-declared mutable fields of an analysis.
// Nil fields are left unchanged.
type AnalysisUpdate struct {
	Name          *string `json:"name,omitempty"`
	NotifyByEmail *bool   `json:"notify_by_email,omitempty"`
}
