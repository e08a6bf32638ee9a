package models

// PhotoType labels a dataset photo as showing the site before or after the
// event under analysis.
type PhotoType string

const (
	PhotoBefore PhotoType = "before"
	PhotoAfter  PhotoType = "after"
)

// Dataset is a named collection of before/after site photos analyzed
// together. Instances are read-only snapshots of the server state; use
// DatasetUpdate to change the mutable fields.
type Dataset struct {
	ID     int            `json:"pk"`
	Name   string         `json:"name"`
	Date   Date           `json:"date"`
	User   UserRef        `json:"user"`
	Photos []DatasetPhoto `json:"photos,omitempty"`
}

// DatasetPhoto is one photo attached to a dataset, with the URLs of the
// renditions the server has produced for it.
type DatasetPhoto struct {
	ID             int       `json:"pk"`
	Name           string    `json:"name"`
	Type           PhotoType `json:"type"`
	Thumb          string    `json:"thumb,omitempty"`
	Preview        string    `json:"preview,omitempty"`
	FullCompressed string    `json:"full_compressed,omitempty"`
	Original       string    `json:"original,omitempty"`
}

// DatasetUpdate holds the server-declared mutable fields of a dataset.
// Nil fields are left unchanged.
type DatasetUpdate struct {
	Name *string `json:"name,omitempty"`
}
