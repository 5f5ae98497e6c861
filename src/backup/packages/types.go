package packages

import "time"

// Manifest captures metadata for one saved package archive.
type Manifest struct {
	Type         string    `json:"type"` // package
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	Architecture string    `json:"architecture"`
	Filename     string    `json:"filename"`
	SizeBytes    int64     `json:"sizeBytes"`
	CreatedAt    time.Time `json:"createdAt"`
}
