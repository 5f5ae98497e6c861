package backend

// Entry represents a single snapshot discovered in a backend. It is
// intentionally generic so the CLI can render a consolidated view.
type Entry struct {
	Type      string `json:"type"` // package|image|key|run
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"` // YYYYMMDDThhmmssZ
	Path      string `json:"path"`      // absolute filesystem path to snapshot directory
	SizeBytes int64  `json:"sizeBytes"`
}

// Kind constants used for filtering.
const (
	KindAll      = "all"
	KindPackages = "packages"
	KindImages   = "images"
	KindKeys     = "keys"
	KindRuns     = "runs"
)

// StorageBackend defines read-only listing for now.
type StorageBackend interface {
	List(kind string) ([]Entry, error)
}
