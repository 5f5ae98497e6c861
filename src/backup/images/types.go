package images

import (
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
)

// Manifest captures metadata for one saved image archive, including the
// content digests observed at save time. Tags are mutable upstream; the
// digest records what the tag resolved to when the backup was taken.
type Manifest struct {
	Type             string        `json:"type"` // image
	Ref              string        `json:"ref"`
	ID               digest.Digest `json:"id"`
	RepoDigests      []string      `json:"repoDigests,omitempty"`
	SizeBytes        int64         `json:"sizeBytes"`
	ArchiveSizeBytes int64         `json:"archiveSizeBytes"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// ArchiveName is the saved image file inside each snapshot directory.
const ArchiveName = "image.tar.gz"

// SanitizeRef turns an image reference into a directory name.
func SanitizeRef(ref string) string {
	r := strings.NewReplacer("/", "_", ":", "_", "@", "_")
	return r.Replace(ref)
}
