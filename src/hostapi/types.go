package hostapi

import (
	"context"
	"errors"
	"io"

	"github.com/opencontainers/go-digest"
)

// Package models an installed APT package.
type Package struct {
	Name         string
	Version      string
	Architecture string
}

// Image models a docker image known to the local daemon.
type Image struct {
	Ref         string        // normalized reference, e.g. hello-world:latest
	ID          digest.Digest // content-addressed image ID
	RepoDigests []string
	SizeBytes   int64
}

// Client is a narrow interface over the host's package manager, container
// runtime, and key sources. Keep it small and focused on what we actually
// need so it stays mockable.
type Client interface {
	// Packages
	InstalledPackage(ctx context.Context, name string) (Package, error)
	DownloadPackage(ctx context.Context, name, destDir string) (string, error)
	InstallPackages(ctx context.Context, debPaths []string) error
	UpdateIndex(ctx context.Context) error
	FixBroken(ctx context.Context) error

	// Images
	PullImage(ctx context.Context, ref string) error
	InspectImage(ctx context.Context, ref string) (Image, error)
	SaveImage(ctx context.Context, ref string) (io.ReadCloser, error)
	LoadImage(ctx context.Context, r io.Reader) error

	// Repository signing keys
	FetchKey(ctx context.Context, url string) ([]byte, error)
	InstallKey(ctx context.Context, name string, data []byte) (string, error)
	WriteSourcesList(ctx context.Context, name, line string) (string, error)
}

// NotFoundError reports a missing package or image.
type NotFoundError struct{ Resource, Name string }

func (e *NotFoundError) Error() string { return e.Resource + " not found: " + e.Name }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
