package hostapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/opencontainers/go-digest"
	"github.com/rs/zerolog/log"

	"offline-backup/src/aptcli"
)

// Default locations for installed keys and source lists on Debian/Ubuntu.
const (
	DefaultKeyringDir = "/etc/apt/keyrings"
	DefaultSourcesDir = "/etc/apt/sources.list.d"
)

// RealClient composes the exec-based apt driver, the docker SDK, and an HTTP
// client for key downloads.
type RealClient struct {
	apt    *aptcli.Runner
	docker *client.Client
	http   *http.Client

	KeyringDir string
	SourcesDir string
}

// ConnectLocal detects the apt toolchain and connects to the local docker
// daemon.
func ConnectLocal(ctx context.Context) (*RealClient, error) {
	bin, err := aptcli.Detect(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("apt", bin.AptGet).Str("version", bin.AptVersion).Msg("apt detected")
	dc, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("connect docker daemon: %w", err)
	}
	return &RealClient{
		apt:        aptcli.NewRunner(bin),
		docker:     dc,
		http:       &http.Client{Timeout: 60 * time.Second},
		KeyringDir: DefaultKeyringDir,
		SourcesDir: DefaultSourcesDir,
	}, nil
}

func (r *RealClient) InstalledPackage(ctx context.Context, name string) (Package, error) {
	version, arch, err := r.apt.InstalledVersion(ctx, name)
	if err != nil {
		var ni *aptcli.NotInstalledError
		if errors.As(err, &ni) {
			return Package{}, &NotFoundError{Resource: "package", Name: name}
		}
		return Package{}, err
	}
	return Package{Name: name, Version: version, Architecture: arch}, nil
}

func (r *RealClient) DownloadPackage(ctx context.Context, name, destDir string) (string, error) {
	return r.apt.Download(ctx, name, destDir)
}

func (r *RealClient) InstallPackages(ctx context.Context, debPaths []string) error {
	return r.apt.Install(ctx, debPaths)
}

func (r *RealClient) UpdateIndex(ctx context.Context) error {
	return r.apt.Update(ctx)
}

func (r *RealClient) FixBroken(ctx context.Context) error {
	return r.apt.FixBroken(ctx)
}

func (r *RealClient) PullImage(ctx context.Context, ref string) error {
	rc, err := r.docker.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull %s: %w", ref, err)
	}
	defer rc.Close()
	// The daemon streams pull progress as JSON messages; the pull only
	// completes once the stream is drained.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("pull %s: %w", ref, err)
	}
	return nil
}

func (r *RealClient) InspectImage(ctx context.Context, ref string) (Image, error) {
	insp, err := r.docker.ImageInspect(ctx, ref)
	if err != nil {
		if client.IsErrNotFound(err) {
			return Image{}, &NotFoundError{Resource: "image", Name: ref}
		}
		return Image{}, fmt.Errorf("inspect %s: %w", ref, err)
	}
	return Image{
		Ref:         ref,
		ID:          digest.Digest(insp.ID),
		RepoDigests: insp.RepoDigests,
		SizeBytes:   insp.Size,
	}, nil
}

func (r *RealClient) SaveImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	rc, err := r.docker.ImageSave(ctx, []string{ref})
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", ref, err)
	}
	return rc, nil
}

func (r *RealClient) LoadImage(ctx context.Context, rd io.Reader) error {
	resp, err := r.docker.ImageLoad(ctx, rd)
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	return nil
}

func (r *RealClient) FetchKey(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch key %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch key %s: %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (r *RealClient) InstallKey(ctx context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(r.KeyringDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(r.KeyringDir, name+".gpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (r *RealClient) WriteSourcesList(ctx context.Context, name, line string) (string, error) {
	if err := os.MkdirAll(r.SourcesDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(r.SourcesDir, name+".list")
	if err := os.WriteFile(path, []byte(line+"\n"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
