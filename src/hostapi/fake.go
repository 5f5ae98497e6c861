package hostapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FakeClient is an in-memory implementation for unit tests.
type FakeClient struct {
	// Packages: name -> installed package, name -> archive bytes.
	InstalledMap map[string]Package
	ArchiveData  map[string][]byte
	FailDownload map[string]bool

	// Images: normalized ref -> image, ref -> save tarball bytes.
	ImagesMap map[string]Image
	ImageData map[string][]byte
	FailPull  map[string]bool

	// Keys: url -> key bytes.
	KeyData map[string][]byte

	// Records of mutations, inspected by tests.
	InstalledArchives []string
	LoadedImageBytes  [][]byte
	InstalledKeys     map[string][]byte
	SourcesLists      map[string]string
	IndexUpdates      int
	FixBrokenRuns     int
}

func NewFake() *FakeClient {
	return &FakeClient{
		InstalledMap: map[string]Package{},
		ArchiveData:  map[string][]byte{},
		FailDownload: map[string]bool{},
		ImagesMap:    map[string]Image{},
		ImageData:    map[string][]byte{},
		FailPull:     map[string]bool{},
		KeyData:      map[string][]byte{},

		InstalledKeys: map[string][]byte{},
		SourcesLists:  map[string]string{},
	}
}

func (f *FakeClient) InstalledPackage(ctx context.Context, name string) (Package, error) {
	p, ok := f.InstalledMap[name]
	if !ok {
		return Package{}, &NotFoundError{Resource: "package", Name: name}
	}
	return p, nil
}

func (f *FakeClient) DownloadPackage(ctx context.Context, name, destDir string) (string, error) {
	if f.FailDownload[name] {
		return "", fmt.Errorf("download %s: connection reset", name)
	}
	data, ok := f.ArchiveData[name]
	if !ok {
		return "", fmt.Errorf("download %s: no archive available", name)
	}
	p := f.InstalledMap[name]
	version := strings.ReplaceAll(p.Version, ":", "%3a")
	arch := p.Architecture
	if arch == "" {
		arch = "amd64"
	}
	path := filepath.Join(destDir, fmt.Sprintf("%s_%s_%s.deb", name, version, arch))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *FakeClient) InstallPackages(ctx context.Context, debPaths []string) error {
	for _, p := range debPaths {
		if _, err := os.Stat(p); err != nil {
			return err
		}
		f.InstalledArchives = append(f.InstalledArchives, p)
		// Mark the package installed under its archive base name.
		base := filepath.Base(p)
		name := base
		if i := strings.Index(base, "_"); i > 0 {
			name = base[:i]
		}
		if _, ok := f.InstalledMap[name]; !ok {
			f.InstalledMap[name] = Package{Name: name, Version: "restored", Architecture: "amd64"}
		}
	}
	return nil
}

func (f *FakeClient) UpdateIndex(ctx context.Context) error {
	f.IndexUpdates++
	return nil
}

func (f *FakeClient) FixBroken(ctx context.Context) error {
	f.FixBrokenRuns++
	return nil
}

func (f *FakeClient) PullImage(ctx context.Context, ref string) error {
	if f.FailPull[ref] {
		return fmt.Errorf("pull %s: manifest unknown", ref)
	}
	if _, ok := f.ImagesMap[ref]; !ok {
		return &NotFoundError{Resource: "image", Name: ref}
	}
	return nil
}

func (f *FakeClient) InspectImage(ctx context.Context, ref string) (Image, error) {
	img, ok := f.ImagesMap[ref]
	if !ok {
		return Image{}, &NotFoundError{Resource: "image", Name: ref}
	}
	return img, nil
}

func (f *FakeClient) SaveImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	data, ok := f.ImageData[ref]
	if !ok {
		return nil, &NotFoundError{Resource: "image", Name: ref}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *FakeClient) LoadImage(ctx context.Context, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.LoadedImageBytes = append(f.LoadedImageBytes, data)
	return nil
}

func (f *FakeClient) FetchKey(ctx context.Context, url string) ([]byte, error) {
	data, ok := f.KeyData[url]
	if !ok {
		return nil, fmt.Errorf("fetch key %s: 404 not found", url)
	}
	return data, nil
}

func (f *FakeClient) InstallKey(ctx context.Context, name string, data []byte) (string, error) {
	f.InstalledKeys[name] = append([]byte(nil), data...)
	return "/etc/apt/keyrings/" + name + ".gpg", nil
}

func (f *FakeClient) WriteSourcesList(ctx context.Context, name, line string) (string, error) {
	f.SourcesLists[name] = line
	return "/etc/apt/sources.list.d/" + name + ".list", nil
}

// InstalledNames returns the sorted names of installed packages.
func (f *FakeClient) InstalledNames() []string {
	out := make([]string, 0, len(f.InstalledMap))
	for name := range f.InstalledMap {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
