package directory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"offline-backup/src/backend"
)

// Subdirectory names of the on-disk layout.
const (
	packagesDir = "packages"
	imagesDir   = "docker-images"
	keysDir     = "repositories"
	runsDir     = "runs"
)

// Backend implements backend.StorageBackend for the filesystem layout.
type Backend struct {
	Root string // absolute directory path
}

func New(root string) (*Backend, error) {
	if root == "" {
		return nil, errors.New("directory backend root must not be empty")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}
	return &Backend{Root: root}, nil
}

func (b *Backend) List(kind string) ([]backend.Entry, error) {
	kinds := []string{backend.KindPackages, backend.KindImages, backend.KindKeys, backend.KindRuns}
	if kind != "" && kind != backend.KindAll {
		kinds = []string{kind}
	}
	var entries []backend.Entry
	for _, k := range kinds {
		switch k {
		case backend.KindPackages:
			e, err := b.listTwoLevel(packagesDir, "package")
			if err != nil {
				return nil, err
			}
			entries = append(entries, e...)
		case backend.KindImages:
			e, err := b.listTwoLevel(imagesDir, "image")
			if err != nil {
				return nil, err
			}
			entries = append(entries, e...)
		case backend.KindKeys:
			e, err := b.listTwoLevel(keysDir, "key")
			if err != nil {
				return nil, err
			}
			entries = append(entries, e...)
		case backend.KindRuns:
			e, err := b.listRuns()
			if err != nil {
				return nil, err
			}
			entries = append(entries, e...)
		default:
			return nil, fmt.Errorf("unknown kind %q", k)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, c := entries[i], entries[j]
		if a.Type != c.Type {
			return a.Type < c.Type
		}
		if a.Name != c.Name {
			return a.Name < c.Name
		}
		return a.Timestamp < c.Timestamp
	})
	return entries, nil
}

// listTwoLevel walks <root>/<base>/<name>/<timestamp>.
func (b *Backend) listTwoLevel(base, entryType string) ([]backend.Entry, error) {
	basePath := filepath.Join(b.Root, base)
	names, err := readDirNames(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []backend.Entry
	for _, name := range names {
		tsPath := filepath.Join(basePath, name)
		timestamps, err := readDirNames(tsPath)
		if err != nil {
			return nil, err
		}
		for _, ts := range timestamps {
			full := filepath.Join(tsPath, ts)
			entries = append(entries, backend.Entry{
				Type:      entryType,
				Name:      name,
				Timestamp: ts,
				Path:      full,
				SizeBytes: dirSize(full),
			})
		}
	}
	return entries, nil
}

func (b *Backend) listRuns() ([]backend.Entry, error) {
	base := filepath.Join(b.Root, runsDir)
	timestamps, err := readDirNames(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []backend.Entry
	for _, ts := range timestamps {
		full := filepath.Join(base, ts)
		entries = append(entries, backend.Entry{Type: "run", Timestamp: ts, Path: full, SizeBytes: dirSize(full)})
	}
	return entries, nil
}

func readDirNames(path string) ([]string, error) {
	des, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, de := range des {
		if de.IsDir() && !strings.HasPrefix(de.Name(), ".") {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func dirSize(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
