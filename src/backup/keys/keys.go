// Package keys backs up and restores repository signing keys and their
// sources.list entries.
package keys

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"offline-backup/src/backup/snapshot"
	"offline-backup/src/hostapi"
	"offline-backup/src/manifest"
	"offline-backup/src/outcome"
)

// Manifest captures metadata for one saved signing key.
type Manifest struct {
	Type        string    `json:"type"` // key
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Filename    string    `json:"filename"`
	SourcesList string    `json:"sourcesList,omitempty"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BackupOne fetches one signing key into the backup tree:
// repositories/<name>/<timestamp>/ with the key file, the optional sources
// list entry, a manifest, and checksums.
func BackupOne(ctx context.Context, client hostapi.Client, root string, key manifest.Key, now time.Time) (string, Manifest, error) {
	data, err := client.FetchKey(ctx, key.URL)
	if err != nil {
		return "", Manifest{}, err
	}

	snapDir := filepath.Join(root, "repositories", key.Name, snapshot.FormatTime(now))
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		return "", Manifest{}, err
	}

	filename := key.Name + keyExt(data)
	if err := os.WriteFile(filepath.Join(snapDir, filename), data, 0o644); err != nil {
		os.RemoveAll(snapDir)
		return "", Manifest{}, err
	}
	files := []string{filename, "manifest.json"}
	if key.SourcesList != "" {
		listName := key.Name + ".list"
		if err := os.WriteFile(filepath.Join(snapDir, listName), []byte(key.SourcesList+"\n"), 0o644); err != nil {
			os.RemoveAll(snapDir)
			return "", Manifest{}, err
		}
		files = append(files, listName)
	}

	mf := Manifest{
		Type:        "key",
		Name:        key.Name,
		URL:         key.URL,
		Filename:    filename,
		SourcesList: key.SourcesList,
		SizeBytes:   int64(len(data)),
		CreatedAt:   now.UTC(),
	}
	if err := snapshot.WriteJSON(filepath.Join(snapDir, "manifest.json"), mf); err != nil {
		return "", Manifest{}, err
	}
	if err := snapshot.WriteChecksums(snapDir, files); err != nil {
		return "", Manifest{}, err
	}
	return snapDir, mf, nil
}

// Restore installs every saved signing key and sources list entry, recording
// a per-key outcome.
func Restore(ctx context.Context, client hostapi.Client, root, version string, rep *outcome.Report) error {
	base := filepath.Join(root, "repositories")
	items, err := snapshot.Items(base)
	if err != nil {
		return err
	}
	for _, item := range items {
		snapDir, err := snapshot.Resolve(filepath.Join(base, item), version)
		if err != nil {
			rep.AddFail("key", item, err)
			continue
		}
		if snapDir == "" {
			rep.AddSkip("key", item, "no snapshot")
			continue
		}
		var mf Manifest
		if err := snapshot.ReadJSON(filepath.Join(snapDir, "manifest.json"), &mf); err != nil {
			rep.AddFail("key", item, fmt.Errorf("read manifest: %w", err))
			continue
		}
		data, err := os.ReadFile(filepath.Join(snapDir, mf.Filename))
		if err != nil {
			rep.AddFail("key", mf.Name, fmt.Errorf("key file missing: %w", err))
			continue
		}
		path, err := client.InstallKey(ctx, mf.Name, data)
		if err != nil {
			rep.AddFail("key", mf.Name, err)
			continue
		}
		if mf.SourcesList != "" {
			if _, err := client.WriteSourcesList(ctx, mf.Name, mf.SourcesList); err != nil {
				rep.AddFail("key", mf.Name, err)
				continue
			}
		}
		rep.AddOK("key", mf.Name, "", path)
	}
	return nil
}

// keyExt guesses the conventional extension: .asc for ASCII-armored keys,
// .gpg for binary keyrings.
func keyExt(data []byte) string {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN PGP")) {
		return ".asc"
	}
	return ".gpg"
}

// IsArmored reports whether the key data is ASCII-armored. Exposed for
// testing.
func IsArmored(data []byte) bool {
	return strings.HasSuffix(keyExt(data), ".asc")
}
