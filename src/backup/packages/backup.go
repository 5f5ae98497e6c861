package packages

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"offline-backup/src/backup/snapshot"
	"offline-backup/src/hostapi"
)

// BackupOne downloads the archive of one installed package into the backup
// tree. It creates packages/<name>/<timestamp>/ with the .deb, a manifest,
// and checksums. A package that is not installed surfaces as a
// hostapi.NotFoundError for the caller to record as a skip.
func BackupOne(ctx context.Context, client hostapi.Client, root, name string, now time.Time) (string, Manifest, error) {
	pkg, err := client.InstalledPackage(ctx, name)
	if err != nil {
		return "", Manifest{}, err
	}

	snapDir := filepath.Join(root, "packages", name, snapshot.FormatTime(now))
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		return "", Manifest{}, err
	}

	debPath, err := client.DownloadPackage(ctx, name, snapDir)
	if err != nil {
		os.RemoveAll(snapDir)
		return "", Manifest{}, err
	}
	info, err := os.Stat(debPath)
	if err != nil {
		os.RemoveAll(snapDir)
		return "", Manifest{}, err
	}

	mf := Manifest{
		Type:         "package",
		Name:         pkg.Name,
		Version:      pkg.Version,
		Architecture: pkg.Architecture,
		Filename:     filepath.Base(debPath),
		SizeBytes:    info.Size(),
		CreatedAt:    now.UTC(),
	}
	if err := snapshot.WriteJSON(filepath.Join(snapDir, "manifest.json"), mf); err != nil {
		return "", Manifest{}, err
	}
	if err := snapshot.WriteChecksums(snapDir, []string{mf.Filename, "manifest.json"}); err != nil {
		return "", Manifest{}, err
	}
	return snapDir, mf, nil
}
