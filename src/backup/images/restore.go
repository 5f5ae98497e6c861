package images

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"offline-backup/src/backup/snapshot"
	"offline-backup/src/hostapi"
	"offline-backup/src/outcome"
)

// Restore decompresses and loads every saved image archive, recording a
// per-image outcome. Individual load failures never abort the run.
func Restore(ctx context.Context, client hostapi.Client, root, version string, rep *outcome.Report) error {
	base := filepath.Join(root, "docker-images")
	items, err := snapshot.Items(base)
	if err != nil {
		return err
	}
	for _, item := range items {
		snapDir, err := snapshot.Resolve(filepath.Join(base, item), version)
		if err != nil {
			rep.AddFail("image", item, err)
			continue
		}
		if snapDir == "" {
			rep.AddSkip("image", item, "no snapshot")
			continue
		}
		var mf Manifest
		if err := snapshot.ReadJSON(filepath.Join(snapDir, "manifest.json"), &mf); err != nil {
			rep.AddFail("image", item, fmt.Errorf("read manifest: %w", err))
			continue
		}
		if err := loadOne(ctx, client, snapDir); err != nil {
			rep.AddFail("image", mf.Ref, err)
			continue
		}
		rep.AddOK("image", mf.Ref, mf.ID.String(), snapDir)
	}
	return nil
}

func loadOne(ctx context.Context, client hostapi.Client, snapDir string) error {
	f, err := os.Open(filepath.Join(snapDir, ArchiveName))
	if err != nil {
		return err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", ArchiveName, err)
	}
	defer gz.Close()
	return client.LoadImage(ctx, gz)
}
