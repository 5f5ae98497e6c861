package packages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"offline-backup/src/backup/snapshot"
	"offline-backup/src/hostapi"
	"offline-backup/src/outcome"
)

// Restore installs every locally present package archive in one dpkg batch,
// runs the best-effort dependency fixup pass, and records a per-package
// outcome. Missing or unreadable snapshots are tolerated and recorded as
// skips or failures; they never abort the run.
func Restore(ctx context.Context, client hostapi.Client, root, version string, rep *outcome.Report) error {
	base := filepath.Join(root, "packages")
	names, err := snapshot.Items(base)
	if err != nil {
		return err
	}

	type item struct {
		name string
		deb  string
	}
	var batch []item
	for _, name := range names {
		snapDir, err := snapshot.Resolve(filepath.Join(base, name), version)
		if err != nil {
			rep.AddFail("package", name, err)
			continue
		}
		if snapDir == "" {
			rep.AddSkip("package", name, "no snapshot")
			continue
		}
		var mf Manifest
		if err := snapshot.ReadJSON(filepath.Join(snapDir, "manifest.json"), &mf); err != nil {
			rep.AddFail("package", name, fmt.Errorf("read manifest: %w", err))
			continue
		}
		debPath := filepath.Join(snapDir, mf.Filename)
		if _, err := os.Stat(debPath); err != nil {
			rep.AddFail("package", name, fmt.Errorf("archive missing: %w", err))
			continue
		}
		batch = append(batch, item{name: name, deb: debPath})
	}
	if len(batch) == 0 {
		return nil
	}

	paths := make([]string, len(batch))
	for i, it := range batch {
		paths[i] = it.deb
	}
	installErr := client.InstallPackages(ctx, paths)
	// Even a failed batch may have configured some packages; the fixup pass
	// resolves what it can before we take stock.
	fixErr := client.FixBroken(ctx)

	for _, it := range batch {
		pkg, err := client.InstalledPackage(ctx, it.name)
		if err != nil {
			cause := installErr
			if cause == nil {
				cause = fixErr
			}
			if cause == nil {
				cause = err
			}
			rep.AddFail("package", it.name, cause)
			continue
		}
		rep.AddOK("package", it.name, pkg.Version, it.deb)
	}
	return nil
}
