package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"offline-backup/src/backup/images"
	"offline-backup/src/backup/keys"
	"offline-backup/src/backup/packages"
	"offline-backup/src/hostapi"
	"offline-backup/src/manifest"
	"offline-backup/src/outcome"
	"offline-backup/src/util/pool"
)

// backupPackages attempts every package in the manifest. A package that is
// not installed is recorded as a skip, never an error; a failed download is
// recorded and the run continues.
func backupPackages(ctx context.Context, client hostapi.Client, root string, names []string, rep *outcome.Report, stdout io.Writer) {
	total := len(names)
	for i, name := range names {
		fmt.Fprintf(stdout, "[%d/%d] Backing up package %s\n", i+1, total, name)
		snapDir, mf, err := packages.BackupOne(ctx, client, root, name, time.Now())
		switch {
		case hostapi.IsNotFound(err):
			rep.AddSkip("package", name, "not installed")
			fmt.Fprintf(stdout, "[%d/%d] Skip %s (not installed)\n", i+1, total, name)
		case err != nil:
			rep.AddFail("package", name, err)
			log.Warn().Err(err).Str("package", name).Msg("package backup failed")
		default:
			rep.AddOK("package", name, mf.Version, snapDir)
		}
	}
}

// backupImages saves every image in the manifest, optionally pulling first
// and optionally with bounded parallelism. Per-image failures are recorded
// and the run continues.
func backupImages(ctx context.Context, client hostapi.Client, root string, refs []string, pull bool, parallel int, rep *outcome.Report, stdout io.Writer) {
	type result struct {
		ref     string
		snapDir string
		mf      images.Manifest
		err     error
	}
	results := make([]result, len(refs))

	// Stream per-item progress only when saves run one at a time.
	var progressOut io.Writer
	if parallel <= 1 {
		progressOut = stdout
	}

	var mu sync.Mutex
	p := pool.New(parallel)
	for i, raw := range refs {
		i, raw := i, raw
		p.Add(func(ctx context.Context) {
			ref, err := manifest.NormalizeImageRef(raw)
			if err != nil {
				results[i] = result{ref: raw, err: err}
				return
			}
			mu.Lock()
			fmt.Fprintf(stdout, "[%d/%d] Backing up image %s\n", i+1, len(refs), ref)
			mu.Unlock()
			snapDir, mf, err := images.BackupOne(ctx, client, root, ref, pull, time.Now(), progressOut)
			results[i] = result{ref: ref, snapDir: snapDir, mf: mf, err: err}
		})
	}
	if err := p.Run(ctx); err != nil {
		for i := range results {
			if results[i].ref == "" {
				results[i] = result{ref: refs[i], err: err}
			}
		}
	}

	for _, r := range results {
		if r.err != nil {
			rep.AddFail("image", r.ref, r.err)
			log.Warn().Err(r.err).Str("image", r.ref).Msg("image backup failed")
			continue
		}
		rep.AddOK("image", r.ref, r.mf.ID.String(), r.snapDir)
	}
}

// backupKeys fetches every repository signing key in the manifest.
func backupKeys(ctx context.Context, client hostapi.Client, root string, list []manifest.Key, rep *outcome.Report, stdout io.Writer) {
	total := len(list)
	for i, key := range list {
		fmt.Fprintf(stdout, "[%d/%d] Backing up key %s\n", i+1, total, key.Name)
		snapDir, _, err := keys.BackupOne(ctx, client, root, key, time.Now())
		if err != nil {
			rep.AddFail("key", key.Name, err)
			log.Warn().Err(err).Str("key", key.Name).Msg("key backup failed")
			continue
		}
		rep.AddOK("key", key.Name, key.URL, snapDir)
	}
}

// finishBackup persists the run report, renders the outcome table, and
// returns a non-nil error when any item failed.
func finishBackup(root string, rep *outcome.Report, stdout io.Writer) error {
	if path, err := rep.Write(root, time.Now()); err != nil {
		log.Warn().Err(err).Msg("could not write run report")
	} else {
		fmt.Fprintf(stdout, "Run report: %s\n", path)
	}
	if err := rep.Render(stdout); err != nil {
		return err
	}
	return rep.Err()
}

// ensureBackupRoot creates the backup directory tree root.
func ensureBackupRoot(root string) error {
	return os.MkdirAll(root, 0o755)
}
