package images

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"offline-backup/src/backup/snapshot"
	"offline-backup/src/hostapi"
	"offline-backup/src/util/progress"
)

// BackupOne pulls (optionally), saves, and compresses one image into the
// backup tree: docker-images/<sanitized-ref>/<timestamp>/image.tar.gz plus a
// manifest and checksums. The manifest records the image ID and repo digests
// at save time.
func BackupOne(ctx context.Context, client hostapi.Client, root, ref string, pull bool, now time.Time, progressOut io.Writer) (string, Manifest, error) {
	if pull {
		if err := client.PullImage(ctx, ref); err != nil {
			return "", Manifest{}, err
		}
	}
	img, err := client.InspectImage(ctx, ref)
	if err != nil {
		return "", Manifest{}, err
	}

	snapDir := filepath.Join(root, "docker-images", SanitizeRef(ref), snapshot.FormatTime(now))
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		return "", Manifest{}, err
	}

	archivePath := filepath.Join(snapDir, ArchiveName)
	if err := saveCompressed(ctx, client, ref, img.SizeBytes, archivePath, progressOut); err != nil {
		os.RemoveAll(snapDir)
		return "", Manifest{}, err
	}
	info, err := os.Stat(archivePath)
	if err != nil {
		os.RemoveAll(snapDir)
		return "", Manifest{}, err
	}

	mf := Manifest{
		Type:             "image",
		Ref:              ref,
		ID:               img.ID,
		RepoDigests:      img.RepoDigests,
		SizeBytes:        img.SizeBytes,
		ArchiveSizeBytes: info.Size(),
		CreatedAt:        now.UTC(),
	}
	if err := snapshot.WriteJSON(filepath.Join(snapDir, "manifest.json"), mf); err != nil {
		return "", Manifest{}, err
	}
	if err := snapshot.WriteChecksums(snapDir, []string{ArchiveName, "manifest.json"}); err != nil {
		return "", Manifest{}, err
	}
	return snapDir, mf, nil
}

func saveCompressed(ctx context.Context, client hostapi.Client, ref string, totalBytes int64, dest string, progressOut io.Writer) error {
	rc, err := client.SaveImage(ctx, ref)
	if err != nil {
		return err
	}
	defer rc.Close()

	var src io.Reader = rc
	if progressOut != nil {
		src = progress.NewReader(rc, totalBytes, ref, progressOut)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(f)
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		f.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
