package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"

	"offline-backup/src/backup/snapshot"
)

func TestChecksums_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.deb"), []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := snapshot.WriteChecksums(dir, []string{"a.deb"}); err != nil {
		t.Fatalf("WriteChecksums: %v", err)
	}
	sums, err := snapshot.ReadChecksums(dir)
	if err != nil {
		t.Fatalf("ReadChecksums: %v", err)
	}
	want, err := snapshot.SHA256File(filepath.Join(dir, "a.deb"))
	if err != nil {
		t.Fatal(err)
	}
	if sums["a.deb"] != want {
		t.Fatalf("sum = %q, want %q", sums["a.deb"], want)
	}
}

func TestResolve_LatestAndExplicit(t *testing.T) {
	itemDir := t.TempDir()
	for _, ts := range []string{"20250101T000000Z", "20250201T000000Z"} {
		if err := os.MkdirAll(filepath.Join(itemDir, ts), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := snapshot.Resolve(itemDir, "")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(latest) != "20250201T000000Z" {
		t.Fatalf("latest = %q", latest)
	}

	explicit, err := snapshot.Resolve(itemDir, "20250101T000000Z")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(explicit) != "20250101T000000Z" {
		t.Fatalf("explicit = %q", explicit)
	}

	if _, err := snapshot.Resolve(itemDir, "20990101T000000Z"); err == nil {
		t.Fatalf("expected error for unknown version")
	}
}

func TestResolve_MissingDirIsEmpty(t *testing.T) {
	got, err := snapshot.Resolve(filepath.Join(t.TempDir(), "absent"), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Fatalf("expected empty resolution, got %q", got)
	}
}
