package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"

	"offline-backup/src/cli"
	"offline-backup/src/hostapi"
)

const testManifestYAML = `packages:
  - docker-ce
images:
  - hello-world:latest
keys:
  - name: docker
    url: https://example.com/docker-key
    sources_list: "deb [arch=amd64] https://example.com focal stable"
`

func writeTestManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := os.WriteFile(path, []byte(testManifestYAML), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func fakeConnect(fake *hostapi.FakeClient) func(context.Context) (hostapi.Client, error) {
	return func(context.Context) (hostapi.Client, error) { return fake, nil }
}

func newBackupFake() *hostapi.FakeClient {
	fake := hostapi.NewFake()
	fake.InstalledMap["docker-ce"] = hostapi.Package{Name: "docker-ce", Version: "5:24.0.7-1", Architecture: "amd64"}
	fake.ArchiveData["docker-ce"] = []byte("deb-archive-bytes")
	fake.ImagesMap["hello-world:latest"] = hostapi.Image{
		Ref:       "hello-world:latest",
		ID:        digest.FromString("hello-world-image"),
		SizeBytes: 13256,
	}
	fake.ImageData["hello-world:latest"] = []byte("docker-save-tar-stream")
	fake.KeyData["https://example.com/docker-key"] = []byte{0x99, 0x02, 0x01, 0x02} // binary keyring
	return fake
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errBuf bytes.Buffer
	cmd := cli.NewRootCmd(&out, &errBuf)
	cmd.SetArgs(args)
	_, err := cmd.ExecuteC()
	return out.String(), errBuf.String(), err
}

func TestBackupAllCmd_WritesSnapshotsAndReport(t *testing.T) {
	fake := newBackupFake()
	restore := cli.SetConnectHost(fakeConnect(fake))
	defer restore()

	root := filepath.Join(t.TempDir(), "backup")
	mfPath := writeTestManifest(t)
	out, stderr, err := runCmd(t, "backup", "all", "--target", "dir:"+root, "--manifest", mfPath)
	if err != nil {
		t.Fatalf("backup all failed: %v; stderr=%s", err, stderr)
	}

	// One snapshot per manifest item, each with manifest.json and checksums.
	for _, glob := range []string{
		"packages/docker-ce/*/manifest.json",
		"packages/docker-ce/*/checksums.txt",
		"packages/docker-ce/*/docker-ce_*_amd64.deb",
		"docker-images/hello-world_latest/*/manifest.json",
		"docker-images/hello-world_latest/*/image.tar.gz",
		"repositories/docker/*/docker.gpg",
		"repositories/docker/*/docker.list",
		"runs/*/report.json",
	} {
		matches, err := filepath.Glob(filepath.Join(root, glob))
		if err != nil || len(matches) != 1 {
			t.Fatalf("expected exactly one match for %s, got %v (err=%v)", glob, matches, err)
		}
	}

	for _, want := range []string{"[1/3]", "[2/3]", "[3/3]", "backup: 3 ok, 0 skipped, 0 failed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output; got:\n%s", want, out)
		}
	}
}

func TestBackupAllCmd_DryRunPlansOnly(t *testing.T) {
	fake := newBackupFake()
	restore := cli.SetConnectHost(fakeConnect(fake))
	defer restore()

	root := filepath.Join(t.TempDir(), "backup")
	mfPath := writeTestManifest(t)
	out, _, err := runCmd(t, "backup", "all", "--target", "dir:"+root, "--manifest", mfPath, "--dry-run")
	if err != nil {
		t.Fatalf("dry-run failed: %v", err)
	}
	for _, want := range []string{"would back up key docker", "would back up package docker-ce", "would back up image hello-world:latest"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in dry-run plan; got:\n%s", want, out)
		}
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("dry-run must not create the backup root")
	}
}

func TestBackupPackagesCmd_SkipsNotInstalled(t *testing.T) {
	fake := newBackupFake()
	delete(fake.InstalledMap, "docker-ce")
	restore := cli.SetConnectHost(fakeConnect(fake))
	defer restore()

	root := filepath.Join(t.TempDir(), "backup")
	mfPath := writeTestManifest(t)
	out, _, err := runCmd(t, "backup", "packages", "--target", "dir:"+root, "--manifest", mfPath)
	if err != nil {
		t.Fatalf("skips must not fail the run: %v", err)
	}
	if !strings.Contains(out, "not installed") {
		t.Fatalf("expected skip reason in output; got:\n%s", out)
	}
	if !strings.Contains(out, "backup: 0 ok, 1 skipped, 0 failed") {
		t.Fatalf("expected skip summary; got:\n%s", out)
	}
	matches, _ := filepath.Glob(filepath.Join(root, "packages", "docker-ce", "*"))
	if len(matches) != 0 {
		t.Fatalf("skipped package must leave no snapshot, got %v", matches)
	}
}

func TestBackupImagesCmd_FailureYieldsError(t *testing.T) {
	fake := newBackupFake()
	fake.FailPull["hello-world:latest"] = true
	restore := cli.SetConnectHost(fakeConnect(fake))
	defer restore()

	root := filepath.Join(t.TempDir(), "backup")
	mfPath := writeTestManifest(t)
	out, _, err := runCmd(t, "backup", "images", "--target", "dir:"+root, "--manifest", mfPath)
	if err == nil {
		t.Fatalf("expected non-nil error when an item fails")
	}
	if !strings.Contains(err.Error(), "1 of 1 items failed") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "failed") {
		t.Fatalf("expected failed outcome in table; got:\n%s", out)
	}
	// The run report is still written so the failure is inspectable later.
	matches, _ := filepath.Glob(filepath.Join(root, "runs", "*", "report.json"))
	if len(matches) != 1 {
		t.Fatalf("expected failure run report, got %v", matches)
	}
}

func TestRestoreAllCmd_AppliesSnapshots(t *testing.T) {
	source := newBackupFake()
	restore := cli.SetConnectHost(fakeConnect(source))
	root := filepath.Join(t.TempDir(), "backup")
	mfPath := writeTestManifest(t)
	if _, stderr, err := runCmd(t, "backup", "all", "--target", "dir:"+root, "--manifest", mfPath); err != nil {
		t.Fatalf("backup failed: %v; stderr=%s", err, stderr)
	}
	restore()

	// Restore against a fresh host that has nothing installed.
	dest := hostapi.NewFake()
	restore = cli.SetConnectHost(fakeConnect(dest))
	defer restore()

	out, stderr, err := runCmd(t, "restore", "all", "--target", "dir:"+root, "--yes")
	if err != nil {
		t.Fatalf("restore all failed: %v; stderr=%s\n%s", err, stderr, out)
	}

	if len(dest.InstalledArchives) != 1 || !strings.Contains(dest.InstalledArchives[0], "docker-ce_") {
		t.Fatalf("expected docker-ce archive installed, got %v", dest.InstalledArchives)
	}
	if dest.FixBrokenRuns == 0 {
		t.Fatalf("expected dependency fixup after package install")
	}
	if len(dest.LoadedImageBytes) != 1 || !bytes.Equal(dest.LoadedImageBytes[0], []byte("docker-save-tar-stream")) {
		t.Fatalf("loaded image bytes do not round-trip")
	}
	if _, ok := dest.InstalledKeys["docker"]; !ok {
		t.Fatalf("expected docker key installed, got %v", dest.InstalledKeys)
	}
	if got := dest.SourcesLists["docker"]; !strings.Contains(got, "https://example.com") {
		t.Fatalf("expected sources list written, got %q", got)
	}
	if dest.IndexUpdates != 1 {
		t.Fatalf("expected one index refresh, got %d", dest.IndexUpdates)
	}
	if !strings.Contains(out, "restore: 3 ok, 0 skipped, 0 failed") {
		t.Fatalf("expected restore summary; got:\n%s", out)
	}
}

func TestRestoreAllCmd_NothingToRestore(t *testing.T) {
	dest := hostapi.NewFake()
	restore := cli.SetConnectHost(fakeConnect(dest))
	defer restore()

	root := t.TempDir()
	out, _, err := runCmd(t, "restore", "all", "--target", "dir:"+root, "--yes")
	if err != nil {
		t.Fatalf("empty backup must not error: %v", err)
	}
	if !strings.Contains(out, "nothing to restore") {
		t.Fatalf("expected nothing-to-restore notice; got:\n%s", out)
	}
	if len(dest.InstalledArchives) != 0 || len(dest.LoadedImageBytes) != 0 {
		t.Fatalf("empty restore must not mutate the host")
	}
}

func TestRestoreAllCmd_MissingRootIsFatal(t *testing.T) {
	restore := cli.SetConnectHost(fakeConnect(hostapi.NewFake()))
	defer restore()

	root := filepath.Join(t.TempDir(), "does-not-exist")
	_, _, err := runCmd(t, "restore", "all", "--target", "dir:"+root, "--yes")
	if err == nil || !strings.Contains(err.Error(), "backup directory not found") {
		t.Fatalf("expected fatal missing-root error, got %v", err)
	}
}

func TestRestoreAllCmd_DryRunPrintsPlan(t *testing.T) {
	source := newBackupFake()
	restore := cli.SetConnectHost(fakeConnect(source))
	root := filepath.Join(t.TempDir(), "backup")
	mfPath := writeTestManifest(t)
	if _, _, err := runCmd(t, "backup", "all", "--target", "dir:"+root, "--manifest", mfPath); err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	restore()

	dest := hostapi.NewFake()
	restore = cli.SetConnectHost(fakeConnect(dest))
	defer restore()

	out, _, err := runCmd(t, "restore", "all", "--target", "dir:"+root, "--dry-run")
	if err != nil {
		t.Fatalf("dry-run restore failed: %v", err)
	}
	for _, want := range []string{"would restore keys docker", "would restore packages docker-ce", "would restore images hello-world_latest"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in plan; got:\n%s", want, out)
		}
	}
	if len(dest.InstalledArchives) != 0 || len(dest.LoadedImageBytes) != 0 || len(dest.InstalledKeys) != 0 {
		t.Fatalf("dry-run must not mutate the host")
	}
}
