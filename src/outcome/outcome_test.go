package outcome_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"offline-backup/src/outcome"
)

func TestReport_CountsAndErr(t *testing.T) {
	r := outcome.NewReport("backup", time.Now())
	r.AddOK("package", "docker-ce", "5:24.0.7", "/b/packages/docker-ce/x")
	r.AddSkip("package", "cuda-toolkit-11-4", "not installed")
	r.AddFail("image", "hello-world:latest", errors.New("pull failed"))

	ok, skipped, failed := r.Counts()
	if ok != 1 || skipped != 1 || failed != 1 {
		t.Fatalf("counts = %d/%d/%d", ok, skipped, failed)
	}
	if err := r.Err(); err == nil || !strings.Contains(err.Error(), "1 of 3") {
		t.Fatalf("Err = %v, want failure summary", err)
	}
}

func TestReport_ErrNilWhenOnlySkips(t *testing.T) {
	r := outcome.NewReport("backup", time.Now())
	r.AddSkip("package", "cuda-toolkit-11-4", "not installed")
	if err := r.Err(); err != nil {
		t.Fatalf("skips must not count as failures: %v", err)
	}
}

func TestReport_WriteAndRender(t *testing.T) {
	root := t.TempDir()
	started := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	r := outcome.NewReport("backup", started)
	r.AddOK("key", "docker", "", "")

	path, err := r.Write(root, started.Add(time.Minute))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := filepath.Join(root, "runs", "20250304T050607Z", "report.json")
	if path != want {
		t.Fatalf("report path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var loaded outcome.Report
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("report not valid json: %v", err)
	}
	if loaded.Operation != "backup" || len(loaded.Outcomes) != 1 {
		t.Fatalf("unexpected report: %+v", loaded)
	}

	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "KIND") || !strings.Contains(out, "backup: 1 ok, 0 skipped, 0 failed") {
		t.Fatalf("unexpected render output:\n%s", out)
	}
}
