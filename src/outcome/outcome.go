package outcome

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"
)

// Status classifies the result of one attempted item.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to a single manifest item.
type Outcome struct {
	Kind   string `json:"kind"` // package|image|key
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"` // version, digest, skip reason, or failure cause
	Path   string `json:"path,omitempty"`   // snapshot directory, when one was produced
}

// Report aggregates the outcomes of one backup or restore run. Callers must
// inspect it; a run never signals unconditional success.
type Report struct {
	Operation  string    `json:"operation"` // backup|restore
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Outcomes   []Outcome `json:"outcomes"`
}

// NewReport starts a report for the named operation.
func NewReport(operation string, now time.Time) *Report {
	return &Report{Operation: operation, StartedAt: now.UTC()}
}

func (r *Report) Add(o Outcome) { r.Outcomes = append(r.Outcomes, o) }

func (r *Report) AddOK(kind, name, detail, path string) {
	r.Add(Outcome{Kind: kind, Name: name, Status: StatusOK, Detail: detail, Path: path})
}

func (r *Report) AddSkip(kind, name, reason string) {
	r.Add(Outcome{Kind: kind, Name: name, Status: StatusSkipped, Detail: reason})
}

func (r *Report) AddFail(kind, name string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	r.Add(Outcome{Kind: kind, Name: name, Status: StatusFailed, Detail: detail})
}

// Counts returns the number of ok, skipped, and failed outcomes.
func (r *Report) Counts() (ok, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusOK:
			ok++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return
}

// Err returns a non-nil error when any item failed. Skips do not count as
// failures.
func (r *Report) Err() error {
	_, _, failed := r.Counts()
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d items failed", failed, len(r.Outcomes))
}

// Write persists the report as runs/<timestamp>/report.json under the backup
// root and returns the report path.
func (r *Report) Write(root string, now time.Time) (string, error) {
	r.FinishedAt = now.UTC()
	ts := r.StartedAt.Format("20060102T150405Z")
	dir := filepath.Join(root, "runs", ts)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "report.json")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return path, nil
}

// Render prints the outcomes as a table followed by a summary line.
func (r *Report) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tSTATUS\tDETAIL")
	for _, o := range r.Outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Kind, o.Name, o.Status, o.Detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	ok, skipped, failed := r.Counts()
	_, err := fmt.Fprintf(w, "%s: %d ok, %d skipped, %d failed\n", r.Operation, ok, skipped, failed)
	return err
}
