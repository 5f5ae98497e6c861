package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"offline-backup/src/backend"
	dir "offline-backup/src/backend/directory"
	"offline-backup/src/backup/snapshot"
)

func newVerifyCmd(stdout, stderr io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "verify [all|packages|images|keys]",
		Short: "Verify checksums for snapshots in the target",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := backend.KindAll
			if len(args) == 1 {
				kind = strings.ToLower(args[0])
			}
			if kind == backend.KindRuns {
				return fmt.Errorf("runs carry no checksums; verify packages, images, or keys")
			}
			tgt, err := requireTarget(cmd)
			if err != nil {
				return err
			}
			results, err := runVerify(tgt.DirPath, kind)
			if err != nil {
				return err
			}
			switch output {
			case "json":
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			case "table", "":
				tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "TYPE\tNAME\tTIMESTAMP\tSTATUS")
				for _, r := range results {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Type, r.Name, r.Timestamp, r.Status)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				for _, r := range results {
					for _, f := range r.Files {
						fmt.Fprintf(stdout, "- %s: %s\n", f.Name, f.Status)
					}
				}
			default:
				return fmt.Errorf("unsupported --output: %s", output)
			}
			for _, r := range results {
				if r.Status != "ok" {
					return fmt.Errorf("verification failed for %d snapshots", countBad(results))
				}
			}
			return nil
		},
	}
	cmd.Flags().String("target", "", "Backend target URI (e.g., dir:/path)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}

type fileResult struct {
	Name     string `json:"name"`
	Status   string `json:"status"` // ok|mismatch|missing
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Error    string `json:"error,omitempty"`
}

type verifyResult struct {
	Type      string       `json:"type"`
	Name      string       `json:"name,omitempty"`
	Timestamp string       `json:"timestamp"`
	Status    string       `json:"status"` // ok|mismatch|missing-checksums
	Path      string       `json:"path"`
	Files     []fileResult `json:"files,omitempty"`
}

func runVerify(root, kind string) ([]verifyResult, error) {
	be, err := dir.New(root)
	if err != nil {
		return nil, err
	}
	var entries []backend.Entry
	if kind == backend.KindAll {
		for _, k := range []string{backend.KindPackages, backend.KindImages, backend.KindKeys} {
			e, err := be.List(k)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e...)
		}
	} else {
		if entries, err = be.List(kind); err != nil {
			return nil, err
		}
	}

	out := make([]verifyResult, 0, len(entries))
	for _, e := range entries {
		r := verifyResult{Type: e.Type, Name: e.Name, Timestamp: e.Timestamp, Path: e.Path}
		r.Status, r.Files = verifySnapshotDir(e.Path)
		out = append(out, r)
	}
	return out, nil
}

func verifySnapshotDir(snapDir string) (string, []fileResult) {
	sums, err := snapshot.ReadChecksums(snapDir)
	if err != nil {
		return "missing-checksums", nil
	}
	names := make([]string, 0, len(sums))
	for name := range sums {
		names = append(names, name)
	}
	// Stable detail order for rendering.
	sort.Strings(names)

	status := "ok"
	files := make([]fileResult, 0, len(names))
	for _, name := range names {
		want := sums[name]
		f := fileResult{Name: name, Expected: want}
		got, err := snapshot.SHA256File(filepath.Join(snapDir, name))
		switch {
		case os.IsNotExist(err):
			f.Status = "missing"
			f.Error = err.Error()
			status = "mismatch"
		case err != nil:
			f.Status = "mismatch"
			f.Error = err.Error()
			status = "mismatch"
		case !strings.EqualFold(want, got):
			f.Status = "mismatch"
			f.Actual = got
			status = "mismatch"
		default:
			f.Status = "ok"
			f.Actual = got
		}
		files = append(files, f)
	}
	return status, files
}

func countBad(results []verifyResult) int {
	n := 0
	for _, r := range results {
		if r.Status != "ok" {
			n++
		}
	}
	return n
}
