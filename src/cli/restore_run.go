package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"offline-backup/src/backup/snapshot"
	"offline-backup/src/outcome"
	"offline-backup/src/safety"
)

// Kind subdirectories of the backup root, in restore order.
var restoreKindDirs = map[string]string{
	"keys":     "repositories",
	"packages": "packages",
	"images":   "docker-images",
}

// countRestoreItems returns how many items of the given kinds have snapshots.
func countRestoreItems(root string, kinds []string) (int, error) {
	total := 0
	for _, kind := range kinds {
		items, err := snapshot.Items(filepath.Join(root, restoreKindDirs[kind]))
		if err != nil {
			return 0, err
		}
		total += len(items)
	}
	return total, nil
}

// beginRestore handles the shared preamble of every restore command: the
// backup root must exist (fatal otherwise), an empty backup reports "nothing
// to restore", dry-run prints the plan, and the user confirms the mutation.
// proceed is false when the command should stop without error.
func beginRestore(cmd *cobra.Command, stdout io.Writer, root string, kinds []string) (proceed bool, err error) {
	if err := requireBackupRoot(root); err != nil {
		return false, err
	}
	total, err := countRestoreItems(root, kinds)
	if err != nil {
		return false, err
	}
	if total == 0 {
		fmt.Fprintln(stdout, "nothing to restore")
		return false, nil
	}

	opts := getSafetyOptions(cmd)
	if opts.DryRun {
		for _, kind := range kinds {
			items, err := snapshot.Items(filepath.Join(root, restoreKindDirs[kind]))
			if err != nil {
				return false, err
			}
			for _, item := range items {
				fmt.Fprintf(stdout, "would restore %s %s\n", kind, item)
			}
		}
		return false, nil
	}

	ok, err := safety.Confirm(opts, os.Stdin, stdout, fmt.Sprintf("Apply restore for %d items?", total))
	if err != nil {
		return false, err
	}
	return ok, nil
}

// finishRestore persists the run report, renders the outcomes, and returns a
// non-nil error when any item failed.
func finishRestore(root string, rep *outcome.Report, stdout io.Writer) error {
	if _, err := rep.Write(root, time.Now()); err != nil {
		log.Warn().Err(err).Msg("could not write run report")
	}
	if err := rep.Render(stdout); err != nil {
		return err
	}
	return rep.Err()
}
