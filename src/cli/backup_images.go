package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"offline-backup/src/outcome"
)

func newBackupImagesCmd(stdout, stderr io.Writer) *cobra.Command {
	var noPull bool
	var parallel int
	cmd := &cobra.Command{
		Use:   "images [REF...]",
		Short: "Pull, save, and compress manifest images (all or selected by reference)",
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, err := requireTarget(cmd)
			if err != nil {
				return err
			}
			mf, err := loadManifestFlag(cmd)
			if err != nil {
				return err
			}
			refs := args
			if len(refs) == 0 {
				refs = mf.Images
			}

			if getSafetyOptions(cmd).DryRun {
				for _, ref := range refs {
					fmt.Fprintf(stdout, "would back up image %s\n", ref)
				}
				return nil
			}

			if err := ensureBackupRoot(tgt.DirPath); err != nil {
				return err
			}
			client, err := connectHost(cmdContext(cmd))
			if err != nil {
				return err
			}
			rep := outcome.NewReport("backup", time.Now())
			backupImages(cmdContext(cmd), client, tgt.DirPath, refs, !noPull, parallel, rep, stdout)
			return finishBackup(tgt.DirPath, rep, stdout)
		},
	}
	addBackupFlags(cmd)
	cmd.Flags().BoolVar(&noPull, "no-pull", false, "Save only images already present on the daemon")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "Number of images to save concurrently")
	return cmd
}
