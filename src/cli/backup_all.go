package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"offline-backup/src/outcome"
)

func newBackupAllCmd(stdout, stderr io.Writer) *cobra.Command {
	var noPull bool
	var parallel int
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Back up keys, packages, and images from the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, err := requireTarget(cmd)
			if err != nil {
				return err
			}
			mf, err := loadManifestFlag(cmd)
			if err != nil {
				return err
			}

			if getSafetyOptions(cmd).DryRun {
				for _, key := range mf.Keys {
					fmt.Fprintf(stdout, "would back up key %s\n", key.Name)
				}
				for _, name := range mf.Packages {
					fmt.Fprintf(stdout, "would back up package %s\n", name)
				}
				for _, ref := range mf.Images {
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
			ctx := cmdContext(cmd)
			rep := outcome.NewReport("backup", time.Now())

			fmt.Fprintln(stdout, "[1/3] Backing up repository keys")
			backupKeys(ctx, client, tgt.DirPath, mf.Keys, rep, stdout)
			fmt.Fprintf(stdout, "[2/3] Backing up packages (count=%d)\n", len(mf.Packages))
			backupPackages(ctx, client, tgt.DirPath, mf.Packages, rep, stdout)
			fmt.Fprintf(stdout, "[3/3] Backing up images (count=%d)\n", len(mf.Images))
			backupImages(ctx, client, tgt.DirPath, mf.Images, !noPull, parallel, rep, stdout)

			return finishBackup(tgt.DirPath, rep, stdout)
		},
	}
	addBackupFlags(cmd)
	cmd.Flags().BoolVar(&noPull, "no-pull", false, "Save only images already present on the daemon")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "Number of images to save concurrently")
	return cmd
}
