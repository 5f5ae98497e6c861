package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"offline-backup/src/outcome"
)

func newBackupPackagesCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packages [NAME...]",
		Short: "Download archives of installed manifest packages (all or selected by name)",
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, err := requireTarget(cmd)
			if err != nil {
				return err
			}
			mf, err := loadManifestFlag(cmd)
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names = mf.Packages
			}

			if getSafetyOptions(cmd).DryRun {
				for _, name := range names {
					fmt.Fprintf(stdout, "would back up package %s\n", name)
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
			backupPackages(cmdContext(cmd), client, tgt.DirPath, names, rep, stdout)
			return finishBackup(tgt.DirPath, rep, stdout)
		},
	}
	addBackupFlags(cmd)
	return cmd
}
