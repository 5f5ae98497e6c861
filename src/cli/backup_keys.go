package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"offline-backup/src/outcome"
)

func newBackupKeysCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Fetch repository signing keys from the manifest",
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
					fmt.Fprintf(stdout, "would back up key %s (%s)\n", key.Name, key.URL)
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
			backupKeys(cmdContext(cmd), client, tgt.DirPath, mf.Keys, rep, stdout)
			return finishBackup(tgt.DirPath, rep, stdout)
		},
	}
	addBackupFlags(cmd)
	return cmd
}
