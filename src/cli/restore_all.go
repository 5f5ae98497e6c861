package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"offline-backup/src/backup/images"
	"offline-backup/src/backup/keys"
	"offline-backup/src/backup/packages"
	"offline-backup/src/outcome"
)

func newRestoreAllCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Restore keys, packages, and images from the backup directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, err := requireTarget(cmd)
			if err != nil {
				return err
			}
			proceed, err := beginRestore(cmd, stdout, tgt.DirPath, []string{"keys", "packages", "images"})
			if err != nil || !proceed {
				return err
			}
			client, err := connectHost(cmdContext(cmd))
			if err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			version, _ := cmd.Flags().GetString("version")
			rep := outcome.NewReport("restore", time.Now())

			fmt.Fprintln(stdout, "[1/3] Restoring repository keys")
			if err := keys.Restore(ctx, client, tgt.DirPath, version, rep); err != nil {
				return err
			}
			// Refresh the index so restored source lists take effect. Offline
			// hosts may have no reachable mirrors; that is not fatal.
			if err := client.UpdateIndex(ctx); err != nil {
				log.Warn().Err(err).Msg("package index refresh failed")
			}
			fmt.Fprintln(stdout, "[2/3] Restoring packages")
			if err := packages.Restore(ctx, client, tgt.DirPath, version, rep); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "[3/3] Restoring images")
			if err := images.Restore(ctx, client, tgt.DirPath, version, rep); err != nil {
				return err
			}

			return finishRestore(tgt.DirPath, rep, stdout)
		},
	}
	addRestoreFlags(cmd)
	return cmd
}
