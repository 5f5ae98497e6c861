package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"offline-backup/src/backup/images"
	"offline-backup/src/outcome"
)

func newRestoreImagesCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Decompress and load all saved image archives",
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, err := requireTarget(cmd)
			if err != nil {
				return err
			}
			proceed, err := beginRestore(cmd, stdout, tgt.DirPath, []string{"images"})
			if err != nil || !proceed {
				return err
			}
			client, err := connectHost(cmdContext(cmd))
			if err != nil {
				return err
			}
			version, _ := cmd.Flags().GetString("version")
			rep := outcome.NewReport("restore", time.Now())
			if err := images.Restore(cmdContext(cmd), client, tgt.DirPath, version, rep); err != nil {
				return err
			}
			return finishRestore(tgt.DirPath, rep, stdout)
		},
	}
	addRestoreFlags(cmd)
	return cmd
}
