package cli

import (
	"io"

	"github.com/spf13/cobra"
)

func newBackupCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create backups from the manifest",
	}

	cmd.AddCommand(newBackupAllCmd(stdout, stderr))
	cmd.AddCommand(newBackupPackagesCmd(stdout, stderr))
	cmd.AddCommand(newBackupImagesCmd(stdout, stderr))
	cmd.AddCommand(newBackupKeysCmd(stdout, stderr))

	return cmd
}

func addBackupFlags(cmd *cobra.Command) {
	cmd.Flags().String("target", "", "Backend target URI (e.g., dir:/path)")
	cmd.Flags().String("manifest", "", "Manifest file (default: built-in Tesla K80 manifest)")
}
