package cli

import (
	"io"

	"github.com/spf13/cobra"
)

func newRestoreCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore from a backup directory without network access",
	}

	cmd.AddCommand(newRestoreAllCmd(stdout, stderr))
	cmd.AddCommand(newRestorePackagesCmd(stdout, stderr))
	cmd.AddCommand(newRestoreImagesCmd(stdout, stderr))
	cmd.AddCommand(newRestoreKeysCmd(stdout, stderr))

	return cmd
}

func addRestoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("target", "", "Backend target URI (e.g., dir:/path)")
	cmd.Flags().String("version", "", "Snapshot timestamp (default: latest per item)")
}
