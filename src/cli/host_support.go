package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"offline-backup/src/hostapi"
	"offline-backup/src/manifest"
	"offline-backup/src/target"
)

// connectHostFn is swapped out by tests to inject a fake client.
type connectHostFn func(ctx context.Context) (hostapi.Client, error)

var connectHost connectHostFn = func(ctx context.Context) (hostapi.Client, error) {
	return hostapi.ConnectLocal(ctx)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// requireTarget parses the --target flag into a dir target.
func requireTarget(cmd *cobra.Command) (target.Target, error) {
	tgtStr, _ := cmd.Flags().GetString("target")
	if tgtStr == "" {
		return target.Target{}, errors.New("--target is required (e.g., dir:/path)")
	}
	tgt, err := target.Parse(tgtStr)
	if err != nil {
		return target.Target{}, err
	}
	if tgt.Scheme != "dir" {
		return target.Target{}, fmt.Errorf("unsupported backend: %s", tgt.Scheme)
	}
	return tgt, nil
}

// loadManifestFlag reads the --manifest flag, falling back to the built-in
// Tesla K80 manifest when unset.
func loadManifestFlag(cmd *cobra.Command) (*manifest.Manifest, error) {
	path, _ := cmd.Flags().GetString("manifest")
	if path == "" {
		return manifest.Default(), nil
	}
	return manifest.Load(path)
}

// requireBackupRoot enforces the restore contract: a missing backup
// directory is fatal.
func requireBackupRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup directory not found: %s", root)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("backup target is not a directory: %s", root)
	}
	return nil
}
