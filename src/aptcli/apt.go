package aptcli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Runner drives apt-get and dpkg. All invocations are serialized through a
// mutex because the dpkg database lock admits one writer per host.
type Runner struct {
	bin BinaryInfo
	mu  sync.Mutex
}

// NewRunner wraps the detected binaries.
func NewRunner(bin BinaryInfo) *Runner {
	return &Runner{bin: bin}
}

// NotInstalledError reports that a queried package is not installed.
type NotInstalledError struct{ Name string }

func (e *NotInstalledError) Error() string { return "package not installed: " + e.Name }

// InstalledVersion returns the installed version and architecture of a
// package, or a NotInstalledError.
func (r *Runner) InstalledVersion(ctx context.Context, name string) (version, arch string, err error) {
	stdout, stderr, err := r.run(ctx, r.bin.DpkgQuery, "-W", "-f", "${Status}\t${Version}\t${Architecture}", name)
	if err != nil {
		if strings.Contains(stderr, "no packages found") {
			return "", "", &NotInstalledError{Name: name}
		}
		return "", "", fmt.Errorf("dpkg-query %s: %w: %s", name, err, stderr)
	}
	version, arch, ok := ParseQueryOutput(stdout)
	if !ok {
		return "", "", &NotInstalledError{Name: name}
	}
	return version, arch, nil
}

// ParseQueryOutput parses `dpkg-query -W -f '${Status}\t${Version}\t${Architecture}'`
// output. ok is false when the package is present in the database but not in
// the installed state (e.g. config-files leftovers). Exposed for testing.
func ParseQueryOutput(out string) (version, arch string, ok bool) {
	fields := strings.Split(strings.TrimSpace(out), "\t")
	if len(fields) != 3 {
		return "", "", false
	}
	if !strings.HasSuffix(fields[0], " installed") {
		return "", "", false
	}
	return fields[1], fields[2], true
}

// Download fetches the package archive into destDir via `apt-get download`
// and returns the path of the downloaded .deb.
func (r *Runner) Download(ctx context.Context, name, destDir string) (string, error) {
	_, stderr, err := r.runInDir(ctx, destDir, r.bin.AptGet, "download", name)
	if err != nil {
		return "", fmt.Errorf("apt-get download %s: %w: %s", name, err, stderr)
	}
	// apt-get download names the file <name>_<version>_<arch>.deb in cwd.
	matches, err := filepath.Glob(filepath.Join(destDir, name+"_*.deb"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("apt-get download %s: no archive produced in %s", name, destDir)
	}
	return matches[0], nil
}

// Install installs the given .deb archives in one dpkg batch.
func (r *Runner) Install(ctx context.Context, debPaths []string) error {
	if len(debPaths) == 0 {
		return nil
	}
	args := append([]string{"-i"}, debPaths...)
	_, stderr, err := r.run(ctx, r.bin.Dpkg, args...)
	if err != nil {
		return fmt.Errorf("dpkg -i: %w: %s", err, stderr)
	}
	return nil
}

// FixBroken runs the best-effort dependency fixup pass after a batch install.
func (r *Runner) FixBroken(ctx context.Context) error {
	_, stderr, err := r.run(ctx, r.bin.AptGet, "install", "-f", "-y")
	if err != nil {
		return fmt.Errorf("apt-get install -f: %w: %s", err, stderr)
	}
	return nil
}

// Update refreshes the package index.
func (r *Runner) Update(ctx context.Context) error {
	_, stderr, err := r.run(ctx, r.bin.AptGet, "update")
	if err != nil {
		return fmt.Errorf("apt-get update: %w: %s", err, stderr)
	}
	return nil
}

func (r *Runner) run(ctx context.Context, bin string, args ...string) (string, string, error) {
	return r.runInDir(ctx, "", bin, args...)
}

func (r *Runner) runInDir(ctx context.Context, dir, bin string, args ...string) (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log.Debug().Str("bin", bin).Strs("args", args).Msg("exec")
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")
	if dir != "" {
		cmd.Dir = dir
	}
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	err := cmd.Run()
	return stdoutBuf.String(), stderrBuf.String(), err
}
