package aptcli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// BinaryInfo describes the detected apt/dpkg binaries.
type BinaryInfo struct {
	AptGet     string
	Dpkg       string
	DpkgQuery  string
	AptVersion string
}

var aptVersionRegexp = regexp.MustCompile(`apt\s+([0-9]+\.[0-9]+(?:\.[0-9]+)?)`)

// Detect locates the apt-get, dpkg, and dpkg-query binaries on PATH and
// queries the apt version. The context bounds the version subprocess.
func Detect(ctx context.Context) (BinaryInfo, error) {
	var info BinaryInfo
	var err error
	if info.AptGet, err = exec.LookPath("apt-get"); err != nil {
		return BinaryInfo{}, fmt.Errorf("apt-get binary not found on PATH: %w", err)
	}
	if info.Dpkg, err = exec.LookPath("dpkg"); err != nil {
		return BinaryInfo{}, fmt.Errorf("dpkg binary not found on PATH: %w", err)
	}
	if info.DpkgQuery, err = exec.LookPath("dpkg-query"); err != nil {
		return BinaryInfo{}, fmt.Errorf("dpkg-query binary not found on PATH: %w", err)
	}
	ver, err := queryAptVersion(ctx, info.AptGet)
	if err != nil {
		return BinaryInfo{}, err
	}
	info.AptVersion = ver
	return info, nil
}

func queryAptVersion(ctx context.Context, exe string) (string, error) {
	// Guard against commands that hang by applying a short timeout.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, exe, "--version")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("apt-get: version command failed: %w", err)
	}
	ver, perr := parseAptVersion(strings.NewReader(string(out)))
	if perr != nil {
		return "", perr
	}
	if ver == "" {
		return "", errors.New("apt-get: could not parse version output")
	}
	return ver, nil
}

func parseAptVersion(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if matches := aptVersionRegexp.FindStringSubmatch(scanner.Text()); len(matches) == 2 {
			return matches[1], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("apt-get: read version output: %w", err)
	}
	return "", nil
}

// ExtractAptVersion derives the apt version string from the supplied command
// output. It is primarily exposed for testing.
func ExtractAptVersion(output string) (string, error) {
	return parseAptVersion(strings.NewReader(output))
}
