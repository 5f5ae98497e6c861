// Package check runs read-only host capability probes: GPU visibility,
// driver, CUDA toolchain, and docker GPU passthrough. A failing check is
// reported, never auto-fixed.
package check

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Result is the outcome of one capability probe.
type Result struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok|fail
	Detail string `json:"detail,omitempty"`
}

const (
	StatusOK   = "ok"
	StatusFail = "fail"
)

// Prober abstracts the host probes so checks are testable without real GPUs.
type Prober interface {
	// GPUQuery returns `nvidia-smi --query-gpu=name,driver_version
	// --format=csv,noheader` output.
	GPUQuery(ctx context.Context) (string, error)
	// DriverVersion returns the loaded kernel driver version.
	DriverVersion(ctx context.Context) (string, error)
	// NvccVersion returns raw `nvcc --version` output.
	NvccVersion(ctx context.Context) (string, error)
	// DockerPing verifies the daemon is reachable.
	DockerPing(ctx context.Context) error
	// DockerRuntimes lists the configured container runtimes.
	DockerRuntimes(ctx context.Context) ([]string, error)
}

// RunAll executes every capability check and returns all results.
func RunAll(ctx context.Context, p Prober) []Result {
	var results []Result

	if out, err := p.GPUQuery(ctx); err != nil {
		results = append(results, Result{Name: "gpu-visible", Status: StatusFail, Detail: err.Error()})
	} else if gpus := ParseGPUQuery(out); len(gpus) == 0 {
		results = append(results, Result{Name: "gpu-visible", Status: StatusFail, Detail: "nvidia-smi reported no GPUs"})
	} else {
		results = append(results, Result{Name: "gpu-visible", Status: StatusOK, Detail: strings.Join(gpus, ", ")})
	}

	if ver, err := p.DriverVersion(ctx); err != nil {
		results = append(results, Result{Name: "driver-loaded", Status: StatusFail, Detail: err.Error()})
	} else {
		results = append(results, Result{Name: "driver-loaded", Status: StatusOK, Detail: ver})
	}

	if out, err := p.NvccVersion(ctx); err != nil {
		results = append(results, Result{Name: "cuda-toolkit", Status: StatusFail, Detail: err.Error()})
	} else if rel := ParseNvccRelease(out); rel == "" {
		results = append(results, Result{Name: "cuda-toolkit", Status: StatusFail, Detail: "could not parse nvcc version output"})
	} else {
		results = append(results, Result{Name: "cuda-toolkit", Status: StatusOK, Detail: "release " + rel})
	}

	if err := p.DockerPing(ctx); err != nil {
		results = append(results, Result{Name: "docker-daemon", Status: StatusFail, Detail: err.Error()})
		results = append(results, Result{Name: "docker-gpu", Status: StatusFail, Detail: "daemon unreachable"})
		return results
	}
	results = append(results, Result{Name: "docker-daemon", Status: StatusOK})

	if runtimes, err := p.DockerRuntimes(ctx); err != nil {
		results = append(results, Result{Name: "docker-gpu", Status: StatusFail, Detail: err.Error()})
	} else if !contains(runtimes, "nvidia") {
		results = append(results, Result{Name: "docker-gpu", Status: StatusFail, Detail: fmt.Sprintf("nvidia runtime not configured (found: %s)", strings.Join(runtimes, ", "))})
	} else {
		results = append(results, Result{Name: "docker-gpu", Status: StatusOK, Detail: "nvidia runtime configured"})
	}
	return results
}

// AnyFailed reports whether any result failed.
func AnyFailed(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

// ParseGPUQuery parses csv,noheader nvidia-smi output into "name (driver x)"
// strings. Exposed for testing.
func ParseGPUQuery(out string) []string {
	var gpus []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		name := strings.TrimSpace(fields[0])
		if name == "" {
			continue
		}
		if len(fields) > 1 {
			gpus = append(gpus, fmt.Sprintf("%s (driver %s)", name, strings.TrimSpace(fields[1])))
		} else {
			gpus = append(gpus, name)
		}
	}
	return gpus
}

var nvccReleaseRegexp = regexp.MustCompile(`release\s+([0-9]+\.[0-9]+)`)

// ParseNvccRelease extracts the CUDA release from `nvcc --version` output.
// Exposed for testing.
func ParseNvccRelease(out string) string {
	if m := nvccReleaseRegexp.FindStringSubmatch(out); len(m) == 2 {
		return m[1]
	}
	return ""
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
