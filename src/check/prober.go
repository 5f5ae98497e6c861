package check

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/docker/docker/client"
)

// HostProber implements Prober against the real host: nvidia tools via exec,
// docker via the SDK. The docker client is created lazily so an unreachable
// daemon shows up as a failing check instead of a construction error.
type HostProber struct {
	docker *client.Client
}

func NewHostProber() *HostProber { return &HostProber{} }

func (h *HostProber) GPUQuery(ctx context.Context) (string, error) {
	exe, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return "", fmt.Errorf("nvidia-smi not found on PATH: %w", err)
	}
	out, err := exec.CommandContext(ctx, exe, "--query-gpu=name,driver_version", "--format=csv,noheader").Output()
	if err != nil {
		return "", fmt.Errorf("nvidia-smi: %w", err)
	}
	return string(out), nil
}

func (h *HostProber) DriverVersion(ctx context.Context) (string, error) {
	// The proc file exists exactly when the kernel module is loaded.
	data, err := os.ReadFile("/proc/driver/nvidia/version")
	if err != nil {
		return "", fmt.Errorf("nvidia kernel driver not loaded: %w", err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSpace(line), nil
}

func (h *HostProber) NvccVersion(ctx context.Context) (string, error) {
	exe, err := exec.LookPath("nvcc")
	if err != nil {
		return "", fmt.Errorf("nvcc not found on PATH: %w", err)
	}
	out, err := exec.CommandContext(ctx, exe, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("nvcc --version: %w", err)
	}
	return string(out), nil
}

func (h *HostProber) DockerPing(ctx context.Context) error {
	cli, err := h.dockerClient()
	if err != nil {
		return err
	}
	if _, err := cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon unreachable: %w", err)
	}
	return nil
}

func (h *HostProber) DockerRuntimes(ctx context.Context) ([]string, error) {
	cli, err := h.dockerClient()
	if err != nil {
		return nil, err
	}
	info, err := cli.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("docker info: %w", err)
	}
	runtimes := make([]string, 0, len(info.Runtimes))
	for name := range info.Runtimes {
		runtimes = append(runtimes, name)
	}
	sort.Strings(runtimes)
	return runtimes, nil
}

func (h *HostProber) dockerClient() (*client.Client, error) {
	if h.docker != nil {
		return h.docker, nil
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("connect docker daemon: %w", err)
	}
	h.docker = cli
	return cli, nil
}
