package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"offline-backup/src/check"
	"offline-backup/src/cli"
)

// stubProber satisfies check.Prober with canned answers.
type stubProber struct {
	gpuOut     string
	gpuErr     error
	driver     string
	driverErr  error
	nvccOut    string
	nvccErr    error
	pingErr    error
	runtimes   []string
	runtimeErr error
}

func (s *stubProber) GPUQuery(ctx context.Context) (string, error)      { return s.gpuOut, s.gpuErr }
func (s *stubProber) DriverVersion(ctx context.Context) (string, error) { return s.driver, s.driverErr }
func (s *stubProber) NvccVersion(ctx context.Context) (string, error)   { return s.nvccOut, s.nvccErr }
func (s *stubProber) DockerPing(ctx context.Context) error              { return s.pingErr }
func (s *stubProber) DockerRuntimes(ctx context.Context) ([]string, error) {
	return s.runtimes, s.runtimeErr
}

func healthyProber() *stubProber {
	return &stubProber{
		gpuOut:   "Tesla K80, 470.256.02\nTesla K80, 470.256.02\n",
		driver:   "NVRM version: NVIDIA UNIX x86_64 Kernel Module  470.256.02",
		nvccOut:  "Cuda compilation tools, release 11.4, V11.4.152",
		runtimes: []string{"io.containerd.runc.v2", "nvidia", "runc"},
	}
}

func TestCheckCmd_AllHealthy(t *testing.T) {
	restore := cli.SetProber(func() check.Prober { return healthyProber() })
	defer restore()

	var out, errBuf bytes.Buffer
	cmd := cli.NewRootCmd(&out, &errBuf)
	cmd.SetArgs([]string{"check"})
	if _, err := cmd.ExecuteC(); err != nil {
		t.Fatalf("check failed on healthy host: %v", err)
	}

	output := out.String()
	for _, want := range []string{"CHECK", "gpu-visible", "Tesla K80 (driver 470.256.02)", "driver-loaded", "cuda-toolkit", "release 11.4", "docker-daemon", "docker-gpu", "nvidia runtime configured"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in check output; got:\n%s", want, output)
		}
	}
	if strings.Contains(output, "fail") {
		t.Fatalf("expected no failures; got:\n%s", output)
	}
}

func TestCheckCmd_DaemonDownShortCircuitsGPUCheck(t *testing.T) {
	p := healthyProber()
	p.pingErr = errors.New("docker daemon unreachable: connection refused")
	restore := cli.SetProber(func() check.Prober { return p })
	defer restore()

	var out, errBuf bytes.Buffer
	cmd := cli.NewRootCmd(&out, &errBuf)
	cmd.SetArgs([]string{"check", "--output", "json"})
	if _, err := cmd.ExecuteC(); err == nil {
		t.Fatalf("check must exit non-zero when a probe fails")
	}

	var results []check.Result
	if err := json.Unmarshal(out.Bytes(), &results); err != nil {
		t.Fatalf("unmarshal check json: %v\n%s", err, out.String())
	}
	byName := map[string]check.Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	if byName["docker-daemon"].Status != check.StatusFail {
		t.Fatalf("expected docker-daemon fail, got %+v", byName["docker-daemon"])
	}
	if r := byName["docker-gpu"]; r.Status != check.StatusFail || r.Detail != "daemon unreachable" {
		t.Fatalf("expected docker-gpu short-circuit, got %+v", r)
	}
	if byName["gpu-visible"].Status != check.StatusOK {
		t.Fatalf("independent checks must still run, got %+v", byName["gpu-visible"])
	}
}

func TestCheckCmd_MissingNvidiaRuntime(t *testing.T) {
	p := healthyProber()
	p.runtimes = []string{"io.containerd.runc.v2", "runc"}
	restore := cli.SetProber(func() check.Prober { return p })
	defer restore()

	var out, errBuf bytes.Buffer
	cmd := cli.NewRootCmd(&out, &errBuf)
	cmd.SetArgs([]string{"check"})
	if _, err := cmd.ExecuteC(); err == nil {
		t.Fatalf("check must exit non-zero without the nvidia runtime")
	}
	if !strings.Contains(out.String(), "nvidia runtime not configured") {
		t.Fatalf("expected runtime detail; got:\n%s", out.String())
	}
}
