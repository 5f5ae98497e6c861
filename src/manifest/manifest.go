package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/distribution/reference"
	"gopkg.in/yaml.v2"
)

// Key describes one repository signing key to capture, plus the optional
// sources.list entry that trusts it.
type Key struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	SourcesList string `yaml:"sources_list,omitempty"`
}

// Manifest is the declarative list of items a backup run targets: APT
// package names, Docker image references, and repository signing keys.
type Manifest struct {
	Packages []string `yaml:"packages"`
	Images   []string `yaml:"images"`
	Keys     []Key    `yaml:"keys"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks the manifest for empty entries, duplicates, and
// unparseable image references.
func (m *Manifest) Validate() error {
	seen := map[string]struct{}{}
	for _, p := range m.Packages {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("empty package name")
		}
		if _, ok := seen["pkg:"+p]; ok {
			return fmt.Errorf("duplicate package %q", p)
		}
		seen["pkg:"+p] = struct{}{}
	}
	for _, img := range m.Images {
		norm, err := NormalizeImageRef(img)
		if err != nil {
			return err
		}
		if _, ok := seen["img:"+norm]; ok {
			return fmt.Errorf("duplicate image %q", img)
		}
		seen["img:"+norm] = struct{}{}
	}
	for _, k := range m.Keys {
		if strings.TrimSpace(k.Name) == "" {
			return fmt.Errorf("key entry missing name")
		}
		if strings.TrimSpace(k.URL) == "" {
			return fmt.Errorf("key %q missing url", k.Name)
		}
		if _, ok := seen["key:"+k.Name]; ok {
			return fmt.Errorf("duplicate key %q", k.Name)
		}
		seen["key:"+k.Name] = struct{}{}
	}
	return nil
}

// NormalizeImageRef parses an image reference, defaults the tag to latest
// when absent, and returns the familiar string form.
func NormalizeImageRef(ref string) (string, error) {
	named, err := reference.ParseNormalizedNamed(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("invalid image reference %q: %w", ref, err)
	}
	return reference.FamiliarString(reference.TagNameOnly(named)), nil
}

// Default returns the built-in manifest for a Tesla K80 host: NVIDIA driver
// and CUDA packages, the Docker engine, the container toolkit, the CUDA base
// images, and the signing keys of their repositories.
func Default() *Manifest {
	return &Manifest{
		Packages: []string{
			"nvidia-driver-470",
			"nvidia-utils-470",
			"cuda-toolkit-11-4",
			"docker-ce",
			"docker-ce-cli",
			"containerd.io",
			"docker-buildx-plugin",
			"docker-compose-plugin",
			"nvidia-container-toolkit",
		},
		Images: []string{
			"nvidia/cuda:11.4.3-base-ubuntu20.04",
			"nvidia/cuda:11.4.3-runtime-ubuntu20.04",
			"hello-world:latest",
		},
		Keys: []Key{
			{
				Name:        "docker",
				URL:         "https://download.docker.com/linux/ubuntu/gpg",
				SourcesList: "deb [arch=amd64 signed-by=/etc/apt/keyrings/docker.gpg] https://download.docker.com/linux/ubuntu focal stable",
			},
			{
				Name:        "nvidia-container-toolkit",
				URL:         "https://nvidia.github.io/libnvidia-container/gpgkey",
				SourcesList: "deb [signed-by=/etc/apt/keyrings/nvidia-container-toolkit.gpg] https://nvidia.github.io/libnvidia-container/stable/deb/amd64 /",
			},
			{
				Name: "cuda",
				URL:  "https://developer.download.nvidia.com/compute/cuda/repos/ubuntu2004/x86_64/3bf863cc.pub",
			},
		},
	}
}
