// Package snapshot holds the on-disk helpers shared by every backup kind:
// JSON manifests, sha256 checksum files, and timestamped snapshot directories.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TimeFormat is the snapshot version identifier layout.
const TimeFormat = "20060102T150405Z"

// FormatTime renders a snapshot timestamp in UTC.
func FormatTime(t time.Time) string { return t.UTC().Format(TimeFormat) }

// WriteJSON writes v as indented JSON to path.
func WriteJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ReadJSON reads the JSON file at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// WriteChecksums writes checksums.txt in the snapshot directory covering the
// named files, in `<sha256>  <filename>` format.
func WriteChecksums(dir string, files []string) error {
	out, err := os.Create(filepath.Join(dir, "checksums.txt"))
	if err != nil {
		return err
	}
	defer out.Close()
	for _, name := range files {
		sum, err := SHA256File(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%s  %s\n", sum, name); err != nil {
			return err
		}
	}
	return nil
}

// ReadChecksums parses checksums.txt into filename -> expected sum.
func ReadChecksums(dir string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "checksums.txt"))
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "  ", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed checksums line: %q", line)
		}
		out[parts[1]] = parts[0]
	}
	return out, nil
}

// SHA256File returns the hex sha256 digest of the file at path.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Versions lists the snapshot timestamps under an item directory, sorted
// ascending. A missing directory yields an empty list.
func Versions(itemDir string) ([]string, error) {
	entries, err := os.ReadDir(itemDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Resolve picks the snapshot directory for an item: the requested version if
// given, otherwise the latest. It returns "" when no snapshot exists.
func Resolve(itemDir, version string) (string, error) {
	versions, err := Versions(itemDir)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", nil
	}
	if version == "" {
		return filepath.Join(itemDir, versions[len(versions)-1]), nil
	}
	for _, v := range versions {
		if v == version {
			return filepath.Join(itemDir, v), nil
		}
	}
	return "", fmt.Errorf("snapshot version %s not found under %s", version, itemDir)
}

// Items lists the item directories (package names, image refs, key names)
// under a kind directory. A missing kind directory yields an empty list.
func Items(kindDir string) ([]string, error) {
	return Versions(kindDir)
}
