package report

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// HashFile returns the hex BLAKE3-256 digest of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// WriteManifest hashes every regular file in dir and writes
// "<digest>  <name>" lines, sorted by name, to MANIFEST.blake3.
// The manifest does not list itself.
func WriteManifest(dir string) (string, error) {
	names, err := Files(dir)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, name := range names {
		if name == ManifestFile {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		sum, err := HashFile(path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s  %s\n", sum, name)
	}

	out := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(out, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return out, nil
}
