package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrajende/vdmlio/internal/store"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// checksumSuffix names the sidecar written next to an exported file.
const checksumSuffix = ".sha256"

// writeChecksumFile writes a sha256sum-compatible line for data next to
// path and returns the sidecar path.
func writeChecksumFile(path string, data []byte) (string, error) {
	sumPath := path + checksumSuffix
	line := fmt.Sprintf("%s  %s\n", store.Checksum(string(data)), filepath.Base(path))
	if err := os.WriteFile(sumPath, []byte(line), 0o644); err != nil {
		return "", err
	}
	return sumPath, nil
}

// parseChecksumFile parses a standard checksums file (e.g. shasum -a 256 output).
// Each line: "<hex>  <filename>" or "<hex> <filename>".
// Returns map[filename]hex. Malformed lines are skipped.
func parseChecksumFile(r io.Reader) (map[string]string, error) {
	result := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		hash := parts[0]
		name := strings.TrimPrefix(parts[len(parts)-1], "*")
		if len(hash) != 64 { // SHA-256 hex is 64 chars
			continue
		}
		result[name] = strings.ToLower(hash)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksums: %w", err)
	}
	return result, nil
}

// verifyChecksum checks data, read from path, against its entry in the
// checksums file sumPath.
func verifyChecksum(sumPath, path string, data []byte) error {
	f, err := os.Open(sumPath)
	if err != nil {
		return err
	}
	defer f.Close()

	sums, err := parseChecksumFile(f)
	if err != nil {
		return err
	}
	want, ok := sums[filepath.Base(path)]
	if !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "no checksum for %s in %s", filepath.Base(path), sumPath)
	}
	if got := store.Checksum(string(data)); got != want {
		return schema.NewErrorf(schema.ErrCodeValidation, "checksum mismatch for %s: got %s, want %s", path, got, want)
	}
	return nil
}
