package artifact

import (
	"bufio"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func newHash(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm %q", algo)
	}
}

// DigestFile computes the hex digest of the file at path.
func DigestFile(path string, algo Algorithm) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FindDigest scans checksum sidecar text for the digest of filename.
// Lines look like `<hex-digest>  <filename>`; a `*` binary-mode marker
// and path prefixes on the filename are tolerated. Entries are matched
// exactly first, then by base name.
func FindDigest(r io.Reader, filename string) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		name := strings.TrimPrefix(parts[1], "*")
		if name == filename || filepath.Base(name) == filename {
			return parts[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum sidecar: %w", err)
	}
	return "", &ChecksumParseError{Filename: filename}
}

// digestsEqual compares two hex digests case-insensitively.
func digestsEqual(expected, actual string) bool {
	return strings.EqualFold(expected, actual)
}
