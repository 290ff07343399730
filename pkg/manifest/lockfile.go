package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// LockedArtifact pins the digest observed for an artifact URL during a
// verified run.
type LockedArtifact struct {
	URL    string `toml:"url"`
	Digest string `toml:"digest"`
}

// Lock is the binfetch.lock.toml sidecar of a manifest.
type Lock struct {
	Artifacts map[string]LockedArtifact `toml:"artifacts"`
}

// LoadLock reads a lockfile. A missing file yields an empty lock.
func LoadLock(path string) (*Lock, error) {
	out := &Lock{Artifacts: map[string]LockedArtifact{}}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return out, nil
	}
	if _, err := toml.DecodeFile(path, out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if out.Artifacts == nil {
		out.Artifacts = map[string]LockedArtifact{}
	}
	for name, locked := range out.Artifacts {
		locked.URL = strings.TrimSpace(locked.URL)
		locked.Digest = strings.TrimSpace(locked.Digest)
		if locked.Digest == "" {
			return nil, fmt.Errorf("invalid lock entry for artifact %q: digest is required", name)
		}
		out.Artifacts[name] = locked
	}
	return out, nil
}

// Save writes the lockfile to path.
func (l *Lock) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(l)
}

// Set records the digest for an artifact.
func (l *Lock) Set(name, url, digest string) {
	l.Artifacts[name] = LockedArtifact{URL: url, Digest: digest}
}

// DigestFor returns the pinned digest for name, but only while the
// manifest still points at the same URL; a changed URL invalidates the
// pin.
func (l *Lock) DigestFor(name, url string) string {
	locked, ok := l.Artifacts[name]
	if !ok || locked.URL != url {
		return ""
	}
	return locked.Digest
}

// LockPath derives the lockfile path from a manifest path.
func LockPath(manifestPath string) string {
	for _, suffix := range []string{".toml", ".json"} {
		if strings.HasSuffix(manifestPath, suffix) {
			return strings.TrimSuffix(manifestPath, suffix) + ".lock.toml"
		}
	}
	return manifestPath + ".lock.toml"
}
