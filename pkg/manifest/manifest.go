package manifest

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"binfetch/pkg/artifact"
	"binfetch/pkg/env"
)

// Entry is one artifact in a manifest. Only url is mandatory; the rest
// falls back to defaults when a Spec is built from it.
type Entry struct {
	URL          string   `toml:"url" json:"url"`
	ChecksumURL  string   `toml:"checksum_url" json:"checksum_url,omitempty"`
	Algorithm    string   `toml:"algorithm" json:"algorithm,omitempty"`
	InstallPath  string   `toml:"install_path" json:"install_path,omitempty"`
	Mode         string   `toml:"mode" json:"mode,omitempty"`
	SignatureURL string   `toml:"signature_url" json:"signature_url,omitempty"`
	Keyring      string   `toml:"keyring" json:"keyring,omitempty"`
	PostInstall  []string `toml:"post_install" json:"post_install,omitempty"`
}

// Manifest is a named set of artifacts, loaded from binfetch.toml or a
// schema-validated JSON equivalent.
type Manifest struct {
	Artifacts map[string]Entry `toml:"artifacts" json:"artifacts"`
}

// Load reads a manifest from path. A missing file yields an empty
// manifest. JSON manifests are validated against the embedded schema
// before decoding.
func Load(path string) (*Manifest, error) {
	out := &Manifest{Artifacts: map[string]Entry{}}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return out, nil
	}

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := validateJSON(data); err != nil {
			return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if _, err := toml.DecodeFile(path, out); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if out.Artifacts == nil {
		out.Artifacts = map[string]Entry{}
	}
	for name, entry := range out.Artifacts {
		if strings.TrimSpace(entry.URL) == "" {
			return nil, fmt.Errorf("artifact %q: url is required", name)
		}
	}
	return out, nil
}

// Names returns the artifact names in stable order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Artifacts))
	for name := range m.Artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Spec builds the install spec for the named entry. binDir is used when
// the entry does not give an install path.
func (m *Manifest) Spec(name, binDir string) (artifact.Spec, error) {
	entry, ok := m.Artifacts[name]
	if !ok {
		return artifact.Spec{}, fmt.Errorf("unknown artifact %q", name)
	}

	spec := artifact.Spec{
		SourceURL:    entry.URL,
		ChecksumURL:  entry.ChecksumURL,
		Algorithm:    artifact.Algorithm(entry.Algorithm),
		InstallPath:  env.ExpandPath(entry.InstallPath),
		SignatureURL: entry.SignatureURL,
		Keyring:      env.ExpandPath(entry.Keyring),
	}
	if spec.ChecksumURL == "" {
		spec.ChecksumURL = entry.URL + ".sha256"
	}
	if spec.InstallPath == "" {
		spec.InstallPath = filepath.Join(binDir, spec.Filename())
	}
	if entry.Mode != "" {
		mode, err := strconv.ParseUint(entry.Mode, 8, 32)
		if err != nil {
			return artifact.Spec{}, fmt.Errorf("artifact %q: invalid mode %q: %w", name, entry.Mode, err)
		}
		spec.Mode = fs.FileMode(mode)
	}
	return spec, nil
}
