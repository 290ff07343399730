package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasew/fetchurl"
)

// Installer downloads artifacts, verifies them against their checksum
// sidecars and moves them into place atomically. The zero value is not
// usable; construct with New.
type Installer struct {
	client  *http.Client
	fetcher *fetchurl.Fetcher

	// Progress enables a byte progress bar on stderr for artifact
	// downloads whose size is known.
	Progress bool
}

// New returns an Installer using client for HTTP fetches. A nil client
// means http.DefaultClient. Mirror servers for pinned-digest transfers
// are read from BINFETCH_MIRRORS (comma separated).
func New(client *http.Client) *Installer {
	if client == nil {
		client = http.DefaultClient
	}
	fetcher := fetchurl.NewFetcher(client)
	fetcher.Servers = append(fetcher.Servers, mirrorsFromEnv()...)
	return &Installer{
		client:  client,
		fetcher: fetcher,
	}
}

func mirrorsFromEnv() []string {
	env := os.Getenv("BINFETCH_MIRRORS")
	if env == "" {
		return nil
	}
	servers := strings.Split(env, ",")
	for i := range servers {
		servers[i] = strings.TrimSpace(servers[i])
	}
	return servers
}

// Result describes a completed verified install.
type Result struct {
	// Digest is the verified `<algo>:<hex>` digest of the installed file.
	Digest string
	// Path is the final install path.
	Path string
	// Mode is the file mode actually set, after defaults.
	Mode fs.FileMode
}

// Install runs the verified install pipeline for spec: download the
// artifact and its checksum sidecar, compare digests, then chmod and
// rename into place. The scratch directory lives next to the install
// path so the final rename stays on one filesystem, and it is removed
// on every exit path. On any error the install path is left untouched.
func (in *Installer) Install(ctx context.Context, spec Spec) (Result, error) {
	spec = spec.withDefaults()
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}

	scratch, err := os.MkdirTemp(filepath.Dir(spec.InstallPath), ".binfetch-*")
	if err != nil {
		return Result{}, &InstallError{Path: spec.InstallPath, Err: err}
	}
	defer os.RemoveAll(scratch)

	tmpPath := filepath.Join(scratch, spec.Filename())
	if err := in.fetchArtifact(ctx, spec, tmpPath); err != nil {
		return Result{}, err
	}

	slog.Debug("fetching checksum sidecar", "url", spec.ChecksumURL)
	var sidecar bytes.Buffer
	if err := in.download(ctx, spec.ChecksumURL, &sidecar); err != nil {
		return Result{}, err
	}

	expected, err := FindDigest(bytes.NewReader(sidecar.Bytes()), spec.Filename())
	if err != nil {
		return Result{}, err
	}

	actual, err := DigestFile(tmpPath, spec.Algorithm)
	if err != nil {
		return Result{}, &InstallError{Path: tmpPath, Err: err}
	}
	if !digestsEqual(expected, actual) {
		return Result{}, &ChecksumMismatchError{Expected: strings.ToLower(expected), Actual: actual}
	}
	slog.Debug("checksum verified", "file", spec.Filename(), "algo", spec.Algorithm, "digest", actual)

	if spec.SignatureURL != "" {
		if err := in.checkSignature(ctx, spec, tmpPath, scratch); err != nil {
			return Result{}, err
		}
	}

	if err := os.Chmod(tmpPath, spec.Mode); err != nil {
		return Result{}, &InstallError{Path: spec.InstallPath, Err: err}
	}
	if err := os.Rename(tmpPath, spec.InstallPath); err != nil {
		return Result{}, &InstallError{Path: spec.InstallPath, Err: err}
	}
	slog.Debug("installed", "path", spec.InstallPath, "mode", spec.Mode)

	return Result{
		Digest: string(spec.Algorithm) + ":" + actual,
		Path:   spec.InstallPath,
		Mode:   spec.Mode,
	}, nil
}

// fetchArtifact writes the artifact into tmpPath, through fetchurl when
// a pinned digest is available, falling back to a direct download.
func (in *Installer) fetchArtifact(ctx context.Context, spec Spec, tmpPath string) error {
	f, err := os.Create(tmpPath)
	if err != nil {
		return &InstallError{Path: tmpPath, Err: err}
	}
	defer f.Close()

	if spec.PinnedDigest != "" {
		err := in.downloadPinned(ctx, spec, f)
		if err == nil {
			return nil
		}
		slog.Debug("pinned transfer failed, falling back to direct download", "error", err)
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return &InstallError{Path: tmpPath, Err: err}
		}
		if err := f.Truncate(0); err != nil {
			return &InstallError{Path: tmpPath, Err: err}
		}
	}

	slog.Debug("downloading artifact", "url", spec.SourceURL)
	return in.download(ctx, spec.SourceURL, f)
}

func (in *Installer) checkSignature(ctx context.Context, spec Spec, tmpPath, scratch string) error {
	sigPath := filepath.Join(scratch, spec.Filename()+".sig")
	sf, err := os.Create(sigPath)
	if err != nil {
		return &InstallError{Path: sigPath, Err: err}
	}
	if err := in.download(ctx, spec.SignatureURL, sf); err != nil {
		sf.Close()
		return err
	}
	sf.Close()

	if err := verifySignature(spec.Keyring, tmpPath, sigPath); err != nil {
		return fmt.Errorf("signature verification failed for %s: %w", spec.Filename(), err)
	}
	slog.Debug("signature verified", "file", spec.Filename())
	return nil
}
