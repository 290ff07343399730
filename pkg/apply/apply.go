// Package apply orchestrates manifest-driven installs: it resolves
// entries to install specs, consults the lockfile for pinned digests,
// runs the installer, records receipts and fires post-install commands.
package apply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"binfetch/pkg/artifact"
	"binfetch/pkg/env"
	"binfetch/pkg/manifest"
	"binfetch/pkg/postinstall"
	"binfetch/pkg/receipt"
)

// Runner ties a manifest, its lockfile, the installer and the receipt
// store together for one invocation.
type Runner struct {
	manifest  *manifest.Manifest
	lock      *manifest.Lock
	lockPath  string
	installer *artifact.Installer
	store     *receipt.Store
	binDir    string
}

// NewRunner loads the manifest at manifestPath (and its lockfile) and
// opens the receipt store.
func NewRunner(manifestPath string, progress bool) (*Runner, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	lockPath := manifest.LockPath(manifestPath)
	lock, err := manifest.LoadLock(lockPath)
	if err != nil {
		return nil, err
	}

	binDir, err := env.GetBinDir()
	if err != nil {
		return nil, err
	}
	dbPath, err := env.ReceiptsDBPath()
	if err != nil {
		return nil, err
	}
	store, err := receipt.Open(dbPath)
	if err != nil {
		return nil, err
	}

	installer := artifact.New(nil)
	installer.Progress = progress

	return &Runner{
		manifest:  m,
		lock:      lock,
		lockPath:  lockPath,
		installer: installer,
		store:     store,
		binDir:    binDir,
	}, nil
}

// Close releases the receipt store.
func (r *Runner) Close() error {
	return r.store.Close()
}

// Names returns all artifact names in the manifest, sorted.
func (r *Runner) Names() []string {
	return r.manifest.Names()
}

// InstallAll installs the named entries one at a time. A failing entry
// does not stop the rest; all failures come back joined.
func (r *Runner) InstallAll(ctx context.Context, names []string) error {
	if len(names) == 0 {
		names = r.manifest.Names()
	}
	var errs []error
	for _, name := range names {
		if err := r.InstallOne(ctx, name); err != nil {
			slog.Error("install failed", "artifact", name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// InstallOne installs a single manifest entry: verified install, lock
// update, receipt, then the entry's post-install command.
func (r *Runner) InstallOne(ctx context.Context, name string) error {
	spec, err := r.manifest.Spec(name, r.binDir)
	if err != nil {
		return err
	}
	spec.PinnedDigest = r.lock.DigestFor(name, spec.SourceURL)

	if err := os.MkdirAll(filepath.Dir(spec.InstallPath), 0o755); err != nil {
		return err
	}

	res, err := r.installer.Install(ctx, spec)
	if err != nil {
		return err
	}
	slog.Info("installed", "artifact", name, "path", res.Path, "digest", res.Digest)

	if err := r.recordInstall(name, spec, res); err != nil {
		return err
	}

	return postinstall.Run(ctx, r.manifest.Artifacts[name].PostInstall)
}

func (r *Runner) recordInstall(name string, spec artifact.Spec, res artifact.Result) error {
	if err := r.store.Record(receipt.Receipt{
		Name:        name,
		SourceURL:   spec.SourceURL,
		Digest:      res.Digest,
		InstallPath: res.Path,
		Mode:        res.Mode,
	}); err != nil {
		return fmt.Errorf("record receipt: %w", err)
	}

	r.lock.Set(name, spec.SourceURL, res.Digest)
	if err := r.lock.Save(r.lockPath); err != nil {
		return fmt.Errorf("save lockfile: %w", err)
	}
	return nil
}

// Pin downloads and verifies the named entries without installing, and
// records the observed digests in the lockfile.
func (r *Runner) Pin(ctx context.Context, names []string) error {
	if len(names) == 0 {
		names = r.manifest.Names()
	}
	scratch, err := os.MkdirTemp("", "binfetch-pin-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	var errs []error
	for _, name := range names {
		spec, err := r.manifest.Spec(name, r.binDir)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		// Verify into scratch; only the digest is kept.
		spec.InstallPath = filepath.Join(scratch, spec.Filename())
		res, err := r.installer.Install(ctx, spec)
		if err != nil {
			slog.Error("pin failed", "artifact", name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		r.lock.Set(name, spec.SourceURL, res.Digest)
		slog.Info("pinned", "artifact", name, "digest", res.Digest)
	}
	if err := r.lock.Save(r.lockPath); err != nil {
		errs = append(errs, fmt.Errorf("save lockfile: %w", err))
	}
	return errors.Join(errs...)
}

// PostInstall runs only the post-install command of an entry, for
// artifacts that are already on disk.
func (r *Runner) PostInstall(ctx context.Context, name string) error {
	entry, ok := r.manifest.Artifacts[name]
	if !ok {
		return fmt.Errorf("unknown artifact %q", name)
	}
	if len(entry.PostInstall) == 0 {
		return fmt.Errorf("artifact %q has no post_install command", name)
	}
	return postinstall.Run(ctx, entry.PostInstall)
}
