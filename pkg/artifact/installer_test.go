package artifact

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newArtifactServer serves a fixed set of paths; anything else is 404.
func newArtifactServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// assertScratchGone fails if anything besides the expected install
// artifacts is left in dir.
func assertScratchGone(t *testing.T, dir string, wantEntries int) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != wantEntries {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory has %d entries %v, want %d", len(entries), names, wantEntries)
	}
}

func TestInstallSuccess(t *testing.T) {
	srv := newArtifactServer(t, map[string]string{
		"/hello.bin":        "hello",
		"/hello.bin.sha256": helloSHA256 + "  hello.bin\n",
	})

	dir := t.TempDir()
	dest := filepath.Join(dir, "hello")

	res, err := New(srv.Client()).Install(context.Background(), Spec{
		SourceURL:   srv.URL + "/hello.bin",
		ChecksumURL: srv.URL + "/hello.bin.sha256",
		InstallPath: dest,
	})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("installed content = %q, want %q", got, "hello")
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("installed mode = %o, want 0755", info.Mode().Perm())
	}

	if want := "sha256:" + helloSHA256; res.Digest != want {
		t.Errorf("Result.Digest = %q, want %q", res.Digest, want)
	}
	if res.Mode != 0o755 {
		t.Errorf("Result.Mode = %o, want default 0755", res.Mode)
	}
	assertScratchGone(t, dir, 1)
}

func TestInstallPinnedDigest(t *testing.T) {
	srv := newArtifactServer(t, map[string]string{
		"/hello.bin":        "hello",
		"/hello.bin.sha256": helloSHA256 + "  hello.bin\n",
	})

	dir := t.TempDir()
	dest := filepath.Join(dir, "hello")
	res, err := New(srv.Client()).Install(context.Background(), Spec{
		SourceURL:    srv.URL + "/hello.bin",
		ChecksumURL:  srv.URL + "/hello.bin.sha256",
		InstallPath:  dest,
		PinnedDigest: "sha256:" + helloSHA256,
	})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("installed content = %q, want %q", got, "hello")
	}
	if want := "sha256:" + helloSHA256; res.Digest != want {
		t.Errorf("Result.Digest = %q, want %q", res.Digest, want)
	}
	assertScratchGone(t, dir, 1)
}

// A stale pin must not block the install: the pinned transfer fails,
// the direct download takes over and the sidecar check still decides.
func TestInstallStalePinFallsBack(t *testing.T) {
	srv := newArtifactServer(t, map[string]string{
		"/hello.bin":        "hello",
		"/hello.bin.sha256": helloSHA256 + "  hello.bin\n",
	})

	dir := t.TempDir()
	dest := filepath.Join(dir, "hello")
	res, err := New(srv.Client()).Install(context.Background(), Spec{
		SourceURL:    srv.URL + "/hello.bin",
		ChecksumURL:  srv.URL + "/hello.bin.sha256",
		InstallPath:  dest,
		PinnedDigest: "sha256:" + strings.Repeat("ab", 32),
	})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("installed content = %q, want %q", got, "hello")
	}
	if want := "sha256:" + helloSHA256; res.Digest != want {
		t.Errorf("Result.Digest = %q, want %q", res.Digest, want)
	}
	assertScratchGone(t, dir, 1)
}

func TestInstallUppercaseSidecarDigest(t *testing.T) {
	srv := newArtifactServer(t, map[string]string{
		"/hello.bin":        "hello",
		"/hello.bin.sha256": strings.ToUpper(helloSHA256) + "  hello.bin\n",
	})

	dest := filepath.Join(t.TempDir(), "hello")
	_, err := New(srv.Client()).Install(context.Background(), Spec{
		SourceURL:   srv.URL + "/hello.bin",
		ChecksumURL: srv.URL + "/hello.bin.sha256",
		InstallPath: dest,
	})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
}

func TestInstallChecksumMismatch(t *testing.T) {
	srv := newArtifactServer(t, map[string]string{
		"/hello.bin":        "tampered",
		"/hello.bin.sha256": helloSHA256 + "  hello.bin\n",
	})

	dir := t.TempDir()
	dest := filepath.Join(dir, "hello")
	if err := os.WriteFile(dest, []byte("previous"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := New(srv.Client()).Install(context.Background(), Spec{
		SourceURL:   srv.URL + "/hello.bin",
		ChecksumURL: srv.URL + "/hello.bin.sha256",
		InstallPath: dest,
	})
	var mismatch *ChecksumMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want *ChecksumMismatchError", err)
	}
	if mismatch.Expected != helloSHA256 {
		t.Errorf("Expected = %q, want %q", mismatch.Expected, helloSHA256)
	}

	// Prior state must survive a failed install.
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "previous" {
		t.Errorf("install path content = %q, want untouched %q", got, "previous")
	}
	assertScratchGone(t, dir, 1)
}

func TestInstallChecksumMismatchNoPriorFile(t *testing.T) {
	srv := newArtifactServer(t, map[string]string{
		"/hello.bin":        "tampered",
		"/hello.bin.sha256": helloSHA256 + "  hello.bin\n",
	})

	dir := t.TempDir()
	dest := filepath.Join(dir, "hello")
	_, err := New(srv.Client()).Install(context.Background(), Spec{
		SourceURL:   srv.URL + "/hello.bin",
		ChecksumURL: srv.URL + "/hello.bin.sha256",
		InstallPath: dest,
	})
	var mismatch *ChecksumMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want *ChecksumMismatchError", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("install path should not exist after mismatch, stat err = %v", err)
	}
	assertScratchGone(t, dir, 0)
}

func TestInstallSidecarWrongFilename(t *testing.T) {
	srv := newArtifactServer(t, map[string]string{
		"/hello.bin":        "hello",
		"/hello.bin.sha256": helloSHA256 + "  other.bin\n",
	})

	dir := t.TempDir()
	_, err := New(srv.Client()).Install(context.Background(), Spec{
		SourceURL:   srv.URL + "/hello.bin",
		ChecksumURL: srv.URL + "/hello.bin.sha256",
		InstallPath: filepath.Join(dir, "hello"),
	})
	var parseErr *ChecksumParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ChecksumParseError", err)
	}
	assertScratchGone(t, dir, 0)
}

func TestInstallChecksumNotFound(t *testing.T) {
	srv := newArtifactServer(t, map[string]string{
		"/hello.bin": "hello",
	})

	dir := t.TempDir()
	dest := filepath.Join(dir, "hello")
	_, err := New(srv.Client()).Install(context.Background(), Spec{
		SourceURL:   srv.URL + "/hello.bin",
		ChecksumURL: srv.URL + "/hello.bin.sha256",
		InstallPath: dest,
	})
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("error = %v, want *DownloadError", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("install path should not exist after download failure, stat err = %v", err)
	}
	assertScratchGone(t, dir, 0)
}

func TestInstallArtifactNotFound(t *testing.T) {
	srv := newArtifactServer(t, map[string]string{
		"/hello.bin.sha256": helloSHA256 + "  hello.bin\n",
	})

	dir := t.TempDir()
	_, err := New(srv.Client()).Install(context.Background(), Spec{
		SourceURL:   srv.URL + "/hello.bin",
		ChecksumURL: srv.URL + "/hello.bin.sha256",
		InstallPath: filepath.Join(dir, "hello"),
	})
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("error = %v, want *DownloadError", err)
	}
	if dlErr.URL != srv.URL+"/hello.bin" {
		t.Errorf("DownloadError.URL = %q, want artifact URL", dlErr.URL)
	}
	assertScratchGone(t, dir, 0)
}

func TestInstallIdempotent(t *testing.T) {
	srv := newArtifactServer(t, map[string]string{
		"/hello.bin":        "hello",
		"/hello.bin.sha256": helloSHA256 + "  hello.bin\n",
	})

	dir := t.TempDir()
	dest := filepath.Join(dir, "hello")
	spec := Spec{
		SourceURL:   srv.URL + "/hello.bin",
		ChecksumURL: srv.URL + "/hello.bin.sha256",
		InstallPath: dest,
	}

	installer := New(srv.Client())
	for i := 0; i < 2; i++ {
		if _, err := installer.Install(context.Background(), spec); err != nil {
			t.Fatalf("Install() run %d error = %v", i+1, err)
		}
		got, err := os.ReadFile(dest)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "hello" {
			t.Errorf("run %d content = %q, want %q", i+1, got, "hello")
		}
	}
	assertScratchGone(t, dir, 1)
}

func TestInstallCustomMode(t *testing.T) {
	srv := newArtifactServer(t, map[string]string{
		"/hello.bin":        "hello",
		"/hello.bin.sha256": helloSHA256 + "  hello.bin\n",
	})

	dest := filepath.Join(t.TempDir(), "hello")
	res, err := New(srv.Client()).Install(context.Background(), Spec{
		SourceURL:   srv.URL + "/hello.bin",
		ChecksumURL: srv.URL + "/hello.bin.sha256",
		InstallPath: dest,
		Mode:        0o700,
	})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Errorf("installed mode = %o, want 0700", info.Mode().Perm())
	}
	if res.Mode != 0o700 {
		t.Errorf("Result.Mode = %o, want 0700", res.Mode)
	}
}
