package artifact

import "fmt"

// DownloadError reports a failed fetch of either the artifact or its
// checksum sidecar.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ChecksumParseError reports a sidecar that has no digest line for the
// expected filename.
type ChecksumParseError struct {
	Filename string
}

func (e *ChecksumParseError) Error() string {
	return fmt.Sprintf("checksum sidecar has no entry for %q", e.Filename)
}

// ChecksumMismatchError reports a digest that does not match the
// downloaded bytes. The install path is left untouched.
type ChecksumMismatchError struct {
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// InstallError reports a filesystem failure while moving the verified
// artifact into place.
type InstallError struct {
	Path string
	Err  error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %s: %v", e.Path, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }
