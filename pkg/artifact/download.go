package artifact

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lucasew/fetchurl"
	"github.com/schollz/progressbar/v3"
)

// download fetches url into w. Any network or HTTP-status failure comes
// back as a *DownloadError.
func (in *Installer) download(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	resp, err := in.client.Do(req)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &DownloadError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if in.Progress && resp.ContentLength > 0 {
		bar := progressbar.NewOptions64(
			resp.ContentLength,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetDescription(filenameForDisplay(url)),
			progressbar.OptionThrottle(80*time.Millisecond),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(os.Stderr)
			}),
		)
		w = io.MultiWriter(w, bar)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	return nil
}

// downloadPinned transfers the artifact through fetchurl, which checks
// the pinned digest in flight and can fan out to mirrors. On any
// failure the caller falls back to a direct download; the sidecar
// verification still runs either way.
func (in *Installer) downloadPinned(ctx context.Context, spec Spec, w io.Writer) error {
	algo, hash := SplitDigest(spec.PinnedDigest)
	slog.Debug("downloading with pinned digest", "url", spec.SourceURL, "algo", algo)
	return in.fetcher.Fetch(ctx, fetchurl.FetchOptions{
		URLs: []string{spec.SourceURL},
		Algo: algo,
		Hash: hash,
		Out:  w,
	})
}

func filenameForDisplay(url string) string {
	s := Spec{SourceURL: url}
	return s.Filename()
}
