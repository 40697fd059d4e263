package predictioncenter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// ChunkSize is the size of each read from a download body.
const ChunkSize = 1 << 20

// ErrStalled is returned when a download receives nothing for longer than its timeout.
var ErrStalled = errors.New("download stalled")

// Download streams `link` into `dest`, creating parent directories and truncating any
// previous contents. An interrupted transfer leaves the partial file behind.
func (c *Client) Download(ctx context.Context, link, dest string) error {
	err := c.download(ctx, link, dest)
	if err != nil {
		c.tel.ReportBroken(report_client_download, err, link, dest)
		return fmt.Errorf("download %s: %w", link, err)
	}
	return nil
}

// idleReader restarts `timer` after every read that returns data, so the timer only fires
// once the body has stalled for its whole duration.
type idleReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (r idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

func (c *Client) download(ctx context.Context, link, dest string) error {
	err := os.MkdirAll(filepath.Dir(dest), 0777)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// the timeout covers the wait for the response headers and then every gap between
	// two reads of the body, the body as a whole is not bounded
	var timer *time.Timer
	var expired atomic.Bool
	if c.timeouts.Download > 0 {
		timer = time.AfterFunc(c.timeouts.Download, func() {
			expired.Store(true)
			cancel()
		})
		defer timer.Stop()
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(link)
	if err != nil {
		if expired.Load() {
			return fmt.Errorf("fetch: no response headers within %s: %w", c.timeouts.Download, ErrStalled)
		}
		return fmt.Errorf("fetch: %w", err)
	}
	body := res.RawBody()
	defer body.Close()

	if res.IsError() {
		return &StatusError{
			Url:        link,
			StatusCode: res.StatusCode(),
			Status:     res.Status(),
		}
	}

	var reader io.Reader = body
	if timer != nil {
		reader = idleReader{r: body, timer: timer, timeout: c.timeouts.Download}
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	written, err := io.CopyBuffer(f, reader, make([]byte, ChunkSize))
	if err != nil {
		if expired.Load() {
			return fmt.Errorf("write %s: body stalled for %s: %w", dest, c.timeouts.Download, ErrStalled)
		}
		return fmt.Errorf("write %s: %w", dest, err)
	}
	c.tel.ReportDebug("downloaded", link, dest, written)

	return f.Close()
}
