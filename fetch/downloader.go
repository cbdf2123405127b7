package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const (
	// ChunkSize is the unit in which response bodies are copied to disk.
	ChunkSize      = 1 << 20
	progressChunks = 10

	// DownloadTimeout bounds a whole document download, body included.
	DownloadTimeout = 5 * time.Minute
)

// Spool is a document staged on local disk.
type Spool struct {
	Path      string
	Size      int64
	temporary bool
}

// Open opens the staged document for reading.
func (s *Spool) Open() (*os.File, error) {
	return os.Open(s.Path)
}

// Release deletes the staged file if it was created by Spill. Local sources are left alone.
func (s *Spool) Release() error {
	if s == nil || !s.temporary {
		return nil
	}
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Temporary reports whether Release will delete the file.
func (s *Spool) Temporary() bool { return s.temporary }

// Downloader spools remote documents into temporary files.
type Downloader struct {
	client  *http.Client
	pattern string
	logger  *slog.Logger
}

// NewDownloader creates a Downloader. pattern is passed to os.CreateTemp. A nil client
// is replaced by one limited to DownloadTimeout.
func NewDownloader(client *http.Client, pattern string, logger *slog.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: DownloadTimeout}
	}
	if pattern == "" {
		pattern = "netex-*.xml"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{client: client, pattern: pattern, logger: logger}
}

// Spill stages source on local disk. Remote sources are downloaded in ChunkSize units into a
// temporary file which is removed again if the download fails; the caller must Release the
// returned Spool once done with it.
func (d *Downloader) Spill(ctx context.Context, source string) (*Spool, error) {
	if !IsRemote(source) {
		path := localPath(source)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		return &Spool{Path: path, Size: info.Size()}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrTransport, err)
	}
	d.logger.Info("downloading document", "url", source)
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch %s: %v", ErrTransport, source, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: source}
	}

	tmp, err := os.CreateTemp("", d.pattern)
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	written, err := d.copyChunks(tmp, resp.Body, source)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("%w: reading %s: %v", ErrTransport, source, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	d.logger.Info("download complete", "url", source, "size_mb", float64(written)/float64(ChunkSize))
	return &Spool{Path: tmp.Name(), Size: written, temporary: true}, nil
}

func (d *Downloader) copyChunks(dst io.Writer, src io.Reader, source string) (int64, error) {
	buf := make([]byte, ChunkSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}
			before := written
			written += int64(n)
			if written/(progressChunks*ChunkSize) != before/(progressChunks*ChunkSize) {
				d.logger.Debug("download progress", "url", source, "size_mb", written/ChunkSize)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}
