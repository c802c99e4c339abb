// Package export delivers finished investor reports to external drops.
package export

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reclaimworks/assay-cli/internal/resilience"
)

// FTPExporter uploads report files to an FTP drop directory.
type FTPExporter struct {
	addr     string
	user     string
	password string
	dir      string
	timeout  time.Duration
}

// NewFTPExporter creates an exporter for the given server. addr is
// host:port; dir is the remote directory to upload into.
func NewFTPExporter(addr, user, password, dir string) *FTPExporter {
	return &FTPExporter{
		addr:     addr,
		user:     user,
		password: password,
		dir:      dir,
		timeout:  30 * time.Second,
	}
}

// Upload stores data under name in the drop directory, retrying on
// transient network failures.
func (e *FTPExporter) Upload(ctx context.Context, name string, data []byte) error {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("ftp", "upload")

	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		conn, err := ftp.Dial(e.addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(e.timeout))
		if err != nil {
			return resilience.NewTransientError(eris.Wrap(err, "export: ftp dial"), 0)
		}
		defer conn.Quit()

		if err := conn.Login(e.user, e.password); err != nil {
			return eris.Wrap(err, "export: ftp login")
		}

		remote := name
		if e.dir != "" {
			remote = path.Join(e.dir, name)
		}
		if err := conn.Stor(remote, bytes.NewReader(data)); err != nil {
			return resilience.NewTransientError(eris.Wrapf(err, "export: ftp store %s", remote), 0)
		}

		zap.L().Info("export: report uploaded",
			zap.String("addr", e.addr),
			zap.String("remote", remote),
			zap.Int("bytes", len(data)),
		)
		return nil
	})
}
