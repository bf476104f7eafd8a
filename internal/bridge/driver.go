package bridge

import (
	"context"
	goerrors "errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"goftp.io/server/v2"

	"ftpbridge/pkg/errors"
	"ftpbridge/pkg/logger"
)

// uploader is the slice of the upload bridge the driver needs
type uploader interface {
	Upload(ctx context.Context, user, name string, stream io.Reader, offset int64) (int64, error)
}

// Driver implements the FTP engine's storage contract over a flat,
// write-only namespace: every put becomes an ingestion job, everything else
// is answered with fixed, non-authoritative responses.
type Driver struct {
	bridge uploader
	// ctx is the server-lifetime context; cancelling it on shutdown
	// interrupts all in-flight uploads.
	ctx    context.Context
	logger *logger.Logger
}

var _ server.Driver = (*Driver)(nil)

func NewDriver(ctx context.Context, bridge uploader) *Driver {
	return &Driver{
		bridge: bridge,
		ctx:    ctx,
		logger: logger.WithField("component", "ftp-driver"),
	}
}

// dirInfo is the fixed metadata answer: a plain directory. Reporting every
// path as a directory makes every change-directory request succeed, which is
// all a namespace with exactly one writable location needs.
type dirInfo struct {
	name string
}

func (d dirInfo) Name() string       { return d.name }
func (d dirInfo) Size() int64        { return 0 }
func (d dirInfo) Mode() os.FileMode  { return os.ModeDir | 0555 }
func (d dirInfo) ModTime() time.Time { return time.Now() }
func (d dirInfo) IsDir() bool        { return true }
func (d dirInfo) Sys() interface{}   { return nil }

func (d *Driver) Stat(_ *server.Context, path string) (os.FileInfo, error) {
	d.logger.Debug("stat", "path", path)
	return dirInfo{name: filepath.Base(path)}, nil
}

func (d *Driver) ListDir(_ *server.Context, path string, _ func(os.FileInfo) error) error {
	d.logger.Debug("list", "path", path)
	// upload-only bridge: the directory is always empty
	return nil
}

func (d *Driver) GetFile(_ *server.Context, path string, _ int64) (int64, io.ReadCloser, error) {
	d.logger.Debug("get rejected", "path", path)
	return 0, nil, errors.ErrNotSupported
}

func (d *Driver) DeleteDir(_ *server.Context, path string) error {
	d.logger.Debug("rmdir rejected", "path", path)
	return errors.ErrNotSupported
}

func (d *Driver) DeleteFile(_ *server.Context, path string) error {
	d.logger.Debug("delete rejected", "path", path)
	return errors.ErrNotSupported
}

func (d *Driver) Rename(_ *server.Context, from, to string) error {
	d.logger.Debug("rename rejected", "from", from, "to", to)
	return errors.ErrNotSupported
}

func (d *Driver) MakeDir(_ *server.Context, path string) error {
	d.logger.Debug("mkdir rejected", "path", path)
	return errors.ErrNotSupported
}

// PutFile hands the inbound stream to the upload bridge. On failure the
// peer gets a generic error; the cause stays in the logs.
func (d *Driver) PutFile(sctx *server.Context, destPath string, data io.Reader, offset int64) (int64, error) {
	user := ""
	if sctx != nil && sctx.Sess != nil {
		user = sctx.Sess.LoginUser()
	}

	n, err := d.bridge.Upload(d.ctx, user, destPath, data, offset)
	if err != nil {
		d.logger.Error("upload failed", "path", destPath, "error", err)
		return 0, errTransferFailed
	}
	return n, nil
}

// errTransferFailed is what the remote peer sees for every failed upload,
// regardless of cause.
var errTransferFailed = goerrors.New("transfer failed")
