package bridge

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ftpbridge/pkg/errors"
)

type fakeUploader struct {
	n    int64
	err  error
	user string
	name string
}

func (f *fakeUploader) Upload(_ context.Context, user, name string, stream io.Reader, _ int64) (int64, error) {
	f.user = user
	f.name = name
	if f.err != nil {
		return 0, f.err
	}
	n, err := io.Copy(io.Discard, stream)
	if err != nil {
		return 0, err
	}
	f.n = n
	return n, nil
}

func TestStatAlwaysReportsDirectory(t *testing.T) {
	d := NewDriver(context.Background(), &fakeUploader{})

	for _, path := range []string{"/", "/inbox", "/deeply/nested/path", "scan.pdf"} {
		info, err := d.Stat(nil, path)
		require.NoError(t, err, "path %s", path)
		assert.True(t, info.IsDir(), "path %s", path)
		assert.Zero(t, info.Size(), "path %s", path)
	}
}

func TestListDirIsEmpty(t *testing.T) {
	d := NewDriver(context.Background(), &fakeUploader{})

	called := false
	err := d.ListDir(nil, "/", func(os.FileInfo) error { called = true; return nil })

	require.NoError(t, err)
	assert.False(t, called, "no entries may be listed")
}

func TestUnsupportedOperations(t *testing.T) {
	d := NewDriver(context.Background(), &fakeUploader{})

	_, _, err := d.GetFile(nil, "/scan.pdf", 0)
	assert.ErrorIs(t, err, errors.ErrNotSupported)

	assert.ErrorIs(t, d.DeleteFile(nil, "/scan.pdf"), errors.ErrNotSupported)
	assert.ErrorIs(t, d.DeleteDir(nil, "/inbox"), errors.ErrNotSupported)
	assert.ErrorIs(t, d.MakeDir(nil, "/inbox"), errors.ErrNotSupported)
	assert.ErrorIs(t, d.Rename(nil, "/a", "/b"), errors.ErrNotSupported)
}

func TestPutFileDelegatesToBridge(t *testing.T) {
	up := &fakeUploader{}
	d := NewDriver(context.Background(), up)

	n, err := d.PutFile(nil, "/inbox/scan.pdf", strings.NewReader("payload"), 0)

	require.NoError(t, err)
	assert.Equal(t, int64(len("payload")), n)
	assert.Equal(t, "/inbox/scan.pdf", up.name)
}

func TestPutFileHidesCauseFromPeer(t *testing.T) {
	up := &fakeUploader{err: errors.ErrRemoteJobFailed}
	d := NewDriver(context.Background(), up)

	_, err := d.PutFile(nil, "/inbox/scan.pdf", strings.NewReader("payload"), 0)

	require.Error(t, err)
	// the detailed cause must not travel back over the wire
	assert.NotErrorIs(t, err, errors.ErrRemoteJobFailed)
	assert.Equal(t, "transfer failed", err.Error())
}
