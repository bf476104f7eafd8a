package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"ftpbridge/pkg/errors"
	"ftpbridge/pkg/logger"
)

// copyBufferSize bounds memory use while draining the inbound stream
const copyBufferSize = 64 * 1024

// StagedFile is an exclusively-owned temporary file holding one upload's
// payload. Ownership stays inside the upload bridge, which removes it once
// the upload reaches a terminal state.
type StagedFile struct {
	path   string
	logger *logger.Logger
}

func (f *StagedFile) Path() string {
	return f.path
}

// Remove deletes the staged file. Safe to call on every exit path; a failed
// removal is logged, never escalated.
func (f *StagedFile) Remove() {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("failed to remove staged file", "path", f.path, "error", err)
	}
}

// Store durably buffers inbound byte streams to local storage before any
// remote call is attempted, so a slow transfer never ties up the remote
// connection and the full payload is available for one atomic submission.
type Store struct {
	dir    string
	logger *logger.Logger
}

// NewStore creates a staging store writing into dir. An empty dir means the
// system temporary directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Store{
		dir:    dir,
		logger: logger.WithField("component", "staging-store"),
	}
}

// Stage copies the stream into a uniquely-named local file and returns the
// staged file together with the number of bytes copied from the stream.
//
// The base of nameHint is preserved in the file name for diagnostics; with
// no usable hint a generated name is used. A nonzero offset pre-sizes the
// file and positions the write cursor so restarted transfers continue where
// they left off without re-sending already-received bytes.
//
// Local storage failures are not treated as transient within one request:
// any error here aborts the whole upload.
func (s *Store) Stage(nameHint string, stream io.Reader, offset int64) (*StagedFile, int64, error) {
	base := filepath.Base(nameHint)
	if base == "." || base == string(filepath.Separator) {
		base = uuid.NewString()
	}

	file, err := os.CreateTemp(s.dir, base+"-*")
	if err != nil {
		return nil, 0, fmt.Errorf("%w: creating staging file: %w", errors.ErrLocalIO, err)
	}

	staged := &StagedFile{path: file.Name(), logger: s.logger}
	s.logger.Debug("staging upload", "path", staged.path, "offset", offset)

	written, err := s.copyAt(file, stream, offset)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		staged.Remove()
		return nil, 0, fmt.Errorf("%w: staging %s: %w", errors.ErrLocalIO, base, err)
	}

	return staged, written, nil
}

func (s *Store) copyAt(file *os.File, stream io.Reader, offset int64) (int64, error) {
	if offset > 0 {
		if err := file.Truncate(offset); err != nil {
			return 0, err
		}
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			return 0, err
		}
	}

	return io.CopyBuffer(file, stream, make([]byte, copyBufferSize))
}
