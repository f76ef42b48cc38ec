package logstream

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits of a RotatingFileCallback. Zero values take the
// lumberjack defaults (100 MB, keep every backup forever).
type RotateOptions struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// RotatingFileCallback writes console-formatted lines to a size-rotated
// file. Unlike FileCallback it appends to an existing file.
type RotatingFileCallback struct {
	writerCallback
	rotator *lumberjack.Logger
}

// NewRotatingFileCallback creates the directory of path if needed and
// returns a callback rotating path according to opts.
func NewRotatingFileCallback(path string, c Category, p Priority, opts RotateOptions) (*RotatingFileCallback, error) {
	// lumberjack doesn't create directories
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}
	rc := &RotatingFileCallback{
		rotator: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		},
	}
	rc.init(c, p, func() io.Writer { return rc.rotator })
	return rc, nil
}

// Path returns the name of the active log file.
func (rc *RotatingFileCallback) Path() string { return rc.rotator.Filename }

// Rotate closes the current file and starts a new one immediately.
func (rc *RotatingFileCallback) Rotate() error {
	rc.mtx.Lock()
	defer rc.mtx.Unlock()
	return rc.rotator.Rotate()
}

// Close closes the current file. A later write would reopen it, so the
// callback should be unregistered first (Stream.Close does both).
func (rc *RotatingFileCallback) Close() error {
	rc.mtx.Lock()
	defer rc.mtx.Unlock()
	return rc.rotator.Close()
}

// LogToRotatingFile registers a RotatingFileCallback for (c, p) filtered
// entries. Fails with ErrStreamClosed or ErrTestingMode when the stream
// would ignore the callback.
func (s *Stream) LogToRotatingFile(path string, c Category, p Priority, opts RotateOptions) (*RotatingFileCallback, error) {
	var rc *RotatingFileCallback
	var err error
	applied := s.reconfigure(func() {
		if s.testMode.Load() {
			err = ErrTestingMode
			return
		}
		if rc, err = NewRotatingFileCallback(path, c, p, opts); err == nil {
			s.addCallbackLocked(rc, false)
		}
	})
	if !applied {
		return nil, ErrStreamClosed
	}
	if err != nil {
		return nil, err
	}
	return rc, nil
}
