package atomicfile

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultPerm is the permission of files created by New
const DefaultPerm fs.FileMode = 0644

var (
	// ErrCancelled is returned by calls subsequent to RemoveIfNotClosed()
	ErrCancelled = errors.New("cancelled")

	_ io.WriteCloser = &File{}
)

// File is an io.WriteCloser whose content only shows up at the
// destination path after a successful Close()
type File struct {
	dstPath string
	dir     string
	perm    fs.FileMode
	tmpFile *os.File
	tmpPath string
	// first error we encountered, sticky
	err error
}

// New creates a File that will be written to path with DefaultPerm
func New(path string) (*File, error) {
	return NewWithPerm(path, DefaultPerm)
}

// NewWithPerm is like New but sets the permission of the final file.
// The directory of path must exist.
func NewWithPerm(path string, perm fs.FileMode) (*File, error) {
	dir, name := filepath.Split(path)
	if name == "" {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	tmpFile, err := os.CreateTemp(dir, name+".tmp*")
	if err != nil {
		return nil, err
	}
	return &File{
		dstPath: path,
		dir:     dir,
		perm:    perm,
		tmpFile: tmpFile,
		tmpPath: tmpFile.Name(),
	}, nil
}

// remember the first error and drop the temporary file
func (f *File) fail(err error) error {
	if err == nil {
		return nil
	}
	if f.err == nil {
		f.err = err
	}
	_ = f.Close()
	return err
}

// Write writes to the temporary file
func (f *File) Write(d []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := f.tmpFile.Write(d)
	return n, f.fail(err)
}

func (f *File) WriteString(s string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := f.tmpFile.WriteString(s)
	return n, f.fail(err)
}

func (f *File) closed() bool {
	return f.tmpFile == nil
}

// RemoveIfNotClosed removes the temporary file if Close() wasn't
// called yet and leaves the destination alone.
// Meant for defer, to clean up after an early return or a panic.
func (f *File) RemoveIfNotClosed() {
	if f == nil || f.closed() {
		return
	}
	f.err = ErrCancelled
	_ = f.Close()
}

// Close moves the written data to the destination path.
// Calling it more than once returns the result of the first call.
func (f *File) Close() error {
	if f.closed() {
		return f.err
	}
	tmpFile := f.tmpFile
	f.tmpFile = nil

	// https://www.joeshaw.org/dont-defer-close-on-writable-files/
	errChmod := tmpFile.Chmod(f.perm)
	errSync := tmpFile.Sync()
	errClose := tmpFile.Close()

	didRename := false
	defer func() {
		if !didRename {
			_ = os.Remove(f.tmpPath)
		}
	}()

	if f.err != nil {
		return f.err
	}
	err := errors.Join(errChmod, errSync, errClose)
	if err == nil {
		// over-writes dstPath if it exists
		err = os.Rename(f.tmpPath, f.dstPath)
		didRename = err == nil
	}
	if didRename {
		syncDir(f.dir)
	}
	f.err = err
	return err
}

// syncing the directory makes the rename durable.
// Not all platforms support it so errors are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// WriteFile atomically replaces path with whatever fn writes
func WriteFile(path string, fn func(w io.Writer) error) error {
	f, err := New(path)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	if err = fn(f); err != nil {
		return err
	}
	return f.Close()
}
