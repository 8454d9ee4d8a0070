package atomicfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	st, err := os.Stat(path)
	require.NoError(t, err, "file '%s' doesn't exist", path)
	require.True(t, st.Mode().IsRegular(), "'%s' is not a regular file", path)
}

func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "file '%s' exists, expected to not exist", path)
}

func assertFileContent(t *testing.T, path string, exp string) {
	t.Helper()
	d, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, exp, string(d))
}

func TestSimulateError(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "container.txt")
	f, err := New(dst)
	require.NoError(t, err)
	assertFileExists(t, f.tmpPath)
	_, err = f.Write([]byte("foo"))
	require.NoError(t, err)

	errSimulated := errors.New("simulated")
	f.err = errSimulated
	err = f.Close()
	require.Equal(t, errSimulated, err)
	assertFileNotExists(t, f.tmpPath)
	assertFileNotExists(t, dst)
	// second Close() returns the same error
	require.Equal(t, errSimulated, f.Close())
}

func writeWithPanic(t *testing.T, f *File, cleanup func()) {
	defer func() {
		require.NotNil(t, recover(), "expected to panic")
	}()
	defer cleanup()
	_, err := f.Write([]byte("foo"))
	require.NoError(t, err)
	panic("simulating a crash")
}

func TestWriteWithPanicClose(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "container.txt")
	f, err := New(dst)
	require.NoError(t, err)
	writeWithPanic(t, f, func() { _ = f.Close() })
	assertFileContent(t, dst, "foo")
}

func TestWriteWithPanicCancel(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "container.txt")
	f, err := New(dst)
	require.NoError(t, err)
	writeWithPanic(t, f, f.RemoveIfNotClosed)
	assertFileNotExists(t, f.tmpPath)
	assertFileNotExists(t, dst)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "container.txt")
	{
		f, err := New(dst)
		require.NoError(t, err)
		require.NoError(t, f.Close())
		assertFileContent(t, dst, "")
		assertFileNotExists(t, f.tmpPath)
	}

	{
		f, err := New(dst)
		require.NoError(t, err)
		n, err := f.Write([]byte("/a\n"))
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		n, err = f.WriteString("hello\n")
		require.NoError(t, err)
		assert.Equal(t, 6, n)
		// destination still has the old content
		assertFileContent(t, dst, "")
		require.NoError(t, f.Close())
		assertFileNotExists(t, f.tmpPath)
		assertFileContent(t, dst, "/a\nhello\n")
		// calling Close twice is a no-op
		require.NoError(t, f.Close())
	}

	{
		// RemoveIfNotClosed sets an error state
		f, err := New(dst)
		require.NoError(t, err)
		f.RemoveIfNotClosed()
		_, err = f.Write([]byte("lost"))
		require.Equal(t, ErrCancelled, err)
		require.Equal(t, ErrCancelled, f.Close())
		require.Equal(t, ErrCancelled, f.Close())
		assertFileContent(t, dst, "/a\nhello\n")
	}

	// the directory must exist, we check early
	{
		f, err := New(filepath.Join(dir, "foo", "bar.txt"))
		require.Error(t, err)
		require.Nil(t, f)
	}
	{
		f, err := New(dir + string(filepath.Separator))
		require.Error(t, err)
		require.Nil(t, f)
	}
}

func TestPerm(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no unix permissions on windows")
	}
	dst := filepath.Join(t.TempDir(), "container.txt")
	f, err := NewWithPerm(dst, 0600)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	st, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), st.Mode().Perm())

	f, err = New(dst)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	st, err = os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, DefaultPerm, st.Mode().Perm())
}

func TestWriteFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "container.txt")
	err := WriteFile(dst, func(w io.Writer) error {
		_, err := io.WriteString(w, "/a\n")
		return err
	})
	require.NoError(t, err)
	assertFileContent(t, dst, "/a\n")

	errFailed := errors.New("failed half-way")
	err = WriteFile(dst, func(w io.Writer) error {
		_, _ = io.WriteString(w, "/b\n")
		return errFailed
	})
	require.ErrorIs(t, err, errFailed)
	// old content survives a failed write
	assertFileContent(t, dst, "/a\n")

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file was not removed")
}
