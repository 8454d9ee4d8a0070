package flatstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/kjk/pseudofs/atomicfile"
	"github.com/kjk/pseudofs/linecodec"
	"github.com/kjk/pseudofs/u"
)

// Decode builds a store from a container read from r
func Decode(r io.Reader) (*Store, error) {
	s := New()
	if err := linecodec.Decode(r, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Encode writes the whole store to w as a container
func (s *Store) Encode(w io.Writer) error {
	return linecodec.Encode(w, s.entries)
}

// Load reads the container at path. A missing container is not an
// error: you get an empty store.
// Containers ending in .gz, .bz2, .zst or .br are decompressed.
func Load(path string) (*Store, error) {
	r, err := u.OpenFileMaybeCompressed(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, err
	}
	defer r.Close()
	s, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load '%s': %w", path, err)
	}
	return s, nil
}

// Save replaces the container at path with the whole store.
// The old container is left intact if writing fails.
func (s *Store) Save(path string) error {
	if err := u.CreateDirForFile(path); err != nil {
		return err
	}
	return atomicfile.WriteFile(path, func(w io.Writer) error {
		return s.encodeCompressed(w, u.CompressionFromPath(path))
	})
}

// tests replace it to observe Close
var newCompressedWriter = u.NewWriterMaybeCompressed

func (s *Store) encodeCompressed(w io.Writer, c u.Compression) error {
	cw, err := newCompressedWriter(w, c)
	if err != nil {
		return err
	}
	if err = s.Encode(cw); err != nil {
		// zstd encoder runs goroutines until closed
		_ = cw.Close()
		return err
	}
	return cw.Close()
}
