package flatstore

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kjk/pseudofs/linecodec"
)

var (
	// ErrNotFound is returned when there's no entry with a given path
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned by Insert for a path that is taken
	ErrAlreadyExists = errors.New("already exists")
	// ErrTargetExists is returned by Rename when the new path is taken
	ErrTargetExists = errors.New("target already exists")
	// ErrEmptyKey is returned by Xor for a zero-length key
	ErrEmptyKey = errors.New("empty key")
	// ErrEmptyPath is returned by Insert and Rename for path ""
	ErrEmptyPath = errors.New("empty path")

	_ linecodec.Builder = &Store{}
)

// Store is an ordered list of entries with unique paths.
// The zero value is an empty store ready to use.
type Store struct {
	entries []linecodec.Entry
	// path => position in entries
	index map[string]int
}

// New returns an empty store
func New() *Store {
	return &Store{}
}

func (s *Store) find(path string) int {
	if i, ok := s.index[path]; ok {
		return i
	}
	return -1
}

func (s *Store) mustFind(path string) (int, error) {
	i := s.find(path)
	if i < 0 {
		return -1, fmt.Errorf("%w: '%s'", ErrNotFound, path)
	}
	return i, nil
}

// reindex fixes positions starting at entry i
func (s *Store) reindex(i int) {
	for ; i < len(s.entries); i++ {
		s.index[s.entries[i].Path] = i
	}
}

// Select returns a copy of the content at path
func (s *Store) Select(path string) ([]byte, error) {
	i, err := s.mustFind(path)
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.entries[i].Content), nil
}

// Insert adds an empty entry at path, after all existing entries
func (s *Store) Insert(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if s.find(path) >= 0 {
		return fmt.Errorf("%w: '%s'", ErrAlreadyExists, path)
	}
	if s.index == nil {
		s.index = map[string]int{}
	}
	s.index[path] = len(s.entries)
	s.entries = append(s.entries, linecodec.Entry{Path: path, Content: []byte{}})
	return nil
}

// Update replaces the content at path with a copy of content
func (s *Store) Update(path string, content []byte) error {
	i, err := s.mustFind(path)
	if err != nil {
		return err
	}
	s.entries[i].Content = append([]byte{}, content...)
	return nil
}

// Delete removes the entry at path. Remaining entries keep their order.
func (s *Store) Delete(path string) error {
	i, err := s.mustFind(path)
	if err != nil {
		return err
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	delete(s.index, path)
	s.reindex(i)
	return nil
}

// Rename changes the path of an entry, keeping its content and position.
// A taken newPath is reported before a missing oldPath.
func (s *Store) Rename(oldPath, newPath string) error {
	if newPath == "" {
		return ErrEmptyPath
	}
	if s.find(newPath) >= 0 {
		return fmt.Errorf("%w: '%s'", ErrTargetExists, newPath)
	}
	i, err := s.mustFind(oldPath)
	if err != nil {
		return err
	}
	delete(s.index, oldPath)
	s.entries[i].Path = newPath
	s.index[newPath] = i
	return nil
}

// Count returns the number of entries
func (s *Store) Count() int {
	return len(s.entries)
}

// Paths returns paths of all entries, in store order
func (s *Store) Paths() []string {
	res := make([]string, len(s.entries))
	for i, e := range s.entries {
		res[i] = e.Path
	}
	return res
}

// Entries returns a copy of all entries, in store order
func (s *Store) Entries() []linecodec.Entry {
	res := make([]linecodec.Entry, len(s.entries))
	for i, e := range s.entries {
		res[i] = linecodec.Entry{Path: e.Path, Content: slices.Clone(e.Content)}
	}
	return res
}
