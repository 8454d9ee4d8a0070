// Package flatstore is an in-memory store of named files: a flat,
// ordered list of path -> content entries that is loaded from and
// saved to a single container file.
//
// Paths are opaque strings compared exactly. There are no directories:
// "/a/b" is just a name and doesn't need "/a" to exist.
//
// # Basic Usage
//
//	s, err := flatstore.Load("disk.filesystem")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = s.Insert("/notes.txt")
//	err = s.Update("/notes.txt", []byte("buy milk\n"))
//	d, err := s.Select("/notes.txt")
//	err = s.Save("disk.filesystem")
//
// A missing container is not an error, Load returns an empty store.
// See package linecodec for the container format.
//
// # Errors
//
// Operations return errors wrapping one of [ErrNotFound],
// [ErrAlreadyExists], [ErrTargetExists] or [ErrEmptyKey].
// Use errors.Is to check for them.
//
// # Thread Safety
//
// A Store has a single owner and is not safe for concurrent use.
package flatstore
