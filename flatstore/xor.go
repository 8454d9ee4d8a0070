package flatstore

import "fmt"

// xorBytes sets d[i] = d[i] ^ key[i % len(key)]
// key must not be empty
func xorBytes(d []byte, key []byte) {
	n := len(key)
	for i := range d {
		d[i] ^= key[i%n]
	}
}

// Xor replaces the content at path with content XOR-ed with key,
// repeating key as many times as needed.
// Applying it twice with the same key restores the original content.
// This is obfuscation, not encryption.
func (s *Store) Xor(path string, key []byte) error {
	i, err := s.mustFind(path)
	if err != nil {
		return err
	}
	if len(key) == 0 {
		return fmt.Errorf("%w: can't xor '%s'", ErrEmptyKey, path)
	}
	// content is never shared so we can modify it in place
	xorBytes(s.entries[i].Content, key)
	return nil
}

// Crypto is the same as Xor
func (s *Store) Crypto(path string, key []byte) error {
	return s.Xor(path, key)
}

// Decrypto is the same as Xor, which undoes itself
func (s *Store) Decrypto(path string, key []byte) error {
	return s.Xor(path, key)
}
