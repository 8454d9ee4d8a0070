package linecodec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// Entry is a single path -> content record
type Entry struct {
	Path    string
	Content []byte
}

// Builder receives entries from Decode, in the order they appear
// in the container.
// Update must not retain content after it returns.
type Builder interface {
	Insert(path string) error
	Update(path string, content []byte) error
}

// IsPathLine returns true if line starts a new entry
func IsPathLine(line []byte) bool {
	return len(line) > 0 && line[0] == '/'
}

// pathFromLine strips a single trailing '\n' or '\r'
func pathFromLine(line []byte) string {
	n := len(line)
	if n > 0 && (line[n-1] == '\n' || line[n-1] == '\r') {
		n--
	}
	return string(line[:n])
}

// NeedsTrailingNewline returns true if Encode adds '\n' after content
func NeedsTrailingNewline(content []byte) bool {
	n := len(content)
	return n == 0 || content[n-1] != '\n'
}

type decoder struct {
	b       Builder
	path    string
	hasPath bool
	content bytes.Buffer
}

func (d *decoder) finishEntry() error {
	if !d.hasPath {
		return nil
	}
	// duplicate path: Insert fails, Update overwrites
	_ = d.b.Insert(d.path)
	if err := d.b.Update(d.path, d.content.Bytes()); err != nil {
		return fmt.Errorf("linecodec: failed to set content of '%s': %w", d.path, err)
	}
	return nil
}

func (d *decoder) startEntry(line []byte) {
	d.path = pathFromLine(line)
	d.hasPath = true
	d.content.Reset()
}

// Decode reads the container from r and sends every entry to b.
// Malformed input doesn't exist: every line is either a path or content.
// Returns an error only if reading from r or updating b fails.
func Decode(r io.Reader, b Builder) error {
	d := &decoder{b: b}
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			if IsPathLine(line) {
				if err := d.finishEntry(); err != nil {
					return err
				}
				d.startEntry(line)
			} else if d.hasPath {
				d.content.Write(line)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("linecodec: read failed: %w", err)
		}
	}
	return d.finishEntry()
}

// AppendEntry appends serialized e to dst and returns the extended buffer
func AppendEntry(dst []byte, e Entry) []byte {
	dst = append(dst, e.Path...)
	dst = append(dst, '\n')
	dst = append(dst, e.Content...)
	if NeedsTrailingNewline(e.Content) {
		dst = append(dst, '\n')
	}
	return dst
}

// Encode writes entries to w, in order
func Encode(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	var buf []byte
	for _, e := range entries {
		// perf: re-use buf
		buf = AppendEntry(buf[:0], e)
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Marshal returns entries serialized as a container
func Marshal(entries []Entry) []byte {
	var res []byte
	for _, e := range entries {
		res = AppendEntry(res, e)
	}
	return res
}
