package u

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compression is a compression format picked from a file extension
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionBzip2
	CompressionZstd
	CompressionBrotli
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionZstd:
		return "zstd"
	case CompressionBrotli:
		return "brotli"
	}
	return "none"
}

// CompressionFromPath picks compression based on file extension
// TODO: could sniff file content instead of checking file extension
func CompressionFromPath(path string) Compression {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gz":
		return CompressionGzip
	case ".bz2":
		return CompressionBzip2
	case ".zst", ".zstd":
		return CompressionZstd
	case ".br":
		return CompressionBrotli
	}
	return CompressionNone
}

// implement io.ReadCloser over os.File wrapped with io.Reader.
// Close() closes both the decompressor (if it needs closing) and the file
type readerWrappedFile struct {
	f *os.File
	r io.Reader
}

func (rc *readerWrappedFile) Close() error {
	var err error
	if c, ok := rc.r.(io.Closer); ok {
		err = c.Close()
	}
	if err2 := rc.f.Close(); err == nil {
		err = err2
	}
	return err
}

func (rc *readerWrappedFile) Read(p []byte) (int, error) {
	return rc.r.Read(p)
}

// NewReaderMaybeCompressed wraps r in a decompressor for c
func NewReaderMaybeCompressed(r io.Reader, c Compression) (io.Reader, error) {
	switch c {
	case CompressionGzip:
		return gzip.NewReader(r)
	case CompressionBzip2:
		return bzip2.NewReader(r), nil
	case CompressionZstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case CompressionBrotli:
		return brotli.NewReader(r), nil
	}
	return r, nil
}

// OpenFileMaybeCompressed opens a file that might be compressed with gzip
// or bzip2 or zstd or brotli, based on file extension
func OpenFileMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	c := CompressionFromPath(path)
	if c == CompressionNone {
		return f, nil
	}
	r, err := NewReaderMaybeCompressed(f, c)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open %s reader for '%s': %w", c, path, err)
	}
	return &readerWrappedFile{f: f, r: r}, nil
}

// ReadFileMaybeCompressed reads a file, decompressing it if needed
func ReadFileMaybeCompressed(path string) ([]byte, error) {
	r, err := OpenFileMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

// NewWriterMaybeCompressed wraps w in a compressor for c.
// Close() of the returned writer flushes the compressor but doesn't close w.
func NewWriterMaybeCompressed(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionGzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case CompressionBzip2:
		return nil, fmt.Errorf("writing %s is not supported", c)
	case CompressionZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case CompressionBrotli:
		return brotli.NewWriterLevel(w, brotli.BestCompression), nil
	}
	return nopWriteCloser{w}, nil
}

// BrCompressData compresses d with brotli
func BrCompressData(d []byte, level int) ([]byte, error) {
	var dst bytes.Buffer
	w := brotli.NewWriterLevel(&dst, level)
	if _, err := w.Write(d); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

func BrCompressDataBest(d []byte) ([]byte, error) {
	return BrCompressData(d, brotli.BestCompression)
}
