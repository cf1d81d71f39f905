package aof

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const readBufferSize = 64 * 1024

// Compression identifies how a log file on disk is wrapped.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionBrotli
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionBrotli:
		return "brotli"
	default:
		return "none"
	}
}

// CompressionFor picks the compression from a file extension. Rotated agent logs
// are usually shipped as .gz or .zst.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".br":
		return CompressionBrotli
	default:
		return CompressionNone
	}
}

// fileSource implements io.ReadCloser over a file wrapped by a decompressor.
// Read goes to the wrapping reader, Close releases both.
type fileSource struct {
	f       *os.File
	r       io.Reader
	closeFn func()
}

func (s *fileSource) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *fileSource) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return s.f.Close()
}

// OpenFile opens a log file for sequential decoding, transparently decompressing
// .gz, .zst and .br files. The returned reader is buffered.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}

	src, err := wrapSource(f, CompressionFor(path))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("aof: open %s: %w", path, err)
	}
	return src, nil
}

func wrapSource(f *os.File, c Compression) (*fileSource, error) {
	br := bufio.NewReaderSize(f, readBufferSize)
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &fileSource{f: f, r: zr, closeFn: func() { _ = zr.Close() }}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &fileSource{f: f, r: zr, closeFn: zr.Close}, nil
	case CompressionBrotli:
		return &fileSource{f: f, r: brotli.NewReader(br)}, nil
	default:
		return &fileSource{f: f, r: br}, nil
	}
}
