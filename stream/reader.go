package stream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// OpenReader wraps r with transparent decompression, sniffing the
// container from the first bytes of the stream. Raw PLY streams pass
// through unchanged. The returned reader must be closed by the caller;
// closing it does not close r.
//
// Sniffing never consumes bytes on the raw path: the ASCII "ply" magic
// shares no prefix with the gzip or zstd signatures.
func OpenReader(r io.Reader) (io.ReadCloser, Compression, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, CompressionNone, fmt.Errorf("sniff container: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, CompressionGzip, &ContainerError{Compression: CompressionGzip, Reason: err.Error()}
		}
		return zr, CompressionGzip, nil

	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, CompressionZstd, &ContainerError{Compression: CompressionZstd, Reason: err.Error()}
		}
		return zr.IOReadCloser(), CompressionZstd, nil

	default:
		return io.NopCloser(br), CompressionNone, nil
	}
}

// OpenPath applies the compression implied by the file suffix instead
// of sniffing. Useful when the stream is not rewindable and the caller
// already knows the container from the name.
func OpenPath(r io.Reader, path string) (io.ReadCloser, Compression, error) {
	c := ForPath(path)
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, c, &ContainerError{Compression: c, Reason: err.Error()}
		}
		return zr, c, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, c, &ContainerError{Compression: c, Reason: err.Error()}
		}
		return zr.IOReadCloser(), c, nil
	default:
		return io.NopCloser(r), c, nil
	}
}
