// Package stream implements the container layer around PLY byte streams.
//
// A PLY file is often shipped compressed. This package provides:
//   - Transparent decompression on read (gzip, zstd) with magic-byte sniffing
//   - Compression on write, selected explicitly or from a file suffix
//   - Payload skimming: element byte extents without materializing values
//
// Container framing is NOT part of the PLY format itself. The wrapped
// stream is a standard PLY byte stream passed to package ply unchanged.
package stream

import (
	"fmt"
	"strings"
)

// Compression identifies the container wrapping a PLY byte stream.
type Compression uint8

const (
	CompressionNone Compression = 0 // Raw PLY bytes
	CompressionGzip Compression = 1 // RFC 1952 gzip member
	CompressionZstd Compression = 2 // Zstandard frame
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses a compression name.
func ParseCompression(s string) (Compression, bool) {
	switch s {
	case "none", "raw", "":
		return CompressionNone, true
	case "gzip", "gz":
		return CompressionGzip, true
	case "zstd", "zst":
		return CompressionZstd, true
	default:
		return 0, false
	}
}

// ForPath guesses the compression from a file name suffix.
// Unrecognized suffixes map to CompressionNone.
func ForPath(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".gz"), strings.HasSuffix(path, ".gzip"):
		return CompressionGzip
	case strings.HasSuffix(path, ".zst"), strings.HasSuffix(path, ".zstd"):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// Container signatures sniffed by OpenReader.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ContainerError reports a failure in the compression envelope,
// as opposed to a PLY parse failure inside it.
type ContainerError struct {
	Compression Compression
	Reason      string
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("container: %s stream: %s", e.Compression, e.Reason)
}
