package stream

import (
	"hash/crc32"
	"io"
)

// crcTable is the IEEE CRC-32 table.
var crcTable = crc32.MakeTable(crc32.IEEE)

// ComputeCRC computes CRC-32 IEEE of the given bytes.
func ComputeCRC(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// VerifyCRC verifies that the CRC matches.
func VerifyCRC(data []byte, expected uint32) bool {
	return ComputeCRC(data) == expected
}

// CRCReader wraps a reader and keeps a running CRC-32 of everything
// read through it. Wrap the decompressed stream before skimming to
// fingerprint a file while walking it.
type CRCReader struct {
	r   io.Reader
	crc uint32
}

// NewCRCReader returns a CRCReader over r.
func NewCRCReader(r io.Reader) *CRCReader {
	return &CRCReader{r: r}
}

func (c *CRCReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.crc = crc32.Update(c.crc, crcTable, p[:n])
	return n, err
}

// Sum32 returns the CRC-32 of the bytes read so far.
func (c *CRCReader) Sum32() uint32 { return c.crc }
