package stream

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Neumenon/ply/ply"
)

func meshDoc(enc ply.Encoding) *ply.Document {
	doc := ply.NewDocument(enc)
	v := doc.AddElement("vertex", 4)
	v.AddProperty("x", ply.Scalar(ply.TypeFloat))
	v.AddProperty("y", ply.Scalar(ply.TypeFloat))
	v.AddProperty("z", ply.Scalar(ply.TypeFloat))
	f := doc.AddElement("face", 4)
	f.AddProperty("vertex_indices", ply.ListOf(ply.TypeUChar, ply.TypeInt))

	pts := [4][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for _, p := range pts {
		e := ply.NewElement()
		e.SetProperty("x", ply.Float(p[0]))
		e.SetProperty("y", ply.Float(p[1]))
		e.SetProperty("z", ply.Float(p[2]))
		doc.AppendInstance("vertex", e)
	}
	faces := [4][]int32{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	for _, idx := range faces {
		e := ply.NewElement()
		e.SetProperty("vertex_indices", ply.IntList(idx))
		doc.AppendInstance("face", e)
	}
	return doc
}

func encodeDoc(t *testing.T, enc ply.Encoding) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := ply.WriteDocument(&buf, meshDoc(enc))
	require.NoError(t, err)
	return buf.Bytes()
}

func compress(t *testing.T, c Compression, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, c)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func headerLen(data []byte) int64 {
	return int64(bytes.Index(data, []byte("end_header\n")) + len("end_header\n"))
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in   string
		want Compression
		ok   bool
	}{
		{"none", CompressionNone, true},
		{"raw", CompressionNone, true},
		{"", CompressionNone, true},
		{"gzip", CompressionGzip, true},
		{"gz", CompressionGzip, true},
		{"zstd", CompressionZstd, true},
		{"zst", CompressionZstd, true},
		{"lz4", 0, false},
		{"GZIP", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseCompression(tt.in)
		require.Equal(t, tt.ok, ok, "ParseCompression(%q)", tt.in)
		require.Equal(t, tt.want, got, "ParseCompression(%q)", tt.in)
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want Compression
	}{
		{"cloud.ply", CompressionNone},
		{"cloud.ply.gz", CompressionGzip},
		{"cloud.gzip", CompressionGzip},
		{"cloud.ply.zst", CompressionZstd},
		{"cloud.zstd", CompressionZstd},
		{"cloud.png", CompressionNone},
		{"", CompressionNone},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ForPath(tt.path), "ForPath(%q)", tt.path)
	}
}

func TestCompressionString(t *testing.T) {
	require.Equal(t, "none", CompressionNone.String())
	require.Equal(t, "gzip", CompressionGzip.String())
	require.Equal(t, "zstd", CompressionZstd.String())
	require.Equal(t, "unknown(9)", Compression(9).String())
}

func TestOpenReaderSniff(t *testing.T) {
	raw := encodeDoc(t, ply.EncodingBinaryLittle)
	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			wire := raw
			if c != CompressionNone {
				wire = compress(t, c, raw)
			}
			r, got, err := OpenReader(bytes.NewReader(wire))
			require.NoError(t, err)
			require.Equal(t, c, got)

			out, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			require.Equal(t, raw, out)
		})
	}
}

func TestOpenReaderDecodesDocument(t *testing.T) {
	wire := compress(t, CompressionZstd, encodeDoc(t, ply.EncodingBinaryBig))
	r, c, err := OpenReader(bytes.NewReader(wire))
	require.NoError(t, err)
	require.Equal(t, CompressionZstd, c)
	defer r.Close()

	doc, err := ply.ReadDocument(r)
	require.NoError(t, err)
	x, err := doc.PropertyFloat64("vertex", 1, "x")
	require.NoError(t, err)
	require.Equal(t, 1.0, x)
}

func TestOpenReaderEmptyStream(t *testing.T) {
	r, c, err := OpenReader(bytes.NewReader(nil))
	require.NoError(t, err)
	require.Equal(t, CompressionNone, c)
	_, err = r.Read(make([]byte, 1))
	require.Equal(t, io.EOF, err)
}

func TestOpenPath(t *testing.T) {
	raw := encodeDoc(t, ply.EncodingASCII)

	r, c, err := OpenPath(bytes.NewReader(raw), "mesh.ply")
	require.NoError(t, err)
	require.Equal(t, CompressionNone, c)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, raw, out)

	wire := compress(t, CompressionGzip, raw)
	r, c, err = OpenPath(bytes.NewReader(wire), "mesh.ply.gz")
	require.NoError(t, err)
	require.Equal(t, CompressionGzip, c)
	out, err = io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, raw, out)

	// The suffix is trusted, not verified against the bytes.
	_, _, err = OpenPath(bytes.NewReader(raw), "mesh.ply.gz")
	var ce *ContainerError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, CompressionGzip, ce.Compression)
	require.ErrorContains(t, err, "container: gzip stream")
}

func TestNewWriterUnknownCompression(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf, Compression(7))
	require.ErrorContains(t, err, "unknown compression 7")
}

func TestSkimBinaryExtents(t *testing.T) {
	data := encodeDoc(t, ply.EncodingBinaryLittle)
	h, secs, err := Skim(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, ply.EncodingBinaryLittle, h.Encoding)

	hdr := headerLen(data)
	require.Equal(t, []Section{
		{Name: "vertex", Count: 4, Offset: hdr, Size: 48, Stride: 12},
		{Name: "face", Count: 4, Offset: hdr + 48, Size: 52, Stride: 0},
	}, secs)
	require.Equal(t, int64(len(data)), secs[1].Offset+secs[1].Size)
}

func TestSkimASCIIExtents(t *testing.T) {
	data := encodeDoc(t, ply.EncodingASCII)
	h, secs, err := Skim(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, ply.EncodingASCII, h.Encoding)
	require.Len(t, secs, 2)

	// ASCII payloads have no fixed stride, but extents still partition
	// the stream.
	require.Equal(t, headerLen(data), secs[0].Offset)
	require.Zero(t, secs[0].Stride)
	require.Equal(t, int64(24), secs[0].Size) // 4 lines of "0 0 0\n"
	require.Equal(t, secs[0].Offset+secs[0].Size, secs[1].Offset)
	require.Equal(t, int64(32), secs[1].Size) // 4 lines of "3 0 1 2\n"
	require.Equal(t, int64(len(data)), secs[1].Offset+secs[1].Size)
}

func TestSkimTruncated(t *testing.T) {
	data := encodeDoc(t, ply.EncodingBinaryLittle)
	h, secs, err := Skim(bytes.NewReader(data[:len(data)-20]))
	require.Error(t, err)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.ErrorContains(t, err, `element "face"`)
	require.NotNil(t, h)

	// The vertex block completed before the stream ran out.
	require.Len(t, secs, 1)
	require.Equal(t, "vertex", secs[0].Name)
	require.Equal(t, int64(48), secs[0].Size)
}

func TestSkimNegativeListLength(t *testing.T) {
	in := "ply\nformat binary_little_endian 1.0\nelement face 1\nproperty list char int idx\nend_header\n\xff"
	_, _, err := Skim(bytes.NewReader([]byte(in)))
	var pe *ply.ParseError
	require.ErrorAs(t, err, &pe)
	require.ErrorContains(t, err, `element "face" instance 0: list length cannot be negative (-1)`)
}

func TestSkimHugeListCount(t *testing.T) {
	in := "ply\nformat binary_little_endian 1.0\nelement face 1\nproperty list uint64 int idx\nend_header\n" +
		"\xff\xff\xff\xff\xff\xff\xff\xff"
	_, _, err := Skim(bytes.NewReader([]byte(in)))
	var oe *ply.OverflowError
	require.ErrorAs(t, err, &oe)
	require.Equal(t, "list length", oe.What)
}

func TestSkimThroughContainer(t *testing.T) {
	raw := encodeDoc(t, ply.EncodingBinaryLittle)
	wire := compress(t, CompressionGzip, raw)

	r, c, err := OpenReader(bytes.NewReader(wire))
	require.NoError(t, err)
	require.Equal(t, CompressionGzip, c)
	defer r.Close()

	// Offsets are positions in the decompressed stream.
	_, secs, err := Skim(r)
	require.NoError(t, err)
	require.Len(t, secs, 2)
	require.Equal(t, headerLen(raw), secs[0].Offset)
	require.Equal(t, int64(48), secs[0].Size)
}

func TestCRCReader(t *testing.T) {
	data := encodeDoc(t, ply.EncodingBinaryLittle)
	want := ComputeCRC(data)
	require.True(t, VerifyCRC(data, want))
	require.False(t, VerifyCRC(data[:len(data)-1], want))

	// A running reader over the same bytes lands on the same sum,
	// whatever chunk sizes the consumer happens to use.
	cr := NewCRCReader(bytes.NewReader(data))
	buf := make([]byte, 7)
	for {
		_, err := cr.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	require.Equal(t, want, cr.Sum32())
}

func TestDigestCanonical(t *testing.T) {
	a, err := DigestCanonical(meshDoc(ply.EncodingASCII))
	require.NoError(t, err)
	b, err := DigestCanonical(meshDoc(ply.EncodingBinaryBig))
	require.NoError(t, err)

	// Encoding is presentation, not content.
	require.True(t, VerifyDigest(a, b))

	// Surviving a store/load cycle does not change the fingerprint.
	doc, err := ply.ReadDocument(bytes.NewReader(encodeDoc(t, ply.EncodingBinaryLittle)))
	require.NoError(t, err)
	c, err := DigestCanonical(doc)
	require.NoError(t, err)
	require.Equal(t, DigestToHex(a), DigestToHex(c))

	// The declared encoding of the source document is left alone.
	require.Equal(t, ply.EncodingBinaryLittle, doc.Header.Encoding)

	other := meshDoc(ply.EncodingASCII)
	other.Header.Comments = append(other.Header.Comments, "generated by scanner rig 4")
	d, err := DigestCanonical(other)
	require.NoError(t, err)
	require.False(t, VerifyDigest(a, d))
}

func TestDigestHex(t *testing.T) {
	sum := DigestBytes([]byte("ply\n"))
	hex := DigestToHex(sum)
	require.Len(t, hex, 64)

	back, ok := HexToDigest(hex)
	require.True(t, ok)
	require.Equal(t, sum, back)

	upper, ok := HexToDigest(strings.ToUpper(hex))
	require.True(t, ok)
	require.Equal(t, sum, upper)

	_, ok = HexToDigest(hex[:10])
	require.False(t, ok)
	_, ok = HexToDigest(strings.Repeat("zz", 32))
	require.False(t, ok)
}
