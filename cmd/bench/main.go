// bench - PLY codec throughput benchmark
//
// Builds a synthetic point cloud, then measures encode and decode
// throughput for all three encodings. Container compression ratios
// (gzip, zstd) are reported for each encoded stream.
//
// Output: markdown summary table to stdout, progress to stderr.
package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Neumenon/ply/ply"
	"github.com/Neumenon/ply/stream"
)

type caseResult struct {
	Encoding   string
	Bytes      int
	EncodeMBps float64
	DecodeMBps float64
	GzipBytes  int
	ZstdBytes  int
}

func main() {
	points := 100000
	faces := 60000
	runs := 3
	for _, arg := range os.Args[1:] {
		switch {
		case strings.HasPrefix(arg, "--points="):
			if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--points=")); err == nil && n > 0 {
				points = n
			}
		case strings.HasPrefix(arg, "--faces="):
			if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--faces=")); err == nil && n >= 0 {
				faces = n
			}
		case strings.HasPrefix(arg, "--runs="):
			if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--runs=")); err == nil && n > 0 {
				runs = n
			}
		default:
			fmt.Fprintf(os.Stderr, "usage: bench [--points=N] [--faces=N] [--runs=N]\n")
			os.Exit(1)
		}
	}

	fmt.Fprintf(os.Stderr, "PLY Benchmark Runner\n")
	fmt.Fprintf(os.Stderr, "====================\n")
	fmt.Fprintf(os.Stderr, "Building synthetic cloud: %d vertices, %d faces\n\n", points, faces)

	doc := buildCloud(points, faces)

	encodings := []ply.Encoding{
		ply.EncodingASCII,
		ply.EncodingBinaryLittle,
		ply.EncodingBinaryBig,
	}

	var results []caseResult
	for _, enc := range encodings {
		fmt.Fprintf(os.Stderr, "encoding %s...\n", enc)
		results = append(results, runCase(doc, enc, runs))
	}

	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Vertices: %d, faces: %d, best of %d runs\n\n", points, faces, runs)
	fmt.Printf("| Encoding | Bytes | Encode MB/s | Decode MB/s | gzip | zstd |\n")
	fmt.Printf("|----------|-------|-------------|-------------|------|------|\n")
	for _, r := range results {
		fmt.Printf("| %s | %d | %.1f | %.1f | %d | %d |\n",
			r.Encoding, r.Bytes, r.EncodeMBps, r.DecodeMBps, r.GzipBytes, r.ZstdBytes)
	}
}

// buildCloud assembles a deterministic document: colored vertices plus
// triangle faces indexing into them.
func buildCloud(points, faces int) *ply.Document {
	doc := ply.NewDocument(ply.EncodingBinaryLittle)
	doc.AddComment("synthetic benchmark cloud")

	v := doc.AddElement("vertex", points)
	v.AddProperty("x", ply.Scalar(ply.TypeFloat))
	v.AddProperty("y", ply.Scalar(ply.TypeFloat))
	v.AddProperty("z", ply.Scalar(ply.TypeFloat))
	v.AddProperty("red", ply.Scalar(ply.TypeUChar))
	v.AddProperty("green", ply.Scalar(ply.TypeUChar))
	v.AddProperty("blue", ply.Scalar(ply.TypeUChar))

	f := doc.AddElement("face", faces)
	f.AddProperty("vertex_indices", ply.ListOf(ply.TypeUChar, ply.TypeInt))

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < points; i++ {
		e := ply.NewElement()
		e.SetProperty("x", ply.Float(rng.Float32()*100))
		e.SetProperty("y", ply.Float(rng.Float32()*100))
		e.SetProperty("z", ply.Float(rng.Float32()*100))
		e.SetProperty("red", ply.UChar(uint8(rng.Intn(256))))
		e.SetProperty("green", ply.UChar(uint8(rng.Intn(256))))
		e.SetProperty("blue", ply.UChar(uint8(rng.Intn(256))))
		doc.AppendInstance("vertex", e)
	}
	for i := 0; i < faces; i++ {
		a := int32(rng.Intn(points))
		b := int32(rng.Intn(points))
		c := int32(rng.Intn(points))
		e := ply.NewElement()
		e.SetProperty("vertex_indices", ply.IntList([]int32{a, b, c}))
		doc.AppendInstance("face", e)
	}
	return doc
}

func runCase(doc *ply.Document, enc ply.Encoding, runs int) caseResult {
	doc.Header.Encoding = enc
	res := caseResult{Encoding: enc.String()}

	var buf bytes.Buffer
	var encBest, decBest time.Duration
	for r := 0; r < runs; r++ {
		buf.Reset()
		start := time.Now()
		n, err := ply.WriteDocument(&buf, doc)
		if err != nil {
			fatal("encode %s: %v", enc, err)
		}
		if d := time.Since(start); r == 0 || d < encBest {
			encBest = d
		}
		res.Bytes = n

		start = time.Now()
		if _, err := ply.ReadDocument(bytes.NewReader(buf.Bytes())); err != nil {
			fatal("decode %s: %v", enc, err)
		}
		if d := time.Since(start); r == 0 || d < decBest {
			decBest = d
		}
	}
	res.EncodeMBps = mbps(res.Bytes, encBest)
	res.DecodeMBps = mbps(res.Bytes, decBest)
	res.GzipBytes = compressedSize(buf.Bytes(), stream.CompressionGzip)
	res.ZstdBytes = compressedSize(buf.Bytes(), stream.CompressionZstd)
	return res
}

func compressedSize(data []byte, c stream.Compression) int {
	var buf bytes.Buffer
	w, err := stream.NewWriter(&buf, c)
	if err != nil {
		fatal("compress %s: %v", c, err)
	}
	if _, err := w.Write(data); err != nil {
		fatal("compress %s: %v", c, err)
	}
	if err := w.Close(); err != nil {
		fatal("compress %s: %v", c, err)
	}
	return buf.Len()
}

func mbps(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / (1 << 20) / d.Seconds()
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "bench: "+format+"\n", args...)
	os.Exit(1)
}
