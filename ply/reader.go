package ply

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxListLen bounds declared list lengths unless overridden with
// WithMaxListLen.
const DefaultMaxListLen = 1 << 20

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxListLen caps the number of entries a payload list may declare.
func WithMaxListLen(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxList = n
		}
	}
}

// WithBufferSize sets the size of the internal read buffer.
func WithBufferSize(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.bufSize = n
		}
	}
}

// Reader decodes a PLY stream: ReadHeader first, then either ReadAll or
// the NextElement/ReadInstance pair for streaming access. Not safe for
// concurrent use.
type Reader struct {
	br      *bufio.Reader
	maxList int
	bufSize int

	header *Header
	elem   int // index of the current element, -1 before NextElement
	read   int // instances read of the current element

	ascii *asciiDecoder
	bin   *binaryDecoder
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	rd := &Reader{maxList: DefaultMaxListLen}
	for _, opt := range opts {
		opt(rd)
	}
	if br, ok := r.(*bufio.Reader); ok && rd.bufSize == 0 {
		rd.br = br
	} else if rd.bufSize > 0 {
		rd.br = bufio.NewReaderSize(r, rd.bufSize)
	} else {
		rd.br = bufio.NewReader(r)
	}
	return rd
}

// ReadHeader parses the header and leaves the stream positioned at the
// first payload byte. It must be called exactly once, before any
// payload access.
func (r *Reader) ReadHeader() (*Header, error) {
	if r.header != nil {
		return nil, errors.New("header already read")
	}
	sc := NewHeaderScanner(r.br)
	h, err := foldHeader(sc)
	if err != nil {
		return nil, err
	}
	r.header = h
	r.elem = -1
	switch h.Encoding {
	case EncodingASCII:
		r.ascii = newASCIIDecoder(r.br, sc.line, r.maxList)
	case EncodingBinaryLittle:
		r.bin = newBinaryDecoder(r.br, binary.LittleEndian, r.maxList)
	case EncodingBinaryBig:
		r.bin = newBinaryDecoder(r.br, binary.BigEndian, r.maxList)
	}
	return h, nil
}

// Header returns the parsed header, or nil before ReadHeader.
func (r *Reader) Header() *Header { return r.header }

// NextElement advances to the next element block in declaration order.
// It returns io.EOF after the last element. The current element must be
// fully consumed first.
func (r *Reader) NextElement() (*ElementDef, error) {
	if r.header == nil {
		return nil, errors.New("ReadHeader has not been called")
	}
	if r.elem >= 0 && r.elem < len(r.header.Elements) {
		if left := r.header.Elements[r.elem].Count - r.read; left > 0 {
			return nil, fmt.Errorf("element %q: %d instances left unread", r.header.Elements[r.elem].Name, left)
		}
	}
	r.elem++
	if r.elem >= len(r.header.Elements) {
		return nil, io.EOF
	}
	r.read = 0
	return &r.header.Elements[r.elem], nil
}

// ReadInstance decodes the next instance of the current element into
// pm. It returns io.EOF once the element's declared count is exhausted.
func (r *Reader) ReadInstance(pm PropertyMap) error {
	if r.header == nil {
		return errors.New("ReadHeader has not been called")
	}
	if r.elem < 0 || r.elem >= len(r.header.Elements) {
		return errors.New("no current element; call NextElement first")
	}
	def := &r.header.Elements[r.elem]
	if r.read >= def.Count {
		return io.EOF
	}
	var err error
	if r.ascii != nil {
		err = r.ascii.readInstance(def, r.read, pm)
	} else {
		err = r.bin.readInstance(def, r.read, pm)
	}
	if err != nil {
		return err
	}
	r.read++
	return nil
}

// ReadAll decodes the remaining payload into a Document. If ReadHeader
// has not been called yet it is called first.
func (r *Reader) ReadAll() (*Document, error) {
	if r.header == nil {
		if _, err := r.ReadHeader(); err != nil {
			return nil, err
		}
	}
	doc := newDocument(r.header)
	for {
		def, err := r.NextElement()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		// Initial capacity is bounded; a header declaring a huge count
		// over a short payload fails while reading, not while allocating.
		rows := make([]*Element, 0, min(def.Count, listChunk))
		for i := 0; i < def.Count; i++ {
			e := NewElement()
			if err := r.ReadInstance(e); err != nil {
				return nil, err
			}
			rows = append(rows, e)
		}
		doc.SetElementData(def.Name, rows)
	}
	return doc, nil
}

// BufferedReader exposes the underlying buffered reader. After the last
// element it gives access to any trailing bytes.
func (r *Reader) BufferedReader() *bufio.Reader { return r.br }

// ReadDocument is shorthand for NewReader(r, opts...).ReadAll().
func ReadDocument(r io.Reader, opts ...ReaderOption) (*Document, error) {
	return NewReader(r, opts...).ReadAll()
}
