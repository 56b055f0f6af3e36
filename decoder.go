// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jsb

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

const defaultWindowSize = 32 * 1024

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16BEBOM = []byte{0xFE, 0xFF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf32BEBOM = []byte{0x00, 0x00, 0xFE, 0xFF}
	utf32LEBOM = []byte{0xFF, 0xFE, 0x00, 0x00}
)

// maxEmptyReads bounds successive reads returning no data and no error.
const maxEmptyReads = 100

// source feeds input windows to a Transcoder from an io.Reader.
type source struct {
	r   io.Reader
	buf []byte
	err error
}

// fill reads the next input window and declares it.  A read error is held
// until the bytes read with it have been declared.
func (s *source) fill(t *Transcoder, src *[]byte) error {
	for i := 0; i < maxEmptyReads; i++ {
		if s.err == io.EOF {
			*src = s.buf[:0]
			return t.SetSrcLen(0)
		}
		if s.err != nil {
			return newReadError(s.err)
		}
		var n int
		n, s.err = s.r.Read(s.buf)
		if n > 0 {
			*src = s.buf[:n]
			return t.SetSrcLen(n)
		}
	}
	return newReadError(io.ErrNoProgress)
}

// Decoder reads successive documents from an input stream and converts each
// one.  Documents may be separated by optional white space or, for binary
// input, document-end tags.
type Decoder struct {
	in  source
	src []byte
	dst []byte
	t   *Transcoder
}

// NewDecoder returns a new decoder.  The Lines flag is implied.  For JSON
// input a UTF-8 byte-order-mark (BOM) is stripped; because only UTF-8 is
// supported, other BOMs are errors.
func NewDecoder(r io.Reader, flags Flags) (*Decoder, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, defaultWindowSize)
	}
	if flags&Reverse == 0 {
		if err := handleBOM(br); err != nil {
			return nil, err
		}
	}
	return &Decoder{
		in:  source{r: br, buf: make([]byte, defaultWindowSize)},
		dst: make([]byte, defaultWindowSize),
		t:   NewTranscoder(defaultWindowSize, flags|Lines),
	}, nil
}

// MaxDepth sets the maximum allowed nesting of JSON input.  The default is
// 64.
func (d *Decoder) MaxDepth(n int) {
	d.t.MaxDepth(n)
}

// Decode converts the next document from the input stream.  The output is
// appended to buf, which is grown on demand; the final buffer is returned,
// just like with `append`.  The function returns io.EOF if no documents
// remain in the stream.
func (d *Decoder) Decode(buf []byte) ([]byte, error) {
	for {
		_, err := d.t.Update(d.dst, d.src)
		switch err {
		case nil:
			k := d.t.Consume(d.dst, -1)
			return append(buf, d.dst[:k]...), nil
		case ErrNeedOutput:
			k := d.t.Consume(d.dst, -1)
			buf = append(buf, d.dst[:k]...)
		case ErrNeedInput:
			if err = d.in.fill(d.t, &d.src); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}
}

// ReaderOptions configures a Reader.  Zero values select defaults.
type ReaderOptions struct {
	// InputSize is the size of the input window, 32 KiB by default.
	InputSize int
	// OutputSize is the size of the output window, 32 KiB by default.
	OutputSize int
	// MaxDepth is the JSON nesting limit, DefaultMaxDepth by default.
	MaxDepth int
}

// Reader is an io.Reader over the converted form of another io.Reader.
type Reader struct {
	in    source
	src   []byte
	dst   []byte
	t     *Transcoder
	pos   int
	avail int
	err   error
}

// NewReader returns a Reader converting r with default options.
func NewReader(r io.Reader, flags Flags) *Reader {
	return NewReaderOptions(r, flags, ReaderOptions{})
}

// NewReaderOptions returns a Reader converting r.
func NewReaderOptions(r io.Reader, flags Flags, opts ReaderOptions) *Reader {
	if opts.InputSize <= 0 {
		opts.InputSize = defaultWindowSize
	}
	if opts.OutputSize <= 0 {
		opts.OutputSize = defaultWindowSize
	}
	t := NewTranscoder(opts.OutputSize, flags)
	if opts.MaxDepth > 0 {
		t.MaxDepth(opts.MaxDepth)
	}
	return &Reader{
		in:  source{r: r, buf: make([]byte, opts.InputSize)},
		dst: make([]byte, opts.OutputSize),
		t:   t,
	}
}

// TotalIn returns the number of input bytes converted so far.
func (rd *Reader) TotalIn() int64 { return rd.t.TotalIn() }

func (rd *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for rd.pos == rd.avail {
		if rd.err != nil {
			return 0, rd.err
		}
		rd.produce()
	}
	n := copy(p, rd.dst[rd.pos:rd.avail])
	rd.pos += n
	return n, nil
}

// produce runs the transcoder until it has output to hand over or stops.
// Released output stays at the front of dst until the next Update.
func (rd *Reader) produce() {
	rd.pos, rd.avail = 0, 0
	for {
		_, err := rd.t.Update(rd.dst, rd.src)
		switch err {
		case nil, ErrNeedOutput:
			if rd.avail = rd.t.Consume(rd.dst, -1); rd.avail > 0 {
				return
			}
		case ErrNeedInput:
			if rd.avail = rd.t.Consume(rd.dst, -1); rd.avail > 0 {
				return
			}
			if err = rd.in.fill(rd.t, &rd.src); err != nil {
				rd.err = err
				return
			}
		default:
			rd.avail = rd.t.Consume(rd.dst, -1)
			rd.err = err
			return
		}
	}
}

// detect/discard/error on BOM. Inability to peek is a NOP and
// will be handled by the normal parser
func handleBOM(r *bufio.Reader) error {
	// Peek 2 byte BOMs
	preamble, err := r.Peek(2)
	if err != nil {
		return nil
	}
	if bytes.Equal(preamble, utf16BEBOM) || bytes.Equal(preamble, utf16LEBOM) {
		// a UTF-32LE BOM starts like a UTF-16LE one
		if p, err := r.Peek(4); err == nil && bytes.Equal(p, utf32LEBOM) {
			return fmt.Errorf("error: detected unsupported UTF-32 BOM")
		}
		return fmt.Errorf("error: detected unsupported UTF-16 BOM")
	}

	// Peek 3 byte BOM; UTF-8 is supported, so discard them if found.
	preamble, err = r.Peek(3)
	if err != nil {
		return nil
	}
	if bytes.Equal(preamble, utf8BOM) {
		_, _ = r.Discard(3)
		return nil
	}

	// Peek 4 byte BOMs
	preamble, err = r.Peek(4)
	if err != nil {
		return nil
	}
	if bytes.Equal(preamble, utf32BEBOM) {
		return fmt.Errorf("error: detected unsupported UTF-32 BOM")
	}

	return nil
}

// newReadError wraps a failure of the underlying reader.  The end of input
// is not an error here; the transcoder decides whether it was expected.
func newReadError(err error) error {
	return fmt.Errorf("error reading input: %w", err)
}
