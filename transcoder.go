// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jsb

import (
	"fmt"
	"io"
)

// Flags select the direction and output options of a Transcoder.
type Flags uint32

const (
	// Reverse converts binary input to JSON output.
	Reverse Flags = 2
	// ASCII escapes every non-ASCII code point when emitting JSON.
	ASCII Flags = 4
	// Lines processes a sequence of concatenated documents instead of
	// stopping after the first.  JSON output puts each document on its own
	// line.
	Lines Flags = 8
)

// DefaultMaxDepth is the container nesting limit of a new Transcoder.
const DefaultMaxDepth = 64

// carrySize bounds the output a single input byte can produce.
const carrySize = 16

type containerKind uint8

const (
	kindArray containerKind = iota
	kindObject
)

// Transcoder converts JSON to binary, or binary to JSON with the Reverse
// flag, over caller-supplied input and output windows.  It never allocates
// output memory itself: it suspends with ErrNeedInput or ErrNeedOutput and
// resumes exactly where it left off on the next call to Update.
//
// A Transcoder must not be used from more than one goroutine at a time.
type Transcoder struct {
	flags    Flags
	maxDepth int
	err      error

	// input window
	srcLen int
	srcPos int
	eof    bool

	// output window; bytes [dstSkip, dstPos) are produced but unconsumed
	out     []byte
	dstCap  int
	dstPos  int
	dstSkip int

	// output produced while the window was full
	carry    [carrySize]byte
	carryOff int
	carryLen int

	totalIn  int64
	totalOut int64
	docOut   int
	docLen   int
	docDone  bool

	// JSON -> binary
	lstate  loadState
	stack   []containerKind
	inKey   bool
	negExp  bool
	word    string
	wordPos int
	minCode uint32

	// binary -> JSON
	dstate dumpState
	depth  int
	prev   byte

	// shared between directions: pending code point and bytes still needed
	code uint32
	need int
}

// NewTranscoder returns a stream with an output window capacity of dstlen
// bytes.  Input is declared separately with SetSrcLen.
func NewTranscoder(dstlen int, flags Flags) *Transcoder {
	t := &Transcoder{maxDepth: DefaultMaxDepth}
	t.Reset(dstlen, flags)
	return t
}

// Reset reinitializes the stream, clearing any error.  The maximum depth is
// kept.
func (t *Transcoder) Reset(dstlen int, flags Flags) {
	*t = Transcoder{
		flags:    flags,
		maxDepth: t.maxDepth,
		dstCap:   dstlen,
		stack:    t.stack[:0],
	}
	if flags&Reverse != 0 && flags&Lines != 0 {
		t.dstate = dumpAfterDoc
	}
}

// MaxDepth sets the maximum allowed container nesting of JSON input.  The
// default is 64.  Empty containers do not count toward the limit.
func (t *Transcoder) MaxDepth(n int) {
	t.maxDepth = n
}

// TotalIn returns the number of input bytes consumed so far.
func (t *Transcoder) TotalIn() int64 { return t.totalIn }

// TotalOut returns the number of output bytes produced so far, including
// bytes still held back because the output window was full.
func (t *Transcoder) TotalOut() int64 { return t.totalOut }

// Pending returns the number of produced bytes at the front of the output
// window that have not been released with Consume.
func (t *Transcoder) Pending() int { return t.dstPos - t.dstSkip }

// SetSrcLen declares the length of the next input window.  It is only legal
// once the previous window is fully consumed.  A length of zero marks the
// end of input.
func (t *Transcoder) SetSrcLen(n int) error {
	if t.err != nil {
		return t.err
	}
	if t.srcPos != t.srcLen || t.eof || n < 0 {
		t.err = fmt.Errorf("%w: input window declared before previous window was consumed", ErrProtocol)
		return t.err
	}
	t.srcLen = n
	t.srcPos = 0
	t.eof = n == 0
	return nil
}

// Resize sets a new output window capacity.  The capacity is rounded up so
// that unconsumed output and any held-back bytes fit; the actual capacity is
// returned and dst must be at least that long on the next Update.  Consumed
// bytes are compacted out of dst first.
func (t *Transcoder) Resize(dst []byte, n int) int {
	t.compact(dst)
	if least := t.dstPos + t.carryLen - t.carryOff; n < least {
		n = least
	}
	t.dstCap = n
	return n
}

// Consume releases up to n bytes from the front of the output window and
// returns how many were released; n < 0 releases everything.  The released
// bytes remain readable at dst[:k] until the next call that is passed dst.
func (t *Transcoder) Consume(dst []byte, n int) int {
	t.compact(dst)
	if n < 0 || n > t.dstPos {
		n = t.dstPos
	}
	t.dstSkip = n
	return n
}

// compact moves unconsumed output to the front of dst.
func (t *Transcoder) compact(dst []byte) {
	if t.dstSkip == 0 {
		return
	}
	n := t.dstPos - t.dstSkip
	moveWithin(dst, 0, t.dstSkip, n)
	t.dstPos = n
	t.dstSkip = 0
}

// moveWithin copies buf[from:from+n] to buf[to:to+n].  The ranges may
// overlap; copy has memmove semantics in either direction.
func moveWithin(buf []byte, to, from, n int) {
	if n <= 0 || to == from {
		return
	}
	copy(buf[to:to+n], buf[from:from+n])
}

// Update advances the conversion using the declared input window src and the
// output window dst.  It returns:
//
//   - ErrNeedInput when src is exhausted;
//   - ErrNeedOutput when dst is full;
//   - n > 0 and a nil error when a document is complete, where n counts the
//     output bytes produced for that document;
//   - io.EOF once the stream is exhausted cleanly;
//   - any other error when the input is malformed or the streaming protocol
//     was misused.  That error is returned by every later call until Reset.
func (t *Transcoder) Update(dst, src []byte) (int, error) {
	if t.err != nil {
		return 0, t.err
	}
	if len(src) < t.srcLen || len(dst) < t.dstCap {
		t.err = fmt.Errorf("%w: window shorter than its declared length", ErrProtocol)
		return 0, t.err
	}
	t.compact(dst)
	t.out = dst
	defer func() { t.out = nil }()

	for {
		if !t.flush() {
			return 0, ErrNeedOutput
		}
		if t.docDone {
			t.docDone = false
			return t.docLen, nil
		}
		if t.finished() {
			return 0, io.EOF
		}

		var ch byte
		switch {
		case t.srcPos < t.srcLen:
			ch = src[t.srcPos]
			t.srcPos++
			t.totalIn++
			if ch == invalidByte || ch == intEOF {
				t.err = t.fail(ch, "invalid byte")
				return 0, t.err
			}
		case t.eof:
			ch = intEOF
		default:
			return 0, ErrNeedInput
		}

		var err error
		if t.flags&Reverse != 0 {
			err = t.dump(ch)
		} else {
			err = t.load(ch)
		}
		if err != nil {
			t.err = err
			return 0, err
		}
	}
}

func (t *Transcoder) finished() bool {
	if t.flags&Reverse != 0 {
		return t.dstate == dumpFinished
	}
	return t.lstate == loadFinished
}

// put appends one output byte, holding it back if the window is full.
func (t *Transcoder) put(b byte) {
	if t.carryLen == 0 && t.dstPos < t.dstCap {
		t.out[t.dstPos] = b
		t.dstPos++
	} else {
		t.carry[t.carryLen] = b
		t.carryLen++
	}
	t.docOut++
	t.totalOut++
}

func (t *Transcoder) putString(s string) {
	for i := 0; i < len(s); i++ {
		t.put(s[i])
	}
}

// flush moves held-back output into the window and reports whether all of
// it fit.
func (t *Transcoder) flush() bool {
	if t.carryLen == 0 {
		return true
	}
	n := copy(t.out[t.dstPos:t.dstCap], t.carry[t.carryOff:t.carryLen])
	t.dstPos += n
	t.carryOff += n
	if t.carryOff < t.carryLen {
		return false
	}
	t.carryOff = 0
	t.carryLen = 0
	return true
}

// unread pushes the byte just read back into the input window, so that the
// next state sees it again.  The end of input is sticky and needs no push.
func (t *Transcoder) unread(ch byte) {
	if ch == intEOF || t.srcPos == 0 {
		return
	}
	t.srcPos--
	t.totalIn--
}

func (t *Transcoder) finishDoc() {
	t.docDone = true
	t.docLen = t.docOut
	t.docOut = 0
}

func (t *Transcoder) fail(ch byte, msg string) error {
	return &ParseError{Offset: t.totalIn, Char: ch, EOF: ch == intEOF, msg: msg}
}

// Convert converts src into dst in one call and returns the number of bytes
// written.  It fails with ErrShortDst if dst is too small, and with a
// ParseError if input remains after the document (or, with Lines, after the
// last document).
func Convert(dst, src []byte, flags Flags) (int, error) {
	t := NewTranscoder(len(dst), flags)
	full := func() ([]byte, error) { return nil, ErrShortDst }
	if err := t.run(full, dst, src); err != nil {
		return 0, err
	}
	return t.dstPos, nil
}

// Append converts src and appends the result to out, growing it as needed.
// The final buffer is returned, just like with `append`.
func Append(out, src []byte, flags Flags) ([]byte, error) {
	window := make([]byte, 2*len(src)+64)
	t := NewTranscoder(len(window), flags)
	grow := func() ([]byte, error) {
		next := make([]byte, 2*len(window))
		copy(next, window[:t.Pending()])
		window = next
		t.Resize(window, len(window))
		return window, nil
	}
	if err := t.run(grow, window, src); err != nil {
		return nil, err
	}
	return append(out, window[:t.Pending()]...), nil
}

// run drives a single-window conversion to completion.  full is called when
// the output window fills and returns the window to continue with.
func (t *Transcoder) run(full func() ([]byte, error), dst, src []byte) error {
	if err := t.SetSrcLen(len(src)); err != nil {
		return err
	}
	for {
		_, err := t.Update(dst, src)
		switch {
		case err == nil:
		case err == ErrNeedInput:
			if err = t.SetSrcLen(0); err != nil {
				return err
			}
		case err == ErrNeedOutput:
			if dst, err = full(); err != nil {
				return err
			}
		case err == io.EOF:
			if t.srcPos < t.srcLen {
				return &ParseError{Offset: int64(t.srcPos), Char: src[t.srcPos], msg: "unexpected data after value"}
			}
			return nil
		default:
			return err
		}
	}
}
