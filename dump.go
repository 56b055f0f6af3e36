// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jsb

// dumpState is the position of the JSON emitter between input bytes.  The
// binary input is trusted to be well formed; only tags that cannot start a
// value are rejected.
type dumpState uint8

const (
	dumpStart  dumpState = iota // expecting a value tag
	dumpNext                    // after a value or an opener
	dumpNumber                  // copying number payload
	dumpString                  // copying string or key payload
	dumpUTF8                    // collecting a multi-byte sequence for \u escapes
	dumpAfterDoc
	dumpFinished
)

// dump feeds one binary byte to the emitter.
func (t *Transcoder) dump(ch byte) error {
	switch t.dstate {
	case dumpStart:
		return t.dumpValue(ch)

	case dumpNext:
		return t.dumpNext(ch)

	case dumpNumber:
		if isTag(ch) || ch == intEOF {
			return t.dumpNext(ch)
		}
		t.put(ch)

	case dumpString:
		return t.dumpStringByte(ch)

	case dumpUTF8:
		t.code = t.code<<6 | uint32(ch&0x3f)
		t.need--
		if t.need == 0 {
			t.putUnicodeEscape(t.code)
			t.dstate = dumpString
		}

	case dumpAfterDoc:
		switch {
		case ch == TagDocEnd:
			// stray separators between documents
		case ch == intEOF:
			t.dstate = dumpFinished
		case ch >= TagObject && ch <= TagKey:
			return t.dumpValue(ch)
		default:
			t.unread(ch)
			t.dstate = dumpFinished
		}
	}
	return nil
}

// dumpValue emits the start of the value tagged ch.
func (t *Transcoder) dumpValue(ch byte) error {
	t.prev = ch
	t.dstate = dumpNext
	switch ch {
	case TagObject:
		t.put('{')
		t.depth++
	case TagArray:
		t.put('[')
		t.depth++
	case TagNull:
		t.putString("null")
	case TagFalse:
		t.putString("false")
	case TagTrue:
		t.putString("true")
	case TagNumber:
		t.dstate = dumpNumber
	case TagString, TagKey:
		t.put('"')
		t.dstate = dumpString
	default:
		if ch == intEOF {
			return t.fail(ch, "unexpected end of input")
		}
		return t.fail(ch, "expecting value tag")
	}
	return nil
}

// dumpNext handles the byte after a value or an opener.  The separator
// depends on the tag of the previous value; it is cleared after a closer so
// that the closer itself counts as the previous value.
func (t *Transcoder) dumpNext(ch byte) error {
	if t.depth == 0 {
		return t.dumpDocEnd(ch)
	}
	switch {
	case ch == TagObjectEnd:
		t.put('}')
		t.closeContainer()
		return nil
	case ch == TagArrayEnd:
		t.put(']')
		t.closeContainer()
		return nil
	case ch == intEOF:
		return t.fail(ch, "unexpected end of input")
	case t.prev == TagKey:
		t.put(':')
	case t.prev != TagObject && t.prev != TagArray:
		t.put(',')
	}
	return t.dumpValue(ch)
}

func (t *Transcoder) closeContainer() {
	t.depth--
	t.prev = 0
	t.dstate = dumpNext
}

// dumpDocEnd ends a top-level value at ch.  A single document consumes ch
// with it; in a sequence anything but a document-end tag is read again as the
// start of the next document.
func (t *Transcoder) dumpDocEnd(ch byte) error {
	if t.flags&Lines == 0 {
		t.finishDoc()
		t.dstate = dumpFinished
		return nil
	}
	if ch != TagDocEnd {
		t.unread(ch)
	}
	t.put('\n')
	t.finishDoc()
	t.dstate = dumpAfterDoc
	return nil
}

func (t *Transcoder) dumpStringByte(ch byte) error {
	switch {
	case isTag(ch) || ch == intEOF:
		t.put('"')
		return t.dumpNext(ch)
	case ch == '"' || ch == '\\':
		t.put('\\')
		t.put(ch)
	case ch < 0x20:
		t.putControlEscape(ch)
	case ch < 0x80 || t.flags&ASCII == 0:
		t.put(ch)
	case ch&0xf8 == 0xf0:
		t.startEscape(uint32(ch&0x07), 3)
	case ch&0xf0 == 0xe0:
		t.startEscape(uint32(ch&0x0f), 2)
	default:
		t.startEscape(uint32(ch&0x1f), 1)
	}
	return nil
}

func (t *Transcoder) startEscape(code uint32, need int) {
	t.code = code
	t.need = need
	t.dstate = dumpUTF8
}

func (t *Transcoder) putControlEscape(ch byte) {
	t.put('\\')
	switch ch {
	case '\b':
		t.put('b')
	case '\f':
		t.put('f')
	case '\n':
		t.put('n')
	case '\r':
		t.put('r')
	case '\t':
		t.put('t')
	default:
		t.putString("u00")
		t.put(nibble(uint32(ch) >> 4))
		t.put(nibble(uint32(ch)))
	}
}

// putUnicodeEscape writes code as \uXXXX, or as a surrogate pair of escapes
// above the basic multilingual plane.
func (t *Transcoder) putUnicodeEscape(code uint32) {
	if code < 0x10000 {
		t.putString(`\u`)
		t.put(nibble(code >> 12))
		t.put(nibble(code >> 8))
		t.put(nibble(code >> 4))
		t.put(nibble(code))
		return
	}
	code -= 0x10000
	t.putString(`\ud`)
	t.put(nibble(code>>18 | 0x8))
	t.put(nibble(code >> 14))
	t.put(nibble(code >> 10))
	t.putString(`\ud`)
	t.put(nibble(code>>8 | 0xc))
	t.put(nibble(code >> 4))
	t.put(nibble(code))
}
