// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jsb

import "unicode/utf8"

// loadState is the position of the JSON parser between input bytes.
type loadState uint8

const (
	loadValue        loadState = iota // whitespace, then a value
	loadFirstElement                  // after '['
	loadFirstMember                   // after '{'
	loadKey                           // after ',' in an object
	loadColon
	loadMore // after a value inside a container
	loadString
	loadEscape
	loadHex
	loadSurrogateSlash
	loadSurrogateU
	loadUTF8
	loadSign
	loadZero
	loadInt
	loadFracFirst
	loadFrac
	loadExpSign
	loadExpFirst
	loadExpZero
	loadExp
	loadLiteral
	loadAfterDoc
	loadFinished
)

// acceptsEOF reports whether the end of input may arrive in state s.  Number
// states end their number; loadValue decides for itself.
func (s loadState) acceptsEOF() bool {
	switch s {
	case loadValue, loadZero, loadInt, loadFrac, loadExpZero, loadExp, loadAfterDoc:
		return true
	}
	return false
}

// load feeds one JSON byte to the parser.
func (t *Transcoder) load(ch byte) error {
	if ch == intEOF && !t.lstate.acceptsEOF() {
		return t.fail(ch, "unexpected end of input")
	}

	switch t.lstate {
	case loadValue:
		if isSpace(ch) {
			return nil
		}
		return t.loadValueStart(ch)

	case loadFirstElement:
		if isSpace(ch) {
			return nil
		}
		if ch == ']' {
			t.put(TagArrayEnd)
			return t.loadAfterValue()
		}
		if err := t.push(kindArray, ch); err != nil {
			return err
		}
		return t.loadValueStart(ch)

	case loadFirstMember:
		if isSpace(ch) {
			return nil
		}
		if ch == '}' {
			t.put(TagObjectEnd)
			return t.loadAfterValue()
		}
		if ch != '"' {
			return t.fail(ch, "expecting key or end of object")
		}
		if err := t.push(kindObject, ch); err != nil {
			return err
		}
		t.startKey()

	case loadKey:
		if isSpace(ch) {
			return nil
		}
		if ch != '"' {
			return t.fail(ch, "expecting key")
		}
		t.startKey()

	case loadColon:
		if isSpace(ch) {
			return nil
		}
		if ch != ':' {
			return t.fail(ch, "expecting ':'")
		}
		t.lstate = loadValue

	case loadMore:
		if isSpace(ch) {
			return nil
		}
		return t.loadMore(ch)

	case loadString:
		return t.loadStringByte(ch)

	case loadEscape:
		return t.loadEscape(ch)

	case loadHex:
		v := hexValue(ch)
		if v < 0 {
			return t.fail(ch, "invalid unicode escape")
		}
		t.need--
		t.code |= uint32(v) << (4 * t.need)
		if t.need > 0 {
			return nil
		}
		return t.loadCodeUnit(ch)

	case loadSurrogateSlash:
		if ch != '\\' {
			return t.fail(ch, "expecting low surrogate escape")
		}
		t.lstate = loadSurrogateU

	case loadSurrogateU:
		if ch != 'u' {
			return t.fail(ch, "expecting low surrogate escape")
		}
		t.need = 4
		t.lstate = loadHex

	case loadUTF8:
		if !isContinuation(ch) {
			return t.fail(ch, "invalid UTF-8 continuation byte")
		}
		t.code = t.code<<6 | uint32(ch&0x3f)
		t.put(ch)
		t.need--
		if t.need > 0 {
			return nil
		}
		if t.code < t.minCode || t.code > utf8.MaxRune || (t.code >= 0xd800 && t.code < 0xe000) {
			return t.fail(ch, "invalid UTF-8 sequence")
		}
		t.lstate = loadString

	case loadSign:
		switch {
		case ch == '0':
			t.put(ch)
			t.lstate = loadZero
		case isPositiveDigit(ch):
			t.put(ch)
			t.lstate = loadInt
		default:
			return t.fail(ch, "expecting digit after '-'")
		}

	case loadZero:
		return t.loadFraction(ch)

	case loadInt:
		if isDigit(ch) {
			t.put(ch)
			return nil
		}
		return t.loadFraction(ch)

	case loadFracFirst:
		if !isDigit(ch) {
			return t.fail(ch, "expecting digit after decimal point")
		}
		t.put(ch)
		t.lstate = loadFrac

	case loadFrac:
		if isDigit(ch) {
			t.put(ch)
			return nil
		}
		return t.loadExponent(ch)

	case loadExpSign:
		t.negExp = false
		switch ch {
		case '-':
			t.negExp = true
			t.lstate = loadExpFirst
			return nil
		case '+':
			t.lstate = loadExpFirst
			return nil
		}
		return t.loadExpFirst(ch)

	case loadExpFirst:
		return t.loadExpFirst(ch)

	case loadExpZero:
		switch {
		case ch == '0':
		case isPositiveDigit(ch):
			t.loadExpDigit(ch)
		default:
			// exponent was all zeros
			t.put('0')
			return t.endNumber(ch)
		}

	case loadExp:
		if isDigit(ch) {
			t.put(ch)
			return nil
		}
		return t.endNumber(ch)

	case loadLiteral:
		if ch != t.word[t.wordPos] {
			return t.fail(ch, "expecting "+t.word)
		}
		t.wordPos++
		if t.wordPos == len(t.word) {
			return t.loadAfterValue()
		}

	case loadAfterDoc:
		switch {
		case isSpace(ch):
		case ch == intEOF:
			t.lstate = loadFinished
		default:
			t.unread(ch)
			if t.flags&Lines != 0 {
				t.lstate = loadValue
			} else {
				t.lstate = loadFinished
			}
		}
	}
	return nil
}

// loadValueStart begins the value whose first byte is ch.
func (t *Transcoder) loadValueStart(ch byte) error {
	switch {
	case ch == '"':
		t.put(TagString)
		t.lstate = loadString
	case ch == '{':
		t.put(TagObject)
		t.lstate = loadFirstMember
	case ch == '[':
		t.put(TagArray)
		t.lstate = loadFirstElement
	case ch == '-':
		t.put(TagNumber)
		t.put(ch)
		t.lstate = loadSign
	case ch == '0':
		t.put(TagNumber)
		t.put(ch)
		t.lstate = loadZero
	case isPositiveDigit(ch):
		t.put(TagNumber)
		t.put(ch)
		t.lstate = loadInt
	case ch == 't':
		t.put(TagTrue)
		t.startLiteral("true")
	case ch == 'f':
		t.put(TagFalse)
		t.startLiteral("false")
	case ch == 'n':
		t.put(TagNull)
		t.startLiteral("null")
	case ch == intEOF && len(t.stack) == 0 && t.flags&Lines != 0:
		// a document sequence may be empty or end after whitespace
		t.lstate = loadFinished
	case ch == intEOF:
		return t.fail(ch, "unexpected end of input")
	default:
		return t.fail(ch, "expecting value")
	}
	return nil
}

func (t *Transcoder) startLiteral(word string) {
	t.word = word
	t.wordPos = 1
	t.lstate = loadLiteral
}

func (t *Transcoder) startKey() {
	t.put(TagKey)
	t.inKey = true
	t.lstate = loadString
}

// push opens a non-empty container.  Empty containers never reach here, so
// they do not count toward the depth limit.
func (t *Transcoder) push(kind containerKind, ch byte) error {
	if len(t.stack) >= t.maxDepth {
		return t.fail(ch, "maximum depth exceeded")
	}
	t.stack = append(t.stack, kind)
	return nil
}

func (t *Transcoder) loadMore(ch byte) error {
	top := t.stack[len(t.stack)-1]
	switch {
	case ch == ',' && top == kindObject:
		t.lstate = loadKey
	case ch == ',':
		t.lstate = loadValue
	case ch == '}' && top == kindObject:
		t.put(TagObjectEnd)
		t.stack = t.stack[:len(t.stack)-1]
		return t.loadAfterValue()
	case ch == ']' && top == kindArray:
		t.put(TagArrayEnd)
		t.stack = t.stack[:len(t.stack)-1]
		return t.loadAfterValue()
	case top == kindObject:
		return t.fail(ch, "expecting value-separator or end of object")
	default:
		return t.fail(ch, "expecting value-separator or end of array")
	}
	return nil
}

// loadAfterValue is entered once a value is complete.  At the top level it
// ends the document.
func (t *Transcoder) loadAfterValue() error {
	if len(t.stack) > 0 {
		t.lstate = loadMore
		return nil
	}
	t.put(TagDocEnd)
	t.finishDoc()
	t.lstate = loadAfterDoc
	return nil
}

func (t *Transcoder) loadStringByte(ch byte) error {
	switch {
	case ch == '"':
		if t.inKey {
			t.inKey = false
			t.lstate = loadColon
			return nil
		}
		return t.loadAfterValue()
	case ch == '\\':
		t.lstate = loadEscape
	case ch < 0x20:
		return t.fail(ch, "control character in string")
	case ch < 0x80:
		t.put(ch)
	case ch&0xe0 == 0xc0:
		t.startUTF8(ch, uint32(ch&0x1f), 1, 0x80)
	case ch&0xf0 == 0xe0:
		t.startUTF8(ch, uint32(ch&0x0f), 2, 0x800)
	case ch&0xf8 == 0xf0:
		t.startUTF8(ch, uint32(ch&0x07), 3, 0x10000)
	default:
		return t.fail(ch, "invalid UTF-8 start byte")
	}
	return nil
}

func (t *Transcoder) startUTF8(ch byte, code uint32, need int, min uint32) {
	t.put(ch)
	t.code = code
	t.need = need
	t.minCode = min
	t.lstate = loadUTF8
}

func (t *Transcoder) loadEscape(ch byte) error {
	switch ch {
	case '"', '\\', '/':
		t.put(ch)
	case 'b':
		t.put('\b')
	case 'f':
		t.put('\f')
	case 'n':
		t.put('\n')
	case 'r':
		t.put('\r')
	case 't':
		t.put('\t')
	case 'u':
		t.code = 0
		t.need = 4
		t.lstate = loadHex
		return nil
	default:
		return t.fail(ch, "unknown escape")
	}
	t.lstate = loadString
	return nil
}

// loadCodeUnit handles a completed \u escape.  A high surrogate is kept in
// the upper half of t.code while its low surrogate is read.
func (t *Transcoder) loadCodeUnit(ch byte) error {
	if t.code < 0x10000 {
		switch t.code & 0xfc00 {
		case 0xdc00:
			return t.fail(ch, "unpaired low surrogate")
		case 0xd800:
			t.code <<= 16
			t.lstate = loadSurrogateSlash
			return nil
		}
	} else {
		if t.code&0xfc00 != 0xdc00 {
			return t.fail(ch, "expecting low surrogate")
		}
		t.code = 0x10000 + (t.code>>16&0x3ff)<<10 + t.code&0x3ff
	}

	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], rune(t.code))
	for _, b := range buf[:n] {
		t.put(b)
	}
	t.lstate = loadString
	return nil
}

// loadFraction follows the integer part of a number.
func (t *Transcoder) loadFraction(ch byte) error {
	if ch == '.' {
		t.put(ch)
		t.lstate = loadFracFirst
		return nil
	}
	return t.loadExponent(ch)
}

func (t *Transcoder) loadExponent(ch byte) error {
	if ch == 'e' || ch == 'E' {
		t.put('e')
		t.lstate = loadExpSign
		return nil
	}
	return t.endNumber(ch)
}

// loadExpFirst drops '+' and leading zeros from the exponent.
func (t *Transcoder) loadExpFirst(ch byte) error {
	switch {
	case ch == '0':
		t.lstate = loadExpZero
	case isPositiveDigit(ch):
		t.loadExpDigit(ch)
	default:
		return t.fail(ch, "expecting digit in exponent")
	}
	return nil
}

func (t *Transcoder) loadExpDigit(ch byte) {
	if t.negExp {
		t.put('-')
	}
	t.put(ch)
	t.lstate = loadExp
}

// endNumber finishes a number at the first byte that cannot extend it.  That
// byte is pushed back and read again after the value.
func (t *Transcoder) endNumber(ch byte) error {
	t.unread(ch)
	return t.loadAfterValue()
}
