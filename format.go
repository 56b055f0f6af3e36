// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jsb

// Binary value tags.  Every byte at or above TagObject is structural; payload
// bytes of numbers, strings and keys are always below it.
const (
	TagObject    = 0xf5
	TagArray     = 0xf6
	TagNull      = 0xf7
	TagFalse     = 0xf8
	TagTrue      = 0xf9
	TagNumber    = 0xfa
	TagString    = 0xfb
	TagKey       = 0xfc
	TagObjectEnd = 0xfd
	TagArrayEnd  = 0xfe
	TagDocEnd    = 0xff
)

const (
	// xorEnd toggles an opener to its closer and back.
	xorEnd = TagArray ^ TagArrayEnd
	// objectBit is set on TagObject and TagObjectEnd, clear on the array tags.
	objectBit = 1

	// Neither byte can appear in UTF-8 text or in the binary format.
	invalidByte = 0xc0
	// intEOF is fed to the state machines once the input is exhausted.
	intEOF = 0xc1
)

// ensure the arithmetic relations between tags hold
var _ = [1]struct{}{}[(TagObject^TagObjectEnd)^xorEnd]
var _ = [1]struct{}{}[TagObject+1-TagArray]
var _ = [1]struct{}{}[TagObjectEnd+1-TagArrayEnd]
var _ = [1]struct{}{}[TagObject&objectBit^objectBit]
var _ = [1]struct{}{}[TagArray&objectBit]

func isTag(ch byte) bool {
	return ch >= TagObject
}

func isSpace(ch byte) bool {
	if ch > ' ' {
		return false
	}
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isPositiveDigit(ch byte) bool {
	return ch >= '1' && ch <= '9'
}

// hexValue maps a hexadecimal character to its value, or -1.
func hexValue(ch byte) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 0xa
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 0xa
	}
	return -1
}

// nibble maps the low four bits of x to a lowercase hexadecimal character.
func nibble(x uint32) byte {
	x &= 0xf
	if x < 0xa {
		return byte(x) + '0'
	}
	return byte(x-0xa) + 'a'
}

func isContinuation(ch byte) bool {
	return ch&0xc0 == 0x80
}

// at returns bin[i], or TagDocEnd past the end of bin so that scans over a
// truncated buffer stop instead of panicking.
func at(bin []byte, i int) byte {
	if i < 0 || i >= len(bin) {
		return TagDocEnd
	}
	return bin[i]
}
