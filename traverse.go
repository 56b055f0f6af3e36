// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jsb

import (
	"bytes"
	"fmt"
)

func isValueTag(ch byte) bool {
	return ch >= TagObject && ch <= TagKey
}

// Type returns the tag of the value at off, or 0 if off does not hold one of
// the eight value tags.
func Type(bin []byte, off int) byte {
	if t := at(bin, off); isValueTag(t) {
		return t
	}
	return 0
}

// Bool returns the truthiness of the value at off.  Null, false, the empty
// string, empty containers and numeric zero are false; everything else is
// true.
func Bool(bin []byte, off int) (bool, error) {
	switch t := Type(bin, off); t {
	case TagNull, TagFalse:
		return false, nil
	case TagTrue:
		return true, nil
	case TagString, TagKey:
		return !isTag(at(bin, off+1)), nil
	case TagObject, TagArray:
		return at(bin, off+1) != t^xorEnd, nil
	case TagNumber:
	default:
		return false, fmt.Errorf("bool at offset %d: %w", off, ErrInvalidValue)
	}

	// any nonzero digit ahead of the exponent makes the number nonzero
	for i := off + 1; ; i++ {
		switch b := at(bin, i); {
		case b == '0' || b == '.' || b == '-':
		case isPositiveDigit(b):
			return true, nil
		default:
			return false, nil
		}
	}
}

// Size returns the number of bytes spanned by the value at off, including
// its tag and for containers the closing tag.  It returns 0 if off does not
// hold a value or the container is not terminated.
func Size(bin []byte, off int, idx *Index) int {
	t := Type(bin, off)
	switch t {
	case 0:
		return 0
	case TagNull, TagFalse, TagTrue:
		return 1
	}
	if size, _, ok := idx.Lookup(off); ok {
		return size
	}

	i := off + 1
	if t == TagNumber || t == TagString || t == TagKey {
		for !isTag(at(bin, i)) {
			i++
		}
		return i - off
	}

	depth := 1
	for {
		if i >= len(bin) {
			return 0
		}
		switch bin[i] {
		case TagObject, TagArray:
			depth++
		case TagObjectEnd, TagArrayEnd:
			depth--
			if depth == 0 {
				return i + 1 - off
			}
		case TagDocEnd, invalidByte, intEOF:
			return 0
		}
		i++
	}
}

// Count returns the number of members of an object, elements of an array,
// or code points of a number, string or key.  Null and booleans count as 0.
func Count(bin []byte, off int, idx *Index) (int, error) {
	t := Type(bin, off)
	switch t {
	case 0:
		return 0, fmt.Errorf("count at offset %d: %w", off, ErrInvalidValue)
	case TagNull, TagFalse, TagTrue:
		return 0, nil
	}
	if _, count, ok := idx.Lookup(off); ok {
		return count, nil
	}
	if t == TagNumber || t == TagString || t == TagKey {
		n, _ := countCodepoints(bin, off+1)
		return n, nil
	}

	end := t ^ xorEnd
	n := 0
	for i := off + 1; at(bin, i) != end; n++ {
		size := Size(bin, i, idx)
		if size == 0 {
			return 0, fmt.Errorf("count at offset %d: %w: unterminated container", off, ErrInvalidValue)
		}
		i += size
	}
	if t == TagObject {
		// keys and values were counted separately
		n /= 2
	}
	return n, nil
}

// ArrayGet returns the offset of element i of the array at off, or 0 if off
// is not an array or i is out of range.
func ArrayGet(bin []byte, off int, idx *Index, i int) int {
	if at(bin, off) != TagArray || i < 0 {
		return 0
	}
	pos := off + 1
	for ; i > 0; i-- {
		size := Size(bin, pos, idx)
		if size == 0 {
			return 0
		}
		pos += size
	}
	if Type(bin, pos) == 0 {
		return 0
	}
	return pos
}

// ObjectGet returns the offset of the value stored under key in the object
// at off, or 0 if off is not an object or the key is absent.  Only the first
// occurrence of a duplicated key is found.
func ObjectGet(bin []byte, off int, idx *Index, key []byte) int {
	if at(bin, off) != TagObject {
		return 0
	}
	pos := off + 1
	for {
		size := Size(bin, pos, idx)
		if size == 0 || at(bin, pos) != TagKey {
			return 0
		}
		if size == len(key)+1 && bytes.Equal(bin[pos+1:pos+size], key) {
			pos += size
			break
		}
		pos += size
		size = Size(bin, pos, idx)
		if size == 0 {
			return 0
		}
		pos += size
	}
	if Type(bin, pos) == 0 {
		return 0
	}
	return pos
}

// Payload returns the text of the number, string or key at off, without its
// tag.  The result aliases bin.  Other values have no payload and return nil.
func Payload(bin []byte, off int) []byte {
	switch Type(bin, off) {
	case TagNumber, TagString, TagKey:
	default:
		return nil
	}
	end := off + 1
	for !isTag(at(bin, end)) {
		end++
	}
	return bin[off+1 : end]
}
