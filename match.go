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

// KeyTable is a set of keys prepared for Match.  Keys are kept in the order
// given; a permutation sorts them by length and then by content.
type KeyTable struct {
	keys  [][]byte
	order []int
}

// PrepareKeys builds a KeyTable.  Duplicate keys are allowed and collect
// successive occurrences of the key in an object.  A key containing a byte
// that never appears in a key payload is rejected.
func PrepareKeys(keys ...[]byte) (*KeyTable, error) {
	kt := &KeyTable{
		keys:  make([][]byte, len(keys)),
		order: make([]int, len(keys)),
	}
	for i, k := range keys {
		for _, b := range k {
			if isTag(b) || b == invalidByte || b == intEOF {
				return nil, fmt.Errorf("key %d: %w: byte 0x%02x cannot appear in a key", i, ErrInvalidValue, b)
			}
		}
		kt.keys[i] = k

		// insertion sort; equal keys keep their declaration order
		j := kt.search(k, i, true)
		copy(kt.order[j+1:i+1], kt.order[j:i])
		kt.order[j] = i
	}
	return kt, nil
}

// Len returns the number of keys.
func (kt *KeyTable) Len() int { return len(kt.keys) }

// Order returns the key indexes sorted by (length, content).
func (kt *KeyTable) Order() []int {
	return append([]int(nil), kt.order...)
}

func compareKeys(a, b []byte) int {
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return bytes.Compare(a, b)
}

// search returns the first of the first n sorted slots whose key is not less
// than key, or with after set, greater than key.
func (kt *KeyTable) search(key []byte, n int, after bool) int {
	lo, hi := 0, n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		c := compareKeys(kt.keys[kt.order[mid]], key)
		if c < 0 || (after && c == 0) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Match scans the object at off once and stores in offsets[i] the offset of
// the value for key i of kt, or 0 if the object has no such key.  It
// returns the number of keys matched, and stops early once every key is.
func Match(bin []byte, off int, idx *Index, kt *KeyTable, offsets []int) (int, error) {
	if at(bin, off) != TagObject {
		return 0, fmt.Errorf("match at offset %d: %w", off, ErrNotObject)
	}
	n := kt.Len()
	if len(offsets) < n {
		return 0, fmt.Errorf("match: %d offsets for %d keys", len(offsets), n)
	}
	for i := range offsets[:n] {
		offsets[i] = 0
	}

	matched := 0
	pos := off + 1
	for matched < n && at(bin, pos) == TagKey {
		size := Size(bin, pos, idx)
		key := bin[pos+1 : pos+size]
		val := pos + size

		for i := kt.search(key, n, false); i < n; i++ {
			j := kt.order[i]
			if !bytes.Equal(kt.keys[j], key) {
				break
			}
			if offsets[j] == 0 {
				offsets[j] = val
				matched++
				break
			}
		}

		size = Size(bin, val, idx)
		if size == 0 {
			return matched, fmt.Errorf("match at offset %d: %w: missing value", val, ErrInvalidValue)
		}
		pos = val + size
	}
	if matched < n && at(bin, pos) != TagObjectEnd {
		return matched, fmt.Errorf("match at offset %d: %w: expecting key", pos, ErrInvalidValue)
	}
	return matched, nil
}
