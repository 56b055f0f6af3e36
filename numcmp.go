// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jsb

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"
)

// decimal is a number's text split into the parts that decide its order.
type decimal struct {
	neg  bool
	zero bool
	// significant digits start at the most significant nonzero digit; lead
	// holds the rest of the part containing it and tail the fraction after it
	lead, tail []byte
	// shift is the position of the decimal point relative to the most
	// significant digit
	shift  int
	expNeg bool
	exp    []byte
}

func parseDecimal(s []byte) decimal {
	var d decimal
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		d.neg = s[i] == '-'
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	ipart := s[start:i]
	var fpart []byte
	if i < len(s) && s[i] == '.' {
		i++
		start = i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		fpart = s[start:i]
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '-' || s[i] == '+') {
			d.expNeg = s[i] == '-'
			i++
		}
		start = i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		d.exp = s[start:i]
	}

	if p := firstNonzero(ipart); p >= 0 {
		d.lead, d.tail = ipart[p:], fpart
		d.shift = len(ipart) - p
	} else if p := firstNonzero(fpart); p >= 0 {
		d.lead = fpart[p:]
		d.shift = -p
	} else {
		d.zero = true
	}
	return d
}

func firstNonzero(digits []byte) int {
	for i, c := range digits {
		if c != '0' {
			return i
		}
	}
	return -1
}

// digit returns significant digit k, padding with zeros past the end.
func (d *decimal) digit(k int) byte {
	if k < len(d.lead) {
		return d.lead[k]
	}
	k -= len(d.lead)
	if k < len(d.tail) {
		return d.tail[k]
	}
	return '0'
}

func (d *decimal) digits() int {
	return len(d.lead) + len(d.tail)
}

// maxSmallExp keeps exponent arithmetic within int64.
const maxSmallExp = 15

// compareExponents orders the effective exponents, literal exponent plus
// shift, of two nonzero numbers.
func compareExponents(a, b *decimal) int {
	if len(a.exp) <= maxSmallExp && len(b.exp) <= maxSmallExp {
		x, y := a.smallExp(), b.smallExp()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return a.bigExp().Cmp(b.bigExp())
}

func (d *decimal) smallExp() int64 {
	var e int64
	if len(d.exp) > 0 {
		// digits only and short enough, so this cannot fail
		e, _ = strconv.ParseInt(string(d.exp), 10, 64)
	}
	if d.expNeg {
		e = -e
	}
	return e + int64(d.shift)
}

func (d *decimal) bigExp() *big.Int {
	e := new(big.Int)
	if len(d.exp) > 0 {
		e.SetString(string(d.exp), 10)
	}
	if d.expNeg {
		e.Neg(e)
	}
	return e.Add(e, big.NewInt(int64(d.shift)))
}

// CompareNumbers compares two numbers in JSON text form by value, without
// converting them to floating point, and returns -1, 0 or +1.  Exponents of
// any length are compared exactly.
func CompareNumbers(a, b []byte) int {
	x, y := parseDecimal(a), parseDecimal(b)

	switch {
	case x.zero && y.zero:
		return 0
	case x.zero:
		if y.neg {
			return 1
		}
		return -1
	case y.zero:
		if x.neg {
			return -1
		}
		return 1
	case x.neg && !y.neg:
		return -1
	case !x.neg && y.neg:
		return 1
	}

	r := compareExponents(&x, &y)
	if r == 0 {
		n := x.digits()
		if m := y.digits(); m > n {
			n = m
		}
		for k := 0; k < n && r == 0; k++ {
			switch dx, dy := x.digit(k), y.digit(k); {
			case dx < dy:
				r = -1
			case dx > dy:
				r = 1
			}
		}
	}

	if x.neg {
		r = -r
	}
	return r
}

// Compare orders the binary values at offA in binA and offB in binB.  Numbers
// compare by value, strings and keys bytewise, false before true, and null
// equals null.  Other pairs, including containers, return ErrIncomparable.
func Compare(binA []byte, offA int, binB []byte, offB int) (int, error) {
	ta, tb := Type(binA, offA), Type(binB, offB)
	switch {
	case ta == TagNull && tb == TagNull:
		return 0, nil
	case isBool(ta) && isBool(tb):
		return int(ta) - int(tb), nil
	case ta == TagNumber && tb == TagNumber:
		return CompareNumbers(Payload(binA, offA), Payload(binB, offB)), nil
	case isText(ta) && isText(tb):
		return bytes.Compare(Payload(binA, offA), Payload(binB, offB)), nil
	}
	return 0, fmt.Errorf("compare 0x%02x with 0x%02x: %w", ta, tb, ErrIncomparable)
}

func isBool(t byte) bool { return t == TagFalse || t == TagTrue }

func isText(t byte) bool { return t == TagString || t == TagKey }
