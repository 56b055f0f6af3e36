// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jsb

import (
	"errors"
	"fmt"
)

// ParseError records a JSON grammar error found while converting to binary,
// or a malformed tag found while converting back.  Offset is the number of
// input bytes consumed by the stream when the error was detected, including
// the offending byte.
type ParseError struct {
	Offset int64
	Char   byte
	EOF    bool
	msg    string
}

func (pe *ParseError) Error() string {
	if pe.EOF {
		return fmt.Sprintf("parse error: %s at end of input (offset %d)", pe.msg, pe.Offset)
	}
	return fmt.Sprintf("parse error: %s on byte %s at offset %d", pe.msg, quoteChar(pe.Char), pe.Offset)
}

func quoteChar(ch byte) string {
	if ch >= 0x20 && ch < 0x7f {
		return fmt.Sprintf("'%c'", ch)
	}
	return fmt.Sprintf("0x%02x", ch)
}

var (
	// ErrNeedInput is returned by Update when the current input window is
	// exhausted.  Declare the next window with SetSrcLen, or zero for end of
	// input.
	ErrNeedInput = errors.New("jsb: need more input")

	// ErrNeedOutput is returned by Update when the output window is full.
	// Release bytes with Consume or grow the window with Resize.
	ErrNeedOutput = errors.New("jsb: output window full")

	// ErrProtocol reports out-of-sequence use of the streaming interface.
	// It poisons the stream like a parse error.
	ErrProtocol = errors.New("jsb: protocol misuse")

	// ErrShortDst is returned by Convert when dst cannot hold the output.
	ErrShortDst = errors.New("jsb: destination too short")

	// ErrInvalidValue is returned by traversal functions for an offset that
	// does not hold a value tag.
	ErrInvalidValue = errors.New("jsb: invalid value")

	// ErrNotObject is returned when an object was required.
	ErrNotObject = errors.New("jsb: not an object")

	// ErrIncomparable is returned by Compare for containers or values of
	// different classes.
	ErrIncomparable = errors.New("jsb: values are not comparable")
)
