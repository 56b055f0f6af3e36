// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package jsb is a streaming converter between JSON text and a compact
// tagged binary form, with functions to query the binary form in place.
//
// Binary format
//
// Every value starts with a one-byte tag from the range 0xf5-0xff, a range
// that never occurs in UTF-8 text.  Numbers, strings and object keys carry
// their text as a payload that runs until the next tag; strings are stored
// unescaped.  Containers are closed by their own end tag, and each top-level
// document is followed by a document-end tag:
//
//	{"a":1,"b":[true,null]}  =>  f5 fc 'a' fa '1' fc 'b' f6 f9 f7 fe fd ff
//
// Number text is kept as written except that exponents are canonicalized:
// "e" is lower case, a "+" sign and leading zeros are dropped.
//
// Streaming
//
// A Transcoder converts in either direction over caller-owned input and
// output windows of any size, down to a single byte.  It suspends with
// ErrNeedInput or ErrNeedOutput and resumes exactly where it stopped, so
// input never has to be held in memory at once.  Convert and Append wrap a
// Transcoder for in-memory use; Decoder and Reader wrap one around an
// io.Reader.
//
// JSON input is validated strictly (RFC 8259 grammar, UTF-8 well-formedness,
// escape and surrogate rules, a nesting limit).  Binary input is trusted and
// only checked enough to avoid misbehaving.
//
// Traversal
//
// Type, Size, Count, ArrayGet, ObjectGet, Payload and Bool navigate a binary
// buffer by offset without decoding it.  An Index built by Analyze caches the
// sizes of the largest values so that repeated traversal of big containers
// is cheap.  Match finds many keys of an object in one scan, and Compare and
// CompareNumbers order scalar values, numbers by exact decimal value.
//
// AppendBSON converts a binary object to a BSON document.
package jsb
