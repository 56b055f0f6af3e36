// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jsb

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/andreyvit/diff"
	"go.mongodb.org/mongo-driver/bson"
)

type convertTestCase struct {
	label  string
	input  string
	output string
	errStr string
}

// testLoad converts JSON input and compares against hex-encoded binary.
func testLoad(t *testing.T, cases []convertTestCase, flags Flags) {
	t.Helper()

	for _, c := range cases {
		c := c
		t.Run(c.label, func(t *testing.T) {
			t.Parallel()

			buf, err := Append(nil, []byte(c.input), flags)
			if c.errStr != "" {
				checkErrorContains(t, err, c.errStr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			expect := mustHex(t, c.output)
			if !bytes.Equal(expect, buf) {
				t.Fatalf("output doesn't match expected:\nGot:    %v\nExpect: %v", hex.EncodeToString(buf), strings.ToLower(c.output))
			}
		})
	}
}

// testDump converts hex-encoded binary input and compares against JSON text.
func testDump(t *testing.T, cases []convertTestCase, flags Flags) {
	t.Helper()

	for _, c := range cases {
		c := c
		t.Run(c.label, func(t *testing.T) {
			t.Parallel()

			buf, err := Append(nil, mustHex(t, c.input), flags|Reverse)
			if c.errStr != "" {
				checkErrorContains(t, err, c.errStr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(buf) != c.output {
				t.Fatalf("output doesn't match expected:\n%v", diff.LineDiff(c.output, string(buf)))
			}
		})
	}
}

func checkErrorContains(t *testing.T, err error, errStr string) {
	t.Helper()
	var got string
	if err != nil {
		got = err.Error()
	}
	if !strings.Contains(got, errStr) {
		t.Errorf("expected error with '%s', but got %v", errStr, got)
	}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	s = strings.ReplaceAll(strings.ToLower(s), " ", "")
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("error decoding test hex: %v", err)
	}
	return b
}

// mustLoad converts JSON text to binary or fails the test.
func mustLoad(t testing.TB, text string) []byte {
	t.Helper()
	bin, err := Append(nil, []byte(text), 0)
	if err != nil {
		t.Fatalf("error converting %q: %v", text, err)
	}
	return bin
}

// mustDump converts the binary value at off back to JSON text.  Values that
// are not at the start of bin are cut out with Size first.
func mustDump(t testing.TB, bin []byte, off int) string {
	t.Helper()
	size := Size(bin, off, nil)
	if size == 0 {
		t.Fatalf("no value at offset %d of %x", off, bin)
	}
	text, err := Append(nil, bin[off:off+size], Reverse)
	if err != nil {
		t.Fatalf("error converting %x back: %v", bin[off:off+size], err)
	}
	return string(text)
}

// streamConvert runs a Transcoder with fixed input and output window sizes,
// draining the output whenever it fills.  It returns the concatenated output
// and the per-document byte counts.
func streamConvert(src []byte, flags Flags, inSize, outSize int) ([]byte, []int, error) {
	t := NewTranscoder(outSize, flags)
	dst := make([]byte, outSize)
	var out []byte
	var docs []int
	var window []byte
	pos := 0

	for {
		n, err := t.Update(dst, window)
		switch err {
		case nil:
			docs = append(docs, n)
		case ErrNeedInput:
			end := pos + inSize
			if end > len(src) {
				end = len(src)
			}
			window = src[pos:end]
			pos = end
			if err = t.SetSrcLen(len(window)); err != nil {
				return nil, nil, err
			}
		case ErrNeedOutput:
			k := t.Consume(dst, -1)
			out = append(out, dst[:k]...)
		case io.EOF:
			k := t.Consume(dst, -1)
			return append(out, dst[:k]...), docs, nil
		default:
			return nil, nil, err
		}
	}
}

func getTestFiles(t *testing.T, dir, prefix, suffix string) []string {
	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	keep := make([]string, 0)
	for _, file := range files {
		name := file.Name()
		if prefix != "" {
			if !strings.HasPrefix(name, prefix) {
				continue
			}
		}
		if suffix != "" {
			if !strings.HasSuffix(name, suffix) {
				continue
			}
		}
		keep = append(keep, name)
	}

	return keep
}

func convertWithGoDriver(input []byte) ([]byte, error) {
	var got bson.Raw
	err := bson.UnmarshalExtJSON(input, false, &got)
	return got, err
}
