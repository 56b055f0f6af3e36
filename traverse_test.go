// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jsb

import (
	"errors"
	"testing"
)

// subs pairs object keys with the JSON text of their values.
var subs = []struct {
	key   string
	value string
}{
	{"null", `null`},
	{"false", `false`},
	{"true", `true`},
	{"number", `3.14159`},
	{"string", `"foo"`},
	{"empty_arr", `[]`},
	{"empty_obj", `{}`},
	{"complex_arr", `[0,"abc",{},true,""]`},
	{"complex_obj", `{"abc":[1,false,null,[]]}`},
}

func subsObject() string {
	text := "{"
	for i, s := range subs {
		if i > 0 {
			text += ","
		}
		text += `"` + s.key + `":` + s.value
	}
	return text + "}"
}

func subsArray() string {
	text := "["
	for i, s := range subs {
		if i > 0 {
			text += ","
		}
		text += s.value
	}
	return text + "]"
}

func TestObjectGet(t *testing.T) {
	t.Parallel()

	bin := mustLoad(t, subsObject())
	for _, s := range subs {
		off := ObjectGet(bin, 0, nil, []byte(s.key))
		if off == 0 {
			t.Errorf("key %q not found", s.key)
			continue
		}
		if got := mustDump(t, bin, off); got != s.value {
			t.Errorf("key %q: got %s, expect %s", s.key, got, s.value)
		}
	}

	if off := ObjectGet(bin, 0, nil, []byte("missing")); off != 0 {
		t.Errorf("missing key found at offset %d", off)
	}
	if off := ObjectGet(bin, 0, nil, []byte("nul")); off != 0 {
		t.Errorf("key prefix found at offset %d", off)
	}

	small := mustLoad(t, `{"foo":1,"bar":2}`)
	if got := mustDump(t, small, ObjectGet(small, 0, nil, []byte("bar"))); got != "2" {
		t.Errorf("bar: got %s, expect 2", got)
	}

	dup := mustLoad(t, `{"a":1,"a":2}`)
	if got := mustDump(t, dup, ObjectGet(dup, 0, nil, []byte("a"))); got != "1" {
		t.Errorf("duplicate key: got %s, expect first value 1", got)
	}

	arr := mustLoad(t, `[1]`)
	if off := ObjectGet(arr, 0, nil, []byte("a")); off != 0 {
		t.Errorf("array treated as object, got offset %d", off)
	}
}

func TestArrayGet(t *testing.T) {
	t.Parallel()

	bin := mustLoad(t, subsArray())
	for i, s := range subs {
		off := ArrayGet(bin, 0, nil, i)
		if off == 0 {
			t.Errorf("element %d not found", i)
			continue
		}
		if got := mustDump(t, bin, off); got != s.value {
			t.Errorf("element %d: got %s, expect %s", i, got, s.value)
		}
	}
	if off := ArrayGet(bin, 0, nil, len(subs)); off != 0 {
		t.Errorf("element past the end found at offset %d", off)
	}
	if off := ArrayGet(bin, 0, nil, -1); off != 0 {
		t.Errorf("negative element found at offset %d", off)
	}

	small := mustLoad(t, `[4,[],5]`)
	for i, expect := range []int{1, 3, 5} {
		if off := ArrayGet(small, 0, nil, i); off != expect {
			t.Errorf("element %d: got offset %d, expect %d", i, off, expect)
		}
	}
}

func TestCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		count int
	}{
		{`null`, 0},
		{`true`, 0},
		{`[]`, 0},
		{`{}`, 0},
		{`[4,[],5]`, 3},
		{`{"foo":1,"bar":2}`, 2},
		{`[[1,2,3]]`, 1},
		{`"abc"`, 3},
		{`"é☆😀"`, 3},
		{`-12.5e3`, 7},
		{`""`, 0},
	}
	for _, c := range cases {
		bin := mustLoad(t, c.input)
		n, err := Count(bin, 0, nil)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", c.input, err)
			continue
		}
		if n != c.count {
			t.Errorf("%s: got %d, expect %d", c.input, n, c.count)
		}
	}

	if _, err := Count(mustHex(t, "ff"), 0, nil); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if _, err := Count(mustHex(t, "f6fa31"), 0, nil); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for unterminated array, got %v", err)
	}
}

func TestSize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		label string
		input string
		off   int
		size  int
	}{
		{"literal", "f9ff", 0, 1},
		{"string", "fb616263ff", 0, 4},
		{"empty string", "fbff", 0, 1},
		{"nested array", "f6fa31f6fa32fefeff", 0, 7},
		{"inner array", "f6fa31f6fa32fefeff", 3, 4},
		{"empty object", "f5fdff", 0, 2},
		{"document end", "f9ff", 1, 0},
		{"closer", "f6fe", 1, 0},
		{"out of range", "f9", 5, 0},
		{"negative offset", "f9", -1, 0},
		{"unterminated", "f6fa31", 0, 0},
		{"unterminated by document end", "f6fa31ff", 0, 0},
		{"unterminated payload", "fa31", 0, 2},
	}
	for _, c := range cases {
		if got := Size(mustHex(t, c.input), c.off, nil); got != c.size {
			t.Errorf("%s: got %d, expect %d", c.label, got, c.size)
		}
	}
}

func TestBool(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input  string
		expect bool
	}{
		{`null`, false},
		{`false`, false},
		{`true`, true},
		{`""`, false},
		{`"0"`, true},
		{`[]`, false},
		{`[0]`, true},
		{`{}`, false},
		{`{"":null}`, true},
		{`0`, false},
		{`-0`, false},
		{`-0.000e5`, false},
		{`0e7`, false},
		{`0.001`, true},
		{`1e-5`, true},
		{`-3`, true},
	}
	for _, c := range cases {
		got, err := Bool(mustLoad(t, c.input), 0)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", c.input, err)
			continue
		}
		if got != c.expect {
			t.Errorf("%s: got %v, expect %v", c.input, got, c.expect)
		}
	}

	if _, err := Bool(mustHex(t, "fe"), 0); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestTypeAndPayload(t *testing.T) {
	t.Parallel()

	bin := mustLoad(t, `{"k":-1.5}`)
	expect := []struct {
		off     int
		tag     byte
		payload string
	}{
		{0, TagObject, ""},
		{1, TagKey, "k"},
		{3, TagNumber, "-1.5"},
		{8, 0, ""},
		{9, 0, ""},
		{100, 0, ""},
	}
	for _, e := range expect {
		if got := Type(bin, e.off); got != e.tag {
			t.Errorf("Type at %d: got 0x%02x, expect 0x%02x", e.off, got, e.tag)
		}
		if got := string(Payload(bin, e.off)); got != e.payload {
			t.Errorf("Payload at %d: got %q, expect %q", e.off, got, e.payload)
		}
	}
	if Payload(mustLoad(t, `null`), 0) != nil {
		t.Error("null has a payload")
	}
}
