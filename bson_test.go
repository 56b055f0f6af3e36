// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jsb

import (
	"bytes"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// TestAppendBSONMatchesDriver compares against the driver's own conversion
// of the same JSON text.
func TestAppendBSONMatchesDriver(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{}`,
		`{"a":1}`,
		`{"null":null,"t":true,"f":false}`,
		`{"i32":2147483647,"neg":-2147483648}`,
		`{"i64":2147483648,"neg64":-9223372036854775808}`,
		`{"double":3.25,"exp":1e3,"negexp":-2.5e-3,"zero":0.0}`,
		`{"s":"hello","u":"é☆😀","empty":""}`,
		`{"arr":[1,"two",[3],{"four":4}],"empty":[]}`,
		`{"nested":{"deeper":{"deepest":[true,null]}}}`,
		subsObject(),
	}

	for _, input := range inputs {
		input := input
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			bin := mustLoad(t, input)
			got, err := AppendBSON(nil, bin, 0, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			expect, err := convertWithGoDriver([]byte(input))
			if err != nil {
				t.Fatalf("driver error: %v", err)
			}
			if !bytes.Equal(got, expect) {
				t.Fatalf("BSON mismatch:\nGot:    %v\nExpect: %v", bson.Raw(got), bson.Raw(expect))
			}

			idx, err := Analyze(bin, 0, 4, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			withIndex, err := AppendBSON(nil, bin, 0, idx)
			if err != nil || !bytes.Equal(withIndex, got) {
				t.Fatalf("indexed conversion differs: %v", err)
			}
		})
	}
}

func TestAppendBSONDecimal(t *testing.T) {
	t.Parallel()

	bin := mustLoad(t, `{"bigint":123456789012345678901234567890,"bigexp":1e400}`)
	got, err := AppendBSON(nil, bin, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := bsoncore.Document(got)
	for _, key := range []string{"bigint", "bigexp"} {
		if v := doc.Lookup(key); v.Type != bsontype.Decimal128 {
			t.Errorf("%s: got type %v, expect Decimal128", key, v.Type)
		}
	}
}

func TestAppendBSONAppends(t *testing.T) {
	t.Parallel()

	first := mustLoad(t, `{"a":1}`)
	second := mustLoad(t, `{"b":"x"}`)
	buf, err := AppendBSON(nil, first, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	n := len(buf)
	buf, err = AppendBSON(buf, second, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err = bsoncore.Document(buf[n:]).Validate(); err != nil {
		t.Fatalf("second document invalid: %v", err)
	}
	if v := bsoncore.Document(buf[n:]).Lookup("b"); v.StringValue() != "x" {
		t.Fatalf("second document: got %v", v)
	}
}

func TestAppendBSONErrors(t *testing.T) {
	t.Parallel()

	if _, err := AppendBSON(nil, mustLoad(t, `[1]`), 0, nil); !errors.Is(err, ErrNotObject) {
		t.Errorf("expected ErrNotObject, got %v", err)
	}
	_, err := AppendBSON(nil, mustLoad(t, `{"a\u0000b":1}`), 0, nil)
	checkErrorContains(t, err, "NUL")
	if _, err := AppendBSON(nil, mustHex(t, "f5fc61fa31"), 0, nil); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for truncated object, got %v", err)
	}
}
