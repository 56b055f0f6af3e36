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

func TestCompareNumbers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b   string
		expect int
	}{
		{"0", "-0", 0},
		{"-0.0e5", "0", 0},
		{"1.2", "1.20", 0},
		{"3e4", "30000", 0},
		{"1e+2", "100", 0},
		{"0.001", "1e-3", 0},
		{"0.5", "5e-1", 0},
		{"123.456e2", "12345.6", 0},
		{"5.6e-7", "0.00000056", 0},
		{"-1", "0", -1},
		{"0", "1", -1},
		{"-1", "1", -1},
		{"-2", "-1", -1},
		{"99", "100", -1},
		{"1.5", "1.25", 1},
		{"10", "9", 1},
		{"1e100", "9e99", 1},
		{"-1e100", "-9e99", -1},
		{"1e-1000000000000000000000", "0", 1},
		{"-1e-1000000000000000000000", "0", -1},
		{"1e1000000000000000000000", "1e999999999999999999999", 1},
		{"1e1000000000000000000000", "10e999999999999999999999", 0},
		{"-5e-1000000000000000000001", "-1e-1000000000000000000000", 1},
	}
	for _, c := range cases {
		if got := CompareNumbers([]byte(c.a), []byte(c.b)); got != c.expect {
			t.Errorf("%s vs %s: got %d, expect %d", c.a, c.b, got, c.expect)
		}
		if got := CompareNumbers([]byte(c.b), []byte(c.a)); got != -c.expect {
			t.Errorf("%s vs %s: got %d, expect %d", c.b, c.a, got, -c.expect)
		}
	}
}

func TestCompareNumbersOrdering(t *testing.T) {
	t.Parallel()

	// ascending, with equal neighbours grouped
	ladder := [][]string{
		{"-1e30"},
		{"-100", "-1e2"},
		{"-1.5"},
		{"-1", "-1.000"},
		{"-0.0001"},
		{"0", "-0", "0.0e10"},
		{"1e-30"},
		{"0.5"},
		{"1", "1.0", "10e-1"},
		{"2"},
		{"1e30"},
	}
	for i, group := range ladder {
		for j, other := range ladder {
			for _, a := range group {
				for _, b := range other {
					expect := 0
					switch {
					case i < j:
						expect = -1
					case i > j:
						expect = 1
					}
					if got := CompareNumbers([]byte(a), []byte(b)); got != expect {
						t.Errorf("%s vs %s: got %d, expect %d", a, b, got, expect)
					}
				}
			}
		}
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	obj := mustLoad(t, `{"a":1}`)
	cases := []struct {
		a, b   string
		expect int
	}{
		{`null`, `null`, 0},
		{`false`, `true`, -1},
		{`true`, `false`, 1},
		{`true`, `true`, 0},
		{`"a"`, `"b"`, -1},
		{`"b"`, `"ab"`, 1},
		{`"é"`, `"z"`, 1},
		{`"x"`, `"x"`, 0},
		{`2.50`, `2.5`, 0},
		{`-3`, `2`, -1},
	}
	for _, c := range cases {
		got, err := Compare(mustLoad(t, c.a), 0, mustLoad(t, c.b), 0)
		if err != nil {
			t.Errorf("%s vs %s: unexpected error: %v", c.a, c.b, err)
			continue
		}
		if sign(got) != c.expect {
			t.Errorf("%s vs %s: got %d, expect sign %d", c.a, c.b, got, c.expect)
		}
	}

	// a key compares with a string of the same text
	if got, err := Compare(obj, 1, mustLoad(t, `"a"`), 0); err != nil || got != 0 {
		t.Errorf("key vs string: got (%d, %v)", got, err)
	}

	incomparable := [][2]string{
		{`[]`, `[]`},
		{`{}`, `{}`},
		{`null`, `false`},
		{`1`, `"1"`},
		{`true`, `1`},
	}
	for _, c := range incomparable {
		if _, err := Compare(mustLoad(t, c[0]), 0, mustLoad(t, c[1]), 0); !errors.Is(err, ErrIncomparable) {
			t.Errorf("%s vs %s: expected ErrIncomparable, got %v", c[0], c[1], err)
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
