// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jsb

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// AppendBSON converts the binary object at off to a BSON document and
// appends it to dst.
//
// Integers become int32 when they fit, else int64, else Decimal128.  Other
// numbers become doubles, or Decimal128 when they are out of double range.
// Keys must not contain NUL bytes.
func AppendBSON(dst, bin []byte, off int, idx *Index) ([]byte, error) {
	if Type(bin, off) != TagObject {
		return nil, fmt.Errorf("bson: %w", ErrNotObject)
	}
	start, dst := bsoncore.AppendDocumentStart(dst)
	dst, err := appendMembers(dst, bin, off, idx)
	if err != nil {
		return nil, err
	}
	return bsoncore.AppendDocumentEnd(dst, start)
}

func appendMembers(dst, bin []byte, off int, idx *Index) ([]byte, error) {
	pos := off + 1
	for at(bin, pos) == TagKey {
		key := Payload(bin, pos)
		if bytes.IndexByte(key, 0) >= 0 {
			return nil, fmt.Errorf("bson: key at offset %d contains a NUL byte", pos)
		}
		pos += len(key) + 1

		var err error
		dst, err = appendElement(dst, string(key), bin, pos, idx)
		if err != nil {
			return nil, err
		}
		size := Size(bin, pos, idx)
		if size == 0 {
			return nil, fmt.Errorf("bson: %w at offset %d", ErrInvalidValue, pos)
		}
		pos += size
	}
	if at(bin, pos) != TagObjectEnd {
		return nil, fmt.Errorf("bson: %w: expecting key at offset %d", ErrInvalidValue, pos)
	}
	return dst, nil
}

func appendElement(dst []byte, key string, bin []byte, pos int, idx *Index) ([]byte, error) {
	var err error
	switch Type(bin, pos) {
	case TagNull:
		return bsoncore.AppendNullElement(dst, key), nil
	case TagFalse:
		return bsoncore.AppendBooleanElement(dst, key, false), nil
	case TagTrue:
		return bsoncore.AppendBooleanElement(dst, key, true), nil
	case TagString:
		return bsoncore.AppendStringElement(dst, key, string(Payload(bin, pos))), nil
	case TagNumber:
		return appendNumber(dst, key, Payload(bin, pos))
	case TagObject:
		var start int32
		start, dst = bsoncore.AppendDocumentElementStart(dst, key)
		if dst, err = appendMembers(dst, bin, pos, idx); err != nil {
			return nil, err
		}
		return bsoncore.AppendDocumentEnd(dst, start)
	case TagArray:
		var start int32
		start, dst = bsoncore.AppendArrayElementStart(dst, key)
		p := pos + 1
		for i := 0; at(bin, p) != TagArrayEnd; i++ {
			if dst, err = appendElement(dst, strconv.Itoa(i), bin, p, idx); err != nil {
				return nil, err
			}
			size := Size(bin, p, idx)
			if size == 0 {
				return nil, fmt.Errorf("bson: %w at offset %d", ErrInvalidValue, p)
			}
			p += size
		}
		return bsoncore.AppendArrayEnd(dst, start)
	}
	return nil, fmt.Errorf("bson: %w at offset %d", ErrInvalidValue, pos)
}

func appendNumber(dst []byte, key string, num []byte) ([]byte, error) {
	s := string(num)
	if bytes.IndexAny(num, ".e") < 0 {
		n, err := strconv.ParseInt(s, 10, 64)
		switch {
		case err == nil && int64(int32(n)) == n:
			return bsoncore.AppendInt32Element(dst, key, int32(n)), nil
		case err == nil:
			return bsoncore.AppendInt64Element(dst, key, n), nil
		}
		return appendDecimal(dst, key, s, err)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return appendDecimal(dst, key, s, err)
	}
	return bsoncore.AppendDoubleElement(dst, key, f), nil
}

// appendDecimal stores numbers that overflow int64 or double.
func appendDecimal(dst []byte, key, s string, cause error) ([]byte, error) {
	if !errors.Is(cause, strconv.ErrRange) {
		return nil, fmt.Errorf("bson: number conversion: %w", cause)
	}
	d128, err := primitive.ParseDecimal128(s)
	if err != nil {
		return nil, fmt.Errorf("bson: number %q out of range: %v", s, err)
	}
	return bsoncore.AppendDecimal128Element(dst, key, d128), nil
}
