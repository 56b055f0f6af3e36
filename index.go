// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package jsb

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
)

// record describes one indexed value: its offset in the buffer, its total
// size and its count as returned by Count.
type record struct {
	off   int
	size  int
	count int
}

// Index holds precomputed sizes and counts for the largest values of a
// binary document.  Traversal functions accept an optional *Index; results
// are the same with or without it, only faster on large containers.
type Index struct {
	records []record
	depth   int
}

// Len returns the number of records in the index.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.records) - 1
}

// Depth returns the deepest nesting of non-empty containers seen by Analyze.
func (idx *Index) Depth() int {
	if idx == nil {
		return 0
	}
	return idx.depth
}

// Lookup returns the size and count recorded for the value at off.
func (idx *Index) Lookup(off int) (size, count int, ok bool) {
	if idx == nil || len(idx.records) < 2 {
		return 0, 0, false
	}
	// the sentinel at math.MaxInt keeps the search result in range
	i := sort.Search(len(idx.records), func(i int) bool { return idx.records[i].off >= off })
	r := idx.records[i]
	if r.off != off {
		return 0, 0, false
	}
	return r.size, r.count, true
}

// bySize is a min-heap ordered by (size, count), so the root is the first
// record to give up its slot.
type bySize []record

func (h bySize) Len() int { return len(h) }
func (h bySize) Less(i, j int) bool {
	if h[i].size != h[j].size {
		return h[i].size < h[j].size
	}
	return h[i].count < h[j].count
}
func (h bySize) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *bySize) Push(x interface{}) { *h = append(*h, x.(record)) }
func (h *bySize) Pop() interface{} {
	old := *h
	r := old[len(old)-1]
	*h = old[:len(old)-1]
	return r
}

type analyzer struct {
	bin      []byte
	capacity int
	minSize  int
	heap     bySize
	depth    int
}

// frame is an open non-empty container during the walk.
type frame struct {
	rec record
	end byte
}

// Analyze walks the value at off once and keeps up to capacity records for
// the largest values of at least minSize bytes, preferring larger sizes and
// then larger counts.
func Analyze(bin []byte, off, capacity, minSize int) (*Index, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("analyze: negative capacity %d", capacity)
	}
	// no buffer holds more values than bytes
	a := analyzer{
		bin:      bin,
		capacity: capacity,
		minSize:  minSize,
		heap:     make(bySize, 0, min(capacity, len(bin))),
	}
	if _, err := a.walk(off); err != nil {
		return nil, err
	}

	records := make([]record, len(a.heap), len(a.heap)+1)
	copy(records, a.heap)
	sort.Slice(records, func(i, j int) bool { return records[i].off < records[j].off })
	records = append(records, record{off: math.MaxInt})
	return &Index{records: records, depth: a.depth}, nil
}

// walk indexes the value at off and returns the offset just past it.  Open
// containers are kept on an explicit stack, so nesting depth is bounded only
// by memory.
func (a *analyzer) walk(off int) (int, error) {
	var stack []frame
	for {
		if n := len(stack); n > 0 {
			if stack[n-1].end == TagObjectEnd {
				if at(a.bin, off) != TagKey {
					return 0, fmt.Errorf("analyze: %w: expecting key at offset %d", ErrInvalidValue, off)
				}
				key := record{off: off}
				key.count, off = countCodepoints(a.bin, off+1)
				a.finish(key, off)
			}
			if !isValueTag(at(a.bin, off)) || at(a.bin, off) == TagKey {
				return 0, fmt.Errorf("analyze: %w: expecting value at offset %d", ErrInvalidValue, off)
			}
		}

		r := record{off: off}
		tag := at(a.bin, off)
		off++
		switch tag {
		case TagNull, TagFalse, TagTrue:
		case TagNumber, TagString, TagKey:
			r.count, off = countCodepoints(a.bin, off)
			a.finish(r, off)
		case TagObject, TagArray:
			end := tag ^ xorEnd
			if at(a.bin, off) != end {
				stack = append(stack, frame{rec: r, end: end})
				if len(stack) > a.depth {
					a.depth = len(stack)
				}
				continue
			}
			off++
			a.finish(r, off)
		default:
			return 0, fmt.Errorf("analyze: %w: tag 0x%02x at offset %d", ErrInvalidValue, tag, r.off)
		}

		// a value is complete: credit it to its container and close every
		// container that ends here
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			top.rec.count++
			if at(a.bin, off) != top.end {
				break
			}
			off++
			a.finish(top.rec, off)
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			return off, nil
		}
	}
}

// finish records r, which ends just before off, if it is large enough.
func (a *analyzer) finish(r record, off int) {
	r.size = off - r.off
	if r.size >= a.minSize {
		a.insert(r)
	}
}

func (a *analyzer) insert(r record) {
	if a.capacity == 0 {
		return
	}
	if len(a.heap) < a.capacity {
		heap.Push(&a.heap, r)
		return
	}
	root := a.heap[0]
	if r.size > root.size || (r.size == root.size && r.count > root.count) {
		a.heap[0] = r
		heap.Fix(&a.heap, 0)
	}
}

// countCodepoints counts the UTF-8 code points of the payload starting at off
// and returns the offset of the tag that ends it.
func countCodepoints(bin []byte, off int) (int, int) {
	n := 0
	for b := at(bin, off); !isTag(b); b = at(bin, off) {
		if !isContinuation(b) {
			n++
		}
		off++
	}
	return n, off
}
