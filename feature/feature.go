// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package feature provides n-gram feature extraction for approximate string
// matching. Extractors turn a string into a sorted set of interned feature
// handles; repeated n-grams are disambiguated by an occurrence suffix so
// that the result is a true set.
package feature

import (
	"slices"
	"strconv"
	"strings"

	"github.com/kortschak/nearset/intern"
)

// An Extractor produces the feature handle set for a text, interning each
// feature via it. The returned slice is sorted ascending by handle and
// contains no duplicates.
type Extractor interface {
	Features(text string, it *intern.Interner) []intern.Handle
}

// Char extracts character n-grams over Unicode code points. The text is
// padded on each side with Marker repeated N-1 times, so an empty text
// still yields the N-1 pure-padding windows when N is at least two.
type Char struct {
	N      int
	Marker string
}

// Features implements the Extractor interface.
func (c Char) Features(text string, it *intern.Interner) []intern.Handle {
	if c.N <= 0 {
		return nil
	}
	pad := strings.Repeat(c.Marker, c.N-1)
	runes := []rune(pad + text + pad)
	if len(runes) < c.N {
		return nil
	}
	raw := make([]string, 0, len(runes)-c.N+1)
	for i := 0; i+c.N <= len(runes); i++ {
		raw = append(raw, string(runes[i:i+c.N]))
	}
	return suffixCounts(raw, it)
}

// Word extracts word n-grams. The text is split on Splitter keeping empty
// tokens, the token list is sandwiched with one Padder at each end, and
// windows of N consecutive tokens are joined by a single space. Fewer than
// N padded tokens yield no features.
type Word struct {
	N        int
	Splitter string
	Padder   string
}

// Features implements the Extractor interface.
func (w Word) Features(text string, it *intern.Interner) []intern.Handle {
	if w.N <= 0 {
		return nil
	}
	tokens := strings.Split(text, w.Splitter)
	padded := make([]string, 0, len(tokens)+2)
	padded = append(padded, w.Padder)
	padded = append(padded, tokens...)
	padded = append(padded, w.Padder)
	if len(padded) < w.N {
		return nil
	}
	raw := make([]string, 0, len(padded)-w.N+1)
	for i := 0; i+w.N <= len(padded); i++ {
		raw = append(raw, strings.Join(padded[i:i+w.N], " "))
	}
	return suffixCounts(raw, it)
}

// suffixCounts appends the occurrence number to each raw feature in order,
// making the k-th occurrence of f distinct from the others, interns the
// results and returns the handles sorted ascending.
func suffixCounts(raw []string, it *intern.Interner) []intern.Handle {
	counts := make(map[string]int, len(raw))
	handles := make([]intern.Handle, 0, len(raw))
	for _, f := range raw {
		counts[f]++
		handles = append(handles, it.Intern(f+strconv.Itoa(counts[f])))
	}
	slices.Sort(handles)
	return handles
}
