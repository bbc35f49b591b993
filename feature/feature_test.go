// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package feature

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/nearset/intern"
)

// resolved returns the feature strings for text in handle order.
func resolved(t *testing.T, x Extractor, text string) []string {
	t.Helper()
	in := intern.New()
	handles := x.Features(text, in)
	strs := make([]string, len(handles))
	for i, h := range handles {
		strs[i] = in.Resolve(h)
	}
	return strs
}

func TestCharFeatures(t *testing.T) {
	tests := []struct {
		text   string
		n      int
		marker string
		want   []string
	}{
		{text: "abab", n: 2, marker: "$", want: []string{"$a1", "ab1", "ba1", "ab2", "b$1"}},
		{text: "aaaa", n: 2, marker: "$", want: []string{"$a1", "aa1", "aa2", "aa3", "a$1"}},
		{text: "", n: 2, marker: "$", want: []string{"$$1"}},
		{text: "hi", n: 3, marker: "$", want: []string{"$$h1", "$hi1", "hi$1", "i$$1"}},
		{text: "ab", n: 1, marker: "$", want: []string{"a1", "b1"}},
		{text: "", n: 1, marker: "$", want: nil},
		{text: "anything", n: 0, marker: "$", want: nil},
		{text: "日本語", n: 2, marker: "$", want: []string{"$日1", "日本1", "本語1", "語$1"}},
	}
	for _, test := range tests {
		got := resolved(t, Char{N: test.n, Marker: test.marker}, test.text)
		assert.ElementsMatch(t, test.want, got, "extract(%q, n=%d, %q)", test.text, test.n, test.marker)
	}
}

func TestWordFeatures(t *testing.T) {
	tests := []struct {
		text     string
		n        int
		splitter string
		padder   string
		want     []string
	}{
		{
			text: "the quick brown", n: 2, splitter: " ", padder: "$",
			want: []string{"$ the1", "the quick1", "quick brown1", "brown $1"},
		},
		// Empty tokens from adjacent splitters are kept.
		{
			text: "a  b", n: 2, splitter: " ", padder: "$",
			want: []string{"$ a1", "a 1", " b1", "b $1"},
		},
		{
			text: "to be or not to be", n: 2, splitter: " ", padder: "$",
			want: []string{"$ to1", "to be1", "be or1", "or not1", "not to1", "to be2", "be $1"},
		},
		// Too few padded tokens for a window.
		{text: "one", n: 4, splitter: " ", padder: "$", want: nil},
		{text: "ignored", n: 0, splitter: " ", padder: "$", want: nil},
	}
	for _, test := range tests {
		got := resolved(t, Word{N: test.n, Splitter: test.splitter, Padder: test.padder}, test.text)
		assert.ElementsMatch(t, test.want, got, "extract(%q, n=%d)", test.text, test.n)
	}
}

func TestFeaturesAreASortedSet(t *testing.T) {
	in := intern.New()
	for _, text := range []string{"abab", "aaaa", "mississippi", ""} {
		handles := Char{N: 2, Marker: "$"}.Features(text, in)
		require.True(t, slices.IsSorted(handles), "features of %q not sorted", text)
		dedup := slices.Compact(slices.Clone(handles))
		assert.Len(t, handles, len(dedup), "features of %q contain duplicates", text)
	}
}

func TestExtractionIsStable(t *testing.T) {
	// The same text, including texts with repeated bigrams, extracted on
	// fresh interners yields the same feature strings.
	for _, text := range []string{"abab", "banana", "a a a"} {
		first := resolved(t, Char{N: 2, Marker: "$"}, text)
		second := resolved(t, Char{N: 2, Marker: "$"}, text)
		assert.ElementsMatch(t, first, second)
	}
}

func TestSharedInternerAgreesAcrossStrings(t *testing.T) {
	// Equal feature strings yield equal handles regardless of which text
	// produced them first.
	in := intern.New()
	x := Char{N: 2, Marker: "$"}
	foo := x.Features("foo", in)
	fooo := x.Features("fooo", in)

	h, ok := in.Get("fo1")
	require.True(t, ok)
	assert.Contains(t, foo, h)
	assert.Contains(t, fooo, h)

	// oo2 occurs only in the longer string.
	h, ok = in.Get("oo2")
	require.True(t, ok)
	assert.NotContains(t, foo, h)
	assert.Contains(t, fooo, h)
}
