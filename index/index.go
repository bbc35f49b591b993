// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package index provides the size-partitioned inverted index at the heart
// of approximate string search. Strings are reduced to feature handle sets
// and posted into buckets keyed by feature count, so the searcher can bound
// the candidate sizes it visits.
package index

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/biogo/store/llrb"
	"gonum.org/v1/gonum/stat"

	"github.com/kortschak/nearset/feature"
	"github.com/kortschak/nearset/intern"
)

// bucket holds the posting sets for all strings with the same feature
// count. Buckets order by size in the index's partition tree.
type bucket struct {
	size     int
	postings map[intern.Handle]*roaring.Bitmap
}

func (b *bucket) Compare(c llrb.Comparable) int {
	return b.size - c.(*bucket).size
}

// Index is an in-memory inverted index over feature handle sets. Building
// is single-owner and must not overlap searching; once built, an Index may
// be shared by any number of concurrent searches. The interner is the only
// state mutated during search and is guarded by the Index's lock, held
// only while extracting features.
type Index struct {
	extractor feature.Extractor

	mu       sync.Mutex
	interner *intern.Interner

	strings  []string
	features [][]intern.Handle
	sizes    llrb.Tree
}

// New returns an empty Index extracting features with x.
func New(x feature.Extractor) *Index {
	return &Index{extractor: x, interner: intern.New()}
}

// Insert adds text to the index. The string is assigned the next id in
// insertion order and its feature set is posted into the bucket for the
// set's size. Insert is not safe for concurrent use.
func (ix *Index) Insert(text string) {
	feats := ix.Features(text)
	id := uint32(len(ix.strings))
	ix.strings = append(ix.strings, text)
	ix.features = append(ix.features, feats)

	b := ix.bucketFor(len(feats))
	for _, h := range feats {
		bm, ok := b.postings[h]
		if !ok {
			bm = roaring.New()
			b.postings[h] = bm
		}
		bm.Add(id)
	}
}

// bucketFor returns the bucket for size, creating it if needed.
func (ix *Index) bucketFor(size int) *bucket {
	if got := ix.sizes.Get(&bucket{size: size}); got != nil {
		return got.(*bucket)
	}
	b := &bucket{size: size, postings: make(map[intern.Handle]*roaring.Bitmap)}
	ix.sizes.Insert(b)
	return b
}

// Features extracts the feature handle set for text under the interner
// lock. It is used by Insert and by the searcher's query pre-pass.
func (ix *Index) Features(text string) []intern.Handle {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.extractor.Features(text, ix.interner)
}

// Clear empties the string table, the feature cache, the inverted index
// and the interner.
func (ix *Index) Clear() {
	ix.mu.Lock()
	ix.interner.Clear()
	ix.mu.Unlock()
	ix.strings = nil
	ix.features = nil
	ix.sizes = llrb.Tree{}
}

// Len returns the number of indexed strings.
func (ix *Index) Len() int {
	return len(ix.strings)
}

// Lookup returns the set of string ids whose feature sets have the given
// size and contain h, or nil when there is none. The returned bitmap is
// owned by the index and must not be mutated.
func (ix *Index) Lookup(size int, h intern.Handle) *roaring.Bitmap {
	got := ix.sizes.Get(&bucket{size: size})
	if got == nil {
		return nil
	}
	return got.(*bucket).postings[h]
}

// GetString returns the text for id and whether id is in the index.
func (ix *Index) GetString(id int) (string, bool) {
	if id < 0 || id >= len(ix.strings) {
		return "", false
	}
	return ix.strings[id], true
}

// GetFeatures returns the cached feature set for id and whether id is in
// the index. The returned slice is owned by the index and must not be
// mutated.
func (ix *Index) GetFeatures(id int) ([]intern.Handle, bool) {
	if id < 0 || id >= len(ix.features) {
		return nil, false
	}
	return ix.features[id], true
}

// MaxFeatureLen returns the largest feature count of any indexed string,
// or 0 when the index is empty.
func (ix *Index) MaxFeatureLen() int {
	if ix.sizes.Len() == 0 {
		return 0
	}
	return ix.sizes.Max().(*bucket).size
}

// SizesWithin returns the occupied bucket sizes in [lo, hi], ascending.
func (ix *Index) SizesWithin(lo, hi int) []int {
	if lo > hi {
		return nil
	}
	var sizes []int
	ix.sizes.DoRange(func(c llrb.Comparable) (done bool) {
		sizes = append(sizes, c.(*bucket).size)
		return
	}, &bucket{size: lo}, &bucket{size: hi + 1})
	return sizes
}

// Interner returns the index's interner. Callers other than the index's
// own extraction path must not mutate it.
func (ix *Index) Interner() *intern.Interner {
	return ix.interner
}

// Extractor returns the index's feature extractor.
func (ix *Index) Extractor() feature.Extractor {
	return ix.extractor
}

// Stats summarizes an index's contents.
type Stats struct {
	Strings      int     // number of indexed strings
	MeanFeatures float64 // mean feature set size
	Postings     int     // number of distinct (size, feature) postings
}

// Describe returns summary statistics for the index.
func (ix *Index) Describe() Stats {
	st := Stats{Strings: len(ix.strings)}
	if len(ix.features) != 0 {
		sizes := make([]float64, len(ix.features))
		for i, f := range ix.features {
			sizes[i] = float64(len(f))
		}
		st.MeanFeatures = stat.Mean(sizes, nil)
	}
	ix.sizes.Do(func(c llrb.Comparable) (done bool) {
		st.Postings += len(c.(*bucket).postings)
		return
	})
	return st
}
