// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package search implements CPMerge candidate generation and ranking over a
// size-partitioned inverted index, after Okazaki and Tsujii, "Simple and
// Efficient Algorithm for Approximate Dictionary Matching".
package search

import (
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/kortschak/nearset/index"
	"github.com/kortschak/nearset/intern"
	"github.com/kortschak/nearset/measure"
)

// InvalidThresholdError is returned when a search threshold lies outside
// (0, 1].
type InvalidThresholdError float64

func (e InvalidThresholdError) Error() string {
	return fmt.Sprintf("search threshold alpha must be between 0.0 (exclusive) and 1.0 (inclusive), but was %v", float64(e))
}

// Result is a ranked search match.
type Result struct {
	Text  string
	Score float64
}

// sequentialSizes is the number of occupied candidate sizes at or below
// which the fan-out is not worth goroutine start-up.
const sequentialSizes = 4

// A Searcher runs similarity queries against an Index. The index must not
// be mutated while any search is in flight; concurrent searches are safe.
type Searcher struct {
	db      *index.Index
	measure measure.Measure
}

// New returns a Searcher over db using m.
func New(db *index.Index, m measure.Measure) *Searcher {
	return &Searcher{db: db, measure: m}
}

// Search returns all indexed strings with similarity at least alpha to
// query, sorted ascending by text.
func (s *Searcher) Search(query string, alpha float64) ([]string, error) {
	ids, _, err := s.candidates(query, alpha)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, ids.GetCardinality())
	it := ids.Iterator()
	for it.HasNext() {
		if text, ok := s.db.GetString(int(it.Next())); ok {
			texts = append(texts, text)
		}
	}
	sort.Strings(texts)
	return texts, nil
}

// RankedSearch returns all indexed strings with similarity at least alpha
// to query together with their scores, sorted by score descending and then
// text ascending.
func (s *Searcher) RankedSearch(query string, alpha float64) ([]Result, error) {
	ids, qf, err := s.candidates(query, alpha)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, ids.GetCardinality())
	it := ids.Iterator()
	for it.HasNext() {
		id := int(it.Next())
		text, ok := s.db.GetString(id)
		if !ok {
			continue
		}
		feats, ok := s.db.GetFeatures(id)
		if !ok {
			continue
		}
		score := s.measure.Similarity(qf, feats)
		if score >= alpha {
			results = append(results, Result{Text: text, Score: score})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Text < results[j].Text
	})
	return results, nil
}

// candidates validates alpha, extracts the query's features and returns
// the union of overlap join results over all candidate sizes, along with
// the query feature set.
func (s *Searcher) candidates(query string, alpha float64) (*roaring.Bitmap, []intern.Handle, error) {
	if !(alpha > 0 && alpha <= 1) {
		return nil, nil, InvalidThresholdError(alpha)
	}

	// Extraction is the only step that may touch the interner; the index
	// serializes it internally.
	qf := s.db.Features(query)

	ids := roaring.New()
	q := len(qf)
	if q == 0 {
		return ids, qf, nil
	}

	sMin := s.measure.MinFeatureSize(q, alpha)
	sMax := s.measure.MaxFeatureSize(q, alpha, s.db)
	sizes := s.db.SizesWithin(sMin, sMax)

	if len(sizes) <= sequentialSizes {
		for _, size := range sizes {
			tau := s.measure.MinCommon(q, size, alpha)
			if tau == 0 || tau > q {
				continue
			}
			for _, id := range s.overlapJoin(qf, tau, size) {
				ids.Add(id)
			}
		}
		return ids, qf, nil
	}

	parts := make([]*roaring.Bitmap, len(sizes))
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, size := range sizes {
		eg.Go(func() error {
			tau := s.measure.MinCommon(q, size, alpha)
			if tau == 0 || tau > q {
				return nil
			}
			bm := roaring.New()
			for _, id := range s.overlapJoin(qf, tau, size) {
				bm.Add(id)
			}
			parts[i] = bm
			return nil
		})
	}
	// The join cannot fail; Wait only synchronizes the pool.
	_ = eg.Wait()
	for _, bm := range parts {
		if bm != nil {
			ids.Or(bm)
		}
	}
	return ids, qf, nil
}

// overlapJoin returns the ids of all strings with feature count size
// sharing at least tau features with the query set qf. Candidates are
// seeded from the tau-complement prefix of the positions ordered most
// selective first, then verified against the remaining positions with
// early termination once tau is reached or unreachable.
func (s *Searcher) overlapJoin(qf []intern.Handle, tau, size int) []uint32 {
	if len(qf) == 0 || tau == 0 {
		return nil
	}

	postings := make([]*roaring.Bitmap, len(qf))
	avail := 0
	for i, h := range qf {
		if bm := s.db.Lookup(size, h); bm != nil {
			postings[i] = bm
			avail++
		}
	}
	if avail < tau {
		return nil
	}

	card := func(i int) uint64 {
		if postings[i] == nil {
			return math.MaxUint64
		}
		return postings[i].GetCardinality()
	}
	order := make([]int, len(qf))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return card(order[a]) < card(order[b]) })

	// Any true match must appear in the first k postings: at most tau-1 of
	// its shared features can lie in the remaining tau-1 positions.
	k := len(qf) - tau + 1
	counts := make(map[uint32]int)
	for _, pos := range order[:k] {
		if postings[pos] == nil {
			continue
		}
		it := postings[pos].Iterator()
		for it.HasNext() {
			counts[it.Next()]++
		}
	}

	if tau == 1 {
		out := make([]uint32, 0, len(counts))
		for id := range counts {
			out = append(out, id)
		}
		return out
	}

	var out []uint32
	for id, c := range counts {
		if c >= tau {
			out = append(out, id)
			continue
		}
		for i := k; i < len(order); i++ {
			if bm := postings[order[i]]; bm != nil && bm.Contains(id) {
				c++
			}
			if c >= tau {
				out = append(out, id)
				break
			}
			if c+(len(qf)-1-i) < tau {
				break
			}
		}
	}
	return out
}
