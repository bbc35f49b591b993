// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package measure provides the set similarity measures used to drive
// candidate pruning and scoring. Each measure supplies the candidate
// feature count window, the minimum common feature count τ for a candidate
// size, and the final similarity score over two sorted handle sets.
package measure

import (
	"math"
	"slices"

	"github.com/kortschak/nearset/intern"
)

// Database is the view of an index a measure needs to bound candidate
// feature counts.
type Database interface {
	// MaxFeatureLen returns the largest feature count of any indexed
	// string, or 0 when the index is empty.
	MaxFeatureLen() int
}

// A Measure parameterizes the searcher. Sizes and counts are in features.
type Measure interface {
	// MinFeatureSize returns the smallest candidate feature count that
	// can reach similarity alpha against a query of qSize features.
	MinFeatureSize(qSize int, alpha float64) int

	// MaxFeatureSize returns the largest candidate feature count that
	// can reach similarity alpha. Cosine, Dice and Overlap cap it at the
	// database's MaxFeatureLen; Jaccard and Exact do not consult db.
	MaxFeatureSize(qSize int, alpha float64, db Database) int

	// MinCommon returns τ, the minimum number of features a candidate
	// of ySize features must share with the query to reach alpha.
	MinCommon(qSize, ySize int, alpha float64) int

	// Similarity returns the similarity of the two sorted handle sets.
	Similarity(x, y []intern.Handle) float64
}

// Cosine is cosine set similarity, |X∩Y|/√(|X|·|Y|).
type Cosine struct{}

func (Cosine) MinFeatureSize(qSize int, alpha float64) int {
	return int(math.Ceil(alpha * alpha * float64(qSize)))
}

func (Cosine) MaxFeatureSize(qSize int, alpha float64, db Database) int {
	if alpha == 0 {
		return db.MaxFeatureLen()
	}
	return min(int(math.Floor(float64(qSize)/(alpha*alpha))), db.MaxFeatureLen())
}

func (Cosine) MinCommon(qSize, ySize int, alpha float64) int {
	return int(math.Ceil(alpha * math.Sqrt(float64(qSize)*float64(ySize))))
}

func (Cosine) Similarity(x, y []intern.Handle) float64 {
	if len(x) == 0 || len(y) == 0 {
		return 0
	}
	den := math.Sqrt(float64(len(x)) * float64(len(y)))
	if den == 0 || !isFinite(den) {
		return 0
	}
	return float64(intersectionSize(x, y)) / den
}

// Dice is Dice set similarity, 2|X∩Y|/(|X|+|Y|).
type Dice struct{}

func (Dice) MinFeatureSize(qSize int, alpha float64) int {
	return int(math.Ceil(alpha / (2 - alpha) * float64(qSize)))
}

func (Dice) MaxFeatureSize(qSize int, alpha float64, db Database) int {
	if alpha == 0 {
		return db.MaxFeatureLen()
	}
	return min(int(math.Floor((2-alpha)/alpha*float64(qSize))), db.MaxFeatureLen())
}

func (Dice) MinCommon(qSize, ySize int, alpha float64) int {
	return int(math.Ceil(0.5 * alpha * float64(qSize+ySize)))
}

func (Dice) Similarity(x, y []intern.Handle) float64 {
	if len(x) == 0 && len(y) == 0 {
		return 1
	}
	if len(x) == 0 || len(y) == 0 {
		return 0
	}
	return 2 * float64(intersectionSize(x, y)) / float64(len(x)+len(y))
}

// Jaccard is Jaccard set similarity, |X∩Y|/|X∪Y|.
type Jaccard struct{}

func (Jaccard) MinFeatureSize(qSize int, alpha float64) int {
	return int(math.Ceil(alpha * float64(qSize)))
}

func (Jaccard) MaxFeatureSize(qSize int, alpha float64, _ Database) int {
	return int(math.Floor(float64(qSize) / alpha))
}

func (Jaccard) MinCommon(qSize, ySize int, alpha float64) int {
	return int(math.Ceil(alpha * float64(qSize+ySize) / (1 + alpha)))
}

func (Jaccard) Similarity(x, y []intern.Handle) float64 {
	if len(x) == 0 && len(y) == 0 {
		return 1
	}
	if len(x) == 0 || len(y) == 0 {
		return 0
	}
	common := intersectionSize(x, y)
	union := len(x) + len(y) - common
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}

// Overlap is overlap set similarity, |X∩Y|/min(|X|,|Y|).
type Overlap struct{}

func (Overlap) MinFeatureSize(int, float64) int { return 1 }

func (Overlap) MaxFeatureSize(_ int, _ float64, db Database) int {
	return db.MaxFeatureLen()
}

func (Overlap) MinCommon(qSize, ySize int, alpha float64) int {
	return int(math.Ceil(alpha * float64(min(qSize, ySize))))
}

func (Overlap) Similarity(x, y []intern.Handle) float64 {
	if len(x) == 0 && len(y) == 0 {
		return 1
	}
	if len(x) == 0 || len(y) == 0 {
		return 0
	}
	return float64(intersectionSize(x, y)) / float64(min(len(x), len(y)))
}

// Exact matches only identical feature sets; the candidate window collapses
// to the query's own size.
type Exact struct{}

func (Exact) MinFeatureSize(qSize int, _ float64) int { return qSize }

func (Exact) MaxFeatureSize(qSize int, _ float64, _ Database) int { return qSize }

func (Exact) MinCommon(qSize, _ int, _ float64) int { return qSize }

func (Exact) Similarity(x, y []intern.Handle) float64 {
	if slices.Equal(x, y) {
		return 1
	}
	return 0
}

// intersectionSize returns |x∩y| by sorted merge. Both inputs must be
// sorted ascending and duplicate free.
func intersectionSize(x, y []intern.Handle) int {
	var n, i, j int
	for i < len(x) && j < len(y) {
		switch {
		case x[i] < y[j]:
			i++
		case x[i] > y[j]:
			j++
		default:
			n++
			i++
			j++
		}
	}
	return n
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
