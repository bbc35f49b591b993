// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package intern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternIsIdempotent(t *testing.T) {
	in := New()
	a := in.Intern("ab1")
	b := in.Intern("ba1")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, in.Intern("ab1"))
	assert.Equal(t, b, in.Intern("ba1"))
	assert.Equal(t, 2, in.Len())
}

func TestHandlesAreDense(t *testing.T) {
	in := New()
	for i, s := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, Handle(i), in.Intern(s))
	}
}

func TestResolveRoundTrips(t *testing.T) {
	in := New()
	words := []string{"$a1", "ab1", "ab2", "b$1"}
	for _, s := range words {
		h := in.Intern(s)
		assert.Equal(t, s, in.Resolve(h))
	}
}

func TestGetDoesNotIntern(t *testing.T) {
	in := New()
	_, ok := in.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, in.Len())

	h := in.Intern("present")
	got, ok := in.Get("present")
	require.True(t, ok)
	assert.Equal(t, h, got)
}

func TestClear(t *testing.T) {
	in := New()
	in.Intern("a")
	in.Intern("b")
	in.Clear()
	assert.Equal(t, 0, in.Len())
	_, ok := in.Get("a")
	assert.False(t, ok)

	// Handles restart from zero after a clear.
	assert.Equal(t, Handle(0), in.Intern("c"))
}
