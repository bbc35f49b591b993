// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package intern provides a dense string interner mapping feature strings
// to compact integer handles.
package intern

// Handle identifies an interned feature string. Handles are assigned
// densely in interning order and are not reused until a Clear, so handle
// equality is feature string equality and handles order by time of first
// sighting.
type Handle int32

// Interner maps feature strings to handles and back. The zero value is not
// usable; use New. An Interner performs no synchronization of its own; the
// index guards it with a lock held during feature extraction.
type Interner struct {
	lookup  map[string]Handle
	strings []string
}

// New returns an empty Interner.
func New() *Interner {
	return &Interner{lookup: make(map[string]Handle)}
}

// Intern returns the handle for s, assigning the next free handle if s has
// not been seen before.
func (in *Interner) Intern(s string) Handle {
	if h, ok := in.lookup[s]; ok {
		return h
	}
	h := Handle(len(in.strings))
	in.lookup[s] = h
	in.strings = append(in.strings, s)
	return h
}

// Get returns the handle for s without interning it, and whether s has been
// interned.
func (in *Interner) Get(s string) (Handle, bool) {
	h, ok := in.lookup[s]
	return h, ok
}

// Resolve returns the string for h. Resolve panics if h was not returned by
// a previous call to Intern.
func (in *Interner) Resolve(h Handle) string {
	return in.strings[h]
}

// Len returns the number of interned strings.
func (in *Interner) Len() int {
	return len(in.strings)
}

// Clear drops all interned strings. Previously returned handles are invalid
// after a Clear.
func (in *Interner) Clear() {
	in.lookup = make(map[string]Handle)
	in.strings = in.strings[:0]
}
