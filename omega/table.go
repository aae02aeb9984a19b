// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package omega

import "math"

// TableInstance is a bounded, growable array of references of uniform
// element type.
type TableInstance struct {
	Type TableType
	refs []Reference
}

// NewTableInstance allocates a table of its type's minimum size, filled with
// null references.
func NewTableInstance(t TableType) *TableInstance {
	refs := make([]Reference, t.Limits.Min)
	for i := range refs {
		refs[i] = NullRef{Type: t.ReferenceType}
	}
	return &TableInstance{Type: t, refs: refs}
}

// Size returns the current number of elements.
func (t *TableInstance) Size() uint32 {
	return uint32(len(t.refs))
}

// Grow extends the table by delta elements initialized to init and returns
// the previous size, or -1 when the new size would exceed the declared limit
// or overflow 32 bits.
func (t *TableInstance) Grow(delta uint32, init Reference) int32 {
	prev := t.Size()
	next := uint64(prev) + uint64(delta)
	if next > math.MaxUint32 {
		return -1
	}
	if t.Type.Limits.Max != nil && next > uint64(*t.Type.Limits.Max) {
		return -1
	}
	for i := uint32(0); i < delta; i++ {
		t.refs = append(t.refs, init)
	}
	return int32(prev)
}

// Load returns the reference at index i.
func (t *TableInstance) Load(i uint32) (Reference, error) {
	if i >= t.Size() {
		return nil, ErrTableOutOfBounds
	}
	return t.refs[i], nil
}

// Store replaces the reference at index i.
func (t *TableInstance) Store(i uint32, r Reference) error {
	if i >= t.Size() {
		return ErrTableOutOfBounds
	}
	t.refs[i] = r
	return nil
}
