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

// ElementInstance holds the references of an element segment until the
// segment is dropped. Dropping is idempotent.
type ElementInstance struct {
	Type ReferenceType
	refs []Reference
}

func (e *ElementInstance) Size() uint32 {
	return uint32(len(e.refs))
}

// Load returns the reference at index i. Callers bounds-check against Size
// before elaborating a table.init step, so an out-of-range index here is an
// invariant violation.
func (e *ElementInstance) Load(i uint32) Reference {
	if i >= e.Size() {
		crash("element segment index %d out of range %d", i, e.Size())
	}
	return e.refs[i]
}

// Drop releases the segment contents. Size is 0 afterwards.
func (e *ElementInstance) Drop() {
	e.refs = nil
}

// DataInstance holds the bytes of a data segment until the segment is
// dropped. Dropping is idempotent.
type DataInstance struct {
	bytes []byte
}

func (d *DataInstance) Size() uint32 {
	return uint32(len(d.bytes))
}

// Load returns the byte at index i. Same pre-check contract as
// ElementInstance.Load.
func (d *DataInstance) Load(i uint32) byte {
	if i >= d.Size() {
		crash("data segment index %d out of range %d", i, d.Size())
	}
	return d.bytes[i]
}

// Drop releases the segment contents. Size is 0 afterwards.
func (d *DataInstance) Drop() {
	d.bytes = nil
}
