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

// Reference is a first-class reference value: either null, a function
// reference, or an extern reference. Reference equality is identity.
type Reference interface {
	RefType() ReferenceType
}

// NullRef is the null reference of a given reference type.
type NullRef struct {
	Type ReferenceType
}

func (r NullRef) RefType() ReferenceType { return r.Type }

// FuncRef references a function instance.
type FuncRef struct {
	Fn FunctionInstance
}

func (FuncRef) RefType() ReferenceType { return FuncRefType }

// ExternRef references an opaque host object by handle.
type ExternRef struct {
	Handle uint32
}

func (ExternRef) RefType() ReferenceType { return ExternRefType }

func isNull(r Reference) bool {
	_, ok := r.(NullRef)
	return ok
}

// Value is a tagged WebAssembly value. Numeric and vector payloads live in
// two 64-bit cells; references carry their Reference directly.
type Value struct {
	typ       ValueType
	low, high uint64
	ref       Reference
}

func I32Value(v int32) Value {
	return Value{typ: I32, low: uint64(uint32(v))}
}

func I64Value(v int64) Value {
	return Value{typ: I64, low: uint64(v)}
}

func F32Value(v float32) Value {
	return Value{typ: F32, low: uint64(math.Float32bits(v))}
}

func F64Value(v float64) Value {
	return Value{typ: F64, low: math.Float64bits(v)}
}

func V128Value(v Vec128) Value {
	return Value{typ: V128, low: v.Low, high: v.High}
}

func RefValue(r Reference) Value {
	return Value{typ: r.RefType(), ref: r}
}

func (v Value) Type() ValueType { return v.typ }

func (v Value) I32() int32 { return int32(uint32(v.low)) }

func (v Value) I64() int64 { return int64(v.low) }

func (v Value) F32() float32 { return math.Float32frombits(uint32(v.low)) }

func (v Value) F64() float64 { return math.Float64frombits(v.low) }

func (v Value) V128() Vec128 { return Vec128{Low: v.low, High: v.high} }

func (v Value) Ref() Reference { return v.ref }

// Equal reports value equality: structural for numerics and vectors,
// identity for references.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ.(type) {
	case ReferenceType:
		return v.ref == other.ref
	default:
		return v.low == other.low && v.high == other.high
	}
}

// DefaultValue returns the zero value of a value type: numeric and vector
// zeroes, and null for reference types.
func DefaultValue(t ValueType) Value {
	switch t := t.(type) {
	case NumberType, VectorType:
		return Value{typ: t}
	case ReferenceType:
		return RefValue(NullRef{Type: t})
	default:
		panic("unreachable")
	}
}

func boolValue(b bool) Value {
	if b {
		return I32Value(1)
	}
	return I32Value(0)
}
