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

// Op identifies a source instruction. The numbering is internal and carries no
// relation to the binary format; decoding happens upstream of this package.
type Op int

const (
	// Control instructions.
	OpUnreachable Op = iota
	OpNop
	OpBlock
	OpLoop
	OpIf
	OpBr
	OpBrIf
	OpBrTable
	OpReturn
	OpCall
	OpCallIndirect

	// Parametric instructions.
	OpDrop
	OpSelect

	// Reference instructions.
	OpRefNull
	OpRefIsNull
	OpRefFunc

	// Variable instructions.
	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet

	// Table instructions.
	OpTableGet
	OpTableSet
	OpTableSize
	OpTableGrow
	OpTableFill
	OpTableCopy
	OpTableInit
	OpElemDrop

	// Memory instructions.
	OpI32Load
	OpI64Load
	OpF32Load
	OpF64Load
	OpI32Load8S
	OpI32Load8U
	OpI32Load16S
	OpI32Load16U
	OpI64Load8S
	OpI64Load8U
	OpI64Load16S
	OpI64Load16U
	OpI64Load32S
	OpI64Load32U
	OpI32Store
	OpI64Store
	OpF32Store
	OpF64Store
	OpI32Store8
	OpI32Store16
	OpI64Store8
	OpI64Store16
	OpI64Store32
	OpMemorySize
	OpMemoryGrow
	OpMemoryFill
	OpMemoryCopy
	OpMemoryInit
	OpDataDrop

	// Atomic memory instructions.
	OpMemoryAtomicNotify
	OpMemoryAtomicWait32
	OpMemoryAtomicWait64
	OpAtomicFence
	OpI32AtomicLoad
	OpI64AtomicLoad
	OpI32AtomicLoad8U
	OpI32AtomicLoad16U
	OpI64AtomicLoad8U
	OpI64AtomicLoad16U
	OpI64AtomicLoad32U
	OpI32AtomicStore
	OpI64AtomicStore
	OpI32AtomicStore8
	OpI32AtomicStore16
	OpI64AtomicStore8
	OpI64AtomicStore16
	OpI64AtomicStore32
	OpI32AtomicRmwAdd
	OpI64AtomicRmwAdd
	OpI32AtomicRmw8AddU
	OpI32AtomicRmw16AddU
	OpI64AtomicRmw8AddU
	OpI64AtomicRmw16AddU
	OpI64AtomicRmw32AddU
	OpI32AtomicRmwSub
	OpI64AtomicRmwSub
	OpI32AtomicRmw8SubU
	OpI32AtomicRmw16SubU
	OpI64AtomicRmw8SubU
	OpI64AtomicRmw16SubU
	OpI64AtomicRmw32SubU
	OpI32AtomicRmwAnd
	OpI64AtomicRmwAnd
	OpI32AtomicRmw8AndU
	OpI32AtomicRmw16AndU
	OpI64AtomicRmw8AndU
	OpI64AtomicRmw16AndU
	OpI64AtomicRmw32AndU
	OpI32AtomicRmwOr
	OpI64AtomicRmwOr
	OpI32AtomicRmw8OrU
	OpI32AtomicRmw16OrU
	OpI64AtomicRmw8OrU
	OpI64AtomicRmw16OrU
	OpI64AtomicRmw32OrU
	OpI32AtomicRmwXor
	OpI64AtomicRmwXor
	OpI32AtomicRmw8XorU
	OpI32AtomicRmw16XorU
	OpI64AtomicRmw8XorU
	OpI64AtomicRmw16XorU
	OpI64AtomicRmw32XorU
	OpI32AtomicRmwXchg
	OpI64AtomicRmwXchg
	OpI32AtomicRmw8XchgU
	OpI32AtomicRmw16XchgU
	OpI64AtomicRmw8XchgU
	OpI64AtomicRmw16XchgU
	OpI64AtomicRmw32XchgU
	OpI32AtomicRmwCmpxchg
	OpI64AtomicRmwCmpxchg
	OpI32AtomicRmw8CmpxchgU
	OpI32AtomicRmw16CmpxchgU
	OpI64AtomicRmw8CmpxchgU
	OpI64AtomicRmw16CmpxchgU
	OpI64AtomicRmw32CmpxchgU

	// Numeric const instructions.
	OpI32Const
	OpI64Const
	OpF32Const
	OpF64Const
	OpV128Const

	// i32 test, compare, and arithmetic instructions.
	OpI32Eqz
	OpI32Eq
	OpI32Ne
	OpI32LtS
	OpI32LtU
	OpI32GtS
	OpI32GtU
	OpI32LeS
	OpI32LeU
	OpI32GeS
	OpI32GeU
	OpI32Clz
	OpI32Ctz
	OpI32Popcnt
	OpI32Add
	OpI32Sub
	OpI32Mul
	OpI32DivS
	OpI32DivU
	OpI32RemS
	OpI32RemU
	OpI32And
	OpI32Or
	OpI32Xor
	OpI32Shl
	OpI32ShrS
	OpI32ShrU
	OpI32Rotl
	OpI32Rotr

	// i64 test, compare, and arithmetic instructions.
	OpI64Eqz
	OpI64Eq
	OpI64Ne
	OpI64LtS
	OpI64LtU
	OpI64GtS
	OpI64GtU
	OpI64LeS
	OpI64LeU
	OpI64GeS
	OpI64GeU
	OpI64Clz
	OpI64Ctz
	OpI64Popcnt
	OpI64Add
	OpI64Sub
	OpI64Mul
	OpI64DivS
	OpI64DivU
	OpI64RemS
	OpI64RemU
	OpI64And
	OpI64Or
	OpI64Xor
	OpI64Shl
	OpI64ShrS
	OpI64ShrU
	OpI64Rotl
	OpI64Rotr

	// f32 compare and arithmetic instructions.
	OpF32Eq
	OpF32Ne
	OpF32Lt
	OpF32Gt
	OpF32Le
	OpF32Ge
	OpF32Abs
	OpF32Neg
	OpF32Ceil
	OpF32Floor
	OpF32Trunc
	OpF32Nearest
	OpF32Sqrt
	OpF32Add
	OpF32Sub
	OpF32Mul
	OpF32Div
	OpF32Min
	OpF32Max
	OpF32Copysign

	// f64 compare and arithmetic instructions.
	OpF64Eq
	OpF64Ne
	OpF64Lt
	OpF64Gt
	OpF64Le
	OpF64Ge
	OpF64Abs
	OpF64Neg
	OpF64Ceil
	OpF64Floor
	OpF64Trunc
	OpF64Nearest
	OpF64Sqrt
	OpF64Add
	OpF64Sub
	OpF64Mul
	OpF64Div
	OpF64Min
	OpF64Max
	OpF64Copysign

	// Conversion instructions.
	OpI32WrapI64
	OpI32TruncF32S
	OpI32TruncF32U
	OpI32TruncF64S
	OpI32TruncF64U
	OpI64ExtendI32S
	OpI64ExtendI32U
	OpI64TruncF32S
	OpI64TruncF32U
	OpI64TruncF64S
	OpI64TruncF64U
	OpF32ConvertI32S
	OpF32ConvertI32U
	OpF32ConvertI64S
	OpF32ConvertI64U
	OpF32DemoteF64
	OpF64ConvertI32S
	OpF64ConvertI32U
	OpF64ConvertI64S
	OpF64ConvertI64U
	OpF64PromoteF32
	OpI32ReinterpretF32
	OpI64ReinterpretF64
	OpF32ReinterpretI32
	OpF64ReinterpretI64
	OpI32Extend8S
	OpI32Extend16S
	OpI64Extend8S
	OpI64Extend16S
	OpI64Extend32S
	OpI32TruncSatF32S
	OpI32TruncSatF32U
	OpI32TruncSatF64S
	OpI32TruncSatF64U
	OpI64TruncSatF32S
	OpI64TruncSatF32U
	OpI64TruncSatF64S
	OpI64TruncSatF64U

	// Vector memory instructions.
	OpV128Load
	OpV128Load8x8S
	OpV128Load8x8U
	OpV128Load16x4S
	OpV128Load16x4U
	OpV128Load32x2S
	OpV128Load32x2U
	OpV128Load8Splat
	OpV128Load16Splat
	OpV128Load32Splat
	OpV128Load64Splat
	OpV128Load32Zero
	OpV128Load64Zero
	OpV128Store
	OpV128Load8Lane
	OpV128Load16Lane
	OpV128Load32Lane
	OpV128Load64Lane
	OpV128Store8Lane
	OpV128Store16Lane
	OpV128Store32Lane
	OpV128Store64Lane

	// Vector shuffle, swizzle, splat, and lane instructions.
	OpI8x16Shuffle
	OpI8x16Swizzle
	OpI8x16Splat
	OpI16x8Splat
	OpI32x4Splat
	OpI64x2Splat
	OpF32x4Splat
	OpF64x2Splat
	OpI8x16ExtractLaneS
	OpI8x16ExtractLaneU
	OpI8x16ReplaceLane
	OpI16x8ExtractLaneS
	OpI16x8ExtractLaneU
	OpI16x8ReplaceLane
	OpI32x4ExtractLane
	OpI32x4ReplaceLane
	OpI64x2ExtractLane
	OpI64x2ReplaceLane
	OpF32x4ExtractLane
	OpF32x4ReplaceLane
	OpF64x2ExtractLane
	OpF64x2ReplaceLane

	// Vector compare instructions.
	OpI8x16Eq
	OpI8x16Ne
	OpI8x16LtS
	OpI8x16LtU
	OpI8x16GtS
	OpI8x16GtU
	OpI8x16LeS
	OpI8x16LeU
	OpI8x16GeS
	OpI8x16GeU
	OpI16x8Eq
	OpI16x8Ne
	OpI16x8LtS
	OpI16x8LtU
	OpI16x8GtS
	OpI16x8GtU
	OpI16x8LeS
	OpI16x8LeU
	OpI16x8GeS
	OpI16x8GeU
	OpI32x4Eq
	OpI32x4Ne
	OpI32x4LtS
	OpI32x4LtU
	OpI32x4GtS
	OpI32x4GtU
	OpI32x4LeS
	OpI32x4LeU
	OpI32x4GeS
	OpI32x4GeU
	OpI64x2Eq
	OpI64x2Ne
	OpI64x2LtS
	OpI64x2GtS
	OpI64x2LeS
	OpI64x2GeS
	OpF32x4Eq
	OpF32x4Ne
	OpF32x4Lt
	OpF32x4Gt
	OpF32x4Le
	OpF32x4Ge
	OpF64x2Eq
	OpF64x2Ne
	OpF64x2Lt
	OpF64x2Gt
	OpF64x2Le
	OpF64x2Ge

	// Vector bitwise instructions.
	OpV128Not
	OpV128And
	OpV128AndNot
	OpV128Or
	OpV128Xor
	OpV128Bitselect
	OpV128AnyTrue

	// Vector integer arithmetic instructions.
	OpI8x16Abs
	OpI8x16Neg
	OpI8x16AllTrue
	OpI8x16Bitmask
	OpI8x16Shl
	OpI8x16ShrS
	OpI8x16ShrU
	OpI8x16Add
	OpI8x16AddSatS
	OpI8x16AddSatU
	OpI8x16Sub
	OpI8x16SubSatS
	OpI8x16SubSatU
	OpI8x16MinS
	OpI8x16MinU
	OpI8x16MaxS
	OpI8x16MaxU
	OpI8x16AvgrU
	OpI16x8Abs
	OpI16x8Neg
	OpI16x8AllTrue
	OpI16x8Bitmask
	OpI16x8Shl
	OpI16x8ShrS
	OpI16x8ShrU
	OpI16x8Add
	OpI16x8AddSatS
	OpI16x8AddSatU
	OpI16x8Sub
	OpI16x8SubSatS
	OpI16x8SubSatU
	OpI16x8Mul
	OpI16x8MinS
	OpI16x8MinU
	OpI16x8MaxS
	OpI16x8MaxU
	OpI16x8AvgrU
	OpI32x4Abs
	OpI32x4Neg
	OpI32x4AllTrue
	OpI32x4Bitmask
	OpI32x4Shl
	OpI32x4ShrS
	OpI32x4ShrU
	OpI32x4Add
	OpI32x4Sub
	OpI32x4Mul
	OpI32x4MinS
	OpI32x4MinU
	OpI32x4MaxS
	OpI32x4MaxU
	OpI64x2Abs
	OpI64x2Neg
	OpI64x2AllTrue
	OpI64x2Bitmask
	OpI64x2Shl
	OpI64x2ShrS
	OpI64x2ShrU
	OpI64x2Add
	OpI64x2Sub
	OpI64x2Mul

	// Vector float arithmetic instructions.
	OpF32x4Abs
	OpF32x4Neg
	OpF32x4Sqrt
	OpF32x4Add
	OpF32x4Sub
	OpF32x4Mul
	OpF32x4Div
	OpF32x4Min
	OpF32x4Max
	OpF64x2Abs
	OpF64x2Neg
	OpF64x2Sqrt
	OpF64x2Add
	OpF64x2Sub
	OpF64x2Mul
	OpF64x2Div
	OpF64x2Min
	OpF64x2Max
)

// Instruction is a single source instruction together with its immediates.
// Only the fields relevant to the opcode carry meaning:
//
//   - X holds the primary entity index: a label depth for br/br_if, a
//     function, local, global, table, segment, or lane index otherwise.
//     For br_table it is the default label.
//   - Y holds the secondary index: the type index of call_indirect, the source
//     table of table.copy, the element/data segment of table.init/memory.init,
//     and the lane index of vector lane loads and stores.
//   - Const (and ConstHi for v128) holds constant payloads: the raw bits of
//     numeric consts, and the 16 shuffle lane bytes packed little-endian.
//   - Offset is the static memarg offset of memory accesses.
//   - Block, Then, Else describe structured control; Loop and Block use Then
//     only.
//   - Labels is the br_table target vector.
//   - RefType is the type immediate of ref.null.
//   - At is the instruction's offset in the original source, carried into
//     error reports.
type Instruction struct {
	Op      Op
	X, Y    uint32
	Const   uint64
	ConstHi uint64
	Offset  uint64
	Block   BlockType
	Then    []Instruction
	Else    []Instruction
	Labels  []uint32
	RefType ReferenceType
	At      uint32
}
