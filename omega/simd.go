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

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
)

// Vec128 is a 128-bit vector value stored as two little-endian 64-bit halves.
// Lane 0 occupies the least significant bits of Low.
type Vec128 struct {
	Low  uint64
	High uint64
}

func (v Vec128) toBytes() (b [16]byte) {
	binary.LittleEndian.PutUint64(b[0:8], v.Low)
	binary.LittleEndian.PutUint64(b[8:16], v.High)
	return b
}

func vecFromBytes(b [16]byte) Vec128 {
	return Vec128{
		Low:  binary.LittleEndian.Uint64(b[0:8]),
		High: binary.LittleEndian.Uint64(b[8:16]),
	}
}

func (v Vec128) lanes8() (l [16]uint8) {
	return v.toBytes()
}

func (v Vec128) lanes16() (l [8]uint16) {
	b := v.toBytes()
	for i := range l {
		l[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return l
}

func (v Vec128) lanes32() (l [4]uint32) {
	b := v.toBytes()
	for i := range l {
		l[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return l
}

func (v Vec128) lanes64() (l [2]uint64) {
	return [2]uint64{v.Low, v.High}
}

func vecFromLanes8(l [16]uint8) Vec128 {
	return vecFromBytes(l)
}

func vecFromLanes16(l [8]uint16) Vec128 {
	var b [16]byte
	for i, x := range l {
		binary.LittleEndian.PutUint16(b[2*i:], x)
	}
	return vecFromBytes(b)
}

func vecFromLanes32(l [4]uint32) Vec128 {
	var b [16]byte
	for i, x := range l {
		binary.LittleEndian.PutUint32(b[4*i:], x)
	}
	return vecFromBytes(b)
}

func vecFromLanes64(l [2]uint64) Vec128 {
	return Vec128{Low: l[0], High: l[1]}
}

func map8(v Vec128, f func(uint8) uint8) Vec128 {
	l := v.lanes8()
	for i := range l {
		l[i] = f(l[i])
	}
	return vecFromLanes8(l)
}

func map16(v Vec128, f func(uint16) uint16) Vec128 {
	l := v.lanes16()
	for i := range l {
		l[i] = f(l[i])
	}
	return vecFromLanes16(l)
}

func map32(v Vec128, f func(uint32) uint32) Vec128 {
	l := v.lanes32()
	for i := range l {
		l[i] = f(l[i])
	}
	return vecFromLanes32(l)
}

func map64(v Vec128, f func(uint64) uint64) Vec128 {
	l := v.lanes64()
	for i := range l {
		l[i] = f(l[i])
	}
	return vecFromLanes64(l)
}

func mapF32(v Vec128, f func(float32) float32) Vec128 {
	return map32(v, func(x uint32) uint32 {
		return math.Float32bits(f(math.Float32frombits(x)))
	})
}

func mapF64(v Vec128, f func(float64) float64) Vec128 {
	return map64(v, func(x uint64) uint64 {
		return math.Float64bits(f(math.Float64frombits(x)))
	})
}

func zip8(a, b Vec128, f func(x, y uint8) uint8) Vec128 {
	la, lb := a.lanes8(), b.lanes8()
	for i := range la {
		la[i] = f(la[i], lb[i])
	}
	return vecFromLanes8(la)
}

func zip16(a, b Vec128, f func(x, y uint16) uint16) Vec128 {
	la, lb := a.lanes16(), b.lanes16()
	for i := range la {
		la[i] = f(la[i], lb[i])
	}
	return vecFromLanes16(la)
}

func zip32(a, b Vec128, f func(x, y uint32) uint32) Vec128 {
	la, lb := a.lanes32(), b.lanes32()
	for i := range la {
		la[i] = f(la[i], lb[i])
	}
	return vecFromLanes32(la)
}

func zip64(a, b Vec128, f func(x, y uint64) uint64) Vec128 {
	la, lb := a.lanes64(), b.lanes64()
	for i := range la {
		la[i] = f(la[i], lb[i])
	}
	return vecFromLanes64(la)
}

func zipF32(a, b Vec128, f func(x, y float32) float32) Vec128 {
	return zip32(a, b, func(x, y uint32) uint32 {
		return math.Float32bits(f(math.Float32frombits(x), math.Float32frombits(y)))
	})
}

func zipF64(a, b Vec128, f func(x, y float64) float64) Vec128 {
	return zip64(a, b, func(x, y uint64) uint64 {
		return math.Float64bits(f(math.Float64frombits(x), math.Float64frombits(y)))
	})
}

func mask8(b bool) uint8 {
	if b {
		return 0xff
	}
	return 0
}

func mask16(b bool) uint16 {
	if b {
		return 0xffff
	}
	return 0
}

func mask32(b bool) uint32 {
	if b {
		return 0xffffffff
	}
	return 0
}

func mask64(b bool) uint64 {
	if b {
		return 0xffffffffffffffff
	}
	return 0
}

func satI8(x int16) uint8 {
	if x > math.MaxInt8 {
		return math.MaxInt8
	}
	if x < math.MinInt8 {
		return uint8(0x80)
	}
	return uint8(x)
}

func satU8(x int16) uint8 {
	if x > math.MaxUint8 {
		return math.MaxUint8
	}
	if x < 0 {
		return 0
	}
	return uint8(x)
}

func satI16(x int32) uint16 {
	if x > math.MaxInt16 {
		return math.MaxInt16
	}
	if x < math.MinInt16 {
		return uint16(0x8000)
	}
	return uint16(x)
}

func satU16(x int32) uint16 {
	if x > math.MaxUint16 {
		return math.MaxUint16
	}
	if x < 0 {
		return 0
	}
	return uint16(x)
}

// evalSplat builds a vector by replicating a scalar into every lane.
func evalSplat(op Op, v Value) Vec128 {
	switch op {
	case OpI8x16Splat:
		x := uint8(v.I32())
		return map8(Vec128{}, func(uint8) uint8 { return x })
	case OpI16x8Splat:
		x := uint16(v.I32())
		return map16(Vec128{}, func(uint16) uint16 { return x })
	case OpI32x4Splat:
		x := uint32(v.I32())
		return map32(Vec128{}, func(uint32) uint32 { return x })
	case OpI64x2Splat:
		x := uint64(v.I64())
		return Vec128{Low: x, High: x}
	case OpF32x4Splat:
		x := math.Float32bits(v.F32())
		return map32(Vec128{}, func(uint32) uint32 { return x })
	case OpF64x2Splat:
		x := math.Float64bits(v.F64())
		return Vec128{Low: x, High: x}
	default:
		crash("not a splat op: %d", op)
		return Vec128{}
	}
}

// evalExtractLane reads one lane of a vector as a scalar. The lane index has
// been checked upstream.
func evalExtractLane(op Op, v Vec128, lane uint32) Value {
	switch op {
	case OpI8x16ExtractLaneS:
		return I32Value(int32(int8(v.lanes8()[lane])))
	case OpI8x16ExtractLaneU:
		return I32Value(int32(v.lanes8()[lane]))
	case OpI16x8ExtractLaneS:
		return I32Value(int32(int16(v.lanes16()[lane])))
	case OpI16x8ExtractLaneU:
		return I32Value(int32(v.lanes16()[lane]))
	case OpI32x4ExtractLane:
		return I32Value(int32(v.lanes32()[lane]))
	case OpI64x2ExtractLane:
		return I64Value(int64(v.lanes64()[lane]))
	case OpF32x4ExtractLane:
		return F32Value(math.Float32frombits(v.lanes32()[lane]))
	case OpF64x2ExtractLane:
		return F64Value(math.Float64frombits(v.lanes64()[lane]))
	default:
		crash("not an extract_lane op: %d", op)
		return Value{}
	}
}

// evalReplaceLane writes a scalar into one lane of a vector.
func evalReplaceLane(op Op, v Vec128, lane uint32, x Value) Vec128 {
	switch op {
	case OpI8x16ReplaceLane:
		l := v.lanes8()
		l[lane] = uint8(x.I32())
		return vecFromLanes8(l)
	case OpI16x8ReplaceLane:
		l := v.lanes16()
		l[lane] = uint16(x.I32())
		return vecFromLanes16(l)
	case OpI32x4ReplaceLane:
		l := v.lanes32()
		l[lane] = uint32(x.I32())
		return vecFromLanes32(l)
	case OpI64x2ReplaceLane:
		l := v.lanes64()
		l[lane] = uint64(x.I64())
		return vecFromLanes64(l)
	case OpF32x4ReplaceLane:
		l := v.lanes32()
		l[lane] = math.Float32bits(x.F32())
		return vecFromLanes32(l)
	case OpF64x2ReplaceLane:
		l := v.lanes64()
		l[lane] = math.Float64bits(x.F64())
		return vecFromLanes64(l)
	default:
		crash("not a replace_lane op: %d", op)
		return Vec128{}
	}
}

// evalShuffle selects 16 bytes out of the 32 bytes of two vectors. Each entry
// of lanes is an index into the concatenation a ++ b.
func evalShuffle(a, b Vec128, lanes [16]uint8) Vec128 {
	la, lb := a.lanes8(), b.lanes8()
	var out [16]uint8
	for i, idx := range lanes {
		if idx < 16 {
			out[i] = la[idx]
		} else {
			out[i] = lb[idx-16]
		}
	}
	return vecFromLanes8(out)
}

// evalSwizzle selects bytes of a by the runtime indices in s. Indices 16 and
// above select zero.
func evalSwizzle(a, s Vec128) Vec128 {
	la, ls := a.lanes8(), s.lanes8()
	var out [16]uint8
	for i, idx := range ls {
		if idx < 16 {
			out[i] = la[idx]
		}
	}
	return vecFromLanes8(out)
}

// evalBitselect picks each result bit from a where the corresponding bit of
// mask is set, and from b where it is clear.
func evalBitselect(a, b, mask Vec128) Vec128 {
	return Vec128{
		Low:  a.Low&mask.Low | b.Low&^mask.Low,
		High: a.High&mask.High | b.High&^mask.High,
	}
}

// evalVTestop covers the vector operators that produce an i32: any_true,
// all_true, and the bitmask extractions.
func evalVTestop(op Op, v Vec128) int32 {
	switch op {
	case OpV128AnyTrue:
		if v.Low != 0 || v.High != 0 {
			return 1
		}
		return 0
	case OpI8x16AllTrue:
		for _, x := range v.lanes8() {
			if x == 0 {
				return 0
			}
		}
		return 1
	case OpI16x8AllTrue:
		for _, x := range v.lanes16() {
			if x == 0 {
				return 0
			}
		}
		return 1
	case OpI32x4AllTrue:
		for _, x := range v.lanes32() {
			if x == 0 {
				return 0
			}
		}
		return 1
	case OpI64x2AllTrue:
		for _, x := range v.lanes64() {
			if x == 0 {
				return 0
			}
		}
		return 1
	case OpI8x16Bitmask:
		var m int32
		for i, x := range v.lanes8() {
			if x&0x80 != 0 {
				m |= 1 << i
			}
		}
		return m
	case OpI16x8Bitmask:
		var m int32
		for i, x := range v.lanes16() {
			if x&0x8000 != 0 {
				m |= 1 << i
			}
		}
		return m
	case OpI32x4Bitmask:
		var m int32
		for i, x := range v.lanes32() {
			if x&0x80000000 != 0 {
				m |= 1 << i
			}
		}
		return m
	case OpI64x2Bitmask:
		var m int32
		for i, x := range v.lanes64() {
			if x&0x8000000000000000 != 0 {
				m |= 1 << i
			}
		}
		return m
	default:
		crash("not a vector test op: %d", op)
		return 0
	}
}

// evalVShift shifts every lane by the scalar count, which is taken modulo the
// lane width.
func evalVShift(op Op, v Vec128, count int32) Vec128 {
	switch op {
	case OpI8x16Shl:
		s := uint(count) % 8
		return map8(v, func(x uint8) uint8 { return x << s })
	case OpI8x16ShrS:
		s := uint(count) % 8
		return map8(v, func(x uint8) uint8 { return uint8(int8(x) >> s) })
	case OpI8x16ShrU:
		s := uint(count) % 8
		return map8(v, func(x uint8) uint8 { return x >> s })
	case OpI16x8Shl:
		s := uint(count) % 16
		return map16(v, func(x uint16) uint16 { return x << s })
	case OpI16x8ShrS:
		s := uint(count) % 16
		return map16(v, func(x uint16) uint16 { return uint16(int16(x) >> s) })
	case OpI16x8ShrU:
		s := uint(count) % 16
		return map16(v, func(x uint16) uint16 { return x >> s })
	case OpI32x4Shl:
		s := uint(count) % 32
		return map32(v, func(x uint32) uint32 { return x << s })
	case OpI32x4ShrS:
		s := uint(count) % 32
		return map32(v, func(x uint32) uint32 { return uint32(int32(x) >> s) })
	case OpI32x4ShrU:
		s := uint(count) % 32
		return map32(v, func(x uint32) uint32 { return x >> s })
	case OpI64x2Shl:
		s := uint(count) % 64
		return map64(v, func(x uint64) uint64 { return x << s })
	case OpI64x2ShrS:
		s := uint(count) % 64
		return map64(v, func(x uint64) uint64 { return uint64(int64(x) >> s) })
	case OpI64x2ShrU:
		s := uint(count) % 64
		return map64(v, func(x uint64) uint64 { return x >> s })
	default:
		crash("not a vector shift op: %d", op)
		return Vec128{}
	}
}

// evalVUnop covers the per-lane unary vector operators.
func evalVUnop(op Op, v Vec128) Vec128 {
	switch op {
	case OpV128Not:
		return Vec128{Low: ^v.Low, High: ^v.High}

	case OpI8x16Abs:
		return map8(v, func(x uint8) uint8 {
			if int8(x) < 0 {
				return uint8(-int8(x))
			}
			return x
		})
	case OpI8x16Neg:
		return map8(v, func(x uint8) uint8 { return uint8(-int8(x)) })
	case OpI16x8Abs:
		return map16(v, func(x uint16) uint16 {
			if int16(x) < 0 {
				return uint16(-int16(x))
			}
			return x
		})
	case OpI16x8Neg:
		return map16(v, func(x uint16) uint16 { return uint16(-int16(x)) })
	case OpI32x4Abs:
		return map32(v, func(x uint32) uint32 {
			if int32(x) < 0 {
				return uint32(-int32(x))
			}
			return x
		})
	case OpI32x4Neg:
		return map32(v, func(x uint32) uint32 { return uint32(-int32(x)) })
	case OpI64x2Abs:
		return map64(v, func(x uint64) uint64 {
			if int64(x) < 0 {
				return uint64(-int64(x))
			}
			return x
		})
	case OpI64x2Neg:
		return map64(v, func(x uint64) uint64 { return uint64(-int64(x)) })

	case OpF32x4Abs:
		return mapF32(v, math32.Abs)
	case OpF32x4Neg:
		return mapF32(v, func(x float32) float32 { return -x })
	case OpF32x4Sqrt:
		return mapF32(v, math32.Sqrt)
	case OpF64x2Abs:
		return mapF64(v, math.Abs)
	case OpF64x2Neg:
		return mapF64(v, func(x float64) float64 { return -x })
	case OpF64x2Sqrt:
		return mapF64(v, math.Sqrt)

	default:
		crash("not a vector unary op: %d", op)
		return Vec128{}
	}
}

// evalVBinop covers the per-lane binary vector operators, including the
// lane-wise comparisons, which produce all-ones or all-zeroes lanes.
func evalVBinop(op Op, a, b Vec128) Vec128 {
	switch op {
	case OpV128And:
		return Vec128{Low: a.Low & b.Low, High: a.High & b.High}
	case OpV128AndNot:
		return Vec128{Low: a.Low &^ b.Low, High: a.High &^ b.High}
	case OpV128Or:
		return Vec128{Low: a.Low | b.Low, High: a.High | b.High}
	case OpV128Xor:
		return Vec128{Low: a.Low ^ b.Low, High: a.High ^ b.High}

	case OpI8x16Eq:
		return zip8(a, b, func(x, y uint8) uint8 { return mask8(x == y) })
	case OpI8x16Ne:
		return zip8(a, b, func(x, y uint8) uint8 { return mask8(x != y) })
	case OpI8x16LtS:
		return zip8(a, b, func(x, y uint8) uint8 { return mask8(int8(x) < int8(y)) })
	case OpI8x16LtU:
		return zip8(a, b, func(x, y uint8) uint8 { return mask8(x < y) })
	case OpI8x16GtS:
		return zip8(a, b, func(x, y uint8) uint8 { return mask8(int8(x) > int8(y)) })
	case OpI8x16GtU:
		return zip8(a, b, func(x, y uint8) uint8 { return mask8(x > y) })
	case OpI8x16LeS:
		return zip8(a, b, func(x, y uint8) uint8 { return mask8(int8(x) <= int8(y)) })
	case OpI8x16LeU:
		return zip8(a, b, func(x, y uint8) uint8 { return mask8(x <= y) })
	case OpI8x16GeS:
		return zip8(a, b, func(x, y uint8) uint8 { return mask8(int8(x) >= int8(y)) })
	case OpI8x16GeU:
		return zip8(a, b, func(x, y uint8) uint8 { return mask8(x >= y) })

	case OpI16x8Eq:
		return zip16(a, b, func(x, y uint16) uint16 { return mask16(x == y) })
	case OpI16x8Ne:
		return zip16(a, b, func(x, y uint16) uint16 { return mask16(x != y) })
	case OpI16x8LtS:
		return zip16(a, b, func(x, y uint16) uint16 { return mask16(int16(x) < int16(y)) })
	case OpI16x8LtU:
		return zip16(a, b, func(x, y uint16) uint16 { return mask16(x < y) })
	case OpI16x8GtS:
		return zip16(a, b, func(x, y uint16) uint16 { return mask16(int16(x) > int16(y)) })
	case OpI16x8GtU:
		return zip16(a, b, func(x, y uint16) uint16 { return mask16(x > y) })
	case OpI16x8LeS:
		return zip16(a, b, func(x, y uint16) uint16 { return mask16(int16(x) <= int16(y)) })
	case OpI16x8LeU:
		return zip16(a, b, func(x, y uint16) uint16 { return mask16(x <= y) })
	case OpI16x8GeS:
		return zip16(a, b, func(x, y uint16) uint16 { return mask16(int16(x) >= int16(y)) })
	case OpI16x8GeU:
		return zip16(a, b, func(x, y uint16) uint16 { return mask16(x >= y) })

	case OpI32x4Eq:
		return zip32(a, b, func(x, y uint32) uint32 { return mask32(x == y) })
	case OpI32x4Ne:
		return zip32(a, b, func(x, y uint32) uint32 { return mask32(x != y) })
	case OpI32x4LtS:
		return zip32(a, b, func(x, y uint32) uint32 { return mask32(int32(x) < int32(y)) })
	case OpI32x4LtU:
		return zip32(a, b, func(x, y uint32) uint32 { return mask32(x < y) })
	case OpI32x4GtS:
		return zip32(a, b, func(x, y uint32) uint32 { return mask32(int32(x) > int32(y)) })
	case OpI32x4GtU:
		return zip32(a, b, func(x, y uint32) uint32 { return mask32(x > y) })
	case OpI32x4LeS:
		return zip32(a, b, func(x, y uint32) uint32 { return mask32(int32(x) <= int32(y)) })
	case OpI32x4LeU:
		return zip32(a, b, func(x, y uint32) uint32 { return mask32(x <= y) })
	case OpI32x4GeS:
		return zip32(a, b, func(x, y uint32) uint32 { return mask32(int32(x) >= int32(y)) })
	case OpI32x4GeU:
		return zip32(a, b, func(x, y uint32) uint32 { return mask32(x >= y) })

	case OpI64x2Eq:
		return zip64(a, b, func(x, y uint64) uint64 { return mask64(x == y) })
	case OpI64x2Ne:
		return zip64(a, b, func(x, y uint64) uint64 { return mask64(x != y) })
	case OpI64x2LtS:
		return zip64(a, b, func(x, y uint64) uint64 { return mask64(int64(x) < int64(y)) })
	case OpI64x2GtS:
		return zip64(a, b, func(x, y uint64) uint64 { return mask64(int64(x) > int64(y)) })
	case OpI64x2LeS:
		return zip64(a, b, func(x, y uint64) uint64 { return mask64(int64(x) <= int64(y)) })
	case OpI64x2GeS:
		return zip64(a, b, func(x, y uint64) uint64 { return mask64(int64(x) >= int64(y)) })

	case OpF32x4Eq:
		return zip32(a, b, func(x, y uint32) uint32 {
			return mask32(math.Float32frombits(x) == math.Float32frombits(y))
		})
	case OpF32x4Ne:
		return zip32(a, b, func(x, y uint32) uint32 {
			return mask32(math.Float32frombits(x) != math.Float32frombits(y))
		})
	case OpF32x4Lt:
		return zip32(a, b, func(x, y uint32) uint32 {
			return mask32(math.Float32frombits(x) < math.Float32frombits(y))
		})
	case OpF32x4Gt:
		return zip32(a, b, func(x, y uint32) uint32 {
			return mask32(math.Float32frombits(x) > math.Float32frombits(y))
		})
	case OpF32x4Le:
		return zip32(a, b, func(x, y uint32) uint32 {
			return mask32(math.Float32frombits(x) <= math.Float32frombits(y))
		})
	case OpF32x4Ge:
		return zip32(a, b, func(x, y uint32) uint32 {
			return mask32(math.Float32frombits(x) >= math.Float32frombits(y))
		})
	case OpF64x2Eq:
		return zip64(a, b, func(x, y uint64) uint64 {
			return mask64(math.Float64frombits(x) == math.Float64frombits(y))
		})
	case OpF64x2Ne:
		return zip64(a, b, func(x, y uint64) uint64 {
			return mask64(math.Float64frombits(x) != math.Float64frombits(y))
		})
	case OpF64x2Lt:
		return zip64(a, b, func(x, y uint64) uint64 {
			return mask64(math.Float64frombits(x) < math.Float64frombits(y))
		})
	case OpF64x2Gt:
		return zip64(a, b, func(x, y uint64) uint64 {
			return mask64(math.Float64frombits(x) > math.Float64frombits(y))
		})
	case OpF64x2Le:
		return zip64(a, b, func(x, y uint64) uint64 {
			return mask64(math.Float64frombits(x) <= math.Float64frombits(y))
		})
	case OpF64x2Ge:
		return zip64(a, b, func(x, y uint64) uint64 {
			return mask64(math.Float64frombits(x) >= math.Float64frombits(y))
		})

	case OpI8x16Add:
		return zip8(a, b, func(x, y uint8) uint8 { return x + y })
	case OpI8x16Sub:
		return zip8(a, b, func(x, y uint8) uint8 { return x - y })
	case OpI8x16AddSatS:
		return zip8(a, b, func(x, y uint8) uint8 { return satI8(int16(int8(x)) + int16(int8(y))) })
	case OpI8x16AddSatU:
		return zip8(a, b, func(x, y uint8) uint8 { return satU8(int16(x) + int16(y)) })
	case OpI8x16SubSatS:
		return zip8(a, b, func(x, y uint8) uint8 { return satI8(int16(int8(x)) - int16(int8(y))) })
	case OpI8x16SubSatU:
		return zip8(a, b, func(x, y uint8) uint8 { return satU8(int16(x) - int16(y)) })
	case OpI8x16MinS:
		return zip8(a, b, func(x, y uint8) uint8 { return uint8(min(int8(x), int8(y))) })
	case OpI8x16MinU:
		return zip8(a, b, func(x, y uint8) uint8 { return min(x, y) })
	case OpI8x16MaxS:
		return zip8(a, b, func(x, y uint8) uint8 { return uint8(max(int8(x), int8(y))) })
	case OpI8x16MaxU:
		return zip8(a, b, func(x, y uint8) uint8 { return max(x, y) })
	case OpI8x16AvgrU:
		return zip8(a, b, func(x, y uint8) uint8 { return uint8((uint16(x) + uint16(y) + 1) / 2) })

	case OpI16x8Add:
		return zip16(a, b, func(x, y uint16) uint16 { return x + y })
	case OpI16x8Sub:
		return zip16(a, b, func(x, y uint16) uint16 { return x - y })
	case OpI16x8Mul:
		return zip16(a, b, func(x, y uint16) uint16 { return x * y })
	case OpI16x8AddSatS:
		return zip16(a, b, func(x, y uint16) uint16 { return satI16(int32(int16(x)) + int32(int16(y))) })
	case OpI16x8AddSatU:
		return zip16(a, b, func(x, y uint16) uint16 { return satU16(int32(x) + int32(y)) })
	case OpI16x8SubSatS:
		return zip16(a, b, func(x, y uint16) uint16 { return satI16(int32(int16(x)) - int32(int16(y))) })
	case OpI16x8SubSatU:
		return zip16(a, b, func(x, y uint16) uint16 { return satU16(int32(x) - int32(y)) })
	case OpI16x8MinS:
		return zip16(a, b, func(x, y uint16) uint16 { return uint16(min(int16(x), int16(y))) })
	case OpI16x8MinU:
		return zip16(a, b, func(x, y uint16) uint16 { return min(x, y) })
	case OpI16x8MaxS:
		return zip16(a, b, func(x, y uint16) uint16 { return uint16(max(int16(x), int16(y))) })
	case OpI16x8MaxU:
		return zip16(a, b, func(x, y uint16) uint16 { return max(x, y) })
	case OpI16x8AvgrU:
		return zip16(a, b, func(x, y uint16) uint16 { return uint16((uint32(x) + uint32(y) + 1) / 2) })

	case OpI32x4Add:
		return zip32(a, b, func(x, y uint32) uint32 { return x + y })
	case OpI32x4Sub:
		return zip32(a, b, func(x, y uint32) uint32 { return x - y })
	case OpI32x4Mul:
		return zip32(a, b, func(x, y uint32) uint32 { return x * y })
	case OpI32x4MinS:
		return zip32(a, b, func(x, y uint32) uint32 { return uint32(min(int32(x), int32(y))) })
	case OpI32x4MinU:
		return zip32(a, b, func(x, y uint32) uint32 { return min(x, y) })
	case OpI32x4MaxS:
		return zip32(a, b, func(x, y uint32) uint32 { return uint32(max(int32(x), int32(y))) })
	case OpI32x4MaxU:
		return zip32(a, b, func(x, y uint32) uint32 { return max(x, y) })

	case OpI64x2Add:
		return zip64(a, b, func(x, y uint64) uint64 { return x + y })
	case OpI64x2Sub:
		return zip64(a, b, func(x, y uint64) uint64 { return x - y })
	case OpI64x2Mul:
		return zip64(a, b, func(x, y uint64) uint64 { return x * y })

	case OpF32x4Add:
		return zipF32(a, b, func(x, y float32) float32 { return x + y })
	case OpF32x4Sub:
		return zipF32(a, b, func(x, y float32) float32 { return x - y })
	case OpF32x4Mul:
		return zipF32(a, b, func(x, y float32) float32 { return x * y })
	case OpF32x4Div:
		return zipF32(a, b, func(x, y float32) float32 { return x / y })
	case OpF32x4Min:
		return zipF32(a, b, func(x, y float32) float32 { return min(x, y) })
	case OpF32x4Max:
		return zipF32(a, b, func(x, y float32) float32 { return max(x, y) })
	case OpF64x2Add:
		return zipF64(a, b, func(x, y float64) float64 { return x + y })
	case OpF64x2Sub:
		return zipF64(a, b, func(x, y float64) float64 { return x - y })
	case OpF64x2Mul:
		return zipF64(a, b, func(x, y float64) float64 { return x * y })
	case OpF64x2Div:
		return zipF64(a, b, func(x, y float64) float64 { return x / y })
	case OpF64x2Min:
		return zipF64(a, b, func(x, y float64) float64 { return min(x, y) })
	case OpF64x2Max:
		return zipF64(a, b, func(x, y float64) float64 { return max(x, y) })

	default:
		crash("not a vector binary op: %d", op)
		return Vec128{}
	}
}

// extendLanes widens eight bytes loaded from memory for the extending load
// shapes: they become a full vector of doubled lanes.
func extendLanes(op Op, raw uint64) Vec128 {
	switch op {
	case OpV128Load8x8S:
		var l [8]uint16
		for i := range l {
			l[i] = uint16(int16(int8(raw >> (8 * i))))
		}
		return vecFromLanes16(l)
	case OpV128Load8x8U:
		var l [8]uint16
		for i := range l {
			l[i] = uint16(uint8(raw >> (8 * i)))
		}
		return vecFromLanes16(l)
	case OpV128Load16x4S:
		var l [4]uint32
		for i := range l {
			l[i] = uint32(int32(int16(raw >> (16 * i))))
		}
		return vecFromLanes32(l)
	case OpV128Load16x4U:
		var l [4]uint32
		for i := range l {
			l[i] = uint32(uint16(raw >> (16 * i)))
		}
		return vecFromLanes32(l)
	case OpV128Load32x2S:
		return Vec128{
			Low:  uint64(int64(int32(raw))),
			High: uint64(int64(int32(raw >> 32))),
		}
	case OpV128Load32x2U:
		return Vec128{
			Low:  uint64(uint32(raw)),
			High: uint64(uint32(raw >> 32)),
		}
	default:
		crash("not an extending load op: %d", op)
		return Vec128{}
	}
}
