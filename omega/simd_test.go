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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplatAndExtract(t *testing.T) {
	v := evalSplat(OpI32x4Splat, I32Value(7))
	require.Equal(t, [4]uint32{7, 7, 7, 7}, v.lanes32())
	require.Equal(t, int32(7), evalExtractLane(OpI32x4ExtractLane, v, 3).I32())

	v = evalSplat(OpI8x16Splat, I32Value(-1))
	require.Equal(t, uint64(0xffffffffffffffff), v.Low)
	require.Equal(t, v.Low, v.High)
	require.Equal(t, int32(-1), evalExtractLane(OpI8x16ExtractLaneS, v, 0).I32())
	require.Equal(t, int32(0xff), evalExtractLane(OpI8x16ExtractLaneU, v, 0).I32())

	v = evalSplat(OpI64x2Splat, I64Value(-2))
	require.Equal(t, int64(-2), evalExtractLane(OpI64x2ExtractLane, v, 1).I64())

	v = evalSplat(OpF32x4Splat, F32Value(1.5))
	require.Equal(t, float32(1.5), evalExtractLane(OpF32x4ExtractLane, v, 2).F32())
}

func TestReplaceLane(t *testing.T) {
	v := evalSplat(OpI32x4Splat, I32Value(1))
	v = evalReplaceLane(OpI32x4ReplaceLane, v, 2, I32Value(99))
	require.Equal(t, [4]uint32{1, 1, 99, 1}, v.lanes32())
}

func TestVectorIntegerArithmetic(t *testing.T) {
	a := evalSplat(OpI8x16Splat, I32Value(100))
	b := evalSplat(OpI8x16Splat, I32Value(100))

	// Plain add wraps each lane.
	sum := evalVBinop(OpI8x16Add, a, b)
	require.Equal(t, uint8(200), sum.lanes8()[0])

	// Saturating signed add clamps at the lane maximum.
	sat := evalVBinop(OpI8x16AddSatS, a, b)
	require.Equal(t, uint8(127), sat.lanes8()[0])
}

func TestVectorSubAndNeg(t *testing.T) {
	a := evalSplat(OpI32x4Splat, I32Value(5))
	b := evalSplat(OpI32x4Splat, I32Value(7))

	d := evalVBinop(OpI32x4Sub, a, b)
	require.Equal(t, uint32(0xfffffffe), d.lanes32()[0])

	n := evalVUnop(OpI32x4Neg, d)
	require.Equal(t, uint32(2), n.lanes32()[0])
}

func TestVectorCompareProducesMasks(t *testing.T) {
	a := evalSplat(OpI32x4Splat, I32Value(1))
	b := evalSplat(OpI32x4Splat, I32Value(2))

	eq := evalVBinop(OpI32x4Eq, a, a)
	require.Equal(t, uint32(0xffffffff), eq.lanes32()[0])

	ne := evalVBinop(OpI32x4Eq, a, b)
	require.Equal(t, uint32(0), ne.lanes32()[0])
}

func TestVectorBitwise(t *testing.T) {
	a := Vec128{Low: 0xff00, High: 0}
	b := Vec128{Low: 0x0ff0, High: 0}

	require.Equal(t, uint64(0x0f00), evalVBinop(OpV128And, a, b).Low)
	require.Equal(t, uint64(0xfff0), evalVBinop(OpV128Or, a, b).Low)
	require.Equal(t, uint64(0xf0f0), evalVBinop(OpV128Xor, a, b).Low)

	not := evalVUnop(OpV128Not, Vec128{})
	require.Equal(t, uint64(0xffffffffffffffff), not.Low)
	require.Equal(t, uint64(0xffffffffffffffff), not.High)
}

func TestBitselect(t *testing.T) {
	a := Vec128{Low: 0xaaaa, High: 1}
	b := Vec128{Low: 0x5555, High: 2}
	mask := Vec128{Low: 0xff00}

	v := evalBitselect(a, b, mask)
	require.Equal(t, uint64(0xaa55), v.Low)
	require.Equal(t, uint64(2), v.High)
}

func TestVectorTestOps(t *testing.T) {
	zero := Vec128{}
	ones := evalSplat(OpI8x16Splat, I32Value(-1))
	oneLane := Vec128{Low: 1}

	require.Equal(t, int32(0), evalVTestop(OpV128AnyTrue, zero))
	require.Equal(t, int32(1), evalVTestop(OpV128AnyTrue, oneLane))
	require.Equal(t, int32(1), evalVTestop(OpI8x16AllTrue, ones))
	require.Equal(t, int32(0), evalVTestop(OpI8x16AllTrue, oneLane))
	require.Equal(t, int32(0xffff), evalVTestop(OpI8x16Bitmask, ones))
	require.Equal(t, int32(1), evalVTestop(OpI8x16Bitmask, Vec128{Low: 0x80}))
}

func TestVectorShiftsMaskTheCount(t *testing.T) {
	v := evalSplat(OpI32x4Splat, I32Value(1))

	// A count of 33 shifts 32-bit lanes by one.
	s := evalVShift(OpI32x4Shl, v, 33)
	require.Equal(t, uint32(2), s.lanes32()[0])

	neg := evalSplat(OpI32x4Splat, I32Value(-4))
	require.Equal(t, uint32(0xfffffffe), evalVShift(OpI32x4ShrS, neg, 1).lanes32()[0])
	require.Equal(t, uint32(0x7ffffffe), evalVShift(OpI32x4ShrU, neg, 1).lanes32()[0])
}

func TestShuffle(t *testing.T) {
	a := vecFromLanes8([16]uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15})
	b := vecFromLanes8([16]uint8{16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31})

	// Interleave the first lanes of both operands.
	v := evalShuffle(a, b, [16]uint8{0, 16, 1, 17, 2, 18, 3, 19, 4, 20, 5, 21, 6, 22, 7, 23})
	require.Equal(t, [16]uint8{0, 16, 1, 17, 2, 18, 3, 19, 4, 20, 5, 21, 6, 22, 7, 23}, v.lanes8())
}

func TestSwizzle(t *testing.T) {
	a := vecFromLanes8([16]uint8{10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25})

	// Out-of-range selectors produce zero lanes.
	s := vecFromLanes8([16]uint8{15, 0, 255, 1, 16, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	v := evalSwizzle(a, s)
	require.Equal(t, uint8(25), v.lanes8()[0])
	require.Equal(t, uint8(10), v.lanes8()[1])
	require.Equal(t, uint8(0), v.lanes8()[2])
	require.Equal(t, uint8(11), v.lanes8()[3])
	require.Equal(t, uint8(0), v.lanes8()[4])
}

func TestVectorFloatArithmetic(t *testing.T) {
	a := evalSplat(OpF64x2Splat, F64Value(9))
	require.Equal(t, 3.0, evalExtractLane(OpF64x2ExtractLane, evalVUnop(OpF64x2Sqrt, a), 0).F64())

	b := evalSplat(OpF32x4Splat, F32Value(0.5))
	c := evalSplat(OpF32x4Splat, F32Value(2))
	prod := evalVBinop(OpF32x4Mul, b, c)
	require.Equal(t, float32(1), evalExtractLane(OpF32x4ExtractLane, prod, 1).F32())

	lo := evalVBinop(OpF32x4Min, b, c)
	require.Equal(t, float32(0.5), evalExtractLane(OpF32x4ExtractLane, lo, 0).F32())
}

func TestSaturationHelpers(t *testing.T) {
	require.Equal(t, uint8(0x7f), satI8(300))
	require.Equal(t, uint8(0x80), satI8(-300))
	require.Equal(t, uint8(255), satU8(300))
	require.Equal(t, uint8(0), satU8(-1))
	require.Equal(t, uint16(0x7fff), satI16(40000))
	require.Equal(t, uint16(0xffff), satU16(70000))
}

func TestLaneRoundTrip(t *testing.T) {
	want := [8]uint16{1, 2, 3, 4, 5, 6, 7, 0x8000}
	require.Equal(t, want, vecFromLanes16(want).lanes16())

	v := Vec128{Low: 0x0123456789abcdef, High: 0xfedcba9876543210}
	require.Equal(t, v, vecFromBytes(v.toBytes()))
}

func TestExtendingLoadLanes(t *testing.T) {
	// Eight bytes extend to eight 16-bit lanes.
	raw := uint64(0x80_7f_03_02_01_00_ff_fe)
	s := extendLanes(OpV128Load8x8S, raw)
	require.Equal(t, uint16(0xfffe), s.lanes16()[0])
	require.Equal(t, uint16(0xffff), s.lanes16()[1])
	require.Equal(t, uint16(0x0000), s.lanes16()[2])
	require.Equal(t, uint16(0x007f), s.lanes16()[6])
	require.Equal(t, uint16(0xff80), s.lanes16()[7])

	u := extendLanes(OpV128Load8x8U, raw)
	require.Equal(t, uint16(0x00fe), u.lanes16()[0])
	require.Equal(t, uint16(0x0080), u.lanes16()[7])
}

func TestVectorOpsThroughMachine(t *testing.T) {
	module := singleFuncModule(
		FunctionType{ResultTypes: []ValueType{I32}},
		nil,
		[]Instruction{
			i32c(6),
			{Op: OpI32x4Splat},
			i32c(7),
			{Op: OpI32x4Splat},
			{Op: OpI32x4Add},
			{Op: OpI32x4ExtractLane, X: 2},
		},
	)
	cfg, id, inst := newTestMachine(t, module, nil)

	vs, err := call(t, cfg, id, inst, "run")
	require.NoError(t, err)
	require.Equal(t, int32(13), vs[0].I32())
}
