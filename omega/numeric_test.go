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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntegerDivideByZero(t *testing.T) {
	for _, op := range []Op{OpI32DivS, OpI32DivU, OpI32RemS, OpI32RemU} {
		_, err := evalBinop(op, I32Value(1), I32Value(0))
		require.ErrorIs(t, err, ErrIntegerDivideByZero, "op %d", op)
	}
	for _, op := range []Op{OpI64DivS, OpI64DivU, OpI64RemS, OpI64RemU} {
		_, err := evalBinop(op, I64Value(1), I64Value(0))
		require.ErrorIs(t, err, ErrIntegerDivideByZero, "op %d", op)
	}
}

func TestSignedDivideOverflow(t *testing.T) {
	_, err := evalBinop(OpI32DivS, I32Value(math.MinInt32), I32Value(-1))
	require.ErrorIs(t, err, ErrIntegerOverflow)

	_, err = evalBinop(OpI64DivS, I64Value(math.MinInt64), I64Value(-1))
	require.ErrorIs(t, err, ErrIntegerOverflow)

	// rem_s of the same pair is defined as zero, not a trap.
	v, err := evalBinop(OpI32RemS, I32Value(math.MinInt32), I32Value(-1))
	require.NoError(t, err)
	require.Equal(t, int32(0), v.I32())
}

func TestIntegerWraparound(t *testing.T) {
	v, err := evalBinop(OpI32Add, I32Value(math.MaxInt32), I32Value(1))
	require.NoError(t, err)
	require.Equal(t, int32(math.MinInt32), v.I32())

	v, err = evalBinop(OpI32Mul, I32Value(0x10000), I32Value(0x10000))
	require.NoError(t, err)
	require.Equal(t, int32(0), v.I32())
}

func TestShiftCountsAreMasked(t *testing.T) {
	v, err := evalBinop(OpI32Shl, I32Value(1), I32Value(33))
	require.NoError(t, err)
	require.Equal(t, int32(2), v.I32())

	v, err = evalBinop(OpI64ShrU, I64Value(-1), I64Value(65))
	require.NoError(t, err)
	require.Equal(t, int64(math.MaxInt64), v.I64())
}

func TestRotates(t *testing.T) {
	v, err := evalBinop(OpI32Rotl, I32Value(math.MinInt32), I32Value(1))
	require.NoError(t, err)
	require.Equal(t, int32(1), v.I32())

	v, err = evalBinop(OpI32Rotr, I32Value(1), I32Value(1))
	require.NoError(t, err)
	require.Equal(t, uint32(0x80000000), uint32(v.I32()))
}

func TestBitCounting(t *testing.T) {
	v, err := evalUnop(OpI32Clz, I32Value(1))
	require.NoError(t, err)
	require.Equal(t, int32(31), v.I32())

	v, err = evalUnop(OpI32Ctz, I32Value(8))
	require.NoError(t, err)
	require.Equal(t, int32(3), v.I32())

	v, err = evalUnop(OpI32Popcnt, I32Value(0x0f0f))
	require.NoError(t, err)
	require.Equal(t, int32(8), v.I32())

	v, err = evalUnop(OpI64Clz, I64Value(0))
	require.NoError(t, err)
	require.Equal(t, int64(64), v.I64())
}

func TestUnsignedComparison(t *testing.T) {
	v, err := evalBinop(OpI32LtU, I32Value(-1), I32Value(1))
	require.NoError(t, err)
	require.Equal(t, int32(0), v.I32())

	v, err = evalBinop(OpI32GtU, I32Value(-1), I32Value(1))
	require.NoError(t, err)
	require.Equal(t, int32(1), v.I32())
}

func TestTruncTraps(t *testing.T) {
	_, err := evalUnop(OpI32TruncF32S, F32Value(float32(math.NaN())))
	require.ErrorIs(t, err, ErrInvalidConversionToInteger)

	_, err = evalUnop(OpI32TruncF64S, F64Value(3e9))
	require.ErrorIs(t, err, ErrIntegerOverflow)

	_, err = evalUnop(OpI32TruncF64U, F64Value(-1.5))
	require.ErrorIs(t, err, ErrIntegerOverflow)

	v, err := evalUnop(OpI32TruncF64S, F64Value(-3.7))
	require.NoError(t, err)
	require.Equal(t, int32(-3), v.I32())
}

func TestTruncSatSaturates(t *testing.T) {
	v, err := evalUnop(OpI32TruncSatF64S, F64Value(math.NaN()))
	require.NoError(t, err)
	require.Equal(t, int32(0), v.I32())

	v, err = evalUnop(OpI32TruncSatF64S, F64Value(math.Inf(1)))
	require.NoError(t, err)
	require.Equal(t, int32(math.MaxInt32), v.I32())

	v, err = evalUnop(OpI32TruncSatF64S, F64Value(math.Inf(-1)))
	require.NoError(t, err)
	require.Equal(t, int32(math.MinInt32), v.I32())

	v, err = evalUnop(OpI32TruncSatF64U, F64Value(-7))
	require.NoError(t, err)
	require.Equal(t, int32(0), v.I32())

	v, err = evalUnop(OpI64TruncSatF64U, F64Value(math.Inf(1)))
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), uint64(v.I64()))
}

func TestExtendAndWrap(t *testing.T) {
	v, err := evalUnop(OpI64ExtendI32S, I32Value(-1))
	require.NoError(t, err)
	require.Equal(t, int64(-1), v.I64())

	v, err = evalUnop(OpI64ExtendI32U, I32Value(-1))
	require.NoError(t, err)
	require.Equal(t, int64(0xffffffff), v.I64())

	v, err = evalUnop(OpI32WrapI64, I64Value(0x1_0000_0001))
	require.NoError(t, err)
	require.Equal(t, int32(1), v.I32())

	v, err = evalUnop(OpI32Extend8S, I32Value(0x80))
	require.NoError(t, err)
	require.Equal(t, int32(-128), v.I32())
}

func TestFloatNearestTiesToEven(t *testing.T) {
	v, err := evalUnop(OpF64Nearest, F64Value(2.5))
	require.NoError(t, err)
	require.Equal(t, 2.0, v.F64())

	v, err = evalUnop(OpF64Nearest, F64Value(3.5))
	require.NoError(t, err)
	require.Equal(t, 4.0, v.F64())

	v, err = evalUnop(OpF64Nearest, F64Value(-0.5))
	require.NoError(t, err)
	require.True(t, math.Signbit(v.F64()))
	require.Equal(t, 0.0, math.Abs(v.F64()))
}

func TestFloatMinMaxNaN(t *testing.T) {
	v, err := evalBinop(OpF64Min, F64Value(math.NaN()), F64Value(1))
	require.NoError(t, err)
	require.True(t, math.IsNaN(v.F64()))

	v, err = evalBinop(OpF32Max, F32Value(1), F32Value(2))
	require.NoError(t, err)
	require.Equal(t, float32(2), v.F32())
}

func TestCopysign(t *testing.T) {
	v, err := evalBinop(OpF64Copysign, F64Value(3), F64Value(-1))
	require.NoError(t, err)
	require.Equal(t, -3.0, v.F64())
}

func TestReinterpret(t *testing.T) {
	v, err := evalUnop(OpF32ReinterpretI32, I32Value(int32(0x3f800000)))
	require.NoError(t, err)
	require.Equal(t, float32(1.0), v.F32())

	v, err = evalUnop(OpI64ReinterpretF64, F64Value(1.0))
	require.NoError(t, err)
	require.Equal(t, int64(0x3ff0000000000000), v.I64())
}

func TestDivideByZeroTrapsThroughMachine(t *testing.T) {
	module := singleFuncModule(
		FunctionType{ParamTypes: []ValueType{I32, I32}, ResultTypes: []ValueType{I32}},
		nil,
		[]Instruction{
			{Op: OpLocalGet, X: 0},
			{Op: OpLocalGet, X: 1},
			{Op: OpI32DivS},
		},
	)
	cfg, id, inst := newTestMachine(t, module, nil)

	vs, err := call(t, cfg, id, inst, "run", I32Value(7), I32Value(2))
	require.NoError(t, err)
	require.Equal(t, int32(3), vs[0].I32())

	_, err = call(t, cfg, id, inst, "run", I32Value(7), I32Value(0))
	requireTrap(t, err, "integer divide by zero")

	_, err = call(t, cfg, id, inst, "run", I32Value(math.MinInt32), I32Value(-1))
	requireTrap(t, err, "integer overflow")
}
