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
	"math/bits"

	"github.com/chewxy/math32"
)

const (
	maxInt32Plus1  = 2147483648.0
	maxUint32Plus1 = 4294967296.0
	maxInt64Plus1  = 9223372036854775808.0
	maxUint64Plus1 = 18446744073709551616.0
)

// evalUnop evaluates a unary numeric operator, including tests and
// conversions. The only failures are the numeric traps of the trunc family.
func evalUnop(op Op, v Value) (Value, error) {
	switch op {
	case OpI32Eqz:
		return boolValue(v.I32() == 0), nil
	case OpI64Eqz:
		return boolValue(v.I64() == 0), nil

	case OpI32Clz:
		return I32Value(int32(bits.LeadingZeros32(uint32(v.I32())))), nil
	case OpI32Ctz:
		return I32Value(int32(bits.TrailingZeros32(uint32(v.I32())))), nil
	case OpI32Popcnt:
		return I32Value(int32(bits.OnesCount32(uint32(v.I32())))), nil
	case OpI64Clz:
		return I64Value(int64(bits.LeadingZeros64(uint64(v.I64())))), nil
	case OpI64Ctz:
		return I64Value(int64(bits.TrailingZeros64(uint64(v.I64())))), nil
	case OpI64Popcnt:
		return I64Value(int64(bits.OnesCount64(uint64(v.I64())))), nil

	case OpF32Abs:
		return F32Value(math32.Abs(v.F32())), nil
	case OpF32Neg:
		return F32Value(-v.F32()), nil
	case OpF32Ceil:
		return F32Value(math32.Ceil(v.F32())), nil
	case OpF32Floor:
		return F32Value(math32.Floor(v.F32())), nil
	case OpF32Trunc:
		return F32Value(math32.Trunc(v.F32())), nil
	case OpF32Nearest:
		f := float64(v.F32())
		return F32Value(float32(math.Copysign(math.RoundToEven(f), f))), nil
	case OpF32Sqrt:
		return F32Value(math32.Sqrt(v.F32())), nil

	case OpF64Abs:
		return F64Value(math.Abs(v.F64())), nil
	case OpF64Neg:
		return F64Value(-v.F64()), nil
	case OpF64Ceil:
		return F64Value(math.Ceil(v.F64())), nil
	case OpF64Floor:
		return F64Value(math.Floor(v.F64())), nil
	case OpF64Trunc:
		return F64Value(math.Trunc(v.F64())), nil
	case OpF64Nearest:
		f := v.F64()
		return F64Value(math.Copysign(math.RoundToEven(f), f)), nil
	case OpF64Sqrt:
		return F64Value(math.Sqrt(v.F64())), nil

	case OpI32WrapI64:
		return I32Value(int32(v.I64())), nil
	case OpI64ExtendI32S:
		return I64Value(int64(v.I32())), nil
	case OpI64ExtendI32U:
		return I64Value(int64(uint32(v.I32()))), nil
	case OpI32Extend8S:
		return I32Value(int32(int8(v.I32()))), nil
	case OpI32Extend16S:
		return I32Value(int32(int16(v.I32()))), nil
	case OpI64Extend8S:
		return I64Value(int64(int8(v.I64()))), nil
	case OpI64Extend16S:
		return I64Value(int64(int16(v.I64()))), nil
	case OpI64Extend32S:
		return I64Value(int64(int32(v.I64()))), nil

	case OpI32TruncF32S:
		n, err := truncToInt(float64(v.F32()), math.MinInt32, maxInt32Plus1)
		return I32Value(int32(n)), err
	case OpI32TruncF32U:
		n, err := truncToUint(float64(v.F32()), maxUint32Plus1)
		return I32Value(int32(uint32(n))), err
	case OpI32TruncF64S:
		n, err := truncToInt(v.F64(), math.MinInt32, maxInt32Plus1)
		return I32Value(int32(n)), err
	case OpI32TruncF64U:
		n, err := truncToUint(v.F64(), maxUint32Plus1)
		return I32Value(int32(uint32(n))), err
	case OpI64TruncF32S:
		n, err := truncToInt(float64(v.F32()), math.MinInt64, maxInt64Plus1)
		return I64Value(n), err
	case OpI64TruncF32U:
		n, err := truncToUint(float64(v.F32()), maxUint64Plus1)
		return I64Value(int64(n)), err
	case OpI64TruncF64S:
		n, err := truncToInt(v.F64(), math.MinInt64, maxInt64Plus1)
		return I64Value(n), err
	case OpI64TruncF64U:
		n, err := truncToUint(v.F64(), maxUint64Plus1)
		return I64Value(int64(n)), err

	case OpI32TruncSatF32S:
		return I32Value(int32(truncSatToInt(float64(v.F32()), math.MinInt32, maxInt32Plus1, math.MaxInt32))), nil
	case OpI32TruncSatF32U:
		return I32Value(int32(uint32(truncSatToUint(float64(v.F32()), maxUint32Plus1, math.MaxUint32)))), nil
	case OpI32TruncSatF64S:
		return I32Value(int32(truncSatToInt(v.F64(), math.MinInt32, maxInt32Plus1, math.MaxInt32))), nil
	case OpI32TruncSatF64U:
		return I32Value(int32(uint32(truncSatToUint(v.F64(), maxUint32Plus1, math.MaxUint32)))), nil
	case OpI64TruncSatF32S:
		return I64Value(truncSatToInt(float64(v.F32()), math.MinInt64, maxInt64Plus1, math.MaxInt64)), nil
	case OpI64TruncSatF32U:
		return I64Value(int64(truncSatToUint(float64(v.F32()), maxUint64Plus1, math.MaxUint64))), nil
	case OpI64TruncSatF64S:
		return I64Value(truncSatToInt(v.F64(), math.MinInt64, maxInt64Plus1, math.MaxInt64)), nil
	case OpI64TruncSatF64U:
		return I64Value(int64(truncSatToUint(v.F64(), maxUint64Plus1, math.MaxUint64))), nil

	case OpF32ConvertI32S:
		return F32Value(float32(v.I32())), nil
	case OpF32ConvertI32U:
		return F32Value(float32(uint32(v.I32()))), nil
	case OpF32ConvertI64S:
		return F32Value(float32(v.I64())), nil
	case OpF32ConvertI64U:
		return F32Value(float32(uint64(v.I64()))), nil
	case OpF64ConvertI32S:
		return F64Value(float64(v.I32())), nil
	case OpF64ConvertI32U:
		return F64Value(float64(uint32(v.I32()))), nil
	case OpF64ConvertI64S:
		return F64Value(float64(v.I64())), nil
	case OpF64ConvertI64U:
		return F64Value(float64(uint64(v.I64()))), nil
	case OpF32DemoteF64:
		return F32Value(float32(v.F64())), nil
	case OpF64PromoteF32:
		return F64Value(float64(v.F32())), nil

	case OpI32ReinterpretF32:
		return I32Value(int32(math.Float32bits(v.F32()))), nil
	case OpI64ReinterpretF64:
		return I64Value(int64(math.Float64bits(v.F64()))), nil
	case OpF32ReinterpretI32:
		return F32Value(math.Float32frombits(uint32(v.I32()))), nil
	case OpF64ReinterpretI64:
		return F64Value(math.Float64frombits(uint64(v.I64()))), nil

	default:
		crash("evalUnop: not a unary operator: %d", op)
		return Value{}, nil
	}
}

// evalBinop evaluates a binary numeric operator, including comparisons. The
// only failures are divide-by-zero and the signed divide overflow trap.
func evalBinop(op Op, a, b Value) (Value, error) {
	switch op {
	case OpI32Eq:
		return boolValue(a.I32() == b.I32()), nil
	case OpI32Ne:
		return boolValue(a.I32() != b.I32()), nil
	case OpI32LtS:
		return boolValue(a.I32() < b.I32()), nil
	case OpI32LtU:
		return boolValue(uint32(a.I32()) < uint32(b.I32())), nil
	case OpI32GtS:
		return boolValue(a.I32() > b.I32()), nil
	case OpI32GtU:
		return boolValue(uint32(a.I32()) > uint32(b.I32())), nil
	case OpI32LeS:
		return boolValue(a.I32() <= b.I32()), nil
	case OpI32LeU:
		return boolValue(uint32(a.I32()) <= uint32(b.I32())), nil
	case OpI32GeS:
		return boolValue(a.I32() >= b.I32()), nil
	case OpI32GeU:
		return boolValue(uint32(a.I32()) >= uint32(b.I32())), nil

	case OpI64Eq:
		return boolValue(a.I64() == b.I64()), nil
	case OpI64Ne:
		return boolValue(a.I64() != b.I64()), nil
	case OpI64LtS:
		return boolValue(a.I64() < b.I64()), nil
	case OpI64LtU:
		return boolValue(uint64(a.I64()) < uint64(b.I64())), nil
	case OpI64GtS:
		return boolValue(a.I64() > b.I64()), nil
	case OpI64GtU:
		return boolValue(uint64(a.I64()) > uint64(b.I64())), nil
	case OpI64LeS:
		return boolValue(a.I64() <= b.I64()), nil
	case OpI64LeU:
		return boolValue(uint64(a.I64()) <= uint64(b.I64())), nil
	case OpI64GeS:
		return boolValue(a.I64() >= b.I64()), nil
	case OpI64GeU:
		return boolValue(uint64(a.I64()) >= uint64(b.I64())), nil

	case OpF32Eq:
		return boolValue(a.F32() == b.F32()), nil
	case OpF32Ne:
		return boolValue(a.F32() != b.F32()), nil
	case OpF32Lt:
		return boolValue(a.F32() < b.F32()), nil
	case OpF32Gt:
		return boolValue(a.F32() > b.F32()), nil
	case OpF32Le:
		return boolValue(a.F32() <= b.F32()), nil
	case OpF32Ge:
		return boolValue(a.F32() >= b.F32()), nil

	case OpF64Eq:
		return boolValue(a.F64() == b.F64()), nil
	case OpF64Ne:
		return boolValue(a.F64() != b.F64()), nil
	case OpF64Lt:
		return boolValue(a.F64() < b.F64()), nil
	case OpF64Gt:
		return boolValue(a.F64() > b.F64()), nil
	case OpF64Le:
		return boolValue(a.F64() <= b.F64()), nil
	case OpF64Ge:
		return boolValue(a.F64() >= b.F64()), nil

	case OpI32Add:
		return I32Value(a.I32() + b.I32()), nil
	case OpI32Sub:
		return I32Value(a.I32() - b.I32()), nil
	case OpI32Mul:
		return I32Value(a.I32() * b.I32()), nil
	case OpI32DivS:
		if b.I32() == 0 {
			return Value{}, ErrIntegerDivideByZero
		}
		if a.I32() == math.MinInt32 && b.I32() == -1 {
			return Value{}, ErrIntegerOverflow
		}
		return I32Value(a.I32() / b.I32()), nil
	case OpI32DivU:
		if b.I32() == 0 {
			return Value{}, ErrIntegerDivideByZero
		}
		return I32Value(int32(uint32(a.I32()) / uint32(b.I32()))), nil
	case OpI32RemS:
		if b.I32() == 0 {
			return Value{}, ErrIntegerDivideByZero
		}
		if a.I32() == math.MinInt32 && b.I32() == -1 {
			return I32Value(0), nil
		}
		return I32Value(a.I32() % b.I32()), nil
	case OpI32RemU:
		if b.I32() == 0 {
			return Value{}, ErrIntegerDivideByZero
		}
		return I32Value(int32(uint32(a.I32()) % uint32(b.I32()))), nil
	case OpI32And:
		return I32Value(a.I32() & b.I32()), nil
	case OpI32Or:
		return I32Value(a.I32() | b.I32()), nil
	case OpI32Xor:
		return I32Value(a.I32() ^ b.I32()), nil
	case OpI32Shl:
		return I32Value(a.I32() << (uint32(b.I32()) % 32)), nil
	case OpI32ShrS:
		return I32Value(a.I32() >> (uint32(b.I32()) % 32)), nil
	case OpI32ShrU:
		return I32Value(int32(uint32(a.I32()) >> (uint32(b.I32()) % 32))), nil
	case OpI32Rotl:
		return I32Value(int32(bits.RotateLeft32(uint32(a.I32()), int(b.I32())))), nil
	case OpI32Rotr:
		return I32Value(int32(bits.RotateLeft32(uint32(a.I32()), -int(b.I32())))), nil

	case OpI64Add:
		return I64Value(a.I64() + b.I64()), nil
	case OpI64Sub:
		return I64Value(a.I64() - b.I64()), nil
	case OpI64Mul:
		return I64Value(a.I64() * b.I64()), nil
	case OpI64DivS:
		if b.I64() == 0 {
			return Value{}, ErrIntegerDivideByZero
		}
		if a.I64() == math.MinInt64 && b.I64() == -1 {
			return Value{}, ErrIntegerOverflow
		}
		return I64Value(a.I64() / b.I64()), nil
	case OpI64DivU:
		if b.I64() == 0 {
			return Value{}, ErrIntegerDivideByZero
		}
		return I64Value(int64(uint64(a.I64()) / uint64(b.I64()))), nil
	case OpI64RemS:
		if b.I64() == 0 {
			return Value{}, ErrIntegerDivideByZero
		}
		if a.I64() == math.MinInt64 && b.I64() == -1 {
			return I64Value(0), nil
		}
		return I64Value(a.I64() % b.I64()), nil
	case OpI64RemU:
		if b.I64() == 0 {
			return Value{}, ErrIntegerDivideByZero
		}
		return I64Value(int64(uint64(a.I64()) % uint64(b.I64()))), nil
	case OpI64And:
		return I64Value(a.I64() & b.I64()), nil
	case OpI64Or:
		return I64Value(a.I64() | b.I64()), nil
	case OpI64Xor:
		return I64Value(a.I64() ^ b.I64()), nil
	case OpI64Shl:
		return I64Value(a.I64() << (uint64(b.I64()) % 64)), nil
	case OpI64ShrS:
		return I64Value(a.I64() >> (uint64(b.I64()) % 64)), nil
	case OpI64ShrU:
		return I64Value(int64(uint64(a.I64()) >> (uint64(b.I64()) % 64))), nil
	case OpI64Rotl:
		return I64Value(int64(bits.RotateLeft64(uint64(a.I64()), int(b.I64())))), nil
	case OpI64Rotr:
		return I64Value(int64(bits.RotateLeft64(uint64(a.I64()), -int(b.I64())))), nil

	case OpF32Add:
		return F32Value(a.F32() + b.F32()), nil
	case OpF32Sub:
		return F32Value(a.F32() - b.F32()), nil
	case OpF32Mul:
		return F32Value(a.F32() * b.F32()), nil
	case OpF32Div:
		return F32Value(a.F32() / b.F32()), nil
	case OpF32Min:
		return F32Value(min(a.F32(), b.F32())), nil
	case OpF32Max:
		return F32Value(max(a.F32(), b.F32())), nil
	case OpF32Copysign:
		return F32Value(math32.Copysign(a.F32(), b.F32())), nil

	case OpF64Add:
		return F64Value(a.F64() + b.F64()), nil
	case OpF64Sub:
		return F64Value(a.F64() - b.F64()), nil
	case OpF64Mul:
		return F64Value(a.F64() * b.F64()), nil
	case OpF64Div:
		return F64Value(a.F64() / b.F64()), nil
	case OpF64Min:
		return F64Value(min(a.F64(), b.F64())), nil
	case OpF64Max:
		return F64Value(max(a.F64(), b.F64())), nil
	case OpF64Copysign:
		return F64Value(math.Copysign(a.F64(), b.F64())), nil

	default:
		crash("evalBinop: not a binary operator: %d", op)
		return Value{}, nil
	}
}

func truncToInt(f, low, highPlus1 float64) (int64, error) {
	if math.IsNaN(f) {
		return 0, ErrInvalidConversionToInteger
	}
	truncated := math.Trunc(f)
	if truncated < low || truncated >= highPlus1 {
		return 0, ErrIntegerOverflow
	}
	return int64(truncated), nil
}

func truncToUint(f, highPlus1 float64) (uint64, error) {
	if math.IsNaN(f) {
		return 0, ErrInvalidConversionToInteger
	}
	truncated := math.Trunc(f)
	if truncated < 0 || truncated >= highPlus1 {
		return 0, ErrIntegerOverflow
	}
	return uint64(truncated), nil
}

func truncSatToInt(f, low, highPlus1 float64, high int64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	if f < low {
		return int64(low)
	}
	if f >= highPlus1 {
		return high
	}
	return int64(f)
}

func truncSatToUint(f, highPlus1 float64, high uint64) uint64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f >= highPlus1 {
		return high
	}
	return uint64(f)
}
