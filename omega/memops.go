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

func stepMemoryScalar(c *code, f *Frame, i *Instruction) {
	mem := f.Instance.memory(0)
	if i.Op <= OpI64Load32U {
		addr := effectiveAddr(c.pop().I32(), i.Offset)
		raw, err := mem.Load(addr, loadWidth(i.Op))
		if err != nil {
			c.trap(i.At, err)
			return
		}
		c.push(loadValue(i.Op, raw))
		return
	}
	v := c.pop()
	addr := effectiveAddr(c.pop().I32(), i.Offset)
	if err := mem.Store(addr, storeWidth(i.Op), storeBits(i.Op, v)); err != nil {
		c.trap(i.At, err)
	}
}

func loadWidth(op Op) uint32 {
	switch op {
	case OpI32Load8S, OpI32Load8U, OpI64Load8S, OpI64Load8U:
		return 1
	case OpI32Load16S, OpI32Load16U, OpI64Load16S, OpI64Load16U:
		return 2
	case OpI32Load, OpF32Load, OpI64Load32S, OpI64Load32U:
		return 4
	case OpI64Load, OpF64Load:
		return 8
	default:
		crash("not a load op: %d", op)
		return 0
	}
}

func loadValue(op Op, raw uint64) Value {
	switch op {
	case OpI32Load:
		return I32Value(int32(uint32(raw)))
	case OpI64Load:
		return I64Value(int64(raw))
	case OpF32Load:
		return F32Value(math.Float32frombits(uint32(raw)))
	case OpF64Load:
		return F64Value(math.Float64frombits(raw))
	case OpI32Load8S:
		return I32Value(int32(int8(raw)))
	case OpI32Load8U:
		return I32Value(int32(uint8(raw)))
	case OpI32Load16S:
		return I32Value(int32(int16(raw)))
	case OpI32Load16U:
		return I32Value(int32(uint16(raw)))
	case OpI64Load8S:
		return I64Value(int64(int8(raw)))
	case OpI64Load8U:
		return I64Value(int64(uint8(raw)))
	case OpI64Load16S:
		return I64Value(int64(int16(raw)))
	case OpI64Load16U:
		return I64Value(int64(uint16(raw)))
	case OpI64Load32S:
		return I64Value(int64(int32(raw)))
	case OpI64Load32U:
		return I64Value(int64(uint32(raw)))
	default:
		crash("not a load op: %d", op)
		return Value{}
	}
}

func storeWidth(op Op) uint32 {
	switch op {
	case OpI32Store8, OpI64Store8:
		return 1
	case OpI32Store16, OpI64Store16:
		return 2
	case OpI32Store, OpF32Store, OpI64Store32:
		return 4
	case OpI64Store, OpF64Store:
		return 8
	default:
		crash("not a store op: %d", op)
		return 0
	}
}

func storeBits(op Op, v Value) uint64 {
	switch op {
	case OpI32Store, OpI32Store8, OpI32Store16:
		return uint64(uint32(v.I32()))
	case OpI64Store, OpI64Store8, OpI64Store16, OpI64Store32:
		return uint64(v.I64())
	case OpF32Store:
		return uint64(math.Float32bits(v.F32()))
	case OpF64Store:
		return math.Float64bits(v.F64())
	default:
		crash("not a store op: %d", op)
		return 0
	}
}

func stepMemoryVector(c *code, f *Frame, i *Instruction) {
	mem := f.Instance.memory(0)
	switch i.Op {
	case OpV128Load:
		addr := effectiveAddr(c.pop().I32(), i.Offset)
		v, err := mem.LoadVector(addr)
		if err != nil {
			c.trap(i.At, err)
			return
		}
		c.push(V128Value(v))

	case OpV128Load8x8S, OpV128Load8x8U, OpV128Load16x4S, OpV128Load16x4U,
		OpV128Load32x2S, OpV128Load32x2U:
		addr := effectiveAddr(c.pop().I32(), i.Offset)
		raw, err := mem.Load(addr, 8)
		if err != nil {
			c.trap(i.At, err)
			return
		}
		c.push(V128Value(extendLanes(i.Op, raw)))

	case OpV128Load8Splat:
		c.vectorLoadSplat(mem, i, 1, OpI8x16Splat)
	case OpV128Load16Splat:
		c.vectorLoadSplat(mem, i, 2, OpI16x8Splat)
	case OpV128Load32Splat:
		c.vectorLoadSplat(mem, i, 4, OpI32x4Splat)
	case OpV128Load64Splat:
		c.vectorLoadSplat(mem, i, 8, OpI64x2Splat)

	case OpV128Load32Zero:
		addr := effectiveAddr(c.pop().I32(), i.Offset)
		raw, err := mem.Load(addr, 4)
		if err != nil {
			c.trap(i.At, err)
			return
		}
		c.push(V128Value(Vec128{Low: raw}))

	case OpV128Load64Zero:
		addr := effectiveAddr(c.pop().I32(), i.Offset)
		raw, err := mem.Load(addr, 8)
		if err != nil {
			c.trap(i.At, err)
			return
		}
		c.push(V128Value(Vec128{Low: raw}))

	case OpV128Store:
		v := c.pop().V128()
		addr := effectiveAddr(c.pop().I32(), i.Offset)
		if err := mem.StoreVector(addr, v); err != nil {
			c.trap(i.At, err)
		}

	case OpV128Load8Lane:
		c.vectorLoadLane(mem, i, 1, OpI8x16ReplaceLane)
	case OpV128Load16Lane:
		c.vectorLoadLane(mem, i, 2, OpI16x8ReplaceLane)
	case OpV128Load32Lane:
		c.vectorLoadLane(mem, i, 4, OpI32x4ReplaceLane)
	case OpV128Load64Lane:
		c.vectorLoadLane(mem, i, 8, OpI64x2ReplaceLane)

	case OpV128Store8Lane:
		c.vectorStoreLane(mem, i, 1, OpI8x16ExtractLaneU)
	case OpV128Store16Lane:
		c.vectorStoreLane(mem, i, 2, OpI16x8ExtractLaneU)
	case OpV128Store32Lane:
		c.vectorStoreLane(mem, i, 4, OpI32x4ExtractLane)
	case OpV128Store64Lane:
		c.vectorStoreLane(mem, i, 8, OpI64x2ExtractLane)

	default:
		crash("not a vector memory op: %d", i.Op)
	}
}

func (c *code) vectorLoadSplat(mem *MemoryInstance, i *Instruction, n uint32, splat Op) {
	addr := effectiveAddr(c.pop().I32(), i.Offset)
	raw, err := mem.Load(addr, n)
	if err != nil {
		c.trap(i.At, err)
		return
	}
	scalar := I32Value(int32(uint32(raw)))
	if n == 8 {
		scalar = I64Value(int64(raw))
	}
	c.push(V128Value(evalSplat(splat, scalar)))
}

func (c *code) vectorLoadLane(mem *MemoryInstance, i *Instruction, n uint32, replace Op) {
	v := c.pop().V128()
	addr := effectiveAddr(c.pop().I32(), i.Offset)
	raw, err := mem.Load(addr, n)
	if err != nil {
		c.trap(i.At, err)
		return
	}
	scalar := I32Value(int32(uint32(raw)))
	if n == 8 {
		scalar = I64Value(int64(raw))
	}
	c.push(V128Value(evalReplaceLane(replace, v, i.Y, scalar)))
}

func (c *code) vectorStoreLane(mem *MemoryInstance, i *Instruction, n uint32, extract Op) {
	v := c.pop().V128()
	addr := effectiveAddr(c.pop().I32(), i.Offset)
	lane := evalExtractLane(extract, v, i.Y)
	raw := uint64(uint32(lane.I32()))
	if n == 8 {
		raw = uint64(lane.I64())
	}
	if err := mem.Store(addr, n, raw); err != nil {
		c.trap(i.At, err)
	}
}

func stepAtomic(c *code, f *Frame, i *Instruction) {
	mem := f.Instance.memory(0)
	op := i.Op
	switch {
	case op >= OpI32AtomicLoad && op <= OpI64AtomicLoad32U:
		n, is64 := atomicLoadAccess(op)
		addr := effectiveAddr(c.pop().I32(), i.Offset)
		raw, err := mem.AtomicLoad(addr, n)
		if err != nil {
			c.trap(i.At, err)
			return
		}
		c.push(atomicResult(raw, is64))

	case op >= OpI32AtomicStore && op <= OpI64AtomicStore32:
		n, is64 := atomicStoreAccess(op)
		v := c.pop()
		addr := effectiveAddr(c.pop().I32(), i.Offset)
		if err := mem.AtomicStore(addr, n, atomicOperand(v, is64)); err != nil {
			c.trap(i.At, err)
		}

	case op >= OpI32AtomicRmwAdd && op <= OpI64AtomicRmw32XchgU:
		idx := int(op - OpI32AtomicRmwAdd)
		n, is64 := atomicRmwAccess(idx % 7)
		v := c.pop()
		addr := effectiveAddr(c.pop().I32(), i.Offset)
		x := atomicOperand(v, is64)
		var apply func(uint64) uint64
		switch idx / 7 {
		case 0:
			apply = func(old uint64) uint64 { return old + x }
		case 1:
			apply = func(old uint64) uint64 { return old - x }
		case 2:
			apply = func(old uint64) uint64 { return old & x }
		case 3:
			apply = func(old uint64) uint64 { return old | x }
		case 4:
			apply = func(old uint64) uint64 { return old ^ x }
		case 5:
			apply = func(uint64) uint64 { return x }
		}
		old, err := mem.AtomicRMW(addr, n, apply)
		if err != nil {
			c.trap(i.At, err)
			return
		}
		c.push(atomicResult(old, is64))

	case op >= OpI32AtomicRmwCmpxchg && op <= OpI64AtomicRmw32CmpxchgU:
		n, is64 := atomicRmwAccess(int(op - OpI32AtomicRmwCmpxchg))
		replacement := c.pop()
		expected := c.pop()
		addr := effectiveAddr(c.pop().I32(), i.Offset)
		old, err := mem.AtomicCompareExchange(addr, n,
			maskWidth(atomicOperand(expected, is64), n),
			atomicOperand(replacement, is64))
		if err != nil {
			c.trap(i.At, err)
			return
		}
		c.push(atomicResult(old, is64))

	default:
		crash("not an atomic op: %d", op)
	}
}

func atomicLoadAccess(op Op) (uint32, bool) {
	switch op {
	case OpI32AtomicLoad:
		return 4, false
	case OpI64AtomicLoad:
		return 8, true
	case OpI32AtomicLoad8U:
		return 1, false
	case OpI32AtomicLoad16U:
		return 2, false
	case OpI64AtomicLoad8U:
		return 1, true
	case OpI64AtomicLoad16U:
		return 2, true
	case OpI64AtomicLoad32U:
		return 4, true
	default:
		crash("not an atomic load op: %d", op)
		return 0, false
	}
}

func atomicStoreAccess(op Op) (uint32, bool) {
	switch op {
	case OpI32AtomicStore:
		return 4, false
	case OpI64AtomicStore:
		return 8, true
	case OpI32AtomicStore8:
		return 1, false
	case OpI32AtomicStore16:
		return 2, false
	case OpI64AtomicStore8:
		return 1, true
	case OpI64AtomicStore16:
		return 2, true
	case OpI64AtomicStore32:
		return 4, true
	default:
		crash("not an atomic store op: %d", op)
		return 0, false
	}
}

// atomicRmwAccess maps the position of an op within its read-modify-write
// group, which orders the seven access shapes identically in every group.
func atomicRmwAccess(slot int) (uint32, bool) {
	switch slot {
	case 0:
		return 4, false
	case 1:
		return 8, true
	case 2:
		return 1, false
	case 3:
		return 2, false
	case 4:
		return 1, true
	case 5:
		return 2, true
	case 6:
		return 4, true
	default:
		crash("atomic rmw slot %d out of range", slot)
		return 0, false
	}
}

func atomicOperand(v Value, is64 bool) uint64 {
	if is64 {
		return uint64(v.I64())
	}
	return uint64(uint32(v.I32()))
}

func atomicResult(raw uint64, is64 bool) Value {
	if is64 {
		return I64Value(int64(raw))
	}
	return I32Value(int32(uint32(raw)))
}

func maskWidth(v uint64, n uint32) uint64 {
	if n == 8 {
		return v
	}
	return v & (1<<(8*n) - 1)
}

func stepNotify(c *code, f *Frame, i *Instruction) *notifyAction {
	count := uint32(c.pop().I32())
	addr := effectiveAddr(c.pop().I32(), i.Offset)
	mem := f.Instance.memory(0)
	// The read both bounds-checks and alignment-checks the location; its
	// value is unused.
	if _, err := mem.AtomicLoad(addr, 4); err != nil {
		c.trap(i.At, err)
		return nil
	}
	if count == 0 {
		c.push(I32Value(0))
		return nil
	}
	return &notifyAction{mem: mem, addr: addr, count: count, dest: c}
}

func stepWait(c *code, f *Frame, i *Instruction) {
	timeout := c.pop().I64()
	expected := c.pop()
	addr := effectiveAddr(c.pop().I32(), i.Offset)
	mem := f.Instance.memory(0)
	if !mem.Shared() {
		c.trap(i.At, ErrExpectedSharedMemory)
		return
	}
	n := uint32(4)
	if i.Op == OpMemoryAtomicWait64 {
		n = 8
	}
	raw, err := mem.AtomicLoad(addr, n)
	if err != nil {
		c.trap(i.At, err)
		return
	}
	equal := raw == uint64(expected.I64())
	if i.Op == OpMemoryAtomicWait32 {
		equal = uint32(raw) == uint32(expected.I32())
	}
	if !equal {
		c.push(I32Value(1))
		return
	}
	if timeout >= 0 && timeout < TimeoutEpsilon {
		c.push(I32Value(2))
		return
	}
	c.emit(&suspendInstr{mem: mem, addr: addr, timeout: timeout, at: i.At})
}
