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

// TimeoutEpsilon is the boundary below which a non-negative atomic wait
// timeout times out immediately instead of suspending the thread.
const TimeoutEpsilon = 1_000_000

// notifyAction is the side effect of reducing memory.atomic.notify: the
// scheduler wakes up to count waiters on (mem, addr) and pushes the number
// actually woken onto dest.
type notifyAction struct {
	mem   *MemoryInstance
	addr  uint64
	count uint32
	dest  *code
}

// step performs one reduction of c. f is the nearest enclosing activation
// and budget the remaining frame depth. Traps rewrite c in place; exhaustion
// and invariant violations panic with a categorized *Error, recovered at the
// configuration boundary.
func step(c *code, f *Frame, budget int) *notifyAction {
	if len(c.instrs) == 0 {
		crash("step on finished code")
	}
	switch h := c.instrs[0].(type) {
	case *plainInstr:
		return stepPlain(c, f, h.instr)

	case *referInstr:
		c.replaceHead()
		c.push(RefValue(h.ref))
		return nil

	case *invokeInstr:
		stepInvoke(c, h, budget)
		return nil

	case *trappingInstr:
		return nil

	case *suspendInstr:
		return nil

	case *returningInstr:
		crash("return outside of a call frame")
		return nil

	case *breakingInstr:
		crash("break outside of a block")
		return nil

	case *labelInstr:
		in := h.inner
		if len(in.instrs) == 0 {
			c.replaceHead()
			c.stack = append(c.stack, in.stack...)
			return nil
		}
		switch ih := in.instrs[0].(type) {
		case *trappingInstr:
			c.replaceHead(ih)
			return nil
		case *returningInstr:
			c.replaceHead(ih)
			return nil
		case *breakingInstr:
			if ih.k == 0 {
				c.stack = append(c.stack, topN(ih.values, h.arity)...)
				c.replaceHead(plainSeq(h.cont)...)
				return nil
			}
			c.replaceHead(&breakingInstr{k: ih.k - 1, values: ih.values})
			return nil
		default:
			return step(in, f, budget)
		}

	case *frameInstr:
		in := h.inner
		if len(in.instrs) == 0 {
			c.replaceHead()
			c.stack = append(c.stack, in.stack...)
			return nil
		}
		switch ih := in.instrs[0].(type) {
		case *trappingInstr:
			c.replaceHead(ih)
			return nil
		case *returningInstr:
			c.stack = append(c.stack, topN(ih.values, h.arity)...)
			c.replaceHead()
			return nil
		case *breakingInstr:
			crash("undefined label")
			return nil
		default:
			return step(in, h.frame, budget-1)
		}

	default:
		crash("unknown administrative instruction %T", h)
		return nil
	}
}

func stepInvoke(c *code, h *invokeInstr, budget int) {
	if budget <= 0 {
		panic(exhaustionError(h.at))
	}
	ft := h.fn.FunctionType()
	args := c.popN(len(ft.ParamTypes))
	arity := len(ft.ResultTypes)

	switch fn := h.fn.(type) {
	case *WasmFunction:
		locals := make([]Value, 0, len(args)+len(fn.Def.Locals))
		locals = append(locals, args...)
		for _, t := range fn.Def.Locals {
			locals = append(locals, DefaultValue(t))
		}
		frame := &Frame{Instance: fn.Instance, Locals: locals}
		body := &labelInstr{
			arity: arity,
			inner: &code{instrs: plainSeq(fn.Def.Body)},
		}
		c.replaceHead(&frameInstr{
			arity: arity,
			frame: frame,
			inner: &code{instrs: []adminInstruction{body}},
		})

	case *HostFunction:
		results, err := fn.Callback(args)
		if err != nil {
			panic(&Error{Kind: KindCrash, At: h.at, Err: err})
		}
		if len(results) != arity {
			crash("host function returned %d values, expected %d", len(results), arity)
		}
		c.replaceHead()
		c.stack = append(c.stack, results...)

	default:
		crash("unknown function instance %T", h.fn)
	}
}

func stepPlain(c *code, f *Frame, i *Instruction) *notifyAction {
	op := i.Op
	c.replaceHead()
	switch {
	case op == OpUnreachable:
		c.trap(i.At, ErrUnreachable)

	case op == OpNop || op == OpAtomicFence:

	case op == OpBlock:
		params := c.popN(len(i.Block.ParamTypes))
		c.emit(&labelInstr{
			arity: len(i.Block.ResultTypes),
			inner: &code{stack: params, instrs: plainSeq(i.Then)},
		})

	case op == OpLoop:
		params := c.popN(len(i.Block.ParamTypes))
		c.emit(&labelInstr{
			arity: len(i.Block.ParamTypes),
			cont:  []Instruction{*i},
			inner: &code{stack: params, instrs: plainSeq(i.Then)},
		})

	case op == OpIf:
		cond := c.pop().I32()
		params := c.popN(len(i.Block.ParamTypes))
		body := i.Then
		if cond == 0 {
			body = i.Else
		}
		c.emit(&labelInstr{
			arity: len(i.Block.ResultTypes),
			inner: &code{stack: params, instrs: plainSeq(body)},
		})

	case op == OpBr:
		c.breakOut(i.X)

	case op == OpBrIf:
		if c.pop().I32() != 0 {
			c.breakOut(i.X)
		}

	case op == OpBrTable:
		idx := uint32(c.pop().I32())
		target := i.X
		if idx < uint32(len(i.Labels)) {
			target = i.Labels[idx]
		}
		c.breakOut(target)

	case op == OpReturn:
		vs := c.stack
		c.stack = nil
		c.emit(&returningInstr{values: vs})

	case op == OpCall:
		c.emit(&invokeInstr{fn: f.Instance.function(i.X), at: i.At})

	case op == OpCallIndirect:
		idx := uint32(c.pop().I32())
		table := f.Instance.table(i.X)
		ref, err := table.Load(idx)
		if err != nil {
			c.trapf(i.At, "undefined element %d", idx)
			return nil
		}
		if isNull(ref) {
			c.trapf(i.At, "uninitialized element %d", idx)
			return nil
		}
		fr, ok := ref.(FuncRef)
		if !ok {
			crash("non-function reference in function table")
		}
		want := f.Instance.Types[i.Y]
		if !fr.Fn.FunctionType().Equal(&want) {
			c.trap(i.At, ErrIndirectCallTypeMismatch)
			return nil
		}
		c.emit(&invokeInstr{fn: fr.Fn, at: i.At})

	case op == OpDrop:
		c.pop()

	case op == OpSelect:
		cond := c.pop().I32()
		v2 := c.pop()
		v1 := c.pop()
		if cond != 0 {
			c.push(v1)
		} else {
			c.push(v2)
		}

	case op == OpRefNull:
		c.push(RefValue(NullRef{Type: i.RefType}))

	case op == OpRefIsNull:
		c.push(boolValue(isNull(c.pop().Ref())))

	case op == OpRefFunc:
		c.push(RefValue(FuncRef{Fn: f.Instance.function(i.X)}))

	case op == OpLocalGet:
		c.push(f.local(i.X))

	case op == OpLocalSet:
		f.setLocal(i.X, c.pop())

	case op == OpLocalTee:
		v := c.pop()
		c.push(v)
		f.setLocal(i.X, v)

	case op == OpGlobalGet:
		c.push(f.Instance.global(i.X).Get())

	case op == OpGlobalSet:
		f.Instance.global(i.X).Set(c.pop())

	case op >= OpTableGet && op <= OpElemDrop:
		stepTable(c, f, i)

	case op >= OpI32Load && op <= OpI64Store32:
		stepMemoryScalar(c, f, i)

	case op == OpMemorySize:
		c.push(I32Value(int32(f.Instance.memory(0).Size())))

	case op == OpMemoryGrow:
		delta := uint32(c.pop().I32())
		c.push(I32Value(f.Instance.memory(0).Grow(delta)))

	case op >= OpMemoryFill && op <= OpDataDrop:
		stepMemoryBulk(c, f, i)

	case op == OpMemoryAtomicNotify:
		return stepNotify(c, f, i)

	case op == OpMemoryAtomicWait32 || op == OpMemoryAtomicWait64:
		stepWait(c, f, i)

	case op >= OpI32AtomicLoad && op <= OpI64AtomicRmw32CmpxchgU:
		stepAtomic(c, f, i)

	case op == OpI32Const:
		c.push(I32Value(int32(uint32(i.Const))))
	case op == OpI64Const:
		c.push(I64Value(int64(i.Const)))
	case op == OpF32Const:
		c.push(F32Value(math.Float32frombits(uint32(i.Const))))
	case op == OpF64Const:
		c.push(F64Value(math.Float64frombits(i.Const)))
	case op == OpV128Const:
		c.push(V128Value(Vec128{Low: i.Const, High: i.ConstHi}))

	case isUnop(op):
		v, err := evalUnop(op, c.pop())
		if err != nil {
			c.trap(i.At, err)
			return nil
		}
		c.push(v)

	case isBinop(op):
		b := c.pop()
		a := c.pop()
		v, err := evalBinop(op, a, b)
		if err != nil {
			c.trap(i.At, err)
			return nil
		}
		c.push(v)

	case op >= OpV128Load && op <= OpV128Store64Lane:
		stepMemoryVector(c, f, i)

	case op == OpI8x16Shuffle:
		b := c.pop().V128()
		a := c.pop().V128()
		c.push(V128Value(evalShuffle(a, b, Vec128{Low: i.Const, High: i.ConstHi}.lanes8())))

	case op == OpI8x16Swizzle:
		s := c.pop().V128()
		a := c.pop().V128()
		c.push(V128Value(evalSwizzle(a, s)))

	case op >= OpI8x16Splat && op <= OpF64x2Splat:
		c.push(V128Value(evalSplat(op, c.pop())))

	case isVExtract(op):
		c.push(evalExtractLane(op, c.pop().V128(), i.X))

	case isVReplace(op):
		x := c.pop()
		v := c.pop().V128()
		c.push(V128Value(evalReplaceLane(op, v, i.X, x)))

	case op == OpV128Bitselect:
		mask := c.pop().V128()
		b := c.pop().V128()
		a := c.pop().V128()
		c.push(V128Value(evalBitselect(a, b, mask)))

	case isVTestop(op):
		c.push(I32Value(evalVTestop(op, c.pop().V128())))

	case isVShift(op):
		count := c.pop().I32()
		v := c.pop().V128()
		c.push(V128Value(evalVShift(op, v, count)))

	case isVUnop(op):
		c.push(V128Value(evalVUnop(op, c.pop().V128())))

	case isVBinop(op):
		b := c.pop().V128()
		a := c.pop().V128()
		c.push(V128Value(evalVBinop(op, a, b)))

	default:
		crash("unknown instruction %d", op)
	}
	return nil
}

// emit prepends to the remaining instructions; stepPlain has already
// removed the head it is rewriting.
func (c *code) emit(instrs ...adminInstruction) {
	c.instrs = append(instrs, c.instrs...)
}

func (c *code) trap(at uint32, err error) {
	c.emit(&trappingInstr{err: trapError(at, err)})
}

func (c *code) trapf(at uint32, format string, args ...any) {
	c.emit(&trappingInstr{err: trapErrorf(at, format, args...)})
}

// breakOut rewrites the code into a breaking instruction carrying the whole
// value stack outward k labels.
func (c *code) breakOut(k uint32) {
	vs := c.stack
	c.stack = nil
	c.emit(&breakingInstr{k: k, values: vs})
}

func isUnop(op Op) bool {
	switch {
	case op == OpI32Eqz || op == OpI64Eqz:
		return true
	case op >= OpI32Clz && op <= OpI32Popcnt:
		return true
	case op >= OpI64Clz && op <= OpI64Popcnt:
		return true
	case op >= OpF32Abs && op <= OpF32Sqrt:
		return true
	case op >= OpF64Abs && op <= OpF64Sqrt:
		return true
	case op >= OpI32WrapI64 && op <= OpI64TruncSatF64U:
		return true
	}
	return false
}

func isBinop(op Op) bool {
	switch {
	case op >= OpI32Eq && op <= OpI32GeU:
		return true
	case op >= OpI32Add && op <= OpI32Rotr:
		return true
	case op >= OpI64Eq && op <= OpI64GeU:
		return true
	case op >= OpI64Add && op <= OpI64Rotr:
		return true
	case op >= OpF32Eq && op <= OpF32Ge:
		return true
	case op >= OpF32Add && op <= OpF32Copysign:
		return true
	case op >= OpF64Eq && op <= OpF64Ge:
		return true
	case op >= OpF64Add && op <= OpF64Copysign:
		return true
	}
	return false
}

func isVExtract(op Op) bool {
	switch op {
	case OpI8x16ExtractLaneS, OpI8x16ExtractLaneU, OpI16x8ExtractLaneS,
		OpI16x8ExtractLaneU, OpI32x4ExtractLane, OpI64x2ExtractLane,
		OpF32x4ExtractLane, OpF64x2ExtractLane:
		return true
	}
	return false
}

func isVReplace(op Op) bool {
	switch op {
	case OpI8x16ReplaceLane, OpI16x8ReplaceLane, OpI32x4ReplaceLane,
		OpI64x2ReplaceLane, OpF32x4ReplaceLane, OpF64x2ReplaceLane:
		return true
	}
	return false
}

func isVTestop(op Op) bool {
	switch op {
	case OpV128AnyTrue, OpI8x16AllTrue, OpI8x16Bitmask, OpI16x8AllTrue,
		OpI16x8Bitmask, OpI32x4AllTrue, OpI32x4Bitmask, OpI64x2AllTrue,
		OpI64x2Bitmask:
		return true
	}
	return false
}

func isVShift(op Op) bool {
	switch op {
	case OpI8x16Shl, OpI8x16ShrS, OpI8x16ShrU, OpI16x8Shl, OpI16x8ShrS,
		OpI16x8ShrU, OpI32x4Shl, OpI32x4ShrS, OpI32x4ShrU, OpI64x2Shl,
		OpI64x2ShrS, OpI64x2ShrU:
		return true
	}
	return false
}

func isVUnop(op Op) bool {
	switch op {
	case OpV128Not, OpI8x16Abs, OpI8x16Neg, OpI16x8Abs, OpI16x8Neg,
		OpI32x4Abs, OpI32x4Neg, OpI64x2Abs, OpI64x2Neg,
		OpF32x4Abs, OpF32x4Neg, OpF32x4Sqrt, OpF64x2Abs, OpF64x2Neg, OpF64x2Sqrt:
		return true
	}
	return false
}

func isVBinop(op Op) bool {
	switch {
	case op >= OpV128And && op <= OpV128Xor:
		return true
	case op >= OpI8x16Eq && op <= OpF64x2Ge:
		return true
	case op >= OpI8x16Add && op <= OpI8x16AvgrU:
		return true
	case op >= OpI16x8Add && op <= OpI16x8AvgrU:
		return true
	case op >= OpI32x4Add && op <= OpI32x4MaxU:
		return true
	case op >= OpI64x2Add && op <= OpI64x2Mul:
		return true
	case op >= OpF32x4Add && op <= OpF32x4Max:
		return true
	case op >= OpF64x2Add && op <= OpF64x2Max:
		return true
	}
	return false
}

// effectiveAddr widens the i32 address operand and adds the static offset.
// The sum cannot overflow 64 bits, so bounds checks see the true address.
func effectiveAddr(index int32, offset uint64) uint64 {
	return uint64(uint32(index)) + offset
}
