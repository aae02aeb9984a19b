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

// Bulk table and memory operations are not executed in one go. Each reduction
// performs a single element transfer and re-emits the bulk instruction for
// the remainder, so a trap partway through leaves the completed prefix
// visible, as the elaborated semantics require. Copies run back-to-front when
// the ranges overlap with the destination above the source.

func constI32(v, at uint32) adminInstruction {
	return &plainInstr{instr: &Instruction{Op: OpI32Const, Const: uint64(v), At: at}}
}

func synth(op Op, x, y, at uint32) adminInstruction {
	return &plainInstr{instr: &Instruction{Op: op, X: x, Y: y, At: at}}
}

func stepTable(c *code, f *Frame, i *Instruction) {
	switch i.Op {
	case OpTableGet:
		idx := uint32(c.pop().I32())
		ref, err := f.Instance.table(i.X).Load(idx)
		if err != nil {
			c.trap(i.At, err)
			return
		}
		c.push(RefValue(ref))

	case OpTableSet:
		ref := c.pop().Ref()
		idx := uint32(c.pop().I32())
		if err := f.Instance.table(i.X).Store(idx, ref); err != nil {
			c.trap(i.At, err)
		}

	case OpTableSize:
		c.push(I32Value(int32(f.Instance.table(i.X).Size())))

	case OpTableGrow:
		delta := uint32(c.pop().I32())
		init := c.pop().Ref()
		c.push(I32Value(f.Instance.table(i.X).Grow(delta, init)))

	case OpTableFill:
		n := uint32(c.pop().I32())
		val := c.pop().Ref()
		d := uint32(c.pop().I32())
		table := f.Instance.table(i.X)
		if uint64(d)+uint64(n) > uint64(table.Size()) {
			c.trap(i.At, ErrTableOutOfBounds)
			return
		}
		if n == 0 {
			return
		}
		c.emit(
			constI32(d, i.At),
			&referInstr{ref: val},
			synth(OpTableSet, i.X, 0, i.At),
			constI32(d+1, i.At),
			&referInstr{ref: val},
			constI32(n-1, i.At),
			synth(OpTableFill, i.X, 0, i.At),
		)

	case OpTableCopy:
		n := uint32(c.pop().I32())
		s := uint32(c.pop().I32())
		d := uint32(c.pop().I32())
		dst := f.Instance.table(i.X)
		src := f.Instance.table(i.Y)
		if uint64(d)+uint64(n) > uint64(dst.Size()) ||
			uint64(s)+uint64(n) > uint64(src.Size()) {
			c.trap(i.At, ErrTableOutOfBounds)
			return
		}
		if n == 0 {
			return
		}
		if d <= s {
			c.emit(
				constI32(d, i.At),
				constI32(s, i.At),
				synth(OpTableGet, i.Y, 0, i.At),
				synth(OpTableSet, i.X, 0, i.At),
				constI32(d+1, i.At),
				constI32(s+1, i.At),
				constI32(n-1, i.At),
				synth(OpTableCopy, i.X, i.Y, i.At),
			)
		} else {
			c.emit(
				constI32(d+n-1, i.At),
				constI32(s+n-1, i.At),
				synth(OpTableGet, i.Y, 0, i.At),
				synth(OpTableSet, i.X, 0, i.At),
				constI32(d, i.At),
				constI32(s, i.At),
				constI32(n-1, i.At),
				synth(OpTableCopy, i.X, i.Y, i.At),
			)
		}

	case OpTableInit:
		n := uint32(c.pop().I32())
		s := uint32(c.pop().I32())
		d := uint32(c.pop().I32())
		table := f.Instance.table(i.X)
		elem := f.Instance.element(i.Y)
		if uint64(d)+uint64(n) > uint64(table.Size()) ||
			uint64(s)+uint64(n) > uint64(elem.Size()) {
			c.trap(i.At, ErrTableOutOfBounds)
			return
		}
		if n == 0 {
			return
		}
		c.emit(
			constI32(d, i.At),
			&referInstr{ref: elem.Load(s)},
			synth(OpTableSet, i.X, 0, i.At),
			constI32(d+1, i.At),
			constI32(s+1, i.At),
			constI32(n-1, i.At),
			synth(OpTableInit, i.X, i.Y, i.At),
		)

	case OpElemDrop:
		f.Instance.element(i.X).Drop()

	default:
		crash("not a table op: %d", i.Op)
	}
}

func stepMemoryBulk(c *code, f *Frame, i *Instruction) {
	switch i.Op {
	case OpMemoryFill:
		n := uint32(c.pop().I32())
		val := uint32(c.pop().I32())
		d := uint32(c.pop().I32())
		mem := f.Instance.memory(0)
		if uint64(d)+uint64(n) > mem.Bound() {
			c.trap(i.At, ErrMemoryOutOfBounds)
			return
		}
		if n == 0 {
			return
		}
		c.emit(
			constI32(d, i.At),
			constI32(val, i.At),
			synth(OpI32Store8, 0, 0, i.At),
			constI32(d+1, i.At),
			constI32(val, i.At),
			constI32(n-1, i.At),
			synth(OpMemoryFill, 0, 0, i.At),
		)

	case OpMemoryCopy:
		n := uint32(c.pop().I32())
		s := uint32(c.pop().I32())
		d := uint32(c.pop().I32())
		mem := f.Instance.memory(0)
		if uint64(d)+uint64(n) > mem.Bound() ||
			uint64(s)+uint64(n) > mem.Bound() {
			c.trap(i.At, ErrMemoryOutOfBounds)
			return
		}
		if n == 0 {
			return
		}
		if d <= s {
			c.emit(
				constI32(d, i.At),
				constI32(s, i.At),
				synth(OpI32Load8U, 0, 0, i.At),
				synth(OpI32Store8, 0, 0, i.At),
				constI32(d+1, i.At),
				constI32(s+1, i.At),
				constI32(n-1, i.At),
				synth(OpMemoryCopy, 0, 0, i.At),
			)
		} else {
			c.emit(
				constI32(d+n-1, i.At),
				constI32(s+n-1, i.At),
				synth(OpI32Load8U, 0, 0, i.At),
				synth(OpI32Store8, 0, 0, i.At),
				constI32(d, i.At),
				constI32(s, i.At),
				constI32(n-1, i.At),
				synth(OpMemoryCopy, 0, 0, i.At),
			)
		}

	case OpMemoryInit:
		n := uint32(c.pop().I32())
		s := uint32(c.pop().I32())
		d := uint32(c.pop().I32())
		mem := f.Instance.memory(0)
		data := f.Instance.data(i.Y)
		if uint64(d)+uint64(n) > mem.Bound() ||
			uint64(s)+uint64(n) > uint64(data.Size()) {
			c.trap(i.At, ErrMemoryOutOfBounds)
			return
		}
		if n == 0 {
			return
		}
		c.emit(
			constI32(d, i.At),
			constI32(uint32(data.Load(s)), i.At),
			synth(OpI32Store8, 0, 0, i.At),
			constI32(d+1, i.At),
			constI32(s+1, i.At),
			constI32(n-1, i.At),
			synth(OpMemoryInit, 0, i.Y, i.At),
		)

	case OpDataDrop:
		f.Instance.data(i.X).Drop()

	default:
		crash("not a bulk memory op: %d", i.Op)
	}
}
