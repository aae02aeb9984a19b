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

// adminInstruction is an instruction of the small-step machine: either a
// plain module instruction or one of the administrative forms that reductions
// introduce.
// See https://webassembly.github.io/spec/core/exec/runtime.html#administrative-instructions.
type adminInstruction interface {
	isAdmin()
}

// plainInstr wraps a module instruction awaiting reduction.
type plainInstr struct {
	instr *Instruction
}

// referInstr is a reference in instruction position. Reducing it pushes the
// reference onto the value stack. Element segment items elaborate to this.
type referInstr struct {
	ref Reference
}

// invokeInstr calls a function instance with arguments taken from the value
// stack.
type invokeInstr struct {
	fn FunctionInstance
	at uint32
}

// trappingInstr is a failed thread. It bubbles up through labels and frames
// until it is the whole code, at which point the thread's status is Trap.
type trappingInstr struct {
	err *Error
}

// returningInstr carries the value stack of a return towards the nearest
// enclosing frame, which keeps the top arity values.
type returningInstr struct {
	values []Value
}

// breakingInstr carries the value stack of a branch outward k labels.
type breakingInstr struct {
	k      uint32
	values []Value
}

// labelInstr is an active block: result arity, the continuation to run when
// a branch targets this label, and the inner code.
type labelInstr struct {
	arity int
	cont  []Instruction
	inner *code
}

// frameInstr is an active call: result arity, the activation record, and the
// inner code.
type frameInstr struct {
	arity int
	frame *Frame
	inner *code
}

// suspendInstr is a thread blocked in an atomic wait until a notify on the
// same memory and address arrives.
type suspendInstr struct {
	mem     *MemoryInstance
	addr    uint64
	timeout int64
	at      uint32
}

func (*plainInstr) isAdmin()     {}
func (*referInstr) isAdmin()     {}
func (*invokeInstr) isAdmin()    {}
func (*trappingInstr) isAdmin()  {}
func (*returningInstr) isAdmin() {}
func (*breakingInstr) isAdmin()  {}
func (*labelInstr) isAdmin()     {}
func (*frameInstr) isAdmin()     {}
func (*suspendInstr) isAdmin()   {}

// code is the state of one thread of the machine: a value stack with its top
// at the end of the slice, and the administrative instruction sequence with
// its head at index 0.
type code struct {
	stack  []Value
	instrs []adminInstruction
}

func (c *code) push(v Value) {
	c.stack = append(c.stack, v)
}

func (c *code) pop() Value {
	if len(c.stack) == 0 {
		crash("value stack underflow")
	}
	v := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return v
}

// popN removes the top n values and returns them in stack order, deepest
// first.
func (c *code) popN(n int) []Value {
	if len(c.stack) < n {
		crash("value stack underflow: need %d, have %d", n, len(c.stack))
	}
	vs := make([]Value, n)
	copy(vs, c.stack[len(c.stack)-n:])
	c.stack = c.stack[:len(c.stack)-n]
	return vs
}

// replaceHead substitutes the head instruction with a new prefix.
func (c *code) replaceHead(instrs ...adminInstruction) {
	c.instrs = append(instrs, c.instrs[1:]...)
}

// plainSeq wraps a module instruction sequence for instruction position.
func plainSeq(instrs []Instruction) []adminInstruction {
	out := make([]adminInstruction, len(instrs))
	for i := range instrs {
		out[i] = &plainInstr{instr: &instrs[i]}
	}
	return out
}

// topN returns the top n values in stack order without removing them.
func topN(vs []Value, n int) []Value {
	if len(vs) < n {
		crash("value stack underflow: need %d, have %d", n, len(vs))
	}
	out := make([]Value, n)
	copy(out, vs[len(vs)-n:])
	return out
}
