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
	"errors"

	"go.uber.org/zap"
)

// ThreadID identifies a thread within a Configuration.
type ThreadID int

// Status is the observable state of a thread: Running, Result, or Trap.
type Status interface {
	isStatus()
}

// Running means the thread still has instructions to reduce.
type Running struct{}

// Result means the thread finished; Values holds its final value stack,
// deepest first.
type Result struct {
	Values []Value
}

// Trap means the thread failed with a guest-visible error.
type Trap struct {
	Err *Error
}

func (Running) isStatus() {}
func (Result) isStatus()  {}
func (Trap) isStatus()    {}

// Thread is one strand of execution: its code, the module context for
// root-level instructions, and the call-depth budget it started with.
type Thread struct {
	frame  *Frame
	code   *code
	budget int
}

func newThread(inst *ModuleInstance, budget int) *Thread {
	return &Thread{
		frame:  &Frame{Instance: inst},
		code:   &code{},
		budget: budget,
	}
}

// Configuration is a cooperative arena of threads. One thread advances one
// reduction per Step call; the embedder chooses the schedule. Nothing here
// uses host-level concurrency.
type Configuration struct {
	flags   Flags
	threads []*Thread
}

// NewConfiguration returns an empty configuration. Threads are added with
// Spawn.
func NewConfiguration(flags Flags) *Configuration {
	return &Configuration{flags: flags}
}

// Spawn appends a fresh empty thread and returns its id.
func (cfg *Configuration) Spawn() ThreadID {
	id := ThreadID(len(cfg.threads))
	cfg.threads = append(cfg.threads, newThread(nil, cfg.flags.Budget))
	Logger().Debug("spawned thread", zap.Int("id", int(id)))
	return id
}

func (cfg *Configuration) thread(id ThreadID) *Thread {
	if id < 0 || int(id) >= len(cfg.threads) {
		crash("thread id %d out of range %d", id, len(cfg.threads))
	}
	return cfg.threads[id]
}

// Status reports the state of thread id.
func (cfg *Configuration) Status(id ThreadID) Status {
	c := cfg.thread(id).code
	if len(c.instrs) == 0 {
		vs := make([]Value, len(c.stack))
		copy(vs, c.stack)
		return Result{Values: vs}
	}
	if t, ok := c.instrs[0].(*trappingInstr); ok {
		return Trap{Err: t.err}
	}
	return Running{}
}

// Runnable reports whether stepping thread id can make progress: it is
// Running and not blocked in an atomic wait.
func (cfg *Configuration) Runnable(id ThreadID) bool {
	if _, ok := cfg.Status(id).(Running); !ok {
		return false
	}
	return !suspended(cfg.thread(id).code)
}

// suspended descends through active labels and frames to the innermost head
// instruction.
func suspended(c *code) bool {
	for {
		if len(c.instrs) == 0 {
			return false
		}
		switch h := c.instrs[0].(type) {
		case *suspendInstr:
			return true
		case *labelInstr:
			c = h.inner
		case *frameInstr:
			c = h.inner
		default:
			return false
		}
	}
}

// Clear empties thread id's code, discarding its stack and instructions.
func (cfg *Configuration) Clear(id ThreadID) {
	cfg.thread(id).code = &code{}
}

// Invoke schedules a call to fn on thread id, ahead of whatever the thread
// currently holds. Argument arity and types must match fn's signature; a
// mismatch is a crash.
func (cfg *Configuration) Invoke(id ThreadID, fn FunctionInstance, args []Value) {
	ft := fn.FunctionType()
	if len(args) != len(ft.ParamTypes) {
		crash("invoke with %d arguments, want %d", len(args), len(ft.ParamTypes))
	}
	for i, a := range args {
		if a.Type() != ft.ParamTypes[i] {
			crash("invoke argument %d has type %v, want %v", i, a.Type(), ft.ParamTypes[i])
		}
	}
	t := cfg.thread(id)
	t.code.stack = append(t.code.stack, args...)
	t.code.instrs = append([]adminInstruction{&invokeInstr{fn: fn}}, t.code.instrs...)
}

// Step advances thread id by one reduction. A notify emitted by the
// reduction is resolved immediately: other threads are scanned in order,
// waiters on the same memory and address are woken until the count is
// reached, and the number woken becomes the notify result. Exhaustion and
// crash failures surface as the returned error; guest traps do not, they
// show up in Status.
func (cfg *Configuration) Step(id ThreadID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*Error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	t := cfg.thread(id)
	if len(t.code.instrs) == 0 {
		return nil
	}
	act := step(t.code, t.frame, t.budget)
	if act != nil {
		woken := cfg.wake(id, act)
		act.dest.push(I32Value(int32(woken)))
		Logger().Debug("notify resolved",
			zap.Int("thread", int(id)),
			zap.Uint64("addr", act.addr),
			zap.Uint32("requested", act.count),
			zap.Uint32("woken", woken))
	}
	return nil
}

func (cfg *Configuration) wake(self ThreadID, act *notifyAction) uint32 {
	var woken uint32
	for i, t := range cfg.threads {
		if woken == act.count {
			break
		}
		if ThreadID(i) == self {
			continue
		}
		if tryUnsuspend(t.code, act.mem, act.addr) {
			woken++
		}
	}
	return woken
}

// tryUnsuspend wakes a thread blocked on (mem, addr): the suspend is
// replaced by the i32 result 0. Memory identity matters, not contents, so
// two waits on distinct memories never rendezvous.
func tryUnsuspend(c *code, mem *MemoryInstance, addr uint64) bool {
	for {
		if len(c.instrs) == 0 {
			return false
		}
		switch h := c.instrs[0].(type) {
		case *suspendInstr:
			if h.mem == mem && h.addr == addr {
				c.replaceHead()
				c.push(I32Value(0))
				return true
			}
			return false
		case *labelInstr:
			c = h.inner
		case *frameInstr:
			c = h.inner
		default:
			return false
		}
	}
}

// ErrDeadlock is returned by Eval when the thread suspends and no other
// thread can notify it within this call.
var ErrDeadlock = errors.New("thread suspended with no pending notify")

// Eval steps thread id to a fixed point and returns its result values or
// its trap. Evaluating a thread that suspends returns ErrDeadlock; drive
// multi-thread schedules with Step instead.
func (cfg *Configuration) Eval(id ThreadID) ([]Value, error) {
	for {
		switch s := cfg.Status(id).(type) {
		case Result:
			return s.Values, nil
		case Trap:
			return nil, s.Err
		}
		if suspended(cfg.thread(id).code) {
			return nil, ErrDeadlock
		}
		if err := cfg.Step(id); err != nil {
			return nil, err
		}
	}
}
