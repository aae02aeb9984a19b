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

// waitNotifyModule exports a waiter and a notifier over one shared memory.
// The waiter blocks on address 0 expecting 0 with no timeout; the notifier
// wakes up to count waiters at the same address.
func waitNotifyModule() *Module {
	return &Module{
		Types: []FunctionType{
			{ResultTypes: []ValueType{I32}},
			{ParamTypes: []ValueType{I32}, ResultTypes: []ValueType{I32}},
		},
		Memories: []MemoryType{{Limits: Limits{Min: 1, Max: u32ptr(1)}, Shared: true}},
		Funcs: []Function{
			{TypeIndex: 0, Body: []Instruction{
				i32c(0),
				i32c(0),
				{Op: OpI64Const, Const: ^uint64(0)},
				{Op: OpMemoryAtomicWait32},
			}},
			{TypeIndex: 1, Body: []Instruction{
				i32c(0),
				{Op: OpLocalGet, X: 0},
				{Op: OpMemoryAtomicNotify},
			}},
		},
		Exports: []Export{
			{Name: "wait", Kind: FunctionExportKind, Index: 0},
			{Name: "notify", Kind: FunctionExportKind, Index: 1},
			{Name: "mem", Kind: MemoryExportKind, Index: 0},
		},
	}
}

// stepUntilBlocked advances id until it is no longer runnable.
func stepUntilBlocked(t *testing.T, cfg *Configuration, id ThreadID) {
	t.Helper()
	for cfg.Runnable(id) {
		require.NoError(t, cfg.Step(id))
	}
}

func resultI32(t *testing.T, cfg *Configuration, id ThreadID) int32 {
	t.Helper()
	s, ok := cfg.Status(id).(Result)
	require.True(t, ok, "thread %d status %T", id, cfg.Status(id))
	require.Len(t, s.Values, 1)
	return s.Values[0].I32()
}

func TestWaitNotifyRendezvous(t *testing.T) {
	cfg, waiter, inst := newTestMachine(t, waitNotifyModule(), nil)
	notifier := cfg.Spawn()

	wait, _ := inst.ExportedFunction("wait")
	notify, _ := inst.ExportedFunction("notify")

	cfg.Clear(waiter)
	cfg.Invoke(waiter, wait, nil)
	stepUntilBlocked(t, cfg, waiter)
	require.False(t, cfg.Runnable(waiter))
	_, running := cfg.Status(waiter).(Running)
	require.True(t, running)

	cfg.Invoke(notifier, notify, []Value{I32Value(1)})
	vs, err := cfg.Eval(notifier)
	require.NoError(t, err)
	require.Equal(t, int32(1), vs[0].I32())

	// The woken waiter finishes with the "was woken" result.
	require.True(t, cfg.Runnable(waiter))
	vws, err := cfg.Eval(waiter)
	require.NoError(t, err)
	require.Equal(t, int32(0), vws[0].I32())
}

func TestNotifyWithoutWaiters(t *testing.T) {
	cfg, id, inst := newTestMachine(t, waitNotifyModule(), nil)

	vs, err := call(t, cfg, id, inst, "notify", I32Value(5))
	require.NoError(t, err)
	require.Equal(t, int32(0), vs[0].I32())
}

func TestNotifyCountZero(t *testing.T) {
	cfg, waiter, inst := newTestMachine(t, waitNotifyModule(), nil)
	notifier := cfg.Spawn()

	wait, _ := inst.ExportedFunction("wait")
	notify, _ := inst.ExportedFunction("notify")

	cfg.Clear(waiter)
	cfg.Invoke(waiter, wait, nil)
	stepUntilBlocked(t, cfg, waiter)

	cfg.Invoke(notifier, notify, []Value{I32Value(0)})
	vs, err := cfg.Eval(notifier)
	require.NoError(t, err)
	require.Equal(t, int32(0), vs[0].I32())
	require.False(t, cfg.Runnable(waiter))
}

func TestNotifyWakesInThreadOrder(t *testing.T) {
	cfg, w1, inst := newTestMachine(t, waitNotifyModule(), nil)
	w2 := cfg.Spawn()
	notifier := cfg.Spawn()

	wait, _ := inst.ExportedFunction("wait")
	notify, _ := inst.ExportedFunction("notify")

	cfg.Clear(w1)
	cfg.Invoke(w1, wait, nil)
	cfg.Invoke(w2, wait, nil)
	stepUntilBlocked(t, cfg, w1)
	stepUntilBlocked(t, cfg, w2)

	cfg.Invoke(notifier, notify, []Value{I32Value(1)})
	vs, err := cfg.Eval(notifier)
	require.NoError(t, err)
	require.Equal(t, int32(1), vs[0].I32())

	require.True(t, cfg.Runnable(w1))
	require.False(t, cfg.Runnable(w2))

	cfg.Clear(notifier)
	cfg.Invoke(notifier, notify, []Value{I32Value(1)})
	vs, err = cfg.Eval(notifier)
	require.NoError(t, err)
	require.Equal(t, int32(1), vs[0].I32())
	require.True(t, cfg.Runnable(w2))
}

func TestWaitValueMismatchReturnsImmediately(t *testing.T) {
	cfg, id, inst := newTestMachine(t, waitNotifyModule(), nil)

	mem, _ := inst.ExportedMemory("mem")
	require.NoError(t, mem.AtomicStore(0, 4, 7))

	vs, err := call(t, cfg, id, inst, "wait")
	require.NoError(t, err)
	require.Equal(t, int32(1), vs[0].I32())
}

func TestWaitShortTimeoutTimesOut(t *testing.T) {
	module := waitNotifyModule()
	module.Funcs[0].Body = []Instruction{
		i32c(0),
		i32c(0),
		{Op: OpI64Const, Const: 10},
		{Op: OpMemoryAtomicWait32},
	}
	cfg, id, inst := newTestMachine(t, module, nil)

	vs, err := call(t, cfg, id, inst, "wait")
	require.NoError(t, err)
	require.Equal(t, int32(2), vs[0].I32())
}

func TestWaitLongTimeoutSuspends(t *testing.T) {
	module := waitNotifyModule()
	module.Funcs[0].Body = []Instruction{
		i32c(0),
		i32c(0),
		{Op: OpI64Const, Const: TimeoutEpsilon},
		{Op: OpMemoryAtomicWait32},
	}
	cfg, id, inst := newTestMachine(t, module, nil)

	fn, _ := inst.ExportedFunction("wait")
	cfg.Clear(id)
	cfg.Invoke(id, fn, nil)
	stepUntilBlocked(t, cfg, id)
	_, running := cfg.Status(id).(Running)
	require.True(t, running)
	require.False(t, cfg.Runnable(id))
}

func TestWaitOnUnsharedMemoryTraps(t *testing.T) {
	module := waitNotifyModule()
	module.Memories[0].Shared = false
	cfg, id, inst := newTestMachine(t, module, nil)

	_, err := call(t, cfg, id, inst, "wait")
	requireTrap(t, err, "expected shared memory")
}

func TestWaitUnalignedTraps(t *testing.T) {
	module := waitNotifyModule()
	module.Funcs[0].Body = []Instruction{
		i32c(1),
		i32c(0),
		{Op: OpI64Const, Const: ^uint64(0)},
		{Op: OpMemoryAtomicWait32},
	}
	cfg, id, inst := newTestMachine(t, module, nil)

	_, err := call(t, cfg, id, inst, "wait")
	requireTrap(t, err, "unaligned atomic memory access")
}

func TestEvalOnSuspendedThreadIsDeadlock(t *testing.T) {
	cfg, id, inst := newTestMachine(t, waitNotifyModule(), nil)

	fn, _ := inst.ExportedFunction("wait")
	cfg.Clear(id)
	cfg.Invoke(id, fn, nil)
	_, err := cfg.Eval(id)
	require.ErrorIs(t, err, ErrDeadlock)
}

func TestWait64(t *testing.T) {
	module := waitNotifyModule()
	module.Funcs[0].Body = []Instruction{
		i32c(8),
		{Op: OpI64Const, Const: 0},
		{Op: OpI64Const, Const: 5},
		{Op: OpMemoryAtomicWait64},
	}
	cfg, id, inst := newTestMachine(t, module, nil)

	// Equal value, tiny timeout: immediate timeout result.
	vs, err := call(t, cfg, id, inst, "wait")
	require.NoError(t, err)
	require.Equal(t, int32(2), vs[0].I32())

	mem, _ := inst.ExportedMemory("mem")
	require.NoError(t, mem.AtomicStore(8, 8, 3))
	vs, err = call(t, cfg, id, inst, "wait")
	require.NoError(t, err)
	require.Equal(t, int32(1), vs[0].I32())
}

func TestWaitersOnDistinctAddressesDoNotRendezvous(t *testing.T) {
	module := waitNotifyModule()
	// Waiter blocks on address 4; notifier still posts to address 0.
	module.Funcs[0].Body = []Instruction{
		i32c(4),
		i32c(0),
		{Op: OpI64Const, Const: ^uint64(0)},
		{Op: OpMemoryAtomicWait32},
	}
	cfg, waiter, inst := newTestMachine(t, module, nil)
	notifier := cfg.Spawn()

	wait, _ := inst.ExportedFunction("wait")
	notify, _ := inst.ExportedFunction("notify")

	cfg.Clear(waiter)
	cfg.Invoke(waiter, wait, nil)
	stepUntilBlocked(t, cfg, waiter)

	cfg.Invoke(notifier, notify, []Value{I32Value(1)})
	vs, err := cfg.Eval(notifier)
	require.NoError(t, err)
	require.Equal(t, int32(0), vs[0].I32())
	require.False(t, cfg.Runnable(waiter))
}

func TestClearDiscardsThreadState(t *testing.T) {
	cfg, id, inst := newTestMachine(t, waitNotifyModule(), nil)

	fn, _ := inst.ExportedFunction("wait")
	cfg.Invoke(id, fn, nil)
	stepUntilBlocked(t, cfg, id)
	cfg.Clear(id)

	s, ok := cfg.Status(id).(Result)
	require.True(t, ok)
	require.Empty(t, s.Values)
}

func TestStatusTransitions(t *testing.T) {
	module := singleFuncModule(
		FunctionType{ResultTypes: []ValueType{I32}},
		nil,
		[]Instruction{i32c(9)},
	)
	cfg, id, inst := newTestMachine(t, module, nil)

	fn, _ := inst.ExportedFunction("run")
	cfg.Clear(id)
	cfg.Invoke(id, fn, nil)
	_, running := cfg.Status(id).(Running)
	require.True(t, running)

	_, err := cfg.Eval(id)
	require.NoError(t, err)
	require.Equal(t, int32(9), resultI32(t, cfg, id))
}
