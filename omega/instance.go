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

// FunctionInstance is a callable function: either a module-defined function
// or a host callback.
type FunctionInstance interface {
	FunctionType() *FunctionType
}

// WasmFunction is a function defined by a module. Instance is the owning
// module instance; it is patched in after allocation so that functions and
// instance can reference each other.
type WasmFunction struct {
	Type     *FunctionType
	Def      *Function
	Instance *ModuleInstance
}

func (f *WasmFunction) FunctionType() *FunctionType { return f.Type }

// HostCallback receives the call arguments in program order and returns
// results in program order. An error return ends the step with a KindCrash
// error wrapping it, which Step returns to the embedder; the guest does not
// observe it.
type HostCallback func(args []Value) ([]Value, error)

// HostFunction wraps a host callback behind a function type.
type HostFunction struct {
	Type     *FunctionType
	Callback HostCallback
}

func (f *HostFunction) FunctionType() *FunctionType { return f.Type }

// Extern is a value that can be imported or exported: a function, table,
// memory, or global.
type Extern interface {
	isExtern()
}

type ExternFunction struct{ Function FunctionInstance }

type ExternTable struct{ Table *TableInstance }

type ExternMemory struct{ Memory *MemoryInstance }

type ExternGlobal struct{ Global *GlobalInstance }

func (ExternFunction) isExtern() {}
func (ExternTable) isExtern()    {}
func (ExternMemory) isExtern()   {}
func (ExternGlobal) isExtern()   {}

// ModuleInstance is the runtime representation of an instantiated module.
// Imported and locally defined entities share the same index spaces.
// See https://webassembly.github.io/spec/core/exec/runtime.html#module-instances.
type ModuleInstance struct {
	Types     []FunctionType
	Functions []FunctionInstance
	Tables    []*TableInstance
	Memories  []*MemoryInstance
	Globals   []*GlobalInstance
	Elements  []*ElementInstance
	Datas     []*DataInstance
	Exports   map[string]Extern
}

func (m *ModuleInstance) function(i uint32) FunctionInstance {
	if i >= uint32(len(m.Functions)) {
		crash("function index %d out of range %d", i, len(m.Functions))
	}
	return m.Functions[i]
}

func (m *ModuleInstance) table(i uint32) *TableInstance {
	if i >= uint32(len(m.Tables)) {
		crash("table index %d out of range %d", i, len(m.Tables))
	}
	return m.Tables[i]
}

func (m *ModuleInstance) memory(i uint32) *MemoryInstance {
	if i >= uint32(len(m.Memories)) {
		crash("memory index %d out of range %d", i, len(m.Memories))
	}
	return m.Memories[i]
}

func (m *ModuleInstance) global(i uint32) *GlobalInstance {
	if i >= uint32(len(m.Globals)) {
		crash("global index %d out of range %d", i, len(m.Globals))
	}
	return m.Globals[i]
}

func (m *ModuleInstance) element(i uint32) *ElementInstance {
	if i >= uint32(len(m.Elements)) {
		crash("element segment index %d out of range %d", i, len(m.Elements))
	}
	return m.Elements[i]
}

func (m *ModuleInstance) data(i uint32) *DataInstance {
	if i >= uint32(len(m.Datas)) {
		crash("data segment index %d out of range %d", i, len(m.Datas))
	}
	return m.Datas[i]
}

// ExportedFunction looks up an exported function by name.
func (m *ModuleInstance) ExportedFunction(name string) (FunctionInstance, bool) {
	e, ok := m.Exports[name].(ExternFunction)
	if !ok {
		return nil, false
	}
	return e.Function, true
}

// ExportedTable looks up an exported table by name.
func (m *ModuleInstance) ExportedTable(name string) (*TableInstance, bool) {
	e, ok := m.Exports[name].(ExternTable)
	if !ok {
		return nil, false
	}
	return e.Table, true
}

// ExportedMemory looks up an exported memory by name.
func (m *ModuleInstance) ExportedMemory(name string) (*MemoryInstance, bool) {
	e, ok := m.Exports[name].(ExternMemory)
	if !ok {
		return nil, false
	}
	return e.Memory, true
}

// ExportedGlobal looks up an exported global by name.
func (m *ModuleInstance) ExportedGlobal(name string) (*GlobalInstance, bool) {
	e, ok := m.Exports[name].(ExternGlobal)
	if !ok {
		return nil, false
	}
	return e.Global, true
}

// Frame is the activation record of a call: the owning instance and the
// mutable locals, parameters first.
type Frame struct {
	Instance *ModuleInstance
	Locals   []Value
}

func (f *Frame) local(i uint32) Value {
	if i >= uint32(len(f.Locals)) {
		crash("local index %d out of range %d", i, len(f.Locals))
	}
	return f.Locals[i]
}

func (f *Frame) setLocal(i uint32, v Value) {
	if i >= uint32(len(f.Locals)) {
		crash("local index %d out of range %d", i, len(f.Locals))
	}
	f.Locals[i] = v
}
