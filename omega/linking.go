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
	"slices"

	"go.uber.org/zap"
)

// Init instantiates module on thread id. Externals are bound to imports in
// import order, entities are allocated, global and segment initializers are
// evaluated, and the bootstrap stream (active segment initialization followed
// by the optional start call) is spliced into the thread's code ahead of
// whatever it currently holds. The caller drives the bootstrap to completion
// by stepping or evaluating the thread.
func (cfg *Configuration) Init(id ThreadID, module *Module, externs []Extern) (*ModuleInstance, error) {
	inst := &ModuleInstance{
		Types:   slices.Clone(module.Types),
		Exports: make(map[string]Extern),
	}

	if err := bindImports(inst, module, externs); err != nil {
		return nil, err
	}

	// Functions are allocated before tables, memories, and globals so that
	// initializer expressions and exports can reference them; the
	// back-reference to inst is patched after allocation.
	locals := make([]*WasmFunction, len(module.Funcs))
	for i := range module.Funcs {
		f := &module.Funcs[i]
		locals[i] = &WasmFunction{Type: &inst.Types[f.TypeIndex], Def: f}
		inst.Functions = append(inst.Functions, locals[i])
	}

	for _, t := range module.Tables {
		inst.Tables = append(inst.Tables, NewTableInstance(t))
	}
	for _, t := range module.Memories {
		inst.Memories = append(inst.Memories, NewMemoryInstance(t))
	}
	for i := range module.GlobalVariables {
		g := &module.GlobalVariables[i]
		v, err := EvalConst(inst, g.Init)
		if err != nil {
			return nil, err
		}
		inst.Globals = append(inst.Globals, NewGlobalInstance(g.GlobalType, v))
	}
	for i := range module.ElementSegments {
		seg := &module.ElementSegments[i]
		refs := make([]Reference, len(seg.Items))
		for j, item := range seg.Items {
			v, err := EvalConst(inst, item)
			if err != nil {
				return nil, err
			}
			refs[j] = v.Ref()
		}
		inst.Elements = append(inst.Elements, &ElementInstance{Type: seg.Type, refs: refs})
	}
	for i := range module.DataSegments {
		seg := &module.DataSegments[i]
		inst.Datas = append(inst.Datas, &DataInstance{bytes: slices.Clone(seg.Content)})
	}

	for _, e := range module.Exports {
		switch e.Kind {
		case FunctionExportKind:
			inst.Exports[e.Name] = ExternFunction{Function: inst.function(e.Index)}
		case TableExportKind:
			inst.Exports[e.Name] = ExternTable{Table: inst.table(e.Index)}
		case MemoryExportKind:
			inst.Exports[e.Name] = ExternMemory{Memory: inst.memory(e.Index)}
		case GlobalExportKind:
			inst.Exports[e.Name] = ExternGlobal{Global: inst.global(e.Index)}
		default:
			crash("unknown export kind %d", e.Kind)
		}
	}

	for _, f := range locals {
		f.Instance = inst
	}

	boot := bootstrap(module)
	t := cfg.thread(id)
	t.code.instrs = append([]adminInstruction{&frameInstr{
		frame: &Frame{Instance: inst},
		inner: &code{instrs: plainSeq(boot)},
	}}, t.code.instrs...)

	Logger().Debug("instantiated module",
		zap.Int("thread", int(id)),
		zap.Int("functions", len(inst.Functions)),
		zap.Int("bootstrap_instructions", len(boot)))
	return inst, nil
}

func bindImports(inst *ModuleInstance, module *Module, externs []Extern) error {
	if len(externs) != len(module.Imports) {
		return linkErrorf("import count mismatch: %d externals for %d imports",
			len(externs), len(module.Imports))
	}
	for i, imp := range module.Imports {
		ext := externs[i]
		switch want := imp.Type.(type) {
		case FunctionTypeIndex:
			e, ok := ext.(ExternFunction)
			if !ok {
				return importError(imp, "function", ext)
			}
			ft := &module.Types[want]
			if !e.Function.FunctionType().Equal(ft) {
				return linkErrorf("incompatible import %q %q: function type mismatch",
					imp.ModuleName, imp.Name)
			}
			inst.Functions = append(inst.Functions, e.Function)
		case TableType:
			e, ok := ext.(ExternTable)
			if !ok {
				return importError(imp, "table", ext)
			}
			if e.Table.Type.ReferenceType != want.ReferenceType ||
				!limitsMatch(e.Table.Type.Limits, want.Limits) {
				return linkErrorf("incompatible import %q %q: table type mismatch",
					imp.ModuleName, imp.Name)
			}
			inst.Tables = append(inst.Tables, e.Table)
		case MemoryType:
			e, ok := ext.(ExternMemory)
			if !ok {
				return importError(imp, "memory", ext)
			}
			if e.Memory.Type.Shared != want.Shared ||
				!limitsMatch(e.Memory.Type.Limits, want.Limits) {
				return linkErrorf("incompatible import %q %q: memory type mismatch",
					imp.ModuleName, imp.Name)
			}
			inst.Memories = append(inst.Memories, e.Memory)
		case GlobalType:
			e, ok := ext.(ExternGlobal)
			if !ok {
				return importError(imp, "global", ext)
			}
			if e.Global.Type != want {
				return linkErrorf("incompatible import %q %q: global type mismatch",
					imp.ModuleName, imp.Name)
			}
			inst.Globals = append(inst.Globals, e.Global)
		default:
			crash("unknown import type %T", imp.Type)
		}
	}
	return nil
}

func importError(imp Import, want string, got Extern) *Error {
	return linkErrorf("incompatible import %q %q: expected a %s, got %s",
		imp.ModuleName, imp.Name, want, externKind(got))
}

func externKind(e Extern) string {
	switch e.(type) {
	case ExternFunction:
		return "function"
	case ExternTable:
		return "table"
	case ExternMemory:
		return "memory"
	case ExternGlobal:
		return "global"
	default:
		return "unknown external"
	}
}

// limitsMatch implements import subtyping for limits: the provided entity
// must be at least as large as required and must not be able to outgrow the
// declared maximum.
func limitsMatch(actual, want Limits) bool {
	if actual.Min < want.Min {
		return false
	}
	if want.Max == nil {
		return true
	}
	return actual.Max != nil && *actual.Max <= *want.Max
}

// bootstrap lowers active and declarative segments plus the start function
// into a plain instruction stream. Active segments become a bulk init over
// the whole segment followed by a drop; declarative element segments are
// dropped without initializing anything; passive segments contribute nothing.
func bootstrap(module *Module) []Instruction {
	var out []Instruction
	for i := range module.ElementSegments {
		seg := &module.ElementSegments[i]
		switch seg.Mode {
		case ActiveElementMode:
			out = append(out, seg.Offset...)
			out = append(out,
				Instruction{Op: OpI32Const, Const: 0},
				Instruction{Op: OpI32Const, Const: uint64(len(seg.Items))},
				Instruction{Op: OpTableInit, X: seg.TableIndex, Y: uint32(i)},
				Instruction{Op: OpElemDrop, X: uint32(i)},
			)
		case DeclarativeElementMode:
			out = append(out, Instruction{Op: OpElemDrop, X: uint32(i)})
		}
	}
	for i := range module.DataSegments {
		seg := &module.DataSegments[i]
		if seg.Mode != ActiveDataMode {
			continue
		}
		out = append(out, seg.Offset...)
		out = append(out,
			Instruction{Op: OpI32Const, Const: 0},
			Instruction{Op: OpI32Const, Const: uint64(len(seg.Content))},
			Instruction{Op: OpMemoryInit, X: seg.MemoryIndex, Y: uint32(i)},
			Instruction{Op: OpDataDrop, X: uint32(i)},
		)
	}
	if module.StartIndex != nil {
		out = append(out, Instruction{Op: OpCall, X: *module.StartIndex})
	}
	return out
}

// EvalConst reduces a constant initializer expression to its single value
// using a throwaway single-thread configuration over inst.
func EvalConst(inst *ModuleInstance, expr []Instruction) (Value, error) {
	cfg := NewConfiguration(DefaultFlags())
	id := cfg.Spawn()
	t := cfg.thread(id)
	t.frame = &Frame{Instance: inst}
	t.code.instrs = plainSeq(expr)
	vs, err := cfg.Eval(id)
	if err != nil {
		return Value{}, err
	}
	if len(vs) != 1 {
		crash("constant expression produced %d values", len(vs))
	}
	return vs[0], nil
}
