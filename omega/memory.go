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

import "encoding/binary"

const (
	// PageSize is the WebAssembly page size in bytes.
	// See https://webassembly.github.io/spec/core/exec/runtime.html#memory-instances.
	PageSize = 65536

	// maxMemoryPages caps a 32-bit address space: 65536 pages of 64 KiB.
	maxMemoryPages = 65536
)

// MemoryInstance is a linear memory: a growable byte array organized in
// pages. All accesses are bounds-checked against the current byte length.
// Execution is cooperative, so the atomic accessors below are plain reads
// and writes behind an alignment check.
type MemoryInstance struct {
	Type MemoryType
	data []byte
}

// NewMemoryInstance allocates a memory of its type's minimum page count.
func NewMemoryInstance(t MemoryType) *MemoryInstance {
	return &MemoryInstance{
		Type: t,
		data: make([]byte, uint64(t.Limits.Min)*PageSize),
	}
}

// Size returns the current size in pages.
func (m *MemoryInstance) Size() uint32 {
	return uint32(uint64(len(m.data)) / PageSize)
}

// Bound returns the current size in bytes.
func (m *MemoryInstance) Bound() uint64 {
	return uint64(len(m.data))
}

// Shared reports whether this memory was declared shared.
func (m *MemoryInstance) Shared() bool {
	return m.Type.Shared
}

// Grow extends the memory by delta pages and returns the previous size in
// pages, or -1 when the new size would exceed the declared or implementation
// limit.
func (m *MemoryInstance) Grow(delta uint32) int32 {
	prev := m.Size()
	next := uint64(prev) + uint64(delta)
	if next > maxMemoryPages {
		return -1
	}
	if m.Type.Limits.Max != nil && next > uint64(*m.Type.Limits.Max) {
		return -1
	}
	m.data = append(m.data, make([]byte, uint64(delta)*PageSize)...)
	return int32(prev)
}

func (m *MemoryInstance) check(addr uint64, n uint32) error {
	if addr+uint64(n) > m.Bound() {
		return ErrMemoryOutOfBounds
	}
	return nil
}

// Load reads n bytes (n <= 8) at addr as a little-endian unsigned integer.
func (m *MemoryInstance) Load(addr uint64, n uint32) (uint64, error) {
	if err := m.check(addr, n); err != nil {
		return 0, err
	}
	var buf [8]byte
	copy(buf[:], m.data[addr:addr+uint64(n)])
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Store writes the low n bytes (n <= 8) of v at addr in little-endian order.
func (m *MemoryInstance) Store(addr uint64, n uint32, v uint64) error {
	if err := m.check(addr, n); err != nil {
		return err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	copy(m.data[addr:addr+uint64(n)], buf[:n])
	return nil
}

// LoadVector reads 16 bytes at addr.
func (m *MemoryInstance) LoadVector(addr uint64) (Vec128, error) {
	if err := m.check(addr, 16); err != nil {
		return Vec128{}, err
	}
	return Vec128{
		Low:  binary.LittleEndian.Uint64(m.data[addr:]),
		High: binary.LittleEndian.Uint64(m.data[addr+8:]),
	}, nil
}

// StoreVector writes 16 bytes at addr.
func (m *MemoryInstance) StoreVector(addr uint64, v Vec128) error {
	if err := m.check(addr, 16); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.data[addr:], v.Low)
	binary.LittleEndian.PutUint64(m.data[addr+8:], v.High)
	return nil
}

func alignCheck(addr uint64, n uint32) error {
	if addr%uint64(n) != 0 {
		return ErrUnalignedAtomicAccess
	}
	return nil
}

// AtomicLoad is Load behind the alignment check required of atomic accesses.
func (m *MemoryInstance) AtomicLoad(addr uint64, n uint32) (uint64, error) {
	if err := alignCheck(addr, n); err != nil {
		return 0, err
	}
	return m.Load(addr, n)
}

// AtomicStore is Store behind the alignment check.
func (m *MemoryInstance) AtomicStore(addr uint64, n uint32, v uint64) error {
	if err := alignCheck(addr, n); err != nil {
		return err
	}
	return m.Store(addr, n, v)
}

// AtomicRMW applies f to the n-byte word at addr and returns the previous
// value. The read and write are one indivisible step under cooperative
// scheduling.
func (m *MemoryInstance) AtomicRMW(addr uint64, n uint32, f func(uint64) uint64) (uint64, error) {
	old, err := m.AtomicLoad(addr, n)
	if err != nil {
		return 0, err
	}
	if err := m.Store(addr, n, f(old)); err != nil {
		return 0, err
	}
	return old, nil
}

// AtomicCompareExchange writes replacement at addr only when the current
// n-byte word equals expected, and returns the previous value either way.
// Callers truncate expected to the access width before the call.
func (m *MemoryInstance) AtomicCompareExchange(addr uint64, n uint32, expected, replacement uint64) (uint64, error) {
	old, err := m.AtomicLoad(addr, n)
	if err != nil {
		return 0, err
	}
	if old == expected {
		if err := m.Store(addr, n, replacement); err != nil {
			return 0, err
		}
	}
	return old, nil
}
