/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package transport

import (
	"context"
	"sync"

	"jinr.ru/greenlab/go-stemlab/pkg/transport/ifc"
)

// WriteHook lets a MemoryLink emulate hardware logic that alters a requested
// value, e.g. a selector clamped by a safety interlock. It returns the word
// the device actually stores.
type WriteHook func(addr uint32, requested uint32, current uint32) uint32

// MemoryLink is an in-memory register space standing in for a real device.
// Unwritten words read as zero.
type MemoryLink struct {
	mu       sync.Mutex
	words    map[uint32]uint32
	hook     WriteHook
	readErr  error
	writeErr error
	closed   bool
}

var _ ifc.Link = &MemoryLink{}

func NewMemoryLink() *MemoryLink {
	return &MemoryLink{
		words: make(map[uint32]uint32),
	}
}

// SetWriteHook installs hook for every following write
func (m *MemoryLink) SetWriteHook(hook WriteHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = hook
}

// Fail makes following reads and writes fail with the given errors. nil clears.
func (m *MemoryLink) Fail(readErr, writeErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = readErr
	m.writeErr = writeErr
}

// Poke changes a word behind the back of the host, like another client would.
func (m *MemoryLink) Poke(addr uint32, value uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.words[addr] = value
}

// Peek returns a word without going through the transport
func (m *MemoryLink) Peek(addr uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.words[addr]
}

func (m *MemoryLink) ReadWord(ctx context.Context, addr uint32) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrLinkClosed{}
	}
	if m.readErr != nil {
		return 0, m.readErr
	}
	return m.words[addr], nil
}

func (m *MemoryLink) WriteWord(ctx context.Context, addr uint32, value uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrLinkClosed{}
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.hook != nil {
		value = m.hook(addr, value, m.words[addr])
	}
	m.words[addr] = value
	return nil
}

func (m *MemoryLink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
