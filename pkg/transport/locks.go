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
)

type heldKey struct{}

// held is the set of word bus addresses locked by one call chain.
// It is carried in the context so nested lock attempts are detected
// instead of deadlocking.
type held map[uint32]struct{}

// LockTable holds one mutex per physical word, keyed by its bus (byte) address.
// It only serializes writers inside this process.
type LockTable struct {
	mu    sync.Mutex
	words map[uint32]*sync.Mutex
}

func NewLockTable() *LockTable {
	return &LockTable{
		words: make(map[uint32]*sync.Mutex),
	}
}

func (t *LockTable) word(addr uint32) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.words[addr]
	if !ok {
		m = &sync.Mutex{}
		t.words[addr] = m
	}
	return m
}

// Locked runs fn while holding the lock of the word at addr.
func (t *LockTable) Locked(ctx context.Context, addr uint32, fn func(ctx context.Context) error) error {
	h, _ := ctx.Value(heldKey{}).(held)
	if _, ok := h[addr]; ok {
		return ErrConcurrentWordWrite{Addr: addr}
	}
	next := make(held, len(h)+1)
	for a := range h {
		next[a] = struct{}{}
	}
	next[addr] = struct{}{}

	m := t.word(addr)
	m.Lock()
	defer m.Unlock()
	return fn(context.WithValue(ctx, heldKey{}, next))
}

// Len returns the number of words that were ever locked
func (t *LockTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.words)
}
