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

package policy

import (
	"context"
	"errors"
	"sync"
	"time"

	"jinr.ru/greenlab/go-stemlab/pkg/register"
)

// State is the synchronization state of one register
type State int

const (
	// Unknown registers are read from the device on the next get
	Unknown State = iota
	// CacheValid registers are served from the cache
	CacheValid
	// AlwaysFresh registers are read from the device on every get
	AlwaysFresh
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case CacheValid:
		return "cache-valid"
	case AlwaysFresh:
		return "always-fresh"
	}
	return "invalid"
}

type entry struct {
	// io is held across the device access and the cache update of one get or set
	io    sync.Mutex
	sync  register.Sync
	value interface{}
	at    time.Time
	valid bool
	// gen changes whenever the cached value is replaced or dropped
	gen uint64
}

// Policy decides whether a register value is served from the cache or read from the device.
// One Policy is shared by all modules of a session.
type Policy struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func New() *Policy {
	return &Policy{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Track registers an accessor with the policy. Tracking is idempotent.
func (p *Policy) Track(acc *register.Accessor) {
	p.lookup(acc)
}

func (p *Policy) lookup(acc *register.Accessor) *entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entry(acc)
}

// entry must be called with mu held
func (p *Policy) entry(acc *register.Accessor) *entry {
	e, ok := p.entries[acc.Path]
	if !ok {
		e = &entry{sync: acc.Def.Sync}
		p.entries[acc.Path] = e
	}
	return e
}

func (p *Policy) store(acc *register.Accessor, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entry(acc)
	e.value = value
	e.at = p.now()
	e.valid = true
	e.gen++
}

func (p *Policy) drop(acc *register.Accessor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entry(acc)
	e.value = nil
	e.valid = false
	e.gen++
}

func (p *Policy) cached(acc *register.Accessor) (interface{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entry(acc)
	if e.sync == register.AlwaysFresh || !e.valid {
		return nil, false
	}
	return e.value, true
}

// Get returns the value of a register. Always-fresh registers are read every time,
// other registers are read once and then served from the cache.
func (p *Policy) Get(ctx context.Context, acc *register.Accessor) (interface{}, error) {
	e := p.lookup(acc)
	e.io.Lock()
	defer e.io.Unlock()
	if value, ok := p.cached(acc); ok {
		return value, nil
	}
	value, err := acc.Read(ctx)
	if err != nil {
		return nil, err
	}
	p.store(acc, value)
	return value, nil
}

// Set writes a register and returns the value the device now holds.
// Always-fresh registers are read back after the write and the hardware
// reported value is cached, the device may have clamped or ignored the write.
// For other registers the written value, as the codec quantized it, is cached.
// A failed write drops the cached value since the word may have changed.
func (p *Policy) Set(ctx context.Context, acc *register.Accessor, value interface{}) (interface{}, error) {
	e := p.lookup(acc)
	e.io.Lock()
	defer e.io.Unlock()
	if err := acc.Write(ctx, value); err != nil {
		if !rejected(err) {
			p.drop(acc)
		}
		return nil, err
	}
	if acc.Def.Sync == register.AlwaysFresh {
		confirmed, err := acc.Read(ctx)
		if err != nil {
			p.drop(acc)
			return nil, err
		}
		p.store(acc, confirmed)
		return confirmed, nil
	}
	written, err := quantize(acc.Def, value)
	if err != nil {
		p.drop(acc)
		return nil, err
	}
	p.store(acc, written)
	return written, nil
}

// rejected reports errors returned before any I/O
func rejected(err error) bool {
	var invalid register.ErrInvalidValue
	var access register.ErrAccessMode
	return errors.As(err, &invalid) || errors.As(err, &access)
}

// quantize returns the host value the device holds after value was written
func quantize(def *register.Definition, value interface{}) (interface{}, error) {
	bits, err := def.Encode(value)
	if err != nil {
		return nil, err
	}
	return def.Decode(bits)
}

// Generation returns a token to pass to Observe for a read that starts now
func (p *Policy) Generation(acc *register.Accessor) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entry(acc).gen
}

// Observe records a value read from the device outside of Get, e.g. by a snapshot.
// The value is dropped when a get or set replaced the cache after gen was taken,
// the read may then predate the last write.
func (p *Policy) Observe(acc *register.Accessor, value interface{}, gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entry(acc)
	if e.gen != gen {
		return false
	}
	e.value = value
	e.at = p.now()
	e.valid = true
	e.gen++
	return true
}

// Invalidate drops every cached value. All cache-stable registers return to Unknown.
func (p *Policy) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		e.value = nil
		e.valid = false
		e.gen++
	}
}

// State returns the synchronization state of the register at path
func (p *Policy) State(path string) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[path]
	switch {
	case !ok:
		return Unknown
	case e.sync == register.AlwaysFresh:
		return AlwaysFresh
	case e.valid:
		return CacheValid
	}
	return Unknown
}

// Cached returns the last known value of the register at path and when it was obtained.
// Always-fresh registers report the value of their last read.
func (p *Policy) Cached(path string) (interface{}, time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[path]
	if !ok || !e.valid {
		return nil, time.Time{}, false
	}
	return e.value, e.at, true
}
