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
	"errors"
	"sync/atomic"

	"jinr.ru/greenlab/go-stemlab/pkg/log"
	"jinr.ru/greenlab/go-stemlab/pkg/transport/ifc"
)

const (
	OpRead  = "read"
	OpWrite = "write"
)

// Stats counts the link operations issued through a Device
type Stats struct {
	Reads  uint64
	Writes uint64
}

// Device is the transport object shared by every module of one device session.
// It owns the per-word lock table, so all modules built on the same Device
// serialize read-modify-write sequences on the same words.
type Device struct {
	Name   string
	link   ifc.Link
	limit  uint32
	locks  *LockTable
	reads  uint64
	writes uint64
}

// NewDevice wraps link. addressSpace is the exclusive upper bound of bus (byte) addresses,
// 0 disables the range check.
func NewDevice(name string, link ifc.Link, addressSpace uint32) *Device {
	return &Device{
		Name:  name,
		link:  link,
		limit: addressSpace,
		locks: NewLockTable(),
	}
}

// Locks returns the lock table owned by the device
func (d *Device) Locks() *LockTable {
	return d.locks
}

// Stats ...
func (d *Device) Stats() Stats {
	return Stats{
		Reads:  atomic.LoadUint64(&d.reads),
		Writes: atomic.LoadUint64(&d.writes),
	}
}

// Close closes the underlying link
func (d *Device) Close() error {
	return d.link.Close()
}

func (d *Device) checkRange(addr uint32) error {
	if d.limit != 0 && addr >= d.limit {
		return ErrAddressRange{Addr: addr, Limit: d.limit}
	}
	return nil
}

// Read reads one raw word
func (d *Device) Read(ctx context.Context, addr uint32) (uint32, error) {
	if err := d.checkRange(addr); err != nil {
		return 0, err
	}
	atomic.AddUint64(&d.reads, 1)
	value, err := d.link.ReadWord(ctx, addr)
	if err != nil {
		log.Debug("%s: read 0x%08x failed: %s", d.Name, addr, err)
		return 0, classify(OpRead, addr, err)
	}
	log.Debug("%s: read 0x%08x = 0x%08x", d.Name, addr, value)
	return value, nil
}

// Write writes one full raw word
func (d *Device) Write(ctx context.Context, addr uint32, value uint32) error {
	if err := d.checkRange(addr); err != nil {
		return err
	}
	return d.locks.Locked(ctx, addr, func(ctx context.Context) error {
		return d.write(ctx, addr, value)
	})
}

func (d *Device) write(ctx context.Context, addr uint32, value uint32) error {
	atomic.AddUint64(&d.writes, 1)
	if err := d.link.WriteWord(ctx, addr, value); err != nil {
		log.Debug("%s: write 0x%08x = 0x%08x failed: %s", d.Name, addr, value, err)
		return classify(OpWrite, addr, err)
	}
	log.Debug("%s: write 0x%08x = 0x%08x", d.Name, addr, value)
	return nil
}

// Modify replaces the bits selected by mask in the word at addr with bits.
// The read and the write happen under the word lock, and the word is always
// read fresh from the device so sibling fields keep their live values.
// The written word is returned.
func (d *Device) Modify(ctx context.Context, addr uint32, mask uint32, bits uint32) (uint32, error) {
	if err := d.checkRange(addr); err != nil {
		return 0, err
	}
	var word uint32
	err := d.locks.Locked(ctx, addr, func(ctx context.Context) error {
		current, err := d.Read(ctx, addr)
		if err != nil {
			return err
		}
		word = (current &^ mask) | (bits & mask)
		return d.write(ctx, addr, word)
	})
	if err != nil {
		return 0, err
	}
	return word, nil
}

// ReadWords reads each distinct address once, in the given order
func (d *Device) ReadWords(ctx context.Context, addrs []uint32) (map[uint32]uint32, error) {
	words := make(map[uint32]uint32, len(addrs))
	for _, addr := range addrs {
		if _, ok := words[addr]; ok {
			continue
		}
		value, err := d.Read(ctx, addr)
		if err != nil {
			return nil, err
		}
		words[addr] = value
	}
	return words, nil
}

func classify(op string, addr uint32, err error) error {
	var rangeErr ErrAddressRange
	if errors.As(err, &rangeErr) {
		return err
	}
	var timeoutErr ErrTransportTimeout
	if errors.As(err, &timeoutErr) {
		return err
	}
	var transportErr ErrTransport
	if errors.As(err, &transportErr) {
		return err
	}
	base := ErrTransport{Op: op, Addr: addr, Err: err}
	var t ifc.Timeout
	if errors.As(err, &t) && t.Timeout() {
		return ErrTransportTimeout{ErrTransport: base}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTransportTimeout{ErrTransport: base}
	}
	return base
}
