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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestDeviceReadWrite(t *testing.T) {
	ctx := context.Background()
	link := NewMemoryLink()
	d := NewDevice("test", link, 0x100)

	require.NoError(t, d.Write(ctx, 0x10, 0xabcd))
	assert.Equal(t, uint32(0xabcd), link.Peek(0x10))

	value, err := d.Read(ctx, 0x10)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xabcd), value)
	assert.Equal(t, Stats{Reads: 1, Writes: 1}, d.Stats())
}

func TestDeviceAddressRange(t *testing.T) {
	ctx := context.Background()
	d := NewDevice("test", NewMemoryLink(), 0x100)

	_, err := d.Read(ctx, 0x100)
	var rangeErr ErrAddressRange
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, uint32(0x100), rangeErr.Addr)

	err = d.Write(ctx, 0x200, 1)
	assert.True(t, errors.As(err, &rangeErr))

	_, err = d.Modify(ctx, 0x200, 1, 1)
	assert.True(t, errors.As(err, &rangeErr))

	// no link operation is issued for out of range addresses
	assert.Equal(t, Stats{}, d.Stats())

	unlimited := NewDevice("test", NewMemoryLink(), 0)
	_, err = unlimited.Read(ctx, 0xffffffff)
	assert.NoError(t, err)
}

func TestDeviceModify(t *testing.T) {
	ctx := context.Background()
	link := NewMemoryLink()
	d := NewDevice("test", link, 0)
	link.Poke(0x10, 0xff00)

	word, err := d.Modify(ctx, 0x10, 0x0f, 0x05)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xff05), word)
	assert.Equal(t, uint32(0xff05), link.Peek(0x10))

	// bits outside the mask are ignored
	word, err = d.Modify(ctx, 0x10, 0x0f, 0xf0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xff00), word)
}

func TestDeviceModifyConcurrent(t *testing.T) {
	ctx := context.Background()
	link := NewMemoryLink()
	d := NewDevice("test", link, 0)

	var wg sync.WaitGroup
	for bit := 0; bit < 32; bit++ {
		wg.Add(1)
		go func(bit int) {
			defer wg.Done()
			_, err := d.Modify(ctx, 0x20, 1<<bit, 1<<bit)
			assert.NoError(t, err)
		}(bit)
	}
	wg.Wait()
	assert.Equal(t, uint32(0xffffffff), link.Peek(0x20))
	assert.Equal(t, 1, d.Locks().Len())
}

func TestDeviceReentrantLock(t *testing.T) {
	ctx := context.Background()
	d := NewDevice("test", NewMemoryLink(), 0)

	err := d.Locks().Locked(ctx, 0x10, func(ctx context.Context) error {
		return d.Write(ctx, 0x10, 1)
	})
	var reentrant ErrConcurrentWordWrite
	require.True(t, errors.As(err, &reentrant))
	assert.Equal(t, uint32(0x10), reentrant.Addr)

	// another word may be locked from within
	err = d.Locks().Locked(ctx, 0x10, func(ctx context.Context) error {
		return d.Write(ctx, 0x14, 1)
	})
	assert.NoError(t, err)
}

func TestDeviceErrors(t *testing.T) {
	ctx := context.Background()
	link := NewMemoryLink()
	d := NewDevice("test", link, 0)

	t.Run("Transport", func(t *testing.T) {
		cause := errors.New("connection reset")
		link.Fail(cause, cause)
		defer link.Fail(nil, nil)

		_, err := d.Read(ctx, 0x10)
		var transportErr ErrTransport
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, OpRead, transportErr.Op)
		assert.ErrorIs(t, err, cause)

		var timeout ErrTransportTimeout
		assert.False(t, errors.As(err, &timeout))

		err = d.Write(ctx, 0x10, 1)
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, OpWrite, transportErr.Op)
	})

	t.Run("Timeout", func(t *testing.T) {
		link.Fail(timeoutErr{}, nil)
		defer link.Fail(nil, nil)

		_, err := d.Read(ctx, 0x10)
		var timeout ErrTransportTimeout
		require.True(t, errors.As(err, &timeout))
		var transportErr ErrTransport
		assert.True(t, errors.As(err, &transportErr))
	})

	t.Run("Deadline", func(t *testing.T) {
		expired, cancel := context.WithTimeout(ctx, 0)
		defer cancel()
		<-expired.Done()

		_, err := d.Read(expired, 0x10)
		var timeout ErrTransportTimeout
		assert.True(t, errors.As(err, &timeout))
	})

	t.Run("ModifyReadFailureDoesNotWrite", func(t *testing.T) {
		link.Poke(0x30, 0x1)
		link.Fail(errors.New("boom"), nil)
		defer link.Fail(nil, nil)

		before := d.Stats().Writes
		_, err := d.Modify(ctx, 0x30, 0x2, 0x2)
		assert.Error(t, err)
		assert.Equal(t, before, d.Stats().Writes)
		assert.Equal(t, uint32(0x1), link.Peek(0x30))
	})
}

func TestDeviceReadWords(t *testing.T) {
	ctx := context.Background()
	link := NewMemoryLink()
	d := NewDevice("test", link, 0)
	link.Poke(0x10, 1)
	link.Poke(0x14, 2)

	words, err := d.ReadWords(ctx, []uint32{0x10, 0x14, 0x10})
	require.NoError(t, err)
	assert.Equal(t, map[uint32]uint32{0x10: 1, 0x14: 2}, words)
	assert.Equal(t, uint64(2), d.Stats().Reads)
}

func TestMemoryLinkWriteHook(t *testing.T) {
	ctx := context.Background()
	link := NewMemoryLink()
	link.SetWriteHook(func(addr, requested, current uint32) uint32 {
		if requested > 3 {
			return current
		}
		return requested
	})
	d := NewDevice("test", link, 0)

	require.NoError(t, d.Write(ctx, 0x10, 2))
	require.NoError(t, d.Write(ctx, 0x10, 7))
	assert.Equal(t, uint32(2), link.Peek(0x10))

	require.NoError(t, d.Close())
	_, err := d.Read(ctx, 0x10)
	var closed ErrLinkClosed
	assert.True(t, errors.As(err, &closed))
}
