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
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMonitor serves the monitor protocol on one end of a pipe
func fakeMonitor(t *testing.T, conn net.Conn, words map[uint32]uint32, corrupt bool) {
	t.Helper()
	go func() {
		header := make([]byte, 8)
		for {
			if _, err := io.ReadFull(conn, header); err != nil {
				return
			}
			length := int(binary.LittleEndian.Uint16(header[2:4]))
			addr := binary.LittleEndian.Uint32(header[4:8])
			answer := append([]byte{}, header...)
			if corrupt {
				answer[0] = 'x'
			}
			switch header[0] {
			case 'r':
				for i := 0; i < length; i++ {
					buf := make([]byte, 4)
					binary.LittleEndian.PutUint32(buf, words[addr+uint32(i)])
					answer = append(answer, buf...)
				}
			case 'w':
				data := make([]byte, 4*length)
				if _, err := io.ReadFull(conn, data); err != nil {
					return
				}
				for i := 0; i < length; i++ {
					words[addr+uint32(i)] = binary.LittleEndian.Uint32(data[4*i:])
				}
			case 'c':
				conn.Close()
				return
			}
			if _, err := conn.Write(answer); err != nil {
				return
			}
		}
	}()
}

func TestMonitorLink(t *testing.T) {
	ctx := context.Background()
	client, server := net.Pipe()
	words := map[uint32]uint32{0x104: 0x1234}
	fakeMonitor(t, server, words, false)

	link := NewMonitorLink(client, time.Second)
	d := NewDevice("stemlab", link, 0)

	value, err := d.Read(ctx, 0x104)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1234), value)

	require.NoError(t, d.Write(ctx, 0x108, 0xcafe))
	value, err = d.Read(ctx, 0x108)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xcafe), value)

	require.NoError(t, link.Close())
	_, err = link.ReadWord(ctx, 0x104)
	var closed ErrLinkClosed
	assert.True(t, errors.As(err, &closed))
}

func TestMonitorLinkTimeout(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	// the server reads requests but never answers
	go io.Copy(io.Discard, server)

	d := NewDevice("stemlab", NewMonitorLink(client, 20*time.Millisecond), 0)
	_, err := d.Read(context.Background(), 0x104)
	var timeout ErrTransportTimeout
	require.True(t, errors.As(err, &timeout), "got %v", err)
	assert.Equal(t, OpRead, timeout.Op)
}

func TestMonitorLinkDesync(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	fakeMonitor(t, server, map[uint32]uint32{}, true)

	d := NewDevice("stemlab", NewMonitorLink(client, 100*time.Millisecond), 0)
	_, err := d.Read(context.Background(), 0x104)
	var syncErr ErrMonitorSync
	require.True(t, errors.As(err, &syncErr))
	var transportErr ErrTransport
	assert.True(t, errors.As(err, &transportErr))
}
