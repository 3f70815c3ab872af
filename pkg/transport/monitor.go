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
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"jinr.ru/greenlab/go-stemlab/pkg/layers"
	"jinr.ru/greenlab/go-stemlab/pkg/log"
	"jinr.ru/greenlab/go-stemlab/pkg/transport/ifc"
)

const (
	DefaultMonitorTimeout = time.Second
)

// ErrMonitorSync is returned when the server answers with a header
// that does not echo the request.
type ErrMonitorSync struct {
	Sent     []byte
	Received []byte
}

func (e ErrMonitorSync) Error() string {
	return fmt.Sprintf("Wrong control sequence from monitor server: sent %x received %x", e.Sent, e.Received)
}

// MonitorLink talks to the monitor server running on the device over TCP.
// One request is in flight at a time.
type MonitorLink struct {
	mu      sync.Mutex
	addr    string
	conn    net.Conn
	timeout time.Duration
}

var _ ifc.Link = &MonitorLink{}

// DialMonitor connects to the monitor server at addr (host:port)
func DialMonitor(ctx context.Context, addr string, timeout time.Duration) (*MonitorLink, error) {
	if timeout <= 0 {
		timeout = DefaultMonitorTimeout
	}
	log.Debug("Connecting to monitor server: %s", addr)
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewMonitorLink(conn, timeout), nil
}

// NewMonitorLink uses an already established connection
func NewMonitorLink(conn net.Conn, timeout time.Duration) *MonitorLink {
	if timeout <= 0 {
		timeout = DefaultMonitorTimeout
	}
	return &MonitorLink{
		addr:    conn.RemoteAddr().String(),
		conn:    conn,
		timeout: timeout,
	}
}

func (m *MonitorLink) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return deadline
}

// exchange sends a frame and reads back the echoed header plus answerWords words
func (m *MonitorLink) exchange(ctx context.Context, frame *layers.MonitorLayer, answerWords int) (*layers.MonitorLayer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	request, err := layers.MonitorFrameToBytes(frame)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil, ErrLinkClosed{}
	}
	if err := m.conn.SetDeadline(m.deadline(ctx)); err != nil {
		return nil, err
	}
	if _, err := m.conn.Write(request); err != nil {
		return nil, err
	}

	answer := make([]byte, layers.MonitorHeaderSize+4*answerWords)
	if _, err := io.ReadFull(m.conn, answer); err != nil {
		return nil, err
	}
	sent := frame.HeaderBytes()
	if !bytes.Equal(answer[:layers.MonitorHeaderSize], sent) {
		m.drain()
		return nil, ErrMonitorSync{Sent: sent, Received: answer[:layers.MonitorHeaderSize]}
	}
	return layers.ParseMonitorFrame(answer)
}

// drain discards whatever is left on the socket after a desync
func (m *MonitorLink) drain() {
	buf := make([]byte, 16384)
	m.conn.SetReadDeadline(time.Now().Add(10 * time.Millisecond))
	for i := 0; i < 100; i++ {
		n, err := m.conn.Read(buf)
		if n <= 0 || err != nil {
			return
		}
		log.Debug("Discarded %d bytes from monitor server %s", n, m.addr)
	}
}

// ReadWord ...
func (m *MonitorLink) ReadWord(ctx context.Context, addr uint32) (uint32, error) {
	frame := &layers.MonitorLayer{
		MonitorHeader: layers.MonitorHeader{Op: layers.MonitorOpRead, Length: 1, Addr: addr},
	}
	answer, err := m.exchange(ctx, frame, 1)
	if err != nil {
		return 0, err
	}
	if len(answer.Data) != 1 {
		return 0, fmt.Errorf("Monitor server returned %d words, expected 1", len(answer.Data))
	}
	return answer.Data[0], nil
}

// WriteWord ...
func (m *MonitorLink) WriteWord(ctx context.Context, addr uint32, value uint32) error {
	frame := &layers.MonitorLayer{
		MonitorHeader: layers.MonitorHeader{Op: layers.MonitorOpWrite, Length: 1, Addr: addr},
		Data:          []uint32{value},
	}
	_, err := m.exchange(ctx, frame, 0)
	return err
}

// Close sends the close frame and closes the connection
func (m *MonitorLink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	frame := &layers.MonitorLayer{MonitorHeader: layers.MonitorHeader{Op: layers.MonitorOpClose}}
	if data, err := layers.MonitorFrameToBytes(frame); err == nil {
		m.conn.SetWriteDeadline(time.Now().Add(m.timeout))
		m.conn.Write(data)
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}
