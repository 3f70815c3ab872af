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

package layers

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// MonitorLayerNum identifies the layer
	MonitorLayerNum = 2001
	// MonitorHeaderSize is the size of the monitor frame header in bytes
	MonitorHeaderSize = 8
	// MonitorMaxWords is the max number of words in one monitor frame
	MonitorMaxWords = 65535 - 2
)

type MonitorOp byte

const (
	MonitorOpRead  MonitorOp = 'r'
	MonitorOpWrite MonitorOp = 'w'
	MonitorOpClose MonitorOp = 'c'
)

func (op MonitorOp) String() string {
	switch op {
	case MonitorOpRead:
		return "read"
	case MonitorOpWrite:
		return "write"
	case MonitorOpClose:
		return "close"
	default:
		return fmt.Sprintf("unknown(%d)", byte(op))
	}
}

// MonitorHeader is the 8 byte header of every frame exchanged with the monitor server.
// The server echoes the request header in front of its answer.
type MonitorHeader struct {
	Op     MonitorOp
	Length uint16 // number of 4-byte words
	Addr   uint32
}

// MonitorLayer is a monitor request or response frame.
// Data holds the words written (write request) or read (read response).
type MonitorLayer struct {
	layers.BaseLayer
	MonitorHeader
	Data []uint32
}

var MonitorLayerType = gopacket.RegisterLayerType(MonitorLayerNum,
	gopacket.LayerTypeMetadata{Name: "MonitorLayerType", Decoder: gopacket.DecodeFunc(DecodeMonitorLayer)})

// LayerType returns the type of the Monitor layer in the layer catalog
func (m *MonitorLayer) LayerType() gopacket.LayerType {
	return MonitorLayerType
}

// SerializeHeader serializes only the header to a buffer.
// It is also used to compare the header echoed by the server with the one sent.
func (h *MonitorHeader) SerializeHeader(buf []byte) {
	buf[0] = byte(h.Op)
	buf[1] = 0
	binary.LittleEndian.PutUint16(buf[2:4], h.Length)
	binary.LittleEndian.PutUint32(buf[4:8], h.Addr)
}

// HeaderBytes ...
func (h *MonitorHeader) HeaderBytes() []byte {
	buf := make([]byte, MonitorHeaderSize)
	h.SerializeHeader(buf)
	return buf
}

// SerializeTo serializes the header and data words and writes the bytes to the SerializeBuffer
func (m *MonitorLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if len(m.Data) > MonitorMaxWords {
		return fmt.Errorf("Too many words in monitor frame: %d", len(m.Data))
	}
	bytes, err := b.AppendBytes(MonitorHeaderSize + 4*len(m.Data))
	if err != nil {
		return err
	}
	m.SerializeHeader(bytes[0:MonitorHeaderSize])
	for i, word := range m.Data {
		offset := MonitorHeaderSize + i*4
		binary.LittleEndian.PutUint32(bytes[offset:offset+4], word)
	}
	return nil
}

// DecodeFromBytes decodes a frame. For read responses the data words follow the header,
// a frame carrying fewer words than Length is truncated.
func (m *MonitorLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < MonitorHeaderSize {
		df.SetTruncated()
		return errors.New("Monitor frame too short")
	}
	m.Op = MonitorOp(data[0])
	m.Length = binary.LittleEndian.Uint16(data[2:4])
	m.Addr = binary.LittleEndian.Uint32(data[4:8])

	words := (len(data) - MonitorHeaderSize) / 4
	if words > 0 && words < int(m.Length) {
		df.SetTruncated()
		return fmt.Errorf("Monitor frame truncated: %d of %d words", words, m.Length)
	}
	m.Data = make([]uint32, 0, words)
	for i := 0; i < words; i++ {
		offset := MonitorHeaderSize + i*4
		m.Data = append(m.Data, binary.LittleEndian.Uint32(data[offset:offset+4]))
	}
	m.BaseLayer = layers.BaseLayer{
		Contents: data[:MonitorHeaderSize],
		Payload:  data[MonitorHeaderSize:],
	}
	return nil
}

func (m *MonitorLayer) CanDecode() gopacket.LayerClass {
	return MonitorLayerType
}

func (m *MonitorLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

func DecodeMonitorLayer(data []byte, p gopacket.PacketBuilder) error {
	m := &MonitorLayer{}
	err := m.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(m)
	return nil
}

// MonitorFrameToBytes serializes a monitor frame
func MonitorFrameToBytes(m *MonitorLayer) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{}
	err := gopacket.SerializeLayers(buf, opts, m)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseMonitorFrame decodes bytes received from the monitor server
func ParseMonitorFrame(data []byte) (*MonitorLayer, error) {
	packet := gopacket.NewPacket(data, MonitorLayerType, gopacket.NoCopy)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, errLayer.Error()
	}
	layer := packet.Layer(MonitorLayerType)
	if layer == nil {
		return nil, errors.New("Not a monitor frame")
	}
	return layer.(*MonitorLayer), nil
}
