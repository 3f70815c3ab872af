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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorFrameToBytes(t *testing.T) {
	t.Run("ReadRequest", func(t *testing.T) {
		data, err := MonitorFrameToBytes(&MonitorLayer{
			MonitorHeader: MonitorHeader{Op: MonitorOpRead, Length: 1, Addr: 0x40300104},
		})
		require.NoError(t, err)
		assert.Equal(t, []byte{'r', 0, 1, 0, 0x04, 0x01, 0x30, 0x40}, data)
	})

	t.Run("WriteRequest", func(t *testing.T) {
		data, err := MonitorFrameToBytes(&MonitorLayer{
			MonitorHeader: MonitorHeader{Op: MonitorOpWrite, Length: 1, Addr: 0x10},
			Data:          []uint32{0xdeadbeef},
		})
		require.NoError(t, err)
		assert.Equal(t, []byte{'w', 0, 1, 0, 0x10, 0, 0, 0, 0xef, 0xbe, 0xad, 0xde}, data)
	})
}

func TestParseMonitorFrame(t *testing.T) {
	t.Run("ReadResponse", func(t *testing.T) {
		frame, err := ParseMonitorFrame([]byte{'r', 0, 2, 0, 0x20, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0})
		require.NoError(t, err)
		assert.Equal(t, MonitorOpRead, frame.Op)
		assert.Equal(t, uint16(2), frame.Length)
		assert.Equal(t, uint32(0x20), frame.Addr)
		assert.Equal(t, []uint32{1, 2}, frame.Data)
	})

	t.Run("HeaderOnly", func(t *testing.T) {
		frame, err := ParseMonitorFrame([]byte{'w', 0, 1, 0, 0x20, 0, 0, 0})
		require.NoError(t, err)
		assert.Equal(t, MonitorOpWrite, frame.Op)
		assert.Empty(t, frame.Data)
	})

	t.Run("TooShort", func(t *testing.T) {
		_, err := ParseMonitorFrame([]byte{'r', 0, 1})
		assert.Error(t, err)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := ParseMonitorFrame([]byte{'r', 0, 2, 0, 0x20, 0, 0, 0, 1, 0, 0, 0})
		assert.Error(t, err)
	})
}

func TestMonitorHeaderBytes(t *testing.T) {
	h := MonitorHeader{Op: MonitorOpClose}
	assert.Equal(t, []byte{'c', 0, 0, 0, 0, 0, 0, 0}, h.HeaderBytes())
	assert.Equal(t, "close", MonitorOpClose.String())
}
