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
	"fmt"
)

// ErrAddressRange is returned when an address falls outside the device register space.
// It is never retried.
type ErrAddressRange struct {
	Addr  uint32
	Limit uint32
}

func (e ErrAddressRange) Error() string {
	return fmt.Sprintf("Address 0x%08x is out of device range [0x0, 0x%08x)", e.Addr, e.Limit)
}

// ErrTransport wraps a link failure on a read or write
type ErrTransport struct {
	Op   string
	Addr uint32
	Err  error
}

func (e ErrTransport) Error() string {
	return fmt.Sprintf("Transport error during %s at 0x%08x: %v", e.Op, e.Addr, e.Err)
}

func (e ErrTransport) Unwrap() error {
	return e.Err
}

// ErrTransportTimeout is the timeout flavour of ErrTransport.
// errors.As(err, &ErrTransport{}) matches it as well.
type ErrTransportTimeout struct {
	ErrTransport
}

func (e ErrTransportTimeout) Error() string {
	return fmt.Sprintf("Transport timeout during %s at 0x%08x: %v", e.Op, e.Addr, e.Err)
}

func (e ErrTransportTimeout) Unwrap() error {
	return e.ErrTransport
}

// ErrConcurrentWordWrite is returned when a word lock is requested again
// by the call chain that already holds it.
type ErrConcurrentWordWrite struct {
	Addr uint32
}

func (e ErrConcurrentWordWrite) Error() string {
	return fmt.Sprintf("Word 0x%08x is already locked by this call chain", e.Addr)
}

// ErrLinkClosed is returned by links used after Close
type ErrLinkClosed struct{}

func (e ErrLinkClosed) Error() string {
	return "Link is closed"
}
