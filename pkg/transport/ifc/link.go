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

package ifc

import "context"

// Link is the raw connection to the register space of one device.
// Implementations are synchronous: a call returns when the device answered
// or the link gave up. Retry policy, if any, belongs to the implementation.
type Link interface {
	ReadWord(ctx context.Context, addr uint32) (uint32, error)
	WriteWord(ctx context.Context, addr uint32, value uint32) error
	Close() error
}

// Timeout is implemented by link errors that report a timeout,
// net.Error does that already.
type Timeout interface {
	Timeout() bool
}
