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

package register

import (
	"fmt"
)

// ErrInvalidValue is returned when a host value can not be encoded into a register
type ErrInvalidValue struct {
	Register string
	Value    interface{}
	Reason   string
}

func (e ErrInvalidValue) Error() string {
	return fmt.Sprintf("Invalid value %v (%T) for register %s: %s", e.Value, e.Value, e.Register, e.Reason)
}

// ErrUnknownEncoding is returned when a raw code has no host level meaning,
// e.g. an enum code that is not in the option list.
type ErrUnknownEncoding struct {
	Register string
	Code     uint64
}

func (e ErrUnknownEncoding) Error() string {
	return fmt.Sprintf("Register %s holds unknown code 0x%x", e.Register, e.Code)
}

// ErrAccessMode is returned on a read of a write-only or a write of a read-only register
type ErrAccessMode struct {
	Register string
	Op       string
	Access   AccessMode
}

func (e ErrAccessMode) Error() string {
	return fmt.Sprintf("Register %s does not allow %s (access mode %s)", e.Register, e.Op, e.Access)
}
