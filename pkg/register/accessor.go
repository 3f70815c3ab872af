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
	"context"
	"fmt"

	"jinr.ru/greenlab/go-stemlab/pkg/transport"
)

const (
	OpGet = "get"
	OpSet = "set"
)

// Accessor is a Definition bound to the absolute bus (byte) address of its 32-bit word
type Accessor struct {
	Def *Definition
	// Path is the dotted path of the register, e.g. pid0.setpoint
	Path string
	// Addr is the absolute bus (byte) address of the word, every ancestor base included
	Addr uint32
	dev  *transport.Device
}

func NewAccessor(def *Definition, path string, addr uint32, dev *transport.Device) *Accessor {
	return &Accessor{
		Def:  def,
		Path: path,
		Addr: addr,
		dev:  dev,
	}
}

func (a *Accessor) String() string {
	return fmt.Sprintf("%s@0x%08x[%d:%d]", a.Path, a.Addr, a.Def.Offset, a.Def.Offset+a.Def.Width)
}

// Read reads the containing word from the device and decodes the field
func (a *Accessor) Read(ctx context.Context) (interface{}, error) {
	if !a.Def.Access.CanRead() {
		return nil, ErrAccessMode{Register: a.Path, Op: OpGet, Access: a.Def.Access}
	}
	raw, err := a.dev.Read(ctx, a.Addr)
	if err != nil {
		return nil, err
	}
	return a.Def.Decode(raw)
}

// Write encodes value and writes it. Encoding errors are returned before any I/O.
// A field sharing its word with others is written with a locked read-modify-write.
func (a *Accessor) Write(ctx context.Context, value interface{}) error {
	if !a.Def.Access.CanWrite() {
		return ErrAccessMode{Register: a.Path, Op: OpSet, Access: a.Def.Access}
	}
	bits, err := a.Def.Encode(value)
	if err != nil {
		return err
	}
	if a.Def.FullWord() {
		return a.dev.Write(ctx, a.Addr, bits)
	}
	_, err = a.dev.Modify(ctx, a.Addr, a.Def.Mask(), bits)
	return err
}
