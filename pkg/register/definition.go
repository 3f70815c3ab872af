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

// WordWidth is the width of one physical register word in bits
const WordWidth = 32

type Encoding string

const (
	EncodingUnsigned Encoding = "unsigned"
	EncodingSigned   Encoding = "signed"
	EncodingFixed    Encoding = "fixed"
	EncodingBool     Encoding = "bool"
	EncodingEnum     Encoding = "enum"
	EncodingRaw      Encoding = "raw"
	EncodingPhase    Encoding = "phase"
)

var Encodings = []Encoding{
	EncodingUnsigned, EncodingSigned, EncodingFixed, EncodingBool, EncodingEnum, EncodingRaw, EncodingPhase,
}

type AccessMode string

const (
	ReadOnly  AccessMode = "ro"
	WriteOnly AccessMode = "wo"
	ReadWrite AccessMode = "rw"
)

func (a AccessMode) CanRead() bool { return a == ReadOnly || a == ReadWrite }

func (a AccessMode) CanWrite() bool { return a == WriteOnly || a == ReadWrite }

// Sync is the cache classification of a register
type Sync string

const (
	// CacheStable registers are only changed by this host, their cached value can be trusted
	CacheStable Sync = "cache-stable"
	// AlwaysFresh registers may change behind the host's back and are read on every access
	AlwaysFresh Sync = "always-fresh"
)

// Option is one label of an enum register
type Option struct {
	Label string `json:"label"`
	Code  uint32 `json:"code"`
}

// Definition describes one control point. It is immutable once the schema is loaded.
type Definition struct {
	Name string `json:"name"`
	// Address is the bus (byte) address of the 32-bit word, relative to the owning module
	Address  uint32   `json:"address"`
	Offset   uint     `json:"offset,omitempty"`
	Width    uint     `json:"width,omitempty"`
	Encoding Encoding `json:"encoding"`
	// Scale is the host value of one LSB for fixed point registers
	Scale float64 `json:"scale,omitempty"`
	// Signed selects two's complement for fixed point registers
	Signed  bool       `json:"signed,omitempty"`
	Invert  bool       `json:"invert,omitempty"`
	Options []Option   `json:"options,omitempty"`
	Access  AccessMode `json:"access,omitempty"`
	Sync    Sync       `json:"sync"`
	Doc     string     `json:"doc,omitempty"`
}

// Mask returns the bits of the word occupied by the field
func (d *Definition) Mask() uint32 {
	return uint32(d.fieldMask() << d.Offset)
}

func (d *Definition) fieldMask() uint64 {
	return (uint64(1) << d.Width) - 1
}

// FullWord reports whether the field spans the whole word
func (d *Definition) FullWord() bool {
	return d.Offset == 0 && d.Width == WordWidth
}

// Problems returns everything wrong with the definition on its own.
// Problems spanning several definitions, like overlapping fields, are checked by the schema.
func (d *Definition) Problems() []string {
	var problems []string
	add := func(format string, v ...interface{}) {
		problems = append(problems, fmt.Sprintf("register %s: ", d.Name)+fmt.Sprintf(format, v...))
	}
	if d.Name == "" {
		add("empty name")
	}
	if d.Width == 0 {
		add("bit width must be positive")
	}
	if d.Offset >= WordWidth || d.Width > WordWidth-d.Offset {
		add("bit offset %d and width %d do not fit into a %d bit word", d.Offset, d.Width, WordWidth)
	}
	switch d.Encoding {
	case EncodingUnsigned, EncodingSigned, EncodingRaw, EncodingPhase:
	case EncodingFixed:
		if !(d.Scale > 0) {
			add("fixed point scale must be positive, got %v", d.Scale)
		}
	case EncodingBool:
		if d.Width != 1 {
			add("bool register must be 1 bit wide, got %d", d.Width)
		}
	case EncodingEnum:
		if len(d.Options) == 0 {
			add("enum register without options")
		}
		labels := map[string]bool{}
		for _, o := range d.Options {
			if labels[o.Label] {
				add("duplicate enum label %q", o.Label)
			}
			labels[o.Label] = true
			if d.Width < WordWidth && uint64(o.Code) > d.fieldMask() {
				add("enum code 0x%x of %q does not fit into %d bits", o.Code, o.Label, d.Width)
			}
		}
	default:
		add("unknown encoding %q", d.Encoding)
	}
	switch d.Access {
	case ReadOnly, ReadWrite:
	case WriteOnly:
		if !d.FullWord() {
			add("write-only register must span the full word, it can not be read back for read-modify-write")
		}
	default:
		add("unknown access mode %q", d.Access)
	}
	switch d.Sync {
	case CacheStable:
	case AlwaysFresh:
		if !d.Access.CanRead() {
			add("always-fresh register must be readable")
		}
	case "":
		add("missing sync classification, must be %s or %s", CacheStable, AlwaysFresh)
	default:
		add("unknown sync classification %q", d.Sync)
	}
	return problems
}
