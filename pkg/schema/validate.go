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

package schema

import (
	"fmt"
	"sort"
	"strings"

	"jinr.ru/greenlab/go-stemlab/pkg/register"
)

type field struct {
	path string
	mask uint32
}

type validator struct {
	space    uint32
	problems []string
	words    map[uint32][]field
}

func (v *validator) add(format string, args ...interface{}) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// Validate checks the whole tree and returns ErrSchema with every problem found
func (s *Schema) Validate() error {
	v := &validator{
		space: s.Device.AddressSpace,
		words: map[uint32][]field{},
	}
	if len(s.Modules) == 0 {
		v.add("no modules")
	}
	v.siblings("", s.Modules)
	for i := range s.Modules {
		v.module("", 0, &s.Modules[i])
	}
	v.overlaps()
	if len(v.problems) > 0 {
		return ErrSchema{Source: s.Source, Problems: v.problems}
	}
	return nil
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func (v *validator) siblings(prefix string, modules []Module) {
	seen := map[string]bool{}
	for _, m := range modules {
		if seen[m.Name] {
			v.add("module %s: duplicate name", join(prefix, m.Name))
		}
		seen[m.Name] = true
	}
}

func (v *validator) module(prefix string, base uint32, m *Module) {
	path := join(prefix, m.Name)
	if m.Name == "" || strings.Contains(m.Name, ".") {
		v.add("module %q under %q: name must be non-empty and must not contain dots", m.Name, prefix)
	}
	base += m.Base

	names := map[string]bool{}
	for _, child := range m.Modules {
		names[child.Name] = true
	}
	v.siblings(path, m.Modules)
	seen := map[string]bool{}
	for i := range m.Registers {
		r := &m.Registers[i]
		rpath := join(path, r.Name)
		if strings.Contains(r.Name, ".") {
			v.add("register %s: name must not contain dots", rpath)
		}
		if seen[r.Name] {
			v.add("register %s: duplicate name", rpath)
		}
		if names[r.Name] {
			v.add("register %s: name clashes with a child module", rpath)
		}
		seen[r.Name] = true
		for _, p := range r.Problems() {
			v.add("module %s: %s", path, p)
		}
		addr := base + r.Address
		if v.space != 0 && addr >= v.space {
			v.add("register %s: address 0x%08x is outside of the address space 0x%08x", rpath, addr, v.space)
		}
		v.words[addr] = append(v.words[addr], field{path: rpath, mask: r.Mask()})
	}
	for i := range m.Modules {
		v.module(path, base, &m.Modules[i])
	}
}

// overlaps reports fields of different registers sharing bits of one absolute word
func (v *validator) overlaps() {
	addrs := make([]uint32, 0, len(v.words))
	for addr := range v.words {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, addr := range addrs {
		fields := v.words[addr]
		for i := 0; i < len(fields); i++ {
			for j := i + 1; j < len(fields); j++ {
				if common := fields[i].mask & fields[j].mask; common != 0 {
					v.add("registers %s and %s overlap in word 0x%08x (bits 0x%08x)",
						fields[i].path, fields[j].path, addr, common)
				}
			}
		}
	}
}

// Walk calls fn for every register of the tree, depth first in declaration order,
// with the dotted path and the absolute bus (byte) address of the register's 32-bit word.
func (s *Schema) Walk(fn func(path string, addr uint32, def *register.Definition)) {
	var walk func(prefix string, base uint32, m *Module)
	walk = func(prefix string, base uint32, m *Module) {
		path := join(prefix, m.Name)
		base += m.Base
		for i := range m.Registers {
			fn(join(path, m.Registers[i].Name), base+m.Registers[i].Address, &m.Registers[i])
		}
		for i := range m.Modules {
			walk(path, base, &m.Modules[i])
		}
	}
	for i := range s.Modules {
		walk("", 0, &s.Modules[i])
	}
}
