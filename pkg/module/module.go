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

package module

import (
	"context"
	"fmt"
	"strings"

	"jinr.ru/greenlab/go-stemlab/pkg/log"
	"jinr.ru/greenlab/go-stemlab/pkg/policy"
	"jinr.ru/greenlab/go-stemlab/pkg/register"
	"jinr.ru/greenlab/go-stemlab/pkg/schema"
	"jinr.ru/greenlab/go-stemlab/pkg/store/ifc"
	"jinr.ru/greenlab/go-stemlab/pkg/transport"
)

// Module is a node of the module tree. The tree is built once from a schema and
// never restructured. All modules of a tree share the device and the policy.
type Module struct {
	Name string
	Doc  string
	// Base is the absolute base address, the bases of all ancestors included
	Base   uint32
	parent *Module

	children       []*Module
	childByName    map[string]*Module
	registers      []*register.Accessor
	registerByName map[string]*register.Accessor

	dev    *transport.Device
	policy *policy.Policy
}

var _ policy.Resolver = &Module{}

// New builds the module tree described by s. The root module is named after the
// device and has an empty path, the top level modules of the schema are its children.
func New(s *schema.Schema, dev *transport.Device, p *policy.Policy) *Module {
	root := newModule(s.Device.Name, "", 0, nil, dev, p)
	for i := range s.Modules {
		root.build(&s.Modules[i])
	}
	log.Debug("Built module tree for %s: %d registers", s.Device.Name, len(root.Paths()))
	return root
}

func newModule(name, doc string, base uint32, parent *Module, dev *transport.Device, p *policy.Policy) *Module {
	return &Module{
		Name:           name,
		Doc:            doc,
		Base:           base,
		parent:         parent,
		childByName:    map[string]*Module{},
		registerByName: map[string]*register.Accessor{},
		dev:            dev,
		policy:         p,
	}
}

func (m *Module) build(spec *schema.Module) {
	child := newModule(spec.Name, spec.Doc, m.Base+spec.Base, m, m.dev, m.policy)
	m.children = append(m.children, child)
	m.childByName[spec.Name] = child
	for i := range spec.Registers {
		def := &spec.Registers[i]
		acc := register.NewAccessor(def, join(child.Path(), def.Name), child.Base+def.Address, m.dev)
		child.registers = append(child.registers, acc)
		child.registerByName[def.Name] = acc
		m.policy.Track(acc)
	}
	for i := range spec.Modules {
		child.build(&spec.Modules[i])
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Path returns the dotted path of the module, empty for the root
func (m *Module) Path() string {
	if m.parent == nil {
		return ""
	}
	return join(m.parent.Path(), m.Name)
}

// Parent returns nil for the root
func (m *Module) Parent() *Module {
	return m.parent
}

// Children returns the child modules in declaration order
func (m *Module) Children() []*Module {
	return m.children
}

// Registers returns the registers owned by the module itself in declaration order
func (m *Module) Registers() []*register.Accessor {
	return m.registers
}

// Child resolves a dotted path of modules relative to m
func (m *Module) Child(path string) (*Module, error) {
	if path == "" {
		return m, nil
	}
	current := m
	for _, segment := range strings.Split(path, ".") {
		next, ok := current.childByName[segment]
		if !ok {
			return nil, ErrPathNotFound{Path: join(m.Path(), path), Segment: join(current.Path(), segment)}
		}
		current = next
	}
	return current, nil
}

// Register resolves a dotted register path relative to m
func (m *Module) Register(path string) (*register.Accessor, error) {
	owner := m
	name := path
	if i := strings.LastIndex(path, "."); i >= 0 {
		var err error
		owner, err = m.Child(path[:i])
		if err != nil {
			return nil, err
		}
		name = path[i+1:]
	}
	acc, ok := owner.registerByName[name]
	if !ok {
		return nil, ErrPathNotFound{Path: join(m.Path(), path), Segment: join(owner.Path(), name)}
	}
	return acc, nil
}

// Walk calls fn for every register of the subtree, depth first in declaration order.
// Walking stops at the first error, which is returned.
func (m *Module) Walk(fn func(acc *register.Accessor) error) error {
	for _, acc := range m.registers {
		if err := fn(acc); err != nil {
			return err
		}
	}
	for _, child := range m.children {
		if err := child.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Paths returns the paths of all registers of the subtree
func (m *Module) Paths() []string {
	var paths []string
	_ = m.Walk(func(acc *register.Accessor) error {
		paths = append(paths, acc.Path)
		return nil
	})
	return paths
}

// Get returns the value of the register at path, from the cache or from the device
// as the synchronization policy decides.
func (m *Module) Get(ctx context.Context, path string) (interface{}, error) {
	acc, err := m.Register(path)
	if err != nil {
		return nil, err
	}
	return m.policy.Get(ctx, acc)
}

// Set writes the register at path and returns the value the device now holds
func (m *Module) Set(ctx context.Context, path string, value interface{}) (interface{}, error) {
	acc, err := m.Register(path)
	if err != nil {
		return nil, err
	}
	log.Debug("Set %s = %v", acc, value)
	return m.policy.Set(ctx, acc, value)
}

// Value is one entry of a snapshot
type Value struct {
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

// Snapshot reads every readable register of the subtree from the device, reading
// each physical word once, and returns the values in declaration order.
// The values read refresh the cache unless a get or set of the same register
// completed while the snapshot was reading.
func (m *Module) Snapshot(ctx context.Context) ([]Value, error) {
	var readable []*register.Accessor
	var addrs []uint32
	var gens []uint64
	_ = m.Walk(func(acc *register.Accessor) error {
		if acc.Def.Access.CanRead() {
			readable = append(readable, acc)
			addrs = append(addrs, acc.Addr)
			gens = append(gens, m.policy.Generation(acc))
		}
		return nil
	})
	words, err := m.dev.ReadWords(ctx, addrs)
	if err != nil {
		return nil, err
	}
	values := make([]Value, 0, len(readable))
	for i, acc := range readable {
		v, err := acc.Def.Decode(words[acc.Addr])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", acc.Path, err)
		}
		m.policy.Observe(acc, v, gens[i])
		values = append(values, Value{Path: acc.Path, Value: v})
	}
	return values, nil
}

// Setup applies several values at once. Keys are register paths relative to m.
// All keys are resolved before the first write, the writes happen in declaration order.
func (m *Module) Setup(ctx context.Context, values map[string]interface{}) error {
	byPath := make(map[string]interface{}, len(values))
	for path, v := range values {
		acc, err := m.Register(path)
		if err != nil {
			return err
		}
		byPath[acc.Path] = v
	}
	return m.Walk(func(acc *register.Accessor) error {
		v, ok := byPath[acc.Path]
		if !ok {
			return nil
		}
		_, err := m.policy.Set(ctx, acc, v)
		return err
	})
}

// Entries returns the current value of every readable and writable register of the
// subtree as configuration entries, ready to be saved.
func (m *Module) Entries(ctx context.Context) ([]ifc.Entry, error) {
	var entries []ifc.Entry
	err := m.Walk(func(acc *register.Accessor) error {
		if !acc.Def.Access.CanRead() || !acc.Def.Access.CanWrite() {
			return nil
		}
		v, err := m.policy.Get(ctx, acc)
		if err != nil {
			return err
		}
		modulePath := ""
		if i := strings.LastIndex(acc.Path, "."); i >= 0 {
			modulePath = acc.Path[:i]
		}
		entries = append(entries, ifc.Entry{ModulePath: modulePath, Register: acc.Def.Name, Value: v})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
