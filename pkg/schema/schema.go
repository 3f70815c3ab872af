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
	"io/ioutil"

	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-stemlab/pkg/log"
	"jinr.ru/greenlab/go-stemlab/pkg/register"
)

// Device describes the addressable device as a whole
type Device struct {
	Name string `json:"name"`
	// AddressSpace is the exclusive upper bound of bus (byte) addresses, 0 means unchecked
	AddressSpace uint32 `json:"addressSpace,omitempty"`
}

// Module is one node of the module tree
type Module struct {
	Name string `json:"name"`
	// Base is added to the addresses of all registers and child modules
	Base      uint32                `json:"base,omitempty"`
	Doc       string                `json:"doc,omitempty"`
	Registers []register.Definition `json:"registers,omitempty"`
	Modules   []Module              `json:"modules,omitempty"`
}

// Schema is the static description of a device: its module tree and register definitions.
// It is never modified after Parse.
type Schema struct {
	Source  string   `json:"-"`
	Device  Device   `json:"device"`
	Modules []Module `json:"modules"`
}

// Parse decodes a YAML schema, fills defaults and validates it.
// Unknown fields are rejected so typos in register attributes do not go unnoticed.
func Parse(source string, data []byte) (*Schema, error) {
	s := &Schema{}
	if err := yaml.UnmarshalStrict(data, s); err != nil {
		return nil, ErrSchema{Source: source, Problems: []string{err.Error()}}
	}
	s.Source = source
	s.defaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	log.Debug("Loaded schema %s: device %s, %d top level modules", source, s.Device.Name, len(s.Modules))
	return s, nil
}

// Load reads and parses a schema file
func Load(path string) (*Schema, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Marshal encodes the schema back to YAML
func (s *Schema) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

func (s *Schema) defaults() {
	for i := range s.Modules {
		s.Modules[i].defaults()
	}
}

// defaults fills the attributes that may be omitted: the width is one bit
// for booleans and a full word otherwise, the access mode is read-write.
// The sync classification has no default.
func (m *Module) defaults() {
	for i := range m.Registers {
		r := &m.Registers[i]
		if r.Width == 0 && r.Offset < register.WordWidth {
			if r.Encoding == register.EncodingBool {
				r.Width = 1
			} else {
				r.Width = register.WordWidth - r.Offset
			}
		}
		if r.Access == "" {
			r.Access = register.ReadWrite
		}
	}
	for i := range m.Modules {
		m.Modules[i].defaults()
	}
}
