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

// Entry is one persisted register value
type Entry struct {
	ModulePath string      `json:"module" yaml:"module"`
	Register   string      `json:"register" yaml:"register"`
	Value      interface{} `json:"value" yaml:"value"`
}

// Path returns the dotted path of the register
func (e Entry) Path() string {
	if e.ModulePath == "" {
		return e.Register
	}
	return e.ModulePath + "." + e.Register
}

// Store persists register values between sessions.
// Load of a store that was never saved returns no entries and no error.
type Store interface {
	Load() ([]Entry, error)
	Save(entries []Entry) error
	Close() error
}
