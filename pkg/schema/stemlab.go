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
	_ "embed"
)

//go:embed stemlab.yaml
var stemlabYAML []byte

// StemLabSource is the name under which the built-in schema is reported
const StemLabSource = "builtin:stemlab"

// StemLab returns the built-in schema of the StemLab board
func StemLab() (*Schema, error) {
	return Parse(StemLabSource, stemlabYAML)
}
