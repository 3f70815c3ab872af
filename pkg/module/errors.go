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
	"fmt"
)

// ErrPathNotFound is returned when a dotted path does not name a module or register
type ErrPathNotFound struct {
	Path string
	// Segment is the first path segment that could not be resolved
	Segment string
}

func (e ErrPathNotFound) Error() string {
	if e.Segment == "" || e.Segment == e.Path {
		return fmt.Sprintf("Path not found: %s", e.Path)
	}
	return fmt.Sprintf("Path not found: %s (no %s)", e.Path, e.Segment)
}
