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

package store

import (
	"fmt"
)

// ErrUnknownKind is returned by Open for an unsupported store kind
type ErrUnknownKind struct {
	Kind string
}

func (e ErrUnknownKind) Error() string {
	return fmt.Sprintf("Unknown store kind: %s (must be %s or %s)", e.Kind, KindFile, KindBolt)
}

// ErrCorrupted is returned when a persisted entry can not be decoded
type ErrCorrupted struct {
	Path   string
	Reason string
}

func (e ErrCorrupted) Error() string {
	return fmt.Sprintf("Corrupted store %s: %s", e.Path, e.Reason)
}
