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
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"jinr.ru/greenlab/go-stemlab/pkg/log"
	"jinr.ru/greenlab/go-stemlab/pkg/store/ifc"
)

type document struct {
	Saved   time.Time   `yaml:"saved"`
	Entries []ifc.Entry `yaml:"entries"`
}

// FileStore keeps the entries in a human editable YAML file
type FileStore struct {
	path string
}

var _ ifc.Store = &FileStore{}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load ...
func (s *FileStore) Load() ([]ifc.Entry, error) {
	data, err := ioutil.ReadFile(s.path)
	if os.IsNotExist(err) {
		log.Info("Config store %s does not exist yet", s.path)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc := &document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, ErrCorrupted{Path: s.path, Reason: err.Error()}
	}
	for _, e := range doc.Entries {
		if e.Register == "" {
			return nil, ErrCorrupted{Path: s.path, Reason: "entry without register name"}
		}
	}
	log.Debug("Loaded %d entries from %s saved at %s", len(doc.Entries), s.path, doc.Saved)
	return doc.Entries, nil
}

// Save replaces the file content. The file is written next to the target and renamed.
func (s *FileStore) Save(entries []ifc.Entry) error {
	data, err := yaml.Marshal(&document{Saved: time.Now().UTC(), Entries: entries})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := ioutil.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	log.Debug("Saved %d entries to %s", len(entries), s.path)
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
