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
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"

	"jinr.ru/greenlab/go-stemlab/pkg/log"
	"jinr.ru/greenlab/go-stemlab/pkg/store/ifc"
)

const (
	BucketNamePrefix = "mod_"
)

// BoltStore keeps the entries in a bolt database, one bucket per module path.
// Values are CBOR encoded so they keep their type.
type BoltStore struct {
	DB *bbolt.DB
}

var _ ifc.Store = &BoltStore{}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	return &BoltStore{DB: db}, nil
}

func bucketName(modulePath string) []byte {
	return []byte(fmt.Sprintf("%s%s", BucketNamePrefix, modulePath))
}

// Load returns the entries sorted by module path and register name
func (s *BoltStore) Load() ([]ifc.Entry, error) {
	var entries []ifc.Entry
	prefix := []byte(BucketNamePrefix)
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bbolt.Bucket) error {
			if !bytes.HasPrefix(name, prefix) {
				return nil
			}
			modulePath := string(name[len(prefix):])
			return b.ForEach(func(k, v []byte) error {
				var value interface{}
				if err := cbor.Unmarshal(v, &value); err != nil {
					return ErrCorrupted{Path: s.DB.Path(), Reason: fmt.Sprintf("%s.%s: %s", modulePath, k, err)}
				}
				entries = append(entries, ifc.Entry{ModulePath: modulePath, Register: string(k), Value: value})
				return nil
			})
		})
	}); err != nil {
		return nil, err
	}
	log.Debug("Loaded %d entries from %s", len(entries), s.DB.Path())
	return entries, nil
}

// Save replaces all module buckets in one transaction
func (s *BoltStore) Save(entries []ifc.Entry) error {
	encoded := make([][]byte, len(entries))
	for i, e := range entries {
		data, err := cbor.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Path(), err)
		}
		encoded[i] = data
	}
	prefix := []byte(BucketNamePrefix)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		var stale [][]byte
		if err := tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if bytes.HasPrefix(name, prefix) {
				stale = append(stale, append([]byte(nil), name...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, name := range stale {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		for i, e := range entries {
			b, err := tx.CreateBucketIfNotExists(bucketName(e.ModulePath))
			if err != nil {
				return err
			}
			if err := b.Put([]byte(e.Register), encoded[i]); err != nil {
				return err
			}
		}
		log.Debug("Saved %d entries to %s", len(entries), s.DB.Path())
		return nil
	})
}

// Close ...
func (s *BoltStore) Close() error {
	return s.DB.Close()
}
