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

package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"jinr.ru/greenlab/go-stemlab/pkg/config"
	"jinr.ru/greenlab/go-stemlab/pkg/log"
	"jinr.ru/greenlab/go-stemlab/pkg/module"
	"jinr.ru/greenlab/go-stemlab/pkg/policy"
	"jinr.ru/greenlab/go-stemlab/pkg/schema"
	"jinr.ru/greenlab/go-stemlab/pkg/store"
	storeifc "jinr.ru/greenlab/go-stemlab/pkg/store/ifc"
	"jinr.ru/greenlab/go-stemlab/pkg/transport"
	"jinr.ru/greenlab/go-stemlab/pkg/transport/ifc"
)

// Session is the single owner of one device: its transport, module tree, cache and store.
type Session struct {
	ID     string
	Schema *schema.Schema
	// LastReport is the report of the most recent reconciliation
	LastReport *policy.Report

	// mu is held exclusively while the whole device is reconciled
	mu     sync.RWMutex
	dev    *transport.Device
	root   *module.Module
	policy *policy.Policy
	store  storeifc.Store
}

// LoadSchema returns the schema configured in cfg, the built-in one when no file is set
func LoadSchema(cfg *config.Config) (*schema.Schema, error) {
	if cfg.Schema == "" {
		return schema.StemLab()
	}
	return schema.Load(cfg.Schema)
}

// Open builds a session and reconciles the persisted configuration with the device.
// When link is nil the monitor server configured in cfg is dialed.
func Open(ctx context.Context, cfg *config.Config, link ifc.Link) (*Session, error) {
	s, err := LoadSchema(cfg)
	if err != nil {
		return nil, err
	}
	if link == nil {
		link, err = transport.DialMonitor(ctx, cfg.DeviceAddress(), cfg.Timeout)
		if err != nil {
			return nil, err
		}
	}
	space := s.Device.AddressSpace
	if cfg.AddressSpace != 0 {
		space = cfg.AddressSpace
	}
	st, err := store.Open(cfg.StoreConfig.Kind, cfg.StoreConfig.Path)
	if err != nil {
		link.Close()
		return nil, err
	}

	dev := transport.NewDevice(cfg.Name, link, space)
	p := policy.New()
	session := &Session{
		ID:     uuid.New().String(),
		Schema: s,
		dev:    dev,
		root:   module.New(s, dev, p),
		policy: p,
		store:  st,
	}
	log.Info("Session %s: device %s, schema %s, store %s %s",
		session.ID, cfg.Name, s.Source, cfg.StoreConfig.Kind, cfg.StoreConfig.Path)

	if _, err := session.Reconcile(ctx); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}

// Root returns the root of the module tree
func (s *Session) Root() *module.Module {
	return s.root
}

func (s *Session) Policy() *policy.Policy {
	return s.policy
}

func (s *Session) Device() *transport.Device {
	return s.dev
}

func (s *Session) Get(ctx context.Context, path string) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Get(ctx, path)
}

func (s *Session) Set(ctx context.Context, path string, value interface{}) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Set(ctx, path, value)
}

// Snapshot reads the subtree at path, the whole device when path is empty
func (s *Session) Snapshot(ctx context.Context, path string) ([]module.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, err := s.root.Child(path)
	if err != nil {
		return nil, err
	}
	return m.Snapshot(ctx)
}

// Save persists the current value of every read-write register and returns the number of entries
func (s *Session) Save(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, err := s.root.Entries(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.store.Save(entries); err != nil {
		return 0, err
	}
	log.Info("Session %s: saved %d entries", s.ID, len(entries))
	return len(entries), nil
}

// Reconcile loads the persisted entries and merges them with the live device state
func (s *Session) Reconcile(ctx context.Context) (*policy.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconcile(ctx)
}

func (s *Session) reconcile(ctx context.Context) (*policy.Report, error) {
	entries, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	report, err := s.policy.Reconcile(ctx, entries, s.root)
	if err != nil {
		return nil, err
	}
	s.LastReport = report
	log.Info("Session %s: reconciled %d entries: %d host wins, %d hardware wins, %d skipped",
		s.ID, len(report.Outcomes), report.Count(policy.HostWins), report.Count(policy.HardwareWins),
		report.Count(policy.Skipped))
	return report, nil
}

// Reconnect drops every cached value and reconciles again.
// It is called after the link to the device was lost, the device may have been reset.
func (s *Session) Reconnect(ctx context.Context) (*policy.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy.Invalidate()
	return s.reconcile(ctx)
}

// Close closes the store and the link
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	storeErr := s.store.Close()
	if err := s.dev.Close(); err != nil {
		return err
	}
	return storeErr
}
