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

package policy

import (
	"context"
	"errors"

	"jinr.ru/greenlab/go-stemlab/pkg/log"
	"jinr.ru/greenlab/go-stemlab/pkg/register"
	"jinr.ru/greenlab/go-stemlab/pkg/store/ifc"
)

// Action is the outcome of reconciling one persisted entry
type Action string

const (
	// HardwareWins keeps the live value, the persisted value is only reported
	HardwareWins Action = "hardware-wins"
	// HostWins writes the persisted value to the device
	HostWins Action = "host-wins"
	// Skipped entries were not applied, see Outcome.Reason
	Skipped Action = "skipped"
)

// Resolver finds the accessor of a register by its dotted path
type Resolver interface {
	Register(path string) (*register.Accessor, error)
}

// Outcome describes what happened to one persisted entry
type Outcome struct {
	Path      string      `json:"path"`
	Persisted interface{} `json:"persisted"`
	Live      interface{} `json:"live,omitempty"`
	Applied   interface{} `json:"applied,omitempty"`
	Action    Action      `json:"action"`
	Reason    string      `json:"reason,omitempty"`
}

// Report lists the outcomes in the order of the persisted entries
type Report struct {
	Outcomes []Outcome `json:"outcomes"`
}

// Count returns the number of outcomes with the given action
func (r *Report) Count(action Action) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Action == action {
			n++
		}
	}
	return n
}

// Reconcile merges persisted entries with the live device state.
// The live value of every entry is read first. Always-fresh and read-only registers
// keep their live value. Cache-stable registers get the persisted value written
// and the value read back afterwards is cached.
// Entries naming registers that no longer exist, or holding values the register
// no longer accepts, are skipped. Transport errors abort the reconciliation.
func (p *Policy) Reconcile(ctx context.Context, entries []ifc.Entry, resolver Resolver) (*Report, error) {
	report := &Report{}
	for _, e := range entries {
		outcome, err := p.reconcile(ctx, e, resolver)
		if err != nil {
			return report, err
		}
		switch outcome.Action {
		case Skipped:
			log.Warning("Reconcile %s: skipped: %s", outcome.Path, outcome.Reason)
		default:
			log.Info("Reconcile %s: %s, persisted %v, live %v, applied %v",
				outcome.Path, outcome.Action, outcome.Persisted, outcome.Live, outcome.Applied)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

func (p *Policy) reconcile(ctx context.Context, e ifc.Entry, resolver Resolver) (Outcome, error) {
	outcome := Outcome{Path: e.Path(), Persisted: e.Value}
	acc, err := resolver.Register(outcome.Path)
	if err != nil {
		outcome.Action = Skipped
		outcome.Reason = err.Error()
		return outcome, nil
	}
	def := acc.Def
	tracked := p.lookup(acc)
	tracked.io.Lock()
	defer tracked.io.Unlock()

	if def.Access.CanRead() {
		live, err := acc.Read(ctx)
		var unknown register.ErrUnknownEncoding
		switch {
		case err == nil:
			outcome.Live = live
		case errors.As(err, &unknown) && def.Sync == register.CacheStable && def.Access.CanWrite():
			// overwritten below
		case errors.As(err, &unknown):
			outcome.Action = Skipped
			outcome.Reason = err.Error()
			return outcome, nil
		default:
			return outcome, err
		}
	}

	if def.Sync == register.AlwaysFresh || !def.Access.CanWrite() {
		outcome.Action = HardwareWins
		outcome.Applied = outcome.Live
		if outcome.Live != nil {
			p.store(acc, outcome.Live)
		}
		return outcome, nil
	}

	if _, err := def.Encode(e.Value); err != nil {
		outcome.Action = Skipped
		outcome.Reason = err.Error()
		return outcome, nil
	}
	if err := acc.Write(ctx, e.Value); err != nil {
		p.drop(acc)
		return outcome, err
	}
	confirmed, err := p.confirm(ctx, acc, e.Value)
	if err != nil {
		p.drop(acc)
		return outcome, err
	}
	p.store(acc, confirmed)
	outcome.Action = HostWins
	outcome.Applied = confirmed
	return outcome, nil
}

// confirm reads the written value back, write-only registers are taken as written
func (p *Policy) confirm(ctx context.Context, acc *register.Accessor, value interface{}) (interface{}, error) {
	if !acc.Def.Access.CanRead() {
		return quantize(acc.Def, value)
	}
	return acc.Read(ctx)
}
