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

import (
	"context"
	"net/http"

	"jinr.ru/greenlab/go-stemlab/pkg/module"
	"jinr.ru/greenlab/go-stemlab/pkg/policy"
)

// Session is what the API server needs from a device session
type Session interface {
	Get(ctx context.Context, path string) (interface{}, error)
	Set(ctx context.Context, path string, value interface{}) (interface{}, error)
	Snapshot(ctx context.Context, path string) ([]module.Value, error)
	Save(ctx context.Context) (int, error)
	Reconcile(ctx context.Context) (*policy.Report, error)
	Root() *module.Module
	Policy() *policy.Policy
}

type ApiServer interface {
	Handler() http.Handler
	Run() error
}
