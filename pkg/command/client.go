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

package command

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/imroc/req"

	"jinr.ru/greenlab/go-stemlab/pkg/config"
	"jinr.ru/greenlab/go-stemlab/pkg/policy"
	"jinr.ru/greenlab/go-stemlab/pkg/srv/api"
)

// ErrApi is returned when the API server answers with an error status
type ErrApi struct {
	Status  int
	Message string
}

func (e ErrApi) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s%s", cfg.ApiAddress(), api.ApiPrefix),
	}
}

func (c *ApiClient) regUrl(path string) string {
	return fmt.Sprintf("%s/reg/%s", c.ApiPrefix, url.PathEscape(path))
}

// check turns an error response into ErrApi and decodes a successful one into out
func check(r *req.Resp, out interface{}) error {
	if r.Response().StatusCode != http.StatusOK {
		e := &api.ErrorResponse{}
		if err := r.ToJSON(e); err != nil || e.Error == "" {
			return ErrApi{Status: r.Response().StatusCode, Message: r.Response().Status}
		}
		return ErrApi{Status: e.Code, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return r.ToJSON(out)
}

// RegGet requests the value of the register at path
func (c *ApiClient) RegGet(path string) (*api.RegValue, error) {
	r, err := req.Get(c.regUrl(path))
	if err != nil {
		return nil, err
	}
	v := &api.RegValue{}
	if err := check(r, v); err != nil {
		return nil, err
	}
	return v, nil
}

// RegSet writes value to the register at path and returns the value the device holds afterwards
func (c *ApiClient) RegSet(path string, value interface{}) (*api.RegValue, error) {
	r, err := req.Post(c.regUrl(path), req.BodyJSON(&api.SetRequest{Value: value}))
	if err != nil {
		return nil, err
	}
	v := &api.RegValue{}
	if err := check(r, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Snapshot reads all registers under the module at root, the whole device when root is empty
func (c *ApiClient) Snapshot(root string) ([]api.RegValue, error) {
	r, err := req.Get(fmt.Sprintf("%s/snapshot", c.ApiPrefix), req.QueryParam{"root": root})
	if err != nil {
		return nil, err
	}
	var values []api.RegValue
	if err := check(r, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// Paths lists the paths of all registers
func (c *ApiClient) Paths() ([]string, error) {
	r, err := req.Get(fmt.Sprintf("%s/paths", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	var paths []string
	if err := check(r, &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// Session returns the information about the session served by the API
func (c *ApiClient) Session() (*api.SessionInfo, error) {
	r, err := req.Get(fmt.Sprintf("%s/session", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	info := &api.SessionInfo{}
	if err := check(r, info); err != nil {
		return nil, err
	}
	return info, nil
}

// Save persists the current register values, the number of saved entries is returned
func (c *ApiClient) Save() (int, error) {
	r, err := req.Post(fmt.Sprintf("%s/config/save", c.ApiPrefix))
	if err != nil {
		return 0, err
	}
	saved := &api.SaveResponse{}
	if err := check(r, saved); err != nil {
		return 0, err
	}
	return saved.Entries, nil
}

// Reconcile merges the persisted values with the live device state
func (c *ApiClient) Reconcile() (*policy.Report, error) {
	r, err := req.Post(fmt.Sprintf("%s/config/reconcile", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	report := &policy.Report{}
	if err := check(r, report); err != nil {
		return nil, err
	}
	return report, nil
}
