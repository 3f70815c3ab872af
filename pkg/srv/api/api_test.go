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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-stemlab/pkg/config"
	"jinr.ru/greenlab/go-stemlab/pkg/policy"
	"jinr.ru/greenlab/go-stemlab/pkg/session"
	"jinr.ru/greenlab/go-stemlab/pkg/transport"
)

const testSchema = `
device:
  name: test
  addressSpace: 0x100
modules:
  - name: module
    registers:
      - name: enabled
        address: 0x10
        encoding: bool
        sync: always-fresh
      - name: gain
        address: 0x10
        offset: 1
        width: 8
        encoding: fixed
        scale: 0.1
        sync: cache-stable
      - name: count
        address: 0x14
        encoding: unsigned
        sync: cache-stable
`

type fixture struct {
	link    *transport.MemoryLink
	session *session.Session
	server  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.yaml")
	require.NoError(t, ioutil.WriteFile(schemaPath, []byte(testSchema), 0644))
	cfg := config.NewDefaultConfig()
	cfg.SetPath(filepath.Join(dir, "config"))
	cfg.Schema = schemaPath
	cfg.StoreConfig.Path = filepath.Join(dir, "store.yaml")

	link := transport.NewMemoryLink()
	sess, err := session.Open(context.Background(), cfg, link)
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })

	s, err := NewApiServer(context.Background(), cfg, SessionInfo{ID: sess.ID, Device: "test", Schema: schemaPath}, sess)
	require.NoError(t, err)
	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)
	return &fixture{link: link, session: sess, server: server}
}

func (f *fixture) do(t *testing.T, method, path, body string, out interface{}) int {
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, f.session.ID, resp.Header.Get(SessionHeader))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRegGetSet(t *testing.T) {
	f := newFixture(t)
	f.link.Poke(0x10, 1)

	v := &RegValue{}
	assert.Equal(t, http.StatusOK, f.do(t, "POST", "/api/reg/module.gain", `{"value": 3.2}`, v))
	assert.Equal(t, "module.gain", v.Path)
	assert.InDelta(t, 3.2, v.Value, 1e-9)
	assert.Equal(t, policy.CacheValid.String(), v.State)
	assert.Equal(t, uint32(32<<1|1), f.link.Peek(0x10))

	v = &RegValue{}
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/api/reg/module.enabled", "", v))
	assert.Equal(t, true, v.Value)
	assert.Equal(t, policy.AlwaysFresh.String(), v.State)

	assert.Equal(t, http.StatusOK, f.do(t, "POST", "/api/reg/module.count", `{"value": 4294967295}`, v))
	assert.Equal(t, uint32(0xffffffff), f.link.Peek(0x14))
}

func TestErrors(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown path", "GET", "/api/reg/module.missing", "", http.StatusNotFound},
		{"invalid value", "POST", "/api/reg/module.gain", `{"value": -1}`, http.StatusBadRequest},
		{"wrong type", "POST", "/api/reg/module.enabled", `{"value": "yes"}`, http.StatusBadRequest},
		{"missing value", "POST", "/api/reg/module.gain", `{}`, http.StatusBadRequest},
		{"bad json", "POST", "/api/reg/module.gain", `{`, http.StatusBadRequest},
		{"unknown module", "GET", "/api/snapshot?root=nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &ErrorResponse{}
			assert.Equal(t, tt.status, f.do(t, tt.method, tt.path, tt.body, e))
			assert.Equal(t, tt.status, e.Code)
			assert.NotEmpty(t, e.Error)
		})
	}

	f.link.Fail(errors.New("link down"), nil)
	e := &ErrorResponse{}
	assert.Equal(t, http.StatusBadGateway, f.do(t, "GET", "/api/reg/module.enabled", "", e))
}

func TestStatusOf(t *testing.T) {
	base := transport.ErrTransport{Op: transport.OpRead, Addr: 1, Err: errors.New("x")}
	assert.Equal(t, http.StatusGatewayTimeout, statusOf(transport.ErrTransportTimeout{ErrTransport: base}))
	assert.Equal(t, http.StatusBadGateway, statusOf(base))
	assert.Equal(t, http.StatusBadRequest, statusOf(transport.ErrAddressRange{Addr: 0x200, Limit: 0x100}))
	assert.Equal(t, http.StatusInternalServerError, statusOf(errors.New("other")))
}

func TestSnapshotSaveReconcile(t *testing.T) {
	f := newFixture(t)
	f.link.Poke(0x10, 50<<1)
	f.link.Poke(0x14, 7)

	var values []RegValue
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/api/snapshot", "", &values))
	require.Len(t, values, 3)
	assert.Equal(t, "module.count", values[2].Path)
	assert.Equal(t, float64(7), values[2].Value)

	saved := &SaveResponse{}
	assert.Equal(t, http.StatusOK, f.do(t, "POST", "/api/config/save", "", saved))
	assert.Equal(t, 3, saved.Entries)

	f.link.Poke(0x14, 0)
	report := &policy.Report{}
	assert.Equal(t, http.StatusOK, f.do(t, "POST", "/api/config/reconcile", "", report))
	assert.Equal(t, 2, report.Count(policy.HostWins))
	assert.Equal(t, 1, report.Count(policy.HardwareWins))
	assert.Equal(t, uint32(7), f.link.Peek(0x14))
}

func TestSessionAndPaths(t *testing.T) {
	f := newFixture(t)
	info := &SessionInfo{}
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/api/session", "", info))
	assert.Equal(t, f.session.ID, info.ID)

	var paths []string
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/api/paths", "", &paths))
	assert.Equal(t, []string{"module.enabled", "module.gain", "module.count"}, paths)
}

func TestDocs(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.server.URL + "/api/swagger.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	doc := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "2.0", doc["swagger"])

	resp, err = http.Get(f.server.URL + "/api/docs")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
