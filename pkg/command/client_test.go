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
	"context"
	"io/ioutil"
	"net"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-stemlab/pkg/config"
	"jinr.ru/greenlab/go-stemlab/pkg/policy"
	"jinr.ru/greenlab/go-stemlab/pkg/session"
	"jinr.ru/greenlab/go-stemlab/pkg/srv/api"
	"jinr.ru/greenlab/go-stemlab/pkg/transport"
)

const testSchema = `
device:
  name: test
modules:
  - name: dsp
    base: 0x1000
    modules:
      - name: pid0
        registers:
          - name: input
            address: 0x0
            width: 2
            encoding: enum
            sync: always-fresh
            options:
              - {label: in1, code: 0}
              - {label: in2, code: 1}
          - name: setpoint
            address: 0x4
            width: 14
            encoding: fixed
            scale: 0.0001220703125
            signed: true
            sync: cache-stable
`

func newClient(t *testing.T) (*ApiClient, *transport.MemoryLink) {
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
	s, err := api.NewApiServer(context.Background(), cfg, api.SessionInfo{ID: sess.ID, Device: "test"}, sess)
	require.NoError(t, err)
	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	cfg.ApiConfig.Address = host
	cfg.ApiConfig.Port, err = strconv.Atoi(port)
	require.NoError(t, err)
	return NewApiClient(cfg), link
}

func TestApiClient(t *testing.T) {
	c, link := newClient(t)

	v, err := c.RegSet("dsp.pid0.setpoint", ParseValue("-0.5"))
	require.NoError(t, err)
	assert.InDelta(t, -0.5, v.Value, 1e-9)
	assert.Equal(t, uint32(0x3000), link.Peek(0x1004))

	v, err = c.RegSet("dsp.pid0.input", ParseValue("in2"))
	require.NoError(t, err)
	assert.Equal(t, "in2", v.Value)

	v, err = c.RegGet("dsp.pid0.input")
	require.NoError(t, err)
	assert.Equal(t, "always-fresh", v.State)

	values, err := c.Snapshot("dsp")
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "dsp.pid0.input", values[0].Path)

	paths, err := c.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"dsp.pid0.input", "dsp.pid0.setpoint"}, paths)

	n, err := c.Save()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	link.Poke(0x1004, 0)
	report, err := c.Reconcile()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(policy.HostWins))
	assert.Equal(t, uint32(0x3000), link.Peek(0x1004))

	info, err := c.Session()
	require.NoError(t, err)
	assert.Equal(t, "test", info.Device)
}

func TestApiClientErrors(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.RegGet("dsp.pid0.missing")
	var apiErr ErrApi
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)

	_, err = c.RegSet("dsp.pid0.input", "in3")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Contains(t, apiErr.Message, "unknown option label")
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, ParseValue("true"))
	assert.Equal(t, int64(-3), ParseValue("-3"))
	assert.Equal(t, int64(16), ParseValue("0x10"))
	assert.Equal(t, uint64(0xffffffffffffffff), ParseValue("0xffffffffffffffff"))
	assert.Equal(t, 3.2, ParseValue("3.2"))
	assert.Equal(t, "in1", ParseValue("in1"))
}
