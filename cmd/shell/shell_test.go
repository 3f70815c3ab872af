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

package shell

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"jinr.ru/greenlab/go-stemlab/pkg/policy"
	"jinr.ru/greenlab/go-stemlab/pkg/srv/api"
)

type fakeClient struct {
	values map[string]interface{}
}

func (c *fakeClient) RegGet(path string) (*api.RegValue, error) {
	v, ok := c.values[path]
	if !ok {
		return nil, errors.New("path not found")
	}
	return &api.RegValue{Path: path, Value: v}, nil
}

func (c *fakeClient) RegSet(path string, value interface{}) (*api.RegValue, error) {
	if _, ok := c.values[path]; !ok {
		return nil, errors.New("path not found")
	}
	c.values[path] = value
	return &api.RegValue{Path: path, Value: value, State: "cache-valid"}, nil
}

func (c *fakeClient) Snapshot(root string) ([]api.RegValue, error) {
	return []api.RegValue{{Path: "dsp.pid0.input", Value: c.values["dsp.pid0.input"]}}, nil
}

func (c *fakeClient) Paths() ([]string, error) {
	return []string{"dsp.pid0.input", "dsp.pid0.setpoint", "hk.id"}, nil
}

func (c *fakeClient) Save() (int, error) {
	return len(c.values), nil
}

func (c *fakeClient) Reconcile() (*policy.Report, error) {
	return &policy.Report{Outcomes: []policy.Outcome{
		{Path: "dsp.pid0.setpoint", Action: policy.Skipped, Reason: "unknown register"},
	}}, nil
}

func newFakeClient() *fakeClient {
	return &fakeClient{values: map[string]interface{}{
		"dsp.pid0.input":    "in1",
		"dsp.pid0.setpoint": 0.5,
		"hk.id":             uint64(3),
	}}
}

func TestExec(t *testing.T) {
	client := newFakeClient()
	var out bytes.Buffer

	assert.True(t, Exec(client, &out, "get dsp.pid0.input"))
	assert.Equal(t, "dsp.pid0.input = in1\n", out.String())

	out.Reset()
	assert.True(t, Exec(client, &out, "set dsp.pid0.setpoint 0.25"))
	assert.Equal(t, "dsp.pid0.setpoint = 0.25 (cache-valid)\n", out.String())
	assert.Equal(t, 0.25, client.values["dsp.pid0.setpoint"])

	out.Reset()
	assert.True(t, Exec(client, &out, "get dsp.nope"))
	assert.Equal(t, "Error: path not found\n", out.String())

	out.Reset()
	assert.True(t, Exec(client, &out, "paths dsp"))
	assert.Equal(t, "dsp.pid0.input\ndsp.pid0.setpoint\n", out.String())

	out.Reset()
	assert.True(t, Exec(client, &out, "save"))
	assert.Equal(t, "Saved 3 entries\n", out.String())

	out.Reset()
	assert.True(t, Exec(client, &out, "reconcile"))
	assert.Contains(t, out.String(), "skipped")
	assert.Contains(t, out.String(), "unknown register")

	out.Reset()
	assert.True(t, Exec(client, &out, "set dsp.pid0.input"))
	assert.Equal(t, "Usage: set <path> <value>\n", out.String())

	out.Reset()
	assert.True(t, Exec(client, &out, "frobnicate"))
	assert.Contains(t, out.String(), "Unknown command: frobnicate")

	assert.True(t, Exec(client, &out, "   "))
	assert.False(t, Exec(client, &out, "exit"))
}

func TestModulePaths(t *testing.T) {
	modules := ModulePaths([]string{"dsp.pid0.input", "dsp.pid0.setpoint", "dsp.asg0.freq", "hk.id"})
	assert.Equal(t, []string{"dsp", "dsp.asg0", "dsp.pid0", "hk"}, modules)
}
