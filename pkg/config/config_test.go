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

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigDir, ConfigFile)
	c := NewDefaultConfig()
	c.SetPath(path)
	c.Host = "rp-f0a1b2.local"
	c.Timeout = 250 * time.Millisecond
	c.StoreConfig.Kind = "bolt"
	require.NoError(t, c.Persist(false))

	err := c.Persist(false)
	var exists ErrConfigFileExists
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, path, exists.Path)
	require.NoError(t, c.Persist(true))

	loaded := NewDefaultConfig()
	loaded.SetPath(path)
	require.NoError(t, loaded.LoadConfig())
	assert.Equal(t, "rp-f0a1b2.local", loaded.Host)
	assert.Equal(t, 250*time.Millisecond, loaded.Timeout)
	assert.Equal(t, "bolt", loaded.StoreConfig.Kind)
	assert.Equal(t, DefaultApiPort, loaded.ApiConfig.Port)
	assert.Equal(t, "rp-f0a1b2.local:2222", loaded.DeviceAddress())
	assert.Equal(t, "127.0.0.1:8000", loaded.ApiAddress())
}

func TestLoadMissing(t *testing.T) {
	c := NewDefaultConfig()
	c.SetPath(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, c.LoadConfig())
	assert.Equal(t, DefaultDeviceHost, c.Host)
	assert.Equal(t, DefaultLogLevel, c.LogLevel)
}
