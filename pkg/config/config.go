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
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type DeviceConfig struct {
	Name string `yaml:"name"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Timeout bounds every single transport call
	Timeout time.Duration `yaml:"timeout"`
	// AddressSpace overrides the schema's address space when not zero
	AddressSpace uint32 `yaml:"addressSpace,omitempty"`
	// Schema is the path of a schema file, empty selects the built-in StemLab schema
	Schema string `yaml:"schema,omitempty"`
}

type StoreConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

type ApiConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

type Config struct {
	LogLevel      string `yaml:"logLevel"`
	*DeviceConfig `yaml:"device"`
	*StoreConfig  `yaml:"store"`
	*ApiConfig    `yaml:"api"`
	filepath      string
}

// Persist writes the config file, an existing file is only replaced when overwrite is set
func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(c.filepath, data, 0644)
}

// LoadConfig reads the config file over the current values.
// A missing file is not an error, the defaults stay in place.
func (c *Config) LoadConfig() error {
	data, err := ioutil.ReadFile(c.filepath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// SetPath changes the file the config is loaded from and persisted to
func (c *Config) SetPath(path string) {
	c.filepath = path
}

func (c *Config) FilePath() string {
	return c.filepath
}

// DeviceAddress returns host:port of the monitor server
func (c *Config) DeviceAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.DeviceConfig.Port))
}

// ApiAddress returns address:port the REST API listens on
func (c *Config) ApiAddress() string {
	return net.JoinHostPort(c.ApiConfig.Address, strconv.Itoa(c.ApiConfig.Port))
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func defaultStorePath() string {
	return filepath.Join(filepath.Dir(DefaultConfigPath()), DefaultStoreFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		DeviceConfig: &DeviceConfig{
			Name:    DefaultDeviceName,
			Host:    DefaultDeviceHost,
			Port:    DefaultDevicePort,
			Timeout: DefaultTimeout,
		},
		StoreConfig: &StoreConfig{
			Kind: DefaultStoreKind,
			Path: defaultStorePath(),
		},
		ApiConfig: &ApiConfig{
			Address: DefaultApiAddress,
			Port:    DefaultApiPort,
		},
		filepath: DefaultConfigPath(),
	}
}
