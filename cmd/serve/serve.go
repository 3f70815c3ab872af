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

package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-stemlab/pkg/command"
	"jinr.ru/greenlab/go-stemlab/pkg/config"
)

const (
	HostOptionName      = "host"
	PortOptionName      = "port"
	SchemaOptionName    = "schema"
	StoreKindOptionName = "store-kind"
	StorePathOptionName = "store-path"
	ApiPortOptionName   = "api-port"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	var host, schema, storeKind, storePath string
	var port, apiPort int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Open a session with the device and serve the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed(HostOptionName) {
				cfg.Host = host
			}
			if flags.Changed(PortOptionName) {
				cfg.DeviceConfig.Port = port
			}
			if flags.Changed(SchemaOptionName) {
				cfg.Schema = schema
			}
			if flags.Changed(StoreKindOptionName) {
				cfg.StoreConfig.Kind = storeKind
			}
			if flags.Changed(StorePathOptionName) {
				cfg.StoreConfig.Path = storePath
			}
			if flags.Changed(ApiPortOptionName) {
				cfg.ApiConfig.Port = apiPort
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return command.StartApiServer(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&host, HostOptionName, "", fmt.Sprintf("Device host. E.g. %s", config.DefaultDeviceHost))
	cmd.Flags().IntVar(&port, PortOptionName, config.DefaultDevicePort, "Monitor server port")
	cmd.Flags().StringVar(&schema, SchemaOptionName, "", "Schema file, the built-in StemLab schema when empty")
	cmd.Flags().StringVar(&storeKind, StoreKindOptionName, config.DefaultStoreKind, "Config store kind: file or bolt")
	cmd.Flags().StringVar(&storePath, StorePathOptionName, "", "Config store path")
	cmd.Flags().IntVar(&apiPort, ApiPortOptionName, config.DefaultApiPort, "API port")
	return cmd
}
