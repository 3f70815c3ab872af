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

package reg

import (
	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-stemlab/pkg/command"
	"jinr.ru/greenlab/go-stemlab/pkg/config"
)

func NewSnapshotCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot [MODULE]",
		Short: "Read all registers of a module, the whole device by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) == 1 {
				root = args[0]
			}
			values, err := command.NewApiClient(cfg).Snapshot(root)
			if err != nil {
				return err
			}
			for _, v := range values {
				PrintValue(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
	return cmd
}
