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

func NewSetCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "set PATH VALUE",
		Short:   "Set register value",
		Long:    "Set register value. The value the device holds after the write is printed.",
		Example: "go-stemlab reg set dsp.pid0.input in1",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := command.NewApiClient(cfg).RegSet(args[0], command.ParseValue(args[1]))
			if err != nil {
				return err
			}
			PrintValue(cmd.OutOrStdout(), *v)
			return nil
		},
	}
	return cmd
}
