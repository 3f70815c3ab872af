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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-stemlab/pkg/config"
	"jinr.ru/greenlab/go-stemlab/pkg/srv/api"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reg",
		Short: "Read and write registers through the API server",
	}
	cmd.AddCommand(NewGetCommand(cfg))
	cmd.AddCommand(NewSetCommand(cfg))
	cmd.AddCommand(NewSnapshotCommand(cfg))
	return cmd
}

// PrintValue prints one register value, the synchronization state when known
func PrintValue(out io.Writer, v api.RegValue) {
	if v.State != "" {
		fmt.Fprintf(out, "%s = %v (%s)\n", v.Path, v.Value, v.State)
		return
	}
	fmt.Fprintf(out, "%s = %v\n", v.Path, v.Value)
}
