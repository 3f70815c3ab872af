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

package session

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-stemlab/pkg/command"
	"jinr.ru/greenlab/go-stemlab/pkg/config"
	"jinr.ru/greenlab/go-stemlab/pkg/policy"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Save and reconcile the persisted register configuration",
	}
	cmd.AddCommand(NewInfoCommand(cfg))
	cmd.AddCommand(NewSaveCommand(cfg))
	cmd.AddCommand(NewReconcileCommand(cfg))
	return cmd
}

func NewInfoCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the session served by the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := command.NewApiClient(cfg).Session()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s: device %s, schema %s\n", info.ID, info.Device, info.Schema)
			return nil
		},
	}
	return cmd
}

func NewSaveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Persist the current value of every read-write register",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := command.NewApiClient(cfg).Save()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d entries\n", n)
			return nil
		},
	}
	return cmd
}

func NewReconcileCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Merge the persisted configuration with the live device state",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := command.NewApiClient(cfg).Reconcile()
			if err != nil {
				return err
			}
			PrintReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	return cmd
}

// PrintReport prints one line per reconciled entry
func PrintReport(out io.Writer, report *policy.Report) {
	for _, o := range report.Outcomes {
		switch o.Action {
		case policy.Skipped:
			fmt.Fprintf(out, "%-40s %-13s %s\n", o.Path, o.Action, o.Reason)
		default:
			fmt.Fprintf(out, "%-40s %-13s persisted %v, live %v, applied %v\n", o.Path, o.Action, o.Persisted, o.Live, o.Applied)
		}
	}
}
