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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-stemlab/cmd/reg"
	"jinr.ru/greenlab/go-stemlab/cmd/session"
	"jinr.ru/greenlab/go-stemlab/pkg/command"
	"jinr.ru/greenlab/go-stemlab/pkg/config"
	"jinr.ru/greenlab/go-stemlab/pkg/policy"
	"jinr.ru/greenlab/go-stemlab/pkg/srv/api"
)

// Client is the subset of the API client the shell drives
type Client interface {
	RegGet(path string) (*api.RegValue, error)
	RegSet(path string, value interface{}) (*api.RegValue, error)
	Snapshot(root string) ([]api.RegValue, error)
	Paths() ([]string, error)
	Save() (int, error)
	Reconcile() (*policy.Report, error)
}

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive register shell connected to the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			sh, err := New(command.NewApiClient(cfg))
			if err != nil {
				return err
			}
			sh.Run(ctx)
			return nil
		},
	}
	return cmd
}

type Shell struct {
	client Client
	rl     *readline.Instance
}

func New(client Client) (*Shell, error) {
	sh := &Shell{client: client}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "stemlab> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    sh.completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	sh.rl = rl
	return sh, nil
}

func (sh *Shell) completer() *readline.PrefixCompleter {
	paths := readline.PcItemDynamic(func(string) []string {
		paths, err := sh.client.Paths()
		if err != nil {
			return nil
		}
		return paths
	})
	modules := readline.PcItemDynamic(func(string) []string {
		paths, err := sh.client.Paths()
		if err != nil {
			return nil
		}
		return ModulePaths(paths)
	})
	return readline.NewPrefixCompleter(
		readline.PcItem("get", paths),
		readline.PcItem("set", paths),
		readline.PcItem("snapshot", modules),
		readline.PcItem("paths"),
		readline.PcItem("save"),
		readline.PcItem("reconcile"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// ModulePaths returns the sorted module paths that own the given register paths
func ModulePaths(paths []string) []string {
	seen := make(map[string]bool)
	for _, p := range paths {
		for i := strings.LastIndex(p, "."); i > 0; i = strings.LastIndex(p, ".") {
			p = p[:i]
			seen[p] = true
		}
	}
	modules := make([]string, 0, len(seen))
	for m := range seen {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules
}

func (sh *Shell) Run(ctx context.Context) {
	defer sh.rl.Close()
	out := sh.rl.Stdout()
	printHelp(out)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line, err := sh.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}
		if !Exec(sh.client, out, line) {
			return
		}
	}
}

// Exec runs one shell line and reports whether the shell should keep reading
func Exec(client Client, out io.Writer, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]
	var err error
	switch cmd {
	case "help", "?":
		printHelp(out)
	case "get", "g":
		if len(args) != 1 {
			fmt.Fprintln(out, "Usage: get <path>")
			return true
		}
		var v *api.RegValue
		if v, err = client.RegGet(args[0]); err == nil {
			reg.PrintValue(out, *v)
		}
	case "set", "s":
		if len(args) != 2 {
			fmt.Fprintln(out, "Usage: set <path> <value>")
			return true
		}
		var v *api.RegValue
		if v, err = client.RegSet(args[0], command.ParseValue(args[1])); err == nil {
			reg.PrintValue(out, *v)
		}
	case "snapshot", "snap":
		root := ""
		if len(args) > 0 {
			root = args[0]
		}
		var values []api.RegValue
		if values, err = client.Snapshot(root); err == nil {
			for _, v := range values {
				reg.PrintValue(out, v)
			}
		}
	case "paths", "ls":
		var paths []string
		if paths, err = client.Paths(); err == nil {
			for _, p := range paths {
				if len(args) == 0 || strings.HasPrefix(p, args[0]) {
					fmt.Fprintln(out, p)
				}
			}
		}
	case "save":
		var n int
		if n, err = client.Save(); err == nil {
			fmt.Fprintf(out, "Saved %d entries\n", n)
		}
	case "reconcile":
		var report *policy.Report
		if report, err = client.Reconcile(); err == nil {
			session.PrintReport(out, report)
		}
	case "quit", "exit", "q":
		return false
	default:
		fmt.Fprintf(out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(out, "Error: %s\n", err)
	}
	return true
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, `
Commands:
  get <path>          - Read a register
  set <path> <value>  - Write a register
  snapshot [module]   - Read every register of a module
  paths [prefix]      - List register paths
  save                - Persist read-write registers
  reconcile           - Merge persisted values with the device
  help                - Show this help
  exit                - Leave the shell

Paths are dotted, e.g. dsp.pid0.setpoint`)
}
