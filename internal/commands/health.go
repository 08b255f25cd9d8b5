package commands

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"todoctl/internal/exitcode"
)

func init() {
	Register(&HealthCmd{})
}

// HealthCmd implements the health command.
type HealthCmd struct {
	verbose bool
}

func (c *HealthCmd) Name() string      { return "health" }
func (c *HealthCmd) Aliases() []string { return nil }
func (c *HealthCmd) Synopsis() string  { return "Check the backend" }
func (c *HealthCmd) Usage() string     { return "todoctl health [-v]" }
func (c *HealthCmd) NeedsAPI() bool    { return true }
func (c *HealthCmd) NeedsAuth() bool   { return false }

func (c *HealthCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "")
	fs.BoolVar(&c.verbose, "verbose", false, "")
}

func (c *HealthCmd) Run(ctx context.Context, env *Env, args []string) int {
	status, err := env.Service.Health(ctx)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: backend unavailable: %v\n", err)
		return exitcode.BackendError
	}

	fmt.Fprintf(env.Out, "%s %s\n", env.Config.APIURL, status.Status)
	if c.verbose {
		keys := make([]string, 0, len(status.Configuration))
		for k := range status.Configuration {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(env.Out, "  %s: %v\n", k, status.Configuration[k])
		}
	}
	return exitcode.Success
}
