package commands

import (
	"context"
	"flag"
	"fmt"

	"todoctl/internal/exitcode"
	"todoctl/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todoctl` (no args) and `todoctl list`.
type ListCmd struct {
	filterFlags
	header bool
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "todoctl list [--status all|completed|incomplete] [--sort <key>] [--search <text>] [--header]"
}
func (c *ListCmd) NeedsAPI() bool  { return true }
func (c *ListCmd) NeedsAuth() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	c.filterFlags.register(fs)
	fs.BoolVar(&c.header, "header", false, "")
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(env.ErrOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	filter, err := c.filter()
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	ctrl := newController(env, filter)
	defer ctrl.Close()
	if code := mount(ctx, ctrl, env.ErrOut); code != exitcode.Success {
		return code
	}

	st := ctrl.State()
	if c.header {
		output.FormatHeader(env.Out, st.Filter)
	}
	if len(st.Tasks) == 0 {
		if !env.Config.Quiet {
			fmt.Fprintln(env.Out, output.NoTasks)
		}
		return exitcode.Success
	}
	output.FormatTasks(env.Out, st.Tasks)
	return exitcode.Success
}
