package commands

import (
	"context"
	"flag"

	"todoctl/internal/exitcode"
	"todoctl/internal/output"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
type ShowCmd struct {
	filterFlags
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return nil }
func (c *ShowCmd) Synopsis() string  { return "Show all fields of a task" }
func (c *ShowCmd) Usage() string     { return "todoctl show [list flags] <ref>" }
func (c *ShowCmd) NeedsAPI() bool    { return true }
func (c *ShowCmd) NeedsAuth() bool   { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {
	c.filterFlags.register(fs)
}

func (c *ShowCmd) Run(ctx context.Context, env *Env, args []string) int {
	ctrl, task, code := openTask(ctx, env, &c.filterFlags, args)
	if code != exitcode.Success {
		return code
	}
	defer ctrl.Close()

	output.FormatTaskDetail(env.Out, task)
	return exitcode.Success
}
