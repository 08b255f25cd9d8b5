package commands

import (
	"context"
	"flag"

	"todoctl/internal/exitcode"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	filterFlags
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "todoctl rm [list flags] <ref>" }
func (c *RmCmd) NeedsAPI() bool    { return true }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	c.filterFlags.register(fs)
}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string) int {
	ctrl, task, code := openTask(ctx, env, &c.filterFlags, args)
	if code != exitcode.Success {
		return code
	}
	defer ctrl.Close()

	if err := ctrl.Delete(ctx, task.ID); err != nil {
		return exitCodeFor(err)
	}
	return exitcode.Success
}
