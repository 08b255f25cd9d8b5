package commands

import (
	"context"
	"flag"

	"todoctl/internal/exitcode"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. It flips the completion flag,
// so running it on a completed task reopens it.
type DoneCmd struct {
	filterFlags
}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task's completion" }
func (c *DoneCmd) Usage() string     { return "todoctl done [list flags] <ref>" }
func (c *DoneCmd) NeedsAPI() bool    { return true }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {
	c.filterFlags.register(fs)
}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string) int {
	ctrl, task, code := openTask(ctx, env, &c.filterFlags, args)
	if code != exitcode.Success {
		return code
	}
	defer ctrl.Close()

	if err := ctrl.Toggle(ctx, task.ID); err != nil {
		return exitCodeFor(err)
	}
	return exitcode.Success
}
