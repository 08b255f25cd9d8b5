package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"todoctl/internal/exitcode"
	"todoctl/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	due         string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "todoctl add [--desc <text>] [--due <date>] <title...>"
}
func (c *AddCmd) NeedsAPI() bool  { return true }
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "desc", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.due, "due", "", "")
}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string) int {
	due, err := parseDue(c.due)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	// The controller rejects a blank title before any request is made.
	ctrl := newController(env, service.DefaultFilter())
	defer ctrl.Close()

	task, err := ctrl.Create(ctx, strings.Join(args, " "), c.description, due)
	if err != nil {
		return exitCodeFor(err)
	}
	if !env.Config.Quiet {
		fmt.Fprintf(env.Out, "id: %s\n", task.ID)
	}
	return exitcode.Success
}
