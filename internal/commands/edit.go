package commands

import (
	"context"
	"flag"
	"fmt"

	"todoctl/internal/exitcode"
	"todoctl/internal/output"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command.
// Only the fields given as flags change; with none it prints the task.
type EditCmd struct {
	filterFlags
	title       optionalString
	description optionalString
	due         optionalString
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "todoctl edit [list flags] [--title <text>] [--desc <text>] [--due <date>] <ref>"
}
func (c *EditCmd) NeedsAPI() bool  { return true }
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.filterFlags.register(fs)
	c.title = optionalString{}
	c.description = optionalString{}
	c.due = optionalString{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "desc", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.due, "due", "")
}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string) int {
	due, err := parseDue(c.due.value)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	ctrl, task, code := openTask(ctx, env, &c.filterFlags, args)
	if code != exitcode.Success {
		return code
	}
	defer ctrl.Close()

	if !c.title.set && !c.description.set && !c.due.set {
		output.FormatTaskDetail(env.Out, task)
		return exitcode.Success
	}

	if err := ctrl.BeginEdit(task.ID); err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitCodeFor(err)
	}
	if c.title.set {
		err = ctrl.SetDraftTitle(c.title.value)
	}
	if err == nil && c.description.set {
		err = ctrl.SetDraftDescription(c.description.value)
	}
	if err == nil && c.due.set {
		err = ctrl.SetDraftDue(due)
	}
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitCodeFor(err)
	}

	if _, err := ctrl.SaveEdit(ctx); err != nil {
		return exitCodeFor(err)
	}
	return exitcode.Success
}
