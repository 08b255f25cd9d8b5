package commands

import (
	"context"
	"flag"
	"fmt"

	"todoctl/internal/exitcode"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Remove the stored session" }
func (c *LogoutCmd) Usage() string     { return "todoctl logout [common flags]" }
func (c *LogoutCmd) NeedsAPI() bool    { return false }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, env *Env, args []string) int {
	if !env.Session.Exists() {
		if !env.Config.Quiet {
			fmt.Fprintln(env.Out, "not logged in")
		}
		return exitcode.Success
	}

	if err := env.Session.Clear(); err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if !env.Config.Quiet {
		fmt.Fprintln(env.Out, "Logged out successfully")
	}
	return exitcode.Success
}
