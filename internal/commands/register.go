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
	Register(&RegisterCmd{})
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	username string
	email    string
	password string
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account" }
func (c *RegisterCmd) Usage() string {
	return "todoctl register --username <name> --email <address> [--password <password>]"
}
func (c *RegisterCmd) NeedsAPI() bool  { return true }
func (c *RegisterCmd) NeedsAuth() bool { return false }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.username, "username", "", "")
	fs.StringVar(&c.username, "u", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(env.ErrOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	password := c.password
	if password == "" && env.In != nil {
		line, err := readLine(env.In)
		if err != nil {
			fmt.Fprintf(env.ErrOut, "error: failed to read password: %v\n", err)
			return exitcode.UserError
		}
		password = line
	}

	reg := service.Registration{
		Username: strings.TrimSpace(c.username),
		Email:    strings.TrimSpace(c.email),
		Password: password,
	}
	if err := service.Validate(reg); err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if _, err := env.Service.Register(ctx, reg); err != nil {
		fmt.Fprintf(env.ErrOut, "error: registration failed: %v\n", err)
		return exitCodeFor(err)
	}

	if !env.Config.Quiet {
		fmt.Fprintln(env.Out, "Registration successful! Please login.")
	}
	return exitcode.Success
}
