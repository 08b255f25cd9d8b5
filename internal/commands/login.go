package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"todoctl/internal/exitcode"
	"todoctl/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
// The password is read from the first line of stdin unless --password is given.
type LoginCmd struct {
	username string
	password string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in and store the session" }
func (c *LoginCmd) Usage() string {
	return "todoctl login --username <name> [--password <password>]"
}
func (c *LoginCmd) NeedsAPI() bool  { return true }
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.username, "username", "", "")
	fs.StringVar(&c.username, "u", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(env.ErrOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	// A usable session makes this a no-op.
	if _, err := env.Session.Token(); err == nil {
		if !env.Config.Quiet {
			fmt.Fprintln(env.Out, "already logged in")
		}
		return exitcode.Success
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

	creds := service.Credentials{
		Username: strings.TrimSpace(c.username),
		Password: password,
	}
	if err := service.Validate(creds); err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	res, err := env.Service.Login(ctx, creds)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: login failed: %v\n", err)
		return exitCodeFor(err)
	}

	if !env.Config.Quiet {
		name := res.User.Username
		if name == "" {
			name = creds.Username
		}
		fmt.Fprintf(env.Out, "Logged in as %s\n", name)
	}
	return exitcode.Success
}

// readLine reads one line from r without the line terminator.
// An empty reader yields an empty line.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
