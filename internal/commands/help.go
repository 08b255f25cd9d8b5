package commands

import (
	"context"
	"flag"
	"fmt"

	"todoctl/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "todoctl help" }
func (c *HelpCmd) NeedsAPI() bool    { return false }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string) int {
	fmt.Fprint(env.Out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  todoctl                                        List tasks
  todoctl list [list flags] [--header]           List tasks
  todoctl add [--desc <text>] [--due <date>] <title...>
  todoctl create [--desc <text>] [--due <date>] <title...>
  todoctl show [list flags] <ref>
  todoctl edit [list flags] [--title <text>] [--desc <text>] [--due <date>] <ref>
  todoctl done [list flags] <ref>                Toggle completion
  todoctl rm [list flags] <ref>
  todoctl shell [list flags]                     Interactive session
  todoctl login --username <name> [--password <password>]
  todoctl register --username <name> --email <address> [--password <password>]
  todoctl logout
  todoctl health [-v]
  todoctl help
  todoctl version

List flags:
  --status <all|completed|incomplete>
  --sort <createdDesc|createdAsc|updatedDesc|updatedAsc>
  --search <text>

<ref> is the task number from the listing with the same list flags, or a task ID.
Passwords are read from stdin when --password is omitted.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  TODO_API_URL       API base URL, e.g. http://localhost:5000/api (required)
  TODO_CONFIG_DIR    Config directory
  TODO_RATE_LIMIT    Max API requests per second
  TODO_METRICS_FILE  Write request metrics here on exit
  TODO_LOG_FORMAT    text or json
`
