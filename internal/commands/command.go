// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"github.com/sirupsen/logrus"

	"todoctl/internal/config"
	"todoctl/internal/service"
	"todoctl/internal/session"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAPI returns true if the command talks to the backend.
	// Commands like help, version, logout return false.
	NeedsAPI() bool

	// NeedsAuth returns true if the command requires a stored session.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string) int
}

// Env carries the dependencies of a command run.
type Env struct {
	// Config is always provided (config dir, API URL, flags).
	Config *config.Config

	// Service is nil if NeedsAPI() returns false.
	Service service.Service

	// Session is the stored login; always provided.
	Session *session.Store

	Log *logrus.Logger

	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}
