// Package cli parses the command line and dispatches to registered commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"todoctl/internal/commands"
	"todoctl/internal/config"
	"todoctl/internal/exitcode"
	"todoctl/internal/logging"
	"todoctl/internal/service"
	"todoctl/internal/session"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, store *session.Store, log *logrus.Logger) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory

	// In is passed to commands that read input (login, shell). May be nil.
	In io.Reader
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagErrorMessage(err))
		return exitcode.UserError
	}

	// A leading "-" left over means a flag placed after a positional argument.
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") && positionalArgs[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	log := logging.New(errOut, cfg.Debug, cfg.LogFormat)
	store := session.NewStore(cfg.SessionPath())

	log.WithFields(logrus.Fields{
		"command": cmd.Name(),
		"config":  cfg.Dir,
		"api":     cfg.APIURL,
	}).Debug("dispatching")

	env := &commands.Env{
		Config:  cfg,
		Session: store,
		Log:     log,
		In:      d.In,
		Out:     out,
		ErrOut:  errOut,
	}

	if cmd.NeedsAPI() {
		if !cfg.HasAPIURL() {
			fmt.Fprintf(errOut, "error: %s not set\n", config.EnvAPIURL)
			return exitcode.AuthError
		}
		if cmd.NeedsAuth() {
			if code := checkSession(store, errOut); code != exitcode.Success {
				return code
			}
		}
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no backend configured")
			return exitcode.AuthError
		}
		svc, err := d.factory(ctx, cfg, store, log)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.AuthError
		}
		env.Service = svc
	}

	return cmd.Run(ctx, env, positionalArgs)
}

// checkSession reports a missing or expired session before any request is made.
// An expired session is removed.
func checkSession(store *session.Store, errOut io.Writer) int {
	_, err := store.Token()
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(err, session.ErrNoSession):
		fmt.Fprintln(errOut, "error: not logged in (run: todoctl login)")
	case errors.Is(err, session.ErrExpired):
		if err := store.Clear(); err != nil {
			fmt.Fprintf(errOut, "error: failed to remove expired session: %v\n", err)
		}
		fmt.Fprintln(errOut, "error: session expired (run: todoctl login)")
	default:
		fmt.Fprintf(errOut, "error: %s\n", err)
	}
	return exitcode.AuthError
}

// flagErrorMessage rewrites flag package errors into the CLI's wording.
func flagErrorMessage(err error) string {
	errStr := err.Error()

	// Missing flag value
	if strings.HasPrefix(errStr, "flag needs an argument:") {
		flagName := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
		return "flag needs an argument: " + flagName
	}

	// Unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		return "unknown flag: " + strings.TrimSpace(strings.TrimPrefix(errStr, "flag provided but not defined:"))
	}

	return errStr
}
