package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"

	"todoctl/internal/exitcode"
	"todoctl/internal/output"
	"todoctl/internal/service"
	"todoctl/internal/view"
)

// newController builds a view controller that reports through the command's output.
func newController(env *Env, filter service.Filter) *view.Controller {
	return view.New(env.Service, view.Options{
		Session: env.Session,
		Notifier: &output.Notifier{
			Out:    env.Out,
			ErrOut: env.ErrOut,
			Quiet:  env.Config.Quiet,
		},
		Navigator: view.NavigatorFunc(func() {
			fmt.Fprintln(env.ErrOut, "error: login required (run: todoctl login)")
		}),
		Logger: env.Log,
		Filter: filter,
	})
}

// mount performs the initial fetch. The controller only sets a banner on
// fetch failure, so the error is printed here.
func mount(ctx context.Context, ctrl *view.Controller, errOut io.Writer) int {
	if err := ctrl.Mount(ctx); err != nil {
		if !service.IsUnauthorized(err) {
			fmt.Fprintf(errOut, "error: %s: %v\n", ctrl.State().Error, err)
		}
		return exitCodeFor(err)
	}
	return exitcode.Success
}

// exitCodeFor maps an operation error to an exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitcode.Success
	case service.IsUnauthorized(err):
		return exitcode.AuthError
	case service.KindOf(err) == service.KindValidation,
		service.IsNotFound(err),
		errors.Is(err, view.ErrTaskNotFound),
		errors.Is(err, view.ErrNoDraft):
		return exitcode.UserError
	}
	// The backend answers 400 for bad input such as a taken username.
	var svcErr *service.Error
	if errors.As(err, &svcErr) && svcErr.Status == http.StatusBadRequest {
		return exitcode.UserError
	}
	return exitcode.BackendError
}

// refError prints a task reference error and returns the user error code.
func refError(errOut io.Writer, err error) int {
	if errors.Is(err, ErrTaskRefRequired) {
		fmt.Fprintln(errOut, "error: task reference required")
	} else {
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return exitcode.UserError
}

// filterFlags are the listing flags shared by commands that resolve task numbers.
type filterFlags struct {
	status string
	sort   string
	search string
}

func (f *filterFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.status, "status", "all", "")
	fs.StringVar(&f.sort, "sort", string(service.SortCreatedDesc), "")
	fs.StringVar(&f.search, "search", "", "")
}

func (f *filterFlags) filter() (service.Filter, error) {
	status, err := service.ParseStatus(f.status)
	if err != nil {
		return service.Filter{}, err
	}
	key, err := service.ParseSortKey(f.sort)
	if err != nil {
		return service.Filter{}, err
	}
	return service.Filter{Status: status, Sort: key, Search: f.search}, nil
}

// optionalString is a flag that records whether it was set.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(s string) error {
	o.value = s
	o.set = true
	return nil
}

// parseDue parses a --due value; empty means no due date.
func parseDue(s string) (*service.Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	ts, err := service.ParseTimestamp(s)
	if err != nil {
		return nil, fmt.Errorf("invalid due date: %s", s)
	}
	return &ts, nil
}

// openTask mounts a controller with the listing flags and resolves the task
// reference in args against it. The caller closes the returned controller.
func openTask(ctx context.Context, env *Env, ff *filterFlags, args []string) (*view.Controller, service.Task, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return nil, service.Task{}, refError(env.ErrOut, err)
	}
	filter, err := ff.filter()
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return nil, service.Task{}, exitcode.UserError
	}

	ctrl := newController(env, filter)
	if code := mount(ctx, ctrl, env.ErrOut); code != exitcode.Success {
		ctrl.Close()
		return nil, service.Task{}, code
	}
	task, err := ref.Resolve(ctrl)
	if err != nil {
		ctrl.Close()
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return nil, service.Task{}, exitcode.UserError
	}
	return ctrl, task, exitcode.Success
}
