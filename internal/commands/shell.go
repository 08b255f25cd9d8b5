package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"todoctl/internal/exitcode"
	"todoctl/internal/output"
	"todoctl/internal/service"
	"todoctl/internal/view"
)

func init() {
	Register(&ShellCmd{})
}

// ShellCmd implements an interactive session over one controller.
// Search input is debounced; other commands act immediately.
type ShellCmd struct {
	filterFlags
}

func (c *ShellCmd) Name() string      { return "shell" }
func (c *ShellCmd) Aliases() []string { return []string{"sh"} }
func (c *ShellCmd) Synopsis() string  { return "Interactive task session" }
func (c *ShellCmd) Usage() string     { return "todoctl shell [list flags]" }
func (c *ShellCmd) NeedsAPI() bool    { return true }
func (c *ShellCmd) NeedsAuth() bool   { return true }

func (c *ShellCmd) RegisterFlags(fs *flag.FlagSet) {
	c.filterFlags.register(fs)
}

func (c *ShellCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(env.ErrOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	filter, err := c.filter()
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	sh := &shell{
		out:    &syncWriter{w: env.Out},
		errOut: &syncWriter{w: env.ErrOut},
	}
	sh.ctrl = view.New(env.Service, view.Options{
		Session: env.Session,
		Notifier: &output.Notifier{
			Out:    sh.out,
			ErrOut: sh.errOut,
			Quiet:  env.Config.Quiet,
		},
		Navigator: view.NavigatorFunc(func() { sh.loggedOut.Store(true) }),
		Logger:   env.Log,
		Filter:   filter,
		OnChange: sh.onChange,
	})
	defer sh.ctrl.Close()

	if err := sh.ctrl.Mount(ctx); err != nil && sh.loggedOut.Load() {
		fmt.Fprintln(env.ErrOut, "error: login required (run: todoctl login)")
		return exitcode.AuthError
	}

	scanner := bufio.NewScanner(env.In)
	for {
		fmt.Fprint(sh.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			break
		}
		if quit := sh.exec(ctx, scanner.Text()); quit {
			break
		}
		if sh.loggedOut.Load() {
			fmt.Fprintln(env.ErrOut, "error: login required (run: todoctl login)")
			return exitcode.AuthError
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}

type shell struct {
	ctrl      *view.Controller
	out       *syncWriter
	errOut    *syncWriter
	loggedOut atomic.Bool

	mu         sync.Mutex
	wasLoading bool
}

// onChange renders the list each time a fetch settles.
func (s *shell) onChange(st view.State) {
	s.mu.Lock()
	settled := s.wasLoading && !st.Loading
	s.wasLoading = st.Loading
	s.mu.Unlock()
	if settled {
		s.render(st)
	}
}

func (s *shell) render(st view.State) {
	var b strings.Builder
	output.FormatState(&b, st)
	io.WriteString(s.out, b.String())
}

// exec runs one input line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	var cmd, rest string
	if strings.HasPrefix(line, "/") {
		// "/milk" is shorthand for "search milk".
		cmd, rest = "/", line[1:]
	} else {
		cmd, rest, _ = strings.Cut(line, " ")
	}
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "":
	case "quit", "exit", "q":
		return true
	case "help", "?":
		io.WriteString(s.out, shellHelp)
	case "list", "ls", "refresh":
		s.ctrl.Refresh(ctx)
	case "status":
		status, err := service.ParseStatus(rest)
		if err != nil {
			s.fail(err)
			return false
		}
		s.ctrl.SetStatus(ctx, status)
	case "sort":
		key, err := service.ParseSortKey(rest)
		if err != nil {
			s.fail(err)
			return false
		}
		s.ctrl.SetSort(ctx, key)
	case "search", "/":
		s.ctrl.SetSearch(ctx, rest)
	case "add":
		title, desc, _ := strings.Cut(rest, "|")
		if _, err := s.ctrl.Create(ctx, strings.TrimSpace(title), strings.TrimSpace(desc), nil); err == nil {
			s.render(s.ctrl.State())
		}
	case "done", "toggle":
		s.withTask(rest, func(t service.Task) error { return s.ctrl.Toggle(ctx, t.ID) })
	case "rm", "delete":
		s.withTask(rest, func(t service.Task) error { return s.ctrl.Delete(ctx, t.ID) })
	case "show":
		s.withTask(rest, func(t service.Task) error {
			var b strings.Builder
			output.FormatTaskDetail(&b, t)
			io.WriteString(s.out, b.String())
			return nil
		})
	case "edit":
		s.withTask(rest, func(t service.Task) error { return s.ctrl.BeginEdit(t.ID) })
	case "title":
		s.draft(s.ctrl.SetDraftTitle(rest))
	case "desc":
		s.draft(s.ctrl.SetDraftDescription(rest))
	case "due":
		due, err := parseDue(rest)
		if err != nil {
			s.fail(err)
			return false
		}
		s.draft(s.ctrl.SetDraftDue(due))
	case "save":
		if _, err := s.ctrl.SaveEdit(ctx); err == nil {
			s.render(s.ctrl.State())
		} else if errors.Is(err, view.ErrNoDraft) {
			s.fail(err)
		}
	case "cancel":
		s.ctrl.CancelEdit()
		s.render(s.ctrl.State())
	case "logout":
		if err := s.ctrl.Logout(); err != nil {
			s.fail(err)
		}
		s.loggedOut.Store(false)
		return true
	default:
		fmt.Fprintf(s.errOut, "error: unknown command: %s\n", cmd)
	}
	return false
}

// withTask resolves a task reference against the current list and runs fn on it.
// The list is re-rendered when fn succeeds.
func (s *shell) withTask(arg string, fn func(service.Task) error) {
	ref, err := ParseTaskRef(strings.Fields(arg))
	if err != nil {
		s.fail(err)
		return
	}
	task, err := ref.Resolve(s.ctrl)
	if err != nil {
		s.fail(err)
		return
	}
	if err := fn(task); err != nil {
		// Backend failures are already reported by the controller.
		if service.KindOf(err) == 0 {
			s.fail(err)
		}
		return
	}
	s.render(s.ctrl.State())
}

func (s *shell) draft(err error) {
	if err != nil {
		s.fail(err)
		return
	}
	s.render(s.ctrl.State())
}

func (s *shell) fail(err error) {
	fmt.Fprintf(s.errOut, "error: %v\n", err)
}

// syncWriter serializes writes from the input loop and the search timer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

const shellHelp = `Commands:
  list                      Refresh the list
  status <all|completed|incomplete>
  sort <key>                createdDesc, createdAsc, updatedDesc, updatedAsc
  search <text>             Filter by text (empty clears)
  add <title> [| <desc>]    Create a task
  done <n>                  Toggle completion
  rm <n>                    Delete a task
  show <n>                  Show all fields
  edit <n>                  Open a task for editing
  title|desc|due <value>    Change the open draft
  save | cancel             Finish editing
  logout
  quit
`
