package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"todoctl/internal/service"
	"todoctl/internal/view"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int    // 1-based position in the listing, 0 if ID is set
	ID  string // raw task ID, empty if Num is set
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args.
//
// Parsing rules:
// 1. If the first arg is all digits → position in the listing (must be >= 1)
// 2. If the first arg is "#<id>" or any other token without spaces → task ID
// 3. Extra args → error: unexpected argument
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	arg := strings.TrimSpace(args[0])
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		if num < 1 {
			return TaskRef{}, fmt.Errorf("task number out of range: %d", num)
		}
		return TaskRef{Num: num}, nil
	}

	id := strings.TrimPrefix(arg, "#")
	if id == "" || strings.IndexFunc(id, unicode.IsSpace) >= 0 || strings.Contains(id, "/") {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	return TaskRef{ID: id}, nil
}

// Resolve finds the referenced task in the controller's current listing.
func (r TaskRef) Resolve(ctrl *view.Controller) (service.Task, error) {
	if r.Num > 0 {
		task, ok := ctrl.TaskAt(r.Num)
		if !ok {
			return service.Task{}, fmt.Errorf("task number out of range: %d", r.Num)
		}
		return task, nil
	}
	for _, t := range ctrl.State().Tasks {
		if t.ID == r.ID {
			return t, nil
		}
	}
	return service.Task{}, fmt.Errorf("%w: %s", view.ErrTaskNotFound, r.ID)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
