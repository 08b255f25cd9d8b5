// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todoctl/internal/service"
	"todoctl/internal/view"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"

	// NoTasks is printed for an empty listing.
	NoTasks = "no tasks found"

	dateLayout = "2006-01-02"
)

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TITLE}\n", then the description indented under the title.
func FormatTask(w io.Writer, num int, task service.Task) {
	mark := " "
	if task.Completed {
		mark = "x"
	}
	fmt.Fprintf(w, "%4d  [%s] %s\n", num, mark, normalizeTitle(task.Title))
	if desc := normalizeText(task.Description); desc != "" {
		fmt.Fprintf(w, "          %s\n", desc)
	}
}

// FormatTasks formats a numbered listing, or "no tasks found".
func FormatTasks(w io.Writer, tasks []service.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, NoTasks)
		return
	}
	for i, task := range tasks {
		FormatTask(w, i+1, task)
	}
}

// FormatTaskDetail prints every field of a task, one per line.
func FormatTaskDetail(w io.Writer, task service.Task) {
	status := "incomplete"
	if task.Completed {
		status = "completed"
	}
	fmt.Fprintf(w, "id:          %s\n", task.ID)
	fmt.Fprintf(w, "title:       %s\n", normalizeTitle(task.Title))
	fmt.Fprintf(w, "description: %s\n", normalizeText(task.Description))
	fmt.Fprintf(w, "status:      %s\n", status)
	if task.DueDate != nil && !task.DueDate.IsZero() {
		fmt.Fprintf(w, "due:         %s\n", task.DueDate.Format(dateLayout))
	}
	fmt.Fprintf(w, "created:     %s\n", formatDate(task.CreatedAt))
	fmt.Fprintf(w, "updated:     %s\n", formatDate(task.UpdatedAt))
}

// FormatHeader formats the filter bar above a listing.
func FormatHeader(w io.Writer, filter service.Filter) {
	line := fmt.Sprintf("status: %s  sort: %s", filter.Status, filter.Sort.Label())
	if filter.Search != "" {
		line += fmt.Sprintf("  search: %q", filter.Search)
	}
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, ListSeparator)
}

// FormatState renders a controller snapshot: banner, filter bar, list and open draft.
func FormatState(w io.Writer, st view.State) {
	if st.Error != "" {
		fmt.Fprintf(w, "! %s\n", st.Error)
	}
	FormatHeader(w, st.Filter)
	if st.Loading && len(st.Tasks) == 0 {
		fmt.Fprintln(w, "loading...")
		return
	}
	FormatTasks(w, st.Tasks)
	if st.Draft != nil {
		fmt.Fprintln(w, ListSeparator)
		fmt.Fprintln(w, "editing:")
		FormatTaskDetail(w, *st.Draft)
	}
}

func formatDate(ts service.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format(dateLayout)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = normalizeText(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

// normalizeText replaces newlines with spaces and trims.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
