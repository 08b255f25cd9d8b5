package service

import (
	"fmt"
	"net/url"
	"strings"
)

// Status selects tasks by completion.
type Status string

const (
	StatusAll        Status = "all"
	StatusCompleted  Status = "completed"
	StatusIncomplete Status = "incomplete"
)

// SortKey is a UI sort label: field (created/updated) and direction.
type SortKey string

const (
	SortCreatedDesc SortKey = "createdDesc"
	SortCreatedAsc  SortKey = "createdAsc"
	SortUpdatedDesc SortKey = "updatedDesc"
	SortUpdatedAsc  SortKey = "updatedAsc"
)

// SortKeys lists the supported sort labels in menu order.
var SortKeys = []SortKey{SortCreatedDesc, SortCreatedAsc, SortUpdatedDesc, SortUpdatedAsc}

// Param returns the server token for the sort key ("createdDesc" -> "created_desc").
func (k SortKey) Param() string {
	s := string(k)
	s = strings.Replace(s, "Desc", "_desc", 1)
	s = strings.Replace(s, "Asc", "_asc", 1)
	return s
}

// Label returns the menu text for the sort key.
func (k SortKey) Label() string {
	switch k {
	case SortCreatedDesc:
		return "Newest First"
	case SortCreatedAsc:
		return "Oldest First"
	case SortUpdatedDesc:
		return "Last Updated"
	case SortUpdatedAsc:
		return "First Updated"
	}
	return string(k)
}

// ParseStatus parses a status filter name (case-insensitive).
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusCompleted, "done":
		return StatusCompleted, nil
	case StatusIncomplete, "open":
		return StatusIncomplete, nil
	}
	return "", fmt.Errorf("invalid status: %s", s)
}

// ParseSortKey accepts a UI label ("createdDesc") or a server token ("created_desc").
func ParseSortKey(s string) (SortKey, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "" {
		return SortCreatedDesc, nil
	}
	for _, k := range SortKeys {
		if norm == strings.ToLower(string(k)) || norm == k.Param() {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid sort key: %s", s)
}

// Filter is the client-side list state that drives the next fetch.
type Filter struct {
	Status Status
	Sort   SortKey
	Search string
}

// DefaultFilter returns the initial filter: all tasks, newest first, no search.
func DefaultFilter() Filter {
	return Filter{Status: StatusAll, Sort: SortCreatedDesc}
}

// Query encodes the filter as list query parameters.
// Status is omitted when "all"; search is omitted when empty.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.Status != "" && f.Status != StatusAll {
		q.Set("status", string(f.Status))
	}
	if f.Sort != "" {
		q.Set("sort_by", f.Sort.Param())
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}
