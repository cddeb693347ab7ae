// Package ticker holds the Latest Updates widget as an explicit state value.
// Transitions are pure: each returns a new State and never mutates the
// receiver's item slice.
package ticker

import (
	"sort"
	"strings"

	"pdgupta/website/internal/models"
)

// PageSize is the number of items per page while searching.
const PageSize = 5

// Phase is the refresh lifecycle of the widget.
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// State is the complete widget state.
type State struct {
	Phase   Phase
	Items   []models.TickerItem
	Playing bool
	Hovered bool
	Focused bool
	Search  string
	Page    int
}

// New returns the initial state seeded with server-rendered items.
func New(initial []models.TickerItem) State {
	return State{
		Phase:   Idle,
		Items:   clone(initial),
		Playing: true,
	}
}

// BeginRefresh marks a refresh as in flight.
func (s State) BeginRefresh() State {
	s.Phase = Loading
	return s
}

// CompleteRefresh applies a refresh result. Items are replaced only by a
// successful non-empty result; failures keep what is shown.
func (s State) CompleteRefresh(items []models.TickerItem, err error) State {
	s.Phase = Ready
	if err == nil && len(items) > 0 {
		s.Items = clone(items)
	}
	return s
}

func (s State) TogglePlay() State {
	s.Playing = !s.Playing
	return s
}

func (s State) SetHovered(hovered bool) State {
	s.Hovered = hovered
	return s
}

func (s State) SetFocused(focused bool) State {
	s.Focused = focused
	return s
}

// SetSearch changes the search input and returns to the first page.
func (s State) SetSearch(input string) State {
	s.Search = input
	s.Page = 0
	return s
}

func (s State) ClearSearch() State {
	return s.SetSearch("")
}

func (s State) NextPage() State {
	s.Page = min(s.TotalPages()-1, s.SafePage()+1)
	return s
}

func (s State) PrevPage() State {
	s.Page = max(0, s.SafePage()-1)
	return s
}

// Sorted returns the items newest first. Items with unparsable dates go
// last in their original order.
func (s State) Sorted() []models.TickerItem {
	out := clone(s.Items)
	sort.SliceStable(out, func(i, j int) bool {
		return models.ParseDate(out[i].Date).After(models.ParseDate(out[j].Date))
	})
	return out
}

// Query is the normalized search query.
func (s State) Query() string {
	return strings.ToLower(strings.TrimSpace(s.Search))
}

func (s State) Searching() bool {
	return s.Query() != ""
}

// Filtered returns the sorted items matching the query on the decoded
// title or the formatted date. Without a query all items match.
func (s State) Filtered() []models.TickerItem {
	sorted := s.Sorted()
	q := s.Query()
	if q == "" {
		return sorted
	}

	out := make([]models.TickerItem, 0, len(sorted))
	for _, it := range sorted {
		if strings.Contains(strings.ToLower(DecodeTitle(it.Title)), q) ||
			strings.Contains(strings.ToLower(FormatDate(it.Date)), q) {
			out = append(out, it)
		}
	}
	return out
}

// TotalPages is at least 1.
func (s State) TotalPages() int {
	n := len(s.Filtered())
	return max(1, (n+PageSize-1)/PageSize)
}

// SafePage clamps Page to [0, TotalPages-1].
func (s State) SafePage() int {
	return min(max(s.Page, 0), s.TotalPages()-1)
}

// Paginated returns the current page of Filtered.
func (s State) Paginated() []models.TickerItem {
	filtered := s.Filtered()
	start := s.SafePage() * PageSize
	if start >= len(filtered) {
		return nil
	}
	end := min(start+PageSize, len(filtered))
	return filtered[start:end]
}

// ScrollItems is the sorted list twice over, for a seamless loop.
func (s State) ScrollItems() []models.TickerItem {
	sorted := s.Sorted()
	return append(sorted, sorted...)
}

// Paused reports whether auto-scroll is suspended.
func (s State) Paused() bool {
	return !s.Playing || s.Hovered || s.Focused || s.Searching()
}

// HasPrev and HasNext report whether page navigation is possible.
func (s State) HasPrev() bool { return s.SafePage() > 0 }
func (s State) HasNext() bool { return s.SafePage() < s.TotalPages()-1 }

func clone(items []models.TickerItem) []models.TickerItem {
	if items == nil {
		return nil
	}
	out := make([]models.TickerItem, len(items))
	copy(out, items)
	return out
}
