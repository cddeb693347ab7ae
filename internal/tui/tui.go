// Package tui renders the live ticker in a terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"pdgupta/website/internal/models"
	"pdgupta/website/internal/ticker"
)

const (
	scrollEvery = 2 * time.Second
	visibleRows = 6
)

type refreshStartedMsg struct{}

type refreshDoneMsg struct {
	items []models.TickerItem
	err   error
}

type scrollMsg time.Time

type model struct {
	state      ticker.State
	offset     int
	editing    bool
	lastUpdate time.Time
	lastErr    error
	quitting   bool
}

func initialModel(items []models.TickerItem) model {
	return model{state: ticker.New(items)}
}

func scrollTick() tea.Cmd {
	return tea.Tick(scrollEvery, func(t time.Time) tea.Msg {
		return scrollMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return scrollTick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshStartedMsg:
		m.state = m.state.BeginRefresh()
	case refreshDoneMsg:
		m.state = m.state.CompleteRefresh(msg.items, msg.err)
		m.lastErr = msg.err
		if msg.err == nil {
			m.lastUpdate = time.Now()
		}
		if n := len(m.state.Items); n > 0 {
			m.offset %= n
		} else {
			m.offset = 0
		}
	case scrollMsg:
		if !m.state.Paused() && len(m.state.Items) > 0 {
			m.offset = (m.offset + 1) % len(m.state.Items)
		}
		return m, scrollTick()
	case tea.KeyMsg:
		if m.editing {
			return m.updateSearch(msg), nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case " ", "p":
			m.state = m.state.TogglePlay()
		case "left", "h":
			m.state = m.state.PrevPage()
		case "right", "l":
			m.state = m.state.NextPage()
		case "/":
			m.editing = true
			m.state = m.state.SetFocused(true)
		case "esc":
			m.state = m.state.ClearSearch()
		}
	}
	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) model {
	switch msg.Type {
	case tea.KeyEnter:
		m.editing = false
		m.state = m.state.SetFocused(false)
	case tea.KeyEsc:
		m.editing = false
		m.state = m.state.SetFocused(false).ClearSearch()
	case tea.KeyBackspace:
		runes := []rune(m.state.Search)
		if len(runes) > 0 {
			m.state = m.state.SetSearch(string(runes[:len(runes)-1]))
		}
	case tea.KeyCtrlC:
		m.editing = false
		m.state = m.state.SetFocused(false).ClearSearch()
	case tea.KeySpace:
		m.state = m.state.SetSearch(m.state.Search + " ")
	case tea.KeyRunes:
		m.state = m.state.SetSearch(m.state.Search + string(msg.Runes))
	}
	return m
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	status := "Live"
	if m.state.Phase == ticker.Loading {
		status = "Refreshing…"
	}
	fmt.Fprintf(&b, "\n Latest Updates  [%s]", status)
	if !m.lastUpdate.IsZero() {
		fmt.Fprintf(&b, "  (updated %s)", m.lastUpdate.Format("15:04:05"))
	}
	b.WriteString("\n\n")

	switch {
	case len(m.state.Items) == 0:
		b.WriteString("  No updates available right now.\n")
	case m.state.Searching():
		rows := m.state.Paginated()
		if len(rows) == 0 {
			b.WriteString("  No results found.\n")
		}
		for _, it := range rows {
			writeRow(&b, it)
		}
		if pages := m.state.TotalPages(); pages > 1 {
			fmt.Fprintf(&b, "\n  Page %d / %d\n", m.state.SafePage()+1, pages)
		}
	default:
		for _, it := range m.window() {
			writeRow(&b, it)
		}
	}

	cursor := ""
	if m.editing {
		cursor = "_"
	}
	fmt.Fprintf(&b, "\n Search: %s%s\n", m.state.Search, cursor)

	play := "pause"
	if !m.state.Playing {
		play = "play"
	}
	fmt.Fprintf(&b, " / search • ←/→ page • space %s • esc clear • q quit\n", play)
	return b.String()
}

// window is the slice of the looped scroll list currently visible.
func (m model) window() []models.TickerItem {
	scroll := m.state.ScrollItems()
	if len(scroll) == 0 {
		return nil
	}
	rows := min(visibleRows, len(scroll)/2)
	return scroll[m.offset : m.offset+rows]
}

func writeRow(b *strings.Builder, it models.TickerItem) {
	fmt.Fprintf(b, "  %s  %s\n", ticker.FormatDate(it.Date), ticker.DecodeTitle(it.Title))
}

// Run shows the ticker until the user quits. Items are refreshed from feed
// immediately and then every interval; the refresh loop stops on exit.
func Run(ctx context.Context, feed ticker.Feed, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(initialModel(nil), tea.WithAltScreen(), tea.WithContext(ctx))

	go ticker.NewRefresher(feed, interval).Run(ctx,
		func() { p.Send(refreshStartedMsg{}) },
		func(items []models.TickerItem, err error) { p.Send(refreshDoneMsg{items: items, err: err}) },
	)

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
