// Package ui renders interactive progress for the playgroundctl commands.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type doneMsg struct {
	details []string
	err     error
}

type model struct {
	title   string
	spinner spinner.Model
	cancel  context.CancelFunc
	done    bool
	details []string
	err     error
}

func newModel(title string, cancel context.CancelFunc) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle
	return model{title: title, spinner: s, cancel: cancel}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancel()
			if m.done {
				return m, tea.Quit
			}
		}
		return m, nil
	case doneMsg:
		m.done = true
		m.details = msg.details
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	if !m.done {
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), titleStyle.Render(m.title))
		b.WriteString(footerStyle.Render("q to cancel"))
		b.WriteString("\n")
		return b.String()
	}
	status := okStyle.Render("ok")
	if m.err != nil {
		status = errorStyle.Render("failed")
	}
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(m.title), status)
	for _, line := range m.details {
		b.WriteString(detailStyle.Render("  " + line))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("  " + m.err.Error()))
		b.WriteString("\n")
	}
	return b.String()
}

// Run executes fn behind a spinner and prints its details once it returns.
func Run(title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	program := tea.NewProgram(newModel(title, cancel))
	go func() {
		details, err := fn(ctx)
		program.Send(doneMsg{details: details, err: err})
	}()

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("run ui: %w", err)
	}
	m, ok := final.(model)
	if !ok || !m.done {
		return nil, context.Canceled
	}
	return m.details, m.err
}
