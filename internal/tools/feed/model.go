package feed

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxLines = 500

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

type lineMsg string

type streamEndedMsg struct{ err error }

type model struct {
	title    string
	lines    []string
	viewport viewport.Model
	ready    bool
	err      error
	ended    bool
}

func newModel(title string) model {
	return model{title: title}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		height := msg.Height - 2
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.refresh()
		return m, nil
	case lineMsg:
		m.lines = append(m.lines, string(msg))
		if len(m.lines) > maxLines {
			m.lines = m.lines[len(m.lines)-maxLines:]
		}
		m.refresh()
		return m, nil
	case streamEndedMsg:
		m.ended = true
		m.err = msg.err
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) refresh() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m model) View() string {
	header := headerStyle.Render(m.title)
	footer := footerStyle.Render("q to quit, arrows to scroll")
	switch {
	case m.err != nil:
		footer = errorStyle.Render("stream error: " + m.err.Error())
	case m.ended:
		footer = footerStyle.Render("stream closed, q to quit")
	}
	if !m.ready {
		return header + "\n" + footer + "\n"
	}
	return header + "\n" + m.viewport.View() + "\n" + footer
}
