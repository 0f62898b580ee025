// Package tui provides an interactive terminal search view.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driving"
)

// searchK is how many results each interactive search retrieves.
const searchK = 10

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Model is the Bubble Tea model for the search view.
type Model struct {
	search   driving.SearchService
	input    textinput.Model
	viewport viewport.Model
	results  []domain.SearchResult
	status   string
	cursor   int
	ready    bool
}

// New creates the search view model.
func New(search driving.SearchService) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a query and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		search:   search,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Ready. Esc or ctrl-c quits.",
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + rh // header, status, input and result frames
		height := msg.Height - reserved
		if height < 3 {
			height = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = height
		m.viewport.SetContent(m.renderResults())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			m.runSearch()
			m.viewport.SetContent(m.renderResults())
			return m, nil

		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderResults())
				return m, nil
			}

		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderResults())
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the search view.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render("Folio Search")
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)

	return header + "\n" + results + "\n" + input + "\n" + status
}

// runSearch executes the current query and updates the result state.
func (m *Model) runSearch() {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return
	}

	resp, err := m.search.Search(context.Background(), query, searchK)
	if err != nil {
		m.status = errorStyle.Render("Error: " + err.Error())
		m.results = nil
		m.cursor = 0
		return
	}

	m.results = resp.Results
	m.cursor = 0
	switch {
	case resp.Note != "":
		m.status = resp.Note
	case len(resp.Results) == 0:
		m.status = fmt.Sprintf("No results for %q", query)
	default:
		m.status = fmt.Sprintf("%d results for %q", len(resp.Results), query)
	}
}

// renderResults renders the result list with the cursor highlighted.
func (m Model) renderResults() string {
	if len(m.results) == 0 {
		return "No results yet."
	}

	var b strings.Builder
	for i, r := range m.results {
		title := r.Title
		if title == "" {
			title = r.Filename
		}
		line := fmt.Sprintf("[%d] %s, p.%d (%.3f)", i+1, title, r.Page, r.Score)

		if i == m.cursor {
			b.WriteString(selectedStyle.Render(line))
			b.WriteString("\n")
			b.WriteString(sourceStyle.Render(r.Filename))
			b.WriteString("\n")
			b.WriteString(r.Snippet)
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
