package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"semsearch/internal/domain"
)

const defaultTopK = 10

// boostLevels are the recency weights cycled by ctrl+b.
var boostLevels = []float64{0.3, 0.0, 0.7, 1.0}

// typeFilters are the document-type filters cycled by ctrl+t.
// The empty slice means no filter.
var typeFilters = [][]domain.DocumentType{
	nil,
	{domain.TypePDF},
	{domain.TypeMarkdown},
	{domain.TypeNote},
}

// SearchPort is the TUI-facing subset of the query service.
type SearchPort interface {
	Search(ctx context.Context, q domain.Query) ([]domain.ResultItem, error)
}

// Model is the Bubble Tea model for the interactive search screen.
type Model struct {
	service SearchPort

	input    textinput.Model
	viewport viewport.Model

	results   []domain.ResultItem
	cursor    int
	lastQuery string

	boostIdx  int
	filterIdx int

	status string
	ready  bool
}

// New creates a new TUI model instance.
func New(service SearchPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, input: ti, viewport: vp, status: "Ready. Type to search."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header, status, query frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResult())
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlB:
			m.boostIdx = (m.boostIdx + 1) % len(boostLevels)
			m.rerun()
			return m, nil
		case tea.KeyCtrlT:
			m.filterIdx = (m.filterIdx + 1) % len(typeFilters)
			m.rerun()
			return m, nil
		}
		switch msg.String() {
		case "enter":
			if q := strings.TrimSpace(m.input.Value()); q != "" {
				m.lastQuery = q
				m.rerun()
			}
			return m, nil
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// rerun issues the last query with the current boost and filter settings.
func (m *Model) rerun() {
	if m.lastQuery == "" {
		m.viewport.SetContent(m.renderResult())
		return
	}
	res, err := m.service.Search(context.Background(), domain.Query{
		Text:         m.lastQuery,
		TopK:         defaultTopK,
		Types:        typeFilters[m.filterIdx],
		RecencyBoost: boostLevels[m.boostIdx],
	})
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
	} else {
		m.status = fmt.Sprintf("Results for %q", m.lastQuery)
		m.results = res
		m.cursor = 0
	}
	m.viewport.SetContent(m.renderResult())
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("semsearch") + "  " + dimStyle.Render(m.settingsLine())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) settingsLine() string {
	filter := "all"
	if types := typeFilters[m.filterIdx]; len(types) > 0 {
		filter = string(types[0])
	}
	return fmt.Sprintf("boost=%.1f (ctrl+b)  type=%s (ctrl+t)", boostLevels[m.boostIdx], filter)
}

func (m Model) renderResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Result %d/%d  score=%.3f", m.cursor+1, len(m.results), r.Score)
	meta := dimStyle.Render(fmt.Sprintf("[%s] %s", r.Type, r.Source))
	return title + "\n" + meta + "\n\n" + highlightTerms(r.Text, m.lastQuery)
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
)

// highlightTerms emphasizes every word of the snippet that also appears
// in the query, case-insensitively.
func highlightTerms(text, query string) string {
	terms := make(map[string]struct{})
	for _, t := range wordRe.FindAllString(strings.ToLower(query), -1) {
		terms[t] = struct{}{}
	}
	if len(terms) == 0 {
		return text
	}
	return wordRe.ReplaceAllStringFunc(text, func(w string) string {
		if _, ok := terms[strings.ToLower(w)]; ok {
			return highlightStyle.Render(w)
		}
		return w
	})
}
