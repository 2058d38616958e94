package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dabcheck/dabcheck/internal/report"
	"github.com/dabcheck/dabcheck/internal/types"
)

var (
	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	detailPaneBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	sevHighStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sevMedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sevLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

const helpText = "q: quit | j/k: navigate | i/enter: ignore call | c: copy | r: refresh | t: context"

// severityText returns plain text for severity (ANSI codes break table truncation).
func severityText(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "HIGH"
	case types.SevMed:
		return "MED"
	case types.SevLow:
		return "LOW"
	default:
		return string(s)
	}
}

// Session is the engine side the TUI reads findings from.
type Session interface {
	Findings(id string) []types.Finding
	RefreshAll() error
}

type boardChangedMsg struct{}

type statusMsg string

type refreshedMsg struct{ err error }

// Model represents the main state of the TUI application.
type Model struct {
	table    table.Model
	viewport viewport.Model
	board    *Board
	session  Session
	entries  []Entry
	findings map[string][]types.Finding // per source, as of the last reload
	prefs    Prefs
	width    int
	height   int
	ready    bool
	quitting bool
	status   string

	copyText  func(string) error
	savePrefs func(Prefs) error
}

// NewModel builds the findings browser over board.
func NewModel(board *Board, session Session, prefs Prefs) Model {
	columns := []table.Column{
		{Title: "Sev", Width: 6},
		{Title: "Location", Width: 36},
		{Title: "Call", Width: 22},
		{Title: "Defaults relied on", Width: 30},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1).
		Align(lipgloss.Left)
	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true).
		Padding(0, 1)
	s.Cell = lipgloss.NewStyle().
		Padding(0, 1)
	t.SetStyles(s)

	m := Model{
		table:     t,
		viewport:  viewport.New(80, 6),
		board:     board,
		session:   session,
		prefs:     prefs,
		status:    helpText,
		copyText:  clipboard.WriteAll,
		savePrefs: SavePrefs,
	}
	m.reload()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

// findingFor returns the finding a marker was placed for.
func (m *Model) findingFor(e Entry) (types.Finding, bool) {
	fs, ok := m.findings[e.Source]
	if !ok {
		fs = m.session.Findings(e.Source)
		if m.findings == nil {
			m.findings = map[string][]types.Finding{}
		}
		m.findings[e.Source] = fs
	}
	for _, f := range fs {
		if f.Start == e.Start && f.End == e.End {
			return f, true
		}
	}
	return types.Finding{}, false
}

func (m *Model) reload() {
	m.entries = m.board.Snapshot()
	m.findings = make(map[string][]types.Finding)
	for _, e := range m.entries {
		if _, ok := m.findings[e.Source]; !ok {
			m.findings[e.Source] = m.session.Findings(e.Source)
		}
	}
	rows := make([]table.Row, len(m.entries))
	for i, e := range m.entries {
		f, ok := m.findingFor(e)
		if !ok {
			rows[i] = table.Row{"", e.Source, "", ""}
			continue
		}
		rows[i] = table.Row{
			severityText(f.Severity),
			fmt.Sprintf("%s:%d", f.Path, f.Line),
			f.Key,
			strings.Join(f.Missing, ", "),
		}
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) || c < 0 {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
	m.updateViewportContent()
}

func (m *Model) selected() (Entry, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.entries) {
		return Entry{}, false
	}
	return m.entries[i], true
}

func (m *Model) updateViewportContent() {
	e, ok := m.selected()
	if !ok {
		m.viewport.SetContent("")
		return
	}
	var b strings.Builder
	b.WriteString(e.Tooltip)
	if f, ok := m.findingFor(e); ok {
		fmt.Fprintf(&b, "\n\n%s %s:%d:%d  %s %s",
			keyStyle.Render("at"), f.Path, f.Line, f.Column,
			keyStyle.Render("library"), f.Library)
		if m.prefs.ShowContext && f.Match != "" {
			b.WriteString("\n\n" + report.HighlightLine(f.Match, f.Path))
		}
	}
	m.viewport.SetContent(lipgloss.NewStyle().Width(max(m.viewport.Width-2, 20)).Render(b.String()))
}

func (m *Model) refresh() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return refreshedMsg{err: session.RefreshAll()}
	}
}

func (m *Model) dismissSelected() tea.Cmd {
	e, ok := m.selected()
	if !ok {
		return nil
	}
	name := e.Source
	if f, ok := m.findingFor(e); ok {
		name = f.Key
	}
	e.Dismiss()
	m.status = fmt.Sprintf("Ignoring %s for this session", name)
	m.reload()
	return m.refresh()
}

func (m *Model) copySelected() {
	e, ok := m.selected()
	if !ok {
		m.status = "No finding selected"
		return
	}
	if err := m.copyText(e.Tooltip); err != nil {
		m.status = fmt.Sprintf("Clipboard error: %v", err)
		return
	}
	m.status = "Copied tooltip"
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		tableHeight := max(msg.Height/2-2, 3)
		m.table.SetHeight(tableHeight)
		m.viewport.Width = max(msg.Width-2, 20)
		m.viewport.Height = max(msg.Height-tableHeight-8, 3)
		m.ready = true
		m.updateViewportContent()
		return m, nil
	case boardChangedMsg:
		m.reload()
		return m, nil
	case refreshedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Refresh error: %v", msg.err)
		}
		m.reload()
		return m, nil
	case statusMsg:
		m.status = string(msg)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "i", "enter":
			return m, m.dismissSelected()
		case "c":
			m.copySelected()
			return m, nil
		case "r":
			m.status = "Refreshing..."
			return m, m.refresh()
		case "t":
			m.prefs.ShowContext = !m.prefs.ShowContext
			if err := m.savePrefs(m.prefs); err != nil {
				m.status = fmt.Sprintf("Could not save preferences: %v", err)
			}
			m.updateViewportContent()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.updateViewportContent()
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	var high, med, low int
	for _, e := range m.entries {
		f, _ := m.findingFor(e)
		switch f.Severity {
		case types.SevHigh:
			high++
		case types.SevLow:
			low++
		default:
			med++
		}
	}
	var stats string
	if len(m.entries) == 0 {
		stats = okStyle.Render("[OK] No risky calls")
	} else {
		stats = fmt.Sprintf("Total: %-4d  |  %s %-4d  |  %s %-4d  |  %s %-4d",
			len(m.entries),
			sevHighStyle.Render("High:"), high,
			sevMedStyle.Render("Med:"), med,
			sevLowStyle.Render("Low:"), low)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("dabcheck")+"  "+stats,
		tableBorderStyle.Render(m.table.View()),
		detailPaneBorderStyle.Render(m.viewport.View()),
		statusStyle.Width(max(m.width, 1)).Render(m.status),
	)
}
