// Package ui renders verification progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"rtti/internal/verify"
)

// maxRows caps the constructor list; the rest is summarized in one line.
const maxRows = 16

type verifyModel struct {
	title   string
	events  <-chan verify.Event
	spinner spinner.Model
	prog    progress.Model
	rows    []ctorRow
	index   map[string]int
	stage   string
	failed  int
	width   int
	done    bool
}

type ctorRow struct {
	name   string
	status string
	stage  verify.Stage
}

type eventMsg verify.Event
type doneMsg struct{}

// NewVerifyModel returns a Bubble Tea model that renders per-constructor
// verification progress until events is closed.
func NewVerifyModel(title string, ctors []string, events <-chan verify.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	rows := make([]ctorRow, len(ctors))
	index := make(map[string]int, len(ctors))
	for i, name := range ctors {
		rows[i] = ctorRow{name: name, status: string(verify.StatusQueued)}
		index[name] = i
	}
	return &verifyModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		rows:    rows,
		index:   index,
		width:   80,
	}
}

func (m *verifyModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

func (m *verifyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.apply(verify.Event(msg))
		return m, tea.Batch(cmd, m.listen())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *verifyModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	header := m.title
	if m.stage != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stage)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")).Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-16, 20)
	shown := m.visibleRows()
	for _, i := range shown {
		row := m.rows[i]
		status := styleStatus(row.status).Render(fmt.Sprintf("%12s", row.status))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(row.name, nameWidth))
	}
	if hidden := len(m.rows) - len(shown); hidden > 0 {
		fmt.Fprintf(&b, "  %12s %d more\n", "", hidden)
	}
	if m.failed > 0 {
		b.WriteString(styleStatus("error").Render(fmt.Sprintf("  %d constructor(s) failed", m.failed)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

// visibleRows prefers rows that are in flight or failed, then fills up in
// declaration order.
func (m *verifyModel) visibleRows() []int {
	if len(m.rows) <= maxRows {
		out := make([]int, len(m.rows))
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, 0, maxRows)
	picked := make(map[int]bool, maxRows)
	for pass := 0; pass < 2 && len(out) < maxRows; pass++ {
		for i, row := range m.rows {
			if len(out) == maxRows {
				break
			}
			busy := row.status != string(verify.StatusQueued) && row.status != string(verify.StatusDone)
			if picked[i] || (pass == 0 && !busy) {
				continue
			}
			picked[i] = true
			out = append(out, i)
		}
	}
	return out
}

func (m *verifyModel) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *verifyModel) apply(ev verify.Event) tea.Cmd {
	label := statusLabel(ev.Stage, ev.Status)
	if ev.Ctor == "" {
		if label != "" {
			m.stage = label
		}
		return nil
	}
	idx, ok := m.index[ev.Ctor]
	if !ok || label == "" {
		return nil
	}
	if label == "error" && m.rows[idx].status != "error" {
		m.failed++
	}
	m.rows[idx].status = label
	m.rows[idx].stage = ev.Stage

	total := 0.0
	for _, row := range m.rows {
		if row.status == "done" || row.status == "error" {
			total++
		} else {
			total += progressFromStage(row.stage)
		}
	}
	return m.prog.SetPercent(total / float64(len(m.rows)))
}

func progressFromStage(stage verify.Stage) float64 {
	switch stage {
	case verify.StageOrder:
		return 0.2
	case verify.StageCollapse:
		return 0.6
	case verify.StageReify:
		return 0.7
	case verify.StageClassify:
		return 0.9
	default:
		return 0
	}
}

func statusLabel(stage verify.Stage, status verify.Status) string {
	switch status {
	case verify.StatusQueued:
		return "queued"
	case verify.StatusDone:
		return "done"
	case verify.StatusError:
		return "error"
	case verify.StatusWorking:
		return stageLabel(stage)
	default:
		return ""
	}
}

func stageLabel(stage verify.Stage) string {
	switch stage {
	case verify.StageSample:
		return "sampling"
	case verify.StageOrder:
		return "ordering"
	case verify.StageCollapse:
		return "collapsing"
	case verify.StageReify:
		return "reifying"
	case verify.StageClassify:
		return "classifying"
	default:
		return ""
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "queued":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
