package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"tsxload/internal/checkrun"
)

// maxRows caps the file list; the rest is summarised in one line.
const maxRows = 12

type progressModel struct {
	title    string
	events   <-chan checkrun.Event
	spinner  spinner.Model
	prog     progress.Model
	items    []fileItem
	index    map[string]int
	finished int
	failed   int
	width    int
	done     bool
	elapsed  time.Duration
}

type fileItem struct {
	path    string
	status  checkrun.Status
	stage   checkrun.Stage
	elapsed time.Duration
}

type eventMsg checkrun.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders check progress
// for files until events is closed.
func NewProgressModel(title string, files []string, events <-chan checkrun.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: checkrun.StatusQueued})
		index[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(checkrun.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
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
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s %d/%d", m.title, m.finished, len(m.items))
	if m.failed > 0 {
		header += fmt.Sprintf(", %d failed", m.failed)
	}
	if m.done {
		header = fmt.Sprintf("done: %s in %s", header, m.elapsed.Round(time.Millisecond))
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth = 10
	nameWidth := max(m.width-statusWidth-16, 20)

	for _, item := range m.visibleItems() {
		label := statusLabel(item.stage, item.status)
		status := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, label))
		line := "  " + status + " " + truncate(item.path, nameWidth)
		if item.elapsed > 0 {
			line += lipgloss.NewStyle().Faint(true).Render(" " + item.elapsed.Round(time.Millisecond).String())
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if hidden := len(m.items) - maxRows; hidden > 0 {
		fmt.Fprintf(&b, "  %*s %d more\n", statusWidth, "", hidden)
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

// visibleItems prefers files that are in flight or failed over the ones
// still queued or already passed.
func (m *progressModel) visibleItems() []fileItem {
	if len(m.items) <= maxRows {
		return m.items
	}
	out := make([]fileItem, 0, maxRows)
	for _, pass := range []func(fileItem) bool{
		func(it fileItem) bool { return it.status == checkrun.StatusError },
		func(it fileItem) bool { return it.status == checkrun.StatusWorking },
		func(it fileItem) bool { return it.status == checkrun.StatusQueued },
		func(it fileItem) bool { return it.status == checkrun.StatusDone },
	} {
		for _, it := range m.items {
			if len(out) == maxRows {
				return out
			}
			if pass(it) {
				out = append(out, it)
			}
		}
	}
	return out
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev checkrun.Event) tea.Cmd {
	if ev.File == "" {
		if ev.Status == checkrun.StatusDone || ev.Status == checkrun.StatusError {
			m.elapsed = ev.Elapsed
		}
		return nil
	}
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	wasFinal := isFinal(item.status)
	item.status = ev.Status
	item.stage = ev.Stage
	if ev.Elapsed > 0 {
		item.elapsed = ev.Elapsed
	}
	if !wasFinal && isFinal(ev.Status) {
		m.finished++
		if ev.Status == checkrun.StatusError {
			m.failed++
		}
	}

	total := 0.0
	for _, it := range m.items {
		total += itemProgress(it)
	}
	return m.prog.SetPercent(total / float64(len(m.items)))
}

func isFinal(s checkrun.Status) bool {
	return s == checkrun.StatusDone || s == checkrun.StatusError
}

func itemProgress(it fileItem) float64 {
	if isFinal(it.status) {
		return 1
	}
	if it.status != checkrun.StatusWorking {
		return 0
	}
	switch it.stage {
	case checkrun.StageResolve:
		return 0.1
	case checkrun.StageLoad:
		return 0.5
	default:
		return 0
	}
}

func statusLabel(stage checkrun.Stage, status checkrun.Status) string {
	switch status {
	case checkrun.StatusWorking:
		switch stage {
		case checkrun.StageResolve:
			return "resolving"
		case checkrun.StageLoad:
			return "loading"
		}
		return "working"
	case checkrun.StatusDone:
		return "ok"
	default:
		return string(status)
	}
}

func styleStatus(status checkrun.Status) lipgloss.Style {
	switch status {
	case checkrun.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case checkrun.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case checkrun.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
