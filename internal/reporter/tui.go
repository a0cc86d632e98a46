package reporter

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Jyzan/benchrun/internal/task"
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// TUI styles
var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pauseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

type tickMsg time.Time

// TUIModel is the Bubbletea model for the benchrun live display.
type TUIModel struct {
	getResults func() []*task.Result
	cancelRun  func() // called on 'q' to cancel the run context

	results      []*task.Result
	scrollOffset int
	paused       bool
	frame        int
	width        int
	height       int
	done         bool
}

// NewTUIModel creates a new TUI model.
func NewTUIModel(getResults func() []*task.Result, cancelRun func()) TUIModel {
	return TUIModel{
		getResults: getResults,
		cancelRun:  cancelRun,
	}
}

// Init implements tea.Model.
func (m TUIModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancelRun != nil {
				m.cancelRun()
			}
			m.done = true
			return m, tea.Quit

		case "p", " ":
			m.paused = !m.paused

		case "j", "down":
			m.scrollOffset++

		case "k", "up":
			if m.scrollOffset > 0 {
				m.scrollOffset--
			}

		case "g", "home":
			m.scrollOffset = 0
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.frame++
		if !m.paused {
			m.results = m.getResults()
		}
		return m, tickCmd()
	}

	return m, nil
}

// View implements tea.Model.
func (m TUIModel) View() string {
	if m.done {
		return ""
	}

	var failed, running, succeeded, queued []*task.Result
	for _, res := range m.results {
		switch res.Status {
		case task.StatusError, task.StatusTimeout:
			failed = append(failed, res)
		case task.StatusRunning:
			running = append(running, res)
		case task.StatusSuccess:
			succeeded = append(succeeded, res)
		default:
			queued = append(queued, res)
		}
	}

	spinner := spinnerChars[m.frame%len(spinnerChars)]
	width := m.width
	if width == 0 {
		width = 100
	}

	var b strings.Builder
	header := fmt.Sprintf("benchrun — %d tasks  |  %s done  %s running  %s failed  %s queued",
		len(m.results),
		doneStyle.Render(fmt.Sprintf("%d", len(succeeded))),
		runStyle.Render(fmt.Sprintf("%d", len(running))),
		failedStyle.Render(fmt.Sprintf("%d", len(failed))),
		dimStyle.Render(fmt.Sprintf("%d", len(queued))),
	)
	if m.paused {
		header += "  " + pauseStyle.Render("[paused]")
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")

	var rows []string
	for _, res := range failed {
		errMsg := res.Error
		if len(errMsg) > 60 {
			errMsg = errMsg[:60] + "..."
		}
		rows = append(rows, failedStyle.Render(fmt.Sprintf("  ✗ %-8s %-55s %s", res.Status, truncate(res.Question, 55), errMsg)))
	}
	for _, res := range running {
		elapsed := time.Since(res.StartedAt).Truncate(time.Second)
		rows = append(rows, runStyle.Render(fmt.Sprintf("  %s %-8s %-55s %s", spinner, "running", truncate(res.Question, 55), elapsed)))
	}
	for i := len(succeeded) - 1; i >= 0; i-- {
		res := succeeded[i]
		dur := time.Duration(res.Duration * float64(time.Second)).Truncate(time.Second)
		rows = append(rows, doneStyle.Render(fmt.Sprintf("  ✓ %-8s %-55s %s", "done", truncate(res.Question, 55), dur)))
	}
	for _, res := range queued {
		rows = append(rows, dimStyle.Render(fmt.Sprintf("  ─ %-8s %s", "queued", truncate(res.Question, 55))))
	}

	// viewport scrolling
	visible := m.height - 5
	if visible < 3 {
		visible = 20
	}
	offset := m.scrollOffset
	if offset > len(rows)-1 {
		offset = max(0, len(rows)-1)
	}
	end := offset + visible
	if end > len(rows) {
		end = len(rows)
	}
	for _, row := range rows[offset:end] {
		b.WriteString(row)
		b.WriteString("\n")
	}
	if end < len(rows) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", len(rows)-end)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  j/k scroll · p pause · q cancel run"))
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
