package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ndaredline/internal/domain"
	"ndaredline/internal/service"
)

// StageMsg reports that the run entered a new stage.
type StageMsg struct{ Stage service.Stage }

// ClauseMsg reports a clause starting or finishing.
type ClauseMsg struct {
	Index    int
	Total    int
	Preview  string
	Finished bool
	Failed   bool
}

// DoneMsg ends the program.
type DoneMsg struct {
	OutputPath string
	Err        error
}

// Model is the Bubble Tea model for the analysis progress view. It reads no
// keys; the program ends when a DoneMsg arrives.
type Model struct {
	file     string
	stage    service.Stage
	spinner  spinner.Model
	bar      progress.Model
	total    int
	done     int
	failed   int
	current  string
	finished bool
	output   string
	err      error
}

// New creates a progress model for the given input file.
func New(file string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return Model{file: file, spinner: sp, bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))}
}

func (m Model) Init() tea.Cmd { return m.spinner.Tick }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StageMsg:
		m.stage = msg.Stage
		return m, nil
	case ClauseMsg:
		m.total = msg.Total
		if !msg.Finished {
			m.current = msg.Preview
			return m, nil
		}
		m.done++
		if msg.Failed {
			m.failed++
		}
		return m, nil
	case DoneMsg:
		m.finished = true
		m.output = msg.OutputPath
		m.err = msg.Err
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.bar.Width = min(60, max(10, msg.Width-20))
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Percent is the share of clauses that have finished.
func (m Model) Percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("NDA Redline") + " " + fileStyle.Render(m.file) + "\n")
	if m.finished {
		if m.err != nil {
			b.WriteString(errorStyle.Render("failed: "+m.err.Error()) + "\n")
		} else {
			b.WriteString(okStyle.Render(fmt.Sprintf("done: %d clauses, %d failed", m.total, m.failed)) + "\n")
		}
		return b.String()
	}
	b.WriteString(m.spinner.View() + " " + stageStyle.Render(m.stage.String()) + "\n")
	if m.total > 0 {
		b.WriteString(m.bar.ViewAs(m.Percent()))
		b.WriteString(fmt.Sprintf(" %d/%d", m.done, m.total))
		if m.failed > 0 {
			b.WriteString(errorStyle.Render(fmt.Sprintf(" (%d failed)", m.failed)))
		}
		b.WriteString("\n")
		if m.current != "" {
			b.WriteString(clauseStyle.Render(m.current) + "\n")
		}
	}
	return b.String()
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	fileStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	stageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	clauseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Sender is the part of *tea.Program a Reporter needs.
type Sender interface{ Send(msg tea.Msg) }

// Reporter forwards pipeline events to a running program.
type Reporter struct{ p Sender }

func NewReporter(p Sender) *Reporter { return &Reporter{p: p} }

func (r *Reporter) StageChanged(stage service.Stage) { r.p.Send(StageMsg{Stage: stage}) }

func (r *Reporter) ClauseStarted(index, total int, clause domain.Clause) {
	r.p.Send(ClauseMsg{Index: index, Total: total, Preview: clause.Preview(60)})
}

func (r *Reporter) ClauseFinished(index, total int, outcome domain.RedlineOutcome) {
	r.p.Send(ClauseMsg{Index: index, Total: total, Preview: outcome.Clause.Preview(60), Finished: true, Failed: outcome.Failed()})
}
