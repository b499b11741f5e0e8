// Package statusui implements a read-mostly status dashboard for the
// active plan, grounded on the teacher's cmd/status_tui package (model.go's
// tea.Model shape, lipgloss header/table/footer layout, color theme
// choices) but scaled down to a read-only view: the teacher's job-tree,
// log-streaming, rename, and in-TUI job-creation modes are dropped since
// SPEC_FULL.md has no in-place plan-editing operation for a TUI to drive.
package statusui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/nigel-dev/missionctl/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	footerStyle = lipgloss.NewStyle().Faint(true).MarginTop(1)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// PlanLoader fetches the current snapshot of the active plan, backed by
// the state store's LoadPlan in production and a fake in tests.
type PlanLoader func() (*model.Plan, error)

// Model is the dashboard's bubbletea model.
type Model struct {
	load PlanLoader
	plan *model.Plan
	err  error

	table  table.Model
	width  int
	height int
}

type tickMsg time.Time

type planLoadedMsg struct {
	plan *model.Plan
	err  error
}

const refreshInterval = 2 * time.Second

// New constructs the dashboard model. load is called on every tick to
// refresh the plan snapshot. The color profile is detected up front
// (rather than hardcoded to termenv.TrueColor as the teacher's
// starship_provider.go does) so a dumb terminal or NO_COLOR session
// degrades gracefully instead of emitting raw escape codes.
func New(load PlanLoader) Model {
	lipgloss.SetColorProfile(termenv.EnvColorProfile())

	columns := []table.Column{
		{Title: "Order", Width: 5},
		{Title: "Job", Width: 24},
		{Title: "Status", Width: 14},
		{Title: "Branch", Width: 30},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	styles.Selected = styles.Selected.Bold(false).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return Model{load: load, table: t}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(loadPlanCmd(m.load), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func loadPlanCmd(load PlanLoader) tea.Cmd {
	return func() tea.Msg {
		plan, err := load()
		return planLoadedMsg{plan: plan, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(m.height - 6)
		return m, nil

	case tickMsg:
		return m, tea.Batch(loadPlanCmd(m.load), tick())

	case planLoadedMsg:
		m.plan = msg.plan
		m.err = msg.err
		m.table.SetRows(rowsFromPlan(msg.plan))
		return m, nil
	}
	return m, nil
}

func rowsFromPlan(plan *model.Plan) []table.Row {
	if plan == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(plan.Jobs))
	for _, j := range plan.Jobs {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", j.MergeOrder),
			j.Name,
			string(j.Status),
			j.Branch,
		})
	}
	return rows
}

func (m Model) View() string {
	if m.err != nil {
		return errStyle.Render(fmt.Sprintf("error loading plan: %v", m.err))
	}
	if m.plan == nil {
		return "no active plan\n\npress q to quit"
	}

	header := headerStyle.Render(fmt.Sprintf("Plan: %s  [%s/%s]", m.plan.Name, m.plan.Status, m.plan.Mode))
	if m.plan.Checkpoint != "" {
		header += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render(fmt.Sprintf("checkpoint: %s", m.plan.Checkpoint))
	}

	footer := footerStyle.Render("↑/↓ select · q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.table.View(), footer)
}
