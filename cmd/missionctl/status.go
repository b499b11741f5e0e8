package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nigel-dev/missionctl/cmd/missionctl/statusui"
)

// newStatusCmd launches the live bubbletea dashboard, grounded on the
// teacher's `flow status` TUI entry point.
func newStatusCmd(k *kernel) *cobra.Command {
	return &cobra.Command{
		Use:   "status-ui",
		Short: "Launch the live plan status dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := statusui.New(k.st.LoadPlan)
			p := tea.NewProgram(m)
			_, err := p.Run()
			return err
		},
	}
}
