package model

import "path/filepath"

// Well-known filenames written inside a job's worktree by the launcher
// script and read back by the Job Monitor (spec.md §4.3, §4.5).
const (
	ReportFileName    = ".missionctl-report.json"
	ExitCodeFileName  = ".missionctl-exit-code"
	PromptFileName    = ".missionctl-prompt.md"
	LauncherFileName  = ".missionctl-launch.sh"
)

// ReportPath returns the agent report side-channel path inside worktreePath.
func ReportPath(worktreePath string) string {
	return filepath.Join(worktreePath, ReportFileName)
}

// ExitCodePath returns the path the launcher script writes its wrapped
// command's exit status to, consulted once the pane is no longer alive.
func ExitCodePath(worktreePath string) string {
	return filepath.Join(worktreePath, ExitCodeFileName)
}

// PromptPath returns the path the prompt file is written to.
func PromptPath(worktreePath string) string {
	return filepath.Join(worktreePath, PromptFileName)
}

// LauncherPath returns the path the launcher script is written to.
func LauncherPath(worktreePath string) string {
	return filepath.Join(worktreePath, LauncherFileName)
}
