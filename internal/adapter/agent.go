package adapter

import "fmt"

// CLIAgentLauncher is the only AgentLauncher the kernel ships: it names the
// shell command a launcher script runs, invoking the agent CLI configured
// in the environment (spec.md §6, §4.5: "write a launcher script that
// invokes the agent CLI with the configured model"). Which binary that is
// and how it authenticates is the external collaborator's concern, out of
// scope per spec.md §1 — this adapter only shapes the invocation line.
type CLIAgentLauncher struct {
	// Binary is the agent executable name, e.g. "claude" or "opencode".
	Binary string
}

func NewCLIAgentLauncher(binary string) *CLIAgentLauncher {
	if binary == "" {
		binary = "claude"
	}
	return &CLIAgentLauncher{Binary: binary}
}

func (a *CLIAgentLauncher) LauncherCommand(model, promptFile string) string {
	if model == "" {
		return fmt.Sprintf("%s --prompt-file %s", a.Binary, promptFile)
	}
	return fmt.Sprintf("%s --model %s --prompt-file %s", a.Binary, model, promptFile)
}
