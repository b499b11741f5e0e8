package adapter

import "testing"

func TestNewCLIAgentLauncher_DefaultsBinaryToClaude(t *testing.T) {
	l := NewCLIAgentLauncher("")
	if l.Binary != "claude" {
		t.Fatalf("Binary = %q, want claude", l.Binary)
	}
}

func TestCLIAgentLauncher_LauncherCommand_WithModel(t *testing.T) {
	l := NewCLIAgentLauncher("claude")
	got := l.LauncherCommand("opus", "/tmp/prompt.md")
	want := "claude --model opus --prompt-file /tmp/prompt.md"
	if got != want {
		t.Fatalf("LauncherCommand = %q, want %q", got, want)
	}
}

func TestCLIAgentLauncher_LauncherCommand_NoModel(t *testing.T) {
	l := NewCLIAgentLauncher("opencode")
	got := l.LauncherCommand("", "/tmp/prompt.md")
	want := "opencode --prompt-file /tmp/prompt.md"
	if got != want {
		t.Fatalf("LauncherCommand = %q, want %q", got, want)
	}
}
