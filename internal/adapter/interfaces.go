// Package adapter defines the narrow external-collaborator contracts
// (spec.md §6): the terminal multiplexer, the git porcelain, the VCS CLI,
// the agent launcher, and the host chat surface. The multiplexer and
// git/VCS adapters ship a default exec.CommandContext-backed implementation,
// and AgentLauncher ships CLIAgentLauncher, which only formats the agent's
// command line. ChatHost is out of scope per spec.md §1 and exists here
// only as an interface plus an in-memory fake.
package adapter

import (
	"context"
	"time"
)

// Multiplexer is the terminal-multiplexer contract a LaunchedJob is
// supervised through (spec.md §6).
type Multiplexer interface {
	// NewSession creates a standalone session named name, running command
	// as its initial command inside workDir, and returns the pane target.
	NewSession(ctx context.Context, name, workDir, command string) (target string, err error)
	// NewWindow creates a window inside the current session, running
	// command as its initial command inside workDir.
	NewWindow(ctx context.Context, sessionName, windowName, workDir, command string) (target string, err error)
	// SendKeys types literal into the target pane followed by Enter.
	SendKeys(ctx context.Context, target, literal string) error
	// CapturePane returns the visible tail of the target pane.
	CapturePane(ctx context.Context, target string) (string, error)
	// Alive reports whether target still refers to a live pane.
	Alive(ctx context.Context, target string) bool
	// SetPaneDiedHook installs a hook that runs command when target's pane
	// process exits.
	SetPaneDiedHook(ctx context.Context, target, command string) error
	// Kill destroys the session or window backing target.
	Kill(ctx context.Context, target string) error
	// InTmux reports whether the current process is itself inside a
	// multiplexer session (required for window placement, spec.md §7).
	InTmux() bool
	// CurrentSession returns the name of the session the current process is
	// attached to, used when placing a new job as a window "inside the
	// current session" (spec.md §4.5).
	CurrentSession(ctx context.Context) (string, error)
}

// GitPorcelain is the subset of git plumbing/porcelain the kernel calls
// (spec.md §6).
type GitPorcelain interface {
	RevParse(ctx context.Context, repo, rev string) (string, error)
	Diff(ctx context.Context, repo, from, to string) ([]string, error)
	Checkout(ctx context.Context, repo, ref string) error
	Branch(ctx context.Context, repo, name, startPoint string) error
	WorktreeAdd(ctx context.Context, repo, path, branch string, createBranch bool) error
	WorktreeRemove(ctx context.Context, repo, path string, force bool) error
	Merge(ctx context.Context, repo string, args ...string) (combinedOutput string, err error)
	MergeAbort(ctx context.Context, repo string) error
	ResetHard(ctx context.Context, repo, ref string) error
	CleanFD(ctx context.Context, repo string) error
	Commit(ctx context.Context, repo, message string) error
	Push(ctx context.Context, repo, remote, branch string) error
	StatusPorcelain(ctx context.Context, repo string) (string, error)
}

// VCSClient creates a pull request via an external CLI (spec.md §6).
type VCSClient interface {
	CreatePR(ctx context.Context, repo string, req PRRequest) (url string, err error)
}

// PRRequest is the input to CreatePR.
type PRRequest struct {
	Head  string
	Base  string
	Title string
	Body  string
}

// AgentLauncher starts the AI-agent process itself — out of scope per
// spec.md §1; the kernel only ever invokes it indirectly via a launcher
// script handed to the Multiplexer.
type AgentLauncher interface {
	// LauncherCommand returns the shell command that, when run inside the
	// job's worktree, starts the agent against promptFile with model.
	LauncherCommand(model, promptFile string) string
}

// ChatHost is the narrow slice of the host chat plugin surface the
// Notifier depends on (spec.md §6, §4.6): send a message, update a title,
// show a toast. Out of scope to implement for real; only an in-memory fake
// ships here.
type ChatHost interface {
	SendMessage(ctx context.Context, sessionID, message string) error
	UpdateSessionTitle(ctx context.Context, sessionID, title string) error
	ShowToast(ctx context.Context, sessionID, kind, message string) error
	SessionTitle(ctx context.Context, sessionID string) (string, error)
	IsSubagentSession(sessionID string) bool
}

// Clock is injected so tests can control timestamps without the forbidden
// global time.Now() inside workflow code that must stay deterministic.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock is the production Clock.
var RealClock Clock = realClock{}
