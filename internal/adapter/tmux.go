package adapter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Tmux is the default Multiplexer, wrapping the `tmux` binary with
// exec.CommandContext the way the teacher's interactive agent executor
// drives tmux (pkg/orchestration/interactive_agent_executor.go): session
// creation with an initial command, `send-keys`, `capture-pane`, a
// pane-died hook, and session/window teardown.
type Tmux struct{}

func NewTmux() *Tmux { return &Tmux{} }

func (t *Tmux) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("tmux %s: %w: %s", strings.Join(args, " "), err, errBuf.String())
	}
	return out.String(), nil
}

func (t *Tmux) NewSession(ctx context.Context, name, workDir, command string) (string, error) {
	if _, err := t.run(ctx, "new-session", "-d", "-s", name, "-c", workDir); err != nil {
		return "", err
	}
	target := name
	if command != "" {
		if err := t.SendKeys(ctx, target, command); err != nil {
			return "", err
		}
	}
	return target, nil
}

func (t *Tmux) NewWindow(ctx context.Context, sessionName, windowName, workDir, command string) (string, error) {
	if _, err := t.run(ctx, "new-window", "-t", sessionName, "-n", windowName, "-c", workDir); err != nil {
		return "", err
	}
	target := fmt.Sprintf("%s:%s", sessionName, windowName)
	if command != "" {
		if err := t.SendKeys(ctx, target, command); err != nil {
			return "", err
		}
	}
	return target, nil
}

func (t *Tmux) SendKeys(ctx context.Context, target, literal string) error {
	_, err := t.run(ctx, "send-keys", "-t", target, literal, "C-m")
	return err
}

func (t *Tmux) CapturePane(ctx context.Context, target string) (string, error) {
	return t.run(ctx, "capture-pane", "-t", target, "-p")
}

func (t *Tmux) Alive(ctx context.Context, target string) bool {
	_, err := t.run(ctx, "has-session", "-t", target)
	if err == nil {
		return true
	}
	_, err = t.run(ctx, "display-message", "-t", target, "-p", "#{window_id}")
	return err == nil
}

func (t *Tmux) SetPaneDiedHook(ctx context.Context, target, command string) error {
	_, err := t.run(ctx, "set-hook", "-t", target, "pane-died", command)
	return err
}

func (t *Tmux) Kill(ctx context.Context, target string) error {
	if strings.Contains(target, ":") {
		_, err := t.run(ctx, "kill-window", "-t", target)
		return err
	}
	_, err := t.run(ctx, "kill-session", "-t", target)
	return err
}

// InTmux reports whether the current process is itself attached to a tmux
// client session, which is what window placement requires (spec.md §7:
// "not inside multiplexer for window placement" is an Environment error).
func (t *Tmux) InTmux() bool {
	return os.Getenv("TMUX") != ""
}

func (t *Tmux) CurrentSession(ctx context.Context) (string, error) {
	out, err := t.run(ctx, "display-message", "-p", "#S")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
