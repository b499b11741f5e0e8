package adapter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecGit is the default GitPorcelain, wrapping the `git` binary with
// exec.CommandContext the way the teacher's GitClientAdapter does
// (pkg/orchestration/git_client_adapter.go): always `-C <repo>`, stdout and
// stderr captured separately, exit code surfaced through the returned error.
type ExecGit struct{}

func NewExecGit() *ExecGit { return &ExecGit{} }

func (g *ExecGit) run(ctx context.Context, repo string, args ...string) (stdout, stderr string, err error) {
	full := append([]string{"-C", repo}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

func (g *ExecGit) RevParse(ctx context.Context, repo, rev string) (string, error) {
	out, stderr, err := g.run(ctx, repo, "rev-parse", rev)
	if err != nil {
		return "", fmt.Errorf("git rev-parse %s: %w: %s", rev, err, stderr)
	}
	return strings.TrimSpace(out), nil
}

func (g *ExecGit) Diff(ctx context.Context, repo, from, to string) ([]string, error) {
	out, stderr, err := g.run(ctx, repo, "diff", "--name-only", from, to)
	if err != nil {
		return nil, fmt.Errorf("git diff %s..%s: %w: %s", from, to, err, stderr)
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

func (g *ExecGit) Checkout(ctx context.Context, repo, ref string) error {
	_, stderr, err := g.run(ctx, repo, "checkout", ref)
	if err != nil {
		return fmt.Errorf("git checkout %s: %w: %s", ref, err, stderr)
	}
	return nil
}

func (g *ExecGit) Branch(ctx context.Context, repo, name, startPoint string) error {
	args := []string{"branch", name}
	if startPoint != "" {
		args = append(args, startPoint)
	}
	_, stderr, err := g.run(ctx, repo, args...)
	if err != nil {
		if verifyOut, _, verifyErr := g.run(ctx, repo, "rev-parse", "--verify", name); verifyErr == nil && verifyOut != "" {
			return nil
		}
		return fmt.Errorf("git branch %s: %w: %s", name, err, stderr)
	}
	return nil
}

func (g *ExecGit) WorktreeAdd(ctx context.Context, repo, path, branch string, createBranch bool) error {
	args := []string{"worktree", "add"}
	if createBranch {
		args = append(args, "-b", branch, path)
	} else {
		args = append(args, path, branch)
	}
	_, stderr, err := g.run(ctx, repo, args...)
	if err != nil {
		return fmt.Errorf("git worktree add %s: %w: %s", path, err, stderr)
	}
	return nil
}

func (g *ExecGit) WorktreeRemove(ctx context.Context, repo, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	_, stderr, err := g.run(ctx, repo, args...)
	if err != nil {
		return fmt.Errorf("git worktree remove %s: %w: %s", path, err, stderr)
	}
	return nil
}

func (g *ExecGit) Merge(ctx context.Context, repo string, args ...string) (string, error) {
	full := append([]string{"merge"}, args...)
	stdout, stderr, err := g.run(ctx, repo, full...)
	combined := stdout + stderr
	return combined, err
}

func (g *ExecGit) MergeAbort(ctx context.Context, repo string) error {
	_, _, _ = g.run(ctx, repo, "merge", "--abort")
	return nil
}

func (g *ExecGit) ResetHard(ctx context.Context, repo, ref string) error {
	_, stderr, err := g.run(ctx, repo, "reset", "--hard", ref)
	if err != nil {
		return fmt.Errorf("git reset --hard %s: %w: %s", ref, err, stderr)
	}
	return nil
}

func (g *ExecGit) CleanFD(ctx context.Context, repo string) error {
	_, stderr, err := g.run(ctx, repo, "clean", "-fd")
	if err != nil {
		return fmt.Errorf("git clean -fd: %w: %s", err, stderr)
	}
	return nil
}

func (g *ExecGit) Commit(ctx context.Context, repo, message string) error {
	_, stderr, err := g.run(ctx, repo, "commit", "-m", message)
	if err != nil {
		return fmt.Errorf("git commit: %w: %s", err, stderr)
	}
	return nil
}

func (g *ExecGit) Push(ctx context.Context, repo, remote, branch string) error {
	_, stderr, err := g.run(ctx, repo, "push", remote, branch)
	if err != nil {
		return fmt.Errorf("git push %s %s: %w: %s", remote, branch, err, stderr)
	}
	return nil
}

func (g *ExecGit) StatusPorcelain(ctx context.Context, repo string) (string, error) {
	out, stderr, err := g.run(ctx, repo, "status", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("git status --porcelain: %w: %s", err, stderr)
	}
	return out, nil
}
