package adapter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GH is the default VCSClient, wrapping the `gh` CLI (spec.md §6: "exit
// code 0 prints the PR URL on stdout").
type GH struct{}

func NewGH() *GH { return &GH{} }

func (g *GH) CreatePR(ctx context.Context, repo string, req PRRequest) (string, error) {
	args := []string{
		"pr", "create",
		"--head", req.Head,
		"--base", req.Base,
		"--title", req.Title,
		"--body", req.Body,
	}
	cmd := exec.CommandContext(ctx, "gh", args...)
	cmd.Dir = repo
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("gh pr create: %w: %s", err, errBuf.String())
	}
	return strings.TrimSpace(out.String()), nil
}
