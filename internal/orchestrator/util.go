package orchestrator

import (
	"context"
	"os/exec"
	"regexp"

	"github.com/nigel-dev/missionctl/internal/model"
)

var nameSanitizer = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// sanitizeName maps a job name to the [A-Za-z0-9_-] charset a branch name
// or tmux target can safely contain (spec.md §4.5: "sanitize name").
func sanitizeName(name string) string {
	return nameSanitizer.ReplaceAllString(name, "-")
}

// shortID truncates a uuid for use in filesystem paths without making them
// unreadably long.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func findJobByID(plan *model.Plan, id string) *model.Job {
	for _, j := range plan.Jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

func runSetupCommand(ctx context.Context, dir, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	return cmd.Run()
}
