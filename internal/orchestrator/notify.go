package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/nigel-dev/missionctl/internal/mergetrain"
	"github.com/nigel-dev/missionctl/internal/model"
)

const notifyTimeout = 5 * time.Second

// notifyUser best-effort delivers message to sessionID, grounded on the
// teacher's callGroveHookWithSync fire-and-forget-with-timeout idiom
// (pkg/orchestration/hooks.go), mirrored by internal/notifier for Job
// Monitor events. Silently returns if chatHost is nil — the host chat
// surface is an optional external collaborator (spec.md §6).
func (o *Orchestrator) notifyUser(sessionID, message string) {
	if o.chatHost == nil || sessionID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := o.chatHost.SendMessage(ctx, sessionID, message); err != nil {
			o.log.Warn("plan notification failed", "session", sessionID, "error", err)
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		o.log.Warn("plan notification timed out", "session", sessionID)
	}
}

func (o *Orchestrator) notifyMergeResult(plan *model.Plan, job *model.Job, result *mergetrain.MergeResult) {
	msg := fmt.Sprintf("✅ %s merged into %s", job.Name, plan.IntegrationBranch)
	if result.TestReport.Status == "passed" {
		msg += fmt.Sprintf(" (tests passed: `%s`)", result.TestReport.Command)
	} else if result.TestReport.Status == "skipped" {
		msg += " (tests skipped: " + result.TestReport.Reason + ")"
	}
	o.notifyUser(plan.LaunchSessionID, msg)
}
