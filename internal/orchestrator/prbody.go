package orchestrator

import (
	"fmt"
	"strings"

	"github.com/nigel-dev/missionctl/internal/model"
)

// renderPRBody builds the markdown pull-request description summarizing
// every job in the plan (spec.md §4.5 step 8, §4.6).
func (o *Orchestrator) renderPRBody(plan *model.Plan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Automated integration of %d job(s) by missionctl.\n\n", len(plan.Jobs))
	b.WriteString("| Job | Status | Merged At |\n")
	b.WriteString("|---|---|---|\n")
	for _, j := range plan.Jobs {
		mergedAt := "-"
		if j.MergedAt != nil {
			mergedAt = j.MergedAt.Format("2006-01-02 15:04 MST")
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", j.Name, j.Status, mergedAt)
	}

	if o.cfg.TestCommand != "" {
		fmt.Fprintf(&b, "\n### Testing\n\nEach job's branch ran `%s` before being merged.\n", o.cfg.TestCommand)
	}

	fmt.Fprintf(&b, "\n---\nIntegration branch: `%s`\nBase commit: `%s`\n", plan.IntegrationBranch, plan.BaseCommit)
	return b.String()
}
