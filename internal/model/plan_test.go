package model

import "testing"

func TestIsValidPlanTransition(t *testing.T) {
	cases := []struct {
		from, to PlanStatus
		want     bool
	}{
		{PlanPending, PlanRunning, true},
		{PlanRunning, PlanPaused, true},
		{PlanPaused, PlanRunning, true},
		{PlanRunning, PlanCreatingPR, true},
		{PlanCreatingPR, PlanCompleted, true},
		{PlanCompleted, PlanRunning, false},
		{PlanCanceled, PlanRunning, false},
		{PlanPending, PlanCompleted, false},
	}
	for _, c := range cases {
		if got := IsValidPlanTransition(c.from, c.to); got != c.want {
			t.Errorf("IsValidPlanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsTerminalPlanStatus(t *testing.T) {
	for _, s := range []PlanStatus{PlanCompleted, PlanFailed, PlanCanceled} {
		if !IsTerminalPlanStatus(s) {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	if IsTerminalPlanStatus(PlanRunning) {
		t.Error("expected running not to be terminal")
	}
}

func TestPlan_JobByName(t *testing.T) {
	p := &Plan{Jobs: []*Job{{Name: "a"}, {Name: "b"}}}
	if j := p.JobByName("b"); j == nil || j.Name != "b" {
		t.Fatalf("JobByName(b) = %v, want job b", j)
	}
	if j := p.JobByName("missing"); j != nil {
		t.Fatalf("JobByName(missing) = %v, want nil", j)
	}
}

func TestPlan_Clone_Independence(t *testing.T) {
	p := &Plan{
		Name: "original",
		Jobs: []*Job{{Name: "a", Status: JobQueued}},
		CheckpointContext: &CheckpointContext{JobName: "a"},
	}
	cp := p.Clone()
	cp.Jobs[0].Status = JobRunning
	cp.CheckpointContext.JobName = "changed"

	if p.Jobs[0].Status != JobQueued {
		t.Errorf("cloning mutated the original job slice")
	}
	if p.CheckpointContext.JobName != "a" {
		t.Errorf("cloning mutated the original checkpoint context")
	}
}
