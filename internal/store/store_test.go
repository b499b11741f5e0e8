package store

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nigel-dev/missionctl/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	st, err := New(dir)
	require.NoError(t, err)
	return st
}

func samplePlan(id string) *model.Plan {
	return &model.Plan{
		ID:     id,
		Name:   "demo",
		Status: model.PlanRunning,
		Jobs: []*model.Job{
			{ID: "j1", Name: "setup", Status: model.JobQueued},
			{ID: "j2", Name: "build", Status: model.JobQueued, DependsOn: []string{"setup"}},
		},
	}
}

func TestStore_SaveLoadPlan_Roundtrip(t *testing.T) {
	st := newTestStore(t)

	loaded, err := st.LoadPlan()
	require.NoError(t, err)
	require.Nil(t, loaded, "expected no plan before any SavePlan")

	plan := samplePlan("plan-1")
	require.NoError(t, st.SavePlan(plan))

	loaded, err = st.LoadPlan()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, "plan-1", loaded.ID)
	require.Len(t, loaded.Jobs, 2)
}

func TestStore_SavePlan_RejectsSecondActivePlan(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.SavePlan(samplePlan("plan-1")))

	err := st.SavePlan(samplePlan("plan-2"))
	require.Error(t, err, "saving a second plan while one is active must fail")
}

func TestStore_ClearPlan_AllowsNewPlan(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.SavePlan(samplePlan("plan-1")))
	require.NoError(t, st.ClearPlan())

	loaded, err := st.LoadPlan()
	require.NoError(t, err)
	require.Nil(t, loaded)

	require.NoError(t, st.SavePlan(samplePlan("plan-2")))
}

func TestStore_ClearPlan_Idempotent(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.ClearPlan())
	require.NoError(t, st.ClearPlan())
}

func TestStore_UpdatePlanJob_ConcurrentNoLostUpdates(t *testing.T) {
	st := newTestStore(t)
	plan := samplePlan("plan-1")
	plan.Jobs = append(plan.Jobs, &model.Job{ID: "j3", Name: "test", Status: model.JobQueued})
	require.NoError(t, st.SavePlan(plan))

	var wg sync.WaitGroup
	names := []string{"setup", "build", "test"}
	for _, name := range names {
		wg.Add(1)
		go func(jobName string) {
			defer wg.Done()
			err := st.UpdatePlanJob(plan.ID, jobName, func(j *model.Job) {
				j.Status = model.JobRunning
			})
			require.NoError(t, err)
		}(name)
	}
	wg.Wait()

	loaded, err := st.LoadPlan()
	require.NoError(t, err)
	for _, j := range loaded.Jobs {
		require.Equal(t, model.JobRunning, j.Status, "job %s should have been updated", j.Name)
	}
}

func TestStore_UpdatePlanFields_PreservesJobs(t *testing.T) {
	st := newTestStore(t)
	plan := samplePlan("plan-1")
	require.NoError(t, st.SavePlan(plan))

	err := st.UpdatePlanFields(plan.ID, func(p *model.Plan) {
		p.Status = model.PlanPaused
		p.Jobs = nil // must be ignored: UpdatePlanFields restores the original Jobs
	})
	require.NoError(t, err)

	loaded, err := st.LoadPlan()
	require.NoError(t, err)
	require.Equal(t, model.PlanPaused, loaded.Status)
	require.Len(t, loaded.Jobs, 2)
}

func TestStore_LaunchedJobLifecycle(t *testing.T) {
	st := newTestStore(t)

	lj := &model.LaunchedJob{JobID: "j1", TmuxTarget: "mission:0"}
	require.NoError(t, st.AddJob(lj))

	running, err := st.GetRunningJobs()
	require.NoError(t, err)
	require.Len(t, running, 1)

	require.NoError(t, st.UpdateJob("j1", func(l *model.LaunchedJob) {
		l.TmuxTarget = "mission:1"
	}))

	got, err := st.GetJobByID("j1")
	require.NoError(t, err)
	require.Equal(t, "mission:1", got.TmuxTarget)

	require.NoError(t, st.RemoveJob("j1"))
	running, err = st.GetRunningJobs()
	require.NoError(t, err)
	require.Empty(t, running)
}

func TestStore_LoadPlan_CorruptFileIsDataIntegrityError(t *testing.T) {
	dir := t.TempDir()
	st, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(st.planPath(), []byte("{not json"), 0644))

	_, err = st.LoadPlan()
	require.Error(t, err)
}
