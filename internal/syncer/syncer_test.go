package syncer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/zulandar/depot/internal/db"
	"github.com/zulandar/depot/internal/models"
	"github.com/zulandar/depot/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open in-memory sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.New(gdb)
}

func int64p(v int64) *int64 { return &v }

// fakeRemote is a scriptable Remote. Unset functions return empty results.
type fakeRemote struct {
	rootGroups func() ([]models.Group, error)
	subgroups  func(groupID int64) ([]models.Group, error)
	projects   func(groupID int64) ([]models.Project, error)
	pipelines  func(projectID int64) ([]models.Pipeline, error)
	branches   func(projectID int64) ([]models.Branch, error)
}

func (f *fakeRemote) ListRootGroups(ctx context.Context) ([]models.Group, error) {
	if f.rootGroups == nil {
		return nil, nil
	}
	return f.rootGroups()
}

func (f *fakeRemote) ListSubgroups(ctx context.Context, groupID int64) ([]models.Group, error) {
	if f.subgroups == nil {
		return nil, nil
	}
	return f.subgroups(groupID)
}

func (f *fakeRemote) ListGroupProjects(ctx context.Context, groupID int64) ([]models.Project, error) {
	if f.projects == nil {
		return nil, nil
	}
	return f.projects(groupID)
}

func (f *fakeRemote) ListProjectPipelines(ctx context.Context, projectID int64) ([]models.Pipeline, error) {
	if f.pipelines == nil {
		return nil, nil
	}
	return f.pipelines(projectID)
}

func (f *fakeRemote) ListProjectBranches(ctx context.Context, projectID int64) ([]models.Branch, error) {
	if f.branches == nil {
		return nil, nil
	}
	return f.branches(projectID)
}

func quietOpts() Opts {
	return Opts{Logf: func(format string, args ...interface{}) {}}
}

// hierarchyRemote mirrors a small fixed hierarchy: two root groups, one
// subgroup under the first, one project per group, two pipelines and two
// branches per project.
func hierarchyRemote() *fakeRemote {
	return &fakeRemote{
		rootGroups: func() ([]models.Group, error) {
			return []models.Group{
				{ID: 1, Name: "platform"},
				{ID: 2, Name: "mobile"},
			}, nil
		},
		subgroups: func(groupID int64) ([]models.Group, error) {
			if groupID == 1 {
				return []models.Group{{ID: 3, Name: "backend"}}, nil
			}
			return nil, nil
		},
		projects: func(groupID int64) ([]models.Project, error) {
			return []models.Project{{ID: groupID * 10, Name: fmt.Sprintf("proj-%d", groupID)}}, nil
		},
		pipelines: func(projectID int64) ([]models.Pipeline, error) {
			return []models.Pipeline{
				{ID: projectID*100 + 1, Status: "success"},
				{ID: projectID*100 + 2, Status: "failed"},
			}, nil
		},
		branches: func(projectID int64) ([]models.Branch, error) {
			return []models.Branch{
				{Name: "main", Default: true},
				{Name: "develop"},
			}, nil
		},
	}
}

func TestFullSync_MirrorsWholeHierarchy(t *testing.T) {
	st := newTestStore(t)
	svc := New(st, hierarchyRemote(), quietOpts())

	res, err := svc.FullSync(context.Background())
	if err != nil {
		t.Fatalf("FullSync: %v", err)
	}

	if res.Groups.Succeeded != 3 || res.Groups.Failed != 0 {
		t.Errorf("Groups tally = %+v, want 3 succeeded", res.Groups)
	}
	if res.Projects.Succeeded != 3 || res.Projects.Failed != 0 {
		t.Errorf("Projects tally = %+v, want 3 succeeded", res.Projects)
	}
	if res.Pipelines.Succeeded != 6 {
		t.Errorf("Pipelines tally = %+v, want 6 succeeded", res.Pipelines)
	}
	if res.Branches.Succeeded != 6 {
		t.Errorf("Branches tally = %+v, want 6 succeeded", res.Branches)
	}

	subs, err := st.Groups(int64p(1))
	if err != nil {
		t.Fatalf("Groups(1): %v", err)
	}
	if len(subs) != 1 || subs[0].ID != 3 {
		t.Errorf("subgroup linkage: got %+v, want group 3 under group 1", subs)
	}

	status, err := st.ReadSyncStatus(models.EntityFullSync, nil)
	if err != nil {
		t.Fatalf("ReadSyncStatus: %v", err)
	}
	if status == nil || status.Status != models.SyncCompleted {
		t.Errorf("terminal status = %+v, want completed", status)
	}
}

func TestFullSync_Idempotent(t *testing.T) {
	st := newTestStore(t)
	svc := New(st, hierarchyRemote(), quietOpts())

	first, err := svc.FullSync(context.Background())
	if err != nil {
		t.Fatalf("first FullSync: %v", err)
	}
	second, err := svc.FullSync(context.Background())
	if err != nil {
		t.Fatalf("second FullSync: %v", err)
	}

	if first.Groups.Succeeded != second.Groups.Succeeded ||
		first.Projects.Succeeded != second.Projects.Succeeded ||
		first.Pipelines.Succeeded != second.Pipelines.Succeeded ||
		first.Branches.Succeeded != second.Branches.Succeeded {
		t.Errorf("tallies changed between identical runs: %+v vs %+v", first, second)
	}

	groups, _ := st.Groups(nil)
	if len(groups) != 2 {
		t.Errorf("root groups after two runs = %d, want 2 (no duplicates)", len(groups))
	}
	pipelines, _ := st.Pipelines(10)
	if len(pipelines) != 2 {
		t.Errorf("pipelines after two runs = %d, want 2 (replaced, not appended)", len(pipelines))
	}
}

func TestFullSync_SubgroupFailureIsIsolated(t *testing.T) {
	st := newTestStore(t)

	remote := &fakeRemote{
		rootGroups: func() ([]models.Group, error) {
			groups := make([]models.Group, 5)
			for i := range groups {
				groups[i] = models.Group{ID: int64(i + 1), Name: fmt.Sprintf("group-%d", i+1)}
			}
			return groups, nil
		},
		subgroups: func(groupID int64) ([]models.Group, error) {
			if groupID == 3 {
				return nil, fmt.Errorf("boom")
			}
			return nil, nil
		},
	}

	svc := New(st, remote, quietOpts())
	res, err := svc.FullSync(context.Background())
	if err != nil {
		t.Fatalf("FullSync should not abort on one subgroup failure: %v", err)
	}

	if res.Groups.Succeeded != 5 {
		t.Errorf("Groups.Succeeded = %d, want all 5 roots", res.Groups.Succeeded)
	}
	if res.Groups.Failed != 1 {
		t.Errorf("Groups.Failed = %d, want 1", res.Groups.Failed)
	}
	found := false
	for _, msg := range res.Groups.Errors {
		if strings.Contains(msg, "subgroups for group 3") {
			found = true
		}
	}
	if !found {
		t.Errorf("error list does not name group 3: %v", res.Groups.Errors)
	}

	status, _ := st.ReadSyncStatus(models.EntityFullSync, nil)
	if status == nil || status.Status != models.SyncCompleted {
		t.Errorf("per-item failures should still complete the sync, status = %+v", status)
	}
}

func TestFullSync_RootFetchFailureAborts(t *testing.T) {
	st := newTestStore(t)

	remote := &fakeRemote{
		rootGroups: func() ([]models.Group, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}

	svc := New(st, remote, quietOpts())
	res, err := svc.FullSync(context.Background())
	if err == nil {
		t.Fatal("FullSync should abort when the root fetch fails")
	}
	if res == nil {
		t.Fatal("tallies should be returned even on abort")
	}
	if res.Groups.Succeeded != 0 {
		t.Errorf("Groups.Succeeded = %d, want 0", res.Groups.Succeeded)
	}

	status, _ := st.ReadSyncStatus(models.EntityFullSync, nil)
	if status == nil || status.Status != models.SyncFailed {
		t.Errorf("terminal status = %+v, want failed", status)
	}
	if status != nil && status.ErrorMessage == "" {
		t.Errorf("failed status has no error message")
	}
}

func TestFullSync_ProjectFetchFailureIsIsolated(t *testing.T) {
	st := newTestStore(t)

	remote := hierarchyRemote()
	remote.projects = func(groupID int64) ([]models.Project, error) {
		if groupID == 2 {
			return nil, fmt.Errorf("timeout")
		}
		return []models.Project{{ID: groupID * 10, Name: fmt.Sprintf("proj-%d", groupID)}}, nil
	}

	svc := New(st, remote, quietOpts())
	res, err := svc.FullSync(context.Background())
	if err != nil {
		t.Fatalf("FullSync: %v", err)
	}

	if res.Projects.Succeeded != 2 || res.Projects.Failed != 1 {
		t.Errorf("Projects tally = %+v, want 2 succeeded / 1 failed", res.Projects)
	}
	// Later stages still run over the projects that did land.
	if res.Pipelines.Succeeded != 4 {
		t.Errorf("Pipelines.Succeeded = %d, want 4", res.Pipelines.Succeeded)
	}
}

func TestFullSync_NilRemote(t *testing.T) {
	st := newTestStore(t)
	svc := New(st, nil, quietOpts())

	if _, err := svc.FullSync(context.Background()); err == nil {
		t.Fatal("FullSync with nil remote should fail")
	}
}

// recordingNotifier captures the result passed to SyncCompleted.
type recordingNotifier struct {
	called bool
	result *Result
}

func (n *recordingNotifier) SyncCompleted(ctx context.Context, res *Result) error {
	n.called = true
	n.result = res
	return nil
}

func TestFullSync_NotifiesOnCompletion(t *testing.T) {
	st := newTestStore(t)
	notifier := &recordingNotifier{}

	opts := quietOpts()
	opts.Notifier = notifier
	svc := New(st, hierarchyRemote(), opts)

	if _, err := svc.FullSync(context.Background()); err != nil {
		t.Fatalf("FullSync: %v", err)
	}
	if !notifier.called {
		t.Fatal("notifier was not called")
	}
	if notifier.result.Groups.Succeeded != 3 {
		t.Errorf("notifier got tally %+v", notifier.result.Groups)
	}
}

func TestSyncProject_RefreshesBothSides(t *testing.T) {
	st := newTestStore(t)
	svc := New(st, hierarchyRemote(), quietOpts())

	res, err := svc.SyncProject(context.Background(), 10)
	if err != nil {
		t.Fatalf("SyncProject: %v", err)
	}
	if res.Pipelines.Succeeded != 2 || res.Branches.Succeeded != 2 {
		t.Errorf("result = %+v, want 2 pipelines and 2 branches", res)
	}

	status, _ := st.ReadSyncStatus(models.EntityProjectSync, int64p(10))
	if status == nil || status.Status != models.SyncCompleted {
		t.Errorf("project status = %+v, want completed", status)
	}
}

func TestSyncProject_OneSideFailureContinues(t *testing.T) {
	st := newTestStore(t)

	remote := hierarchyRemote()
	remote.pipelines = func(projectID int64) ([]models.Pipeline, error) {
		return nil, fmt.Errorf("pipelines endpoint down")
	}

	svc := New(st, remote, quietOpts())
	res, err := svc.SyncProject(context.Background(), 10)
	if err != nil {
		t.Fatalf("one-side transport failure should not fail the call: %v", err)
	}

	if res.Pipelines.Failed != 1 || len(res.Pipelines.Errors) != 1 {
		t.Errorf("Pipelines tally = %+v, want 1 failure", res.Pipelines)
	}
	if res.Branches.Succeeded != 2 {
		t.Errorf("Branches tally = %+v, branches should still sync", res.Branches)
	}

	branches, _ := st.Branches(10)
	if len(branches) != 2 {
		t.Errorf("branches persisted = %d, want 2", len(branches))
	}
}

func TestStatus_NeverSynced(t *testing.T) {
	st := newTestStore(t)
	svc := New(st, nil, quietOpts())

	report, err := svc.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.State != StateNever {
		t.Errorf("State = %q, want %q", report.State, StateNever)
	}
	if report.LastFullSync != nil {
		t.Errorf("LastFullSync = %v, want nil", report.LastFullSync)
	}
	if report.Stats == nil {
		t.Fatal("Stats missing from report")
	}
}

func TestStatus_AfterFailedSync(t *testing.T) {
	st := newTestStore(t)

	remote := &fakeRemote{
		rootGroups: func() ([]models.Group, error) { return nil, fmt.Errorf("unreachable") },
	}
	svc := New(st, remote, quietOpts())
	svc.FullSync(context.Background())

	report, err := svc.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.State != models.SyncFailed {
		t.Errorf("State = %q, want failed", report.State)
	}
	if report.ErrorMessage == "" {
		t.Errorf("ErrorMessage empty after failed sync")
	}
}
