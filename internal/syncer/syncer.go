// Package syncer implements the four-stage synchronization engine that
// mirrors the upstream GitLab hierarchy (groups, projects, pipelines,
// branches) into the local store.
package syncer

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/zulandar/depot/internal/models"
	"github.com/zulandar/depot/internal/store"
)

// DefaultWorkers bounds the fan-out within a single stage. Stages themselves
// are strictly sequential.
const DefaultWorkers = 4

// Remote is the narrow upstream contract the engine needs. *gitlab.Client
// satisfies it.
type Remote interface {
	ListRootGroups(ctx context.Context) ([]models.Group, error)
	ListSubgroups(ctx context.Context, groupID int64) ([]models.Group, error)
	ListGroupProjects(ctx context.Context, groupID int64) ([]models.Project, error)
	ListProjectPipelines(ctx context.Context, projectID int64) ([]models.Pipeline, error)
	ListProjectBranches(ctx context.Context, projectID int64) ([]models.Branch, error)
}

// Notifier receives the result of a completed full sync.
type Notifier interface {
	SyncCompleted(ctx context.Context, result *Result) error
}

// Tally counts per-stage outcomes. An item is counted only after its fetch
// and write both complete.
type Tally struct {
	Succeeded int      `json:"success"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// Result holds the four stage tallies of a full sync. It is returned to the
// caller even when the sync aborts, so operators can see exactly what was
// not mirrored and why.
type Result struct {
	Groups    Tally `json:"groups"`
	Projects  Tally `json:"projects"`
	Pipelines Tally `json:"pipelines"`
	Branches  Tally `json:"branches"`

	mu sync.Mutex
}

func newResult() *Result {
	return &Result{
		Groups:    Tally{Errors: []string{}},
		Projects:  Tally{Errors: []string{}},
		Pipelines: Tally{Errors: []string{}},
		Branches:  Tally{Errors: []string{}},
	}
}

// succeed adds n successes to a tally. Safe under concurrent workers.
func (r *Result) succeed(t *Tally, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.Succeeded += n
}

// fail records one failure with its error string. Safe under concurrent
// workers.
func (r *Result) fail(t *Tally, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.Failed++
	t.Errors = append(t.Errors, msg)
}

// Opts holds optional Service settings.
type Opts struct {
	Workers  int      // per-stage fan-out bound, DefaultWorkers when 0
	Notifier Notifier // optional sync-completion notifier
	Logf     func(format string, args ...interface{})
}

// Service orchestrates full and single-project syncs. It is the only writer
// of mirrored rows besides the cache gate's opportunistic backfill.
type Service struct {
	store    *store.Store
	remote   Remote
	workers  int
	notifier Notifier
	logf     func(format string, args ...interface{})
}

// New returns a sync Service over the given store and remote.
func New(st *store.Store, remote Remote, opts Opts) *Service {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logf := opts.Logf
	if logf == nil {
		logf = log.Printf
	}
	return &Service{
		store:    st,
		remote:   remote,
		workers:  workers,
		notifier: opts.Notifier,
		logf:     logf,
	}
}

// FullSync walks the whole remote hierarchy in four sequential stages and
// writes a terminal status record. Per-item failures within a stage are
// isolated and tallied; only a failure of a stage's top-level fetch or a
// storage fault outside the per-item loops aborts the sync. The partial
// tallies are returned even on abort.
func (s *Service) FullSync(ctx context.Context) (*Result, error) {
	if s.remote == nil {
		return nil, fmt.Errorf("syncer: remote is not configured")
	}

	res := newResult()
	if err := s.run(ctx, res); err != nil {
		if rerr := s.store.RecordSyncStatus(models.EntityFullSync, nil, models.SyncFailed, err.Error()); rerr != nil {
			s.logf("syncer: record failed status: %v", rerr)
		}
		return res, err
	}

	if err := s.store.RecordSyncStatus(models.EntityFullSync, nil, models.SyncCompleted, ""); err != nil {
		return res, err
	}

	if s.notifier != nil {
		if err := s.notifier.SyncCompleted(ctx, res); err != nil {
			s.logf("syncer: notify: %v", err)
		}
	}
	return res, nil
}

func (s *Service) run(ctx context.Context, res *Result) error {
	fetched, err := s.syncGroups(ctx, res)
	if err != nil {
		return err
	}
	if err := s.syncProjects(ctx, res, fetched); err != nil {
		return err
	}
	if err := s.syncPipelines(ctx, res); err != nil {
		return err
	}
	return s.syncBranches(ctx, res)
}

// syncGroups fetches and persists root groups, then fans out over them to
// fetch subgroups. It returns the set of group IDs fetched from upstream so
// the projects stage can report groups that never made it into the store.
// A failure of the root fetch or root upsert aborts the sync: with no root
// data, no later stage can be meaningful.
func (s *Service) syncGroups(ctx context.Context, res *Result) (map[int64]bool, error) {
	roots, err := s.remote.ListRootGroups(ctx)
	if err != nil {
		res.fail(&res.Groups, fmt.Sprintf("failed to sync groups: %v", err))
		return nil, fmt.Errorf("sync groups: %w", err)
	}
	if err := s.store.UpsertGroups(roots); err != nil {
		res.fail(&res.Groups, fmt.Sprintf("failed to sync groups: %v", err))
		return nil, fmt.Errorf("sync groups: %w", err)
	}
	res.succeed(&res.Groups, len(roots))

	fetched := make(map[int64]bool, len(roots))
	var fetchedMu sync.Mutex
	for _, g := range roots {
		fetched[g.ID] = true
	}

	s.fanOut(len(roots), func(i int) {
		root := roots[i]
		subs, err := s.remote.ListSubgroups(ctx, root.ID)
		if err != nil {
			res.fail(&res.Groups, fmt.Sprintf("failed to sync subgroups for group %d: %v", root.ID, err))
			return
		}
		if len(subs) == 0 {
			return
		}
		// Parent linkage is established here, not inferred from payload.
		for j := range subs {
			id := root.ID
			subs[j].ParentID = &id
		}
		if err := s.store.UpsertGroups(subs); err != nil {
			res.fail(&res.Groups, fmt.Sprintf("failed to sync subgroups for group %d: %v", root.ID, err))
			return
		}
		res.succeed(&res.Groups, len(subs))

		fetchedMu.Lock()
		for _, sub := range subs {
			fetched[sub.ID] = true
		}
		fetchedMu.Unlock()
	})

	return fetched, nil
}

// syncProjects rebuilds its group worklist from the store (roots plus each
// root's persisted subgroups) rather than carrying forward the in-memory
// stage-1 list, so the worklist reflects exactly what stage 1 made durable.
// Groups that were fetched but never persisted are reported as explicit
// failures instead of silently dropping out.
func (s *Service) syncProjects(ctx context.Context, res *Result, fetched map[int64]bool) error {
	roots, err := s.store.Groups(nil)
	if err != nil {
		res.fail(&res.Projects, fmt.Sprintf("failed to sync projects: %v", err))
		return fmt.Errorf("sync projects: %w", err)
	}

	groups := make([]models.Group, 0, len(roots))
	groups = append(groups, roots...)
	for _, root := range roots {
		subs, err := s.store.Groups(&root.ID)
		if err != nil {
			res.fail(&res.Projects, fmt.Sprintf("failed to sync projects: %v", err))
			return fmt.Errorf("sync projects: %w", err)
		}
		groups = append(groups, subs...)
	}

	persisted := make(map[int64]bool, len(groups))
	for _, g := range groups {
		persisted[g.ID] = true
	}
	var skipped []int64
	for id := range fetched {
		if !persisted[id] {
			skipped = append(skipped, id)
		}
	}
	sort.Slice(skipped, func(i, j int) bool { return skipped[i] < skipped[j] })
	for _, id := range skipped {
		res.fail(&res.Projects, fmt.Sprintf("group %d skipped: not present in local store", id))
	}

	s.fanOut(len(groups), func(i int) {
		g := groups[i]
		projects, err := s.remote.ListGroupProjects(ctx, g.ID)
		if err != nil {
			res.fail(&res.Projects, fmt.Sprintf("failed to sync projects for group %d: %v", g.ID, err))
			return
		}
		if err := s.store.UpsertProjects(projects, &g.ID); err != nil {
			res.fail(&res.Projects, fmt.Sprintf("failed to sync projects for group %d: %v", g.ID, err))
			return
		}
		res.succeed(&res.Projects, len(projects))
	})

	return nil
}

func (s *Service) syncPipelines(ctx context.Context, res *Result) error {
	projects, err := s.store.Projects(nil)
	if err != nil {
		res.fail(&res.Pipelines, fmt.Sprintf("failed to sync pipelines: %v", err))
		return fmt.Errorf("sync pipelines: %w", err)
	}

	s.fanOut(len(projects), func(i int) {
		p := projects[i]
		pipelines, err := s.remote.ListProjectPipelines(ctx, p.ID)
		if err != nil {
			res.fail(&res.Pipelines, fmt.Sprintf("failed to sync pipelines for project %d: %v", p.ID, err))
			return
		}
		if err := s.store.ReplacePipelines(pipelines, p.ID); err != nil {
			res.fail(&res.Pipelines, fmt.Sprintf("failed to sync pipelines for project %d: %v", p.ID, err))
			return
		}
		res.succeed(&res.Pipelines, len(pipelines))
	})

	return nil
}

func (s *Service) syncBranches(ctx context.Context, res *Result) error {
	projects, err := s.store.Projects(nil)
	if err != nil {
		res.fail(&res.Branches, fmt.Sprintf("failed to sync branches: %v", err))
		return fmt.Errorf("sync branches: %w", err)
	}

	s.fanOut(len(projects), func(i int) {
		p := projects[i]
		branches, err := s.remote.ListProjectBranches(ctx, p.ID)
		if err != nil {
			res.fail(&res.Branches, fmt.Sprintf("failed to sync branches for project %d: %v", p.ID, err))
			return
		}
		if err := s.store.ReplaceBranches(branches, p.ID); err != nil {
			res.fail(&res.Branches, fmt.Sprintf("failed to sync branches for project %d: %v", p.ID, err))
			return
		}
		res.succeed(&res.Branches, len(branches))
	})

	return nil
}

// fanOut runs fn(0..n-1) on a bounded worker pool and waits for all of them.
// One worker's failure never cancels its siblings.
func (s *Service) fanOut(n int, fn func(i int)) {
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}
