package syncer

import (
	"context"
	"fmt"

	"github.com/zulandar/depot/internal/models"
)

// ProjectResult holds the two tallies of a single-project sync.
type ProjectResult struct {
	Pipelines Tally `json:"pipelines"`
	Branches  Tally `json:"branches"`
}

// SyncProject refreshes pipelines and branches for exactly one project. The
// two fetches are attempted independently: a transport failure on one side
// is tallied and the other side still runs. A storage fault aborts the whole
// call — a half-updated project must not be recorded as a success.
func (s *Service) SyncProject(ctx context.Context, projectID int64) (*ProjectResult, error) {
	if s.remote == nil {
		return nil, fmt.Errorf("syncer: remote is not configured")
	}

	res := &ProjectResult{
		Pipelines: Tally{Errors: []string{}},
		Branches:  Tally{Errors: []string{}},
	}

	abort := func(err error) (*ProjectResult, error) {
		wrapped := fmt.Errorf("sync project %d: %w", projectID, err)
		if rerr := s.store.RecordSyncStatus(models.EntityProjectSync, &projectID, models.SyncFailed, wrapped.Error()); rerr != nil {
			s.logf("syncer: record failed status: %v", rerr)
		}
		return res, wrapped
	}

	pipelines, err := s.remote.ListProjectPipelines(ctx, projectID)
	if err != nil {
		res.Pipelines.Failed = 1
		res.Pipelines.Errors = append(res.Pipelines.Errors, err.Error())
	} else {
		if err := s.store.ReplacePipelines(pipelines, projectID); err != nil {
			return abort(err)
		}
		res.Pipelines.Succeeded = len(pipelines)
	}

	branches, err := s.remote.ListProjectBranches(ctx, projectID)
	if err != nil {
		res.Branches.Failed = 1
		res.Branches.Errors = append(res.Branches.Errors, err.Error())
	} else {
		if err := s.store.ReplaceBranches(branches, projectID); err != nil {
			return abort(err)
		}
		res.Branches.Succeeded = len(branches)
	}

	if err := s.store.RecordSyncStatus(models.EntityProjectSync, &projectID, models.SyncCompleted, ""); err != nil {
		return res, err
	}
	return res, nil
}
