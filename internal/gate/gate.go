// Package gate implements the per-request cache-or-fetch decision: serve
// from the local store when it has data, otherwise fall back to one live
// API call with an opportunistic write-back.
package gate

import (
	"context"
	"encoding/json"
	"log"

	"github.com/zulandar/depot/internal/config"
	"github.com/zulandar/depot/internal/models"
	"github.com/zulandar/depot/internal/store"
)

// Source tags where a response was served from.
type Source string

const (
	SourceDatabase    Source = "database"
	SourceAPILive     Source = "api_live"
	SourceAPIError    Source = "api_error"
	SourceAPIFallback Source = "api_fallback"
)

// ErrNotConfigured is returned when the store is empty for a request and no
// upstream client is configured to fall back to.
var ErrNotConfigured = config.ErrNotConfigured

// Client is the upstream contract the gate needs. *gitlab.Client satisfies
// it.
type Client interface {
	ListRootGroups(ctx context.Context) ([]models.Group, error)
	ListSubgroups(ctx context.Context, groupID int64) ([]models.Group, error)
	ListGroupProjects(ctx context.Context, groupID int64) ([]models.Project, error)
	GetProject(ctx context.Context, projectID int64) (*models.Project, error)
	ListProjectPipelines(ctx context.Context, projectID int64) ([]models.Pipeline, error)
	ListProjectBranches(ctx context.Context, projectID int64) ([]models.Branch, error)
	GetPipeline(ctx context.Context, projectID, pipelineID int64) (json.RawMessage, error)
	GetBranch(ctx context.Context, projectID int64, name string) (json.RawMessage, error)
}

// ClientFunc resolves the currently configured upstream client, or nil when
// no usable credentials exist. Resolution happens per request so credential
// changes take effect immediately.
type ClientFunc func() Client

// Gate answers read requests from the store first, falling back to the live
// API. Each result carries the Source it was served from.
type Gate struct {
	store  *store.Store
	client ClientFunc
	logf   func(format string, args ...interface{})
}

// New returns a Gate over the given store and client factory.
func New(st *store.Store, client ClientFunc) *Gate {
	return &Gate{store: st, client: client, logf: log.Printf}
}

// live resolves the upstream client, or ErrNotConfigured.
func (g *Gate) live() (Client, error) {
	if g.client == nil {
		return nil, ErrNotConfigured
	}
	c := g.client()
	if c == nil {
		return nil, ErrNotConfigured
	}
	return c, nil
}

// GroupsResult is a groups collection tagged with its source.
type GroupsResult struct {
	Source Source
	Groups []models.Group
}

// Groups serves root groups, or the direct subgroups of parentID when set.
// An empty store result is indistinguishable from "never synced", so empty
// always falls through to a live fetch.
func (g *Gate) Groups(ctx context.Context, parentID *int64) (*GroupsResult, error) {
	cached, err := g.store.Groups(parentID)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		return &GroupsResult{Source: SourceDatabase, Groups: cached}, nil
	}

	client, err := g.live()
	if err != nil {
		return nil, err
	}

	var live []models.Group
	if parentID == nil {
		live, err = client.ListRootGroups(ctx)
	} else {
		live, err = client.ListSubgroups(ctx, *parentID)
	}
	if err != nil {
		g.logf("gate: live groups fetch: %v", err)
		return &GroupsResult{Source: SourceAPIError, Groups: []models.Group{}}, nil
	}

	// Write-back is a pure optimization; a failure here never fails the read.
	toSave := live
	if parentID != nil {
		toSave = make([]models.Group, len(live))
		copy(toSave, live)
		for i := range toSave {
			id := *parentID
			toSave[i].ParentID = &id
		}
	}
	if err := g.store.UpsertGroups(toSave); err != nil {
		g.logf("gate: write-back groups: %v", err)
	}

	return &GroupsResult{Source: SourceAPILive, Groups: live}, nil
}

// ProjectsResult is a projects collection tagged with its source.
type ProjectsResult struct {
	Source   Source
	Projects []models.Project
}

// GroupProjects serves the projects owned by a group.
func (g *Gate) GroupProjects(ctx context.Context, groupID int64) (*ProjectsResult, error) {
	cached, err := g.store.Projects(&groupID)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		return &ProjectsResult{Source: SourceDatabase, Projects: cached}, nil
	}

	client, err := g.live()
	if err != nil {
		return nil, err
	}

	live, err := client.ListGroupProjects(ctx, groupID)
	if err != nil {
		g.logf("gate: live projects fetch for group %d: %v", groupID, err)
		return &ProjectsResult{Source: SourceAPIError, Projects: []models.Project{}}, nil
	}
	if err := g.store.UpsertProjects(live, &groupID); err != nil {
		g.logf("gate: write-back projects: %v", err)
	}

	return &ProjectsResult{Source: SourceAPILive, Projects: live}, nil
}

// SearchProjects matches projects in the store only; there is no live
// fallback for search.
func (g *Gate) SearchProjects(query string) (*ProjectsResult, error) {
	projects, err := g.store.SearchProjects(query)
	if err != nil {
		return nil, err
	}
	return &ProjectsResult{Source: SourceDatabase, Projects: projects}, nil
}

// PipelinesResult is a pipelines collection tagged with its source.
type PipelinesResult struct {
	Source    Source
	Pipelines []models.Pipeline
}

// Pipelines serves the pipelines of a project.
func (g *Gate) Pipelines(ctx context.Context, projectID int64) (*PipelinesResult, error) {
	cached, err := g.store.Pipelines(projectID)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		return &PipelinesResult{Source: SourceDatabase, Pipelines: cached}, nil
	}

	client, err := g.live()
	if err != nil {
		return nil, err
	}

	live, err := client.ListProjectPipelines(ctx, projectID)
	if err != nil {
		g.logf("gate: live pipelines fetch for project %d: %v", projectID, err)
		return &PipelinesResult{Source: SourceAPIError, Pipelines: []models.Pipeline{}}, nil
	}
	if err := g.store.ReplacePipelines(live, projectID); err != nil {
		g.logf("gate: write-back pipelines: %v", err)
	}

	return &PipelinesResult{Source: SourceAPILive, Pipelines: live}, nil
}

// BranchesResult is a branches collection tagged with its source.
type BranchesResult struct {
	Source   Source
	Branches []models.Branch
}

// Branches serves the branches of a project.
func (g *Gate) Branches(ctx context.Context, projectID int64) (*BranchesResult, error) {
	cached, err := g.store.Branches(projectID)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		return &BranchesResult{Source: SourceDatabase, Branches: cached}, nil
	}

	client, err := g.live()
	if err != nil {
		return nil, err
	}

	live, err := client.ListProjectBranches(ctx, projectID)
	if err != nil {
		g.logf("gate: live branches fetch for project %d: %v", projectID, err)
		return &BranchesResult{Source: SourceAPIError, Branches: []models.Branch{}}, nil
	}
	if err := g.store.ReplaceBranches(live, projectID); err != nil {
		g.logf("gate: write-back branches: %v", err)
	}

	return &BranchesResult{Source: SourceAPILive, Branches: live}, nil
}

// ProjectResult is one project's detail tagged with its source. Payload is
// the full-fidelity upstream document: the retained raw blob when present
// and valid, otherwise reassembled from the typed columns.
type ProjectResult struct {
	Source  Source
	Payload json.RawMessage
}

// Project serves one project's detail, preferring the stored raw payload.
func (g *Gate) Project(ctx context.Context, projectID int64) (*ProjectResult, error) {
	cached, err := g.store.ProjectByID(projectID)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		if cached.Raw != "" && json.Valid([]byte(cached.Raw)) {
			return &ProjectResult{Source: SourceDatabase, Payload: json.RawMessage(cached.Raw)}, nil
		}
		payload, err := json.Marshal(cached)
		if err != nil {
			return nil, err
		}
		return &ProjectResult{Source: SourceDatabase, Payload: payload}, nil
	}

	client, err := g.live()
	if err != nil {
		return nil, err
	}
	live, err := client.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &ProjectResult{Source: SourceAPIFallback, Payload: json.RawMessage(live.Raw)}, nil
}

// PipelineDetail fetches one pipeline's detail. Detail lookups have no cache
// layer and do propagate transport errors.
func (g *Gate) PipelineDetail(ctx context.Context, projectID, pipelineID int64) (json.RawMessage, error) {
	client, err := g.live()
	if err != nil {
		return nil, err
	}
	return client.GetPipeline(ctx, projectID, pipelineID)
}

// BranchDetail fetches one branch's detail. No cache layer; errors propagate.
func (g *Gate) BranchDetail(ctx context.Context, projectID int64, name string) (json.RawMessage, error) {
	client, err := g.live()
	if err != nil {
		return nil, err
	}
	return client.GetBranch(ctx, projectID, name)
}
