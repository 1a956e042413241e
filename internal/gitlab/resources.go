package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/zulandar/depot/internal/models"
)

// Wire shapes for the fields we model as typed columns. Everything else
// survives in the raw payload retained on each model.

type groupPayload struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Path        string `json:"path"`
	FullPath    string `json:"full_path"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
	AvatarURL   string `json:"avatar_url"`
	WebURL      string `json:"web_url"`
	ParentID    *int64 `json:"parent_id"`
}

type projectPayload struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	NameWithNamespace string `json:"name_with_namespace"`
	Path              string `json:"path"`
	PathWithNamespace string `json:"path_with_namespace"`
	Description       string `json:"description"`
	DefaultBranch     string `json:"default_branch"`
	Visibility        string `json:"visibility"`
	AvatarURL         string `json:"avatar_url"`
	WebURL            string `json:"web_url"`
	HTTPURLToRepo     string `json:"http_url_to_repo"`
	SSHURLToRepo      string `json:"ssh_url_to_repo"`
	Namespace         struct {
		ID   int64  `json:"id"`
		Kind string `json:"kind"`
	} `json:"namespace"`
}

type pipelinePayload struct {
	ID         int64      `json:"id"`
	Status     string     `json:"status"`
	Ref        string     `json:"ref"`
	SHA        string     `json:"sha"`
	Tag        bool       `json:"tag"`
	Source     string     `json:"source"`
	WebURL     string     `json:"web_url"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Duration   *int       `json:"duration"`
}

type branchPayload struct {
	Name               string `json:"name"`
	Merged             bool   `json:"merged"`
	Protected          bool   `json:"protected"`
	Default            bool   `json:"default"`
	DevelopersCanPush  bool   `json:"developers_can_push"`
	DevelopersCanMerge bool   `json:"developers_can_merge"`
	CanPush            bool   `json:"can_push"`
	WebURL             string `json:"web_url"`
	Commit             struct {
		ID             string     `json:"id"`
		ShortID        string     `json:"short_id"`
		Title          string     `json:"title"`
		AuthorName     string     `json:"author_name"`
		AuthorEmail    string     `json:"author_email"`
		AuthoredDate   *time.Time `json:"authored_date"`
		CommitterName  string     `json:"committer_name"`
		CommitterEmail string     `json:"committer_email"`
		CommittedDate  *time.Time `json:"committed_date"`
		Message        string     `json:"message"`
	} `json:"commit"`
}

func decodeGroup(raw json.RawMessage) (models.Group, error) {
	var p groupPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Group{}, fmt.Errorf("gitlab: decode group: %w", err)
	}
	return models.Group{
		ID:          p.ID,
		Name:        p.Name,
		FullName:    p.FullName,
		Path:        p.Path,
		FullPath:    p.FullPath,
		Description: p.Description,
		Visibility:  p.Visibility,
		AvatarURL:   p.AvatarURL,
		WebURL:      p.WebURL,
		ParentID:    p.ParentID,
		Raw:         string(raw),
	}, nil
}

func decodeProject(raw json.RawMessage) (models.Project, error) {
	var p projectPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Project{}, fmt.Errorf("gitlab: decode project: %w", err)
	}
	project := models.Project{
		ID:                p.ID,
		Name:              p.Name,
		NameWithNamespace: p.NameWithNamespace,
		Path:              p.Path,
		PathWithNamespace: p.PathWithNamespace,
		Description:       p.Description,
		DefaultBranch:     p.DefaultBranch,
		Visibility:        p.Visibility,
		AvatarURL:         p.AvatarURL,
		WebURL:            p.WebURL,
		HTTPURLToRepo:     p.HTTPURLToRepo,
		SSHURLToRepo:      p.SSHURLToRepo,
		Raw:               string(raw),
	}
	if p.Namespace.Kind == "group" && p.Namespace.ID != 0 {
		id := p.Namespace.ID
		project.GroupID = &id
	}
	return project, nil
}

func decodePipeline(raw json.RawMessage) (models.Pipeline, error) {
	var p pipelinePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Pipeline{}, fmt.Errorf("gitlab: decode pipeline: %w", err)
	}
	return models.Pipeline{
		ID:         p.ID,
		Status:     p.Status,
		Ref:        p.Ref,
		SHA:        p.SHA,
		Tag:        p.Tag,
		Source:     p.Source,
		WebURL:     p.WebURL,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		StartedAt:  p.StartedAt,
		FinishedAt: p.FinishedAt,
		Duration:   p.Duration,
		Raw:        string(raw),
	}, nil
}

func decodeBranch(raw json.RawMessage) (models.Branch, error) {
	var p branchPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Branch{}, fmt.Errorf("gitlab: decode branch: %w", err)
	}
	return models.Branch{
		Name:               p.Name,
		Merged:             p.Merged,
		Protected:          p.Protected,
		Default:            p.Default,
		DevelopersCanPush:  p.DevelopersCanPush,
		DevelopersCanMerge: p.DevelopersCanMerge,
		CanPush:            p.CanPush,
		WebURL:             p.WebURL,
		CommitID:           p.Commit.ID,
		CommitShortID:      p.Commit.ShortID,
		CommitTitle:        p.Commit.Title,
		CommitAuthorName:   p.Commit.AuthorName,
		CommitAuthorEmail:  p.Commit.AuthorEmail,
		CommitAuthoredAt:   p.Commit.AuthoredDate,
		CommitterName:      p.Commit.CommitterName,
		CommitterEmail:     p.Commit.CommitterEmail,
		CommitCommittedAt:  p.Commit.CommittedDate,
		CommitMessage:      p.Commit.Message,
		Raw:                string(raw),
	}, nil
}

// ListRootGroups fetches all top-level groups.
func (c *Client) ListRootGroups(ctx context.Context) ([]models.Group, error) {
	params := url.Values{"top_level_only": {"true"}}
	raws, err := c.fetchAll(ctx, "/groups", params, 0)
	if err != nil {
		return nil, err
	}
	groups := make([]models.Group, 0, len(raws))
	for _, raw := range raws {
		g, err := decodeGroup(raw)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// ListSubgroups fetches the direct subgroups of a group.
func (c *Client) ListSubgroups(ctx context.Context, groupID int64) ([]models.Group, error) {
	raws, err := c.fetchAll(ctx, fmt.Sprintf("/groups/%d/subgroups", groupID), nil, 0)
	if err != nil {
		return nil, err
	}
	groups := make([]models.Group, 0, len(raws))
	for _, raw := range raws {
		g, err := decodeGroup(raw)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// ListGroupProjects fetches the projects directly owned by a group.
func (c *Client) ListGroupProjects(ctx context.Context, groupID int64) ([]models.Project, error) {
	raws, err := c.fetchAll(ctx, fmt.Sprintf("/groups/%d/projects", groupID), nil, 0)
	if err != nil {
		return nil, err
	}
	projects := make([]models.Project, 0, len(raws))
	for _, raw := range raws {
		p, err := decodeProject(raw)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// GetProject fetches one project by ID.
func (c *Client) GetProject(ctx context.Context, projectID int64) (*models.Project, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, fmt.Sprintf("/projects/%d", projectID), nil, &raw); err != nil {
		return nil, err
	}
	p, err := decodeProject(raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjectPipelines fetches all pipelines for a project, newest first.
func (c *Client) ListProjectPipelines(ctx context.Context, projectID int64) ([]models.Pipeline, error) {
	params := url.Values{"order_by": {"updated_at"}, "sort": {"desc"}}
	raws, err := c.fetchAll(ctx, fmt.Sprintf("/projects/%d/pipelines", projectID), params, 0)
	if err != nil {
		return nil, err
	}
	pipelines := make([]models.Pipeline, 0, len(raws))
	for _, raw := range raws {
		p, err := decodePipeline(raw)
		if err != nil {
			return nil, err
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, nil
}

// ListProjectBranches fetches all repository branches for a project.
func (c *Client) ListProjectBranches(ctx context.Context, projectID int64) ([]models.Branch, error) {
	raws, err := c.fetchAll(ctx, fmt.Sprintf("/projects/%d/repository/branches", projectID), nil, 0)
	if err != nil {
		return nil, err
	}
	branches := make([]models.Branch, 0, len(raws))
	for _, raw := range raws {
		b, err := decodeBranch(raw)
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, nil
}

// GetPipeline fetches one pipeline's full detail as a raw payload.
func (c *Client) GetPipeline(ctx context.Context, projectID, pipelineID int64) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, fmt.Sprintf("/projects/%d/pipelines/%d", projectID, pipelineID), nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// GetBranch fetches one branch's full detail as a raw payload.
func (c *Client) GetBranch(ctx context.Context, projectID int64, name string) (json.RawMessage, error) {
	path := fmt.Sprintf("/projects/%d/repository/branches/%s", projectID, url.PathEscape(name))
	var raw json.RawMessage
	if err := c.getJSON(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
