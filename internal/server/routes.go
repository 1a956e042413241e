package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/depot/internal/config"
	"github.com/zulandar/depot/internal/gate"
	"github.com/zulandar/depot/internal/gitlab"
	"github.com/zulandar/depot/internal/syncer"
)

// registerRoutes sets up all API routes on the Gin router.
func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api")

	api.GET("/health", s.handleHealth)

	api.GET("/config", s.handleGetConfig)
	api.POST("/config", s.handleSetConfig)

	api.GET("/groups", s.handleGroups)
	api.GET("/groups/:id/subgroups", s.handleSubgroups)
	api.GET("/groups/:id/projects", s.handleGroupProjects)

	api.GET("/projects/search", s.handleSearchProjects)
	api.GET("/projects/:id", s.handleProjectDetail)
	api.GET("/projects/:id/pipelines", s.handlePipelines)
	api.GET("/projects/:id/pipelines/:pipeline_id", s.handlePipelineDetail)
	api.GET("/projects/:id/branches", s.handleBranches)
	api.GET("/projects/:id/branches/*name", s.handleBranchDetail)

	api.GET("/stats", s.handleStats)

	api.POST("/sync", s.handleSyncFull)
	api.POST("/sync/project/:id", s.handleSyncProject)
	api.GET("/sync/status", s.handleSyncStatus)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"status":     "healthy",
		"configured": s.currentClient() != nil,
	})
}

func (s *Server) handleGetConfig(c *gin.Context) {
	saved, err := s.store.LoadConfig()
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"success":    true,
		"configured": s.currentClient() != nil,
	}
	if saved != nil {
		resp["gitlab_url"] = saved.GitLabURL
		resp["gitlab_token"] = maskToken(saved.AccessToken)
	}
	c.JSON(http.StatusOK, resp)
}

// configRequest is the POST /api/config body.
type configRequest struct {
	URL   string `json:"gitlab_url"`
	Token string `json:"gitlab_token"`
}

// handleSetConfig validates and stores new credentials. The connection is
// tested before anything is persisted, and when the catalog is still empty
// a first full sync starts in the background.
func (s *Server) handleSetConfig(c *gin.Context) {
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &config.ValidationError{Field: "body", Reason: "expected JSON with gitlab_url and gitlab_token"})
		return
	}
	req.URL = strings.TrimRight(strings.TrimSpace(req.URL), "/")

	if err := config.ValidateCredentials(req.URL, req.Token); err != nil {
		respondError(c, err)
		return
	}

	client := gitlab.New(req.URL, req.Token)
	user, err := client.TestConnection(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	if err := s.store.SaveConfig(req.URL, req.Token); err != nil {
		respondError(c, err)
		return
	}
	s.setClient(client)

	stats, err := s.store.AggregateStats()
	if err != nil {
		respondError(c, err)
		return
	}
	initialSync := stats.TotalGroups == 0
	if initialSync {
		s.startFullSync()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "configuration saved",
		"user":         user,
		"initial_sync": initialSync,
	})
}

func (s *Server) handleGroups(c *gin.Context) {
	res, err := s.gate.Groups(c.Request.Context(), nil)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res.Source, "groups", res.Groups)
}

func (s *Server) handleSubgroups(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	res, err := s.gate.Groups(c.Request.Context(), &id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res.Source, "subgroups", res.Groups)
}

func (s *Server) handleGroupProjects(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	res, err := s.gate.GroupProjects(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res.Source, "projects", res.Projects)
}

func (s *Server) handleSearchProjects(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondError(c, &config.ValidationError{Field: "q", Reason: "query parameter is required"})
		return
	}
	res, err := s.gate.SearchProjects(query)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res.Source, "projects", res.Projects)
}

func (s *Server) handleProjectDetail(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	res, err := s.gate.Project(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res.Source, "project", res.Payload)
}

func (s *Server) handlePipelines(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	res, err := s.gate.Pipelines(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res.Source, "pipelines", res.Pipelines)
}

func (s *Server) handlePipelineDetail(c *gin.Context) {
	projectID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	pipelineID, ok := paramInt64(c, "pipeline_id")
	if !ok {
		return
	}
	payload, err := s.gate.PipelineDetail(c.Request.Context(), projectID, pipelineID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gate.SourceAPILive, "pipeline", payload)
}

func (s *Server) handleBranches(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	res, err := s.gate.Branches(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res.Source, "branches", res.Branches)
}

func (s *Server) handleBranchDetail(c *gin.Context) {
	projectID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	// Wildcard so branch names containing slashes resolve.
	name := strings.TrimPrefix(c.Param("name"), "/")
	if name == "" {
		respondError(c, &config.ValidationError{Field: "name", Reason: "branch name is required"})
		return
	}
	payload, err := s.gate.BranchDetail(c.Request.Context(), projectID, name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gate.SourceAPILive, "branch", payload)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.AggregateStats()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gate.SourceDatabase, "stats", stats)
}

func (s *Server) handleSyncFull(c *gin.Context) {
	if s.currentClient() == nil {
		respondError(c, config.ErrNotConfigured)
		return
	}
	if !s.startFullSync() {
		c.JSON(http.StatusConflict, gin.H{
			"success":    false,
			"error":      "a full sync is already in progress",
			"error_type": "sync_in_progress",
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "full sync started",
	})
}

func (s *Server) handleSyncProject(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	svc := s.newSyncer()
	if svc == nil {
		respondError(c, config.ErrNotConfigured)
		return
	}
	result, err := svc.SyncProject(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (s *Server) handleSyncStatus(c *gin.Context) {
	// Status reads only the store, so an unconfigured remote is fine here.
	svc := syncer.New(s.store, nil, syncer.Opts{})
	report, err := svc.Status()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  report,
	})
}

// startFullSync launches a background full sync unless one is already
// running. Returns false when a sync is in flight.
func (s *Server) startFullSync() bool {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	if s.syncing {
		return false
	}
	svc := s.newSyncer()
	if svc == nil {
		return false
	}
	s.syncing = true

	go func() {
		defer func() {
			s.syncMu.Lock()
			s.syncing = false
			s.syncMu.Unlock()
		}()
		// Detached from the request: the sync outlives the HTTP call.
		if _, err := svc.FullSync(context.Background()); err != nil {
			log.Printf("server: background full sync: %v", err)
		}
	}()
	return true
}

// maskToken keeps the first four characters of a token for recognition.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + strings.Repeat("*", len(token)-4)
}

// paramInt64 parses a numeric path parameter, responding with a validation
// error when it is malformed.
func paramInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		respondError(c, &config.ValidationError{Field: name, Reason: "must be a numeric ID"})
		return 0, false
	}
	return v, true
}
