// Package server exposes the scenario pipeline over HTTP: a scenario
// listing, an upload endpoint, and a health check.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/pipeline"
	"github.com/dmvision/scenario-analyzer/pkg/scenario"
)

type Server struct {
	router   *gin.Engine
	logger   *zap.Logger
	registry *scenario.Registry
	pipe     *pipeline.Pipeline
}

func New(registry *scenario.Registry, pipe *pipeline.Pipeline, logger *zap.Logger, maxUploadSize int64) *Server {
	s := &Server{
		logger:   logger,
		registry: registry,
		pipe:     pipe,
	}

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	api := router.Group("/api")
	{
		api.GET("/scenarios", s.handleScenarios)
		api.POST("/upload", RequestSizeLimit(maxUploadSize), s.handleUpload)
	}

	s.router = router
	return s
}

// Handler returns the router for mounting into an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "scenario-analyzer",
	})
}

type scenarioInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

func (s *Server) handleScenarios(c *gin.Context) {
	keys := s.registry.Keys()
	out := make([]scenarioInfo, 0, len(keys))
	for _, key := range keys {
		cfg, _ := s.registry.Get(key)
		out = append(out, scenarioInfo{
			Key:         cfg.Key,
			Name:        cfg.Name,
			Description: cfg.Description,
			Default:     cfg.Key == scenario.DefaultKey,
		})
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": out})
}

type resultRow struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type uploadResponse struct {
	Scenario     string      `json:"scenario"`
	ScenarioName string      `json:"scenario_name"`
	ShowImage    bool        `json:"show_image"`
	Image        string      `json:"image_b64,omitempty"`
	ImageMIME    string      `json:"image_mime,omitempty"`
	Table        []resultRow `json:"result_table,omitempty"`
	ConstantText string      `json:"constant_text,omitempty"`
}

func (s *Server) handleUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image file in request"})
		return
	}
	defer file.Close()

	scenarioKey := c.PostForm("scenario")

	outcome, err := s.pipe.Process(c.Request.Context(), file, header.Filename, scenarioKey)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := uploadResponse{
		Scenario:     outcome.ScenarioKey,
		ScenarioName: outcome.ScenarioName,
		ConstantText: outcome.ConstantText,
	}
	if outcome.ShowImage {
		resp.ShowImage = true
		resp.Image = outcome.ImageB64
		resp.ImageMIME = outcome.ImageMIME
	}
	for _, row := range outcome.Table {
		resp.Table = append(resp.Table, resultRow{Field: row.Field, Value: row.Value})
	}
	c.JSON(http.StatusOK, resp)
}

// writeError maps pipeline errors onto HTTP statuses: request faults are
// 400, backend faults 502, everything else 500.
func (s *Server) writeError(c *gin.Context, err error) {
	var inputErr *pipeline.InputError
	var unavailErr *aiclient.UnavailableError
	var malformedErr *aiclient.MalformedError

	switch {
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": inputErr.Msg})
	case errors.As(err, &unavailErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": unavailErr.Reason})
	case errors.As(err, &malformedErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": malformedErr.Error()})
	default:
		s.logger.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
