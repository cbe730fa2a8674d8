// In file: cmd/gateway/handler.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dileep-u-k/hn-gateway/internal/hackernews"
	"github.com/dileep-u-k/hn-gateway/internal/mcp"
	"github.com/dileep-u-k/hn-gateway/internal/stats"
	"github.com/dileep-u-k/hn-gateway/internal/tools"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ProfileLister is the read side of the stats profiler.
type ProfileLister interface {
	ListProfiles(ctx context.Context) ([]*stats.ToolProfile, error)
}

// GatewayHandler serves the MCP endpoint and a REST view of the same operations.
type GatewayHandler struct {
	stories     tools.StorySource
	toolManager *tools.ToolManager
	mcpServer   *mcp.Server
	profiles    ProfileLister // nil when Redis is not configured
	health      *upstreamHealth
	log         logrus.FieldLogger
}

func NewGatewayHandler(stories tools.StorySource, toolManager *tools.ToolManager, mcpServer *mcp.Server, profiles ProfileLister, health *upstreamHealth, log logrus.FieldLogger) *GatewayHandler {
	return &GatewayHandler{
		stories:     stories,
		toolManager: toolManager,
		mcpServer:   mcpServer,
		profiles:    profiles,
		health:      health,
		log:         log,
	}
}

// newRouter builds the gin engine with middleware and all routes.
func newRouter(h *GatewayHandler, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(h.log), cors.New(corsConfig(corsOrigins)))

	engine.GET("/", h.HandleHealth)
	engine.GET("/health", h.HandleHealth)
	engine.POST("/", h.HandleMCP)
	engine.POST("/mcp", h.HandleMCP)

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/stories/top", h.HandleTopStories)
		v1.GET("/stories/new", h.HandleNewStories)
		v1.GET("/stories/:id", h.HandleStory)
		v1.GET("/search", h.HandleSearch)
		v1.GET("/tools", h.HandleListTools)
		v1.POST("/tools/:name", h.HandleCallTool)
		v1.GET("/stats", h.HandleStats)
	}
	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}).Debug("http request")
	}
}

func (h *GatewayHandler) HandleHealth(c *gin.Context) {
	info := GetBuildInfo()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"server":   serverName,
		"version":  info.Version,
		"build":    info,
		"upstream": h.health.Status(),
		"tools":    h.toolManager.ToolCount(),
	})
}

// HandleMCP answers one JSON-RPC message. Notifications get 202 with no body.
func (h *GatewayHandler) HandleMCP(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp := h.mcpServer.HandleMessage(c.Request.Context(), body)
	if resp == nil {
		c.Status(http.StatusAccepted)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GatewayHandler) HandleTopStories(c *gin.Context) {
	limit, ok := h.queryLimit(c, hackernews.OpTopStories)
	if !ok {
		return
	}
	stories, err := h.stories.TopStories(c.Request.Context(), limit)
	h.respond(c, stories, err)
}

func (h *GatewayHandler) HandleNewStories(c *gin.Context) {
	limit, ok := h.queryLimit(c, hackernews.OpNewStories)
	if !ok {
		return
	}
	stories, err := h.stories.NewStories(c.Request.Context(), limit)
	h.respond(c, stories, err)
}

func (h *GatewayHandler) HandleStory(c *gin.Context) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.fail(c, hackernews.ValidationError(hackernews.OpStory, map[string]any{"story_id": raw}, "story_id must be an integer"))
		return
	}
	story, err := h.stories.Story(c.Request.Context(), id)
	h.respond(c, story, err)
}

func (h *GatewayHandler) HandleSearch(c *gin.Context) {
	limit, ok := h.queryLimit(c, hackernews.OpSearch)
	if !ok {
		return
	}
	stories, err := h.stories.Search(c.Request.Context(), c.Query("query"), limit)
	h.respond(c, stories, err)
}

func (h *GatewayHandler) HandleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": h.toolManager.GetDefinitions()})
}

// HandleCallTool runs a tool with the request body as its arguments.
func (h *GatewayHandler) HandleCallTool(c *gin.Context) {
	name := c.Param("name")
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	res, err := h.toolManager.Execute(c.Request.Context(), name, string(body))
	if errors.Is(err, tools.ErrToolNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tool '" + name + "' not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if res.IsError {
		var payload hackernews.ErrorPayload
		if json.Unmarshal([]byte(res.Text), &payload) == nil {
			status = statusFor(payload.Kind)
		} else {
			status = http.StatusInternalServerError
		}
	}
	c.Data(status, "application/json; charset=utf-8", []byte(res.Text))
}

func (h *GatewayHandler) HandleStats(c *gin.Context) {
	if h.profiles == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stats are disabled: REDIS_ADDR is not set"})
		return
	}
	profiles, err := h.profiles.ListProfiles(c.Request.Context())
	if err != nil {
		h.log.WithField("error", err).Warn("⚠️ Failed to list profiles")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if profiles == nil {
		profiles = []*stats.ToolProfile{}
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles, "upstream": h.health.Status()})
}

// queryLimit parses ?limit=. An absent limit is DefaultLimit; range clamping,
// including integers beyond the int range, is left to the gateway.
func (h *GatewayHandler) queryLimit(c *gin.Context, op string) (int, bool) {
	raw, present := c.GetQuery("limit")
	if !present || raw == "" {
		return hackernews.DefaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		// Atoi saturates out-of-range values; the gateway clamps them.
		err = nil
	}
	if err != nil {
		h.fail(c, hackernews.ValidationError(op, map[string]any{"limit": raw}, "limit must be an integer"))
		return 0, false
	}
	return n, true
}

func (h *GatewayHandler) respond(c *gin.Context, body any, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *GatewayHandler) fail(c *gin.Context, err error) {
	payload := hackernews.NewErrorPayload(err)
	h.log.WithFields(logrus.Fields{"operation": payload.Operation, "kind": payload.Kind}).Warn("⚠️ REST request failed")
	c.JSON(statusFor(payload.Kind), payload)
}

func statusFor(kind hackernews.Kind) int {
	switch kind {
	case hackernews.KindValidation:
		return http.StatusBadRequest
	case hackernews.KindNotFound, hackernews.KindNotStory:
		return http.StatusNotFound
	case hackernews.KindBadStatus, hackernews.KindMalformed:
		return http.StatusBadGateway
	case hackernews.KindUnavailable:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
