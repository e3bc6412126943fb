package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adityanexturn/profilescope/internal/analysis"
	"github.com/adityanexturn/profilescope/internal/instagram"
	"github.com/adityanexturn/profilescope/pkg/logging"
	"github.com/adityanexturn/profilescope/pkg/middleware"
)

// Runner is the handler's view of the analysis pipeline.
type Runner interface {
	Run(ctx context.Context, handle string, opts analysis.RunOptions) (*analysis.AnalysisResult, error)
}

// statusClientClosedRequest is the nginx convention for a client that
// went away before the response was written.
const statusClientClosedRequest = 499

// analyzeTimeout bounds a whole run: fetch pagination plus inference.
const analyzeTimeout = 2 * time.Minute

// Handlers carries the HTTP handlers for the analysis API.
type Handlers struct {
	runner Runner
	logger logging.Logger
}

func NewHandlers(runner Runner, logger logging.Logger) *Handlers {
	return &Handlers{runner: runner, logger: logger}
}

// RegisterRoutes mounts the analysis API on the router.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.TimeoutMiddleware(analyzeTimeout))
	apiGroup.POST("/analyze", h.Analyze)
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	Handle   string `json:"handle" binding:"required"`
	MaxPosts int    `json:"max_posts"`
	Since    string `json:"since"` // RFC 3339
	Until    string `json:"until"` // RFC 3339
}

// Analyze runs one analysis and returns the assembled result.
func (h *Handlers) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "handle is required"})
		return
	}

	opts := analysis.RunOptions{MaxPosts: req.MaxPosts}
	var err error
	if opts.Since, err = parseTime(req.Since); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC 3339"})
		return
	}
	if opts.Until, err = parseTime(req.Until); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "until must be RFC 3339"})
		return
	}

	result, err := h.runner.Run(c.Request.Context(), req.Handle, opts)
	if err != nil {
		h.writeRunError(c, req.Handle, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handlers) writeRunError(c *gin.Context, handle string, err error) {
	if h.logger != nil {
		h.logger.WithError(err).WithField("handle", handle).Warn("Analysis run failed")
	}

	if errors.Is(err, context.Canceled) {
		c.JSON(statusClientClosedRequest, gin.H{"error": "request cancelled"})
		return
	}

	var fetchErr *instagram.FetchError
	if errors.As(err, &fetchErr) {
		c.JSON(statusForFetchError(fetchErr), gin.H{
			"error": fetchErr.Message,
			"kind":  string(fetchErr.Kind),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
}

func statusForFetchError(err *instagram.FetchError) int {
	switch err.Kind {
	case instagram.KindNotFound:
		return http.StatusNotFound
	case instagram.KindRateLimited:
		return http.StatusTooManyRequests
	case instagram.KindAuth, instagram.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
