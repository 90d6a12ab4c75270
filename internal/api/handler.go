package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/repository-feed/internal/aggregator"
	"github.com/kurihiro0119/repository-feed/internal/config"
	"github.com/kurihiro0119/repository-feed/internal/domain"
	apperrors "github.com/kurihiro0119/repository-feed/internal/errors"
	"github.com/kurihiro0119/repository-feed/internal/render"
)

// FeedService is the repository feed as the API uses it
type FeedService interface {
	Load(ctx context.Context) (*domain.FeedResult, error)
	Refresh(ctx context.Context) (*domain.FeedResult, error)
	Cancel() bool
	ClearCache(ctx context.Context) error
	State() domain.State
	TrackView(count int)
	Config() config.FeedOptions
	UpdateConfig(patch config.Patch) (config.FeedOptions, error)
}

// Handler handles API requests
type Handler struct {
	feed       FeedService
	aggregator aggregator.Aggregator
	now        func() time.Time
}

// NewHandler creates a new API handler
func NewHandler(feed FeedService, agg aggregator.Aggregator) *Handler {
	return &Handler{
		feed:       feed,
		aggregator: agg,
		now:        time.Now,
	}
}

// ReposResponse is the payload of the repository endpoints
type ReposResponse struct {
	*domain.FeedResult
	Cards []render.Card `json:"cards,omitempty"`
}

// HealthCheck reports liveness
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GetRepos loads the repository feed
// GET /api/v1/repos
func (h *Handler) GetRepos(c *gin.Context) {
	result, err := h.feed.Load(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondRepos(c, result)
}

// RefreshRepos invalidates the cache and loads from GitHub
// POST /api/v1/repos/refresh
func (h *Handler) RefreshRepos(c *gin.Context) {
	result, err := h.feed.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondRepos(c, result)
}

// CancelLoad cancels the in-flight load
// DELETE /api/v1/repos/load
func (h *Handler) CancelLoad(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"cancelled": h.feed.Cancel()},
	})
}

// ClearCache deletes the cached feed
// DELETE /api/v1/repos/cache
func (h *Handler) ClearCache(c *gin.Context) {
	if err := h.feed.ClearCache(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSummary aggregates the repository feed
// GET /api/v1/repos/summary
func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.aggregator.Summarize(c.Request.Context(), h.feed.Config().Account)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": summary,
	})
}

// GetState returns the feed's load state
// GET /api/v1/state
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": h.feed.State(),
	})
}

// GetConfig returns the feed options
// GET /api/v1/config
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": h.feed.Config(),
	})
}

// UpdateConfig applies a partial update to the feed options
// PATCH /api/v1/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, apperrors.NewBadRequestError("failed to read request body"))
		return
	}

	patch, err := config.DecodePatch(body)
	if err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	opts, err := h.feed.UpdateConfig(patch)
	if err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": opts,
	})
}

func (h *Handler) respondRepos(c *gin.Context, result *domain.FeedResult) {
	resp := ReposResponse{FeedResult: result}
	if c.Query("view") == "cards" {
		resp.Cards = render.Cards(result.Repositories, h.now())
		h.feed.TrackView(len(resp.Cards))
	}

	c.JSON(http.StatusOK, gin.H{
		"data": resp,
	})
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeRateLimited:
			status = http.StatusTooManyRequests
		case apperrors.ErrCodeTimeout:
			status = http.StatusGatewayTimeout
		case apperrors.ErrCodeNetwork, apperrors.ErrCodeUnauthorized:
			status = http.StatusBadGateway
		case apperrors.ErrCodeCancelled, apperrors.ErrCodeInProgress:
			status = http.StatusConflict
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeStorage:
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, gin.H{
		"error": render.ErrorMessage(err),
	})
}
