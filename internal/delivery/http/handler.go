package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/georglynx/grocerycompare/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	successCacheControl = "public, max-age=900"
	errorCacheControl   = "no-store"
)

// ProductSearcher serves the three modes of the search endpoint
type ProductSearcher interface {
	Search(ctx context.Context, query string, maxResults int) (*domain.ListingResult, error)
	Compare(ctx context.Context, query string) (*domain.CompareResult, error)
	Detail(ctx context.Context, code, slug string) (*domain.ProductDetail, error)
}

// BasketComparer totals a list of items across stores
type BasketComparer interface {
	Compare(ctx context.Context, items []string) (*domain.BasketResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	searcher ProductSearcher
	basket   BasketComparer
}

// NewHandler creates a new HTTP handler. Nil dependencies make their endpoints answer 503.
func NewHandler(searcher ProductSearcher, basket BasketComparer) *Handler {
	return &Handler{searcher: searcher, basket: basket}
}

// searchQuery is the query string of GET /api/search
type searchQuery struct {
	Q          string `form:"q"`
	Product    string `form:"product"`
	Slug       string `form:"slug"`
	Compare    string `form:"compare"`
	MaxResults int    `form:"max_results"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "grocerycompare",
		"version": "1.0.0",
	})
}

// Search handles GET /api/search.
// product selects detail mode, a truthy compare selects compare mode, otherwise listing mode.
func (h *Handler) Search(c *gin.Context) {
	if h.searcher == nil {
		h.respondError(c, http.StatusServiceUnavailable, "search service not configured")
		return
	}

	var query searchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid query parameters: max_results must be an integer")
		return
	}

	ctx := c.Request.Context()
	switch {
	case strings.TrimSpace(query.Product) != "":
		detail, err := h.searcher.Detail(ctx, strings.TrimSpace(query.Product), strings.TrimSpace(query.Slug))
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		h.respond(c, detail)

	case strings.TrimSpace(query.Q) == "":
		h.respondError(c, http.StatusBadRequest, "q or product is required")

	case isTruthy(query.Compare):
		result, err := h.searcher.Compare(ctx, query.Q)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		h.respond(c, result)

	default:
		result, err := h.searcher.Search(ctx, query.Q, query.MaxResults)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		h.respond(c, result)
	}
}

// Basket handles POST /api/basket
func (h *Handler) Basket(c *gin.Context) {
	if h.basket == nil {
		h.respondError(c, http.StatusServiceUnavailable, "basket service not configured")
		return
	}

	var req domain.BasketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "items must list 1 to 20 non-empty queries of at most 120 characters")
		return
	}

	result, err := h.basket.Compare(c.Request.Context(), req.Items)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respond(c, result)
}

// handleServiceError maps domain errors to HTTP status codes
func (h *Handler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		h.respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUpstreamFetch):
		log.Printf("[HTTP] %s upstream failure: %v", domain.RequestID(c.Request.Context()), err)
		h.respondError(c, http.StatusBadGateway, "failed to fetch product page")
	case errors.Is(err, context.DeadlineExceeded):
		h.respondError(c, http.StatusGatewayTimeout, "request timed out")
	default:
		log.Printf("[HTTP] %s internal error: %v", domain.RequestID(c.Request.Context()), err)
		h.respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) respond(c *gin.Context, body any) {
	c.Header("Cache-Control", successCacheControl)
	c.JSON(http.StatusOK, body)
}

func (h *Handler) respondError(c *gin.Context, status int, message string) {
	c.Header("Cache-Control", errorCacheControl)
	c.JSON(status, gin.H{"error": message})
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
