package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cartcompare/backend/internal/domain"
	"github.com/cartcompare/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog *usecase.CatalogService
	repo    domain.ListingRepository
}

// NewHandler creates a new HTTP handler. repo may be nil when running
// without persistence; admin endpoints then return 503.
func NewHandler(catalog *usecase.CatalogService, repo domain.ListingRepository) *Handler {
	return &Handler{catalog: catalog, repo: repo}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cartcompare-backend",
		"version": "1.0.0",
	})
}

// GetProducts returns the grouped, deduplicated catalog.
// Query params: category (default grocery), provider, q.
func (h *Handler) GetProducts(c *gin.Context) {
	query := usecase.CatalogQuery{
		Category: c.Query("category"),
		Provider: c.Query("provider"),
		Search:   c.Query("q"),
	}

	groups, err := h.catalog.Products(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// GetCheapest returns the single best-value listing per product.
func (h *Handler) GetCheapest(c *gin.Context) {
	query := usecase.CatalogQuery{
		Category: c.Query("category"),
		Provider: c.Query("provider"),
	}

	listings, err := h.catalog.Cheapest(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, listings)
}

// GetProductByID returns listings matching a listing or product id.
func (h *Handler) GetProductByID(c *gin.Context) {
	matches, err := h.catalog.ListingsByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrListingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		}
		return
	}
	c.JSON(http.StatusOK, matches)
}

// AdminUnmapped lists listings awaiting manual mapping, newest first.
func (h *Handler) AdminUnmapped(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))

	listings, err := h.repo.UnmappedListings(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db_error"})
		return
	}
	c.JSON(http.StatusOK, listings)
}

// AdminUnmappedCount returns the size of the manual mapping queue.
func (h *Handler) AdminUnmappedCount(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		return
	}
	count, err := h.repo.CountUnmapped(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// AdminMap applies a manual mapping override to a listing, writes an audit
// record, and invalidates the snapshot cache so the override is visible on
// the next request.
func (h *Handler) AdminMap(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		return
	}

	var mapping domain.Mapping
	if err := c.ShouldBindJSON(&mapping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}
	if mapping.ListingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing_id_required"})
		return
	}

	updated, err := h.repo.ApplyMapping(c.Request.Context(), mapping, maskedAdminID(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNothingToUpdate):
			c.JSON(http.StatusBadRequest, gin.H{"error": "nothing_to_update"})
		case errors.Is(err, domain.ErrListingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db_error"})
		}
		return
	}

	if err := h.catalog.Invalidate(c.Request.Context()); err == nil {
		c.Header("X-Cache-Invalidated", "true")
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}

// AdminAudit returns the most recent admin mapping actions.
func (h *Handler) AdminAudit(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))

	records, err := h.repo.AuditTrail(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db_error"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// maskedAdminID records only the token tail in audit rows, never the full
// credential.
func maskedAdminID(c *gin.Context) string {
	token := adminToken(c)
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
