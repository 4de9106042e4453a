package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/quote-service/internal/catalog"
)

// ============================================================================
// Catalog Cache Endpoints
// ============================================================================

// InvalidateRequest drops cached services. An empty list drops everything.
type InvalidateRequest struct {
	ServiceIDs []string `json:"service_ids,omitempty"`
}

// ServiceFreshness describes one cached service snapshot
type ServiceFreshness struct {
	ServiceID string `json:"service_id"`
	LoadedAt  int64  `json:"loaded_at"`
	IsStale   bool   `json:"is_stale"`
}

// CatalogHealthResponse reports the state of the catalog cache
type CatalogHealthResponse struct {
	Status         string             `json:"status"`
	CircuitBreaker string             `json:"circuit_breaker"`
	FailedLoads    []string           `json:"failed_loads,omitempty"`
	Services       []ServiceFreshness `json:"services"`
}

var (
	catalogCache *catalog.Cache
	listServices func(ctx context.Context) ([]string, error)
)

// InitCatalog sets the cache managed by the admin endpoints. list returns
// the ids to warm up and may be nil.
func InitCatalog(cache *catalog.Cache, list func(ctx context.Context) ([]string, error)) {
	catalogCache = cache
	listServices = list
}

// InvalidateCatalog drops cached catalog snapshots
// @Summary Invalidate catalog cache
// @Tags catalog
// @Accept json
// @Produce json
// @Param request body InvalidateRequest false "Services to drop"
// @Success 200 {object} map[string]any
// @Router /admin/catalog/invalidate [post]
func InvalidateCatalog(c *gin.Context) {
	if catalogCache == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "catalog cache not initialized"})
		return
	}
	var req InvalidateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	if len(req.ServiceIDs) == 0 {
		catalogCache.InvalidateAll()
	} else {
		for _, id := range req.ServiceIDs {
			catalogCache.InvalidateService(id)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"invalidated": req.ServiceIDs,
	})
}

// WarmupCatalog loads every service into the cache
// @Summary Warm up catalog cache
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 500 {object} ErrorResponse
// @Router /admin/catalog/warmup [post]
func WarmupCatalog(c *gin.Context) {
	if catalogCache == nil || listServices == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "catalog cache not initialized"})
		return
	}
	ids, err := listServices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list services: " + err.Error()})
		return
	}
	if err := catalogCache.Warmup(c.Request.Context(), ids); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to warm up catalog: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"services": len(ids),
	})
}

// CatalogHealth reports cache freshness and circuit breaker state
// @Summary Catalog cache health
// @Tags catalog
// @Produce json
// @Success 200 {object} CatalogHealthResponse
// @Router /admin/catalog/health [get]
func CatalogHealth(c *gin.Context) {
	if catalogCache == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "catalog cache not initialized"})
		return
	}

	freshness := catalogCache.GetFreshness()
	services := make([]ServiceFreshness, 0, len(freshness))
	for id, f := range freshness {
		services = append(services, ServiceFreshness{ServiceID: id, LoadedAt: f.LoadedAt, IsStale: f.IsStale})
	}
	sort.Slice(services, func(i, j int) bool { return services[i].ServiceID < services[j].ServiceID })

	status := "ok"
	if !catalogCache.IsHealthy() {
		status = "degraded"
	}
	c.JSON(http.StatusOK, CatalogHealthResponse{
		Status:         status,
		CircuitBreaker: catalogCache.GetCircuitBreakerState().String(),
		FailedLoads:    catalogCache.FailedLoads(),
		Services:       services,
	})
}
