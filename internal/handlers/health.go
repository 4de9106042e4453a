package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/quote-service/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Catalog  string `json:"catalog"`

	TotalConns    int32 `json:"total_conns,omitempty"`
	AcquiredConns int32 `json:"acquired_conns,omitempty"`
}

// HealthCheck handles the health check endpoint
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:   "ok",
		Database: "not configured",
		Catalog:  "not configured",
	}
	code := http.StatusOK

	if database.Pool() != nil {
		if err := database.Status(c.Request.Context()); err != nil {
			response.Status = "unavailable"
			response.Database = "disconnected"
			code = http.StatusServiceUnavailable
		} else {
			response.Database = "connected"
			if stat := database.Stats(); stat != nil {
				response.TotalConns = stat.TotalConns()
				response.AcquiredConns = stat.AcquiredConns()
			}
		}
	}

	if catalogCache != nil {
		if catalogCache.IsHealthy() {
			response.Catalog = "ok"
		} else {
			response.Catalog = "degraded"
			if response.Status == "ok" {
				response.Status = "degraded"
			}
		}
	}

	c.JSON(code, response)
}
