package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/quote-service/internal/pricing"
	"github.com/kosarica/quote-service/internal/submission"
)

// ============================================================================
// Submission Endpoints
// ============================================================================

// AddServiceRequest adds a service to an open submission
type AddServiceRequest struct {
	ServiceID string `json:"service_id" binding:"required"`
}

// ApplyResponsesRequest carries a full response batch for one service
type ApplyResponsesRequest struct {
	Responses []pricing.ResponseInput `json:"responses"`
}

// DeclineRequest declines an open submission
type DeclineRequest struct {
	Reason string `json:"reason,omitempty"`
}

// QuotesResponse lists the package quotes of a service selection
type QuotesResponse struct {
	Quotes []pricing.Quote `json:"quotes"`
	Total  int             `json:"total"`
}

// HistoryResponse lists the edit history of a submission
type HistoryResponse struct {
	Entries []submission.EditHistoryEntry `json:"entries"`
	Total   int                           `json:"total"`
}

// Global pipeline instance (initialized by the application)
var pipeline *submission.Pipeline

// InitQuoting sets the pipeline used by the submission handlers
func InitQuoting(p *submission.Pipeline) {
	pipeline = p
}

func ready(c *gin.Context) bool {
	if pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "quoting not initialized"})
		return false
	}
	return true
}

// CreateSubmission opens a new draft submission
// @Summary Create submission
// @Description Validates customer data, location, services and add-ons and returns the draft with initial quotes
// @Tags submissions
// @Accept json
// @Produce json
// @Param request body submission.CreateRequest true "New submission"
// @Success 201 {object} submission.Submission
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /submissions [post]
func CreateSubmission(c *gin.Context) {
	if !ready(c) {
		return
	}
	var req submission.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := pipeline.CreateSubmission(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// GetSubmission returns a submission
// @Summary Get submission
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} submission.Submission
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id} [get]
func GetSubmission(c *gin.Context) {
	if !ready(c) {
		return
	}
	sub, err := pipeline.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// AddService adds a service selection to an open submission
// @Summary Add service
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param request body AddServiceRequest true "Service"
// @Success 201 {object} submission.ServiceSelection
// @Failure 409 {object} ErrorResponse
// @Router /submissions/{id}/services [post]
func AddService(c *gin.Context) {
	if !ready(c) {
		return
	}
	var req AddServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sel, err := pipeline.AddService(c.Request.Context(), c.Param("id"), req.ServiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sel)
}

// RemoveService removes a service selection with its responses and quotes
// @Summary Remove service
// @Tags submissions
// @Param id path string true "Submission ID"
// @Param selectionId path string true "Service selection ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id}/services/{selectionId} [delete]
func RemoveService(c *gin.Context) {
	if !ready(c) {
		return
	}
	if err := pipeline.RemoveService(c.Request.Context(), c.Param("id"), c.Param("selectionId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ApplyResponses validates a response batch, replaces the stored responses
// and requotes every package of the service
// @Summary Apply responses
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param selectionId path string true "Service selection ID"
// @Param request body ApplyResponsesRequest true "Responses"
// @Success 200 {object} submission.ServiceSelection
// @Failure 422 {object} ErrorResponse
// @Router /submissions/{id}/services/{selectionId}/responses [post]
func ApplyResponses(c *gin.Context) {
	if !ready(c) {
		return
	}
	var req ApplyResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sel, err := pipeline.Apply(c.Request.Context(), c.Param("id"), c.Param("selectionId"), req.Responses)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}

// ListQuotes returns the package quotes of a service selection
// @Summary List quotes
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Param selectionId path string true "Service selection ID"
// @Success 200 {object} QuotesResponse
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id}/services/{selectionId}/quotes [get]
func ListQuotes(c *gin.Context) {
	if !ready(c) {
		return
	}
	quotes, err := pipeline.Quotes(c.Request.Context(), c.Param("id"), c.Param("selectionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, QuotesResponse{Quotes: quotes, Total: len(quotes)})
}

// SelectPackage marks one package quote of a service as selected
// @Summary Select package
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param request body submission.PackageChoice true "Package choice"
// @Success 200 {object} submission.ServiceSelection
// @Failure 409 {object} ErrorResponse
// @Router /submissions/{id}/packages [post]
func SelectPackage(c *gin.Context) {
	if !ready(c) {
		return
	}
	var req submission.PackageChoice
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sel, err := pipeline.SelectPackage(c.Request.Context(), c.Param("id"), req.ServiceSelectionID, req.PackageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}

// SubmitSubmission finalizes a submission with packages, coupon and add-ons
// @Summary Submit
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param request body submission.SubmitRequest true "Final choices"
// @Success 200 {object} submission.Submission
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /submissions/{id}/submit [post]
func SubmitSubmission(c *gin.Context) {
	if !ready(c) {
		return
	}
	var req submission.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.SubmissionID = c.Param("id")
	sub, err := pipeline.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// DeclineSubmission declines an open submission
// @Summary Decline
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param request body DeclineRequest false "Reason"
// @Success 200 {object} submission.Submission
// @Failure 409 {object} ErrorResponse
// @Router /submissions/{id}/decline [post]
func DeclineSubmission(c *gin.Context) {
	if !ready(c) {
		return
	}
	var req DeclineRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	sub, err := pipeline.Decline(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// EditSelection reapplies responses and/or changes the package of a
// submitted service, appending an edit history entry
// @Summary Edit submitted service
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param selectionId path string true "Service selection ID"
// @Param request body submission.EditRequest true "Edit"
// @Success 200 {object} submission.EditResult
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /submissions/{id}/services/{selectionId}/edit [post]
func EditSelection(c *gin.Context) {
	if !ready(c) {
		return
	}
	var req submission.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.SubmissionID = c.Param("id")
	req.SelectionID = c.Param("selectionId")
	res, err := pipeline.Edit(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RecalculateSubmission recomputes the totals of a submission
// @Summary Recalculate totals
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} submission.Submission
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id}/recalculate [post]
func RecalculateSubmission(c *gin.Context) {
	if !ready(c) {
		return
	}
	sub, err := pipeline.Recalculate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// GetHistory returns the edit history of a submission
// @Summary Edit history
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} HistoryResponse
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id}/history [get]
func GetHistory(c *gin.Context) {
	if !ready(c) {
		return
	}
	entries, err := pipeline.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []submission.EditHistoryEntry{}
	}
	c.JSON(http.StatusOK, HistoryResponse{Entries: entries, Total: len(entries)})
}

// RegisterRoutes mounts the submission and catalog admin routes on rg
func RegisterRoutes(rg *gin.RouterGroup) {
	subs := rg.Group("/submissions")
	{
		subs.POST("", CreateSubmission)
		subs.GET("/:id", GetSubmission)
		subs.POST("/:id/services", AddService)
		subs.DELETE("/:id/services/:selectionId", RemoveService)
		subs.POST("/:id/services/:selectionId/responses", ApplyResponses)
		subs.GET("/:id/services/:selectionId/quotes", ListQuotes)
		subs.POST("/:id/services/:selectionId/edit", EditSelection)
		subs.POST("/:id/packages", SelectPackage)
		subs.POST("/:id/submit", SubmitSubmission)
		subs.POST("/:id/decline", DeclineSubmission)
		subs.POST("/:id/recalculate", RecalculateSubmission)
		subs.GET("/:id/history", GetHistory)
	}

	admin := rg.Group("/admin/catalog")
	{
		admin.POST("/invalidate", InvalidateCatalog)
		admin.POST("/warmup", WarmupCatalog)
		admin.GET("/health", CatalogHealth)
	}
}
