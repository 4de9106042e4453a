package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/quote-service/internal/catalog"
	"github.com/kosarica/quote-service/internal/pricing"
	"github.com/kosarica/quote-service/internal/submission"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem, err := catalog.LoadFile("../catalog/testdata/catalog.yaml")
	require.NoError(t, err)
	cache := catalog.NewCache(mem, catalog.DefaultCacheConfig())
	store := submission.NewMemoryStore(mem.Coupons()...)

	InitQuoting(submission.NewPipeline(cache, store, nil, submission.DefaultConfig()))
	InitCatalog(cache, func(context.Context) ([]string, error) { return mem.ServiceIDs(), nil })
	t.Cleanup(func() {
		InitQuoting(nil)
		InitCatalog(nil, nil)
	})

	router := gin.New()
	router.GET("/health", HealthCheck)
	RegisterRoutes(router.Group("/internal"))
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func responses(pets bool) []pricing.ResponseInput {
	two := 2
	sqft := "1800"
	return []pricing.ResponseInput{
		{QuestionID: "q-pets", YesNoAnswer: &pets},
		{QuestionID: "q-windows", SelectedOptions: []pricing.OptionSelection{{OptionID: "o-window", Quantity: &two}}},
		{QuestionID: "q-extras", SubQuestionAnswers: []pricing.SubAnswer{
			{SubQuestionID: "s-moss", Answer: false},
			{SubQuestionID: "s-roof", Answer: false},
		}},
		{QuestionID: "q-sqft", TextAnswer: &sqft},
	}
}

func createSubmission(t *testing.T, router *gin.Engine) submission.Submission {
	t.Helper()
	w := do(t, router, http.MethodPost, "/internal/submissions", submission.CreateRequest{
		CustomerName:  "Ana Horvat",
		CustomerEmail: "ana@example.com",
		SizeRangeID:   "sr-large",
		LocationID:    "loc-north",
		ServiceIDs:    []string{"svc-clean"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[submission.Submission](t, w)
}

func TestSubmissionLifecycleOverHTTP(t *testing.T) {
	router := setupRouter(t)
	sub := createSubmission(t, router)
	require.Len(t, sub.Selections, 1)
	assert.Equal(t, submission.StatusDraft, sub.Status)
	selID := sub.Selections[0].ID
	base := "/internal/submissions/" + sub.ID

	w := do(t, router, http.MethodPost, base+"/services/"+selID+"/responses", ApplyResponsesRequest{Responses: responses(false)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sel := decode[submission.ServiceSelection](t, w)
	require.Len(t, sel.Quotes, 2)
	assert.True(t, sel.Quotes[0].TotalPrice.Equal(decimal.NewFromInt(170)))

	w = do(t, router, http.MethodGet, base+"/services/"+selID+"/quotes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	quotes := decode[QuotesResponse](t, w)
	assert.Equal(t, 2, quotes.Total)

	w = do(t, router, http.MethodPost, base+"/packages", submission.PackageChoice{ServiceSelectionID: selID, PackageID: "pkg-premium"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "pkg-premium", decode[submission.ServiceSelection](t, w).SelectedPackageID)

	w = do(t, router, http.MethodPost, base+"/submit", submission.SubmitRequest{
		Packages:   []submission.PackageChoice{{ServiceSelectionID: selID, PackageID: "pkg-basic"}},
		CouponCode: "SPRING10",
		AddOns:     []submission.SubmissionAddOn{{AddOnID: "ao-screens", Quantity: 1}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	submitted := decode[submission.Submission](t, w)
	assert.Equal(t, submission.StatusSubmitted, submitted.Status)
	assert.True(t, submitted.Totals.FinalTotal.Equal(decimal.RequireFromString("166.5")), submitted.Totals.FinalTotal.String())

	w = do(t, router, http.MethodPost, base+"/services/"+selID+"/edit", submission.EditRequest{Responses: responses(true)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	edit := decode[submission.EditResult](t, w)
	assert.Equal(t, 1, edit.Entry.Sequence)
	assert.Equal(t, []string{"q-pets"}, edit.Entry.Changed)

	w = do(t, router, http.MethodGet, base+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[HistoryResponse](t, w).Total)

	w = do(t, router, http.MethodPost, base+"/recalculate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, base+"/decline", DeclineRequest{Reason: "changed my mind"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, submission.StatusDeclined, decode[submission.Submission](t, w).Status)

	w = do(t, router, http.MethodPost, base+"/services/"+selID+"/edit", submission.EditRequest{PackageID: "pkg-basic"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", decode[ErrorResponse](t, w).Code)
}

func TestErrorMapping(t *testing.T) {
	router := setupRouter(t)
	sub := createSubmission(t, router)
	selID := sub.Selections[0].ID
	base := "/internal/submissions/" + sub.ID

	t.Run("ValidationIssues", func(t *testing.T) {
		w := do(t, router, http.MethodPost, base+"/services/"+selID+"/responses", ApplyResponsesRequest{
			Responses: []pricing.ResponseInput{{QuestionID: "q-unknown"}},
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, "validation_failed", resp.Code)
		require.NotEmpty(t, resp.Issues)
		assert.Equal(t, "q-unknown", resp.Issues[0].QuestionID)
	})

	t.Run("InvalidRequestField", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/internal/submissions", submission.CreateRequest{CustomerName: "A"})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "customer_email", decode[ErrorResponse](t, w).Field)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/internal/submissions", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/internal/submissions/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = do(t, router, http.MethodDelete, base+"/services/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("DuplicateService", func(t *testing.T) {
		w := do(t, router, http.MethodPost, base+"/services", AddServiceRequest{ServiceID: "svc-clean"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("SubmitWithoutPackage", func(t *testing.T) {
		w := do(t, router, http.MethodPost, base+"/submit", submission.SubmitRequest{})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("EditBeforeSubmit", func(t *testing.T) {
		w := do(t, router, http.MethodPost, base+"/services/"+selID+"/edit", submission.EditRequest{PackageID: "pkg-basic"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("DeclineThenRemove", func(t *testing.T) {
		w := do(t, router, http.MethodPost, base+"/decline", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, submission.StatusDeclined, decode[submission.Submission](t, w).Status)

		w = do(t, router, http.MethodDelete, base+"/services/"+selID, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAddAndRemoveService(t *testing.T) {
	router := setupRouter(t)
	w := do(t, router, http.MethodPost, "/internal/submissions", submission.CreateRequest{CustomerName: "B", CustomerEmail: "b@example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sub := decode[submission.Submission](t, w)
	base := "/internal/submissions/" + sub.ID

	w = do(t, router, http.MethodPost, base+"/services", AddServiceRequest{ServiceID: "svc-clean"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sel := decode[submission.ServiceSelection](t, w)

	w = do(t, router, http.MethodPost, base+"/services", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "service_id is required")

	w = do(t, router, http.MethodDelete, base+"/services/"+sel.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[submission.Submission](t, w).Selections)
}

func TestCatalogAdminEndpoints(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodPost, "/internal/admin/catalog/warmup", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodGet, "/internal/admin/catalog/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[CatalogHealthResponse](t, w)
	assert.Equal(t, "ok", health.Status)
	require.Len(t, health.Services, 1)
	assert.Equal(t, "svc-clean", health.Services[0].ServiceID)
	assert.False(t, health.Services[0].IsStale)
	assert.Empty(t, health.FailedLoads)

	w = do(t, router, http.MethodPost, "/internal/admin/catalog/invalidate", InvalidateRequest{ServiceIDs: []string{"svc-clean"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, "/internal/admin/catalog/invalidate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Catalog)
}

func TestHandlersWithoutInit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/internal"))

	w := do(t, router, http.MethodGet, "/internal/submissions/x", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = do(t, router, http.MethodGet, "/internal/admin/catalog/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
