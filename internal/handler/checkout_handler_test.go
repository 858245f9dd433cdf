package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliebuilding/fnl-website/internal/catalog"
	"github.com/charliebuilding/fnl-website/internal/gateway"
	"github.com/charliebuilding/fnl-website/internal/repository"
	"github.com/charliebuilding/fnl-website/internal/service"
	"github.com/charliebuilding/fnl-website/pkg/response"
)

type checkoutFixture struct {
	router *gin.Engine
	gw     *gateway.MockGateway
}

func newHandlerFixture(t *testing.T, capacity int) *checkoutFixture {
	t.Helper()
	cat, err := catalog.New(&catalog.Event{
		ID:      "test-5k",
		Name:    "Test 5K",
		DateISO: "2026-06-01",
		Tiers: []catalog.Tier{
			{ID: "general", Name: "General Entry", Price: 2000, TotalCapacity: capacity},
		},
	})
	require.NoError(t, err)

	reservations := service.NewReservationService(cat, repository.NewMemoryCapacityLedger(),
		repository.NewMemoryHoldStore(), repository.NewMemoryRegistrationRepository(), nil, nil)
	gw := gateway.NewMockGateway()
	checkout := service.NewCheckoutService(cat, reservations, gw, nil)

	h := NewCheckoutHandler(checkout)
	router := gin.New()
	router.POST("/api/v1/checkout", h.StartCheckout)
	router.GET("/api/v1/events/:event_id/tiers/:tier_id/quote", h.Quote)

	return &checkoutFixture{router: router, gw: gw}
}

func checkoutBody(eventID, tierID string, quantity int) []byte {
	runners := make([]map[string]string, quantity)
	for i := range runners {
		runners[i] = map[string]string{
			"first_name": "Runner",
			"last_name":  fmt.Sprintf("Number%d", i+1),
		}
	}
	body, _ := json.Marshal(map[string]interface{}{
		"event_id":   eventID,
		"tier_id":    tierID,
		"runners":    runners,
		"lead_email": "lead@example.com",
	})
	return body
}

func (f *checkoutFixture) postCheckout(t *testing.T, body []byte) (*httptest.ResponseRecorder, *response.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var envelope response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, &envelope
}

func TestCheckoutHandler_StartCheckout(t *testing.T) {
	f := newHandlerFixture(t, 10)

	rec, envelope := f.postCheckout(t, checkoutBody("test-5k", "general", 4))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, envelope.Success)

	data := envelope.Data.(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	assert.NotEmpty(t, data["session_id"])
	assert.Contains(t, data["checkout_url"], "checkout.stripe.com")
	assert.Equal(t, float64(4), data["quantity"])
	assert.Equal(t, float64(1800), data["unit_price"])
	assert.Equal(t, float64(7200), data["total_price"])
	assert.Equal(t, true, data["discounted"])
}

func TestCheckoutHandler_StartCheckoutValidation(t *testing.T) {
	f := newHandlerFixture(t, 10)

	tests := []struct {
		name string
		body []byte
	}{
		{"malformed json", []byte(`{`)},
		{"missing event_id", checkoutBody("", "general", 1)},
		{"no runners", checkoutBody("test-5k", "general", 0)},
		{"too many runners", checkoutBody("test-5k", "general", 7)},
		{"bad lead email", func() []byte {
			body, _ := json.Marshal(map[string]interface{}{
				"event_id":   "test-5k",
				"tier_id":    "general",
				"runners":    []map[string]string{{"first_name": "A", "last_name": "B"}},
				"lead_email": "not-an-email",
			})
			return body
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, envelope := f.postCheckout(t, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, envelope.Success)
			assert.Equal(t, "INVALID_REQUEST", envelope.Error.Code)
		})
	}
}

func TestCheckoutHandler_StartCheckoutUnknownEvent(t *testing.T) {
	f := newHandlerFixture(t, 10)

	rec, envelope := f.postCheckout(t, checkoutBody("no-such-event", "general", 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestCheckoutHandler_StartCheckoutSoldOut(t *testing.T) {
	f := newHandlerFixture(t, 1)

	rec, _ := f.postCheckout(t, checkoutBody("test-5k", "general", 1))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, envelope := f.postCheckout(t, checkoutBody("test-5k", "general", 1))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SOLD_OUT", envelope.Error.Code)
}

func TestCheckoutHandler_StartCheckoutInsufficientCapacity(t *testing.T) {
	f := newHandlerFixture(t, 5)

	rec, _ := f.postCheckout(t, checkoutBody("test-5k", "general", 3))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, envelope := f.postCheckout(t, checkoutBody("test-5k", "general", 3))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INSUFFICIENT_CAPACITY", envelope.Error.Code)

	details := envelope.Error.Details.(map[string]interface{})
	assert.Equal(t, float64(2), details["available"])
}

func TestCheckoutHandler_StartCheckoutGatewayFailure(t *testing.T) {
	f := newHandlerFixture(t, 10)
	f.gw.FailNext = true

	rec, envelope := f.postCheckout(t, checkoutBody("test-5k", "general", 1))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)

	// The failed attempt released its hold, so the retry succeeds
	rec, _ = f.postCheckout(t, checkoutBody("test-5k", "general", 1))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCheckoutHandler_Quote(t *testing.T) {
	f := newHandlerFixture(t, 10)

	tests := []struct {
		name       string
		url        string
		wantStatus int
		check      func(t *testing.T, envelope *response.Response)
	}{
		{
			name:       "default quantity",
			url:        "/api/v1/events/test-5k/tiers/general/quote",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, envelope *response.Response) {
				data := envelope.Data.(map[string]interface{})
				assert.Equal(t, float64(1), data["quantity"])
				assert.Equal(t, float64(2000), data["unit_price"])
				assert.Equal(t, false, data["discounted"])
			},
		},
		{
			name:       "discounted group",
			url:        "/api/v1/events/test-5k/tiers/general/quote?quantity=5",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, envelope *response.Response) {
				data := envelope.Data.(map[string]interface{})
				assert.Equal(t, float64(1800), data["unit_price"])
				assert.Equal(t, float64(9000), data["total_price"])
				assert.Equal(t, true, data["discounted"])
			},
		},
		{
			name:       "non-numeric quantity",
			url:        "/api/v1/events/test-5k/tiers/general/quote?quantity=lots",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "oversized group",
			url:        "/api/v1/events/test-5k/tiers/general/quote?quantity=9",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown tier",
			url:        "/api/v1/events/test-5k/tiers/platinum/quote",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			f.router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.check != nil {
				var envelope response.Response
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
				tt.check(t, &envelope)
			}
		})
	}
}
