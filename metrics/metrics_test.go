package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveHTTP("GET", "/api/trips", 200, 15*time.Millisecond)
		AddBookings(2)
		IncBookingEvent("booking_deleted")
		IncEmail("welcome", "sent")
		IncRateLimited("login")
	})

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `travlr_http_requests_total{method="GET",route="/api/trips",status="200"}`)
	assert.Contains(t, body, "travlr_bookings_created_total")
	assert.Contains(t, body, `travlr_booking_events_total{type="booking_deleted"}`)
	assert.Contains(t, body, `travlr_emails_total{kind="welcome",result="sent"}`)
	assert.Contains(t, body, `travlr_rate_limited_total{limiter="login"}`)
}
