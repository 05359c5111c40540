package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"loadly/models"
	"loadly/services/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQuery(t *testing.T) {
	v := normalizeQuery(models.BookingQuery{})
	assert.Equal(t, "1", v.Get("page"))
	assert.Equal(t, "20", v.Get("limit"))
	assert.False(t, v.Has("status"))

	v = normalizeQuery(models.BookingQuery{Page: 3, Limit: 50, Status: " pending ", Search: "nairobi"})
	assert.Equal(t, url.Values{
		"page":   {"3"},
		"limit":  {"50"},
		"status": {"PENDING"},
		"search": {"nairobi"},
	}, v)
}

func TestListerBookings(t *testing.T) {
	var query url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bookings/admin/all", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		okData(w, map[string]any{
			"bookings":   []models.Booking{{ID: "b1"}, {ID: "b2"}},
			"pagination": map[string]int{"page": 2, "limit": 2, "total": 9},
		})
	})
	mux.HandleFunc("GET /coupons", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusForbidden, map[string]any{"success": false, "message": "Forbidden"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	l := NewLister(api.NewClient(srv.URL, nil, 5*time.Second, nil, nil))

	page, err := l.Bookings(context.Background(), models.BookingQuery{Page: 2, Limit: 2, Status: "completed"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 9, page.Total())
	assert.Equal(t, "COMPLETED", query.Get("status"))

	_, err = l.Coupons(context.Background(), models.BookingQuery{})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Forbidden", apiErr.Message)
}
