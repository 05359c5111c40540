package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"loadly/models"
	"loadly/services/api"
)

const defaultListLimit = 20

// Lister pages through the back-office collections.
type Lister struct {
	client *api.Client
}

func NewLister(client *api.Client) *Lister {
	return &Lister{client: client}
}

func normalizeQuery(q models.BookingQuery) url.Values {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > fallbackPageLimit {
		q.Limit = defaultListLimit
	}
	v := url.Values{
		"page":  {fmt.Sprint(q.Page)},
		"limit": {fmt.Sprint(q.Limit)},
	}
	if s := strings.TrimSpace(q.Status); s != "" {
		v.Set("status", strings.ToUpper(s))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	return v
}

func list[T any](ctx context.Context, c *api.Client, base string, q models.BookingQuery, fallback string) (api.Page[T], error) {
	var raw json.RawMessage
	if err := c.Get(ctx, listPath(base, normalizeQuery(q)), &raw); err != nil {
		return api.Page[T]{}, api.Normalize(err, fallback)
	}
	page, err := api.DecodePage[T](raw)
	if err != nil {
		return page, fmt.Errorf("%w: %v", api.ErrInvalidResponse, err)
	}
	return page, nil
}

func (l *Lister) Bookings(ctx context.Context, q models.BookingQuery) (api.Page[models.Booking], error) {
	return list[models.Booking](ctx, l.client, "/bookings/admin/all", q, "Failed to load bookings")
}

func (l *Lister) Users(ctx context.Context, q models.BookingQuery) (api.Page[models.User], error) {
	return list[models.User](ctx, l.client, "/admin/users", q, "Failed to load users")
}

func (l *Lister) Vehicles(ctx context.Context, q models.BookingQuery) (api.Page[models.Vehicle], error) {
	return list[models.Vehicle](ctx, l.client, "/vehicles", q, "Failed to load vehicles")
}

func (l *Lister) Coupons(ctx context.Context, q models.BookingQuery) (api.Page[models.Coupon], error) {
	return list[models.Coupon](ctx, l.client, "/coupons", q, "Failed to load coupons")
}

func (l *Lister) Notifications(ctx context.Context, q models.BookingQuery) (api.Page[models.Notification], error) {
	return list[models.Notification](ctx, l.client, "/notifications", q, "Failed to load notifications")
}
