package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harshpatel5940/stripevigil/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvents struct {
	events      []*models.Event
	err         error
	gotLimit    int
	gotOffset   int
	countByKind map[string]int
}

func (f *fakeEvents) List(_ context.Context, limit, offset int) ([]*models.Event, int, error) {
	f.gotLimit, f.gotOffset = limit, offset
	return f.events, len(f.events), f.err
}

func (f *fakeEvents) GetByEventID(_ context.Context, id string) (*models.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.events {
		if e.EventID == id {
			return e, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeEvents) CountByKind(context.Context) (map[string]int, error) {
	return f.countByKind, f.err
}

type fakeCheckouts struct {
	sessions []*models.CheckoutSession
}

func (f *fakeCheckouts) List(context.Context, int, int) ([]*models.CheckoutSession, int, error) {
	return f.sessions, len(f.sessions), nil
}

func (f *fakeCheckouts) GetBySessionID(_ context.Context, id string) (*models.CheckoutSession, error) {
	for _, c := range f.sessions {
		if c.SessionID == id {
			return c, nil
		}
	}
	return nil, models.ErrNotFound
}

type fakeSubscriptions struct {
	subs []*models.Subscription
}

func (f *fakeSubscriptions) List(context.Context, int, int) ([]*models.Subscription, int, error) {
	return f.subs, len(f.subs), nil
}

func (f *fakeSubscriptions) GetBySubscriptionID(_ context.Context, id string) (*models.Subscription, error) {
	for _, s := range f.subs {
		if s.SubscriptionID == id {
			return s, nil
		}
	}
	return nil, models.ErrNotFound
}

var receivedAt = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestHandler(events *fakeEvents) (*Handler, *fakeCheckouts, *fakeSubscriptions) {
	checkouts := &fakeCheckouts{}
	subs := &fakeSubscriptions{}
	return NewHandler(events, checkouts, subs, zerolog.Nop()), checkouts, subs
}

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListEvents(t *testing.T) {
	events := &fakeEvents{events: []*models.Event{
		{EventID: "evt_1", EventType: "checkout.session.completed", Kind: "checkout_completed", Object: json.RawMessage(`{"id":"cs_1"}`), ReceivedAt: receivedAt},
		{EventID: "evt_2", EventType: "something.new", Kind: "unknown", ReceivedAt: receivedAt},
	}}
	h, _, _ := newTestHandler(events)

	rec := serve(h, "/events?page=3&per_page=10")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp EventsListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 3, resp.Page)
	assert.Equal(t, 10, resp.PerPage)
	assert.Equal(t, 10, events.gotLimit)
	assert.Equal(t, 20, events.gotOffset)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "evt_1", resp.Events[0].ID)
	assert.JSONEq(t, `{"id":"cs_1"}`, string(resp.Events[0].Object))
}

func TestListEvents_PaginationBounds(t *testing.T) {
	events := &fakeEvents{}
	h, _, _ := newTestHandler(events)

	rec := serve(h, "/events?page=0&per_page=500")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 20, events.gotLimit)
	assert.Equal(t, 0, events.gotOffset)
	assert.JSONEq(t, `{"events":[],"total":0,"page":1,"per_page":20}`, rec.Body.String())
}

func TestListEvents_HugePageDoesNotOverflow(t *testing.T) {
	events := &fakeEvents{}
	h, _, _ := newTestHandler(events)

	rec := serve(h, "/events?page=9223372036854775807&per_page=100")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 100, events.gotLimit)
	assert.GreaterOrEqual(t, events.gotOffset, 0)
	assert.Equal(t, (math.MaxInt/100-1)*100, events.gotOffset)
}

func TestListEvents_StoreError(t *testing.T) {
	h, _, _ := newTestHandler(&fakeEvents{err: errors.New("boom")})

	rec := serve(h, "/events")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to list events")
}

func TestGetEvent(t *testing.T) {
	events := &fakeEvents{events: []*models.Event{
		{EventID: "evt_1", EventType: "x", Kind: "unknown", ReceivedAt: receivedAt},
	}}
	h, _, _ := newTestHandler(events)

	rec := serve(h, "/events/evt_1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"evt_1"`)

	rec = serve(h, "/events/evt_missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found","message":"event not found"}`, rec.Body.String())
}

func TestCheckoutsAndSubscriptions(t *testing.T) {
	h, checkouts, subs := newTestHandler(&fakeEvents{})
	amount := int64(4999)
	checkouts.sessions = []*models.CheckoutSession{{SessionID: "cs_1", EventID: "evt_1", AmountTotal: &amount, CompletedAt: receivedAt}}
	subs.subs = []*models.Subscription{{SubscriptionID: "sub_1", EventID: "evt_2", Status: "canceled", DeletedAt: receivedAt}}

	rec := serve(h, "/checkouts")
	require.Equal(t, http.StatusOK, rec.Code)
	var list CheckoutsListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Checkouts, 1)
	assert.Equal(t, int64(4999), *list.Checkouts[0].AmountTotal)

	assert.Equal(t, http.StatusOK, serve(h, "/checkouts/cs_1").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, "/checkouts/cs_2").Code)

	rec = serve(h, "/subscriptions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"canceled"`)

	assert.Equal(t, http.StatusOK, serve(h, "/subscriptions/sub_1").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, "/subscriptions/sub_2").Code)
}

func TestGetStats(t *testing.T) {
	h, checkouts, _ := newTestHandler(&fakeEvents{countByKind: map[string]int{
		"checkout_completed":   3,
		"subscription_deleted": 1,
		"unknown":              6,
	}})
	checkouts.sessions = []*models.CheckoutSession{{SessionID: "cs_1"}, {SessionID: "cs_2"}}

	rec := serve(h, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 10, stats.TotalEvents)
	assert.Equal(t, 3, stats.EventsByKind["checkout_completed"])
	assert.Equal(t, 2, stats.Checkouts)
	assert.Equal(t, 0, stats.Subscriptions)
}
