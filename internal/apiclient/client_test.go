package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"apartadmin/internal/models"
	"apartadmin/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *session.Session {
	return session.New("test-token", "test-key")
}

func TestClient_RequestHeaders(t *testing.T) {
	var gotAuth, gotKey, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("x-api-key")
		gotReqID = r.Header.Get("X-Request-ID")
		_ = json.NewEncoder(w).Encode([]apartmentWire{})
	}))
	defer srv.Close()

	c := NewApartmentClient(srv.URL, newTestSession())
	_, err := c.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "test-key", gotKey)
	assert.NotEmpty(t, gotReqID)
}

func TestClient_EmptySessionFailsLocally(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewApartmentClient(srv.URL, session.New("", "key"))
	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrUnauthorized)
	assert.False(t, called, "no request may leave the client without a token")
}

func TestClient_UnauthorizedInvalidatesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sess := newTestSession()
	c := NewApartmentClient(srv.URL, sess)

	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrUnauthorized)
	assert.False(t, sess.Valid(), "a 401 must force the session out")
}

func TestClient_BackendErrorDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"name already taken"}`))
	}))
	defer srv.Close()

	c := NewApartmentClient(srv.URL, newTestSession())
	_, err := c.Create(context.Background(), models.Apartment{Name: "X", City: "Cluj"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "name already taken", apiErr.Message)
}

func TestApartmentClient_List_NormalizesWire(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/all", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"_id":"m1","name":"One","city":"Cluj","displayOrder":3},
			{"id":"p2","name":"Two","city":"Cluj","position":1},
			{"_id":"m3","id":"ignored","name":"Three","city":"Cluj"}
		]`))
	}))
	defer srv.Close()

	c := NewApartmentClient(srv.URL, newTestSession())
	records, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "m1", records[0].ID)
	assert.True(t, records[0].OrderSet)
	assert.Equal(t, 3, records[0].DisplayOrder)

	// Legacy `position` counts as an ordering key too.
	assert.Equal(t, "p2", records[1].ID)
	assert.True(t, records[1].OrderSet)
	assert.Equal(t, 1, records[1].DisplayOrder)

	// `_id` wins when both identifiers are present; no ordering key at all.
	assert.Equal(t, "m3", records[2].ID)
	assert.False(t, records[2].OrderSet)
}

func TestApartmentClient_List_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[{"_id":"m1","name":"One","city":"Cluj","displayOrder":0}]`))
	}))
	defer srv.Close()

	c := NewApartmentClient(srv.URL, newTestSession())
	c.UseRedisCache(rdb, time.Minute)

	for i := 0; i < 3; i++ {
		records, err := c.List(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "m1", records[0].ID)
	}
	assert.Equal(t, int32(1), hits.Load(), "repeat lists must be served from cache")
}

func TestApartmentClient_Update_DropsCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"_id":"m1","name":"One","city":"Cluj","displayOrder":0}]`))
		case http.MethodPut:
			assert.Equal(t, "/m1", r.URL.Path)
			var wire apartmentWire
			require.NoError(t, json.NewDecoder(r.Body).Decode(&wire))
			_ = json.NewEncoder(w).Encode(wire)
		}
	}))
	defer srv.Close()

	c := NewApartmentClient(srv.URL, newTestSession())
	c.UseRedisCache(rdb, time.Minute)

	_, err := c.List(context.Background())
	require.NoError(t, err)
	assert.True(t, mr.Exists("apartments"))

	_, err = c.Update(context.Background(), models.Apartment{ID: "m1", Name: "One", City: "Cluj"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("apartments"), "mutations must invalidate the list cache")
}

func TestApartmentClient_BlockedDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			assert.Equal(t, "/apt-1/blocked-dates", r.URL.Path)
			_, _ = w.Write([]byte(`[{"_id":"b1","startDate":"2026-09-01","endDate":"2026-09-05","reason":"maintenance"}]`))
		case r.Method == http.MethodPost:
			assert.Equal(t, "/apt-1/blocked-dates", r.URL.Path)
			_, _ = w.Write([]byte(`{"_id":"b2","startDate":"2026-10-01","endDate":"2026-10-02"}`))
		}
	}))
	defer srv.Close()

	c := NewApartmentClient(srv.URL, newTestSession())

	dates, err := c.ListBlockedDates(context.Background(), "apt-1")
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.Equal(t, "b1", dates[0].ID)
	assert.Equal(t, "apt-1", dates[0].ApartmentID)
	assert.Equal(t, "maintenance", dates[0].Reason)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), dates[0].StartDate)

	created, err := c.CreateBlockedDate(context.Background(), models.BlockedDate{
		ApartmentID: "apt-1",
		StartDate:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "b2", created.ID)
}

func TestReservationClient_RetrySync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/res-ok/retry-sync":
			_, _ = w.Write([]byte(`{"success":true}`))
		case "/res-bad/retry-sync":
			_, _ = w.Write([]byte(`{"success":false,"message":"channel manager offline"}`))
		}
	}))
	defer srv.Close()

	c := NewReservationClient(srv.URL, newTestSession())

	require.NoError(t, c.RetrySync(context.Background(), "res-ok"))

	err := c.RetrySync(context.Background(), "res-bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel manager offline")
}

func TestAuthClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["password"] != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"jwt-123"}`))
	}))
	defer srv.Close()

	c := NewAuthClient(srv.URL, "svc-key")

	token, err := c.Login(context.Background(), "admin", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "jwt-123", token)

	sess := c.NewSession(token)
	assert.True(t, sess.Valid())
	assert.Equal(t, "svc-key", sess.APIKey())

	_, err = c.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad credentials")
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2026-08-28")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDate("2026-08-28T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	got, err = parseDate("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseDate("not-a-date")
	assert.Error(t, err)
}
