package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crmterm/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", StaticToken("tok"), WithMaxBackoff(10*time.Millisecond))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// TestClient_Headers tests auth and request ID headers.
func TestClient_Headers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "/api/equipment", r.URL.Path)
		writeJSON(w, 200, []model.Equipment{{ID: 1, Name: "Tracker"}})
	})

	items, err := c.ListEquipment(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Tracker", items[0].Name)
}

// TestClient_LatestBid tests the query and the {data, pagination} envelope.
func TestClient_LatestBid(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "1", q.Get("limit"))
		assert.Equal(t, "createdAt", q.Get("sortBy"))
		assert.Equal(t, "desc", q.Get("sortOrder"))
		w.Write([]byte(`{"data":[{"id":42,"tema":"Pump repair","clientName":"Acme","createdAt":"2026-01-01T10:00:00Z"}],"pagination":{"page":1,"limit":1,"total":9,"totalPages":9}}`))
	})

	bid, ok, err := c.LatestBid(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), bid.ID)
	assert.Equal(t, "Pump repair", bid.Title)
}

func TestClient_LatestBidEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[],"pagination":{"page":1,"limit":1,"total":0,"totalPages":0}}`))
	})

	_, ok, err := c.LatestBid(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestClient_AuthError tests that 401 maps to AuthError.
func TestClient_AuthError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
	})

	_, err := c.ListClients(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "token expired")
}

// TestClient_StatusError tests that other failures carry the server message.
func TestClient_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such bid"})
	})

	_, err := c.GetBid(context.Background(), 9)
	require.Error(t, err)
	assert.False(t, IsAuthError(err))
	assert.True(t, IsNotFound(err))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "no such bid", se.Message)
}

// TestClient_RetryOn429 tests retrying after rate limiting.
func TestClient_RetryOn429(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, 200, []model.Role{{ID: 1, Name: "admin"}})
	})

	roles, err := c.ListRoles(context.Background())
	require.NoError(t, err)
	assert.Len(t, roles, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RetryExhausted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.ListUsers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
}

// TestClient_PostBody tests that create sends JSON and decodes the reply.
func TestClient_PostBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in model.BidInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Pump repair", in.Tema)
		writeJSON(w, http.StatusCreated, model.Bid{ID: 77, Tema: in.Tema, ClientID: in.ClientID})
	})

	bid, err := c.CreateBid(context.Background(), model.BidInput{Tema: "Pump repair", ClientID: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(77), bid.ID)
}

func TestClient_DeleteNoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/equipment/3", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.DeleteEquipment(context.Background(), 3))
}

// TestClient_CurrentUser tests the session endpoint and permission checks.
func TestClient_CurrentUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		writeJSON(w, 200, model.Session{
			User:        model.User{ID: 1, Login: "op"},
			Permissions: []string{model.PermBidCreate},
		})
	})

	s, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "op", s.User.Login)
	assert.True(t, s.Permissions.Has(model.PermBidCreate))
	assert.False(t, s.Permissions.Has(model.PermBidDelete))
	assert.NoError(t, c.Ping(context.Background()))
}

func TestListOptions_Values(t *testing.T) {
	v := ListOptions{
		Page:    2,
		Limit:   20,
		SortBy:  "id",
		Search:  "pump",
		Filters: map[string][]string{"status": {"Open", "Closed"}},
	}.Values()

	assert.Equal(t, "2", v.Get("page"))
	assert.Equal(t, "20", v.Get("limit"))
	assert.Equal(t, "id", v.Get("sortBy"))
	assert.Equal(t, "asc", v.Get("sortOrder"))
	assert.Equal(t, "pump", v.Get("search"))
	assert.Equal(t, []string{"Open", "Closed"}, v["status"])

	assert.Empty(t, ListOptions{}.Values())
}

type failingTokens struct{}

func (failingTokens) Token() (string, error) { return "", assert.AnError }

func TestClient_MissingToken(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/api", failingTokens{})
	_, err := c.ListBidTypes(context.Background())
	assert.True(t, IsAuthError(err))
}
