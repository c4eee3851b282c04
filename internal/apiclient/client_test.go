package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReorderSendsBodyAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/products/top-picks/reorder", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body struct {
			Order []OrderEntry `json:"order"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []OrderEntry{{ProductID: "b", Rank: 1}, {ProductID: "a", Rank: 2}}, body.Order)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"title":"B","rank":1},{"title":"A","rank":2}]`))
	}))
	defer srv.Close()

	client := New(srv.URL+"/", WithToken("tok"))
	products, err := client.ReorderTopPicks(context.Background(), []OrderEntry{{"b", 1}, {"a", 2}})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "B", products[0].Title)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"maximum of 6 top picks allowed"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ToggleTopPick(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, IsLimitExceeded(err))
	assert.False(t, IsNotFound(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "maximum of 6 top picks allowed", apiErr.Message)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).TopPicks(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			_, _ = w.Write([]byte(`{"token":"issued","user":{"username":"admin","role":"admin"}}`))
		case "/api/admin/top-picks":
			assert.Equal(t, "Bearer issued", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"topPicks":[{"title":"A"}],"limit":6}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := New(srv.URL)
	user, err := client.Login(context.Background(), "admin", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)
	assert.Equal(t, "issued", client.Token())

	picks, err := client.AdminTopPicks(context.Background())
	require.NoError(t, err)
	require.Len(t, picks, 1)
}
