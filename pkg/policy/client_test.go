package policy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_HasPermission(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/users/user-1/permissions/doc:read":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"allowed":true}`))
		case "/v1/users/user-1/permissions/doc:write":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"allowed":false}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second)
	ctx := context.Background()

	granted, err := client.HasPermission(ctx, "user-1", "doc:read")
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = client.HasPermission(ctx, "user-1", "doc:write")
	require.NoError(t, err)
	assert.False(t, granted)

	// Unknown code is not granted, not an error
	granted, err = client.HasPermission(ctx, "user-1", "doc:delete")
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestHTTPClient_HasRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users/user-1/roles/admin", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"allowed":true}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second)
	granted, err := client.HasRole(context.Background(), "user-1", "admin")
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestHTTPClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second)
	_, err := client.HasPermission(context.Background(), "user-1", "doc:read")
	assert.Error(t, err)
}

func TestHTTPClient_Unreachable(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := client.HasPermission(context.Background(), "user-1", "doc:read")
	assert.Error(t, err)
}
