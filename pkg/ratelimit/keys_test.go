package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func TestClientIdentity(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "forwarded user wins",
			headers:    map[string]string{"X-Forwarded-User": "alice", "X-Forwarded-For": "10.0.0.1"},
			remoteAddr: "192.168.1.1:1234",
			want:       "alice",
		},
		{
			name:       "first forwarded-for hop",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2, 10.0.0.3"},
			remoteAddr: "192.168.1.1:1234",
			want:       "10.0.0.1",
		},
		{
			name:       "single forwarded-for entry",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.9"},
			remoteAddr: "192.168.1.1:1234",
			want:       "10.0.0.9",
		},
		{
			name:       "real ip fallback",
			headers:    map[string]string{"X-Real-IP": "10.0.0.5"},
			remoteAddr: "192.168.1.1:1234",
			want:       "10.0.0.5",
		},
		{
			name:       "peer address fallback",
			remoteAddr: "192.168.1.1:1234",
			want:       "192.168.1.1",
		},
		{
			name:       "peer address without port",
			remoteAddr: "192.168.1.1",
			want:       "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/things", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := ClientIdentity(req); got != tt.want {
				t.Errorf("ClientIdentity() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRoutePath(t *testing.T) {
	t.Run("returns the route template", func(t *testing.T) {
		router := mux.NewRouter()
		var got string
		router.HandleFunc("/v1/things/{id}", func(w http.ResponseWriter, r *http.Request) {
			got = RoutePath(r)
		})

		req := httptest.NewRequest("GET", "/v1/things/42", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		if got != "/v1/things/{id}" {
			t.Errorf("RoutePath() = %q, want /v1/things/{id}", got)
		}
	})

	t.Run("falls back to the raw path", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/things/42", nil)
		if got := RoutePath(req); got != "/v1/things/42" {
			t.Errorf("RoutePath() = %q, want /v1/things/42", got)
		}
	})
}
