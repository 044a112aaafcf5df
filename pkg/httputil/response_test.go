package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWriteEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	before := time.Now().UnixMilli()
	WriteEnvelope(rec, http.StatusForbidden, "nope")
	after := time.Now().UnixMilli()

	if rec.Code != http.StatusForbidden {
		t.Errorf("Status = %d, want 403", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Body is not JSON: %v", err)
	}
	if body["code"].(float64) != 403 {
		t.Errorf("code = %v, want 403", body["code"])
	}
	if body["message"] != "nope" {
		t.Errorf("message = %v, want nope", body["message"])
	}
	if data, present := body["data"]; !present || data != nil {
		t.Errorf("data = %v, want explicit null", body["data"])
	}
	ts := int64(body["timestamp"].(float64))
	if ts < before || ts > after {
		t.Errorf("timestamp = %d, want within [%d, %d]", ts, before, after)
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, http.StatusCreated, map[string]string{"id": "42"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("Status = %d, want 201", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"id":"42"`) {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestParseJSONOrError(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x"}`))
		rec := httptest.NewRecorder()
		var p payload
		if !ParseJSONOrError(rec, req, &p) {
			t.Fatal("Valid JSON should parse")
		}
		if p.Name != "x" {
			t.Errorf("Name = %q, want x", p.Name)
		}
	})

	t.Run("invalid body writes 400 envelope", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{broken`))
		rec := httptest.NewRecorder()
		var p payload
		if ParseJSONOrError(rec, req, &p) {
			t.Fatal("Broken JSON should not parse")
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want 400", rec.Code)
		}
		var body map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("Error body is not an envelope: %v", err)
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", rec.Code)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mk := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mk("outer"), mk("inner"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"outer", "inner", "handler"}
	for i := range want {
		if i >= len(order) || order[i] != want[i] {
			t.Fatalf("Order = %v, want %v", order, want)
		}
	}
}
