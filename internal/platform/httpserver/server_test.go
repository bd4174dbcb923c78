package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crossvote/engine"
)

func newTestServer(t *testing.T) (*Server, engine.Module) {
	t.Helper()
	module := engine.NewInMemoryModule(nil)
	return New(module, nil, ":0"), module
}

func doJSON(t *testing.T, server *Server, method string, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doJSON(t, server, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz returned %d", rec.Code)
	}
}

func TestSubmitPostUnconfiguredSpaceMapsToConflict(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doJSON(t, server, http.MethodPost, "/api/engine/v1/posts",
		`{"owner_id":"o1","space_id":"ghost","name":"A","age":"20","city":"X","bio":"b"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for unconfigured space, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitPostInvalidBody(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doJSON(t, server, http.MethodPost, "/api/engine/v1/posts", `{`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad JSON, got %d", rec.Code)
	}
}

func TestVoteStatusMapping(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPut, "/api/engine/v1/spaces",
		`{"space_id":"s1","post_channel_id":"c1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("configure space: %d", rec.Code)
	}
	rec = doJSON(t, server, http.MethodPost, "/api/engine/v1/posts",
		`{"owner_id":"o1","space_id":"s1","name":"A","age":"20","city":"X","bio":"b"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}

	// Unknown message id maps to 404.
	rec = doJSON(t, server, http.MethodPost, "/api/engine/v1/votes",
		`{"message_id":"ghost","voter_id":"v1","kind":"smash"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown post, got %d", rec.Code)
	}

	// Self vote maps to 403.
	rec = doJSON(t, server, http.MethodPost, "/api/engine/v1/votes",
		`{"message_id":"msg-1","voter_id":"o1","kind":"smash"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for self vote, got %d", rec.Code)
	}

	// First vote lands, the duplicate maps to 409.
	rec = doJSON(t, server, http.MethodPost, "/api/engine/v1/votes",
		`{"message_id":"msg-1","voter_id":"v1","kind":"smash"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("vote: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, server, http.MethodPost, "/api/engine/v1/votes",
		`{"message_id":"msg-1","voter_id":"v1","kind":"reject"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate vote, got %d", rec.Code)
	}
}

func TestQuotaExceededMapsToTooManyRequests(t *testing.T) {
	server, _ := newTestServer(t)
	doJSON(t, server, http.MethodPut, "/api/engine/v1/spaces",
		`{"space_id":"s1","post_channel_id":"c1"}`)

	body := `{"owner_id":"o1","space_id":"s1","name":"A","age":"20","city":"X","bio":"b"}`
	for i := 0; i < 2; i++ {
		if rec := doJSON(t, server, http.MethodPost, "/api/engine/v1/posts", body); rec.Code != http.StatusCreated {
			t.Fatalf("post %d: %d", i+1, rec.Code)
		}
	}
	rec := doJSON(t, server, http.MethodPost, "/api/engine/v1/posts", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over quota, got %d", rec.Code)
	}
}

func TestGrantUnknownTierMapsToBadRequest(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doJSON(t, server, http.MethodPost, "/api/engine/v1/entitlements",
		`{"user_id":"u1","tier":"gold"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown tier, got %d", rec.Code)
	}
}
