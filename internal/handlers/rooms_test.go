package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/BigOtis/Polylogue/internal/api"
	"github.com/BigOtis/Polylogue/internal/cache"
	"github.com/BigOtis/Polylogue/internal/models"
	"github.com/BigOtis/Polylogue/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := store.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(st.Close)

	router := api.NewRouter(zerolog.Nop(), st, cache.NewMemoryCache(cache.DefaultTTL), nil)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postMessage(t *testing.T, srv *httptest.Server, room, name, message string) (int, map[string]any) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"name": name, "message": message})
	resp, err := http.Post(srv.URL+"/rooms/"+room+"/messages", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func getMessages(t *testing.T, srv *httptest.Server, path string) (int, []models.Message) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var msgs []models.Message
	json.NewDecoder(resp.Body).Decode(&msgs)
	return resp.StatusCode, msgs
}

func TestPostAndGetScenario(t *testing.T) {
	srv := newTestServer(t)

	// Empty room reads as an empty list, not an error
	status, msgs := getMessages(t, srv, "/rooms/general/messages?limit=10")
	if status != http.StatusOK || len(msgs) != 0 {
		t.Fatalf("empty room: status %d, %d messages", status, len(msgs))
	}

	// First post gets seq 1
	status, resp := postMessage(t, srv, "general", "A", "hi")
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if resp["status"] != "ok" || resp["seq"] != float64(1) {
		t.Fatalf("unexpected response: %v", resp)
	}

	status, msgs = getMessages(t, srv, "/rooms/general/messages?limit=10")
	if status != http.StatusOK || len(msgs) != 1 || msgs[0].Seq != 1 {
		t.Fatalf("after first post: status %d, messages %+v", status, msgs)
	}

	// Second post invalidates the cached single-message snapshot
	status, resp = postMessage(t, srv, "general", "B", "yo")
	if status != http.StatusCreated || resp["seq"] != float64(2) {
		t.Fatalf("second post: status %d, response %v", status, resp)
	}

	status, msgs = getMessages(t, srv, "/rooms/general/messages?limit=10")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(msgs) != 2 {
		t.Fatalf("stale cache: expected 2 messages immediately after post, got %d", len(msgs))
	}
	if msgs[0].Seq != 1 || msgs[1].Seq != 2 {
		t.Fatalf("messages not ascending by seq: %+v", msgs)
	}
	if msgs[0].Name != "A" || msgs[1].Name != "B" {
		t.Fatalf("unexpected senders: %+v", msgs)
	}
}

func TestGetMessagesSinceSeq(t *testing.T) {
	srv := newTestServer(t)

	postMessage(t, srv, "general", "A", "one")
	postMessage(t, srv, "general", "B", "two")
	postMessage(t, srv, "general", "A", "three")

	status, msgs := getMessages(t, srv, "/rooms/general/messages?limit=10&since_seq=1")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(msgs) != 2 || msgs[0].Seq != 2 || msgs[1].Seq != 3 {
		t.Fatalf("since_seq filter wrong: %+v", msgs)
	}
}

func TestPostValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"message":"hi"}`},
		{"missing message", `{"name":"A"}`},
		{"blank fields", `{"name":"  ","message":"  "}`},
		{"not json", `who goes there`},
	}
	for _, c := range cases {
		resp, err := http.Post(srv.URL+"/rooms/general/messages", "application/json", bytes.NewReader([]byte(c.body)))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", c.name, resp.StatusCode)
		}
	}

	// Rejected writes never reach the log
	status, msgs := getMessages(t, srv, "/rooms/general/messages?limit=10")
	if status != http.StatusOK || len(msgs) != 0 {
		t.Fatalf("invalid posts leaked into the log: %+v", msgs)
	}
}

func TestPostMessageTooLong(t *testing.T) {
	srv := newTestServer(t)

	huge := bytes.Repeat([]byte("a"), 5000)
	body, _ := json.Marshal(map[string]string{"name": "A", "message": string(huge)})
	resp, err := http.Post(srv.URL+"/rooms/general/messages", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestInvalidRoomName(t *testing.T) {
	srv := newTestServer(t)

	status, _ := getMessages(t, srv, "/rooms/no%20spaces/messages")
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid room name, got %d", status)
	}
}

func TestCacheIsolationAcrossRooms(t *testing.T) {
	srv := newTestServer(t)

	postMessage(t, srv, "alpha", "A", "first")
	postMessage(t, srv, "beta", "B", "other")

	// Prime both room caches
	getMessages(t, srv, "/rooms/alpha/messages?limit=10")
	getMessages(t, srv, "/rooms/beta/messages?limit=10")

	// A write to beta must not disturb alpha's cache, and beta's own cache
	// must reflect the write immediately.
	postMessage(t, srv, "beta", "B", "again")

	_, alpha := getMessages(t, srv, "/rooms/alpha/messages?limit=10")
	if len(alpha) != 1 {
		t.Fatalf("alpha affected by write to beta: %+v", alpha)
	}
	_, beta := getMessages(t, srv, "/rooms/beta/messages?limit=10")
	if len(beta) != 2 {
		t.Fatalf("beta cache stale after write: %+v", beta)
	}
}

func TestListRoomsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/rooms")
	if err != nil {
		t.Fatal(err)
	}
	var rooms []string
	json.NewDecoder(resp.Body).Decode(&rooms)
	resp.Body.Close()
	if len(rooms) != 0 {
		t.Fatalf("expected no rooms, got %v", rooms)
	}

	postMessage(t, srv, "general", "A", "hi")
	postMessage(t, srv, "lounge", "B", "yo")

	resp, err = http.Get(srv.URL + "/rooms")
	if err != nil {
		t.Fatal(err)
	}
	json.NewDecoder(resp.Body).Decode(&rooms)
	resp.Body.Close()
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %v", rooms)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var health struct {
		Status string                       `json:"status"`
		Checks map[string]map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "healthy" {
		t.Fatalf("expected healthy, got %q", health.Status)
	}
	if health.Checks["store"]["status"] != "pass" {
		t.Fatalf("store check failed: %v", health.Checks)
	}
}

func TestMessageTimestampsPresent(t *testing.T) {
	srv := newTestServer(t)

	before := time.Now().Add(-time.Minute)
	postMessage(t, srv, "general", "A", "hi")

	_, msgs := getMessages(t, srv, "/rooms/general/messages?limit=10")
	if len(msgs) != 1 {
		t.Fatal("expected one message")
	}
	if !msgs[0].Timestamp.After(before) {
		t.Fatalf("timestamp not stamped: %v", msgs[0].Timestamp)
	}
}
