package polylogue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms/general/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "30" || r.URL.Query().Get("since_seq") != "5" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode([]Message{
			{ID: "01A", Room: "general", Name: "A", Body: "hi", Seq: 6, Timestamp: time.Now()},
			{ID: "01B", Room: "general", Name: "B", Body: "yo", Seq: 7, Timestamp: time.Now()},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	msgs, err := c.Messages(context.Background(), "general", 30, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Seq != 6 || msgs[1].Body != "yo" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestPostMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rooms/general/messages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req PostMessageRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Name != "Ada" || req.Message != "hello" {
			t.Errorf("unexpected body: %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(PostMessageResponse{Status: "ok", Seq: 3})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.PostMessage(context.Background(), "general", "Ada", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Seq != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "name and message are required"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.PostMessage(context.Background(), "general", "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "polylogue error 400: name and message are required" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestRoomNameEscapedInPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		json.NewEncoder(w).Encode([]Message{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	// A slash or query metacharacter in the room name must not change the
	// request shape; the server rejects the name, not a different route.
	if _, err := c.Messages(context.Background(), "a/b?c", 10, 0); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/rooms/a%2Fb%3Fc/messages" {
		t.Fatalf("room not path-escaped: %q", gotPath)
	}

	// Only the request path matters here; the stub's response shape doesn't
	// decode as a post response.
	_, _ = c.PostMessage(context.Background(), "x/y", "Ada", "hi")
	if gotPath != "/rooms/x%2Fy/messages" {
		t.Fatalf("room not path-escaped on post: %q", gotPath)
	}
}

func TestRooms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]string{"general", "lounge"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	rooms, err := c.Rooms(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 2 || rooms[0] != "general" {
		t.Fatalf("unexpected rooms: %v", rooms)
	}
}
