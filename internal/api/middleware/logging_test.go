package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func logOneRequest(t *testing.T, status int, body string) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := chi.NewRouter()
	r.Use(Logger(logger))
	r.Get("/rooms/{room}/messages", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	})

	req := httptest.NewRequest(http.MethodGet, "/rooms/general/messages", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unparsable log line %q: %v", buf.String(), err)
	}
	return line
}

func TestLoggerRecordsRoutePattern(t *testing.T) {
	line := logOneRequest(t, http.StatusOK, "[]")

	if line["route"] != "/rooms/{room}/messages" {
		t.Fatalf("expected route pattern, got %v", line["route"])
	}
	if line["path"] != "/rooms/general/messages" {
		t.Fatalf("raw path not logged: %v", line["path"])
	}
	if line["status"] != float64(http.StatusOK) {
		t.Fatalf("status not logged: %v", line["status"])
	}
	if line["bytes"] != float64(2) {
		t.Fatalf("response size not logged: %v", line["bytes"])
	}
	if line["level"] != "info" {
		t.Fatalf("2xx should log at info, got %v", line["level"])
	}
}

func TestLoggerRaisesServerErrorsToErrorLevel(t *testing.T) {
	line := logOneRequest(t, http.StatusInternalServerError, `{"error":"storage unavailable"}`)

	if line["level"] != "error" {
		t.Fatalf("5xx should log at error, got %v", line["level"])
	}
}
