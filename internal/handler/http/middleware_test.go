package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

func TestLogging(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{name: "webhook accepted", method: http.MethodPost, path: "/telegram/webhook", status: http.StatusOK},
		{name: "unauthorized", method: http.MethodPost, path: "/telegram/webhook", status: http.StatusUnauthorized},
		{name: "implicit 200", method: http.MethodGet, path: "/health", status: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			handler := middleware.RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				_, _ = w.Write([]byte("ok"))
			})))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("failed to parse log entry: %v", err)
			}
			want := tt.status
			if want == 0 {
				want = http.StatusOK
			}
			if entry["status"] != float64(want) {
				t.Errorf("logged status = %v, want %d", entry["status"], want)
			}
			if entry["path"] != tt.path {
				t.Errorf("logged path = %v, want %s", entry["path"], tt.path)
			}
			if id, _ := entry["request_id"].(string); id == "" {
				t.Error("expected request_id in log entry")
			}
			if entry["bytes"] != float64(2) {
				t.Errorf("logged bytes = %v, want 2", entry["bytes"])
			}
		})
	}
}

func TestRecover(t *testing.T) {
	tests := []struct {
		name       string
		panicValue any
	}{
		{name: "string", panicValue: "something went wrong"},
		{name: "error", panicValue: fmt.Errorf("bot123:secret exploded")},
		{name: "number", panicValue: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := Recover(slog.New(slog.NewJSONHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.panicValue)
			}))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil))

			if rr.Code != http.StatusInternalServerError {
				t.Errorf("got status %d, want %d", rr.Code, http.StatusInternalServerError)
			}
			if !strings.Contains(rr.Body.String(), "internal server error") {
				t.Errorf("unexpected body %s", rr.Body.String())
			}
			if !strings.Contains(buf.String(), "panic recovered") {
				t.Errorf("expected panic log, got %s", buf.String())
			}
		})
	}

	t.Run("no panic", func(t *testing.T) {
		handler := Recover(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusAccepted {
			t.Errorf("got status %d, want %d", rr.Code, http.StatusAccepted)
		}
	})
}

func TestLimitRequestBody(t *testing.T) {
	tests := []struct {
		name     string
		maxBytes int64
		bodySize int
		want     int
	}{
		{name: "within limit", maxBytes: 1024, bodySize: 512, want: http.StatusOK},
		{name: "exactly at limit", maxBytes: 1024, bodySize: 1024, want: http.StatusOK},
		{name: "exceeds limit", maxBytes: 100, bodySize: 200, want: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := LimitRequestBody(tt.maxBytes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, err := io.ReadAll(r.Body); err != nil {
					w.WriteHeader(http.StatusRequestEntityTooLarge)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(strings.Repeat("a", tt.bodySize)))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("got status %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestThrottle(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 2)
	handler := Throttle(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i, code := range want {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil))
		if rr.Code != code {
			t.Errorf("request %d: got status %d, want %d", i+1, rr.Code, code)
		}
		if code == http.StatusTooManyRequests && rr.Header().Get("Retry-After") != "1" {
			t.Errorf("expected Retry-After header, got %q", rr.Header().Get("Retry-After"))
		}
	}
}
