// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

const upstreamReply = `{"id":"chatcmpl-1","choices":[{"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// newTestRelay wires a relay in front of a fake upstream and returns
// both test servers plus the last body the upstream saw.
func newTestRelay(t *testing.T, upstream http.HandlerFunc) (*httptest.Server, *Server) {
	t.Helper()

	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	cfg := DefaultConfig()
	cfg.Endpoint = up.URL
	cfg.RateLimitPerMinute = 0
	s := NewServer(cfg, testLogger())

	front := httptest.NewServer(s.Handler())
	t.Cleanup(front.Close)
	return front, s
}

func postChat(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/api/chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/chat: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestChatInjectsBearerAndPinsModel(t *testing.T) {
	var gotAuth string
	var gotBody upstreamRequest

	front, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("upstream body: %v", err)
		}
		if bytes.Contains(raw, []byte("apiKey")) {
			t.Error("apiKey leaked into upstream body")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(upstreamReply))
	})

	resp := postChat(t, front.URL, `{"apiKey":"xai-secret","messages":[{"role":"user","content":"hello"}],"temperature":0.3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if gotAuth != "Bearer xai-secret" {
		t.Errorf("Authorization = %q, want bearer header", gotAuth)
	}
	if gotBody.Model != DefaultModel {
		t.Errorf("model = %q, want %q", gotBody.Model, DefaultModel)
	}
	if gotBody.Stream {
		t.Error("stream should be pinned to false")
	}
	if gotBody.Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", gotBody.Temperature)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Content != "hello" {
		t.Errorf("messages not forwarded: %+v", gotBody.Messages)
	}
}

func TestChatRelaysSuccessBodyVerbatim(t *testing.T) {
	front, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(upstreamReply))
	})

	resp := postChat(t, front.URL, `{"apiKey":"k","messages":[{"role":"user","content":"x"}]}`)
	body, _ := io.ReadAll(resp.Body)

	if string(body) != upstreamReply {
		t.Errorf("body not relayed verbatim:\ngot  %s\nwant %s", body, upstreamReply)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestChatDefaultsTemperature(t *testing.T) {
	var gotBody upstreamRequest
	front, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(upstreamReply))
	})

	postChat(t, front.URL, `{"apiKey":"k","messages":[{"role":"user","content":"x"}]}`)
	if gotBody.Temperature != DefaultTemperature {
		t.Errorf("temperature = %v, want default %v", gotBody.Temperature, DefaultTemperature)
	}
}

func TestChatMissingAPIKey(t *testing.T) {
	called := false
	front, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	resp := postChat(t, front.URL, `{"messages":[{"role":"user","content":"x"}]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if called {
		t.Error("upstream should not be contacted without a key")
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if er.Error != "Missing apiKey" {
		t.Errorf("error = %q", er.Error)
	}
}

func TestChatMissingMessages(t *testing.T) {
	front, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {})

	resp := postChat(t, front.URL, `{"apiKey":"k"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChatInvalidJSON(t *testing.T) {
	front, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {})

	resp := postChat(t, front.URL, `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChatUpstreamErrorPassedThrough(t *testing.T) {
	front, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	})

	resp := postChat(t, front.URL, `{"apiKey":"bad","messages":[{"role":"user","content":"x"}]}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if er.Error != "Upstream request failed" {
		t.Errorf("error = %q", er.Error)
	}
	if !strings.Contains(er.Details, "invalid api key") {
		t.Errorf("details = %q, want upstream body", er.Details)
	}
}

func TestChatUpstreamUnreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Endpoint = "http://127.0.0.1:1/nothing"
	cfg.RateLimitPerMinute = 0
	s := NewServer(cfg, testLogger())
	front := httptest.NewServer(s.Handler())
	defer front.Close()

	resp := postChat(t, front.URL, `{"apiKey":"k","messages":[{"role":"user","content":"x"}]}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	front, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {})

	resp, err := http.Get(front.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var hr healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hr.Status != "OK" {
		t.Errorf("status = %q, want OK", hr.Status)
	}
}

func TestCORSPreflight(t *testing.T) {
	front, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {})

	req, _ := http.NewRequest(http.MethodOptions, front.URL+"/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Allow-Origin = %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "POST") {
		t.Errorf("Allow-Methods = %q", resp.Header.Get("Access-Control-Allow-Methods"))
	}
}

func TestCORSAllowlistRejectsUnknownOrigin(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(upstreamReply))
	}))
	defer up.Close()

	cfg := DefaultConfig()
	cfg.Endpoint = up.URL
	cfg.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.RateLimitPerMinute = 0
	s := NewServer(cfg, testLogger())
	front := httptest.NewServer(s.Handler())
	defer front.Close()

	req, _ := http.NewRequest(http.MethodGet, front.URL+"/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want no CORS headers for unlisted origin", got)
	}
}

func TestRateLimitReturns429(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer up.Close()

	cfg := DefaultConfig()
	cfg.Endpoint = up.URL
	cfg.RateLimitPerMinute = 1
	s := NewServer(cfg, testLogger())
	front := httptest.NewServer(s.Handler())
	defer front.Close()

	var got429 bool
	for i := 0; i < 5; i++ {
		resp, err := http.Get(front.URL + "/health")
		if err != nil {
			t.Fatalf("GET /health: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			got429 = true
			break
		}
	}
	if !got429 {
		t.Error("limiter never rejected with burst exhausted")
	}
}

func TestRequestIDHeader(t *testing.T) {
	front, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {})

	resp, err := http.Get(front.URL + "/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	front, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {})

	resp, err := http.Get(front.URL + "/api/chat")
	if err != nil {
		t.Fatalf("GET /api/chat: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
