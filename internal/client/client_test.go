package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dm/motion-go/internal/model"
)

// newTestClient creates a DefaultClient pointed at the given test server URL.
func newTestClient(t *testing.T, baseURL string) *DefaultClient {
	t.Helper()
	c, err := NewDefaultClient(ClientConfig{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewDefaultClient: %v", err)
	}
	return c
}

func TestNewDefaultClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewDefaultClient(ClientConfig{}); err == nil {
		t.Fatal("expected error for empty BaseURL")
	}
}

func TestNewDefaultClient_DefaultTimeout(t *testing.T) {
	c, err := NewDefaultClient(ClientConfig{BaseURL: "http://localhost:3000"})
	if err != nil {
		t.Fatalf("NewDefaultClient: %v", err)
	}
	if c.http.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", c.http.Timeout)
	}
	if c.BaseURL() != "http://localhost:3000" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
}

func TestPostSample(t *testing.T) {
	var got map[string]float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/motion" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/")
	err := c.PostSample(context.Background(), model.Sample{X: 0.1, Y: -9.8, Z: 3, Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("PostSample: %v", err)
	}
	want := map[string]float64{"x": 0.1, "y": -9.8, "z": 3}
	if len(got) != len(want) {
		t.Fatalf("body = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestPostSample_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request: "+strings.Repeat("x", 300), http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	err := c.PostSample(context.Background(), model.Sample{})
	if err == nil {
		t.Fatal("expected error for 400")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error %q does not mention the status", err)
	}
	if !strings.HasSuffix(err.Error(), "...") {
		t.Errorf("long body not truncated: %q", err)
	}
}

func TestPostSample_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newTestClient(t, srv.URL)
	if err := c.PostSample(ctx, model.Sample{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	}))
	defer srv.Close()

	if err := newTestClient(t, srv.URL).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if err := newTestClient(t, url).Ping(context.Background()); err == nil {
		t.Fatal("expected error for closed server")
	}
}

func TestTLS_SelfSigned(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	strict := newTestClient(t, srv.URL)
	if err := strict.PostSample(context.Background(), model.Sample{}); err == nil {
		t.Error("expected certificate error without InsecureSkipVerify")
	}

	insecure, err := NewDefaultClient(ClientConfig{BaseURL: srv.URL, InsecureSkipVerify: true})
	if err != nil {
		t.Fatalf("NewDefaultClient: %v", err)
	}
	if err := insecure.PostSample(context.Background(), model.Sample{}); err != nil {
		t.Errorf("PostSample with InsecureSkipVerify: %v", err)
	}
}
