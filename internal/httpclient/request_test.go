package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequest_PostJSONAndDecode(t *testing.T) {
	var gotBody map[string]string
	var gotQuery, gotHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/v1/things" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotHeader = r.Header.Get("X-Key")
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":42}`))
	}))
	defer srv.Close()

	client, err := NewInstrumentedClient(
		WithBaseURL(srv.URL+"/"),
		WithProviderName("test"),
		WithHeaders(map[string]string{"X-Key": "secret"}),
	)
	if err != nil {
		t.Fatal(err)
	}

	var result struct {
		Value int `json:"value"`
	}
	resp, err := client.NewRequest().
		SetQueryParam("q", "a b&c").
		SetBody(map[string]string{"hello": "world"}).
		SetResult(&result).
		Post(context.Background(), "/v1/things")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if result.Value != 42 {
		t.Errorf("result.Value = %d", result.Value)
	}
	if gotQuery != "a b&c" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotHeader != "secret" {
		t.Errorf("header = %q", gotHeader)
	}
	if gotBody["hello"] != "world" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestRequest_ErrorHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`slow down`))
	}))
	defer srv.Close()

	client, err := NewInstrumentedClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	handler := func(status int, body []byte) error {
		if status >= 400 {
			return fmt.Errorf("status %d: %s", status, body)
		}
		return nil
	}

	resp, err := client.NewRequestWithOptions(WithResponseErrorHandler(handler)).Get(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "status 429: slow down" {
		t.Errorf("err = %v", err)
	}
	if resp == nil || !resp.IsError() {
		t.Error("expected error response to be returned")
	}
}

func TestRequest_DecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client, err := NewInstrumentedClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	_, err = client.NewRequest().SetResult(&out).Get(context.Background(), "/")
	if !errors.Is(err, ErrDecodeResult) {
		t.Fatalf("expected ErrDecodeResult, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"toolong", 3, "too...(truncated)"},
		{"unbounded", 0, "unbounded"},
	}
	for _, tt := range tests {
		if got := truncate([]byte(tt.in), tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestNewInstrumentedClient_MaxBodyLog(t *testing.T) {
	tests := []struct {
		name string
		opts []ClientOption
		want int
	}{
		{"default", nil, defaultMaxBodyLog},
		{"configured", []ClientOption{WithMaxBodyLog(128)}, 128},
		{"zero keeps default", []ClientOption{WithMaxBodyLog(0)}, defaultMaxBodyLog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewInstrumentedClient(tt.opts...)
			if err != nil {
				t.Fatal(err)
			}
			if client.maxBodyLog != tt.want {
				t.Errorf("maxBodyLog = %d, want %d", client.maxBodyLog, tt.want)
			}
		})
	}
}
