package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"attune/internal/errors"
	"attune/internal/ports"
)

func TestHTTPClientCompletes(t *testing.T) {
	t.Parallel()
	var gotAuth string
	var gotBody chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "hello back"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer server.Close()

	client := NewHTTPClient(Config{Model: "test-model", BaseURL: server.URL, APIKey: "sk-test"}, nil)
	resp, err := client.Complete(context.Background(), ports.CompletionRequest{
		Messages:    []ports.Message{{Role: ports.RoleUser, Content: "hello"}},
		Temperature: 0.5,
		MaxTokens:   100,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Content != "hello back" || resp.StopReason != "stop" {
		t.Fatalf("response wrong: %+v", resp)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Fatalf("usage wrong: %+v", resp.Usage)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotBody.Model != "test-model" || len(gotBody.Messages) != 1 {
		t.Fatalf("request body wrong: %+v", gotBody)
	}
}

func TestHTTPClientRateLimitIsTransient(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPClient(Config{Model: "m", BaseURL: server.URL}, nil)
	_, err := client.Complete(context.Background(), ports.CompletionRequest{})
	if !errors.IsModelUnavailable(err) {
		t.Fatalf("429 classified %v, want model unavailable", err)
	}
}

func TestHTTPClientServerErrorIsTransient(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(Config{Model: "m", BaseURL: server.URL}, nil)
	_, err := client.Complete(context.Background(), ports.CompletionRequest{})
	if !errors.IsModelUnavailable(err) {
		t.Fatalf("502 classified %v, want model unavailable", err)
	}
}

func TestHTTPClientRejectionIsPermanent(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewHTTPClient(Config{Model: "m", BaseURL: server.URL}, nil)
	_, err := client.Complete(context.Background(), ports.CompletionRequest{})
	if err == nil {
		t.Fatal("401 succeeded")
	}
	if errors.IsModelUnavailable(err) {
		t.Fatal("401 classified transient; retrying it would never succeed")
	}
}

func TestHTTPClientEmptyChoicesIsTransient(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewHTTPClient(Config{Model: "m", BaseURL: server.URL}, nil)
	_, err := client.Complete(context.Background(), ports.CompletionRequest{})
	if !errors.IsModelUnavailable(err) {
		t.Fatalf("empty choices classified %v, want model unavailable", err)
	}
}

func TestHTTPClientUnreachableHostIsTransient(t *testing.T) {
	t.Parallel()
	client := NewHTTPClient(Config{Model: "m", BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := client.Complete(context.Background(), ports.CompletionRequest{})
	if !errors.IsModelUnavailable(err) {
		t.Fatalf("connection failure classified %v, want model unavailable", err)
	}
}
