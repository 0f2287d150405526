package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClassify_NestedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("authorization = %q, want Bearer secret", got)
		}

		var req inferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Inputs != "great service" {
			t.Fatalf("inputs = %q, want %q", req.Inputs, "great service")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[{"label":"NEGATIVE","score":0.02},{"label":"POSITIVE","score":0.98}]]`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "secret")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	mood, err := client.Classify(ctx, "great service")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if mood.Label != "POSITIVE" || mood.Score != 0.98 {
		t.Fatalf("unexpected mood: %+v", mood)
	}
}

func TestClassify_FlatResponseWithoutToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Fatalf("authorization = %q, want empty", got)
		}
		_, _ = w.Write([]byte(`[{"label":"NEGATIVE","score":0.91}]`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")

	mood, err := client.Classify(context.Background(), "late delivery")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if mood.Label != "NEGATIVE" {
		t.Fatalf("label = %q, want NEGATIVE", mood.Label)
	}
}

func TestClassify_UnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")

	if _, err := client.Classify(context.Background(), "text"); err == nil {
		t.Fatalf("expected error for 503")
	}
}

func TestClassify_EmptyResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")

	_, err := client.Classify(context.Background(), "text")
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestClassify_NotConfigured(t *testing.T) {
	var client *Client
	if _, err := client.Classify(context.Background(), "text"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
