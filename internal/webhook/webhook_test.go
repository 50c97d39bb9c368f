package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTriggerJSONResponse(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		if payload["action"] != "notify" {
			t.Errorf("payload = %v", payload)
		}
		fmt.Fprint(w, `{"ok":true}`)
	})

	raw, err := c.Trigger(context.Background(), map[string]any{"action": "notify"})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"ok":true}` {
		t.Errorf("response = %s", raw)
	}
}

func TestTriggerNormalizesNonJSON(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "queued")
	})

	raw, err := c.Trigger(context.Background(), map[string]any{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Status int    `json:"status"`
		Text   string `json:"text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("normalized response is not JSON: %v (%s)", err, raw)
	}
	if out.Status != 200 || out.Text != "queued" {
		t.Errorf("normalized = %+v", out)
	}
}

func TestTriggerNormalizesEmptyBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	raw, err := c.Trigger(context.Background(), map[string]any{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if out.Status != http.StatusNoContent {
		t.Errorf("status = %d, want 204", out.Status)
	}
}

func TestTriggerErrorStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Trigger(context.Background(), map[string]any{"a": 1})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("err = %v, want status 502 error", err)
	}
}
