package telegram

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"paperscribe/internal/domain"
)

func newTestNotifier(t *testing.T, handler http.HandlerFunc) *Notifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n := NewNotifier("test-token", srv.Client(), slog.New(slog.DiscardHandler))
	n.apiBase = srv.URL
	return n
}

func TestDeliverReturnsMessageID(t *testing.T) {
	t.Parallel()

	var got sendMessageRequest
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bottest-token/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"message_id":4242}}`))
	})

	paper := domain.Paper{
		ID:              "2401.00001v1",
		Title:           "Scaling Transformers",
		Authors:         []string{"A", "B", "C", "D"},
		PrimaryCategory: "cs.LG",
		Summary:         "A short summary.",
		URL:             "http://arxiv.org/abs/2401.00001v1",
	}
	dest := domain.Destination{Channel: -100123}

	handle, err := n.Deliver(context.Background(), dest, paper, []string{"transformers"})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if handle != "4242" {
		t.Fatalf("handle = %q, want message id", handle)
	}

	if got.ChatID != -100123 {
		t.Fatalf("chat id = %d", got.ChatID)
	}
	if !strings.Contains(got.Text, "Scaling Transformers") {
		t.Fatalf("text missing title: %q", got.Text)
	}
	if !strings.Contains(got.Text, "et al.") {
		t.Fatalf("long author list not truncated: %q", got.Text)
	}
	if !strings.Contains(got.Text, "Matched: transformers") {
		t.Fatalf("text missing matched keywords: %q", got.Text)
	}
}

func TestDeliverAPIError(t *testing.T) {
	t.Parallel()

	n := newTestNotifier(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	})

	_, err := n.Deliver(context.Background(), domain.Destination{Channel: 1}, domain.Paper{ID: "x"}, nil)
	if err == nil {
		t.Fatal("expected error from api failure")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("error = %v, want api description", err)
	}
}

func TestFormatMessageEscapesHTML(t *testing.T) {
	t.Parallel()

	paper := domain.Paper{Title: "Graphs & <Trees>"}
	text := formatMessage(paper, nil)
	if strings.Contains(text, "<Trees>") {
		t.Fatalf("title not escaped: %q", text)
	}
	if !strings.Contains(text, "&amp;") {
		t.Fatalf("ampersand not escaped: %q", text)
	}
}
