package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBotSenderPostsSendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := &BotSender{
		token:   "123:abc",
		baseURL: srv.URL,
		http:    &http.Client{Timeout: time.Second},
	}
	if err := s.Send(context.Background(), 42, "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotPath != "/bot123:abc/sendMessage" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody["chat_id"] != float64(42) || gotBody["text"] != "hello" {
		t.Fatalf("unexpected body %v", gotBody)
	}
}

func TestBotSenderRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := &BotSender{token: "t", baseURL: srv.URL, http: srv.Client()}
	if err := s.Send(context.Background(), 1, "x"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestBotSenderRequiresToken(t *testing.T) {
	s := NewBotSender("")
	if err := s.Send(context.Background(), 1, "x"); err == nil {
		t.Fatal("expected error without token")
	}
}
