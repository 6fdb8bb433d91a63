package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ArticleAugmenter/internal/config"
)

func TestNewNotifierRequiresCredentials(t *testing.T) {
	t.Parallel()

	if n := NewNotifier(config.NotifyConfig{TelegramToken: "t"}, nil); n != nil {
		t.Fatalf("expected nil notifier without chat id")
	}
}

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	var got struct{ path, chat, text, mode string }
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		got.path = r.URL.Path
		got.chat = r.PostForm.Get("chat_id")
		got.text = r.PostForm.Get("text")
		got.mode = r.PostForm.Get("parse_mode")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(config.NotifyConfig{TelegramToken: "123:abc", TelegramChatID: "42"}, server.Client()).WithAPIBase(server.URL)
	if err := n.PublishDigest(context.Background(), "<b>Title</b>\nSummary"); err != nil {
		t.Fatalf("PublishDigest error: %v", err)
	}
	if got.path != "/bot123:abc/sendMessage" || got.chat != "42" || got.mode != "HTML" {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.text != "<b>Title</b>\nSummary" {
		t.Fatalf("unexpected text %q", got.text)
	}
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	n := NewNotifier(config.NotifyConfig{TelegramToken: "t", TelegramChatID: "c"}, server.Client()).WithAPIBase(server.URL)
	if err := n.PublishDigest(context.Background(), "text"); err == nil {
		t.Fatalf("expected error for 403")
	}

	var nilNotifier *Notifier
	if err := nilNotifier.PublishDigest(context.Background(), "text"); err == nil {
		t.Fatalf("expected misconfigured error")
	}
}
