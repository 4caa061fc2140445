package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmeshcher/starquest/internal/model"
)

func TestSend_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/emails" {
			t.Fatalf("path = %s, want /emails", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Fatalf("authorization = %q", got)
		}

		var email Email
		if err := json.NewDecoder(r.Body).Decode(&email); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if email.From != "StarQuest <noreply@example.com>" {
			t.Fatalf("from = %q, want default sender", email.From)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "key", "StarQuest <noreply@example.com>")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	id, err := client.Send(ctx, Email{To: []string{"a@example.com"}, Subject: "hi", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if id != "msg-1" {
		t.Fatalf("id = %q, want msg-1", id)
	}
}

func TestSend_TooManyRequests(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "key", "from@example.com")

	_, err := client.Send(context.Background(), Email{To: []string{"a@example.com"}})

	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rl.RetryAfter < 5*time.Second {
		t.Fatalf("retryAfter = %v, want at least 5s", rl.RetryAfter)
	}
}

func TestSend_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid from", http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, "key", "from@example.com").Send(context.Background(), Email{})
	if err == nil || !strings.Contains(err.Error(), "422") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSend_NotConfigured(t *testing.T) {
	var nilClient *Client
	if _, err := nilClient.Send(context.Background(), Email{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("nil client: expected ErrNotConfigured, got %v", err)
	}

	if _, err := NewClient("", "", "").Send(context.Background(), Email{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("no key: expected ErrNotConfigured, got %v", err)
	}
}

func TestInviteEmail(t *testing.T) {
	en := InviteEmail(model.LocaleEN, "a@example.com", "Mei <Lee>", "https://app/invite/abc")
	if en.Subject != "Mei <Lee> invited you to StarQuest" {
		t.Fatalf("subject = %q", en.Subject)
	}
	if strings.Contains(en.HTML, "<Lee>") {
		t.Fatalf("html must escape inviter name: %q", en.HTML)
	}
	if !strings.Contains(en.HTML, "https://app/invite/abc") {
		t.Fatalf("html lacks link: %q", en.HTML)
	}

	zh := InviteEmail(model.LocaleZhCN, "a@example.com", "李梅", "https://app/invite/abc")
	if !strings.Contains(zh.Subject, "邀请") {
		t.Fatalf("zh subject = %q", zh.Subject)
	}

	fallback := InviteEmail("fr", "a@example.com", "X", "l")
	if fallback.Subject != "X invited you to StarQuest" {
		t.Fatalf("fallback subject = %q", fallback.Subject)
	}
}
