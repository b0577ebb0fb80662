package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/exchangeintake/internal/pkg/httpx"
)

func testRetry() httpx.RetryConfig {
	return httpx.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestSendPostsMessage(t *testing.T) {
	var got wireMessage
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" || r.Method != http.MethodPost {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{
		APIKey:  "key",
		BaseURL: srv.URL + "/",
		From:    "Exchange Office <office@example.edu>",
		ReplyTo: "advisor@example.edu",
		Retry:   testRetry(),
	}, srv.Client(), zerolog.Nop())

	res, err := client.Send(context.Background(), Message{
		To:          []string{"student@example.edu"},
		Subject:     "Application received",
		HTML:        "<p>hi</p>",
		Attachments: []Attachment{{Filename: "a.pdf", Content: []byte("%PDF")}},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.ID != "msg_123" {
		t.Errorf("Expected id msg_123, got %s", res.ID)
	}
	if auth != "Bearer key" {
		t.Errorf("Expected bearer auth, got %q", auth)
	}
	if got.From != "Exchange Office <office@example.edu>" || got.ReplyTo != "advisor@example.edu" {
		t.Errorf("Expected default sender and reply-to, got %q / %q", got.From, got.ReplyTo)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Content != base64.StdEncoding.EncodeToString([]byte("%PDF")) {
		t.Errorf("Expected base64 attachment, got %+v", got.Attachments)
	}
}

func TestSendRetriesThrottling(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"id":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: srv.URL, From: "a@b.c", Retry: testRetry()}, srv.Client(), zerolog.Nop())
	if _, err := client.Send(context.Background(), Message{To: []string{"x@y.z"}, Subject: "s"}); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestSendRejectsInvalidMessage(t *testing.T) {
	client := NewClient(Config{APIKey: "key", BaseURL: "http://127.0.0.1:0", From: "a@b.c"}, nil, zerolog.Nop())

	_, err := client.Send(context.Background(), Message{Subject: "s"})
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("Expected ErrInvalidMessage, got %v", err)
	}
	_, err = client.Send(context.Background(), Message{To: []string{"nobody"}, Subject: "s"})
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("Expected ErrInvalidMessage for bad recipient, got %v", err)
	}
}

func TestLogOnlyClientWithoutKey(t *testing.T) {
	client := NewClient(Config{}, nil, zerolog.Nop())
	if client.Enabled() {
		t.Error("Expected client without API key to be disabled")
	}
	if _, err := client.Send(context.Background(), Message{To: []string{"x@y.z"}, Subject: "s"}); err != nil {
		t.Errorf("Expected disabled client to accept message, got %v", err)
	}
}

func TestRenderTemplates(t *testing.T) {
	view := ApplicationView{
		Title:         "Application Received",
		Office:        "International Office",
		ApplicationID: "abc123",
		StudentName:   "Layla <Hassan>",
		University:    "Georgia State University",
		Country:       "USA",
		CourseCount:   3,
		Approved:      2,
		Pending:       1,
		DashboardURL:  "https://intake.example.edu/admin",
	}

	for _, name := range []string{TemplateStudentSubmission, TemplateAdminNotification, TemplateNominationApproved} {
		html, err := Render(name, view)
		if err != nil {
			t.Fatalf("Render(%s): %v", name, err)
		}
		if !strings.Contains(html, "Georgia State University") {
			t.Errorf("%s: expected university in body", name)
		}
		if strings.Contains(html, "<Hassan>") {
			t.Errorf("%s: expected student name to be escaped", name)
		}
	}

	admin, _ := Render(TemplateAdminNotification, view)
	if !strings.Contains(admin, "1 Pending") || strings.Contains(admin, "Conditional</li>") {
		t.Errorf("Expected only non-zero breakdown lines, got %s", admin)
	}
}
