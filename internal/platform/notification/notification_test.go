package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestTemplateEngine_RegisterAndRender(t *testing.T) {
	eng := NewTemplateEngine()
	eng.RegisterTemplate(Template{
		ID:      "test-tpl",
		Name:    "Test Template",
		Subject: "Hello {{name}}",
		Body:    "Dear {{name}}, your code is {{code}}.",
		Type:    TypeEmail,
	})

	subject, body, err := eng.Render("test-tpl", map[string]string{
		"name": "Alice",
		"code": "1234",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Hello Alice" {
		t.Errorf("subject = %q, want %q", subject, "Hello Alice")
	}
	if body != "Dear Alice, your code is 1234." {
		t.Errorf("body = %q, want %q", body, "Dear Alice, your code is 1234.")
	}
}

func TestTemplateEngine_RenderMissing(t *testing.T) {
	eng := NewTemplateEngine()
	_, _, err := eng.Render("nonexistent", nil)
	if err == nil {
		t.Fatal("expected error for missing template, got nil")
	}
}

func TestTemplateEngine_BuiltInTemplates(t *testing.T) {
	eng := NewTemplateEngine()
	builtIn := []string{
		"appointment-booked",
		"appointment-cancelled",
		"appointment-rescheduled",
		"recurring-series-created",
		"appointment-reminder",
	}
	for _, id := range builtIn {
		_, _, err := eng.Render(id, map[string]string{
			"patient_name": "Test",
			"date":         "2026-01-01",
			"time":         "10:00",
			"provider":     "Dr. Smith",
			"patient_cost": "$50.00",
			"count":        "5",
			"pattern":      "weekly",
			"skipped":      "none",
		})
		if err != nil {
			t.Errorf("built-in template %q not found: %v", id, err)
		}
	}
}

func TestTemplateEngine_LeavesUnknownPlaceholders(t *testing.T) {
	eng := NewTemplateEngine()
	eng.RegisterTemplate(Template{ID: "p", Subject: "Hi {{name}}", Body: "{{missing}}", Type: TypeEmail})
	_, body, err := eng.Render("p", map[string]string{"name": "Bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "{{missing}}" {
		t.Errorf("expected unresolved placeholder preserved, got %q", body)
	}
}

func TestManager_SendEmail(t *testing.T) {
	email := &MockEmailSender{}
	sms := &MockSMSSender{}
	mgr := NewManager(email, sms, NewTemplateEngine())

	n := &Notification{
		Type:      TypeEmail,
		Recipient: "alice@example.com",
		Subject:   "Test",
		Body:      "Body",
	}
	if err := mgr.Send(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Status != "sent" {
		t.Errorf("expected status sent, got %s", n.Status)
	}
	if n.SentAt == nil {
		t.Error("expected SentAt to be set")
	}
	calls := email.Calls()
	if len(calls) != 1 || calls[0].To != "alice@example.com" {
		t.Errorf("unexpected email calls: %+v", calls)
	}
}

func TestManager_SendFailureRecorded(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine())

	n := &Notification{Type: TypeEmail, Recipient: "a@b.c", Body: "x"}
	err := mgr.Send(context.Background(), n)
	if err == nil {
		t.Fatal("expected send error")
	}
	if n.Status != "failed" {
		t.Errorf("expected status failed, got %s", n.Status)
	}
	if n.Error != "smtp down" {
		t.Errorf("expected error recorded, got %q", n.Error)
	}
}

func TestManager_SendFromTemplate(t *testing.T) {
	email := &MockEmailSender{}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine())

	n, err := mgr.SendFromTemplate(context.Background(), "appointment-booked", map[string]string{
		"patient_name": "Alice",
		"provider":     "Dr. Smith",
		"date":         "2026-03-02",
		"time":         "09:00",
		"patient_cost": "$20.00",
	}, "alice@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(n.Body, "Dr. Smith") {
		t.Errorf("expected provider in body, got %q", n.Body)
	}
	if !strings.Contains(n.Body, "$20.00") {
		t.Errorf("expected cost in body, got %q", n.Body)
	}
}

func TestManager_Retry(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "down"}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine())

	n := &Notification{Type: TypeEmail, Recipient: "a@b.c", Body: "x"}
	_ = mgr.Send(context.Background(), n)

	// Retry succeeds after the sender recovers.
	email.ShouldFail = false
	if err := mgr.Retry(context.Background(), n.ID); err != nil {
		t.Fatalf("unexpected retry error: %v", err)
	}
	got, err := mgr.Get(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != "sent" {
		t.Errorf("expected status sent after retry, got %s", got.Status)
	}
}

func TestManager_RetryRejectsNonFailed(t *testing.T) {
	mgr := NewManager(&MockEmailSender{}, &MockSMSSender{}, NewTemplateEngine())
	n := &Notification{Type: TypeEmail, Recipient: "a@b.c", Body: "x"}
	_ = mgr.Send(context.Background(), n)

	if err := mgr.Retry(context.Background(), n.ID); err == nil {
		t.Error("expected error retrying a sent notification")
	}
}

func TestManager_Stats(t *testing.T) {
	email := &MockEmailSender{}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine())

	_ = mgr.Send(context.Background(), &Notification{Type: TypeEmail, Recipient: "a@b.c", Body: "1"})
	_ = mgr.Send(context.Background(), &Notification{Type: TypeEmail, Recipient: "a@b.c", Body: "2"})
	email.ShouldFail = true
	email.FailError = "down"
	_ = mgr.Send(context.Background(), &Notification{Type: TypeEmail, Recipient: "a@b.c", Body: "3"})

	stats := mgr.Stats(context.Background())
	if stats["sent"] != 2 {
		t.Errorf("expected 2 sent, got %d", stats["sent"])
	}
	if stats["failed"] != 1 {
		t.Errorf("expected 1 failed, got %d", stats["failed"])
	}
}

func TestLogSender(t *testing.T) {
	s := &LogSender{Logger: zerolog.New(os.Stderr)}
	if err := s.SendEmail(context.Background(), "a@b.c", "s", "b"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := s.SendSMS(context.Background(), "+1555", "b"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHandler_GetAndList(t *testing.T) {
	mgr := NewManager(&MockEmailSender{}, &MockSMSSender{}, NewTemplateEngine())
	n := &Notification{Type: TypeEmail, Recipient: "alice@example.com", Body: "x"}
	_ = mgr.Send(context.Background(), n)

	h := NewHandler(mgr)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/notifications/"+n.ID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(n.ID)
	if err := h.HandleGet(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != n.ID {
		t.Errorf("expected id %s, got %s", n.ID, got.ID)
	}

	req = httptest.NewRequest(http.MethodGet, "/notifications?recipient=alice@example.com", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := h.HandleList(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var list []Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 notification, got %d", len(list))
	}
}

func TestHandler_ListRequiresRecipient(t *testing.T) {
	h := NewHandler(NewManager(&MockEmailSender{}, &MockSMSSender{}, NewTemplateEngine()))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rec := httptest.NewRecorder()
	if err := h.HandleList(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
