package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *Service) {
	svc, _, _ := newTestService()
	return NewHandler(svc), svc
}

func TestCreateProviderHandler(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()

	body := `{"name": "Dr. Chen", "specialty": "therapist"}`
	req := httptest.NewRequest(http.MethodPost, "/providers", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateProvider(c); err != nil {
		t.Fatalf("CreateProvider() error = %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var out Provider
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if out.Specialty != SpecialtyTherapist {
		t.Errorf("expected specialty therapist, got %q", out.Specialty)
	}
	if out.ID == uuid.Nil {
		t.Error("expected assigned provider id")
	}
}

func TestCreateProviderHandlerRejectsBadSpecialty(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/providers", strings.NewReader(`{"name": "X", "specialty": "alchemist"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateProvider(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestSetAvailabilityTemplateHandler(t *testing.T) {
	h, svc := newTestHandler()
	e := echo.New()

	p := &Provider{Name: "Dr. Chen"}
	if err := svc.CreateProvider(context.Background(), p); err != nil {
		t.Fatalf("seed provider: %v", err)
	}

	body := `{"monday": ["09-10", "10-12"], "friday": ["13-17"]}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/providers/:id/availability-template")
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.SetAvailabilityTemplate(c); err != nil {
		t.Fatalf("SetAvailabilityTemplate() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got, err := svc.GetProvider(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetProvider() error = %v", err)
	}
	monday := got.Template["monday"]
	if len(monday) != 2 || monday[0] != (HourRange{Start: 9, End: 10}) || monday[1] != (HourRange{Start: 10, End: 12}) {
		t.Errorf("unexpected monday ranges: %+v", monday)
	}
}

func TestSetAvailabilityTemplateHandlerBadToken(t *testing.T) {
	h, svc := newTestHandler()
	e := echo.New()

	p := &Provider{Name: "Dr. Chen"}
	if err := svc.CreateProvider(context.Background(), p); err != nil {
		t.Fatalf("seed provider: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"monday": ["9am-5pm"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	err := h.SetAvailabilityTemplate(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestGetProviderHandlerInvalidID(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetProvider(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestListProvidersHandler(t *testing.T) {
	h, svc := newTestHandler()
	e := echo.New()

	for _, s := range []Specialty{SpecialtyGeneral, SpecialtySurgeon} {
		p := &Provider{Name: "Dr. " + string(s), Specialty: s}
		if err := svc.CreateProvider(context.Background(), p); err != nil {
			t.Fatalf("seed provider: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/providers?specialty=surgeon", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListProviders(c); err != nil {
		t.Fatalf("ListProviders() error = %v", err)
	}

	var out struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if out.Total != 1 {
		t.Errorf("expected 1 surgeon, got %d", out.Total)
	}
}

func TestCreatePatientHandler(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader(`{"name": "Ana Flores"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("CreatePatient() error = %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}
