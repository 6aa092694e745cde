package scheduling

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebook/carebook/internal/platform/auth"
	"github.com/carebook/carebook/internal/platform/calendar"
	"github.com/carebook/carebook/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	bookers := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleReceptionist))
	bookers.POST("/appointments", h.Book)
	bookers.POST("/appointments/:id/reschedule", h.Reschedule)
	bookers.DELETE("/appointments/:id", h.Cancel)
	bookers.DELETE("/appointments/series/:id", h.CancelSeries)

	readers := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleDoctor, auth.RoleNurse, auth.RoleSurgeon, auth.RoleTherapist, auth.RoleReceptionist))
	readers.GET("/appointments", h.Search)
	readers.GET("/appointments/:id", h.Get)
	readers.GET("/appointments/series/:id", h.Series)
	readers.GET("/providers/:id/availability", h.Availability)

	staff := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleSurgeon, auth.RoleTherapist, auth.RoleReceptionist))
	staff.POST("/appointments/:id/status", h.SetStatus)
}

// httpError maps domain errors onto HTTP statuses: validation 400, missing
// 404, slot conflicts 409, referral gate 403, out-of-hours 422.
func httpError(err error) error {
	var (
		ve *ValidationError
		nf *NotFoundError
		sc *SlotConflictError
		rr *ReferralRequiredError
		ua *UnavailableError
		rt *RangeTooLargeError
	)
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.As(err, &nf):
		return echo.NewHTTPError(http.StatusNotFound, nf.Error())
	case errors.As(err, &sc):
		return echo.NewHTTPError(http.StatusConflict, sc.Error())
	case errors.As(err, &rr):
		return echo.NewHTTPError(http.StatusForbidden, rr.Error())
	case errors.As(err, &ua):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, ua.Error())
	case errors.As(err, &rt):
		return echo.NewHTTPError(http.StatusBadRequest, rt.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

type bookPayload struct {
	PatientID       uuid.UUID `json:"patient_id"`
	ProviderID      uuid.UUID `json:"provider_id"`
	Start           string    `json:"start"`
	Kind            Kind      `json:"kind"`
	Pattern         Pattern   `json:"recurrence_pattern"`
	Count           int       `json:"recurrence_count"`
	Until           string    `json:"recurrence_until"`
	VerifyInsurance bool      `json:"verify_insurance"`
	Notes           *string   `json:"notes"`
}

// insuranceInfo reports the booking-time coverage outcome. Amounts are
// integer cents, like every money field on the wire.
type insuranceInfo struct {
	Verified              bool  `json:"verified"`
	CoverageAmount        int64 `json:"coverage_amount"`
	PatientResponsibility int64 `json:"patient_responsibility"`
}

type recurringInfo struct {
	SeriesID uuid.UUID `json:"series_id"`
	Pattern  Pattern   `json:"pattern"`
	Count    int       `json:"count"`
	Dates    []string  `json:"dates"`
}

type bookResponse struct {
	AppointmentID uuid.UUID      `json:"appointment_id"`
	Appointments  []*Appointment `json:"appointments"`
	Insurance     insuranceInfo  `json:"insurance"`
	Recurring     *recurringInfo `json:"recurring_appointments,omitempty"`
	Skipped       []SkippedSlot  `json:"skipped,omitempty"`
}

func (h *Handler) Book(c echo.Context) error {
	var p bookPayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	start, err := calendar.ParseStamp(p.Start)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "start must be YYYY-MM-DD-HH")
	}
	req := BookingRequest{
		PatientID:       p.PatientID,
		ProviderID:      p.ProviderID,
		Start:           start,
		Kind:            p.Kind,
		Pattern:         p.Pattern,
		Count:           p.Count,
		VerifyInsurance: p.VerifyInsurance,
		Notes:           p.Notes,
	}
	if p.Until != "" {
		until, err := calendar.ParseStamp(p.Until)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "recurrence_until must be YYYY-MM-DD-HH")
		}
		req.Until = &until
	}
	result, err := h.svc.Book(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}

	seed := result.Appointments[0]
	resp := bookResponse{
		AppointmentID: seed.ID,
		Appointments:  result.Appointments,
		Insurance: insuranceInfo{
			Verified:              seed.InsuranceVerified,
			CoverageAmount:        seed.CoveredCents,
			PatientResponsibility: seed.PatientCostCents,
		},
		Skipped: result.Skipped,
	}
	if result.SeriesID != nil {
		dates := make([]string, 0, len(result.Appointments))
		for _, a := range result.Appointments {
			dates = append(dates, calendar.FormatStamp(a.Start))
		}
		resp.Recurring = &recurringInfo{
			SeriesID: *result.SeriesID,
			Pattern:  req.Pattern,
			Count:    len(result.Appointments),
			Dates:    dates,
		}
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Search(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := SearchParams{
		Status: Status(c.QueryParam("status")),
		Limit:  pg.Limit,
		Offset: pg.Offset,
	}
	if raw := c.QueryParam("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		params.PatientID = id
	}
	if raw := c.QueryParam("provider_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid provider_id")
		}
		params.ProviderID = id
	}
	items, total, err := h.svc.Search(c.Request().Context(), params)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Series(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.Series(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"series_id":    id,
		"appointments": items,
	})
}

type availabilitySlot struct {
	Start    string `json:"start"`
	Hours    string `json:"hours"`
	IsBooked bool   `json:"is_booked"`
}

func (h *Handler) Availability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	from, err := calendar.ParseDay(c.QueryParam("start"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "start must be YYYY-MM-DD")
	}
	to, err := calendar.ParseDay(c.QueryParam("end"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "end must be YYYY-MM-DD")
	}
	slots, err := h.svc.Availability(c.Request().Context(), id, from, to)
	if err != nil {
		return httpError(err)
	}
	out := make([]availabilitySlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, availabilitySlot{
			Start:    calendar.FormatStamp(s.Start),
			Hours:    calendar.FormatHourRange(s.Start.Hour(), s.End.Hour()),
			IsBooked: s.IsBooked,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"provider_id": id,
		"slots":       out,
	})
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p struct {
		Start string `json:"start"`
	}
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	start, err := calendar.ParseStamp(p.Start)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "start must be YYYY-MM-DD-HH")
	}
	a, err := h.svc.Reschedule(c.Request().Context(), id, start)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Cancel(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelSeries(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.CancelSeries(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"series_id": id,
		"cancelled": n,
	})
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p struct {
		Status Status `json:"status"`
	}
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.SetStatus(c.Request().Context(), id, p.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}
