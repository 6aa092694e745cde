package referral

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebook/carebook/internal/platform/auth"
	"github.com/carebook/carebook/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	clinicians := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleSurgeon, auth.RoleTherapist))
	clinicians.POST("/referrals", h.Create)
	clinicians.POST("/referrals/:id/accept", h.Accept)
	clinicians.POST("/referrals/:id/reject", h.Reject)
	clinicians.POST("/referrals/:id/complete", h.Complete)
	clinicians.POST("/referrals/:id/read", h.MarkRead)

	readers := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleDoctor, auth.RoleNurse, auth.RoleSurgeon, auth.RoleTherapist, auth.RoleReceptionist))
	readers.GET("/referrals", h.Search)
	readers.GET("/referrals/:id", h.Get)
	readers.POST("/referrals/:id/cancel", h.Cancel)
}

func (h *Handler) Create(c echo.Context) error {
	var ref Referral
	if err := c.Bind(&ref); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &ref); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, ref)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ref, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "referral not found")
	}
	return c.JSON(http.StatusOK, ref)
}

func (h *Handler) Search(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := SearchParams{
		Status:     Status(c.QueryParam("status")),
		UnreadOnly: c.QueryParam("unread") == "true",
		Limit:      pg.Limit,
		Offset:     pg.Offset,
	}
	if raw := c.QueryParam("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		params.PatientID = id
	}
	if raw := c.QueryParam("to_provider_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to_provider_id")
		}
		params.ToProviderID = id
	}
	items, total, err := h.svc.Search(c.Request().Context(), params)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Accept(c echo.Context) error   { return h.transition(c, StatusAccepted) }
func (h *Handler) Reject(c echo.Context) error   { return h.transition(c, StatusRejected) }
func (h *Handler) Complete(c echo.Context) error { return h.transition(c, StatusCompleted) }
func (h *Handler) Cancel(c echo.Context) error   { return h.transition(c, StatusCancelled) }

func (h *Handler) transition(c echo.Context, next Status) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ref, err := h.svc.Transition(c.Request().Context(), id, next)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, ref)
}

func (h *Handler) MarkRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.MarkRead(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "referral not found")
	}
	return c.NoContent(http.StatusNoContent)
}
