package insurance

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebook/carebook/internal/platform/auth"
	"github.com/carebook/carebook/pkg/pagination"
)

type Handler struct {
	svc       *Service
	baseCents int64
}

// NewHandler creates an insurance handler. baseCents is the configured base
// visit cost used by the quote endpoint.
func NewHandler(svc *Service, baseCents int64) *Handler {
	return &Handler{svc: svc, baseCents: baseCents}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	staff.POST("/policies", h.CreatePolicy)
	staff.GET("/policies", h.ListPolicies)
	staff.GET("/policies/:id", h.GetPolicy)
	staff.PUT("/policies/:id", h.UpdatePolicy)
	staff.DELETE("/policies/:id", h.DeactivatePolicy)

	quote := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleReceptionist))
	quote.GET("/patients/:id/coverage", h.GetCoverage)
	quote.GET("/patients/:id/quote", h.Quote)
}

func (h *Handler) CreatePolicy(c echo.Context) error {
	var p Policy
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePolicy(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPolicy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPolicy(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "policy not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePolicy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Policy
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdatePolicy(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeactivatePolicy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeactivatePolicy(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "policy not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPolicies(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPolicies(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetCoverage(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	coverage, err := h.svc.CoverageFor(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id": patientID,
		"coverage":   coverage,
		"percent":    coverage.Percent(),
	})
}

// Quote returns the cost split for a hypothetical visit. Accepts an optional
// base_cents query parameter, defaulting to the configured base visit cost.
func (h *Handler) Quote(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	specialty := c.QueryParam("specialty")
	if specialty == "" {
		specialty = "general"
	}
	base := h.baseCents
	if raw := c.QueryParam("base_cents"); raw != "" {
		base, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid base_cents")
		}
	}
	b, err := h.svc.Quote(c.Request().Context(), patientID, base, specialty)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}
