package billing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/labtrack/labtrack/internal/platform/auth"
	"github.com/labtrack/labtrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/bills")
	g.POST("", h.Issue, auth.RequireRole(auth.RoleStaff))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/pay", h.MarkPaid, auth.RequireRole(auth.RoleStaff))
}

type issueRequest struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
}

func (h *Handler) Issue(c echo.Context) error {
	var req issueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.AppointmentID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "appointmentId is required")
	}
	bill, err := h.svc.Issue(c.Request().Context(), req.AppointmentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyBilled):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, bill)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	bill, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident.Role == auth.RolePatient && bill.PatientID.String() != ident.ID {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.JSON(http.StatusOK, bill)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	ident := auth.IdentityFromContext(c.Request().Context())

	var patientID *uuid.UUID
	if ident.Role == auth.RolePatient {
		pid, err := uuid.Parse(ident.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid identity")
		}
		patientID = &pid
	} else if p := c.QueryParam("patient_id"); p != "" {
		pid, err := uuid.Parse(p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		patientID = &pid
	}

	items, total, err := h.svc.List(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) MarkPaid(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.MarkPaid(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "bill not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
