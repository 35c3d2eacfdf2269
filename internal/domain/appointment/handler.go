package appointment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/labtrack/labtrack/internal/domain/report"
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
	g := api.Group("/appointments")
	g.POST("", h.Book, auth.RequireRole(auth.RolePatient, auth.RoleStaff))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/transitions", h.Transition, auth.RequireRole(auth.RoleStaff, auth.RolePhlebo))
	g.GET("/:id/report", h.GetReport, auth.RequireRole(auth.RoleStaff))
	g.PUT("/:id/report", h.SaveReport, auth.RequireRole(auth.RoleStaff))
	g.POST("/:id/report/finalize", h.Finalize, auth.RequireRole(auth.RoleStaff))
	g.POST("/:id/feedback", h.Feedback, auth.RequireRole(auth.RolePatient))
}

// httpError maps domain errors onto status codes so handlers stay thin.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrRoleNotAllowed), errors.Is(err, ErrNotAssignee):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrPhleboRequired),
		errors.Is(err, ErrReasonRequired),
		errors.Is(err, ErrFeedbackGiven),
		errors.Is(err, ErrUnknownAction):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) Book(c echo.Context) error {
	var in BookInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := auth.IdentityFromContext(c.Request().Context())
	appt, err := h.svc.Book(c.Request().Context(), actor, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := auth.IdentityFromContext(c.Request().Context())
	appt, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	actor := auth.IdentityFromContext(c.Request().Context())

	var f Filter
	if s := c.QueryParam("status"); s != "" {
		status := Status(s)
		f.Status = &status
	}
	if p := c.QueryParam("patient_id"); p != "" {
		pid, err := uuid.Parse(p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		f.PatientID = &pid
	}

	items, total, err := h.svc.List(c.Request().Context(), actor, f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// transitionRequest is the wire form of a lifecycle action.
type transitionRequest struct {
	Action   Action              `json:"action"`
	PhleboID *uuid.UUID          `json:"phleboId,omitempty"`
	Reason   string              `json:"reason,omitempty"`
	Report   []report.TestReport `json:"report,omitempty"`
}

func (h *Handler) Transition(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Action == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "action is required")
	}
	actor := auth.IdentityFromContext(c.Request().Context())
	appt, err := h.svc.Transition(c.Request().Context(), actor, id, req.Action, TransitionInput{
		PhleboID: req.PhleboID,
		Reason:   req.Reason,
		Report:   req.Report,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) GetReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := auth.IdentityFromContext(c.Request().Context())
	blocks, err := h.svc.ComposeReport(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, blocks)
}

type reportRequest struct {
	Report []report.TestReport `json:"report"`
}

func (h *Handler) SaveReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := auth.IdentityFromContext(c.Request().Context())
	appt, err := h.svc.SaveReport(c.Request().Context(), actor, id, req.Report)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) Finalize(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := auth.IdentityFromContext(c.Request().Context())
	appt, err := h.svc.Finalize(c.Request().Context(), actor, id, req.Report)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) Feedback(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := auth.IdentityFromContext(c.Request().Context())
	appt, err := h.svc.SubmitFeedback(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}
