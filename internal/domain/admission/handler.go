package admission

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/:id/cycles", h.CreateCycle)
	api.GET("/patients/:id/cycles", h.ListCycles)
	api.PUT("/cycles/:id", h.UpdateCycle)
	api.PATCH("/cycles/:id/discharge", h.Discharge)
	api.DELETE("/cycles/:id", h.DeleteCycle)

	api.PUT("/patients/:id/daily-statuses", h.RecordStatus)
	api.GET("/patients/:id/daily-statuses", h.ListStatuses)
	api.GET("/patients/:id/timeline", h.ResolveDay)
}

func (h *Handler) CreateCycle(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var cy Cycle
	if err := c.Bind(&cy); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cy.PatientID = pid
	if err := h.svc.CreateCycle(c.Request().Context(), &cy); err != nil {
		if errors.Is(err, ErrOverlappingCycle) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, cy)
}

func (h *Handler) ListCycles(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	cycles, err := h.svc.ListCycles(c.Request().Context(), pid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cycles)
}

func (h *Handler) UpdateCycle(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	existing, err := h.svc.GetCycle(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "cycle not found")
	}
	var cy Cycle
	if err := c.Bind(&cy); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cy.ID = id
	cy.PatientID = existing.PatientID
	if err := h.svc.UpdateCycle(c.Request().Context(), &cy); err != nil {
		if errors.Is(err, ErrOverlappingCycle) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, cy)
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Date string `json:"date"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cy, err := h.svc.Discharge(c.Request().Context(), id, body.Date)
	if err != nil {
		if errors.Is(err, ErrInvalidDischarge) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, cy)
}

func (h *Handler) DeleteCycle(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteCycle(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RecordStatus(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var st DailyStatus
	if err := c.Bind(&st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st.PatientID = pid
	if err := h.svc.RecordStatus(c.Request().Context(), &st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if st.Kind == "" {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ListStatuses(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	ctx := c.Request().Context()
	if month := c.QueryParam("month"); month != "" {
		statuses, err := h.svc.ListStatusesForMonth(ctx, pid, month)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, statuses)
	}

	statuses, err := h.svc.ListStatuses(ctx, pid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, statuses)
}

func (h *Handler) ResolveDay(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}
	view, err := h.svc.ResolveDay(c.Request().Context(), pid, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, view)
}
