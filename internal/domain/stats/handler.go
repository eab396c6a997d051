package stats

import (
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
	api.GET("/patients/:id/stats", h.PatientStats)
	api.GET("/stats/monthly", h.MonthlyRollup)
}

func (h *Handler) PatientStats(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	s, err := h.svc.ForPatient(c.Request().Context(), pid,
		c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) MonthlyRollup(c echo.Context) error {
	month := c.QueryParam("month")
	if month == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "month is required")
	}
	s, err := h.svc.MonthlyRollup(c.Request().Context(), month)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, s)
}
