package ledger

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
	api.GET("/patients/:id/ledger", h.ListTransactions)
	api.GET("/patients/:id/ledger/balance", h.GetBalance)
	api.POST("/patients/:id/ledger/reconcile", h.Reconcile)
	api.DELETE("/patients/:id/ledger/:txID", h.DeleteTransaction)
}

func (h *Handler) ListTransactions(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	txs, err := h.svc.ListTransactions(c.Request().Context(), pid,
		c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, txs)
}

func (h *Handler) GetBalance(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	b, err := h.svc.GetBalance(c.Request().Context(), pid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) Reconcile(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var body struct {
		Items []RawItem `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Reconcile(c.Request().Context(), pid, body.Items)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) DeleteTransaction(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	txID, err := uuid.Parse(c.Param("txID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid transaction id")
	}
	if err := h.svc.DeleteTransaction(c.Request().Context(), pid, txID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
