package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRequestTimeout_FastHandlerPasses(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := RequestTimeout(time.Second)
	h := mw(handler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequestTimeout_SlowHandlerTimesOut(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/monthly", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	done := make(chan struct{})
	handler := func(c echo.Context) error {
		<-c.Request().Context().Done()
		close(done)
		return c.Request().Context().Err()
	}

	mw := RequestTimeout(10 * time.Millisecond)
	h := mw(handler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", rec.Code)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler never observed cancellation")
	}
}

func TestRequestTimeout_DeadlineOnContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); !ok {
			t.Error("expected a deadline on the request context")
		}
		return c.String(http.StatusOK, "ok")
	}

	mw := RequestTimeout(time.Second)
	h := mw(handler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
