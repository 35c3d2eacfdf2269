package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func run(mw echo.MiddlewareFunc, h echo.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, mw(h)(c)
}

func TestRequestID_AssignsAndEchoes(t *testing.T) {
	var seen string
	rec, err := run(RequestID(), func(c echo.Context) error {
		seen, _ = c.Get("request_id").(string)
		return okHandler(c)
	}, httptest.NewRequest(http.MethodGet, "/", nil))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == "" {
		t.Error("no request_id on context")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header %q does not match context id %q", got, seen)
	}
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")

	rec, err := run(RequestID(), okHandler, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "upstream-id" {
		t.Errorf("expected upstream-id, got %q", got)
	}
}

func TestLogger_PassesHandlerError(t *testing.T) {
	logger := zerolog.New(io.Discard)
	wantErr := echo.NewHTTPError(http.StatusTeapot, "nope")

	_, err := run(Logger(logger), func(c echo.Context) error {
		return wantErr
	}, httptest.NewRequest(http.MethodGet, "/t", nil))

	if err != wantErr {
		t.Errorf("expected handler error back, got %v", err)
	}
}

func TestRecovery_TurnsPanicInto500(t *testing.T) {
	logger := zerolog.New(io.Discard)

	_, err := run(Recovery(logger), func(c echo.Context) error {
		panic("boom")
	}, httptest.NewRequest(http.MethodGet, "/p", nil))

	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if he.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", he.Code)
	}
}

func TestRecovery_NoPanicNoChange(t *testing.T) {
	logger := zerolog.New(io.Discard)

	rec, err := run(Recovery(logger), okHandler, httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
