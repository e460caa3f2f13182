package syncqueue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSetOnlineEndpoint_ReconnectDrains(t *testing.T) {
	d := &captureDispatcher{}
	_, m, store := newForwarder(d)
	if err := m.SetOnline(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	enqueueN(t, m, 3)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/sync/online",
		strings.NewReader(`{"online":true}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewHandler(m)
	if err := h.SetOnline(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"online":true`) {
		t.Errorf("expected online flag in response, got %s", rec.Body.String())
	}
	if n, _ := store.Len(context.Background()); n != 0 {
		t.Errorf("flipping online should drain the queue, %d items left", n)
	}
	if len(d.types) != 3 {
		t.Errorf("expected 3 replayed operations, got %d", len(d.types))
	}
}
