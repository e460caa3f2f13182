package syncqueue

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medlogs/medlogs/internal/platform/auth"
)

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/sync/drain", h.Drain, auth.RequireRole("professional", "secretary", "admin"))
	api.GET("/sync/queue", h.Queue, auth.RequireRole("admin"))
	api.POST("/sync/online", h.SetOnline, auth.RequireRole("admin"))
}

type onlineRequest struct {
	Online bool `json:"online"`
}

// SetOnline lets an operator flip the connectivity flag, e.g. after the
// clinic's uplink is restored. Coming back online drains the queue.
func (h *Handler) SetOnline(c echo.Context) error {
	var req onlineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.manager.SetOnline(c.Request().Context(), req.Online); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"online": h.manager.Online()})
}

func (h *Handler) Drain(c echo.Context) error {
	result, err := h.manager.Drain(c.Request().Context())
	if err != nil {
		if errors.Is(err, ErrDrainInProgress) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Queue(c echo.Context) error {
	items, err := h.manager.Pending(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Item{}
	}
	return c.JSON(http.StatusOK, items)
}
