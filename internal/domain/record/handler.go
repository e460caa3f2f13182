package record

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medlogs/medlogs/internal/platform/auth"
	"github.com/medlogs/medlogs/internal/platform/syncqueue"
	"github.com/medlogs/medlogs/pkg/dates"
	"github.com/medlogs/medlogs/pkg/pagination"
)

// IdempotencyKeyHeader carries a client-generated key for offline replays.
const IdempotencyKeyHeader = "Idempotency-Key"

// Mirror forwards a locally applied mutation to the central server. Edge
// deployments plug one in; it must never fail the local request.
type Mirror interface {
	Mirror(ctx context.Context, op string, payload interface{})
}

type Handler struct {
	svc    *Service
	mirror Mirror
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// WithMirror turns on mutation forwarding for edge deployments.
func (h *Handler) WithMirror(m Mirror) *Handler {
	h.mirror = m
	return h
}

func (h *Handler) forward(c echo.Context, op string, payload interface{}) {
	if h.mirror != nil {
		h.mirror.Mirror(c.Request().Context(), op, payload)
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("professional", "secretary", "admin"))
	readGroup.GET("/records", h.List)
	readGroup.GET("/records/:id", h.Get)
	readGroup.GET("/patients/:id/repeat-template", h.RepeatTemplate)

	writeGroup := api.Group("", auth.RequireRole("professional", "admin"))
	writeGroup.POST("/records", h.Create)
	writeGroup.PUT("/records/:id", h.Update)
	writeGroup.DELETE("/records/:id", h.Delete)
	writeGroup.POST("/records/:id/attend", h.Attend)
	writeGroup.POST("/records/:id/cancel", h.Cancel)
}

func (h *Handler) Create(c echo.Context) error {
	var r Record
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if raw := c.Request().Header.Get(IdempotencyKeyHeader); raw != "" {
		key, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid idempotency key")
		}
		r.IdempotencyKey = &key
	}
	if r.ProfessionalID == uuid.Nil {
		if uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
			r.ProfessionalID = uid
		}
	}
	created, err := h.svc.Create(c.Request().Context(), &r)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.forward(c, syncqueue.TypeRecordCreate, created)
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) List(c echo.Context) error {
	params, err := searchParamsFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// Filters can shrink the set below the requested offset, e.g. after the
	// last record of a page is deleted. Pull the window back to the last
	// non-empty page instead of returning an empty one.
	if len(items) == 0 && total > 0 {
		if clamped := pg.Clamp(total); clamped != pg {
			pg = clamped
			items, total, err = h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func searchParamsFromQuery(c echo.Context) (SearchParams, error) {
	var params SearchParams
	params.PatientName = c.QueryParam("patient_name")
	params.Status = c.QueryParam("status")
	if raw := c.QueryParam("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return params, errors.New("invalid patient_id")
		}
		params.PatientID = id
	}
	if raw := c.QueryParam("from"); raw != "" {
		d, err := dates.ParseCivilDate(raw)
		if err != nil {
			return params, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		params.From = d
	}
	if raw := c.QueryParam("to"); raw != "" {
		d, err := dates.ParseCivilDate(raw)
		if err != nil {
			return params, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		params.To = d
	}
	return params, nil
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var r Record
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r.ID = id
	updated, err := h.svc.Update(c.Request().Context(), &r)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.forward(c, syncqueue.TypeRecordUpdate, updated)
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.forward(c, syncqueue.TypeRecordDelete, map[string]string{"id": id.String()})
	return c.NoContent(http.StatusNoContent)
}

type attendRequest struct {
	DeliveryDate string `json:"delivery_date"`
}

func (h *Handler) Attend(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req attendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	deliveryDate := time.Now()
	if req.DeliveryDate != "" {
		deliveryDate, err = dates.ParseCivilDate(req.DeliveryDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid delivery_date, expected YYYY-MM-DD")
		}
	}
	r, err := h.svc.Attend(c.Request().Context(), id, deliveryDate)
	if err != nil {
		if errors.Is(err, ErrNotPending) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Forward the stored date, not the request's, so a delayed replay
	// lands on the same civil day.
	h.forward(c, syncqueue.TypeRecordAttend, map[string]string{
		"id":            id.String(),
		"delivery_date": dates.FormatCivilDate(*r.DeliveryDate),
	})
	return c.JSON(http.StatusOK, r)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.Cancel(c.Request().Context(), id, req.Reason)
	if err != nil {
		if errors.Is(err, ErrNotPending) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.forward(c, syncqueue.TypeRecordCancel, map[string]string{
		"id":     id.String(),
		"reason": *r.CancelReason,
	})
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) RepeatTemplate(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	tpl, err := h.svc.RepeatTemplate(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if tpl == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, tpl)
}
