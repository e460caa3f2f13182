package reporting

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medlogs/medlogs/internal/domain/record"
	"github.com/medlogs/medlogs/internal/platform/auth"
	"github.com/medlogs/medlogs/pkg/dates"
)

// exportPageSize bounds both the repository fetch pages and the CSV write
// chunks.
const exportPageSize = 500

// TotalValueHeader carries the summed total of the exported records so the
// client can show it without re-parsing the CSV.
const TotalValueHeader = "X-Total-Value"

// ExportHandler streams a filtered record set as CSV, one row per record.
// The SQL search only pages the raw window in; every filter is applied by
// the record package's in-memory pipeline so the export agrees with the
// report engine on filter semantics.
type ExportHandler struct {
	records *record.Service
}

func NewExportHandler(records *record.Service) *ExportHandler {
	return &ExportHandler{records: records}
}

func (h *ExportHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/reports/records.csv", h.ExportRecords,
		auth.RequireRole("professional", "admin"))
}

var exportHeader = []string{
	"id", "patient", "pharmacy", "status", "reference_date",
	"entry_date", "delivery_date", "total_value", "cancel_reason",
}

// exportFilters are the query parameters the CSV export accepts. last_days
// restricts by entry date, from/to by reference date.
type exportFilters struct {
	patientName string
	status      string
	from, to    time.Time
	lastDays    int
}

func (h *ExportHandler) ExportRecords(c echo.Context) error {
	filters, err := exportFiltersFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	all, err := h.loadAll(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	rows := record.FilterReferenceRange(all, filters.from, filters.to)
	rows = record.FilterPeriod(rows, time.Now(), filters.lastDays)
	rows = record.FilterStatus(rows, filters.status)
	rows = record.FilterPatientName(rows, filters.patientName)
	record.SortByEntryDateDesc(rows)

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="records.csv"`)
	c.Response().Header().Set(TotalValueHeader,
		strconv.FormatFloat(record.SumTotals(rows), 'f', 2, 64))
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write(exportHeader); err != nil {
		return err
	}
	for offset := 0; offset < len(rows); offset += exportPageSize {
		for _, r := range record.Paginate(rows, exportPageSize, offset) {
			if err := w.Write(exportRow(r)); err != nil {
				return err
			}
		}
		w.Flush()
	}

	w.Flush()
	return w.Error()
}

// loadAll pages the full record window out of the repository. Clinic data
// sets are small enough to refine in memory.
func (h *ExportHandler) loadAll(c echo.Context) ([]*record.Record, error) {
	var all []*record.Record
	for offset := 0; ; offset += exportPageSize {
		page, total, err := h.records.Search(c.Request().Context(),
			record.SearchParams{}, exportPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if offset+exportPageSize >= total || len(page) == 0 {
			break
		}
	}
	return all, nil
}

func exportFiltersFromQuery(c echo.Context) (exportFilters, error) {
	var f exportFilters
	f.patientName = c.QueryParam("patient_name")
	f.status = c.QueryParam("status")
	if raw := c.QueryParam("last_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid last_days, expected a non-negative integer")
		}
		f.lastDays = n
	}
	if raw := c.QueryParam("from"); raw != "" {
		d, err := dates.ParseCivilDate(raw)
		if err != nil {
			return f, fmt.Errorf("invalid from date, expected YYYY-MM-DD")
		}
		f.from = d
	}
	if raw := c.QueryParam("to"); raw != "" {
		d, err := dates.ParseCivilDate(raw)
		if err != nil {
			return f, fmt.Errorf("invalid to date, expected YYYY-MM-DD")
		}
		f.to = d
	}
	return f, nil
}

func exportRow(r *record.Record) []string {
	delivery := ""
	if r.DeliveryDate != nil {
		delivery = dates.FormatCivilDate(*r.DeliveryDate)
	}
	reason := ""
	if r.CancelReason != nil {
		reason = *r.CancelReason
	}
	return []string{
		r.ID.String(),
		r.PatientName,
		r.Pharmacy,
		r.Status,
		dates.FormatCivilDate(r.ReferenceDate),
		dates.FormatCivilDate(r.EntryDate),
		delivery,
		strconv.FormatFloat(r.TotalValue, 'f', 2, 64),
		reason,
	}
}
