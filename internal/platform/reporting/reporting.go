package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/medlogs/medlogs/internal/platform/auth"
)

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"sql"`
	Parameters  []string `json:"parameters"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "records-by-status",
		Name:        "Records by Status",
		Description: "Number of dispensation records grouped by lifecycle status",
		SQL:         `SELECT status, COUNT(*) AS total FROM record GROUP BY status ORDER BY total DESC`,
		Parameters:  []string{},
	},
	{
		ID:          "dispensation-totals-by-month",
		Name:        "Dispensation Totals by Month",
		Description: "Monthly sum of non-cancelled record values, most recent first",
		SQL: `SELECT EXTRACT(YEAR FROM reference_date)::int AS year,
			EXTRACT(MONTH FROM reference_date)::int AS month,
			COUNT(*) AS records, COALESCE(SUM(total_value), 0) AS total
			FROM record WHERE status <> 'cancelled'
			GROUP BY 1, 2 ORDER BY 1 DESC, 2 DESC`,
		Parameters: []string{},
	},
	{
		ID:          "top-medications",
		Name:        "Top Medications",
		Description: "Medications ranked by how many record lines dispense them",
		SQL: `SELECT m.name, COUNT(*) AS dispensed, COALESCE(SUM(l.value), 0) AS total_value
			FROM record_line l
			JOIN medication m ON m.id = l.medication_id
			JOIN record r ON r.id = l.record_id
			WHERE r.status <> 'cancelled'
			GROUP BY m.name ORDER BY dispensed DESC LIMIT 20`,
		Parameters: []string{},
	},
	{
		ID:          "budget-vs-spend",
		Name:        "Budget vs Spend",
		Description: "Configured monthly allowance against actual non-cancelled spend",
		SQL: `SELECT b.year, b.month, b.amount AS budget,
			COALESCE((SELECT SUM(r.total_value) FROM record r
				WHERE r.status <> 'cancelled'
				  AND EXTRACT(YEAR FROM r.reference_date) = b.year
				  AND EXTRACT(MONTH FROM r.reference_date) = b.month), 0) AS spent
			FROM budget b ORDER BY b.year DESC, b.month DESC`,
		Parameters: []string{},
	},
	{
		ID:          "pending-backlog",
		Name:        "Pending Backlog",
		Description: "Pending records older than a week, oldest first",
		SQL: `SELECT r.id, p.name AS patient, r.pharmacy, r.entry_date, r.total_value
			FROM record r JOIN patient p ON p.id = r.patient_id
			WHERE r.status = 'pending' AND r.entry_date < NOW() - INTERVAL '7 days'
			ORDER BY r.entry_date ASC`,
		Parameters: []string{},
	},
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports", auth.RequireRole("professional", "admin"))
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	params := map[string]string{}
	for _, p := range measure.Parameters {
		if v := c.QueryParam(p); v != "" {
			params[p] = v
		}
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now(),
		Results:     results,
		Parameters:  params,
	})
}

// executeSQL runs a SQL query and returns results as a slice of maps.
func (h *Handler) executeSQL(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	rows, err := h.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	var results []map[string]interface{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}

	if results == nil {
		results = []map[string]interface{}{}
	}

	return results, nil
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
