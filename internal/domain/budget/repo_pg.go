package budget

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const budgetCols = `id, year, month, amount, created_at, updated_at`

func scanBudget(row pgx.Row) (*Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.Year, &b.Month, &b.Amount, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *repoPG) Create(ctx context.Context, b *Budget) error {
	b.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO budget (id, year, month, amount)
		VALUES ($1,$2,$3,$4)`,
		b.ID, b.Year, b.Month, b.Amount)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Budget, error) {
	return scanBudget(r.pool.QueryRow(ctx, `SELECT `+budgetCols+` FROM budget WHERE id = $1`, id))
}

func (r *repoPG) GetByMonth(ctx context.Context, year, month int) (*Budget, error) {
	b, err := scanBudget(r.pool.QueryRow(ctx,
		`SELECT `+budgetCols+` FROM budget WHERE year = $1 AND month = $2`, year, month))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (r *repoPG) Update(ctx context.Context, b *Budget) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE budget SET year=$2, month=$3, amount=$4, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.Year, b.Month, b.Amount)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM budget WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, year int) ([]*Budget, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+budgetCols+` FROM budget
		WHERE ($1 = 0 OR year = $1)
		ORDER BY year DESC, month DESC`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *repoPG) SpentForMonth(ctx context.Context, year, month int) (float64, error) {
	var spent float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_value), 0) FROM record
		WHERE status <> 'cancelled'
		  AND EXTRACT(YEAR FROM reference_date) = $1
		  AND EXTRACT(MONTH FROM reference_date) = $2`,
		year, month).Scan(&spent)
	return spent, err
}
