package distributor

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

const distCols = `id, name, kind, active, created_at, updated_at`

func scanDist(row pgx.Row) (*Distributor, error) {
	var d Distributor
	err := row.Scan(&d.ID, &d.Name, &d.Kind, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Distributor) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO distributor (id, name, kind, active) VALUES ($1,$2,$3,$4)`,
		d.ID, d.Name, d.Kind, d.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Distributor, error) {
	return scanDist(r.pool.QueryRow(ctx, `SELECT `+distCols+` FROM distributor WHERE id = $1`, id))
}

func (r *repoPG) GetByName(ctx context.Context, name string) (*Distributor, error) {
	return scanDist(r.pool.QueryRow(ctx,
		`SELECT `+distCols+` FROM distributor WHERE LOWER(name) = LOWER($1)`, name))
}

func (r *repoPG) Update(ctx context.Context, d *Distributor) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE distributor SET name=$2, kind=$3, active=$4, updated_at=NOW() WHERE id = $1`,
		d.ID, d.Name, d.Kind, d.Active)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM distributor WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Distributor, int, error) {
	const where = ` WHERE ($1 = false OR active)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM distributor`+where, activeOnly).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+distCols+` FROM distributor`+where+` ORDER BY name ASC LIMIT $2 OFFSET $3`,
		activeOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Distributor
	for rows.Next() {
		d, err := scanDist(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}
