package record

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const recordCols = `r.id, r.patient_id, p.name, r.professional_id, r.pharmacy,
	r.reference_date, r.entry_date, r.delivery_date, r.observation, r.cancel_reason,
	r.total_value, r.status, r.idempotency_key, r.created_at, r.updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.PatientID, &r.PatientName, &r.ProfessionalID, &r.Pharmacy,
		&r.ReferenceDate, &r.EntryDate, &r.DeliveryDate, &r.Observation, &r.CancelReason,
		&r.TotalValue, &r.Status, &r.IdempotencyKey, &r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (r *repoPG) loadLines(ctx context.Context, rec *Record) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, record_id, medication_id, quantity, value
		FROM record_line WHERE record_id = $1 ORDER BY position ASC`, rec.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.RecordID, &l.MedicationID, &l.Quantity, &l.Value); err != nil {
			return err
		}
		rec.Lines = append(rec.Lines, l)
	}
	return rows.Err()
}

func insertLines(ctx context.Context, tx pgx.Tx, rec *Record) error {
	for i := range rec.Lines {
		l := &rec.Lines[i]
		l.ID = uuid.New()
		l.RecordID = rec.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO record_line (id, record_id, medication_id, quantity, value, position)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			l.ID, l.RecordID, l.MedicationID, l.Quantity, l.Value, i); err != nil {
			return fmt.Errorf("insert line %d: %w", i+1, err)
		}
	}
	return nil
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rec.ID = uuid.New()
	if _, err := tx.Exec(ctx, `
		INSERT INTO record (id, patient_id, professional_id, pharmacy, reference_date,
			entry_date, observation, total_value, status, idempotency_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.PatientID, rec.ProfessionalID, rec.Pharmacy, rec.ReferenceDate,
		rec.EntryDate, rec.Observation, rec.TotalValue, rec.Status, rec.IdempotencyKey); err != nil {
		return err
	}
	if err := insertLines(ctx, tx, rec); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, `
		SELECT `+recordCols+` FROM record r
		JOIN patient p ON p.id = r.patient_id
		WHERE r.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *repoPG) GetByIdempotencyKey(ctx context.Context, key uuid.UUID) (*Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, `
		SELECT `+recordCols+` FROM record r
		JOIN patient p ON p.id = r.patient_id
		WHERE r.idempotency_key = $1`, key))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadLines(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE record SET pharmacy=$2, reference_date=$3, delivery_date=$4, observation=$5,
			cancel_reason=$6, total_value=$7, status=$8, updated_at=NOW()
		WHERE id = $1`,
		rec.ID, rec.Pharmacy, rec.ReferenceDate, rec.DeliveryDate, rec.Observation,
		rec.CancelReason, rec.TotalValue, rec.Status); err != nil {
		return err
	}
	// Lines are replaced wholesale; the payload always carries the full set.
	if _, err := tx.Exec(ctx, `DELETE FROM record_line WHERE record_id = $1`, rec.ID); err != nil {
		return err
	}
	if err := insertLines(ctx, tx, rec); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	// record_line.record_id has ON DELETE CASCADE
	_, err := r.pool.Exec(ctx, `DELETE FROM record WHERE id = $1`, id)
	return err
}

func (r *repoPG) LatestNonCancelled(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, `
		SELECT `+recordCols+` FROM record r
		JOIN patient p ON p.id = r.patient_id
		WHERE r.patient_id = $1 AND r.status <> $2
		ORDER BY r.entry_date DESC LIMIT 1`, patientID, StatusCancelled))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadLines(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *repoPG) Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Record, int, error) {
	const where = `
		WHERE ($1::uuid IS NULL OR r.patient_id = $1)
		  AND p.name ILIKE '%' || $2 || '%'
		  AND ($3 = '' OR r.status = $3)
		  AND ($4::timestamptz IS NULL OR r.reference_date >= $4)
		  AND ($5::timestamptz IS NULL OR r.reference_date <= $5)`

	var patientID interface{}
	if params.PatientID != uuid.Nil {
		patientID = params.PatientID
	}
	var from, to interface{}
	if !params.From.IsZero() {
		from = params.From
	}
	if !params.To.IsZero() {
		to = params.To
	}
	args := []interface{}{patientID, params.PatientName, params.Status, from, to}

	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM record r
		JOIN patient p ON p.id = r.patient_id`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+recordCols+` FROM record r
		JOIN patient p ON p.id = r.patient_id`+where+`
		ORDER BY r.entry_date DESC LIMIT $6 OFFSET $7`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, rec := range items {
		if err := r.loadLines(ctx, rec); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}
