package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/openpantry/pantryd/internal/pantry/domain"
)

type pantryItemsRepo struct {
	db dbtx
}

const pantryItemColumns = `id, pantry_id, name, used_by, count, run_out_at, created_at, updated_at`

func scanPantryItem(row interface{ Scan(...any) error }) (domain.PantryItem, error) {
	var (
		it       domain.PantryItem
		runOutAt sql.NullTime
	)
	err := row.Scan(
		&it.ID,
		&it.PantryID,
		&it.Name,
		&it.UsedBy,
		&it.Count,
		&runOutAt,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	if err != nil {
		return domain.PantryItem{}, mapNotFound(err)
	}
	if runOutAt.Valid {
		t := runOutAt.Time
		it.RunOutAt = &t
	}
	return it, nil
}

func (r *pantryItemsRepo) CreatePantryItem(ctx context.Context, it domain.PantryItem) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pantry_items (id, pantry_id, name, used_by, count, run_out_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.PantryID, it.Name, it.UsedBy, it.Count, nullTime(it.RunOutAt), now, now)
	return mapConflict(err)
}

func (r *pantryItemsRepo) GetPantryItemByName(ctx context.Context, pantryID, name string) (domain.PantryItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+pantryItemColumns+` FROM pantry_items WHERE pantry_id = ? AND name = ?`,
		pantryID, name)
	return scanPantryItem(row)
}

func (r *pantryItemsRepo) ListPantryItems(ctx context.Context, pantryID string) ([]domain.PantryItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+pantryItemColumns+` FROM pantry_items WHERE pantry_id = ? ORDER BY name`,
		pantryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPantryItems(rows)
}

func (r *pantryItemsRepo) ListPantryItemsUsedByBefore(ctx context.Context, pantryID string, cutoff time.Time) ([]domain.PantryItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+pantryItemColumns+` FROM pantry_items
		 WHERE pantry_id = ? AND used_by <= ?
		 ORDER BY used_by, name`,
		pantryID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPantryItems(rows)
}

func (r *pantryItemsRepo) UpdatePantryItem(ctx context.Context, it domain.PantryItem) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pantry_items
		 SET name = ?, used_by = ?, count = ?, run_out_at = ?, updated_at = ?
		 WHERE id = ?`,
		it.Name, it.UsedBy, it.Count, nullTime(it.RunOutAt), time.Now().UTC(), it.ID)
	if err != nil {
		return mapConflict(err)
	}
	return requireRowAffected(res)
}

func (r *pantryItemsRepo) DeletePantryItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM pantry_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func collectPantryItems(rows *sql.Rows) ([]domain.PantryItem, error) {
	var items []domain.PantryItem
	for rows.Next() {
		it, err := scanPantryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
