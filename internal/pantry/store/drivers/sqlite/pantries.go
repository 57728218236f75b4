package sqlite

import (
	"context"
	"time"

	"github.com/openpantry/pantryd/internal/pantry/domain"
)

type pantriesRepo struct {
	db dbtx
}

func (r *pantriesRepo) CreatePantry(ctx context.Context, p domain.Pantry) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pantries (id, user_id, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, now, now)
	return mapConflict(err)
}

func (r *pantriesRepo) GetPantryByUserID(ctx context.Context, userID string) (domain.Pantry, error) {
	var p domain.Pantry
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at, updated_at FROM pantries WHERE user_id = ?`,
		userID).Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Pantry{}, mapNotFound(err)
	}
	return p, nil
}
