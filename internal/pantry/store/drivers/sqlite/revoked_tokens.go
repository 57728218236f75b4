package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/openpantry/pantryd/internal/pantry/domain"
)

type revokedTokensRepo struct {
	db dbtx
}

// Revoke blacklists a jti. INSERT OR IGNORE makes concurrent and repeated
// logout of the same token harmless.
func (r *revokedTokensRepo) Revoke(ctx context.Context, t domain.RevokedToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, revoked_at) VALUES (?, ?)`,
		t.JTI, t.RevokedAt.UTC())
	return err
}

func (r *revokedTokensRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM revoked_tokens WHERE jti = ?`, jti).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
