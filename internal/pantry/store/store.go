package store

import (
	"context"
	"errors"
	"time"

	"github.com/openpantry/pantryd/internal/pantry/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	RevokedTokens() RevokedTokens
	Pantries() Pantries
	PantryItems() PantryItems

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error, the
	// transaction is rolled back; otherwise it is committed. This is the
	// recommended way to run multi-step writes that must be atomic (e.g.
	// registration provisioning the user's pantry).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername looks up by the normalized (lowercase) username.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail looks up by the normalized (lowercase) email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the username or email is taken; the
	// UNIQUE constraints here are the final arbiter under concurrency.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateSecurityAnswerHash sets the security_answer_hash and bumps updated_at.
	UpdateSecurityAnswerHash(ctx context.Context, userID string, newHash string) error
}

type RevokedTokens interface {
	// Revoke records a blacklist entry. Revoking the same jti twice is
	// harmless (insert-or-ignore semantics).
	Revoke(ctx context.Context, t domain.RevokedToken) error

	// IsRevoked reports whether the jti has been blacklisted.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Pantries interface {
	// CreatePantry inserts the pantry owned by a user (one per user).
	CreatePantry(ctx context.Context, p domain.Pantry) error

	// GetPantryByUserID returns the pantry owned by the given user.
	GetPantryByUserID(ctx context.Context, userID string) (domain.Pantry, error)
}

type PantryItems interface {
	// CreatePantryItem inserts a new item. Returns ErrAlreadyExists when
	// the pantry already holds an item with that name.
	CreatePantryItem(ctx context.Context, it domain.PantryItem) error

	// GetPantryItemByName returns the item with the given normalized name.
	GetPantryItemByName(ctx context.Context, pantryID, name string) (domain.PantryItem, error)

	// ListPantryItems returns all items in a pantry ordered by name.
	ListPantryItems(ctx context.Context, pantryID string) ([]domain.PantryItem, error)

	// ListPantryItemsUsedByBefore returns items whose used-by date falls on
	// or before the cutoff, ordered by used-by date.
	ListPantryItemsUsedByBefore(ctx context.Context, pantryID string, cutoff time.Time) ([]domain.PantryItem, error)

	// UpdatePantryItem rewrites the mutable fields of an item by id.
	UpdatePantryItem(ctx context.Context, it domain.PantryItem) error

	// DeletePantryItem removes an item by id.
	DeletePantryItem(ctx context.Context, id string) error
}
