package domain

import "time"

// Pantry is the single item collection owned by a user. It is provisioned
// in the same transaction as the user row and never outlives it.
type Pantry struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PantryItem is one perishable record. Name is stored lowercase and is
// unique within its pantry. RunOutAt is stamped when the count hits zero
// and cleared when it is restocked.
type PantryItem struct {
	ID        string
	PantryID  string
	Name      string
	UsedBy    time.Time // date the item should be used by
	Count     int
	RunOutAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
