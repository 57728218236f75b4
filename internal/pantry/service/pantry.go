package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/openpantry/pantryd/internal/pantry/domain"
	"github.com/openpantry/pantryd/internal/pantry/store"
	"github.com/openpantry/pantryd/pkg/idx"
	"github.com/openpantry/pantryd/pkg/slogx"
)

var (
	ErrItemNotFound = errors.New("item_not_found")
	ErrItemExists   = errors.New("item_exists")
)

// PantryService manages the per-user item inventory. Item names are
// case-insensitive: they are stored lowercase and every lookup folds its
// input the same way.
type PantryService struct {
	Store store.Store
}

// AddItemParams are the cleaned fields for a new item.
type AddItemParams struct {
	Name   string
	UsedBy time.Time
	Count  int
}

// UpdateItemParams carry the optional fields of a partial update. Nil means
// "leave unchanged".
type UpdateItemParams struct {
	Name   *string
	UsedBy *time.Time
	Count  *int
}

// List returns every item in the user's pantry, ordered by name.
func (s *PantryService) List(ctx context.Context, userID string) ([]domain.PantryItem, error) {
	pantry, err := s.Store.Pantries().GetPantryByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Store.PantryItems().ListPantryItems(ctx, pantry.ID)
}

// ListExpiringWithin returns items whose used-by date falls on or before
// today plus `days` days, soonest first. There is no lower bound: items
// already past their used-by date stay in every window until removed.
func (s *PantryService) ListExpiringWithin(ctx context.Context, userID string, days int) ([]domain.PantryItem, error) {
	pantry, err := s.Store.Pantries().GetPantryByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, days)
	return s.Store.PantryItems().ListPantryItemsUsedByBefore(ctx, pantry.ID, cutoff)
}

// Get returns a single item by its case-insensitive name.
func (s *PantryService) Get(ctx context.Context, userID, name string) (domain.PantryItem, error) {
	pantry, err := s.Store.Pantries().GetPantryByUserID(ctx, userID)
	if err != nil {
		return domain.PantryItem{}, err
	}

	item, err := s.Store.PantryItems().GetPantryItemByName(ctx, pantry.ID, foldName(name))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.PantryItem{}, ErrItemNotFound
		}
		return domain.PantryItem{}, err
	}
	return item, nil
}

// Add inserts a new item. An item that arrives already run out (count zero)
// gets its run-out time stamped immediately.
func (s *PantryService) Add(ctx context.Context, userID string, p AddItemParams) (domain.PantryItem, error) {
	pantry, err := s.Store.Pantries().GetPantryByUserID(ctx, userID)
	if err != nil {
		return domain.PantryItem{}, err
	}

	item := domain.PantryItem{
		ID:       idx.New().String(),
		PantryID: pantry.ID,
		Name:     foldName(p.Name),
		UsedBy:   p.UsedBy,
		Count:    p.Count,
	}
	if p.Count == 0 {
		now := time.Now().UTC()
		item.RunOutAt = &now
	}

	if err := s.Store.PantryItems().CreatePantryItem(ctx, item); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.PantryItem{}, ErrItemExists
		}
		return domain.PantryItem{}, err
	}

	slogx.FromContext(ctx).Info("pantry item added",
		slog.String("user_id", userID),
		slog.String("item", item.Name),
	)
	return item, nil
}

// Update applies a partial update to an item. Renaming onto an existing
// item's name is a conflict. A count hitting zero stamps the run-out time;
// restocking above zero clears it.
func (s *PantryService) Update(ctx context.Context, userID, name string, p UpdateItemParams) (domain.PantryItem, error) {
	item, err := s.Get(ctx, userID, name)
	if err != nil {
		return domain.PantryItem{}, err
	}

	if p.Name != nil {
		item.Name = foldName(*p.Name)
	}
	if p.UsedBy != nil {
		item.UsedBy = *p.UsedBy
	}
	if p.Count != nil {
		item.Count = *p.Count
		if item.Count == 0 {
			if item.RunOutAt == nil {
				now := time.Now().UTC()
				item.RunOutAt = &now
			}
		} else {
			item.RunOutAt = nil
		}
	}

	if err := s.Store.PantryItems().UpdatePantryItem(ctx, item); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.PantryItem{}, ErrItemExists
		}
		if errors.Is(err, store.ErrNotFound) {
			return domain.PantryItem{}, ErrItemNotFound
		}
		return domain.PantryItem{}, err
	}
	return item, nil
}

// Remove deletes an item by its case-insensitive name.
func (s *PantryService) Remove(ctx context.Context, userID, name string) error {
	item, err := s.Get(ctx, userID, name)
	if err != nil {
		return err
	}

	if err := s.Store.PantryItems().DeletePantryItem(ctx, item.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrItemNotFound
		}
		return err
	}

	slogx.FromContext(ctx).Info("pantry item removed",
		slog.String("user_id", userID),
		slog.String("item", item.Name),
	)
	return nil
}

func foldName(name string) string { return strings.ToLower(name) }
