package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/openpantry/pantryd/internal/pantry/domain"
	"github.com/openpantry/pantryd/internal/pantry/service"
	"github.com/openpantry/pantryd/internal/pantry/validate"
	"github.com/openpantry/pantryd/pkg/httpx"
)

// PantryHandler serves the inventory routes under /pantry. All of them sit
// behind the session gate.
type PantryHandler struct {
	PantryService *service.PantryService
}

type pantryItemDTO struct {
	Item       string `json:"item"`
	UsedByDate string `json:"used_by_date"`
	Count      int    `json:"count"`
	RunOutTime any    `json:"run_out_time"`
}

func toItemDTO(it domain.PantryItem) pantryItemDTO {
	dto := pantryItemDTO{
		Item:       it.Name,
		UsedByDate: it.UsedBy.Format(validate.UsedByDateLayout),
		Count:      it.Count,
	}
	if it.RunOutAt != nil {
		dto.RunOutTime = it.RunOutAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toItemDTOs(items []domain.PantryItem) []pantryItemDTO {
	dtos := make([]pantryItemDTO, 0, len(items))
	for _, it := range items {
		dtos = append(dtos, toItemDTO(it))
	}
	return dtos
}

// HandleList returns the caller's full pantry, or only the items expiring
// soon when ?expiring_within=<days> is supplied.
func (h *PantryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	if raw := r.URL.Query().Get("expiring_within"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			httpx.WriteError(w, http.StatusBadRequest, "expiring_within must be a non-negative integer number of days")
			return
		}

		items, err := h.PantryService.ListExpiringWithin(ctx, userID, days)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		httpx.WriteMessage(w, http.StatusOK, toItemDTOs(items), nil)
		return
	}

	items, err := h.PantryService.List(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if len(items) == 0 {
		httpx.WriteMessage(w, http.StatusOK, "Pantry is currently empty", nil)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, toItemDTOs(items), nil)
}

// HandleGet returns one item by its case-insensitive name.
func (h *PantryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	item, err := h.PantryService.Get(ctx, httpx.UserIDFromContext(ctx), r.PathValue("item"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, toItemDTO(item), nil)
}

// HandleAdd creates a new item in the caller's pantry.
func (h *PantryHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	values := parseBody(w, r, addItemSchema)
	if values == nil {
		return
	}
	if !applySemantics(w, addItemSchema, values) {
		return
	}

	// The date already passed its semantic rule, so this cannot fail.
	usedBy, _ := time.Parse(validate.UsedByDateLayout, values.String("used_by_date"))

	item, err := h.PantryService.Add(r.Context(), httpx.UserIDFromContext(r.Context()), service.AddItemParams{
		Name:   values.String("item"),
		UsedBy: usedBy,
		Count:  values.Int("count"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteMessage(w, http.StatusCreated, "Item added to the pantry", map[string]any{
		"item": toItemDTO(item),
	})
}

// HandleUpdate applies a partial update to one item.
func (h *PantryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	values := parseBody(w, r, updateItemSchema)
	if values == nil {
		return
	}
	if len(values) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "at least one of item, used_by_date or count must be supplied")
		return
	}
	if !applySemantics(w, updateItemSchema, values) {
		return
	}

	var params service.UpdateItemParams
	if values.Has("item") {
		name := values.String("item")
		params.Name = &name
	}
	if values.Has("used_by_date") {
		usedBy, _ := time.Parse(validate.UsedByDateLayout, values.String("used_by_date"))
		params.UsedBy = &usedBy
	}
	if values.Has("count") {
		count := values.Int("count")
		params.Count = &count
	}

	item, err := h.PantryService.Update(r.Context(), httpx.UserIDFromContext(r.Context()), r.PathValue("item"), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "Item updated successfully", map[string]any{
		"item": toItemDTO(item),
	})
}

// HandleDelete removes one item by name.
func (h *PantryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.PantryService.Remove(ctx, httpx.UserIDFromContext(ctx), r.PathValue("item")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Item removed from the pantry", nil)
}
