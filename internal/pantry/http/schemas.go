package http

import (
	"io"
	"net/http"

	"github.com/openpantry/pantryd/internal/pantry/validate"
	"github.com/openpantry/pantryd/pkg/httpx"
)

// maxBodyBytes caps request bodies; every payload here is a handful of
// short fields.
const maxBodyBytes = 1 << 16

// Request schemas. Shape gates (duplicate keys, unknown fields, required
// fields, blank values, primitive types) run through Schema.Parse in every
// handler; semantic rules attached here run via Schema.Apply only where the
// flow's ordering allows it (the change-secret flows check identity first
// and validate inside the service instead).
var (
	registerSchema = validate.NewSchema(
		validate.Field{Name: "username", Required: true, Kind: validate.String, Fold: true},
		validate.Field{Name: "password", Required: true, Kind: validate.String},
		validate.Field{Name: "email", Required: true, Kind: validate.String, Fold: true},
		validate.Field{Name: "security_answer", Required: true, Kind: validate.String, Fold: true},
	)

	loginSchema = validate.NewSchema(
		validate.Field{Name: "username", Required: true, Kind: validate.String, Fold: true},
		validate.Field{Name: "password", Required: true, Kind: validate.String},
	)

	forgotPasswordSchema = validate.NewSchema(
		validate.Field{Name: "username", Required: true, Kind: validate.String, Fold: true},
		validate.Field{Name: "security_answer", Required: true, Kind: validate.String, Fold: true},
		validate.Field{Name: "new_password", Required: true, Kind: validate.String},
		validate.Field{Name: "confirm_password", Required: true, Kind: validate.String},
	)

	resetPasswordSchema = validate.NewSchema(
		validate.Field{Name: "old_password", Required: true, Kind: validate.String},
		validate.Field{Name: "new_password", Required: true, Kind: validate.String},
		validate.Field{Name: "confirm_password", Required: true, Kind: validate.String},
	)

	resetAnswerSchema = validate.NewSchema(
		validate.Field{Name: "old_security_answer", Required: true, Kind: validate.String, Fold: true},
		validate.Field{Name: "new_security_answer", Required: true, Kind: validate.String, Fold: true},
		validate.Field{Name: "confirm_security_answer", Required: true, Kind: validate.String, Fold: true},
	)

	addItemSchema = validate.NewSchema(
		validate.Field{Name: "item", Required: true, Kind: validate.String, Fold: true, Rule: validate.ItemName},
		validate.Field{Name: "used_by_date", Required: true, Kind: validate.String, Fold: true, Rule: validate.UsedByDate},
		validate.Field{Name: "count", Required: true, Kind: validate.Int, IntRule: validate.NonNegativeCount},
	)

	updateItemSchema = validate.NewSchema(
		validate.Field{Name: "item", Required: false, Kind: validate.String, Fold: true, Rule: validate.ItemName},
		validate.Field{Name: "used_by_date", Required: false, Kind: validate.String, Fold: true, Rule: validate.UsedByDate},
		validate.Field{Name: "count", Required: false, Kind: validate.Int, IntRule: validate.NonNegativeCount},
	)
)

// parseBody reads the request body and runs the schema's shape gates. A nil
// Values return means the rejection has already been written.
func parseBody(w http.ResponseWriter, r *http.Request, schema validate.Schema) validate.Values {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "request body could not be read")
		return nil
	}

	values, err := schema.Parse(body)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return nil
	}
	return values
}

// applySemantics runs the schema's semantic rules over parsed values,
// writing the rejection on failure.
func applySemantics(w http.ResponseWriter, schema validate.Schema, values validate.Values) bool {
	if err := schema.Apply(values); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
