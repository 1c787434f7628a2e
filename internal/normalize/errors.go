package normalize

import (
	"fmt"
	"unicode/utf8"
)

// ExcerptLimit caps the raw text carried by a MalformedResponse, in runes.
const ExcerptLimit = 800

type Code string

const (
	ParseFailed  Code = "ParseFailed"
	ShapeInvalid Code = "ShapeInvalid"
)

// MalformedResponse reports why model output could not become a record.
// Tier is the last recovery strategy attempted; Field is set for ShapeInvalid.
type MalformedResponse struct {
	Code    Code
	Message string
	Field   string
	Tier    Tier
	Excerpt string
}

func (e *MalformedResponse) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed model response (%s, %s tier): %s: %s", e.Code, e.Tier, e.Field, e.Message)
	}
	return fmt.Sprintf("malformed model response (%s, %s tier): %s", e.Code, e.Tier, e.Message)
}

// FieldError is a shape violation at a JSON path such as "ingredientRisk.items[1].status".
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func excerpt(raw string) string {
	if utf8.RuneCountInString(raw) <= ExcerptLimit {
		return raw
	}
	runes := []rune(raw)
	return string(runes[:ExcerptLimit]) + "…"
}
