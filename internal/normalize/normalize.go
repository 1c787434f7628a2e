// Package normalize turns free-text model output into validated records.
//
// Recovery runs two tiers in order and stops at the first that parses:
// the strict tier drops a code fence wrapping the whole text and decodes what is left,
// the salvage tier decodes the span from the first '{' to the last '}'.
// A parsed value is then checked against a Schema. Every failure is a
// *MalformedResponse; nothing here retries, logs or touches global state.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"labelcheck/internal/domain"
)

type Tier int

const (
	TierStrict Tier = iota + 1
	TierSalvage
)

func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierSalvage:
		return "salvage"
	}
	return "none"
}

// Validator checks the shape of a parsed JSON value.
type Validator interface {
	Validate(raw json.RawMessage) error
}

// Fences are only recognised at the ends of the text. Backticks inside JSON
// strings are content.
var (
	openFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*")
	closeFence = regexp.MustCompile("```$")
)

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !openFence.MatchString(s) {
		return s
	}
	s = strings.TrimSpace(openFence.ReplaceAllString(s, ""))
	return strings.TrimSpace(closeFence.ReplaceAllString(s, ""))
}

// Recover extracts a single JSON value from raw model output.
func Recover(raw string) (json.RawMessage, Tier, error) {
	if v, err := decodeOne(stripFence(raw)); err == nil {
		return v, TierStrict, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < 0 || start >= end {
		return nil, TierSalvage, &MalformedResponse{
			Code:    ParseFailed,
			Message: "no JSON object found in response",
			Tier:    TierSalvage,
			Excerpt: excerpt(raw),
		}
	}
	v, err := decodeOne(raw[start : end+1])
	if err != nil {
		return nil, TierSalvage, &MalformedResponse{
			Code:    ParseFailed,
			Message: err.Error(),
			Tier:    TierSalvage,
			Excerpt: excerpt(raw),
		}
	}
	return v, TierSalvage, nil
}

// Normalize recovers and validates an AssessmentRecord using AssessmentSchema.
func Normalize(raw string) (domain.AssessmentRecord, Tier, error) {
	return decode[domain.AssessmentRecord](raw, AssessmentSchema)
}

// NormalizeProduct recovers and validates the extraction step's ProductData.
func NormalizeProduct(raw string) (domain.ProductData, Tier, error) {
	return decode[domain.ProductData](raw, ProductSchema)
}

// NormalizeWith is Normalize against a caller-supplied schema variant.
func NormalizeWith(raw string, schema Schema) (domain.AssessmentRecord, Tier, error) {
	return decode[domain.AssessmentRecord](raw, schema)
}

func decode[T any](raw string, v Validator) (T, Tier, error) {
	var out T
	value, tier, err := Recover(raw)
	if err != nil {
		return out, tier, err
	}
	if err := v.Validate(value); err != nil {
		mr := &MalformedResponse{
			Code:    ShapeInvalid,
			Message: err.Error(),
			Tier:    tier,
			Excerpt: excerpt(raw),
		}
		var fe *FieldError
		if errors.As(err, &fe) {
			mr.Field = fe.Field
			mr.Message = fe.Message
		}
		return out, tier, mr
	}
	if err := json.Unmarshal(value, &out); err != nil {
		return out, tier, &MalformedResponse{
			Code:    ShapeInvalid,
			Message: err.Error(),
			Tier:    tier,
			Excerpt: excerpt(raw),
		}
	}
	return out, tier, nil
}

// decodeOne accepts exactly one JSON value; trailing content is an error.
func decodeOne(s string) (json.RawMessage, error) {
	if s == "" {
		return nil, errors.New("empty input")
	}
	dec := json.NewDecoder(strings.NewReader(s))
	var v json.RawMessage
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected content after JSON value")
	}
	return bytes.TrimSpace(v), nil
}
