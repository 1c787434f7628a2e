package normalize

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"labelcheck/internal/domain"
)

// SectionSpec describes one assessment section. Statuses applies to the
// section itself and to every finding inside it.
type SectionSpec struct {
	Key              string
	Statuses         []domain.Status
	CitationRequired bool
}

// Schema is the expected shape of an AssessmentRecord.
type Schema struct {
	Sections   []SectionSpec
	RiskLevels []domain.RiskLevel
}

var (
	judged    = []domain.Status{domain.StatusPass, domain.StatusWarn, domain.StatusFail}
	uncertain = []domain.Status{domain.StatusPass, domain.StatusWarn, domain.StatusInfo}
)

// AssessmentSchema is the shape requested by the analysis prompts.
// facilityRegistration uses "info" where the others use "fail".
var AssessmentSchema = Schema{
	Sections: []SectionSpec{
		{Key: "ingredientRisk", Statuses: judged, CitationRequired: true},
		{Key: "labelCompliance", Statuses: judged, CitationRequired: true},
		{Key: "facilityRegistration", Statuses: uncertain},
		{Key: "marketingClaims", Statuses: judged, CitationRequired: true},
	},
	RiskLevels: []domain.RiskLevel{domain.RiskLow, domain.RiskMedium, domain.RiskHigh},
}

// Relaxed returns a copy of s that does not require regulatory citations.
func (s Schema) Relaxed() Schema {
	out := Schema{RiskLevels: s.RiskLevels, Sections: make([]SectionSpec, len(s.Sections))}
	for i, sec := range s.Sections {
		sec.CitationRequired = false
		out.Sections[i] = sec
	}
	return out
}

func (s Schema) Validate(raw json.RawMessage) error {
	root, err := object("", raw)
	if err != nil {
		return err
	}
	for _, sec := range s.Sections {
		if err := sec.validate(root); err != nil {
			return err
		}
	}

	risk, err := requiredString(root, "", "overallRisk")
	if err != nil {
		return err
	}
	if !slices.Contains(s.RiskLevels, domain.RiskLevel(risk)) {
		return &FieldError{Field: "overallRisk", Message: fmt.Sprintf("%q is not one of %s", risk, joinRisk(s.RiskLevels))}
	}
	for _, key := range []string{"verdict", "verdictZh"} {
		if _, err := requiredString(root, "", key); err != nil {
			return err
		}
	}
	en, err := stringArray(root, "", "recommendations")
	if err != nil {
		return err
	}
	zh, err := stringArray(root, "", "recommendationsZh")
	if err != nil {
		return err
	}
	if en != zh {
		return &FieldError{Field: "recommendationsZh", Message: fmt.Sprintf("has %d entries, recommendations has %d", zh, en)}
	}
	return nil
}

func (sec SectionSpec) validate(root map[string]json.RawMessage) error {
	raw, ok := root[sec.Key]
	if !ok {
		return &FieldError{Field: sec.Key, Message: "required section is missing"}
	}
	obj, err := object(sec.Key, raw)
	if err != nil {
		return err
	}
	if err := sec.status(obj, sec.Key); err != nil {
		return err
	}
	if err := optionalString(obj, sec.Key, "summary"); err != nil {
		return err
	}

	itemsRaw, ok := obj["items"]
	if !ok {
		return &FieldError{Field: sec.Key + ".items", Message: "required field is missing"}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(itemsRaw, &items); err != nil || items == nil {
		return &FieldError{Field: sec.Key + ".items", Message: "must be an array"}
	}
	for i, itemRaw := range items {
		path := fmt.Sprintf("%s.items[%d]", sec.Key, i)
		item, err := object(path, itemRaw)
		if err != nil {
			return err
		}
		for _, key := range []string{"name", "nameZh"} {
			if _, err := requiredString(item, path, key); err != nil {
				return err
			}
		}
		if err := sec.status(item, path); err != nil {
			return err
		}
		if err := optionalString(item, path, "note"); err != nil {
			return err
		}
		if sec.CitationRequired {
			cite, err := requiredString(item, path, "regulation")
			if err != nil {
				return err
			}
			if strings.TrimSpace(cite) == "" {
				return &FieldError{Field: path + ".regulation", Message: "regulatory citation must not be empty"}
			}
		} else if err := optionalString(item, path, "regulation"); err != nil {
			return err
		}
	}
	return nil
}

func (sec SectionSpec) status(obj map[string]json.RawMessage, path string) error {
	st, err := requiredString(obj, path, "status")
	if err != nil {
		return err
	}
	if !slices.Contains(sec.Statuses, domain.Status(st)) {
		return &FieldError{Field: join(path, "status"), Message: fmt.Sprintf("%q is not one of %s", st, joinStatus(sec.Statuses))}
	}
	return nil
}

// productSchema validates the extraction step's output.
type productSchema struct{}

// ProductSchema requires both product name keys and an ingredients array.
var ProductSchema Validator = productSchema{}

func (productSchema) Validate(raw json.RawMessage) error {
	root, err := object("", raw)
	if err != nil {
		return err
	}
	for _, key := range []string{"productName", "productNameZh"} {
		if _, err := requiredString(root, "", key); err != nil {
			return err
		}
	}
	if _, err := stringArray(root, "", "ingredients"); err != nil {
		return err
	}
	for _, key := range []string{"brand", "category", "netContent", "manufacturer", "origin", "facilityRegistration", "labelText"} {
		if err := optionalString(root, "", key); err != nil {
			return err
		}
	}
	if _, ok := root["claims"]; ok {
		if _, err := stringArray(root, "", "claims"); err != nil {
			return err
		}
	}
	return nil
}

func object(path string, raw json.RawMessage) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		field := path
		if field == "" {
			field = "$"
		}
		return nil, &FieldError{Field: field, Message: "must be an object"}
	}
	return obj, nil
}

func requiredString(obj map[string]json.RawMessage, path, key string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", &FieldError{Field: join(path, key), Message: "required field is missing"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || string(raw) == "null" {
		return "", &FieldError{Field: join(path, key), Message: "must be a string"}
	}
	return s, nil
}

func optionalString(obj map[string]json.RawMessage, path, key string) error {
	raw, ok := obj[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return &FieldError{Field: join(path, key), Message: "must be a string"}
	}
	return nil
}

// stringArray returns the length of the array at key.
func stringArray(obj map[string]json.RawMessage, path, key string) (int, error) {
	raw, ok := obj[key]
	if !ok {
		return 0, &FieldError{Field: join(path, key), Message: "required field is missing"}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		return 0, &FieldError{Field: join(path, key), Message: "must be an array of strings"}
	}
	return len(list), nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func joinStatus(ss []domain.Status) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = string(s)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func joinRisk(rs []domain.RiskLevel) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = string(r)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
