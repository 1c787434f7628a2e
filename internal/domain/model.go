package domain

import (
	"strings"
	"time"
)

// Core domain models. The JSON tags on AssessmentRecord and ProductData are the
// wire shape the model is asked to produce and the shape the API returns.

type Language string

const (
	LangEN Language = "en"
	LangZH Language = "zh"
)

// ParseLanguage maps a request selector onto a Language; anything unknown is en.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zh", "zh-cn", "cn", "chinese":
		return LangZH
	default:
		return LangEN
	}
}

type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
	StatusInfo Status = "info"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Score is the ordinal used for sorting saved reports. It is not a risk percentage.
func (r RiskLevel) Score() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	}
	return 0
}

type Finding struct {
	Name       string `json:"name"`
	NameZh     string `json:"nameZh"`
	Status     Status `json:"status"`
	Note       string `json:"note"`
	Regulation string `json:"regulation,omitempty"`
}

type Section struct {
	Status  Status    `json:"status"`
	Items   []Finding `json:"items"`
	Summary string    `json:"summary"`
}

// AssessmentRecord is produced by the normalizer and treated as a value afterwards.
type AssessmentRecord struct {
	IngredientRisk       Section   `json:"ingredientRisk"`
	LabelCompliance      Section   `json:"labelCompliance"`
	FacilityRegistration Section   `json:"facilityRegistration"`
	MarketingClaims      Section   `json:"marketingClaims"`
	OverallRisk          RiskLevel `json:"overallRisk"`
	Verdict              string    `json:"verdict"`
	VerdictZh            string    `json:"verdictZh"`
	Recommendations      []string  `json:"recommendations"`
	RecommendationsZh    []string  `json:"recommendationsZh"`
}

// ProductData is the raw extraction a user confirms before the second analysis step.
type ProductData struct {
	ProductName          string   `json:"productName"`
	ProductNameZh        string   `json:"productNameZh"`
	Brand                string   `json:"brand"`
	Category             string   `json:"category"`
	Ingredients          []string `json:"ingredients"`
	NetContent           string   `json:"netContent"`
	Manufacturer         string   `json:"manufacturer"`
	Origin               string   `json:"origin"`
	FacilityRegistration string   `json:"facilityRegistration"`
	Claims               []string `json:"claims"`
	LabelText            string   `json:"labelText"`
}

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Company      *string
	CreatedAt    time.Time
}

type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SavedReport wraps a record once a user saves it. There is no update path.
type SavedReport struct {
	ID         int64
	ExternalID string
	OwnerID    int64
	Title      string
	Language   Language
	Score      int
	Record     AssessmentRecord
	CreatedAt  time.Time
}

// Registration is the input to account creation.
type Registration struct {
	Email    string
	Password string
	Name     string
	Company  string
}
