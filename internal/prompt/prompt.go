// Package prompt builds the instruction text sent to the model.
// Output is a pure function of its inputs.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"labelcheck/internal/domain"
)

type Kind int

const (
	KindImageAnalysis Kind = iota
	KindConfirmedAnalysis
	KindExtraction
)

func (k Kind) String() string {
	switch k {
	case KindImageAnalysis:
		return "image_analysis"
	case KindConfirmedAnalysis:
		return "confirmed_analysis"
	case KindExtraction:
		return "extraction"
	}
	return "unknown"
}

// Terms the model must not use, with the hedged wording to use instead.
var substitutions = [][2]string{
	{"illegal", "potential compliance risk"},
	{"banned", "subject to import restriction review"},
	{"prohibited", "not listed as permitted for this category"},
	{"violation", "structural compliance gap"},
	{"must be recalled", "may warrant corrective labelling"},
	{"fraudulent", "claim requiring substantiation"},
}

// Build returns the instruction for kind in lang.
func Build(kind Kind, lang domain.Language) string {
	var b strings.Builder
	switch kind {
	case KindExtraction:
		writeExtraction(&b, lang)
	case KindConfirmedAnalysis:
		b.WriteString("You are a food import compliance reviewer. The product data below was extracted from packaging images and confirmed by the user. Assess it as if you were reading the label.\n\n")
		writeAssessment(&b, lang)
	default:
		b.WriteString("You are a food import compliance reviewer. Read every attached packaging image or document page and assess the product.\n\n")
		writeAssessment(&b, lang)
	}
	return b.String()
}

// BuildConfirmed returns the confirmed-data analysis prompt with data appended.
func BuildConfirmed(data domain.ProductData, lang domain.Language) string {
	payload, _ := json.MarshalIndent(data, "", "  ")
	return Build(KindConfirmedAnalysis, lang) + "\nCONFIRMED PRODUCT DATA:\n" + string(payload) + "\n"
}

func writeAssessment(b *strings.Builder, lang domain.Language) {
	primary, secondary := languageNames(lang)

	b.WriteString("Return ONLY one JSON object. No markdown, no code fences, no text before or after it.\n\n")
	b.WriteString("OUTPUT SCHEMA:\n")
	b.WriteString(`{
  "ingredientRisk":       {"status": "pass|warn|fail", "items": [FINDING], "summary": string},
  "labelCompliance":      {"status": "pass|warn|fail", "items": [FINDING], "summary": string},
  "facilityRegistration": {"status": "pass|warn|info", "items": [FINDING], "summary": string},
  "marketingClaims":      {"status": "pass|warn|fail", "items": [FINDING], "summary": string},
  "overallRisk": "low|medium|high",
  "verdict": string,
  "verdictZh": string,
  "recommendations": [string],
  "recommendationsZh": [string]
}
FINDING = {"name": string, "nameZh": string, "status": <section status>, "note": string, "regulation": string}
`)
	b.WriteString("\nFIELD RULES:\n")
	fmt.Fprintf(b, "- \"name\", \"verdict\", \"recommendations\" are written in %s.\n", languageLabel(domain.LangEN))
	fmt.Fprintf(b, "- \"nameZh\", \"verdictZh\", \"recommendationsZh\" are written in %s.\n", languageLabel(domain.LangZH))
	fmt.Fprintf(b, "- \"note\" and every \"summary\" are written in %s.\n", primary)
	b.WriteString("- Both keys of every bilingual pair must be present. Use an empty string when a value cannot be determined.\n")
	b.WriteString("- \"recommendations\" and \"recommendationsZh\" are parallel lists of equal length.\n")
	b.WriteString("- Finding status uses the enum of its section. facilityRegistration never uses \"fail\"; use \"info\" when registration cannot be confirmed from the packaging.\n")
	b.WriteString("- Every finding in ingredientRisk, labelCompliance and marketingClaims carries a non-empty \"regulation\" naming the standard and clause relied on (for example \"GB 7718-2011 4.1.5\").\n")
	b.WriteString("- overallRisk is \"high\" if any section is \"fail\", otherwise \"medium\" if any section is \"warn\", otherwise \"low\".\n")

	b.WriteString("\nWRITING RULES:\n")
	fmt.Fprintf(b, "- Use a formal, neutral regulatory register. Do not address the reader directly. Do not switch to %s outside the %s fields.\n", secondary, secondary)
	b.WriteString("- Describe risk in hedged, structural terms. State what the packaging shows and which requirement it relates to.\n")
	b.WriteString("- Do not use absolute negative legal terms. Substitute:\n")
	for _, s := range substitutions {
		fmt.Fprintf(b, "  - \"%s\" -> \"%s\"\n", s[0], s[1])
	}
	b.WriteString("- Do not invent registration numbers, test results or certifications not visible in the input.\n")
}

func writeExtraction(b *strings.Builder, lang domain.Language) {
	primary, _ := languageNames(lang)

	b.WriteString("You transcribe food packaging. Read every attached image or document page and extract the printed product information. Do not assess compliance or risk.\n\n")
	b.WriteString("Return ONLY one JSON object. No markdown, no code fences, no text before or after it.\n\n")
	b.WriteString("OUTPUT SCHEMA:\n")
	b.WriteString(`{
  "productName": string,
  "productNameZh": string,
  "brand": string,
  "category": string,
  "ingredients": [string],
  "netContent": string,
  "manufacturer": string,
  "origin": string,
  "facilityRegistration": string,
  "claims": [string],
  "labelText": string
}
`)
	b.WriteString("\nFIELD RULES:\n")
	b.WriteString("- \"productName\" is the name as printed; \"productNameZh\" is the Chinese name if printed, otherwise an empty string.\n")
	b.WriteString("- \"ingredients\" lists each ingredient in printed order, one entry per ingredient, without percentages merged into other entries.\n")
	b.WriteString("- \"claims\" lists every marketing, nutrition or health statement verbatim.\n")
	b.WriteString("- \"facilityRegistration\" is the overseas manufacturer registration number if printed, otherwise an empty string.\n")
	fmt.Fprintf(b, "- \"category\" is a short product category written in %s.\n", primary)
	b.WriteString("- Every key must be present. Use an empty string or empty list when a value is not visible.\n")
}

func languageNames(lang domain.Language) (primary, secondary string) {
	if lang == domain.LangZH {
		return languageLabel(domain.LangZH), languageLabel(domain.LangEN)
	}
	return languageLabel(domain.LangEN), languageLabel(domain.LangZH)
}

func languageLabel(lang domain.Language) string {
	if lang == domain.LangZH {
		return "Simplified Chinese"
	}
	return "English"
}
