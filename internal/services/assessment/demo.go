package assessment

import "labelcheck/internal/domain"

// DemoRecord is returned when no model credential is configured. It is built
// fresh on every call so callers may not alias each other's slices.
func DemoRecord(lang domain.Language) domain.AssessmentRecord {
	zh := lang == domain.LangZH
	pick := func(en, cn string) string {
		if zh {
			return cn
		}
		return en
	}
	return domain.AssessmentRecord{
		IngredientRisk: domain.Section{
			Status: domain.StatusWarn,
			Items: []domain.Finding{
				{
					Name: "Sodium benzoate", NameZh: "苯甲酸钠", Status: domain.StatusWarn,
					Note:       pick("Permitted preservative; usage limit depends on the declared food category.", "允许使用的防腐剂，限量取决于所申报的食品类别。"),
					Regulation: "GB 2760-2014 Table A.1",
				},
				{
					Name: "Sugar", NameZh: "白砂糖", Status: domain.StatusPass,
					Note:       pick("Ordinary food ingredient.", "普通食品原料。"),
					Regulation: "GB 13104-2014",
				},
			},
			Summary: pick("One additive requires confirmation of the applicable usage limit.", "一种食品添加剂需确认适用的使用限量。"),
		},
		LabelCompliance: domain.Section{
			Status: domain.StatusWarn,
			Items: []domain.Finding{
				{
					Name: "Chinese back label", NameZh: "中文背标", Status: domain.StatusWarn,
					Note:       pick("No Chinese label is visible; imported prepackaged food requires one before sale.", "未见中文标签；进口预包装食品销售前须加贴中文标签。"),
					Regulation: "GB 7718-2011 3.2",
				},
				{
					Name: "Net content", NameZh: "净含量", Status: domain.StatusPass,
					Note:       pick("Declared in metric units on the principal display panel.", "已在主要展示版面以法定计量单位标示。"),
					Regulation: "GB 7718-2011 4.1.5",
				},
			},
			Summary: pick("Mandatory elements are present except the Chinese label.", "除中文标签外，强制标示内容齐全。"),
		},
		FacilityRegistration: domain.Section{
			Status: domain.StatusInfo,
			Items: []domain.Finding{
				{
					Name: "Overseas manufacturer registration", NameZh: "境外生产企业注册", Status: domain.StatusInfo,
					Note: pick("Registration number is not printed; it could not be determined from the packaging.", "包装未印注册编号，无法据此判断。"),
				},
			},
			Summary: pick("Registration status could not be determined.", "注册状态无法确定。"),
		},
		MarketingClaims: domain.Section{
			Status: domain.StatusPass,
			Items: []domain.Finding{
				{
					Name: "\"Natural\"", NameZh: "“天然”", Status: domain.StatusPass,
					Note:       pick("General descriptive term; no health function implied.", "一般描述性用语，未暗示保健功能。"),
					Regulation: "GB 7718-2011 3.4",
				},
			},
			Summary: pick("No health or function claims identified.", "未发现保健或功能声称。"),
		},
		OverallRisk: domain.RiskMedium,
		Verdict:     "Potential compliance risk: Chinese labelling and additive limits need confirmation before import.",
		VerdictZh:   "存在潜在合规风险：进口前需确认中文标签及添加剂限量。",
		Recommendations: []string{
			"Prepare a Chinese back label covering all GB 7718 mandatory elements.",
			"Confirm the food category to verify the sodium benzoate limit.",
			"Obtain the overseas manufacturer registration number from the supplier.",
		},
		RecommendationsZh: []string{
			"按GB 7718强制标示要求准备中文背标。",
			"确认食品类别以核实苯甲酸钠限量。",
			"向供应商索取境外生产企业注册编号。",
		},
	}
}

// DemoProduct is the extraction returned in demo mode.
func DemoProduct(lang domain.Language) domain.ProductData {
	category := "Carbonated soft drink"
	if lang == domain.LangZH {
		category = "碳酸饮料"
	}
	return domain.ProductData{
		ProductName:   "Sparkling Lemon Soda",
		ProductNameZh: "",
		Brand:         "Demo Beverages",
		Category:      category,
		Ingredients:   []string{"Carbonated water", "Sugar", "Lemon juice concentrate (5%)", "Citric acid", "Sodium benzoate", "Natural flavouring"},
		NetContent:    "330 ml",
		Manufacturer:  "Demo Beverages Ltd.",
		Origin:        "Italy",
		Claims:        []string{"Natural lemon taste"},
		LabelText:     "Sparkling Lemon Soda. Best before: see cap. Store in a cool, dry place.",
	}
}
