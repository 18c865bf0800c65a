package config

import "time"

// crudeHierarchy runs last-match-wins, so a label that contains another must
// come after it.
var crudeHierarchy = []HierarchyRule{
	{Label: "US Inland Crudes"},
	{Label: "US Gulf Coast Crudes"},
	{Label: "US West Coast Crudes"},
	{Label: "Canadian Crudes"},
	{Label: "International Crudes"},
	{Label: "Natural Gas"},
	{Label: "Natural Gas Liquids"},
	{Label: "Refined Products"},
}

// DefaultFlavors returns the built-in spreadsheet families.
func DefaultFlavors() []Flavor {
	return []Flavor{
		{
			Name:           "HSM",
			Version:        "2024.1",
			Sheet:          "Price Deck",
			HeaderRow:      3,
			SkipRows:       RowRange{Start: 0, End: 2},
			SeedLabel:      "US Inland Crudes",
			HeaderTruncate: DefaultHeaderTruncate,
			Hierarchy:      crudeHierarchy,
			Tables:         TableSet{Wide: "hsm_price_deck_wide", Long: "hsm_price_deck"},
			Extensions:     []string{".xlsx", ".xlsm"},
			Timeout:        600 * time.Second,
		},
		{
			Name:           "MB",
			Version:        "2024.1",
			Sheet:          "MB Deck",
			HeaderRow:      2,
			SkipRows:       RowRange{Start: 0, End: 1},
			SeedLabel:      "Mont Belvieu NGLs",
			HeaderTruncate: DefaultHeaderTruncate,
			Hierarchy: []HierarchyRule{
				{Label: "Mont Belvieu NGLs"},
				{Label: "Conway NGLs"},
				{Label: "Ethane"},
				{Label: "Propane"},
				{Label: "Butane", Pattern: `(?i)\b(normal|iso)?\s*butane\b`},
				{Label: "Natural Gasoline"},
			},
			Tables:     TableSet{Wide: "mb_price_deck_wide", Long: "mb_price_deck"},
			Extensions: []string{".xlsx"},
			Timeout:    300 * time.Second,
		},
		{
			Name:           "Chicago",
			Version:        "2024.1",
			Sheet:          "Chicago",
			HeaderRow:      3,
			SkipRows:       RowRange{Start: 0, End: 2},
			SeedLabel:      "Chicago Products",
			HeaderTruncate: DefaultHeaderTruncate,
			Hierarchy: []HierarchyRule{
				{Label: "Chicago Products"},
				{Label: "Gasoline"},
				{Label: "Distillates"},
				{Label: "Jet Fuel"},
			},
			Tables:     TableSet{Wide: "chicago_price_deck_wide", Long: "chicago_price_deck"},
			Extensions: []string{".xlsx"},
			Timeout:    300 * time.Second,
		},
		{
			Name:           "Group3",
			Version:        "2024.1",
			Sheet:          "Group 3",
			HeaderRow:      3,
			SkipRows:       RowRange{Start: 0, End: 2},
			SeedLabel:      "Group 3 Products",
			HeaderTruncate: DefaultHeaderTruncate,
			Hierarchy: []HierarchyRule{
				{Label: "Group 3 Products"},
				{Label: "Gasoline"},
				{Label: "Distillates"},
			},
			Tables:     TableSet{Wide: "group3_price_deck_wide", Long: "group3_price_deck"},
			Extensions: []string{".xlsx"},
			Timeout:    400 * time.Second,
		},
	}
}
