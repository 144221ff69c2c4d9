package models

// GoalType is a predefined goal the editor offers. Any other string in
// Goal.Type is a free-text "Other" goal.
type GoalType struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var GoalTypes = []GoalType{
	{ID: "home", Label: "Buying a Home", Icon: "home"},
	{ID: "education", Label: "Child's Education", Icon: "graduation-cap"},
	{ID: "vacation", Label: "Dream Vacation", Icon: "plane"},
	{ID: "safety", Label: "Emergency Fund", Icon: "shield"},
	{ID: "car", Label: "Buying a Car", Icon: "car"},
	{ID: "business", Label: "Start Business", Icon: "building"},
}

// GoalLabel returns the display label for a goal type, or the free text
// itself for "Other" goals.
func GoalLabel(goalType string) string {
	for _, g := range GoalTypes {
		if g.ID == goalType {
			return g.Label
		}
	}
	return goalType
}

var InvestmentOptions = []string{
	"Gold",
	"Stocks",
	"Mutual Funds",
	"ETFs",
	"Government Bonds",
	"Real Estate",
	"Cryptocurrency",
}

// IsInvestmentOption reports whether pref comes from the fixed catalog
// rather than the free-text field.
func IsInvestmentOption(pref string) bool {
	for _, opt := range InvestmentOptions {
		if opt == pref {
			return true
		}
	}
	return false
}
