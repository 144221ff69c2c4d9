package models

import (
	"slices"

	"github.com/shopspring/decimal"
)

// RiskAppetite is the user's declared tolerance for investment risk.
type RiskAppetite string

const (
	RiskLow    RiskAppetite = "low"
	RiskMedium RiskAppetite = "medium"
	RiskHigh   RiskAppetite = "high"
)

// Valid reports whether r is one of the three accepted values.
func (r RiskAppetite) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Description is the one-line blurb the editor shows next to each choice.
func (r RiskAppetite) Description() string {
	switch r {
	case RiskLow:
		return "Preserve capital, minimal risk"
	case RiskMedium:
		return "Balanced growth & safety"
	case RiskHigh:
		return "Maximize returns, accept volatility"
	}
	return ""
}

// CustomExpense is a user-named monthly expense. Names need not be unique.
type CustomExpense struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Expenses holds the five fixed monthly buckets plus custom entries in
// insertion order.
type Expenses struct {
	Rent          decimal.Decimal `json:"rent"`
	Groceries     decimal.Decimal `json:"groceries"`
	Health        decimal.Decimal `json:"health"`
	Miscellaneous decimal.Decimal `json:"miscellaneous"`
	Entertainment decimal.Decimal `json:"entertainment"`
	Custom        []CustomExpense `json:"custom"`
}

type Loan struct {
	Amount              decimal.Decimal `json:"amount"`
	DurationYears       decimal.Decimal `json:"durationYears"`
	InterestRatePercent decimal.Decimal `json:"interestRatePercent"`
}

type Goal struct {
	Type          string          `json:"type"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	TimelineYears decimal.Decimal `json:"timelineYears"`
}

// Profile is the user's self-reported financial snapshot. It is replaced
// wholesale on every save.
type Profile struct {
	Income                decimal.Decimal `json:"income"`
	Expenses              Expenses        `json:"expenses"`
	Loans                 []Loan          `json:"loans"`
	Goals                 []Goal          `json:"goals"`
	RiskAppetite          RiskAppetite    `json:"riskAppetite"`
	InvestmentPreferences []string        `json:"investmentPreferences"`
}

// Empty returns the profile created at sign-up: all zero, medium risk,
// empty collections.
func Empty() Profile {
	return Profile{
		Expenses:              Expenses{Custom: []CustomExpense{}},
		Loans:                 []Loan{},
		Goals:                 []Goal{},
		RiskAppetite:          RiskMedium,
		InvestmentPreferences: []string{},
	}
}

// Clone returns a deep copy whose collections share nothing with p.
// Nil collections come back as empty slices.
func (p Profile) Clone() Profile {
	out := p
	out.Expenses.Custom = append([]CustomExpense{}, p.Expenses.Custom...)
	out.Loans = append([]Loan{}, p.Loans...)
	out.Goals = append([]Goal{}, p.Goals...)
	out.InvestmentPreferences = append([]string{}, p.InvestmentPreferences...)
	return out
}

// Equal compares two profiles field for field, using numeric equality for
// amounts so "1.50" equals "1.5".
func (p Profile) Equal(q Profile) bool {
	if !p.Income.Equal(q.Income) || p.RiskAppetite != q.RiskAppetite {
		return false
	}
	pe, qe := p.Expenses, q.Expenses
	if !pe.Rent.Equal(qe.Rent) || !pe.Groceries.Equal(qe.Groceries) ||
		!pe.Health.Equal(qe.Health) || !pe.Miscellaneous.Equal(qe.Miscellaneous) ||
		!pe.Entertainment.Equal(qe.Entertainment) {
		return false
	}
	if !slices.EqualFunc(pe.Custom, qe.Custom, func(a, b CustomExpense) bool {
		return a.Name == b.Name && a.Amount.Equal(b.Amount)
	}) {
		return false
	}
	if !slices.EqualFunc(p.Loans, q.Loans, func(a, b Loan) bool {
		return a.Amount.Equal(b.Amount) && a.DurationYears.Equal(b.DurationYears) &&
			a.InterestRatePercent.Equal(b.InterestRatePercent)
	}) {
		return false
	}
	if !slices.EqualFunc(p.Goals, q.Goals, func(a, b Goal) bool {
		return a.Type == b.Type && a.TargetAmount.Equal(b.TargetAmount) &&
			a.TimelineYears.Equal(b.TimelineYears)
	}) {
		return false
	}
	return slices.Equal(p.InvestmentPreferences, q.InvestmentPreferences)
}

// Validate checks the schema invariants of an already-typed profile.
func (p Profile) Validate() error {
	v := &ValidationError{}
	nonNegative := func(field string, d decimal.Decimal) {
		if d.IsNegative() {
			v.add(field, ErrNegative)
		}
	}

	nonNegative("income", p.Income)
	nonNegative("expenses.rent", p.Expenses.Rent)
	nonNegative("expenses.groceries", p.Expenses.Groceries)
	nonNegative("expenses.health", p.Expenses.Health)
	nonNegative("expenses.miscellaneous", p.Expenses.Miscellaneous)
	nonNegative("expenses.entertainment", p.Expenses.Entertainment)
	for i, c := range p.Expenses.Custom {
		nonNegative(indexed("expenses.custom", i, "amount"), c.Amount)
	}
	for i, l := range p.Loans {
		nonNegative(indexed("loans", i, "amount"), l.Amount)
		nonNegative(indexed("loans", i, "durationYears"), l.DurationYears)
		nonNegative(indexed("loans", i, "interestRatePercent"), l.InterestRatePercent)
	}
	for i, g := range p.Goals {
		nonNegative(indexed("goals", i, "targetAmount"), g.TargetAmount)
		if g.TimelineYears.IsNegative() {
			v.add(indexed("goals", i, "timelineYears"), ErrNegative)
		} else if g.TimelineYears.IsZero() {
			v.add(indexed("goals", i, "timelineYears"), ErrInvalidGoalTimeline)
		}
	}
	if !p.RiskAppetite.Valid() {
		v.add("riskAppetite", ErrInvalidRiskAppetite)
	}
	return v.orNil()
}
