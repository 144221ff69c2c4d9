package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProfileInput is the profile as the editor form submits it: every number
// is free text and any field may be blank.
type ProfileInput struct {
	Income                string        `json:"income" yaml:"income"`
	Expenses              ExpensesInput `json:"expenses" yaml:"expenses"`
	Loans                 []LoanInput   `json:"loans" yaml:"loans"`
	Goals                 []GoalInput   `json:"goals" yaml:"goals"`
	RiskAppetite          string        `json:"riskAppetite" yaml:"riskAppetite"`
	InvestmentPreferences []string      `json:"investmentPreferences" yaml:"investmentPreferences"`
}

type ExpensesInput struct {
	Rent          string               `json:"rent" yaml:"rent"`
	Groceries     string               `json:"groceries" yaml:"groceries"`
	Health        string               `json:"health" yaml:"health"`
	Miscellaneous string               `json:"miscellaneous" yaml:"miscellaneous"`
	Entertainment string               `json:"entertainment" yaml:"entertainment"`
	Custom        []CustomExpenseInput `json:"custom" yaml:"custom"`
}

type CustomExpenseInput struct {
	Name   string `json:"name" yaml:"name"`
	Amount string `json:"amount" yaml:"amount"`
}

func (c CustomExpenseInput) blank() bool {
	return isBlank(c.Name) && isBlank(c.Amount)
}

type LoanInput struct {
	Amount       string `json:"amount" yaml:"amount"`
	Duration     string `json:"duration" yaml:"duration"`
	InterestRate string `json:"interestRate" yaml:"interestRate"`
}

func (l LoanInput) blank() bool {
	return isBlank(l.Amount) && isBlank(l.Duration) && isBlank(l.InterestRate)
}

type GoalInput struct {
	Type         string `json:"type" yaml:"type"`
	TargetAmount string `json:"targetAmount" yaml:"targetAmount"`
	Timeline     string `json:"timeline" yaml:"timeline"`
}

func (g GoalInput) blank() bool {
	return isBlank(g.Type) && isBlank(g.TargetAmount) && isBlank(g.Timeline)
}

// Normalize is the one place blank form fields become zero. Rows left
// entirely blank are dropped; anything else that fails to parse, is
// negative, or breaks a profile invariant is reported in a ValidationError.
func (in ProfileInput) Normalize() (Profile, error) {
	v := &ValidationError{}
	p := Empty()

	if isBlank(in.Income) {
		v.add("income", ErrIncomeRequired)
	} else {
		p.Income = parseAmount(v, "income", in.Income)
	}

	p.Expenses.Rent = parseAmount(v, "expenses.rent", in.Expenses.Rent)
	p.Expenses.Groceries = parseAmount(v, "expenses.groceries", in.Expenses.Groceries)
	p.Expenses.Health = parseAmount(v, "expenses.health", in.Expenses.Health)
	p.Expenses.Miscellaneous = parseAmount(v, "expenses.miscellaneous", in.Expenses.Miscellaneous)
	p.Expenses.Entertainment = parseAmount(v, "expenses.entertainment", in.Expenses.Entertainment)

	for _, c := range in.Expenses.Custom {
		if c.blank() {
			continue
		}
		i := len(p.Expenses.Custom)
		p.Expenses.Custom = append(p.Expenses.Custom, CustomExpense{
			Name:   strings.TrimSpace(c.Name),
			Amount: parseAmount(v, indexed("expenses.custom", i, "amount"), c.Amount),
		})
	}

	for _, l := range in.Loans {
		if l.blank() {
			continue
		}
		i := len(p.Loans)
		p.Loans = append(p.Loans, Loan{
			Amount:              parseAmount(v, indexed("loans", i, "amount"), l.Amount),
			DurationYears:       parseAmount(v, indexed("loans", i, "durationYears"), l.Duration),
			InterestRatePercent: parseAmount(v, indexed("loans", i, "interestRatePercent"), l.InterestRate),
		})
	}

	for _, g := range in.Goals {
		if g.blank() {
			continue
		}
		i := len(p.Goals)
		p.Goals = append(p.Goals, Goal{
			Type:          strings.TrimSpace(g.Type),
			TargetAmount:  parseAmount(v, indexed("goals", i, "targetAmount"), g.TargetAmount),
			TimelineYears: parseAmount(v, indexed("goals", i, "timelineYears"), g.Timeline),
		})
	}

	if isBlank(in.RiskAppetite) {
		p.RiskAppetite = RiskMedium
	} else {
		p.RiskAppetite = RiskAppetite(strings.ToLower(strings.TrimSpace(in.RiskAppetite)))
	}

	p.InvestmentPreferences = NormalizePreferences(in.InvestmentPreferences)

	if len(v.Fields) > 0 {
		return Profile{}, v
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Input renders p back into the form shape, e.g. to prefill the editor.
func (p Profile) Input() ProfileInput {
	in := ProfileInput{
		Income: p.Income.String(),
		Expenses: ExpensesInput{
			Rent:          p.Expenses.Rent.String(),
			Groceries:     p.Expenses.Groceries.String(),
			Health:        p.Expenses.Health.String(),
			Miscellaneous: p.Expenses.Miscellaneous.String(),
			Entertainment: p.Expenses.Entertainment.String(),
			Custom:        make([]CustomExpenseInput, 0, len(p.Expenses.Custom)),
		},
		Loans:                 make([]LoanInput, 0, len(p.Loans)),
		Goals:                 make([]GoalInput, 0, len(p.Goals)),
		RiskAppetite:          string(p.RiskAppetite),
		InvestmentPreferences: append([]string{}, p.InvestmentPreferences...),
	}
	for _, c := range p.Expenses.Custom {
		in.Expenses.Custom = append(in.Expenses.Custom, CustomExpenseInput{Name: c.Name, Amount: c.Amount.String()})
	}
	for _, l := range p.Loans {
		in.Loans = append(in.Loans, LoanInput{
			Amount:       l.Amount.String(),
			Duration:     l.DurationYears.String(),
			InterestRate: l.InterestRatePercent.String(),
		})
	}
	for _, g := range p.Goals {
		in.Goals = append(in.Goals, GoalInput{
			Type:         g.Type,
			TargetAmount: g.TargetAmount.String(),
			Timeline:     g.TimelineYears.String(),
		})
	}
	return in
}

// NormalizePreferences trims entries, drops blanks, and removes duplicates
// while keeping first-seen order.
func NormalizePreferences(prefs []string) []string {
	out := make([]string, 0, len(prefs))
	seen := make(map[string]bool, len(prefs))
	for _, pref := range prefs {
		pref = strings.TrimSpace(pref)
		if pref == "" || seen[pref] {
			continue
		}
		seen[pref] = true
		out = append(out, pref)
	}
	return out
}

func parseAmount(v *ValidationError, field, raw string) decimal.Decimal {
	if isBlank(raw) {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		v.add(field, ErrNotANumber)
		return decimal.Zero
	}
	if d.IsNegative() {
		v.add(field, ErrNegative)
		return decimal.Zero
	}
	return d
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
