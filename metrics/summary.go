package metrics

import (
	"fmt"

	"finora/api/models"

	"github.com/shopspring/decimal"
)

// ExpenseLine is one row of the dashboard expense breakdown.
type ExpenseLine struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Custom bool            `json:"custom"`
}

// GoalProgress is one goal card of the dashboard.
type GoalProgress struct {
	Type            string          `json:"type"`
	Label           string          `json:"label"`
	TargetAmount    decimal.Decimal `json:"target_amount"`
	TimelineYears   decimal.Decimal `json:"timeline_years"`
	RequiredMonthly decimal.Decimal `json:"required_monthly"`
	OnTrack         bool            `json:"on_track"`
}

// Summary is the read-only dashboard view of a profile.
type Summary struct {
	Income                decimal.Decimal `json:"income"`
	TotalExpenses         decimal.Decimal `json:"total_expenses"`
	NetSavings            decimal.Decimal `json:"net_savings"`
	SavingsRate           decimal.Decimal `json:"savings_rate"`
	TotalLiabilities      decimal.Decimal `json:"total_liabilities"`
	LoanCount             int             `json:"loan_count"`
	GoalCount             int             `json:"goal_count"`
	GoalsOnTrack          int             `json:"goals_on_track"`
	BudgetAlert           bool            `json:"budget_alert"`
	InvestmentCapacity    decimal.Decimal `json:"investment_capacity"`
	EmergencyFundAdequate bool            `json:"emergency_fund_adequate"`
	LoanPrepaymentPercent int             `json:"loan_prepayment_percent"`
	Expenses              []ExpenseLine   `json:"expenses"`
	Goals                 []GoalProgress  `json:"goals"`
	Insights              []string        `json:"insights"`
}

// Summarize computes every dashboard figure for p in one pass.
func Summarize(p models.Profile) Summary {
	s := Summary{
		Income:                p.Income,
		TotalExpenses:         TotalExpenses(p),
		NetSavings:            NetSavings(p),
		SavingsRate:           RoundedSavingsRate(p),
		TotalLiabilities:      TotalLiabilities(p),
		LoanCount:             len(p.Loans),
		GoalCount:             len(p.Goals),
		GoalsOnTrack:          GoalsOnTrack(p),
		BudgetAlert:           BudgetAlert(p),
		InvestmentCapacity:    InvestmentCapacity(p),
		EmergencyFundAdequate: EmergencyFundAdequate(p),
		Expenses:              expenseLines(p),
		Goals:                 make([]GoalProgress, 0, len(p.Goals)),
	}
	if s.LoanCount > 0 && s.NetSavings.IsPositive() {
		s.LoanPrepaymentPercent = LoanPrepaymentPercent
	}
	for _, g := range p.Goals {
		required := RequiredMonthlySaving(g)
		s.Goals = append(s.Goals, GoalProgress{
			Type:            g.Type,
			Label:           models.GoalLabel(g.Type),
			TargetAmount:    g.TargetAmount,
			TimelineYears:   g.TimelineYears,
			RequiredMonthly: required,
			OnTrack:         s.NetSavings.GreaterThanOrEqual(required),
		})
	}
	s.Insights = insights(s)
	return s
}

func expenseLines(p models.Profile) []ExpenseLine {
	e := p.Expenses
	lines := []ExpenseLine{
		{Name: "Rent", Amount: e.Rent},
		{Name: "Groceries", Amount: e.Groceries},
		{Name: "Health", Amount: e.Health},
		{Name: "Miscellaneous", Amount: e.Miscellaneous},
		{Name: "Entertainment", Amount: e.Entertainment},
	}
	for _, c := range e.Custom {
		lines = append(lines, ExpenseLine{Name: c.Name, Amount: c.Amount, Custom: true})
	}
	return lines
}

func insights(s Summary) []string {
	var out []string
	if s.NetSavings.IsPositive() {
		out = append(out, fmt.Sprintf("Great job! You're saving %s%% of your income.", s.SavingsRate.StringFixed(1)))
	} else {
		out = append(out, "Your expenses exceed your income. Consider reviewing your budget to create savings opportunities.")
	}
	if s.GoalCount > 0 && s.NetSavings.IsPositive() {
		out = append(out, fmt.Sprintf("Based on your current savings rate, you're projected to achieve %d out of %d goals on schedule.",
			s.GoalsOnTrack, s.GoalCount))
	}
	if s.LoanPrepaymentPercent > 0 {
		out = append(out, fmt.Sprintf("Consider allocating %d%% of your savings toward loan prepayment to save on interest costs.",
			s.LoanPrepaymentPercent))
	}
	return out
}
