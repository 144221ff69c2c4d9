// Package analysis builds what the investment-analysis screen shows: the
// structured snapshot of the user's finances handed to the agents, and the
// scripted terminal session played while they "work".
package analysis

import (
	"encoding/json"

	"finora/api/metrics"
	"finora/api/models"

	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

type FinancialSnapshot struct {
	MonthlyIncome         json.Number `json:"monthly_income"`
	MonthlyExpenses       json.Number `json:"monthly_expenses"`
	NetMonthlySavings     json.Number `json:"net_monthly_savings"`
	SavingsRatePercentage json.Number `json:"savings_rate_percentage"`
}

type CustomExpense struct {
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

type ExpenseBreakdown struct {
	Housing        json.Number     `json:"housing"`
	Groceries      json.Number     `json:"groceries"`
	Healthcare     json.Number     `json:"healthcare"`
	Entertainment  json.Number     `json:"entertainment"`
	Miscellaneous  json.Number     `json:"miscellaneous"`
	CustomExpenses []CustomExpense `json:"custom_expenses"`
}

type LoanDetail struct {
	Amount         json.Number `json:"amount"`
	DurationMonths json.Number `json:"duration_months"`
	InterestRate   json.Number `json:"interest_rate"`
}

type Liabilities struct {
	TotalLoans  json.Number  `json:"total_loans"`
	LoanDetails []LoanDetail `json:"loan_details"`
}

type GoalDetail struct {
	Type           string      `json:"type"`
	TargetAmount   json.Number `json:"target_amount"`
	TimelineMonths json.Number `json:"timeline_months"`
}

type Goals struct {
	TotalGoals  int          `json:"total_goals"`
	GoalDetails []GoalDetail `json:"goal_details"`
}

type RiskProfile struct {
	RiskAppetite          models.RiskAppetite `json:"risk_appetite"`
	InvestmentPreferences []string            `json:"investment_preferences"`
}

// Snapshot is the structured user data the analysis screen displays and
// lets the user copy.
type Snapshot struct {
	FinancialSnapshot FinancialSnapshot `json:"financial_snapshot"`
	ExpenseBreakdown  ExpenseBreakdown  `json:"expense_breakdown"`
	Liabilities       Liabilities       `json:"liabilities"`
	Goals             Goals             `json:"goals"`
	RiskProfile       RiskProfile       `json:"risk_profile"`
}

func num(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// BuildSnapshot converts p into a Snapshot. Durations are reported in
// months; the savings rate keeps two decimals.
func BuildSnapshot(p models.Profile) Snapshot {
	e := p.Expenses
	s := Snapshot{
		FinancialSnapshot: FinancialSnapshot{
			MonthlyIncome:         num(p.Income),
			MonthlyExpenses:       num(metrics.TotalExpenses(p)),
			NetMonthlySavings:     num(metrics.NetSavings(p)),
			SavingsRatePercentage: num(metrics.SavingsRate(p).Round(2)),
		},
		ExpenseBreakdown: ExpenseBreakdown{
			Housing:        num(e.Rent),
			Groceries:      num(e.Groceries),
			Healthcare:     num(e.Health),
			Entertainment:  num(e.Entertainment),
			Miscellaneous:  num(e.Miscellaneous),
			CustomExpenses: make([]CustomExpense, 0, len(e.Custom)),
		},
		Liabilities: Liabilities{
			TotalLoans:  num(metrics.TotalLiabilities(p)),
			LoanDetails: make([]LoanDetail, 0, len(p.Loans)),
		},
		Goals: Goals{
			TotalGoals:  len(p.Goals),
			GoalDetails: make([]GoalDetail, 0, len(p.Goals)),
		},
		RiskProfile: RiskProfile{
			RiskAppetite:          p.RiskAppetite,
			InvestmentPreferences: append([]string{}, p.InvestmentPreferences...),
		},
	}
	for _, c := range e.Custom {
		s.ExpenseBreakdown.CustomExpenses = append(s.ExpenseBreakdown.CustomExpenses,
			CustomExpense{Category: c.Name, Amount: num(c.Amount)})
	}
	for _, l := range p.Loans {
		s.Liabilities.LoanDetails = append(s.Liabilities.LoanDetails, LoanDetail{
			Amount:         num(l.Amount),
			DurationMonths: num(l.DurationYears.Mul(twelve)),
			InterestRate:   num(l.InterestRatePercent),
		})
	}
	for _, g := range p.Goals {
		s.Goals.GoalDetails = append(s.Goals.GoalDetails, GoalDetail{
			Type:           g.Type,
			TargetAmount:   num(g.TargetAmount),
			TimelineMonths: num(g.TimelineYears.Mul(twelve)),
		})
	}
	return s
}
