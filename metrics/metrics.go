// Package metrics derives the dashboard numbers from a profile. Every
// function is pure and total over validated profiles.
package metrics

import (
	"finora/api/models"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	twelve   = decimal.NewFromInt(12)
	six      = decimal.NewFromInt(6)
	capacity = decimal.RequireFromString("0.7")
)

// LoanPrepaymentPercent is the share of savings suggested for loan
// prepayment when the user has loans and is saving.
const LoanPrepaymentPercent = 20

// TotalExpenses sums the five fixed buckets and every custom expense.
func TotalExpenses(p models.Profile) decimal.Decimal {
	e := p.Expenses
	total := e.Rent.Add(e.Groceries).Add(e.Health).Add(e.Miscellaneous).Add(e.Entertainment)
	for _, c := range e.Custom {
		total = total.Add(c.Amount)
	}
	return total
}

// NetSavings is income minus total expenses. Negative means overspending.
func NetSavings(p models.Profile) decimal.Decimal {
	return p.Income.Sub(TotalExpenses(p))
}

// SavingsRate is net savings as a percentage of income, or zero when there
// is no income.
func SavingsRate(p models.Profile) decimal.Decimal {
	if !p.Income.IsPositive() {
		return decimal.Zero
	}
	return NetSavings(p).Div(p.Income).Mul(hundred)
}

// RoundedSavingsRate is SavingsRate at display precision (one decimal).
func RoundedSavingsRate(p models.Profile) decimal.Decimal {
	return SavingsRate(p).Round(1)
}

// TotalLiabilities sums the outstanding amount of every loan.
func TotalLiabilities(p models.Profile) decimal.Decimal {
	total := decimal.Zero
	for _, l := range p.Loans {
		total = total.Add(l.Amount)
	}
	return total
}

// RequiredMonthlySaving is ceil(target / (years * 12)). A goal with no time
// left needs its whole target now.
func RequiredMonthlySaving(g models.Goal) decimal.Decimal {
	months := g.TimelineYears.Mul(twelve)
	if !months.IsPositive() {
		return g.TargetAmount.Ceil()
	}
	return g.TargetAmount.Div(months).Ceil()
}

// GoalsOnTrack counts the goals whose required monthly saving is covered by
// the current net savings.
func GoalsOnTrack(p models.Profile) int {
	savings := NetSavings(p)
	n := 0
	for _, g := range p.Goals {
		if savings.GreaterThanOrEqual(RequiredMonthlySaving(g)) {
			n++
		}
	}
	return n
}

// InvestmentCapacity is 70% of positive net savings.
func InvestmentCapacity(p models.Profile) decimal.Decimal {
	return decimal.Max(decimal.Zero, NetSavings(p).Mul(capacity))
}

// EmergencyFundAdequate compares six months of savings with six months of
// expenses.
func EmergencyFundAdequate(p models.Profile) bool {
	return NetSavings(p).Mul(six).GreaterThanOrEqual(TotalExpenses(p).Mul(six))
}

// BudgetAlert is raised when the user spends more than they earn.
func BudgetAlert(p models.Profile) bool {
	return NetSavings(p).IsNegative()
}
