package metrics

import (
	"math/rand/v2"
	"testing"

	"finora/api/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleProfile() models.Profile {
	p := models.Empty()
	p.Income = d("65000")
	p.Expenses.Rent = d("15000")
	p.Expenses.Groceries = d("8000")
	p.Expenses.Health = d("3000")
	p.Expenses.Miscellaneous = d("5000")
	p.Expenses.Entertainment = d("4000")
	return p
}

func randomProfile(r *rand.Rand) models.Profile {
	amount := func() decimal.Decimal { return decimal.NewFromInt(r.Int64N(100000)) }
	p := models.Empty()
	p.Income = amount()
	p.Expenses.Rent = amount()
	p.Expenses.Groceries = amount()
	for i := 0; i < r.IntN(4); i++ {
		p.Expenses.Custom = append(p.Expenses.Custom, models.CustomExpense{Name: "c", Amount: amount()})
	}
	for i := 0; i < r.IntN(4); i++ {
		p.Loans = append(p.Loans, models.Loan{Amount: amount(), DurationYears: decimal.NewFromInt(1 + r.Int64N(20))})
	}
	for i := 0; i < r.IntN(5); i++ {
		p.Goals = append(p.Goals, models.Goal{
			Type:          "home",
			TargetAmount:  amount().Mul(decimal.NewFromInt(10)),
			TimelineYears: decimal.NewFromInt(1 + r.Int64N(30)),
		})
	}
	return p
}

func TestDashboardScenario(t *testing.T) {
	p := sampleProfile()

	assert.Equal(t, "35000", TotalExpenses(p).String())
	assert.Equal(t, "30000", NetSavings(p).String())
	assert.Equal(t, "46.2", RoundedSavingsRate(p).StringFixed(1))
	assert.False(t, BudgetAlert(p))
}

func TestGoalScenario(t *testing.T) {
	p := sampleProfile()
	goal := models.Goal{Type: "home", TargetAmount: d("1000000"), TimelineYears: d("5")}
	p.Goals = []models.Goal{goal}

	assert.Equal(t, "16667", RequiredMonthlySaving(goal).String())
	assert.Equal(t, 1, GoalsOnTrack(p))
}

func TestOverspendScenario(t *testing.T) {
	p := models.Empty()
	p.Income = d("20000")
	p.Expenses.Rent = d("25000")

	assert.Equal(t, "-5000", NetSavings(p).String())
	assert.Equal(t, "-25.0", RoundedSavingsRate(p).StringFixed(1))
	assert.True(t, BudgetAlert(p))
	assert.True(t, InvestmentCapacity(p).IsZero())
}

func TestZeroExpensesMeansSavingsEqualIncome(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		p := models.Empty()
		p.Income = decimal.NewFromInt(r.Int64N(1_000_000))

		assert.True(t, TotalExpenses(p).IsZero())
		assert.True(t, NetSavings(p).Equal(p.Income))
	}
}

func TestSavingsRateZeroWithoutIncome(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 50; i++ {
		p := randomProfile(r)
		p.Income = decimal.Zero
		assert.True(t, SavingsRate(p).IsZero())
	}
}

func TestTotalLiabilities(t *testing.T) {
	p := models.Empty()
	p.Loans = []models.Loan{{Amount: d("200000")}, {Amount: d("50000.50")}}
	require.Equal(t, "250000.5", TotalLiabilities(p).String())

	before := TotalLiabilities(p)
	p.Loans = append(p.Loans, models.Loan{Amount: decimal.Zero})
	assert.True(t, TotalLiabilities(p).Equal(before))
}

func TestGoalsOnTrackBounded(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 100; i++ {
		p := randomProfile(r)
		assert.LessOrEqual(t, GoalsOnTrack(p), len(p.Goals))
	}
}

func TestGoalsOnTrackAllWhenSavingsCoverEverything(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	for i := 0; i < 50; i++ {
		p := randomProfile(r)
		p.Expenses = models.Expenses{Custom: []models.CustomExpense{}}
		p.Income = decimal.Zero
		for _, g := range p.Goals {
			p.Income = p.Income.Add(RequiredMonthlySaving(g))
		}
		assert.Equal(t, len(p.Goals), GoalsOnTrack(p))
	}
}

func TestRequiredMonthlySavingZeroTimeline(t *testing.T) {
	g := models.Goal{TargetAmount: d("1200.5")}
	assert.Equal(t, "1201", RequiredMonthlySaving(g).String())
}

func TestRequiredMonthlySavingFractionalYears(t *testing.T) {
	g := models.Goal{TargetAmount: d("6000"), TimelineYears: d("0.5")}
	assert.Equal(t, "1000", RequiredMonthlySaving(g).String())
}

func TestEmergencyFund(t *testing.T) {
	p := sampleProfile()
	assert.False(t, EmergencyFundAdequate(p), "30000 saved vs 35000 spent")

	p.Income = d("70000")
	assert.True(t, EmergencyFundAdequate(p))
}

func TestInvestmentCapacity(t *testing.T) {
	assert.Equal(t, "21000", InvestmentCapacity(sampleProfile()).String())
}
