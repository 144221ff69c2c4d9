package analysis

import (
	"fmt"
	"strings"

	"finora/api/metrics"
	"finora/api/models"
)

// Markdown renders the dashboard of p as a markdown document, used by the
// command line summary.
func Markdown(p models.Profile) string {
	s := metrics.Summarize(p)
	var b strings.Builder

	b.WriteString("# Financial Dashboard\n\n")
	if s.BudgetAlert {
		b.WriteString("> **Budget alert:** your expenses exceed your income.\n\n")
	}

	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Monthly income | %s |\n", FormatMoney(s.Income))
	fmt.Fprintf(&b, "| Total expenses | %s |\n", FormatMoney(s.TotalExpenses))
	fmt.Fprintf(&b, "| Net savings | %s |\n", FormatMoney(s.NetSavings))
	fmt.Fprintf(&b, "| Savings rate | %s%% |\n", s.SavingsRate.StringFixed(1))
	fmt.Fprintf(&b, "| Total liabilities | %s (%d loans) |\n", FormatMoney(s.TotalLiabilities), s.LoanCount)
	fmt.Fprintf(&b, "| Goals on track | %d / %d |\n", s.GoalsOnTrack, s.GoalCount)
	fmt.Fprintf(&b, "| Investment capacity | %s |\n", FormatMoney(s.InvestmentCapacity))

	b.WriteString("\n## Expenses\n\n")
	for _, line := range s.Expenses {
		if line.Amount.IsZero() && !line.Custom {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", line.Name, FormatMoney(line.Amount))
	}

	if len(s.Goals) > 0 {
		b.WriteString("\n## Goals\n\n| Goal | Target | Years | Monthly | Status |\n|---|---|---|---|---|\n")
		for _, g := range s.Goals {
			status := "behind"
			if g.OnTrack {
				status = "on track"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				g.Label, FormatMoney(g.TargetAmount), g.TimelineYears.String(), FormatMoney(g.RequiredMonthly), status)
		}
	}

	b.WriteString("\n## Profile\n\n")
	fmt.Fprintf(&b, "- Risk appetite: %s (%s)\n", p.RiskAppetite, p.RiskAppetite.Description())
	if len(p.InvestmentPreferences) > 0 {
		fmt.Fprintf(&b, "- Preferences: %s\n", strings.Join(p.InvestmentPreferences, ", "))
	}

	if len(s.Insights) > 0 {
		b.WriteString("\n## Insights\n\n")
		for _, insight := range s.Insights {
			fmt.Fprintf(&b, "- %s\n", insight)
		}
	}
	return b.String()
}
