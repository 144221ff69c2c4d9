package analysis

import (
	"context"
	"fmt"
	"time"

	"finora/api/metrics"
	"finora/api/models"
)

// Stage is a batch of terminal lines printed At after the request starts.
type Stage struct {
	At    time.Duration
	Lines []string
}

const DefaultQuery = "General financial analysis"

// Greeting is what the terminal shows before any request.
var Greeting = []string{
	"[INIT] Financial AI System initialized successfully",
	"[LOAD] Loading 18 specialized agents across 6 categories...",
	"[READY] All agents are online and ready for analysis",
	"[STATUS] Awaiting user input...",
}

// Script returns the three stages of a scripted analysis of p: the request
// echo, the agent chatter one second in, and the summary at 3.5 seconds.
// No agent actually runs; the numbers come straight from metrics.
func Script(p models.Profile, query string) []Stage {
	if query == "" {
		query = DefaultQuery
	}

	emergency := "Needs Attention"
	if metrics.EmergencyFundAdequate(p) {
		emergency = "Adequate"
	}

	return []Stage{
		{At: 0, Lines: []string{
			"[REQUEST] New analysis request received",
			"[DATA] Processing user financial snapshot...",
			"[QUERY] " + query,
			"",
			"[ORCHESTRATOR] master_orchestrator activated",
			"[ORCHESTRATOR] Analyzing overall financial context...",
			"[DISPATCH] Delegating tasks to specialized agents...",
			"",
		}},
		{At: time.Second, Lines: []string{
			"[ANALYSIS] life_context_agent: Evaluating life stage and priorities",
			"[ANALYSIS] clarity_agent: Identifying financial clarity gaps",
			"[PLANNING] action_pathfinder: Creating action roadmap",
			"[CASHFLOW] cash_flow_agent: Analyzing income and expense patterns",
			fmt.Sprintf("[SAVINGS] Current savings rate: %s%%", metrics.RoundedSavingsRate(p).StringFixed(1)),
			"",
			"[STRATEGY] debt_strategist: Evaluating debt obligations",
			"[DEBT] Total liabilities: " + FormatMoney(metrics.TotalLiabilities(p)),
			"[TAX] tax_optimizer: Identifying tax-saving opportunities",
			"[GOALS] goal_architect: Aligning goals with financial capacity",
			"",
			"[INVESTMENT] asset_allocator: Building optimal portfolio mix",
			"[INVESTMENT] tactical_agent: Analyzing market opportunities",
			"[INVESTMENT] alt_investments_agent: Exploring alternatives",
			"[ESG] esg_agent: Screening sustainable investment options",
			"",
			"[RISK] risk_intelligence: Assessing risk exposure",
			"[RISK] stress_tester: Running stress scenarios",
			"[COMPLIANCE] compliance_agent: Verifying regulatory alignment",
			"",
			"[EDUCATION] wellness_coach: Personal finance wellness check",
			"[EDUCATION] literacy_tutor: Knowledge gap identification",
			"[CAPABILITY] capability_builder: Skill development recommendations",
			"",
		}},
		{At: 3500 * time.Millisecond, Lines: []string{
			"[SYNTHESIS] Aggregating insights from all agents...",
			"[COMPLETE] ✓ Analysis complete",
			"[COMPLETE] ✓ Recommendations generated",
			"[COMPLETE] ✓ Report ready",
			"",
			"[SUMMARY] Net Monthly Savings: " + FormatMoney(metrics.NetSavings(p)),
			"[SUMMARY] Investment Capacity: " + FormatMoney(metrics.InvestmentCapacity(p)),
			"[SUMMARY] Emergency Fund Status: " + emergency,
			"",
			"[STATUS] System ready for next query",
		}},
	}
}

// Play emits every line of stages, waiting until each stage's offset from
// the start. It stops early when ctx is done or emit fails.
func Play(ctx context.Context, stages []Stage, emit func(line string) error) error {
	start := time.Now()
	for _, stage := range stages {
		if wait := stage.At - time.Since(start); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		for _, line := range stage.Lines {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emit(line); err != nil {
				return err
			}
		}
	}
	return nil
}
