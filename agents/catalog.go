// Package agents is the decorative "AI agents network" shown next to the
// analysis terminal. Nothing here computes anything: the catalog is static
// and the network only animates markers between random pairs of agents.
package agents

type Category string

const (
	CategoryAnalysis       Category = "analysis"
	CategoryRisk           Category = "risk"
	CategoryData           Category = "data"
	CategoryStrategy       Category = "strategy"
	CategoryExecution      Category = "execution"
	CategoryInfrastructure Category = "infrastructure"
)

// Position is the agent's cell in the 3-column grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Agent struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Icon     string   `json:"icon"`
	Color    string   `json:"color"`
	Category Category `json:"category"`
	Position Position `json:"position"`
}

var Catalog = []Agent{
	{1, "Market Analyzer", "trending-up", "from-blue-500 to-cyan-500", CategoryAnalysis, Position{0, 0}},
	{2, "Risk Assessor", "shield", "from-red-500 to-orange-500", CategoryRisk, Position{1, 0}},
	{3, "Data Miner", "search", "from-purple-500 to-pink-500", CategoryData, Position{2, 0}},
	{4, "Portfolio Optimizer", "target", "from-green-500 to-emerald-500", CategoryStrategy, Position{0, 1}},
	{5, "Sentiment Analyzer", "brain", "from-indigo-500 to-purple-500", CategoryAnalysis, Position{1, 1}},
	{6, "Price Predictor", "dollar-sign", "from-yellow-500 to-amber-500", CategoryAnalysis, Position{2, 1}},
	{7, "Chart Pattern", "bar-chart-3", "from-teal-500 to-cyan-500", CategoryAnalysis, Position{0, 2}},
	{8, "Volatility Tracker", "activity", "from-rose-500 to-red-500", CategoryRisk, Position{1, 2}},
	{9, "Execution Engine", "zap", "from-orange-500 to-yellow-500", CategoryExecution, Position{2, 2}},
	{10, "Trend Forecaster", "line-chart", "from-blue-600 to-indigo-600", CategoryAnalysis, Position{0, 3}},
	{11, "Asset Allocator", "pie-chart", "from-violet-500 to-purple-500", CategoryStrategy, Position{1, 3}},
	{12, "Global Monitor", "globe", "from-cyan-500 to-blue-500", CategoryData, Position{2, 3}},
	{13, "Data Aggregator", "database", "from-emerald-500 to-green-500", CategoryData, Position{0, 4}},
	{14, "Security Guard", "lock", "from-gray-500 to-slate-500", CategoryInfrastructure, Position{1, 4}},
	{15, "Alert System", "alert-circle", "from-red-600 to-orange-600", CategoryRisk, Position{2, 4}},
	{16, "Validator", "check-circle", "from-green-600 to-emerald-600", CategoryExecution, Position{0, 5}},
	{17, "Processing Core", "cpu", "from-purple-600 to-pink-600", CategoryInfrastructure, Position{1, 5}},
	{18, "Network Sync", "network", "from-cyan-600 to-teal-600", CategoryInfrastructure, Position{2, 5}},
}

var Statuses = []string{
	"Analyzing market data...",
	"Processing signals...",
	"Computing patterns...",
	"Evaluating risks...",
	"Optimizing portfolio...",
	"Scanning trends...",
	"Validating data...",
	"Executing strategy...",
}

// ByID returns the catalog entry with the given id.
func ByID(id int) (Agent, bool) {
	if id < 1 || id > len(Catalog) {
		return Agent{}, false
	}
	return Catalog[id-1], true
}
