package handlers

import (
	"net/http"

	"finora/api/agents"
	"finora/api/analysis"
	"finora/api/metrics"
	"finora/api/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) HandleDashboard(c *gin.Context) {
	_, profile, ok := h.profileOrAbort(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, metrics.Summarize(*profile))
}

func (h *Handler) HandleAnalysisSnapshot(c *gin.Context) {
	_, profile, ok := h.profileOrAbort(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analysis.BuildSnapshot(*profile))
}

// HandleCatalog lists everything the editor and the agents view render
// from static data.
func (h *Handler) HandleCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"agents":             agents.Catalog,
		"statuses":           agents.Statuses,
		"goal_types":         models.GoalTypes,
		"investment_options": models.InvestmentOptions,
	})
}
