package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"finora/api/form"
	"finora/api/logger"
	"finora/api/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errUnknownOp     = errors.New("unknown draft operation")
	errMissingIndex  = errors.New("row index is required")
	errMissingRow    = errors.New("row is required")
	errNotInDraft    = errors.New("investment preference not in draft")
	errDraftIsSaving = errors.New("draft is being saved")
)

// DraftResponse is the editor as the client renders it.
type DraftResponse struct {
	Step            int                 `json:"step"`
	StepName        string              `json:"step_name"`
	TotalSteps      int                 `json:"total_steps"`
	CanAdvance      bool                `json:"can_advance"`
	Draft           models.ProfileInput `json:"draft"`
	OtherInvestment string              `json:"other_investment"`
	Saving          bool                `json:"saving"`
	Index           *int                `json:"index,omitempty"`
}

// DraftOp is one edit to the draft. Row carries the JSON of a custom
// expense, loan or goal row for the update_* operations.
type DraftOp struct {
	Op    string          `json:"op" binding:"required"`
	Field string          `json:"field"`
	Value string          `json:"value"`
	Index *int            `json:"index"`
	Row   json.RawMessage `json:"row"`
}

func draftResponse(e *form.Editor) DraftResponse {
	step := e.Step()
	return DraftResponse{
		Step:            int(step),
		StepName:        step.String(),
		TotalSteps:      form.TotalSteps,
		CanAdvance:      e.CanAdvance(),
		Draft:           e.Draft(),
		OtherInvestment: e.OtherInvestment(),
		Saving:          e.Saving(),
	}
}

// draftOrAbort returns the user's editor, answering the request itself
// when it cannot be built.
func (h *Handler) draftOrAbort(c *gin.Context) (*models.SupabaseClaims, *form.Editor, bool) {
	claims, ok := currentUser(c)
	if !ok {
		return nil, nil, false
	}
	e, err := h.draftEditor(c.Request.Context(), claims)
	if err != nil {
		logger.Get().Error("error loading profile",
			zap.String("user_id", claims.UserID()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading profile"})
		return nil, nil, false
	}
	return claims, e, true
}

func (h *Handler) HandleGetDraft(c *gin.Context) {
	_, e, ok := h.draftOrAbort(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, draftResponse(e))
}

// HandleEditDraft applies one DraftOp. add_* operations report the new
// row's index.
func (h *Handler) HandleEditDraft(c *gin.Context) {
	_, e, ok := h.draftOrAbort(c)
	if !ok {
		return
	}

	var op DraftOp
	if err := c.ShouldBindJSON(&op); err != nil {
		bindError(c, err)
		return
	}

	added, err := applyOp(e, op)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp := draftResponse(e)
	if added >= 0 {
		resp.Index = &added
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) HandleDraftNext(c *gin.Context) {
	_, e, ok := h.draftOrAbort(c)
	if !ok {
		return
	}
	switch err := e.Next(); {
	case err == nil:
	case errors.Is(err, models.ErrIncomeRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": gin.H{"income": err.Error()}})
		return
	case errors.Is(err, form.ErrLastStep):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, draftResponse(e))
}

// HandleDraftBack moves back a step; on the first step it is a no-op.
func (h *Handler) HandleDraftBack(c *gin.Context) {
	_, e, ok := h.draftOrAbort(c)
	if !ok {
		return
	}
	e.Back()
	c.JSON(http.StatusOK, draftResponse(e))
}

func (h *Handler) HandleSubmitDraft(c *gin.Context) {
	claims, e, ok := h.draftOrAbort(c)
	if !ok {
		return
	}
	profile, err := e.Submit(c.Request.Context())
	h.finishSave(c, claims, profile, err)
}

// HandleDiscardDraft throws the draft away; the next read starts again
// from the stored profile.
func (h *Handler) HandleDiscardDraft(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	if !h.discard(claims.UserID()) {
		c.JSON(http.StatusConflict, gin.H{"error": errDraftIsSaving.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// applyOp returns the index of a row it added, or -1.
func applyOp(e *form.Editor, op DraftOp) (int, error) {
	switch op.Op {
	case "set_income":
		e.SetIncome(op.Value)
	case "set_expense":
		return -1, e.SetExpense(form.ExpenseField(op.Field), op.Value)
	case "add_custom_expense":
		return e.AddCustomExpense(), nil
	case "update_custom_expense":
		return -1, updateRow(op, e.UpdateCustomExpense)
	case "remove_custom_expense":
		return -1, removeRow(op, e.RemoveCustomExpense)
	case "add_loan":
		return e.AddLoan(), nil
	case "update_loan":
		return -1, updateRow(op, e.UpdateLoan)
	case "remove_loan":
		return -1, removeRow(op, e.RemoveLoan)
	case "add_goal":
		return e.AddGoal(), nil
	case "update_goal":
		return -1, updateRow(op, e.UpdateGoal)
	case "remove_goal":
		return -1, removeRow(op, e.RemoveGoal)
	case "set_risk_appetite":
		return -1, e.SetRiskAppetite(models.RiskAppetite(op.Value))
	case "toggle_investment":
		_, err := e.ToggleInvestment(op.Value)
		return -1, err
	case "remove_investment":
		if !e.RemoveInvestment(op.Value) {
			return -1, fmt.Errorf("%w: %q", errNotInDraft, op.Value)
		}
	case "set_other_investment":
		e.SetOtherInvestment(op.Value)
	default:
		return -1, fmt.Errorf("%w: %q", errUnknownOp, op.Op)
	}
	return -1, nil
}

func updateRow[T any](op DraftOp, update func(int, T) error) error {
	if op.Index == nil {
		return errMissingIndex
	}
	if len(op.Row) == 0 {
		return errMissingRow
	}
	var row T
	if err := json.Unmarshal(op.Row, &row); err != nil {
		return fmt.Errorf("invalid row: %w", err)
	}
	return update(*op.Index, row)
}

func removeRow(op DraftOp, remove func(int) error) error {
	if op.Index == nil {
		return errMissingIndex
	}
	return remove(*op.Index)
}
