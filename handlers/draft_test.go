package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"finora/api/form"
	"finora/api/models"
	"finora/api/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeDraft(t *testing.T, w *httptest.ResponseRecorder) DraftResponse {
	t.Helper()
	var got DraftResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got), w.Body.String())
	return got
}

func TestDraftPrefill(t *testing.T) {
	f := newFixture(t, nil)
	in := models.ProfileInput{
		Income:                "50000",
		RiskAppetite:          "low",
		InvestmentPreferences: []string{"Stocks", "Art"},
	}
	p, err := in.Normalize()
	require.NoError(t, err)
	require.NoError(t, f.profiles.SaveProfile(context.Background(), "u1", p))

	w := f.do(http.MethodGet, "/api/profile/draft", "u1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeDraft(t, w)
	assert.Equal(t, int(form.StepIncomeExpenses), got.Step)
	assert.Equal(t, "Income & Expenses", got.StepName)
	assert.Equal(t, form.TotalSteps, got.TotalSteps)
	assert.True(t, got.CanAdvance)
	assert.Equal(t, "50000", got.Draft.Income)
	assert.Equal(t, []string{"Stocks", "Art"}, got.Draft.InvestmentPreferences)
	assert.Empty(t, got.OtherInvestment)

	w = f.do(http.MethodPost, "/api/profile/draft/submit", "u1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stored, err := f.profiles.LoadProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, []string{"Stocks", "Art"}, stored.InvestmentPreferences)
	assert.Len(t, f.events.events, 1)

	w = f.do(http.MethodGet, "/api/profile/draft", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDraftWalkthrough(t *testing.T) {
	f := newFixture(t, nil)
	patch := func(body string) *httptest.ResponseRecorder {
		return f.do(http.MethodPatch, "/api/profile/draft", "u1", body)
	}

	w := f.do(http.MethodGet, "/api/profile/draft", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeDraft(t, w)
	assert.False(t, got.CanAdvance)
	assert.Equal(t, "medium", got.Draft.RiskAppetite)

	w = f.do(http.MethodPost, "/api/profile/draft/next", "u1", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "income")

	w = patch(`{"op":"set_income","value":"40000"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeDraft(t, w).CanAdvance)

	w = patch(`{"op":"set_expense","field":"rent","value":"10000"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10000", decodeDraft(t, w).Draft.Expenses.Rent)

	assert.Equal(t, http.StatusBadRequest, patch(`{"op":"set_expense","field":"yacht","value":"1"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(`{"op":"launch"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(`{}`).Code)

	w = patch(`{"op":"add_goal"}`)
	require.Equal(t, http.StatusOK, w.Code)
	got = decodeDraft(t, w)
	require.NotNil(t, got.Index)
	assert.Equal(t, 0, *got.Index)
	assert.Len(t, got.Draft.Goals, 1)

	goal := `{"type":"travel","targetAmount":"200000","timeline":"1.5"}`
	assert.Equal(t, http.StatusBadRequest, patch(`{"op":"update_goal","row":`+goal+`}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(`{"op":"update_goal","index":3,"row":`+goal+`}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(`{"op":"update_goal","index":0}`).Code)
	w = patch(`{"op":"update_goal","index":0,"row":` + goal + `}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1.5", decodeDraft(t, w).Draft.Goals[0].Timeline)

	w = patch(`{"op":"add_loan"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = patch(`{"op":"remove_loan","index":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeDraft(t, w).Draft.Loans)

	w = patch(`{"op":"toggle_investment","value":"Gold"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Gold"}, decodeDraft(t, w).Draft.InvestmentPreferences)
	assert.Equal(t, http.StatusBadRequest, patch(`{"op":"toggle_investment","value":"Wine"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(`{"op":"remove_investment","value":"Wine"}`).Code)

	w = patch(`{"op":"set_other_investment","value":"Wine"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Wine", decodeDraft(t, w).OtherInvestment)

	for step := int(form.StepLiabilities); step <= form.TotalSteps; step++ {
		w = f.do(http.MethodPost, "/api/profile/draft/next", "u1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, step, decodeDraft(t, w).Step)
	}
	w = f.do(http.MethodPost, "/api/profile/draft/next", "u1", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPost, "/api/profile/draft/back", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int(form.StepRisk), decodeDraft(t, w).Step)

	w = f.do(http.MethodPost, "/api/profile/draft/submit", "u1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stored, err := f.profiles.LoadProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "40000", stored.Income.String())
	assert.Equal(t, []string{"Gold", "Wine"}, stored.InvestmentPreferences)
	require.Len(t, f.events.events, 1)

	w = f.do(http.MethodDelete, "/api/profile/draft", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/profile/draft", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	got = decodeDraft(t, w)
	assert.Equal(t, int(form.StepIncomeExpenses), got.Step)
	assert.Equal(t, []string{"Gold", "Wine"}, got.Draft.InvestmentPreferences)
	assert.Empty(t, got.OtherInvestment)
}

func TestDraftSubmitValidation(t *testing.T) {
	f := newFixture(t, nil)
	f.do(http.MethodPatch, "/api/profile/draft", "u1", `{"op":"set_income","value":"-1"}`)

	w := f.do(http.MethodPost, "/api/profile/draft/submit", "u1", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "income")
	assert.Empty(t, f.events.events)
}

func TestDiscardDraftWhileSaving(t *testing.T) {
	bs := &blockingStore{
		Memory:  store.NewMemory(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	f := newFixture(t, bs)
	f.do(http.MethodPatch, "/api/profile/draft", "u1", `{"op":"set_income","value":"40000"}`)

	done := make(chan int)
	go func() {
		done <- f.do(http.MethodPost, "/api/profile/draft/submit", "u1", "").Code
	}()
	<-bs.entered

	assert.Equal(t, http.StatusConflict, f.do(http.MethodDelete, "/api/profile/draft", "u1", "").Code)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/profile/draft/submit", "u1", "").Code)

	close(bs.release)
	assert.Equal(t, http.StatusOK, <-done)
	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/api/profile/draft", "u1", "").Code)
}
