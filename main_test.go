package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"finora/api/auth"
	"finora/api/config"
	"finora/api/handlers"
	"finora/api/models"
	"finora/api/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileYAML = `
income: "65000"
expenses:
  rent: "15000"
  groceries: "8000"
  health: ""
  custom:
    - name: Gym
      amount: "2000"
loans:
  - amount: "500000"
    duration: "5"
    interestRate: "8.5"
goals:
  - type: home
    targetAmount: "1000000"
    timeline: "5"
riskAppetite: high
investmentPreferences: [Stocks, Gold]
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReadProfile(t *testing.T) {
	p, err := readProfile(writeFile(t, profileYAML))
	require.NoError(t, err)
	assert.Equal(t, "65000", p.Income.String())
	assert.True(t, p.Expenses.Health.IsZero())
	require.Len(t, p.Loans, 1)
	assert.Equal(t, models.RiskHigh, p.RiskAppetite)

	_, err = readProfile(writeFile(t, "income: \"\"\n"))
	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = readProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSummaryCommand(t *testing.T) {
	path := writeFile(t, profileYAML)

	var out bytes.Buffer
	summaryCmd.SetOut(&out)
	summaryFile, summaryPlain, summarySnapshot = path, true, false
	require.NoError(t, runSummary(summaryCmd, nil))
	assert.Contains(t, out.String(), "# Financial Dashboard")
	assert.Contains(t, out.String(), "₹65,000.00")

	out.Reset()
	summaryPlain, summarySnapshot = false, true
	require.NoError(t, runSummary(summaryCmd, nil))
	assert.Contains(t, out.String(), `"net_monthly_savings": 40000`)
}

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := handlers.New(handlers.Options{Profiles: store.NewMemory(), Identity: auth.NewSupabase("http://127.0.0.1:0", "anon")})
	cfg := config.Config{InternalAPIKey: "internal", AllowedOrigin: "http://localhost:3000"}
	metrics := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	registerRoutes(router, h, auth.Verifier{Secret: []byte("s"), Issuer: "iss"}, cfg, metrics)

	cases := []struct {
		method, path string
		header       map[string]string
		want         int
	}{
		{http.MethodGet, "/health", nil, http.StatusOK},
		{http.MethodGet, "/api/profile", nil, http.StatusUnauthorized},
		{http.MethodPut, "/api/profile", map[string]string{"Authorization": "Bearer junk"}, http.StatusUnauthorized},
		{http.MethodPatch, "/api/profile/draft", nil, http.StatusUnauthorized},
		{http.MethodGet, "/sse/profile", nil, http.StatusUnauthorized},
		{http.MethodGet, "/ws/agents?token=junk", nil, http.StatusUnauthorized},
		{http.MethodGet, "/internal/metrics", nil, http.StatusUnauthorized},
		{http.MethodGet, "/internal/metrics", map[string]string{"X-API-Key": "internal"}, http.StatusOK},
		{http.MethodOptions, "/api/profile", nil, http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		for k, v := range tc.header {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.path)
	}
}
