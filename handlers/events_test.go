package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"finora/api/models"
	"finora/api/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// broadcast hands every event to each instance's pool handler, the way the
// Kafka consumers of a multi-instance deployment would.
type broadcast struct {
	instances []*Handler
}

func (b *broadcast) PublishProfileEvent(ctx context.Context, event models.ProfileEvent) error {
	job, err := json.Marshal(event)
	if err != nil {
		return err
	}
	for _, h := range b.instances {
		if err := h.DeliverProfileEvent(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

func TestDeliverProfileEvent(t *testing.T) {
	f := newFixture(t, nil)
	f.do(http.MethodPut, "/api/profile", "u1", validProfile)
	_, ok := f.h.sessions.Get("u1")
	require.True(t, ok)

	cs := f.h.hub.Register("u1")
	defer f.h.hub.Unregister("u1", cs)

	job := []byte(`{"event_id":"e1","user_id":"u1","version":7,"saved_at":1}`)
	require.NoError(t, f.h.DeliverProfileEvent(context.Background(), job))

	assert.Equal(t, string(job), <-cs.Messages)
	_, ok = f.h.sessions.Get("u1")
	assert.False(t, ok, "snapshot is dropped")

	w := f.do(http.MethodGet, "/api/profile", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "high", decode(t, w)["profile"].(map[string]any)["riskAppetite"])

	assert.Error(t, f.h.DeliverProfileEvent(context.Background(), []byte("not json")))
	assert.Error(t, f.h.DeliverProfileEvent(context.Background(), []byte(`{"event_id":"e2"}`)))
}

func TestSaveOnAnotherInstance(t *testing.T) {
	shared := store.NewMemory()
	a := newFixture(t, shared)
	b := newFixture(t, shared)
	bus := &broadcast{instances: []*Handler{a.h, b.h}}
	a.h.events = bus
	b.h.events = bus

	w := a.do(http.MethodPut, "/api/profile", "u1", validProfile)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = b.do(http.MethodGet, "/api/dashboard", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "65000", got["income"])
	assert.Equal(t, false, got["budget_alert"])

	w = b.do(http.MethodGet, "/api/profile/draft", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "65000", decodeDraft(t, w).Draft.Income)

	overspend := `{"income":"20000","expenses":{"rent":"25000"},"riskAppetite":"low","investmentPreferences":[]}`
	w = a.do(http.MethodPut, "/api/profile", "u1", overspend)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = b.do(http.MethodGet, "/api/dashboard", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	got = decode(t, w)
	assert.Equal(t, "20000", got["income"])
	assert.Equal(t, true, got["budget_alert"])

	w = b.do(http.MethodGet, "/api/profile", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	got = decode(t, w)
	assert.Equal(t, "low", got["profile"].(map[string]any)["riskAppetite"])

	// the idle draft on b started from the old profile and is rebuilt
	w = b.do(http.MethodGet, "/api/profile/draft", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "20000", decodeDraft(t, w).Draft.Income)
}
