package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxpilot-ai/taxpilot/internal/model"
	"github.com/taxpilot-ai/taxpilot/internal/pipeline"
	"github.com/taxpilot-ai/taxpilot/internal/storage"
)

func newTestServer(t *testing.T, conv pipeline.Conversation) (*Server, *storage.MemoryStore) {
	t.Helper()

	if conv == nil {
		conv = &pipeline.MockConversation{Errors: []error{
			errors.New("down"), errors.New("down"), errors.New("down"),
		}}
	}
	store := storage.NewMemoryStore()
	kb := &pipeline.MockKnowledge{Err: errors.New("no kb")}
	p := pipeline.New(conv, kb, slog.Default())
	return New(p, store, slog.Default()), store
}

func postChat(t *testing.T, handler http.Handler, body any) (*httptest.ResponseRecorder, ChatResponse) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp ChatResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "taxpilot", body["agent"])
}

func TestChatFirstTurn(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec, resp := postChat(t, srv.Handler(), ChatRequest{SessionID: "s1", Message: "hello, I'm filing single"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, model.StageIntake, resp.State.CurrentNode)
	assert.False(t, resp.State.NeedsReview)
	require.NotEmpty(t, resp.Cards)
	assert.Equal(t, model.CardProgress, resp.Cards[0].Type)

	// Session state persisted.
	state, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSingle, state.FilingStatus)
}

func TestChatGeneratesSessionID(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	_, resp := postChat(t, srv.Handler(), ChatRequest{Message: "hi"})
	assert.NotEmpty(t, resp.SessionID)
}

func TestChatCompletedTurnSummarizesReview(t *testing.T) {
	srv, store := newTestServer(t, nil)

	seeded := model.NewReturn("s2")
	seeded.FilingStatus = model.StatusMarriedFilingJointly
	seeded.Name = "Sam"
	seeded.IncomeItems = []model.IncomeItem{{
		Type: model.IncomeW2, Source: "W-2 Employment", Amount: 90000, FederalWithheld: 18000,
	}}
	seeded.TotalIncome = 90000
	seeded.TotalWithheld = 18000
	require.NoError(t, store.Put(context.Background(), seeded))

	_, resp := postChat(t, srv.Handler(), ChatRequest{SessionID: "s2", Message: "calculate my refund"})

	assert.Equal(t, model.StageReview, resp.State.CurrentNode)
	assert.True(t, resp.State.NeedsReview)
	assert.Greater(t, resp.State.ConfidenceScore, 0.0)
	assert.Contains(t, resp.Message, "Estimated Refund: $11,277")
}

func TestChatInvalidBody(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type panickingConversation struct{}

func (panickingConversation) Chat(context.Context, string, string) (string, error) {
	panic("conversation model exploded")
}

func TestChatPanicYieldsApology(t *testing.T) {
	srv, store := newTestServer(t, panickingConversation{})

	// Seed a session so we can verify the stored state survives the panic.
	seeded := model.NewReturn("s3")
	seeded.Name = "Jordan"
	require.NoError(t, store.Put(context.Background(), seeded))

	rec, resp := postChat(t, srv.Handler(), ChatRequest{SessionID: "s3", Message: "hello"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, apologyMessage, resp.Message)
	assert.Equal(t, model.StageIntake, resp.State.CurrentNode)
	assert.Empty(t, resp.Cards)

	// Prior stored state is untouched; only the failed turn is discarded.
	state, err := store.Get(context.Background(), "s3")
	require.NoError(t, err)
	assert.Equal(t, "Jordan", state.Name)
}
