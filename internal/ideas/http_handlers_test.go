package ideas

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idea-tasks-backend/internal/analytics"
	"idea-tasks-backend/internal/auth"
)

type sinkRecorder struct {
	mu     sync.Mutex
	events []string
	props  []map[string]any
}

func (s *sinkRecorder) Log(_ context.Context, _ analytics.Envelope, name string, props any, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, name)
	m, _ := props.(map[string]any)
	s.props = append(s.props, m)
	return nil
}

func post(t *testing.T, h http.HandlerFunc, userID uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	if userID != uuid.Nil {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestDecomposeHandlerPendingShape(t *testing.T) {
	llm := &scriptedLLM{replies: []string{cakeNeedsDate}}
	sink := &sinkRecorder{}
	svc := newTestService(llm, newMemStore())
	user := uuid.New()

	rec := post(t, DecomposeHandler(svc, sink), user, `{"idea":"Bake a cake this Sunday","inputMethod":"voice"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["needsDateConfirmation"])
	assert.NotContains(t, body, "idea")
	assert.NotContains(t, body, "tasks")

	_, err := uuid.Parse(body["pendingId"].(string))
	assert.NoError(t, err)

	pending := body["pendingTasks"].([]any)
	require.Len(t, pending, 2)
	first := pending[0].(map[string]any)
	assert.Equal(t, "Buy cake ingredients", first["title"])
	assert.Equal(t, true, first["needs_user_input"])

	aiResp := body["aiResponse"].(map[string]any)
	assert.Equal(t, "Let's get that cake done.", aiResp["message"])

	assert.Equal(t, []string{"idea_submitted", "idea_dates_requested"}, sink.events)
	assert.Equal(t, "voice", sink.props[0]["input_method"])
	assert.Equal(t, len("Bake a cake this Sunday"), sink.props[0]["text_len"])
	assert.NotContains(t, sink.props[0], "idea", "raw idea text is never logged")
}

func TestConfirmDatesHandlerFinalizes(t *testing.T) {
	llm := &scriptedLLM{replies: []string{cakeNeedsDate, cakeResolved}}
	sink := &sinkRecorder{}
	store := newMemStore()
	svc := newTestService(llm, store)
	user := uuid.New()

	first := decodeBody(t, post(t, DecomposeHandler(svc, sink), user, `{"idea":"Bake a cake this Sunday"}`))
	pendingID := first["pendingId"].(string)

	rec := post(t, ConfirmDatesHandler(svc, sink), user,
		`{"pendingId":"`+pendingID+`","userId":"`+user.String()+`","dateConfirmation":"this Sunday"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["needsDateConfirmation"])
	assert.NotContains(t, body, "pendingId")

	idea := body["idea"].(map[string]any)
	assert.Equal(t, "Bake a cake this Sunday", idea["content"])

	list := body["tasks"].([]any)
	require.Len(t, list, 2)
	for _, raw := range list {
		task := raw.(map[string]any)
		assert.Equal(t, "pending", task["status"])
		assert.Equal(t, false, task["needs_user_input"])
		assert.True(t, strings.HasPrefix(task["due_date"].(string), "2026-10-18"))
	}

	assert.Equal(t, []string{"idea_submitted", "idea_dates_requested", "idea_tasks_created"}, sink.events)
	assert.Equal(t, 2, sink.props[2]["phase"])
}

func TestIdeaHandlersErrors(t *testing.T) {
	user := uuid.New()
	cases := map[string]struct {
		handler func(*Service) http.HandlerFunc
		user    uuid.UUID
		body    string
		status  int
		message string
	}{
		"unauthenticated": {
			handler: func(s *Service) http.HandlerFunc { return DecomposeHandler(s, analytics.Nop{}) },
			body:    `{"idea":"x"}`,
			status:  http.StatusUnauthorized,
			message: "unauthorized",
		},
		"bad json": {
			handler: func(s *Service) http.HandlerFunc { return DecomposeHandler(s, analytics.Nop{}) },
			user:    user,
			body:    `{"idea":`,
			status:  http.StatusBadRequest,
			message: "InvalidRequest: invalid json",
		},
		"empty idea": {
			handler: func(s *Service) http.HandlerFunc { return DecomposeHandler(s, analytics.Nop{}) },
			user:    user,
			body:    `{"idea":"   "}`,
			status:  http.StatusBadRequest,
			message: "InvalidRequest: idea is required",
		},
		"foreign userId": {
			handler: func(s *Service) http.HandlerFunc { return DecomposeHandler(s, analytics.Nop{}) },
			user:    user,
			body:    `{"idea":"call mom","userId":"` + uuid.NewString() + `"}`,
			status:  http.StatusBadRequest,
			message: "InvalidRequest: userId does not match the authenticated user",
		},
		"malformed pendingId": {
			handler: func(s *Service) http.HandlerFunc { return ConfirmDatesHandler(s, analytics.Nop{}) },
			user:    user,
			body:    `{"pendingId":"nope","dateConfirmation":"Sunday"}`,
			status:  http.StatusBadRequest,
			message: "InvalidRequest: malformed pendingId",
		},
		"upstream down": {
			handler: func(s *Service) http.HandlerFunc { return DecomposeHandler(s, analytics.Nop{}) },
			user:    user,
			body:    `{"idea":"call mom"}`,
			status:  http.StatusBadGateway,
			message: "UpstreamUnavailable",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			llm := &scriptedLLM{}
			if name == "upstream down" {
				llm.err = context.DeadlineExceeded
			}
			rec := post(t, tc.handler(newTestService(llm, newMemStore())), tc.user, tc.body)

			assert.Equal(t, tc.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["error"])
		})
	}
}

func TestIdeaSubmittedOnlyForAcceptedIdeas(t *testing.T) {
	user := uuid.New()

	sink := &sinkRecorder{}
	rec := post(t, DecomposeHandler(newTestService(&scriptedLLM{}, newMemStore()), sink), user, `{"idea":"  \n "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, sink.events, "blank input is not a submission")

	sink = &sinkRecorder{}
	llm := &scriptedLLM{err: context.DeadlineExceeded}
	rec = post(t, DecomposeHandler(newTestService(llm, newMemStore()), sink), user, `{"idea":"call mom","inputMethod":"text"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, []string{"idea_submitted"}, sink.events)
	assert.Equal(t, "text", sink.props[0]["input_method"])
}

func TestListIdeasHandler(t *testing.T) {
	llm := &scriptedLLM{replies: []string{callMomDated, callMomDated}}
	store := newMemStore()
	svc := newTestService(llm, store)
	owner := uuid.New()

	_, err := svc.Decompose(context.Background(), DecomposeInput{UserID: owner, Idea: "call mom"})
	require.NoError(t, err)
	_, err = svc.Decompose(context.Background(), DecomposeInput{UserID: uuid.New(), Idea: "call dad"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ideas", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), owner))
	rec := httptest.NewRecorder()
	ListIdeasHandler(store)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var list []Idea
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "call mom", list[0].Content)
}
