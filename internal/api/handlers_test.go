package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RazaAli313/clubchat/internal/apperr"
	"github.com/RazaAli313/clubchat/internal/auth"
	"github.com/RazaAli313/clubchat/internal/domain"
	"github.com/RazaAli313/clubchat/internal/identity"
	"github.com/RazaAli313/clubchat/internal/logger"
	"github.com/RazaAli313/clubchat/internal/service"
)

type stubConvStore struct {
	conv *domain.Conversation
}

func (s *stubConvStore) GetOrCreate(_ context.Context, userID domain.UserID, adminID domain.AdminID) (*domain.Conversation, bool, error) {
	if s.conv == nil {
		s.conv = &domain.Conversation{ID: "c1", UserID: userID, AdminID: adminID, CreatedAt: time.Now()}
		return s.conv, true, nil
	}
	return s.conv, false, nil
}

func (s *stubConvStore) Get(_ context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	if s.conv != nil && s.conv.ID == id {
		return s.conv, nil
	}
	return nil, apperr.ErrNotFound
}

func (s *stubConvStore) ListByAdmin(_ context.Context, adminID domain.AdminID) ([]domain.Conversation, error) {
	if s.conv != nil && s.conv.AdminID == adminID {
		return []domain.Conversation{*s.conv}, nil
	}
	return nil, nil
}

func (s *stubConvStore) NextSeq(_ context.Context, id domain.ConversationID) (int64, error) {
	if s.conv == nil || s.conv.ID != id {
		return 0, apperr.ErrNotFound
	}
	s.conv.LastSeq++
	return s.conv.LastSeq, nil
}

type stubMsgStore struct {
	msgs []domain.Message
}

func (s *stubMsgStore) Insert(_ context.Context, m *domain.Message) error {
	s.msgs = append(s.msgs, *m)
	return nil
}

func (s *stubMsgStore) ListByConversation(_ context.Context, id domain.ConversationID) ([]domain.Message, error) {
	out := []domain.Message{}
	for _, m := range s.msgs {
		if m.ConversationID == id {
			out = append(out, m)
		}
	}
	return out, nil
}

type nilResolver struct{}

func (nilResolver) Lookup(context.Context, domain.UserID) (*identity.Profile, error) {
	return nil, apperr.ErrNotFound
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	svc := service.NewChatService(&stubConvStore{}, &stubMsgStore{}, nilResolver{}, nil, nil, logger.Nop())
	h := NewChatHandler(svc, 2*time.Second, logger.Nop())
	verifier, err := auth.NewVerifier("")
	require.NoError(t, err)

	app := fiber.New()
	api := app.Group("/api/v1", JWTAuth(verifier))
	chat := api.Group("/chat")
	chat.Get("/participants", h.ListParticipants)
	chat.Post("/conversations", h.GetOrCreateConversation)
	chat.Get("/conversations/:id/messages", h.ListMessages)
	chat.Post("/conversations/:id/messages", h.AppendMessage)
	return app
}

func devToken(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a1"})
	s, err := tok.SignedString([]byte("dev"))
	require.NoError(t, err)
	return s
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t)
	resp := doJSON(t, app, http.MethodGet, "/api/v1/chat/participants", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConversationRoundTrip(t *testing.T) {
	app := newTestApp(t)
	token := devToken(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/chat/conversations", token,
		fiber.Map{"user_id": "u1", "admin_id": "a1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.ID)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/chat/conversations/"+created.ID+"/messages", token,
		fiber.Map{"sender_id": "u1", "content": "<p>hi</p>"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/chat/conversations/"+created.ID+"/messages", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var msgs []domain.Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "<p>hi</p>", msgs[0].Content)
	assert.Equal(t, "u1", msgs[0].SenderID)
}

func TestErrorMapping(t *testing.T) {
	app := newTestApp(t)
	token := devToken(t)

	// missing identifiers -> 400
	resp := doJSON(t, app, http.MethodPost, "/api/v1/chat/conversations", token,
		fiber.Map{"user_id": "", "admin_id": "a1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// unknown conversation -> 404
	resp = doJSON(t, app, http.MethodPost, "/api/v1/chat/conversations/nope/messages", token,
		fiber.Map{"sender_id": "u1", "content": "<p>hi</p>"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// non-participant sender -> 403
	resp = doJSON(t, app, http.MethodPost, "/api/v1/chat/conversations", token,
		fiber.Map{"user_id": "u1", "admin_id": "a1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp = doJSON(t, app, http.MethodPost, "/api/v1/chat/conversations/"+created.ID+"/messages", token,
		fiber.Map{"sender_id": "intruder", "content": "<p>hi</p>"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWSAllowed(t *testing.T) {
	verifier, err := auth.NewVerifier("")
	require.NoError(t, err)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "member"})
	noSubToken, err := noSub.SignedString([]byte("dev"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		id    domain.ConversationID
		token string
		want  bool
	}{
		{"valid token and id", "c1", devToken(t), true},
		{"missing token", "c1", "", false},
		{"missing conversation id", "", devToken(t), false},
		{"garbage token", "c1", "not-a-jwt", false},
		{"token without subject", "c1", noSubToken, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wsAllowed(verifier, tt.id, tt.token))
		})
	}
}

func TestParticipantsEmptyAdmin(t *testing.T) {
	app := newTestApp(t)
	resp := doJSON(t, app, http.MethodGet, "/api/v1/chat/participants", devToken(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out []domain.Participant
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Empty(t, out)
}
