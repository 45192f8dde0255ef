package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicebook/internal/handlers"
	"voicebook/internal/llm"
	"voicebook/internal/pdf"
	"voicebook/internal/repositories"
	"voicebook/internal/routes"
	"voicebook/internal/services"
)

type captureEmail struct {
	lastCode string
}

func (s *captureEmail) SendOTPEmail(email, name, code string) error {
	s.lastCode = code
	return nil
}

type scriptedExtractor struct {
	result *llm.Extraction
}

func (s *scriptedExtractor) Extract(ctx context.Context, system string, history []llm.Message) (*llm.Extraction, error) {
	return s.result, nil
}

type fakeInvoices struct{}

func (fakeInvoices) GenerateInvoice(data pdf.InvoiceData) (string, error) {
	return data.SessionID + ".pdf", nil
}

type testEnv struct {
	router *gin.Engine
	emails *captureEmail
}

func newTestEnv(t *testing.T, extractor services.Extractor) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repositories.NewUserRepository(filepath.Join(t.TempDir(), "users.json"))
	auth := services.NewAuthService()
	tokens := services.NewTokenService("test-secret", 24*time.Hour)
	emails := &captureEmail{}

	users := services.NewUserService(repo, auth, tokens)
	otp := services.NewOTPService(repo, auth, emails)
	if extractor == nil {
		extractor = &scriptedExtractor{result: &llm.Extraction{Reply: "ok"}}
	}
	sessions := services.NewSessionService(extractor, fakeInvoices{}, "http://localhost:8000")

	router := gin.New()
	routes.SetupRoutes(router,
		tokens,
		handlers.NewAuthHandler(users),
		handlers.NewVerifyHandler(otp),
		handlers.NewSessionHandler(sessions),
	)
	return &testEnv{router: router, emails: emails}
}

func (e *testEnv) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	register := gin.H{"name": "Alice", "email": "alice@example.com", "password": "secret1"}

	t.Run("register returns token and summary", func(t *testing.T) {
		w := env.do(http.MethodPost, "/auth/register", register, nil)
		require.Equal(t, http.StatusOK, w.Code)

		body := decode(t, w)
		assert.NotEmpty(t, body["token"])
		user := body["user"].(map[string]interface{})
		assert.Equal(t, "alice@example.com", user["email"])
		assert.NotContains(t, user, "password_hash")
	})

	t.Run("duplicate register is a 400", func(t *testing.T) {
		w := env.do(http.MethodPost, "/auth/register", register, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Email already registered", decode(t, w)["error"])
	})

	t.Run("weak password is a 400", func(t *testing.T) {
		w := env.do(http.MethodPost, "/auth/register",
			gin.H{"name": "Bob", "email": "bob@example.com", "password": "short"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("login then me", func(t *testing.T) {
		w := env.do(http.MethodPost, "/auth/login",
			gin.H{"email": "Alice@Example.com", "password": "secret1"}, nil)
		require.Equal(t, http.StatusOK, w.Code)
		token := decode(t, w)["token"].(string)

		w = env.do(http.MethodGet, "/auth/me", nil, map[string]string{"Authorization": "Bearer " + token})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice@example.com", decode(t, w)["email"])
	})

	t.Run("bad credentials are a 401", func(t *testing.T) {
		w := env.do(http.MethodPost, "/auth/login",
			gin.H{"email": "alice@example.com", "password": "wrong"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid email or password", decode(t, w)["error"])
	})

	t.Run("me without a token is a 401", func(t *testing.T) {
		w := env.do(http.MethodGet, "/auth/me", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOTPEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	request := gin.H{"name": "Carol", "email": "carol@example.com", "password": "secret1"}

	t.Run("send then verify creates the account", func(t *testing.T) {
		w := env.do(http.MethodPost, "/auth/send-otp", request, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, env.emails.lastCode, 6)

		w = env.do(http.MethodPost, "/auth/verify-otp",
			gin.H{"email": "carol@example.com", "otp": env.emails.lastCode}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		// the account can log in now
		w = env.do(http.MethodPost, "/auth/login",
			gin.H{"email": "carol@example.com", "password": "secret1"}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("verify without a pending entry is a 400", func(t *testing.T) {
		w := env.do(http.MethodPost, "/auth/verify-otp",
			gin.H{"email": "carol@example.com", "otp": "123456"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No pending registration for this email", decode(t, w)["error"])
	})

	t.Run("wrong code is a 400 and retry works", func(t *testing.T) {
		w := env.do(http.MethodPost, "/auth/send-otp",
			gin.H{"name": "Dave", "email": "dave@example.com", "password": "secret1"}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		wrong := "000000"
		if wrong == env.emails.lastCode {
			wrong = "000001"
		}
		w = env.do(http.MethodPost, "/auth/verify-otp",
			gin.H{"email": "dave@example.com", "otp": wrong}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid code", decode(t, w)["error"])

		w = env.do(http.MethodPost, "/auth/verify-otp",
			gin.H{"email": "dave@example.com", "otp": env.emails.lastCode}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSessionEndpoints(t *testing.T) {
	extractor := &scriptedExtractor{result: &llm.Extraction{
		Reply:           "Confirmed for tomorrow at 3pm",
		Completed:       true,
		AppointmentDate: "2025-01-02",
		AppointmentTime: "15:00",
	}}
	env := newTestEnv(t, extractor)

	t.Run("start and confirm a booking", func(t *testing.T) {
		w := env.do(http.MethodPost, "/session/start",
			gin.H{"store": "Acme Salon", "product": "Haircut", "details": "30 min trim"}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		body := decode(t, w)
		sessionID := body["session_id"].(string)
		assert.Contains(t, sessionID, "Acme_Salon-")
		assert.Equal(t, "Hello. I am contacting Acme Salon regarding Haircut. Let me begin.", body["assistant_message"])

		w = env.do(http.MethodPost, "/session/message",
			gin.H{"session_id": sessionID, "message": "Tomorrow at 3pm"}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		body = decode(t, w)
		assert.Equal(t, "Confirmed for tomorrow at 3pm", body["assistant_message"])
		assert.Equal(t, true, body["completed"])
		assert.Equal(t, "http://localhost:8000/invoices/"+sessionID+".pdf", body["invoice_url"])
	})

	t.Run("unknown session is a soft 200 error payload", func(t *testing.T) {
		w := env.do(http.MethodPost, "/session/message",
			gin.H{"session_id": "Nope-99", "message": "hello"}, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Invalid session", decode(t, w)["error"])
	})

	t.Run("missing fields are a 400", func(t *testing.T) {
		w := env.do(http.MethodPost, "/session/start", gin.H{"store": "Acme Salon"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInvoiceURLNullUntilGenerated(t *testing.T) {
	extractor := &scriptedExtractor{result: &llm.Extraction{Reply: "Which day works?"}}
	env := newTestEnv(t, extractor)

	w := env.do(http.MethodPost, "/session/start",
		gin.H{"store": "Acme Salon", "product": "Haircut", "details": ""}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := decode(t, w)["session_id"].(string)

	w = env.do(http.MethodPost, "/session/message",
		gin.H{"session_id": sessionID, "message": "hi"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	val, present := body["invoice_url"]
	assert.True(t, present, "invoice_url key must be on the wire")
	assert.Nil(t, val)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
