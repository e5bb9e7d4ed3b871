package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go-form-relay/config"
	"go-form-relay/internal/delivery/http/response"
	v1 "go-form-relay/internal/delivery/http/v1"
	"go-form-relay/internal/domain"
	"go-form-relay/internal/usecase"
	"go-form-relay/pkg/email"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu      sync.Mutex
	sent    []*email.Message
	sendErr error
}

func (s *recordingSender) Send(ctx context.Context, msg *email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.sendErr
}

func (s *recordingSender) Verify(ctx context.Context) error { return nil }

func (s *recordingSender) messages() []*email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*email.Message(nil), s.sent...)
}

func (s *recordingSender) to(addr string) *email.Message {
	for _, m := range s.messages() {
		if len(m.To) == 1 && m.To[0] == addr {
			return m
		}
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		GinMode:                "test",
		SMTPHost:               "smtp.example.com",
		SMTPUsername:           "relay@example.com",
		SMTPPassword:           "secret",
		ContactEmailTo:         "inbox@example.com",
		HREmail:                "hr@example.com",
		SupportEmail:           "support@example.com",
		OrganizationName:       "EQUILIBRATE AI",
		AllowedOrigins:         []string{"https://www.example.com"},
		RateLimitWindowSeconds: 60,
		RateLimitFormThreshold: 100,
		MaxResumeBytes:         1 << 20,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, sender email.Sender) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uc := usecase.NewFormUsecase(usecase.FormDeps{
		Config:     cfg,
		Dispatcher: email.NewDispatcher(sender),
	})
	return v1.NewRouter(v1.RouterDeps{
		FormUC: uc,
		HealthUC: usecase.NewHealthUsecase(map[string]domain.HealthCheck{
			"smtp": func(ctx context.Context) error { return nil },
		}),
		Config: cfg,
	})
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestFooter_AdaScenario(t *testing.T) {
	sender := &recordingSender{}
	r := newTestRouter(t, testConfig(), sender)

	w := postJSON(r, "/api/contact-form/footer-route",
		`{"name":"Ada","email":"ada@example.com","subject":"Hi","message":"Hello there, let's talk."}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Message sent successfully!", resp.Message)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, w.Header().Get("X-Request-ID"))

	require.Len(t, sender.messages(), 2)
	require.NotNil(t, sender.to("inbox@example.com"))
	require.NotNil(t, sender.to("ada@example.com"))
}

func TestFooter_EmptyAndBadEmail(t *testing.T) {
	sender := &recordingSender{}
	r := newTestRouter(t, testConfig(), sender)

	w := postJSON(r, "/api/contact-form/footer-route", `{"name":"","email":"bad","subject":"","message":""}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "Missing required fields", resp.Message)
	// Field detail is logged, never returned
	assert.Nil(t, resp.Error)
	assert.Empty(t, sender.messages())
}

func TestContact_Responses(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		code    int
		message string
		sends   int
	}{
		{"success", "/api/contact-form/contact-us-route", `{"name":"Ada","email":"ada@example.com","company":"Engines","message":"Please call me back"}`, 200, "Message sent successfully!", 2},
		{"alias path", "/v1/forms/contact", `{"name":"Ada","email":"ada@example.com","message":"Please call me back"}`, 200, "Message sent successfully!", 2},
		{"invalid email", "/api/contact-form/contact-us-route", `{"name":"Ada","email":"ada@example","message":"Please call me back"}`, 400, "Invalid email address", 0},
		{"short message", "/v1/forms/contact", `{"name":"Ada","email":"ada@example.com","message":"hi"}`, 400, "Message must be at least 10 characters", 0},
		{"malformed json", "/api/contact-form/contact-us-route", `{"name":`, 400, "Invalid request body", 0},
		{"wrong type", "/v1/forms/footer", `{"name":42}`, 400, "Invalid request body", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{}
			r := newTestRouter(t, testConfig(), sender)

			w := postJSON(r, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Equal(t, tt.message, decode(t, w).Message)
			assert.Len(t, sender.messages(), tt.sends)
		})
	}
}

func TestContact_ProviderFailureHidesCause(t *testing.T) {
	sender := &recordingSender{sendErr: errors.New("550 mailbox unavailable")}
	r := newTestRouter(t, testConfig(), sender)

	w := postJSON(r, "/v1/forms/footer", `{"name":"Ada","email":"ada@example.com","subject":"Hi","message":"Hello there, let's talk."}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Failed to send message", resp.Message)
	assert.Nil(t, resp.Error)
	assert.NotContains(t, w.Body.String(), "550")
}

func TestContact_MailNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.SMTPUsername = ""
	sender := &recordingSender{}
	r := newTestRouter(t, cfg, sender)

	w := postJSON(r, "/v1/forms/contact", `{"name":"Ada","email":"ada@example.com","message":"Please call me back"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, sender.messages())
}

func TestDuplicatePayloads_TwoPairs(t *testing.T) {
	sender := &recordingSender{}
	r := newTestRouter(t, testConfig(), sender)

	body := `{"name":"Ada","email":"ada@example.com","subject":"Hi","message":"Hello there, let's talk."}`
	require.Equal(t, http.StatusOK, postJSON(r, "/api/contact-form/footer-route", body).Code)
	require.Equal(t, http.StatusOK, postJSON(r, "/api/contact-form/footer-route", body).Code)

	assert.Len(t, sender.messages(), 4)
}

type part struct {
	name, filename string
	data           []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile(file.name, file.filename)
		require.NoError(t, err)
		_, err = fw.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func applicationFields() map[string]string {
	return map[string]string{
		"firstName":   "Ada",
		"lastName":    "Lovelace",
		"email":       "ada@example.com",
		"position":    "Engineer",
		"coverLetter": "I have written the first program.",
	}
}

func postMultipart(r http.Handler, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCareer_WithResume(t *testing.T) {
	sender := &recordingSender{}
	r := newTestRouter(t, testConfig(), sender)

	resume := []byte("%PDF-1.4\n%resume of Ada\n")
	body, ct := multipartBody(t, applicationFields(), &part{name: "resume", filename: "ada-cv.pdf", data: resume})
	w := postMultipart(r, "/api/contact-form/career", body, ct)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Application submitted successfully", decode(t, w).Message)

	internal := sender.to("hr@example.com")
	require.NotNil(t, internal)
	require.Len(t, internal.Attachments, 1)
	assert.Equal(t, "ada-cv.pdf", internal.Attachments[0].Filename)
	assert.Equal(t, resume, internal.Attachments[0].Data)
	assert.Contains(t, internal.HTML, "I have written the first program.")

	ack := sender.to("ada@example.com")
	require.NotNil(t, ack)
	assert.Empty(t, ack.Attachments)
}

func TestCareer_MissingFields(t *testing.T) {
	sender := &recordingSender{}
	r := newTestRouter(t, testConfig(), sender)

	fields := applicationFields()
	delete(fields, "lastName")
	body, ct := multipartBody(t, fields, nil)
	w := postMultipart(r, "/v1/forms/career", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields", decode(t, w).Message)
	assert.Empty(t, sender.messages())
}

func TestCareer_RejectsBadResume(t *testing.T) {
	t.Run("wrong content", func(t *testing.T) {
		sender := &recordingSender{}
		r := newTestRouter(t, testConfig(), sender)

		body, ct := multipartBody(t, applicationFields(), &part{name: "resume", filename: "cv.pdf", data: []byte("MZ\x90\x00 not a pdf")})
		w := postMultipart(r, "/v1/forms/career", body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid resume file", decode(t, w).Message)
		assert.Empty(t, sender.messages())
	})

	t.Run("over size cap", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxResumeBytes = 16
		sender := &recordingSender{}
		r := newTestRouter(t, cfg, sender)

		body, ct := multipartBody(t, applicationFields(), &part{name: "resume", filename: "cv.pdf", data: append([]byte("%PDF-1.4\n"), make([]byte, 64)...)})
		w := postMultipart(r, "/v1/forms/career", body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid resume file", decode(t, w).Message)
		assert.Empty(t, sender.messages())
	})
}

func TestCareer_ProviderFailureExposesCause(t *testing.T) {
	sender := &recordingSender{sendErr: errors.New("421 try again later")}
	r := newTestRouter(t, testConfig(), sender)

	body, ct := multipartBody(t, applicationFields(), nil)
	w := postMultipart(r, "/api/contact-form/career", body, ct)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Submission failed", resp.Message)
	assert.Contains(t, resp.Error, "421 try again later")
}

func TestRateLimit_FormRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitFormThreshold = 2
	sender := &recordingSender{}
	r := newTestRouter(t, cfg, sender)

	body := `{"name":"Ada","email":"ada@example.com","subject":"Hi","message":"Hello there, let's talk."}`
	assert.Equal(t, http.StatusOK, postJSON(r, "/v1/forms/footer", body).Code)
	assert.Equal(t, http.StatusOK, postJSON(r, "/api/contact-form/footer-route", body).Code)

	w := postJSON(r, "/v1/forms/contact", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Len(t, sender.messages(), 4)
}

func TestCORS(t *testing.T) {
	r := newTestRouter(t, testConfig(), &recordingSender{})

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/v1/forms/contact", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := preflight("https://www.example.com")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://www.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight("https://evil.example.net")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, testConfig(), &recordingSender{})

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "System operational", resp.Message)
	assert.Equal(t, map[string]interface{}{"status": "ok", "smtp": "ok"}, resp.Data)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRequestID_Propagated(t *testing.T) {
	r := newTestRouter(t, testConfig(), &recordingSender{})

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-123", decode(t, w).RequestID)
}
