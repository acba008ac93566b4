package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"sellervault-backend-go/internal/models"
)

type fakeVerifier struct {
	token *auth.Token
	err   error
}

func (v *fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.token, nil
}

type fakeUsers struct {
	user *auth.UserRecord
	err  error
}

func (u *fakeUsers) GetUser(ctx context.Context, uid string) (*auth.UserRecord, error) {
	return u.user, u.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(t *testing.T, m *AuthMiddleware) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.GET("/me", m.VerifyToken(), func(c *gin.Context) {
		member, ok := MemberFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, member)
	})
	return r
}

func TestVerifyToken(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		verifier   *fakeVerifier
		users      UserLookup
		wantStatus int
		wantBody   string
	}{
		{"missing_header", "", &fakeVerifier{}, nil, http.StatusUnauthorized, ""},
		{"wrong_scheme", "Basic abc", &fakeVerifier{}, nil, http.StatusUnauthorized, ""},
		{"invalid_token", "Bearer bad", &fakeVerifier{err: errors.New("expired")}, nil, http.StatusUnauthorized, ""},
		{
			"claims", "Bearer good",
			&fakeVerifier{token: &auth.Token{UID: "member-1", Claims: map[string]interface{}{"email": "ada@example.com", "name": "Ada King Lovelace"}}},
			nil, http.StatusOK,
			`{"id":"member-1","firstName":"Ada King","lastName":"Lovelace","email":"ada@example.com"}`,
		},
		{
			"profile_lookup", "bearer good",
			&fakeVerifier{token: &auth.Token{UID: "member-1", Claims: map[string]interface{}{}}},
			&fakeUsers{user: &auth.UserRecord{UserInfo: &auth.UserInfo{DisplayName: "Ada Lovelace", Email: "ada@example.com"}}},
			http.StatusOK,
			`{"id":"member-1","firstName":"Ada","lastName":"Lovelace","email":"ada@example.com"}`,
		},
		{
			"profile_lookup_fails", "Bearer good",
			&fakeVerifier{token: &auth.Token{UID: "member-1", Claims: map[string]interface{}{}}},
			&fakeUsers{err: errors.New("quota")},
			http.StatusOK,
			`{"id":"member-1","firstName":"","lastName":"","email":""}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAuthRouter(t, NewAuthMiddleware(tt.verifier, tt.users, zaptest.NewLogger(t)))
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Fatalf("expected body %s, got %s", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zaptest.NewLogger(t)))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := w.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected generated uuid, got %q", id)
	}
	if w.Body.String() != id {
		t.Fatalf("expected request id in context, got %q", w.Body.String())
	}

	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, existing)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get(RequestIDHeader) != existing {
		t.Fatalf("expected incoming request id to be kept")
	}
}

type recordedFailure struct {
	err      error
	context  string
	memberID string
}

type recordingRecorder struct {
	mu       sync.Mutex
	failures []recordedFailure
}

func (r *recordingRecorder) Record(ctx context.Context, err error, context string, memberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, recordedFailure{err: err, context: context, memberID: memberID})
}

func TestRecoveryMiddleware(t *testing.T) {
	recorder := &recordingRecorder{}
	r := gin.New()
	r.Use(RecoveryMiddleware(zaptest.NewLogger(t), recorder))
	r.GET("/boom", func(c *gin.Context) {
		c.Set(MemberKey, &models.Member{ID: "member-1"})
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Fatalf("panic value leaked to the client: %s", w.Body.String())
	}
	if len(recorder.failures) != 1 {
		t.Fatalf("expected one recorded failure, got %d", len(recorder.failures))
	}
	got := recorder.failures[0]
	if got.context != PanicContext || got.memberID != "member-1" || !strings.Contains(got.err.Error(), "boom") {
		t.Fatalf("unexpected recorded failure %+v", got)
	}
}

func TestRecoveryMiddlewareWithoutRecorder(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware(zaptest.NewLogger(t), nil))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestCORSMiddlewareAllowsClient(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware("http://localhost:3000, https://app.example.com"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("expected origin to be allowed, got %q", got)
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct{ in, first, last string }{
		{"", "", ""},
		{"Ada", "Ada", ""},
		{"  Ada   Lovelace ", "Ada", "Lovelace"},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		if first != tt.first || last != tt.last {
			t.Fatalf("splitName(%q): expected %q/%q, got %q/%q", tt.in, tt.first, tt.last, first, last)
		}
	}
}
