package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miniblog/internal/repository/sqlite"
	"miniblog/internal/service"
	"miniblog/internal/session"
)

func newTestApp(t *testing.T) http.Handler {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	postRepo := sqlite.NewPostRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, postRepo.Init(ctx))

	sessions := session.NewMemoryStore(time.Hour)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	handler := NewHandler(Config{
		Auth:      service.NewAuthService(userRepo, sessions),
		Posts:     service.NewPostService(postRepo),
		JWTSecret: []byte("test-secret"),
		TokenTTL:  time.Hour,
		Logger:    logger,
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router)
	return MethodOverride(router)
}

func doForm(h http.Handler, method, path string, values url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func doGet(h http.Handler, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func doJSON(h http.Handler, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func register(t *testing.T, app http.Handler, email, password string) *http.Cookie {
	t.Helper()
	w := doForm(app, http.MethodPost, "/users", url.Values{
		"email":    {email},
		"password": {password},
	}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/posts", w.Header().Get("Location"))
	return sessionCookie(t, w)
}

func TestRegisterCreatePostAndFollowLink(t *testing.T) {
	app := newTestApp(t)

	// register auto-logs-in
	cookie := register(t, app, "a@x.com", "secret123")

	// create a post
	w := doForm(app, http.MethodPost, "/posts", url.Values{
		"title": {"Hello, World!"},
		"body":  {"first post"},
	}, cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/posts/1-hello-world", w.Header().Get("Location"))

	// listing links the readable public id
	w = doGet(app, "/posts", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `/posts/1-hello-world`)
	assert.Contains(t, w.Body.String(), "Hello, World!")

	// change the title
	w = doForm(app, http.MethodPost, "/posts/1-hello-world", url.Values{
		"_method": {"put"},
		"title":   {"Something Else"},
		"body":    {"first post"},
	}, cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/posts/1-something-else", w.Header().Get("Location"))

	// the stale link still resolves to post 1
	w = doGet(app, "/posts/1-hello-world", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Something Else")
}

func TestLoginFailureDoesNotLeakCause(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "a@x.com", "secret123")

	wrongPass := doForm(app, http.MethodPost, "/sessions", url.Values{
		"email":    {"a@x.com"},
		"password": {"secret123x"},
	}, nil)
	unknown := doForm(app, http.MethodPost, "/sessions", url.Values{
		"email":    {"nobody@x.com"},
		"password": {"secret123"},
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Contains(t, wrongPass.Body.String(), "invalid email or password")
	assert.Contains(t, unknown.Body.String(), "invalid email or password")
	// submitted email is preserved for the retry
	assert.Contains(t, wrongPass.Body.String(), "a@x.com")
}

func TestLoginAndLogout(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "a@x.com", "secret123")

	w := doForm(app, http.MethodPost, "/sessions", url.Values{
		"email":    {"a@x.com"},
		"password": {"secret123"},
	}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	cookie := sessionCookie(t, w)

	// logged in: post form is reachable
	w = doGet(app, "/posts/new", cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	// logout through the form override (POST + _method=delete)
	w = doForm(app, http.MethodPost, "/sessions", url.Values{
		"_method": {"delete"},
	}, cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)

	// the old cookie is now anonymous
	w = doGet(app, "/posts/new", cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/sessions/new", w.Header().Get("Location"))
}

func TestLogoutRequiresStateChangingMethod(t *testing.T) {
	app := newTestApp(t)
	cookie := register(t, app, "a@x.com", "secret123")

	// no safe-method route can touch the session
	w := doGet(app, "/sessions", cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// the session is still alive
	w = doGet(app, "/posts/new", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDuplicateRegistrationRerendersForm(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "a@x.com", "secret123")

	w := doForm(app, http.MethodPost, "/users", url.Values{
		"email":    {"a@x.com"},
		"password": {"different456"},
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "already taken")
	assert.Contains(t, w.Body.String(), "a@x.com")
}

func TestPostMutationRequiresOwner(t *testing.T) {
	app := newTestApp(t)

	owner := register(t, app, "owner@x.com", "secret123")
	w := doForm(app, http.MethodPost, "/posts", url.Values{
		"title": {"Mine"},
	}, owner)
	require.Equal(t, http.StatusSeeOther, w.Code)

	intruder := register(t, app, "intruder@x.com", "secret123")
	w = doForm(app, http.MethodPost, "/posts/1-mine", url.Values{
		"_method": {"put"},
		"title":   {"Hijacked"},
	}, intruder)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doForm(app, http.MethodPost, "/posts/1-mine", url.Values{
		"_method": {"delete"},
	}, intruder)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// anonymous visitors are sent to the login form
	w = doForm(app, http.MethodPost, "/posts", url.Values{"title": {"Drive-by"}}, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/sessions/new", w.Header().Get("Location"))
}

func TestUnknownPostIs404(t *testing.T) {
	app := newTestApp(t)

	w := doGet(app, "/posts/999-nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doGet(app, "/posts/garbage", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPITokenFlow(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "a@x.com", "secret123")

	w := doJSON(app, http.MethodPost, "/api/tokens", map[string]string{
		"email":    "a@x.com",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var tokenResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokenResp))
	require.NotEmpty(t, tokenResp.Token)

	// bad credentials get one generic answer
	w = doJSON(app, http.MethodPost, "/api/tokens", map[string]string{
		"email":    "a@x.com",
		"password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// create a post over the API
	w = doJSON(app, http.MethodPost, "/api/posts", map[string]string{
		"title": "From the API",
		"body":  "json body",
	}, tokenResp.Token)
	require.Equal(t, http.StatusCreated, w.Code)
	var created PostResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "1-from-the-api", created.PublicID)

	// reads are public, mutations are not
	w = doJSON(app, http.MethodGet, "/api/posts/1-from-the-api", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(app, http.MethodDelete, "/api/posts/1-from-the-api", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(app, http.MethodDelete, "/api/posts/1-from-the-api", nil, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// another account cannot mutate it either
	register(t, app, "b@x.com", "secret123")
	w = doJSON(app, http.MethodPost, "/api/tokens", map[string]string{
		"email":    "b@x.com",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var other struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &other))

	w = doJSON(app, http.MethodPut, "/api/posts/1-from-the-api", map[string]string{
		"title": "Hijacked",
	}, other.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// the owner can delete
	w = doJSON(app, http.MethodDelete, "/api/posts/1-from-the-api", nil, tokenResp.Token)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(app, http.MethodGet, "/api/posts/1-from-the-api", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttachmentsUnavailableWithoutStorage(t *testing.T) {
	app := newTestApp(t)
	cookie := register(t, app, "a@x.com", "secret123")

	w := doForm(app, http.MethodPost, "/posts", url.Values{"title": {"With files"}}, cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = doGet(app, "/posts/1-with-files/attachments", cookie)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
