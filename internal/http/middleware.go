package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"miniblog/internal/auth"
	"miniblog/internal/domain"
	"miniblog/internal/session"
)

const (
	ctxUserKey      = "currentUser"
	ctxTokenKey     = "sessionToken"
	ctxRequestIDKey = "requestID"
)

// MethodOverride lets HTML forms issue PUT and DELETE by tunnelling the verb
// in a _method field of a POST body. It only ever upgrades a POST, so safe
// methods can never mutate anything. It must wrap the router, not run as a
// gin middleware, because the verb has to change before route matching.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost &&
			strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			switch strings.ToUpper(r.PostFormValue("_method")) {
			case http.MethodPut:
				r.Method = http.MethodPut
			case http.MethodDelete:
				r.Method = http.MethodDelete
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"request_id": c.GetString(ctxRequestIDKey),
		}).Info("request")
	}
}

// loadCurrentUser resolves the session cookie to a user exactly once per
// request; handlers read the result from the gin context.
func (h *Handler) loadCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(session.CookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}
		c.Set(ctxTokenKey, token)

		user, err := h.auth.CurrentUser(c.Request.Context(), token)
		if err != nil {
			h.logger.WithError(err).Warn("resolve current user")
			c.Next()
			return
		}
		if user != nil {
			c.Set(ctxUserKey, user)
		}
		c.Next()
	}
}

// requireUser guards the HTML surface; anonymous visitors land on the login form.
func (h *Handler) requireUser(c *gin.Context) {
	if currentUser(c) == nil {
		c.Redirect(http.StatusSeeOther, "/sessions/new")
		c.Abort()
		return
	}
	c.Next()
}

// bearerAuth guards the JSON API with JWT bearer tokens.
func (h *Handler) bearerAuth(c *gin.Context) {
	raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	userID, err := auth.UserIDFromToken(raw, h.jwtSecret)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	user, err := h.auth.GetByID(c.Request.Context(), userID)
	if err != nil {
		// a token for a vanished user is just an invalid token
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	c.Set(ctxUserKey, user)
	c.Next()
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

func sessionToken(c *gin.Context) string {
	return c.GetString(ctxTokenKey)
}
