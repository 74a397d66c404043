package http

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"miniblog/internal/auth"
	"miniblog/internal/domain"
	"miniblog/internal/service"
	"miniblog/internal/session"
	"miniblog/internal/slug"
	"miniblog/internal/storage"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth       service.AuthService
	posts      service.PostService
	storage    storage.Service
	bucket     string
	keyPrefix  string
	jwtSecret  []byte
	tokenTTL   time.Duration
	cookieOpts session.CookieOptions
	logger     *logrus.Logger
}

type Config struct {
	Auth       service.AuthService
	Posts      service.PostService
	Storage    storage.Service // nil disables attachments
	Bucket     string
	KeyPrefix  string
	JWTSecret  []byte
	TokenTTL   time.Duration
	CookieOpts session.CookieOptions
	Logger     *logrus.Logger
}

func NewHandler(cfg Config) *Handler {
	return &Handler{
		auth:       cfg.Auth,
		posts:      cfg.Posts,
		storage:    cfg.Storage,
		bucket:     cfg.Bucket,
		keyPrefix:  cfg.KeyPrefix,
		jwtSecret:  cfg.JWTSecret,
		tokenTTL:   cfg.TokenTTL,
		cookieOpts: cfg.CookieOpts,
		logger:     cfg.Logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))
	router.Use(h.requestID(), h.requestLogger(), h.loadCurrentUser())

	router.GET("/", h.listPosts)

	router.GET("/sessions/new", h.newSession)
	router.POST("/sessions", h.createSession)
	router.DELETE("/sessions", h.destroySession)

	router.GET("/users/new", h.newUser)
	router.POST("/users", h.createUser)

	router.GET("/posts", h.listPosts)
	router.GET("/posts/new", h.requireUser, h.newPost)
	router.POST("/posts", h.requireUser, h.createPost)
	router.GET("/posts/:publicID", h.showPost)
	router.GET("/posts/:publicID/edit", h.requireUser, h.editPost)
	router.PUT("/posts/:publicID", h.requireUser, h.updatePost)
	router.DELETE("/posts/:publicID", h.requireUser, h.destroyPost)

	router.POST("/posts/:publicID/attachments", h.requireUser, h.uploadAttachment)
	router.GET("/posts/:publicID/attachments", h.listAttachments)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.POST("/tokens", h.createToken)
		api.GET("/posts", h.apiListPosts)
		api.GET("/posts/:publicID", h.apiGetPost)
		api.POST("/posts", h.bearerAuth, h.apiCreatePost)
		api.PUT("/posts/:publicID", h.bearerAuth, h.apiUpdatePost)
		api.DELETE("/posts/:publicID", h.bearerAuth, h.apiDeletePost)
	}
}

type tokenRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) createToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.serverErrorJSON(c, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.serverErrorJSON(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int64(h.tokenTTL.Seconds()),
	})
}

type postRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
}

func (h *Handler) apiListPosts(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context())
	if err != nil {
		h.serverErrorJSON(c, err)
		return
	}

	resp := make([]PostResponse, len(posts))
	for i := range posts {
		resp[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) apiGetPost(c *gin.Context) {
	post, err := h.posts.GetByPublicID(c.Request.Context(), c.Param("publicID"))
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) apiCreatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.Create(c.Request.Context(), currentUser(c).ID, req.Title, req.Body)
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, postToResponse(*post))
}

func (h *Handler) apiUpdatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.Update(c.Request.Context(), currentUser(c).ID, c.Param("publicID"), req.Title, req.Body)
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) apiDeletePost(c *gin.Context) {
	publicID := c.Param("publicID")
	if err := h.posts.Delete(c.Request.Context(), currentUser(c).ID, publicID); err != nil {
		h.apiError(c, err)
		return
	}
	h.cleanupAttachments(c, publicID)
	c.JSON(http.StatusOK, gin.H{"deleted": publicID})
}

// apiError maps service errors onto JSON API status codes.
func (h *Handler) apiError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		h.serverErrorJSON(c, err)
	}
}

func (h *Handler) serverErrorJSON(c *gin.Context, err error) {
	h.logger.WithError(err).WithField("request_id", c.GetString(ctxRequestIDKey)).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

type PostResponse struct {
	ID        int64  `json:"id"`
	PublicID  string `json:"public_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	UserID    int64  `json:"user_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func postToResponse(post domain.Post) PostResponse {
	return PostResponse{
		ID:        post.ID,
		PublicID:  slug.PublicID(post.ID, post.Title),
		Title:     post.Title,
		Body:      post.Body,
		UserID:    post.UserID,
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
		UpdatedAt: post.UpdatedAt.Format(time.RFC3339),
	}
}
