package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"miniblog/internal/domain"
	"miniblog/internal/service"
	"miniblog/internal/session"
	"miniblog/internal/slug"
)

// --- sessions ---

func (h *Handler) newSession(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"Error": "", "Email": "", "User": currentUser(c)})
}

func (h *Handler) createSession(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, err := h.auth.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// one message for every failure cause, email kept for the retry
			c.HTML(http.StatusUnauthorized, "login.html", gin.H{
				"Error": "invalid email or password",
				"Email": email,
			})
			return
		}
		h.serverErrorHTML(c, err)
		return
	}

	if !h.establishSession(c, user) {
		return
	}
	c.Redirect(http.StatusSeeOther, "/posts")
}

func (h *Handler) destroySession(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), sessionToken(c)); err != nil {
		h.serverErrorHTML(c, err)
		return
	}
	session.ClearCookie(c.Writer, h.cookieOpts)
	c.Redirect(http.StatusSeeOther, "/")
}

// --- users ---

func (h *Handler) newUser(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{"Error": "", "Email": "", "User": currentUser(c)})
}

func (h *Handler) createUser(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, err := h.auth.Register(c.Request.Context(), email, password)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.HTML(http.StatusUnprocessableEntity, "register.html", gin.H{
				"Error": vErr.Error(),
				"Email": email,
			})
			return
		}
		h.serverErrorHTML(c, err)
		return
	}

	// auto-login on signup
	if !h.establishSession(c, user) {
		return
	}
	c.Redirect(http.StatusSeeOther, "/posts")
}

// establishSession rotates the session and issues the cookie. It writes the
// error response itself and reports whether the caller may proceed.
func (h *Handler) establishSession(c *gin.Context, user *domain.User) bool {
	sess, err := h.auth.Login(c.Request.Context(), user)
	if err != nil {
		h.serverErrorHTML(c, err)
		return false
	}
	session.SetCookie(c.Writer, sess.Token, sess.ExpiresAt, h.cookieOpts)
	return true
}

// --- posts ---

type postView struct {
	PublicID string
	Title    string
	Body     string
	Owned    bool
}

func (h *Handler) toPostView(c *gin.Context, post domain.Post) postView {
	user := currentUser(c)
	return postView{
		PublicID: slug.PublicID(post.ID, post.Title),
		Title:    post.Title,
		Body:     post.Body,
		Owned:    user != nil && user.ID == post.UserID,
	}
}

func (h *Handler) listPosts(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context())
	if err != nil {
		h.serverErrorHTML(c, err)
		return
	}

	views := make([]postView, len(posts))
	for i := range posts {
		views[i] = h.toPostView(c, posts[i])
	}
	c.HTML(http.StatusOK, "post_list.html", gin.H{
		"Posts": views,
		"User":  currentUser(c),
	})
}

func (h *Handler) showPost(c *gin.Context) {
	post, err := h.posts.GetByPublicID(c.Request.Context(), c.Param("publicID"))
	if err != nil {
		h.htmlError(c, err)
		return
	}
	c.HTML(http.StatusOK, "post_show.html", gin.H{
		"Post": h.toPostView(c, *post),
		"User": currentUser(c),
	})
}

func (h *Handler) newPost(c *gin.Context) {
	c.HTML(http.StatusOK, "post_form.html", gin.H{
		"Action": "/posts",
		"Method": "",
		"Error":  "",
		"Title":  "",
		"Body":   "",
		"User":   currentUser(c),
	})
}

func (h *Handler) createPost(c *gin.Context) {
	title := c.PostForm("title")
	body := c.PostForm("body")

	post, err := h.posts.Create(c.Request.Context(), currentUser(c).ID, title, body)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.HTML(http.StatusUnprocessableEntity, "post_form.html", gin.H{
				"Action": "/posts",
				"Method": "",
				"Error":  vErr.Error(),
				"Title":  title,
				"Body":   body,
				"User":   currentUser(c),
			})
			return
		}
		h.serverErrorHTML(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/posts/"+slug.PublicID(post.ID, post.Title))
}

func (h *Handler) editPost(c *gin.Context) {
	publicID := c.Param("publicID")
	post, err := h.posts.GetByPublicID(c.Request.Context(), publicID)
	if err != nil {
		h.htmlError(c, err)
		return
	}
	if post.UserID != currentUser(c).ID {
		h.htmlError(c, service.ErrForbidden)
		return
	}

	c.HTML(http.StatusOK, "post_form.html", gin.H{
		"Action": "/posts/" + publicID,
		"Method": "put",
		"Error":  "",
		"Title":  post.Title,
		"Body":   post.Body,
		"User":   currentUser(c),
	})
}

func (h *Handler) updatePost(c *gin.Context) {
	publicID := c.Param("publicID")
	title := c.PostForm("title")
	body := c.PostForm("body")

	post, err := h.posts.Update(c.Request.Context(), currentUser(c).ID, publicID, title, body)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.HTML(http.StatusUnprocessableEntity, "post_form.html", gin.H{
				"Action": "/posts/" + publicID,
				"Method": "put",
				"Error":  vErr.Error(),
				"Title":  title,
				"Body":   body,
				"User":   currentUser(c),
			})
			return
		}
		h.htmlError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/posts/"+slug.PublicID(post.ID, post.Title))
}

func (h *Handler) destroyPost(c *gin.Context) {
	publicID := c.Param("publicID")
	if err := h.posts.Delete(c.Request.Context(), currentUser(c).ID, publicID); err != nil {
		h.htmlError(c, err)
		return
	}
	h.cleanupAttachments(c, publicID)
	c.Redirect(http.StatusSeeOther, "/posts")
}

// htmlError maps service errors onto plain HTML-surface responses.
func (h *Handler) htmlError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.String(http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		c.String(http.StatusForbidden, "forbidden")
	default:
		h.serverErrorHTML(c, err)
	}
}

func (h *Handler) serverErrorHTML(c *gin.Context, err error) {
	h.logger.WithError(err).WithField("request_id", c.GetString(ctxRequestIDKey)).Error("request failed")
	c.String(http.StatusInternalServerError, "internal server error")
}
