package http

import (
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"miniblog/internal/slug"
	"miniblog/internal/storage"
)

func (h *Handler) attachmentPrefix(postID int64) string {
	return path.Join(h.keyPrefix, fmt.Sprintf("posts/%d", postID))
}

func (h *Handler) uploadAttachment(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage not configured"})
		return
	}

	post, err := h.posts.GetByPublicID(c.Request.Context(), c.Param("publicID"))
	if err != nil {
		h.apiError(c, err)
		return
	}
	if post.UserID != currentUser(c).ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.serverErrorJSON(c, err)
		return
	}
	defer f.Close()

	// Base strips any path segments a client may smuggle into the filename.
	key := path.Join(h.attachmentPrefix(post.ID), filepath.Base(fileHeader.Filename))
	location, err := h.storage.Upload(c.Request.Context(), h.bucket, key, f, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		h.serverErrorJSON(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"location": location})
}

func (h *Handler) listAttachments(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage not configured"})
		return
	}

	post, err := h.posts.GetByPublicID(c.Request.Context(), c.Param("publicID"))
	if err != nil {
		h.apiError(c, err)
		return
	}

	objects, err := h.storage.ListObjects(c.Request.Context(), h.bucket, h.attachmentPrefix(post.ID))
	if err != nil {
		h.serverErrorJSON(c, err)
		return
	}

	resp := make([]AttachmentResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

// cleanupAttachments removes a deleted post's objects. Failures only warn; the
// post itself is already gone.
func (h *Handler) cleanupAttachments(c *gin.Context, publicID string) {
	if h.storage == nil || h.bucket == "" {
		return
	}

	id, err := slug.ParsePublicID(publicID)
	if err != nil {
		return
	}
	if err := h.storage.DeletePrefix(c.Request.Context(), h.bucket, h.attachmentPrefix(id)); err != nil {
		h.logger.WithError(err).Warn("delete attachments")
	}
}

type AttachmentResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func objectToResponse(obj storage.ObjectInfo) AttachmentResponse {
	resp := AttachmentResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
