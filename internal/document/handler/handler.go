package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/htmlhost/htmlhost/internal/document"
	"github.com/htmlhost/htmlhost/internal/document/service"
	"github.com/htmlhost/htmlhost/pkg/logger"
	"github.com/htmlhost/htmlhost/pkg/middleware"
)

type uploadRequest struct {
	Title   string `json:"title" form:"title" binding:"required"`
	Content string `json:"content" form:"content" binding:"required"`
}

type updateRequest struct {
	Slug    string `json:"slug" form:"slug" binding:"required"`
	Title   string `json:"title" form:"title" binding:"required"`
	Content string `json:"content" form:"content" binding:"required"`
}

type deleteRequest struct {
	Slug string `json:"slug" form:"slug" binding:"required"`
}

// RegisterDocumentRoutes mounts the document API under /api/documents. The
// given middleware (normally the session check) runs before every route.
func RegisterDocumentRoutes(r gin.IRouter, svc service.Service, mw ...gin.HandlerFunc) {
	api := r.Group("/api/documents", mw...)

	api.GET("", func(c *gin.Context) {
		list, err := svc.ListAll(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	api.POST("/upload", func(c *gin.Context) {
		var req uploadRequest
		if err := c.ShouldBind(&req); err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "INVALID_INPUT", "title and content are required")
			return
		}
		slug, err := svc.Upload(c.Request.Context(), req.Title, req.Content)
		if err != nil {
			writeError(c, err)
			return
		}
		logger.Infof("document uploaded: %s", slug)
		c.JSON(http.StatusCreated, gin.H{"success": true, "slug": slug})
	})

	api.GET("/get/:slug", func(c *gin.Context) {
		slug := c.Param("slug")
		d, err := svc.Fetch(c.Request.Context(), slug)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"title": document.DisplayTitle(d.Slug), "content": d.Content, "slug": d.Slug})
	})

	api.POST("/update", func(c *gin.Context) {
		var req updateRequest
		if err := c.ShouldBind(&req); err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "INVALID_INPUT", "slug, title and content are required")
			return
		}
		slug, err := svc.Edit(c.Request.Context(), req.Slug, req.Title, req.Content)
		if err != nil {
			writeError(c, err)
			return
		}
		if slug != req.Slug {
			logger.Infof("document renamed: %s -> %s", req.Slug, slug)
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "slug": slug})
	})

	api.POST("/delete", func(c *gin.Context) {
		var req deleteRequest
		if err := c.ShouldBind(&req); err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "INVALID_INPUT", "slug is required")
			return
		}
		removed, err := svc.Remove(c.Request.Context(), req.Slug)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": removed})
	})
}

// writeError maps service errors to status codes. Storage failures are logged
// and reported without detail.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, document.ErrInvalidInput):
		middleware.AbortWithError(c, http.StatusBadRequest, "INVALID_INPUT", publicMessage(err))
	case errors.Is(err, document.ErrInvalidTitle):
		middleware.AbortWithError(c, http.StatusBadRequest, "INVALID_TITLE", "title must contain at least one letter or digit")
	case errors.Is(err, document.ErrSlugCollision):
		middleware.AbortWithError(c, http.StatusConflict, "SLUG_COLLISION", "a document with this title already exists")
	case errors.Is(err, service.ErrNotFound):
		middleware.AbortWithError(c, http.StatusNotFound, "NOT_FOUND", "document not found")
	default:
		logger.Errorf("request %s: %v", middleware.GetRequestID(c), err)
		middleware.AbortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// publicMessage strips the sentinel prefix from a validation error.
func publicMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
