package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/htmlhost/htmlhost/internal/document"
	"github.com/htmlhost/htmlhost/internal/document/service"
	"github.com/htmlhost/htmlhost/pkg/logger"
	"github.com/htmlhost/htmlhost/pkg/middleware"
)

// viewTemplate frames the stored document in a sandboxed iframe so that its
// scripts run in an opaque origin and cannot reach the session cookie.
var viewTemplate = template.Must(template.New("view").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<meta name="description" content="{{.Title}}">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="Viewing document: {{.Title}} (ID: {{.Slug}})">
<meta property="og:type" content="article">
<style>html,body{margin:0;height:100%}iframe{border:0;width:100%;height:100%;display:block}</style>
</head>
<body>
<iframe title="{{.Title}}" sandbox="allow-scripts allow-popups allow-forms" srcdoc="{{.Content}}"></iframe>
</body>
</html>
`))

type viewData struct {
	Title   string
	Slug    string
	Content string
}

// RegisterPublicRoutes registers the unauthenticated document pages:
// GET /view/:slug (framed page) and GET /raw/:slug (the stored HTML as-is).
func RegisterPublicRoutes(r gin.IRouter, svc service.Service) {
	r.GET("/view/:slug", func(c *gin.Context) {
		d, ok := fetchForPage(c, svc)
		if !ok {
			return
		}
		c.Header("X-Frame-Options", "SAMEORIGIN")
		c.Render(http.StatusOK, render.HTML{
			Template: viewTemplate,
			Name:     "view",
			Data:     viewData{Title: document.DisplayTitle(d.Slug), Slug: d.Slug, Content: d.Content},
		})
	})

	r.GET("/raw/:slug", func(c *gin.Context) {
		d, ok := fetchForPage(c, svc)
		if !ok {
			return
		}
		// served from our origin, so keep it in a sandbox as well
		c.Header("Content-Security-Policy", "sandbox allow-scripts allow-popups allow-forms")
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(d.Content))
	})
}

func fetchForPage(c *gin.Context, svc service.Service) (*document.Document, bool) {
	d, err := svc.Fetch(c.Request.Context(), c.Param("slug"))
	if err == nil {
		return d, true
	}
	if errors.Is(err, service.ErrNotFound) {
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(notFoundHTML))
		c.Abort()
		return nil, false
	}
	logger.Errorf("request %s: %v", middleware.GetRequestID(c), err)
	middleware.AbortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	return nil, false
}

const notFoundHTML = `<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>Not found</title></head>
<body><h1>404</h1><p>This document does not exist.</p></body></html>
`
