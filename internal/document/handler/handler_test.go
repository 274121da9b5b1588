package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/htmlhost/htmlhost/internal/document"
	"github.com/htmlhost/htmlhost/internal/document/repository"
	"github.com/htmlhost/htmlhost/internal/document/service"
	"github.com/htmlhost/htmlhost/internal/sessions"
	"github.com/htmlhost/htmlhost/pkg/middleware"
)

const testSecret = "handler-secret-32-bytes-xxxxxxxxxxxx"

type testServer struct {
	engine *gin.Engine
	token  string
}

func newTestServer(t *testing.T, svc service.Service) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sess := sessions.NewService(testSecret, time.Hour, nil)
	tok, _, err := sess.Issue(context.Background(), "admin")
	require.NoError(t, err)

	g := gin.New()
	g.Use(middleware.RequestID())
	RegisterDocumentRoutes(g, svc, middleware.SessionMiddleware(sess))
	return &testServer{engine: g, token: tok}
}

func (s *testServer) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	}
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: s.token})
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) json(method, path, body string) *httptest.ResponseRecorder {
	return s.do(method, path, "application/json", body)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestDocumentHandler_CRUD(t *testing.T) {
	s := newTestServer(t, service.NewMemoryService())

	// upload
	w := s.json(http.MethodPost, "/api/documents/upload", `{"title":"My Awesome Document!","content":"<h1>Hi</h1>"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.JSONEq(t, `{"success":true,"slug":"my-awesome-document"}`, w.Body.String())

	// get: title comes from the slug
	w = s.json(http.MethodGet, "/api/documents/get/my-awesome-document", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"title":"My Awesome Document","content":"<h1>Hi</h1>","slug":"my-awesome-document"}`, w.Body.String())

	// list
	w = s.json(http.MethodGet, "/api/documents", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "my-awesome-document", list[0]["slug"])
	require.Equal(t, "My Awesome Document!", list[0]["title"])

	// update with rename
	w = s.json(http.MethodPost, "/api/documents/update", `{"slug":"my-awesome-document","title":"Renamed","content":"<p>v2</p>"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true,"slug":"renamed"}`, w.Body.String())

	w = s.json(http.MethodGet, "/api/documents/get/my-awesome-document", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "NOT_FOUND", decode(t, w)["code"])

	// delete via form post
	w = s.do(http.MethodPost, "/api/documents/delete", "application/x-www-form-urlencoded", url.Values{"slug": {"renamed"}}.Encode())
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())

	// delete again via JSON: nothing removed
	w = s.json(http.MethodPost, "/api/documents/delete", `{"slug":"renamed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":false}`, w.Body.String())
}

func TestDocumentHandler_Validation(t *testing.T) {
	s := newTestServer(t, service.NewMemoryService())

	cases := []struct {
		name, path, body, code string
	}{
		{"upload missing content", "/api/documents/upload", `{"title":"x"}`, "INVALID_INPUT"},
		{"upload malformed json", "/api/documents/upload", `{"title":`, "INVALID_INPUT"},
		{"upload title without slug chars", "/api/documents/upload", `{"title":"!!!","content":"x"}`, "INVALID_TITLE"},
		{"upload blank title", "/api/documents/upload", `{"title":"   ","content":"x"}`, "INVALID_INPUT"},
		{"update missing slug", "/api/documents/update", `{"title":"a","content":"x"}`, "INVALID_INPUT"},
		{"delete missing slug", "/api/documents/delete", `{}`, "INVALID_INPUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.json(http.MethodPost, tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			body := decode(t, w)
			require.Equal(t, tc.code, body["code"])
			require.NotEmpty(t, body["requestId"])
		})
	}
}

func TestDocumentHandler_Collision(t *testing.T) {
	s := newTestServer(t, service.NewMemoryService())
	w := s.json(http.MethodPost, "/api/documents/upload", `{"title":"Report","content":"1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.json(http.MethodPost, "/api/documents/upload", `{"title":"report","content":"2"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "SLUG_COLLISION", decode(t, w)["code"])
}

func TestDocumentHandler_UpdateMissingCreates(t *testing.T) {
	s := newTestServer(t, service.NewMemoryService())
	w := s.json(http.MethodPost, "/api/documents/update", `{"slug":"ghost","title":"Brand New","content":"x"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true,"slug":"brand-new"}`, w.Body.String())
}

func TestDocumentHandler_RequiresSession(t *testing.T) {
	s := newTestServer(t, service.NewMemoryService())
	for _, path := range []string{"/api/documents", "/api/documents/get/x"} {
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", strings.NewReader(`{"title":"a","content":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	s.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

// brokenBackend fails every call.
type brokenBackend struct{}

var errDisk = fmt.Errorf("op: %w: %w", document.ErrStorage, errors.New("read-only file system"))

func (brokenBackend) List(context.Context) ([]document.Summary, error)        { return nil, errDisk }
func (brokenBackend) Get(context.Context, string) (*document.Document, error) { return nil, errDisk }
func (brokenBackend) Insert(context.Context, *document.Document) error        { return errDisk }
func (brokenBackend) Replace(context.Context, *document.Document) error       { return errDisk }
func (brokenBackend) Delete(context.Context, string) (bool, error)            { return false, errDisk }

func TestDocumentHandler_StorageFailureIs500(t *testing.T) {
	s := newTestServer(t, service.New(repository.NewStore(brokenBackend{})))

	w := s.json(http.MethodGet, "/api/documents", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	require.Equal(t, "INTERNAL_ERROR", body["code"])
	require.NotContains(t, body["error"], "read-only")

	w = s.json(http.MethodPost, "/api/documents/upload", `{"title":"a","content":"b"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
