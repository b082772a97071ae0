package stubserver

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ai-knowledge-client/internal/dto"
	"ai-knowledge-client/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadRequest(t *testing.T, filename string, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func doJSON(t *testing.T, s *Server, req *http.Request, out interface{}) int {
	t.Helper()

	resp, err := s.GetApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServer_UploadListDelete(t *testing.T) {
	s := New(Config{}, logger.NewNopLogger())

	var uploaded dto.UploadDocumentResponse
	status := doJSON(t, s, uploadRequest(t, "notes.txt", "alpha beta gamma"), &uploaded)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "notes.txt", uploaded.Filename)
	assert.Equal(t, 1, uploaded.Chunks)
	assert.Equal(t, "indexed", uploaded.Status)
	assert.Empty(t, uploaded.FileType)

	var docs []dto.DocumentResponse
	doJSON(t, s, jsonRequest(http.MethodGet, "/api/documents", nil), &docs)
	require.Len(t, docs, 1)
	assert.Equal(t, "txt", docs[0].FileType)

	var deleted dto.StatusResponse
	doJSON(t, s, jsonRequest(http.MethodDelete, "/api/documents/"+uploaded.Id, nil), &deleted)
	assert.Equal(t, "deleted", deleted.Status)

	doJSON(t, s, jsonRequest(http.MethodGet, "/api/documents", nil), &docs)
	assert.Empty(t, docs)
}

func TestServer_UploadErrorsUseDetail(t *testing.T) {
	s := New(Config{}, logger.NewNopLogger())

	var errRes dto.ErrorResponse
	status := doJSON(t, s, uploadRequest(t, "image.png", "x"), &errRes)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Unsupported file type. Allowed: pdf, md, txt", errRes.Detail)

	status = doJSON(t, s, uploadRequest(t, "blank.md", "   \n"), &errRes)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Could not extract text from file", errRes.Detail)
}

func TestServer_ChatCitesAndRemembers(t *testing.T) {
	s := New(Config{}, logger.NewNopLogger())
	doJSON(t, s, uploadRequest(t, "handbook.md", "Vacation policy: employees get 25 days of paid leave."), nil)

	var res dto.SendChatResponse
	status := doJSON(t, s, jsonRequest(http.MethodPost, "/api/chat", dto.SendChatRequest{
		Message: "How many vacation days do employees get?", SessionId: "s1",
	}), &res)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, "handbook.md", res.Citations[0].Source)
	assert.Equal(t, 1, res.Citations[0].Page)
	assert.Contains(t, res.Response, "handbook.md")

	status = doJSON(t, s, jsonRequest(http.MethodPost, "/api/chat", dto.SendChatRequest{
		Message: "Remember that our company fiscal year starts in April.", SessionId: "s1",
	}), &res)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, res.MemoryUpdates, 1)
	assert.Equal(t, "company", res.MemoryUpdates[0].Target)
	assert.Equal(t, "our company fiscal year starts in April", res.MemoryUpdates[0].Fact)

	var memory dto.MemoryDocumentResponse
	doJSON(t, s, jsonRequest(http.MethodGet, "/api/memory/company", nil), &memory)
	assert.True(t, strings.HasPrefix(memory.Content, "# Company Memory"))
	assert.Contains(t, memory.Content, "fiscal year starts in April")
}

func TestServer_ChatValidatesRequest(t *testing.T) {
	s := New(Config{}, logger.NewNopLogger())

	var errRes dto.ErrorResponse
	status := doJSON(t, s, jsonRequest(http.MethodPost, "/api/chat", map[string]string{"message": "hi"}), &errRes)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid field: SessionId", errRes.Detail)
}

func TestServer_MemoryRejectsUnknownTarget(t *testing.T) {
	s := New(Config{}, logger.NewNopLogger())

	var errRes dto.ErrorResponse
	status := doJSON(t, s, jsonRequest(http.MethodGet, "/api/memory/team", nil), &errRes)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "memory_type must be 'user' or 'company'", errRes.Detail)
}

func TestServer_ResetWipesEverything(t *testing.T) {
	s := New(Config{}, logger.NewNopLogger())
	doJSON(t, s, uploadRequest(t, "a.txt", "some text"), nil)
	s.Store().Remember("user", "likes tea")

	var status dto.StatusResponse
	doJSON(t, s, jsonRequest(http.MethodDelete, "/api/reset", nil), &status)

	assert.Equal(t, "reset", status.Status)
	assert.Empty(t, s.Store().Documents())
	assert.Empty(t, s.Store().Memory("user"))
}

func TestServer_TokenProtectsAllButBanner(t *testing.T) {
	s := New(Config{JWTSecret: "s3cret"}, logger.NewNopLogger())

	var banner dto.BannerResponse
	status := doJSON(t, s, jsonRequest(http.MethodGet, "/api/", nil), &banner)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, bannerMessage, banner.Message)

	var errRes dto.ErrorResponse
	status = doJSON(t, s, jsonRequest(http.MethodGet, "/api/documents", nil), &errRes)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Missing token", errRes.Detail)
}
