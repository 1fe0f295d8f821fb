package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pixoapp/pixo"
	"github.com/pixoapp/pixo/credential"
	"github.com/pixoapp/pixo/filesystem"
	pixohttp "github.com/pixoapp/pixo/http"
	"github.com/pixoapp/pixo/jsonfile"
)

const testMaxUpload = 1024

type testEnv struct {
	router   http.Handler
	service  *pixo.Service
	docsDir  string
	filesDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	docsDir := t.TempDir()
	docsRoot, err := os.OpenRoot(docsDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = docsRoot.Close() })

	filesDir := t.TempDir()
	filesRoot, err := os.OpenRoot(filesDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = filesRoot.Close() })

	files := filesystem.NewFileStorage(filesRoot, "http://localhost:5000/files")

	svc, err := pixo.NewService(pixo.ServiceConfig{
		Documents:     jsonfile.New(docsRoot),
		Objects:       files,
		Credentials:   credential.Plain{},
		Collections:   pixo.DefaultCollections(),
		MaxUploadSize: testMaxUpload,
	})
	require.NoError(t, err)

	handler := pixohttp.NewHandler(&pixohttp.HandlerConfig{
		CORS: pixohttp.CORSConfig{
			Enabled:          true,
			AllowedOrigins:   []string{"http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		},
		MaxUploadSize: testMaxUpload,
		Files:         files,
	}, svc)

	return &testEnv{router: handler.Router(), service: svc, docsDir: docsDir, filesDir: filesDir}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

type filePart struct {
	filename    string
	contentType string
	data        []byte
}

func pngFile(name string, data string) *filePart {
	return &filePart{filename: name, contentType: "image/png", data: []byte(data)}
}

func (e *testEnv) postUpload(t *testing.T, path string, fields map[string]string, file *filePart, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.filename))
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp pixohttp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func (e *testEnv) signUp(t *testing.T, email string) string {
	t.Helper()

	rec := e.postJSON(t, "/api/sign-up", map[string]string{"email": email, "password": "123"})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec.Body)
	return body["user"].(map[string]any)["id"].(string)
}

func (e *testEnv) uploadUserImage(t *testing.T, userID, name string) pixo.Image {
	t.Helper()

	rec := e.postUpload(t, "/api/upload-user", map[string]string{"user_id": userID}, pngFile(name, "png-bytes"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Image pixo.Image `json:"image"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Image
}

func (e *testEnv) createAlbum(t *testing.T, userID, title string) pixo.Album {
	t.Helper()

	rec := e.postJSON(t, "/api/albums", map[string]string{"user_id": userID, "title": title})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Album pixo.Album `json:"album"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Album
}
