package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/siswa-api/internal/config"
	"github.com/aanand-mishra/siswa-api/internal/http/middleware"
	"github.com/aanand-mishra/siswa-api/internal/http/router"
	siswasvc "github.com/aanand-mishra/siswa-api/internal/service/siswa"
	"github.com/aanand-mishra/siswa-api/internal/storage/sqlite"
	"github.com/aanand-mishra/siswa-api/internal/upload"
)

type testApp struct {
	handler   http.Handler
	uploadDir string
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(&config.Config{StoragePath: filepath.Join(dir, "siswa.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	uploadCfg := config.Upload{
		Dir:               filepath.Join(dir, "pictures"),
		MaxSize:           2 << 20,
		AllowedExtensions: []string{"png", "jpg", "jpeg"},
	}
	photos, err := upload.New(uploadCfg)
	require.NoError(t, err)

	h := router.New(router.Deps{
		Service:       siswasvc.New(db, photos, logger),
		DB:            db,
		MaxUploadSize: uploadCfg.MaxSize,
		Logger:        logger,
		Registry:      prometheus.NewRegistry(),
		Version:       "test",
	})

	return testApp{handler: h, uploadDir: uploadCfg.Dir}
}

func (a testApp) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a testApp) upload(t *testing.T, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a testApp) create(t *testing.T, nama, alamat string) int64 {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"nama": nama, "alamat": alamat})
	require.NoError(t, err)

	rec := a.do(t, http.MethodPost, "/api/siswa/", string(payload))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Message string `json:"message"`
		ID      int64  `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "Siswa ditambahkan", body.Message)
	return body.ID
}

func (a testApp) uploadedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(a.uploadDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCRUDScenario(t *testing.T) {
	app := newTestApp(t)

	id := app.create(t, "Budi", "Semarang")
	require.Equal(t, int64(1), id)

	rec := app.do(t, http.MethodGet, "/api/siswa/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":1,"nama":"Budi","alamat":"Semarang","foto":null}`, rec.Body.String())

	rec = app.do(t, http.MethodDelete, "/api/siswa/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/siswa/1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"message":"Siswa tidak ditemukan"}`, rec.Body.String())
}

func TestListAfterCreate(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/siswa/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	id := app.create(t, "Budi", "Semarang")

	for _, path := range []string{"/api/siswa/", "/api/siswa"} {
		rec = app.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var list []map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
		require.Len(t, list, 1)
		require.Equal(t, float64(id), list[0]["id"])
		require.Equal(t, "Budi", list[0]["nama"])
		require.Equal(t, "Semarang", list[0]["alamat"])
	}
}

func TestUpdateKeepsPhoto(t *testing.T) {
	app := newTestApp(t)
	id := app.create(t, "Budi", "Semarang")

	rec := app.upload(t, "/api/siswa/1/foto", "foto.jpg", []byte("fake image data"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(t, http.MethodPut, "/api/siswa/1", `{"nama":"Budi Update","alamat":"Jakarta"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"Siswa diperbarui"}`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/siswa/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":1,"nama":"Budi Update","alamat":"Jakarta","foto":"siswa_1_foto.jpg"}`, rec.Body.String())
	require.Equal(t, int64(1), id)
}

func TestUpdateAndDeleteMissingIDStillSucceed(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPut, "/api/siswa/42", `{"nama":"x","alamat":"y"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodDelete, "/api/siswa/42", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/siswa/42", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadFoto(t *testing.T) {
	app := newTestApp(t)
	app.create(t, "Budi", "Semarang")

	rec := app.upload(t, "/api/siswa/1/foto", "foto.jpg", []byte("fake image data"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Message  string `json:"message"`
		Filename string `json:"filename"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "Foto berhasil diupload", body.Message)
	require.Contains(t, body.Filename, "1")

	data, err := os.ReadFile(filepath.Join(app.uploadDir, body.Filename))
	require.NoError(t, err)
	require.Equal(t, "fake image data", string(data))
}

func TestUploadFotoRejectedWithoutWrite(t *testing.T) {
	app := newTestApp(t)
	app.create(t, "Budi", "Semarang")

	rec := app.upload(t, "/api/siswa/99/foto", "foto.jpg", []byte("x"))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"message":"Siswa tidak ditemukan"}`, rec.Body.String())

	rec = app.upload(t, "/api/siswa/1/foto", "notes.txt", []byte("x"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"message":"Format file tidak diizinkan"}`, rec.Body.String())

	rec = app.upload(t, "/api/siswa/1/foto", "FOTO.TXT", []byte("x"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Just over the 2 MiB limit but inside the multipart allowance.
	rec = app.upload(t, "/api/siswa/1/foto", "big.png", bytes.Repeat([]byte("a"), 2<<20+1))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.JSONEq(t, `{"message":"Ukuran file melebihi batas"}`, rec.Body.String())

	require.Empty(t, app.uploadedFiles(t))
}

func TestUploadAcceptsUpperCaseExtension(t *testing.T) {
	app := newTestApp(t)
	app.create(t, "Budi", "Semarang")

	rec := app.upload(t, "/api/siswa/1/foto", "FOTO.JPEG", []byte("x"))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{"siswa_1_FOTO.JPEG"}, app.uploadedFiles(t))
}

func TestDeleteRemovesPhoto(t *testing.T) {
	app := newTestApp(t)
	app.create(t, "Budi", "Semarang")

	rec := app.upload(t, "/api/siswa/1/foto", "foto.png", []byte("x"))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, app.uploadedFiles(t), 1)

	rec = app.do(t, http.MethodDelete, "/api/siswa/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, app.uploadedFiles(t))
}

func TestRequestIDAndMetrics(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/siswa/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))

	rec = app.do(t, http.MethodGet, "/api/siswa/5", "")
	require.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = app.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	metrics := rec.Body.String()
	require.Contains(t, metrics, `siswa_http_requests_total{method="GET",route="GET /api/siswa/{$}",status="200"} 1`)
	require.Contains(t, metrics, `siswa_http_requests_total{method="GET",route="GET /api/siswa/{id}",status="404"} 1`)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/health/live", "").Code)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/health/ready", "").Code)
}
