// Package siswa contains the HTTP handlers for the student resource.
//
// Handlers are built with the closure / factory pattern: a factory takes
// the dependencies once at startup and returns the
// func(http.ResponseWriter, *http.Request) the router calls per request.
//
//	router.HandleFunc("GET /api/siswa/{id}", siswa.Get(svc))
//
// Every handler follows the same steps: parse and validate the input,
// call the service, map the result (or sentinel error) to a status code
// and JSON body. Validation always happens before the service is called.
package siswa

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/siswa-api/internal/storage"
	"github.com/aanand-mishra/siswa-api/internal/types"
	"github.com/aanand-mishra/siswa-api/internal/upload"
	"github.com/aanand-mishra/siswa-api/internal/utils/response"
)

// Service is what the handlers need from the record service.
type Service interface {
	List(ctx context.Context) ([]types.Siswa, error)
	Get(ctx context.Context, id int64) (types.Siswa, error)
	Create(ctx context.Context, in types.SiswaInput) (int64, error)
	Update(ctx context.Context, id int64, in types.SiswaInput) error
	Delete(ctx context.Context, id int64) error
	UploadFoto(ctx context.Context, id int64, filename string, size int64, r io.Reader) (string, error)
}

// CreatedResponse is the body of POST /api/siswa/.
type CreatedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// UploadedResponse is the body of POST /api/siswa/{id}/foto.
type UploadedResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// multipartOverhead is allowed on top of the photo limit for boundaries,
// part headers and any small extra form fields.
const multipartOverhead = 1 << 20

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves every request. It reports json names ("nama") rather
// than Go field names ("Nama").
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// List handles GET /api/siswa/
// Returns a JSON array of all students; [] when there are none.
// ─────────────────────────────────────────────────────────────────────────────
func List(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("listing siswa")

		list, err := svc.List(r.Context())
		if err != nil {
			serverError(w, "error listing siswa", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, list)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Create handles POST /api/siswa/
//
// Request body (JSON):
//
//	{ "nama": "Budi", "alamat": "Semarang" }
//
// Success response (201 Created):
//
//	{ "message": "Siswa ditambahkan", "id": 1 }
//
// ─────────────────────────────────────────────────────────────────────────────
func Create(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating siswa")

		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		id, err := svc.Create(r.Context(), in)
		if err != nil {
			serverError(w, "error creating siswa", err)
			return
		}

		slog.Info("siswa created", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusCreated, CreatedResponse{Message: response.MsgCreated, ID: id})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Get handles GET /api/siswa/{id}
//
// Success response (200 OK):
//
//	{ "id": 1, "nama": "Budi", "alamat": "Semarang", "foto": null }
//
// A non-numeric or non-positive id, or an unknown id, is 404.
// ─────────────────────────────────────────────────────────────────────────────
func Get(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		slog.Info("getting siswa", slog.Int64("id", id))

		siswa, err := svc.Get(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteMessage(w, http.StatusNotFound, response.MsgNotFound)
			return
		}
		if err != nil {
			serverError(w, "error getting siswa", err, slog.Int64("id", id))
			return
		}

		response.WriteJSON(w, http.StatusOK, siswa)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/siswa/{id}
// Same body contract as Create. Responds 200 even when the id does not
// exist: the update is then a no-op.
// ─────────────────────────────────────────────────────────────────────────────
func Update(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		slog.Info("updating siswa", slog.Int64("id", id))

		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		if err := svc.Update(r.Context(), id, in); err != nil {
			serverError(w, "error updating siswa", err, slog.Int64("id", id))
			return
		}

		slog.Info("siswa updated", slog.Int64("id", id))
		response.WriteMessage(w, http.StatusOK, response.MsgUpdated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/siswa/{id}
// Responds 200 whether or not the id existed.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		slog.Info("deleting siswa", slog.Int64("id", id))

		if err := svc.Delete(r.Context(), id); err != nil {
			serverError(w, "error deleting siswa", err, slog.Int64("id", id))
			return
		}

		slog.Info("siswa deleted", slog.Int64("id", id))
		response.WriteMessage(w, http.StatusOK, response.MsgDeleted)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// UploadFoto handles POST /api/siswa/{id}/foto (multipart, field "file").
//
// Checks, in order, before anything is written:
//
//	404 — student does not exist
//	400 — no file part / empty filename        "File tidak ditemukan"
//	400 — extension not png/jpg/jpeg           "Format file tidak diizinkan"
//	413 — larger than maxSize                  "Ukuran file melebihi batas"
//
// Success response (201 Created):
//
//	{ "message": "Foto berhasil diupload", "filename": "siswa_1_foto.jpg" }
//
// ─────────────────────────────────────────────────────────────────────────────
func UploadFoto(svc Service, maxSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		slog.Info("uploading siswa foto", slog.Int64("id", id))

		if _, err := svc.Get(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteMessage(w, http.StatusNotFound, response.MsgNotFound)
				return
			}
			serverError(w, "error getting siswa", err, slog.Int64("id", id))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
		if err := r.ParseMultipartForm(multipartOverhead); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.WriteMessage(w, http.StatusRequestEntityTooLarge, response.MsgFileTooLarge)
				return
			}
			response.WriteMessage(w, http.StatusBadRequest, response.MsgFileMissing)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			response.WriteMessage(w, http.StatusBadRequest, response.MsgFileMissing)
			return
		}
		defer file.Close()

		filename, err := svc.UploadFoto(r.Context(), id, header.Filename, header.Size, file)
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrNotFound):
			response.WriteMessage(w, http.StatusNotFound, response.MsgNotFound)
			return
		case errors.Is(err, upload.ErrMissingFile):
			response.WriteMessage(w, http.StatusBadRequest, response.MsgFileMissing)
			return
		case errors.Is(err, upload.ErrExtensionNotAllowed):
			response.WriteMessage(w, http.StatusBadRequest, response.MsgFileType)
			return
		case errors.Is(err, upload.ErrTooLarge):
			response.WriteMessage(w, http.StatusRequestEntityTooLarge, response.MsgFileTooLarge)
			return
		default:
			serverError(w, "error uploading siswa foto", err, slog.Int64("id", id))
			return
		}

		slog.Info("siswa foto uploaded", slog.Int64("id", id), slog.String("filename", filename))
		response.WriteJSON(w, http.StatusCreated, UploadedResponse{Message: response.MsgUploaded, Filename: filename})
	}
}

// parseID reads the {id} path segment. Anything that is not a positive
// integer cannot name a student, so it is answered with 404 like an
// unmatched route.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		response.WriteMessage(w, http.StatusNotFound, response.MsgNotFound)
		return 0, false
	}
	return id, true
}

// decodeInput decodes and validates a SiswaInput body. On failure it has
// already written the 400 response.
func decodeInput(w http.ResponseWriter, r *http.Request) (types.SiswaInput, bool) {
	var in types.SiswaInput

	err := json.NewDecoder(r.Body).Decode(&in)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.BodyError(errors.New("request body is empty")))
		return in, false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.BodyError(err))
		return in, false
	}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
			return in, false
		}
		response.WriteJSON(w, http.StatusBadRequest, response.BodyError(err))
		return in, false
	}

	return in, true
}

// serverError logs the real cause and answers with a generic 500.
func serverError(w http.ResponseWriter, msg string, err error, attrs ...any) {
	slog.Error(msg, append(attrs, slog.String("error", err.Error()))...)
	response.WriteMessage(w, http.StatusInternalServerError, response.MsgInternal)
}
