// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Error responses always carry a short human-readable "message"; payload
// validation failures add an "errors" object keyed by field name.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Messages shown to API clients.
const (
	MsgCreated          = "Siswa ditambahkan"
	MsgUpdated          = "Siswa diperbarui"
	MsgDeleted          = "Siswa dihapus"
	MsgNotFound         = "Siswa tidak ditemukan"
	MsgFileMissing      = "File tidak ditemukan"
	MsgFileType         = "Format file tidak diizinkan"
	MsgFileTooLarge     = "Ukuran file melebihi batas"
	MsgUploaded         = "Foto berhasil diupload"
	MsgValidationFailed = "Input payload validation failed"
	MsgInternal         = "Terjadi kesalahan pada server"
)

// Message is the body of every plain status/error response.
//
//	{ "message": "Siswa tidak ditemukan" }
type Message struct {
	Message string `json:"message"`
}

// Validation is returned when the request body fails decoding or validation.
//
//	{ "message": "Input payload validation failed",
//	  "errors": { "nama": "'nama' is a required property" } }
type Validation struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteMessage is shorthand for WriteJSON with a Message body.
func WriteMessage(w http.ResponseWriter, status int, msg string) error {
	return WriteJSON(w, status, Message{Message: msg})
}

// BodyError reports a request body that could not be decoded at all
// (empty, malformed JSON, wrong JSON types).
func BodyError(err error) Validation {
	return Validation{
		Message: MsgValidationFailed,
		Errors:  map[string]string{"body": err.Error()},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts validator.ValidationErrors into a Validation
// body with one sentence per failing field.
//
// Field names come from FieldError.Field(), so the validator should be
// configured to report json tag names (see handlers).
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Validation {
	fields := make(map[string]string, len(errs))

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			fields[e.Field()] = fmt.Sprintf("'%s' is a required property", e.Field())
		default:
			fields[e.Field()] = fmt.Sprintf("'%s' is invalid", e.Field())
		}
	}

	return Validation{
		Message: MsgValidationFailed,
		Errors:  fields,
	}
}
