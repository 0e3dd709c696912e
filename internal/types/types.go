// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles:
// handlers, services and storage all import types without depending
// on each other.
package types

// Siswa is a single student record as stored and as returned over HTTP.
//
// Field order matches the wire format: id, nama, alamat, foto.
// Foto is a pointer so a student without an uploaded photo encodes as
// "foto": null instead of an empty string.
type Siswa struct {
	ID     int64   `json:"id"`
	Nama   string  `json:"nama"`
	Alamat string  `json:"alamat"`
	Foto   *string `json:"foto"`
}

// SiswaInput is the request body accepted by create and full update.
//
// The validate:"required" rules are checked by go-playground/validator
// before any storage call is made.
type SiswaInput struct {
	Nama   string `json:"nama"   validate:"required"`
	Alamat string `json:"alamat" validate:"required"`
}
