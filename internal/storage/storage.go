// Package storage defines the Storage interface, the contract any
// database backend must satisfy to hold student records.
//
// Handlers and services depend only on this interface, so tests can run
// against a throwaway SQLite file and a different backend only needs a
// new implementation.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/siswa-api/internal/types"
)

// ErrNotFound is returned by GetSiswaByID when no row has the given id.
var ErrNotFound = errors.New("siswa not found")

// Storage is the database contract.
//
// Every method commits on its own; there are no multi-statement
// transactions. Update, UpdateFoto and Delete on an id that does not exist
// are no-ops, not errors.
type Storage interface {
	// ListSiswa returns every record in insertion order.
	// Returns an empty slice (not nil) if there are none.
	ListSiswa(ctx context.Context) ([]types.Siswa, error)

	// GetSiswaByID returns ErrNotFound when the id does not exist.
	GetSiswaByID(ctx context.Context, id int64) (types.Siswa, error)

	// CreateSiswa inserts a record with no photo and returns its new id.
	CreateSiswa(ctx context.Context, nama, alamat string) (int64, error)

	// UpdateSiswa overwrites nama and alamat; foto is left untouched.
	UpdateSiswa(ctx context.Context, id int64, nama, alamat string) error

	// UpdateFoto overwrites only the photo filename.
	UpdateFoto(ctx context.Context, id int64, filename string) error

	// DeleteSiswa removes the row permanently.
	DeleteSiswa(ctx context.Context, id int64) error

	// Ping reports whether the database is reachable.
	Ping(ctx context.Context) error
}
