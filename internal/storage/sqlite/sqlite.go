// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/siswa-api/internal/config"
	"github.com/aanand-mishra/siswa-api/internal/storage"
	"github.com/aanand-mishra/siswa-api/internal/types"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// *sql.DB is a connection pool and is safe for concurrent use.
type SQLite struct {
	Db *sql.DB
}

// busyTimeoutMs makes a writer wait for a concurrent writer's lock
// instead of failing straight away with SQLITE_BUSY.
const busyTimeoutMs = 5000

// New opens the SQLite database at cfg.StoragePath, creates the tbsiswa
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	if dir := filepath.Dir(cfg.StoragePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d", cfg.StoragePath, busyTimeoutMs)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// AUTOINCREMENT (not just INTEGER PRIMARY KEY) guarantees an id is
	// never handed out twice, even after the highest row is deleted.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS tbsiswa (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			nama   TEXT,
			alamat TEXT,
			foto   TEXT
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	if err := addFotoColumn(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// addFotoColumn upgrades databases created before photo uploads existed,
// whose tbsiswa table has only id, nama and alamat.
func addFotoColumn(db *sql.DB) error {
	rows, err := db.Query("PRAGMA table_info(tbsiswa)")
	if err != nil {
		return fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	hasFoto := false
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("table info: scan: %w", err)
		}
		if name == "foto" {
			hasFoto = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("table info: rows: %w", err)
	}
	rows.Close()

	if hasFoto {
		return nil
	}

	if _, err := db.Exec("ALTER TABLE tbsiswa ADD COLUMN foto TEXT"); err != nil {
		return fmt.Errorf("add foto column: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// Ping checks the database is reachable. Used by the readiness probe.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateSiswa inserts a new row. Placeholders (?) keep user input out of
// the SQL text; the driver sends the values separately.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) CreateSiswa(ctx context.Context, nama, alamat string) (int64, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO tbsiswa (nama, alamat) VALUES (?, ?)",
	)
	if err != nil {
		return 0, fmt.Errorf("CreateSiswa: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, nama, alamat)
	if err != nil {
		return 0, fmt.Errorf("CreateSiswa: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateSiswa: last insert id: %w", err)
	}

	return lastID, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetSiswaByID fetches exactly one row matched by primary key.
// sql.ErrNoRows is translated to storage.ErrNotFound so callers never
// depend on database/sql directly.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetSiswaByID(ctx context.Context, id int64) (types.Siswa, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT id, nama, alamat, foto FROM tbsiswa WHERE id = ? LIMIT 1",
	)
	if err != nil {
		return types.Siswa{}, fmt.Errorf("GetSiswaByID: prepare: %w", err)
	}
	defer stmt.Close()

	siswa, err := scanSiswa(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Siswa{}, storage.ErrNotFound
		}
		return types.Siswa{}, fmt.Errorf("GetSiswaByID: scan: %w", err)
	}

	return siswa, nil
}

// ListSiswa returns all rows in rowid (insertion) order.
func (s *SQLite) ListSiswa(ctx context.Context) ([]types.Siswa, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT id, nama, alamat, foto FROM tbsiswa ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("ListSiswa: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListSiswa: query: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty table encodes as [] rather than null.
	list := make([]types.Siswa, 0)

	for rows.Next() {
		siswa, err := scanSiswa(rows)
		if err != nil {
			return nil, fmt.Errorf("ListSiswa: scan row: %w", err)
		}
		list = append(list, siswa)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListSiswa: rows iteration: %w", err)
	}

	return list, nil
}

// UpdateSiswa overwrites nama and alamat. Zero rows affected is not an error.
func (s *SQLite) UpdateSiswa(ctx context.Context, id int64, nama, alamat string) error {
	stmt, err := s.Db.PrepareContext(ctx,
		"UPDATE tbsiswa SET nama = ?, alamat = ? WHERE id = ?",
	)
	if err != nil {
		return fmt.Errorf("UpdateSiswa: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, nama, alamat, id); err != nil {
		return fmt.Errorf("UpdateSiswa: exec: %w", err)
	}

	return nil
}

// UpdateFoto overwrites only the foto column.
func (s *SQLite) UpdateFoto(ctx context.Context, id int64, filename string) error {
	stmt, err := s.Db.PrepareContext(ctx, "UPDATE tbsiswa SET foto = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("UpdateFoto: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, filename, id); err != nil {
		return fmt.Errorf("UpdateFoto: exec: %w", err)
	}

	return nil
}

// DeleteSiswa removes a row by primary key.
func (s *SQLite) DeleteSiswa(ctx context.Context, id int64) error {
	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM tbsiswa WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteSiswa: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("DeleteSiswa: exec: %w", err)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSiswa(row scanner) (types.Siswa, error) {
	var (
		siswa  types.Siswa
		nama   sql.NullString
		alamat sql.NullString
		foto   sql.NullString
	)

	// Column order must match the SELECT list: id, nama, alamat, foto.
	if err := row.Scan(&siswa.ID, &nama, &alamat, &foto); err != nil {
		return types.Siswa{}, err
	}

	siswa.Nama = nama.String
	siswa.Alamat = alamat.String
	if foto.Valid {
		siswa.Foto = &foto.String
	}

	return siswa, nil
}
