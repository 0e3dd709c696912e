package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/siswa-api/internal/config"
	"github.com/aanand-mishra/siswa-api/internal/storage"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	cfg := &config.Config{StoragePath: filepath.Join(t.TempDir(), "data", "siswa.db")}
	db, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	id, err := db.CreateSiswa(ctx, "Budi", "Semarang")
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	got, err := db.GetSiswaByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.Equal(t, "Budi", got.Nama)
	require.Equal(t, "Semarang", got.Alamat)
	require.Nil(t, got.Foto)
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetSiswaByID(context.Background(), 42)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	list, err := db.ListSiswa(ctx)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	for _, nama := range []string{"Budi", "Ani", "Citra"} {
		_, err := db.CreateSiswa(ctx, nama, "Semarang")
		require.NoError(t, err)
	}

	list, err = db.ListSiswa(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "Budi", list[0].Nama)
	require.Equal(t, "Ani", list[1].Nama)
	require.Equal(t, "Citra", list[2].Nama)
}

func TestUpdateKeepsFoto(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	id, err := db.CreateSiswa(ctx, "Budi", "Semarang")
	require.NoError(t, err)
	require.NoError(t, db.UpdateFoto(ctx, id, "siswa_1_foto.jpg"))

	require.NoError(t, db.UpdateSiswa(ctx, id, "Budi Update", "Jakarta"))

	got, err := db.GetSiswaByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Budi Update", got.Nama)
	require.Equal(t, "Jakarta", got.Alamat)
	require.NotNil(t, got.Foto)
	require.Equal(t, "siswa_1_foto.jpg", *got.Foto)
}

func TestMutationsOnMissingIDAreNoOps(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.UpdateSiswa(ctx, 99, "x", "y"))
	require.NoError(t, db.UpdateFoto(ctx, 99, "x.jpg"))
	require.NoError(t, db.DeleteSiswa(ctx, 99))

	list, err := db.ListSiswa(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestIDsAreNotReusedAfterDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	first, err := db.CreateSiswa(ctx, "Budi", "Semarang")
	require.NoError(t, err)
	require.NoError(t, db.DeleteSiswa(ctx, first))

	_, err = db.GetSiswaByID(ctx, first)
	require.ErrorIs(t, err, storage.ErrNotFound)

	second, err := db.CreateSiswa(ctx, "Ani", "Solo")
	require.NoError(t, err)
	require.Greater(t, second, first)
}

func TestNewAddsFotoColumnToLegacyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE tbsiswa (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nama TEXT,
		alamat TEXT
	)`)
	require.NoError(t, err)
	_, err = legacy.Exec("INSERT INTO tbsiswa (nama, alamat) VALUES ('Budi', 'Semarang')")
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	db, err := New(&config.Config{StoragePath: path})
	require.NoError(t, err)

	ctx := context.Background()
	got, err := db.GetSiswaByID(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, got.Foto)

	require.NoError(t, db.UpdateFoto(ctx, 1, "siswa_1_a.png"))
	got, err = db.GetSiswaByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "siswa_1_a.png", *got.Foto)

	// Reopening must not try to add the column twice.
	require.NoError(t, db.Close())
	again, err := New(&config.Config{StoragePath: path})
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Ping(context.Background()))
}
