// Package siswa is the record service: the thin layer between the HTTP
// handlers and the storage backend. It holds no state of its own beyond
// the injected dependencies.
package siswa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aanand-mishra/siswa-api/internal/storage"
	"github.com/aanand-mishra/siswa-api/internal/types"
)

// PhotoStore is the subset of upload.PhotoStore the service needs.
type PhotoStore interface {
	Validate(filename string, size int64) error
	FileName(id int64, original string) string
	Save(name string, r io.Reader) (int64, error)
	Remove(name string) error
}

// Service implements list/get/create/update/delete and photo upload.
type Service struct {
	store  storage.Storage
	photos PhotoStore
	logger *slog.Logger
}

// New constructs a Service.
func New(store storage.Storage, photos PhotoStore, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		photos: photos,
		logger: logger.With(slog.String("component", "siswa_service")),
	}
}

// List returns every student.
func (s *Service) List(ctx context.Context) ([]types.Siswa, error) {
	return s.store.ListSiswa(ctx)
}

// Get returns storage.ErrNotFound when the id does not exist.
func (s *Service) Get(ctx context.Context, id int64) (types.Siswa, error) {
	return s.store.GetSiswaByID(ctx, id)
}

// Create stores a new student and returns the assigned id.
func (s *Service) Create(ctx context.Context, in types.SiswaInput) (int64, error) {
	return s.store.CreateSiswa(ctx, in.Nama, in.Alamat)
}

// Update overwrites nama and alamat. An unknown id is silently ignored.
func (s *Service) Update(ctx context.Context, id int64, in types.SiswaInput) error {
	return s.store.UpdateSiswa(ctx, id, in.Nama, in.Alamat)
}

// Delete removes the student and, once the row is gone, its photo file.
// An unknown id is silently ignored. Failing to remove the photo file is
// logged but does not fail the delete.
func (s *Service) Delete(ctx context.Context, id int64) error {
	current, err := s.store.GetSiswaByID(ctx, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if err := s.store.DeleteSiswa(ctx, id); err != nil {
		return err
	}

	if current.Foto != nil {
		s.removePhoto(id, *current.Foto)
	}

	return nil
}

// UploadFoto validates and stores a photo for an existing student and
// records its filename. Checks run before anything touches disk:
// student exists, file present, extension allowed, size within limit.
//
// Returns storage.ErrNotFound or one of the upload sentinel errors on
// rejection; the stored filename on success.
func (s *Service) UploadFoto(ctx context.Context, id int64, filename string, size int64, r io.Reader) (string, error) {
	current, err := s.store.GetSiswaByID(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.photos.Validate(filename, size); err != nil {
		return "", err
	}

	name := s.photos.FileName(id, filename)
	written, err := s.photos.Save(name, r)
	if err != nil {
		return "", err
	}

	if err := s.store.UpdateFoto(ctx, id, name); err != nil {
		if current.Foto == nil || *current.Foto != name {
			s.removePhoto(id, name)
		}
		return "", fmt.Errorf("UploadFoto: %w", err)
	}

	// The student may have been deleted while the file was being written.
	// UpdateFoto is a no-op then, so drop the file rather than orphan it.
	if _, err := s.store.GetSiswaByID(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.removePhoto(id, name)
		}
		return "", err
	}

	if current.Foto != nil && *current.Foto != name {
		s.removePhoto(id, *current.Foto)
	}

	s.logger.Info("photo stored",
		slog.Int64("id", id),
		slog.String("filename", name),
		slog.Int64("bytes", written))

	return name, nil
}

func (s *Service) removePhoto(id int64, name string) {
	if err := s.photos.Remove(name); err != nil {
		s.logger.Warn("failed to remove photo file",
			slog.Int64("id", id),
			slog.String("filename", name),
			slog.String("error", err.Error()))
	}
}
