package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/usuarios-storage-api/internal/domain/blob"
	"github.com/oksasatya/usuarios-storage-api/internal/domain/entity"
	repo "github.com/oksasatya/usuarios-storage-api/internal/domain/repository"
	"github.com/oksasatya/usuarios-storage-api/pkg/mailer"
	mailtpl "github.com/oksasatya/usuarios-storage-api/pkg/mailer/templates"
)

// UsuarioIndexer keeps a searchable copy of usuarios
type UsuarioIndexer interface {
	Index(ctx context.Context, u *entity.Usuario) error
	Remove(ctx context.Context, id int64) error
	Search(ctx context.Context, q string, size int) ([]entity.Usuario, error)
}

// EventPublisher enqueues notification jobs
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Service orchestrates the record store and the blob store.
// Repo nil means the record store is not available and every data operation
// fails with ErrUnavailable. Index and Events are optional.
type Service struct {
	Repo   repo.UsuarioRepository
	Blobs  blob.Store
	Logger *logrus.Logger
	Index  UsuarioIndexer
	Events EventPublisher
}

func NewService(r repo.UsuarioRepository, blobs blob.Store, logger *logrus.Logger, index UsuarioIndexer, events EventPublisher) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{Repo: r, Blobs: blobs, Logger: logger, Index: index, Events: events}
}

// UsuarioInput carries the form fields of create and update. Foto is optional.
type UsuarioInput struct {
	Nombre   string
	Email    string
	Telefono string
	Foto     *Photo
}

func (in UsuarioInput) normalized() UsuarioInput {
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Telefono = strings.TrimSpace(in.Telefono)
	return in
}

func (s *Service) ready() error {
	if s.Repo == nil {
		return fmt.Errorf("%w: database not configured", ErrUnavailable)
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]entity.Usuario, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	out, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fromRepo(err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Usuario, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	return u, nil
}

// Create uploads the optional photo and then inserts the record. A photo uploaded
// before a failed insert is left in the bucket.
func (s *Service) Create(ctx context.Context, in UsuarioInput) (*entity.Usuario, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	in = in.normalized()

	var fotoURL *string
	if in.Foto != nil {
		url, err := s.uploadPhoto(ctx, in.Foto)
		if err != nil {
			return nil, err
		}
		fotoURL = &url
	}

	u := &entity.Usuario{Nombre: in.Nombre, Email: in.Email, Telefono: in.Telefono, FotoURL: fotoURL}
	if err := s.Repo.Create(ctx, u); err != nil {
		if fotoURL != nil {
			metrics.Add(metricOrphanedBlobs, 1)
			s.Logger.WithError(err).WithField("foto_url", *fotoURL).Warn("insert failed after photo upload; blob left in bucket")
		}
		return nil, fromRepo(err)
	}
	metrics.Add(metricCreated, 1)
	s.Logger.WithFields(logrus.Fields{"usuario_id": u.ID, "has_foto": u.HasFoto()}).Info("usuario created")

	s.indexUsuario(ctx, u)
	s.notify(ctx, mailtpl.Welcome, u)
	return u, nil
}

// Update replaces nombre, email and telefono. When a new photo is supplied the
// previous blob is deleted (best effort) before the new one is uploaded; otherwise
// foto_url is left untouched.
func (s *Service) Update(ctx context.Context, id int64, in UsuarioInput) (*entity.Usuario, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	in = in.normalized()

	changes := repo.UsuarioChanges{Nombre: in.Nombre, Email: in.Email, Telefono: in.Telefono}
	if in.Foto != nil {
		if !in.Foto.isImage() {
			return nil, ErrInvalidImage
		}
		if existing.HasFoto() {
			s.deletePhoto(ctx, *existing.FotoURL)
		}
		url, err := s.uploadPhoto(ctx, in.Foto)
		if err != nil {
			return nil, err
		}
		changes.FotoURL = &url
	}

	u, err := s.Repo.Update(ctx, id, changes)
	if err != nil {
		return nil, fromRepo(err)
	}
	metrics.Add(metricUpdated, 1)
	s.Logger.WithFields(logrus.Fields{"usuario_id": id, "new_foto": changes.FotoURL != nil}).Info("usuario updated")

	s.indexUsuario(ctx, u)
	s.notify(ctx, mailtpl.ProfileUpdated, u)
	return u, nil
}

// Delete removes the photo blob (best effort) and then the record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return fromRepo(err)
	}
	if existing.HasFoto() {
		s.deletePhoto(ctx, *existing.FotoURL)
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fromRepo(err)
	}
	metrics.Add(metricDeleted, 1)
	s.Logger.WithField("usuario_id", id).Info("usuario deleted")

	if s.Index != nil {
		if err := s.Index.Remove(ctx, id); err != nil {
			s.Logger.WithError(err).WithField("usuario_id", id).Warn("search index remove failed")
		}
	}
	s.notify(ctx, mailtpl.AccountDeleted, existing)
	return nil
}

// Search looks usuarios up in the search index; without an index it returns no hits.
func (s *Service) Search(ctx context.Context, q string, size int) ([]entity.Usuario, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	if s.Index == nil {
		return []entity.Usuario{}, nil
	}
	return s.Index.Search(ctx, q, size)
}

func (s *Service) uploadPhoto(ctx context.Context, p *Photo) (string, error) {
	if !p.isImage() {
		return "", ErrInvalidImage
	}
	if s.Blobs == nil {
		return "", fmt.Errorf("%w: storage not configured", ErrPhotoUpload)
	}
	path := photoPath(p.Filename)
	url, err := s.Blobs.Upload(ctx, path, p.ContentType, p.Body)
	if err != nil {
		s.Logger.WithError(err).WithField("path", path).Error("photo upload failed")
		return "", fmt.Errorf("%w: %v", ErrPhotoUpload, err)
	}
	metrics.Add(metricPhotosUploaded, 1)
	return url, nil
}

// deletePhoto never fails the caller: errors are logged and counted
func (s *Service) deletePhoto(ctx context.Context, fotoURL string) {
	if s.Blobs == nil {
		return
	}
	path, ok := blob.PathFromURL(s.Blobs.Bucket(), fotoURL)
	if !ok {
		s.Logger.WithField("foto_url", fotoURL).Warn("foto_url does not belong to the bucket; skipping delete")
		return
	}
	if err := s.Blobs.Delete(ctx, path); err != nil {
		metrics.Add(metricBlobDeleteFailures, 1)
		s.Logger.WithError(err).WithField("path", path).Warn("photo delete failed")
	}
}

func (s *Service) indexUsuario(ctx context.Context, u *entity.Usuario) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("usuario_id", u.ID).Warn("search index failed")
	}
}

func (s *Service) notify(ctx context.Context, template string, u *entity.Usuario) {
	if s.Events == nil {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: template,
		Data:     map[string]any{"Name": u.Nombre, "Email": u.Email},
	}
	if err := s.Events.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"usuario_id": u.ID, "template": template}).Warn("failed to publish email job")
	}
}
