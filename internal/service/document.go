package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/repository"
	"propdesk-backend/internal/storage"
)

type documentService struct {
	repo  repository.DocumentRepository
	store storage.StorageInterface
}

func NewDocumentService(repo repository.DocumentRepository, store storage.StorageInterface) DocumentService {
	return &documentService{repo: repo, store: store}
}

var errDocumentNotFound = apperr.WithMessage(apperr.ErrNotFound, "Document not found")

// cleanFileName keeps the base name of an uploaded path.
func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

func (s *documentService) Upload(ctx context.Context, ownerID uuid.UUID, meta DocumentUpload, r io.Reader) (*domain.Document, error) {
	logger.EnterMethod("documentService.Upload", "ownerID", ownerID, "fileName", meta.FileName)

	name := cleanFileName(meta.FileName)
	if name == "" {
		return nil, invalid("File name is required")
	}
	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc := &domain.Document{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		PropertyID:  meta.PropertyID,
		LeaseID:     meta.LeaseID,
		FileName:    name,
		ContentType: contentType,
	}
	doc.StorageKey = fmt.Sprintf("documents/%s/%s/%s", ownerID, doc.ID, name)

	size, err := s.store.Put(ctx, doc.StorageKey, contentType, r)
	if err != nil {
		logger.ExitMethodWithError("documentService.Upload", err, "reason", "storage put failed")
		return nil, apperr.Wrap(apperr.ErrInternal, err)
	}
	doc.SizeBytes = size

	if err := s.repo.Create(ctx, doc); err != nil {
		if delErr := s.store.Delete(ctx, doc.StorageKey); delErr != nil {
			logger.Warn("Failed to remove orphaned document object", "key", doc.StorageKey, "error", delErr)
		}
		logger.ExitMethodWithError("documentService.Upload", err, "reason", "insert failed")
		return nil, repoErr(err, errDocumentNotFound)
	}

	logger.ExitMethod("documentService.Upload", "documentID", doc.ID, "size", size)
	return doc, nil
}

func (s *documentService) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Document, error) {
	docs, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, repoErr(err, errDocumentNotFound)
	}
	return docs, nil
}

func (s *documentService) Open(ctx context.Context, ownerID, id uuid.UUID) (*domain.Document, io.ReadCloser, error) {
	doc, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, nil, repoErr(err, errDocumentNotFound)
	}
	rc, err := s.store.Open(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, apperr.Wrap(errDocumentNotFound, err)
		}
		return nil, nil, apperr.Wrap(apperr.ErrInternal, err)
	}
	return doc, rc, nil
}

func (s *documentService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	doc, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return repoErr(err, errDocumentNotFound)
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return repoErr(err, errDocumentNotFound)
	}
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		logger.Warn("Failed to delete document object", "key", doc.StorageKey, "error", err)
	}
	return nil
}
