package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/service"
)

// DocumentHandler handles multipart uploads and streamed downloads of
// owner documents.
type DocumentHandler struct {
	documentSvc service.DocumentService
	maxBytes    int64
}

func NewDocumentHandler(documentSvc service.DocumentService, maxBytes int64) *DocumentHandler {
	return &DocumentHandler{documentSvc: documentSvc, maxBytes: maxBytes}
}

// multipartSlack covers form field and boundary overhead above the file limit.
const multipartSlack = 1 << 20

// formFile opens the "file" part of a multipart request bounded by maxBytes.
func formFile(w http.ResponseWriter, r *http.Request, maxBytes int64) (io.ReadCloser, string, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartSlack)
	if err := r.ParseMultipartForm(maxBytes + multipartSlack); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", "", apperr.WithMessage(apperr.ErrInvalidInput, fmt.Sprintf("File exceeds the %d MB limit", maxBytes>>20))
		}
		return nil, "", "", apperr.WithMessage(apperr.ErrInvalidInput, "Expected a multipart form with a file")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", "", apperr.WithMessage(apperr.ErrInvalidInput, "Missing file")
	}
	if header.Size > maxBytes {
		file.Close()
		return nil, "", "", apperr.WithMessage(apperr.ErrInvalidInput, fmt.Sprintf("File exceeds the %d MB limit", maxBytes>>20))
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}
	return file, header.Filename, contentType, nil
}

func optionalFormUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.WithMessage(apperr.ErrInvalidInput, "Invalid "+name)
	}
	return &id, nil
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	file, name, contentType, err := formFile(w, r, h.maxBytes)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	defer file.Close()

	meta := service.DocumentUpload{FileName: name, ContentType: contentType}
	if meta.PropertyID, err = optionalFormUUID(r, "property_id"); err != nil {
		respondWithError(w, r, err)
		return
	}
	if meta.LeaseID, err = optionalFormUUID(r, "lease_id"); err != nil {
		respondWithError(w, r, err)
		return
	}

	doc, err := h.documentSvc.Upload(r.Context(), p.UserID, meta, file)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	docs, err := h.documentSvc.List(r.Context(), p.UserID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// Download streams the stored file back with its original name and type.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	doc, body, err := h.documentSvc.Open(r.Context(), p.UserID, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	defer body.Close()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	w.Header().Set("Cache-Control", "private, max-age=0")
	if doc.SizeBytes > 0 {
		w.Header().Set("Content-Length", fmt.Sprint(doc.SizeBytes))
	}
	if _, err := io.Copy(w, body); err != nil {
		logger.Warn("Document download interrupted", "documentID", id, "error", err)
	}
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := h.documentSvc.Delete(r.Context(), p.UserID, id); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
