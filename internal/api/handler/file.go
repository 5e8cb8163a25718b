package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/delivery/internal/api/request"
	"github.com/edvin/delivery/internal/api/response"
	"github.com/edvin/delivery/internal/core"
)

// downloadURLExpiry bounds how long a presigned download link stays valid.
const downloadURLExpiry = 15 * time.Minute

// FileStore is the blob collaborator the file handler needs.
type FileStore interface {
	Upload(ctx context.Context, name, mimeType string, data []byte) (string, error)
	PresignDownload(ctx context.Context, key, name string, expiry time.Duration) (string, error)
}

// File serves standalone uploads and presigned downloads. Content never
// passes through the database; only metadata does.
type File struct {
	svc  *core.FileService
	blob FileStore
}

func NewFile(svc *core.FileService, blob FileStore) *File {
	return &File{svc: svc, blob: blob}
}

// Upload stores one multipart file and returns its metadata.
func (h *File) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		return
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	mimeType := fh.Header.Get("Content-Type")
	key, err := h.blob.Upload(r.Context(), fh.Filename, mimeType, data)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	file, err := h.svc.Register(r.Context(), fh.Filename, mimeType, int64(len(data)), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, file)
}

// DownloadURL returns a time-limited URL for the file content.
func (h *File) DownloadURL(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	url, err := h.blob.PresignDownload(r.Context(), file.ObjectKey, file.Name, downloadURLExpiry)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}
