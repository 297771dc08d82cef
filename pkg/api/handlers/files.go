package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kyberchat/kyberchat/internal/logger"
	"github.com/kyberchat/kyberchat/pkg/blob"
	"github.com/kyberchat/kyberchat/pkg/models"
	"github.com/kyberchat/kyberchat/pkg/store"
)

// DefaultMaxUploadSize caps encrypted attachment uploads at 50 MiB.
const DefaultMaxUploadSize = 50 << 20

// multipartOverhead is the slack allowed for multipart framing around a
// maximum-size file body.
const multipartOverhead = 1 << 20

// FileHandler handles encrypted attachment transfer. Blobs arrive
// encrypted client-side; the server stores them opaquely under generated
// names and never inspects the content.
type FileHandler struct {
	store   store.Store
	blobs   blob.Store
	maxSize int64
}

// NewFileHandler creates a new FileHandler. maxSize bounds a single upload
// in bytes; zero or negative selects DefaultMaxUploadSize.
func NewFileHandler(st store.Store, blobs blob.Store, maxSize int64) *FileHandler {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &FileHandler{
		store:   st,
		blobs:   blobs,
		maxSize: maxSize,
	}
}

// UploadResponse is the response body for POST /api/files/upload.
type UploadResponse struct {
	URL        string `json:"url"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	Hash       string `json:"hash"`
	UploadedAt string `json:"uploaded_at"`
}

// DeleteResponse is the response body for DELETE /api/files/delete/{filename}.
type DeleteResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// Upload handles POST /api/files/upload (multipart field "file").
//
// The blob is stored under a fresh UUID-derived name with an .enc suffix;
// the response carries the download URL and the SHA-256 of the stored
// bytes so clients can verify integrity after a later download.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.store)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			BadRequest(w, fmt.Sprintf("File too large. Maximum size: %d bytes", h.maxSize))
			return
		}
		BadRequest(w, "No file part in request")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		BadRequest(w, "No file selected")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxSize+1))
	if err != nil {
		InternalServerError(w, "Failed to read file")
		return
	}
	if int64(len(data)) > h.maxSize {
		BadRequest(w, fmt.Sprintf("File too large. Maximum size: %d bytes", h.maxSize))
		return
	}
	if len(data) == 0 {
		BadRequest(w, "File is empty")
		return
	}

	filename := storedName()
	if err := h.blobs.Put(r.Context(), filename, data); err != nil {
		InternalServerError(w, "Failed to upload file")
		return
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	record := &models.UploadedFile{
		Filename:   filename,
		Size:       int64(len(data)),
		Hash:       hash,
		UploaderID: user.ID,
	}
	if err := h.store.CreateUploadedFile(r.Context(), record); err != nil {
		// Don't leave an unreferenced blob behind.
		_ = h.blobs.Delete(r.Context(), filename)
		InternalServerError(w, "Failed to upload file")
		return
	}

	logger.Info("file uploaded",
		logger.Filename(filename),
		logger.UserID(user.ID),
		logger.Size(record.Size))

	WriteJSONOK(w, UploadResponse{
		URL:        "/api/files/download/" + filename,
		Filename:   filename,
		Size:       record.Size,
		Hash:       hash,
		UploadedAt: models.UTCZ(time.Now()),
	})
}

// Download handles GET /api/files/download/{filename}.
//
// Any authenticated user holding a stored name may fetch it: names are
// unguessable and the content is ciphertext only the room's members can
// open. Recipients learn the name from the message that shared the file.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.store)
	if !ok {
		return
	}

	filename := chi.URLParam(r, "filename")

	if _, err := h.store.GetUploadedFile(r.Context(), filename); err != nil {
		if errors.Is(err, models.ErrFileNotFound) {
			NotFound(w, "File not found")
			return
		}
		InternalServerError(w, "Failed to download file")
		return
	}

	data, err := h.blobs.Get(r.Context(), filename)
	if err != nil {
		switch {
		case errors.Is(err, blob.ErrInvalidName):
			logger.Warn("rejected blob name on download",
				logger.Filename(filename),
				logger.UserID(user.ID))
			BadRequest(w, "Invalid filename")
		case errors.Is(err, blob.ErrBlobNotFound):
			NotFound(w, "File not found")
		default:
			InternalServerError(w, "Failed to download file")
		}
		return
	}

	logger.Info("file downloaded",
		logger.Filename(filename),
		logger.UserID(user.ID))

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Delete handles DELETE /api/files/delete/{filename}.
//
// Only the uploader may delete. The blob is removed before the metadata
// row so a half-completed delete stays retryable.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.store)
	if !ok {
		return
	}

	filename := chi.URLParam(r, "filename")

	record, err := h.store.GetUploadedFile(r.Context(), filename)
	if err != nil {
		if errors.Is(err, models.ErrFileNotFound) {
			NotFound(w, "File not found")
			return
		}
		InternalServerError(w, "Failed to delete file")
		return
	}

	if record.UploaderID != user.ID {
		logger.Warn("unauthorized file delete attempt",
			logger.Filename(filename),
			logger.UserID(user.ID))
		Forbidden(w, "Access denied")
		return
	}

	if err := h.blobs.Delete(r.Context(), filename); err != nil {
		if errors.Is(err, blob.ErrInvalidName) {
			BadRequest(w, "Invalid filename")
			return
		}
		InternalServerError(w, "Failed to delete file")
		return
	}

	if err := h.store.DeleteUploadedFile(r.Context(), filename); err != nil && !errors.Is(err, models.ErrFileNotFound) {
		InternalServerError(w, "Failed to delete file")
		return
	}

	logger.Info("file deleted",
		logger.Filename(filename),
		logger.UserID(user.ID))

	WriteJSONOK(w, DeleteResponse{
		Message:  "File deleted successfully",
		Filename: filename,
	})
}

// storedName generates a server-side blob name: 32 hex characters plus an
// .enc suffix marking the content as ciphertext.
func storedName() string {
	u := uuid.New()
	return hex.EncodeToString(u[:]) + ".enc"
}
