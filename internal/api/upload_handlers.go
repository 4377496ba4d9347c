package api

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prepview/interview-engine/internal/models"
	"github.com/prepview/interview-engine/internal/upload"
)

// handleUpload stores one interview recording. Expects multipart form data
// with a "video" file part plus fieldId and questionId values; sessionId is
// optional and links the recording to a session when present.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.uploads.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)

	// 32MB in memory, the rest spills to temp files
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "expected multipart form data")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "video file is required")
		return
	}
	defer file.Close()

	userID := UserIDFromContext(r.Context())
	fieldID := r.FormValue("fieldId")
	questionID := r.FormValue("questionId")

	contentType := header.Header.Get("Content-Type")
	filename, size, err := s.uploads.Save(userID, fieldID, questionID, header.Filename, contentType, file)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrNotVideo):
			respondError(w, http.StatusBadRequest, "invalid_file_type", "only video files are accepted")
		case errors.Is(err, upload.ErrMissingParts):
			respondError(w, http.StatusBadRequest, "validation_error", "fieldId and questionId are required")
		case errors.Is(err, upload.ErrTooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, "file_too_large", "recording exceeds the size limit")
		case errors.Is(err, upload.ErrEmptyUpload):
			respondError(w, http.StatusBadRequest, "validation_error", "uploaded file is empty")
		default:
			slog.Error("failed to store recording", "error", err, "user", userID)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to store recording")
		}
		return
	}

	record := &models.Upload{
		SessionID: r.FormValue("sessionId"),
		UserID:    userID,
		FieldID:   fieldID,
		Filename:  filename,
		SizeBytes: size,
		CreatedAt: time.Now().UTC(),
	}
	if qid, err := strconv.Atoi(questionID); err == nil {
		record.QuestionID = qid
	}
	record.Path = filepath.Join(s.uploads.Dir(), filename)

	if err := s.repo.CreateUpload(r.Context(), record); err != nil {
		slog.Error("failed to persist upload record", "error", err, "file", filename)
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"filename": filename,
		"size":     size,
	})
}
