package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	appI18n "github.com/prepexam/prepexam/internal/i18n"
	"github.com/prepexam/prepexam/internal/parser"
)

// parseErrorJSON writes a localized parse failure. key selects one of the
// fixed message/suggestion pairs (Docx, Pdf, NotFound, TooLarge, Generic);
// details carries the technical cause for debugging.
func parseErrorJSON(w http.ResponseWriter, r *http.Request, status int, key, details string) {
	ctx := r.Context()
	respondJSON(w, status, map[string]string{
		"error":      appI18n.T(ctx, "ParseError"+key),
		"details":    details,
		"suggestion": appI18n.T(ctx, "Suggestion"+key),
	})
}

// handleParseDocument accepts a DOCX or PDF upload in the multipart field
// "file" and returns the extracted metadata, questions, and stats. The
// uploaded file is removed after parsing on both success and failure.
func (h *Handler) handleParseDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			parseErrorJSON(w, r, http.StatusRequestEntityTooLarge, "TooLarge", err.Error())
			return
		}
		parseErrorJSON(w, r, http.StatusBadRequest, "NotFound", err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		parseErrorJSON(w, r, http.StatusBadRequest, "NotFound", err.Error())
		return
	}
	defer file.Close()

	partType := header.Header.Get("Content-Type")
	format := parser.ResolveFormat(header.Filename, partType)
	if format == "" {
		details := fmt.Sprintf("unsupported file %q (content type %q)", header.Filename, partType)
		parseErrorJSON(w, r, http.StatusBadRequest, "Generic", details)
		return
	}

	tmp, err := os.CreateTemp(h.config.UploadsDir, "upload-*."+format)
	if err != nil {
		slog.Error("failed to create temp file", "error", err)
		parseErrorJSON(w, r, http.StatusInternalServerError, "Generic", err.Error())
		return
	}
	tmpPath := tmp.Name()
	defer func() {
		if err := os.Remove(tmpPath); err != nil {
			slog.Warn("failed to remove uploaded file", "path", tmpPath, "error", err)
		}
	}()

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			parseErrorJSON(w, r, http.StatusRequestEntityTooLarge, "TooLarge", err.Error())
			return
		}
		parseErrorJSON(w, r, http.StatusInternalServerError, "Generic", err.Error())
		return
	}
	if err := tmp.Close(); err != nil {
		parseErrorJSON(w, r, http.StatusInternalServerError, "Generic", err.Error())
		return
	}

	exam, err := h.parser.Parse(r.Context(), tmpPath, format)
	if err != nil {
		slog.Error("document parse failed", "filename", header.Filename, "error", err)
		var extractErr *parser.ExtractError
		switch {
		case errors.Is(err, parser.ErrUnsupportedFormat):
			parseErrorJSON(w, r, http.StatusBadRequest, "Generic", err.Error())
		case errors.As(err, &extractErr) && extractErr.Format == "docx":
			parseErrorJSON(w, r, http.StatusUnprocessableEntity, "Docx", err.Error())
		case errors.As(err, &extractErr) && extractErr.Format == "pdf":
			parseErrorJSON(w, r, http.StatusUnprocessableEntity, "Pdf", err.Error())
		default:
			parseErrorJSON(w, r, http.StatusInternalServerError, "Generic", err.Error())
		}
		return
	}

	questions := exam.Questions
	if questions == nil {
		questions = []parser.Question{}
	}

	msg := appI18n.Tp(r.Context(), "ParsedQuestions", len(questions))
	if len(questions) == 0 {
		msg = appI18n.T(r.Context(), "ParsedNoQuestions")
	}

	slog.Info("parsed document",
		"filename", header.Filename,
		"questions", len(questions),
		"images", len(exam.ExtractedImages))

	respondJSON(w, http.StatusOK, map[string]any{
		"title":       exam.Metadata.Title,
		"subject":     exam.Metadata.Subject,
		"grade_level": exam.Metadata.GradeLevel,
		"description": exam.Metadata.Description,
		"duration":    exam.Metadata.Duration,
		"questions":   questions,
		"message":     msg,
		"stats":       exam.Stats(),
	})
}
