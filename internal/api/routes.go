package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vodforge/vodforge/internal/apperror"
	"github.com/vodforge/vodforge/internal/deliver"
	"github.com/vodforge/vodforge/internal/health"
	"github.com/vodforge/vodforge/internal/ingest"
	"github.com/vodforge/vodforge/internal/logger"
	"github.com/vodforge/vodforge/internal/metrics"
	"github.com/vodforge/vodforge/internal/store"
	"github.com/vodforge/vodforge/internal/tracing"
)

type Config struct {
	Ingest        *ingest.Service
	Deliver       *deliver.Gateway
	Store         store.Store
	Checker       *health.Checker
	MaxUploadSize int64
	Tracing       bool
}

func NewRouter(cfg *Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.HealthHandler(cfg.Checker))
	mux.HandleFunc("GET /healthz/live", health.LivenessHandler())
	mux.HandleFunc("GET /healthz/ready", health.ReadinessHandler(cfg.Checker))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/videos/upload", uploadHandler(cfg))
	mux.HandleFunc("GET /api/videos/{id}", statusHandler(cfg))
	mux.HandleFunc("GET /api/videos/{id}/{fileName}", streamHandler(cfg))

	var handler http.Handler = mux
	handler = metrics.HTTPMetricsMiddleware(handler)
	handler = LoggingMiddleware(handler)
	handler = RequestIDMiddleware(handler)
	if cfg.Tracing {
		handler = tracing.HTTPMiddleware(handler, "vodforge-api")
	}
	return handler
}

func uploadHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		maxSize := cfg.MaxUploadSize
		if maxSize == 0 {
			maxSize = 2 * 1024 * 1024 * 1024
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			apperror.WriteJSON(w, r, apperror.Wrap(err, apperror.ErrFileTooLarge))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			apperror.WriteJSON(w, r, apperror.WrapWithMessage(err, "missing_file",
				"please select a file to upload", http.StatusBadRequest))
			return
		}
		defer func() { _ = file.Close() }()

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if !IsAllowedMIMEType(contentType) {
			apperror.WriteJSON(w, r, apperror.WrapWithMessage(nil, "invalid_file_type",
				"this file type is not allowed", http.StatusBadRequest))
			return
		}

		fileName := SanitizeFilename(header.Filename)

		title := r.FormValue("title")
		if title == "" {
			title = fileName
		}

		log.Info("uploading media",
			"filename", fileName,
			"size", header.Size,
			"content_type", contentType)

		start := time.Now()
		item, err := cfg.Ingest.Ingest(r.Context(), ingest.Upload{
			Title:       title,
			Description: r.FormValue("description"),
			FileName:    fileName,
			ContentType: contentType,
			Size:        header.Size,
			Data:        file,
		})
		if err != nil {
			metrics.RecordMediaUpload("error", 0, 0)
			apperror.WriteJSON(w, r, err)
			return
		}
		metrics.RecordMediaUpload("success", header.Size, time.Since(start).Seconds())

		writeJSON(w, http.StatusCreated, item)
	}
}

func statusHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			apperror.WriteJSON(w, r, apperror.Wrap(err, apperror.ErrBadRequest))
			return
		}

		item, err := cfg.Store.Get(r.Context(), mediaID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				apperror.WriteJSON(w, r, apperror.ErrMediaNotFound)
				return
			}
			apperror.WriteJSON(w, r, apperror.Wrap(err, apperror.ErrInternal))
			return
		}

		writeJSON(w, http.StatusOK, item)
	}
}

func streamHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			apperror.WriteJSON(w, r, apperror.ErrArtifactNotFound)
			return
		}
		fileName := r.PathValue("fileName")

		ctx := logger.WithMediaID(r.Context(), mediaID.String())
		reader, contentType, err := cfg.Deliver.Resolve(ctx, mediaID, fileName)
		if err != nil {
			apperror.WriteJSON(w, r, err)
			return
		}
		defer func() { _ = reader.Close() }()

		w.Header().Set("Content-Type", contentType)
		// Players should render in place, never download.
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", fileName))
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if _, err := io.Copy(w, reader); err != nil {
			// Headers are gone; all we can do is log the broken stream.
			logger.FromContext(ctx).Warn("stream interrupted",
				"file", fileName, "error", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
