package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"reelgen/backend/internal/storage"
	"reelgen/backend/internal/validation"
)

const (
	multipartMemory     = 32 << 20
	maxImageRequestBody = validation.MaxFiles*validation.MaxFileSize + 1<<20
)

type generateImageResponse struct {
	JobID      string   `json:"job_id"`
	Images     []string `json:"images"`
	PromptUsed string   `json:"prompt_used"`
}

func (s *Server) generateImage(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	// The body cap is checked while parsing, before upload validation, so an
	// oversized body is "File too large." whatever the file count.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxImageBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusBadRequest, "File too large.")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if err := validation.ValidateUploads(validation.FromFileHeaders(files)); err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if prompt == "" {
		prompt = s.Defaults.Prompt
	}
	count := s.Defaults.ImageCount
	if v := strings.TrimSpace(r.FormValue("image_count")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid image_count.")
			return
		}
		count = n
	}
	aspectRatio := strings.TrimSpace(r.FormValue("aspect_ratio"))
	if aspectRatio == "" {
		aspectRatio = s.Defaults.AspectRatio
	}

	jobID := storage.NewJobID()
	jobLog := log.With().Str("job_id", jobID).Logger()
	for _, kind := range []storage.Kind{storage.KindUploads, storage.KindImages} {
		if _, err := s.Store.EnsureJobDir(kind, jobID); err != nil {
			jobLog.Error().Err(err).Msg("create job dir")
			writeError(w, http.StatusInternalServerError, "Storage error.")
			return
		}
	}

	imagePaths := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			jobLog.Error().Err(err).Str("file", fh.Filename).Msg("open upload")
			writeError(w, http.StatusBadRequest, "Invalid upload.")
			return
		}
		_, local, err := s.Store.Save(storage.KindUploads, jobID, fh.Filename, f)
		f.Close()
		if err != nil {
			jobLog.Error().Err(err).Str("file", fh.Filename).Msg("save upload")
			writeError(w, http.StatusInternalServerError, "Storage error.")
			return
		}
		imagePaths = append(imagePaths, local)
	}

	jobLog.Info().Int("uploads", len(imagePaths)).Int("count", count).Str("aspect_ratio", aspectRatio).Msg("generating images")
	outputs, err := s.Gen.GenerateImages(r.Context(), prompt, count, aspectRatio, imagePaths)
	if err != nil {
		s.generationFailed(w, jobLog, "image", err)
		return
	}

	urls := make([]string, 0, len(outputs))
	for _, out := range outputs {
		key, err := s.Store.Write(storage.KindImages, jobID, out.Name, out.Data)
		if err != nil {
			jobLog.Error().Err(err).Str("file", out.Name).Msg("write image")
			writeError(w, http.StatusInternalServerError, "Storage error.")
			return
		}
		urls = append(urls, s.Store.URL(key))
	}
	s.generations.WithLabelValues("image", "succeeded").Inc()
	writeJSON(w, http.StatusOK, generateImageResponse{JobID: jobID, Images: urls, PromptUsed: prompt})
}

// generationFailed hides the cause from the caller; it only goes to the log.
func (s *Server) generationFailed(w http.ResponseWriter, log zerolog.Logger, kind string, err error) {
	s.generations.WithLabelValues(kind, "failed").Inc()
	log.Error().Err(err).Str("kind", kind).Msg("generation failed")
	writeError(w, http.StatusBadGateway, "Generation failed.")
}
