package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"reelgen/backend/internal/storage"
)

type generateVideoRequest struct {
	JobID       string `json:"job_id" validate:"required"`
	ImageURL    string `json:"image_url" validate:"required"`
	AspectRatio string `json:"aspect_ratio"`
}

type generateVideoResponse struct {
	VideoURL string `json:"video_url"`
}

func (s *Server) generateVideo(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	var req generateVideoRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	req.JobID = strings.TrimSpace(req.JobID)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "job_id and image_url are required.")
		return
	}
	aspectRatio := strings.TrimSpace(req.AspectRatio)
	if aspectRatio == "" {
		aspectRatio = s.Defaults.AspectRatio
	}

	jobLog := log.With().Str("job_id", req.JobID).Logger()
	imagePath, err := s.Store.Resolve(storage.KindImages, req.JobID, req.ImageURL)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Image not found.")
			return
		}
		jobLog.Error().Err(err).Msg("resolve image")
		writeError(w, http.StatusInternalServerError, "Storage error.")
		return
	}

	jobLog.Info().Str("image", imagePath).Str("aspect_ratio", aspectRatio).Msg("generating video")
	video, err := s.Gen.GenerateVideo(r.Context(), imagePath, aspectRatio)
	if err != nil {
		s.generationFailed(w, jobLog, "video", err)
		return
	}
	key, err := s.Store.Write(storage.KindVideos, req.JobID, video.Name, video.Data)
	if err != nil {
		jobLog.Error().Err(err).Msg("write video")
		writeError(w, http.StatusInternalServerError, "Storage error.")
		return
	}
	s.generations.WithLabelValues("video", "succeeded").Inc()
	writeJSON(w, http.StatusOK, generateVideoResponse{VideoURL: s.Store.URL(key)})
}
