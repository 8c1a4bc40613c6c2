package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shortssprint/shortssprint/internal/api"
	"github.com/shortssprint/shortssprint/internal/jobs"
	"github.com/shortssprint/shortssprint/internal/video"
)

const maxUploadBytes = 500 << 20 // 500 MiB

// handleUploadVideo stores the uploaded file locally and, when Drive is
// configured, mirrors it to the shared folder. The local copy is the
// source of truth; a Drive failure degrades to local-only.
func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.badRequest(w, "expected multipart form with a video file")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		s.badRequest(w, "no video file provided")
		return
	}
	defer file.Close() //nolint:errcheck

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "video/") {
		s.badRequest(w, "file must be a video")
		return
	}

	saved, err := s.Store.Save(header.Filename, file)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := map[string]any{
		"filename":   saved.Filename,
		"size_bytes": saved.Size,
		"message":    "video saved",
	}

	if s.Uploader.Enabled() {
		f, err := s.Store.Open(saved.Filename)
		if err == nil {
			defer f.Close() //nolint:errcheck
			up, uerr := s.Uploader.Upload(r.Context(), saved.Filename, header.Header.Get("Content-Type"), f)
			if uerr != nil {
				s.Log.Warn().Err(uerr).Str("filename", saved.Filename).Msg("drive mirror failed, keeping local copy")
				resp["drive"] = map[string]any{"uploaded": false}
			} else {
				resp["drive"] = map[string]any{
					"uploaded":  true,
					"file_id":   up.FileID,
					"view_link": up.ViewLink,
				}
			}
		}
	}

	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	files, err := s.Store.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"videos": files,
		"count":  len(files),
	})
}

func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.Store.Info(chi.URLParam(r, "filename"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"video": info,
	})
}

func (s *Server) handleStorageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Store.Stats()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"storage": stats,
	})
}

type downloadRequest struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Async       *bool  `json:"async"`
}

// handleDownloadYoutube fetches a YouTube video into local storage.
// async=true (the default) registers a job and returns immediately;
// async=false blocks until the download finishes. Deployments without a
// worker pool only accept synchronous requests.
func (s *Server) handleDownloadYoutube(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.badRequest(w, "url is required")
		return
	}
	if _, err := video.ExtractVideoID(req.URL); err != nil {
		s.writeError(w, err)
		return
	}

	async := true
	if req.Async != nil {
		async = *req.Async
	}

	if !async {
		result, err := s.Downloader.Download(r.Context(), req.URL, req.ContentType)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"status": "completed",
			"result": result,
		})
		return
	}

	if s.Runner == nil {
		s.badRequest(w, "background downloads are disabled in this deployment; retry with async=false")
		return
	}

	job, err := s.Registry.Add(req.URL, req.ContentType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !s.Runner.Submit(jobs.Task{JobID: job.ID, URL: job.URL, ContentType: job.ContentType}) {
		s.Registry.Fail(job.ID, "worker queue full")
		s.writeError(w, api.E(api.KindCapacityExceeded, "worker queue full; retry later"))
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"download_id": job.ID,
		"status":      string(job.Status),
		"status_url":  fmt.Sprintf("/api/download-youtube/status/%s", job.ID),
	})
}

func (s *Server) handleDownloadStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.Registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"download": job,
	})
}

func (s *Server) handleDownloadCleanup(w http.ResponseWriter, r *http.Request) {
	removed := s.Registry.Cleanup()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"removed": removed,
		"message": fmt.Sprintf("removed %d finished downloads", removed),
	})
}
