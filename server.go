package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/aitovar/photo-listing/ingest"
	"github.com/aitovar/photo-listing/listing"
)

// maxUploadBytes caps one upload request. MIME filtering happens in the
// ingestor; this only bounds memory.
const maxUploadBytes = 64 << 20

// Server exposes the listing workflow as a JSON API.
type Server struct {
	session *Session
	router  chi.Router
}

func NewServer(session *Session) *Server {
	s := &Server{session: session}

	r := chi.NewRouter()
	r.Use(metricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Post("/session/stage", s.handleStageChange)

		r.Post("/uploads", s.handleUpload)
		r.Get("/uploads", s.handleListUploads)
		r.Delete("/uploads/{id}", s.handleRemoveUpload)

		r.Post("/analyze", s.handleAnalyze)

		r.Get("/categories", s.handleCategories)

		r.Get("/listings", s.handleListListings)
		r.Patch("/listings/{id}", s.handleUpdateListing)
		r.Delete("/listings/{id}", s.handleDeleteListing)
		r.Delete("/listings/{id}/images/{index}", s.handleRemoveImage)
		r.Post("/listings/{id}/images/{index}/move", s.handleMoveImage)
		r.Post("/listings/{id}/publish", s.handlePublishOne)
		r.Post("/listings/publish", s.handlePublishAll)

		r.Get("/published", s.handleListPublished)
		r.Post("/published/{id}/promotion", s.handleSetPromotion)
		r.Get("/promotion/stats", s.handlePromotionStats)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"stage":     s.session.Stage(),
		"uploads":   s.session.Ingestor().Len(),
		"listings":  s.session.Store().Len(),
		"published": len(s.session.Ledger().Published()),
	})
}

func (s *Server) handleStageChange(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Stage string `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	stage, err := ParseStage(body.Stage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.session.GoTo(stage)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stage": stage})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var files []ingest.File
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				log.Warn().Str("filename", header.Filename).Err(err).Msg("failed to open multipart file")
				continue
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				log.Warn().Str("filename", header.Filename).Err(err).Msg("failed to read multipart file")
				continue
			}
			files = append(files, ingest.File{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}

	accepted := s.session.Ingestor().Ingest(r.Context(), files)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "images": accepted})
}

func (s *Server) handleListUploads(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "images": s.session.Ingestor().Uploads()})
}

func (s *Server) handleRemoveUpload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.session.Ingestor().Remove(id) {
		writeError(w, http.StatusNotFound, errors.New("upload not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Hint string `json:"hint"`
	}
	if r.Body != nil {
		// A missing or empty body means no hint.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	count, err := s.session.Analyze(r.Context(), body.Hint)
	if err != nil {
		analysisRequestsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadGateway, err)
		return
	}
	analysisRequestsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": count, "stage": s.session.Stage()})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	taxonomy := s.session.Taxonomy()
	categories := make([]map[string]any, 0, taxonomy.Len())
	for _, category := range taxonomy.Categories() {
		categories = append(categories, map[string]any{
			"name":          category,
			"subcategories": taxonomy.SubcategoriesOf(category),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "categories": categories})
}

func (s *Server) handleListListings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "listings": s.session.Store().All()})
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.session.Store().Update(id, body.Field, body.Value); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.session.Persist()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	s.session.Store().Delete(chi.URLParam(r, "id"))
	s.session.Persist()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleRemoveImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.session.Store().RemoveImage(id, index); err != nil {
		writeError(w, storeErrorStatus(err), err)
		return
	}
	s.session.Persist()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMoveImage(w http.ResponseWriter, r *http.Request) {
	fromID := chi.URLParam(r, "id")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body struct {
		ToID string `json:"toId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.session.Store().MoveImage(fromID, index, body.ToID); err != nil {
		writeError(w, storeErrorStatus(err), err)
		return
	}
	s.session.Persist()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handlePublishOne(w http.ResponseWriter, r *http.Request) {
	published, err := s.session.Publish(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, storeErrorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "published": published})
}

func (s *Server) handlePublishAll(w http.ResponseWriter, _ *http.Request) {
	published := s.session.PublishAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"published": published,
		"stage":     s.session.Stage(),
	})
}

func (s *Server) handleListPublished(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "published": s.session.Ledger().Published()})
}

func (s *Server) handleSetPromotion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Type string `json:"type"`
		Days int    `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.session.Ledger().SetPromotion(id, listing.PromotionType(body.Type), body.Days); err != nil {
		writeError(w, storeErrorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handlePromotionStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": s.session.Ledger().Stats()})
}

// --- Helpers ---

func storeErrorStatus(err error) int {
	if errors.Is(err, listing.ErrListingNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	log.Error().Int("status", status).Err(err).Msg("request failed")
	writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
}
