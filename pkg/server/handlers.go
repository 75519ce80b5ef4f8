package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/elonfeng/tripradar/internal/logging"
	"github.com/elonfeng/tripradar/internal/store"
	"github.com/elonfeng/tripradar/internal/validation"
	"github.com/elonfeng/tripradar/pkg/match"
	"github.com/elonfeng/tripradar/pkg/recommend"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.CountDestinations(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "destinations": n})
}

func (s *Server) handleListDestinations(w http.ResponseWriter, r *http.Request) {
	dests, err := s.store.ListDestinations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": dests, "count": len(dests)})
}

func (s *Server) handleGetDestination(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.GetDestination(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": d})
}

func (s *Server) handleUpsertDestination(w http.ResponseWriter, r *http.Request) {
	var d match.Destination
	if !decode(w, r, &d) {
		return
	}
	if d.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if err := s.store.UpsertDestinations(r.Context(), []match.Destination{d}); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": d})
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var p match.Profile
	if !decode(w, r, &p) {
		return
	}
	rec, err := s.svc.CreateProfile(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": rec})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rec})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p match.Profile
	if !decode(w, r, &p) {
		return
	}
	rec, err := s.svc.UpdateProfile(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rec})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	images, _ := strconv.ParseBool(r.URL.Query().Get("images"))

	recs, err := s.svc.Catalog(r.Context(), chi.URLParam(r, "id"), recommend.Options{TopN: limit, Images: images})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs, "count": len(recs)})
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	places, err := s.svc.Places(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"places": places, "count": len(places)})
}

type scoreCatalogRequest struct {
	Profile    *match.Profile      `json:"profile"`
	Candidates []match.Destination `json:"candidates"`
	TopN       int                 `json:"top_n"`
}

type scoreExternalRequest struct {
	Profile *match.Profile        `json:"profile"`
	Places  []match.ExternalPlace `json:"places"`
	TopN    int                   `json:"top_n"`
}

const defaultScoreTopN = 10

func (s *Server) handleScoreCatalog(w http.ResponseWriter, r *http.Request) {
	var req scoreCatalogRequest
	if !decode(w, r, &req) {
		return
	}
	if req.TopN == 0 {
		req.TopN = defaultScoreTopN
	}

	recs, err := s.svc.ScoreCatalog(req.Profile, req.Candidates, req.TopN)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs, "count": len(recs)})
}

func (s *Server) handleScoreExternal(w http.ResponseWriter, r *http.Request) {
	var req scoreExternalRequest
	if !decode(w, r, &req) {
		return
	}
	if req.TopN == 0 {
		req.TopN = defaultScoreTopN
	}

	places, err := s.svc.ScoreExternal(req.Profile, req.Places, req.TopN)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"places": places, "count": len(places)})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func queryInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": key + " must be a positive integer"})
		return 0, false
	}
	return n, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, match.ErrInvalidTopN):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, recommend.ErrProfileNotFound), errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, recommend.ErrSourcesUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		logging.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
