package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/auri-app/auri/pkg/bubble"
	"github.com/auri-app/auri/pkg/buildinfo"
	"github.com/auri-app/auri/pkg/emotion"
	apperrors "github.com/auri-app/auri/pkg/errors"
	"github.com/auri-app/auri/pkg/journal"
	"github.com/auri-app/auri/pkg/pipeline"
	"github.com/auri-app/auri/pkg/render"
)

// maxListLimit caps GET /v1/entries.
const maxListLimit = 1000

const (
	contentTypeJSON = "application/json"
	contentTypeSVG  = "image/svg+xml"
)

type healthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Info: buildinfo.Get()})
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	e, err := journal.NewEntry(userFrom(r.Context()), req.Text)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Analyze {
		if err := s.limiter.allow(e.UserID, time.Now()); err != nil {
			s.respondError(w, r, err)
			return
		}
		res, err := s.analyzer.Analyze(r.Context(), e.Text)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		e.Analysis = res.Insight
		e.Emotions = res.Emotions
	}

	e, err = s.store.Create(r.Context(), e)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, e)
}

type listEntriesResponse struct {
	Entries []journal.Entry `json:"entries"`
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	var opts journal.ListOptions
	q := r.URL.Query()
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.respondError(w, r, apperrors.New(apperrors.ErrCodeInvalidInput, "since must be an RFC 3339 timestamp"))
			return
		}
		opts.Since = since
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxListLimit {
			s.respondError(w, r, apperrors.New(apperrors.ErrCodeInvalidInput, "limit must be between 0 and %d", maxListLimit))
			return
		}
		opts.Limit = n
	}

	entries, err := s.store.List(r.Context(), userFrom(r.Context()), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, listEntriesResponse{Entries: entries})
}

func entryID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid entry id")
	}
	return id, nil
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	e, err := s.store.Get(r.Context(), userFrom(r.Context()), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), userFrom(r.Context()), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := apperrors.ValidateEntryText(req.Text); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.limiter.allow(userFrom(r.Context()), time.Now()); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.analyzer.Analyze(r.Context(), req.Text)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

type emotionsResponse struct {
	Filter   emotion.Filter `json:"filter"`
	Label    string         `json:"label"`
	Emotions []bubble.Input `json:"emotions"`
}

func (s *Server) handleEmotions(w http.ResponseWriter, r *http.Request) {
	opts := s.pipelineOptions(userFrom(r.Context()))
	opts.Filter = emotion.Filter(r.URL.Query().Get("filter"))

	counts, err := s.runner.Aggregate(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if counts == nil {
		counts = []bubble.Input{}
	}
	// Aggregate normalises opts on a copy; parse again for the response.
	f, _ := emotion.ParseFilter(string(opts.Filter))
	s.respondJSON(w, http.StatusOK, emotionsResponse{Filter: f, Label: f.Label(), Emotions: counts})
}

// bubblesQuery reads the query parameters of GET /v1/emotions/bubbles on top
// of the configured layout defaults.
func (s *Server) bubblesQuery(r *http.Request) (pipeline.Options, string, error) {
	opts := s.pipelineOptions(userFrom(r.Context()))
	q := r.URL.Query()

	opts.Filter = emotion.Filter(q.Get("filter"))
	format := q.Get("format")
	switch format {
	case "":
		format = pipeline.FormatJSON
	case pipeline.FormatJSON, pipeline.FormatSVG:
	default:
		return opts, "", apperrors.New(apperrors.ErrCodeInvalidFormat, "format must be json or svg")
	}
	opts.Formats = []string{format}

	if v := q.Get("palette"); v != "" {
		opts.Palette = v
	}
	opts.Selected = q.Get("selected")

	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"width", &opts.Width},
		{"height", &opts.Height},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return opts, "", apperrors.New(apperrors.ErrCodeInvalidInput, "%s must be a non-negative number", p.name)
		}
		*p.dst = f
	}
	if v := q.Get("best_effort"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, "", apperrors.New(apperrors.ErrCodeInvalidInput, "best_effort must be a boolean")
		}
		opts.BestEffort = b
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, "", apperrors.New(apperrors.ErrCodeInvalidInput, "since must be an RFC 3339 timestamp")
		}
		opts.Since = since
	}
	return opts, format, nil
}

func (s *Server) handleBubbles(w http.ResponseWriter, r *http.Request) {
	opts, format, err := s.bubblesQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.runnerFor(opts.UserID).Execute(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("X-Auri-Cache", cacheHeader(res.CacheInfo))
	w.Header().Set("X-Auri-Overflow", strconv.Itoa(res.Stats.OverflowCount))
	contentType := contentTypeJSON
	if format == pipeline.FormatSVG {
		contentType = contentTypeSVG
	}
	s.respondBytes(w, contentType, res.Artifacts[format])
}

func cacheHeader(ci pipeline.CacheInfo) string {
	switch {
	case ci.LayoutHit && ci.RenderHit:
		return "hit"
	case ci.LayoutHit:
		return "layout"
	default:
		return "miss"
	}
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	counts := make([]bubble.Input, len(req.Bubbles))
	for i, b := range req.Bubbles {
		counts[i] = bubble.Input{Label: b.Label, Frequency: b.Frequency}
	}

	opts := s.pipelineOptions(userFrom(r.Context()))
	opts.Width, opts.Height = req.Width, req.Height
	if req.MaxRadius > 0 {
		opts.MaxRadius = req.MaxRadius
	}
	opts.BestEffort = opts.BestEffort || req.BestEffort
	if req.Palette != "" {
		opts.Palette = req.Palette
	}
	if req.MaxIterations > 0 {
		opts.MaxIterations = req.MaxIterations
	}

	l, err := s.runner.ComputeLayout(r.Context(), counts, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if req.Format == pipeline.FormatSVG {
		s.respondBytes(w, contentTypeSVG, render.RenderSVG(l))
		return
	}
	data, err := render.RenderJSON(l)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondBytes(w, contentTypeJSON, data)
}
