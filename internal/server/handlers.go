package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/models"
	"github.com/pagelens/pagelens/internal/rag"
	"github.com/pagelens/pagelens/internal/sentiment"
	"github.com/pagelens/pagelens/internal/storage"
)

type scrapeRequest struct {
	URL string `json:"url"`
}

type sentimentRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "pagelens: web scraping with RAG question answering",
		"endpoints": map[string]string{
			"POST /api/v1/scrape":                    "scrape a website and store the result",
			"POST /api/v1/scrape-and-index":          "scrape, store and index for question answering",
			"POST /api/v1/query":                     "ask a question about indexed content",
			"GET /api/v1/sources":                    "list indexed sources",
			"DELETE /api/v1/sources?url=":            "remove an indexed source",
			"DELETE /api/v1/index":                   "clear all indexed content",
			"GET /api/v1/status":                     "index and storage status",
			"GET /api/v1/scrapes":                    "list stored scrapes",
			"GET /api/v1/scrapes/search?q=":          "full-text search over stored scrapes",
			"GET /api/v1/scrapes/stats":              "scrape storage statistics",
			"GET /api/v1/scrapes/{id}":               "get a stored scrape",
			"DELETE /api/v1/scrapes/{id}":            "delete a stored scrape",
			"POST /api/v1/scrapes/{id}/reindex":      "re-index a stored scrape",
			"GET /api/v1/scrapes/{id}/sentiment":     "sentiment analysis of a stored scrape",
			"POST /api/v1/sentiment/analyze":         "sentiment of arbitrary text",
			"GET /api/v1/sentiment/stats":            "sentiment over recent scrapes",
			"GET /health":                            "health check",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"rag_enabled":    s.generator.Configured(),
		"llm_configured": s.generator.Configured(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chunks, err := s.engine.Count(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats, err := s.storage.Stats(ctx)
	if err != nil {
		s.logger.Error("status: scrape stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	keywordDocs, _ := s.keyword.DocCount()

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"indexed_chunks": chunks,
		"keyword_docs":   keywordDocs,
		"scrapes":        stats,
		"config": map[string]interface{}{
			"chunk_size":           s.config.RAG.ChunkSize,
			"chunk_overlap":        s.config.RAG.ChunkOverlap,
			"embedding_model":      s.config.Embedding.Model,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"llm_model":            s.config.LLM.Model,
		},
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("scrape request", zap.String("url", req.URL))

	rec, err := s.scrapeAndStore(r, req.URL)
	if err != nil {
		s.respondScrapeError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"scrape_id": rec.ID,
		"data":      rec.Page,
	})
}

func (s *Server) handleScrapeAndIndex(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("scrape-and-index request", zap.String("url", req.URL))

	rec, err := s.scrapeAndStore(r, req.URL)
	if err != nil {
		s.respondScrapeError(w, err)
		return
	}

	stats, err := s.engine.Index(r.Context(), rec.Page)
	if err != nil {
		s.logger.Error("indexing failed", zap.Error(err))
		s.respondError(w, statusForError(err), err.Error())
		return
	}
	if err := s.storage.UpdateRAGStatus(r.Context(), rec.ID, true); err != nil {
		s.logger.Warn("failed to update index flag", zap.String("id", rec.ID), zap.Error(err))
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"scrape_id":      rec.ID,
		"url":            stats.URL,
		"title":          stats.Title,
		"chunks_indexed": stats.ChunksIndexed,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(s.config.RAG.DefaultTopK, s.config.RAG.MaxTopK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("query request", zap.String("question", req.Question), zap.Int("top_k", req.TopK))

	answer, err := s.engine.Ask(r.Context(), req.Question, req.TopK)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, statusForError(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.engine.Sources(r.Context())
	if err != nil {
		s.logger.Error("list sources failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		s.respondError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	deleted, err := s.engine.DeleteSource(r.Context(), url)
	if err != nil {
		s.respondError(w, statusForError(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"deleted_chunks": deleted})
}

func (s *Server) handleClearIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Clear(r.Context()); err != nil {
		s.logger.Error("clear index failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "all content cleared"})
}

func (s *Server) handleListScrapes(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	skip := queryInt(r, "skip", 0)
	recs, err := s.storage.ListScrapes(r.Context(), limit, skip)
	if err != nil {
		s.logger.Error("list scrapes failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"scrapes": recs,
		"count":   len(recs),
	})
}

func (s *Server) handleSearchScrapes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}
	hits, err := s.keyword.Search(r.Context(), q, 50)
	if err != nil {
		s.logger.Error("scrape search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]*models.ScrapeRecord, 0, len(hits))
	for _, hit := range hits {
		rec, err := s.storage.GetScrape(r.Context(), hit.ID)
		if err != nil {
			// Index entry without a backing record, skip it.
			continue
		}
		results = append(results, rec)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleScrapeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.storage.Stats(r.Context())
	if err != nil {
		s.logger.Error("scrape stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

func (s *Server) handleGetScrape(w http.ResponseWriter, r *http.Request) {
	rec, err := s.storage.GetScrape(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, statusForError(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"scrape": rec})
}

func (s *Server) handleDeleteScrape(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.storage.DeleteScrape(r.Context(), id); err != nil {
		s.respondError(w, statusForError(err), err.Error())
		return
	}
	if err := s.keyword.Delete(r.Context(), id); err != nil {
		s.logger.Warn("failed to remove scrape from keyword index", zap.String("id", id), zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "scrape deleted"})
}

func (s *Server) handleReindexScrape(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.storage.GetScrape(r.Context(), id)
	if err != nil {
		s.respondError(w, statusForError(err), err.Error())
		return
	}

	stats, err := s.engine.Index(r.Context(), rec.Page)
	if err != nil {
		s.logger.Error("reindex failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, statusForError(err), err.Error())
		return
	}
	if err := s.storage.UpdateRAGStatus(r.Context(), id, true); err != nil {
		s.logger.Warn("failed to update index flag", zap.String("id", id), zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"url":            stats.URL,
		"title":          stats.Title,
		"chunks_indexed": stats.ChunksIndexed,
	})
}

func (s *Server) handleScrapeSentiment(w http.ResponseWriter, r *http.Request) {
	rec, err := s.storage.GetScrape(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, statusForError(err), err.Error())
		return
	}
	analysis, err := s.sentiment.AnalyzePage(r.Context(), rec.Page)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"url":       rec.URL,
		"title":     rec.Title,
		"sentiment": analysis,
	})
}

func (s *Server) handleAnalyzeSentiment(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.sentiment.AnalyzeText(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("sentiment analysis failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleSentimentStats(w http.ResponseWriter, r *http.Request) {
	// Bound the work: analyze at most the 20 most recent scrapes.
	recs, err := s.storage.ListScrapes(r.Context(), 20, 0)
	if err != nil {
		s.logger.Error("sentiment stats: list scrapes failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var positive, negative, neutral int
	for _, rec := range recs {
		analysis, err := s.sentiment.AnalyzePage(r.Context(), rec.Page)
		if err != nil {
			continue
		}
		switch analysis.Summary.Overall {
		case sentiment.LabelPositive:
			positive++
		case sentiment.LabelNegative:
			negative++
		default:
			neutral++
		}
	}
	total := positive + negative + neutral

	stats := map[string]interface{}{
		"total_analyzed": total,
		"positive":       positive,
		"negative":       negative,
		"neutral":        neutral,
	}
	if total > 0 {
		stats["positive_pct"] = float64(positive) / float64(total) * 100
		stats["negative_pct"] = float64(negative) / float64(total) * 100
		stats["neutral_pct"] = float64(neutral) / float64(total) * 100
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

// scrapeAndStore fetches the URL, persists the record and adds it to the
// keyword index.
func (s *Server) scrapeAndStore(r *http.Request, url string) (*models.ScrapeRecord, error) {
	page, err := s.scraper.Scrape(r.Context(), url)
	if err != nil {
		return nil, err
	}
	rec := &models.ScrapeRecord{
		URL:   url,
		Title: page.Metadata.Title,
		Page:  page,
	}
	if err := s.storage.SaveScrape(r.Context(), rec); err != nil {
		return nil, err
	}
	if err := s.keyword.IndexScrape(r.Context(), rec); err != nil {
		s.logger.Warn("failed to add scrape to keyword index", zap.String("id", rec.ID), zap.Error(err))
	}
	return rec, nil
}

func (s *Server) respondScrapeError(w http.ResponseWriter, err error) {
	s.logger.Error("scrape failed", zap.Error(err))
	if strings.Contains(err.Error(), "invalid URL") {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.Contains(err.Error(), "failed to fetch webpage") {
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, rag.ErrSourceNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rag.ErrNoContent),
		errors.Is(err, rag.ErrNothingIndexed),
		errors.Is(err, rag.ErrNoRelevantContent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, rag.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case strings.Contains(err.Error(), "generation failed"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
