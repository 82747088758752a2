// Package api is the thin HTTP surface over the analysis core. It does
// parameter parsing and response shaping only; all semantics live below it.
package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"comment_analyzer/internal/domain"
	"comment_analyzer/internal/keypool"
	"comment_analyzer/internal/service"
)

// Analyzer runs one fetch-and-classify session.
type Analyzer interface {
	Analyze(ctx context.Context, p service.AnalyzeParams) (*service.Result, error)
}

// Classifier classifies raw texts without fetching.
type Classifier interface {
	Classify(ctx context.Context, texts []string, method, modelName string) ([]domain.Verdict, error)
}

// KeyPool is the read-only status and reset surface of the credential pool.
type KeyPool interface {
	Status() keypool.Status
	ResetEpoch() int
}

type Handler struct {
	analyzer   Analyzer
	classifier Classifier
	pool       KeyPool
	logger     *slog.Logger
}

func NewHandler(analyzer Analyzer, classifier Classifier, pool KeyPool, logger *slog.Logger) *Handler {
	return &Handler{
		analyzer:   analyzer,
		classifier: classifier,
		pool:       pool,
		logger:     logger.With("component", "api"),
	}
}

type commentsResponse struct {
	VideoID               string           `json:"video_id"`
	Comments              []domain.Comment `json:"comments"`
	Summary               domain.Summary   `json:"summary"`
	PagesProcessed        int              `json:"pages_processed"`
	UsedSyntheticFallback bool             `json:"used_synthetic_fallback"`
	Warnings              []string         `json:"warnings,omitempty"`
}

func (h *Handler) getComments(w http.ResponseWriter, r *http.Request) {
	params, err := h.analyzeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), params)
	if err != nil {
		h.writeAnalyzeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, commentsResponse{
		VideoID:               result.Session.VideoID,
		Comments:              result.Session.Comments,
		Summary:               result.Summary,
		PagesProcessed:        result.Session.PagesProcessed,
		UsedSyntheticFallback: result.Session.UsedSyntheticFallback,
		Warnings:              result.Session.Warnings,
	})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	params, err := h.analyzeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), params)
	if err != nil {
		h.writeAnalyzeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=youtube_comments_%s.csv", params.VideoID))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"comment", "sentiment", "author", "likes"})
	for _, c := range result.Session.Comments {
		label := ""
		if c.Sentiment != nil {
			label = string(c.Sentiment.Label)
		}
		_ = cw.Write([]string{c.Text, label, c.Author, strconv.Itoa(c.LikeCount)})
	}
	cw.Flush()
}

type classifyRequest struct {
	Texts  []string `json:"texts"`
	Method string   `json:"method"`
	Model  string   `json:"model,omitempty"`
}

type classifyResponse struct {
	Verdicts []domain.Verdict `json:"verdicts"`
}

func (h *Handler) classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	verdicts, err := h.classifier.Classify(r.Context(), req.Texts, req.Method, req.Model)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownMethod) || errors.Is(err, domain.ErrUnknownModel) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("classify failed", "error", err)
		writeError(w, http.StatusInternalServerError, "classification failed")
		return
	}

	writeJSON(w, http.StatusOK, classifyResponse{Verdicts: verdicts})
}

func (h *Handler) keyStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.pool.Status())
}

func (h *Handler) keyReset(w http.ResponseWriter, _ *http.Request) {
	n := h.pool.ResetEpoch()
	writeJSON(w, http.StatusOK, map[string]int{"keys_reset": n})
}

func (h *Handler) analyzeParams(r *http.Request) (service.AnalyzeParams, error) {
	q := r.URL.Query()

	videoID, err := ParseVideoID(q.Get("url"))
	if err != nil {
		return service.AnalyzeParams{}, err
	}

	return service.AnalyzeParams{
		VideoID:   videoID,
		MaxItems:  intParam(q.Get("max_comments")),
		MaxPages:  intParam(q.Get("max_pages")),
		Method:    q.Get("method"),
		ModelName: q.Get("model"),
	}, nil
}

func (h *Handler) writeAnalyzeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrUnknownMethod) || errors.Is(err, domain.ErrUnknownModel) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("analysis failed", "error", err)
	writeError(w, http.StatusInternalServerError, "failed to fetch comments")
}

// intParam parses a positive integer query value; anything else means "use
// the server default" and comes back as zero.
func intParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
