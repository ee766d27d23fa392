package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/seenimoa/stockchat/pkg/models"
)

// Bar limits for GET /stock-data/{symbol}.
const (
	defaultBarLimit = 10
	maxBarLimit     = 100
)

// endpoints is the map returned by GET /.
var endpoints = map[string]string{
	"chat":              "POST /chat",
	"query_gemini":      "POST /query-gemini",
	"data_summary":      "GET /data/summary",
	"indices":           "GET /indices",
	"indices_by_region": "GET /indices/region/{region}",
	"stock_data":        "GET /stock-data/{symbol}?limit=N",
	"raw_data":          "GET /raw-data",
	"health":            "GET /health",
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"message":   "Stock Market Chatbot API",
			"version":   Version,
			"endpoints": endpoints,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]string{
			"status":  "healthy",
			"message": "API is running",
		},
	})
}

// handleChat answers with a ChatAnswer body. Routing faults are reported
// in the answer itself with status 200.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	q, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.chat.Answer(r.Context(), q))
}

func (s *Server) handleQueryGemini(w http.ResponseWriter, r *http.Request) {
	q, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	text, err := s.chat.AskDirect(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    DirectAnswer{Response: text},
	})
}

func (s *Server) handleDataSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.data.Summary(r.Context())
	if err != nil {
		s.dataFault(w, "failed to load data summary", err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sum})
}

func (s *Server) handleIndices(w http.ResponseWriter, r *http.Request) {
	recs, err := s.data.Indices(r.Context())
	if err != nil {
		s.dataFault(w, "failed to load indices", err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: recs})
}

func (s *Server) handleIndicesByRegion(w http.ResponseWriter, r *http.Request) {
	region := chi.URLParam(r, "region")
	recs, err := s.data.FindByRegion(r.Context(), region)
	if err != nil {
		s.dataFault(w, "failed to load indices", err)
		return
	}
	if len(recs) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no indices found for region %s", region))
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: recs})
}

func (s *Server) handleStockData(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.data.FindBySymbol(r.Context(), symbol, limit)
	if err != nil {
		s.dataFault(w, "failed to load stock data", err)
		return
	}
	if len(bars) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no data found for symbol %s", symbol))
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: bars})
}

func (s *Server) handleRawData(w http.ResponseWriter, r *http.Request) {
	sample, err := s.data.Sample(r.Context())
	if err != nil {
		s.dataFault(w, "failed to load raw data", err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sample})
}

// ── Helpers ──

// decodeQuery reads a ChatQuery body and rejects blank messages.
func decodeQuery(w http.ResponseWriter, r *http.Request) (models.ChatQuery, bool) {
	var q models.ChatQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return q, false
	}
	if strings.TrimSpace(q.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return q, false
	}
	return q, true
}

// parseLimit applies the default and the upper bound to a limit parameter.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultBarLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	return min(n, maxBarLimit), nil
}

// dataFault logs a dataset error and answers 500 with a fixed message.
func (s *Server) dataFault(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}
