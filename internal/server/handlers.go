package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/raine/skybet/internal/analysis"
	"github.com/raine/skybet/internal/history"
	"github.com/raine/skybet/internal/llm"
	"github.com/raine/skybet/internal/report"
)

const (
	msgSuccess       = "Success"
	msgInvalidForm   = "Invalid form data. Please upload an image."
	msgAnalysisError = "An error occurred during analysis. Please try again."
	msgNoInput       = "Please upload an image or enter round data."
	msgHistoryClear  = "History cleared."
	msgClearFailed   = "Failed to clear history."
)

// AnalysisState is the response of POST /api/analysis.
type AnalysisState struct {
	Message        string             `json:"message"`
	Errors         fieldErrors        `json:"errors,omitempty"`
	AnalysisResult *llm.RoundAnalysis `json:"analysisResult,omitempty"`
	Sections       []report.Section   `json:"sections,omitempty"`
}

// FairnessState is the response of POST /api/fairness.
type FairnessState struct {
	Message        string              `json:"message"`
	Errors         fieldErrors         `json:"errors,omitempty"`
	AnalysisResult *llm.FairnessSignal `json:"analysisResult,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readInput parses and validates an analysis request. On failure it writes the
// response and returns false.
func (s *Server) readInput(w http.ResponseWriter, r *http.Request) (analysis.Input, bool) {
	in, errs, err := s.parseInput(r)
	if err != nil {
		s.log.Warn().Err(err).Msg("rejected analysis request")
		s.writeJSON(w, http.StatusBadRequest, AnalysisState{Message: msgInvalidForm})
		return in, false
	}
	if len(errs) > 0 {
		s.writeJSON(w, http.StatusBadRequest, AnalysisState{Message: msgInvalidForm, Errors: errs})
		return in, false
	}
	return in, true
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	if errors.Is(err, analysis.ErrNoInput) {
		s.writeJSON(w, http.StatusBadRequest, AnalysisState{
			Message: msgInvalidForm,
			Errors:  fieldErrors{fieldPhoto: {msgNoInput}},
		})
		return
	}
	s.writeJSON(w, http.StatusBadGateway, AnalysisState{Message: msgAnalysisError})
}

// handleAnalysis runs the round analysis pipeline.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	in, ok := s.readInput(w, r)
	if !ok {
		return
	}

	result, err := s.pipeline.Rounds(r.Context(), in)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, AnalysisState{
		Message:        msgSuccess,
		AnalysisResult: result,
		Sections:       report.Segment(result.Analysis, report.DefaultHeaders),
	})
}

// handleFairness runs the fairness signal analysis.
func (s *Server) handleFairness(w http.ResponseWriter, r *http.Request) {
	in, ok := s.readInput(w, r)
	if !ok {
		return
	}

	signal, err := s.pipeline.Fairness(r.Context(), in)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, FairnessState{Message: msgSuccess, AnalysisResult: signal})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	values := s.ledger.Snapshot(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]any{
		"history":   values,
		"formatted": history.Format(s.ledger.Label(), values),
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Clear(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("failed to clear history")
		s.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": msgClearFailed,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": msgHistoryClear,
	})
}

func (s *Server) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, report.Summarize(s.ledger.Snapshot(r.Context())))
}

func (s *Server) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = report.FormatCSV
	}

	var buf bytes.Buffer
	err := report.Export(&buf, format, s.ledger.Snapshot(r.Context()))
	switch {
	case errors.Is(err, report.ErrUnknownFormat):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, report.ErrNothingToExport):
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.log.Error().Err(err).Msg("failed to export history")
		s.writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", report.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="history.%s"`, format))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

type betLogRequest struct {
	Predictions []float64       `json:"predictions"`
	Stake       float64         `json:"stake"`
	ActualOdds  map[int]float64 `json:"actualOdds"`
}

func (s *Server) handleBetLog(w http.ResponseWriter, r *http.Request) {
	var req betLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Stake < 0 {
		s.writeError(w, http.StatusBadRequest, "stake must not be negative")
		return
	}

	log := report.NewBetLog(req.Predictions)
	log.SetCommonStake(req.Stake)
	for id, odd := range req.ActualOdds {
		if odd < 0 {
			s.writeError(w, http.StatusBadRequest, "actual odds must not be negative")
			return
		}
		if err := log.SetActualOdd(id, odd); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"entries": log.Entries(),
		"summary": log.Summary(),
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
