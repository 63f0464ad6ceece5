package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crickline/scoring-service/internal/engine"
	"github.com/crickline/scoring-service/internal/scoring"
)

// InitializeInnings designates the openers and opening bowler
// Body: {"batsman1_id", "batsman2_id", "bowler_id"}
func (h *Handler) InitializeInnings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req scoring.InitializeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	innings, err := h.scoring.InitializeInnings(ctx, chi.URLParam(r, "inningsID"), req)
	if err != nil {
		respondDomainError(w, err, "failed to initialize innings")
		return
	}
	respondJSON(w, http.StatusOK, innings)
}

// RecordBall records one delivery
func (h *Handler) RecordBall(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in engine.DeliveryInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.scoring.RecordBall(ctx, chi.URLParam(r, "inningsID"), in)
	if err != nil {
		respondDomainError(w, err, "failed to record ball")
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// UndoLastAction reverses the most recent delivery
func (h *Handler) UndoLastAction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	innings, err := h.scoring.UndoLastAction(ctx, chi.URLParam(r, "inningsID"))
	if err != nil {
		respondDomainError(w, err, "failed to undo last action")
		return
	}
	respondJSON(w, http.StatusOK, innings)
}

// AddBatsman brings the next batsman to the crease
// Body: {"player_id", "on_strike"}; on_strike defaults to true
func (h *Handler) AddBatsman(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	req := struct {
		PlayerID string `json:"player_id"`
		OnStrike *bool  `json:"on_strike"`
	}{}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	onStrike := true
	if req.OnStrike != nil {
		onStrike = *req.OnStrike
	}

	entry, err := h.scoring.AddBatsman(ctx, chi.URLParam(r, "inningsID"), req.PlayerID, onStrike)
	if err != nil {
		respondDomainError(w, err, "failed to add batsman")
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// ChangeBowler hands the ball to a different bowler
// Body: {"player_id"}
func (h *Handler) ChangeBowler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	req := struct {
		PlayerID string `json:"player_id"`
	}{}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	entry, err := h.scoring.ChangeBowler(ctx, chi.URLParam(r, "inningsID"), req.PlayerID)
	if err != nil {
		respondDomainError(w, err, "failed to change bowler")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// SwitchStrike manually swaps the striker and non-striker
func (h *Handler) SwitchStrike(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	innings, err := h.scoring.SwitchStrike(ctx, chi.URLParam(r, "inningsID"))
	if err != nil {
		respondDomainError(w, err, "failed to switch strike")
		return
	}
	respondJSON(w, http.StatusOK, innings)
}

// EndInnings forces the innings to complete and advances the match
func (h *Handler) EndInnings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	innings, err := h.scoring.EndInnings(ctx, chi.URLParam(r, "inningsID"))
	if err != nil {
		respondDomainError(w, err, "failed to end innings")
		return
	}
	respondJSON(w, http.StatusOK, innings)
}

// EndMatch force-completes the match and resolves its result
func (h *Handler) EndMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	match, err := h.scoring.EndMatch(ctx, chi.URLParam(r, "matchID"))
	if err != nil {
		respondDomainError(w, err, "failed to end match")
		return
	}
	respondJSON(w, http.StatusOK, match)
}

// GetCurrentInnings returns the live-scoring read model for a match
func (h *Handler) GetCurrentInnings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	view, err := h.scoring.CurrentInnings(ctx, chi.URLParam(r, "matchID"))
	if err != nil {
		respondDomainError(w, err, "failed to retrieve current innings")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetPointsTable returns the tournament standings
func (h *Handler) GetPointsTable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	table, err := h.scoring.PointsTable(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute points table", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"points_table": table,
		"count":        len(table),
	})
}

// GetPlayerStats returns tournament-wide batting and bowling aggregates
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.store.GetPlayerStats(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve player stats", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"players": stats,
		"count":   len(stats),
	})
}
