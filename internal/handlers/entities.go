package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crickline/scoring-service/internal/store"
	"github.com/crickline/scoring-service/pkg/models"
)

// --- Teams ---

// CreateTeam creates a new team
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var team models.Team
	if err := decodeBody(r, &team); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if team.Name == "" {
		respondError(w, http.StatusBadRequest, "team name is required", nil)
		return
	}

	if err := h.store.CreateTeam(ctx, &team); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create team", err)
		return
	}
	respondJSON(w, http.StatusCreated, team)
}

// GetTeams retrieves all teams
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	teams, err := h.store.GetTeams(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve teams", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"teams": teams,
		"count": len(teams),
	})
}

// GetTeam retrieves a single team by ID
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	team, err := h.store.GetTeam(ctx, chi.URLParam(r, "teamID"))
	if err != nil {
		respondDomainError(w, err, "failed to retrieve team")
		return
	}
	respondJSON(w, http.StatusOK, team)
}

// UpdateTeam updates a team
func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var team models.Team
	if err := decodeBody(r, &team); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	team.ID = chi.URLParam(r, "teamID")

	if err := h.store.UpdateTeam(ctx, &team); err != nil {
		respondDomainError(w, err, "failed to update team")
		return
	}
	respondJSON(w, http.StatusOK, team)
}

// DeleteTeam removes a team
func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.DeleteTeam(ctx, chi.URLParam(r, "teamID")); err != nil {
		respondDomainError(w, err, "failed to delete team")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Players ---

// CreatePlayer creates a new player
func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var player models.Player
	if err := decodeBody(r, &player); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if player.Name == "" || player.TeamID == "" {
		respondError(w, http.StatusBadRequest, "player name and team_id are required", nil)
		return
	}

	if err := h.store.CreatePlayer(ctx, &player); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create player", err)
		return
	}
	respondJSON(w, http.StatusCreated, player)
}

// GetPlayers retrieves players with optional team filtering
// Query params: team_id
func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filters := store.PlayerFilters{
		TeamID: r.URL.Query().Get("team_id"),
	}

	players, err := h.store.GetPlayers(ctx, filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve players", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"players": players,
		"count":   len(players),
	})
}

// GetPlayer retrieves a single player by ID
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	player, err := h.store.GetPlayer(ctx, chi.URLParam(r, "playerID"))
	if err != nil {
		respondDomainError(w, err, "failed to retrieve player")
		return
	}
	respondJSON(w, http.StatusOK, player)
}

// UpdatePlayer updates a player
func (h *Handler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var player models.Player
	if err := decodeBody(r, &player); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	player.ID = chi.URLParam(r, "playerID")

	if err := h.store.UpdatePlayer(ctx, &player); err != nil {
		respondDomainError(w, err, "failed to update player")
		return
	}
	respondJSON(w, http.StatusOK, player)
}

// DeletePlayer removes a player
func (h *Handler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.DeletePlayer(ctx, chi.URLParam(r, "playerID")); err != nil {
		respondDomainError(w, err, "failed to delete player")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Matches ---

// CreateMatch creates a match together with its first innings
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var match models.Match
	if err := decodeBody(r, &match); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if match.Team1ID == "" || match.Team2ID == "" {
		respondError(w, http.StatusBadRequest, "team1_id and team2_id are required", nil)
		return
	}
	if match.Team1ID == match.Team2ID {
		respondError(w, http.StatusBadRequest, "a team cannot play itself", nil)
		return
	}
	if match.OversPerSide <= 0 {
		respondError(w, http.StatusBadRequest, "overs_per_side must be positive", nil)
		return
	}
	if match.MatchDate.IsZero() {
		match.MatchDate = time.Now().UTC()
	}

	innings, err := h.store.CreateMatch(ctx, &match)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create match", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"match":   match,
		"innings": innings,
	})
}

// GetMatches retrieves matches with optional filtering
// Query params: status, archived, limit, offset
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit := parseIntParam(r, "limit", 100)
	if limit > 500 {
		limit = 500
	}

	filters := store.MatchFilters{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: parseIntParam(r, "offset", 0),
	}
	if archivedStr := r.URL.Query().Get("archived"); archivedStr != "" {
		archived := archivedStr == "true"
		filters.Archived = &archived
	}

	matches, err := h.store.GetMatches(ctx, filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve matches", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
		"limit":   filters.Limit,
		"offset":  filters.Offset,
	})
}

// GetMatch retrieves a single match by ID
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	match, err := h.store.GetMatch(ctx, chi.URLParam(r, "matchID"))
	if err != nil {
		respondDomainError(w, err, "failed to retrieve match")
		return
	}
	respondJSON(w, http.StatusOK, match)
}

// UpdateMatch updates a match's editable fields
func (h *Handler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	matchID := chi.URLParam(r, "matchID")
	match, err := h.store.GetMatch(ctx, matchID)
	if err != nil {
		respondDomainError(w, err, "failed to retrieve match")
		return
	}

	if err := decodeBody(r, match); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	match.ID = matchID

	if err := h.store.UpdateMatch(ctx, match); err != nil {
		respondDomainError(w, err, "failed to update match")
		return
	}
	respondJSON(w, http.StatusOK, match)
}

// DeleteMatch removes a match and everything scored in it
func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.DeleteMatch(ctx, chi.URLParam(r, "matchID")); err != nil {
		respondDomainError(w, err, "failed to delete match")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ArchiveMatch flips a match's archived flag
// Body: {"archived": bool}, defaults to true
func (h *Handler) ArchiveMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	req := struct {
		Archived *bool `json:"archived"`
	}{}
	// An empty body archives.
	_ = decodeBody(r, &req)
	archived := true
	if req.Archived != nil {
		archived = *req.Archived
	}

	if err := h.scoring.ArchiveMatch(ctx, chi.URLParam(r, "matchID"), archived); err != nil {
		respondDomainError(w, err, "failed to archive match")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"archived": archived})
}
