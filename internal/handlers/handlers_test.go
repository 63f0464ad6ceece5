package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crickline/scoring-service/internal/engine"
	"github.com/crickline/scoring-service/internal/handlers"
	"github.com/crickline/scoring-service/internal/scoring"
	"github.com/crickline/scoring-service/internal/standings"
	"github.com/crickline/scoring-service/internal/store"
	"github.com/crickline/scoring-service/pkg/models"
)

// mockStore implements store.Store in memory for handler tests
type mockStore struct {
	teams       []models.Team
	players     []models.Player
	match       *models.Match
	state       *engine.InningsState
	matchInn    []*models.Innings
	completed   []standings.MatchWithInnings
	lastAction  *models.ActionHistoryEntry
	lastBall    *models.Ball
	shouldError bool

	matchFilters   store.MatchFilters
	archivedCalls  []bool
	applied        []string
	updatedMatches []models.Match
}

func (m *mockStore) fail() error {
	if m.shouldError {
		return context.DeadlineExceeded
	}
	return nil
}

func (m *mockStore) CreateTeam(ctx context.Context, team *models.Team) error {
	if err := m.fail(); err != nil {
		return err
	}
	team.ID = "team-new"
	m.teams = append(m.teams, *team)
	return nil
}

func (m *mockStore) GetTeams(ctx context.Context) ([]models.Team, error) {
	return m.teams, m.fail()
}

func (m *mockStore) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	for _, t := range m.teams {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) UpdateTeam(ctx context.Context, team *models.Team) error { return m.fail() }
func (m *mockStore) DeleteTeam(ctx context.Context, id string) error         { return m.fail() }

func (m *mockStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	if err := m.fail(); err != nil {
		return err
	}
	player.ID = "player-new"
	m.players = append(m.players, *player)
	return nil
}

func (m *mockStore) GetPlayers(ctx context.Context, filters store.PlayerFilters) ([]models.Player, error) {
	return m.players, m.fail()
}

func (m *mockStore) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	for _, p := range m.players {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) UpdatePlayer(ctx context.Context, player *models.Player) error { return m.fail() }
func (m *mockStore) DeletePlayer(ctx context.Context, id string) error             { return m.fail() }

func (m *mockStore) CreateMatch(ctx context.Context, match *models.Match) (*models.Innings, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	match.ID = "match-new"
	match.Status = models.MatchUpcoming
	match.CurrentInning = 1
	return &models.Innings{ID: "innings-new", MatchID: match.ID, InningNumber: 1}, nil
}

func (m *mockStore) GetMatches(ctx context.Context, filters store.MatchFilters) ([]models.Match, error) {
	m.matchFilters = filters
	if m.match == nil {
		return nil, m.fail()
	}
	return []models.Match{*m.match}, m.fail()
}

func (m *mockStore) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	if m.match == nil || m.match.ID != id {
		return nil, store.ErrNotFound
	}
	cp := *m.match
	return &cp, nil
}

func (m *mockStore) UpdateMatch(ctx context.Context, match *models.Match) error {
	m.updatedMatches = append(m.updatedMatches, *match)
	m.match = match
	return m.fail()
}

func (m *mockStore) DeleteMatch(ctx context.Context, id string) error { return m.fail() }

func (m *mockStore) SetMatchArchived(ctx context.Context, id string, archived bool) error {
	m.archivedCalls = append(m.archivedCalls, archived)
	return m.fail()
}

func (m *mockStore) CompleteMatch(ctx context.Context, matchID string, res engine.Resolution, endedAt time.Time) error {
	if m.match != nil && m.match.ID == matchID {
		m.match.Status = models.MatchCompleted
		m.match.WinnerID = res.WinnerID
		m.match.ResultType = res.ResultType
		m.match.ResultText = res.ResultText
	}
	return m.fail()
}

func (m *mockStore) GetInningsState(ctx context.Context, inningsID string) (*engine.InningsState, error) {
	if m.state == nil || m.state.Innings.ID != inningsID {
		return nil, store.ErrNotFound
	}
	return m.state, nil
}

func (m *mockStore) GetMatchInnings(ctx context.Context, matchID string) ([]*models.Innings, error) {
	return m.matchInn, m.fail()
}

func (m *mockStore) GetCurrentInnings(ctx context.Context, matchID string) (*store.CurrentInningsView, error) {
	if m.match == nil || m.state == nil {
		return nil, store.ErrNotFound
	}
	return &store.CurrentInningsView{Match: *m.match, Innings: *m.state.Innings}, nil
}

func (m *mockStore) CreateInnings(ctx context.Context, innings *models.Innings, matchUpdate *models.Match) error {
	innings.ID = "innings-next"
	m.matchInn = append(m.matchInn, innings)
	if matchUpdate != nil {
		m.match = matchUpdate
	}
	return m.fail()
}

func (m *mockStore) UpdateInnings(ctx context.Context, innings *models.Innings) error {
	return m.fail()
}

func (m *mockStore) ApplySetup(ctx context.Context, state *engine.InningsState, setup *engine.SetupResult) error {
	m.applied = append(m.applied, "setup")
	return m.fail()
}

func (m *mockStore) ApplyDelivery(ctx context.Context, state *engine.InningsState, result *engine.DeliveryResult) error {
	m.applied = append(m.applied, "delivery")
	m.lastBall = result.Ball
	m.lastAction = result.Journal
	return m.fail()
}

func (m *mockStore) ApplyUndo(ctx context.Context, state *engine.InningsState, result *engine.UndoResult, ballID, actionID string) error {
	m.applied = append(m.applied, "undo")
	m.lastBall = nil
	m.lastAction = nil
	return m.fail()
}

func (m *mockStore) ApplyAddBatsman(ctx context.Context, state *engine.InningsState, result *engine.AddBatsmanResult) error {
	m.applied = append(m.applied, "add_batsman")
	return m.fail()
}

func (m *mockStore) ApplyChangeBowler(ctx context.Context, state *engine.InningsState, result *engine.ChangeBowlerResult) error {
	m.applied = append(m.applied, "change_bowler")
	return m.fail()
}

func (m *mockStore) ApplyStrikeChange(ctx context.Context, state *engine.InningsState, touched []*models.BattingEntry) error {
	m.applied = append(m.applied, "strike_change")
	return m.fail()
}

func (m *mockStore) GetLastAction(ctx context.Context, inningsID string) (*models.ActionHistoryEntry, error) {
	return m.lastAction, m.fail()
}

func (m *mockStore) GetLastBall(ctx context.Context, inningsID string) (*models.Ball, error) {
	return m.lastBall, m.fail()
}

func (m *mockStore) GetLatestEndedPartnership(ctx context.Context, inningsID string) (*models.Partnership, error) {
	return nil, m.fail()
}

func (m *mockStore) GetCompletedMatches(ctx context.Context) ([]standings.MatchWithInnings, error) {
	return m.completed, m.fail()
}

func (m *mockStore) GetPlayerStats(ctx context.Context) ([]models.PlayerStats, error) {
	return nil, m.fail()
}

func (m *mockStore) Ping(ctx context.Context) error { return m.fail() }
func (m *mockStore) Close() error                   { return nil }

// liveMock builds a store holding one live match with an in-progress innings
// and two openers at the crease
func liveMock(t *testing.T) *mockStore {
	t.Helper()
	state := &engine.InningsState{
		Innings: &models.Innings{
			ID:            "innings-1",
			MatchID:       "match-1",
			InningNumber:  1,
			BattingTeamID: "team-a",
			BowlingTeamID: "team-b",
			Status:        models.InningsAwaitingSetup,
		},
	}
	_, err := engine.InitializeInnings(state, "bat-1", "bat-2", "bowl-1")
	require.NoError(t, err)

	return &mockStore{
		match: &models.Match{
			ID:            "match-1",
			Team1ID:       "team-a",
			Team2ID:       "team-b",
			OversPerSide:  20,
			CurrentInning: 1,
			Status:        models.MatchLive,
		},
		state:    state,
		matchInn: []*models.Innings{state.Innings},
	}
}

func newRouter(m *mockStore) *chi.Mux {
	h := handlers.NewHandler(context.Background(), m, scoring.NewService(m, nil, nil), nil)

	r := chi.NewRouter()
	r.Get("/health", h.HealthCheck)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/teams", h.CreateTeam)
		r.Get("/teams", h.GetTeams)
		r.Get("/teams/{teamID}", h.GetTeam)
		r.Post("/matches", h.CreateMatch)
		r.Get("/matches", h.GetMatches)
		r.Post("/matches/{matchID}/archive", h.ArchiveMatch)
		r.Post("/matches/{matchID}/end", h.EndMatch)
		r.Post("/innings/{inningsID}/balls", h.RecordBall)
		r.Post("/innings/{inningsID}/undo", h.UndoLastAction)
		r.Get("/points-table", h.GetPointsTable)
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	r := newRouter(&mockStore{})
	w := doJSON(t, r, "GET", "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, float64(0), resp["viewers"])
}

func TestHealthCheckDatabaseUnhealthy(t *testing.T) {
	r := newRouter(&mockStore{shouldError: true})
	w := doJSON(t, r, "GET", "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCreateTeam(t *testing.T) {
	r := newRouter(&mockStore{})
	w := doJSON(t, r, "POST", "/api/v1/teams", models.Team{Name: "Avalanche", ShortName: "AVA"})

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "team-new", resp["id"])
}

func TestCreateTeamRequiresName(t *testing.T) {
	r := newRouter(&mockStore{})
	w := doJSON(t, r, "POST", "/api/v1/teams", models.Team{ShortName: "AVA"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTeamNotFound(t *testing.T) {
	r := newRouter(&mockStore{})
	w := doJSON(t, r, "GET", "/api/v1/teams/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateMatchValidation(t *testing.T) {
	r := newRouter(&mockStore{})

	w := doJSON(t, r, "POST", "/api/v1/matches", models.Match{Team1ID: "team-a", Team2ID: "team-a", OversPerSide: 20})
	assert.Equal(t, http.StatusBadRequest, w.Code, "a team cannot play itself")

	w = doJSON(t, r, "POST", "/api/v1/matches", models.Match{Team1ID: "team-a", Team2ID: "team-b"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "overs_per_side is required")

	w = doJSON(t, r, "POST", "/api/v1/matches", models.Match{Team1ID: "team-a", Team2ID: "team-b", OversPerSide: 20})
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.NotNil(t, resp["match"])
	assert.NotNil(t, resp["innings"], "first innings is created with the match")
}

func TestGetMatchesCapsLimit(t *testing.T) {
	m := liveMock(t)
	r := newRouter(m)

	w := doJSON(t, r, "GET", "/api/v1/matches?limit=9999&status=live", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 500, m.matchFilters.Limit)
	assert.Equal(t, "live", m.matchFilters.Status)
}

func TestRecordBall(t *testing.T) {
	m := liveMock(t)
	r := newRouter(m)

	w := doJSON(t, r, "POST", "/api/v1/innings/innings-1/balls", engine.DeliveryInput{Runs: 1})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decode(t, w)
	assert.Equal(t, true, resp["strike_rotated"])
	assert.Equal(t, false, resp["over_complete"])
	assert.Contains(t, m.applied, "delivery")

	innings := resp["innings"].(map[string]interface{})
	assert.Equal(t, float64(1), innings["total_runs"])
	assert.Equal(t, "bat-2", innings["striker_id"])
}

func TestRecordBallValidation(t *testing.T) {
	m := liveMock(t)
	r := newRouter(m)

	w := doJSON(t, r, "POST", "/api/v1/innings/innings-1/balls", engine.DeliveryInput{Runs: 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordBallUnknownInnings(t *testing.T) {
	m := liveMock(t)
	r := newRouter(m)

	w := doJSON(t, r, "POST", "/api/v1/innings/missing/balls", engine.DeliveryInput{Runs: 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUndoRoundTrip(t *testing.T) {
	m := liveMock(t)
	r := newRouter(m)

	w := doJSON(t, r, "POST", "/api/v1/innings/innings-1/balls", engine.DeliveryInput{Runs: 4})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "POST", "/api/v1/innings/innings-1/undo", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, float64(0), resp["total_runs"])
	assert.Contains(t, m.applied, "undo")
}

func TestUndoWithNothingRecorded(t *testing.T) {
	m := liveMock(t)
	r := newRouter(m)

	w := doJSON(t, r, "POST", "/api/v1/innings/innings-1/undo", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUndoAfterMatchCompleted(t *testing.T) {
	m := liveMock(t)
	m.match.Status = models.MatchCompleted
	r := newRouter(m)

	w := doJSON(t, r, "POST", "/api/v1/innings/innings-1/undo", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEndMatchResolvesResult(t *testing.T) {
	m := liveMock(t)
	m.state.Innings.TotalRuns = 120
	m.matchInn = append(m.matchInn, &models.Innings{
		ID:            "innings-2",
		MatchID:       "match-1",
		InningNumber:  2,
		BattingTeamID: "team-b",
		BowlingTeamID: "team-a",
		TotalRuns:     95,
		Status:        models.InningsCompleted,
	})
	r := newRouter(m)

	w := doJSON(t, r, "POST", "/api/v1/matches/match-1/end", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, string(models.MatchCompleted), resp["status"])
	assert.Equal(t, "team-a", resp["winner_id"])

	// Ending an already-completed match conflicts.
	w = doJSON(t, r, "POST", "/api/v1/matches/match-1/end", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestArchiveMatchDefaultsTrue(t *testing.T) {
	m := liveMock(t)
	r := newRouter(m)

	w := doJSON(t, r, "POST", "/api/v1/matches/match-1/archive", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, m.archivedCalls, 1)
	assert.True(t, m.archivedCalls[0])

	w = doJSON(t, r, "POST", "/api/v1/matches/match-1/archive", map[string]bool{"archived": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, m.archivedCalls, 2)
	assert.False(t, m.archivedCalls[1])
}

func TestGetPointsTable(t *testing.T) {
	winner := "team-a"
	m := &mockStore{
		teams: []models.Team{
			{ID: "team-a", Name: "Avalanche"},
			{ID: "team-b", Name: "Breakers"},
		},
		completed: []standings.MatchWithInnings{
			{
				Match: models.Match{
					ID: "m1", Team1ID: "team-a", Team2ID: "team-b",
					Status: models.MatchCompleted, WinnerID: &winner, ResultType: models.ResultWonByRuns,
				},
				Innings: []models.Innings{
					{BattingTeamID: "team-a", BowlingTeamID: "team-b", TotalRuns: 160, TotalBalls: 120},
					{BattingTeamID: "team-b", BowlingTeamID: "team-a", TotalRuns: 140, TotalBalls: 120},
				},
			},
		},
	}
	r := newRouter(m)

	w := doJSON(t, r, "GET", "/api/v1/points-table", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, float64(2), resp["count"])
	table := resp["points_table"].([]interface{})
	top := table[0].(map[string]interface{})
	team := top["team"].(map[string]interface{})
	assert.Equal(t, "team-a", team["id"])
	assert.Equal(t, float64(2), top["points"])
}
