package store

import (
	"context"
	"errors"
	"time"

	"github.com/crickline/scoring-service/internal/engine"
	"github.com/crickline/scoring-service/internal/standings"
	"github.com/crickline/scoring-service/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// MatchFilters contains filters for querying matches
type MatchFilters struct {
	Status   string
	Archived *bool
	Limit    int
	Offset   int
}

// PlayerFilters contains filters for querying players
type PlayerFilters struct {
	TeamID string
}

// CurrentInningsView is the full live-scoring read model for one match:
// everything the presentation layer needs to render the scoreboard
type CurrentInningsView struct {
	Match       models.Match          `json:"match"`
	Innings     models.Innings        `json:"innings"`
	Batsmen     []models.BattingEntry `json:"batsmen"`
	Bowlers     []models.BowlingEntry `json:"bowlers"`
	Bowler      *models.BowlingEntry  `json:"bowler,omitempty"`
	Partnership *models.Partnership   `json:"partnership,omitempty"`
	RecentBalls []models.Ball         `json:"recent_balls"`
}

// Store defines the persistence operations the scoring service depends on
type Store interface {
	// Teams
	CreateTeam(ctx context.Context, team *models.Team) error
	GetTeams(ctx context.Context) ([]models.Team, error)
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	UpdateTeam(ctx context.Context, team *models.Team) error
	DeleteTeam(ctx context.Context, id string) error

	// Players
	CreatePlayer(ctx context.Context, player *models.Player) error
	GetPlayers(ctx context.Context, filters PlayerFilters) ([]models.Player, error)
	GetPlayer(ctx context.Context, id string) (*models.Player, error)
	UpdatePlayer(ctx context.Context, player *models.Player) error
	DeletePlayer(ctx context.Context, id string) error

	// Matches
	CreateMatch(ctx context.Context, match *models.Match) (*models.Innings, error)
	GetMatches(ctx context.Context, filters MatchFilters) ([]models.Match, error)
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	UpdateMatch(ctx context.Context, match *models.Match) error
	DeleteMatch(ctx context.Context, id string) error
	SetMatchArchived(ctx context.Context, id string, archived bool) error
	CompleteMatch(ctx context.Context, matchID string, res engine.Resolution, endedAt time.Time) error

	// Innings and live scoring state
	GetInningsState(ctx context.Context, inningsID string) (*engine.InningsState, error)
	GetMatchInnings(ctx context.Context, matchID string) ([]*models.Innings, error)
	GetCurrentInnings(ctx context.Context, matchID string) (*CurrentInningsView, error)
	CreateInnings(ctx context.Context, innings *models.Innings, matchUpdate *models.Match) error
	UpdateInnings(ctx context.Context, innings *models.Innings) error

	// Atomic scoring mutations; each applies every row change in one
	// transaction
	ApplySetup(ctx context.Context, state *engine.InningsState, setup *engine.SetupResult) error
	ApplyDelivery(ctx context.Context, state *engine.InningsState, result *engine.DeliveryResult) error
	ApplyUndo(ctx context.Context, state *engine.InningsState, result *engine.UndoResult, ballID, actionID string) error
	ApplyAddBatsman(ctx context.Context, state *engine.InningsState, result *engine.AddBatsmanResult) error
	ApplyChangeBowler(ctx context.Context, state *engine.InningsState, result *engine.ChangeBowlerResult) error
	ApplyStrikeChange(ctx context.Context, state *engine.InningsState, touched []*models.BattingEntry) error

	// Undo journal
	GetLastAction(ctx context.Context, inningsID string) (*models.ActionHistoryEntry, error)
	GetLastBall(ctx context.Context, inningsID string) (*models.Ball, error)
	GetLatestEndedPartnership(ctx context.Context, inningsID string) (*models.Partnership, error)

	// Aggregations
	GetCompletedMatches(ctx context.Context) ([]standings.MatchWithInnings, error)
	GetPlayerStats(ctx context.Context) ([]models.PlayerStats, error)

	Ping(ctx context.Context) error
	Close() error
}
