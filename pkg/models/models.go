package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// MatchStatus represents the lifecycle state of a match
type MatchStatus string

const (
	MatchUpcoming  MatchStatus = "upcoming"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
)

// InningsStatus represents the lifecycle state of an innings
type InningsStatus string

const (
	InningsAwaitingSetup InningsStatus = "awaiting_setup"
	InningsInProgress    InningsStatus = "in_progress"
	InningsCompleted     InningsStatus = "completed"
)

// ExtraType classifies a delivery's extra, if any
type ExtraType string

const (
	ExtraNone         ExtraType = ""
	ExtraWide         ExtraType = "wide"
	ExtraNoBall       ExtraType = "no_ball"
	ExtraBye          ExtraType = "bye"
	ExtraLegBye       ExtraType = "leg_bye"
	ExtraNoBallBye    ExtraType = "no_ball_bye"
	ExtraNoBallLegBye ExtraType = "no_ball_leg_bye"
)

// Result types recorded on a completed match
const (
	ResultWonByRuns    = "won by runs"
	ResultWonByWickets = "won by wickets"
	ResultTied         = "tied"
	ResultNoResult     = "no result"
)

// Team represents a tournament team
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ShortName string    `json:"short_name"`
	Logo      string    `json:"logo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Player represents a squad member
type Player struct {
	ID           string    `json:"id"`
	TeamID       string    `json:"team_id"`
	Name         string    `json:"name"`
	Role         string    `json:"role,omitempty"`
	JerseyNumber int       `json:"jersey_number,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Match represents a single limited-overs fixture
type Match struct {
	ID            string      `json:"id"`
	MatchNumber   int         `json:"match_number"`
	Team1ID       string      `json:"team1_id"`
	Team2ID       string      `json:"team2_id"`
	TossWinnerID  *string     `json:"toss_winner_id,omitempty"`
	TossDecision  string      `json:"toss_decision,omitempty"`
	OversPerSide  int         `json:"overs_per_side"`
	CurrentInning int         `json:"current_inning"`
	Status        MatchStatus `json:"status"`
	WinnerID      *string     `json:"winner_id,omitempty"`
	ResultType    string      `json:"result_type,omitempty"`
	ResultMargin  int         `json:"result_margin,omitempty"`
	ResultText    string      `json:"result_text,omitempty"`
	Archived      bool        `json:"archived"`
	MatchDate     time.Time   `json:"match_date"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	EndedAt       *time.Time  `json:"ended_at,omitempty"`
}

// Innings is the top-level scoring aggregate for one team's batting effort.
// StrikerID, NonStrikerID and CurrentBowlerID are the authoritative references
// for the active players; the booleans on the per-player rows are maintained
// as a derived layout for other tooling.
type Innings struct {
	ID              string        `json:"id"`
	MatchID         string        `json:"match_id"`
	InningNumber    int           `json:"inning_number"`
	BattingTeamID   string        `json:"batting_team_id"`
	BowlingTeamID   string        `json:"bowling_team_id"`
	TotalRuns       int           `json:"total_runs"`
	TotalWickets    int           `json:"total_wickets"`
	TotalBalls      int           `json:"total_balls"`
	TotalOvers      float64       `json:"total_overs"`
	Extras          int           `json:"extras"`
	Wides           int           `json:"wides"`
	NoBalls         int           `json:"no_balls"`
	Byes            int           `json:"byes"`
	LegByes         int           `json:"leg_byes"`
	RunRate         float64       `json:"run_rate"`
	Status          InningsStatus `json:"status"`
	StrikerID       *string       `json:"striker_id,omitempty"`
	NonStrikerID    *string       `json:"non_striker_id,omitempty"`
	CurrentBowlerID *string       `json:"current_bowler_id,omitempty"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	EndedAt         *time.Time    `json:"ended_at,omitempty"`
}

// OversDisplay renders a ball count in cricket notation, e.g. "14.3"
func OversDisplay(balls int) string {
	return fmt.Sprintf("%d.%d", balls/6, balls%6)
}

// OversDecimal converts a ball count to the stored cricket-decimal overs
// value (whole overs plus remainder balls in the tenths place)
func OversDecimal(balls int) float64 {
	return float64(balls/6) + float64(balls%6)/10
}

// OversFraction converts a ball count to true fractional overs, used for
// run-rate and NRR arithmetic
func OversFraction(balls int) float64 {
	return float64(balls) / 6.0
}

// BattingEntry is one player's batting row in an innings
type BattingEntry struct {
	ID              string  `json:"id"`
	InningsID       string  `json:"innings_id"`
	PlayerID        string  `json:"player_id"`
	BattingPosition int     `json:"batting_position"`
	RunsScored      int     `json:"runs_scored"`
	BallsFaced      int     `json:"balls_faced"`
	Fours           int     `json:"fours"`
	Sixes           int     `json:"sixes"`
	StrikeRate      float64 `json:"strike_rate"`
	IsOut           bool    `json:"is_out"`
	DismissalType   *string `json:"dismissal_type,omitempty"`
	BowlerID        *string `json:"bowler_id,omitempty"`
	FielderID       *string `json:"fielder_id,omitempty"`
	IsOnStrike      bool    `json:"is_on_strike"`
}

// BowlingEntry is one player's bowling row in an innings
type BowlingEntry struct {
	ID              string  `json:"id"`
	InningsID       string  `json:"innings_id"`
	PlayerID        string  `json:"player_id"`
	BallsBowled     int     `json:"balls_bowled"`
	RunsConceded    int     `json:"runs_conceded"`
	WicketsTaken    int     `json:"wickets_taken"`
	OversBowled     float64 `json:"overs_bowled"`
	EconomyRate     float64 `json:"economy_rate"`
	IsCurrentBowler bool    `json:"is_current_bowler"`
}

// Partnership is the joint contribution of a batting pair since the last wicket
type Partnership struct {
	ID           string     `json:"id"`
	InningsID    string     `json:"innings_id"`
	Batsman1ID   string     `json:"batsman1_id"`
	Batsman2ID   string     `json:"batsman2_id"`
	RunsScored   int        `json:"runs_scored"`
	BallsFaced   int        `json:"balls_faced"`
	WicketNumber int        `json:"wicket_number"`
	IsCurrent    bool       `json:"is_current"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

// Ball is one append-only ledger entry; immutable except for deletion on undo
type Ball struct {
	ID           string    `json:"id"`
	InningsID    string    `json:"innings_id"`
	OverNumber   int       `json:"over_number"`
	BallNumber   int       `json:"ball_number"`
	BatsmanID    string    `json:"batsman_id"`
	NonStrikerID string    `json:"non_striker_id"`
	BowlerID     string    `json:"bowler_id"`
	RunsScored   int       `json:"runs_scored"` // batsman credit only
	Extras       int       `json:"extras"`
	PenaltyRuns  int       `json:"penalty_runs"`
	ExtraType    ExtraType `json:"extra_type,omitempty"`
	IsWicket     bool      `json:"is_wicket"`
	WicketType   *string   `json:"wicket_type,omitempty"`
	BatsmanOutID *string   `json:"batsman_out_id,omitempty"`
	FielderID    *string   `json:"fielder_id,omitempty"`
	IsBoundary   bool      `json:"is_boundary"`
	TotalRuns    int       `json:"total_runs"`    // cumulative team total after this ball
	TotalWickets int       `json:"total_wickets"` // cumulative wickets after this ball
	CreatedAt    time.Time `json:"created_at"`
}

// ActionHistoryEntry journals one reversible scoring step
type ActionHistoryEntry struct {
	ID          string          `json:"id"`
	MatchID     string          `json:"match_id"`
	InningsID   string          `json:"innings_id"`
	ActionType  string          `json:"action_type"` // "ball" or "wicket"
	StateBefore json.RawMessage `json:"state_before"`
	ActionData  json.RawMessage `json:"action_data"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PointsTableRow is a computed standings projection, never persisted
type PointsTableRow struct {
	Team         Team    `json:"team"`
	Played       int     `json:"played"`
	Won          int     `json:"won"`
	Lost         int     `json:"lost"`
	Tied         int     `json:"tied"`
	NoResult     int     `json:"no_result"`
	RunsScored   int     `json:"runs_scored"`
	OversFaced   float64 `json:"overs_faced"`
	RunsConceded int     `json:"runs_conceded"`
	OversBowled  float64 `json:"overs_bowled"`
	Points       int     `json:"points"`
	NRR          float64 `json:"nrr"`
	Position     int     `json:"position"`
}

// PlayerStats aggregates a player's figures across completed matches
type PlayerStats struct {
	Player       Player  `json:"player"`
	InningsBat   int     `json:"innings_batted"`
	RunsScored   int     `json:"runs_scored"`
	BallsFaced   int     `json:"balls_faced"`
	Fours        int     `json:"fours"`
	Sixes        int     `json:"sixes"`
	TimesOut     int     `json:"times_out"`
	StrikeRate   float64 `json:"strike_rate"`
	BallsBowled  int     `json:"balls_bowled"`
	RunsConceded int     `json:"runs_conceded"`
	WicketsTaken int     `json:"wickets_taken"`
	EconomyRate  float64 `json:"economy_rate"`
}

// ChangeNotification tells viewers which aggregate to re-fetch.
// It carries no scoring payload; consumers always pull fresh full state.
type ChangeNotification struct {
	Type      string    `json:"type"` // innings, match, points_table
	MatchID   string    `json:"match_id,omitempty"`
	InningsID string    `json:"innings_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the standard error body returned by the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
