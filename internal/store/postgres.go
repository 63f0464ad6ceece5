package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/crickline/scoring-service/internal/engine"
	"github.com/crickline/scoring-service/pkg/models"
)

// Postgres implements Store on a PostgreSQL database
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection pool and verifies connectivity
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Migrate applies all pending schema migrations from the given directory
func (s *Postgres) Migrate(migrationsDir string) error {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Ping checks database connectivity
func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Postgres) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, rolling back on error
func (s *Postgres) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func newID() string {
	return uuid.New().String()
}

// --- Teams ---

// CreateTeam inserts a new team, generating its id
func (s *Postgres) CreateTeam(ctx context.Context, team *models.Team) error {
	if team.ID == "" {
		team.ID = newID()
	}
	team.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO teams (id, name, short_name, logo, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, team.ID, team.Name, team.ShortName, team.Logo, team.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

// GetTeams retrieves all teams ordered by name
func (s *Postgres) GetTeams(ctx context.Context) ([]models.Team, error) {
	query := `
		SELECT id, name, short_name, logo, created_at
		FROM teams
		ORDER BY name ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.ShortName, &t.Logo, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return teams, nil
}

// GetTeam retrieves a single team by id
func (s *Postgres) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	query := `
		SELECT id, name, short_name, logo, created_at
		FROM teams
		WHERE id = $1
	`
	var t models.Team
	err := s.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.ShortName, &t.Logo, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query team: %w", err)
	}
	return &t, nil
}

// UpdateTeam updates a team's mutable fields
func (s *Postgres) UpdateTeam(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE teams
		SET name = $1, short_name = $2, logo = $3
		WHERE id = $4
	`
	res, err := s.db.ExecContext(ctx, query, team.Name, team.ShortName, team.Logo, team.ID)
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	return requireRow(res)
}

// DeleteTeam removes a team
func (s *Postgres) DeleteTeam(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return requireRow(res)
}

// --- Players ---

// CreatePlayer inserts a new player, generating its id
func (s *Postgres) CreatePlayer(ctx context.Context, player *models.Player) error {
	if player.ID == "" {
		player.ID = newID()
	}
	player.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO players (id, team_id, name, role, jersey_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		player.ID, player.TeamID, player.Name, player.Role, player.JerseyNumber, player.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

// GetPlayers retrieves players, optionally filtered by team
func (s *Postgres) GetPlayers(ctx context.Context, filters PlayerFilters) ([]models.Player, error) {
	query := `
		SELECT id, team_id, name, role, jersey_number, created_at
		FROM players
		WHERE 1=1
	`
	args := []interface{}{}
	if filters.TeamID != "" {
		query += " AND team_id = $1"
		args = append(args, filters.TeamID)
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.TeamID, &p.Name, &p.Role, &p.JerseyNumber, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

// GetPlayer retrieves a single player by id
func (s *Postgres) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	query := `
		SELECT id, team_id, name, role, jersey_number, created_at
		FROM players
		WHERE id = $1
	`
	var p models.Player
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.TeamID, &p.Name, &p.Role, &p.JerseyNumber, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query player: %w", err)
	}
	return &p, nil
}

// UpdatePlayer updates a player's mutable fields
func (s *Postgres) UpdatePlayer(ctx context.Context, player *models.Player) error {
	query := `
		UPDATE players
		SET team_id = $1, name = $2, role = $3, jersey_number = $4
		WHERE id = $5
	`
	res, err := s.db.ExecContext(ctx, query,
		player.TeamID, player.Name, player.Role, player.JerseyNumber, player.ID)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return requireRow(res)
}

// DeletePlayer removes a player
func (s *Postgres) DeletePlayer(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	return requireRow(res)
}

// --- Matches ---

// CreateMatch inserts a match together with its first innings, with the
// toss winner's decision deciding who bats
func (s *Postgres) CreateMatch(ctx context.Context, match *models.Match) (*models.Innings, error) {
	if match.ID == "" {
		match.ID = newID()
	}
	if match.Status == "" {
		match.Status = models.MatchUpcoming
	}
	match.CurrentInning = 1

	battingTeam, bowlingTeam := match.Team1ID, match.Team2ID
	if match.TossWinnerID != nil {
		tossWinner := *match.TossWinnerID
		other := match.Team1ID
		if tossWinner == match.Team1ID {
			other = match.Team2ID
		}
		if match.TossDecision == "bowl" {
			battingTeam, bowlingTeam = other, tossWinner
		} else {
			battingTeam, bowlingTeam = tossWinner, other
		}
	}

	innings := &models.Innings{
		ID:            newID(),
		MatchID:       match.ID,
		InningNumber:  1,
		BattingTeamID: battingTeam,
		BowlingTeamID: bowlingTeam,
		Status:        models.InningsAwaitingSetup,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO matches (id, match_number, team1_id, team2_id, toss_winner_id,
			                     toss_decision, overs_per_side, current_inning, status,
			                     archived, match_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		if _, err := tx.ExecContext(ctx, query,
			match.ID, match.MatchNumber, match.Team1ID, match.Team2ID, match.TossWinnerID,
			match.TossDecision, match.OversPerSide, match.CurrentInning, match.Status,
			match.Archived, match.MatchDate,
		); err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
		return insertInningsTx(ctx, tx, innings)
	})
	if err != nil {
		return nil, err
	}
	return innings, nil
}

// GetMatches retrieves matches with optional filtering
func (s *Postgres) GetMatches(ctx context.Context, filters MatchFilters) ([]models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filters.Status)
		argIdx++
	}
	if filters.Archived != nil {
		query += fmt.Sprintf(" AND archived = $%d", argIdx)
		args = append(args, *filters.Archived)
		argIdx++
	}

	query += " ORDER BY match_number ASC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
		argIdx++
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filters.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return matches, nil
}

// GetMatch retrieves a single match by id
func (s *Postgres) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, id)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMatch updates a match's editable fields
func (s *Postgres) UpdateMatch(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches
		SET match_number = $1, toss_winner_id = $2, toss_decision = $3,
		    overs_per_side = $4, status = $5, match_date = $6, started_at = $7
		WHERE id = $8
	`
	res, err := s.db.ExecContext(ctx, query,
		match.MatchNumber, match.TossWinnerID, match.TossDecision,
		match.OversPerSide, match.Status, match.MatchDate, match.StartedAt, match.ID)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	return requireRow(res)
}

// DeleteMatch removes a match and, by cascade, everything scored in it
func (s *Postgres) DeleteMatch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	return requireRow(res)
}

// SetMatchArchived flips a match's archived flag; archived matches drop out
// of the points table
func (s *Postgres) SetMatchArchived(ctx context.Context, id string, archived bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE matches SET archived = $1 WHERE id = $2`, archived, id)
	if err != nil {
		return fmt.Errorf("archive match: %w", err)
	}
	return requireRow(res)
}

// CompleteMatch records the resolved outcome on the match row
func (s *Postgres) CompleteMatch(ctx context.Context, matchID string, res engine.Resolution, endedAt time.Time) error {
	query := `
		UPDATE matches
		SET status = $1, winner_id = $2, result_type = $3, result_margin = $4,
		    result_text = $5, ended_at = $6
		WHERE id = $7
	`
	r, err := s.db.ExecContext(ctx, query,
		models.MatchCompleted, res.WinnerID, res.ResultType, res.ResultMargin,
		res.ResultText, endedAt, matchID)
	if err != nil {
		return fmt.Errorf("complete match: %w", err)
	}
	return requireRow(r)
}

const matchColumns = `id, match_number, team1_id, team2_id, toss_winner_id, toss_decision,
	       overs_per_side, current_inning, status, winner_id, result_type,
	       result_margin, result_text, archived, match_date, started_at, ended_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	var tossDecision, resultType, resultText sql.NullString
	var resultMargin sql.NullInt64
	err := row.Scan(
		&m.ID, &m.MatchNumber, &m.Team1ID, &m.Team2ID, &m.TossWinnerID, &tossDecision,
		&m.OversPerSide, &m.CurrentInning, &m.Status, &m.WinnerID, &resultType,
		&resultMargin, &resultText, &m.Archived, &m.MatchDate, &m.StartedAt, &m.EndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan match: %w", err)
	}
	m.TossDecision = tossDecision.String
	m.ResultType = resultType.String
	m.ResultMargin = int(resultMargin.Int64)
	m.ResultText = resultText.String
	return &m, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
