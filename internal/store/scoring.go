package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crickline/scoring-service/internal/engine"
	"github.com/crickline/scoring-service/pkg/models"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// GetInningsState loads the full mutable scoring state of an innings: the
// aggregate row, every batting and bowling row, and the current stand
func (s *Postgres) GetInningsState(ctx context.Context, inningsID string) (*engine.InningsState, error) {
	innings, err := s.getInnings(ctx, s.db, inningsID)
	if err != nil {
		return nil, err
	}

	batting, err := s.getBattingEntries(ctx, inningsID)
	if err != nil {
		return nil, err
	}
	bowling, err := s.getBowlingEntries(ctx, inningsID)
	if err != nil {
		return nil, err
	}
	partnership, err := s.getCurrentPartnership(ctx, inningsID)
	if err != nil {
		return nil, err
	}

	return &engine.InningsState{
		Innings:     innings,
		Batting:     batting,
		Bowling:     bowling,
		Partnership: partnership,
	}, nil
}

// GetMatchInnings retrieves a match's innings ordered by inning number
func (s *Postgres) GetMatchInnings(ctx context.Context, matchID string) ([]*models.Innings, error) {
	query := `
		SELECT ` + inningsColumns + `
		FROM innings
		WHERE match_id = $1
		ORDER BY inning_number ASC
	`
	rows, err := s.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("query innings: %w", err)
	}
	defer rows.Close()

	var innings []*models.Innings
	for rows.Next() {
		inn, err := scanInnings(rows)
		if err != nil {
			return nil, err
		}
		innings = append(innings, inn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate innings: %w", err)
	}
	return innings, nil
}

// GetCurrentInnings assembles the live-scoring read model for a match: the
// in-progress innings (or the latest one), all batting rows, the current
// bowler and stand, and the last 12 ledger entries
func (s *Postgres) GetCurrentInnings(ctx context.Context, matchID string) (*CurrentInningsView, error) {
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	all, err := s.GetMatchInnings(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNotFound
	}

	current := all[len(all)-1]
	for _, inn := range all {
		if inn.Status == models.InningsInProgress {
			current = inn
			break
		}
	}

	batting, err := s.getBattingEntries(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	bowling, err := s.getBowlingEntries(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	partnership, err := s.getCurrentPartnership(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	recent, err := s.getRecentBalls(ctx, current.ID, 12)
	if err != nil {
		return nil, err
	}

	view := &CurrentInningsView{
		Match:       *match,
		Innings:     *current,
		Partnership: partnership,
		RecentBalls: recent,
	}
	for _, b := range batting {
		view.Batsmen = append(view.Batsmen, *b)
	}
	for _, b := range bowling {
		view.Bowlers = append(view.Bowlers, *b)
		if current.CurrentBowlerID != nil && b.PlayerID == *current.CurrentBowlerID {
			cp := *b
			view.Bowler = &cp
		}
	}
	return view, nil
}

// CreateInnings inserts a new innings and, when given, the match progress
// update that goes with it, atomically
func (s *Postgres) CreateInnings(ctx context.Context, innings *models.Innings, matchUpdate *models.Match) error {
	if innings.ID == "" {
		innings.ID = newID()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertInningsTx(ctx, tx, innings); err != nil {
			return err
		}
		if matchUpdate != nil {
			query := `UPDATE matches SET current_inning = $1, status = $2 WHERE id = $3`
			if _, err := tx.ExecContext(ctx, query,
				matchUpdate.CurrentInning, matchUpdate.Status, matchUpdate.ID); err != nil {
				return fmt.Errorf("update match progress: %w", err)
			}
		}
		return nil
	})
}

// UpdateInnings persists the innings aggregate row alone
func (s *Postgres) UpdateInnings(ctx context.Context, innings *models.Innings) error {
	return updateInnings(ctx, s.db, innings)
}

// ApplySetup persists innings initialization: the two openers, the opening
// bowler, the first stand, and the innings references, in one transaction
func (s *Postgres) ApplySetup(ctx context.Context, state *engine.InningsState, setup *engine.SetupResult) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, entry := range setup.Batting {
			if err := insertBattingEntry(ctx, tx, entry); err != nil {
				return err
			}
		}
		if err := insertBowlingEntry(ctx, tx, setup.Bowling); err != nil {
			return err
		}
		if err := insertPartnership(ctx, tx, setup.Partnership); err != nil {
			return err
		}
		return updateInnings(ctx, tx, state.Innings)
	})
}

// ApplyDelivery persists one recorded delivery: the journal entry, the
// ledger row, and every touched aggregate row, in one transaction. Partial
// application is a correctness defect, never a degraded mode.
func (s *Postgres) ApplyDelivery(ctx context.Context, state *engine.InningsState, result *engine.DeliveryResult) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertAction(ctx, tx, result.Journal); err != nil {
			return err
		}
		if err := insertBall(ctx, tx, result.Ball); err != nil {
			return err
		}
		for _, entry := range result.TouchedBatting {
			if err := updateBattingEntry(ctx, tx, entry); err != nil {
				return err
			}
		}
		if err := updateBowlingEntry(ctx, tx, result.Bowler); err != nil {
			return err
		}
		if p := state.Partnership; p != nil {
			if err := updatePartnership(ctx, tx, p); err != nil {
				return err
			}
		}
		if p := result.EndedPartnership; p != nil {
			if err := updatePartnership(ctx, tx, p); err != nil {
				return err
			}
		}
		return updateInnings(ctx, tx, state.Innings)
	})
}

// ApplyUndo persists the reversal of the most recent delivery and deletes
// the ledger row and journal entry, in one transaction
func (s *Postgres) ApplyUndo(ctx context.Context, state *engine.InningsState, result *engine.UndoResult, ballID, actionID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, entry := range result.TouchedBatting {
			if err := updateBattingEntry(ctx, tx, entry); err != nil {
				return err
			}
		}
		if err := updateBowlingEntry(ctx, tx, result.Bowler); err != nil {
			return err
		}
		if p := result.DeletedPartnership; p != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM partnerships WHERE id = $1`, p.ID); err != nil {
				return fmt.Errorf("delete partnership: %w", err)
			}
		}
		if e := result.DeletedBattingEntry; e != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM batting_innings WHERE id = $1`, e.ID); err != nil {
				return fmt.Errorf("delete batting entry: %w", err)
			}
		}
		if p := state.Partnership; p != nil {
			if err := updatePartnership(ctx, tx, p); err != nil {
				return err
			}
		}
		if err := updateInnings(ctx, tx, state.Innings); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM balls WHERE id = $1`, ballID); err != nil {
			return fmt.Errorf("delete ball: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM action_history WHERE id = $1`, actionID); err != nil {
			return fmt.Errorf("delete action: %w", err)
		}
		return nil
	})
}

// ApplyAddBatsman persists the incoming batsman, the new stand, and the
// innings references, in one transaction
func (s *Postgres) ApplyAddBatsman(ctx context.Context, state *engine.InningsState, result *engine.AddBatsmanResult) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertBattingEntry(ctx, tx, result.Entry); err != nil {
			return err
		}
		if err := insertPartnership(ctx, tx, result.Partnership); err != nil {
			return err
		}
		for _, entry := range result.TouchedBatting {
			if entry == result.Entry {
				continue
			}
			if err := updateBattingEntry(ctx, tx, entry); err != nil {
				return err
			}
		}
		return updateInnings(ctx, tx, state.Innings)
	})
}

// ApplyChangeBowler persists a bowler change, in one transaction
func (s *Postgres) ApplyChangeBowler(ctx context.Context, state *engine.InningsState, result *engine.ChangeBowlerResult) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if result.Created {
			if err := insertBowlingEntry(ctx, tx, result.Entry); err != nil {
				return err
			}
		} else {
			if err := updateBowlingEntry(ctx, tx, result.Entry); err != nil {
				return err
			}
		}
		if result.Previous != nil && result.Previous != result.Entry {
			if err := updateBowlingEntry(ctx, tx, result.Previous); err != nil {
				return err
			}
		}
		return updateInnings(ctx, tx, state.Innings)
	})
}

// ApplyStrikeChange persists a manual strike swap, in one transaction
func (s *Postgres) ApplyStrikeChange(ctx context.Context, state *engine.InningsState, touched []*models.BattingEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, entry := range touched {
			if err := updateBattingEntry(ctx, tx, entry); err != nil {
				return err
			}
		}
		return updateInnings(ctx, tx, state.Innings)
	})
}

// GetLastAction retrieves the most recent journal entry for an innings
func (s *Postgres) GetLastAction(ctx context.Context, inningsID string) (*models.ActionHistoryEntry, error) {
	query := `
		SELECT id, match_id, innings_id, action_type, state_before, action_data, created_at
		FROM action_history
		WHERE innings_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var a models.ActionHistoryEntry
	err := s.db.QueryRowContext(ctx, query, inningsID).Scan(
		&a.ID, &a.MatchID, &a.InningsID, &a.ActionType, &a.StateBefore, &a.ActionData, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last action: %w", err)
	}
	return &a, nil
}

// GetLastBall retrieves the most recent ledger entry for an innings
func (s *Postgres) GetLastBall(ctx context.Context, inningsID string) (*models.Ball, error) {
	balls, err := s.getRecentBalls(ctx, inningsID, 1)
	if err != nil {
		return nil, err
	}
	if len(balls) == 0 {
		return nil, nil
	}
	return &balls[0], nil
}

// GetLatestEndedPartnership retrieves the most recently ended stand, the one
// a wicket undo restores
func (s *Postgres) GetLatestEndedPartnership(ctx context.Context, inningsID string) (*models.Partnership, error) {
	query := `
		SELECT ` + partnershipColumns + `
		FROM partnerships
		WHERE innings_id = $1 AND is_current = false
		ORDER BY ended_at DESC
		LIMIT 1
	`
	row := s.db.QueryRowContext(ctx, query, inningsID)
	p, err := scanPartnership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// --- row helpers ---

const inningsColumns = `id, match_id, inning_number, batting_team_id, bowling_team_id,
	       total_runs, total_wickets, total_balls, total_overs, extras, wides,
	       no_balls, byes, leg_byes, run_rate, status, striker_id,
	       non_striker_id, current_bowler_id, started_at, ended_at`

func (s *Postgres) getInnings(ctx context.Context, q dbtx, inningsID string) (*models.Innings, error) {
	query := `
		SELECT ` + inningsColumns + `
		FROM innings
		WHERE id = $1
	`
	row := q.QueryRowContext(ctx, query, inningsID)
	inn, err := scanInnings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return inn, nil
}

func scanInnings(row rowScanner) (*models.Innings, error) {
	var inn models.Innings
	err := row.Scan(
		&inn.ID, &inn.MatchID, &inn.InningNumber, &inn.BattingTeamID, &inn.BowlingTeamID,
		&inn.TotalRuns, &inn.TotalWickets, &inn.TotalBalls, &inn.TotalOvers, &inn.Extras,
		&inn.Wides, &inn.NoBalls, &inn.Byes, &inn.LegByes, &inn.RunRate, &inn.Status,
		&inn.StrikerID, &inn.NonStrikerID, &inn.CurrentBowlerID, &inn.StartedAt, &inn.EndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan innings: %w", err)
	}
	return &inn, nil
}

func insertInningsTx(ctx context.Context, tx *sql.Tx, inn *models.Innings) error {
	query := `
		INSERT INTO innings (id, match_id, inning_number, batting_team_id, bowling_team_id,
		                     total_runs, total_wickets, total_balls, total_overs, extras,
		                     wides, no_balls, byes, leg_byes, run_rate, status,
		                     striker_id, non_striker_id, current_bowler_id, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err := tx.ExecContext(ctx, query,
		inn.ID, inn.MatchID, inn.InningNumber, inn.BattingTeamID, inn.BowlingTeamID,
		inn.TotalRuns, inn.TotalWickets, inn.TotalBalls, inn.TotalOvers, inn.Extras,
		inn.Wides, inn.NoBalls, inn.Byes, inn.LegByes, inn.RunRate, inn.Status,
		inn.StrikerID, inn.NonStrikerID, inn.CurrentBowlerID, inn.StartedAt, inn.EndedAt)
	if err != nil {
		return fmt.Errorf("insert innings: %w", err)
	}
	return nil
}

func updateInnings(ctx context.Context, q dbtx, inn *models.Innings) error {
	query := `
		UPDATE innings
		SET total_runs = $1, total_wickets = $2, total_balls = $3, total_overs = $4,
		    extras = $5, wides = $6, no_balls = $7, byes = $8, leg_byes = $9,
		    run_rate = $10, status = $11, striker_id = $12, non_striker_id = $13,
		    current_bowler_id = $14, started_at = $15, ended_at = $16
		WHERE id = $17
	`
	_, err := q.ExecContext(ctx, query,
		inn.TotalRuns, inn.TotalWickets, inn.TotalBalls, inn.TotalOvers,
		inn.Extras, inn.Wides, inn.NoBalls, inn.Byes, inn.LegByes,
		inn.RunRate, inn.Status, inn.StrikerID, inn.NonStrikerID,
		inn.CurrentBowlerID, inn.StartedAt, inn.EndedAt, inn.ID)
	if err != nil {
		return fmt.Errorf("update innings: %w", err)
	}
	return nil
}

func (s *Postgres) getBattingEntries(ctx context.Context, inningsID string) ([]*models.BattingEntry, error) {
	query := `
		SELECT id, innings_id, player_id, batting_position, runs_scored, balls_faced,
		       fours, sixes, strike_rate, is_out, dismissal_type, bowler_id,
		       fielder_id, is_on_strike
		FROM batting_innings
		WHERE innings_id = $1
		ORDER BY batting_position ASC
	`
	rows, err := s.db.QueryContext(ctx, query, inningsID)
	if err != nil {
		return nil, fmt.Errorf("query batting entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.BattingEntry
	for rows.Next() {
		var e models.BattingEntry
		if err := rows.Scan(
			&e.ID, &e.InningsID, &e.PlayerID, &e.BattingPosition, &e.RunsScored, &e.BallsFaced,
			&e.Fours, &e.Sixes, &e.StrikeRate, &e.IsOut, &e.DismissalType, &e.BowlerID,
			&e.FielderID, &e.IsOnStrike,
		); err != nil {
			return nil, fmt.Errorf("scan batting entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batting entries: %w", err)
	}
	return entries, nil
}

func insertBattingEntry(ctx context.Context, tx *sql.Tx, e *models.BattingEntry) error {
	if e.ID == "" {
		e.ID = newID()
	}
	query := `
		INSERT INTO batting_innings (id, innings_id, player_id, batting_position,
		                             runs_scored, balls_faced, fours, sixes, strike_rate,
		                             is_out, dismissal_type, bowler_id, fielder_id, is_on_strike)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := tx.ExecContext(ctx, query,
		e.ID, e.InningsID, e.PlayerID, e.BattingPosition,
		e.RunsScored, e.BallsFaced, e.Fours, e.Sixes, e.StrikeRate,
		e.IsOut, e.DismissalType, e.BowlerID, e.FielderID, e.IsOnStrike)
	if err != nil {
		return fmt.Errorf("insert batting entry: %w", err)
	}
	return nil
}

func updateBattingEntry(ctx context.Context, q dbtx, e *models.BattingEntry) error {
	query := `
		UPDATE batting_innings
		SET runs_scored = $1, balls_faced = $2, fours = $3, sixes = $4,
		    strike_rate = $5, is_out = $6, dismissal_type = $7, bowler_id = $8,
		    fielder_id = $9, is_on_strike = $10
		WHERE id = $11
	`
	_, err := q.ExecContext(ctx, query,
		e.RunsScored, e.BallsFaced, e.Fours, e.Sixes,
		e.StrikeRate, e.IsOut, e.DismissalType, e.BowlerID,
		e.FielderID, e.IsOnStrike, e.ID)
	if err != nil {
		return fmt.Errorf("update batting entry: %w", err)
	}
	return nil
}

func (s *Postgres) getBowlingEntries(ctx context.Context, inningsID string) ([]*models.BowlingEntry, error) {
	query := `
		SELECT id, innings_id, player_id, balls_bowled, runs_conceded, wickets_taken,
		       overs_bowled, economy_rate, is_current_bowler
		FROM bowling_innings
		WHERE innings_id = $1
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, inningsID)
	if err != nil {
		return nil, fmt.Errorf("query bowling entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.BowlingEntry
	for rows.Next() {
		var e models.BowlingEntry
		if err := rows.Scan(
			&e.ID, &e.InningsID, &e.PlayerID, &e.BallsBowled, &e.RunsConceded,
			&e.WicketsTaken, &e.OversBowled, &e.EconomyRate, &e.IsCurrentBowler,
		); err != nil {
			return nil, fmt.Errorf("scan bowling entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bowling entries: %w", err)
	}
	return entries, nil
}

func insertBowlingEntry(ctx context.Context, tx *sql.Tx, e *models.BowlingEntry) error {
	if e.ID == "" {
		e.ID = newID()
	}
	query := `
		INSERT INTO bowling_innings (id, innings_id, player_id, balls_bowled, runs_conceded,
		                             wickets_taken, overs_bowled, economy_rate, is_current_bowler)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		e.ID, e.InningsID, e.PlayerID, e.BallsBowled, e.RunsConceded,
		e.WicketsTaken, e.OversBowled, e.EconomyRate, e.IsCurrentBowler)
	if err != nil {
		return fmt.Errorf("insert bowling entry: %w", err)
	}
	return nil
}

func updateBowlingEntry(ctx context.Context, q dbtx, e *models.BowlingEntry) error {
	query := `
		UPDATE bowling_innings
		SET balls_bowled = $1, runs_conceded = $2, wickets_taken = $3,
		    overs_bowled = $4, economy_rate = $5, is_current_bowler = $6
		WHERE id = $7
	`
	_, err := q.ExecContext(ctx, query,
		e.BallsBowled, e.RunsConceded, e.WicketsTaken,
		e.OversBowled, e.EconomyRate, e.IsCurrentBowler, e.ID)
	if err != nil {
		return fmt.Errorf("update bowling entry: %w", err)
	}
	return nil
}

const partnershipColumns = `id, innings_id, batsman1_id, batsman2_id, runs_scored, balls_faced,
	       wicket_number, is_current, started_at, ended_at`

func (s *Postgres) getCurrentPartnership(ctx context.Context, inningsID string) (*models.Partnership, error) {
	query := `
		SELECT ` + partnershipColumns + `
		FROM partnerships
		WHERE innings_id = $1 AND is_current = true
		LIMIT 1
	`
	row := s.db.QueryRowContext(ctx, query, inningsID)
	p, err := scanPartnership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanPartnership(row rowScanner) (*models.Partnership, error) {
	var p models.Partnership
	err := row.Scan(
		&p.ID, &p.InningsID, &p.Batsman1ID, &p.Batsman2ID, &p.RunsScored, &p.BallsFaced,
		&p.WicketNumber, &p.IsCurrent, &p.StartedAt, &p.EndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan partnership: %w", err)
	}
	return &p, nil
}

func insertPartnership(ctx context.Context, tx *sql.Tx, p *models.Partnership) error {
	if p.ID == "" {
		p.ID = newID()
	}
	query := `
		INSERT INTO partnerships (id, innings_id, batsman1_id, batsman2_id, runs_scored,
		                          balls_faced, wicket_number, is_current, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.ExecContext(ctx, query,
		p.ID, p.InningsID, p.Batsman1ID, p.Batsman2ID, p.RunsScored,
		p.BallsFaced, p.WicketNumber, p.IsCurrent, p.StartedAt, p.EndedAt)
	if err != nil {
		return fmt.Errorf("insert partnership: %w", err)
	}
	return nil
}

func updatePartnership(ctx context.Context, q dbtx, p *models.Partnership) error {
	query := `
		UPDATE partnerships
		SET runs_scored = $1, balls_faced = $2, is_current = $3, ended_at = $4
		WHERE id = $5
	`
	_, err := q.ExecContext(ctx, query,
		p.RunsScored, p.BallsFaced, p.IsCurrent, p.EndedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update partnership: %w", err)
	}
	return nil
}

const ballColumns = `id, innings_id, over_number, ball_number, batsman_id, non_striker_id,
	       bowler_id, runs_scored, extras, penalty_runs, extra_type, is_wicket,
	       wicket_type, batsman_out_id, fielder_id, is_boundary, total_runs,
	       total_wickets, created_at`

func (s *Postgres) getRecentBalls(ctx context.Context, inningsID string, limit int) ([]models.Ball, error) {
	query := `
		SELECT ` + ballColumns + `
		FROM balls
		WHERE innings_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, inningsID, limit)
	if err != nil {
		return nil, fmt.Errorf("query balls: %w", err)
	}
	defer rows.Close()

	var balls []models.Ball
	for rows.Next() {
		var b models.Ball
		var extraType sql.NullString
		if err := rows.Scan(
			&b.ID, &b.InningsID, &b.OverNumber, &b.BallNumber, &b.BatsmanID, &b.NonStrikerID,
			&b.BowlerID, &b.RunsScored, &b.Extras, &b.PenaltyRuns, &extraType, &b.IsWicket,
			&b.WicketType, &b.BatsmanOutID, &b.FielderID, &b.IsBoundary, &b.TotalRuns,
			&b.TotalWickets, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ball: %w", err)
		}
		b.ExtraType = models.ExtraType(extraType.String)
		balls = append(balls, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balls: %w", err)
	}
	return balls, nil
}

func insertBall(ctx context.Context, tx *sql.Tx, b *models.Ball) error {
	if b.ID == "" {
		b.ID = newID()
	}
	var extraType sql.NullString
	if b.ExtraType != models.ExtraNone {
		extraType = sql.NullString{String: string(b.ExtraType), Valid: true}
	}
	query := `
		INSERT INTO balls (id, innings_id, over_number, ball_number, batsman_id,
		                   non_striker_id, bowler_id, runs_scored, extras, penalty_runs,
		                   extra_type, is_wicket, wicket_type, batsman_out_id, fielder_id,
		                   is_boundary, total_runs, total_wickets, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := tx.ExecContext(ctx, query,
		b.ID, b.InningsID, b.OverNumber, b.BallNumber, b.BatsmanID,
		b.NonStrikerID, b.BowlerID, b.RunsScored, b.Extras, b.PenaltyRuns,
		extraType, b.IsWicket, b.WicketType, b.BatsmanOutID, b.FielderID,
		b.IsBoundary, b.TotalRuns, b.TotalWickets, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ball: %w", err)
	}
	return nil
}

func insertAction(ctx context.Context, tx *sql.Tx, a *models.ActionHistoryEntry) error {
	if a.ID == "" {
		a.ID = newID()
	}
	query := `
		INSERT INTO action_history (id, match_id, innings_id, action_type, state_before,
		                            action_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		a.ID, a.MatchID, a.InningsID, a.ActionType, a.StateBefore, a.ActionData, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}
