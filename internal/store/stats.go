package store

import (
	"context"
	"fmt"

	"github.com/crickline/scoring-service/internal/standings"
	"github.com/crickline/scoring-service/pkg/models"
)

// GetCompletedMatches retrieves every completed, non-archived match with its
// innings, the input the points table is rebuilt from
func (s *Postgres) GetCompletedMatches(ctx context.Context) ([]standings.MatchWithInnings, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = $1 AND archived = false
		ORDER BY match_number ASC
	`
	rows, err := s.db.QueryContext(ctx, query, models.MatchCompleted)
	if err != nil {
		return nil, fmt.Errorf("query completed matches: %w", err)
	}
	defer rows.Close()

	var result []standings.MatchWithInnings
	index := make(map[string]int)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		index[m.ID] = len(result)
		result = append(result, standings.MatchWithInnings{Match: *m})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed matches: %w", err)
	}
	if len(result) == 0 {
		return result, nil
	}

	innQuery := `
		SELECT ` + inningsColumns + `
		FROM innings i
		WHERE EXISTS (
			SELECT 1 FROM matches m
			WHERE m.id = i.match_id AND m.status = $1 AND m.archived = false
		)
		ORDER BY i.match_id, i.inning_number ASC
	`
	innRows, err := s.db.QueryContext(ctx, innQuery, models.MatchCompleted)
	if err != nil {
		return nil, fmt.Errorf("query completed innings: %w", err)
	}
	defer innRows.Close()

	for innRows.Next() {
		inn, err := scanInnings(innRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[inn.MatchID]; ok {
			result[i].Innings = append(result[i].Innings, *inn)
		}
	}
	if err := innRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed innings: %w", err)
	}
	return result, nil
}

// GetPlayerStats aggregates batting and bowling figures per player across
// every completed, non-archived match
func (s *Postgres) GetPlayerStats(ctx context.Context) ([]models.PlayerStats, error) {
	query := `
		SELECT p.id, p.team_id, p.name, p.role, p.jersey_number, p.created_at,
		       COALESCE(bat.innings_bat, 0), COALESCE(bat.runs_scored, 0),
		       COALESCE(bat.balls_faced, 0), COALESCE(bat.fours, 0),
		       COALESCE(bat.sixes, 0), COALESCE(bat.times_out, 0),
		       COALESCE(bowl.balls_bowled, 0), COALESCE(bowl.runs_conceded, 0),
		       COALESCE(bowl.wickets_taken, 0)
		FROM players p
		LEFT JOIN (
			SELECT bi.player_id,
			       COUNT(*) AS innings_bat,
			       SUM(bi.runs_scored) AS runs_scored,
			       SUM(bi.balls_faced) AS balls_faced,
			       SUM(bi.fours) AS fours,
			       SUM(bi.sixes) AS sixes,
			       SUM(CASE WHEN bi.is_out THEN 1 ELSE 0 END) AS times_out
			FROM batting_innings bi
			JOIN innings i ON i.id = bi.innings_id
			JOIN matches m ON m.id = i.match_id
			WHERE m.status = $1 AND m.archived = false
			GROUP BY bi.player_id
		) bat ON bat.player_id = p.id
		LEFT JOIN (
			SELECT bo.player_id,
			       SUM(bo.balls_bowled) AS balls_bowled,
			       SUM(bo.runs_conceded) AS runs_conceded,
			       SUM(bo.wickets_taken) AS wickets_taken
			FROM bowling_innings bo
			JOIN innings i ON i.id = bo.innings_id
			JOIN matches m ON m.id = i.match_id
			WHERE m.status = $1 AND m.archived = false
			GROUP BY bo.player_id
		) bowl ON bowl.player_id = p.id
		WHERE bat.player_id IS NOT NULL OR bowl.player_id IS NOT NULL
		ORDER BY p.name ASC
	`
	rows, err := s.db.QueryContext(ctx, query, models.MatchCompleted)
	if err != nil {
		return nil, fmt.Errorf("query player stats: %w", err)
	}
	defer rows.Close()

	var stats []models.PlayerStats
	for rows.Next() {
		var ps models.PlayerStats
		if err := rows.Scan(
			&ps.Player.ID, &ps.Player.TeamID, &ps.Player.Name, &ps.Player.Role,
			&ps.Player.JerseyNumber, &ps.Player.CreatedAt,
			&ps.InningsBat, &ps.RunsScored, &ps.BallsFaced, &ps.Fours, &ps.Sixes,
			&ps.TimesOut, &ps.BallsBowled, &ps.RunsConceded, &ps.WicketsTaken,
		); err != nil {
			return nil, fmt.Errorf("scan player stats: %w", err)
		}
		if ps.BallsFaced > 0 {
			ps.StrikeRate = float64(ps.RunsScored) / float64(ps.BallsFaced) * 100
		}
		if ps.BallsBowled > 0 {
			ps.EconomyRate = float64(ps.RunsConceded) / models.OversFraction(ps.BallsBowled)
		}
		stats = append(stats, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate player stats: %w", err)
	}
	return stats, nil
}
