// Package standings rebuilds the tournament points table from completed
// matches. Rows are a read-only projection, never persisted as mutable
// state.
package standings

import (
	"sort"

	"github.com/crickline/scoring-service/pkg/models"
)

// MatchWithInnings pairs a match with its innings for aggregation
type MatchWithInnings struct {
	Match   models.Match
	Innings []models.Innings
}

// NRR computes net run rate: runs scored per over faced minus runs conceded
// per over bowled, with a zero-denominator term treated as 0
func NRR(runsScored int, oversFaced float64, runsConceded int, oversBowled float64) float64 {
	scoredRate := 0.0
	if oversFaced > 0 {
		scoredRate = float64(runsScored) / oversFaced
	}
	concededRate := 0.0
	if oversBowled > 0 {
		concededRate = float64(runsConceded) / oversBowled
	}
	return scoredRate - concededRate
}

// Compute aggregates every completed, non-archived match into standings
// rows: 2 points for a win, 1 each for a tie, 0 for a loss. Teams that have
// not played are omitted. Rows are sorted by points then NRR, both
// descending, and given 1-based positions.
func Compute(teams []models.Team, matches []MatchWithInnings) []models.PointsTableRow {
	rows := make(map[string]*models.PointsTableRow, len(teams))
	for _, team := range teams {
		rows[team.ID] = &models.PointsTableRow{Team: team}
	}

	for _, m := range matches {
		if m.Match.Status != models.MatchCompleted || m.Match.Archived {
			continue
		}

		team1 := rows[m.Match.Team1ID]
		team2 := rows[m.Match.Team2ID]
		if team1 != nil {
			team1.Played++
		}
		if team2 != nil {
			team2.Played++
		}

		switch {
		case m.Match.ResultType == models.ResultTied:
			for _, row := range []*models.PointsTableRow{team1, team2} {
				if row != nil {
					row.Tied++
					row.Points++
				}
			}
		case m.Match.WinnerID != nil:
			if winner := rows[*m.Match.WinnerID]; winner != nil {
				winner.Won++
				winner.Points += 2
			}
			loserID := m.Match.Team1ID
			if *m.Match.WinnerID == m.Match.Team1ID {
				loserID = m.Match.Team2ID
			}
			if loser := rows[loserID]; loser != nil {
				loser.Lost++
			}
		default:
			for _, row := range []*models.PointsTableRow{team1, team2} {
				if row != nil {
					row.NoResult++
				}
			}
		}

		// Every innings contributes to both sides' NRR terms. Overs are
		// accumulated as true fractions of the legal-ball count.
		for _, inn := range m.Innings {
			overs := models.OversFraction(inn.TotalBalls)
			if batting := rows[inn.BattingTeamID]; batting != nil {
				batting.RunsScored += inn.TotalRuns
				batting.OversFaced += overs
			}
			if bowling := rows[inn.BowlingTeamID]; bowling != nil {
				bowling.RunsConceded += inn.TotalRuns
				bowling.OversBowled += overs
			}
		}
	}

	table := make([]models.PointsTableRow, 0, len(rows))
	for _, row := range rows {
		if row.Played == 0 {
			continue
		}
		row.NRR = NRR(row.RunsScored, row.OversFaced, row.RunsConceded, row.OversBowled)
		table = append(table, *row)
	}

	sort.SliceStable(table, func(i, j int) bool {
		if table[i].Points != table[j].Points {
			return table[i].Points > table[j].Points
		}
		if table[i].NRR != table[j].NRR {
			return table[i].NRR > table[j].NRR
		}
		return table[i].Team.Name < table[j].Team.Name
	})
	for i := range table {
		table[i].Position = i + 1
	}
	return table
}
