package engine

import (
	"fmt"

	"github.com/crickline/scoring-service/pkg/models"
)

// Resolution is the computed outcome of a match once its innings conclude
type Resolution struct {
	WinnerID     *string
	ResultType   string
	ResultMargin int
	ResultText   string
}

// ResolveResult compares the two innings totals. A higher second-innings
// total is a win by wickets remaining; a higher first-innings total is a win
// by the run difference; equal totals tie. With fewer than two innings the
// match completes without a winner.
func ResolveResult(innings []*models.Innings) Resolution {
	if len(innings) < 2 {
		return Resolution{ResultType: models.ResultNoResult, ResultText: "No result"}
	}

	first, second := innings[0], innings[1]

	switch {
	case second.TotalRuns > first.TotalRuns:
		winner := second.BattingTeamID
		margin := 10 - second.TotalWickets
		return Resolution{
			WinnerID:     &winner,
			ResultType:   models.ResultWonByWickets,
			ResultMargin: margin,
			ResultText:   fmt.Sprintf("by %d wickets", margin),
		}
	case first.TotalRuns > second.TotalRuns:
		winner := first.BattingTeamID
		margin := first.TotalRuns - second.TotalRuns
		return Resolution{
			WinnerID:     &winner,
			ResultType:   models.ResultWonByRuns,
			ResultMargin: margin,
			ResultText:   fmt.Sprintf("by %d runs", margin),
		}
	default:
		return Resolution{
			ResultType: models.ResultTied,
			ResultText: "Match Tied",
		}
	}
}
