package engine

import (
	"github.com/crickline/scoring-service/pkg/models"
)

// ReplayTotals is the result of aggregating a full ball ledger from empty
// state. The incrementally maintained rows must always agree with it.
type ReplayTotals struct {
	Batting      map[string]*models.BattingEntry
	Bowling      map[string]*models.BowlingEntry
	TotalRuns    int
	TotalWickets int
	TotalBalls   int
	Extras       int
	Wides        int
	NoBalls      int
	Byes         int
	LegByes      int
}

// ReplayLedger re-derives batting rows, bowling rows and innings totals by
// folding every ledger entry, in order, into empty state
func ReplayLedger(balls []*models.Ball) *ReplayTotals {
	t := &ReplayTotals{
		Batting: make(map[string]*models.BattingEntry),
		Bowling: make(map[string]*models.BowlingEntry),
	}

	for _, ball := range balls {
		attr := attributionFromBall(ball)

		striker := t.Batting[ball.BatsmanID]
		if striker == nil {
			striker = &models.BattingEntry{InningsID: ball.InningsID, PlayerID: ball.BatsmanID}
			t.Batting[ball.BatsmanID] = striker
		}
		if _, ok := t.Batting[ball.NonStrikerID]; !ok {
			t.Batting[ball.NonStrikerID] = &models.BattingEntry{InningsID: ball.InningsID, PlayerID: ball.NonStrikerID}
		}
		striker.RunsScored += attr.BatsmanRuns
		if attr.Legal {
			striker.BallsFaced++
		}
		if attr.BatsmanRuns == 4 {
			striker.Fours++
		}
		if attr.BatsmanRuns == 6 {
			striker.Sixes++
		}
		recalcBattingDerived(striker)

		if ball.IsWicket {
			outID := ball.BatsmanID
			if ball.BatsmanOutID != nil {
				outID = *ball.BatsmanOutID
			}
			if out := t.Batting[outID]; out != nil {
				out.IsOut = true
				out.DismissalType = ball.WicketType
			}
		}

		bowler := t.Bowling[ball.BowlerID]
		if bowler == nil {
			bowler = &models.BowlingEntry{InningsID: ball.InningsID, PlayerID: ball.BowlerID}
			t.Bowling[ball.BowlerID] = bowler
		}
		bowler.RunsConceded += attr.TeamRuns() - ball.PenaltyRuns
		if attr.Legal {
			bowler.BallsBowled++
			if ball.IsWicket {
				bowler.WicketsTaken++
			}
		}
		recalcBowlingDerived(bowler)

		t.TotalRuns += attr.TeamRuns()
		if ball.IsWicket {
			t.TotalWickets++
		}
		if attr.Legal {
			t.TotalBalls++
		}
		t.Extras += attr.ExtraRuns
		t.Wides += attr.Wides
		t.NoBalls += attr.NoBalls
		t.Byes += attr.Byes
		t.LegByes += attr.LegByes
	}

	return t
}
