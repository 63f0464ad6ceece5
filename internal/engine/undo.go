package engine

import (
	"encoding/json"

	"github.com/crickline/scoring-service/pkg/models"
)

// UndoInput gathers everything needed to reverse the most recent delivery:
// the current state, the journal entry and ledger row being undone, and the
// most recently ended stand (needed when the delivery was a wicket).
type UndoInput struct {
	State            *InningsState
	Ball             *models.Ball
	Action           *models.ActionHistoryEntry
	PriorPartnership *models.Partnership
}

// UndoResult reports the rows to persist and the rows to delete. The ball
// and the journal entry are always deleted.
type UndoResult struct {
	TouchedBatting      []*models.BattingEntry
	Bowler              *models.BowlingEntry
	DeletedBattingEntry *models.BattingEntry // batsman inserted after the undone wicket
	DeletedPartnership  *models.Partnership  // stand opened after the undone wicket
	RestoredPartnership *models.Partnership
}

// ReverseDelivery arithmetically reverses every mutation RecordDelivery made
// for the journaled delivery, then cross-checks the innings counters against
// the journaled pre-state. A mismatch means the ledger and the maintained
// totals have diverged and is reported as an IntegrityError.
func ReverseDelivery(in UndoInput) (*UndoResult, error) {
	if in.Action == nil {
		return nil, conflictf("no action to undo")
	}
	if in.Ball == nil {
		return nil, conflictf("no ball to undo")
	}

	var snap stateSnapshot
	if err := json.Unmarshal(in.Action.StateBefore, &snap); err != nil {
		return nil, integrityf("unmarshal journaled pre-state: %v", err)
	}
	var action actionRecord
	if err := json.Unmarshal(in.Action.ActionData, &action); err != nil {
		return nil, integrityf("unmarshal journaled action data: %v", err)
	}

	state := in.State
	ball := in.Ball
	attr := attributionFromBall(ball)
	teamRuns := attr.TeamRuns()
	wasWicket := ball.IsWicket

	// Striker's batting row.
	striker := state.BattingByPlayer(ball.BatsmanID)
	if striker == nil {
		return nil, integrityf("batting entry for %s missing during undo", ball.BatsmanID)
	}
	striker.RunsScored -= attr.BatsmanRuns
	if attr.Legal {
		striker.BallsFaced--
	}
	if attr.BatsmanRuns == 4 {
		striker.Fours--
	}
	if attr.BatsmanRuns == 6 {
		striker.Sixes--
	}
	recalcBattingDerived(striker)

	// Clear the dismissal from whichever batsman was given out.
	var batsmanOut *models.BattingEntry
	if wasWicket {
		outID := ball.BatsmanID
		if ball.BatsmanOutID != nil {
			outID = *ball.BatsmanOutID
		}
		batsmanOut = state.BattingByPlayer(outID)
		if batsmanOut == nil {
			return nil, integrityf("dismissed batsman %s missing during undo", outID)
		}
		batsmanOut.IsOut = false
		batsmanOut.DismissalType = nil
		batsmanOut.BowlerID = nil
		batsmanOut.FielderID = nil
	}

	// Bowler's row.
	bowler := state.BowlingByPlayer(ball.BowlerID)
	if bowler == nil {
		return nil, integrityf("bowling entry for %s missing during undo", ball.BowlerID)
	}
	bowler.RunsConceded -= teamRuns - ball.PenaltyRuns
	if attr.Legal {
		bowler.BallsBowled--
		if wasWicket {
			bowler.WicketsTaken--
		}
	}
	recalcBowlingDerived(bowler)

	// Innings totals and extras breakdown.
	inn := state.Innings
	inn.TotalRuns -= teamRuns
	if wasWicket {
		inn.TotalWickets--
	}
	if attr.Legal {
		inn.TotalBalls--
	}
	inn.Extras -= attr.ExtraRuns
	inn.Wides -= attr.Wides
	inn.NoBalls -= attr.NoBalls
	inn.Byes -= attr.Byes
	inn.LegByes -= attr.LegByes
	state.recalcInningsDerived()

	result := &UndoResult{Bowler: bowler}

	// Partnership: a non-wicket delivery accumulated into the current stand.
	// A wicket accumulated into the stand it then closed, which is the most
	// recently ended one; that stand is restored, and the stand (and batsman)
	// created after the wicket are removed.
	if !wasWicket {
		p := state.Partnership
		if p == nil {
			return nil, integrityf("no current partnership during undo")
		}
		p.RunsScored -= teamRuns
		if attr.Legal {
			p.BallsFaced--
		}
	} else {
		prior := in.PriorPartnership
		if prior == nil {
			return nil, integrityf("no ended partnership to restore during undo")
		}
		prior.RunsScored -= teamRuns
		if attr.Legal {
			prior.BallsFaced--
		}
		prior.IsCurrent = true
		prior.EndedAt = nil
		result.RestoredPartnership = prior

		// The stand opened after the wicket only exists if the next batsman
		// already came in; its new member leaves with it.
		if p := state.Partnership; p != nil {
			result.DeletedPartnership = p
			for _, playerID := range []string{p.Batsman1ID, p.Batsman2ID} {
				if playerID == prior.Batsman1ID || playerID == prior.Batsman2ID {
					continue
				}
				result.DeletedBattingEntry = state.BattingByPlayer(playerID)
			}
		}
		state.Partnership = prior
	}

	// The journaled references restore the striker, non-striker, current
	// bowler, lifecycle status and rotation in one step.
	inn.Status = snap.Innings.Status
	inn.EndedAt = snap.Innings.EndedAt
	inn.StrikerID = snap.Innings.StrikerID
	inn.NonStrikerID = snap.Innings.NonStrikerID
	inn.CurrentBowlerID = snap.Innings.CurrentBowlerID
	state.syncStrikeFlags()
	state.syncBowlerFlags()

	if err := checkAgainstSnapshot(inn, &snap.Innings); err != nil {
		return nil, err
	}

	result.TouchedBatting = dedupBatting(striker, state.NonStriker(), batsmanOut, result.DeletedBattingEntry)
	// A deleted row must not also be written back.
	if result.DeletedBattingEntry != nil {
		kept := result.TouchedBatting[:0]
		for _, b := range result.TouchedBatting {
			if b != result.DeletedBattingEntry {
				kept = append(kept, b)
			}
		}
		result.TouchedBatting = kept
	}
	return result, nil
}

// checkAgainstSnapshot verifies that arithmetic reversal reproduced the
// journaled pre-delivery innings counters exactly
func checkAgainstSnapshot(got, want *models.Innings) error {
	if got.TotalRuns != want.TotalRuns ||
		got.TotalWickets != want.TotalWickets ||
		got.TotalBalls != want.TotalBalls ||
		got.Extras != want.Extras ||
		got.Wides != want.Wides ||
		got.NoBalls != want.NoBalls ||
		got.Byes != want.Byes ||
		got.LegByes != want.LegByes {
		return integrityf("undo produced totals that disagree with the journaled pre-state for innings %s", got.ID)
	}
	return nil
}
