package engine

import (
	"encoding/json"
	"time"

	"github.com/crickline/scoring-service/pkg/models"
)

// DeliveryResult reports everything a single recorded delivery changed.
// The store persists the journal entry, the ball, and every touched row as
// one transaction.
type DeliveryResult struct {
	Ball             *models.Ball
	Journal          *models.ActionHistoryEntry
	TouchedBatting   []*models.BattingEntry
	Bowler           *models.BowlingEntry
	EndedPartnership *models.Partnership // set when a wicket closed the stand
	Rotated          bool
	OverComplete     bool // legal-ball count crossed an over boundary
	InningsComplete  bool // all out or overs cap reached
}

// actionRecord is what gets journaled as the action data of a delivery
type actionRecord struct {
	Input   DeliveryInput `json:"input"`
	Rotated bool          `json:"rotated"`
}

// stateSnapshot is the full pre-delivery state journaled for undo
type stateSnapshot struct {
	Innings     models.Innings       `json:"innings"`
	Striker     *models.BattingEntry `json:"striker,omitempty"`
	NonStriker  *models.BattingEntry `json:"non_striker,omitempty"`
	Bowler      *models.BowlingEntry `json:"bowler,omitempty"`
	Partnership *models.Partnership  `json:"partnership,omitempty"`
}

// RecordDelivery applies one delivery to the innings state. It mutates the
// state in place and returns the rows to persist; it never touches storage
// itself. oversPerSide bounds the innings length in overs.
func RecordDelivery(state *InningsState, in DeliveryInput, oversPerSide int) (*DeliveryResult, error) {
	inn := state.Innings

	if inn.Status != models.InningsInProgress {
		return nil, conflictf("innings %s is %s, not in progress", inn.ID, inn.Status)
	}

	striker := state.Striker()
	nonStriker := state.NonStriker()
	if striker == nil || nonStriker == nil || striker.IsOut || nonStriker.IsOut {
		return nil, validationf("two not-out batsmen must be at the crease before recording a ball")
	}
	bowler := state.Bowler()
	if bowler == nil {
		return nil, validationf("no current bowler set")
	}

	attr, err := Attribute(in)
	if err != nil {
		return nil, err
	}

	batsmanOut := striker
	if in.IsWicket {
		if in.WicketType == "" {
			return nil, validationf("wicket type is required for a dismissal")
		}
		if in.BatsmanOutID != "" {
			batsmanOut = state.BattingByPlayer(in.BatsmanOutID)
			if batsmanOut == nil || (batsmanOut != striker && batsmanOut != nonStriker) {
				return nil, validationf("dismissed batsman %s is not at the crease", in.BatsmanOutID)
			}
		}
	}

	rotated := in.rotates()

	// Journal the full pre-delivery state before anything changes.
	journal, err := buildJournal(state, in, rotated)
	if err != nil {
		return nil, err
	}

	// Ball ledger entry, numbered from the pre-delivery legal-ball count.
	teamRuns := attr.TeamRuns()
	ball := &models.Ball{
		InningsID:    inn.ID,
		OverNumber:   inn.TotalBalls/6 + 1,
		BallNumber:   inn.TotalBalls%6 + 1,
		BatsmanID:    striker.PlayerID,
		NonStrikerID: nonStriker.PlayerID,
		BowlerID:     bowler.PlayerID,
		RunsScored:   attr.BatsmanRuns,
		Extras:       attr.ExtraRuns,
		PenaltyRuns:  in.PenaltyRuns,
		ExtraType:    in.ExtraType,
		IsWicket:     in.IsWicket,
		IsBoundary:   attr.BatsmanRuns == 4 || attr.BatsmanRuns == 6,
		TotalRuns:    inn.TotalRuns + teamRuns,
		TotalWickets: inn.TotalWickets + btoi(in.IsWicket),
		CreatedAt:    time.Now().UTC(),
	}
	if in.IsWicket {
		wt := in.WicketType
		ball.WicketType = &wt
		outID := batsmanOut.PlayerID
		ball.BatsmanOutID = &outID
		if in.FielderID != "" {
			f := in.FielderID
			ball.FielderID = &f
		}
	}

	// Striker's batting row.
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

	// Dismissal marks the out batsman, who may be at either end.
	if in.IsWicket {
		batsmanOut.IsOut = true
		wt := in.WicketType
		batsmanOut.DismissalType = &wt
		bowlerID := bowler.PlayerID
		batsmanOut.BowlerID = &bowlerID
		if in.FielderID != "" {
			f := in.FielderID
			batsmanOut.FielderID = &f
		}
		batsmanOut.IsOnStrike = false
	}

	// Bowler's row: full stats on a legal ball, runs and economy only on an
	// illegal one. Penalty runs are awarded against the fielding side, not
	// the bowler.
	bowlerRuns := teamRuns - in.PenaltyRuns
	bowler.RunsConceded += bowlerRuns
	if attr.Legal {
		bowler.BallsBowled++
		if in.IsWicket {
			bowler.WicketsTaken++
		}
	}
	recalcBowlingDerived(bowler)

	// Innings totals and extras breakdown.
	inn.TotalRuns += teamRuns
	if in.IsWicket {
		inn.TotalWickets++
	}
	if attr.Legal {
		inn.TotalBalls++
	}
	inn.Extras += attr.ExtraRuns
	inn.Wides += attr.Wides
	inn.NoBalls += attr.NoBalls
	inn.Byes += attr.Byes
	inn.LegByes += attr.LegByes
	state.recalcInningsDerived()

	// Current stand accumulates like the team total.
	result := &DeliveryResult{Ball: ball, Journal: journal, Bowler: bowler, Rotated: rotated}
	if p := state.Partnership; p != nil {
		p.RunsScored += teamRuns
		if attr.Legal {
			p.BallsFaced++
		}
		if in.IsWicket {
			p.IsCurrent = false
			now := time.Now().UTC()
			p.EndedAt = &now
			result.EndedPartnership = p
			state.Partnership = nil
		}
	}

	if rotated {
		state.swapStrike()
	}

	result.OverComplete = attr.Legal && inn.TotalBalls%6 == 0
	if inn.TotalWickets >= 10 || (oversPerSide > 0 && inn.TotalBalls >= oversPerSide*6) {
		inn.Status = models.InningsCompleted
		now := time.Now().UTC()
		inn.EndedAt = &now
		result.InningsComplete = true
	}

	result.TouchedBatting = dedupBatting(striker, nonStriker, batsmanOut)
	return result, nil
}

func buildJournal(state *InningsState, in DeliveryInput, rotated bool) (*models.ActionHistoryEntry, error) {
	snap := stateSnapshot{Innings: *state.Innings}
	if b := state.Striker(); b != nil {
		cp := *b
		snap.Striker = &cp
	}
	if b := state.NonStriker(); b != nil {
		cp := *b
		snap.NonStriker = &cp
	}
	if b := state.Bowler(); b != nil {
		cp := *b
		snap.Bowler = &cp
	}
	if p := state.Partnership; p != nil {
		cp := *p
		snap.Partnership = &cp
	}

	before, err := json.Marshal(snap)
	if err != nil {
		return nil, integrityf("marshal pre-delivery state: %v", err)
	}
	action, err := json.Marshal(actionRecord{Input: in, Rotated: rotated})
	if err != nil {
		return nil, integrityf("marshal action data: %v", err)
	}

	actionType := "ball"
	if in.IsWicket {
		actionType = "wicket"
	}
	return &models.ActionHistoryEntry{
		MatchID:     state.Innings.MatchID,
		InningsID:   state.Innings.ID,
		ActionType:  actionType,
		StateBefore: before,
		ActionData:  action,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func dedupBatting(entries ...*models.BattingEntry) []*models.BattingEntry {
	seen := make(map[string]bool, len(entries))
	out := make([]*models.BattingEntry, 0, len(entries))
	for _, e := range entries {
		if e == nil || seen[e.ID+e.PlayerID] {
			continue
		}
		seen[e.ID+e.PlayerID] = true
		out = append(out, e)
	}
	return out
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
