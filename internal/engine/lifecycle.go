package engine

import (
	"time"

	"github.com/crickline/scoring-service/pkg/models"
)

// SetupResult holds the rows created when an innings is initialized
type SetupResult struct {
	Batting     []*models.BattingEntry
	Bowling     *models.BowlingEntry
	Partnership *models.Partnership
}

// InitializeInnings designates the two openers and the opening bowler,
// moving the innings from awaiting_setup to in_progress. Batsman1 takes
// strike.
func InitializeInnings(state *InningsState, batsman1, batsman2, bowler string) (*SetupResult, error) {
	inn := state.Innings
	if inn.Status != models.InningsAwaitingSetup {
		return nil, conflictf("innings %s is %s, setup is only valid before play starts", inn.ID, inn.Status)
	}
	if batsman1 == "" || batsman2 == "" || bowler == "" {
		return nil, validationf("two opening batsmen and a bowler are required")
	}
	if batsman1 == batsman2 {
		return nil, validationf("opening batsmen must be two different players")
	}

	opener1 := &models.BattingEntry{
		InningsID:       inn.ID,
		PlayerID:        batsman1,
		BattingPosition: 1,
		IsOnStrike:      true,
	}
	opener2 := &models.BattingEntry{
		InningsID:       inn.ID,
		PlayerID:        batsman2,
		BattingPosition: 2,
	}
	opening := &models.BowlingEntry{
		InningsID:       inn.ID,
		PlayerID:        bowler,
		IsCurrentBowler: true,
	}
	stand := &models.Partnership{
		InningsID:    inn.ID,
		Batsman1ID:   batsman1,
		Batsman2ID:   batsman2,
		WicketNumber: 1,
		IsCurrent:    true,
		StartedAt:    time.Now().UTC(),
	}

	state.Batting = append(state.Batting, opener1, opener2)
	state.Bowling = append(state.Bowling, opening)
	state.Partnership = stand

	inn.StrikerID = &opener1.PlayerID
	inn.NonStrikerID = &opener2.PlayerID
	inn.CurrentBowlerID = &opening.PlayerID
	inn.Status = models.InningsInProgress
	now := time.Now().UTC()
	inn.StartedAt = &now

	return &SetupResult{
		Batting:     []*models.BattingEntry{opener1, opener2},
		Bowling:     opening,
		Partnership: stand,
	}, nil
}

// AddBatsmanResult holds the rows created and changed when the next batsman
// comes in after a wicket
type AddBatsmanResult struct {
	Entry          *models.BattingEntry
	Partnership    *models.Partnership
	TouchedBatting []*models.BattingEntry
}

// AddBatsman brings the next batsman to the crease after a wicket, pairing
// them with the surviving batsman in a new stand. The incoming batsman takes
// strike unless onStrike is false; the survivor keeps their physical end
// otherwise.
func AddBatsman(state *InningsState, playerID string, onStrike bool) (*AddBatsmanResult, error) {
	inn := state.Innings
	if inn.Status != models.InningsInProgress {
		return nil, conflictf("innings %s is %s, cannot add a batsman", inn.ID, inn.Status)
	}
	if inn.TotalWickets >= 10 {
		return nil, conflictf("all ten wickets have fallen")
	}
	if playerID == "" {
		return nil, validationf("player id is required")
	}
	if state.BattingByPlayer(playerID) != nil {
		return nil, conflictf("player %s has already batted in this innings", playerID)
	}

	survivor := state.Striker()
	if survivor == nil || survivor.IsOut {
		survivor = state.NonStriker()
	}
	if survivor == nil || survivor.IsOut {
		return nil, conflictf("no surviving batsman to pair with")
	}
	if state.Partnership != nil {
		return nil, conflictf("a partnership is already active")
	}

	position := 0
	for _, b := range state.Batting {
		if b.BattingPosition > position {
			position = b.BattingPosition
		}
	}

	entry := &models.BattingEntry{
		InningsID:       inn.ID,
		PlayerID:        playerID,
		BattingPosition: position + 1,
	}
	stand := &models.Partnership{
		InningsID:    inn.ID,
		Batsman1ID:   playerID,
		Batsman2ID:   survivor.PlayerID,
		WicketNumber: inn.TotalWickets + 1,
		IsCurrent:    true,
		StartedAt:    time.Now().UTC(),
	}

	state.Batting = append(state.Batting, entry)
	state.Partnership = stand

	if onStrike {
		inn.StrikerID = &entry.PlayerID
		inn.NonStrikerID = &survivor.PlayerID
	} else {
		inn.StrikerID = &survivor.PlayerID
		inn.NonStrikerID = &entry.PlayerID
	}
	state.syncStrikeFlags()

	return &AddBatsmanResult{
		Entry:          entry,
		Partnership:    stand,
		TouchedBatting: dedupBatting(entry, survivor),
	}, nil
}

// ChangeBowlerResult holds the bowling rows changed by a bowler change
type ChangeBowlerResult struct {
	Entry    *models.BowlingEntry
	Previous *models.BowlingEntry // nil when no bowler was set
	Created  bool
}

// ChangeBowler hands the ball to a different bowler, creating a bowling row
// on their first spell
func ChangeBowler(state *InningsState, playerID string) (*ChangeBowlerResult, error) {
	inn := state.Innings
	if inn.Status != models.InningsInProgress {
		return nil, conflictf("innings %s is %s, cannot change bowler", inn.ID, inn.Status)
	}
	if playerID == "" {
		return nil, validationf("player id is required")
	}
	if inn.CurrentBowlerID != nil && *inn.CurrentBowlerID == playerID {
		return nil, conflictf("player %s is already the current bowler", playerID)
	}

	result := &ChangeBowlerResult{Previous: state.Bowler()}

	entry := state.BowlingByPlayer(playerID)
	if entry == nil {
		entry = &models.BowlingEntry{
			InningsID: inn.ID,
			PlayerID:  playerID,
		}
		state.Bowling = append(state.Bowling, entry)
		result.Created = true
	}

	inn.CurrentBowlerID = &entry.PlayerID
	state.syncBowlerFlags()

	result.Entry = entry
	return result, nil
}

// SwitchStrike manually swaps the striker and non-striker, e.g. at the end
// of an over
func SwitchStrike(state *InningsState) ([]*models.BattingEntry, error) {
	inn := state.Innings
	if inn.Status != models.InningsInProgress {
		return nil, conflictf("innings %s is %s, cannot switch strike", inn.ID, inn.Status)
	}
	striker, nonStriker := state.Striker(), state.NonStriker()
	if striker == nil || nonStriker == nil || striker.IsOut || nonStriker.IsOut {
		return nil, validationf("expected exactly two not-out batsmen at the crease")
	}
	state.swapStrike()
	return dedupBatting(striker, nonStriker), nil
}

// CompleteInnings forces the innings into its terminal state. Completing an
// already-completed innings is a no-op so that a forced end after an
// automatic completion (all out, overs exhausted) stays valid.
func CompleteInnings(state *InningsState) error {
	inn := state.Innings
	switch inn.Status {
	case models.InningsCompleted:
		return nil
	case models.InningsAwaitingSetup, models.InningsInProgress:
		inn.Status = models.InningsCompleted
		now := time.Now().UTC()
		inn.EndedAt = &now
		return nil
	default:
		return conflictf("innings %s has unknown status %q", inn.ID, inn.Status)
	}
}

// NextInnings builds the second-innings shell after the first completes,
// with the batting and bowling teams swapped, awaiting setup
func NextInnings(match *models.Match, completed *models.Innings) *models.Innings {
	return &models.Innings{
		MatchID:       match.ID,
		InningNumber:  completed.InningNumber + 1,
		BattingTeamID: completed.BowlingTeamID,
		BowlingTeamID: completed.BattingTeamID,
		Status:        models.InningsAwaitingSetup,
	}
}
