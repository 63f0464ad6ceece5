package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crickline/scoring-service/pkg/models"
)

func TestInitializeInnings(t *testing.T) {
	state := &InningsState{
		Innings: &models.Innings{
			ID:           "innings-1",
			MatchID:      "match-1",
			InningNumber: 1,
			Status:       models.InningsAwaitingSetup,
		},
	}

	setup, err := InitializeInnings(state, opener1, opener2, bowler1)
	require.NoError(t, err)

	assert.Equal(t, models.InningsInProgress, state.Innings.Status)
	assert.NotNil(t, state.Innings.StartedAt)
	assert.Equal(t, opener1, *state.Innings.StrikerID)
	assert.Equal(t, opener2, *state.Innings.NonStrikerID)
	assert.Equal(t, bowler1, *state.Innings.CurrentBowlerID)

	require.Len(t, setup.Batting, 2)
	assert.Equal(t, 1, setup.Batting[0].BattingPosition)
	assert.True(t, setup.Batting[0].IsOnStrike)
	assert.Equal(t, 2, setup.Batting[1].BattingPosition)
	assert.False(t, setup.Batting[1].IsOnStrike)

	assert.True(t, setup.Bowling.IsCurrentBowler)

	require.NotNil(t, setup.Partnership)
	assert.Equal(t, 1, setup.Partnership.WicketNumber)
	assert.True(t, setup.Partnership.IsCurrent)
}

func TestInitializeInningsValidation(t *testing.T) {
	var conflict *StateConflictError
	var validation *ValidationError

	state := liveState(t)
	_, err := InitializeInnings(state, opener1, opener2, bowler1)
	require.ErrorAs(t, err, &conflict, "already in progress")

	fresh := &InningsState{Innings: &models.Innings{ID: "i", Status: models.InningsAwaitingSetup}}
	_, err = InitializeInnings(fresh, opener1, "", bowler1)
	require.ErrorAs(t, err, &validation)

	_, err = InitializeInnings(fresh, opener1, opener1, bowler1)
	require.ErrorAs(t, err, &validation, "openers must differ")
}

func TestAddBatsmanAfterWicket(t *testing.T) {
	state := liveState(t)
	record(t, state, DeliveryInput{IsWicket: true, WicketType: "bowled"})

	result, err := AddBatsman(state, number3, true)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Entry.BattingPosition)
	assert.Equal(t, number3, *state.Innings.StrikerID)
	assert.Equal(t, opener2, *state.Innings.NonStrikerID)

	require.NotNil(t, state.Partnership)
	assert.Equal(t, 2, state.Partnership.WicketNumber)
	assert.Equal(t, number3, state.Partnership.Batsman1ID)
	assert.Equal(t, opener2, state.Partnership.Batsman2ID)
}

func TestAddBatsmanAtNonStrikersEnd(t *testing.T) {
	state := liveState(t)
	record(t, state, DeliveryInput{IsWicket: true, WicketType: "bowled"})

	_, err := AddBatsman(state, number3, false)
	require.NoError(t, err)

	assert.Equal(t, opener2, *state.Innings.StrikerID)
	assert.Equal(t, number3, *state.Innings.NonStrikerID)
}

func TestAddBatsmanGuards(t *testing.T) {
	var conflict *StateConflictError

	state := liveState(t)

	// No wicket yet: a stand is active.
	_, err := AddBatsman(state, number3, true)
	require.ErrorAs(t, err, &conflict)

	record(t, state, DeliveryInput{IsWicket: true, WicketType: "bowled"})

	// A player already in the order cannot return.
	_, err = AddBatsman(state, opener2, true)
	require.ErrorAs(t, err, &conflict)
}

func TestChangeBowler(t *testing.T) {
	state := liveState(t)

	result, err := ChangeBowler(state, bowler2)
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, bowler2, *state.Innings.CurrentBowlerID)
	assert.True(t, result.Entry.IsCurrentBowler)
	require.NotNil(t, result.Previous)
	assert.False(t, result.Previous.IsCurrentBowler)

	// Switching back reuses the existing row for a second spell.
	result, err = ChangeBowler(state, bowler1)
	require.NoError(t, err)
	assert.False(t, result.Created)

	var conflict *StateConflictError
	_, err = ChangeBowler(state, bowler1)
	require.ErrorAs(t, err, &conflict, "already the current bowler")
}

func TestSwitchStrike(t *testing.T) {
	state := liveState(t)

	_, err := SwitchStrike(state)
	require.NoError(t, err)
	assert.Equal(t, opener2, *state.Innings.StrikerID)
	assert.Equal(t, opener1, *state.Innings.NonStrikerID)

	// Between a wicket and the next batsman there is only one batter.
	record(t, state, DeliveryInput{IsWicket: true, WicketType: "bowled"})
	var validation *ValidationError
	_, err = SwitchStrike(state)
	require.ErrorAs(t, err, &validation)
}

func TestCompleteInningsIdempotent(t *testing.T) {
	state := liveState(t)

	require.NoError(t, CompleteInnings(state))
	assert.Equal(t, models.InningsCompleted, state.Innings.Status)
	endedAt := state.Innings.EndedAt

	// Forcing an already-completed innings stays valid.
	require.NoError(t, CompleteInnings(state))
	assert.Equal(t, endedAt, state.Innings.EndedAt)
}

func TestNextInningsSwapsTeams(t *testing.T) {
	match := &models.Match{ID: "match-1"}
	completed := &models.Innings{
		MatchID:       "match-1",
		InningNumber:  1,
		BattingTeamID: "team-a",
		BowlingTeamID: "team-b",
		Status:        models.InningsCompleted,
	}

	next := NextInnings(match, completed)

	assert.Equal(t, 2, next.InningNumber)
	assert.Equal(t, "team-b", next.BattingTeamID)
	assert.Equal(t, "team-a", next.BowlingTeamID)
	assert.Equal(t, models.InningsAwaitingSetup, next.Status)
}
