package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crickline/scoring-service/pkg/models"
)

const (
	opener1 = "batsman-1"
	opener2 = "batsman-2"
	number3 = "batsman-3"
	bowler1 = "bowler-1"
	bowler2 = "bowler-2"
)

// liveState builds an in-progress innings with the openers at the crease
func liveState(t *testing.T) *InningsState {
	t.Helper()

	state := &InningsState{
		Innings: &models.Innings{
			ID:            "innings-1",
			MatchID:       "match-1",
			InningNumber:  1,
			BattingTeamID: "team-a",
			BowlingTeamID: "team-b",
			Status:        models.InningsAwaitingSetup,
		},
	}
	_, err := InitializeInnings(state, opener1, opener2, bowler1)
	require.NoError(t, err)
	return state
}

func record(t *testing.T, state *InningsState, in DeliveryInput) *DeliveryResult {
	t.Helper()
	result, err := RecordDelivery(state, in, 20)
	require.NoError(t, err)
	return result
}

func TestRecordDeliveryRunsOffTheBat(t *testing.T) {
	state := liveState(t)

	result := record(t, state, DeliveryInput{Runs: 4})

	inn := state.Innings
	assert.Equal(t, 4, inn.TotalRuns)
	assert.Equal(t, 1, inn.TotalBalls)
	assert.Equal(t, 0, inn.Extras)

	striker := state.BattingByPlayer(opener1)
	assert.Equal(t, 4, striker.RunsScored)
	assert.Equal(t, 1, striker.BallsFaced)
	assert.Equal(t, 1, striker.Fours)
	assert.InDelta(t, 400.0, striker.StrikeRate, 0.001)

	bowler := state.Bowler()
	assert.Equal(t, 4, bowler.RunsConceded)
	assert.Equal(t, 1, bowler.BallsBowled)

	assert.True(t, result.Ball.IsBoundary)
	assert.Equal(t, 1, result.Ball.OverNumber)
	assert.Equal(t, 1, result.Ball.BallNumber)
	assert.False(t, result.Rotated)

	// Even runs keep the striker.
	assert.Equal(t, opener1, *inn.StrikerID)
}

func TestRecordDeliverySingleRotatesStrike(t *testing.T) {
	state := liveState(t)

	result := record(t, state, DeliveryInput{Runs: 1})

	assert.True(t, result.Rotated)
	assert.Equal(t, opener2, *state.Innings.StrikerID)
	assert.Equal(t, opener1, *state.Innings.NonStrikerID)
	assert.True(t, state.BattingByPlayer(opener2).IsOnStrike)
	assert.False(t, state.BattingByPlayer(opener1).IsOnStrike)
}

func TestRecordDeliveryWidePlusTwo(t *testing.T) {
	state := liveState(t)

	result := record(t, state, DeliveryInput{Runs: 2, ExtraType: models.ExtraWide})

	inn := state.Innings
	assert.Equal(t, 3, inn.TotalRuns)
	assert.Equal(t, 0, inn.TotalBalls, "wide does not count toward the over")
	assert.Equal(t, 3, inn.Extras)
	assert.Equal(t, 3, inn.Wides)

	striker := state.BattingByPlayer(opener1)
	assert.Equal(t, 0, striker.RunsScored)
	assert.Equal(t, 0, striker.BallsFaced)

	bowler := state.Bowler()
	assert.Equal(t, 3, bowler.RunsConceded)
	assert.Equal(t, 0, bowler.BallsBowled)

	assert.False(t, result.OverComplete)
	// Two physical runs, no rotation.
	assert.Equal(t, opener1, *inn.StrikerID)
}

func TestRecordDeliveryNoBallFour(t *testing.T) {
	state := liveState(t)

	record(t, state, DeliveryInput{Runs: 4, ExtraType: models.ExtraNoBall})

	inn := state.Innings
	assert.Equal(t, 5, inn.TotalRuns)
	assert.Equal(t, 0, inn.TotalBalls)
	assert.Equal(t, 1, inn.Extras)
	assert.Equal(t, 1, inn.NoBalls)

	striker := state.BattingByPlayer(opener1)
	assert.Equal(t, 4, striker.RunsScored)
	assert.Equal(t, 0, striker.BallsFaced, "no-ball is not a ball faced")
	assert.Equal(t, 1, striker.Fours)

	assert.Equal(t, 5, state.Bowler().RunsConceded)
}

func TestRecordDeliveryPenaltyNotAgainstBowler(t *testing.T) {
	state := liveState(t)

	record(t, state, DeliveryInput{Runs: 1, PenaltyRuns: 5})

	assert.Equal(t, 6, state.Innings.TotalRuns)
	assert.Equal(t, 5, state.Innings.Extras)
	assert.Equal(t, 1, state.Bowler().RunsConceded)
}

func TestRecordDeliveryOverBoundary(t *testing.T) {
	state := liveState(t)

	// A wide in the middle must not advance the ball count.
	for i := 0; i < 3; i++ {
		result := record(t, state, DeliveryInput{Runs: 0})
		assert.False(t, result.OverComplete)
	}
	result := record(t, state, DeliveryInput{ExtraType: models.ExtraWide})
	assert.False(t, result.OverComplete)

	for i := 0; i < 2; i++ {
		result = record(t, state, DeliveryInput{Runs: 0})
		assert.False(t, result.OverComplete)
	}

	result = record(t, state, DeliveryInput{Runs: 0})
	assert.True(t, result.OverComplete, "sixth legal ball completes the over")
	assert.Equal(t, 6, state.Innings.TotalBalls)
	assert.Equal(t, 1.0, state.Innings.TotalOvers)

	// Next legal ball starts over 2.
	result = record(t, state, DeliveryInput{Runs: 0})
	assert.False(t, result.OverComplete)
	assert.Equal(t, 2, result.Ball.OverNumber)
	assert.Equal(t, 1, result.Ball.BallNumber)
}

func TestRecordDeliveryWicketClosesPartnership(t *testing.T) {
	state := liveState(t)
	record(t, state, DeliveryInput{Runs: 2})

	result := record(t, state, DeliveryInput{IsWicket: true, WicketType: "bowled"})

	striker := state.BattingByPlayer(opener1)
	assert.True(t, striker.IsOut)
	assert.Equal(t, "bowled", *striker.DismissalType)
	assert.False(t, striker.IsOnStrike)

	assert.Equal(t, 1, state.Innings.TotalWickets)
	assert.Equal(t, 1, state.Bowler().WicketsTaken)

	require.NotNil(t, result.EndedPartnership)
	assert.False(t, result.EndedPartnership.IsCurrent)
	assert.NotNil(t, result.EndedPartnership.EndedAt)
	assert.Equal(t, 2, result.EndedPartnership.RunsScored)
	assert.Nil(t, state.Partnership, "no stand until the next batsman arrives")
}

func TestRecordDeliveryRunOutNonStriker(t *testing.T) {
	state := liveState(t)

	result := record(t, state, DeliveryInput{
		Runs:         1,
		IsWicket:     true,
		WicketType:   "run_out",
		BatsmanOutID: opener2,
		FielderID:    "fielder-9",
	})

	out := state.BattingByPlayer(opener2)
	assert.True(t, out.IsOut)
	assert.Equal(t, "run_out", *out.DismissalType)
	require.NotNil(t, out.FielderID)
	assert.Equal(t, "fielder-9", *out.FielderID)

	// The striker keeps the run.
	assert.Equal(t, 1, state.BattingByPlayer(opener1).RunsScored)
	assert.False(t, state.BattingByPlayer(opener1).IsOut)

	assert.Equal(t, opener2, *result.Ball.BatsmanOutID)
	assert.False(t, result.Rotated, "wickets never rotate strike")
}

func TestRecordDeliveryWicketValidation(t *testing.T) {
	var validation *ValidationError

	state := liveState(t)
	_, err := RecordDelivery(state, DeliveryInput{IsWicket: true}, 20)
	require.ErrorAs(t, err, &validation, "wicket type is required")

	_, err = RecordDelivery(state, DeliveryInput{
		IsWicket:     true,
		WicketType:   "run_out",
		BatsmanOutID: "someone-else",
	}, 20)
	require.ErrorAs(t, err, &validation, "dismissed batsman must be at the crease")
}

func TestRecordDeliveryLifecycleGuards(t *testing.T) {
	var conflict *StateConflictError

	state := &InningsState{Innings: &models.Innings{ID: "i", Status: models.InningsAwaitingSetup}}
	_, err := RecordDelivery(state, DeliveryInput{Runs: 1}, 20)
	require.ErrorAs(t, err, &conflict)

	// A wicket leaves one batsman; the next delivery must be rejected until
	// the new batsman is added.
	live := liveState(t)
	record(t, live, DeliveryInput{IsWicket: true, WicketType: "bowled"})
	var validation *ValidationError
	_, err = RecordDelivery(live, DeliveryInput{Runs: 1}, 20)
	require.ErrorAs(t, err, &validation)
}

func TestRecordDeliveryCompletesInningsAllOut(t *testing.T) {
	state := liveState(t)
	state.Innings.TotalWickets = 9

	result := record(t, state, DeliveryInput{IsWicket: true, WicketType: "bowled"})

	assert.True(t, result.InningsComplete)
	assert.Equal(t, models.InningsCompleted, state.Innings.Status)
	assert.NotNil(t, state.Innings.EndedAt)
}

func TestRecordDeliveryCompletesInningsOversExhausted(t *testing.T) {
	state := liveState(t)

	var result *DeliveryResult
	for over := 0; over < 2; over++ {
		for ball := 0; ball < 6; ball++ {
			var err error
			result, err = RecordDelivery(state, DeliveryInput{Runs: 0}, 2)
			require.NoError(t, err)
		}
	}

	assert.True(t, result.InningsComplete)
	assert.True(t, result.OverComplete)
	assert.Equal(t, models.InningsCompleted, state.Innings.Status)
	assert.Equal(t, 12, state.Innings.TotalBalls)
}

func TestReplayLedgerAgreesWithIncrementalTotals(t *testing.T) {
	state := liveState(t)

	inputs := []DeliveryInput{
		{Runs: 4},
		{Runs: 1},
		{Runs: 2, ExtraType: models.ExtraWide},
		{Runs: 0},
		{Runs: 2, ExtraType: models.ExtraLegBye},
		{Runs: 6},
		{Runs: 4, ExtraType: models.ExtraNoBall},
		{Runs: 1, PenaltyRuns: 5},
		{IsWicket: true, WicketType: "caught", FielderID: "fielder-3"},
	}

	var ledger []*models.Ball
	for _, in := range inputs {
		result := record(t, state, in)
		ledger = append(ledger, result.Ball)

		if in.IsWicket {
			_, err := AddBatsman(state, number3, true)
			require.NoError(t, err)
		}
	}

	replayed := ReplayLedger(ledger)

	inn := state.Innings
	assert.Equal(t, inn.TotalRuns, replayed.TotalRuns)
	assert.Equal(t, inn.TotalWickets, replayed.TotalWickets)
	assert.Equal(t, inn.TotalBalls, replayed.TotalBalls)
	assert.Equal(t, inn.Extras, replayed.Extras)
	assert.Equal(t, inn.Wides, replayed.Wides)
	assert.Equal(t, inn.NoBalls, replayed.NoBalls)
	assert.Equal(t, inn.Byes, replayed.Byes)
	assert.Equal(t, inn.LegByes, replayed.LegByes)

	for _, entry := range state.Batting {
		got := replayed.Batting[entry.PlayerID]
		if got == nil {
			// A batsman who never faced a ball has no ledger entries.
			assert.Zero(t, entry.BallsFaced)
			assert.Zero(t, entry.RunsScored)
			continue
		}
		assert.Equal(t, entry.RunsScored, got.RunsScored, "runs for %s", entry.PlayerID)
		assert.Equal(t, entry.BallsFaced, got.BallsFaced, "balls for %s", entry.PlayerID)
		assert.Equal(t, entry.Fours, got.Fours)
		assert.Equal(t, entry.Sixes, got.Sixes)
		assert.Equal(t, entry.IsOut, got.IsOut)
	}
	for _, entry := range state.Bowling {
		got := replayed.Bowling[entry.PlayerID]
		require.NotNil(t, got)
		assert.Equal(t, entry.RunsConceded, got.RunsConceded)
		assert.Equal(t, entry.BallsBowled, got.BallsBowled)
		assert.Equal(t, entry.WicketsTaken, got.WicketsTaken)
	}
}
