package engine

import (
	"github.com/crickline/scoring-service/pkg/models"
)

// InningsState is the full mutable scoring state of one innings: the
// aggregate row, every batting and bowling row, and the current stand.
// The store loads it at the start of a mutation and persists every touched
// row in a single transaction afterwards.
type InningsState struct {
	Innings     *models.Innings
	Batting     []*models.BattingEntry
	Bowling     []*models.BowlingEntry
	Partnership *models.Partnership // current stand, nil between a wicket and the next batsman
}

// BattingByPlayer returns the batting row for a player, or nil
func (s *InningsState) BattingByPlayer(playerID string) *models.BattingEntry {
	for _, b := range s.Batting {
		if b.PlayerID == playerID {
			return b
		}
	}
	return nil
}

// BowlingByPlayer returns the bowling row for a player, or nil
func (s *InningsState) BowlingByPlayer(playerID string) *models.BowlingEntry {
	for _, b := range s.Bowling {
		if b.PlayerID == playerID {
			return b
		}
	}
	return nil
}

// Striker returns the batting row the innings' striker reference points at
func (s *InningsState) Striker() *models.BattingEntry {
	if s.Innings.StrikerID == nil {
		return nil
	}
	return s.BattingByPlayer(*s.Innings.StrikerID)
}

// NonStriker returns the batting row at the non-striker's end
func (s *InningsState) NonStriker() *models.BattingEntry {
	if s.Innings.NonStrikerID == nil {
		return nil
	}
	return s.BattingByPlayer(*s.Innings.NonStrikerID)
}

// Bowler returns the bowling row the current-bowler reference points at
func (s *InningsState) Bowler() *models.BowlingEntry {
	if s.Innings.CurrentBowlerID == nil {
		return nil
	}
	return s.BowlingByPlayer(*s.Innings.CurrentBowlerID)
}

// swapStrike exchanges the striker and non-striker references
func (s *InningsState) swapStrike() {
	s.Innings.StrikerID, s.Innings.NonStrikerID = s.Innings.NonStrikerID, s.Innings.StrikerID
	s.syncStrikeFlags()
}

// syncStrikeFlags rewrites the derived is_on_strike booleans from the
// authoritative striker reference
func (s *InningsState) syncStrikeFlags() {
	for _, b := range s.Batting {
		b.IsOnStrike = s.Innings.StrikerID != nil && b.PlayerID == *s.Innings.StrikerID && !b.IsOut
	}
}

// syncBowlerFlags rewrites the derived is_current_bowler booleans from the
// authoritative current-bowler reference
func (s *InningsState) syncBowlerFlags() {
	for _, b := range s.Bowling {
		b.IsCurrentBowler = s.Innings.CurrentBowlerID != nil && b.PlayerID == *s.Innings.CurrentBowlerID
	}
}

// recalcInningsDerived refreshes the derived overs and run-rate fields from
// the ball and run counters
func (s *InningsState) recalcInningsDerived() {
	inn := s.Innings
	inn.TotalOvers = models.OversDecimal(inn.TotalBalls)
	if inn.TotalBalls > 0 {
		inn.RunRate = float64(inn.TotalRuns) / models.OversFraction(inn.TotalBalls)
	} else {
		inn.RunRate = 0
	}
}

func recalcBattingDerived(b *models.BattingEntry) {
	if b.BallsFaced > 0 {
		b.StrikeRate = float64(b.RunsScored) / float64(b.BallsFaced) * 100
	} else {
		b.StrikeRate = 0
	}
}

func recalcBowlingDerived(b *models.BowlingEntry) {
	b.OversBowled = models.OversDecimal(b.BallsBowled)
	if b.BallsBowled > 0 {
		b.EconomyRate = float64(b.RunsConceded) / models.OversFraction(b.BallsBowled)
	} else {
		b.EconomyRate = 0
	}
}
