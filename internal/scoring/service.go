// Package scoring is the operation surface of the live-scoring engine. It
// serializes mutations per innings, runs the pure engine against loaded
// state, applies the result through the store in one transaction, and then
// projects the fresh read model and notifies viewers.
package scoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/crickline/scoring-service/internal/engine"
	"github.com/crickline/scoring-service/internal/standings"
	"github.com/crickline/scoring-service/internal/store"
	"github.com/crickline/scoring-service/pkg/models"
)

// Notifier publishes change notifications after committed mutations
type Notifier interface {
	PublishChange(ctx context.Context, n models.ChangeNotification) error
}

// Snapshots is the Redis read-model projection
type Snapshots interface {
	WriteInningsSnapshot(ctx context.Context, view *store.CurrentInningsView) error
	ReadInningsSnapshot(ctx context.Context, matchID string) (*store.CurrentInningsView, error)
	DeleteInningsSnapshot(ctx context.Context, matchID string) error
	WritePointsTable(ctx context.Context, table []models.PointsTableRow) error
	ReadPointsTable(ctx context.Context) ([]models.PointsTableRow, error)
	InvalidatePointsTable(ctx context.Context) error
}

// Service coordinates scoring operations. At most one mutation is in flight
// per innings; readers are never blocked.
type Service struct {
	store     store.Store
	notifier  Notifier
	snapshots Snapshots

	// inningsID -> *sync.Mutex
	locks sync.Map
}

// NewService creates the scoring service. Notifier and snapshots may be nil;
// the service then mutates state without fan-out.
func NewService(st store.Store, notifier Notifier, snapshots Snapshots) *Service {
	return &Service{
		store:     st,
		notifier:  notifier,
		snapshots: snapshots,
	}
}

func (s *Service) lock(inningsID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(inningsID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// InitializeRequest names the openers and the opening bowler
type InitializeRequest struct {
	Batsman1ID string `json:"batsman1_id"`
	Batsman2ID string `json:"batsman2_id"`
	BowlerID   string `json:"bowler_id"`
}

// InitializeInnings designates the openers and opening bowler and moves the
// innings into progress
func (s *Service) InitializeInnings(ctx context.Context, inningsID string, req InitializeRequest) (*models.Innings, error) {
	mu := s.lock(inningsID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.store.GetInningsState(ctx, inningsID)
	if err != nil {
		return nil, err
	}

	setup, err := engine.InitializeInnings(state, req.Batsman1ID, req.Batsman2ID, req.BowlerID)
	if err != nil {
		return nil, err
	}
	if err := s.store.ApplySetup(ctx, state, setup); err != nil {
		return nil, err
	}

	// First delivery of a match moves it live.
	if state.Innings.InningNumber == 1 {
		if match, err := s.store.GetMatch(ctx, state.Innings.MatchID); err == nil && match.Status == models.MatchUpcoming {
			match.Status = models.MatchLive
			now := time.Now().UTC()
			match.StartedAt = &now
			if err := s.store.UpdateMatch(ctx, match); err != nil {
				fmt.Printf("[Scoring] Failed to mark match %s live: %v\n", match.ID, err)
			}
		}
	}

	s.afterInningsChange(ctx, state.Innings.MatchID, inningsID)
	return state.Innings, nil
}

// RecordBallResponse is what record_ball returns to the caller. OverComplete
// tells the scorer to demand a bowler change before the next delivery.
type RecordBallResponse struct {
	Ball            *models.Ball   `json:"ball"`
	Innings         models.Innings `json:"innings"`
	Rotated         bool           `json:"strike_rotated"`
	OverComplete    bool           `json:"over_complete"`
	InningsComplete bool           `json:"innings_complete"`
}

// RecordBall records one delivery against an innings
func (s *Service) RecordBall(ctx context.Context, inningsID string, in engine.DeliveryInput) (*RecordBallResponse, error) {
	mu := s.lock(inningsID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.store.GetInningsState(ctx, inningsID)
	if err != nil {
		return nil, err
	}
	match, err := s.store.GetMatch(ctx, state.Innings.MatchID)
	if err != nil {
		return nil, err
	}

	result, err := engine.RecordDelivery(state, in, match.OversPerSide)
	if err != nil {
		return nil, err
	}
	if err := s.store.ApplyDelivery(ctx, state, result); err != nil {
		return nil, err
	}

	if result.InningsComplete {
		if err := s.advance(ctx, match, state.Innings); err != nil {
			fmt.Printf("[Scoring] Failed to advance match %s after innings %s: %v\n", match.ID, inningsID, err)
		}
	}

	s.afterInningsChange(ctx, match.ID, inningsID)
	return &RecordBallResponse{
		Ball:            result.Ball,
		Innings:         *state.Innings,
		Rotated:         result.Rotated,
		OverComplete:    result.OverComplete,
		InningsComplete: result.InningsComplete,
	}, nil
}

// UndoLastAction reverses the single most recent delivery of an innings. The
// undo window closes once the match moves on: a later innings or a recorded
// result makes the journal unusable.
func (s *Service) UndoLastAction(ctx context.Context, inningsID string) (*models.Innings, error) {
	mu := s.lock(inningsID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.store.GetInningsState(ctx, inningsID)
	if err != nil {
		return nil, err
	}
	match, err := s.store.GetMatch(ctx, state.Innings.MatchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchCompleted {
		return nil, &engine.StateConflictError{Msg: fmt.Sprintf("match %s is completed, nothing can be undone", match.ID)}
	}
	all, err := s.store.GetMatchInnings(ctx, match.ID)
	if err != nil {
		return nil, err
	}
	for _, inn := range all {
		if inn.InningNumber > state.Innings.InningNumber {
			return nil, &engine.StateConflictError{Msg: fmt.Sprintf("innings %d has started, innings %d can no longer be undone",
				inn.InningNumber, state.Innings.InningNumber)}
		}
	}

	action, err := s.store.GetLastAction(ctx, inningsID)
	if err != nil {
		return nil, err
	}
	ball, err := s.store.GetLastBall(ctx, inningsID)
	if err != nil {
		return nil, err
	}

	var prior *models.Partnership
	if ball != nil && ball.IsWicket {
		prior, err = s.store.GetLatestEndedPartnership(ctx, inningsID)
		if err != nil {
			return nil, err
		}
	}

	result, err := engine.ReverseDelivery(engine.UndoInput{
		State:            state,
		Ball:             ball,
		Action:           action,
		PriorPartnership: prior,
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.ApplyUndo(ctx, state, result, ball.ID, action.ID); err != nil {
		return nil, err
	}

	s.afterInningsChange(ctx, match.ID, inningsID)
	return state.Innings, nil
}

// AddBatsman brings the next batsman in after a wicket
func (s *Service) AddBatsman(ctx context.Context, inningsID, playerID string, onStrike bool) (*models.BattingEntry, error) {
	mu := s.lock(inningsID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.store.GetInningsState(ctx, inningsID)
	if err != nil {
		return nil, err
	}

	result, err := engine.AddBatsman(state, playerID, onStrike)
	if err != nil {
		return nil, err
	}
	if err := s.store.ApplyAddBatsman(ctx, state, result); err != nil {
		return nil, err
	}

	s.afterInningsChange(ctx, state.Innings.MatchID, inningsID)
	return result.Entry, nil
}

// ChangeBowler hands the ball to a different bowler
func (s *Service) ChangeBowler(ctx context.Context, inningsID, playerID string) (*models.BowlingEntry, error) {
	mu := s.lock(inningsID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.store.GetInningsState(ctx, inningsID)
	if err != nil {
		return nil, err
	}

	result, err := engine.ChangeBowler(state, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.store.ApplyChangeBowler(ctx, state, result); err != nil {
		return nil, err
	}

	s.afterInningsChange(ctx, state.Innings.MatchID, inningsID)
	return result.Entry, nil
}

// SwitchStrike manually swaps the striker and non-striker
func (s *Service) SwitchStrike(ctx context.Context, inningsID string) (*models.Innings, error) {
	mu := s.lock(inningsID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.store.GetInningsState(ctx, inningsID)
	if err != nil {
		return nil, err
	}

	touched, err := engine.SwitchStrike(state)
	if err != nil {
		return nil, err
	}
	if err := s.store.ApplyStrikeChange(ctx, state, touched); err != nil {
		return nil, err
	}

	s.afterInningsChange(ctx, state.Innings.MatchID, inningsID)
	return state.Innings, nil
}

// EndInnings forces the innings into its terminal state and advances the
// match: innings one hands over to innings two with the teams swapped,
// innings two resolves the match result
func (s *Service) EndInnings(ctx context.Context, inningsID string) (*models.Innings, error) {
	mu := s.lock(inningsID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.store.GetInningsState(ctx, inningsID)
	if err != nil {
		return nil, err
	}
	match, err := s.store.GetMatch(ctx, state.Innings.MatchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchCompleted {
		return nil, &engine.StateConflictError{Msg: fmt.Sprintf("match %s is already completed", match.ID)}
	}

	alreadyComplete := state.Innings.Status == models.InningsCompleted
	if err := engine.CompleteInnings(state); err != nil {
		return nil, err
	}
	if !alreadyComplete {
		if err := s.store.UpdateInnings(ctx, state.Innings); err != nil {
			return nil, err
		}
	}

	if err := s.advance(ctx, match, state.Innings); err != nil {
		return nil, err
	}

	s.afterInningsChange(ctx, match.ID, inningsID)
	return state.Innings, nil
}

// EndMatch force-completes the match from whatever state it is in, resolving
// the result over however many innings exist
func (s *Service) EndMatch(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchCompleted {
		return nil, &engine.StateConflictError{Msg: fmt.Sprintf("match %s is already completed", matchID)}
	}

	all, err := s.store.GetMatchInnings(ctx, matchID)
	if err != nil {
		return nil, err
	}
	for _, inn := range all {
		if inn.Status == models.InningsCompleted {
			continue
		}
		mu := s.lock(inn.ID)
		mu.Lock()
		state, err := s.store.GetInningsState(ctx, inn.ID)
		if err == nil {
			if err := engine.CompleteInnings(state); err == nil {
				if err := s.store.UpdateInnings(ctx, state.Innings); err != nil {
					fmt.Printf("[Scoring] Failed to complete innings %s: %v\n", inn.ID, err)
				}
				*inn = *state.Innings
			}
		}
		mu.Unlock()
	}

	if err := s.resolveMatch(ctx, match, all); err != nil {
		return nil, err
	}
	return s.store.GetMatch(ctx, matchID)
}

// advance moves the match forward after an innings completes
func (s *Service) advance(ctx context.Context, match *models.Match, completed *models.Innings) error {
	if completed.InningNumber == 1 {
		next := engine.NextInnings(match, completed)
		match.CurrentInning = next.InningNumber
		match.Status = models.MatchLive
		if err := s.store.CreateInnings(ctx, next, match); err != nil {
			return err
		}
		fmt.Printf("[Scoring] Innings %d created for match %s\n", next.InningNumber, match.ID)
		return nil
	}

	all, err := s.store.GetMatchInnings(ctx, match.ID)
	if err != nil {
		return err
	}
	return s.resolveMatch(ctx, match, all)
}

func (s *Service) resolveMatch(ctx context.Context, match *models.Match, innings []*models.Innings) error {
	res := engine.ResolveResult(innings)
	if err := s.store.CompleteMatch(ctx, match.ID, res, time.Now().UTC()); err != nil {
		return err
	}
	fmt.Printf("[Scoring] Match %s completed: %s\n", match.ID, res.ResultText)

	if s.snapshots != nil {
		if err := s.snapshots.InvalidatePointsTable(ctx); err != nil {
			fmt.Printf("[Scoring] Failed to invalidate points table: %v\n", err)
		}
	}
	s.publish(ctx, models.ChangeNotification{Type: "match", MatchID: match.ID, Timestamp: time.Now().UTC()})
	s.publish(ctx, models.ChangeNotification{Type: "points_table", Timestamp: time.Now().UTC()})
	return nil
}

// CurrentInnings returns the live-scoring read model, served from the Redis
// snapshot when present
func (s *Service) CurrentInnings(ctx context.Context, matchID string) (*store.CurrentInningsView, error) {
	if s.snapshots != nil {
		if view, err := s.snapshots.ReadInningsSnapshot(ctx, matchID); err == nil {
			return view, nil
		}
	}

	view, err := s.store.GetCurrentInnings(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if s.snapshots != nil {
		if err := s.snapshots.WriteInningsSnapshot(ctx, view); err != nil {
			fmt.Printf("[Scoring] Failed to write innings snapshot for match %s: %v\n", matchID, err)
		}
	}
	return view, nil
}

// PointsTable rebuilds the standings from completed matches, cached until
// the next result or archive change
func (s *Service) PointsTable(ctx context.Context) ([]models.PointsTableRow, error) {
	if s.snapshots != nil {
		if table, err := s.snapshots.ReadPointsTable(ctx); err == nil {
			return table, nil
		}
	}

	teams, err := s.store.GetTeams(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := s.store.GetCompletedMatches(ctx)
	if err != nil {
		return nil, err
	}

	table := standings.Compute(teams, matches)
	if s.snapshots != nil {
		if err := s.snapshots.WritePointsTable(ctx, table); err != nil {
			fmt.Printf("[Scoring] Failed to cache points table: %v\n", err)
		}
	}
	return table, nil
}

// ArchiveMatch flips a match's archived flag and drops it from the standings
func (s *Service) ArchiveMatch(ctx context.Context, matchID string, archived bool) error {
	if err := s.store.SetMatchArchived(ctx, matchID, archived); err != nil {
		return err
	}
	if s.snapshots != nil {
		if err := s.snapshots.InvalidatePointsTable(ctx); err != nil {
			fmt.Printf("[Scoring] Failed to invalidate points table: %v\n", err)
		}
	}
	s.publish(ctx, models.ChangeNotification{Type: "points_table", Timestamp: time.Now().UTC()})
	return nil
}

// afterInningsChange projects the fresh read model and tells viewers to
// re-fetch. Projection failures are logged, never surfaced: the transaction
// already committed and the database stays authoritative.
func (s *Service) afterInningsChange(ctx context.Context, matchID, inningsID string) {
	if s.snapshots != nil {
		view, err := s.store.GetCurrentInnings(ctx, matchID)
		if err != nil {
			fmt.Printf("[Scoring] Failed to build snapshot for match %s: %v\n", matchID, err)
		} else if err := s.snapshots.WriteInningsSnapshot(ctx, view); err != nil {
			fmt.Printf("[Scoring] Failed to write snapshot for match %s: %v\n", matchID, err)
		}
	}
	s.publish(ctx, models.ChangeNotification{
		Type:      "innings",
		MatchID:   matchID,
		InningsID: inningsID,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Service) publish(ctx context.Context, n models.ChangeNotification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishChange(ctx, n); err != nil {
		fmt.Printf("[Scoring] Failed to publish %s notification: %v\n", n.Type, err)
	}
}
