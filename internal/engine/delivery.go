package engine

import (
	"github.com/crickline/scoring-service/pkg/models"
)

// DeliveryInput carries everything the operator enters for one delivery
type DeliveryInput struct {
	Runs          int              `json:"runs"` // base runs off the delivery (0-6)
	ExtraType     models.ExtraType `json:"extra_type,omitempty"`
	OverthrowRuns int              `json:"overthrow_runs,omitempty"`
	PenaltyRuns   int              `json:"penalty_runs,omitempty"`
	IsWicket      bool             `json:"is_wicket,omitempty"`
	WicketType    string           `json:"wicket_type,omitempty"`
	BatsmanOutID  string           `json:"batsman_out_id,omitempty"` // defaults to the striker
	FielderID     string           `json:"fielder_id,omitempty"`
	PhysicalRuns  *int             `json:"physical_runs,omitempty"` // times the batsmen crossed
}

// Attribution is the computed split of a delivery per the scoring rules:
// what the striker is credited, what goes to extras, and whether the
// delivery is legal (counts toward the over and as a ball faced).
type Attribution struct {
	BatsmanRuns int
	ExtraRuns   int
	Legal       bool
	Wides       int
	NoBalls     int
	Byes        int
	LegByes     int
}

// TeamRuns is the total added to the team score
func (a Attribution) TeamRuns() int { return a.BatsmanRuns + a.ExtraRuns }

// Attribute classifies a delivery and computes run attribution.
//
//	normal, from bat     credit=base+overthrow  extras=penalty             legal
//	bye / leg bye        credit=0               extras=base+ot+penalty     legal
//	wide                 credit=0               extras=1+base+ot+penalty   not legal
//	no-ball, from bat    credit=base+overthrow  extras=1+penalty           not legal
//	no-ball bye/leg-bye  credit=0               extras=1+base+ot+penalty   not legal
func Attribute(in DeliveryInput) (Attribution, error) {
	if in.Runs < 0 || in.Runs > 6 {
		return Attribution{}, validationf("runs must be between 0 and 6, got %d", in.Runs)
	}
	if in.OverthrowRuns < 0 || in.PenaltyRuns < 0 {
		return Attribution{}, validationf("overthrow and penalty runs cannot be negative")
	}
	if in.PhysicalRuns != nil && *in.PhysicalRuns < 0 {
		return Attribution{}, validationf("physical runs cannot be negative")
	}

	ot := in.OverthrowRuns
	pen := in.PenaltyRuns

	switch in.ExtraType {
	case models.ExtraNone:
		return Attribution{
			BatsmanRuns: in.Runs + ot,
			ExtraRuns:   pen,
			Legal:       true,
		}, nil
	case models.ExtraBye:
		return Attribution{
			ExtraRuns: in.Runs + ot + pen,
			Legal:     true,
			Byes:      in.Runs + ot,
		}, nil
	case models.ExtraLegBye:
		return Attribution{
			ExtraRuns: in.Runs + ot + pen,
			Legal:     true,
			LegByes:   in.Runs + ot,
		}, nil
	case models.ExtraWide:
		return Attribution{
			ExtraRuns: 1 + in.Runs + ot + pen,
			Wides:     1 + in.Runs + ot,
		}, nil
	case models.ExtraNoBall:
		return Attribution{
			BatsmanRuns: in.Runs + ot,
			ExtraRuns:   1 + pen,
			NoBalls:     1,
		}, nil
	case models.ExtraNoBallBye:
		return Attribution{
			ExtraRuns: 1 + in.Runs + ot + pen,
			NoBalls:   1,
			Byes:      in.Runs + ot,
		}, nil
	case models.ExtraNoBallLegBye:
		return Attribution{
			ExtraRuns: 1 + in.Runs + ot + pen,
			NoBalls:   1,
			LegByes:   in.Runs + ot,
		}, nil
	default:
		return Attribution{}, validationf("unknown extra type %q", in.ExtraType)
	}
}

// physicalRuns returns the runs physically run between the wickets, used for
// strike rotation. When the operator does not supply an explicit value it is
// derived from the base runs, never from the credited runs: on byes and
// leg-byes the striker is credited nothing but the batsmen still cross.
func (in DeliveryInput) physicalRuns() int {
	if in.PhysicalRuns != nil {
		return *in.PhysicalRuns
	}
	return in.Runs
}

// rotates reports whether this delivery swaps the striker and non-striker.
// A wicket never triggers rotation by itself.
func (in DeliveryInput) rotates() bool {
	return !in.IsWicket && in.physicalRuns()%2 != 0
}

// attributionFromBall reconstructs the attribution of a persisted ledger
// entry. Undo and full-ledger replay both depend on this agreeing with what
// Attribute produced when the ball was recorded.
func attributionFromBall(ball *models.Ball) Attribution {
	a := Attribution{
		BatsmanRuns: ball.RunsScored,
		ExtraRuns:   ball.Extras,
	}
	typeRuns := ball.Extras - ball.PenaltyRuns // extras attributable to the extra type

	switch ball.ExtraType {
	case models.ExtraNone:
		a.Legal = true
	case models.ExtraBye:
		a.Legal = true
		a.Byes = typeRuns
	case models.ExtraLegBye:
		a.Legal = true
		a.LegByes = typeRuns
	case models.ExtraWide:
		a.Wides = typeRuns
	case models.ExtraNoBall:
		a.NoBalls = 1
	case models.ExtraNoBallBye:
		a.NoBalls = 1
		a.Byes = typeRuns - 1
	case models.ExtraNoBallLegBye:
		a.NoBalls = 1
		a.LegByes = typeRuns - 1
	}
	return a
}
