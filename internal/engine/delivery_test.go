package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crickline/scoring-service/pkg/models"
)

func intp(n int) *int { return &n }

func TestAttribute(t *testing.T) {
	tests := []struct {
		name  string
		in    DeliveryInput
		want  Attribution
		total int
	}{
		{
			name:  "dot ball",
			in:    DeliveryInput{Runs: 0},
			want:  Attribution{Legal: true},
			total: 0,
		},
		{
			name:  "four off the bat",
			in:    DeliveryInput{Runs: 4},
			want:  Attribution{BatsmanRuns: 4, Legal: true},
			total: 4,
		},
		{
			name:  "two plus overthrow",
			in:    DeliveryInput{Runs: 2, OverthrowRuns: 4},
			want:  Attribution{BatsmanRuns: 6, Legal: true},
			total: 6,
		},
		{
			name:  "bye",
			in:    DeliveryInput{Runs: 2, ExtraType: models.ExtraBye},
			want:  Attribution{ExtraRuns: 2, Legal: true, Byes: 2},
			total: 2,
		},
		{
			name:  "leg bye with overthrow",
			in:    DeliveryInput{Runs: 1, OverthrowRuns: 1, ExtraType: models.ExtraLegBye},
			want:  Attribution{ExtraRuns: 2, Legal: true, LegByes: 2},
			total: 2,
		},
		{
			name:  "plain wide",
			in:    DeliveryInput{ExtraType: models.ExtraWide},
			want:  Attribution{ExtraRuns: 1, Wides: 1},
			total: 1,
		},
		{
			name:  "wide plus two run",
			in:    DeliveryInput{Runs: 2, ExtraType: models.ExtraWide},
			want:  Attribution{ExtraRuns: 3, Wides: 3},
			total: 3,
		},
		{
			name:  "no-ball hit for four",
			in:    DeliveryInput{Runs: 4, ExtraType: models.ExtraNoBall},
			want:  Attribution{BatsmanRuns: 4, ExtraRuns: 1, NoBalls: 1},
			total: 5,
		},
		{
			name:  "no-ball byes",
			in:    DeliveryInput{Runs: 2, ExtraType: models.ExtraNoBallBye},
			want:  Attribution{ExtraRuns: 3, NoBalls: 1, Byes: 2},
			total: 3,
		},
		{
			name:  "no-ball leg byes",
			in:    DeliveryInput{Runs: 1, ExtraType: models.ExtraNoBallLegBye},
			want:  Attribution{ExtraRuns: 2, NoBalls: 1, LegByes: 1},
			total: 2,
		},
		{
			name:  "penalty on a normal ball",
			in:    DeliveryInput{Runs: 1, PenaltyRuns: 5},
			want:  Attribution{BatsmanRuns: 1, ExtraRuns: 5, Legal: true},
			total: 6,
		},
		{
			name:  "penalty on a wide",
			in:    DeliveryInput{ExtraType: models.ExtraWide, PenaltyRuns: 5},
			want:  Attribution{ExtraRuns: 6, Wides: 1},
			total: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Attribute(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.total, got.TeamRuns())
		})
	}
}

func TestAttributeRejectsInvalidInput(t *testing.T) {
	var validation *ValidationError

	_, err := Attribute(DeliveryInput{Runs: 7})
	require.ErrorAs(t, err, &validation)

	_, err = Attribute(DeliveryInput{Runs: -1})
	require.ErrorAs(t, err, &validation)

	_, err = Attribute(DeliveryInput{Runs: 1, OverthrowRuns: -2})
	require.ErrorAs(t, err, &validation)

	_, err = Attribute(DeliveryInput{Runs: 1, ExtraType: models.ExtraType("hitwicket")})
	require.ErrorAs(t, err, &validation)
}

func TestRotation(t *testing.T) {
	// Odd physical runs rotate, even do not, wickets never do.
	assert.True(t, DeliveryInput{Runs: 1}.rotates())
	assert.True(t, DeliveryInput{Runs: 3}.rotates())
	assert.False(t, DeliveryInput{Runs: 0}.rotates())
	assert.False(t, DeliveryInput{Runs: 2}.rotates())
	assert.False(t, DeliveryInput{Runs: 4}.rotates())
	assert.False(t, DeliveryInput{Runs: 1, IsWicket: true}.rotates())

	// Byes rotate on the base runs even though the striker is credited
	// nothing.
	assert.True(t, DeliveryInput{Runs: 1, ExtraType: models.ExtraBye}.rotates())

	// Explicit physical runs override the base-run default: a boundary with
	// one crossing before the ball reached the rope.
	assert.True(t, DeliveryInput{Runs: 4, PhysicalRuns: intp(1)}.rotates())
	assert.False(t, DeliveryInput{Runs: 3, PhysicalRuns: intp(0)}.rotates())
}

func TestAttributionFromBallRoundTrip(t *testing.T) {
	inputs := []DeliveryInput{
		{Runs: 0},
		{Runs: 4},
		{Runs: 2, OverthrowRuns: 4},
		{Runs: 2, ExtraType: models.ExtraBye},
		{Runs: 1, ExtraType: models.ExtraLegBye},
		{Runs: 2, ExtraType: models.ExtraWide},
		{Runs: 4, ExtraType: models.ExtraNoBall},
		{Runs: 2, ExtraType: models.ExtraNoBallBye},
		{Runs: 1, ExtraType: models.ExtraNoBallLegBye, PenaltyRuns: 5},
		{Runs: 1, PenaltyRuns: 5},
	}

	for _, in := range inputs {
		attr, err := Attribute(in)
		require.NoError(t, err)

		ball := &models.Ball{
			RunsScored:  attr.BatsmanRuns,
			Extras:      attr.ExtraRuns,
			PenaltyRuns: in.PenaltyRuns,
			ExtraType:   in.ExtraType,
		}
		assert.Equal(t, attr, attributionFromBall(ball), "extra type %q", in.ExtraType)
	}
}
