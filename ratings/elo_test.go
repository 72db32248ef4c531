package ratings

import (
	"testing"

	"github.com/joegr/turny/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinProbabilityEqualRatings(t *testing.T) {
	calc := NewCalculator(DefaultKFactor)

	for _, rating := range []int{0, 1000, 1500, 2400} {
		pA, pB := calc.WinProbability(rating, rating)
		assert.Equal(t, 0.5, pA)
		assert.Equal(t, 0.5, pB)
	}
}

func TestWinProbabilitySumsToExactlyOne(t *testing.T) {
	calc := NewCalculator(DefaultKFactor)

	pairs := [][2]int{{1500, 1500}, {1500, 1600}, {1200, 2400}, {0, 3000}, {1777, 1333}}
	for _, pair := range pairs {
		pA, pB := calc.WinProbability(pair[0], pair[1])
		// Ровно 1.0, не приблизительно: вторая вероятность — дополнение первой.
		assert.Equal(t, 1.0, pA+pB, "ratings %d vs %d", pair[0], pair[1])
	}
}

func TestWinProbabilityMonotonicInGap(t *testing.T) {
	calc := NewCalculator(DefaultKFactor)

	prev := 0.5
	for gap := 50; gap <= 800; gap += 50 {
		pA, _ := calc.WinProbability(1500+gap, 1500)
		assert.Greater(t, pA, prev, "gap %d", gap)
		prev = pA
	}
}

func TestRatingChangeZeroSum(t *testing.T) {
	calc := NewCalculator(DefaultKFactor)

	pairs := [][2]int{{1500, 1500}, {1600, 1400}, {1400, 1600}, {2000, 1000}, {1000, 2000}}
	for _, pair := range pairs {
		winnerDelta, loserDelta := calc.RatingChange(pair[0], pair[1])
		assert.Zero(t, winnerDelta+loserDelta, "winner %d loser %d", pair[0], pair[1])
		assert.Positive(t, winnerDelta)
	}
}

func TestEqualRatingsYieldHalfK(t *testing.T) {
	winnerDelta, _ := NewCalculator(32).RatingChange(1500, 1500)
	assert.Equal(t, 16, winnerDelta)

	winnerDelta, _ = NewCalculator(16).RatingChange(1500, 1500)
	assert.Equal(t, 8, winnerDelta)
}

func TestUpsetYieldsLargerDelta(t *testing.T) {
	calc := NewCalculator(DefaultKFactor)

	expectedDelta, _ := calc.RatingChange(1700, 1300) // фаворит победил
	upsetDelta, _ := calc.RatingChange(1300, 1700)    // аутсайдер победил

	assert.Greater(t, upsetDelta, expectedDelta)
}

func TestKFactorScalesMagnitude(t *testing.T) {
	delta32, _ := NewCalculator(32).RatingChange(1400, 1600)
	delta16, _ := NewCalculator(16).RatingChange(1400, 1600)

	assert.Greater(t, delta32, delta16)
}

func TestDrawChangeSymmetricZeroSum(t *testing.T) {
	calc := NewCalculator(DefaultKFactor)

	delta1, delta2 := calc.DrawChange(1500, 1500)
	assert.Zero(t, delta1)
	assert.Zero(t, delta2)

	// При ничьей слабая сторона набирает, сильная теряет, сумма — ноль.
	deltaLow, deltaHigh := calc.DrawChange(1300, 1700)
	assert.Positive(t, deltaLow)
	assert.Zero(t, deltaLow+deltaHigh)
}

func TestApplyResultUpdatesTeamsAndHistory(t *testing.T) {
	calc := NewCalculator(DefaultKFactor)
	winner := &models.Team{ID: "t1", Rating: 1500}
	loser := &models.Team{ID: "t2", Rating: 1500}

	entries := calc.ApplyResult(winner, loser, "r1_m1")

	assert.Equal(t, 1516, winner.Rating)
	assert.Equal(t, 1484, loser.Rating)

	require.Len(t, entries, 2)
	assert.Equal(t, "t1", entries[0].TeamID)
	assert.Equal(t, models.ResultWin, entries[0].Result)
	assert.Equal(t, 1500, entries[0].RatingBefore)
	assert.Equal(t, 1516, entries[0].RatingAfter)
	assert.Equal(t, "t2", entries[1].TeamID)
	assert.Equal(t, models.ResultLoss, entries[1].Result)
	assert.Equal(t, "r1_m1", entries[1].MatchID)
}

func TestApplyResultClampsAtZero(t *testing.T) {
	calc := NewCalculator(DefaultKFactor)
	winner := &models.Team{ID: "t1", Rating: 2500}
	loser := &models.Team{ID: "t2", Rating: 10}

	entries := calc.ApplyResult(winner, loser, "r1_m1")

	assert.GreaterOrEqual(t, loser.Rating, 0)
	assert.Equal(t, loser.Rating, entries[1].RatingAfter)
}

func TestApplyDrawProducesTwoEntries(t *testing.T) {
	calc := NewCalculator(DefaultKFactor)
	team1 := &models.Team{ID: "t1", Rating: 1300}
	team2 := &models.Team{ID: "t2", Rating: 1700}

	entries := calc.ApplyDraw(team1, team2, "r2_m1")

	require.Len(t, entries, 2)
	assert.Equal(t, models.ResultDraw, entries[0].Result)
	assert.Equal(t, models.ResultDraw, entries[1].Result)
	assert.Zero(t, entries[0].Change()+entries[1].Change())
	assert.Greater(t, team1.Rating, 1300)
	assert.Less(t, team2.Rating, 1700)
}
