package ratings

import (
	"math"
	"time"

	"github.com/joegr/turny/models"
)

const (
	// DefaultKFactor — стандартная чувствительность ELO для умеренной волатильности.
	DefaultKFactor = 32
	// DefaultRating — стартовый рейтинг новой команды.
	DefaultRating = 1500
)

// Calculator считает вероятности побед и дельты рейтинга по логистической кривой ELO.
// Чистые вычисления, без I/O.
type Calculator struct {
	kFactor int
}

func NewCalculator(kFactor int) *Calculator {
	if kFactor <= 0 {
		kFactor = DefaultKFactor
	}
	return &Calculator{kFactor: kFactor}
}

func (c *Calculator) KFactor() int {
	return c.kFactor
}

// WinProbability возвращает вероятности победы обеих сторон.
// Вторая вероятность определена как дополнение первой, чтобы сумма была ровно 1.0.
func (c *Calculator) WinProbability(ratingA, ratingB int) (float64, float64) {
	expectedA := 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/400))
	return expectedA, 1 - expectedA
}

// RatingChange возвращает дельты победителя и проигравшего.
// Сумма дельт всегда ноль: очки перетекают от проигравшего к победителю.
func (c *Calculator) RatingChange(winnerRating, loserRating int) (int, int) {
	expectedWinner, _ := c.WinProbability(winnerRating, loserRating)
	winnerDelta := int(math.Round(float64(c.kFactor) * (1 - expectedWinner)))
	return winnerDelta, -winnerDelta
}

// DrawChange возвращает дельты при ничьей: фактический счёт 0.5 для обеих сторон.
// Дельты симметричны и в сумме дают ноль.
func (c *Calculator) DrawChange(ratingA, ratingB int) (int, int) {
	expectedA, _ := c.WinProbability(ratingA, ratingB)
	deltaA := int(math.Round(float64(c.kFactor) * (0.5 - expectedA)))
	return deltaA, -deltaA
}

// ApplyResult изменяет рейтинги обеих команд по исходу матча и возвращает
// две записи истории. Рейтинг никогда не опускается ниже нуля.
func (c *Calculator) ApplyResult(winner, loser *models.Team, matchID string) []models.RatingHistoryEntry {
	winnerDelta, loserDelta := c.RatingChange(winner.Rating, loser.Rating)

	winnerBefore, loserBefore := winner.Rating, loser.Rating
	winner.Rating = clampRating(winner.Rating + winnerDelta)
	loser.Rating = clampRating(loser.Rating + loserDelta)

	now := time.Now().UTC()
	return []models.RatingHistoryEntry{
		{
			TeamID:         winner.ID,
			MatchID:        matchID,
			RatingBefore:   winnerBefore,
			RatingAfter:    winner.Rating,
			OpponentRating: loserBefore,
			Result:         models.ResultWin,
			CreatedAt:      now,
		},
		{
			TeamID:         loser.ID,
			MatchID:        matchID,
			RatingBefore:   loserBefore,
			RatingAfter:    loser.Rating,
			OpponentRating: winnerBefore,
			Result:         models.ResultLoss,
			CreatedAt:      now,
		},
	}
}

// ApplyDraw изменяет рейтинги обеих команд при ничьей и возвращает две записи истории.
func (c *Calculator) ApplyDraw(team1, team2 *models.Team, matchID string) []models.RatingHistoryEntry {
	delta1, delta2 := c.DrawChange(team1.Rating, team2.Rating)

	before1, before2 := team1.Rating, team2.Rating
	team1.Rating = clampRating(team1.Rating + delta1)
	team2.Rating = clampRating(team2.Rating + delta2)

	now := time.Now().UTC()
	return []models.RatingHistoryEntry{
		{
			TeamID:         team1.ID,
			MatchID:        matchID,
			RatingBefore:   before1,
			RatingAfter:    team1.Rating,
			OpponentRating: before2,
			Result:         models.ResultDraw,
			CreatedAt:      now,
		},
		{
			TeamID:         team2.ID,
			MatchID:        matchID,
			RatingBefore:   before2,
			RatingAfter:    team2.Rating,
			OpponentRating: before1,
			Result:         models.ResultDraw,
			CreatedAt:      now,
		},
	}
}

func clampRating(rating int) int {
	if rating < 0 {
		return 0
	}
	return rating
}
